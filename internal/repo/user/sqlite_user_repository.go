package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/amanihub/sheetcms/internal/domain"
	"github.com/amanihub/sheetcms/internal/infra/logging"
)

// SQLiteUserRepositoryConfig holds configuration for the SQLite user repository.
type SQLiteUserRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/users.db"`
}

// SQLiteUserRepository implements Repository using SQLite as the storage backend.
type SQLiteUserRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteUserRepository)(nil)

// SQLiteUserRepositoryFactory creates a factory function that returns a new
// SQLiteUserRepository. The factory function implements the RepositoryFactory type.
func SQLiteUserRepositoryFactory(cfg SQLiteUserRepositoryConfig) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteUserRepository(cfg)
	}
}

// NewSQLiteUserRepository creates a new SQLiteUserRepository with the given
// configuration. It initializes the database connection and creates the
// schema if needed.
func NewSQLiteUserRepository(cfg SQLiteUserRepositoryConfig) (*SQLiteUserRepository, error) {
	log := logging.GetLogger("repo.user.sqlite_user_repository").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := initializeDB(db); err != nil {
		return nil, fmt.Errorf("initialize db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &SQLiteUserRepository{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

func initializeDB(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			email          TEXT    UNIQUE NOT NULL,
			name           TEXT    NOT NULL DEFAULT '',
			password_hash  BLOB    NOT NULL,
			is_super_admin INTEGER NOT NULL DEFAULT 0,
			created_at     INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS refresh_tokens (
			id         TEXT    PRIMARY KEY,
			user_id    INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			expires_at INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// CreateAccount implements Repository.CreateAccount using SQLite.
func (r *SQLiteUserRepository) CreateAccount(ctx context.Context, account domain.Account) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO accounts (email, name, password_hash, is_super_admin, created_at) VALUES (?, ?, ?, ?, ?)",
		account.Email,
		account.Name,
		account.PasswordHash,
		account.IsSuperAdmin,
		time.Now().Unix(),
	)
	if err != nil {
		var liteErr *sqlite.Error
		if errors.As(err, &liteErr) {
			switch liteErr.Code() {
			case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
				err = errors.Join(domain.ErrUserAlreadyExists, err)
			default:
			}
		}

		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// GetAccountByEmail implements Repository.GetAccountByEmail using SQLite.
func (r *SQLiteUserRepository) GetAccountByEmail(
	ctx context.Context,
	email string,
) (domain.Account, bool, error) {
	var account domain.Account

	err := r.db.QueryRowContext(ctx,
		"SELECT id, email, name, password_hash, is_super_admin, created_at FROM accounts WHERE email = ?",
		email,
	).Scan(
		&account.ID,
		&account.Email,
		&account.Name,
		&account.PasswordHash,
		&account.IsSuperAdmin,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrUserNotFound, err)
		}

		return domain.Account{}, false, fmt.Errorf("query account: %w", err)
	}

	return account, true, nil
}

// ListAccounts implements Repository.ListAccounts using SQLite.
func (r *SQLiteUserRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, email, name, password_hash, is_super_admin, created_at FROM accounts ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account

	for rows.Next() {
		var account domain.Account

		if err := rows.Scan(
			&account.ID,
			&account.Email,
			&account.Name,
			&account.PasswordHash,
			&account.IsSuperAdmin,
			&account.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}

		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// UpdateAccount implements Repository.UpdateAccount using SQLite.
func (r *SQLiteUserRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	result, err := r.db.ExecContext(ctx,
		"UPDATE accounts SET name = ?, is_super_admin = ? WHERE email = ?",
		account.Name,
		account.IsSuperAdmin,
		account.Email,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}

	return checkAffected(result)
}

// SetPassword implements Repository.SetPassword using SQLite.
func (r *SQLiteUserRepository) SetPassword(ctx context.Context, email string, passwordHash []byte) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	result, err := r.db.ExecContext(ctx,
		"UPDATE accounts SET password_hash = ? WHERE email = ?",
		passwordHash,
		email,
	)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}

	return checkAffected(result)
}

// DeleteAccount implements Repository.DeleteAccount using SQLite.
func (r *SQLiteUserRepository) DeleteAccount(ctx context.Context, email string) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	result, err := r.db.ExecContext(ctx, "DELETE FROM accounts WHERE email = ?", email)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	return checkAffected(result)
}

// CreateRefreshToken implements Repository.CreateRefreshToken using SQLite.
func (r *SQLiteUserRepository) CreateRefreshToken(
	ctx context.Context,
	record domain.RefreshTokenRecord,
) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO refresh_tokens (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)",
		record.ID,
		record.UserID,
		record.ExpiresAt.Unix(),
		record.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

// ConsumeRefreshToken implements Repository.ConsumeRefreshToken using SQLite.
// The lookup and delete happen under the write lock, so a token presented
// twice concurrently is honored at most once.
func (r *SQLiteUserRepository) ConsumeRefreshToken(
	ctx context.Context,
	id string,
) (domain.RefreshTokenRecord, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	var (
		record    domain.RefreshTokenRecord
		expiresAt int64
		createdAt int64
	)

	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, expires_at, created_at FROM refresh_tokens WHERE id = ?",
		id,
	).Scan(&record.ID, &record.UserID, &expiresAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RefreshTokenRecord{}, domain.ErrRefreshTokenNotFound
		}

		return domain.RefreshTokenRecord{}, fmt.Errorf("query refresh token: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE id = ?", id); err != nil {
		return domain.RefreshTokenRecord{}, fmt.Errorf("delete refresh token: %w", err)
	}

	record.ExpiresAt = time.Unix(expiresAt, 0)
	record.CreatedAt = time.Unix(createdAt, 0)

	if record.ExpiresAt.Before(time.Now()) {
		return domain.RefreshTokenRecord{}, domain.ErrRefreshTokenExpired
	}

	return record, nil
}

// DeleteRefreshTokensForUser implements Repository.DeleteRefreshTokensForUser using SQLite.
func (r *SQLiteUserRepository) DeleteRefreshTokensForUser(ctx context.Context, userID int64) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE user_id = ?", userID,
	); err != nil {
		return fmt.Errorf("delete refresh tokens: %w", err)
	}

	return nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteUserRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}
