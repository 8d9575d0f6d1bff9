package user

import (
	"context"

	"github.com/amanihub/sheetcms/internal/domain"
)

// Repository defines the interface for admin account and refresh-token
// persistence.
type Repository interface {
	// CreateAccount adds a new account.
	// Returns domain.ErrUserAlreadyExists if the email is already taken.
	CreateAccount(ctx context.Context, account domain.Account) error

	// GetAccountByEmail retrieves an account by email.
	// Returns the account and true if found, or a zero account and false if not.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, bool, error)

	// ListAccounts returns all accounts.
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// UpdateAccount updates name and super-admin flag of the account with the
	// given email. Returns domain.ErrUserNotFound if it does not exist.
	UpdateAccount(ctx context.Context, account domain.Account) error

	// SetPassword replaces the password hash of the account with the given email.
	SetPassword(ctx context.Context, email string, passwordHash []byte) error

	// DeleteAccount removes the account with the given email and all its
	// refresh tokens.
	DeleteAccount(ctx context.Context, email string) error

	// CreateRefreshToken stores a refresh token record.
	CreateRefreshToken(ctx context.Context, record domain.RefreshTokenRecord) error

	// ConsumeRefreshToken atomically looks up and deletes a refresh token,
	// enforcing single use. Returns domain.ErrRefreshTokenNotFound if absent
	// and domain.ErrRefreshTokenExpired if past expiry.
	ConsumeRefreshToken(ctx context.Context, id string) (domain.RefreshTokenRecord, error)

	// DeleteRefreshTokensForUser revokes all refresh tokens of an account.
	DeleteRefreshTokensForUser(ctx context.Context, userID int64) error

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)
