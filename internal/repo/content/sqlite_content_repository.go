package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // database/sql driver

	"github.com/amanihub/sheetcms/internal/domain"
	"github.com/amanihub/sheetcms/internal/infra/logging"
)

const (
	settingProfile    = "profile"
	settingDonateInfo = "donate_info"
)

// SQLiteContentRepositoryConfig holds configuration for the SQLite content repository.
type SQLiteContentRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/content.db"`
}

// SQLiteContentRepository implements Repository using SQLite as the storage backend.
type SQLiteContentRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteContentRepository)(nil)

// SQLiteContentRepositoryFactory creates a factory function that returns a new
// SQLiteContentRepository.
func SQLiteContentRepositoryFactory(cfg SQLiteContentRepositoryConfig) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteContentRepository(cfg)
	}
}

// NewSQLiteContentRepository creates a new SQLiteContentRepository with the
// given configuration, creating the schema if needed.
func NewSQLiteContentRepository(cfg SQLiteContentRepositoryConfig) (*SQLiteContentRepository, error) {
	log := logging.GetLogger("repo.content.sqlite_content_repository").With(
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

	return &SQLiteContentRepository{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

func initializeDB(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			title       TEXT    NOT NULL,
			slug        TEXT    NOT NULL DEFAULT '',
			content     TEXT    NOT NULL DEFAULT '',
			excerpt     TEXT    NOT NULL DEFAULT '',
			category_id INTEGER NOT NULL DEFAULT 0,
			status      TEXT    NOT NULL DEFAULT 'draft',
			cover_url   TEXT    NOT NULL DEFAULT '',
			media_urls  TEXT    NOT NULL DEFAULT '[]',
			created_at  INTEGER NOT NULL,
			updated_at  INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS categories (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT    NOT NULL,
			slug TEXT    NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS awards (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			title       TEXT    NOT NULL,
			year        INTEGER NOT NULL DEFAULT 0,
			description TEXT    NOT NULL DEFAULT '',
			image_url   TEXT    NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS publications (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			title    TEXT    NOT NULL,
			author   TEXT    NOT NULL DEFAULT '',
			year     INTEGER NOT NULL DEFAULT 0,
			file_url TEXT    NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS social_links (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			platform TEXT    NOT NULL,
			url      TEXT    NOT NULL
		);
		CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// ListPosts implements Repository.ListPosts using SQLite.
func (r *SQLiteContentRepository) ListPosts(ctx context.Context, status string) ([]domain.Post, error) {
	query := "SELECT id, title, slug, content, excerpt, category_id, status, cover_url, media_urls, created_at, updated_at FROM posts"

	var args []any

	if status != "" && status != "all" {
		query += " WHERE status = ?"
		args = append(args, status)
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// GetPost implements Repository.GetPost using SQLite.
func (r *SQLiteContentRepository) GetPost(ctx context.Context, id int64) (domain.Post, bool, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, title, slug, content, excerpt, category_id, status, cover_url, media_urls, created_at, updated_at FROM posts WHERE id = ?",
		id,
	)

	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Post{}, false, errors.Join(domain.ErrNotFound, err)
		}

		return domain.Post{}, false, fmt.Errorf("query post: %w", err)
	}

	return post, true, nil
}

// SearchPosts implements Repository.SearchPosts using SQLite.
func (r *SQLiteContentRepository) SearchPosts(ctx context.Context, query string) ([]domain.Post, error) {
	pattern := "%" + query + "%"

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, slug, content, excerpt, category_id, status, cover_url, media_urls, created_at, updated_at
		 FROM posts
		 WHERE status = 'published' AND (title LIKE ? OR content LIKE ?)
		 ORDER BY created_at DESC`,
		pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// CreatePost implements Repository.CreatePost using SQLite.
func (r *SQLiteContentRepository) CreatePost(ctx context.Context, post domain.Post) (domain.Post, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	now := time.Now().Unix()
	post.CreatedAt = now
	post.UpdatedAt = now

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (title, slug, content, excerpt, category_id, status, cover_url, media_urls, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.Title, post.Slug, post.Content, post.Excerpt, post.CategoryID,
		post.Status, post.CoverURL, marshalURLs(post.MediaURLs), post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return domain.Post{}, fmt.Errorf("insert post: %w", err)
	}

	post.ID, err = result.LastInsertId()
	if err != nil {
		return domain.Post{}, fmt.Errorf("last insert id: %w", err)
	}

	return post, nil
}

// UpdatePost implements Repository.UpdatePost using SQLite.
func (r *SQLiteContentRepository) UpdatePost(ctx context.Context, post domain.Post) (domain.Post, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	post.UpdatedAt = time.Now().Unix()

	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, slug = ?, content = ?, excerpt = ?, category_id = ?,
		 status = ?, cover_url = ?, media_urls = ?, updated_at = ? WHERE id = ?`,
		post.Title, post.Slug, post.Content, post.Excerpt, post.CategoryID,
		post.Status, post.CoverURL, marshalURLs(post.MediaURLs), post.UpdatedAt, post.ID,
	)
	if err != nil {
		return domain.Post{}, fmt.Errorf("update post: %w", err)
	}

	if err := checkAffected(result); err != nil {
		return domain.Post{}, err
	}

	return post, nil
}

// DeletePost implements Repository.DeletePost using SQLite.
func (r *SQLiteContentRepository) DeletePost(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "posts", id)
}

// ListCategories implements Repository.ListCategories using SQLite.
func (r *SQLiteContentRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, slug FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category

	for rows.Next() {
		var category domain.Category

		if err := rows.Scan(&category.ID, &category.Name, &category.Slug); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}

		categories = append(categories, category)
	}

	return categories, rows.Err()
}

// CreateCategory implements Repository.CreateCategory using SQLite.
func (r *SQLiteContentRepository) CreateCategory(
	ctx context.Context,
	category domain.Category,
) (domain.Category, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO categories (name, slug) VALUES (?, ?)",
		category.Name, category.Slug,
	)
	if err != nil {
		return domain.Category{}, fmt.Errorf("insert category: %w", err)
	}

	category.ID, err = result.LastInsertId()
	if err != nil {
		return domain.Category{}, fmt.Errorf("last insert id: %w", err)
	}

	return category, nil
}

// UpdateCategory implements Repository.UpdateCategory using SQLite.
func (r *SQLiteContentRepository) UpdateCategory(
	ctx context.Context,
	category domain.Category,
) (domain.Category, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	result, err := r.db.ExecContext(ctx,
		"UPDATE categories SET name = ?, slug = ? WHERE id = ?",
		category.Name, category.Slug, category.ID,
	)
	if err != nil {
		return domain.Category{}, fmt.Errorf("update category: %w", err)
	}

	if err := checkAffected(result); err != nil {
		return domain.Category{}, err
	}

	return category, nil
}

// DeleteCategory implements Repository.DeleteCategory using SQLite.
func (r *SQLiteContentRepository) DeleteCategory(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "categories", id)
}

// ListAwards implements Repository.ListAwards using SQLite.
func (r *SQLiteContentRepository) ListAwards(ctx context.Context) ([]domain.Award, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, title, year, description, image_url FROM awards ORDER BY year DESC, id",
	)
	if err != nil {
		return nil, fmt.Errorf("query awards: %w", err)
	}
	defer rows.Close()

	var awards []domain.Award

	for rows.Next() {
		var award domain.Award

		if err := rows.Scan(&award.ID, &award.Title, &award.Year, &award.Description, &award.ImageURL); err != nil {
			return nil, fmt.Errorf("scan award: %w", err)
		}

		awards = append(awards, award)
	}

	return awards, rows.Err()
}

// CreateAward implements Repository.CreateAward using SQLite.
func (r *SQLiteContentRepository) CreateAward(ctx context.Context, award domain.Award) (domain.Award, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO awards (title, year, description, image_url) VALUES (?, ?, ?, ?)",
		award.Title, award.Year, award.Description, award.ImageURL,
	)
	if err != nil {
		return domain.Award{}, fmt.Errorf("insert award: %w", err)
	}

	award.ID, err = result.LastInsertId()
	if err != nil {
		return domain.Award{}, fmt.Errorf("last insert id: %w", err)
	}

	return award, nil
}

// UpdateAward implements Repository.UpdateAward using SQLite.
func (r *SQLiteContentRepository) UpdateAward(ctx context.Context, award domain.Award) (domain.Award, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	result, err := r.db.ExecContext(ctx,
		"UPDATE awards SET title = ?, year = ?, description = ?, image_url = ? WHERE id = ?",
		award.Title, award.Year, award.Description, award.ImageURL, award.ID,
	)
	if err != nil {
		return domain.Award{}, fmt.Errorf("update award: %w", err)
	}

	if err := checkAffected(result); err != nil {
		return domain.Award{}, err
	}

	return award, nil
}

// DeleteAward implements Repository.DeleteAward using SQLite.
func (r *SQLiteContentRepository) DeleteAward(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "awards", id)
}

// ListPublications implements Repository.ListPublications using SQLite.
func (r *SQLiteContentRepository) ListPublications(ctx context.Context) ([]domain.Publication, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, title, author, year, file_url FROM publications ORDER BY year DESC, id",
	)
	if err != nil {
		return nil, fmt.Errorf("query publications: %w", err)
	}
	defer rows.Close()

	var pubs []domain.Publication

	for rows.Next() {
		var pub domain.Publication

		if err := rows.Scan(&pub.ID, &pub.Title, &pub.Author, &pub.Year, &pub.FileURL); err != nil {
			return nil, fmt.Errorf("scan publication: %w", err)
		}

		pubs = append(pubs, pub)
	}

	return pubs, rows.Err()
}

// CreatePublication implements Repository.CreatePublication using SQLite.
func (r *SQLiteContentRepository) CreatePublication(
	ctx context.Context,
	pub domain.Publication,
) (domain.Publication, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO publications (title, author, year, file_url) VALUES (?, ?, ?, ?)",
		pub.Title, pub.Author, pub.Year, pub.FileURL,
	)
	if err != nil {
		return domain.Publication{}, fmt.Errorf("insert publication: %w", err)
	}

	pub.ID, err = result.LastInsertId()
	if err != nil {
		return domain.Publication{}, fmt.Errorf("last insert id: %w", err)
	}

	return pub, nil
}

// UpdatePublication implements Repository.UpdatePublication using SQLite.
func (r *SQLiteContentRepository) UpdatePublication(
	ctx context.Context,
	pub domain.Publication,
) (domain.Publication, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	result, err := r.db.ExecContext(ctx,
		"UPDATE publications SET title = ?, author = ?, year = ?, file_url = ? WHERE id = ?",
		pub.Title, pub.Author, pub.Year, pub.FileURL, pub.ID,
	)
	if err != nil {
		return domain.Publication{}, fmt.Errorf("update publication: %w", err)
	}

	if err := checkAffected(result); err != nil {
		return domain.Publication{}, err
	}

	return pub, nil
}

// DeletePublication implements Repository.DeletePublication using SQLite.
func (r *SQLiteContentRepository) DeletePublication(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "publications", id)
}

// ListSocialLinks implements Repository.ListSocialLinks using SQLite.
func (r *SQLiteContentRepository) ListSocialLinks(ctx context.Context) ([]domain.SocialLink, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, platform, url FROM social_links ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query social links: %w", err)
	}
	defer rows.Close()

	var links []domain.SocialLink

	for rows.Next() {
		var link domain.SocialLink

		if err := rows.Scan(&link.ID, &link.Platform, &link.URL); err != nil {
			return nil, fmt.Errorf("scan social link: %w", err)
		}

		links = append(links, link)
	}

	return links, rows.Err()
}

// CreateSocialLink implements Repository.CreateSocialLink using SQLite.
func (r *SQLiteContentRepository) CreateSocialLink(
	ctx context.Context,
	link domain.SocialLink,
) (domain.SocialLink, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO social_links (platform, url) VALUES (?, ?)",
		link.Platform, link.URL,
	)
	if err != nil {
		return domain.SocialLink{}, fmt.Errorf("insert social link: %w", err)
	}

	link.ID, err = result.LastInsertId()
	if err != nil {
		return domain.SocialLink{}, fmt.Errorf("last insert id: %w", err)
	}

	return link, nil
}

// UpdateSocialLink implements Repository.UpdateSocialLink using SQLite.
func (r *SQLiteContentRepository) UpdateSocialLink(
	ctx context.Context,
	link domain.SocialLink,
) (domain.SocialLink, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	result, err := r.db.ExecContext(ctx,
		"UPDATE social_links SET platform = ?, url = ? WHERE id = ?",
		link.Platform, link.URL, link.ID,
	)
	if err != nil {
		return domain.SocialLink{}, fmt.Errorf("update social link: %w", err)
	}

	if err := checkAffected(result); err != nil {
		return domain.SocialLink{}, err
	}

	return link, nil
}

// DeleteSocialLink implements Repository.DeleteSocialLink using SQLite.
func (r *SQLiteContentRepository) DeleteSocialLink(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "social_links", id)
}

// GetProfile implements Repository.GetProfile using SQLite.
func (r *SQLiteContentRepository) GetProfile(ctx context.Context) (domain.Profile, error) {
	var profile domain.Profile

	if err := r.getSetting(ctx, settingProfile, &profile); err != nil {
		return domain.Profile{}, err
	}

	return profile, nil
}

// SaveProfile implements Repository.SaveProfile using SQLite.
func (r *SQLiteContentRepository) SaveProfile(ctx context.Context, profile domain.Profile) error {
	return r.putSetting(ctx, settingProfile, profile)
}

// GetDonateInfo implements Repository.GetDonateInfo using SQLite.
func (r *SQLiteContentRepository) GetDonateInfo(ctx context.Context) (domain.DonateInfo, error) {
	var info domain.DonateInfo

	if err := r.getSetting(ctx, settingDonateInfo, &info); err != nil {
		return domain.DonateInfo{}, err
	}

	return info, nil
}

// SaveDonateInfo implements Repository.SaveDonateInfo using SQLite.
func (r *SQLiteContentRepository) SaveDonateInfo(ctx context.Context, info domain.DonateInfo) error {
	return r.putSetting(ctx, settingDonateInfo, info)
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteContentRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

func (r *SQLiteContentRepository) deleteByID(ctx context.Context, table string, id int64) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	//nolint:gosec // table names come from the fixed call sites above
	result, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}

	return checkAffected(result)
}

func (r *SQLiteContentRepository) getSetting(ctx context.Context, key string, out any) error {
	var value string

	err := r.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil // Unset settings read as zero values
		}

		return fmt.Errorf("query setting %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(value), out); err != nil {
		return fmt.Errorf("parse setting %s: %w", key, err)
	}

	return nil
}

func (r *SQLiteContentRepository) putSetting(ctx context.Context, key string, value any) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal setting %s: %w", key, err)
	}

	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, string(raw),
	); err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}

	return nil
}

type postScanner interface {
	Scan(dest ...any) error
}

func scanPost(row postScanner) (domain.Post, error) {
	var (
		post      domain.Post
		mediaURLs string
	)

	if err := row.Scan(
		&post.ID, &post.Title, &post.Slug, &post.Content, &post.Excerpt,
		&post.CategoryID, &post.Status, &post.CoverURL, &mediaURLs,
		&post.CreatedAt, &post.UpdatedAt,
	); err != nil {
		return domain.Post{}, err
	}

	if err := json.Unmarshal([]byte(mediaURLs), &post.MediaURLs); err != nil {
		post.MediaURLs = nil
	}

	return post, nil
}

func scanPosts(rows *sql.Rows) ([]domain.Post, error) {
	var posts []domain.Post

	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}

		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}

func marshalURLs(urls []string) string {
	if len(urls) == 0 {
		return "[]"
	}

	raw, err := json.Marshal(urls)
	if err != nil {
		return "[]"
	}

	return string(raw)
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}
