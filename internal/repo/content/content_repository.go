// Package content persists the site's editorial content: posts, categories,
// awards, publications, social links, and the singleton profile and donation
// settings.
package content

import (
	"context"

	"github.com/amanihub/sheetcms/internal/domain"
)

// Repository defines the interface for content persistence.
type Repository interface {
	// ListPosts returns posts, optionally filtered by status. An empty status
	// or "all" returns everything.
	ListPosts(ctx context.Context, status string) ([]domain.Post, error)

	// GetPost retrieves a post by ID.
	// Returns the post and true if found, or a zero post and false if not.
	GetPost(ctx context.Context, id int64) (domain.Post, bool, error)

	// SearchPosts returns published posts whose title or content matches the query.
	SearchPosts(ctx context.Context, query string) ([]domain.Post, error)

	// CreatePost stores a new post and returns it with its assigned ID.
	CreatePost(ctx context.Context, post domain.Post) (domain.Post, error)

	// UpdatePost replaces an existing post.
	// Returns domain.ErrNotFound if it does not exist.
	UpdatePost(ctx context.Context, post domain.Post) (domain.Post, error)

	// DeletePost removes a post by ID. Returns domain.ErrNotFound if absent.
	DeletePost(ctx context.Context, id int64) error

	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, category domain.Category) (domain.Category, error)
	UpdateCategory(ctx context.Context, category domain.Category) (domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListAwards(ctx context.Context) ([]domain.Award, error)
	CreateAward(ctx context.Context, award domain.Award) (domain.Award, error)
	UpdateAward(ctx context.Context, award domain.Award) (domain.Award, error)
	DeleteAward(ctx context.Context, id int64) error

	ListPublications(ctx context.Context) ([]domain.Publication, error)
	CreatePublication(ctx context.Context, pub domain.Publication) (domain.Publication, error)
	UpdatePublication(ctx context.Context, pub domain.Publication) (domain.Publication, error)
	DeletePublication(ctx context.Context, id int64) error

	ListSocialLinks(ctx context.Context) ([]domain.SocialLink, error)
	CreateSocialLink(ctx context.Context, link domain.SocialLink) (domain.SocialLink, error)
	UpdateSocialLink(ctx context.Context, link domain.SocialLink) (domain.SocialLink, error)
	DeleteSocialLink(ctx context.Context, id int64) error

	// GetProfile returns the organization profile (zero value when unset).
	GetProfile(ctx context.Context) (domain.Profile, error)

	// SaveProfile replaces the organization profile.
	SaveProfile(ctx context.Context, profile domain.Profile) error

	// GetDonateInfo returns the donation settings (zero value when unset).
	GetDonateInfo(ctx context.Context) (domain.DonateInfo, error)

	// SaveDonateInfo replaces the donation settings.
	SaveDonateInfo(ctx context.Context, info domain.DonateInfo) error

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func() (Repository, error)
