package apiclient

import (
	"context"
	"strconv"

	"github.com/amanihub/sheetcms/internal/domain"
)

// PublicAPI exposes the unauthenticated read actions of the backend: the
// content the public site renders. No token is attached to these requests.
type PublicAPI struct {
	t *Transport
}

// NewPublicAPI creates the public API surface over the given transport.
func NewPublicAPI(t *Transport) *PublicAPI {
	return &PublicAPI{t: t}
}

// ListPostsParams filters the post listing. Zero values are omitted from the
// request.
type ListPostsParams struct {
	Status     string
	CategoryID int64
}

// ListPosts returns posts matching the given filters.
func (p *PublicAPI) ListPosts(ctx context.Context, params ListPostsParams) ([]domain.Post, error) {
	query := map[string]string{}

	if params.Status != "" {
		query["status"] = params.Status
	}

	if params.CategoryID != 0 {
		query["categoryId"] = strconv.FormatInt(params.CategoryID, 10)
	}

	return decode[[]domain.Post](p.t.Get(ctx, domain.ActionListPosts, query))
}

// GetPost returns a single post by ID.
func (p *PublicAPI) GetPost(ctx context.Context, id int64) (domain.Post, error) {
	return decode[domain.Post](p.t.Get(ctx, domain.ActionGetPost, map[string]string{
		"id": strconv.FormatInt(id, 10),
	}))
}

// SearchPosts returns published posts matching the query string.
func (p *PublicAPI) SearchPosts(ctx context.Context, query string) ([]domain.Post, error) {
	return decode[[]domain.Post](p.t.Get(ctx, domain.ActionSearchPosts, map[string]string{
		"q": query,
	}))
}

// ListCategories returns all post categories.
func (p *PublicAPI) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return decode[[]domain.Category](p.t.Get(ctx, domain.ActionListCategories, nil))
}

// ListAwards returns all awards.
func (p *PublicAPI) ListAwards(ctx context.Context) ([]domain.Award, error) {
	return decode[[]domain.Award](p.t.Get(ctx, domain.ActionListAwards, nil))
}

// ListPublications returns all publications.
func (p *PublicAPI) ListPublications(ctx context.Context) ([]domain.Publication, error) {
	return decode[[]domain.Publication](p.t.Get(ctx, domain.ActionListPubs, nil))
}

// ListSocialLinks returns the organization's social links.
func (p *PublicAPI) ListSocialLinks(ctx context.Context) ([]domain.SocialLink, error) {
	return decode[[]domain.SocialLink](p.t.Get(ctx, domain.ActionListSocialLinks, nil))
}

// GetProfile returns the organization profile.
func (p *PublicAPI) GetProfile(ctx context.Context) (domain.Profile, error) {
	return decode[domain.Profile](p.t.Get(ctx, domain.ActionGetProfile, nil))
}

// GetDonateInfo returns the donation instructions.
func (p *PublicAPI) GetDonateInfo(ctx context.Context) (domain.DonateInfo, error) {
	return decode[domain.DonateInfo](p.t.Get(ctx, domain.ActionGetDonateInfo, nil))
}

// decode unwraps a transport result into a typed payload. A transport error
// passes through unchanged; an unsuccessful envelope becomes a generic
// APIError carrying the backend's message.
func decode[T any](env domain.Envelope, err error) (T, error) {
	var zero T

	if err != nil {
		return zero, err
	}

	if !env.Success {
		return zero, envelopeError(env)
	}

	var out T
	if err := env.DecodeData(&out); err != nil {
		return zero, domain.NewAPIError(domain.CodeGeneric, err.Error())
	}

	return out, nil
}

// confirm checks a data-less transport result for success.
func confirm(env domain.Envelope, err error) error {
	if err != nil {
		return err
	}

	if !env.Success {
		return envelopeError(env)
	}

	return nil
}

func envelopeError(env domain.Envelope) *domain.APIError {
	message := env.ErrorMessage()
	if message == "" {
		message = "request failed"
	}

	apiErr := domain.NewAPIError(domain.CodeGeneric, message)
	if env.Error != nil {
		apiErr.Raw = env.Error.Raw
	}

	return apiErr
}
