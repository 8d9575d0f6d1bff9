package apiclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strconv"

	"github.com/amanihub/sheetcms/internal/domain"
)

// AdminAPI exposes the authenticated actions of the backend. Every call
// attaches the current token as a query parameter (reads) or form field
// (writes). The token field is sent even when empty; the client never
// pre-validates token presence before a write.
type AdminAPI struct {
	t *Transport
}

// NewAdminAPI creates the admin API surface over the given transport.
// The transport's token source supplies the session token.
func NewAdminAPI(t *Transport) *AdminAPI {
	return &AdminAPI{t: t}
}

// ListPosts returns all posts, drafts included.
func (a *AdminAPI) ListPosts(ctx context.Context) ([]domain.Post, error) {
	return decode[[]domain.Post](a.t.GetAuthed(ctx, domain.ActionListPosts, map[string]string{
		"status": "all",
	}))
}

// CreatePost creates a post and returns it with its assigned ID.
func (a *AdminAPI) CreatePost(ctx context.Context, post domain.Post) (domain.Post, error) {
	return decode[domain.Post](a.t.PostAuthed(ctx, domain.ActionCreatePost, postFields(post)))
}

// UpdatePost updates an existing post.
func (a *AdminAPI) UpdatePost(ctx context.Context, post domain.Post) (domain.Post, error) {
	fields := postFields(post)
	fields["id"] = strconv.FormatInt(post.ID, 10)

	return decode[domain.Post](a.t.PostAuthed(ctx, domain.ActionUpdatePost, fields))
}

// DeletePost deletes a post by ID.
func (a *AdminAPI) DeletePost(ctx context.Context, id int64) error {
	return confirm(a.t.PostAuthed(ctx, domain.ActionDeletePost, map[string]string{
		"id": strconv.FormatInt(id, 10),
	}))
}

// CreateCategory creates a category.
func (a *AdminAPI) CreateCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	return decode[domain.Category](a.t.PostAuthed(ctx, domain.ActionCreateCategory, map[string]string{
		"name": category.Name,
		"slug": category.Slug,
	}))
}

// UpdateCategory updates a category.
func (a *AdminAPI) UpdateCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	return decode[domain.Category](a.t.PostAuthed(ctx, domain.ActionUpdateCategory, map[string]string{
		"id":   strconv.FormatInt(category.ID, 10),
		"name": category.Name,
		"slug": category.Slug,
	}))
}

// DeleteCategory deletes a category by ID.
func (a *AdminAPI) DeleteCategory(ctx context.Context, id int64) error {
	return confirm(a.t.PostAuthed(ctx, domain.ActionDeleteCategory, map[string]string{
		"id": strconv.FormatInt(id, 10),
	}))
}

// CreateAward creates an award entry.
func (a *AdminAPI) CreateAward(ctx context.Context, award domain.Award) (domain.Award, error) {
	return decode[domain.Award](a.t.PostAuthed(ctx, domain.ActionCreateAward, awardFields(award)))
}

// UpdateAward updates an award entry.
func (a *AdminAPI) UpdateAward(ctx context.Context, award domain.Award) (domain.Award, error) {
	fields := awardFields(award)
	fields["id"] = strconv.FormatInt(award.ID, 10)

	return decode[domain.Award](a.t.PostAuthed(ctx, domain.ActionUpdateAward, fields))
}

// DeleteAward deletes an award by ID.
func (a *AdminAPI) DeleteAward(ctx context.Context, id int64) error {
	return confirm(a.t.PostAuthed(ctx, domain.ActionDeleteAward, map[string]string{
		"id": strconv.FormatInt(id, 10),
	}))
}

// CreatePublication creates a publication entry.
func (a *AdminAPI) CreatePublication(ctx context.Context, pub domain.Publication) (domain.Publication, error) {
	return decode[domain.Publication](a.t.PostAuthed(ctx, domain.ActionCreatePub, pubFields(pub)))
}

// UpdatePublication updates a publication entry.
func (a *AdminAPI) UpdatePublication(ctx context.Context, pub domain.Publication) (domain.Publication, error) {
	fields := pubFields(pub)
	fields["id"] = strconv.FormatInt(pub.ID, 10)

	return decode[domain.Publication](a.t.PostAuthed(ctx, domain.ActionUpdatePub, fields))
}

// DeletePublication deletes a publication by ID.
func (a *AdminAPI) DeletePublication(ctx context.Context, id int64) error {
	return confirm(a.t.PostAuthed(ctx, domain.ActionDeletePub, map[string]string{
		"id": strconv.FormatInt(id, 10),
	}))
}

// CreateSocialLink creates a social link.
func (a *AdminAPI) CreateSocialLink(ctx context.Context, link domain.SocialLink) (domain.SocialLink, error) {
	return decode[domain.SocialLink](a.t.PostAuthed(ctx, domain.ActionCreateSocialLink, map[string]string{
		"platform": link.Platform,
		"url":      link.URL,
	}))
}

// UpdateSocialLink updates a social link.
func (a *AdminAPI) UpdateSocialLink(ctx context.Context, link domain.SocialLink) (domain.SocialLink, error) {
	return decode[domain.SocialLink](a.t.PostAuthed(ctx, domain.ActionUpdateSocialLink, map[string]string{
		"id":       strconv.FormatInt(link.ID, 10),
		"platform": link.Platform,
		"url":      link.URL,
	}))
}

// DeleteSocialLink deletes a social link by ID.
func (a *AdminAPI) DeleteSocialLink(ctx context.Context, id int64) error {
	return confirm(a.t.PostAuthed(ctx, domain.ActionDeleteSocialLink, map[string]string{
		"id": strconv.FormatInt(id, 10),
	}))
}

// UpdateProfile replaces the organization profile.
func (a *AdminAPI) UpdateProfile(ctx context.Context, profile domain.Profile) (domain.Profile, error) {
	return decode[domain.Profile](a.t.PostAuthed(ctx, domain.ActionUpdateProfile, map[string]string{
		"name":    profile.Name,
		"mission": profile.Mission,
		"about":   profile.About,
		"email":   profile.Email,
		"phone":   profile.Phone,
		"address": profile.Address,
	}))
}

// UpdateDonateInfo replaces the donation instructions.
func (a *AdminAPI) UpdateDonateInfo(ctx context.Context, info domain.DonateInfo) (domain.DonateInfo, error) {
	return decode[domain.DonateInfo](a.t.PostAuthed(ctx, domain.ActionUpdateDonate, map[string]string{
		"bankName":      info.BankName,
		"accountName":   info.AccountName,
		"accountNumber": info.AccountNumber,
		"instructions":  info.Instructions,
	}))
}

// ListUsers returns all admin users.
func (a *AdminAPI) ListUsers(ctx context.Context) ([]domain.User, error) {
	return decode[[]domain.User](a.t.GetAuthed(ctx, domain.ActionListUsers, nil))
}

// CreateUser creates an admin user.
func (a *AdminAPI) CreateUser(ctx context.Context, user domain.User, password string) (domain.User, error) {
	return decode[domain.User](a.t.PostAuthed(ctx, domain.ActionCreateUser, map[string]string{
		"email":          user.Email,
		"name":           user.Name,
		"password":       password,
		"is_super_admin": strconv.FormatBool(user.IsSuperAdmin),
	}))
}

// UpdateUser updates an admin user identified by email.
func (a *AdminAPI) UpdateUser(ctx context.Context, user domain.User) (domain.User, error) {
	return decode[domain.User](a.t.PostAuthed(ctx, domain.ActionUpdateUser, map[string]string{
		"email":          user.Email,
		"name":           user.Name,
		"is_super_admin": strconv.FormatBool(user.IsSuperAdmin),
	}))
}

// DeleteUser deletes an admin user by email.
func (a *AdminAPI) DeleteUser(ctx context.Context, email string) error {
	return confirm(a.t.PostAuthed(ctx, domain.ActionDeleteUser, map[string]string{
		"email": email,
	}))
}

// ChangePassword changes the current user's password.
func (a *AdminAPI) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return confirm(a.t.PostAuthed(ctx, domain.ActionChangePassword, map[string]string{
		"oldPassword": oldPassword,
		"newPassword": newPassword,
	}))
}

// UploadMedia uploads a file through the backend's own media action. The
// content travels base64-encoded in a form field; multipart would trigger a
// CORS preflight the backend cannot answer.
func (a *AdminAPI) UploadMedia(
	ctx context.Context,
	filename, mimeType string,
	data []byte,
) (domain.UploadResult, error) {
	return decode[domain.UploadResult](a.t.PostAuthed(ctx, domain.ActionUploadMedia, map[string]string{
		"filename": filename,
		"mimeType": mimeType,
		"content":  base64.StdEncoding.EncodeToString(data),
	}))
}

// DeleteMedia deletes an uploaded file by its URL.
func (a *AdminAPI) DeleteMedia(ctx context.Context, mediaURL string) error {
	return confirm(a.t.PostAuthed(ctx, domain.ActionDeleteMedia, map[string]string{
		"url": mediaURL,
	}))
}

// CheckSuperAdmin reports whether the current session belongs to a super
// admin. The server is authoritative; the cached user projection is not.
func (a *AdminAPI) CheckSuperAdmin(ctx context.Context) (bool, error) {
	result, err := decode[struct {
		IsSuperAdmin bool `json:"is_super_admin"`
	}](a.t.GetAuthed(ctx, domain.ActionCheckSuperAdmin, nil))
	if err != nil {
		return false, err
	}

	return result.IsSuperAdmin, nil
}

func postFields(post domain.Post) map[string]string {
	fields := map[string]string{
		"title":      post.Title,
		"slug":       post.Slug,
		"content":    post.Content,
		"excerpt":    post.Excerpt,
		"status":     post.Status,
		"coverUrl":   post.CoverURL,
		"categoryId": strconv.FormatInt(post.CategoryID, 10),
	}

	if len(post.MediaURLs) > 0 {
		if raw, err := json.Marshal(post.MediaURLs); err == nil {
			fields["mediaUrls"] = string(raw)
		}
	}

	return fields
}

func awardFields(award domain.Award) map[string]string {
	return map[string]string{
		"title":       award.Title,
		"year":        strconv.Itoa(award.Year),
		"description": award.Description,
		"imageUrl":    award.ImageURL,
	}
}

func pubFields(pub domain.Publication) map[string]string {
	return map[string]string{
		"title":   pub.Title,
		"author":  pub.Author,
		"year":    strconv.Itoa(pub.Year),
		"fileUrl": pub.FileURL,
	}
}
