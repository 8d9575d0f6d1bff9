package sheetsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/amanihub/sheetcms/internal/domain"
	context_ "github.com/amanihub/sheetcms/internal/infra/context"
	"github.com/amanihub/sheetcms/internal/infra/logging"
	http_ "github.com/amanihub/sheetcms/internal/infra/transport/http"
)

// ErrUnknownAction is returned for requests naming no known operation.
var ErrUnknownAction = errors.New("unknown action")

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig
}

// HTTPTransport handles HTTP requests for the content service. All operations
// share a single endpoint and are selected by an action parameter, mirroring
// how spreadsheet-script web apps route requests. Tokens travel as a query or
// form parameter, never as a header.
type HTTPTransport struct {
	svc *SheetService
	log logging.Logger
	cfg HTTPTransportConfig
}

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
func NewHTTPTransport(svc *SheetService, cfg HTTPTransportConfig) *HTTPTransport {
	return &HTTPTransport{
		svc: svc,
		log: logging.GetLogger("svc.sheetsvc.http_transport"),
		cfg: cfg,
	}
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// ServeHTTP implements http.Handler and sets up the service routes:
// - GET/POST /exec: action-dispatched API endpoint
// - GET /media/: stored media files.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /exec", ht.HandleExec)
	mux.HandleFunc("POST /exec", ht.HandleExec)
	mux.Handle("GET /media/", http.StripPrefix("/media/",
		http.FileServer(http.Dir(ht.svc.MediaRepo.Dir()))))
	mux.ServeHTTP(w, r)
}

// HandleExec dispatches a request to the operation named by its action
// parameter. Reads carry parameters in the query string, writes as
// form-urlencoded fields.
func (ht *HTTPTransport) HandleExec(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleExec(w, r)
}

func (ht *HTTPTransport) handleExec(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "exec failed", "error", err)
		} else {
			log.DebugContext(ctx, "exec handled")
		}
	}(r.Context())

	if err := r.ParseForm(); err != nil {
		writeEnvelope(w, http.StatusBadRequest, domain.Fail("malformed request"))

		return fmt.Errorf("parse form: %w", err)
	}

	action := domain.Action(r.FormValue("action"))
	log = log.With(logging.Group("exec", "action", action.String()))

	if !action.Valid() {
		writeEnvelope(w, http.StatusBadRequest, domain.Fail("unknown action: "+action.String()))

		return fmt.Errorf("%w: %q", ErrUnknownAction, action.String())
	}

	env, status, err := ht.dispatch(r, action)
	if err != nil && env.Error == nil {
		env = domain.Fail("internal error")
	}

	writeEnvelope(w, status, env)

	return err
}

//nolint:cyclop
func (ht *HTTPTransport) dispatch(r *http.Request, action domain.Action) (domain.Envelope, int, error) {
	ctx := r.Context()

	switch action {
	case domain.ActionListPosts, domain.ActionGetPost, domain.ActionSearchPosts,
		domain.ActionListCategories, domain.ActionListAwards, domain.ActionListPubs,
		domain.ActionListSocialLinks, domain.ActionGetProfile, domain.ActionGetDonateInfo:
		return ht.dispatchPublic(ctx, r, action)
	case domain.ActionLogin:
		return ht.handleLogin(ctx, r)
	case domain.ActionRefreshToken:
		return ht.handleRefresh(ctx, r)
	case domain.ActionLogout:
		return ht.handleLogout(ctx, r)
	default:
	}

	actor, err := ht.svc.ValidateToken(ctx, r.FormValue("token"))
	if err != nil {
		return domain.Fail("session expired"), http.StatusUnauthorized,
			fmt.Errorf("validate token: %w", err)
	}

	return ht.dispatchAdmin(context_.WithActor(ctx, actor), r, action, actor)
}

//nolint:cyclop
func (ht *HTTPTransport) dispatchPublic(
	ctx context.Context,
	r *http.Request,
	action domain.Action,
) (domain.Envelope, int, error) {
	switch action {
	case domain.ActionListPosts:
		status := r.FormValue("status")
		if status == "" {
			status = "published"
		}

		posts, err := ht.svc.ContentRepo.ListPosts(ctx, status)

		return respond(filterByCategory(posts, formInt64(r, "categoryId")), err)
	case domain.ActionGetPost:
		post, ok, err := ht.svc.ContentRepo.GetPost(ctx, formInt64(r, "id"))
		if err != nil || !ok {
			return domain.Fail("post not found"), http.StatusOK, err
		}

		return respond(post, nil)
	case domain.ActionSearchPosts:
		posts, err := ht.svc.ContentRepo.SearchPosts(ctx, r.FormValue("q"))

		return respond(posts, err)
	case domain.ActionListCategories:
		categories, err := ht.svc.ContentRepo.ListCategories(ctx)

		return respond(categories, err)
	case domain.ActionListAwards:
		awards, err := ht.svc.ContentRepo.ListAwards(ctx)

		return respond(awards, err)
	case domain.ActionListPubs:
		pubs, err := ht.svc.ContentRepo.ListPublications(ctx)

		return respond(pubs, err)
	case domain.ActionListSocialLinks:
		links, err := ht.svc.ContentRepo.ListSocialLinks(ctx)

		return respond(links, err)
	case domain.ActionGetProfile:
		profile, err := ht.svc.ContentRepo.GetProfile(ctx)

		return respond(profile, err)
	case domain.ActionGetDonateInfo:
		info, err := ht.svc.ContentRepo.GetDonateInfo(ctx)

		return respond(info, err)
	default:
		return domain.Fail("unknown action: " + action.String()), http.StatusBadRequest,
			fmt.Errorf("%w: %q", ErrUnknownAction, action.String())
	}
}

//nolint:cyclop,funlen
func (ht *HTTPTransport) dispatchAdmin(
	ctx context.Context,
	r *http.Request,
	action domain.Action,
	actor domain.User,
) (domain.Envelope, int, error) {
	switch action {
	case domain.ActionCreatePost:
		post, err := ht.svc.ContentRepo.CreatePost(ctx, parsePost(r))

		return respond(post, err)
	case domain.ActionUpdatePost:
		post := parsePost(r)
		post.ID = formInt64(r, "id")

		updated, err := ht.svc.ContentRepo.UpdatePost(ctx, post)

		return respond(updated, err)
	case domain.ActionDeletePost:
		return confirm(ht.svc.ContentRepo.DeletePost(ctx, formInt64(r, "id")))
	case domain.ActionCreateCategory:
		category, err := ht.svc.ContentRepo.CreateCategory(ctx, parseCategory(r))

		return respond(category, err)
	case domain.ActionUpdateCategory:
		category := parseCategory(r)
		category.ID = formInt64(r, "id")

		updated, err := ht.svc.ContentRepo.UpdateCategory(ctx, category)

		return respond(updated, err)
	case domain.ActionDeleteCategory:
		return confirm(ht.svc.ContentRepo.DeleteCategory(ctx, formInt64(r, "id")))
	case domain.ActionCreateAward:
		award, err := ht.svc.ContentRepo.CreateAward(ctx, parseAward(r))

		return respond(award, err)
	case domain.ActionUpdateAward:
		award := parseAward(r)
		award.ID = formInt64(r, "id")

		updated, err := ht.svc.ContentRepo.UpdateAward(ctx, award)

		return respond(updated, err)
	case domain.ActionDeleteAward:
		return confirm(ht.svc.ContentRepo.DeleteAward(ctx, formInt64(r, "id")))
	case domain.ActionCreatePub:
		pub, err := ht.svc.ContentRepo.CreatePublication(ctx, parsePublication(r))

		return respond(pub, err)
	case domain.ActionUpdatePub:
		pub := parsePublication(r)
		pub.ID = formInt64(r, "id")

		updated, err := ht.svc.ContentRepo.UpdatePublication(ctx, pub)

		return respond(updated, err)
	case domain.ActionDeletePub:
		return confirm(ht.svc.ContentRepo.DeletePublication(ctx, formInt64(r, "id")))
	case domain.ActionCreateSocialLink:
		link, err := ht.svc.ContentRepo.CreateSocialLink(ctx, parseSocialLink(r))

		return respond(link, err)
	case domain.ActionUpdateSocialLink:
		link := parseSocialLink(r)
		link.ID = formInt64(r, "id")

		updated, err := ht.svc.ContentRepo.UpdateSocialLink(ctx, link)

		return respond(updated, err)
	case domain.ActionDeleteSocialLink:
		return confirm(ht.svc.ContentRepo.DeleteSocialLink(ctx, formInt64(r, "id")))
	case domain.ActionUpdateProfile:
		profile := parseProfile(r)
		if err := ht.svc.ContentRepo.SaveProfile(ctx, profile); err != nil {
			return respond(struct{}{}, err)
		}

		return respond(profile, nil)
	case domain.ActionUpdateDonate:
		info := parseDonateInfo(r)
		if err := ht.svc.ContentRepo.SaveDonateInfo(ctx, info); err != nil {
			return respond(struct{}{}, err)
		}

		return respond(info, nil)
	case domain.ActionListUsers:
		users, err := ht.svc.ListUsers(ctx)

		return respond(users, err)
	case domain.ActionCreateUser:
		newUser := parseUser(r)
		if err := ht.svc.CreateUser(ctx, newUser, r.FormValue("password")); err != nil {
			return respond(struct{}{}, err)
		}

		return respond(newUser, nil)
	case domain.ActionUpdateUser:
		updated := parseUser(r)
		if err := ht.svc.UpdateUser(ctx, updated); err != nil {
			return respond(struct{}{}, err)
		}

		return respond(updated, nil)
	case domain.ActionDeleteUser:
		return confirm(ht.svc.DeleteUser(ctx, actor, r.FormValue("email")))
	case domain.ActionChangePassword:
		return confirm(ht.svc.ChangePassword(ctx, actor.Email,
			r.FormValue("oldPassword"), r.FormValue("newPassword")))
	case domain.ActionUploadMedia:
		result, err := ht.svc.UploadMedia(ctx,
			r.FormValue("filename"), r.FormValue("mimeType"), r.FormValue("content"))

		return respond(result, err)
	case domain.ActionDeleteMedia:
		return confirm(ht.svc.DeleteMedia(ctx, r.FormValue("url")))
	case domain.ActionCheckSuperAdmin:
		return respond(struct {
			IsSuperAdmin bool `json:"is_super_admin"`
		}{IsSuperAdmin: actor.IsSuperAdmin}, nil)
	default:
		return domain.Fail("unknown action: " + action.String()), http.StatusBadRequest,
			fmt.Errorf("%w: %q", ErrUnknownAction, action.String())
	}
}

func (ht *HTTPTransport) handleLogin(ctx context.Context, r *http.Request) (domain.Envelope, int, error) {
	result, err := ht.svc.Login(ctx, r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return domain.Fail("invalid email or password"), http.StatusOK, err
		}

		return domain.Fail("internal error"), http.StatusInternalServerError, err
	}

	return respond(result, nil)
}

func (ht *HTTPTransport) handleRefresh(ctx context.Context, r *http.Request) (domain.Envelope, int, error) {
	result, err := ht.svc.Refresh(ctx, r.FormValue("refreshToken"))
	if err != nil {
		if errors.Is(err, domain.ErrRefreshTokenNotFound) || errors.Is(err, domain.ErrRefreshTokenExpired) {
			return domain.Fail("session expired"), http.StatusOK, err
		}

		return domain.Fail("internal error"), http.StatusInternalServerError, err
	}

	return respond(result, nil)
}

func (ht *HTTPTransport) handleLogout(ctx context.Context, r *http.Request) (domain.Envelope, int, error) {
	if err := ht.svc.Logout(ctx, r.FormValue("refreshToken")); err != nil {
		return domain.Fail("internal error"), http.StatusInternalServerError, err
	}

	return respond(true, nil)
}

// respond wraps a payload into a success envelope, translating domain errors
// into failed envelopes the way a spreadsheet backend would: HTTP 200 with a
// success flag, reserving real status codes for auth and malformed requests.
func respond(data any, err error) (domain.Envelope, int, error) {
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return domain.Fail("not found"), http.StatusOK, err
		case errors.Is(err, domain.ErrUserNotFound):
			return domain.Fail("user not found"), http.StatusOK, err
		case errors.Is(err, domain.ErrUserAlreadyExists):
			return domain.Fail("user already exists"), http.StatusOK, err
		case errors.Is(err, domain.ErrInvalidCredentials):
			return domain.Fail("invalid credentials"), http.StatusOK, err
		case errors.Is(err, ErrForbidden):
			return domain.Fail("forbidden"), http.StatusOK, err
		default:
			return domain.Fail("internal error"), http.StatusInternalServerError, err
		}
	}

	env, err := domain.OK(data)
	if err != nil {
		return domain.Fail("internal error"), http.StatusInternalServerError, err
	}

	return env, http.StatusOK, nil
}

func confirm(err error) (domain.Envelope, int, error) {
	return respond(true, err)
}

func writeEnvelope(w http.ResponseWriter, status int, env domain.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(env)
}

func filterByCategory(posts []domain.Post, categoryID int64) []domain.Post {
	if categoryID == 0 {
		return posts
	}

	filtered := make([]domain.Post, 0, len(posts))

	for _, post := range posts {
		if post.CategoryID == categoryID {
			filtered = append(filtered, post)
		}
	}

	return filtered
}

func parsePost(r *http.Request) domain.Post {
	status := r.FormValue("status")
	if status == "" {
		status = "draft"
	}

	var mediaURLs []string
	if raw := r.FormValue("mediaUrls"); raw != "" {
		_ = json.Unmarshal([]byte(raw), &mediaURLs)
	}

	//nolint:exhaustruct
	return domain.Post{
		Title:      r.FormValue("title"),
		Slug:       r.FormValue("slug"),
		Content:    r.FormValue("content"),
		Excerpt:    r.FormValue("excerpt"),
		CategoryID: formInt64(r, "categoryId"),
		Status:     status,
		CoverURL:   r.FormValue("coverUrl"),
		MediaURLs:  mediaURLs,
	}
}

func parseCategory(r *http.Request) domain.Category {
	//nolint:exhaustruct
	return domain.Category{
		Name: r.FormValue("name"),
		Slug: r.FormValue("slug"),
	}
}

func parseAward(r *http.Request) domain.Award {
	//nolint:exhaustruct
	return domain.Award{
		Title:       r.FormValue("title"),
		Year:        formInt(r, "year"),
		Description: r.FormValue("description"),
		ImageURL:    r.FormValue("imageUrl"),
	}
}

func parsePublication(r *http.Request) domain.Publication {
	//nolint:exhaustruct
	return domain.Publication{
		Title:   r.FormValue("title"),
		Author:  r.FormValue("author"),
		Year:    formInt(r, "year"),
		FileURL: r.FormValue("fileUrl"),
	}
}

func parseSocialLink(r *http.Request) domain.SocialLink {
	//nolint:exhaustruct
	return domain.SocialLink{
		Platform: r.FormValue("platform"),
		URL:      r.FormValue("url"),
	}
}

func parseProfile(r *http.Request) domain.Profile {
	return domain.Profile{
		Name:    r.FormValue("name"),
		Mission: r.FormValue("mission"),
		About:   r.FormValue("about"),
		Email:   r.FormValue("email"),
		Phone:   r.FormValue("phone"),
		Address: r.FormValue("address"),
	}
}

func parseDonateInfo(r *http.Request) domain.DonateInfo {
	return domain.DonateInfo{
		BankName:      r.FormValue("bankName"),
		AccountName:   r.FormValue("accountName"),
		AccountNumber: r.FormValue("accountNumber"),
		Instructions:  r.FormValue("instructions"),
	}
}

func parseUser(r *http.Request) domain.User {
	super, _ := strconv.ParseBool(r.FormValue("is_super_admin"))

	return domain.User{
		Email:        r.FormValue("email"),
		Name:         r.FormValue("name"),
		IsSuperAdmin: super,
	}
}

func formInt64(r *http.Request, key string) int64 {
	value, _ := strconv.ParseInt(r.FormValue(key), 10, 64)

	return value
}

func formInt(r *http.Request, key string) int {
	value, _ := strconv.Atoi(r.FormValue(key))

	return value
}
