//go:build integration || all

package sheetsvc_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amanihub/sheetcms/internal/domain"
	"github.com/amanihub/sheetcms/internal/repo/content"
	"github.com/amanihub/sheetcms/internal/repo/media"
	"github.com/amanihub/sheetcms/internal/repo/user"
	"github.com/amanihub/sheetcms/internal/svc/apiclient"
	"github.com/amanihub/sheetcms/internal/svc/authsvc"
	"github.com/amanihub/sheetcms/internal/svc/sheetsvc"
)

type testStack struct {
	server *httptest.Server
	store  *authsvc.MemStore
	auth   *authsvc.Manager
	public *apiclient.PublicAPI
	admin  *apiclient.AdminAPI
}

func setupStack(t *testing.T) *testStack {
	t.Helper()

	tempDir := t.TempDir()

	svc, err := sheetsvc.NewSheetService(
		context.Background(),
		user.SQLiteUserRepositoryFactory(user.SQLiteUserRepositoryConfig{
			DatabasePath: tempDir + "/users.db",
		}),
		content.SQLiteContentRepositoryFactory(content.SQLiteContentRepositoryConfig{
			DatabasePath: tempDir + "/content.db",
		}),
		media.FileSystemMediaRepositoryFactory(media.FileSystemMediaRepositoryConfig{
			Basedir: tempDir + "/media",
			BaseURL: "/media",
		}),
		sheetsvc.SheetConfig{
			TokenSecret:          "integration-secret",
			TokenDuration:        3600,
			RefreshTokenDuration: 86400,
			BootstrapEmail:       "admin@example.org",
			BootstrapPassword:    "bootstrap-pw",
			BootstrapName:        "Admin",
		},
	)
	if err != nil {
		t.Fatalf("new sheet service: %v", err)
	}

	t.Cleanup(func() { _ = svc.Close() })

	//nolint:exhaustruct
	server := httptest.NewServer(sheetsvc.NewHTTPTransport(svc, sheetsvc.HTTPTransportConfig{}))
	t.Cleanup(server.Close)

	transport := apiclient.NewTransport(apiclient.TransportConfig{
		Endpoint: server.URL + "/exec",
		Timeout:  10,
	}, server.Client(), nil)

	store := authsvc.NewMemStore()
	auth := authsvc.NewManager(transport, store, authsvc.ManagerConfig{RefreshThreshold: 300})

	return &testStack{
		server: server,
		store:  store,
		auth:   auth,
		public: apiclient.NewPublicAPI(transport),
		admin:  apiclient.NewAdminAPI(transport),
	}
}

func (s *testStack) login(t *testing.T) {
	t.Helper()

	if _, err := s.auth.Login(context.Background(), "admin@example.org", "bootstrap-pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestEndToEnd_ContentLifecycle(t *testing.T) {
	t.Parallel()

	stack := setupStack(t)
	ctx := context.Background()

	stack.login(t)

	category, err := stack.admin.CreateCategory(ctx, domain.Category{Name: "News", Slug: "news"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	draft, err := stack.admin.CreatePost(ctx, domain.Post{
		Title:      "Annual Report",
		Slug:       "annual-report",
		Content:    "Full text of the annual report.",
		CategoryID: category.ID,
		Status:     "draft",
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	// Drafts are invisible to the public listing.
	visible, err := stack.public.ListPosts(ctx, apiclient.ListPostsParams{})
	if err != nil {
		t.Fatalf("public list: %v", err)
	}

	if len(visible) != 0 {
		t.Errorf("public posts = %d, want 0 while draft", len(visible))
	}

	draft.Status = "published"

	published, err := stack.admin.UpdatePost(ctx, draft)
	if err != nil {
		t.Fatalf("publish post: %v", err)
	}

	got, err := stack.public.GetPost(ctx, published.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}

	if got.Title != "Annual Report" || got.Status != "published" {
		t.Errorf("post = %+v", got)
	}

	matches, err := stack.public.SearchPosts(ctx, "annual")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(matches) != 1 {
		t.Errorf("search matches = %d, want 1", len(matches))
	}

	if err := stack.admin.DeletePost(ctx, published.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}

	if _, err := stack.public.GetPost(ctx, published.ID); err == nil {
		t.Error("deleted post still readable")
	}
}

func TestEndToEnd_AuthRefreshOn401(t *testing.T) {
	t.Parallel()

	stack := setupStack(t)
	ctx := context.Background()

	stack.login(t)

	// Corrupt the access token but keep the refresh token: the next
	// authenticated call gets a 401, refreshes, and retries transparently.
	session, err := stack.store.Load()
	if err != nil {
		t.Fatalf("load session: %v", err)
	}

	goodRefresh := session.RefreshToken
	session.Token = "corrupted"

	if err := stack.store.Save(session); err != nil {
		t.Fatalf("save session: %v", err)
	}

	users, err := stack.admin.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users after token corruption: %v", err)
	}

	if len(users) != 1 {
		t.Errorf("users = %d, want 1", len(users))
	}

	rotated, err := stack.store.Load()
	if err != nil {
		t.Fatalf("load rotated session: %v", err)
	}

	if rotated.Token == "corrupted" || rotated.Token == "" {
		t.Error("access token was not replaced by the refresh")
	}

	if rotated.RefreshToken == goodRefresh {
		t.Error("refresh token was not rotated")
	}
}

func TestEndToEnd_MediaUploadAndServe(t *testing.T) {
	t.Parallel()

	stack := setupStack(t)
	ctx := context.Background()

	stack.login(t)

	payload := []byte("not really a png, but stored verbatim")

	result, err := stack.admin.UploadMedia(ctx, "report.png", "image/png", payload)
	if err != nil {
		t.Fatalf("upload media: %v", err)
	}

	resp, err := stack.server.Client().Get(stack.server.URL + result.URL)
	if err != nil {
		t.Fatalf("fetch media: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fetch media status = %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read media body: %v", err)
	}

	if string(body) != string(payload) {
		t.Error("served media differs from uploaded payload")
	}

	if err := stack.admin.DeleteMedia(ctx, result.URL); err != nil {
		t.Fatalf("delete media: %v", err)
	}
}

func TestEndToEnd_UserManagement(t *testing.T) {
	t.Parallel()

	stack := setupStack(t)
	ctx := context.Background()

	stack.login(t)

	super, err := stack.admin.CheckSuperAdmin(ctx)
	if err != nil || !super {
		t.Fatalf("check super admin = %v, %v", super, err)
	}

	editor := domain.User{Email: "editor@example.org", Name: "Editor"}

	if _, err := stack.admin.CreateUser(ctx, editor, "editor-pw"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	users, err := stack.admin.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}

	if len(users) != 2 {
		t.Errorf("users = %d, want 2", len(users))
	}

	if err := stack.admin.DeleteUser(ctx, "editor@example.org"); err != nil {
		t.Fatalf("delete user: %v", err)
	}
}

func TestEndToEnd_UnknownActionRejected(t *testing.T) {
	t.Parallel()

	stack := setupStack(t)

	resp, err := stack.server.Client().Get(stack.server.URL + "/exec?action=dropAllTables")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
