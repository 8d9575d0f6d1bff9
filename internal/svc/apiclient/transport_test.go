package apiclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amanihub/sheetcms/internal/domain"

	. "github.com/amanihub/sheetcms/internal/svc/apiclient"
)

// stubTokens implements TokenSource with a swappable token value.
type stubTokens struct {
	token atomic.Value
}

func newStubTokens(token string) *stubTokens {
	s := &stubTokens{}
	s.token.Store(token)

	return s
}

func (s *stubTokens) Token() string {
	token, _ := s.token.Load().(string)

	return token
}

// stubRefresher implements Refresher, counting calls and optionally rotating
// the token source on success.
type stubRefresher struct {
	calls    atomic.Int64
	err      error
	onSuccess func()
}

func (s *stubRefresher) Refresh(context.Context) error {
	s.calls.Add(1)

	if s.err != nil {
		return s.err
	}

	if s.onSuccess != nil {
		s.onSuccess()
	}

	return nil
}

func newTestTransport(t *testing.T, handler http.HandlerFunc, tokens TokenSource) *Transport {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewTransport(TransportConfig{
		Endpoint: server.URL + "/exec",
		Timeout:  5,
	}, server.Client(), tokens)
}

func apiCode(t *testing.T, err error) domain.ErrorCode {
	t.Helper()

	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}

	return apiErr.Code
}

func TestTransport_UnknownActionFailsWithoutRequest(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64

	transport := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}, nil)

	_, err := transport.Get(context.Background(), domain.Action("bogus"), nil)

	if code := apiCode(t, err); code != domain.CodeValidation {
		t.Errorf("code = %v, want %v", code, domain.CodeValidation)
	}

	if n := requests.Load(); n != 0 {
		t.Errorf("requests sent = %d, want 0", n)
	}
}

func TestTransport_GetSendsActionAndParams(t *testing.T) {
	t.Parallel()

	transport := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("action"); got != "listPosts" {
			t.Errorf("action = %q, want listPosts", got)
		}

		if got := r.URL.Query().Get("status"); got != "published" {
			t.Errorf("status = %q, want published", got)
		}

		if _, ok := r.URL.Query()["token"]; ok {
			t.Error("public request must not carry a token parameter")
		}

		w.Write([]byte(`{"success":true,"data":[]}`))
	}, newStubTokens("secret"))

	env, err := transport.Get(context.Background(), domain.ActionListPosts, map[string]string{
		"status": "published",
	})
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	if !env.Success {
		t.Error("Get() envelope not successful")
	}
}

func TestTransport_PostAuthedSendsTokenField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
	}{
		{name: "with token", token: "tok-123"},
		{name: "empty token still sent", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transport := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
					t.Errorf("content type = %q", got)
				}

				if err := r.ParseForm(); err != nil {
					t.Fatalf("parse form: %v", err)
				}

				if _, ok := r.PostForm["token"]; !ok {
					t.Error("token field missing from form body")
				}

				if got := r.PostFormValue("token"); got != tt.token {
					t.Errorf("token = %q, want %q", got, tt.token)
				}

				if r.Header.Get("Authorization") != "" {
					t.Error("token must never travel as a header")
				}

				w.Write([]byte(`{"success":true}`))
			}, newStubTokens(tt.token))

			if _, err := transport.PostAuthed(context.Background(), domain.ActionCreatePost, nil); err != nil {
				t.Fatalf("PostAuthed() error: %v", err)
			}
		})
	}
}

func TestTransport_RefreshAndRetryOn401(t *testing.T) {
	t.Parallel()

	tokens := newStubTokens("stale")

	var requests atomic.Int64

	transport := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		_ = r.ParseForm()

		if r.FormValue("token") != "fresh" {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		w.Write([]byte(`{"success":true}`))
	}, tokens)

	refresher := &stubRefresher{onSuccess: func() { tokens.token.Store("fresh") }}
	transport.SetRefresher(refresher)

	env, err := transport.PostAuthed(context.Background(), domain.ActionCreatePost, nil)
	if err != nil {
		t.Fatalf("PostAuthed() error: %v", err)
	}

	if !env.Success {
		t.Error("envelope not successful after retry")
	}

	if n := refresher.calls.Load(); n != 1 {
		t.Errorf("refresh calls = %d, want 1", n)
	}

	if n := requests.Load(); n != 2 {
		t.Errorf("requests = %d, want 2", n)
	}
}

func TestTransport_FailedRefreshSurfacesUnauthorized(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64

	transport := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"message":"session expired"}`))
	}, newStubTokens("stale"))

	refresher := &stubRefresher{err: errors.New("refresh rejected")}
	transport.SetRefresher(refresher)

	_, err := transport.GetAuthed(context.Background(), domain.ActionListUsers, nil)

	if code := apiCode(t, err); code != domain.CodeUnauthorized {
		t.Errorf("code = %v, want %v", code, domain.CodeUnauthorized)
	}

	if n := requests.Load(); n != 1 {
		t.Errorf("requests = %d, want 1 (no retry after failed refresh)", n)
	}
}

func TestTransport_SecondUnauthorizedDoesNotRefreshAgain(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64

	transport := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}, newStubTokens("revoked"))

	refresher := &stubRefresher{}
	transport.SetRefresher(refresher)

	_, err := transport.GetAuthed(context.Background(), domain.ActionListUsers, nil)

	if code := apiCode(t, err); code != domain.CodeUnauthorized {
		t.Errorf("code = %v, want %v", code, domain.CodeUnauthorized)
	}

	if n := refresher.calls.Load(); n != 1 {
		t.Errorf("refresh calls = %d, want exactly 1", n)
	}

	if n := requests.Load(); n != 2 {
		t.Errorf("requests = %d, want 2", n)
	}
}

func TestTransport_StatusClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		wantCode domain.ErrorCode
		wantMsg  string
	}{
		{
			name:     "bad request",
			status:   http.StatusBadRequest,
			body:     `{"success":false,"message":"missing title"}`,
			wantCode: domain.CodeValidation,
			wantMsg:  "missing title",
		},
		{
			name:     "forbidden",
			status:   http.StatusForbidden,
			wantCode: domain.CodeForbidden,
		},
		{
			name:     "not found",
			status:   http.StatusNotFound,
			wantCode: domain.CodeNotFound,
		},
		{
			name:     "rate limited",
			status:   http.StatusTooManyRequests,
			wantCode: domain.CodeRateLimited,
		},
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			wantCode: domain.CodeServer,
		},
		{
			name:     "bad gateway counts as server error",
			status:   http.StatusBadGateway,
			wantCode: domain.CodeServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transport := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, nil)

			_, err := transport.Get(context.Background(), domain.ActionGetProfile, nil)

			var apiErr *domain.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}

			if apiErr.Code != tt.wantCode {
				t.Errorf("code = %v, want %v", apiErr.Code, tt.wantCode)
			}

			if tt.wantMsg != "" && apiErr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestTransport_TimeoutClassifiedAsTimeout(t *testing.T) {
	t.Parallel()

	transport := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := transport.Get(ctx, domain.ActionGetProfile, nil)

	if code := apiCode(t, err); code != domain.CodeTimeout {
		t.Errorf("code = %v, want %v", code, domain.CodeTimeout)
	}
}

func TestTransport_NetworkErrorClassifiedAsNetwork(t *testing.T) {
	t.Parallel()

	transport := NewTransport(TransportConfig{
		Endpoint: "http://127.0.0.1:1/exec", // nothing listens here
		Timeout:  5,
	}, nil, nil)

	_, err := transport.Get(context.Background(), domain.ActionGetProfile, nil)

	if code := apiCode(t, err); code != domain.CodeNetwork {
		t.Errorf("code = %v, want %v", code, domain.CodeNetwork)
	}
}

func TestTransport_HTMLBodyBecomesBadGateway(t *testing.T) {
	t.Parallel()

	transport := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<!DOCTYPE html><html><body>error page</body></html>`))
	}, nil)

	_, err := transport.Get(context.Background(), domain.ActionGetProfile, nil)

	if code := apiCode(t, err); code != domain.CodeBadGateway {
		t.Errorf("code = %v, want %v", code, domain.CodeBadGateway)
	}
}
