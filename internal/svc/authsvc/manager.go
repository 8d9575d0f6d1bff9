// Package authsvc owns the client-side session lifecycle: login, logout,
// proactive refresh ahead of expiry, and the one-shot reactive refresh the
// transport invokes on a 401.
package authsvc

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/amanihub/sheetcms/internal/domain"
	"github.com/amanihub/sheetcms/internal/infra/logging"
	"github.com/amanihub/sheetcms/internal/svc/apiclient"
)

// ManagerConfig holds configuration for the auth manager.
type ManagerConfig struct {
	// RefreshThreshold is how many seconds before token expiry the proactive
	// refresh fires. Default is 5 minutes.
	RefreshThreshold int64 `env:"REFRESH_THRESHOLD" default:"300"`
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Manager owns the token and refresh-token lifecycle. It is constructed once
// at application start and passed by reference; there is no package-level
// session state. It implements the transport's TokenSource and Refresher.
type Manager struct {
	transport *apiclient.Transport
	store     Store
	cfg       ManagerConfig
	log       logging.Logger

	refreshGroup singleflight.Group

	mu               sync.Mutex
	timer            *time.Timer
	nextRefresh      time.Time
	onSessionExpired func()
}

var (
	_ apiclient.TokenSource = (*Manager)(nil)
	_ apiclient.Refresher   = (*Manager)(nil)
)

// NewManager creates the auth manager and installs itself as the transport's
// token source and refresher. If the store holds a persisted session, the
// proactive refresh timer is re-armed from its expiry.
func NewManager(transport *apiclient.Transport, store Store, cfg ManagerConfig) *Manager {
	m := &Manager{
		transport: transport,
		store:     store,
		cfg:       cfg,
		log:       logging.GetLogger("svc.authsvc.manager"),
	}

	transport.SetTokenSource(m)
	transport.SetRefresher(m)

	if session, err := store.Load(); err == nil && session.Token != "" {
		m.armTimer(session.ExpiresAt)
	}

	return m
}

// SetSessionExpiredHandler installs the callback fired after an irrecoverable
// refresh failure. The hosting application decides what navigation or
// cleanup follows; the manager itself has no routing concerns.
func (m *Manager) SetSessionExpiredHandler(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onSessionExpired = fn
}

// Token implements apiclient.TokenSource by returning the stored token, or
// the empty string when no session is stored.
func (m *Manager) Token() string {
	session, err := m.store.Load()
	if err != nil {
		return ""
	}

	return session.Token
}

// IsAuthenticated reports whether a non-empty token is stored. Expiry is not
// checked locally; the server rejects stale tokens with a 401, and every call
// path handles that regardless of this check's result.
func (m *Manager) IsAuthenticated() bool {
	return m.Token() != ""
}

// CurrentUser returns the cached user projection, for display only.
func (m *Manager) CurrentUser() (domain.User, bool) {
	session, err := m.store.Load()
	if err != nil || session.Token == "" {
		return domain.User{}, false
	}

	return session.User, true
}

// NextRefresh returns when the proactive refresh timer fires, if armed.
func (m *Manager) NextRefresh() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.nextRefresh, m.timer != nil
}

// Login authenticates against the backend and stores the issued session.
// Email format and password presence are validated locally first; a malformed
// login fails fast with a validation error and no request is sent.
func (m *Manager) Login(ctx context.Context, email, password string) (_ domain.User, err error) {
	log := m.log.With(logging.Group("user", "email", email))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "login failed", "error", err)
		} else {
			log.DebugContext(ctx, "login successful")
		}
	}()

	if !emailPattern.MatchString(email) {
		return domain.User{}, domain.NewAPIError(domain.CodeValidation, "invalid email address")
	}

	if password == "" {
		return domain.User{}, domain.NewAPIError(domain.CodeValidation, "password must not be empty")
	}

	env, err := m.transport.Post(ctx, domain.ActionLogin, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return domain.User{}, err
	}

	if !env.Success {
		// The server's own message is surfaced verbatim; display is the
		// caller's job.
		message := env.ErrorMessage()
		if message == "" {
			message = "login failed"
		}

		return domain.User{}, domain.NewAPIError(domain.CodeUnauthorized, message)
	}

	var result domain.LoginResult
	if err := env.DecodeData(&result); err != nil {
		return domain.User{}, fmt.Errorf("decode login result: %w", err)
	}

	session := result.Session()
	if err := m.store.Save(session); err != nil {
		return domain.User{}, fmt.Errorf("save session: %w", err)
	}

	m.armTimer(session.ExpiresAt)

	return session.User, nil
}

// Logout notifies the backend best-effort and always clears the local
// session. A failed server notification is logged, never surfaced; logout
// must always succeed client-side.
func (m *Manager) Logout(ctx context.Context) {
	if session, err := m.store.Load(); err == nil && session.Token != "" {
		if _, err := m.transport.PostAuthed(ctx, domain.ActionLogout, map[string]string{
			"refreshToken": session.RefreshToken,
		}); err != nil {
			m.log.WarnContext(ctx, "logout notification failed", "error", err)
		}
	}

	m.clearSession(ctx, false)
}

// Refresh implements apiclient.Refresher. Concurrent callers share a single
// in-flight refresh, so a burst of 401s during the same expiry window causes
// at most one network refresh.
func (m *Manager) Refresh(ctx context.Context) error {
	_, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		return nil, m.refresh(ctx)
	})

	return err
}

func (m *Manager) refresh(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			m.log.ErrorContext(ctx, "refresh failed", "error", err)
		} else {
			m.log.DebugContext(ctx, "session refreshed")
		}
	}()

	session, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	// Fail fast without a network call when there is nothing to present.
	if session.RefreshToken == "" {
		return domain.ErrNoRefreshToken
	}

	env, err := m.transport.Post(ctx, domain.ActionRefreshToken, map[string]string{
		"refreshToken": session.RefreshToken,
	})
	if err != nil {
		m.clearSession(ctx, true)

		return fmt.Errorf("refresh request: %w", err)
	}

	if !env.Success {
		m.clearSession(ctx, true)

		message := env.ErrorMessage()
		if message == "" {
			message = "refresh rejected"
		}

		return domain.NewAPIError(domain.CodeUnauthorized, message)
	}

	var result domain.LoginResult
	if err := env.DecodeData(&result); err != nil {
		m.clearSession(ctx, true)

		return fmt.Errorf("decode refresh result: %w", err)
	}

	rotated := result.Session()

	// The server may omit the user projection and a new refresh token on
	// refresh; carry the previous values forward.
	if rotated.User == (domain.User{}) {
		rotated.User = session.User
	}

	if rotated.RefreshToken == "" {
		rotated.RefreshToken = session.RefreshToken
	}

	if err := m.store.Save(rotated); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	m.armTimer(rotated.ExpiresAt)

	return nil
}

// clearSession wipes local auth state. When expired is set, the session
// ended irrecoverably and the session-expired handler fires.
func (m *Manager) clearSession(ctx context.Context, expired bool) {
	if err := m.store.Clear(); err != nil {
		m.log.WarnContext(ctx, "clear session store failed", "error", err)
	}

	m.mu.Lock()

	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}

	handler := m.onSessionExpired
	m.mu.Unlock()

	if expired && handler != nil {
		handler()
	}
}

// armTimer schedules the proactive refresh at expiry minus the threshold.
// A zero or past expiry leaves the timer unarmed; the reactive 401 path
// still covers those sessions.
func (m *Manager) armTimer(expiresAt time.Time) {
	if expiresAt.IsZero() {
		return
	}

	delay := time.Until(expiresAt) - time.Duration(m.cfg.RefreshThreshold)*time.Second
	if delay <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timer != nil {
		m.timer.Stop()
	}

	m.nextRefresh = time.Now().Add(delay)
	m.timer = time.AfterFunc(delay, func() {
		if err := m.Refresh(context.Background()); err != nil {
			m.log.Warn("proactive refresh failed", "error", err)
		}
	})
}
