package sheetsvc_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/amanihub/sheetcms/internal/domain"
	"github.com/amanihub/sheetcms/internal/infra/logging"
	"github.com/amanihub/sheetcms/internal/svc/sheetsvc"
)

// mockUserRepository implements user.Repository for testing.
type mockUserRepository struct {
	m        sync.Mutex
	accounts map[string]domain.Account
	tokens   map[string]domain.RefreshTokenRecord
	nextID   int64
	err      error
}

func newMockUserRepo() *mockUserRepository {
	return &mockUserRepository{
		accounts: make(map[string]domain.Account),
		tokens:   make(map[string]domain.RefreshTokenRecord),
	}
}

func (m *mockUserRepository) CreateAccount(_ context.Context, account domain.Account) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return m.err
	}

	if _, exists := m.accounts[account.Email]; exists {
		return domain.ErrUserAlreadyExists
	}

	m.nextID++
	account.ID = m.nextID
	account.CreatedAt = time.Now().Unix()
	m.accounts[account.Email] = account

	return nil
}

func (m *mockUserRepository) GetAccountByEmail(_ context.Context, email string) (domain.Account, bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return domain.Account{}, false, m.err
	}

	account, exists := m.accounts[email]
	if !exists {
		return domain.Account{}, false, domain.ErrUserNotFound
	}

	return account, true, nil
}

func (m *mockUserRepository) ListAccounts(_ context.Context) ([]domain.Account, error) {
	m.m.Lock()
	defer m.m.Unlock()

	accounts := make([]domain.Account, 0, len(m.accounts))
	for _, account := range m.accounts {
		accounts = append(accounts, account)
	}

	return accounts, m.err
}

func (m *mockUserRepository) UpdateAccount(_ context.Context, account domain.Account) error {
	m.m.Lock()
	defer m.m.Unlock()

	existing, exists := m.accounts[account.Email]
	if !exists {
		return domain.ErrUserNotFound
	}

	existing.Name = account.Name
	existing.IsSuperAdmin = account.IsSuperAdmin
	m.accounts[account.Email] = existing

	return nil
}

func (m *mockUserRepository) SetPassword(_ context.Context, email string, passwordHash []byte) error {
	m.m.Lock()
	defer m.m.Unlock()

	account, exists := m.accounts[email]
	if !exists {
		return domain.ErrUserNotFound
	}

	account.PasswordHash = passwordHash
	m.accounts[email] = account

	return nil
}

func (m *mockUserRepository) DeleteAccount(_ context.Context, email string) error {
	m.m.Lock()
	defer m.m.Unlock()

	if _, exists := m.accounts[email]; !exists {
		return domain.ErrUserNotFound
	}

	delete(m.accounts, email)

	return nil
}

func (m *mockUserRepository) CreateRefreshToken(_ context.Context, record domain.RefreshTokenRecord) error {
	m.m.Lock()
	defer m.m.Unlock()

	m.tokens[record.ID] = record

	return m.err
}

func (m *mockUserRepository) ConsumeRefreshToken(_ context.Context, id string) (domain.RefreshTokenRecord, error) {
	m.m.Lock()
	defer m.m.Unlock()

	record, exists := m.tokens[id]
	if !exists {
		return domain.RefreshTokenRecord{}, domain.ErrRefreshTokenNotFound
	}

	delete(m.tokens, id)

	if record.ExpiresAt.Before(time.Now()) {
		return domain.RefreshTokenRecord{}, domain.ErrRefreshTokenExpired
	}

	return record, nil
}

func (m *mockUserRepository) DeleteRefreshTokensForUser(_ context.Context, userID int64) error {
	m.m.Lock()
	defer m.m.Unlock()

	for id, record := range m.tokens {
		if record.UserID == userID {
			delete(m.tokens, id)
		}
	}

	return nil
}

func (m *mockUserRepository) Close() error { return nil }

func setupTestService(t *testing.T) (*sheetsvc.SheetService, *mockUserRepository) {
	t.Helper()

	mockRepo := newMockUserRepo()

	svc := &sheetsvc.SheetService{
		Config: sheetsvc.SheetConfig{
			TokenSecret:          "test-secret",
			TokenDuration:        3600,
			RefreshTokenDuration: 86400,
		},
		UserRepo: mockRepo,
		Log:      logging.NewNopLogger(),
	}

	return svc, mockRepo
}

func seedAccount(t *testing.T, repo *mockUserRepository, email, password string, super bool) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	//nolint:exhaustruct
	if err := repo.CreateAccount(context.Background(), domain.Account{
		Email:        email,
		Name:         "Test User",
		PasswordHash: hash,
		IsSuperAdmin: super,
	}); err != nil {
		t.Fatalf("seed account: %v", err)
	}
}

func TestSheetService_Login(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupTestService(t)
	seedAccount(t, mockRepo, "admin@example.org", "correct-horse", true)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{
			name:     "successful login",
			email:    "admin@example.org",
			password: "correct-horse",
		},
		{
			name:     "wrong password",
			email:    "admin@example.org",
			password: "battery-staple",
			wantErr:  domain.ErrInvalidCredentials,
		},
		{
			name:     "unknown account",
			email:    "ghost@example.org",
			password: "anything",
			wantErr:  domain.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := svc.Login(context.Background(), tt.email, tt.password)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Login() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Login() error: %v", err)
			}

			if result.Token == "" || result.RefreshToken == "" {
				t.Error("Login() issued empty tokens")
			}

			if _, err := time.Parse(time.RFC3339, result.ExpiresAt); err != nil {
				t.Errorf("Login() expiresAt = %q, not RFC3339", result.ExpiresAt)
			}

			user, err := svc.ValidateToken(context.Background(), result.Token)
			if err != nil {
				t.Fatalf("ValidateToken() on fresh token: %v", err)
			}

			if user.Email != tt.email || !user.IsSuperAdmin {
				t.Errorf("token user = %+v", user)
			}
		})
	}
}

func TestSheetService_RefreshRotatesToken(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupTestService(t)
	seedAccount(t, mockRepo, "admin@example.org", "pw", false)

	first, err := svc.Login(context.Background(), "admin@example.org", "pw")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	second, err := svc.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	if second.RefreshToken == first.RefreshToken {
		t.Error("refresh token was not rotated")
	}

	if second.User.Email != "admin@example.org" {
		t.Errorf("refresh user = %+v", second.User)
	}

	// The consumed token is single use.
	if _, err := svc.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, domain.ErrRefreshTokenNotFound) {
		t.Errorf("second refresh error = %v, want ErrRefreshTokenNotFound", err)
	}
}

func TestSheetService_ValidateToken(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupTestService(t)
	seedAccount(t, mockRepo, "admin@example.org", "pw", false)

	result, err := svc.Login(context.Background(), "admin@example.org", "pw")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "valid token", token: result.Token},
		{name: "garbage token", token: "not-a-jwt", wantErr: true},
		{name: "empty token", token: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			user, err := svc.ValidateToken(context.Background(), tt.token)

			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateToken() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err == nil && user.Email != "admin@example.org" {
				t.Errorf("user = %+v", user)
			}
		})
	}
}

func TestSheetService_ChangePasswordRevokesRefreshTokens(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupTestService(t)
	seedAccount(t, mockRepo, "admin@example.org", "old-pw", false)

	result, err := svc.Login(context.Background(), "admin@example.org", "old-pw")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	if err := svc.ChangePassword(context.Background(), "admin@example.org", "old-pw", "new-pw"); err != nil {
		t.Fatalf("ChangePassword() error: %v", err)
	}

	// Old refresh token is gone.
	if _, err := svc.Refresh(context.Background(), result.RefreshToken); !errors.Is(err, domain.ErrRefreshTokenNotFound) {
		t.Errorf("refresh after password change = %v, want ErrRefreshTokenNotFound", err)
	}

	// Old password no longer works, new one does.
	if _, err := svc.Login(context.Background(), "admin@example.org", "old-pw"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("old password login = %v, want ErrInvalidCredentials", err)
	}

	if _, err := svc.Login(context.Background(), "admin@example.org", "new-pw"); err != nil {
		t.Errorf("new password login failed: %v", err)
	}
}

func TestSheetService_ChangePasswordRejectsWrongOld(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupTestService(t)
	seedAccount(t, mockRepo, "admin@example.org", "pw", false)

	err := svc.ChangePassword(context.Background(), "admin@example.org", "wrong", "new-pw")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("ChangePassword() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestSheetService_LogoutToleratesUnknownToken(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t)

	if err := svc.Logout(context.Background(), "never-issued"); err != nil {
		t.Errorf("Logout() error: %v", err)
	}

	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Errorf("Logout() with empty token: %v", err)
	}
}

func TestSheetService_DeleteUserRejectsSelf(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupTestService(t)
	seedAccount(t, mockRepo, "admin@example.org", "pw", true)

	actor := domain.User{Email: "admin@example.org", IsSuperAdmin: true}

	err := svc.DeleteUser(context.Background(), actor, "admin@example.org")
	if !errors.Is(err, sheetsvc.ErrForbidden) {
		t.Errorf("DeleteUser(self) error = %v, want ErrForbidden", err)
	}
}
