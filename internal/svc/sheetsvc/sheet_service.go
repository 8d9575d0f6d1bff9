// Package sheetsvc implements the content-management backend: accounts,
// token-based sessions, editorial content, and media uploads, exposed through
// a single action-dispatched HTTP endpoint.
package sheetsvc

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/amanihub/sheetcms/internal/domain"
	"github.com/amanihub/sheetcms/internal/infra/logging"
	"github.com/amanihub/sheetcms/internal/repo/content"
	"github.com/amanihub/sheetcms/internal/repo/media"
	"github.com/amanihub/sheetcms/internal/repo/user"
)

// ErrForbidden is returned when an authenticated account lacks the rights for
// an operation.
var ErrForbidden = errors.New("forbidden")

// SheetConfig contains configuration parameters for the content service.
type SheetConfig struct {
	// TokenSecret is the HMAC secret used to sign access tokens
	TokenSecret string `env:"TOKEN_SECRET" default:"development-secret"`

	// TokenDuration is the validity duration of access tokens in seconds
	TokenDuration int64 `env:"TOKEN_DURATION" default:"3600"` // 1h

	// RefreshTokenDuration is the validity duration of refresh tokens in seconds
	RefreshTokenDuration int64 `env:"REFRESH_TOKEN_DURATION" default:"2592000"` // 30d

	// BootstrapEmail is the super-admin account created on first start
	// (skipped when empty)
	BootstrapEmail    string `env:"BOOTSTRAP_EMAIL" default:""`
	BootstrapPassword string `env:"BOOTSTRAP_PASSWORD" default:""`
	BootstrapName     string `env:"BOOTSTRAP_NAME" default:"Administrator"`
}

// SheetService provides account, session, content, and media management.
type SheetService struct {
	Config      SheetConfig
	UserRepo    user.Repository
	ContentRepo content.Repository
	MediaRepo   media.Repository
	Log         logging.Logger
}

// NewSheetService creates a new SheetService from the given repository
// factories and configuration. When a bootstrap email is configured, the
// corresponding super-admin account is created if it does not exist yet.
func NewSheetService(
	ctx context.Context,
	userFactory user.RepositoryFactory,
	contentFactory content.RepositoryFactory,
	mediaFactory media.RepositoryFactory,
	cfg SheetConfig,
) (*SheetService, error) {
	log := logging.GetLogger("svc.sheetsvc.sheet_service")

	userRepo, err := userFactory()
	if err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	contentRepo, err := contentFactory()
	if err != nil {
		return nil, fmt.Errorf("new content repo: %w", err)
	}

	mediaRepo, err := mediaFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("new media repo: %w", err)
	}

	svc := &SheetService{
		Config:      cfg,
		UserRepo:    userRepo,
		ContentRepo: contentRepo,
		MediaRepo:   mediaRepo,
		Log:         log,
	}

	if err := svc.ensureBootstrapAccount(ctx); err != nil {
		return nil, fmt.Errorf("bootstrap account: %w", err)
	}

	return svc, nil
}

type accessTokenClaims struct {
	jwt.RegisteredClaims

	Email        string `json:"email"`
	Name         string `json:"name"`
	IsSuperAdmin bool   `json:"is_super_admin"`
}

// Login authenticates an account and issues an access token plus a
// single-use refresh token.
func (s *SheetService) Login(ctx context.Context, email, password string) (_ domain.LoginResult, err error) {
	log := s.Log.With(logging.Group("user", "email", email))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "login failed", "error", err)
		} else {
			log.DebugContext(ctx, "login successful")
		}
	}()

	account, ok, err := s.UserRepo.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.LoginResult{}, errors.Join(domain.ErrInvalidCredentials, err)
		}

		return domain.LoginResult{}, fmt.Errorf("get account: %w", err)
	} else if !ok {
		return domain.LoginResult{}, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)); err != nil {
		return domain.LoginResult{}, errors.Join(domain.ErrInvalidCredentials, err)
	}

	return s.issueSession(ctx, account)
}

// Refresh exchanges a valid refresh token for a fresh access token and a new
// refresh token. The presented refresh token is consumed either way.
func (s *SheetService) Refresh(ctx context.Context, refreshToken string) (_ domain.LoginResult, err error) {
	log := s.Log

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "refresh failed", "error", err)
		} else {
			log.DebugContext(ctx, "session refreshed")
		}
	}()

	record, err := s.UserRepo.ConsumeRefreshToken(ctx, refreshToken)
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("consume refresh token: %w", err)
	}

	account, err := s.accountByID(ctx, record.UserID)
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("account for token: %w", err)
	}

	return s.issueSession(ctx, account)
}

// Logout revokes the given refresh token. A token that is already gone is not
// an error.
func (s *SheetService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	if _, err := s.UserRepo.ConsumeRefreshToken(ctx, refreshToken); err != nil {
		if errors.Is(err, domain.ErrRefreshTokenNotFound) || errors.Is(err, domain.ErrRefreshTokenExpired) {
			return nil
		}

		return fmt.Errorf("consume refresh token: %w", err)
	}

	return nil
}

// ValidateToken verifies an access token and returns the account projection
// embedded in it.
func (s *SheetService) ValidateToken(ctx context.Context, tokenString string) (domain.User, error) {
	var claims accessTokenClaims

	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", jwt.ErrSignatureInvalid, token.Header["alg"])
		}

		return []byte(s.Config.TokenSecret), nil
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("parse token: %w", err)
	}

	if !token.Valid {
		return domain.User{}, jwt.ErrTokenInvalidClaims
	}

	return domain.User{
		Email:        claims.Email,
		Name:         claims.Name,
		IsSuperAdmin: claims.IsSuperAdmin,
	}, nil
}

// ChangePassword verifies the old password of the acting account and replaces
// it with the new one. All refresh tokens of the account are revoked.
func (s *SheetService) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) (err error) {
	log := s.Log.With(logging.Group("user", "email", email))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "change password failed", "error", err)
		} else {
			log.DebugContext(ctx, "password changed")
		}
	}()

	account, ok, err := s.UserRepo.GetAccountByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	} else if !ok {
		return domain.ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(oldPassword)); err != nil {
		return errors.Join(domain.ErrInvalidCredentials, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.UserRepo.SetPassword(ctx, email, hash); err != nil {
		return fmt.Errorf("set password: %w", err)
	}

	if err := s.UserRepo.DeleteRefreshTokensForUser(ctx, account.ID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}

	return nil
}

// ListUsers returns the projections of all accounts.
func (s *SheetService) ListUsers(ctx context.Context) ([]domain.User, error) {
	accounts, err := s.UserRepo.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	users := make([]domain.User, 0, len(accounts))
	for _, account := range accounts {
		users = append(users, account.Projection())
	}

	return users, nil
}

// CreateUser adds a new account with the given password.
func (s *SheetService) CreateUser(ctx context.Context, newUser domain.User, password string) (err error) {
	log := s.Log.With(logging.Group("user", "email", newUser.Email))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "create user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user created")
		}
	}()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	//nolint:exhaustruct
	account := domain.Account{
		Email:        newUser.Email,
		Name:         newUser.Name,
		PasswordHash: hash,
		IsSuperAdmin: newUser.IsSuperAdmin,
	}

	if err := s.UserRepo.CreateAccount(ctx, account); err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	return nil
}

// UpdateUser updates name and super-admin flag of an account.
func (s *SheetService) UpdateUser(ctx context.Context, updated domain.User) error {
	//nolint:exhaustruct
	account := domain.Account{
		Email:        updated.Email,
		Name:         updated.Name,
		IsSuperAdmin: updated.IsSuperAdmin,
	}

	if err := s.UserRepo.UpdateAccount(ctx, account); err != nil {
		return fmt.Errorf("update account: %w", err)
	}

	return nil
}

// DeleteUser removes an account. The acting account cannot delete itself.
func (s *SheetService) DeleteUser(ctx context.Context, actor domain.User, email string) error {
	if actor.Email == email {
		return fmt.Errorf("%w: cannot delete own account", ErrForbidden)
	}

	if err := s.UserRepo.DeleteAccount(ctx, email); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	return nil
}

// UploadMedia decodes a base64 payload and stores it as a media file,
// returning the public URL.
func (s *SheetService) UploadMedia(
	ctx context.Context,
	filename string,
	mimeType string,
	contentB64 string,
) (result domain.UploadResult, err error) {
	log := s.Log.With(logging.Group("media", "filename", filename, "mimeType", mimeType))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "upload media failed", "error", err)
		} else {
			log.DebugContext(ctx, "media uploaded", "url", result.URL)
		}
	}()

	data, err := base64.StdEncoding.DecodeString(contentB64)
	if err != nil {
		return domain.UploadResult{}, fmt.Errorf("decode content: %w", err)
	}

	result, err = s.MediaRepo.Save(ctx, filename, mimeType, data)
	if err != nil {
		return domain.UploadResult{}, fmt.Errorf("save media: %w", err)
	}

	return result, nil
}

// DeleteMedia removes a stored media file by its public URL.
func (s *SheetService) DeleteMedia(ctx context.Context, url string) error {
	if err := s.MediaRepo.Delete(ctx, url); err != nil {
		return fmt.Errorf("delete media: %w", err)
	}

	return nil
}

// Close releases resources held by the service, such as database connections.
func (s *SheetService) Close() error {
	return errors.Join(
		s.UserRepo.Close(),
		s.ContentRepo.Close(),
	)
}

func (s *SheetService) issueSession(ctx context.Context, account domain.Account) (domain.LoginResult, error) {
	now := time.Now()
	expiry := now.Add(time.Duration(s.Config.TokenDuration * int64(time.Second)))

	claims := accessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
		Email:        account.Email,
		Name:         account.Name,
		IsSuperAdmin: account.IsSuperAdmin,
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(s.Config.TokenSecret))
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("sign token: %w", err)
	}

	record := domain.RefreshTokenRecord{
		ID:        uuid.NewString(),
		UserID:    account.ID,
		ExpiresAt: now.Add(time.Duration(s.Config.RefreshTokenDuration * int64(time.Second))),
		CreatedAt: now,
	}

	if err := s.UserRepo.CreateRefreshToken(ctx, record); err != nil {
		return domain.LoginResult{}, fmt.Errorf("create refresh token: %w", err)
	}

	return domain.LoginResult{
		Token:        tokenString,
		RefreshToken: record.ID,
		ExpiresAt:    expiry.UTC().Format(time.RFC3339),
		User:         account.Projection(),
	}, nil
}

func (s *SheetService) accountByID(ctx context.Context, userID int64) (domain.Account, error) {
	accounts, err := s.UserRepo.ListAccounts(ctx)
	if err != nil {
		return domain.Account{}, fmt.Errorf("list accounts: %w", err)
	}

	for _, account := range accounts {
		if account.ID == userID {
			return account, nil
		}
	}

	return domain.Account{}, domain.ErrUserNotFound
}

func (s *SheetService) ensureBootstrapAccount(ctx context.Context) error {
	if s.Config.BootstrapEmail == "" || s.Config.BootstrapPassword == "" {
		return nil
	}

	if _, ok, _ := s.UserRepo.GetAccountByEmail(ctx, s.Config.BootstrapEmail); ok {
		return nil
	}

	admin := domain.User{
		Email:        s.Config.BootstrapEmail,
		Name:         s.Config.BootstrapName,
		IsSuperAdmin: true,
	}

	if err := s.CreateUser(ctx, admin, s.Config.BootstrapPassword); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil
		}

		return err
	}

	s.Log.InfoContext(ctx, "bootstrap account created", "email", admin.Email)

	return nil
}
