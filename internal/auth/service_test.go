package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/voltline/voltline-backend/internal/users"
	pkgAuth "github.com/voltline/voltline-backend/pkg/auth"
	"github.com/voltline/voltline-backend/pkg/auth/session"
	"github.com/voltline/voltline-backend/pkg/config"
	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/enums"
	pkgerrors "github.com/voltline/voltline-backend/pkg/errors"
	"github.com/voltline/voltline-backend/pkg/googleauth"
	"github.com/voltline/voltline-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type authFakeUserRepo struct {
	byID map[uuid.UUID]*models.User

	lastLoginCalls int
}

func newAuthFakeUserRepo() *authFakeUserRepo {
	return &authFakeUserRepo{byID: map[uuid.UUID]*models.User{}}
}

func (r *authFakeUserRepo) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	r.byID[user.ID] = user
	clone := *user
	return &clone, nil
}

func (r *authFakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range r.byID {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *authFakeUserRepo) FindByGoogleID(_ context.Context, googleID string) (*models.User, error) {
	for _, user := range r.byID {
		if user.GoogleID != nil && *user.GoogleID == googleID {
			clone := *user
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *authFakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *authFakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	user, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.LastLoginAt = &at
	r.lastLoginCalls++
	return nil
}

func (r *authFakeUserRepo) LinkGoogleID(_ context.Context, id uuid.UUID, googleID string) error {
	user, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.GoogleID = &googleID
	return nil
}

type authFakeSessionManager struct {
	tokens  map[string]string
	counter int
}

func newAuthFakeSessionManager() *authFakeSessionManager {
	return &authFakeSessionManager{tokens: map[string]string{}}
}

func (m *authFakeSessionManager) Generate(_ context.Context, accessID string) (string, error) {
	m.counter++
	token := fmt.Sprintf("refresh-%d", m.counter)
	m.tokens[accessID] = token
	return token, nil
}

func (m *authFakeSessionManager) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := m.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(m.tokens, oldAccessID)
	newAccessID := session.NewAccessID()
	m.counter++
	token := fmt.Sprintf("refresh-%d", m.counter)
	m.tokens[newAccessID] = token
	return newAccessID, token, nil
}

func (m *authFakeSessionManager) Revoke(_ context.Context, accessID string) error {
	delete(m.tokens, accessID)
	return nil
}

type fakeGoogleExchanger struct {
	profile *googleauth.Profile
	err     error
}

func (f *fakeGoogleExchanger) AuthCodeURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (f *fakeGoogleExchanger) Exchange(context.Context, string) (*googleauth.Profile, error) {
	return f.profile, f.err
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "voltline-test",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}
}

func newTestAuthService(t *testing.T, repo *authFakeUserRepo, sessions *authFakeSessionManager, google googleauth.Exchanger) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		GoogleClient:   google,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func seedPasswordUser(t *testing.T, repo *authFakeUserRepo, email, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user, err := repo.Create(context.Background(), users.CreateUserDTO{
		Email:        email,
		PasswordHash: &hash,
		FirstName:    "Dana",
		LastName:     "Ortiz",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestRegisterCreatesUserAndSession(t *testing.T) {
	repo := newAuthFakeUserRepo()
	sessions := newAuthFakeSessionManager()
	svc := newTestAuthService(t, repo, sessions, nil)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "Buyer@Example.com",
		Password:  "hunter2hunter2",
		FirstName: "Dana",
		LastName:  "Ortiz",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatalf("expected tokens, got %+v", resp)
	}
	if resp.User == nil || resp.User.Email != "buyer@example.com" {
		t.Fatalf("expected lowercased email, got %+v", resp.User)
	}
	if resp.User.Role != enums.UserRoleBuyer.String() {
		t.Fatalf("expected buyer role, got %s", resp.User.Role)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != resp.User.ID {
		t.Fatalf("claims user %s != %s", claims.UserID, resp.User.ID)
	}
	if _, ok := sessions.tokens[claims.ID]; !ok {
		t.Fatalf("expected session stored for jti %s", claims.ID)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := newAuthFakeUserRepo()
	svc := newTestAuthService(t, repo, newAuthFakeSessionManager(), nil)
	seedPasswordUser(t, repo, "buyer@example.com", "hunter2hunter2")

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "BUYER@example.com",
		Password:  "another-password",
		FirstName: "Dana",
		LastName:  "Ortiz",
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLoginSucceedsAndRecordsLogin(t *testing.T) {
	repo := newAuthFakeUserRepo()
	svc := newTestAuthService(t, repo, newAuthFakeSessionManager(), nil)
	user := seedPasswordUser(t, repo, "buyer@example.com", "hunter2hunter2")

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "buyer@example.com",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.User.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, resp.User.ID)
	}
	if repo.lastLoginCalls != 1 {
		t.Fatalf("expected 1 last-login update, got %d", repo.lastLoginCalls)
	}
	if resp.User.LastLoginAt == nil {
		t.Fatal("expected last_login_at on response")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	repo := newAuthFakeUserRepo()
	svc := newTestAuthService(t, repo, newAuthFakeSessionManager(), nil)
	seedPasswordUser(t, repo, "buyer@example.com", "hunter2hunter2")

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "buyer@example.com",
		Password: "wrong-password",
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginRejectsOAuthOnlyAccount(t *testing.T) {
	repo := newAuthFakeUserRepo()
	svc := newTestAuthService(t, repo, newAuthFakeSessionManager(), nil)
	googleID := "google-sub-1"
	if _, err := repo.Create(context.Background(), users.CreateUserDTO{
		Email:     "oauth@example.com",
		GoogleID:  &googleID,
		FirstName: "Sam",
		LastName:  "Lee",
	}); err != nil {
		t.Fatalf("seed oauth user: %v", err)
	}

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "oauth@example.com",
		Password: "whatever",
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	repo := newAuthFakeUserRepo()
	svc := newTestAuthService(t, repo, newAuthFakeSessionManager(), nil)
	user := seedPasswordUser(t, repo, "buyer@example.com", "hunter2hunter2")
	repo.byID[user.ID].IsActive = false

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "buyer@example.com",
		Password: "hunter2hunter2",
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	repo := newAuthFakeUserRepo()
	sessions := newAuthFakeSessionManager()
	svc := newTestAuthService(t, repo, sessions, nil)
	seedPasswordUser(t, repo, "buyer@example.com", "hunter2hunter2")

	login, err := svc.Login(context.Background(), LoginRequest{
		Email:    "buyer@example.com",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatal("expected a rotated refresh token")
	}

	// The prior pair is single-use.
	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized on reuse, got %v", err)
	}
}

func TestRefreshRejectsUnknownRefreshToken(t *testing.T) {
	repo := newAuthFakeUserRepo()
	svc := newTestAuthService(t, repo, newAuthFakeSessionManager(), nil)
	seedPasswordUser(t, repo, "buyer@example.com", "hunter2hunter2")

	login, err := svc.Login(context.Background(), LoginRequest{
		Email:    "buyer@example.com",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: "not-the-token",
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	repo := newAuthFakeUserRepo()
	sessions := newAuthFakeSessionManager()
	svc := newTestAuthService(t, repo, sessions, nil)
	seedPasswordUser(t, repo, "buyer@example.com", "hunter2hunter2")

	login, err := svc.Login(context.Background(), LoginRequest{
		Email:    "buyer@example.com",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), login.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}

	if err := svc.Logout(context.Background(), claims.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok := sessions.tokens[claims.ID]; ok {
		t.Fatal("expected session removed")
	}

	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized after logout, got %v", err)
	}
}

func TestGoogleCallbackProvisionsNewUser(t *testing.T) {
	repo := newAuthFakeUserRepo()
	exchanger := &fakeGoogleExchanger{profile: &googleauth.Profile{
		GoogleID:      "google-sub-42",
		Email:         "New.Buyer@Example.com",
		EmailVerified: true,
		FirstName:     "New",
		LastName:      "Buyer",
	}}
	svc := newTestAuthService(t, repo, newAuthFakeSessionManager(), exchanger)

	resp, err := svc.GoogleCallback(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("GoogleCallback: %v", err)
	}
	if resp.User.Email != "new.buyer@example.com" {
		t.Fatalf("expected lowercased email, got %s", resp.User.Email)
	}

	stored, err := repo.FindByGoogleID(context.Background(), "google-sub-42")
	if err != nil {
		t.Fatalf("expected provisioned user: %v", err)
	}
	if stored.PasswordHash != nil {
		t.Fatal("oauth-provisioned user must not carry a password hash")
	}
	if stored.Role != enums.UserRoleBuyer {
		t.Fatalf("expected buyer role, got %s", stored.Role)
	}
}

func TestGoogleCallbackLinksExistingEmailAccount(t *testing.T) {
	repo := newAuthFakeUserRepo()
	exchanger := &fakeGoogleExchanger{profile: &googleauth.Profile{
		GoogleID:      "google-sub-7",
		Email:         "buyer@example.com",
		EmailVerified: true,
		FirstName:     "Dana",
		LastName:      "Ortiz",
	}}
	svc := newTestAuthService(t, repo, newAuthFakeSessionManager(), exchanger)
	user := seedPasswordUser(t, repo, "buyer@example.com", "hunter2hunter2")

	resp, err := svc.GoogleCallback(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("GoogleCallback: %v", err)
	}
	if resp.User.ID != user.ID {
		t.Fatalf("expected existing account %s, got %s", user.ID, resp.User.ID)
	}

	stored := repo.byID[user.ID]
	if stored.GoogleID == nil || *stored.GoogleID != "google-sub-7" {
		t.Fatalf("expected linked google id, got %v", stored.GoogleID)
	}
	if stored.PasswordHash == nil {
		t.Fatal("linking must preserve the password hash")
	}
}

func TestGoogleCallbackRejectsUnverifiedEmail(t *testing.T) {
	repo := newAuthFakeUserRepo()
	exchanger := &fakeGoogleExchanger{profile: &googleauth.Profile{
		GoogleID:      "google-sub-9",
		Email:         "shadow@example.com",
		EmailVerified: false,
	}}
	svc := newTestAuthService(t, repo, newAuthFakeSessionManager(), exchanger)

	_, err := svc.GoogleCallback(context.Background(), "auth-code")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if len(repo.byID) != 0 {
		t.Fatal("no user should be provisioned for unverified emails")
	}
}
