package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-crm/meridian/internal/auth"
	"github.com/meridian-crm/meridian/internal/identity"
	"github.com/meridian-crm/meridian/internal/shared"
	_ "github.com/meridian-crm/meridian/testing"
)

type stubRepo struct {
	user            *auth.User
	createErr       error
	createdUser     *auth.User
	createdProfile  *identity.Profile
	deletedSessions []string
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateAccount(ctx context.Context, user auth.User, profile identity.Profile) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.createdUser = &user
	s.createdProfile = &profile
	return nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	s.deletedSessions = append(s.deletedSessions, id)
	return nil
}

func (s *stubRepo) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type stubProfiles struct {
	profiles map[string]*identity.Profile
}

func (s *stubProfiles) GetProfile(ctx context.Context, userID string) (*identity.Profile, error) {
	if p, ok := s.profiles[userID]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

type stubMailer struct {
	emails []string
}

func (s *stubMailer) EnqueueWelcomeEmail(ctx context.Context, email, name string) error {
	s.emails = append(s.emails, email)
	return nil
}

type authFixture struct {
	handler  *auth.Handler
	sessions *shared.SessionManager
	repo     *stubRepo
	mailer   *stubMailer
}

func newAuthFixture(t *testing.T, repo *stubRepo, profiles map[string]*identity.Profile) *authFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	events := auth.NewEvents(redisClient, nil)
	resolver := identity.NewResolver(&stubProfiles{profiles: profiles}, nil, time.Second)
	mailer := &stubMailer{}
	handler := auth.NewHandler(nil, auth.NewService(repo), sessionManager, events, resolver, mailer)
	return &authFixture{handler: handler, sessions: sessionManager, repo: repo, mailer: mailer}
}

// serve runs the request through the handler with a fresh session attached,
// the way the session middleware would, and commits the session afterwards.
func (f *authFixture) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	sess, err := f.sessions.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)

	router := chi.NewRouter()
	router.Route("/auth", f.handler.MountRoutes)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if err := f.sessions.Commit(ctx, res, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}
	return res, sess
}

func activeUser(t *testing.T, id, email, password string) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &auth.User{ID: id, Email: email, PasswordHash: string(hash), IsActive: true}
}

func TestLoginSuccess(t *testing.T) {
	user := activeUser(t, "u-1", "jane@test.local", "correctpass")
	f := newAuthFixture(t, &stubRepo{user: user}, map[string]*identity.Profile{
		"u-1": {ID: "u-1", Email: "jane@test.local", Name: "Jane", Role: "production"},
	})

	body := `{"email":"jane@test.local","password":"correctpass"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, sess := f.serve(t, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if !strings.Contains(res.Body.String(), `"role":"production"`) {
		t.Fatalf("expected resolved role in response, got %s", res.Body.String())
	}

	stored, err := f.sessions.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if stored.User() != "u-1" {
		t.Fatalf("expected session user u-1, got %q", stored.User())
	}
	if stored.Get(shared.SessionEmailKey) != "jane@test.local" {
		t.Fatalf("expected session email persisted")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	user := activeUser(t, "u-1", "jane@test.local", "correctpass")
	f := newAuthFixture(t, &stubRepo{user: user}, nil)

	body := `{"email":"jane@test.local","password":"wrongpass1"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, _ := f.serve(t, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	user := activeUser(t, "u-1", "jane@test.local", "correctpass")
	user.IsActive = false
	f := newAuthFixture(t, &stubRepo{user: user}, nil)

	body := `{"email":"jane@test.local","password":"correctpass"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, _ := f.serve(t, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestLoginValidation(t *testing.T) {
	f := newAuthFixture(t, &stubRepo{}, nil)

	body := `{"email":"not-an-email","password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, _ := f.serve(t, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestRegisterCoercesUnknownRole(t *testing.T) {
	repo := &stubRepo{}
	f := newAuthFixture(t, repo, nil)

	body := `{"email":"new@test.local","password":"secretpass","name":"New User","role":"superuser"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, _ := f.serve(t, req)
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if repo.createdProfile == nil || repo.createdProfile.Role != "client" {
		t.Fatalf("expected unknown role stored as client, got %+v", repo.createdProfile)
	}
	if len(f.mailer.emails) != 1 || f.mailer.emails[0] != "new@test.local" {
		t.Fatalf("expected welcome email enqueued, got %v", f.mailer.emails)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := &stubRepo{createErr: shared.ErrEmailTaken}
	f := newAuthFixture(t, repo, nil)

	body := `{"email":"dup@test.local","password":"secretpass","name":"Dup"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, _ := f.serve(t, req)
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", res.Code)
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	repo := &stubRepo{}
	f := newAuthFixture(t, repo, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	res, sess := f.serve(t, req)
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	if len(repo.deletedSessions) != 1 || repo.deletedSessions[0] != sess.ID {
		t.Fatalf("expected session audit row removed, got %v", repo.deletedSessions)
	}
	if _, err := f.sessions.Get(context.Background(), sess.ID); err == nil {
		t.Fatalf("expected session record gone after logout")
	}
}

func TestMeAnonymous(t *testing.T) {
	f := newAuthFixture(t, &stubRepo{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	res, _ := f.serve(t, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), `"principal":null`) {
		t.Fatalf("expected empty principal, got %s", res.Body.String())
	}
}
