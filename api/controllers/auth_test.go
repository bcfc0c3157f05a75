package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/carni-kridi/attar-backend/internal/access"
	"github.com/carni-kridi/attar-backend/internal/auth"
	"github.com/carni-kridi/attar-backend/internal/users"
	"github.com/carni-kridi/attar-backend/pkg/enums"
	pkgerrors "github.com/carni-kridi/attar-backend/pkg/errors"
)

func TestAuthLoginSuccess(t *testing.T) {
	svc := &stubAuthService{}
	body := `{"phone":"+21698123456","password":"secret1"}`

	rec := httptest.NewRecorder()
	AuthLogin(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.login.Phone == nil || *svc.login.Phone != "+21698123456" {
		t.Fatalf("phone not forwarded: %+v", svc.login)
	}

	var tokens auth.TokenResponse
	decodeData(t, rec, &tokens)
	if tokens.AccessToken != "access" || tokens.RefreshToken != "refresh" {
		t.Fatalf("unexpected tokens %+v", tokens)
	}
}

func TestAuthLoginRequiresIdentifier(t *testing.T) {
	svc := &stubAuthService{}

	rec := httptest.NewRecorder()
	AuthLogin(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"password":"secret1"}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("service must not be called")
	}
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}

	rec := httptest.NewRecorder()
	AuthLogin(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@b.tn","password":"nope"}`)))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(pkgerrors.CodeUnauthorized) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestAuthRegisterCreated(t *testing.T) {
	svc := &stubAuthService{}
	body := `{"name":"Ahmed","phone":"+21698000000","password":"secret1","role":"attara"}`

	rec := httptest.NewRecorder()
	AuthRegister(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.register.Role != enums.RoleAttara {
		t.Fatalf("unexpected role %s", svc.register.Role)
	}
}

func TestAuthRegisterRejectsAdminRole(t *testing.T) {
	svc := &stubAuthService{}
	body := `{"name":"Root","phone":"+21698000000","password":"secret1","role":"admin"}`

	rec := httptest.NewRecorder()
	AuthRegister(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAuthLogoutUsesAccessID(t *testing.T) {
	svc := &stubAuthService{}

	rec := httptest.NewRecorder()
	AuthLogout(svc, nil).ServeHTTP(rec, newRequest(http.MethodPost, "/api/auth/logout", nil, workerCaller(), nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
	if svc.accessID != "jti-test" {
		t.Fatalf("expected access id from context, got %q", svc.accessID)
	}
}

func TestAuthSwitchStore(t *testing.T) {
	svc := &stubAuthService{}
	storeID := uuid.New()
	caller := access.Caller{UserID: uuid.New(), Role: enums.RoleAttara}

	rec := httptest.NewRecorder()
	body := `{"storeId":"` + storeID.String() + `"}`
	AuthSwitchStore(svc, nil).ServeHTTP(rec, newRequest(http.MethodPost, "/api/auth/switch-store", strings.NewReader(body), caller, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.switchedTo != storeID || svc.accessID != "jti-test" {
		t.Fatalf("unexpected switch call %s %q", svc.switchedTo, svc.accessID)
	}
}

func TestAuthUnavailable(t *testing.T) {
	rec := httptest.NewRecorder()
	AuthMe(nil, nil).ServeHTTP(rec, newRequest(http.MethodGet, "/api/auth/me", nil, workerCaller(), nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}

type stubAuthService struct {
	err        error
	calls      int
	login      auth.LoginRequest
	register   auth.RegisterRequest
	accessID   string
	switchedTo uuid.UUID
}

func (s *stubAuthService) tokens() (*auth.TokenResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &auth.TokenResponse{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 3600}, nil
}

func (s *stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.TokenResponse, error) {
	s.calls++
	s.register = req
	return s.tokens()
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.TokenResponse, error) {
	s.calls++
	s.login = req
	return s.tokens()
}

func (s *stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.TokenResponse, error) {
	s.calls++
	return s.tokens()
}

func (s *stubAuthService) Logout(ctx context.Context, accessID string) error {
	s.calls++
	s.accessID = accessID
	return s.err
}

func (s *stubAuthService) Me(ctx context.Context, caller access.Caller) (*users.UserDTO, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{ID: caller.UserID, Role: caller.Role}, nil
}

func (s *stubAuthService) SwitchStore(ctx context.Context, caller access.Caller, accessID string, storeID uuid.UUID) (*auth.TokenResponse, error) {
	s.calls++
	s.accessID = accessID
	s.switchedTo = storeID
	return s.tokens()
}
