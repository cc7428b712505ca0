package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/postly/postly-api/internal/api/middleware"
	"github.com/postly/postly-api/internal/core/domain"
	"github.com/postly/postly-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.Principal, error)
	loginFn    func(ctx context.Context, cred domain.Credential) (*ports.LoginResult, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Principal, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, cred domain.Credential) (*ports.LoginResult, error) {
	return s.loginFn(ctx, cred)
}

// stubAccountService embeds the interface; methods a test does not set panic.
type stubAccountService struct {
	ports.AccountService
	changeRoleFn func(actor *domain.Principal, id int64, role domain.Role) (*domain.Principal, error)
	followFn     func(actor *domain.Principal, source, target int64) error
}

func (s *stubAccountService) ChangeRole(_ context.Context, actor *domain.Principal, id int64, role domain.Role) (*domain.Principal, error) {
	return s.changeRoleFn(actor, id, role)
}

func (s *stubAccountService) Follow(_ context.Context, actor *domain.Principal, source, target int64) error {
	return s.followFn(actor, source, target)
}

func newContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func statusOf(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}

func TestAccountHandler_Register_Success(t *testing.T) {
	admin := &domain.Principal{ID: 1, Username: "root", Role: domain.RoleAdmin}
	stub := &stubAuthService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*domain.Principal, error) {
			if in.Username != "alice" || in.Password != "secret123" {
				t.Fatalf("unexpected args: %+v", in)
			}
			if in.Actor != admin {
				t.Fatalf("expected caller to be passed as actor")
			}
			if in.Role == nil || *in.Role != domain.RoleModerator {
				t.Fatalf("expected requested role Moderator, got %v", in.Role)
			}
			return &domain.Principal{ID: 7, Username: in.Username, Role: *in.Role, PasswordSecret: []byte("$argon2id$...")}, nil
		},
	}
	h := NewAccountHandler(stub, nil)

	c, rec := newContext(http.MethodPost, "/api/account/register", `{"username":"alice","password":"secret123","role":"moderator"}`)
	middleware.SetPrincipal(c, admin)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["username"] != "alice" || resp["role"] != "Moderator" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "argon2id") {
		t.Fatalf("password secret leaked: %s", rec.Body.String())
	}
}

func TestAccountHandler_Register_Conflict(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.Principal, error) {
			return nil, domain.ErrUsernameConflict
		},
	}
	h := NewAccountHandler(stub, nil)

	c, _ := newContext(http.MethodPost, "/api/account/register", `{"username":"bob","password":"password1"}`)
	if err := h.Register(c); !errors.Is(err, domain.ErrUsernameConflict) {
		t.Fatalf("expected ErrUsernameConflict, got %v", err)
	}
}

func TestAccountHandler_Register_Validation(t *testing.T) {
	h := NewAccountHandler(&stubAuthService{}, nil)

	for _, body := range []string{
		`{"username":"bob"}`,
		`{"username":"bo","password":"password1"}`,
		`{"username":"bob","password":"short"}`,
		`not json`,
	} {
		c, _ := newContext(http.MethodPost, "/api/account/register", body)
		if err := h.Register(c); statusOf(err) != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %v", body, err)
		}
	}

	c, _ := newContext(http.MethodPost, "/api/account/register", `{"username":"bob","password":"password1","role":"Owner"}`)
	if err := h.Register(c); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestAccountHandler_Login_Success(t *testing.T) {
	exp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	stub := &stubAuthService{
		loginFn: func(_ context.Context, cred domain.Credential) (*ports.LoginResult, error) {
			if cred.Username != "carol" || cred.Password != "s3cret" {
				t.Fatalf("unexpected credential: %+v", cred)
			}
			return &ports.LoginResult{
				Token:     "signed.jwt.token",
				ExpiresAt: exp,
				Principal: &domain.Principal{ID: 3, Username: "carol", Role: domain.RoleUser},
			}, nil
		},
	}
	h := NewAccountHandler(stub, nil)

	c, rec := newContext(http.MethodPost, "/api/account/login", `{"username":"carol","password":"s3cret"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "signed.jwt.token" || !resp.ExpiresAt.Equal(exp) || resp.User.Username != "carol" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAccountHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, domain.Credential) (*ports.LoginResult, error) {
			return nil, domain.ErrCredentialInvalid
		},
	}
	h := NewAccountHandler(stub, nil)

	c, _ := newContext(http.MethodPost, "/api/account/login", `{"username":"dave","password":"nope"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrCredentialInvalid) {
		t.Fatalf("expected ErrCredentialInvalid, got %v", err)
	}
}

func TestAccountHandler_ChangeRole(t *testing.T) {
	admin := &domain.Principal{ID: 1, Role: domain.RoleAdmin}
	stub := &stubAccountService{
		changeRoleFn: func(actor *domain.Principal, id int64, role domain.Role) (*domain.Principal, error) {
			if actor != admin || id != 42 || role != domain.RoleModerator {
				t.Fatalf("unexpected args: %+v %d %s", actor, id, role)
			}
			return &domain.Principal{ID: id, Username: "eve", Role: role}, nil
		},
	}
	h := NewAccountHandler(nil, stub)

	c, rec := newContext(http.MethodPut, "/api/account/42/role", `{"role":"Moderator"}`)
	c.SetParamNames("userId")
	c.SetParamValues("42")
	middleware.SetPrincipal(c, admin)

	if err := h.ChangeRole(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"role":"Moderator"`) {
		t.Fatalf("unexpected response %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAccountHandler_Follow(t *testing.T) {
	var gotSource, gotTarget int64
	stub := &stubAccountService{
		followFn: func(actor *domain.Principal, source, target int64) error {
			if actor != nil {
				t.Fatalf("expected anonymous actor")
			}
			gotSource, gotTarget = source, target
			return domain.ErrUnauthenticated
		},
	}
	h := NewAccountHandler(nil, stub)

	c, _ := newContext(http.MethodPost, "/api/account/1/following/2", "")
	c.SetParamNames("userId", "targetId")
	c.SetParamValues("1", "2")

	if err := h.Follow(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if gotSource != 1 || gotTarget != 2 {
		t.Fatalf("unexpected ids: %d → %d", gotSource, gotTarget)
	}
}

func TestAccountHandler_BadPathID(t *testing.T) {
	h := NewAccountHandler(nil, &stubAccountService{})

	for _, raw := range []string{"abc", "0", "-5"} {
		c, _ := newContext(http.MethodGet, "/api/account/"+raw, "")
		c.SetParamNames("userId")
		c.SetParamValues(raw)
		if err := h.Get(c); statusOf(err) != http.StatusBadRequest {
			t.Fatalf("id %q: expected 400, got %v", raw, err)
		}
	}
}

func TestAccountHandler_Status(t *testing.T) {
	h := NewAccountHandler(nil, nil)

	c, rec := newContext(http.MethodGet, "/api/account/status", "")
	middleware.SetPrincipal(c, &domain.Principal{ID: 1})
	if err := h.Status(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"authenticated":true`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
