package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RimaChaieb/tuniguard-api/internal/handler"
	"github.com/RimaChaieb/tuniguard-api/internal/identity"
	"github.com/RimaChaieb/tuniguard-api/internal/users"
)

// ── Stub UserService ──────────────────────────────────────────────────────

type stubUserSvc struct {
	registerErr error
	loginErr    error
	profileErr  error
}

func (s *stubUserSvc) Register(_ context.Context, req users.RegisterRequest) (*users.User, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &users.User{ID: 7, Username: req.Username, AnonymizedID: "TG-777777", Region: req.Region}, nil
}

func (s *stubUserSvc) Authenticate(_ context.Context, username, _ string) (*users.User, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &users.User{ID: 7, Username: username, AnonymizedID: "TG-777777"}, nil
}

func (s *stubUserSvc) GetProfile(_ context.Context, id int64) (*users.Profile, error) {
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	return &users.Profile{UserID: id, Username: "salma", RiskScore: 50}, nil
}

func newAuthRouter(t *testing.T, svc *stubUserSvc, tokens *identity.UserTokenIssuer) *gin.Engine {
	t.Helper()
	h := handler.NewAuthHandler(svc, zap.NewNop())
	h.SetUserTokenIssuer(tokens)
	r := gin.New()
	h.Register(r.Group("/api/v1"))
	return r
}

func testIssuer(t *testing.T) *identity.UserTokenIssuer {
	t.Helper()
	ti, err := identity.NewUserTokenIssuer(testSecret, "", time.Hour)
	if err != nil {
		t.Fatalf("NewUserTokenIssuer: %v", err)
	}
	return ti
}

// ── Tests ─────────────────────────────────────────────────────────────────

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"created", nil, http.StatusCreated},
		{"validation", &users.ValidationError{Msg: "invalid region"}, http.StatusBadRequest},
		{"duplicate", users.ErrDuplicateUsername, http.StatusConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newAuthRouter(t, &stubUserSvc{registerErr: tc.err}, testIssuer(t))
			w := doJSON(r, http.MethodPost, "/api/v1/auth/register", map[string]string{
				"username": "salma", "password": "hunter22", "region": "Tunis",
			}, "")
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			if tc.status == http.StatusCreated {
				var body map[string]any
				_ = json.Unmarshal(w.Body.Bytes(), &body)
				if body["token"] == nil || body["anonymized_id"] != "TG-777777" {
					t.Errorf("unexpected body: %v", body)
				}
			}
		})
	}
}

func TestAuthHandler_Register_MissingFields(t *testing.T) {
	r := newAuthRouter(t, &stubUserSvc{}, nil)
	w := doJSON(r, http.MethodPost, "/api/v1/auth/register", map[string]string{"username": "salma"}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login(t *testing.T) {
	tokens := testIssuer(t)
	r := newAuthRouter(t, &stubUserSvc{}, tokens)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "salma", "password": "hunter22",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	claims, err := tokens.Verify(body.Token)
	if err != nil {
		t.Fatalf("returned token does not verify: %v", err)
	}
	if claims.UserID != 7 {
		t.Errorf("token user = %d, want 7", claims.UserID)
	}
}

func TestAuthHandler_Login_BadCredentials(t *testing.T) {
	r := newAuthRouter(t, &stubUserSvc{loginErr: users.ErrInvalidCredentials}, nil)
	w := doJSON(r, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "salma", "password": "nope-nope",
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuthHandler_GetProfile(t *testing.T) {
	tokens := testIssuer(t)
	r := newAuthRouter(t, &stubUserSvc{}, tokens)
	own, _ := tokens.Issue(&users.User{ID: 7, Username: "salma"})

	if w := doJSON(r, http.MethodGet, "/api/v1/users/7", nil, own); w.Code != http.StatusOK {
		t.Errorf("own profile: expected 200, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/api/v1/users/8", nil, own); w.Code != http.StatusForbidden {
		t.Errorf("other profile: expected 403, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/api/v1/users/7", nil, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", w.Code)
	}
}

func TestAuthHandler_GetProfile_NotFound(t *testing.T) {
	r := newAuthRouter(t, &stubUserSvc{profileErr: users.ErrNotFound}, nil)
	if w := doJSON(r, http.MethodGet, "/api/v1/users/7", nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
