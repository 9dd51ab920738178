package identity_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RimaChaieb/tuniguard-api/internal/identity"
	"github.com/RimaChaieb/tuniguard-api/internal/users"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newIssuer(t *testing.T, ttl time.Duration) *identity.UserTokenIssuer {
	t.Helper()
	ti, err := identity.NewUserTokenIssuer(testSecret, "", ttl)
	if err != nil {
		t.Fatalf("NewUserTokenIssuer: %v", err)
	}
	return ti
}

func TestUserTokenIssuer_RoundTrip(t *testing.T) {
	ti := newIssuer(t, time.Hour)
	u := &users.User{ID: 42, Username: "yasmine", AnonymizedID: "TG-9F8E7D"}

	tok, err := ti.Issue(u)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if parts := strings.Split(tok, "."); len(parts) != 3 {
		t.Fatalf("expected 3-part JWT, got %d parts", len(parts))
	}

	claims, err := ti.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != 42 || claims.Subject != "42" || claims.AnonymizedID != "TG-9F8E7D" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestUserTokenIssuer_WeakSecret(t *testing.T) {
	if _, err := identity.NewUserTokenIssuer("short", "", 0); err == nil {
		t.Error("expected error for a short secret")
	}
}

func TestUserTokenIssuer_Rejects(t *testing.T) {
	ti := newIssuer(t, time.Hour)
	tok, _ := ti.Issue(&users.User{ID: 1, Username: "a"})

	other, _ := identity.NewUserTokenIssuer(strings.Repeat("z", 32), "", time.Hour)
	if _, err := other.Verify(tok); err == nil {
		t.Error("token signed with another secret must be rejected")
	}

	if _, err := ti.Verify(tok + "x"); err == nil {
		t.Error("tampered token must be rejected")
	}

	expired := newIssuer(t, time.Nanosecond)
	old, _ := expired.Issue(&users.User{ID: 1})
	time.Sleep(time.Second + 10*time.Millisecond)
	if _, err := expired.Verify(old); err == nil {
		t.Error("expired token must be rejected")
	}
}

func TestRequireUserToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ti := newIssuer(t, time.Hour)
	tok, _ := ti.Issue(&users.User{ID: 5, Username: "omar"})

	r := gin.New()
	r.GET("/users/:id", identity.RequireUserToken(ti), func(c *gin.Context) {
		if !identity.ActingAs(c, 5) || identity.ActingAs(c, 6) {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + tok, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users/5", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestOptionalUserToken_NilPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", identity.OptionalUserToken(nil), func(c *gin.Context) {
		if !identity.ActingAs(c, 123) {
			c.Status(http.StatusForbidden)
			return
		}
		c.Status(http.StatusNoContent)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
}
