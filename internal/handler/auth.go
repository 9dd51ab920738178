package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RimaChaieb/tuniguard-api/internal/identity"
	"github.com/RimaChaieb/tuniguard-api/internal/users"
)

// userSvc is the subset of users.UserService used by AuthHandler.
type userSvc interface {
	Register(ctx context.Context, req users.RegisterRequest) (*users.User, error)
	Authenticate(ctx context.Context, username, password string) (*users.User, error)
	GetProfile(ctx context.Context, id int64) (*users.Profile, error)
}

// AuthHandler handles account registration, login and profile reads.
type AuthHandler struct {
	users      userSvc
	userTokens *identity.UserTokenIssuer
	logger     *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc userSvc, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: svc, logger: logger}
}

// SetUserTokenIssuer enables session tokens. Without an issuer, login still
// checks credentials but returns no token.
func (h *AuthHandler) SetUserTokenIssuer(ut *identity.UserTokenIssuer) {
	h.userTokens = ut
}

// Register registers AuthHandler routes on the given router group.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/auth/register", h.Signup)
	rg.POST("/auth/login", h.Login)
	rg.GET("/users/:id", identity.OptionalUserToken(h.userTokens), h.GetProfile)
}

// Signup handles POST /auth/register.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req users.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	u, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		var valErr *users.ValidationError
		switch {
		case errors.As(err, &valErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Msg})
		case errors.Is(err, users.ErrDuplicateUsername):
			c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		default:
			h.logger.Error("register user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, h.session(u))
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	u, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}
		h.logger.Error("login", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, h.session(u))
}

// GetProfile handles GET /users/:id.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	id, ok := pathID(c, "user")
	if !ok {
		return
	}
	if !identity.ActingAs(c, id) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot read another user's profile"})
		return
	}

	p, err := h.users.GetProfile(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("get profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get profile"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// session builds the register/login response, attaching a token when an
// issuer is configured.
func (h *AuthHandler) session(u *users.User) gin.H {
	resp := gin.H{
		"user_id":       u.ID,
		"username":      u.Username,
		"anonymized_id": u.AnonymizedID,
		"region":        u.Region,
		"city":          u.City,
		"carrier":       u.Carrier,
	}
	if h.userTokens == nil {
		return resp
	}
	tok, err := h.userTokens.Issue(u)
	if err != nil {
		h.logger.Error("issue session token", zap.Error(err), zap.Int64("user_id", u.ID))
		return resp
	}
	resp["token"] = tok
	resp["token_type"] = "Bearer"
	resp["expires_in"] = int(h.userTokens.TTL().Seconds())
	return resp
}
