package identity

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ctxUserClaims = "identity.user_claims"

// RequireUserToken returns a Gin middleware that enforces a valid Bearer
// session token and stores its claims on the context.
func RequireUserToken(tokens *UserTokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer token required",
			})
			return
		}

		claims, err := tokens.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid token",
			})
			return
		}

		c.Set(ctxUserClaims, claims)
		c.Next()
	}
}

// OptionalUserToken returns RequireUserToken when tokens is non-nil and a
// pass-through middleware otherwise, so development servers can run
// without a secret.
func OptionalUserToken(tokens *UserTokenIssuer) gin.HandlerFunc {
	if tokens == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return RequireUserToken(tokens)
}

// UserClaims returns the verified claims stored by RequireUserToken.
func UserClaims(c *gin.Context) (*UserTokenClaims, bool) {
	v, ok := c.Get(ctxUserClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*UserTokenClaims)
	return claims, ok
}

// ActingAs reports whether the request may act for userID: either no token
// was required, or the token belongs to that user.
func ActingAs(c *gin.Context, userID int64) bool {
	claims, ok := UserClaims(c)
	if !ok {
		return true
	}
	return claims.UserID == userID
}
