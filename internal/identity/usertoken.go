package identity

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/RimaChaieb/tuniguard-api/internal/users"
)

const (
	tokenTypeUser  = "user"
	defaultIssuer  = "tuniguard"
	defaultUserTTL = 24 * time.Hour
	minSecretBytes = 32
)

// ErrWeakSecret is returned when the signing secret is too short.
var ErrWeakSecret = errors.New("jwt secret must be at least 32 bytes")

// UserTokenClaims are the JWT claims of a TuniGuard session token.
type UserTokenClaims struct {
	jwt.RegisteredClaims
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	AnonymizedID string `json:"anonymized_id"`
	Type         string `json:"type"`
}

// UserTokenIssuer issues and verifies session JWTs signed with a shared
// HMAC secret.
type UserTokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewUserTokenIssuer creates a UserTokenIssuer. An empty issuer defaults to
// "tuniguard" and a zero ttl to 24 hours.
func NewUserTokenIssuer(secret, issuer string, ttl time.Duration) (*UserTokenIssuer, error) {
	if len(secret) < minSecretBytes {
		return nil, ErrWeakSecret
	}
	if issuer == "" {
		issuer = defaultIssuer
	}
	if ttl == 0 {
		ttl = defaultUserTTL
	}
	return &UserTokenIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime of issued tokens.
func (u *UserTokenIssuer) TTL() time.Duration { return u.ttl }

// Issue creates a signed session token for usr.
func (u *UserTokenIssuer) Issue(usr *users.User) (string, error) {
	now := u.now().UTC()
	claims := UserTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    u.issuer,
			Subject:   strconv.FormatInt(usr.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(u.ttl)),
			ID:        uuid.New().String(),
		},
		UserID:       usr.ID,
		Username:     usr.Username,
		AnonymizedID: usr.AnonymizedID,
		Type:         tokenTypeUser,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.secret)
	if err != nil {
		return "", fmt.Errorf("sign user token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token, returning its claims.
func (u *UserTokenIssuer) Verify(tokenStr string) (*UserTokenClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&UserTokenClaims{},
		func(tok *jwt.Token) (any, error) {
			if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
			}
			return u.secret, nil
		},
		jwt.WithIssuer(u.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(u.now),
	)
	if err != nil {
		return nil, fmt.Errorf("verify user token: %w", err)
	}
	claims, ok := token.Claims.(*UserTokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid user token claims")
	}
	if claims.Type != tokenTypeUser || claims.UserID <= 0 {
		return nil, fmt.Errorf("not a user session token")
	}
	return claims, nil
}
