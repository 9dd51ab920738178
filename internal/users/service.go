package users

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown user or
// a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError describes a rejected registration field.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

const (
	minUsernameLen = 3
	minPasswordLen = 6

	handlePrefix   = "TG-"
	handleAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	handleLen      = 6
	handleAttempts = 5
)

// userRepo is the storage interface consumed by UserService.
type userRepo interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// UserService implements account registration and lookup.
type UserService struct {
	repo   userRepo
	logger *zap.Logger
}

// NewUserService creates a new UserService.
func NewUserService(repo userRepo, logger *zap.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

// Register creates an account with a bcrypt password hash and a random
// anonymized handle. Region and carrier default when empty and must
// otherwise be one of Regions and Carriers.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	username := strings.TrimSpace(req.Username)
	if len(username) < minUsernameLen {
		return nil, &ValidationError{Msg: fmt.Sprintf("username must be at least %d characters", minUsernameLen)}
	}
	if len(req.Password) < minPasswordLen {
		return nil, &ValidationError{Msg: fmt.Sprintf("password must be at least %d characters", minPasswordLen)}
	}

	region := req.Region
	if region == "" {
		region = DefaultRegion
	} else if !slices.Contains(Regions, region) {
		return nil, &ValidationError{Msg: "invalid region"}
	}
	carrier := req.Carrier
	if carrier == "" {
		carrier = DefaultCarrier
	} else if !slices.Contains(Carriers, carrier) {
		return nil, &ValidationError{Msg: "invalid carrier"}
	}
	city := strings.TrimSpace(req.City)
	if city == "" {
		city = DefaultCity
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Username:     username,
		PasswordHash: string(hash),
		RiskScore:    50,
		Region:       region,
		City:         city,
		Carrier:      carrier,
	}

	for attempt := 0; attempt < handleAttempts; attempt++ {
		u.AnonymizedID, err = NewAnonymizedID()
		if err != nil {
			return nil, fmt.Errorf("generate anonymized id: %w", err)
		}
		err = s.repo.Create(ctx, u)
		if !errors.Is(err, errDuplicateHandle) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered",
		zap.Int64("user_id", u.ID),
		zap.String("anonymized_id", u.AnonymizedID),
		zap.String("region", u.Region),
	)
	return u, nil
}

// Authenticate verifies username/password credentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetProfile returns the API view of a user.
func (s *UserService) GetProfile(ctx context.Context, id int64) (*Profile, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Profile{
		UserID:       u.ID,
		Username:     u.Username,
		AnonymizedID: u.AnonymizedID,
		Region:       u.Region,
		City:         u.City,
		Carrier:      u.Carrier,
		RiskScore:    u.RiskScore,
		ScanCount:    u.ScanCount,
		LastScan:     u.LastScan,
		MemberSince:  u.CreatedAt,
	}, nil
}

// NewAnonymizedID returns a handle of the form "TG-XXXXXX".
func NewAnonymizedID() (string, error) {
	var b strings.Builder
	b.WriteString(handlePrefix)
	limit := big.NewInt(int64(len(handleAlphabet)))
	for i := 0; i < handleLen; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(handleAlphabet[n.Int64()])
	}
	return b.String(), nil
}
