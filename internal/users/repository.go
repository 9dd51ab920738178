package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a user lookup finds no matching record.
var ErrNotFound = errors.New("user not found")

// ErrDuplicateUsername is returned when a registration reuses a username.
var ErrDuplicateUsername = errors.New("username already exists")

// errDuplicateHandle is returned when the generated anonymized ID collides.
var errDuplicateHandle = errors.New("anonymized id already taken")

// Columns is the select list understood by ScanUser.
const Columns = `id, username, anonymized_id, password_hash, created_at, last_scan,
	risk_score, scan_count, region, city, carrier`

// UserRepository provides CRUD operations for users against PostgreSQL.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user record. Sets ID and CreatedAt on the user.
func (r *UserRepository) Create(ctx context.Context, u *User) error {
	u.CreatedAt = time.Now().UTC()

	q := `
		INSERT INTO users (username, anonymized_id, password_hash, created_at, risk_score, scan_count, region, city, carrier)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := r.db.QueryRow(ctx, q,
		u.Username, u.AnonymizedID, u.PasswordHash, u.CreatedAt,
		u.RiskScore, u.ScanCount, u.Region, u.City, u.Carrier,
	).Scan(&u.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "users_anonymized_id_key" {
				return errDuplicateHandle
			}
			return ErrDuplicateUsername
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.scanOne(ctx, `SELECT `+Columns+` FROM users WHERE id = $1`, id)
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.scanOne(ctx, `SELECT `+Columns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) scanOne(ctx context.Context, q string, args ...any) (*User, error) {
	u, err := ScanUser(r.db.QueryRow(ctx, q, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// ScanUser reads one row selected with Columns. pgx.ErrNoRows is returned
// unwrapped.
func ScanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(
		&u.ID, &u.Username, &u.AnonymizedID, &u.PasswordHash, &u.CreatedAt, &u.LastScan,
		&u.RiskScore, &u.ScanCount, &u.Region, &u.City, &u.Carrier,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
