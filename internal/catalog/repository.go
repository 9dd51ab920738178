package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a catalog lookup finds no matching entry.
var ErrNotFound = errors.New("threat not found")

const entryColumns = `id, type, category, severity, description, signature, detection_count, created_at`

// Repository reads and seeds the threats table.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// List returns the entries matching f, ordered by ID.
func (r *Repository) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		args = append(args, string(f.Category))
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Severity != "" {
		args = append(args, string(f.Severity))
		where = append(where, fmt.Sprintf("severity = $%d", len(args)))
	}

	q := `SELECT ` + entryColumns + ` FROM threats`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY id`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list threats: %w", err)
	}
	return ScanEntries(rows)
}

// GetByID returns a single entry.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Entry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM threats WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get threat: %w", err)
	}
	entries, err := ScanEntries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return &entries[0], nil
}

// RecentDetections returns the newest scans attributed to threat id.
func (r *Repository) RecentDetections(ctx context.Context, id int64, limit int) ([]Detection, error) {
	q := `
		SELECT id, detection_score, timestamp, content_type
		FROM scans
		WHERE threat_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2`
	rows, err := r.db.Query(ctx, q, id, limit)
	if err != nil {
		return nil, fmt.Errorf("recent detections: %w", err)
	}
	defer rows.Close()

	out := []Detection{}
	for rows.Next() {
		var d Detection
		if err := rows.Scan(&d.ScanID, &d.DetectionScore, &d.Timestamp, &d.ContentType); err != nil {
			return nil, fmt.Errorf("scan detection: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Seed inserts entries whose type is not already present. Existing rows,
// including their detection counts, are left untouched. Returns the number
// of rows inserted.
func (r *Repository) Seed(ctx context.Context, entries []Entry) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	q := `
		INSERT INTO threats (type, category, severity, description, signature, detection_count, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
		ON CONFLICT (type) DO NOTHING`
	now := time.Now().UTC()
	inserted := 0
	for _, e := range entries {
		tag, err := tx.Exec(ctx, q, e.Type, string(e.Category), string(e.Severity), e.Description, e.Signature, now)
		if err != nil {
			return 0, fmt.Errorf("seed %q: %w", e.Type, err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// ScanEntries drains rows selected with the catalog column list. It closes
// rows.
func ScanEntries(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e        Entry
			category string
			severity string
		)
		if err := rows.Scan(
			&e.ID, &e.Type, &category, &severity,
			&e.Description, &e.Signature, &e.DetectionCount, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan threat: %w", err)
		}
		e.Category = Category(category)
		e.Severity = Severity(severity)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Columns is the select list understood by ScanEntries.
func Columns() string { return entryColumns }
