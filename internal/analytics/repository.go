package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs the aggregate queries over the scans table.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ContentTypeAggs groups scans since the given time by content type. A
// non-zero userID restricts the query to that user.
func (r *Repository) ContentTypeAggs(ctx context.Context, since time.Time, userID int64) ([]ContentTypeAgg, error) {
	q := `
		SELECT content_type,
		       count(*),
		       count(*) FILTER (WHERE detection_score > $2),
		       COALESCE(sum(detection_score), 0)
		FROM scans
		WHERE timestamp >= $1`
	args := []any{since, ThreatScore}
	if userID != 0 {
		args = append(args, userID)
		q += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	q += ` GROUP BY content_type ORDER BY content_type`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("content type stats: %w", err)
	}
	defer rows.Close()

	var out []ContentTypeAgg
	for rows.Next() {
		var a ContentTypeAgg
		if err := rows.Scan(&a.ContentType, &a.Total, &a.Threats, &a.ScoreSum); err != nil {
			return nil, fmt.Errorf("scan content type stats: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// TopThreats returns the catalog types with the most attributed scans since
// the given time.
func (r *Repository) TopThreats(ctx context.Context, since time.Time, limit int) ([]ThreatCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT t.type, count(s.id)
		FROM scans s
		JOIN threats t ON t.id = s.threat_id
		WHERE s.timestamp >= $1
		GROUP BY t.type
		ORDER BY count(s.id) DESC, t.type
		LIMIT $2`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("top threats: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ThreatCount, error) {
		var tc ThreatCount
		err := row.Scan(&tc.ThreatType, &tc.Count)
		return tc, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan top threats: %w", err)
	}
	return out, nil
}

// Trending ranks catalog entries by attributed scans since the given time.
// A non-empty region matches scans whose location hint contains it,
// ignoring case.
func (r *Repository) Trending(ctx context.Context, since time.Time, region string, limit int) ([]TrendingThreat, error) {
	q := `
		SELECT t.type, t.severity, t.category, count(s.id)
		FROM threats t
		JOIN scans s ON s.threat_id = t.id
		WHERE s.timestamp >= $1`
	args := []any{since}
	if region != "" {
		args = append(args, "%"+escapeLike(region)+"%")
		q += fmt.Sprintf(" AND s.location_hint ILIKE $%d", len(args))
	}
	args = append(args, limit)
	q += fmt.Sprintf(`
		GROUP BY t.id
		ORDER BY count(s.id) DESC, t.id
		LIMIT $%d`, len(args))

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("trending threats: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (TrendingThreat, error) {
		var tt TrendingThreat
		err := row.Scan(&tt.ThreatType, &tt.Severity, &tt.Category, &tt.Frequency)
		return tt, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan trending threats: %w", err)
	}
	return out, nil
}

// CountSince returns the number of scans stored since the given time.
func (r *Repository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM scans WHERE timestamp >= $1`, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count scans: %w", err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
