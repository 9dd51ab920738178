package intel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no record exists for a key or ID.
var ErrNotFound = errors.New("intel record not found")

// Columns is the select list understood by ScanRecord, in table order.
const Columns = `id, threat_id, reported_date, reported_day, source_region, source_country,
	affected_carriers, frequency, affected_user_count, trend_score,
	escalation_level, mitigation_status, ioc_list, notes, created_at, updated_at`

const defaultListLimit = 100

// Repository lists threat_intel rows. Writes happen inside the scan
// transaction, see internal/store.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// List returns records matching f, most recently updated first.
func (r *Repository) List(ctx context.Context, f Filter) ([]*Record, error) {
	var (
		where []string
		args  []any
	)
	if f.Region != "" {
		args = append(args, f.Region)
		where = append(where, fmt.Sprintf("source_region = $%d", len(args)))
	}
	if f.Day != nil {
		args = append(args, Day(*f.Day))
		where = append(where, fmt.Sprintf("reported_day = $%d", len(args)))
	}
	if f.Escalation != "" {
		args = append(args, string(f.Escalation))
		where = append(where, fmt.Sprintf("escalation_level = $%d", len(args)))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)

	q := `SELECT ` + Columns + ` FROM threat_intel`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += fmt.Sprintf(` ORDER BY updated_at DESC, id DESC LIMIT $%d`, len(args))

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list intel: %w", err)
	}
	defer rows.Close()

	out := []*Record{}
	for rows.Next() {
		rec, err := ScanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetByID returns a single record.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Record, error) {
	rec, err := ScanRecord(r.db.QueryRow(ctx, `SELECT `+Columns+` FROM threat_intel WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// ScanRecord reads one row selected with Columns.
func ScanRecord(row pgx.Row) (*Record, error) {
	var (
		rec        Record
		carriers   string
		escalation string
		mitigation string
		notes      *string
	)
	if err := row.Scan(
		&rec.ID, &rec.ThreatID, &rec.ReportedDate, &rec.ReportedDay,
		&rec.SourceRegion, &rec.SourceCountry, &carriers,
		&rec.Frequency, &rec.AffectedUserCount, &rec.TrendScore,
		&escalation, &mitigation, &rec.IOCList, &notes,
		&rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan intel: %w", err)
	}
	rec.AffectedCarriers = ParseCarriers(carriers)
	rec.EscalationLevel = EscalationLevel(escalation)
	rec.MitigationStatus = MitigationStatus(mitigation)
	if notes != nil {
		rec.Notes = *notes
	}
	return &rec, nil
}
