package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/RimaChaieb/tuniguard-api/internal/catalog"
	"github.com/RimaChaieb/tuniguard-api/internal/classifier"
	"github.com/RimaChaieb/tuniguard-api/internal/intel"
	"github.com/RimaChaieb/tuniguard-api/internal/scan"
	"github.com/RimaChaieb/tuniguard-api/internal/users"
)

// PostgreSQL error codes that mean a concurrent transaction won the race.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

const scanColumns = `s.id, s.user_id, s.threat_id, s.input_text, s.content_type, s.detection_score,
	s.classifier_response, s.timestamp, s.intercept_time, s.user_action, s.location_hint`

// Postgres is the scan.Store used by the server.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres creates a Postgres store backed by the given pool.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) *Postgres {
	return &Postgres{pool: pool, logger: logger}
}

// GetUser implements scan.Store.
func (p *Postgres) GetUser(ctx context.Context, id int64) (*users.User, error) {
	u, err := users.ScanUser(p.pool.QueryRow(ctx, `SELECT `+users.Columns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, users.ErrNotFound
	}
	return u, err
}

// WithinTx implements scan.Store. The transaction runs at READ COMMITTED;
// row locks taken by LockUser and LockIntel serialize competing scans.
func (p *Postgres) WithinTx(ctx context.Context, fn func(ctx context.Context, tx scan.Tx) error) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return asConflict(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return asConflict(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// GetScan implements scan.Store.
func (p *Postgres) GetScan(ctx context.Context, id int64) (*scan.Scan, string, error) {
	q := `SELECT ` + scanColumns + `, t.type
		FROM scans s
		LEFT JOIN threats t ON t.id = s.threat_id
		WHERE s.id = $1`

	var (
		s           scan.Scan
		contentType string
		action      *string
		threatType  *string
	)
	err := p.pool.QueryRow(ctx, q, id).Scan(
		&s.ID, &s.UserID, &s.ThreatID, &s.InputText, &contentType, &s.DetectionScore,
		&s.ClassifierResponse, &s.Timestamp, &s.InterceptTime, &action, &s.LocationHint,
		&threatType,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", scan.ErrNotFound
		}
		return nil, "", fmt.Errorf("get scan: %w", err)
	}
	s.ContentType = classifier.ContentType(contentType)
	if action != nil {
		a := scan.Action(*action)
		s.UserAction = &a
	}
	var tt string
	if threatType != nil {
		tt = *threatType
	}
	return &s, tt, nil
}

// SetUserAction implements scan.Store.
func (p *Postgres) SetUserAction(ctx context.Context, id int64, action scan.Action) error {
	tag, err := p.pool.Exec(ctx, `UPDATE scans SET user_action = $2 WHERE id = $1`, id, string(action))
	if err != nil {
		return fmt.Errorf("set user action: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return scan.ErrNotFound
	}
	return nil
}

// asConflict maps serialization failures and deadlocks to scan.ErrConflict.
func asConflict(err error) error {
	if errors.Is(err, scan.ErrConflict) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%w: %v", scan.ErrConflict, err)
		}
	}
	return err
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockUser(ctx context.Context, id int64) (*users.User, error) {
	u, err := users.ScanUser(t.tx.QueryRow(ctx,
		`SELECT `+users.Columns+` FROM users WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, users.ErrNotFound
	}
	return u, err
}

func (t *pgTx) Catalog(ctx context.Context) ([]catalog.Entry, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+catalog.Columns()+` FROM threats ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query threats: %w", err)
	}
	return catalog.ScanEntries(rows)
}

func (t *pgTx) IncrementDetection(ctx context.Context, threatID int64) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE threats SET detection_count = detection_count + 1 WHERE id = $1`, threatID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (t *pgTx) InsertScan(ctx context.Context, s *scan.Scan) error {
	q := `
		INSERT INTO scans (user_id, threat_id, input_text, content_type, detection_score,
			classifier_response, timestamp, intercept_time, location_hint)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	return t.tx.QueryRow(ctx, q,
		s.UserID, s.ThreatID, s.InputText, string(s.ContentType), s.DetectionScore,
		s.ClassifierResponse, s.Timestamp, s.InterceptTime, s.LocationHint,
	).Scan(&s.ID)
}

func (t *pgTx) LockIntel(ctx context.Context, key intel.Key) (*intel.Record, error) {
	q := `SELECT ` + intel.Columns + ` FROM threat_intel
		WHERE threat_id = $1 AND source_region = $2 AND reported_day = $3
		FOR UPDATE`
	rec, err := intel.ScanRecord(t.tx.QueryRow(ctx, q, key.ThreatID, key.Region, key.Day))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, intel.ErrNotFound
	}
	return rec, err
}

func (t *pgTx) InsertIntel(ctx context.Context, r *intel.Record) error {
	q := `
		INSERT INTO threat_intel (threat_id, reported_date, reported_day, source_region, source_country,
			affected_carriers, frequency, affected_user_count, trend_score,
			escalation_level, mitigation_status, ioc_list, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`
	err := t.tx.QueryRow(ctx, q,
		r.ThreatID, r.ReportedDate, r.ReportedDay, r.SourceRegion, r.SourceCountry,
		r.AffectedCarriers.String(), r.Frequency, r.AffectedUserCount, r.TrendScore,
		string(r.EscalationLevel), string(r.MitigationStatus), r.IOCList, r.CreatedAt, r.UpdatedAt,
	).Scan(&r.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
			return fmt.Errorf("%w: %s", scan.ErrConflict, pgErr.ConstraintName)
		}
		return err
	}
	return nil
}

func (t *pgTx) UpdateIntel(ctx context.Context, r *intel.Record) error {
	q := `
		UPDATE threat_intel SET
			affected_carriers   = $2,
			frequency           = $3,
			affected_user_count = $4,
			trend_score         = $5,
			escalation_level    = $6,
			updated_at          = $7
		WHERE id = $1`
	tag, err := t.tx.Exec(ctx, q,
		r.ID, r.AffectedCarriers.String(), r.Frequency, r.AffectedUserCount,
		r.TrendScore, string(r.EscalationLevel), r.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return intel.ErrNotFound
	}
	return nil
}

func (t *pgTx) RecentScores(ctx context.Context, userID int64, limit int) ([]float64, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT detection_score FROM scans
		WHERE user_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[float64])
}

func (t *pgTx) UpdateUserStats(ctx context.Context, userID int64, scanCount int, lastScan time.Time, riskScore float64) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE users SET scan_count = $2, last_scan = $3, risk_score = $4 WHERE id = $1`,
		userID, scanCount, lastScan, riskScore)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}
