// Package scan orchestrates a scan submission: validation, classification,
// threat resolution, intelligence aggregation and the user risk update, with
// every write committed in one transaction.
package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/RimaChaieb/tuniguard-api/internal/catalog"
	"github.com/RimaChaieb/tuniguard-api/internal/classifier"
	"github.com/RimaChaieb/tuniguard-api/internal/intel"
	"github.com/RimaChaieb/tuniguard-api/internal/risk"
	"github.com/RimaChaieb/tuniguard-api/internal/users"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = 50 * time.Millisecond

	interceptMin  = 200.0
	interceptSpan = 200.0
)

// EscalationNotifier is told when a commit moved an intel record to a
// higher escalation level.
type EscalationNotifier interface {
	NotifyEscalation(ctx context.Context, rec intel.Record, previous intel.EscalationLevel)
}

// MetricsRecorder receives pipeline outcomes.
type MetricsRecorder interface {
	RecordScan(verdict string)
	RecordConflictRetry()
	RecordEscalation(level string)
}

// Service runs scan submissions against a Store and a Classifier.
type Service struct {
	store      Store
	classifier classifier.Classifier
	notifier   EscalationNotifier
	metrics    MetricsRecorder
	maxRetries uint64
	backoff    time.Duration
	random     func() float64
	now        func() time.Time
	logger     *zap.Logger
}

// NewService creates a new scan Service.
func NewService(store Store, c classifier.Classifier, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		classifier: c,
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
		random:     rand.Float64,
		now:        time.Now,
		logger:     logger,
	}
}

// SetRetryPolicy sets how many times a conflicting transaction is retried
// and the base Fibonacci backoff between attempts.
func (s *Service) SetRetryPolicy(maxRetries uint64, backoff time.Duration) {
	s.maxRetries = maxRetries
	if backoff > 0 {
		s.backoff = backoff
	}
}

// SetEscalationNotifier enables escalation notifications. Nil disables them.
func (s *Service) SetEscalationNotifier(n EscalationNotifier) {
	s.notifier = n
}

// SetMetricsRecorder enables pipeline metrics. Nil disables them.
func (s *Service) SetMetricsRecorder(m MetricsRecorder) {
	s.metrics = m
}

// SetClock overrides the time source. Intended for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SetRandom overrides the [0,1) source used for the simulated intercept
// time. Intended for tests.
func (s *Service) SetRandom(fn func() float64) {
	s.random = fn
}

// outcome carries what the committed transaction produced.
type outcome struct {
	scan       *Scan
	threat     *catalog.Entry
	riskScore  float64
	escalated  *intel.Record
	previousEL intel.EscalationLevel
}

// Submit validates, classifies and persists one scan.
func (s *Service) Submit(ctx context.Context, req Request) (*Response, error) {
	content, ct, err := Validate(req)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetUser(ctx, req.UserID); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: load user: %v", ErrPersistence, err)
	}

	// The classifier is called before any transaction is opened so no
	// locks are held across the network round trip.
	res, err := s.classifier.Classify(ctx, content, ct)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("%w: encode classifier response: %v", ErrPersistence, err)
	}

	intercept := risk.Round2(interceptMin + interceptSpan*s.random())

	var out *outcome
	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewFibonacci(s.backoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		o, err := s.persist(ctx, req, content, ct, res, string(raw), intercept)
		if err != nil {
			if errors.Is(err, ErrConflict) {
				s.logger.Debug("scan transaction conflicted, retrying",
					zap.Int64("user_id", req.UserID), zap.Error(err))
				if s.metrics != nil {
					s.metrics.RecordConflictRetry()
				}
				return retry.RetryableError(err)
			}
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, ErrConflict):
			return nil, fmt.Errorf("%w: %v", ErrTransient, err)
		default:
			s.logger.Error("scan persistence failed", zap.Int64("user_id", req.UserID), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	s.afterCommit(ctx, res, out)

	return &Response{
		ScanID:          out.scan.ID,
		ThreatDetected:  res.ThreatDetected,
		DetectionScore:  res.Score,
		ThreatType:      optional(res.ThreatType),
		Severity:        optional(res.Severity),
		Advice:          advice(res.Explanation, res.SafeActions),
		Explanation:     res.Explanation,
		RedFlags:        nonNil(res.RedFlags),
		SafeActions:     nonNil(res.SafeActions),
		SignalBars:      risk.SignalBars(res.Score),
		InterceptTime:   intercept,
		Timestamp:       out.scan.Timestamp,
		CulturalContext: res.CulturalContext,
		UserRiskScore:   out.riskScore,
	}, nil
}

// persist runs the transactional part of a submission.
func (s *Service) persist(
	ctx context.Context,
	req Request,
	content string,
	ct classifier.ContentType,
	res *classifier.Result,
	raw string,
	intercept float64,
) (*outcome, error) {
	out := &outcome{}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		u, err := tx.LockUser(ctx, req.UserID)
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}

		if res.ThreatDetected {
			entries, err := tx.Catalog(ctx)
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}
			if e, ok := catalog.Resolve(res.ThreatType, entries); ok {
				if err := tx.IncrementDetection(ctx, e.ID); err != nil {
					return fmt.Errorf("increment detection: %w", err)
				}
				out.threat = e
			}
		}

		now := s.now().UTC()
		sc := &Scan{
			UserID:             u.ID,
			InputText:          content,
			ContentType:        ct,
			DetectionScore:     res.Score,
			ClassifierResponse: raw,
			Timestamp:          now,
			InterceptTime:      intercept,
			LocationHint:       locationHint(u, req.LocationHint),
		}
		if out.threat != nil {
			id := out.threat.ID
			sc.ThreatID = &id
		}
		if err := tx.InsertScan(ctx, sc); err != nil {
			return fmt.Errorf("insert scan: %w", err)
		}
		out.scan = sc

		if intel.Qualifies(res.ThreatDetected, res.Score, out.threat != nil) {
			o := intel.Observation{
				ThreatID: out.threat.ID,
				Region:   sourceRegion(u, req.LocationHint),
				Carrier:  u.Carrier,
				Content:  content,
				At:       now,
			}
			if err := s.aggregate(ctx, tx, o, out); err != nil {
				return err
			}
		}

		scores, err := tx.RecentScores(ctx, u.ID, risk.Window)
		if err != nil {
			return fmt.Errorf("recent scores: %w", err)
		}
		out.riskScore = risk.Score(scores)

		if err := tx.UpdateUserStats(ctx, u.ID, u.ScanCount+1, now, out.riskScore); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// aggregate upserts the intel record for o's key.
func (s *Service) aggregate(ctx context.Context, tx Tx, o intel.Observation, out *outcome) error {
	rec, err := tx.LockIntel(ctx, o.Key())
	switch {
	case errors.Is(err, intel.ErrNotFound):
		rec = intel.NewRecord(o)
		if err := tx.InsertIntel(ctx, rec); err != nil {
			return fmt.Errorf("insert intel: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("lock intel: %w", err)
	}

	previous := rec.EscalationLevel
	rec.Observe(o)
	if err := tx.UpdateIntel(ctx, rec); err != nil {
		return fmt.Errorf("update intel: %w", err)
	}
	if escalationRank(rec.EscalationLevel) > escalationRank(previous) {
		cp := *rec
		out.escalated = &cp
		out.previousEL = previous
	}
	return nil
}

func (s *Service) afterCommit(ctx context.Context, res *classifier.Result, out *outcome) {
	verdict := "safe"
	if res.ThreatDetected {
		verdict = "threat"
	}
	fields := []zap.Field{
		zap.Int64("scan_id", out.scan.ID),
		zap.Int64("user_id", out.scan.UserID),
		zap.String("verdict", verdict),
		zap.Float64("score", res.Score),
		zap.Float64("user_risk_score", out.riskScore),
	}
	if out.threat != nil {
		fields = append(fields, zap.String("threat_type", out.threat.Type))
	}
	s.logger.Info("scan committed", fields...)

	if s.metrics != nil {
		s.metrics.RecordScan(verdict)
	}
	if out.escalated == nil {
		return
	}

	s.logger.Warn("threat intel escalated",
		zap.Int64("threat_id", out.escalated.ThreatID),
		zap.String("region", out.escalated.SourceRegion),
		zap.String("from", string(out.previousEL)),
		zap.String("to", string(out.escalated.EscalationLevel)),
		zap.Int("frequency", out.escalated.Frequency),
	)
	if s.metrics != nil {
		s.metrics.RecordEscalation(string(out.escalated.EscalationLevel))
	}
	if s.notifier != nil {
		s.notifier.NotifyEscalation(ctx, *out.escalated, out.previousEL)
	}
}

// Batch classifies up to MaxBatch messages for a user. Nothing is stored.
func (s *Service) Batch(ctx context.Context, req BatchRequest) (*BatchResponse, error) {
	if req.UserID <= 0 {
		return nil, &ValidationError{Field: "user_id", Msg: "must be a positive integer"}
	}
	if len(req.Scans) == 0 {
		return nil, &ValidationError{Field: "scans", Msg: "at least one message is required"}
	}
	if _, err := s.store.GetUser(ctx, req.UserID); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	items := req.Scans
	if len(items) > MaxBatch {
		items = items[:MaxBatch]
	}

	out := &BatchResponse{Results: make([]BatchResult, 0, len(items))}
	for i, item := range items {
		ct := classifier.ContentType(item.ContentType)
		if ct == "" {
			ct = classifier.ContentSMS
		}
		if !ct.Valid() {
			return nil, &ValidationError{Field: fmt.Sprintf("scans[%d].content_type", i), Msg: "must be one of sms, call, app_message"}
		}
		content := Sanitize(item.Content)
		if content == "" {
			return nil, &ValidationError{Field: fmt.Sprintf("scans[%d].content", i), Msg: "is required"}
		}

		res, err := s.classifier.Classify(ctx, content, ct)
		if err != nil {
			return nil, fmt.Errorf("classify item %d: %w", i, err)
		}
		if res.ThreatDetected {
			out.ThreatsFound++
		}
		out.Results = append(out.Results, BatchResult{
			ContentPreview: Preview(content),
			ThreatDetected: res.ThreatDetected,
			Score:          res.Score,
			ThreatType:     res.ThreatType,
		})
	}
	out.TotalScanned = len(out.Results)
	out.SafeMessages = out.TotalScanned - out.ThreatsFound
	return out, nil
}

// Get returns the read view of a stored scan.
func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	sc, threatType, err := s.store.GetScan(ctx, id)
	if err != nil {
		return nil, err
	}
	if threatType == "" {
		threatType = "Safe"
	}
	return &Detail{
		ScanID:         sc.ID,
		UserID:         sc.UserID,
		InputText:      sc.InputText,
		ContentType:    string(sc.ContentType),
		DetectionScore: sc.DetectionScore,
		ThreatType:     threatType,
		Timestamp:      sc.Timestamp,
		InterceptTime:  sc.InterceptTime,
		UserAction:     sc.UserAction,
		LocationHint:   sc.LocationHint,
	}, nil
}

// SetUserAction records what the user did with a scanned message.
func (s *Service) SetUserAction(ctx context.Context, id int64, action Action) error {
	if !action.Valid() {
		return &ValidationError{Field: "action", Msg: "must be one of deleted, reported, ignored"}
	}
	return s.store.SetUserAction(ctx, id, action)
}

// locationHint is the hint stored on the scan: the caller's hint when
// given, otherwise the user's registered location.
func locationHint(u *users.User, hint string) string {
	if hint != "" {
		return hint
	}
	return u.Location()
}

// sourceRegion is the intel aggregation region. A registered region wins;
// users on the default region fall back to the request hint.
func sourceRegion(u *users.User, hint string) string {
	if u.Region != "" && u.Region != users.DefaultRegion {
		return u.Region
	}
	if hint != "" {
		return RegionFromHint(hint)
	}
	return users.DefaultRegion
}

func escalationRank(l intel.EscalationLevel) int {
	switch l {
	case intel.EscalationEscalating:
		return 2
	case intel.EscalationMonitoring:
		return 1
	default:
		return 0
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
