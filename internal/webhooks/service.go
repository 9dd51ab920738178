// Package webhooks posts signed JSON notifications to operator-configured
// endpoints when threat intelligence escalates.
package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/RimaChaieb/tuniguard-api/internal/intel"
)

// SignatureHeader carries the HMAC-SHA256 of the request body.
const SignatureHeader = "X-TuniGuard-Signature"

const (
	maxAttempts    = 3
	defaultBackoff = time.Second
)

// MetricsRecorder is an optional callback for recording delivery outcomes.
type MetricsRecorder func(success bool)

// Service delivers events to a fixed set of endpoints.
type Service struct {
	endpoints  []string
	secret     string
	httpClient *http.Client
	backoff    time.Duration
	onMetrics  MetricsRecorder
	onDelivery func(Delivery)
	wg         sync.WaitGroup
	logger     *zap.Logger
}

// NewService creates a new webhook Service. Events are signed with secret
// when it is non-empty.
func NewService(endpoints []string, secret string, logger *zap.Logger) *Service {
	return &Service{
		endpoints:  endpoints,
		secret:     secret,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		backoff:    defaultBackoff,
		logger:     logger,
	}
}

// SetMetricsRecorder configures the metrics callback.
func (s *Service) SetMetricsRecorder(fn MetricsRecorder) {
	s.onMetrics = fn
}

// NotifyEscalation dispatches an intel.escalated event.
func (s *Service) NotifyEscalation(ctx context.Context, rec intel.Record, previous intel.EscalationLevel) {
	s.Dispatch(ctx, EventIntelEscalated, map[string]string{
		"intel_id":            strconv.FormatInt(rec.ID, 10),
		"threat_id":           strconv.FormatInt(rec.ThreatID, 10),
		"region":              rec.SourceRegion,
		"reported_day":        rec.ReportedDay.Format(time.DateOnly),
		"previous_level":      string(previous),
		"escalation_level":    string(rec.EscalationLevel),
		"frequency":           strconv.Itoa(rec.Frequency),
		"trend_score":         strconv.FormatFloat(rec.TrendScore, 'f', 2, 64),
		"affected_carriers":   rec.AffectedCarriers.String(),
		"affected_user_count": strconv.Itoa(rec.AffectedUserCount),
	})
}

// Dispatch fans an event out to every endpoint in the background. Delivery
// outlives the caller's context.
func (s *Service) Dispatch(ctx context.Context, eventType string, payload map[string]string) {
	if len(s.endpoints) == 0 {
		return
	}
	event := Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	body, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("webhook: marshal event", zap.Error(err))
		return
	}

	bg := context.WithoutCancel(ctx)
	for _, url := range s.endpoints {
		s.wg.Add(1)
		go func(url string) {
			defer s.wg.Done()
			d := s.deliver(bg, url, event.Type, body)
			if s.onDelivery != nil {
				s.onDelivery(d)
			}
		}(url)
	}
}

// Wait blocks until in-flight deliveries finish or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// deliver posts body to url, retrying network errors and 5xx responses
// with exponential backoff.
func (s *Service) deliver(ctx context.Context, url, eventType string, body []byte) Delivery {
	d := Delivery{URL: url, EventType: eventType}
	signature := signPayload(body, s.secret)

	b := retry.WithMaxRetries(maxAttempts-1, retry.NewExponential(s.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		d.Attempts++
		status, err := s.doDelivery(ctx, url, body, signature)
		d.StatusCode = status
		if s.onMetrics != nil {
			s.onMetrics(err == nil)
		}
		if err == nil {
			return nil
		}
		s.logger.Warn("webhook: delivery failed",
			zap.String("url", url),
			zap.Int("attempt", d.Attempts),
			zap.Error(err),
		)
		if status >= 400 && status < 500 {
			return err
		}
		return retry.RetryableError(err)
	})
	d.Success = err == nil
	if err != nil {
		d.Err = err.Error()
	}
	return d
}

// doDelivery performs a single HTTP POST delivery.
func (s *Service) doDelivery(ctx context.Context, url string, body []byte, signature string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024)) //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// signPayload computes an HMAC-SHA256 signature. It returns "" without a
// secret.
func signPayload(body []byte, secret string) string {
	if secret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
