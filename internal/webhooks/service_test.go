package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/RimaChaieb/tuniguard-api/internal/intel"
)

func escalatedRecord() intel.Record {
	return intel.Record{
		ID:                9,
		ThreatID:          3,
		SourceRegion:      "Sfax",
		ReportedDay:       time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
		AffectedCarriers:  intel.NewCarriers("Orange"),
		Frequency:         10,
		AffectedUserCount: 10,
		TrendScore:        65,
		EscalationLevel:   intel.EscalationEscalating,
	}
}

func TestNotifyEscalation_SignedDelivery(t *testing.T) {
	const secret = "s3cret"
	var (
		mu      sync.Mutex
		gotSig  string
		gotBody []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotSig = r.Header.Get(SignatureHeader)
		gotBody = body
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	svc := NewService([]string{srv.URL}, secret, zap.NewNop())
	var deliveries []Delivery
	svc.onDelivery = func(d Delivery) {
		mu.Lock()
		deliveries = append(deliveries, d)
		mu.Unlock()
	}

	svc.NotifyEscalation(context.Background(), escalatedRecord(), intel.EscalationMonitoring)
	if err := svc.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(deliveries) != 1 || !deliveries[0].Success || deliveries[0].Attempts != 1 {
		t.Fatalf("deliveries = %+v", deliveries)
	}
	if want := signPayload(gotBody, secret); gotSig != want {
		t.Errorf("signature = %q, want %q", gotSig, want)
	}

	var ev Event
	if err := json.Unmarshal(gotBody, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Type != EventIntelEscalated {
		t.Errorf("Type = %q", ev.Type)
	}
	if ev.Payload["previous_level"] != "monitoring" || ev.Payload["escalation_level"] != "escalating" {
		t.Errorf("payload = %v", ev.Payload)
	}
	if ev.Payload["reported_day"] != "2025-04-02" || ev.Payload["trend_score"] != "65.00" {
		t.Errorf("payload = %v", ev.Payload)
	}
}

func TestDeliver_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewService([]string{srv.URL}, "", zap.NewNop())
	svc.backoff = time.Millisecond
	var failures, successes atomic.Int32
	svc.SetMetricsRecorder(func(ok bool) {
		if ok {
			successes.Add(1)
		} else {
			failures.Add(1)
		}
	})

	d := svc.deliver(context.Background(), srv.URL, EventIntelEscalated, []byte(`{}`))
	if !d.Success || d.Attempts != 3 {
		t.Errorf("delivery = %+v, want success on attempt 3", d)
	}
	if failures.Load() != 2 || successes.Load() != 1 {
		t.Errorf("metrics = %d failures / %d successes", failures.Load(), successes.Load())
	}
}

func TestDeliver_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	svc := NewService([]string{srv.URL}, "", zap.NewNop())
	svc.backoff = time.Millisecond

	d := svc.deliver(context.Background(), srv.URL, EventIntelEscalated, []byte(`{}`))
	if d.Success || d.StatusCode != http.StatusGone || calls.Load() != 1 {
		t.Errorf("delivery = %+v after %d calls", d, calls.Load())
	}
}

func TestDispatch_NoEndpoints(t *testing.T) {
	svc := NewService(nil, "", zap.NewNop())
	svc.Dispatch(context.Background(), EventIntelEscalated, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := svc.Wait(ctx); err != nil {
		t.Errorf("Wait: %v", err)
	}
}
