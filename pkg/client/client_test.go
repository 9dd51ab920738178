package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/RimaChaieb/tuniguard-api/pkg/client"
)

// ── Stub server ─────────────────────────────────────────────────────────

type stubServer struct {
	mu          sync.Mutex
	threatCalls int
	lastAuth    string
	lastQuery   string
	lastBody    map[string]any
}

func (s *stubServer) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "tuniguard_dev" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid username or password"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user_id": 3, "username": body["username"], "token": "tok-abc", "expires_in": 86400,
		})
	})

	mux.HandleFunc("POST /api/v1/scan", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.lastAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&s.lastBody)
		s.mu.Unlock()
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"scan_id": 11, "threat_detected": true, "detection_score": 88,
			"threat_type": "SMS Phishing", "severity": "High", "signal_bars": "critical",
		})
	})

	mux.HandleFunc("POST /api/v1/scan/{id}/action", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "11" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "scan not found"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"scan_id": 11, "user_action": "reported"})
	})

	mux.HandleFunc("GET /api/v1/threats", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.threatCalls++
		s.lastQuery = r.URL.RawQuery
		s.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"threats": []map[string]any{{"threat_id": 1, "type": "SMS Phishing", "severity": "High"}},
			"count":   1,
		})
	})

	mux.HandleFunc("GET /api/v1/intel", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.lastQuery = r.URL.RawQuery
		s.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"intel": []map[string]any{{"intel_id": 4, "source_region": "Sfax", "affected_carriers": []string{"Orange"}}},
		})
	})

	mux.HandleFunc("GET /api/v1/analytics/national", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"period_days": 7, "total_scans": 120, "threats_detected": 30,
			"most_common_threats": []map[string]any{{"threat_type": "SMS Phishing", "count": 20}},
		})
	})

	mux.HandleFunc("POST /api/v1/scan/batch", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "threat classifier unavailable, try again later"})
	})
	return mux
}

func newStub(t *testing.T) (*stubServer, *httptest.Server) {
	t.Helper()
	s := &stubServer{}
	srv := httptest.NewServer(s.handler(t))
	t.Cleanup(srv.Close)
	return s, srv
}

// ── Tests ───────────────────────────────────────────────────────────────

func TestNew_InvalidURL(t *testing.T) {
	if _, err := client.New("not a url"); err == nil {
		t.Error("expected error for invalid base URL")
	}
}

func TestLogin_StoresToken(t *testing.T) {
	stub, srv := newStub(t)
	c := client.MustNew(srv.URL)

	sess, err := c.Login(context.Background(), "amira_sfax", "tuniguard_dev")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.UserID != 3 || c.Token() != "tok-abc" {
		t.Errorf("session = %+v, token = %q", sess, c.Token())
	}

	res, err := c.Scan(context.Background(), client.ScanRequest{UserID: 3, Content: "hi", ContentType: "sms"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.ScanID != 11 || res.ThreatType == nil || *res.ThreatType != "SMS Phishing" {
		t.Errorf("scan result = %+v", res)
	}
	if stub.lastAuth != "Bearer tok-abc" {
		t.Errorf("Authorization = %q", stub.lastAuth)
	}
	if stub.lastBody["content_type"] != "sms" {
		t.Errorf("request body = %v", stub.lastBody)
	}
}

func TestLogin_BadPassword(t *testing.T) {
	_, srv := newStub(t)
	c := client.MustNew(srv.URL)

	_, err := c.Login(context.Background(), "amira_sfax", "wrong")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if apiErr.Message != "invalid username or password" {
		t.Errorf("message = %q", apiErr.Message)
	}
	if c.Token() != "" {
		t.Error("failed login must not set a token")
	}
}

func TestSetScanAction(t *testing.T) {
	_, srv := newStub(t)
	c := client.MustNew(srv.URL, client.WithBearerToken("tok"))

	if err := c.SetScanAction(context.Background(), 11, "reported"); err != nil {
		t.Errorf("SetScanAction: %v", err)
	}
	if err := c.SetScanAction(context.Background(), 12, "reported"); !errors.Is(err, client.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestScanBatch_TemporaryError(t *testing.T) {
	_, srv := newStub(t)
	c := client.MustNew(srv.URL)

	_, err := c.ScanBatch(context.Background(), client.BatchRequest{UserID: 3, Scans: []client.BatchItem{{Content: "x"}}})
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || !apiErr.Temporary() {
		t.Fatalf("expected temporary APIError, got %v", err)
	}
}

func TestListThreats_Cache(t *testing.T) {
	stub, srv := newStub(t)
	c := client.MustNew(srv.URL, client.WithCacheTTL(time.Minute))

	for i := 0; i < 3; i++ {
		threats, err := c.ListThreats(context.Background(), "SMS", "High")
		if err != nil {
			t.Fatalf("ListThreats: %v", err)
		}
		if len(threats) != 1 || threats[0].Type != "SMS Phishing" {
			t.Errorf("threats = %+v", threats)
		}
	}
	if stub.threatCalls != 1 {
		t.Errorf("expected 1 server call with caching, got %d", stub.threatCalls)
	}
	if stub.lastQuery != "category=SMS&severity=High" {
		t.Errorf("query = %q", stub.lastQuery)
	}

	if _, err := c.ListThreats(context.Background(), "", ""); err != nil {
		t.Fatal(err)
	}
	if stub.threatCalls != 2 {
		t.Errorf("different query must miss the cache, calls = %d", stub.threatCalls)
	}
}

func TestWithCacheTTL_Invalid(t *testing.T) {
	if _, err := client.New("http://localhost", client.WithCacheTTL(0)); err == nil {
		t.Error("expected error for zero TTL")
	}
}

func TestListIntel(t *testing.T) {
	stub, srv := newStub(t)
	c := client.MustNew(srv.URL)

	recs, err := c.ListIntel(context.Background(), client.IntelFilter{
		Region:     "Sfax",
		Day:        time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Escalation: "monitoring",
	})
	if err != nil {
		t.Fatalf("ListIntel: %v", err)
	}
	if len(recs) != 1 || recs[0].SourceRegion != "Sfax" || recs[0].AffectedCarriers[0] != "Orange" {
		t.Errorf("records = %+v", recs)
	}
	if stub.lastQuery != "day=2025-03-14&escalation=monitoring&region=Sfax" {
		t.Errorf("query = %q", stub.lastQuery)
	}
}

func TestNationalStats(t *testing.T) {
	_, srv := newStub(t)
	c := client.MustNew(srv.URL)

	s, err := c.NationalStats(context.Background(), 7)
	if err != nil {
		t.Fatalf("NationalStats: %v", err)
	}
	if s.TotalScans != 120 || s.ThreatsDetected != 30 || len(s.MostCommonThreats) != 1 {
		t.Errorf("stats = %+v", s)
	}
}
