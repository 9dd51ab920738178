package catalog_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/RimaChaieb/tuniguard-api/internal/catalog"
	"go.uber.org/zap"
)

func seeded() []catalog.Entry {
	entries := catalog.DefaultEntries()
	for i := range entries {
		entries[i].ID = int64(i + 1)
	}
	return entries
}

func TestResolve(t *testing.T) {
	entries := seeded()

	tests := []struct {
		label string
		want  string
	}{
		// exact match wins
		{"Payment Scam", "Payment Scam"},
		{"Bank Impersonation", "Bank Impersonation"},
		// keyword families, in table order
		{"Phishing", "SMS Phishing (Smishing)"},
		{"email phishing attempt", "SMS Phishing (Smishing)"},
		{"Money transfer fraud", "Fake Mobile Money"},
		{"Fake banking alert", "Bank Impersonation"},
		{"Government official notice", "Government Impersonation"},
		{"Microsoft support call", "Tech Support Scam"},
		{"Crypto investment", "Investment Scam"},
		{"Malware link", "Malware Distribution"},
		// keyword hit with no catalog type containing it falls through
		{"Trojan download", "SMS Phishing (Smishing)"},
		// "Scam" family: first entry whose type contains "scam"
		{"Generic scam", "Payment Scam"},
		// no family matches → first entry
		{"Impersonation", "SMS Phishing (Smishing)"},
		{"Premium Fraud", "SMS Phishing (Smishing)"},
		{"Social Engineering", "SMS Phishing (Smishing)"},
	}

	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			got, ok := catalog.Resolve(tc.label, entries)
			if !ok {
				t.Fatalf("Resolve(%q) found nothing", tc.label)
			}
			if got.Type != tc.want {
				t.Errorf("Resolve(%q) = %q, want %q", tc.label, got.Type, tc.want)
			}
		})
	}
}

func TestResolve_ExactMatchIsCaseSensitive(t *testing.T) {
	entries := []catalog.Entry{
		{ID: 1, Type: "Other"},
		{ID: 2, Type: "Romance"},
	}
	// "romance" does not equal "Romance" and no family keyword matches,
	// so the first entry is returned.
	got, ok := catalog.Resolve("romance", entries)
	if !ok || got.ID != 1 {
		t.Fatalf("Resolve(romance) = %+v, want entry 1", got)
	}
	got, _ = catalog.Resolve("Romance", entries)
	if got.ID != 2 {
		t.Errorf("Resolve(Romance) = %d, want 2", got.ID)
	}
}

func TestResolve_FamilyOrderBeatsKeywordPosition(t *testing.T) {
	entries := []catalog.Entry{
		{ID: 1, Type: "Default"},
		{ID: 2, Type: "Malware Drop"},
		{ID: 3, Type: "Phishing Kit"},
	}
	// Both "Malware" and "Phishing" appear; Phishing is the earlier family.
	got, _ := catalog.Resolve("Malware via phishing link", entries)
	if got.ID != 3 {
		t.Errorf("got entry %d, want 3", got.ID)
	}
}

func TestResolve_KeywordWithoutCatalogMatchFallsThrough(t *testing.T) {
	entries := []catalog.Entry{
		{ID: 1, Type: "Default"},
		{ID: 2, Type: "Crypto Ponzi"},
	}
	// "Email" matches the Phishing family but no entry contains it; the
	// Investment family then matches "Crypto".
	got, _ := catalog.Resolve("Email about crypto", entries)
	if got.ID != 2 {
		t.Errorf("got entry %d, want 2", got.ID)
	}
}

func TestResolve_EmptyCatalog(t *testing.T) {
	got, ok := catalog.Resolve("Phishing", nil)
	if ok || got != nil {
		t.Errorf("Resolve on empty catalog = (%v, %v), want (nil, false)", got, ok)
	}
}

func TestResolve_ReturnsPointerIntoSlice(t *testing.T) {
	entries := seeded()
	got, _ := catalog.Resolve("Payment Scam", entries)
	got.DetectionCount++
	if entries[1].DetectionCount != 1 {
		t.Error("Resolve should return a pointer into the caller's slice")
	}
}

func TestDefaultEntries(t *testing.T) {
	entries := catalog.DefaultEntries()
	if len(entries) != 15 {
		t.Fatalf("len = %d, want 15", len(entries))
	}
	seen := map[string]bool{}
	for _, e := range entries {
		if seen[e.Type] {
			t.Errorf("duplicate type %q", e.Type)
		}
		seen[e.Type] = true
		if !catalog.ValidCategory(string(e.Category)) {
			t.Errorf("%q has invalid category %q", e.Type, e.Category)
		}
		if !catalog.ValidSeverity(string(e.Severity)) {
			t.Errorf("%q has invalid severity %q", e.Type, e.Severity)
		}
	}
}

// ── Service ────────────────────────────────────────────────────────────────

type stubRepo struct {
	mu         sync.Mutex
	entries    []catalog.Entry
	detections map[int64][]catalog.Detection
}

func (r *stubRepo) List(_ context.Context, f catalog.Filter) ([]catalog.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalog.Entry
	for _, e := range r.entries {
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.Severity != "" && e.Severity != f.Severity {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *stubRepo) GetByID(_ context.Context, id int64) (*catalog.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == id {
			cp := e
			return &cp, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (r *stubRepo) RecentDetections(_ context.Context, id int64, limit int) ([]catalog.Detection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.detections[id]
	if len(d) > limit {
		d = d[:limit]
	}
	return d, nil
}

func TestService_Detail(t *testing.T) {
	newest := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	repo := &stubRepo{
		entries: seeded(),
		detections: map[int64][]catalog.Detection{
			2: {
				{ScanID: 9, DetectionScore: 88, Timestamp: newest},
				{ScanID: 4, DetectionScore: 70, Timestamp: newest.Add(-time.Hour)},
			},
		},
	}
	svc := catalog.NewService(repo, zap.NewNop())

	d, err := svc.Detail(context.Background(), 2)
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if d.Type != "Payment Scam" {
		t.Errorf("Type = %q", d.Type)
	}
	if len(d.RecentDetections) != 2 {
		t.Fatalf("RecentDetections = %d, want 2", len(d.RecentDetections))
	}
	if d.LastDetected == nil || !d.LastDetected.Equal(newest) {
		t.Errorf("LastDetected = %v, want %v", d.LastDetected, newest)
	}

	d, err = svc.Detail(context.Background(), 3)
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if d.LastDetected != nil {
		t.Error("LastDetected should be nil without detections")
	}

	if _, err := svc.Detail(context.Background(), 99); err != catalog.ErrNotFound {
		t.Errorf("missing threat: err = %v, want ErrNotFound", err)
	}
}

func TestService_ListFilter(t *testing.T) {
	svc := catalog.NewService(&stubRepo{entries: seeded()}, zap.NewNop())
	got, err := svc.List(context.Background(), catalog.Filter{
		Category: catalog.CategoryAppMessage,
		Severity: catalog.SeverityCritical,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("got %d entries, want 2 (Investment Scam, Malware Distribution)", len(got))
	}
}
