package analytics_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/RimaChaieb/tuniguard-api/internal/analytics"
	"github.com/RimaChaieb/tuniguard-api/internal/cache"
	"github.com/RimaChaieb/tuniguard-api/internal/users"
)

var now = time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)

type stubRepo struct {
	mu       sync.Mutex
	aggs     []analytics.ContentTypeAgg
	top      []analytics.ThreatCount
	trending []analytics.TrendingThreat
	count    int

	calls      int
	lastSince  time.Time
	lastUser   int64
	lastRegion string
}

func (r *stubRepo) record(since time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.lastSince = since
}

func (r *stubRepo) ContentTypeAggs(_ context.Context, since time.Time, userID int64) ([]analytics.ContentTypeAgg, error) {
	r.record(since)
	r.lastUser = userID
	return r.aggs, nil
}

func (r *stubRepo) TopThreats(_ context.Context, since time.Time, _ int) ([]analytics.ThreatCount, error) {
	r.record(since)
	return r.top, nil
}

func (r *stubRepo) Trending(_ context.Context, since time.Time, region string, _ int) ([]analytics.TrendingThreat, error) {
	r.record(since)
	r.lastRegion = region
	out := make([]analytics.TrendingThreat, len(r.trending))
	copy(out, r.trending)
	return out, nil
}

func (r *stubRepo) CountSince(_ context.Context, since time.Time) (int, error) {
	r.record(since)
	return r.count, nil
}

type stubUsers struct{ known map[int64]bool }

func (s stubUsers) GetByID(_ context.Context, id int64) (*users.User, error) {
	if !s.known[id] {
		return nil, users.ErrNotFound
	}
	return &users.User{ID: id}, nil
}

func newService(repo *stubRepo) *analytics.Service {
	svc := analytics.NewService(repo, stubUsers{known: map[int64]bool{7: true}}, zap.NewNop())
	svc.SetClock(func() time.Time { return now })
	return svc
}

func TestSummarize(t *testing.T) {
	s := analytics.Summarize([]analytics.ContentTypeAgg{
		{ContentType: "call", Total: 1, Threats: 0, ScoreSum: 10},
		{ContentType: "sms", Total: 2, Threats: 1, ScoreSum: 100},
	})
	if s.TotalScans != 3 || s.ThreatsDetected != 1 {
		t.Errorf("totals = %d/%d, want 3/1", s.TotalScans, s.ThreatsDetected)
	}
	if s.AverageThreatScore != 36.67 {
		t.Errorf("AverageThreatScore = %v, want 36.67", s.AverageThreatScore)
	}
	if s.ThreatPercentage != 33.33 {
		t.Errorf("ThreatPercentage = %v, want 33.33", s.ThreatPercentage)
	}
	if s.ByContentType["sms"] != (analytics.ContentTypeStats{Total: 2, Threats: 1}) {
		t.Errorf("sms = %+v", s.ByContentType["sms"])
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := analytics.Summarize(nil)
	if s.TotalScans != 0 || s.AverageThreatScore != 0 || s.ThreatPercentage != 0 {
		t.Errorf("empty summary = %+v", s)
	}
	if s.ByContentType == nil {
		t.Error("ByContentType must be an empty map, not nil")
	}
}

func TestAlertLevel(t *testing.T) {
	tests := []struct {
		freq int
		want string
	}{
		{0, analytics.AlertLow},
		{10, analytics.AlertLow},
		{11, analytics.AlertMedium},
		{20, analytics.AlertMedium},
		{21, analytics.AlertHigh},
	}
	for _, tc := range tests {
		if got := analytics.AlertLevel(tc.freq); got != tc.want {
			t.Errorf("AlertLevel(%d) = %s, want %s", tc.freq, got, tc.want)
		}
	}
}

func TestUserStats(t *testing.T) {
	repo := &stubRepo{aggs: []analytics.ContentTypeAgg{{ContentType: "sms", Total: 4, Threats: 2, ScoreSum: 220}}}
	svc := newService(repo)

	st, err := svc.UserStats(context.Background(), 7, 0)
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if st.PeriodDays != analytics.DefaultUserDays || st.UserID != 7 {
		t.Errorf("stats = %+v", st)
	}
	if st.AverageThreatScore != 55 || st.ThreatPercentage != 50 {
		t.Errorf("avg/pct = %v/%v, want 55/50", st.AverageThreatScore, st.ThreatPercentage)
	}
	if want := now.AddDate(0, 0, -30); !repo.lastSince.Equal(want) || repo.lastUser != 7 {
		t.Errorf("query since %v user %d, want %v user 7", repo.lastSince, repo.lastUser, want)
	}

	if _, err := svc.UserStats(context.Background(), 99, 7); !errors.Is(err, analytics.ErrUserNotFound) {
		t.Errorf("unknown user: err = %v", err)
	}
}

func TestNational_UsesCache(t *testing.T) {
	repo := &stubRepo{
		aggs: []analytics.ContentTypeAgg{{ContentType: "sms", Total: 10, Threats: 3, ScoreSum: 400}},
		top:  []analytics.ThreatCount{{ThreatType: "Payment Scam", Count: 3}},
	}
	svc := newService(repo)
	svc.SetCache(cache.NewMemory(), time.Minute)

	first, err := svc.National(context.Background(), 0)
	if err != nil {
		t.Fatalf("National: %v", err)
	}
	calls := repo.calls
	second, err := svc.National(context.Background(), 0)
	if err != nil {
		t.Fatalf("National (cached): %v", err)
	}
	if repo.calls != calls {
		t.Errorf("repo called again on cached read: %d -> %d", calls, repo.calls)
	}
	if first.PeriodDays != 7 || second.TotalScans != 10 || len(second.MostCommonThreats) != 1 {
		t.Errorf("national = %+v", second)
	}
}

func TestTrending(t *testing.T) {
	repo := &stubRepo{trending: []analytics.TrendingThreat{
		{ThreatType: "Fake Mobile Money", Severity: "Critical", Category: "SMS", Frequency: 25},
		{ThreatType: "Payment Scam", Severity: "Critical", Category: "SMS", Frequency: 11},
		{ThreatType: "Romance Scam", Severity: "High", Category: "App Message", Frequency: 2},
	}}
	svc := newService(repo)

	tr, err := svc.Trending(context.Background(), 14, "")
	if err != nil {
		t.Fatalf("Trending: %v", err)
	}
	if tr.Period != "Last 14 days" || tr.Region != "All Tunisia" {
		t.Errorf("labels = %q/%q", tr.Period, tr.Region)
	}
	levels := []string{analytics.AlertHigh, analytics.AlertMedium, analytics.AlertLow}
	for i, item := range tr.TrendingThreats {
		if item.AlertLevel != levels[i] || item.PeriodDays != 14 {
			t.Errorf("item %d = %+v", i, item)
		}
	}

	tr, err = svc.Trending(context.Background(), 0, "Sfax")
	if err != nil {
		t.Fatalf("Trending: %v", err)
	}
	if tr.Region != "Sfax" || repo.lastRegion != "Sfax" || tr.Period != "Last 7 days" {
		t.Errorf("region query = %+v, repo region %q", tr, repo.lastRegion)
	}
}

func TestPerformance(t *testing.T) {
	repo := &stubRepo{count: 100}
	svc := newService(repo)

	p, err := svc.Performance(context.Background(), 0)
	if err != nil {
		t.Fatalf("Performance: %v", err)
	}
	if p.PeriodHours != 24 || p.TotalScans != 100 || p.ScansPerHour != 4.17 {
		t.Errorf("performance = %+v", p)
	}
}
