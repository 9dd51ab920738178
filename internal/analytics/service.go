package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/RimaChaieb/tuniguard-api/internal/cache"
	"github.com/RimaChaieb/tuniguard-api/internal/users"
)

// Query defaults and bounds.
const (
	DefaultUserDays     = 30
	DefaultNationalDays = 7
	DefaultTrendingDays = 7
	DefaultPerfHours    = 24
	MaxDays             = 365

	topThreatsLimit = 5
	trendingLimit   = 10
	allRegions      = "All Tunisia"
)

// ErrUserNotFound is returned for statistics of an unknown user.
var ErrUserNotFound = errors.New("user not found")

type statsRepo interface {
	ContentTypeAggs(ctx context.Context, since time.Time, userID int64) ([]ContentTypeAgg, error)
	TopThreats(ctx context.Context, since time.Time, limit int) ([]ThreatCount, error)
	Trending(ctx context.Context, since time.Time, region string, limit int) ([]TrendingThreat, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
}

type userLookup interface {
	GetByID(ctx context.Context, id int64) (*users.User, error)
}

// Service answers analytics queries. National and trending results are
// cached for a short TTL when a cache is configured.
type Service struct {
	repo   statsRepo
	users  userLookup
	cache  cache.Cache
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a new analytics Service.
func NewService(repo statsRepo, users userLookup, logger *zap.Logger) *Service {
	return &Service{repo: repo, users: users, now: time.Now, logger: logger}
}

// SetCache enables result caching with the given TTL.
func (s *Service) SetCache(c cache.Cache, ttl time.Duration) {
	s.cache = c
	s.ttl = ttl
}

// SetClock overrides the time source. Intended for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// UserStats summarizes a user's scans over the last days.
func (s *Service) UserStats(ctx context.Context, userID int64, days int) (*UserStats, error) {
	days = clampDays(days, DefaultUserDays)
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	rows, err := s.repo.ContentTypeAggs(ctx, s.since(days), userID)
	if err != nil {
		return nil, err
	}
	return &UserStats{UserID: userID, PeriodDays: days, Summary: Summarize(rows)}, nil
}

// National summarizes every scan over the last days.
func (s *Service) National(ctx context.Context, days int) (*NationalStats, error) {
	days = clampDays(days, DefaultNationalDays)
	key := fmt.Sprintf("analytics:national:%d", days)

	var out NationalStats
	if s.cached(ctx, key, &out) {
		return &out, nil
	}

	since := s.since(days)
	rows, err := s.repo.ContentTypeAggs(ctx, since, 0)
	if err != nil {
		return nil, err
	}
	top, err := s.repo.TopThreats(ctx, since, topThreatsLimit)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []ThreatCount{}
	}
	out = NationalStats{PeriodDays: days, Summary: Summarize(rows), MostCommonThreats: top}
	s.store(ctx, key, out)
	return &out, nil
}

// Trending ranks the catalog by attributed scans over the last days,
// optionally within one region.
func (s *Service) Trending(ctx context.Context, days int, region string) (*Trending, error) {
	days = clampDays(days, DefaultTrendingDays)
	key := fmt.Sprintf("analytics:trending:%d:%s", days, region)

	var out Trending
	if s.cached(ctx, key, &out) {
		return &out, nil
	}

	items, err := s.repo.Trending(ctx, s.since(days), region, trendingLimit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []TrendingThreat{}
	}
	for i := range items {
		items[i].PeriodDays = days
		items[i].AlertLevel = AlertLevel(items[i].Frequency)
	}

	label := region
	if label == "" {
		label = allRegions
	}
	out = Trending{Period: fmt.Sprintf("Last %d days", days), Region: label, TrendingThreats: items}
	s.store(ctx, key, out)
	return &out, nil
}

// Performance reports scan throughput over the last hours.
func (s *Service) Performance(ctx context.Context, hours int) (*Performance, error) {
	if hours <= 0 {
		hours = DefaultPerfHours
	}
	if hours > MaxDays*24 {
		hours = MaxDays * 24
	}
	n, err := s.repo.CountSince(ctx, s.now().UTC().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		return nil, err
	}
	return &Performance{PeriodHours: hours, TotalScans: n, ScansPerHour: PerHour(n, hours)}, nil
}

func (s *Service) since(days int) time.Time {
	return s.now().UTC().AddDate(0, 0, -days)
}

// cached reports whether key was found. Cache errors other than a miss are
// logged and treated as a miss.
func (s *Service) cached(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.GetJSON(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *Service) store(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, v, s.ttl); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func clampDays(days, def int) int {
	if days <= 0 {
		return def
	}
	if days > MaxDays {
		return MaxDays
	}
	return days
}
