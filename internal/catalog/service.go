package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// recentDetectionLimit caps the detections returned with a threat detail.
const recentDetectionLimit = 10

// catalogRepo is the storage interface consumed by Service.
type catalogRepo interface {
	List(ctx context.Context, f Filter) ([]Entry, error)
	GetByID(ctx context.Context, id int64) (*Entry, error)
	RecentDetections(ctx context.Context, id int64, limit int) ([]Detection, error)
}

// Service exposes read access to the threat catalog.
type Service struct {
	repo   catalogRepo
	logger *zap.Logger
}

// NewService creates a new catalog Service.
func NewService(repo catalogRepo, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns catalog entries matching f.
func (s *Service) List(ctx context.Context, f Filter) ([]Entry, error) {
	return s.repo.List(ctx, f)
}

// Detail returns the entry with its most recent detections.
func (s *Service) Detail(ctx context.Context, id int64) (*Detail, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.RecentDetections(ctx, id, recentDetectionLimit)
	if err != nil {
		return nil, fmt.Errorf("load detections: %w", err)
	}

	d := &Detail{Entry: *e, RecentDetections: recent}
	if len(recent) > 0 {
		last := recent[0].Timestamp
		d.LastDetected = &last
	}
	return d, nil
}
