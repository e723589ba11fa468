package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/repositories"
)

// DefaultRetentionDays is the default retention period for report runs.
const DefaultRetentionDays = 90

// RetentionService handles cleanup of old report runs.
type RetentionService interface {
	// Prune removes the runs started more than retentionDays ago, together
	// with their stored sheet rows. Returns the number of runs deleted.
	Prune(ctx context.Context, retentionDays int) (int64, error)
}

type retentionService struct {
	runs   repositories.ReportRunRepository
	now    func() time.Time
	logger *zap.Logger
}

func NewRetentionService(runs repositories.ReportRunRepository, logger *zap.Logger) RetentionService {
	return &retentionService{
		runs:   runs,
		now:    time.Now,
		logger: logger.Named("retention-service"),
	}
}

var _ RetentionService = (*retentionService)(nil)

func (s *retentionService) Prune(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}

	cutoff := s.now().UTC().AddDate(0, 0, -retentionDays)
	deleted, err := s.runs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to prune report runs",
			zap.Time("cutoff", cutoff),
			zap.Error(err))
		return 0, fmt.Errorf("failed to prune report runs: %w", err)
	}

	s.logger.Info("Retention cleanup completed",
		zap.Int("retention_days", retentionDays),
		zap.Time("cutoff", cutoff),
		zap.Int64("runs_deleted", deleted))

	return deleted, nil
}
