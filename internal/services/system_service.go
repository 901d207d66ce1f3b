package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
	"github.com/Zllawi/bassmaStore/internal/repositories"
)

// SystemServiceDeps bundles collaborators required to construct a system service.
type SystemServiceDeps struct {
	Health  repositories.HealthRepository
	Logger  *zap.Logger
	Clock   func() time.Time
	Started time.Time
}

type systemService struct {
	health  repositories.HealthRepository
	logger  *zap.Logger
	clock   func() time.Time
	started time.Time
}

// NewSystemService constructs the health and uptime reporting service.
func NewSystemService(deps SystemServiceDeps) (SystemService, error) {
	if deps.Health == nil {
		return nil, errors.New("system service: health repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	started := deps.Started
	if started.IsZero() {
		started = clock()
	}
	return &systemService{health: deps.Health, logger: logger, clock: clock, started: started}, nil
}

// Health collects the dependency checks and logs degraded reports.
func (s *systemService) Health(ctx context.Context) (domain.HealthReport, error) {
	report, err := s.health.Collect(ctx)
	if err != nil {
		return domain.HealthReport{}, err
	}
	if report.Status != domain.HealthStatusOK {
		s.logger.Warn("health check degraded", zap.String("status", string(report.Status)))
	}
	return report, nil
}

// Uptime reports how long the process has been serving.
func (s *systemService) Uptime() time.Duration {
	return s.clock().Sub(s.started)
}
