package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
)

const defaultDependencyTimeout = 1500 * time.Millisecond

// DependencyCheck describes a dependency probe executed during readiness checks.
type DependencyCheck struct {
	Name    string
	Timeout time.Duration
	Check   func(context.Context) error
}

// DependencyHealthOption customises the dependency-backed health repository.
type DependencyHealthOption func(*dependencyHealthRepository)

// WithDependencyTimeout overrides the default timeout applied when a check omits its own.
func WithDependencyTimeout(timeout time.Duration) DependencyHealthOption {
	return func(repo *dependencyHealthRepository) {
		if timeout > 0 {
			repo.defaultTimeout = timeout
		}
	}
}

// WithDependencyClock injects a custom clock primarily for tests.
func WithDependencyClock(clock func() time.Time) DependencyHealthOption {
	return func(repo *dependencyHealthRepository) {
		if clock != nil {
			repo.now = clock
		}
	}
}

type dependencyHealthRepository struct {
	checks         []DependencyCheck
	defaultTimeout time.Duration
	now            func() time.Time
}

var _ HealthRepository = (*dependencyHealthRepository)(nil)

// NewDependencyHealthRepository constructs a HealthRepository evaluating the provided checks.
func NewDependencyHealthRepository(checks []DependencyCheck, opts ...DependencyHealthOption) (HealthRepository, error) {
	if len(checks) == 0 {
		return nil, errors.New("health repository: at least one dependency check is required")
	}
	for _, check := range checks {
		if strings.TrimSpace(check.Name) == "" {
			return nil, errors.New("health repository: dependency check missing name")
		}
		if check.Check == nil {
			return nil, errors.New("health repository: dependency " + check.Name + " missing check function")
		}
	}

	repo := &dependencyHealthRepository{
		checks:         append([]DependencyCheck(nil), checks...),
		defaultTimeout: defaultDependencyTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo, nil
}

func (r *dependencyHealthRepository) Collect(ctx context.Context) (domain.HealthReport, error) {
	if ctx == nil {
		return domain.HealthReport{}, errors.New("health repository: context is required")
	}

	results := make(map[string]domain.HealthCheck, len(r.checks))
	reportStatus := domain.HealthStatusOK

	for _, check := range r.checks {
		timeout := check.Timeout
		if timeout <= 0 {
			timeout = r.defaultTimeout
		}
		checkCtx, cancel := context.WithTimeout(ctx, timeout)

		start := r.now()
		err := check.Check(checkCtx)
		end := r.now()
		cancel()

		status := domain.HealthStatusOK
		detail := "ok"
		switch {
		case err == nil:
		case errors.Is(err, context.DeadlineExceeded):
			status = domain.HealthStatusError
			detail = "timeout"
		case errors.Is(err, context.Canceled):
			status = domain.HealthStatusError
			detail = "cancelled"
		default:
			status = domain.HealthStatusDegraded
			detail = err.Error()
		}

		results[check.Name] = domain.HealthCheck{
			Status:    status,
			Detail:    detail,
			Latency:   end.Sub(start),
			CheckedAt: end,
		}

		if status == domain.HealthStatusError {
			reportStatus = domain.HealthStatusError
		} else if status == domain.HealthStatusDegraded && reportStatus == domain.HealthStatusOK {
			reportStatus = domain.HealthStatusDegraded
		}
	}

	return domain.HealthReport{
		Status:      reportStatus,
		Checks:      results,
		GeneratedAt: r.now(),
	}, nil
}
