package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultCheckTimeout bounds a single component check.
const DefaultCheckTimeout = 2 * time.Second

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component failed.
	Degraded Status = "degraded"
	// Unhealthy indicates a required component failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type component struct {
	name     string
	checker  Checker
	required bool
}

// Service coordinates health checks.
type Service struct {
	components []component
	timeout    time.Duration
}

// New creates a Service with DefaultCheckTimeout.
func New() *Service {
	return &Service{timeout: DefaultCheckTimeout}
}

// WithTimeout sets the per-component check timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Require adds a component whose failure makes the service unhealthy.
func (s *Service) Require(name string, c Checker) *Service {
	s.components = append(s.components, component{name: name, checker: c, required: true})
	return s
}

// Optional adds a component whose failure only degrades the service.
// A nil checker is ignored.
func (s *Service) Optional(name string, c Checker) *Service {
	if c != nil {
		s.components = append(s.components, component{name: name, checker: c})
	}
	return s
}

// Check runs all component checks concurrently, each bounded by the
// service timeout.
func (s *Service) Check(ctx context.Context) Report {
	failed := make([]bool, len(s.components))

	var g errgroup.Group
	for i, c := range s.components {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			failed[i] = c.checker.HealthCheck(cctx) != nil
			return nil
		})
	}
	_ = g.Wait()

	checks := make(map[string]CheckResult, len(s.components))
	status := Healthy
	for i, c := range s.components {
		if !failed[i] {
			checks[c.name] = CheckOK
			continue
		}
		checks[c.name] = CheckError
		if c.required {
			status = Unhealthy
		} else if status == Healthy {
			status = Degraded
		}
	}
	return Report{Status: status, Checks: checks}
}
