package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
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

// Service coordinates health checks.
type Service struct {
	outcome Pinger
	loader  LockInspector
}

// New creates a Service. Either argument can be nil when the component is disabled.
func New(outcome Pinger, loader LockInspector) *Service {
	return &Service{outcome: outcome, loader: loader}
}

// Check runs health checks against all configured components.
// A stale batch lock means loads are stuck and marks the service degraded.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.outcome != nil {
		if err := s.outcome.Ping(ctx); err != nil {
			checks["outcome_store"] = CheckError
		} else {
			checks["outcome_store"] = CheckOK
		}
	}

	if s.loader != nil {
		if s.loader.LockStale() {
			checks["loader_lock"] = CheckError
		} else {
			checks["loader_lock"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
