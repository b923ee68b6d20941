package observability

// HealthStatus represents the health state of a component or service.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health describes the observed state of a single dependency, typically a
// diarization or transcription backend.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ProviderHealth reports a backend as up, or degraded with a reason when its
// sidecar or API cannot be reached. An unreachable backend degrades the
// service instead of failing it, since comparison runs keep working against
// the remaining backends.
func ProviderHealth(name string, available bool, reason string) Health {
	if available {
		return Health{Name: name, Status: HealthStatusUp}
	}
	return Health{Name: name, Status: HealthStatusDegraded, Message: reason}
}

// ServiceHealth aggregates component health into an overall service status.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// NewServiceHealth creates a ServiceHealth that starts out up.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{
		Service: service,
		Status:  HealthStatusUp,
		Version: version,
	}
}

// Add records component results. Down wins over degraded, degraded over up,
// and a later up result never masks an earlier problem.
func (sh *ServiceHealth) Add(components ...Health) {
	for _, ch := range components {
		sh.Components = append(sh.Components, ch)

		switch ch.Status {
		case HealthStatusDown:
			sh.Status = HealthStatusDown
		case HealthStatusDegraded:
			if sh.Status != HealthStatusDown {
				sh.Status = HealthStatusDegraded
			}
		}
	}
}

// Ready reports whether the service can accept traffic. Degraded still
// counts as ready.
func (sh *ServiceHealth) Ready() bool {
	return sh.Status != HealthStatusDown
}
