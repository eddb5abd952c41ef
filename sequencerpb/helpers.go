package sequencerpb

import "fmt"

// Fingerprint returns the canonical form of a registration used to
// deduplicate repeat registrations from the same node manager. It mirrors
// what a debug-string serialization of the request would give: a
// deterministic rendering of every field.
func (registration NodeRegistration) Fingerprint() string {
	return fmt.Sprintf("hostname:%q control_port:%d", registration.Hostname, registration.ControlPort)
}

// ServiceInstanceName returns the "<server_type>/<index>" name for the
// index'th instance of a service.
func ServiceInstanceName(serverType string, index int) string {
	return fmt.Sprintf("%s/%d", serverType, index)
}

// IsEmpty returns true if this description defines no services.
func (services DistributedSystemDescription) IsEmpty() bool {
	return len(services.Services) == 0
}

// Merge unions the endpoints of other into m, returning an error if the
// two maps disagree about the endpoint for the same service instance.
// A fresh receiver merges as a copy; nil-valued maps are treated as empty.
func (m *ServiceEndpointMap) Merge(other ServiceEndpointMap) error {
	if m.Endpoints == nil {
		m.Endpoints = make(map[string]string, len(other.Endpoints))
	}

	for service, endpoint := range other.Endpoints {
		if existing, ok := m.Endpoints[service]; ok && existing != endpoint {
			return fmt.Errorf("conflicting endpoints for service %s: %q vs %q", service, existing, endpoint)
		}

		m.Endpoints[service] = endpoint
	}

	return nil
}

// Merge unions the log payloads of other into l, returning an error if the
// two maps disagree about the logs for the same service instance.
func (l *ServiceLogs) Merge(other ServiceLogs) error {
	if l.Logs == nil {
		l.Logs = make(map[string][]byte, len(other.Logs))
	}

	for service, logs := range other.Logs {
		if existing, ok := l.Logs[service]; ok && string(existing) != string(logs) {
			return fmt.Errorf("conflicting logs for service %s", service)
		}

		l.Logs[service] = logs
	}

	return nil
}
