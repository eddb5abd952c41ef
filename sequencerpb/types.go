// Package sequencerpb holds the message types exchanged between clients,
// the test sequencer, and node managers. The wire schema for these
// messages is treated as opaque outside this package: fields are named
// and typed the way a real benchmark description would be, but nothing
// downstream inspects payloads beyond the fields it needs to route or
// aggregate.
package sequencerpb

// NodeRegistration is submitted by a node manager when it comes online.
type NodeRegistration struct {
	Hostname    string
	ControlPort int32
}

// NodeConfig is returned to a node manager in response to registration.
type NodeConfig struct {
	NodeID    int32
	NodeAlias string
}

// ServiceDescription names a server role and how many instances of it
// a test requires.
type ServiceDescription struct {
	ServerType string
	Count      int32
}

// NodeServiceBundle pins a list of service instances to a specific node,
// overriding automatic placement for those instances.
type NodeServiceBundle struct {
	Services []string
}

// DistributedSystemDescription is one test: the services it needs and any
// manual node/service pinning.
type DistributedSystemDescription struct {
	Services           []ServiceDescription
	NodeServiceBundles map[string]NodeServiceBundle
}

// TestSequence is an ordered list of tests submitted together.
type TestSequence struct {
	Tests []DistributedSystemDescription
}

// NodeServiceConfig is the per-node Configure request: the test being run
// and the service instances this node must host.
type NodeServiceConfig struct {
	TrafficConfig DistributedSystemDescription
	Services      []string
}

// ServiceEndpointMap aggregates endpoint announcements keyed by service
// instance name. Values are opaque to the sequencer; it only merges them.
type ServiceEndpointMap struct {
	Endpoints map[string]string
}

// ServiceLogs aggregates per-service log payloads keyed by service
// instance name. Values are opaque to the sequencer.
type ServiceLogs struct {
	Logs map[string][]byte
}

// TestResult is the outcome of running one test.
type TestResult struct {
	TrafficConfig DistributedSystemDescription
	Placement     ServiceEndpointMap
	ServiceLogs   ServiceLogs
}

// TestSequenceResults is the outcome of running an entire sequence, in
// submission order, up to the point of any abort.
type TestSequenceResults struct {
	TestResults []TestResult
}

// Ack is returned by phases that carry no payload (IntroducePeers,
// CancelTraffic).
type Ack struct{}
