package sequencer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/grpc/codes"

	"github.com/jrife/distbench/nodemanager/fakeclient"
	"github.com/jrife/distbench/sequencerpb"
)

func registerNodes(t *testing.T, n int) *Registry {
	t.Helper()

	registry := NewRegistry()
	for i := 0; i < n; i++ {
		registry.Insert(sequencerpb.NodeRegistration{Hostname: "host", ControlPort: int32(i + 1)}, &fakeclient.Client{})
	}

	return registry
}

func TestPlanRejectsEmptyTest(t *testing.T) {
	registry := registerNodes(t, 1)

	_, err := Plan(registry, sequencerpb.DistributedSystemDescription{})
	if err == nil {
		t.Fatal("expected an error for a test with no services")
	}

	if code := err.(*codedError).Code(); code != codes.InvalidArgument {
		t.Errorf("Code() = %v, want InvalidArgument", code)
	}
}

func TestPlanAutomaticPlacement(t *testing.T) {
	registry := registerNodes(t, 2)

	test := sequencerpb.DistributedSystemDescription{
		Services: []sequencerpb.ServiceDescription{
			{ServerType: "client", Count: 1},
			{ServerType: "server", Count: 1},
		},
	}

	placement, err := Plan(registry, test)
	if err != nil {
		t.Fatalf("Plan() returned error: %v", err)
	}

	total := 0
	for _, services := range placement {
		total += len(services)
	}

	if total != 2 {
		t.Fatalf("placed %d services, want 2", total)
	}

	if len(placement) != 2 {
		t.Fatalf("placement covers %d nodes, want 2 (every idle node participates)", len(placement))
	}
}

func TestPlanHonorsBundlesBeforeAutomaticPlacement(t *testing.T) {
	registry := registerNodes(t, 2)

	test := sequencerpb.DistributedSystemDescription{
		Services: []sequencerpb.ServiceDescription{
			{ServerType: "client", Count: 1},
			{ServerType: "server", Count: 1},
		},
		NodeServiceBundles: map[string]sequencerpb.NodeServiceBundle{
			"node0": {Services: []string{"server/0"}},
		},
	}

	placement, err := Plan(registry, test)
	if err != nil {
		t.Fatalf("Plan() returned error: %v", err)
	}

	if diff := cmp.Diff([]string{"server/0"}, placement["node0"]); diff != "" {
		t.Errorf("node0 placement mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"client/0"}, placement["node1"]); diff != "" {
		t.Errorf("node1 placement mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanBundleOfUnknownServiceFails(t *testing.T) {
	registry := registerNodes(t, 1)

	test := sequencerpb.DistributedSystemDescription{
		Services: []sequencerpb.ServiceDescription{
			{ServerType: "client", Count: 1},
		},
		NodeServiceBundles: map[string]sequencerpb.NodeServiceBundle{
			"node0": {Services: []string{"server/0"}},
		},
	}

	_, err := Plan(registry, test)
	if err == nil {
		t.Fatal("expected an error for a bundle referencing an unknown service")
	}

	if code := err.(*codedError).Code(); code != codes.NotFound {
		t.Errorf("Code() = %v, want NotFound", code)
	}
}

func TestPlanBundleOfUnknownNodeFails(t *testing.T) {
	registry := registerNodes(t, 1)

	test := sequencerpb.DistributedSystemDescription{
		Services: []sequencerpb.ServiceDescription{
			{ServerType: "client", Count: 1},
		},
		NodeServiceBundles: map[string]sequencerpb.NodeServiceBundle{
			"node9": {Services: []string{"client/0"}},
		},
	}

	_, err := Plan(registry, test)
	if err == nil {
		t.Fatal("expected an error for a bundle referencing an unregistered node")
	}

	if code := err.(*codedError).Code(); code != codes.NotFound {
		t.Errorf("Code() = %v, want NotFound", code)
	}
}

func TestPlanOversubscriptionFails(t *testing.T) {
	registry := registerNodes(t, 1)

	test := sequencerpb.DistributedSystemDescription{
		Services: []sequencerpb.ServiceDescription{
			{ServerType: "client", Count: 2},
		},
	}

	_, err := Plan(registry, test)
	if err == nil {
		t.Fatal("expected an error when there are more service instances than idle nodes")
	}

	if code := err.(*codedError).Code(); code != codes.NotFound {
		t.Errorf("Code() = %v, want NotFound", code)
	}
}

func TestPlanLeavesUnusedIdleNodesWithEmptyPlacement(t *testing.T) {
	registry := registerNodes(t, 3)

	test := sequencerpb.DistributedSystemDescription{
		Services: []sequencerpb.ServiceDescription{
			{ServerType: "client", Count: 1},
		},
	}

	placement, err := Plan(registry, test)
	if err != nil {
		t.Fatalf("Plan() returned error: %v", err)
	}

	if len(placement) != 3 {
		t.Fatalf("placement covers %d nodes, want 3", len(placement))
	}

	emptyCount := 0
	for _, services := range placement {
		if len(services) == 0 {
			emptyCount++
		}
	}

	if emptyCount != 2 {
		t.Errorf("expected 2 nodes with empty placement, got %d", emptyCount)
	}
}
