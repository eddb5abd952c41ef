package sequencer

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jrife/distbench/nodemanager/fakeclient"
	"github.com/jrife/distbench/sequencerpb"
)

func newTestController(t *testing.T, n int) (*Controller, *Registry, map[string]*fakeclient.Client) {
	t.Helper()

	registry := NewRegistry()
	clients := map[string]*fakeclient.Client{}

	for i := 0; i < n; i++ {
		client := &fakeclient.Client{}
		alias, _ := registry.Insert(sequencerpb.NodeRegistration{Hostname: "host", ControlPort: int32(i + 1)}, client)
		clients[alias] = client
	}

	fanout := NewFanoutDriver(registry, zap.NewNop())

	return NewController(registry, fanout, zap.NewNop()), registry, clients
}

func oneServiceTest(serverType string) sequencerpb.DistributedSystemDescription {
	return sequencerpb.DistributedSystemDescription{
		Services: []sequencerpb.ServiceDescription{{ServerType: serverType, Count: 1}},
	}
}

func TestRunTestSequenceHappyPath(t *testing.T) {
	controller, _, clients := newTestController(t, 1)

	clients["node0"].ConfigureNodeFunc = func(ctx context.Context, request sequencerpb.NodeServiceConfig) (sequencerpb.ServiceEndpointMap, error) {
		return sequencerpb.ServiceEndpointMap{Endpoints: map[string]string{"client/0": "10.0.0.1:1"}}, nil
	}

	sequence := sequencerpb.TestSequence{Tests: []sequencerpb.DistributedSystemDescription{oneServiceTest("client")}}

	results, err := controller.RunTestSequence(context.Background(), sequence)
	if err != nil {
		t.Fatalf("RunTestSequence() returned error: %v", err)
	}

	if len(results.TestResults) != 1 {
		t.Fatalf("got %d results, want 1", len(results.TestResults))
	}

	if !containsCall(clients["node0"].Calls, "ConfigureNode") ||
		!containsCall(clients["node0"].Calls, "IntroducePeers") ||
		!containsCall(clients["node0"].Calls, "RunTraffic") {
		t.Errorf("node0 did not receive all three phases: %v", clients["node0"].Calls)
	}
}

func TestRunTestSequenceAbortsOnPlacementFailure(t *testing.T) {
	controller, _, _ := newTestController(t, 1)

	sequence := sequencerpb.TestSequence{
		Tests: []sequencerpb.DistributedSystemDescription{
			oneServiceTest("client"),
			{Services: []sequencerpb.ServiceDescription{{ServerType: "client", Count: 2}}},
		},
	}

	results, err := controller.RunTestSequence(context.Background(), sequence)
	if err == nil {
		t.Fatal("expected an error when the second test oversubscribes the pool")
	}

	if status.Code(err) != codes.Aborted {
		t.Errorf("Code() = %v, want Aborted", status.Code(err))
	}

	if len(results.TestResults) != 1 {
		t.Errorf("got %d completed results before the abort, want 1", len(results.TestResults))
	}
}

func TestRunTestSequenceCallsCancelTrafficUnconditionally(t *testing.T) {
	controller, registry, clients := newTestController(t, 1)

	// Leave node0 busy, as residual traffic would, with no prior sequence
	// installed: the cancel fan-out only targets busy nodes.
	registry.SetIdle("node0", false)

	sequence := sequencerpb.TestSequence{Tests: []sequencerpb.DistributedSystemDescription{oneServiceTest("client")}}

	if _, err := controller.RunTestSequence(context.Background(), sequence); err != nil {
		t.Fatalf("RunTestSequence() returned error: %v", err)
	}

	if !containsCall(clients["node0"].Calls, "CancelTraffic") {
		t.Errorf("RunTestSequence must issue CancelTraffic before running, even with no prior sequence")
	}
}

func TestRunTestSequencePreemptsInFlightSequence(t *testing.T) {
	controller, _, clients := newTestController(t, 1)

	hanging := make(chan struct{})
	unblock := make(chan struct{})

	clients["node0"].ConfigureNodeFunc = func(ctx context.Context, request sequencerpb.NodeServiceConfig) (sequencerpb.ServiceEndpointMap, error) {
		close(hanging)

		select {
		case <-ctx.Done():
			return sequencerpb.ServiceEndpointMap{}, ctx.Err()
		case <-unblock:
			return sequencerpb.ServiceEndpointMap{}, nil
		}
	}

	firstDone := make(chan error, 1)
	go func() {
		sequence := sequencerpb.TestSequence{Tests: []sequencerpb.DistributedSystemDescription{oneServiceTest("client")}}
		_, err := controller.RunTestSequence(context.Background(), sequence)
		firstDone <- err
	}()

	<-hanging

	clients["node0"].ConfigureNodeFunc = func(ctx context.Context, request sequencerpb.NodeServiceConfig) (sequencerpb.ServiceEndpointMap, error) {
		return sequencerpb.ServiceEndpointMap{Endpoints: map[string]string{"client/0": "10.0.0.1:1"}}, nil
	}

	sequence := sequencerpb.TestSequence{Tests: []sequencerpb.DistributedSystemDescription{oneServiceTest("client")}}

	results, err := controller.RunTestSequence(context.Background(), sequence)
	if err != nil {
		t.Fatalf("second RunTestSequence() returned error: %v", err)
	}

	if len(results.TestResults) != 1 {
		t.Fatalf("got %d results from the pre-empting sequence, want 1", len(results.TestResults))
	}

	select {
	case firstErr := <-firstDone:
		if firstErr == nil {
			t.Errorf("pre-empted sequence should have returned an error")
		}
	case <-time.After(time.Second):
		t.Fatal("pre-empted sequence never returned")
	}
}
