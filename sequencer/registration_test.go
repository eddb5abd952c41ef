package sequencer

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpccredentials "google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"

	"github.com/jrife/distbench/credentials"
	"github.com/jrife/distbench/nodemanager"
	"github.com/jrife/distbench/nodemanager/fakeclient"
	"github.com/jrife/distbench/sequencerpb"
)

func newTestRegistrationHandler(t *testing.T, dial dialFunc) (*RegistrationHandler, *Registry) {
	t.Helper()

	registry := NewRegistry()
	_, channelCredentials := credentials.Insecure()

	handler := NewRegistrationHandler(registry, channelCredentials, zap.NewNop())
	handler.dial = dial

	return handler, registry
}

func TestRegisterNodeRejectsInvalidRegistration(t *testing.T) {
	handler, _ := newTestRegistrationHandler(t, func(target string, creds grpccredentials.TransportCredentials) (nodemanager.Client, error) {
		t.Fatal("dial should not be called for an invalid registration")
		return nil, nil
	})

	_, err := handler.RegisterNode(context.Background(), sequencerpb.NodeRegistration{Hostname: "", ControlPort: 0})
	if err == nil {
		t.Fatal("expected an error for an empty registration")
	}

	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("Code() = %v, want InvalidArgument", status.Code(err))
	}
}

func TestRegisterNodeAssignsAliasAndDials(t *testing.T) {
	dialed := ""

	handler, registry := newTestRegistrationHandler(t, func(target string, creds grpccredentials.TransportCredentials) (nodemanager.Client, error) {
		dialed = target

		return &fakeclient.Client{}, nil
	})

	config, err := handler.RegisterNode(context.Background(), sequencerpb.NodeRegistration{Hostname: "node-a", ControlPort: 9090})
	if err != nil {
		t.Fatalf("RegisterNode() returned error: %v", err)
	}

	if config.NodeAlias != "node0" || config.NodeID != 0 {
		t.Fatalf("got %+v, want NodeAlias=node0 NodeID=0", config)
	}

	if dialed != "dns:///node-a:9090" {
		t.Errorf("dialed %q, want dns:///node-a:9090", dialed)
	}

	if registry.Size() != 1 {
		t.Errorf("registry has %d nodes, want 1", registry.Size())
	}
}

func TestRegisterNodePropagatesDialFailure(t *testing.T) {
	handler, registry := newTestRegistrationHandler(t, func(target string, creds grpccredentials.TransportCredentials) (nodemanager.Client, error) {
		return nil, context.DeadlineExceeded
	})

	_, err := handler.RegisterNode(context.Background(), sequencerpb.NodeRegistration{Hostname: "node-a", ControlPort: 9090})
	if err == nil {
		t.Fatal("expected an error when dialing the node manager fails")
	}

	if registry.Size() != 0 {
		t.Errorf("a failed dial must not register a node, got %d", registry.Size())
	}
}

func TestRegisterNodeSameEndpointIsIdempotent(t *testing.T) {
	calls := 0
	handler, registry := newTestRegistrationHandler(t, func(target string, creds grpccredentials.TransportCredentials) (nodemanager.Client, error) {
		calls++

		return &fakeclient.Client{}, nil
	})

	registration := sequencerpb.NodeRegistration{Hostname: "node-a", ControlPort: 9090}

	first, err := handler.RegisterNode(context.Background(), registration)
	if err != nil {
		t.Fatalf("first RegisterNode() returned error: %v", err)
	}

	second, err := handler.RegisterNode(context.Background(), registration)
	if err != nil {
		t.Fatalf("second RegisterNode() returned error: %v", err)
	}

	if first != second {
		t.Errorf("repeat registration returned %+v, want %+v", second, first)
	}

	if calls != 2 {
		t.Errorf("dial was called %d times, want 2 (a fresh stub each time)", calls)
	}

	if registry.Size() != 1 {
		t.Errorf("registry has %d nodes, want 1", registry.Size())
	}
}
