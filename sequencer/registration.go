package sequencer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpccredentials "google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"

	"github.com/jrife/distbench/credentials"
	"github.com/jrife/distbench/nodemanager"
	"github.com/jrife/distbench/sequencerpb"
	"github.com/jrife/distbench/utils/log"
)

// dialFunc opens a client to a node manager. It is a variable on
// RegistrationHandler rather than a hardcoded call to nodemanager.Dial so
// tests can substitute a fake without a network.
type dialFunc func(target string, creds grpccredentials.TransportCredentials) (nodemanager.Client, error)

// RegistrationHandler accepts RegisterNode calls, validates them, and
// turns a successful one into a Registry entry.
type RegistrationHandler struct {
	registry           *Registry
	channelCredentials credentials.ChannelCredentialsFactory
	dial               dialFunc
	logger             *zap.Logger
}

// NewRegistrationHandler returns a handler that inserts into registry and
// dials node managers using channelCredentials.
func NewRegistrationHandler(registry *Registry, channelCredentials credentials.ChannelCredentialsFactory, logger *zap.Logger) *RegistrationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RegistrationHandler{
		registry:           registry,
		channelCredentials: channelCredentials,
		dial:               nodemanager.Dial,
		logger:             logger,
	}
}

// RegisterNode validates registration, opens a channel to the node
// manager's control port, and records it in the registry. Repeated
// registrations from the same (hostname, port) return the same node id
// and alias, with the newest stub replacing any prior one.
func (h *RegistrationHandler) RegisterNode(ctx context.Context, registration sequencerpb.NodeRegistration) (sequencerpb.NodeConfig, error) {
	if registration.Hostname == "" || registration.ControlPort <= 0 {
		return sequencerpb.NodeConfig{}, status.Error(codes.InvalidArgument, "Invalid Registration")
	}

	target := fmt.Sprintf("dns:///%s:%d", registration.Hostname, registration.ControlPort)

	client, err := h.dial(target, h.channelCredentials())
	if err != nil {
		return sequencerpb.NodeConfig{}, status.Errorf(codes.Unknown, "Could not create node stub: %s", err)
	}

	alias, ordinal := h.registry.Insert(registration, client)

	resolvedLogger, ctx := log.LoggerFromContext(ctx, h.logger)
	logger := log.WithContext(ctx, resolvedLogger)
	logger.Debug("registered node",
		zap.String("node_alias", alias),
		zap.String("target", target),
	)

	return sequencerpb.NodeConfig{NodeID: int32(ordinal), NodeAlias: alias}, nil
}
