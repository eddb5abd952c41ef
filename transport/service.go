package transport

import (
	"context"

	"github.com/jrife/distbench/sequencerpb"
)

// SequencerService is the RPC surface a test sequencer exposes to nodes
// and operators. Frontends (currently just gRPC) adapt inbound calls to
// these two methods.
type SequencerService interface {
	RegisterNode(ctx context.Context, registration sequencerpb.NodeRegistration) (sequencerpb.NodeConfig, error)
	RunTestSequence(ctx context.Context, sequence sequencerpb.TestSequence) (sequencerpb.TestSequenceResults, error)
}
