// Package nodemanager describes and implements the client side of the RPC
// surface every node manager exposes to the test sequencer. The wire
// format is intentionally generic (see sequencerpb): this package only
// cares about routing four calls and returning their replies.
package nodemanager

import (
	"context"

	"github.com/jrife/distbench/sequencerpb"
)

// Client is the control surface the sequencer drives during a fan-out.
// One Client is bound to a single node manager for the lifetime of that
// node's registry entry.
type Client interface {
	// ConfigureNode tells the node which services to host for a test and
	// returns the endpoints those services will listen on.
	ConfigureNode(ctx context.Context, request sequencerpb.NodeServiceConfig) (sequencerpb.ServiceEndpointMap, error)
	// IntroducePeers hands the node the merged endpoint map for a test.
	IntroducePeers(ctx context.Context, endpoints sequencerpb.ServiceEndpointMap) (sequencerpb.Ack, error)
	// RunTraffic starts the configured traffic pattern and blocks until
	// it completes, returning the logs it produced.
	RunTraffic(ctx context.Context) (sequencerpb.ServiceLogs, error)
	// CancelTraffic aborts any in-flight traffic on this node.
	CancelTraffic(ctx context.Context) (sequencerpb.Ack, error)
	// Close releases the underlying channel.
	Close() error
}
