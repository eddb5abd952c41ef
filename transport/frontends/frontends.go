// Package frontends describes the interface every protocol adapter for
// the test sequencer's RPC surface must implement. Only a gRPC frontend
// exists today; the point of the abstraction is that adding another
// (e.g. REST) later shouldn't require touching the sequencer package.
package frontends

import (
	"net"

	"github.com/jrife/distbench/transport"
)

// Options are passed to a frontend during initialization.
type Options struct {
	// Service is the orchestration engine the frontend dispatches calls
	// to.
	Service transport.SequencerService
}

// Frontend adapts the sequencer's RPC surface to a specific protocol.
type Frontend interface {
	// Init prepares the frontend to serve options.Service. It must be
	// called before Listen.
	Init(options Options) error
	// Listen accepts connections from listener until Stop is called, at
	// which point it returns nil. It returns a non-nil error if the
	// listener itself fails.
	Listen(listener net.Listener) error
	// Stop causes any active call to Listen to return and refuses further
	// connections. An implementation may close the listener while doing
	// so; the gRPC frontend does.
	Stop() error
}
