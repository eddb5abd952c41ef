package grpc

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/jrife/distbench/transport/frontends"
	_ "github.com/jrife/distbench/wireformat" // registers the json codec
)

var _ frontends.Frontend = (*Frontend)(nil)

// Frontend is the gRPC frontends.Frontend. Credentials must be set before
// Init is called; leave it nil to run without transport security.
type Frontend struct {
	Credentials credentials.TransportCredentials

	server *grpc.Server
}

// Init constructs the underlying *grpc.Server and registers options.Service
// against it. It does not start accepting connections; call Listen for that.
func (f *Frontend) Init(options frontends.Options) error {
	if options.Service == nil {
		return fmt.Errorf("options.Service must not be nil")
	}

	var opts []grpc.ServerOption
	if f.Credentials != nil {
		opts = append(opts, grpc.Creds(f.Credentials))
	}

	f.server = grpc.NewServer(opts...)
	f.server.RegisterService(&ServiceDesc, options.Service)

	return nil
}

// Listen blocks accepting connections on listener until Stop is called.
func (f *Frontend) Listen(listener net.Listener) error {
	if f.server == nil {
		return fmt.Errorf("frontend not initialized")
	}

	return f.server.Serve(listener)
}

// Stop gracefully drains in-flight calls and causes Listen to return.
func (f *Frontend) Stop() error {
	if f.server == nil {
		return nil
	}

	f.server.GracefulStop()

	return nil
}
