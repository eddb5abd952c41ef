package sequencer

import (
	"context"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/jrife/distbench/credentials"
	"github.com/jrife/distbench/sequencerpb"
	"github.com/jrife/distbench/transport/frontends"
	grpcfrontend "github.com/jrife/distbench/transport/frontends/grpc"
)

// Opts configures a Server.
type Opts struct {
	// Port is the TCP port the server listens on. 0 lets the kernel
	// choose one, which Addr() then reports.
	Port int
	// ServerCredentials produces the transport credentials the listener
	// binds with. Defaults to insecure credentials if nil.
	ServerCredentials credentials.ServerCredentialsFactory
	// ChannelCredentials produces the transport credentials used to dial
	// a registering node's control channel. Defaults to insecure
	// credentials if nil.
	ChannelCredentials credentials.ChannelCredentialsFactory
}

// Server wires the registry, registration handler, fan-out driver, and
// controller together and exposes them over gRPC. It owns the listener
// and the frontend's lifecycle: once Initialize returns, Shutdown must
// eventually run for the goroutine it started to exit, and Wait blocks
// until it has (Close does both).
type Server struct {
	registry            *Registry
	registrationHandler *RegistrationHandler
	controller          *Controller
	fanout              *FanoutDriver
	logger              *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	frontend frontends.Frontend
	done     chan struct{}
	serveErr error
}

// NewServer builds a Server with an empty registry. logger may be nil.
func NewServer(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := NewRegistry()
	fanout := NewFanoutDriver(registry, logger)

	return &Server{
		registry:   registry,
		fanout:     fanout,
		controller: NewController(registry, fanout, logger),
		logger:     logger,
	}
}

// RegisterNode implements transport.SequencerService.
func (s *Server) RegisterNode(ctx context.Context, registration sequencerpb.NodeRegistration) (sequencerpb.NodeConfig, error) {
	return s.registrationHandler.RegisterNode(ctx, registration)
}

// RunTestSequence implements transport.SequencerService.
func (s *Server) RunTestSequence(ctx context.Context, sequence sequencerpb.TestSequence) (sequencerpb.TestSequenceResults, error) {
	return s.controller.RunTestSequence(ctx, sequence)
}

// Initialize binds the listening socket, starts the gRPC frontend, and
// returns once the socket is bound (it does not wait for the server to
// stop; use Wait for that). It must be called at most once.
func (s *Server) Initialize(opts Opts) error {
	serverCredentialsFactory := opts.ServerCredentials
	channelCredentialsFactory := opts.ChannelCredentials
	if serverCredentialsFactory == nil || channelCredentialsFactory == nil {
		insecureServer, insecureChannel := credentials.Insecure()
		if serverCredentialsFactory == nil {
			serverCredentialsFactory = insecureServer
		}
		if channelCredentialsFactory == nil {
			channelCredentialsFactory = insecureChannel
		}
	}

	s.registrationHandler = NewRegistrationHandler(s.registry, channelCredentialsFactory, s.logger)

	listener, err := net.Listen("tcp", fmt.Sprintf("[::]:%d", opts.Port))
	if err != nil {
		return fmt.Errorf("could not listen on port %d: %w", opts.Port, err)
	}

	frontend := &grpcfrontend.Frontend{Credentials: serverCredentialsFactory()}
	if err := frontend.Init(frontends.Options{Service: s}); err != nil {
		listener.Close()
		return fmt.Errorf("could not initialize gRPC frontend: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.frontend = frontend
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)

		err := frontend.Listen(listener)

		s.mu.Lock()
		s.serveErr = err
		s.mu.Unlock()
	}()

	s.logger.Info("test sequencer listening", zap.String("address", listener.Addr().String()))

	return nil
}

// Addr returns the address Initialize bound to.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}

// Shutdown stops the frontend from accepting new calls and lets in-flight
// ones drain, causing the goroutine started by Initialize to exit. It
// does not block until that goroutine has actually exited; call Wait for
// that. It also closes every registered node's client channel, since
// nothing else in the process will use them again.
func (s *Server) Shutdown() {
	s.mu.Lock()
	frontend := s.frontend
	s.mu.Unlock()

	if frontend != nil {
		frontend.Stop()
	}

	for _, err := range s.registry.Close() {
		s.logger.Error("error closing node client", zap.Error(err))
	}
}

// Wait blocks until the goroutine started by Initialize has exited,
// returning whatever error Listen produced (nil after a clean Shutdown).
func (s *Server) Wait() error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return nil
	}

	<-done

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.serveErr
}

// Close is the resource-scoped owner pattern for a Server: it requests
// shutdown and waits for it to complete in one call, suitable for a
// defer right after a successful Initialize.
func (s *Server) Close() error {
	s.Shutdown()

	return s.Wait()
}
