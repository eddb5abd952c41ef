// Package grpc adapts transport.SequencerService to google.golang.org/grpc.
// ServiceDesc is assembled by hand instead of by protoc-gen-go-grpc since
// there is no fixed protobuf schema to generate it from; it plays exactly
// the role generated code otherwise would.
package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/jrife/distbench/sequencerpb"
	"github.com/jrife/distbench/transport"
)

const serviceName = "distbench.TestSequencer"

// ServiceDesc describes the test sequencer's RPC surface to a
// *grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*transport.SequencerService)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "RegisterNode",
			Handler:    registerNodeHandler,
		},
		{
			MethodName: "RunTestSequence",
			Handler:    runTestSequenceHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "distbench/test_sequencer",
}

func registerNodeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	request := new(sequencerpb.NodeRegistration)
	if err := dec(request); err != nil {
		return nil, err
	}

	service := srv.(transport.SequencerService)
	if interceptor == nil {
		return service.RegisterNode(ctx, *request)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/RegisterNode"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return service.RegisterNode(ctx, *req.(*sequencerpb.NodeRegistration))
	}

	return interceptor(ctx, request, info, handler)
}

func runTestSequenceHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	request := new(sequencerpb.TestSequence)
	if err := dec(request); err != nil {
		return nil, err
	}

	service := srv.(transport.SequencerService)
	if interceptor == nil {
		return service.RunTestSequence(ctx, *request)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/RunTestSequence"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return service.RunTestSequence(ctx, *req.(*sequencerpb.TestSequence))
	}

	return interceptor(ctx, request, info, handler)
}
