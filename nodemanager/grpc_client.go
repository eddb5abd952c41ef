package nodemanager

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/jrife/distbench/sequencerpb"
	"github.com/jrife/distbench/wireformat"
)

// Service and method names for the node manager's RPC surface. These are
// not backed by generated protobuf stubs (see the wireformat package);
// they only need to be stable strings both ends agree on.
const (
	serviceName          = "/distbench.NodeManager/"
	methodConfigureNode  = serviceName + "ConfigureNode"
	methodIntroducePeers = serviceName + "IntroducePeers"
	methodRunTraffic     = serviceName + "RunTraffic"
	methodCancelTraffic  = serviceName + "CancelTraffic"
)

var _ Client = (*grpcClient)(nil)

// grpcClient is the production Client: a thin wrapper over a
// *grpc.ClientConn that invokes the four node manager methods with the
// JSON codec registered in wireformat/codec.go.
type grpcClient struct {
	conn *grpc.ClientConn
}

// Dial opens a channel to a node manager listening at target (e.g.
// "dns:///host:port") using creds for transport security.
func Dial(target string, creds credentials.TransportCredentials) (Client, error) {
	conn, err := grpc.Dial(
		target,
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(wireformat.CodecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("could not dial %s: %w", target, err)
	}

	return &grpcClient{conn: conn}, nil
}

func (c *grpcClient) ConfigureNode(ctx context.Context, request sequencerpb.NodeServiceConfig) (sequencerpb.ServiceEndpointMap, error) {
	var reply sequencerpb.ServiceEndpointMap

	if err := c.conn.Invoke(ctx, methodConfigureNode, &request, &reply); err != nil {
		return sequencerpb.ServiceEndpointMap{}, err
	}

	return reply, nil
}

func (c *grpcClient) IntroducePeers(ctx context.Context, endpoints sequencerpb.ServiceEndpointMap) (sequencerpb.Ack, error) {
	var reply sequencerpb.Ack

	if err := c.conn.Invoke(ctx, methodIntroducePeers, &endpoints, &reply); err != nil {
		return sequencerpb.Ack{}, err
	}

	return reply, nil
}

func (c *grpcClient) RunTraffic(ctx context.Context) (sequencerpb.ServiceLogs, error) {
	var reply sequencerpb.ServiceLogs

	if err := c.conn.Invoke(ctx, methodRunTraffic, &sequencerpb.Ack{}, &reply); err != nil {
		return sequencerpb.ServiceLogs{}, err
	}

	return reply, nil
}

func (c *grpcClient) CancelTraffic(ctx context.Context) (sequencerpb.Ack, error) {
	var reply sequencerpb.Ack

	if err := c.conn.Invoke(ctx, methodCancelTraffic, &sequencerpb.Ack{}, &reply); err != nil {
		return sequencerpb.Ack{}, err
	}

	return reply, nil
}

func (c *grpcClient) Close() error {
	return c.conn.Close()
}
