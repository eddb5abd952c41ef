// Package fakeclient provides a scriptable nodemanager.Client double for
// driving the fan-out driver and controller in tests without a network.
package fakeclient

import (
	"context"
	"sync"

	"github.com/jrife/distbench/nodemanager"
	"github.com/jrife/distbench/sequencerpb"
)

var _ nodemanager.Client = (*Client)(nil)

// Client is a fake nodemanager.Client. Each method delegates to the
// corresponding func field if set, otherwise it returns a zero reply. Set
// a func field to a closure that blocks on ctx.Done() to simulate a node
// that hangs mid-phase (scenario S6).
type Client struct {
	ConfigureNodeFunc  func(ctx context.Context, request sequencerpb.NodeServiceConfig) (sequencerpb.ServiceEndpointMap, error)
	IntroducePeersFunc func(ctx context.Context, endpoints sequencerpb.ServiceEndpointMap) (sequencerpb.Ack, error)
	RunTrafficFunc     func(ctx context.Context) (sequencerpb.ServiceLogs, error)
	CancelTrafficFunc  func(ctx context.Context) (sequencerpb.Ack, error)

	mu     sync.Mutex
	Calls  []string
	closed bool
}

func (c *Client) record(method string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Calls = append(c.Calls, method)
}

// ConfigureNode implements nodemanager.Client.
func (c *Client) ConfigureNode(ctx context.Context, request sequencerpb.NodeServiceConfig) (sequencerpb.ServiceEndpointMap, error) {
	c.record("ConfigureNode")

	if c.ConfigureNodeFunc != nil {
		return c.ConfigureNodeFunc(ctx, request)
	}

	return sequencerpb.ServiceEndpointMap{}, nil
}

// IntroducePeers implements nodemanager.Client.
func (c *Client) IntroducePeers(ctx context.Context, endpoints sequencerpb.ServiceEndpointMap) (sequencerpb.Ack, error) {
	c.record("IntroducePeers")

	if c.IntroducePeersFunc != nil {
		return c.IntroducePeersFunc(ctx, endpoints)
	}

	return sequencerpb.Ack{}, nil
}

// RunTraffic implements nodemanager.Client.
func (c *Client) RunTraffic(ctx context.Context) (sequencerpb.ServiceLogs, error) {
	c.record("RunTraffic")

	if c.RunTrafficFunc != nil {
		return c.RunTrafficFunc(ctx)
	}

	return sequencerpb.ServiceLogs{}, nil
}

// CancelTraffic implements nodemanager.Client.
func (c *Client) CancelTraffic(ctx context.Context) (sequencerpb.Ack, error) {
	c.record("CancelTraffic")

	if c.CancelTrafficFunc != nil {
		return c.CancelTrafficFunc(ctx)
	}

	return sequencerpb.Ack{}, nil
}

// Close implements nodemanager.Client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	return nil
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}
