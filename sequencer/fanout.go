package sequencer

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"

	"github.com/jrife/distbench/sequencerpb"
)

// errUnknownGRPC is what every phase collapses any per-node failure to;
// the underlying status is logged but not propagated to the caller.
var errUnknownGRPC = newError(codes.InvalidArgument, "Unknown GRPC error")

// FanoutDriver issues one RPC per participating node in parallel for each
// phase of a test and aggregates the results.
type FanoutDriver struct {
	registry *Registry
	logger   *zap.Logger
}

// NewFanoutDriver returns a driver that dispatches phases against the
// nodes in registry.
func NewFanoutDriver(registry *Registry, logger *zap.Logger) *FanoutDriver {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FanoutDriver{registry: registry, logger: logger}
}

type fanoutResult struct {
	alias string
	reply interface{}
	err   error
}

// dispatch snapshots the nodes named by aliases under one registry read
// lock, then launches one goroutine per node to run invoke, and waits for
// every one of them to finish before returning. No reply is ever
// abandoned: every issued RPC is awaited.
func (d *FanoutDriver) dispatch(ctx context.Context, aliases []string, invoke func(ctx context.Context, node *Node) (interface{}, error)) []fanoutResult {
	nodes := d.registry.LookupMany(aliases)
	results := make(chan fanoutResult, len(nodes))

	for _, node := range nodes {
		node := node

		go func() {
			reply, err := invoke(ctx, node)
			results <- fanoutResult{alias: node.Alias, reply: reply, err: err}
		}()
	}

	out := make([]fanoutResult, 0, len(nodes))
	for range nodes {
		out = append(out, <-results)
	}

	return out
}

func placementAliases(placement Placement) []string {
	aliases := make([]string, 0, len(placement))
	for alias := range placement {
		aliases = append(aliases, alias)
	}

	return aliases
}

// Configure issues ConfigureNode to every node in placement and returns
// the set-union merge of every reply.
func (d *FanoutDriver) Configure(ctx context.Context, placement Placement, test sequencerpb.DistributedSystemDescription) (sequencerpb.ServiceEndpointMap, error) {
	results := d.dispatch(ctx, placementAliases(placement), func(ctx context.Context, node *Node) (interface{}, error) {
		request := sequencerpb.NodeServiceConfig{TrafficConfig: test, Services: placement[node.Alias]}

		return node.Client.ConfigureNode(ctx, request)
	})

	merged := sequencerpb.ServiceEndpointMap{}
	var failed error

	for _, result := range results {
		if result.err != nil {
			d.logger.Error("configure failed", zap.String("node_alias", result.alias), zap.Error(result.err))
			failed = result.err

			continue
		}

		endpoints := result.reply.(sequencerpb.ServiceEndpointMap)
		if err := merged.Merge(endpoints); err != nil {
			d.logger.Error("configure reply conflict", zap.String("node_alias", result.alias), zap.Error(err))
			failed = err
		}
	}

	if failed != nil {
		return sequencerpb.ServiceEndpointMap{}, errUnknownGRPC
	}

	return merged, nil
}

// IntroducePeers hands endpoints to every node in placement. It carries no
// aggregation: success requires every node to acknowledge.
func (d *FanoutDriver) IntroducePeers(ctx context.Context, placement Placement, endpoints sequencerpb.ServiceEndpointMap) error {
	results := d.dispatch(ctx, placementAliases(placement), func(ctx context.Context, node *Node) (interface{}, error) {
		return node.Client.IntroducePeers(ctx, endpoints)
	})

	var failed error

	for _, result := range results {
		if result.err != nil {
			d.logger.Error("introduce peers failed", zap.String("node_alias", result.alias), zap.Error(result.err))
			failed = result.err
		}
	}

	if failed != nil {
		return errUnknownGRPC
	}

	return nil
}

// RunTraffic starts traffic on every node in placement and returns the
// set-union merge of the logs each node reports. Each targeted node is
// marked busy before its RPC is dispatched and idle again once its reply
// arrives, regardless of success or failure.
func (d *FanoutDriver) RunTraffic(ctx context.Context, placement Placement) (sequencerpb.ServiceLogs, error) {
	aliases := placementAliases(placement)

	for _, node := range d.registry.LookupMany(aliases) {
		node.setIdle(false)
	}

	results := d.dispatch(ctx, aliases, func(ctx context.Context, node *Node) (interface{}, error) {
		defer node.setIdle(true)

		return node.Client.RunTraffic(ctx)
	})

	merged := sequencerpb.ServiceLogs{}
	var failed error

	for _, result := range results {
		if result.err != nil {
			d.logger.Error("run traffic failed", zap.String("node_alias", result.alias), zap.Error(result.err))
			failed = result.err

			continue
		}

		logs := result.reply.(sequencerpb.ServiceLogs)
		if err := merged.Merge(logs); err != nil {
			d.logger.Error("run traffic reply conflict", zap.String("node_alias", result.alias), zap.Error(err))
			failed = err
		}
	}

	if failed != nil {
		return sequencerpb.ServiceLogs{}, errUnknownGRPC
	}

	return merged, nil
}

// CancelTraffic issues CancelTraffic to every currently busy node in the
// registry, regardless of which test they last participated in. Nodes
// already idle are skipped. Errors are logged, not returned: the caller
// treats cancellation as best-effort.
func (d *FanoutDriver) CancelTraffic(ctx context.Context) {
	busy := make([]string, 0)

	for _, alias := range d.registry.Snapshot() {
		if node, ok := d.registry.Lookup(alias); ok && !node.Idle() {
			busy = append(busy, alias)
		}
	}

	results := d.dispatch(ctx, busy, func(ctx context.Context, node *Node) (interface{}, error) {
		ack, err := node.Client.CancelTraffic(ctx)
		node.setIdle(true)

		return ack, err
	})

	for _, result := range results {
		if result.err != nil {
			d.logger.Error("cancel traffic failed", zap.String("node_alias", result.alias), zap.Error(result.err))
		}
	}
}
