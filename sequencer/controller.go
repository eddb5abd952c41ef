package sequencer

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jrife/distbench/sequencerpb"
	"github.com/jrife/distbench/utils/log"
)

// activeSequence tracks the currently-running RunTestSequence call. At
// most one exists at a time; cancel forces its DoRunTestSequence loop to
// abort at the next inter-test check-point, and done is closed exactly
// once, when that call returns.
type activeSequence struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Controller serializes RunTestSequence calls, pre-empting any in-flight
// sequence with a newcomer, and drives each test's phases in order.
type Controller struct {
	mu       sync.Mutex
	active   *activeSequence
	registry *Registry
	fanout   *FanoutDriver
	logger   *zap.Logger
}

// NewController returns a controller driving tests via fanout against the
// nodes in registry.
func NewController(registry *Registry, fanout *FanoutDriver, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Controller{registry: registry, fanout: fanout, logger: logger}
}

// RunTestSequence runs every test in sequence, in order, pre-empting
// whatever sequence (if any) is currently active.
func (c *Controller) RunTestSequence(ctx context.Context, sequence sequencerpb.TestSequence) (sequencerpb.TestSequenceResults, error) {
	sequenceID := uuid.New().String()

	resolvedLogger, ctx := log.LoggerFromContext(ctx, c.logger)
	logger := log.WithContext(ctx, resolvedLogger).With(zap.String("sequence_id", sequenceID))

	// Step 1: broadcast cancellation unconditionally, so any residual
	// data-plane activity from a previous sequence stops before we even
	// look at whether one is still installed.
	c.fanout.CancelTraffic(ctx)

	// Step 2: pre-empt any predecessor and wait for it to actually exit
	// before installing ourselves.
	c.mu.Lock()
	for c.active != nil {
		c.active.cancel()
		done := c.active.done
		c.mu.Unlock()
		<-done
		c.mu.Lock()
	}

	// Step 3: install self as the active sequence.
	runCtx, cancel := context.WithCancel(ctx)
	self := &activeSequence{cancel: cancel, done: make(chan struct{})}
	c.active = self
	c.mu.Unlock()

	defer cancel()

	results, err := c.doRunTestSequence(runCtx, logger, sequence)

	// Step 5: fire the done-signal, then clear ourselves. A newcomer
	// waiting on done only installs itself once the slot is empty, so the
	// slot still holds self here; the check guards against clobbering any
	// other entry.
	close(self.done)

	c.mu.Lock()
	if c.active == self {
		c.active = nil
	}
	c.mu.Unlock()

	return results, err
}

func (c *Controller) doRunTestSequence(ctx context.Context, logger *zap.Logger, sequence sequencerpb.TestSequence) (sequencerpb.TestSequenceResults, error) {
	var results sequencerpb.TestSequenceResults

	for i, test := range sequence.Tests {
		c.mu.Lock()
		cancelled := ctx.Err() != nil
		c.mu.Unlock()

		if cancelled {
			return results, status.Error(codes.Aborted, "Cancelled by new test sequence.")
		}

		testLogger := logger.With(zap.Int("test_index", i))

		result, err := c.doRunTest(ctx, testLogger, test)
		if err != nil {
			return results, status.Errorf(codes.Aborted, "%s", err.Error())
		}

		results.TestResults = append(results.TestResults, result)
	}

	return results, nil
}

func (c *Controller) doRunTest(ctx context.Context, logger *zap.Logger, test sequencerpb.DistributedSystemDescription) (sequencerpb.TestResult, error) {
	placement, err := Plan(c.registry, test)
	if err != nil {
		return sequencerpb.TestResult{}, err
	}

	logPlacement(logger, placement)

	endpoints, err := c.fanout.Configure(ctx, placement, test)
	if err != nil {
		return sequencerpb.TestResult{}, err
	}

	if err := c.fanout.IntroducePeers(ctx, placement, endpoints); err != nil {
		return sequencerpb.TestResult{}, err
	}

	logs, err := c.fanout.RunTraffic(ctx, placement)
	if err != nil {
		return sequencerpb.TestResult{}, err
	}

	return sequencerpb.TestResult{
		TrafficConfig: test,
		Placement:     endpoints,
		ServiceLogs:   logs,
	}, nil
}

func logPlacement(logger *zap.Logger, placement Placement) {
	for alias, services := range placement {
		logger.Info("service placement", zap.String("node_alias", alias), zap.Strings("services", services))
	}
}
