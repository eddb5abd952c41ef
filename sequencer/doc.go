// Package sequencer implements the orchestration engine of the test
// sequencer: the node registry, the registration handler, the placement
// planner, the RPC fan-out driver, and the test-sequence controller that
// ties them together. It knows nothing about the traffic a test actually
// generates; it only decides which node runs which service and drives the
// four-phase protocol that gets every node there.
package sequencer
