package sequencer

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jrife/distbench/nodemanager"
	"github.com/jrife/distbench/sequencerpb"
)

// Node is a registered node manager: its original registration, the alias
// it was assigned, the client used to reach it, and whether it currently
// has traffic in flight.
type Node struct {
	Registration sequencerpb.NodeRegistration
	Alias        string
	Ordinal      int
	Client       nodemanager.Client

	// idle is read and written without the registry's lock: it is
	// mutated by the fan-out driver, including from the CancelTraffic
	// path, which only ever holds a shared read lock on the registry.
	// Keeping it atomic means that path never needs to upgrade to an
	// exclusive lock.
	idle int32
}

// Idle reports whether this node currently has no RunTraffic in flight.
func (n *Node) Idle() bool {
	return atomic.LoadInt32(&n.idle) != 0
}

func (n *Node) setIdle(idle bool) {
	var v int32
	if idle {
		v = 1
	}

	atomic.StoreInt32(&n.idle, v)
}

// Registry is the set of registered nodes, keyed by the alias each was
// assigned at registration time. It also keeps a fingerprint index so
// that repeat registrations from the same node manager are idempotent.
type Registry struct {
	mu            sync.RWMutex
	byAlias       map[string]*Node
	byFingerprint map[string]int
	order         []string // aliases in ordinal assignment order
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byAlias:       make(map[string]*Node),
		byFingerprint: make(map[string]int),
	}
}

// Insert records a registration and its client. If this registration's
// fingerprint has been seen before, the existing alias is returned and the
// stored client is replaced with the newest one; otherwise a new node is
// allocated with the next ordinal, starting idle.
func (r *Registry) Insert(registration sequencerpb.NodeRegistration, client nodemanager.Client) (alias string, ordinal int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fingerprint := registration.Fingerprint()

	if existingOrdinal, ok := r.byFingerprint[fingerprint]; ok {
		alias = r.order[existingOrdinal]
		node := r.byAlias[alias]
		node.Registration = registration
		node.Client = client

		return alias, existingOrdinal
	}

	ordinal = len(r.order)
	alias = fmt.Sprintf("node%d", ordinal)
	node := &Node{
		Registration: registration,
		Alias:        alias,
		Ordinal:      ordinal,
		Client:       client,
	}
	node.setIdle(true)

	r.byAlias[alias] = node
	r.byFingerprint[fingerprint] = ordinal
	r.order = append(r.order, alias)

	return alias, ordinal
}

// Snapshot returns the current alias set in assignment order. The
// returned slice is a copy and safe to mutate.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	aliases := make([]string, len(r.order))
	copy(aliases, r.order)

	return aliases
}

// Lookup returns the node registered under alias, if any.
func (r *Registry) Lookup(alias string) (*Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	node, ok := r.byAlias[alias]

	return node, ok
}

// LookupMany resolves several aliases under a single read lock, the
// "snapshot the stubs I need" step the fan-out driver performs before
// releasing the registry lock and awaiting RPCs. Aliases that are not
// registered are silently omitted.
func (r *Registry) LookupMany(aliases []string) []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]*Node, 0, len(aliases))
	for _, alias := range aliases {
		if node, ok := r.byAlias[alias]; ok {
			nodes = append(nodes, node)
		}
	}

	return nodes
}

// SetIdle sets the idle flag for alias. It is a no-op if alias is not
// registered.
func (r *Registry) SetIdle(alias string, idle bool) {
	node, ok := r.Lookup(alias)
	if !ok {
		return
	}

	node.setIdle(idle)
}

// Size returns the number of distinct nodes registered.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// Close releases every registered node's client channel. It is meant to
// run once, as part of server shutdown; registration is not expected to
// continue afterward. Errors are collected rather than aborting the
// sweep, so one unreachable node doesn't leak the rest.
func (r *Registry) Close() []error {
	r.mu.RLock()
	nodes := make([]*Node, 0, len(r.order))
	for _, alias := range r.order {
		nodes = append(nodes, r.byAlias[alias])
	}
	r.mu.RUnlock()

	var errs []error
	for _, node := range nodes {
		if err := node.Client.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}
