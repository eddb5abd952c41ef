package sequencer

import (
	"sort"
	"strings"

	"github.com/emirpasic/gods/sets/treeset"
	"google.golang.org/grpc/codes"

	"github.com/jrife/distbench/sequencerpb"
)

// Placement maps a node alias to the set of service instance names that
// node must host for one test. Nodes with no assigned services still
// appear, with an empty (non-nil) slice, so they participate in
// Configure/IntroducePeers and learn the service map.
type Placement map[string][]string

// Plan assigns every service instance a test needs to an idle node,
// honoring explicit node/service bundles first and filling the rest
// automatically, against the current registry snapshot.
func Plan(registry *Registry, test sequencerpb.DistributedSystemDescription) (Placement, error) {
	if test.IsEmpty() {
		return nil, newError(codes.InvalidArgument, "No services defined.")
	}

	unplaced := treeset.NewWithStringComparator()
	for _, service := range test.Services {
		for i := 0; i < int(service.Count); i++ {
			unplaced.Add(sequencerpb.ServiceInstanceName(service.ServerType, i))
		}
	}

	idle := treeset.NewWithStringComparator()
	for _, alias := range registry.Snapshot() {
		idle.Add(alias)
	}

	placement := Placement{}

	bundleAliases := make([]string, 0, len(test.NodeServiceBundles))
	for alias := range test.NodeServiceBundles {
		bundleAliases = append(bundleAliases, alias)
	}
	sort.Strings(bundleAliases)

	for _, alias := range bundleAliases {
		bundle := test.NodeServiceBundles[alias]

		if _, ok := placement[alias]; !ok {
			placement[alias] = []string{}
		}

		for _, service := range bundle.Services {
			if !unplaced.Contains(service) {
				return nil, newError(codes.NotFound, "Service %s was not found or already placed.", service)
			}

			unplaced.Remove(service)
			placement[alias] = append(placement[alias], service)
		}

		if !idle.Contains(alias) {
			return nil, newError(codes.NotFound, "Node %s was not found or not idle.", alias)
		}

		idle.Remove(alias)
	}

	for !unplaced.Empty() && !idle.Empty() {
		service := firstString(unplaced)
		alias := firstString(idle)

		unplaced.Remove(service)
		idle.Remove(alias)

		placement[alias] = append(placement[alias], service)
	}

	if !unplaced.Empty() {
		remaining := stringValues(unplaced)

		return nil, newError(codes.NotFound, "No idle node for placement of services: %s", strings.Join(remaining, ", "))
	}

	for _, alias := range stringValues(idle) {
		if _, ok := placement[alias]; !ok {
			placement[alias] = []string{}
		}
	}

	for alias := range placement {
		sort.Strings(placement[alias])
	}

	return placement, nil
}

func firstString(set *treeset.Set) string {
	return set.Values()[0].(string)
}

func stringValues(set *treeset.Set) []string {
	values := set.Values()
	out := make([]string, len(values))

	for i, v := range values {
		out[i] = v.(string)
	}

	return out
}
