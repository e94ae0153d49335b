package topology_test

import (
	"testing"

	"github.com/rbmacd/frey/pkg/topology"
	"github.com/stretchr/testify/require"
)

func link(idx int, a, b string) topology.Link {
	return topology.Link{
		Index: idx,
		A:     topology.Endpoint{Device: a, Iface: "eth1"},
		B:     topology.Endpoint{Device: b, Iface: "eth1"},
	}
}

func devicesFor(names ...string) map[string]*topology.Device {
	devices := map[string]*topology.Device{}
	for _, name := range names {
		devices[name] = &topology.Device{
			Name:    name,
			Role:    topology.RoleOf(name),
			Ordinal: topology.Ordinal(name),
		}
	}

	return devices
}

func TestFabricDepth(t *testing.T) {
	for _, test := range []struct {
		name     string
		links    []topology.Link
		devices  map[string]*topology.Device
		expected int
	}{
		{
			name: "two-by-two",
			links: []topology.Link{
				link(0, "spine01", "leaf01"),
				link(1, "spine01", "leaf02"),
				link(2, "spine02", "leaf01"),
				link(3, "spine02", "leaf02"),
			},
			devices:  devicesFor("spine01", "spine02", "leaf01", "leaf02"),
			expected: 1,
		},
		{
			name: "no-spines",
			links: []topology.Link{
				link(0, "leaf01", "host01"),
			},
			devices:  devicesFor("leaf01", "host01"),
			expected: topology.DefaultFabricDepth,
		},
		{
			name:     "no-leaves",
			links:    []topology.Link{link(0, "spine01", "spine02")},
			devices:  devicesFor("spine01", "spine02"),
			expected: topology.DefaultFabricDepth,
		},
		{
			name:     "empty",
			devices:  devicesFor(),
			expected: topology.DefaultFabricDepth,
		},
		{
			name: "two-hops-through-border",
			links: []topology.Link{
				link(0, "spine01", "border01"),
				link(1, "border01", "leaf01"),
			},
			devices:  devicesFor("spine01", "border01", "leaf01"),
			expected: 2,
		},
		{
			name: "max-over-spines",
			links: []topology.Link{
				link(0, "spine01", "leaf01"),
				link(1, "spine02", "border01"),
				link(2, "border01", "leaf01"),
			},
			devices:  devicesFor("spine01", "spine02", "border01", "leaf01"),
			expected: 2,
		},
		{
			name: "parallel-links-collapse",
			links: []topology.Link{
				link(0, "spine01", "leaf01"),
				link(1, "spine01", "leaf01"),
			},
			devices:  devicesFor("spine01", "leaf01"),
			expected: 1,
		},
		{
			name: "cycle-terminates",
			links: []topology.Link{
				link(0, "spine01", "border01"),
				link(1, "border01", "border02"),
				link(2, "border02", "spine01"),
				link(3, "border02", "leaf01"),
			},
			devices:  devicesFor("spine01", "border01", "border02", "leaf01"),
			expected: 2,
		},
		{
			name: "unreachable-leaf-falls-back",
			links: []topology.Link{
				link(0, "spine01", "border01"),
				link(1, "leaf01", "host01"),
			},
			devices:  devicesFor("spine01", "border01", "leaf01", "host01"),
			expected: topology.DefaultFabricDepth,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			graph := topology.NewGraph(test.links)
			require.Equal(t, test.expected, graph.FabricDepth(test.devices))
		})
	}
}
