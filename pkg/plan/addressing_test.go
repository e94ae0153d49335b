package plan_test

import (
	"testing"

	"github.com/rbmacd/frey/pkg/plan"
	"github.com/rbmacd/frey/pkg/topology"
	"github.com/stretchr/testify/require"
)

func TestRouterID(t *testing.T) {
	numbering := plan.DefaultNumbering()

	for _, test := range []struct {
		name     string
		role     topology.Role
		ordinal  int
		expected string
	}{
		{"spine-1", topology.RoleSpine, 1, "10.255.255.1"},
		{"spine-2", topology.RoleSpine, 2, "10.255.255.2"},
		{"leaf-1", topology.RoleLeaf, 1, "10.255.255.101"},
		{"leaf-10", topology.RoleLeaf, 10, "10.255.255.110"},
		{"border-1", topology.RoleBorder, 1, "10.255.255.101"},
		{"unknown-0", topology.RoleUnknown, 0, "10.255.255.100"},
	} {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, numbering.RouterID(test.role, test.ordinal))
		})
	}
}

func TestVTEPDisjointFromRouterID(t *testing.T) {
	numbering := plan.DefaultNumbering()

	// same offset formula, disjoint bases
	require.Equal(t, "10.255.255.101", numbering.RouterID(topology.RoleLeaf, 1))
	require.Equal(t, "10.255.254.101", numbering.VTEPIP(1))
	require.Equal(t, "10.255.254.102", numbering.VTEPIP(2))
}

func TestASN(t *testing.T) {
	numbering := plan.DefaultNumbering()

	// all spines share one logical AS
	require.Equal(t, uint32(65100), numbering.ASN(topology.RoleSpine, 1))
	require.Equal(t, uint32(65100), numbering.ASN(topology.RoleSpine, 7))

	// every leaf gets its own
	require.Equal(t, uint32(65101), numbering.ASN(topology.RoleLeaf, 1))
	require.Equal(t, uint32(65102), numbering.ASN(topology.RoleLeaf, 2))

	require.Equal(t, uint32(0), numbering.ASN(topology.RoleUnknown, 1))
}

func TestP2PAddr(t *testing.T) {
	numbering := plan.DefaultNumbering()

	for _, test := range []struct {
		name      string
		linkIndex int
		role      topology.Role
		expected  string
	}{
		{"link0-spine", 0, topology.RoleSpine, "10.0.0.0/31"},
		{"link0-leaf", 0, topology.RoleLeaf, "10.0.0.1/31"},
		{"link5-spine", 5, topology.RoleSpine, "10.0.5.0/31"},
		{"link5-leaf", 5, topology.RoleLeaf, "10.0.5.1/31"},
		{"link200-spine", 200, topology.RoleSpine, "10.0.200.0/31"},
	} {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, numbering.P2PAddr(test.linkIndex, test.role))
		})
	}
}

func TestP2PComplementary(t *testing.T) {
	numbering := plan.DefaultNumbering()

	// spine and leaf sides of the same link always form one /31
	for idx := 0; idx < 64; idx++ {
		leaf := numbering.P2PAddr(idx, topology.RoleLeaf)
		spine := numbering.P2PAddr(idx, topology.RoleSpine)

		require.NotEqual(t, spine, leaf)
		require.Regexp(t, `^10\.0\.\d+\.0/31$`, spine)
		require.Regexp(t, `^10\.0\.\d+\.1/31$`, leaf)
	}
}

func TestP2PAddrCapacity(t *testing.T) {
	numbering := plan.DefaultNumbering()

	// the default /16 supernet holds 256 /24-carved link subnets
	require.Equal(t, "10.0.255.0/31", numbering.P2PAddr(255, topology.RoleSpine))
	require.Equal(t, "", numbering.P2PAddr(256, topology.RoleSpine))
	require.Equal(t, "", numbering.P2PAddr(256, topology.RoleLeaf))
}

func TestVNI(t *testing.T) {
	numbering := plan.DefaultNumbering()

	require.Equal(t, uint32(10010), numbering.VNI(10))
	require.Equal(t, uint32(10000), numbering.VNI(0))
	require.Equal(t, uint32(14094), numbering.VNI(4094))
}

func TestAlternativeNumbering(t *testing.T) {
	numbering := plan.DefaultNumbering()
	numbering.RouterIDSubnet = "172.16.0.0/24"
	numbering.SpineASN = 64512
	numbering.LeafASNBase = 64601

	require.NoError(t, numbering.Validate())
	require.Equal(t, "172.16.0.1", numbering.RouterID(topology.RoleSpine, 1))
	require.Equal(t, uint32(64512), numbering.ASN(topology.RoleSpine, 3))
	require.Equal(t, uint32(64603), numbering.ASN(topology.RoleLeaf, 3))
}

func TestNumberingValidate(t *testing.T) {
	numbering := plan.DefaultNumbering()
	require.NoError(t, numbering.Validate())

	numbering.P2PSupernet = "nope"
	require.Error(t, numbering.Validate())
}
