package seed_test

import (
	"context"
	"net"
	"testing"

	"github.com/rbmacd/frey/pkg/inventory"
	"github.com/rbmacd/frey/pkg/plan"
	"github.com/rbmacd/frey/pkg/seed"
	"github.com/rbmacd/frey/pkg/topology"
	"github.com/stretchr/testify/require"
)

func testTopology() *topology.Topology {
	devices := map[string]*topology.Device{}
	for name, mgmt := range map[string]string{
		"spine01": "172.20.20.11",
		"spine02": "172.20.20.12",
		"leaf01":  "172.20.20.21",
		"leaf02":  "172.20.20.22",
		"host01":  "172.20.20.31",
	} {
		kind := "ceos"
		if topology.RoleOf(name) == topology.RoleUnknown {
			kind = "linux"
		}

		devices[name] = &topology.Device{
			Name:     name,
			Kind:     kind,
			MgmtIPv4: mgmt,
			Role:     topology.RoleOf(name),
			Ordinal:  topology.Ordinal(name),
		}
	}

	ep := func(device, iface string) topology.Endpoint {
		return topology.Endpoint{Device: device, Iface: iface}
	}

	_, mgmtSubnet, _ := net.ParseCIDR("172.20.20.0/24")

	return &topology.Topology{
		Name:          "evpn-lab",
		MgmtSubnet:    mgmtSubnet,
		MgmtPrefixLen: 24,
		Devices:       devices,
		Links: []topology.Link{
			{Index: 0, A: ep("spine01", "eth1"), B: ep("leaf01", "eth1")},
			{Index: 1, A: ep("spine01", "eth2"), B: ep("leaf02", "eth1")},
			{Index: 2, A: ep("spine02", "eth1"), B: ep("leaf01", "eth2")},
			{Index: 3, A: ep("spine02", "eth2"), B: ep("leaf02", "eth2")},
			{Index: 4, A: ep("leaf01", "eth10"), B: ep("host01", "eth1"), Labels: &topology.LinkLabels{Mode: "access", VLAN: 10}},
		},
	}
}

func TestSeederRun(t *testing.T) {
	inv := inventory.NewMemory()
	seeder := &seed.Seeder{Inv: inv, Numbering: plan.DefaultNumbering()}

	summary, err := seeder.Run(context.Background(), testTopology())
	require.NoError(t, err)

	require.Equal(t, 5, summary.DevicesTotal)
	require.Equal(t, 5, summary.DevicesOK)
	require.Equal(t, 5, summary.LinksTotal)
	require.Equal(t, 5, summary.LinksOK)
	require.Equal(t, 4, summary.ContextsTotal)
	require.Equal(t, 4, summary.ContextsOK)

	require.Len(t, inv.Sites, 1)
	require.Equal(t, "evpn-lab", inv.Sites[0].Name)
	require.Len(t, inv.Devices, 5)
	require.Len(t, inv.Cables, 5)
	require.Len(t, inv.VLANs, 1)
	require.Equal(t, uint16(10), inv.VLANs[0].VID)
	require.Equal(t, "VLAN10", inv.VLANs[0].Name)

	// 5 mgmt addresses plus a /31 on each end of 4 fabric links
	require.Len(t, inv.IPs, 13)
}

func TestSeederIdempotent(t *testing.T) {
	inv := inventory.NewMemory()
	seeder := &seed.Seeder{Inv: inv, Numbering: plan.DefaultNumbering()}

	first, err := seeder.Run(context.Background(), testTopology())
	require.NoError(t, err)

	second, err := seeder.Run(context.Background(), testTopology())
	require.NoError(t, err)
	require.Equal(t, first, second)

	require.Len(t, inv.Devices, 5)
	require.Len(t, inv.Interfaces, 5+8+2) // mgmt0 per device, 4 fabric links, 1 host link
	require.Len(t, inv.IPs, 13)
	require.Len(t, inv.Cables, 5)
	require.Len(t, inv.VLANs, 1)
}

func TestSeederMgmtIP(t *testing.T) {
	inv := inventory.NewMemory()
	seeder := &seed.Seeder{Inv: inv, Numbering: plan.DefaultNumbering()}

	_, err := seeder.Run(context.Background(), testTopology())
	require.NoError(t, err)

	mgmt := inv.InterfaceFor("leaf01", "mgmt0")
	require.NotNil(t, mgmt)

	var ip *inventory.IPAddress
	for _, obj := range inv.IPs {
		if obj.InterfaceID == mgmt.ID {
			ip = obj
		}
	}
	require.NotNil(t, ip)
	require.Equal(t, "172.20.20.21/24", ip.Address)

	var dev *inventory.Device
	for _, obj := range inv.Devices {
		if obj.Name == "leaf01" {
			dev = obj
		}
	}
	require.NotNil(t, dev)
	require.Equal(t, ip.ID, dev.PrimaryIP4ID)
}

func TestSeederFabricAddressing(t *testing.T) {
	inv := inventory.NewMemory()
	seeder := &seed.Seeder{Inv: inv, Numbering: plan.DefaultNumbering()}

	_, err := seeder.Run(context.Background(), testTopology())
	require.NoError(t, err)

	spineIface := inv.InterfaceFor("spine01", "eth1")
	require.NotNil(t, spineIface)
	require.Equal(t, "to_leaf01", spineIface.Description)

	leafIface := inv.InterfaceFor("leaf01", "eth1")
	require.NotNil(t, leafIface)
	require.Equal(t, "to_spine01", leafIface.Description)

	addrs := map[int]string{}
	for _, obj := range inv.IPs {
		addrs[obj.InterfaceID] = obj.Address
	}
	require.Equal(t, "10.0.0.0/31", addrs[spineIface.ID])
	require.Equal(t, "10.0.0.1/31", addrs[leafIface.ID])
}

func TestSeederAccessVLAN(t *testing.T) {
	inv := inventory.NewMemory()
	seeder := &seed.Seeder{Inv: inv, Numbering: plan.DefaultNumbering()}

	_, err := seeder.Run(context.Background(), testTopology())
	require.NoError(t, err)

	leafPort := inv.InterfaceFor("leaf01", "eth10")
	require.NotNil(t, leafPort)
	require.Equal(t, inv.VLANs[0].ID, inv.AccessVLANs[leafPort.ID])

	// the host side stays out of access mode
	hostPort := inv.InterfaceFor("host01", "eth1")
	require.NotNil(t, hostPort)
	require.NotContains(t, inv.AccessVLANs, hostPort.ID)
}

func TestSeederSkipsUnaddressedLinks(t *testing.T) {
	inv := inventory.NewMemory()

	// a /23 supernet only fits two /31-carved link subnets, so the last
	// two fabric links come back without addresses
	numbering := plan.DefaultNumbering()
	numbering.P2PSupernet = "10.0.0.0/23"
	seeder := &seed.Seeder{Inv: inv, Numbering: numbering}

	summary, err := seeder.Run(context.Background(), testTopology())
	require.NoError(t, err)

	// cables and interfaces still land, no empty address is submitted
	require.Equal(t, 5, summary.LinksOK)
	require.Len(t, inv.Cables, 5)
	for _, ip := range inv.IPs {
		require.NotEmpty(t, ip.Address)
	}
	require.Len(t, inv.IPs, 9) // 5 mgmt plus both ends of 2 addressed links
}

func TestSeederLocalContexts(t *testing.T) {
	inv := inventory.NewMemory()
	seeder := &seed.Seeder{Inv: inv, Numbering: plan.DefaultNumbering()}

	_, err := seeder.Run(context.Background(), testTopology())
	require.NoError(t, err)

	require.Len(t, inv.LocalContexts, 4)

	var leaf *inventory.Device
	for _, obj := range inv.Devices {
		if obj.Name == "leaf01" {
			leaf = obj
		}
	}
	require.NotNil(t, leaf)

	cfgCtx, ok := inv.LocalContexts[leaf.ID].(*plan.ConfigContext)
	require.True(t, ok)
	require.NotNil(t, cfgCtx.BGP)
	require.Equal(t, uint32(65101), cfgCtx.BGP.ASN)
	require.NotNil(t, cfgCtx.VXLAN)
	require.Equal(t, []plan.VLANVNI{{VLAN: 10, VNI: 10010}}, cfgCtx.VXLAN.VLANVNIMappings)
}

func TestSeederCustomFields(t *testing.T) {
	inv := inventory.NewMemory()
	seeder := &seed.Seeder{Inv: inv, Numbering: plan.DefaultNumbering()}

	_, err := seeder.Run(context.Background(), testTopology())
	require.NoError(t, err)

	require.Len(t, inv.CustomFields, 1)
	require.Equal(t, inventory.CustomFieldAnsibleNetworkOS, inv.CustomFields[0].Name)

	for _, dev := range inv.Devices {
		fields := inv.DeviceCustomFields[dev.ID]
		require.NotNil(t, fields, "device %s", dev.Name)

		expected := "eos"
		if dev.Name == "host01" {
			expected = "linux"
		}
		require.Equal(t, expected, fields[inventory.CustomFieldAnsibleNetworkOS], "device %s", dev.Name)
	}
}

func TestSeederSkipsFailingDevice(t *testing.T) {
	inv := inventory.NewMemory()
	seeder := &seed.Seeder{Inv: inv, Numbering: plan.DefaultNumbering()}

	topo := testTopology()
	_, err := seeder.Run(context.Background(), topo)
	require.NoError(t, err)

	// cable leaf01:eth10 to a foreign interface so the host link conflicts
	leafPort := inv.InterfaceFor("leaf01", "eth10")
	require.NotNil(t, leafPort)
	stray, err := inv.EnsureInterface(context.Background(), inventory.InterfaceSpec{
		DeviceID: 999, DeviceName: "stray", Name: "eth0", Type: "1000base-t",
	})
	require.NoError(t, err)
	inv.Cables = nil
	for _, obj := range inv.Interfaces {
		obj.Cabled = false
	}
	_, err = inv.EnsureCable(context.Background(), leafPort, stray)
	require.NoError(t, err)

	summary, err := seeder.Run(context.Background(), topo)
	require.NoError(t, err)

	require.Equal(t, 5, summary.DevicesOK)
	require.Equal(t, 4, summary.LinksOK)
	require.Equal(t, 4, summary.ContextsOK)
}

func TestSummaryString(t *testing.T) {
	summary := &seed.Summary{
		DevicesTotal: 5, DevicesOK: 4,
		LinksTotal: 6, LinksOK: 6,
		ContextsTotal: 4, ContextsOK: 3,
	}

	require.Equal(t, "devices 4/5, links 6/6, config contexts 3/4", summary.String())
}
