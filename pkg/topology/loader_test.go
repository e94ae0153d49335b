package topology_test

import (
	"testing"

	"github.com/rbmacd/frey/pkg/topology"
	"github.com/stretchr/testify/require"
)

const sampleTopology = `
name: evpn-lab
mgmt:
  network: mgmt
  ipv4-subnet: 192.168.121.0/24
topology:
  nodes:
    spine01:
      kind: ceos
      mgmt-ipv4: 192.168.121.11
    leaf01:
      kind: ceos
      mgmt-ipv4: 192.168.121.21
    host01:
      kind: linux
  links:
    - endpoints: ["spine01:eth1", "leaf01:eth1"]
    - endpoints: ["leaf01:eth2", "host01:eth1"]
      labels:
        mode: access
        vlan: 10
`

func TestParse(t *testing.T) {
	topo, err := topology.Parse([]byte(sampleTopology))
	require.NoError(t, err)

	require.Equal(t, "evpn-lab", topo.Name)
	require.Equal(t, 24, topo.MgmtPrefixLen)
	require.Len(t, topo.Devices, 3)
	require.Len(t, topo.Links, 2)

	spine := topo.Devices["spine01"]
	require.NotNil(t, spine)
	require.Equal(t, "ceos", spine.Kind)
	require.Equal(t, "192.168.121.11", spine.MgmtIPv4)
	require.Equal(t, topology.RoleSpine, spine.Role)
	require.Equal(t, 1, spine.Ordinal)

	host := topo.Devices["host01"]
	require.NotNil(t, host)
	require.Equal(t, topology.RoleUnknown, host.Role)

	require.Equal(t, topology.Endpoint{Device: "spine01", Iface: "eth1"}, topo.Links[0].A)
	require.Equal(t, topology.Endpoint{Device: "leaf01", Iface: "eth1"}, topo.Links[0].B)
	require.Equal(t, 0, topo.Links[0].Index)
	require.Nil(t, topo.Links[0].Labels)

	vlan, ok := topo.Links[1].AccessVLAN()
	require.True(t, ok)
	require.Equal(t, uint16(10), vlan)
}

func TestParseErrors(t *testing.T) {
	for _, test := range []struct {
		name string
		data string
	}{
		{
			name: "missing-mgmt-subnet",
			data: `
name: lab
topology:
  nodes:
    leaf01: {kind: ceos}
`,
		},
		{
			name: "mgmt-subnet-without-prefix",
			data: `
name: lab
mgmt:
  ipv4-subnet: 192.168.121.0
topology:
  nodes:
    leaf01: {kind: ceos}
`,
		},
		{
			name: "mgmt-subnet-garbage",
			data: `
name: lab
mgmt:
  ipv4-subnet: not/a-subnet
topology:
  nodes:
    leaf01: {kind: ceos}
`,
		},
		{
			name: "bad-endpoint",
			data: `
name: lab
mgmt:
  ipv4-subnet: 192.168.121.0/24
topology:
  nodes:
    leaf01: {kind: ceos}
  links:
    - endpoints: ["leaf01eth1", "host01:eth1"]
`,
		},
		{
			name: "one-sided-link",
			data: `
name: lab
mgmt:
  ipv4-subnet: 192.168.121.0/24
topology:
  nodes:
    leaf01: {kind: ceos}
  links:
    - endpoints: ["leaf01:eth1"]
`,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := topology.Parse([]byte(test.data))
			require.Error(t, err)
		})
	}
}

func TestParseDefaults(t *testing.T) {
	topo, err := topology.Parse([]byte(`
mgmt:
  ipv4-subnet: 10.0.100.0/24
topology:
  nodes:
    host01: {}
`))
	require.NoError(t, err)

	require.Equal(t, "containerlab", topo.Name)
	require.Equal(t, "linux", topo.Devices["host01"].Kind)
}
