package plan_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rbmacd/frey/pkg/plan"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

func TestDocument(t *testing.T) {
	p, err := plan.Build(context.Background(), testTopology(), plan.DefaultNumbering())
	require.NoError(t, err)

	doc := p.Document()

	require.Equal(t, "evpn-lab", doc.Name)
	require.Equal(t, []string{"leaf01", "leaf02", "spine01", "spine02"},
		[]string{doc.Devices[0].Name, doc.Devices[1].Name, doc.Devices[2].Name, doc.Devices[3].Name})
	require.Len(t, doc.FabricLinks, 5)
	require.Equal(t, "spine01:eth1", doc.FabricLinks[0].Spine)
	require.Equal(t, "leaf01:eth1", doc.FabricLinks[0].Leaf)
	require.Len(t, doc.AccessPorts, 1)
	require.Equal(t, "leaf01:eth10", doc.AccessPorts[0].Endpoint)
}

func TestRenderJSON(t *testing.T) {
	p, err := plan.Build(context.Background(), testTopology(), plan.DefaultNumbering())
	require.NoError(t, err)

	out, err := p.Render(plan.OutputTypeJSON)
	require.NoError(t, err)

	parsed := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	require.Equal(t, float64(2), parsed["ebgp_multihop"])

	contexts := parsed["contexts"].(map[string]any)
	leaf := contexts["leaf01"].(map[string]any)
	bgp := leaf["bgp"].(map[string]any)
	require.Equal(t, float64(65101), bgp["asn"])
	require.Contains(t, bgp, "peer_groups")
	require.Contains(t, bgp, "underlay_neighbors")
	require.Contains(t, bgp, "evpn")

	vxlan := leaf["vxlan"].(map[string]any)
	require.Contains(t, vxlan, "vlan_vni_mappings")

	// spines carry no vxlan block at all
	spine := contexts["spine01"].(map[string]any)
	require.NotContains(t, spine, "vxlan")
}

func TestRenderYAML(t *testing.T) {
	p, err := plan.Build(context.Background(), testTopology(), plan.DefaultNumbering())
	require.NoError(t, err)

	out, err := p.Render(plan.OutputTypeYAML)
	require.NoError(t, err)

	doc := plan.Document{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	require.Equal(t, "evpn-lab", doc.Name)
	require.Len(t, doc.Devices, 4)
}

func TestRenderText(t *testing.T) {
	p, err := plan.Build(context.Background(), testTopology(), plan.DefaultNumbering())
	require.NoError(t, err)

	out, err := p.Render(plan.OutputTypeText)
	require.NoError(t, err)

	require.Contains(t, out, "Fabric: evpn-lab (depth 1, eBGP multihop 2)")
	require.Contains(t, out, "spine01")
	require.Contains(t, out, "10.255.255.101")
	require.Contains(t, out, "10010")
}

func TestRenderUnknownOutput(t *testing.T) {
	p, err := plan.Build(context.Background(), testTopology(), plan.DefaultNumbering())
	require.NoError(t, err)

	_, err = p.Render(plan.OutputType("xml"))
	require.Error(t, err)
}
