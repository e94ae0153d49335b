package plan

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

type OutputType string

const (
	OutputTypeText OutputType = "text"
	OutputTypeYAML OutputType = "yaml"
	OutputTypeJSON OutputType = "json"
)

var OutputTypes = []OutputType{OutputTypeText, OutputTypeYAML, OutputTypeJSON}

// Document is the serializable form of a plan, used for yaml/json output and
// for anything downstream that wants the whole plan in one piece.
type Document struct {
	Name         string                    `json:"name"`
	Depth        int                       `json:"depth"`
	EBGPMultihop int                       `json:"ebgp_multihop"`
	Devices      []DeviceDoc               `json:"devices"`
	FabricLinks  []FabricLinkDoc           `json:"fabric_links"`
	AccessPorts  []AccessDoc               `json:"access_ports"`
	Contexts     map[string]*ConfigContext `json:"contexts"`
}

type DeviceDoc struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	ASN      uint32 `json:"asn"`
	RouterID string `json:"router_id"`
	VTEPIP   string `json:"vtep_ip,omitempty"`
}

type FabricLinkDoc struct {
	Index   int    `json:"index"`
	Spine   string `json:"spine"`
	Leaf    string `json:"leaf"`
	SpineIP string `json:"spine_ip"`
	LeafIP  string `json:"leaf_ip"`
}

type AccessDoc struct {
	Endpoint string `json:"endpoint"`
	VLAN     uint16 `json:"vlan"`
	VNI      uint32 `json:"vni"`
}

func (p *Plan) Document() *Document {
	doc := &Document{
		Name:         p.Name,
		Depth:        p.Depth,
		EBGPMultihop: p.EBGPMultihop,
		Devices:      []DeviceDoc{},
		FabricLinks:  []FabricLinkDoc{},
		AccessPorts:  []AccessDoc{},
		Contexts:     p.Contexts,
	}

	for _, name := range p.DeviceNames() {
		dp := p.Devices[name]
		doc.Devices = append(doc.Devices, DeviceDoc{
			Name:     dp.Name,
			Role:     string(dp.Role),
			ASN:      dp.ASN,
			RouterID: dp.RouterID,
			VTEPIP:   dp.VTEPIP,
		})
	}

	for _, fabric := range p.FabricLinks {
		doc.FabricLinks = append(doc.FabricLinks, FabricLinkDoc{
			Index:   fabric.Link.Index,
			Spine:   fabric.Spine.String(),
			Leaf:    fabric.Leaf.String(),
			SpineIP: fabric.SpineIP,
			LeafIP:  fabric.LeafIP,
		})
	}

	for _, access := range p.Access {
		doc.AccessPorts = append(doc.AccessPorts, AccessDoc{
			Endpoint: access.Endpoint.String(),
			VLAN:     access.VLAN,
			VNI:      access.VNI,
		})
	}

	return doc
}

// Render serializes the plan in the requested format. Text output is a set
// of tables meant for humans, yaml/json carry the full document.
func (p *Plan) Render(output OutputType) (string, error) {
	doc := p.Document()

	switch output {
	case OutputTypeText:
		return doc.renderText(), nil
	case OutputTypeYAML:
		data, err := yaml.Marshal(doc)

		return string(data), errors.Wrap(err, "error marshaling plan as yaml")
	case OutputTypeJSON:
		data, err := json.MarshalIndent(doc, "", "  ")

		return string(data), errors.Wrap(err, "error marshaling plan as json")
	}

	return "", errors.Errorf("output type %s is not implemented", output)
}

func (doc *Document) renderText() string {
	out := &strings.Builder{}

	fmt.Fprintf(out, "Fabric: %s (depth %d, eBGP multihop %d)\n\n", doc.Name, doc.Depth, doc.EBGPMultihop)

	rows := [][]string{}
	for _, dev := range doc.Devices {
		rows = append(rows, []string{dev.Name, dev.Role, fmt.Sprintf("%d", dev.ASN), dev.RouterID, dev.VTEPIP})
	}
	out.WriteString(renderTable([]string{"Device", "Role", "ASN", "RouterID", "VTEP"}, rows))

	if len(doc.FabricLinks) > 0 {
		out.WriteString("\n")

		rows = [][]string{}
		for _, fabric := range doc.FabricLinks {
			rows = append(rows, []string{fmt.Sprintf("%d", fabric.Index), fabric.Spine, fabric.SpineIP, fabric.Leaf, fabric.LeafIP})
		}
		out.WriteString(renderTable([]string{"Link", "Spine", "SpineIP", "Leaf", "LeafIP"}, rows))
	}

	if len(doc.AccessPorts) > 0 {
		out.WriteString("\n")

		rows = [][]string{}
		for _, access := range doc.AccessPorts {
			rows = append(rows, []string{access.Endpoint, fmt.Sprintf("%d", access.VLAN), fmt.Sprintf("%d", access.VNI)})
		}
		out.WriteString(renderTable([]string{"AccessPort", "VLAN", "VNI"}, rows))
	}

	return out.String()
}

// renderTable draws a borderless left-aligned table; plan cells are short
// names and addresses, nothing needs wrapping or separators.
func renderTable(headers []string, data [][]string) string {
	cells := tw.CellConfig{
		Formatting: tw.CellFormatting{Alignment: tw.AlignLeft},
		Padding:    tw.CellPadding{Global: tw.Padding{Right: "    "}},
	}

	str := &strings.Builder{}
	table := tablewriter.NewTable(str,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Borders:  tw.BorderNone,
			Settings: tw.Settings{Lines: tw.LinesNone, Separators: tw.SeparatorsNone},
		})),
		tablewriter.WithConfig(tablewriter.Config{Header: cells, Row: cells}),
	)

	table.Header(headers)
	if err := table.Bulk(data); err != nil {
		slog.Error("Error adding rows to table", "error", err)

		return ""
	}
	if err := table.Render(); err != nil {
		slog.Error("Error rendering table", "error", err)

		return ""
	}

	return str.String()
}
