package topology

import (
	"fmt"
	"net"
)

// Raw mirrors the ContainerLab YAML document as authored. Only the fields
// the planner cares about are mapped, everything else is ignored on load.
//
// NOTE: json tags are required, the YAML codec round-trips through json.
type Raw struct {
	Name     string      `json:"name,omitempty"`
	Mgmt     Mgmt        `json:"mgmt,omitempty"`
	Topology RawTopology `json:"topology,omitempty"`
}

type Mgmt struct {
	Network    string `json:"network,omitempty"`
	IPv4Subnet string `json:"ipv4-subnet,omitempty"`
}

type RawTopology struct {
	Nodes map[string]Node `json:"nodes,omitempty"`
	Links []RawLink       `json:"links,omitempty"`
}

type Node struct {
	Kind     string   `json:"kind,omitempty"`
	Image    string   `json:"image,omitempty"`
	MgmtIPv4 string   `json:"mgmt-ipv4,omitempty"`
	Exec     []string `json:"exec,omitempty"`
}

type RawLink struct {
	Endpoints []string    `json:"endpoints,omitempty"`
	Labels    *LinkLabels `json:"labels,omitempty"`
}

// LinkLabels are free-form tags attached to a link by the topology author.
// Mode "access" with a VLAN places the fabric-side interface of a host link
// into access mode on that VLAN.
type LinkLabels struct {
	Mode string `json:"mode,omitempty"`
	VLAN uint16 `json:"vlan,omitempty"`
}

const LinkModeAccess = "access"

// Topology is the parsed in-memory graph the planner works on.
type Topology struct {
	Name          string
	MgmtSubnet    *net.IPNet
	MgmtPrefixLen int
	Devices       map[string]*Device
	Links         []Link
}

type Device struct {
	Name     string
	Kind     string
	MgmtIPv4 string
	Role     Role
	Ordinal  int
}

type Endpoint struct {
	Device string
	Iface  string
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%s", e.Device, e.Iface)
}

// Link is an unordered pair of endpoints. Index is the link's position in
// the original link list and is the only entropy source for point-to-point
// subnet derivation, so reordering the input changes the addressing plan.
type Link struct {
	Index  int
	A      Endpoint
	B      Endpoint
	Labels *LinkLabels
}

// AccessVLAN returns the VLAN ID if the link is tagged for access mode.
func (l Link) AccessVLAN() (uint16, bool) {
	if l.Labels == nil || l.Labels.Mode != LinkModeAccess || l.Labels.VLAN == 0 {
		return 0, false
	}

	return l.Labels.VLAN, true
}

// Peer returns the endpoint on the other side of the link from device.
func (l Link) Peer(device string) (Endpoint, bool) {
	switch device {
	case l.A.Device:
		return l.B, true
	case l.B.Device:
		return l.A, true
	}

	return Endpoint{}, false
}
