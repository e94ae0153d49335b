package plan

import (
	"fmt"
	"net"

	cidrlib "github.com/apparentlymart/go-cidr/cidr"
	"github.com/pkg/errors"
	"github.com/rbmacd/frey/pkg/topology"
)

// Numbering holds every base and offset the addressing formulas derive from.
// It is passed into the plan builder explicitly so alternative numbering
// schemes can be exercised without process-wide state.
//
// The formulas themselves are total: they favor determinism over defensive
// validation, out-of-range ordinals simply produce addresses that may alias.
type Numbering struct {
	RouterIDSubnet string `json:"routerIDSubnet,omitempty"`
	VTEPSubnet     string `json:"vtepSubnet,omitempty"`
	P2PSupernet    string `json:"p2pSupernet,omitempty"`

	SpineLoopbackStart int `json:"spineLoopbackStart,omitempty"`
	LeafLoopbackStart  int `json:"leafLoopbackStart,omitempty"`
	OtherLoopbackStart int `json:"otherLoopbackStart,omitempty"`

	SpineASN    uint32 `json:"spineASN,omitempty"`
	LeafASNBase uint32 `json:"leafASNBase,omitempty"`

	VNIBase uint32 `json:"vniBase,omitempty"`

	VTEPInterface     string `json:"vtepInterface,omitempty"`
	RouterIDInterface string `json:"routerIDInterface,omitempty"`
	VXLANUDPPort      uint16 `json:"vxlanUDPPort,omitempty"`
}

// DefaultNumbering keeps spine and leaf loopback ranges disjoint for up to
// 100 devices per tier, and the /16 p2p supernet holds 256 fabric links.
// Those are documented scale ceilings, not enforced invariants.
func DefaultNumbering() Numbering {
	return Numbering{
		RouterIDSubnet: "10.255.255.0/24",
		VTEPSubnet:     "10.255.254.0/24",
		P2PSupernet:    "10.0.0.0/16",

		SpineLoopbackStart: 1,
		LeafLoopbackStart:  101,
		OtherLoopbackStart: 100,

		SpineASN:    65100,
		LeafASNBase: 65101,

		VNIBase: 10000,

		VTEPInterface:     "Loopback1",
		RouterIDInterface: "Loopback0",
		VXLANUDPPort:      4789,
	}
}

func (n Numbering) Validate() error {
	for _, subnet := range []string{n.RouterIDSubnet, n.VTEPSubnet, n.P2PSupernet} {
		if _, _, err := net.ParseCIDR(subnet); err != nil {
			return errors.Wrapf(err, "error parsing numbering subnet %q", subnet)
		}
	}

	return nil
}

// RouterID is the loopback0 address identifying the device in the underlay.
// Spine and leaf ranges start at distinct offsets in the same base subnet,
// all remaining roles land above both.
func (n Numbering) RouterID(role topology.Role, ordinal int) string {
	switch role {
	case topology.RoleSpine:
		return hostIn(n.RouterIDSubnet, n.SpineLoopbackStart+ordinal-1)
	case topology.RoleLeaf:
		return hostIn(n.RouterIDSubnet, n.LeafLoopbackStart+ordinal-1)
	}

	return hostIn(n.RouterIDSubnet, n.OtherLoopbackStart+ordinal)
}

// VTEPIP is the loopback1 address a leaf originates VXLAN tunnels from. It
// shares the router ID offset but lives in a disjoint base, so the two can
// never collide.
func (n Numbering) VTEPIP(ordinal int) string {
	return hostIn(n.VTEPSubnet, n.LeafLoopbackStart+ordinal-1)
}

// ASN returns the BGP AS number. All spines share one ASN (single logical AS
// on the spine side), every leaf gets its own.
func (n Numbering) ASN(role topology.Role, ordinal int) uint32 {
	switch role {
	case topology.RoleSpine:
		return n.SpineASN
	case topology.RoleLeaf:
		return n.LeafASNBase + uint32(ordinal) - 1 //nolint:gosec
	}

	return 0
}

// P2PAddr derives the /31 host address for one side of a fabric link. The
// link index selects the subnet, the role selects the parity: spine always
// takes the even address and leaf the odd one, regardless of which endpoint
// appears first in the link definition. An index past the supernet capacity
// (256 per /16) yields an empty string; the plan builder warns on it.
func (n Numbering) P2PAddr(linkIndex int, role topology.Role) string {
	hostNum := 0
	if role == topology.RoleLeaf {
		hostNum = 1
	}

	_, supernet, err := net.ParseCIDR(n.P2PSupernet)
	if err != nil {
		return ""
	}

	prefixLen, _ := supernet.Mask.Size()
	subnet, err := cidrlib.Subnet(supernet, 24-prefixLen, linkIndex)
	if err != nil {
		return ""
	}

	ip, err := cidrlib.Host(subnet, hostNum)
	if err != nil {
		return ""
	}

	return fmt.Sprintf("%s/31", ip.String())
}

// VNI maps a VLAN ID to its VXLAN network identifier with a flat offset,
// identical across all leaves so VLANs express fabric-wide broadcast domains.
func (n Numbering) VNI(vlanID uint16) uint32 {
	return n.VNIBase + uint32(vlanID)
}

func hostIn(subnet string, offset int) string {
	_, ipNet, err := net.ParseCIDR(subnet)
	if err != nil {
		return ""
	}

	ip, err := cidrlib.Host(ipNet, offset)
	if err != nil {
		return ""
	}

	return ip.String()
}
