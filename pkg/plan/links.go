package plan

import (
	"fmt"

	"github.com/rbmacd/frey/pkg/topology"
)

type LinkClass string

const (
	// LinkClassFabric is a spine-leaf link carrying routed /31 addressing.
	LinkClassFabric LinkClass = "fabric"
	// LinkClassHost is a leaf-host link, optionally an access port.
	LinkClassHost LinkClass = "host"
	// LinkClassOther gets descriptive metadata only. The planner does not
	// guess intent for spine-spine, border-border and similar pairs.
	LinkClassOther LinkClass = "other"
)

// FabricLink is a classified spine-leaf link with both /31 host addresses
// assigned. Spine and leaf identity is resolved from role, never from the
// endpoint order in the link definition.
type FabricLink struct {
	Link    topology.Link
	Spine   topology.Endpoint
	Leaf    topology.Endpoint
	SpineIP string // ip/31
	LeafIP  string // ip/31
}

// AccessAssignment places the fabric-side interface of a host link into
// access mode on a VLAN. The host side is left untouched.
type AccessAssignment struct {
	Endpoint topology.Endpoint
	VLAN     uint16
	VNI      uint32
}

func classifyLink(link topology.Link, devices map[string]*topology.Device) LinkClass {
	roleA := roleOfEndpoint(link.A, devices)
	roleB := roleOfEndpoint(link.B, devices)

	switch {
	case roleA == topology.RoleSpine && roleB == topology.RoleLeaf,
		roleA == topology.RoleLeaf && roleB == topology.RoleSpine:
		return LinkClassFabric
	case roleA == topology.RoleLeaf && roleB == topology.RoleUnknown,
		roleA == topology.RoleUnknown && roleB == topology.RoleLeaf:
		return LinkClassHost
	}

	return LinkClassOther
}

func roleOfEndpoint(ep topology.Endpoint, devices map[string]*topology.Device) topology.Role {
	if dev, ok := devices[ep.Device]; ok {
		return dev.Role
	}

	return topology.RoleUnknown
}

// spineLeafEnds orients a fabric link by role. Returns false when the link
// is not actually spine-leaf.
func spineLeafEnds(link topology.Link, devices map[string]*topology.Device) (spine, leaf topology.Endpoint, ok bool) {
	roleA := roleOfEndpoint(link.A, devices)
	roleB := roleOfEndpoint(link.B, devices)

	switch {
	case roleA == topology.RoleSpine && roleB == topology.RoleLeaf:
		return link.A, link.B, true
	case roleA == topology.RoleLeaf && roleB == topology.RoleSpine:
		return link.B, link.A, true
	}

	return topology.Endpoint{}, topology.Endpoint{}, false
}

// IfaceDescription is the human-readable description applied to both ends
// of every link.
func IfaceDescription(peer topology.Endpoint) string {
	return fmt.Sprintf("to_%s", peer.Device)
}
