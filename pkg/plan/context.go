package plan

// ConfigContext is the structured configuration document produced for every
// spine and leaf. Field names and nesting are a stable contract with
// downstream renderers, the whole document is replaced wholesale on every
// regeneration.
type ConfigContext struct {
	BGP   *BGPContext   `json:"bgp,omitempty"`
	VXLAN *VXLANContext `json:"vxlan,omitempty"`
}

type BGPContext struct {
	ASN               uint32             `json:"asn"`
	RouterID          string             `json:"router_id"`
	PeerGroups        []PeerGroup        `json:"peer_groups"`
	UnderlayNeighbors []UnderlayNeighbor `json:"underlay_neighbors"`
	EVPN              EVPNContext        `json:"evpn"`
}

type PeerGroup struct {
	Name         string `json:"name"`
	EBGPMultihop int    `json:"ebgp_multihop,omitempty"`
	UpdateSource string `json:"update_source,omitempty"`
}

// UnderlayNeighbor is one eBGP session over a physical fabric link. There is
// exactly one per link to the opposite tier, parallel links included.
type UnderlayNeighbor struct {
	Peer      string `json:"peer"`
	PeerIP    string `json:"peer_ip"`
	RemoteASN uint32 `json:"remote_asn"`
	Interface string `json:"interface"`
}

type EVPNContext struct {
	Neighbors []OverlayNeighbor `json:"neighbors"`
}

// OverlayNeighbor is one EVPN session to a distinct opposite-tier device,
// deduplicated even when parallel physical links connect the same pair.
type OverlayNeighbor struct {
	Peer      string `json:"peer"`
	PeerIP    string `json:"peer_ip"`
	RemoteASN uint32 `json:"remote_asn"`
}

type VXLANContext struct {
	SourceInterface string    `json:"source_interface"`
	UDPPort         uint16    `json:"udp_port"`
	VLANVNIMappings []VLANVNI `json:"vlan_vni_mappings"`
}

type VLANVNI struct {
	VLAN uint16 `json:"vlan"`
	VNI  uint32 `json:"vni"`
}

const (
	PeerGroupUnderlay = "UNDERLAY"
	PeerGroupOverlay  = "EVPN-OVERLAY"
)
