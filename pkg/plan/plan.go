package plan

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/maruel/natural"
	"github.com/pkg/errors"
	"github.com/rbmacd/frey/pkg/topology"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// DevicePlan is the derived addressing identity of a single fabric device.
type DevicePlan struct {
	Name     string
	Role     topology.Role
	Ordinal  int
	RouterID string
	VTEPIP   string // leaves only
	ASN      uint32
}

// Plan is the complete addressing and configuration plan for a topology. It
// is recomputed wholesale from the topology input on every run, nothing in
// it is persisted.
type Plan struct {
	Name         string
	Numbering    Numbering
	Depth        int
	EBGPMultihop int

	Devices      map[string]*DevicePlan
	FabricLinks  []FabricLink
	Access       []AccessAssignment
	Descriptions map[topology.Endpoint]string
	VLANs        []uint16

	Contexts map[string]*ConfigContext
}

// Build derives the full plan from a parsed topology. Everything here is
// pure computation over the topology and numbering inputs, per-device config
// contexts are assembled concurrently since they only depend on already
// computed global state.
func Build(ctx context.Context, topo *topology.Topology, numbering Numbering) (*Plan, error) {
	if err := numbering.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid numbering config")
	}

	depth := topology.NewGraph(topo.Links).FabricDepth(topo.Devices)

	p := &Plan{
		Name:         topo.Name,
		Numbering:    numbering,
		Depth:        depth,
		EBGPMultihop: depth + 1,
		Devices:      map[string]*DevicePlan{},
		Descriptions: map[topology.Endpoint]string{},
		Contexts:     map[string]*ConfigContext{},
	}

	for name, dev := range topo.Devices {
		if dev.Role != topology.RoleSpine && dev.Role != topology.RoleLeaf {
			continue
		}

		dp := &DevicePlan{
			Name:     name,
			Role:     dev.Role,
			Ordinal:  dev.Ordinal,
			RouterID: numbering.RouterID(dev.Role, dev.Ordinal),
			ASN:      numbering.ASN(dev.Role, dev.Ordinal),
		}
		if dev.Role == topology.RoleLeaf {
			dp.VTEPIP = numbering.VTEPIP(dev.Ordinal)
		}

		p.Devices[name] = dp
	}

	for _, link := range topo.Links {
		p.Descriptions[link.A] = IfaceDescription(link.B)
		p.Descriptions[link.B] = IfaceDescription(link.A)

		switch classifyLink(link, topo.Devices) {
		case LinkClassFabric:
			spine, leaf, ok := spineLeafEnds(link, topo.Devices)
			if !ok {
				continue
			}

			spineIP := numbering.P2PAddr(link.Index, topology.RoleSpine)
			leafIP := numbering.P2PAddr(link.Index, topology.RoleLeaf)
			if spineIP == "" || leafIP == "" {
				slog.Warn("Link index exceeds the p2p supernet capacity, link left unaddressed",
					"link", link.Index, "supernet", numbering.P2PSupernet)
			}

			p.FabricLinks = append(p.FabricLinks, FabricLink{
				Link:    link,
				Spine:   spine,
				Leaf:    leaf,
				SpineIP: spineIP,
				LeafIP:  leafIP,
			})
		case LinkClassHost:
			vlan, ok := link.AccessVLAN()
			if !ok {
				continue
			}

			ep := link.A
			if roleOfEndpoint(link.B, topo.Devices) == topology.RoleLeaf {
				ep = link.B
			}

			p.Access = append(p.Access, AccessAssignment{
				Endpoint: ep,
				VLAN:     vlan,
				VNI:      numbering.VNI(vlan),
			})
		case LinkClassOther:
			// descriptive metadata only
		}
	}

	p.VLANs = lo.Uniq(lo.Map(p.Access, func(a AccessAssignment, _ int) uint16 { return a.VLAN }))
	sort.Slice(p.VLANs, func(i, j int) bool { return p.VLANs[i] < p.VLANs[j] })

	group, _ := errgroup.WithContext(ctx)
	mutex := sync.Mutex{}

	for name, dp := range p.Devices {
		group.Go(func() error {
			cfgCtx := p.buildContext(dp)

			mutex.Lock()
			defer mutex.Unlock()
			p.Contexts[name] = cfgCtx

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, errors.Wrap(err, "error building config contexts")
	}

	return p, nil
}

func (p *Plan) buildContext(dp *DevicePlan) *ConfigContext {
	bgp := &BGPContext{
		ASN:      dp.ASN,
		RouterID: dp.RouterID,
		PeerGroups: []PeerGroup{
			{Name: PeerGroupUnderlay},
			{
				Name:         PeerGroupOverlay,
				EBGPMultihop: p.EBGPMultihop,
				UpdateSource: p.Numbering.RouterIDInterface,
			},
		},
		UnderlayNeighbors: []UnderlayNeighbor{},
		EVPN:              EVPNContext{Neighbors: []OverlayNeighbor{}},
	}

	overlayPeers := []string{}
	for _, fabric := range p.FabricLinks {
		local, peer := fabric.Spine, fabric.Leaf
		peerIP := fabric.LeafIP
		if dp.Role == topology.RoleLeaf {
			local, peer = fabric.Leaf, fabric.Spine
			peerIP = fabric.SpineIP
		}

		if local.Device != dp.Name {
			continue
		}

		peerPlan := p.Devices[peer.Device]
		if peerPlan == nil {
			continue
		}

		bgp.UnderlayNeighbors = append(bgp.UnderlayNeighbors, UnderlayNeighbor{
			Peer:      peer.Device,
			PeerIP:    bareIP(peerIP),
			RemoteASN: peerPlan.ASN,
			Interface: local.Iface,
		})

		overlayPeers = append(overlayPeers, peer.Device)
	}

	sort.Slice(bgp.UnderlayNeighbors, func(i, j int) bool {
		return natural.Less(bgp.UnderlayNeighbors[i].Interface, bgp.UnderlayNeighbors[j].Interface)
	})

	overlayPeers = lo.Uniq(overlayPeers)
	sort.Sort(natural.StringSlice(overlayPeers))

	for _, peer := range overlayPeers {
		peerPlan := p.Devices[peer]

		// spines peer with leaf VTEPs, leaves with spine router IDs
		peerIP := peerPlan.VTEPIP
		if dp.Role == topology.RoleLeaf {
			peerIP = peerPlan.RouterID
		}

		bgp.EVPN.Neighbors = append(bgp.EVPN.Neighbors, OverlayNeighbor{
			Peer:      peer,
			PeerIP:    peerIP,
			RemoteASN: peerPlan.ASN,
		})
	}

	cfgCtx := &ConfigContext{BGP: bgp}

	if dp.Role == topology.RoleLeaf {
		vxlan := &VXLANContext{
			SourceInterface: p.Numbering.VTEPInterface,
			UDPPort:         p.Numbering.VXLANUDPPort,
			VLANVNIMappings: []VLANVNI{},
		}

		// identical table on every leaf, VLANs are fabric-wide domains
		for _, vlan := range p.VLANs {
			vxlan.VLANVNIMappings = append(vxlan.VLANVNIMappings, VLANVNI{
				VLAN: vlan,
				VNI:  p.Numbering.VNI(vlan),
			})
		}

		cfgCtx.VXLAN = vxlan
	}

	return cfgCtx
}

func bareIP(addr string) string {
	ip, _, found := strings.Cut(addr, "/")
	if !found {
		return addr
	}

	return ip
}

// DeviceNames returns the planned device names in natural order.
func (p *Plan) DeviceNames() []string {
	names := lo.Keys(p.Devices)
	sort.Sort(natural.StringSlice(names))

	return names
}
