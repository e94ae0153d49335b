package seed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"github.com/pkg/errors"
	"github.com/rbmacd/frey/pkg/inventory"
	"github.com/rbmacd/frey/pkg/plan"
	"github.com/rbmacd/frey/pkg/topology"
	"github.com/samber/lo"
)

// Seeder reconciles a topology and its derived plan into the inventory
// system. All writes are get-or-create, so re-running against a populated
// inventory is safe; failures on a single device or link are logged and
// skipped, only input-level problems abort the run.
type Seeder struct {
	Inv       inventory.Client
	Numbering plan.Numbering
}

type Summary struct {
	DevicesTotal  int
	DevicesOK     int
	LinksTotal    int
	LinksOK       int
	ContextsTotal int
	ContextsOK    int
}

func (s *Summary) String() string {
	return fmt.Sprintf("devices %d/%d, links %d/%d, config contexts %d/%d",
		s.DevicesOK, s.DevicesTotal, s.LinksOK, s.LinksTotal, s.ContextsOK, s.ContextsTotal)
}

func (s *Seeder) Run(ctx context.Context, topo *topology.Topology) (*Summary, error) {
	p, err := plan.Build(ctx, topo, s.Numbering)
	if err != nil {
		return nil, errors.Wrap(err, "error building plan")
	}

	slog.Info("Plan computed", "devices", len(topo.Devices), "links", len(topo.Links),
		"depth", p.Depth, "ebgpMultihop", p.EBGPMultihop)

	site, err := s.Inv.EnsureSite(ctx, topo.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "error ensuring site %s", topo.Name)
	}

	if err := s.Inv.EnsureCustomField(ctx, inventory.CustomFieldSpec{
		Name:        inventory.CustomFieldAnsibleNetworkOS,
		ObjectTypes: []string{"dcim.device"},
		Type:        "text",
		Description: "Ansible network OS type for dynamic inventory",
		Weight:      100,
	}); err != nil {
		slog.Error("Failed to ensure custom field", "name", inventory.CustomFieldAnsibleNetworkOS, "error", err)
	}

	summary := &Summary{
		DevicesTotal: len(topo.Devices),
		LinksTotal:   len(topo.Links),
	}

	devices := s.seedDevices(ctx, topo, site, summary)
	s.seedLinks(ctx, topo, p, site, devices, summary)
	s.seedContexts(ctx, p, devices, summary)

	slog.Info("Seeding complete", "summary", summary.String())

	return summary, nil
}

func (s *Seeder) seedDevices(ctx context.Context, topo *topology.Topology, site *inventory.Site, summary *Summary) map[string]*inventory.Device {
	devices := map[string]*inventory.Device{}

	names := lo.Keys(topo.Devices)
	sort.Sort(natural.StringSlice(names))

	for _, name := range names {
		node := topo.Devices[name]

		dev, err := s.seedDevice(ctx, node, site, topo.MgmtPrefixLen)
		if err != nil {
			slog.Error("Failed to seed device, skipping", "device", name, "error", err)

			continue
		}

		devices[name] = dev
		summary.DevicesOK++
	}

	return devices
}

func (s *Seeder) seedDevice(ctx context.Context, node *topology.Device, site *inventory.Site, mgmtPrefixLen int) (*inventory.Device, error) {
	manufacturerName := inventory.ManufacturerForKind(node.Kind)
	manufacturer, err := s.Inv.EnsureManufacturer(ctx, manufacturerName)
	if err != nil {
		return nil, errors.Wrap(err, "error ensuring manufacturer")
	}

	devType, err := s.Inv.EnsureDeviceType(ctx, inventory.DeviceTypeForKind(node.Kind), manufacturer.ID)
	if err != nil {
		return nil, errors.Wrap(err, "error ensuring device type")
	}

	role, err := s.Inv.EnsureDeviceRole(ctx, inventory.DeviceRoleForKind(node.Kind), inventory.RoleColor)
	if err != nil {
		return nil, errors.Wrap(err, "error ensuring device role")
	}

	dev, err := s.Inv.EnsureDevice(ctx, inventory.DeviceSpec{
		Name:         node.Name,
		DeviceTypeID: devType.ID,
		RoleID:       role.ID,
		SiteID:       site.ID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error ensuring device")
	}

	ansibleOS := inventory.AnsibleNetworkOS(node.Kind, manufacturerName)
	if err := s.Inv.SetCustomFields(ctx, dev.ID, map[string]any{
		inventory.CustomFieldAnsibleNetworkOS: ansibleOS,
	}); err != nil {
		slog.Error("Failed to set custom fields", "device", node.Name, "error", err)
	}

	if node.MgmtIPv4 != "" {
		if err := s.seedMgmtIP(ctx, node, dev, mgmtPrefixLen); err != nil {
			slog.Error("Failed to create management IP", "device", node.Name, "error", err)
		}
	}

	return dev, nil
}

const mgmtInterface = "mgmt0"

func (s *Seeder) seedMgmtIP(ctx context.Context, node *topology.Device, dev *inventory.Device, mgmtPrefixLen int) error {
	iface, err := s.Inv.EnsureInterface(ctx, inventory.InterfaceSpec{
		DeviceID:   dev.ID,
		DeviceName: dev.Name,
		Name:       mgmtInterface,
		Type:       inventory.InterfaceType(mgmtInterface),
	})
	if err != nil {
		return errors.Wrap(err, "error ensuring mgmt interface")
	}

	// the prefix length is inherited from the topology-wide mgmt subnet
	address := node.MgmtIPv4
	if !strings.Contains(address, "/") {
		address = fmt.Sprintf("%s/%d", address, mgmtPrefixLen)
	}

	ip, err := s.Inv.EnsureIPAddress(ctx, inventory.IPAddressSpec{
		Address:     address,
		InterfaceID: iface.ID,
		Description: fmt.Sprintf("Management IP for %s", dev.Name),
	})
	if err != nil {
		return errors.Wrap(err, "error ensuring mgmt ip")
	}

	return errors.Wrap(s.Inv.SetPrimaryIP(ctx, dev.ID, ip.ID), "error setting primary ip")
}

func (s *Seeder) seedLinks(ctx context.Context, topo *topology.Topology, p *plan.Plan, site *inventory.Site, devices map[string]*inventory.Device, summary *Summary) {
	fabricByIndex := lo.KeyBy(p.FabricLinks, func(f plan.FabricLink) int { return f.Link.Index })
	accessByEndpoint := lo.KeyBy(p.Access, func(a plan.AccessAssignment) topology.Endpoint { return a.Endpoint })

	for _, link := range topo.Links {
		if err := s.seedLink(ctx, link, p, site, devices, fabricByIndex, accessByEndpoint); err != nil {
			slog.Error("Failed to seed link, skipping", "link", link.A.String()+" <-> "+link.B.String(), "error", err)

			continue
		}

		summary.LinksOK++
	}
}

func (s *Seeder) seedLink(ctx context.Context, link topology.Link, p *plan.Plan, site *inventory.Site,
	devices map[string]*inventory.Device, fabricByIndex map[int]plan.FabricLink, accessByEndpoint map[topology.Endpoint]plan.AccessAssignment,
) error {
	ifaces := map[topology.Endpoint]*inventory.Interface{}
	for _, ep := range []topology.Endpoint{link.A, link.B} {
		dev, ok := devices[ep.Device]
		if !ok {
			return errors.Errorf("device %s was not seeded", ep.Device)
		}

		iface, err := s.Inv.EnsureInterface(ctx, inventory.InterfaceSpec{
			DeviceID:    dev.ID,
			DeviceName:  dev.Name,
			Name:        ep.Iface,
			Type:        inventory.InterfaceType(ep.Iface),
			Description: p.Descriptions[ep],
		})
		if err != nil {
			return errors.Wrapf(err, "error ensuring interface %s", ep.String())
		}

		ifaces[ep] = iface
	}

	if _, err := s.Inv.EnsureCable(ctx, ifaces[link.A], ifaces[link.B]); err != nil {
		return errors.Wrap(err, "error ensuring cable")
	}

	if fabric, ok := fabricByIndex[link.Index]; ok {
		for ep, address := range map[topology.Endpoint]string{
			fabric.Spine: fabric.SpineIP,
			fabric.Leaf:  fabric.LeafIP,
		} {
			// links past the supernet capacity carry no addresses
			if address == "" {
				continue
			}

			if _, err := s.Inv.EnsureIPAddress(ctx, inventory.IPAddressSpec{
				Address:     address,
				InterfaceID: ifaces[ep].ID,
				Description: p.Descriptions[ep],
			}); err != nil {
				return errors.Wrapf(err, "error ensuring p2p ip %s on %s", address, ep.String())
			}
		}
	}

	for _, ep := range []topology.Endpoint{link.A, link.B} {
		access, ok := accessByEndpoint[ep]
		if !ok {
			continue
		}

		vlan, err := s.Inv.EnsureVLAN(ctx, site.ID, access.VLAN, fmt.Sprintf("VLAN%d", access.VLAN))
		if err != nil {
			return errors.Wrapf(err, "error ensuring vlan %d", access.VLAN)
		}

		if err := s.Inv.SetAccessVLAN(ctx, ifaces[ep].ID, vlan.ID); err != nil {
			return errors.Wrapf(err, "error setting access vlan on %s", ep.String())
		}
	}

	return nil
}

func (s *Seeder) seedContexts(ctx context.Context, p *plan.Plan, devices map[string]*inventory.Device, summary *Summary) {
	for _, name := range p.DeviceNames() {
		cfgCtx, ok := p.Contexts[name]
		if !ok {
			continue
		}

		summary.ContextsTotal++

		dev, ok := devices[name]
		if !ok {
			slog.Error("No seeded device for config context, skipping", "device", name)

			continue
		}

		if err := s.Inv.SetLocalContext(ctx, dev.ID, cfgCtx); err != nil {
			slog.Error("Failed to store config context, skipping", "device", name, "error", err)

			continue
		}

		summary.ContextsOK++
	}
}
