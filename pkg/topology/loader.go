package topology

import (
	"log/slog"
	"net"
	"os"
	"strings"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

// Load reads a ContainerLab topology file and parses it into the in-memory
// graph model. A missing or malformed management subnet and unparseable link
// endpoints are hard input errors, no plan can be produced without them.
func Load(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading topology file %s", path)
	}

	topo, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing topology file %s", path)
	}

	return topo, nil
}

func Parse(data []byte) (*Topology, error) {
	raw := &Raw{}
	if err := yaml.Unmarshal(data, raw); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling topology yaml")
	}

	if raw.Mgmt.IPv4Subnet == "" {
		return nil, errors.New("no mgmt.ipv4-subnet defined in topology")
	}
	if !strings.Contains(raw.Mgmt.IPv4Subnet, "/") {
		return nil, errors.Errorf("mgmt subnet %q is missing a prefix length", raw.Mgmt.IPv4Subnet)
	}

	_, mgmtSubnet, err := net.ParseCIDR(raw.Mgmt.IPv4Subnet)
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing mgmt subnet %q", raw.Mgmt.IPv4Subnet)
	}
	mgmtPrefixLen, _ := mgmtSubnet.Mask.Size()

	name := raw.Name
	if name == "" {
		name = "containerlab"
	}

	topo := &Topology{
		Name:          name,
		MgmtSubnet:    mgmtSubnet,
		MgmtPrefixLen: mgmtPrefixLen,
		Devices:       map[string]*Device{},
	}

	ordinals := map[Role]map[int]string{}
	for nodeName, node := range raw.Topology.Nodes {
		kind := node.Kind
		if kind == "" {
			kind = "linux"
		}

		dev := &Device{
			Name:     nodeName,
			Kind:     kind,
			MgmtIPv4: node.MgmtIPv4,
			Role:     RoleOf(nodeName),
			Ordinal:  Ordinal(nodeName),
		}
		topo.Devices[nodeName] = dev

		if dev.Role == RoleUnknown {
			continue
		}
		if ordinals[dev.Role] == nil {
			ordinals[dev.Role] = map[int]string{}
		}
		if other, ok := ordinals[dev.Role][dev.Ordinal]; ok {
			slog.Warn("Duplicate ordinal, addressing will alias", "role", dev.Role, "ordinal", dev.Ordinal, "devices", other+","+nodeName)
		}
		ordinals[dev.Role][dev.Ordinal] = nodeName
	}

	for idx, rawLink := range raw.Topology.Links {
		if len(rawLink.Endpoints) != 2 {
			return nil, errors.Errorf("link %d has %d endpoints, expected 2", idx, len(rawLink.Endpoints))
		}

		a, err := parseEndpoint(rawLink.Endpoints[0])
		if err != nil {
			return nil, errors.Wrapf(err, "error parsing link %d", idx)
		}
		b, err := parseEndpoint(rawLink.Endpoints[1])
		if err != nil {
			return nil, errors.Wrapf(err, "error parsing link %d", idx)
		}

		topo.Links = append(topo.Links, Link{
			Index:  idx,
			A:      a,
			B:      b,
			Labels: rawLink.Labels,
		})
	}

	return topo, nil
}

func parseEndpoint(raw string) (Endpoint, error) {
	device, iface, found := strings.Cut(raw, ":")
	if !found || device == "" || iface == "" {
		return Endpoint{}, errors.Errorf("endpoint %q is not in device:iface format", raw)
	}

	return Endpoint{Device: device, Iface: iface}, nil
}
