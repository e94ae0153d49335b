package inventory

// Mapping tables from ContainerLab node kinds to inventory metadata.

var deviceTypeByKind = map[string]string{
	"ceos":  "Arista cEOS",
	"linux": "Linux Host",
}

var manufacturerByKind = map[string]string{
	"ceos":  "Arista",
	"linux": "Generic",
}

var ansibleOSByKind = map[string]string{
	"ceos":     "eos",
	"linux":    "linux",
	"vr-sros":  "sros",
	"vr-vmx":   "junos",
	"vr-xrv9k": "iosxr",
	"vr-veos":  "eos",
	"crpd":     "junos",
	"vr-csr":   "ios",
	"vr-n9kv":  "nxos",
	"vr-vqfx":  "junos",
	"sonic-vs": "sonic",
}

var ansibleOSByManufacturer = map[string]string{
	"Arista":  "eos",
	"Cisco":   "ios",
	"Juniper": "junos",
	"Nokia":   "sros",
	"Generic": "linux",
}

func DeviceTypeForKind(kind string) string {
	if model, ok := deviceTypeByKind[kind]; ok {
		return model
	}

	return kind
}

func ManufacturerForKind(kind string) string {
	if name, ok := manufacturerByKind[kind]; ok {
		return name
	}

	return "Generic"
}

// AnsibleNetworkOS maps a kind to its ansible_network_os value, falling back
// to the manufacturer mapping and finally to linux.
func AnsibleNetworkOS(kind, manufacturer string) string {
	if os, ok := ansibleOSByKind[kind]; ok {
		return os
	}
	if os, ok := ansibleOSByManufacturer[manufacturer]; ok {
		return os
	}

	return "linux"
}

// InterfaceType picks the inventory interface type from the interface name.
func InterfaceType(name string) string {
	// eth* is the common ContainerLab data port, et* is the Arista form
	if len(name) >= 3 && name[:3] == "eth" {
		return "1000base-t"
	}
	if len(name) >= 2 && name[:2] == "et" {
		return "10gbase-x-sfpp"
	}

	return "1000base-t"
}

const (
	CustomFieldAnsibleNetworkOS = "ansible_network_os"

	RoleNetworkDevice = "Network Device"
	RoleHost          = "Host"

	RoleColor = "2196f3"
)

// DeviceRoleForKind matches the original seeding behavior: network OS
// containers are network devices, everything else is a host.
func DeviceRoleForKind(kind string) string {
	if kind == "ceos" {
		return RoleNetworkDevice
	}

	return RoleHost
}
