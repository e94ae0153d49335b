package inventory

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Memory is an in-memory Client used in tests and dry runs. It mirrors the
// get-or-create semantics of the real backend, including refusing duplicate
// creates, so the reconciler can be exercised without any network.
type Memory struct {
	mutex  sync.Mutex
	nextID int

	Manufacturers []*Manufacturer
	DeviceTypes   []*DeviceType
	Sites         []*Site
	Roles         []*DeviceRole
	Devices       []*Device
	Interfaces    []*Interface
	IPs           []*IPAddress
	VLANs         []*VLAN
	Cables        []*Cable
	CustomFields  []*CustomFieldSpec

	DeviceCustomFields map[int]map[string]any
	LocalContexts      map[int]any
	AccessVLANs        map[int]int // interface ID -> VLAN object ID
}

var _ Client = &Memory{}

func NewMemory() *Memory {
	return &Memory{
		DeviceCustomFields: map[int]map[string]any{},
		LocalContexts:      map[int]any{},
		AccessVLANs:        map[int]int{},
	}
}

func (m *Memory) id() int {
	m.nextID++

	return m.nextID
}

func (m *Memory) EnsureManufacturer(_ context.Context, name string) (*Manufacturer, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, obj := range m.Manufacturers {
		if obj.Name == name {
			return obj, nil
		}
	}

	obj := &Manufacturer{ID: m.id(), Name: name, Slug: slugify(name)}
	m.Manufacturers = append(m.Manufacturers, obj)

	return obj, nil
}

func (m *Memory) EnsureDeviceType(_ context.Context, model string, manufacturerID int) (*DeviceType, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, obj := range m.DeviceTypes {
		if obj.Model == model {
			return obj, nil
		}
	}

	obj := &DeviceType{ID: m.id(), Model: model, Slug: slugify(model), ManufacturerID: manufacturerID}
	m.DeviceTypes = append(m.DeviceTypes, obj)

	return obj, nil
}

func (m *Memory) EnsureSite(_ context.Context, name string) (*Site, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, obj := range m.Sites {
		if obj.Name == name {
			return obj, nil
		}
	}

	obj := &Site{ID: m.id(), Name: name, Slug: slugify(name)}
	m.Sites = append(m.Sites, obj)

	return obj, nil
}

func (m *Memory) EnsureDeviceRole(_ context.Context, name string, color string) (*DeviceRole, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, obj := range m.Roles {
		if obj.Name == name {
			return obj, nil
		}
	}

	obj := &DeviceRole{ID: m.id(), Name: name, Slug: slugify(name), Color: color}
	m.Roles = append(m.Roles, obj)

	return obj, nil
}

func (m *Memory) EnsureDevice(_ context.Context, spec DeviceSpec) (*Device, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, obj := range m.Devices {
		if obj.Name == spec.Name {
			return obj, nil
		}
	}

	obj := &Device{
		ID:           m.id(),
		Name:         spec.Name,
		DeviceTypeID: spec.DeviceTypeID,
		RoleID:       spec.RoleID,
		SiteID:       spec.SiteID,
	}
	m.Devices = append(m.Devices, obj)

	return obj, nil
}

func (m *Memory) EnsureInterface(_ context.Context, spec InterfaceSpec) (*Interface, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, obj := range m.Interfaces {
		if obj.DeviceID == spec.DeviceID && obj.Name == spec.Name {
			return obj, nil
		}
	}

	obj := &Interface{
		ID:          m.id(),
		DeviceID:    spec.DeviceID,
		DeviceName:  spec.DeviceName,
		Name:        spec.Name,
		Type:        spec.Type,
		Description: spec.Description,
	}
	m.Interfaces = append(m.Interfaces, obj)

	return obj, nil
}

func (m *Memory) EnsureIPAddress(_ context.Context, spec IPAddressSpec) (*IPAddress, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, obj := range m.IPs {
		if obj.Address == spec.Address {
			return obj, nil
		}
	}

	obj := &IPAddress{ID: m.id(), Address: spec.Address, InterfaceID: spec.InterfaceID}
	m.IPs = append(m.IPs, obj)

	return obj, nil
}

func (m *Memory) EnsureVLAN(_ context.Context, siteID int, vid uint16, name string) (*VLAN, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, obj := range m.VLANs {
		if obj.SiteID == siteID && obj.VID == vid {
			return obj, nil
		}
	}

	obj := &VLAN{ID: m.id(), SiteID: siteID, VID: vid, Name: name}
	m.VLANs = append(m.VLANs, obj)

	return obj, nil
}

func (m *Memory) EnsureCable(_ context.Context, a, b *Interface) (*Cable, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if a.Cabled || b.Cabled {
		for _, obj := range m.Cables {
			if obj.A == a.ID && obj.B == b.ID || obj.A == b.ID && obj.B == a.ID {
				return obj, nil
			}
		}

		return nil, errors.Errorf("interface already cabled elsewhere")
	}

	obj := &Cable{ID: m.id(), A: a.ID, B: b.ID}
	m.Cables = append(m.Cables, obj)
	a.Cabled = true
	b.Cabled = true

	return obj, nil
}

func (m *Memory) EnsureCustomField(_ context.Context, spec CustomFieldSpec) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, obj := range m.CustomFields {
		if obj.Name == spec.Name {
			return nil
		}
	}

	m.CustomFields = append(m.CustomFields, &spec)

	return nil
}

func (m *Memory) SetPrimaryIP(_ context.Context, deviceID, ipID int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, obj := range m.Devices {
		if obj.ID == deviceID {
			obj.PrimaryIP4ID = ipID

			return nil
		}
	}

	return errors.Errorf("device %d not found", deviceID)
}

func (m *Memory) SetCustomFields(_ context.Context, deviceID int, fields map[string]any) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	current := m.DeviceCustomFields[deviceID]
	if current == nil {
		current = map[string]any{}
		m.DeviceCustomFields[deviceID] = current
	}
	for name, value := range fields {
		current[name] = value
	}

	return nil
}

func (m *Memory) SetAccessVLAN(_ context.Context, ifaceID, vlanID int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.AccessVLANs[ifaceID] = vlanID

	return nil
}

func (m *Memory) SetLocalContext(_ context.Context, deviceID int, data any) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.LocalContexts[deviceID] = data

	return nil
}

func (m *Memory) Purge(_ context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.Manufacturers = nil
	m.DeviceTypes = nil
	m.Sites = nil
	m.Roles = nil
	m.Devices = nil
	m.Interfaces = nil
	m.IPs = nil
	m.VLANs = nil
	m.Cables = nil
	m.CustomFields = nil
	m.DeviceCustomFields = map[int]map[string]any{}
	m.LocalContexts = map[int]any{}
	m.AccessVLANs = map[int]int{}

	return nil
}

func (m *Memory) InterfaceFor(device, name string) *Interface {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, obj := range m.Interfaces {
		if obj.DeviceName == device && obj.Name == name {
			return obj
		}
	}

	return nil
}

func slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}
