package inventory

import (
	"context"
)

// Client is the capability boundary to the external inventory system. Every
// Ensure method is get-or-create: lookup by natural key first, create only
// if absent, and tolerate the backend reporting an already existing object.
// Implementations: the NetBox REST adapter in production, Memory in tests.
type Client interface {
	EnsureManufacturer(ctx context.Context, name string) (*Manufacturer, error)
	EnsureDeviceType(ctx context.Context, model string, manufacturerID int) (*DeviceType, error)
	EnsureSite(ctx context.Context, name string) (*Site, error)
	EnsureDeviceRole(ctx context.Context, name string, color string) (*DeviceRole, error)
	EnsureDevice(ctx context.Context, spec DeviceSpec) (*Device, error)
	EnsureInterface(ctx context.Context, spec InterfaceSpec) (*Interface, error)
	EnsureIPAddress(ctx context.Context, spec IPAddressSpec) (*IPAddress, error)
	EnsureVLAN(ctx context.Context, siteID int, vid uint16, name string) (*VLAN, error)
	EnsureCable(ctx context.Context, a, b *Interface) (*Cable, error)
	EnsureCustomField(ctx context.Context, spec CustomFieldSpec) error

	SetPrimaryIP(ctx context.Context, deviceID, ipID int) error
	SetCustomFields(ctx context.Context, deviceID int, fields map[string]any) error
	SetAccessVLAN(ctx context.Context, ifaceID, vlanID int) error
	SetLocalContext(ctx context.Context, deviceID int, data any) error

	// Purge deletes every object this tool manages, children before
	// parents. Lab use only.
	Purge(ctx context.Context) error
}

type Manufacturer struct {
	ID   int
	Name string
	Slug string
}

type DeviceType struct {
	ID             int
	Model          string
	Slug           string
	ManufacturerID int
}

type Site struct {
	ID   int
	Name string
	Slug string
}

type DeviceRole struct {
	ID    int
	Name  string
	Slug  string
	Color string
}

type DeviceSpec struct {
	Name         string
	DeviceTypeID int
	RoleID       int
	SiteID       int
}

type Device struct {
	ID           int
	Name         string
	DeviceTypeID int
	RoleID       int
	SiteID       int
	PrimaryIP4ID int
}

type InterfaceSpec struct {
	DeviceID    int
	DeviceName  string
	Name        string
	Type        string
	Description string
}

type Interface struct {
	ID          int
	DeviceID    int
	DeviceName  string
	Name        string
	Type        string
	Description string
	Cabled      bool
}

type IPAddressSpec struct {
	Address     string // with prefix length
	InterfaceID int
	Description string
}

type IPAddress struct {
	ID          int
	Address     string
	InterfaceID int
}

type VLAN struct {
	ID     int
	SiteID int
	VID    uint16
	Name   string
}

type Cable struct {
	ID int
	A  int // interface IDs
	B  int
}

type CustomFieldSpec struct {
	Name        string
	ObjectTypes []string
	Type        string
	Description string
	Weight      int
}
