package netbox

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rbmacd/frey/pkg/inventory"
)

// Client is the NetBox REST adapter behind the inventory.Client capability
// interface. Every Ensure call is a filtered list lookup followed by a
// create only when nothing matched; a create that races with another writer
// and comes back as a duplicate is resolved by re-running the lookup.
type Client struct {
	base  string
	token string
	http  *http.Client
}

var _ inventory.Client = &Client{}

func New(baseURL, token string, insecureSkipVerify bool) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("netbox url is required")
	}
	if token == "" {
		return nil, errors.New("netbox api token is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing netbox url %q", baseURL)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return &Client{
		base:  strings.TrimSuffix(parsed.String(), "/"),
		token: token,
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}, nil
}

// Ping verifies connectivity and credentials with a cheap list call.
func (c *Client) Ping(ctx context.Context) error {
	var out list[site]

	return errors.Wrap(c.get(ctx, "dcim/sites/", url.Values{"limit": []string{"1"}}, &out), "error reaching netbox")
}

type list[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

type ref struct {
	ID int `json:"id"`
}

type manufacturer struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type deviceType struct {
	ID           int    `json:"id,omitempty"`
	Model        string `json:"model"`
	Slug         string `json:"slug"`
	Manufacturer any    `json:"manufacturer,omitempty"` // id on write, object on read
}

type site struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type deviceRole struct {
	ID    int    `json:"id,omitempty"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color,omitempty"`
}

type device struct {
	ID         int    `json:"id,omitempty"`
	Name       string `json:"name"`
	DeviceType any    `json:"device_type,omitempty"`
	Role       any    `json:"role,omitempty"`
	Site       any    `json:"site,omitempty"`
	PrimaryIP4 *ref   `json:"primary_ip4,omitempty"`
}

type iface struct {
	ID          int    `json:"id,omitempty"`
	Device      any    `json:"device,omitempty"`
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Cable       *ref   `json:"cable,omitempty"`
}

type ipAddress struct {
	ID                 int    `json:"id,omitempty"`
	Address            string `json:"address"`
	AssignedObjectType string `json:"assigned_object_type,omitempty"`
	AssignedObjectID   int    `json:"assigned_object_id,omitempty"`
	Description        string `json:"description,omitempty"`
}

type vlan struct {
	ID   int    `json:"id,omitempty"`
	Site any    `json:"site,omitempty"`
	VID  uint16 `json:"vid"`
	Name string `json:"name"`
}

type termination struct {
	ObjectType string `json:"object_type"`
	ObjectID   int    `json:"object_id"`
}

type cable struct {
	ID            int           `json:"id,omitempty"`
	ATerminations []termination `json:"a_terminations,omitempty"`
	BTerminations []termination `json:"b_terminations,omitempty"`
}

type customField struct {
	ID          int      `json:"id,omitempty"`
	Name        string   `json:"name"`
	ObjectTypes []string `json:"object_types,omitempty"`
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Weight      int      `json:"weight,omitempty"`
}

func (c *Client) EnsureManufacturer(ctx context.Context, name string) (*inventory.Manufacturer, error) {
	obj, err := ensure(ctx, c, "dcim/manufacturers/",
		url.Values{"name": []string{name}},
		manufacturer{Name: name, Slug: slugify(name)})
	if err != nil {
		return nil, errors.Wrapf(err, "error ensuring manufacturer %s", name)
	}

	return &inventory.Manufacturer{ID: obj.ID, Name: obj.Name, Slug: obj.Slug}, nil
}

func (c *Client) EnsureDeviceType(ctx context.Context, model string, manufacturerID int) (*inventory.DeviceType, error) {
	obj, err := ensure(ctx, c, "dcim/device-types/",
		url.Values{"model": []string{model}},
		deviceType{Model: model, Slug: slugify(model), Manufacturer: manufacturerID})
	if err != nil {
		return nil, errors.Wrapf(err, "error ensuring device type %s", model)
	}

	return &inventory.DeviceType{ID: obj.ID, Model: obj.Model, Slug: obj.Slug, ManufacturerID: manufacturerID}, nil
}

func (c *Client) EnsureSite(ctx context.Context, name string) (*inventory.Site, error) {
	obj, err := ensure(ctx, c, "dcim/sites/",
		url.Values{"name": []string{name}},
		site{Name: name, Slug: slugify(name)})
	if err != nil {
		return nil, errors.Wrapf(err, "error ensuring site %s", name)
	}

	return &inventory.Site{ID: obj.ID, Name: obj.Name, Slug: obj.Slug}, nil
}

func (c *Client) EnsureDeviceRole(ctx context.Context, name string, color string) (*inventory.DeviceRole, error) {
	obj, err := ensure(ctx, c, "dcim/device-roles/",
		url.Values{"name": []string{name}},
		deviceRole{Name: name, Slug: slugify(name), Color: color})
	if err != nil {
		return nil, errors.Wrapf(err, "error ensuring device role %s", name)
	}

	return &inventory.DeviceRole{ID: obj.ID, Name: obj.Name, Slug: obj.Slug, Color: obj.Color}, nil
}

func (c *Client) EnsureDevice(ctx context.Context, spec inventory.DeviceSpec) (*inventory.Device, error) {
	obj, err := ensure(ctx, c, "dcim/devices/",
		url.Values{"name": []string{spec.Name}},
		device{
			Name:       spec.Name,
			DeviceType: spec.DeviceTypeID,
			Role:       spec.RoleID,
			Site:       spec.SiteID,
		})
	if err != nil {
		return nil, errors.Wrapf(err, "error ensuring device %s", spec.Name)
	}

	ret := &inventory.Device{
		ID:           obj.ID,
		Name:         obj.Name,
		DeviceTypeID: spec.DeviceTypeID,
		RoleID:       spec.RoleID,
		SiteID:       spec.SiteID,
	}
	if obj.PrimaryIP4 != nil {
		ret.PrimaryIP4ID = obj.PrimaryIP4.ID
	}

	return ret, nil
}

func (c *Client) EnsureInterface(ctx context.Context, spec inventory.InterfaceSpec) (*inventory.Interface, error) {
	obj, err := ensure(ctx, c, "dcim/interfaces/",
		url.Values{
			"device_id": []string{fmt.Sprintf("%d", spec.DeviceID)},
			"name":      []string{spec.Name},
		},
		iface{
			Device:      spec.DeviceID,
			Name:        spec.Name,
			Type:        spec.Type,
			Description: spec.Description,
		})
	if err != nil {
		return nil, errors.Wrapf(err, "error ensuring interface %s:%s", spec.DeviceName, spec.Name)
	}

	return &inventory.Interface{
		ID:          obj.ID,
		DeviceID:    spec.DeviceID,
		DeviceName:  spec.DeviceName,
		Name:        obj.Name,
		Type:        obj.Type,
		Description: obj.Description,
		Cabled:      obj.Cable != nil,
	}, nil
}

func (c *Client) EnsureIPAddress(ctx context.Context, spec inventory.IPAddressSpec) (*inventory.IPAddress, error) {
	obj, err := ensure(ctx, c, "ipam/ip-addresses/",
		url.Values{"address": []string{spec.Address}},
		ipAddress{
			Address:            spec.Address,
			AssignedObjectType: "dcim.interface",
			AssignedObjectID:   spec.InterfaceID,
			Description:        spec.Description,
		})
	if err != nil {
		return nil, errors.Wrapf(err, "error ensuring ip address %s", spec.Address)
	}

	return &inventory.IPAddress{ID: obj.ID, Address: obj.Address, InterfaceID: spec.InterfaceID}, nil
}

func (c *Client) EnsureVLAN(ctx context.Context, siteID int, vid uint16, name string) (*inventory.VLAN, error) {
	obj, err := ensure(ctx, c, "ipam/vlans/",
		url.Values{
			"vid":     []string{fmt.Sprintf("%d", vid)},
			"site_id": []string{fmt.Sprintf("%d", siteID)},
		},
		vlan{Site: siteID, VID: vid, Name: name})
	if err != nil {
		return nil, errors.Wrapf(err, "error ensuring vlan %d", vid)
	}

	return &inventory.VLAN{ID: obj.ID, SiteID: siteID, VID: obj.VID, Name: obj.Name}, nil
}

func (c *Client) EnsureCable(ctx context.Context, a, b *inventory.Interface) (*inventory.Cable, error) {
	if a.Cabled || b.Cabled {
		return nil, nil
	}

	obj := cable{
		ATerminations: []termination{{ObjectType: "dcim.interface", ObjectID: a.ID}},
		BTerminations: []termination{{ObjectType: "dcim.interface", ObjectID: b.ID}},
	}

	created := cable{}
	if err := c.post(ctx, "dcim/cables/", obj, &created); err != nil {
		return nil, errors.Wrapf(err, "error creating cable %s:%s <-> %s:%s", a.DeviceName, a.Name, b.DeviceName, b.Name)
	}

	a.Cabled = true
	b.Cabled = true

	return &inventory.Cable{ID: created.ID, A: a.ID, B: b.ID}, nil
}

func (c *Client) EnsureCustomField(ctx context.Context, spec inventory.CustomFieldSpec) error {
	_, err := ensure(ctx, c, "extras/custom-fields/",
		url.Values{"name": []string{spec.Name}},
		customField{
			Name:        spec.Name,
			ObjectTypes: spec.ObjectTypes,
			Type:        spec.Type,
			Description: spec.Description,
			Weight:      spec.Weight,
		})

	return errors.Wrapf(err, "error ensuring custom field %s", spec.Name)
}

func (c *Client) SetPrimaryIP(ctx context.Context, deviceID, ipID int) error {
	return errors.Wrapf(c.patch(ctx, fmt.Sprintf("dcim/devices/%d/", deviceID), map[string]any{
		"primary_ip4": ipID,
	}), "error setting primary ip for device %d", deviceID)
}

func (c *Client) SetCustomFields(ctx context.Context, deviceID int, fields map[string]any) error {
	return errors.Wrapf(c.patch(ctx, fmt.Sprintf("dcim/devices/%d/", deviceID), map[string]any{
		"custom_fields": fields,
	}), "error setting custom fields for device %d", deviceID)
}

func (c *Client) SetAccessVLAN(ctx context.Context, ifaceID, vlanID int) error {
	return errors.Wrapf(c.patch(ctx, fmt.Sprintf("dcim/interfaces/%d/", ifaceID), map[string]any{
		"mode":          "access",
		"untagged_vlan": vlanID,
	}), "error setting access vlan on interface %d", ifaceID)
}

func (c *Client) SetLocalContext(ctx context.Context, deviceID int, data any) error {
	return errors.Wrapf(c.patch(ctx, fmt.Sprintf("dcim/devices/%d/", deviceID), map[string]any{
		"local_context_data": data,
	}), "error setting local context for device %d", deviceID)
}

// ensure implements the find / create-if-absent idiom shared by every object
// kind. A 400 from the create is treated as a possible duplicate report and
// resolved with one more lookup before giving up.
func ensure[T any](ctx context.Context, c *Client, path string, filter url.Values, create T) (*T, error) {
	found := list[T]{}
	if err := c.get(ctx, path, filter, &found); err != nil {
		return nil, errors.Wrap(err, "error looking up object")
	}
	// trust the results page, not the reported count
	if len(found.Results) > 0 {
		return &found.Results[0], nil
	}

	created := new(T)
	err := c.post(ctx, path, create, created)
	if err == nil {
		return created, nil
	}

	if !isConflict(err) {
		return nil, errors.Wrap(err, "error creating object")
	}

	// someone else created it first, look it up again
	if lookupErr := c.get(ctx, path, filter, &found); lookupErr == nil && len(found.Results) > 0 {
		return &found.Results[0], nil
	}

	return nil, errors.Wrap(err, "error creating object")
}

type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("netbox api status %d: %s", e.Status, e.Body)
}

func isConflict(err error) bool {
	apiErr := &apiError{}

	return errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.base + "/api/" + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	return c.do(ctx, http.MethodGet, target, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, c.base+"/api/"+path, body, out)
}

func (c *Client) patch(ctx context.Context, path string, body any) error {
	return c.do(ctx, http.MethodPatch, c.base+"/api/"+path, body, nil)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, c.base+"/api/"+path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "error marshaling request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return errors.Wrap(err, "error creating request")
	}

	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "error calling %s %s", method, target)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return errors.Wrap(err, "error reading response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apiError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return errors.Wrap(err, "error unmarshaling response body")
		}
	}

	return nil
}

func slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}
