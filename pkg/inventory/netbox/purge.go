package netbox

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/pkg/errors"
)

// purgeOrder lists the API endpoints to empty, children strictly before
// parents so deletes never trip referential integrity.
var purgeOrder = []struct {
	path  string
	label string
}{
	{"ipam/ip-addresses/", "IP Addresses"},
	{"ipam/prefixes/", "Prefixes"},
	{"ipam/vlans/", "VLANs"},
	{"ipam/vlan-groups/", "VLAN Groups"},
	{"ipam/vrfs/", "VRFs"},

	{"dcim/cables/", "Cables"},
	{"dcim/interfaces/", "Interfaces"},
	{"dcim/devices/", "Devices"},
	{"dcim/sites/", "Sites"},
	{"dcim/device-types/", "Device Types"},
	{"dcim/manufacturers/", "Manufacturers"},
	{"dcim/device-roles/", "Device Roles"},

	{"extras/custom-fields/", "Custom Fields"},
	{"extras/tags/", "Tags"},
}

// Purge deletes everything in the inventory, in dependency order. It is as
// dangerous as it sounds and exists only for lab iteration, callers are
// expected to have confirmed the operation.
func (c *Client) Purge(ctx context.Context) error {
	for _, family := range purgeOrder {
		count, err := c.purgeFamily(ctx, family.path)
		if err != nil {
			return errors.Wrapf(err, "error purging %s", family.label)
		}

		if count > 0 {
			slog.Info("Purged", "objects", family.label, "count", count)
		}
	}

	return nil
}

func (c *Client) purgeFamily(ctx context.Context, path string) (int, error) {
	deleted := 0

	// re-list after every pass, deletes can cascade
	for {
		found := list[ref]{}
		if err := c.get(ctx, path, url.Values{"limit": []string{"100"}}, &found); err != nil {
			return deleted, errors.Wrap(err, "error listing objects")
		}
		if len(found.Results) == 0 {
			return deleted, nil
		}

		for _, obj := range found.Results {
			if err := c.delete(ctx, fmt.Sprintf("%s%d/", path, obj.ID)); err != nil {
				return deleted, errors.Wrapf(err, "error deleting object %d", obj.ID)
			}
			deleted++
		}
	}
}
