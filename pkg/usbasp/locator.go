package usbasp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/glog"
)

// ID is a USB vendor or product identifier.
type ID uint16

// String implements fmt.Stringer.
func (id ID) String() string {
	return fmt.Sprintf("%04x", uint16(id))
}

// Identity is the vendor/product pair identifying a device model.
type Identity struct {
	Vendor  ID
	Product ID
}

// AdapterIdentity identifies the serial adapter.
var AdapterIdentity = Identity{Vendor: 0x16c0, Product: 0x05dc}

// ParseIdentity parses the VID:PID form, e.g. "16c0:05dc".
func ParseIdentity(s string) (id Identity, err error) {
	tokens := strings.Split(s, ":")
	if len(tokens) != 2 {
		return id, fmt.Errorf("invalid device identity %q, expect VID:PID", s)
	}
	vid, err := strconv.ParseUint(tokens[0], 16, 16)
	if err != nil {
		return id, fmt.Errorf("invalid vendor id %q: %v", tokens[0], err)
	}
	pid, err := strconv.ParseUint(tokens[1], 16, 16)
	if err != nil {
		return id, fmt.Errorf("invalid product id %q: %v", tokens[1], err)
	}
	return Identity{Vendor: ID(vid), Product: ID(pid)}, nil
}

// String implements fmt.Stringer.
func (id Identity) String() string {
	return id.Vendor.String() + ":" + id.Product.String()
}

// Device is an enumerated, not yet opened, USB device.
type Device interface {
	// Descriptor reads the identity from the device descriptor.
	Descriptor() (Identity, error)
}

// Enumerator lists attached USB devices.
type Enumerator interface {
	Devices() ([]Device, error)
}

// FindDevice returns the first attached adapter.
func FindDevice(e Enumerator) (Device, error) {
	return FindDeviceByID(e, AdapterIdentity)
}

// FindDeviceByID returns the first attached device matching id.
// Devices whose descriptor can't be read are skipped. Nothing is opened.
func FindDeviceByID(e Enumerator, id Identity) (Device, error) {
	devs, err := e.Devices()
	if err != nil {
		glog.V(1).Infof("enumerate devices error: %v", err)
		return nil, ErrDeviceNotFound
	}
	for n, dev := range devs {
		desc, err := dev.Descriptor()
		if err != nil {
			glog.V(1).Infof("device %d: read descriptor error: %v", n, err)
			continue
		}
		if desc == id {
			return dev, nil
		}
	}
	return nil, ErrDeviceNotFound
}
