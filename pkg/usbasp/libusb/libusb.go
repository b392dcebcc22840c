// Package libusb binds usbasp to libusb through gousb.
package libusb

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/google/gousb"

	"github.com/robotalks/usbser/pkg/usbasp"
)

// Context wraps a libusb context. Only one is needed per application and
// it must be closed.
type Context struct {
	ctx *gousb.Context
}

// NewContext creates a libusb context.
func NewContext() *Context {
	return &Context{ctx: gousb.NewContext()}
}

// Close releases the context.
func (c *Context) Close() error {
	return c.ctx.Close()
}

// Devices implements usbasp.Enumerator. Devices are listed without being
// opened.
func (c *Context) Devices() ([]usbasp.Device, error) {
	var devs []usbasp.Device
	_, err := c.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		devs = append(devs, &Device{Desc: desc})
		return false
	})
	// gousb skips the devices with unreadable descriptors and still reports
	// the last error, which is only fatal if nothing got listed.
	if err != nil {
		if len(devs) == 0 {
			return nil, err
		}
		glog.V(1).Infof("enumerate devices partially failed: %v", err)
	}
	return devs, nil
}

// Open opens dev, which must have been returned by Devices.
func (c *Context) Open(dev usbasp.Device) (*Handle, error) {
	d, ok := dev.(*Device)
	if !ok {
		return nil, fmt.Errorf("not a libusb device: %T", dev)
	}
	opened, err := c.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Bus == d.Desc.Bus && desc.Address == d.Desc.Address
	})
	if len(opened) == 0 {
		if err == nil {
			err = usbasp.ErrDeviceNotFound
		}
		return nil, err
	}
	for _, o := range opened[1:] {
		o.Close()
	}
	glog.V(1).Infof("opened %s", d)
	return &Handle{Device: opened[0]}, nil
}

// Device is an enumerated libusb device.
type Device struct {
	Desc *gousb.DeviceDesc
}

// Descriptor implements usbasp.Device.
func (d *Device) Descriptor() (usbasp.Identity, error) {
	if d.Desc == nil {
		return usbasp.Identity{}, fmt.Errorf("missing descriptor")
	}
	return usbasp.Identity{
		Vendor:  usbasp.ID(d.Desc.Vendor),
		Product: usbasp.ID(d.Desc.Product),
	}, nil
}

// String implements fmt.Stringer.
func (d *Device) String() string {
	if d.Desc == nil {
		return "<unknown>"
	}
	return fmt.Sprintf("bus %d address %d (%s:%s)", d.Desc.Bus, d.Desc.Address, d.Desc.Vendor, d.Desc.Product)
}

// Handle is an opened device implementing usbasp.Handle.
type Handle struct {
	Device *gousb.Device
}

// Control implements usbasp.Handle.
func (h *Handle) Control(rType, request uint8, val, idx uint16, data []byte, timeout time.Duration) (int, error) {
	h.Device.ControlTimeout = timeout
	return h.Device.Control(rType, request, val, idx, data)
}

// Close closes the device.
func (h *Handle) Close() error {
	return h.Device.Close()
}
