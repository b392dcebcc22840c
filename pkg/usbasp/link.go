package usbasp

import (
	"bytes"
	"time"

	"github.com/golang/glog"
)

// Request types (bmRequestType) used by the adapter.
const (
	RequestTypeIn  uint8 = 0x80 | 0x40 // device to host, vendor, device recipient
	RequestTypeOut uint8 = 0x40        // host to device, vendor, device recipient
)

// Vendor requests understood by the firmware.
const (
	FuncSetSerialParams uint8 = 11
	FuncReadSerial      uint8 = 12
	FuncWriteSerial     uint8 = 13
)

// Serial line parameters configured by Init.
const (
	ModeParityNone   uint8 = 1
	ModeBaudRate2400 uint8 = 0x13
)

// DefaultTimeout applies to every control transfer.
const DefaultTimeout = 2 * time.Second

// Handle is an opened device capable of control transfers.
type Handle interface {
	// Control issues a control transfer and returns the number of bytes
	// transferred in the data stage.
	Control(rType, request uint8, val, idx uint16, data []byte, timeout time.Duration) (int, error)
}

// Link performs the serial exchanges over a borrowed Handle.
// Link never closes the Handle.
type Link struct {
	Handle  Handle
	Timeout time.Duration
}

// NewLink creates a Link using DefaultTimeout.
func NewLink(h Handle) *Link {
	return &Link{Handle: h, Timeout: DefaultTimeout}
}

func initReply() []byte {
	return []byte{ModeBaudRate2400, PacketSize, ModeParityNone, 0}
}

// Init configures packet size, baud rate and parity of the serial line.
// The device must echo the parameters back.
func (l *Link) Init() error {
	buf := make([]byte, 4)
	val := uint16(PacketSize)<<8 | uint16(ModeBaudRate2400)
	n, err := l.Handle.Control(RequestTypeIn, FuncSetSerialParams, val, uint16(ModeParityNone), buf, l.Timeout)
	if err != nil {
		return &TransferError{Op: "init", Err: err}
	}
	glog.V(2).Infof("SETUP % x (%d bytes)", buf, n)
	if expected := initReply(); n != len(expected) || !bytes.Equal(buf, expected) {
		if n < 0 || n > len(buf) {
			n = len(buf)
		}
		return &ProtocolMismatch{Op: "init", Expected: expected, Got: buf[:n]}
	}
	return nil
}

// Read requests one packet from the device into p.
// The number of bytes transferred isn't validated, but p is cleared first
// so a short transfer never leaves stale content behind.
func (l *Link) Read(p *Packet) error {
	*p = Packet{}
	n, err := l.Handle.Control(RequestTypeIn, FuncReadSerial, 0, 0, p[:], l.Timeout)
	if err != nil {
		return &TransferError{Op: "read", Err: err}
	}
	if glog.V(2) {
		glog.Infof("READ %s (%d bytes)", p, n)
	}
	return nil
}

// Write sends payload as one packet. Payloads larger than MaxPayloadSize
// are rejected before anything is sent.
func (l *Link) Write(payload []byte) error {
	buf, err := Encode(payload)
	if err != nil {
		return err
	}
	glog.V(2).Infof("WRITE % x", buf)
	if _, err = l.Handle.Control(RequestTypeOut, FuncWriteSerial, 0, 0, buf, l.Timeout); err != nil {
		return &TransferError{Op: "write", Err: err}
	}
	return nil
}
