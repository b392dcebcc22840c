package usbasp

import "fmt"

const (
	// PacketSize is the size of a packet on the wire.
	PacketSize = 8
	// MaxPayloadSize is the largest payload a packet can carry.
	MaxPayloadSize = PacketSize - 1
)

// Packet is the fixed size unit exchanged with the adapter.
// Byte 0 is the payload length, followed by the payload.
type Packet [PacketSize]byte

// NewPacket builds a packet carrying payload.
func NewPacket(payload []byte) (*Packet, error) {
	if len(payload) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}
	p := &Packet{byte(len(payload))}
	copy(p[1:], payload)
	return p, nil
}

// Len returns the payload length, clamped to MaxPayloadSize.
func (p *Packet) Len() int {
	if l := int(p[0]); l < MaxPayloadSize {
		return l
	}
	return MaxPayloadSize
}

// Valid reports whether the declared length fits in the packet.
func (p *Packet) Valid() bool {
	return p[0] <= MaxPayloadSize
}

// Payload returns the payload. See Decode.
func (p *Packet) Payload() []byte {
	return Decode(p)
}

// String implements fmt.Stringer.
func (p *Packet) String() string {
	return fmt.Sprintf("[%d] % x", p[0], p.Payload())
}

// Decode returns the payload of the packet without copying.
// The returned slice shares storage with p and is only valid as long as p
// isn't modified. A declared length beyond MaxPayloadSize is clamped.
func Decode(p *Packet) []byte {
	return p[1 : 1+p.Len()]
}

// Encode builds the wire buffer for payload: the length byte followed by
// the payload.
func Encode(payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}
	b := make([]byte, len(payload)+1)
	b[0] = byte(len(payload))
	copy(b[1:], payload)
	return b, nil
}
