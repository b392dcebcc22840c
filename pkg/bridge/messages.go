package bridge

import (
	"sync"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
)

// AppID salts the machine id so the raw id is never published.
const AppID = "usbser"

// PacketEvent is published for every packet read from the adapter.
type PacketEvent struct {
	HostID    string `protobuf:"bytes,1,opt,name=host_id,proto3" json:"host_id,omitempty"`
	Seq       uint64 `protobuf:"varint,2,opt,name=seq,proto3" json:"seq,omitempty"`
	Timestamp int64  `protobuf:"varint,3,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	Payload   []byte `protobuf:"bytes,4,opt,name=payload,proto3" json:"payload,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *PacketEvent) ProtoMessage() {}

// Reset implements proto.Message.
func (m *PacketEvent) Reset() { *m = PacketEvent{} }

// String implements proto.Message.
func (m *PacketEvent) String() string { return proto.CompactTextString(m) }

// UnmarshalPacketEvent decodes an event.
func UnmarshalPacketEvent(data []byte) (*PacketEvent, error) {
	var ev PacketEvent
	if err := proto.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

var (
	hostID     string
	hostIDOnce sync.Once
)

// HostID identifies this machine in published events.
// It's empty if the machine id isn't available.
func HostID() string {
	hostIDOnce.Do(func() {
		id, err := machineid.ProtectedID(AppID)
		if err != nil {
			glog.Warningf("machine id unavailable: %v", err)
			return
		}
		hostID = id
	})
	return hostID
}

// NewPacketEvent creates an event for payload, which is copied.
func NewPacketEvent(seq uint64, payload []byte) *PacketEvent {
	return &PacketEvent{
		HostID:    HostID(),
		Seq:       seq,
		Timestamp: time.Now().UnixNano(),
		Payload:   append([]byte(nil), payload...),
	}
}
