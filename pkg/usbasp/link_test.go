package usbasp

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type controlCall struct {
	rType   uint8
	request uint8
	val     uint16
	idx     uint16
	data    []byte
	timeout time.Duration
}

type fakeHandle struct {
	calls []controlCall
	reply []byte
	n     int
	err   error
}

func (h *fakeHandle) Control(rType, request uint8, val, idx uint16, data []byte, timeout time.Duration) (int, error) {
	h.calls = append(h.calls, controlCall{
		rType:   rType,
		request: request,
		val:     val,
		idx:     idx,
		data:    append([]byte(nil), data...),
		timeout: timeout,
	})
	if h.err != nil {
		return 0, h.err
	}
	if rType&0x80 != 0 {
		copy(data, h.reply)
		return h.n, nil
	}
	return len(data), nil
}

func TestLinkInit(t *testing.T) {
	testCases := []struct {
		name  string
		reply []byte
		n     int
		ok    bool
	}{
		{"echo", []byte{0x13, 8, 1, 0}, 4, true},
		{"wrong baud", []byte{0x14, 8, 1, 0}, 4, false},
		{"wrong size", []byte{0x13, 7, 1, 0}, 4, false},
		{"wrong parity", []byte{0x13, 8, 2, 0}, 4, false},
		{"wrong tail", []byte{0x13, 8, 1, 1}, 4, false},
		{"short", []byte{0x13, 8, 1, 0}, 3, false},
		{"empty", nil, 0, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := &fakeHandle{reply: tc.reply, n: tc.n}
			err := NewLink(h).Init()
			if tc.ok {
				require.NoError(t, err)
			} else {
				var mismatch *ProtocolMismatch
				require.True(t, errors.As(err, &mismatch))
				require.Equal(t, []byte{0x13, 8, 1, 0}, mismatch.Expected)
			}
			require.Len(t, h.calls, 1)
			call := h.calls[0]
			require.Equal(t, uint8(0xc0), call.rType)
			require.Equal(t, uint8(11), call.request)
			require.Equal(t, uint16(0x0813), call.val)
			require.Equal(t, uint16(1), call.idx)
			require.Len(t, call.data, 4)
			require.Equal(t, 2*time.Second, call.timeout)
		})
	}
}

func TestLinkInitTimeout(t *testing.T) {
	cause := errors.New("timeout")
	h := &fakeHandle{err: cause}
	err := NewLink(h).Init()
	var te *TransferError
	require.True(t, errors.As(err, &te))
	require.Equal(t, "init", te.Op)
	require.True(t, errors.Is(err, cause))
}

func TestLinkRead(t *testing.T) {
	h := &fakeHandle{reply: []byte{3, 65, 66, 67, 0, 0, 0, 0}, n: 8}
	var p Packet
	require.NoError(t, NewLink(h).Read(&p))
	require.Equal(t, []byte{65, 66, 67}, p.Payload())
	require.Len(t, h.calls, 1)
	call := h.calls[0]
	require.Equal(t, uint8(0xc0), call.rType)
	require.Equal(t, uint8(12), call.request)
	require.Equal(t, uint16(0), call.val)
	require.Equal(t, uint16(0), call.idx)
	require.Len(t, call.data, PacketSize)
}

func TestLinkReadShortClearsPacket(t *testing.T) {
	h := &fakeHandle{}
	p := Packet{3, 1, 2, 3}
	require.NoError(t, NewLink(h).Read(&p))
	require.Empty(t, p.Payload())
}

func TestLinkReadError(t *testing.T) {
	h := &fakeHandle{err: errors.New("pipe")}
	var p Packet
	err := NewLink(h).Read(&p)
	var te *TransferError
	require.True(t, errors.As(err, &te))
	require.Equal(t, "read", te.Op)
}

func TestLinkWrite(t *testing.T) {
	h := &fakeHandle{}
	link := &Link{Handle: h, Timeout: time.Second}
	require.NoError(t, link.Write([]byte("hi")))
	require.NoError(t, link.Write(nil))
	require.Len(t, h.calls, 2)
	call := h.calls[0]
	require.Equal(t, uint8(0x40), call.rType)
	require.Equal(t, uint8(13), call.request)
	require.Equal(t, uint16(0), call.val)
	require.Equal(t, uint16(0), call.idx)
	require.Equal(t, []byte{2, 'h', 'i'}, call.data)
	require.Equal(t, time.Second, call.timeout)
	require.Equal(t, []byte{0}, h.calls[1].data)
}

func TestLinkWriteTooLarge(t *testing.T) {
	h := &fakeHandle{}
	err := NewLink(h).Write([]byte("12345678"))
	require.Equal(t, ErrPayloadTooLarge, err)
	require.Empty(t, h.calls)
}

func TestLinkWriteError(t *testing.T) {
	cause := errors.New("no device")
	h := &fakeHandle{err: cause}
	err := NewLink(h).Write([]byte{1})
	require.True(t, errors.Is(err, cause))
}
