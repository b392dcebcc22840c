package bridge

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func TestWebsocketSink(t *testing.T) {
	recvCh := make(chan []byte, 1)
	server := httptest.NewServer(websocket.Handler(func(conn *websocket.Conn) {
		var data []byte
		if err := websocket.Message.Receive(conn, &data); err == nil {
			recvCh <- data
		}
	}))
	defer server.Close()

	sink, err := NewSink("ws" + strings.TrimPrefix(server.URL, "http"))
	require.NoError(t, err)
	defer sink.Close()
	require.IsType(t, &WebsocketSink{}, sink)

	ev := &PacketEvent{HostID: "h", Seq: 3, Payload: []byte{0xff}}
	require.NoError(t, sink.Publish(ev))
	decoded, err := UnmarshalPacketEvent(<-recvCh)
	require.NoError(t, err)
	require.Equal(t, ev, decoded)
}
