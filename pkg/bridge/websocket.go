package bridge

import (
	"net/url"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
	"golang.org/x/net/websocket"
)

// WebsocketSink sends each event as one binary websocket message.
type WebsocketSink struct {
	Conn *websocket.Conn
}

// DialWebsocket connects to a websocket endpoint.
func DialWebsocket(wsURL string) (*WebsocketSink, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}
	origin := "http://" + u.Host
	if u.Scheme == "wss" {
		origin = "https://" + u.Host
	}
	conn, err := websocket.Dial(wsURL, "", origin)
	if err != nil {
		return nil, err
	}
	glog.Infof("bridge connected %s", wsURL)
	return &WebsocketSink{Conn: conn}, nil
}

// Publish implements Sink.
func (s *WebsocketSink) Publish(ev *PacketEvent) error {
	data, err := proto.Marshal(ev)
	if err != nil {
		return err
	}
	return websocket.Message.Send(s.Conn, data)
}

// Close implements io.Closer.
func (s *WebsocketSink) Close() error {
	return s.Conn.Close()
}
