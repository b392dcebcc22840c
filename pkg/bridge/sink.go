package bridge

import (
	"fmt"
	"io"
	"net/url"
)

// Sink receives copies of the packets read from the adapter.
type Sink interface {
	io.Closer
	Publish(*PacketEvent) error
}

// NewSink creates a Sink from URL.
func NewSink(sinkURL string) (Sink, error) {
	u, err := url.Parse(sinkURL)
	if err != nil {
		return nil, fmt.Errorf("invalid bridge URL: %v", err)
	}
	switch u.Scheme {
	case "mqtt", "tcp", "ssl":
		return NewMQTTSinkFromURL(sinkURL)
	case "ws", "wss":
		return DialWebsocket(sinkURL)
	default:
		return nil, fmt.Errorf("unknown bridge URL scheme: %q", u.Scheme)
	}
}
