// Package session drives an adapter interactively: it serializes the
// exchanges on one Link, renders what is read and mirrors it to bridge
// sinks.
package session

import (
	"bufio"
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/usbser/pkg/bridge"
	"github.com/robotalks/usbser/pkg/usbasp"
)

// Session owns the display state of one adapter connection.
type Session struct {
	Link *usbasp.Link

	lock        sync.Mutex
	formatter   usbasp.Formatter
	pos         int
	initialized bool
	warned      bool
	sinks       []bridge.Sink
	seq         uint64
}

// New creates a Session printing to w.
func New(link *usbasp.Link, w io.Writer) *Session {
	return &Session{
		Link:      link,
		formatter: usbasp.Formatter{Writer: bufio.NewWriter(w), Mode: usbasp.ASCII},
	}
}

// AddSink adds a sink receiving every non-empty packet read.
func (s *Session) AddSink(sink bridge.Sink) {
	s.lock.Lock()
	s.sinks = append(s.sinks, sink)
	s.lock.Unlock()
}

// Close closes all sinks. The device handle is not touched.
func (s *Session) Close() error {
	s.lock.Lock()
	sinks := s.sinks
	s.sinks = nil
	s.lock.Unlock()
	var firstErr error
	for _, sink := range sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Init configures the serial line of the adapter.
func (s *Session) Init() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	err := s.Link.Init()
	s.initialized = err == nil
	return err
}

// Initialized reports whether the last Init succeeded.
func (s *Session) Initialized() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.initialized
}

// Mode returns the display mode.
func (s *Session) Mode() usbasp.DisplayMode {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.formatter.Mode
}

// SetMode changes the display mode.
func (s *Session) SetMode(mode usbasp.DisplayMode) {
	s.lock.Lock()
	s.formatter.Mode = mode
	s.lock.Unlock()
}

// Wrap returns the wrap width.
func (s *Session) Wrap() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.formatter.Wrap
}

// SetWrap changes the wrap width and starts a new line count.
func (s *Session) SetWrap(wrap int) {
	if wrap < 0 {
		wrap = 0
	}
	s.lock.Lock()
	s.formatter.Wrap, s.pos = wrap, 0
	s.lock.Unlock()
}

// Position returns the number of bytes printed on the current line.
func (s *Session) Position() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.pos
}

// ResetPosition starts a new line count, e.g. after other output.
func (s *Session) ResetPosition() {
	s.lock.Lock()
	s.pos = 0
	s.lock.Unlock()
}

func (s *Session) checkInit() {
	if !s.initialized && !s.warned {
		glog.Warning("serial line not initialized")
		s.warned = true
	}
}

// ReadOnce reads and prints one packet. It returns a copy of the payload.
func (s *Session) ReadOnce() ([]byte, error) {
	var p usbasp.Packet
	s.lock.Lock()
	s.checkInit()
	if err := s.Link.Read(&p); err != nil {
		s.lock.Unlock()
		return nil, err
	}
	if !p.Valid() {
		glog.Warningf("malformed packet, length %d clamped", p[0])
	}
	s.pos = s.formatter.Print(&p, s.pos)
	payload := append([]byte(nil), p.Payload()...)
	var sinks []bridge.Sink
	if len(payload) > 0 {
		s.seq++
		sinks = s.sinks
	}
	seq := s.seq
	s.lock.Unlock()

	if len(sinks) > 0 {
		ev := bridge.NewPacketEvent(seq, payload)
		for _, sink := range sinks {
			if err := sink.Publish(ev); err != nil {
				glog.Warningf("bridge publish error: %v", err)
			}
		}
	}
	return payload, nil
}

// Read reads and prints count packets, stopping at the first error.
func (s *Session) Read(count int) error {
	for i := 0; i < count; i++ {
		if _, err := s.ReadOnce(); err != nil {
			return err
		}
	}
	return nil
}

// Poll keeps reading until ctx is done or a read fails.
func (s *Session) Poll(ctx context.Context, interval time.Duration) error {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := s.ReadOnce(); err != nil {
			return err
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}
	}
}

// Write sends data in as many packets as needed, in order.
// Empty data is sent as one empty packet.
func (s *Session) Write(data []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.checkInit()
	for {
		size := len(data)
		if size > usbasp.MaxPayloadSize {
			size = usbasp.MaxPayloadSize
		}
		if err := s.Link.Write(data[:size]); err != nil {
			return err
		}
		if data = data[size:]; len(data) == 0 {
			return nil
		}
	}
}
