package session

import (
	"flag"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robotalks/usbser/pkg/bridge"
	"github.com/robotalks/usbser/pkg/usbasp"
)

// Config defines the options of a session.
type Config struct {
	Device       usbasp.Identity
	Mode         usbasp.DisplayMode
	Wrap         int
	Timeout      time.Duration
	PollInterval time.Duration
	NoInit       bool

	// BridgeURLs lists sinks receiving the packets read,
	// e.g. mqtt://localhost:1883/usbser/ or ws://localhost:8080/packets
	BridgeURLs []string
}

var defaultConfig = Config{
	Device:       usbasp.AdapterIdentity,
	Mode:         usbasp.ASCII,
	Timeout:      usbasp.DefaultTimeout,
	PollInterval: 50 * time.Millisecond,
}

func init() {
	defaultConfig.loadEnv(os.Getenv)
}

// loadEnv overrides c with USBSER_* environment variables.
// Invalid values are reported through the standard logger and ignored.
func (c *Config) loadEnv(getenv func(string) string) {
	if val := getenv("USBSER_DEVICE"); val != "" {
		if id, err := usbasp.ParseIdentity(val); err == nil {
			c.Device = id
		} else {
			log.Printf("USBSER_DEVICE ignored: %v", err)
		}
	}
	if val := getenv("USBSER_MODE"); val != "" {
		if mode, err := usbasp.ParseDisplayMode(val); err == nil {
			c.Mode = mode
		} else {
			log.Printf("USBSER_MODE ignored: %v", err)
		}
	}
	if val := getenv("USBSER_WRAP"); val != "" {
		if wrap, err := strconv.Atoi(val); err == nil && wrap >= 0 {
			c.Wrap = wrap
		} else {
			log.Printf("USBSER_WRAP ignored: %q", val)
		}
	}
	if val := getenv("USBSER_BRIDGE"); val != "" {
		c.BridgeURLs = splitURLs(val)
	}
}

func splitURLs(s string) (urls []string) {
	for _, u := range strings.Split(s, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return
}

type identityFlag struct {
	id *usbasp.Identity
}

func (f identityFlag) String() string {
	if f.id == nil {
		return ""
	}
	return f.id.String()
}

func (f identityFlag) Set(s string) (err error) {
	*f.id, err = usbasp.ParseIdentity(s)
	return
}

type urlsFlag struct {
	urls *[]string
}

func (f urlsFlag) String() string {
	if f.urls == nil {
		return ""
	}
	return strings.Join(*f.urls, ",")
}

func (f urlsFlag) Set(s string) error {
	*f.urls = append(*f.urls, splitURLs(s)...)
	return nil
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.Var(identityFlag{&defaultConfig.Device}, "device", "Device to open as VID:PID.")
	flag.Var(&defaultConfig.Mode, "mode", "Display mode: binary, decimal, hexadecimal or ascii.")
	flag.IntVar(&defaultConfig.Wrap, "wrap", defaultConfig.Wrap, "Line break after this many bytes, 0 to disable.")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Control transfer timeout.")
	flag.DurationVar(&defaultConfig.PollInterval, "poll", defaultConfig.PollInterval, "Interval between reads in monitor mode.")
	flag.BoolVar(&defaultConfig.NoInit, "no-init", defaultConfig.NoInit, "Skip serial line initialization.")
	flag.Var(urlsFlag{&defaultConfig.BridgeURLs}, "bridge", "Mirror packets to mqtt:// or ws:// URL, may repeat.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	conf.BridgeURLs = append([]string(nil), defaultConfig.BridgeURLs...)
	return &conf
}

// NewSession creates a session over the opened handle using the config.
// Bridge sinks are connected here; the first failure closes the ones
// already connected.
func (c *Config) NewSession(h usbasp.Handle) (*Session, error) {
	link := usbasp.NewLink(h)
	if c.Timeout > 0 {
		link.Timeout = c.Timeout
	}
	s := New(link, os.Stdout)
	s.SetMode(c.Mode)
	s.SetWrap(c.Wrap)
	for _, u := range c.BridgeURLs {
		sink, err := bridge.NewSink(u)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.AddSink(sink)
	}
	return s, nil
}
