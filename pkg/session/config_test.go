package session

import (
	"bytes"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/usbser/pkg/usbasp"
)

func TestConfigFlags(t *testing.T) {
	var id usbasp.Identity
	f := identityFlag{&id}
	require.NoError(t, f.Set("1234:abcd"))
	require.Equal(t, usbasp.Identity{Vendor: 0x1234, Product: 0xabcd}, id)
	require.Equal(t, "1234:abcd", f.String())
	require.Error(t, f.Set("nope"))

	var urls []string
	u := urlsFlag{&urls}
	require.NoError(t, u.Set("mqtt://a/x, ws://b/y"))
	require.NoError(t, u.Set("ws://c/"))
	require.Equal(t, []string{"mqtt://a/x", "ws://b/y", "ws://c/"}, urls)
}

func TestConfigNewSession(t *testing.T) {
	conf := NewConfig()
	conf.Mode = usbasp.Decimal
	conf.Wrap = 8
	conf.Timeout = time.Second
	conf.BridgeURLs = nil
	s, err := conf.NewSession(&testDevice{})
	require.NoError(t, err)
	require.Equal(t, usbasp.Decimal, s.Mode())
	require.Equal(t, 8, s.Wrap())
	require.Equal(t, time.Second, s.Link.Timeout)

	conf.BridgeURLs = []string{"gopher://nowhere"}
	_, err = conf.NewSession(&testDevice{})
	require.Error(t, err)
}

func TestConfigLoadEnv(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	env := map[string]string{
		"USBSER_DEVICE": "1234:abcd",
		"USBSER_MODE":   "hex",
		"USBSER_WRAP":   "16",
		"USBSER_BRIDGE": "mqtt://a/x,ws://b/y",
	}
	conf := Config{Mode: usbasp.ASCII}
	conf.loadEnv(func(key string) string { return env[key] })
	require.Equal(t, usbasp.Identity{Vendor: 0x1234, Product: 0xabcd}, conf.Device)
	require.Equal(t, usbasp.Hexadecimal, conf.Mode)
	require.Equal(t, 16, conf.Wrap)
	require.Equal(t, []string{"mqtt://a/x", "ws://b/y"}, conf.BridgeURLs)
	require.Empty(t, logs.String())

	env = map[string]string{
		"USBSER_DEVICE": "bogus",
		"USBSER_MODE":   "octal",
		"USBSER_WRAP":   "-3",
	}
	conf = Config{Device: usbasp.AdapterIdentity, Mode: usbasp.ASCII, Wrap: 4}
	conf.loadEnv(func(key string) string { return env[key] })
	require.Equal(t, usbasp.AdapterIdentity, conf.Device)
	require.Equal(t, usbasp.ASCII, conf.Mode)
	require.Equal(t, 4, conf.Wrap)
	out := logs.String()
	require.Contains(t, out, "USBSER_DEVICE ignored")
	require.Contains(t, out, "USBSER_MODE ignored")
	require.Contains(t, out, "USBSER_WRAP ignored")
	require.NotContains(t, out, "before flag.Parse")
}
