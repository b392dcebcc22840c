package sh

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/usbser/pkg/session"
	"github.com/robotalks/usbser/pkg/usbasp"
	"github.com/robotalks/usbser/pkg/usbasp/libusb"
)

// Shell provides ishell backed interactive shell over a session.
type Shell struct {
	Interactive bool

	Shell   *ishell.Shell
	Config  *session.Config
	Session *session.Session
}

const (
	shellKey = "$shell"
	prompt   = "usbser > "
)

var (
	// flags

	evalOnly bool

	// commands
	commands = []*ishell.Cmd{
		&InitCmd,
		&ReadCmd,
		&WriteCmd,
		&WriteHexCmd,
		&MonitorCmd,
		&ModeCmd,
		&WrapCmd,
		&StatusCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
}

// New creates a new shell.
func New(conf *session.Config, s *session.Session) *Shell {
	sh := &Shell{
		Interactive: !evalOnly,

		Shell:   ishell.New(),
		Config:  conf,
		Session: s,
	}
	sh.Shell.Set(shellKey, sh)
	sh.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		sh.Shell.AddCmd(cmd)
	}
	return sh
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// newLine ends the partial line left by packet output before the shell
// prints anything else.
func newLine(c *ishell.Context) {
	s := ShellFrom(c).Session
	if s.Position() > 0 {
		c.Println()
		s.ResetPosition()
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) error {
	if len(args) > 0 {
		return s.Shell.Process(args...)
	}
	if s.Interactive {
		s.Shell.Run()
		return nil
	}
	return errors.New("command expected")
}

// monitor polls until poll fails or readLine returns. It only returns
// after readLine did, so no reader is left competing with the shell; if
// polling stopped by itself, notify asks the user for that line.
func monitor(poll func(context.Context) error, readLine func() string, notify func(error)) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		readLine()
		cancel()
		close(done)
	}()
	err := poll(ctx)
	stopped := ctx.Err() == nil
	if err == context.Canceled {
		err = nil
	}
	if stopped {
		notify(err)
	}
	<-done
	return err
}

// signalContext returns a context canceled by Ctrl-C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

var (
	// InitCmd configures the serial line.
	InitCmd = ishell.Cmd{
		Name: "init",
		Help: "",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).Session.Init(); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		},
	}

	// ReadCmd reads and prints packets.
	ReadCmd = ishell.Cmd{
		Name:    "read",
		Aliases: []string{"r"},
		Help:    "[COUNT]",
		Func: func(c *ishell.Context) {
			count, err := parseCount(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			err = ShellFrom(c).Session.Read(count)
			newLine(c)
			if err != nil {
				c.Err(err)
			}
		},
	}

	// WriteCmd writes text.
	WriteCmd = ishell.Cmd{
		Name:    "write",
		Aliases: []string{"w"},
		Help:    "TEXT...",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).Session.Write([]byte(strings.Join(c.Args, " "))); err != nil {
				c.Err(err)
			}
		},
	}

	// WriteHexCmd writes raw bytes given in hex.
	WriteHexCmd = ishell.Cmd{
		Name:    "writehex",
		Aliases: []string{"wx"},
		Help:    "HEX...",
		Func: func(c *ishell.Context) {
			data, err := parseHex(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			if err := ShellFrom(c).Session.Write(data); err != nil {
				c.Err(err)
			}
		},
	}

	// MonitorCmd keeps reading until stopped.
	MonitorCmd = ishell.Cmd{
		Name:    "monitor",
		Aliases: []string{"m"},
		Help:    "",
		Func: func(c *ishell.Context) {
			sh := ShellFrom(c)
			poll := func(ctx context.Context) error {
				err := sh.Session.Poll(ctx, sh.Config.PollInterval)
				newLine(c)
				return err
			}
			if !sh.Interactive {
				ctx, cancel := signalContext()
				defer cancel()
				if err := poll(ctx); err != nil && err != context.Canceled {
					c.Err(err)
				}
				return
			}
			c.Println("Monitoring, press Enter to stop.")
			var reported bool
			err := monitor(poll, c.ReadLine, func(err error) {
				if err != nil {
					c.Err(err)
					reported = true
				}
				c.Println("Monitoring stopped, press Enter to continue.")
			})
			if err != nil && !reported {
				c.Err(err)
			}
		},
	}

	// ModeCmd shows or changes the display mode.
	ModeCmd = ishell.Cmd{
		Name: "mode",
		Help: "[binary|decimal|hexadecimal|ascii]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c).Session
			if len(c.Args) == 0 {
				c.Println(s.Mode())
				return
			}
			mode, err := usbasp.ParseDisplayMode(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			s.SetMode(mode)
		},
	}

	// WrapCmd shows or changes the wrap width.
	WrapCmd = ishell.Cmd{
		Name: "wrap",
		Help: "[WIDTH]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c).Session
			if len(c.Args) == 0 {
				c.Println(s.Wrap())
				return
			}
			wrap, err := parseWidth(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			newLine(c)
			s.SetWrap(wrap)
		},
	}

	// StatusCmd prints the session state.
	StatusCmd = ishell.Cmd{
		Name: "status",
		Help: "",
		Func: func(c *ishell.Context) {
			sh := ShellFrom(c)
			s := sh.Session
			newLine(c)
			c.Printf("device:      %s\n", sh.Config.Device)
			c.Printf("initialized: %v\n", s.Initialized())
			c.Printf("mode:        %s\n", s.Mode())
			c.Printf("wrap:        %d\n", s.Wrap())
			c.Printf("timeout:     %s\n", s.Link.Timeout)
			c.Printf("bridges:     %s\n", strings.Join(sh.Config.BridgeURLs, " "))
		},
	}
)

type handleCloser interface {
	usbasp.Handle
	io.Closer
}

// run locates and opens the adapter, initializes the serial line and runs
// the shell. Everything opened is closed before returning.
func run(conf *session.Config, e usbasp.Enumerator, open func(usbasp.Device) (handleCloser, error), args []string) error {
	dev, err := usbasp.FindDeviceByID(e, conf.Device)
	if err != nil {
		return fmt.Errorf("find device %s failed: %w", conf.Device, err)
	}
	handle, err := open(dev)
	if err != nil {
		return fmt.Errorf("open device %v failed: %w", dev, err)
	}
	defer handle.Close()

	s, err := conf.NewSession(handle)
	if err != nil {
		return err
	}
	defer s.Close()

	if !conf.NoInit {
		if err := s.Init(); err != nil {
			return fmt.Errorf("init serial line failed: %w", err)
		}
	}

	return New(conf, s).Run(args...)
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	usbCtx := libusb.NewContext()
	err := run(session.Default(), usbCtx, func(dev usbasp.Device) (handleCloser, error) {
		h, err := usbCtx.Open(dev)
		if err != nil {
			return nil, err
		}
		return h, nil
	}, flag.Args())
	usbCtx.Close()
	if err != nil {
		log.Fatalln(err)
	}
}
