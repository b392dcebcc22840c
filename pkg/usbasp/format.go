package usbasp

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DisplayMode selects how payload bytes are rendered.
type DisplayMode int

// Display modes.
const (
	Binary DisplayMode = iota
	Decimal
	Hexadecimal
	ASCII
)

var displayModeNames = map[DisplayMode]string{
	Binary:      "binary",
	Decimal:     "decimal",
	Hexadecimal: "hexadecimal",
	ASCII:       "ascii",
}

var displayModeAliases = map[string]DisplayMode{
	"b":           Binary,
	"bin":         Binary,
	"binary":      Binary,
	"d":           Decimal,
	"dec":         Decimal,
	"decimal":     Decimal,
	"h":           Hexadecimal,
	"x":           Hexadecimal,
	"hex":         Hexadecimal,
	"hexadecimal": Hexadecimal,
	"a":           ASCII,
	"c":           ASCII,
	"char":        ASCII,
	"ascii":       ASCII,
}

// ParseDisplayMode parses the name or an alias of a display mode.
func ParseDisplayMode(s string) (DisplayMode, error) {
	if m, ok := displayModeAliases[strings.ToLower(s)]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("unknown display mode %q", s)
}

// String implements fmt.Stringer.
func (m DisplayMode) String() string {
	if name, ok := displayModeNames[m]; ok {
		return name
	}
	return "DisplayMode(" + strconv.Itoa(int(m)) + ")"
}

// Set implements flag.Value.
func (m *DisplayMode) Set(s string) (err error) {
	*m, err = ParseDisplayMode(s)
	return
}

// AppendByte appends the rendering of b.
// In ASCII mode the byte is taken as a code point, so 0x80-0xff render as
// the Latin-1 characters U+0080-U+00FF.
func (m DisplayMode) AppendByte(dst []byte, b byte) []byte {
	switch m {
	case Binary:
		return strconv.AppendUint(dst, uint64(b), 2)
	case Hexadecimal:
		return append(dst, strings.ToUpper(strconv.FormatUint(uint64(b), 16))...)
	case ASCII:
		var enc [utf8.UTFMax]byte
		n := utf8.EncodeRune(enc[:], rune(b))
		return append(dst, enc[:n]...)
	default:
		return strconv.AppendUint(dst, uint64(b), 10)
	}
}

// Formatter renders packets to Writer, or os.Stdout if Writer is nil.
type Formatter struct {
	Writer io.Writer
	Mode   DisplayMode
	// Wrap inserts a line break after every Wrap bytes. 0 disables wrapping.
	Wrap int
}

type flusher interface {
	Flush() error
}

// Print renders the payload of p. pos is the number of bytes printed on
// the current line, as returned by the previous call; the updated value is
// returned so wrapping stays aligned across packets.
// Output is best effort: write and flush errors are ignored.
func (f *Formatter) Print(p *Packet, pos int) int {
	var buf []byte
	for _, b := range Decode(p) {
		buf = f.Mode.AppendByte(buf, b)
		pos++
		if f.Wrap > 0 && pos == f.Wrap {
			buf = append(buf, '\n')
			pos = 0
		}
	}
	w := f.Writer
	if w == nil {
		w = os.Stdout
	}
	if len(buf) > 0 {
		w.Write(buf)
	}
	if fl, ok := w.(flusher); ok {
		fl.Flush()
	}
	return pos
}
