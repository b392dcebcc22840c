package sh

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

func parseCount(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid count %q", args[0])
	}
	return n, nil
}

func parseWidth(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid width %q", arg)
	}
	return n, nil
}

// parseHex accepts bytes split across arguments, optionally 0x prefixed,
// e.g. "0x41 42" or "4142".
func parseHex(args []string) ([]byte, error) {
	var sb strings.Builder
	for _, arg := range args {
		arg = strings.TrimPrefix(strings.TrimPrefix(arg, "0x"), "0X")
		sb.WriteString(arg)
	}
	return hex.DecodeString(sb.String())
}
