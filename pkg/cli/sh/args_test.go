package sh

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCount(t *testing.T) {
	n, err := parseCount(nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	n, err = parseCount([]string{"12"})
	require.NoError(t, err)
	require.Equal(t, 12, n)
	for _, arg := range []string{"0", "-1", "many"} {
		_, err = parseCount([]string{arg})
		require.Error(t, err, arg)
	}
}

func TestParseWidth(t *testing.T) {
	n, err := parseWidth("0")
	require.NoError(t, err)
	require.Equal(t, 0, n)
	n, err = parseWidth("16")
	require.NoError(t, err)
	require.Equal(t, 16, n)
	_, err = parseWidth("-2")
	require.Error(t, err)
}

func TestParseHex(t *testing.T) {
	testCases := []struct {
		name   string
		args   []string
		expect []byte
	}{
		{"joined", []string{"414243"}, []byte("ABC")},
		{"split", []string{"41", "42"}, []byte("AB")},
		{"prefixed", []string{"0xff", "0X0a"}, []byte{0xff, 0x0a}},
		{"empty", nil, []byte{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := parseHex(tc.args)
			require.NoError(t, err)
			require.Equal(t, tc.expect, b)
		})
	}
	_, err := parseHex([]string{"4"})
	require.Error(t, err)
	_, err = parseHex([]string{"zz"})
	require.Error(t, err)
}
