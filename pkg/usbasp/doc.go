// Package usbasp provides the host side of the serial protocol spoken by
// USBasp compatible adapters.
//
// The adapter exposes its serial line through three vendor control
// requests: set serial parameters, read serial and write serial. Data is
// exchanged in fixed 8-byte packets, the first byte carrying the payload
// length (at most 7).
//
// Device handles are opened and closed by the caller. Link borrows a
// Handle for each exchange and is not safe for concurrent use: the
// firmware processes one control transfer at a time, so calls on the same
// handle must be serialized by the caller.
package usbasp
