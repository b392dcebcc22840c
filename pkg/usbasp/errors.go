package usbasp

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceNotFound indicates no enumerated device matches the identity.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrPayloadTooLarge indicates a write payload doesn't fit in one packet.
	ErrPayloadTooLarge = fmt.Errorf("payload exceeds %d bytes", MaxPayloadSize)
)

// TransferError wraps a transport failure or timeout of a control transfer.
type TransferError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *TransferError) Error() string {
	return fmt.Sprintf("%s transfer failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *TransferError) Unwrap() error {
	return e.Err
}

// ProtocolMismatch indicates the device replied with unexpected content.
type ProtocolMismatch struct {
	Op       string
	Expected []byte
	Got      []byte
}

// Error implements error.
func (e *ProtocolMismatch) Error() string {
	return fmt.Sprintf("%s: expect reply % x, got % x", e.Op, e.Expected, e.Got)
}
