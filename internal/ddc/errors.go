package ddc

import (
	"errors"
	"fmt"
)

// Failure classes. Use errors.Is to test for them.
var (
	// ErrDeviceOpen means the I2C device node is missing or not accessible.
	ErrDeviceOpen = errors.New("ddc: device open failed")

	// ErrTransportIO means a raw write or read on an open bus failed.
	ErrTransportIO = errors.New("ddc: transport i/o failed")

	// ErrProtocolMismatch means the reply did not answer the request.
	ErrProtocolMismatch = errors.New("ddc: protocol mismatch")

	// ErrCorruptCapabilities means the capabilities reply was empty after cleanup.
	ErrCorruptCapabilities = errors.New("ddc: empty or corrupt capabilities")

	// ErrHelperOutput means the ddcutil output could not be parsed.
	ErrHelperOutput = errors.New("ddc: unexpected helper output")
)

// TransportError carries the device path and the underlying OS error of a
// failed open, write or read. It is retryable by the caller.
type TransportError struct {
	Kind error // ErrDeviceOpen or ErrTransportIO
	Op   string
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Op, e.Path, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// MismatchError reports a reply byte that did not match the request.
type MismatchError struct {
	Field string
	Want  byte
	Got   byte
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: %s: want 0x%02X, got 0x%02X", ErrProtocolMismatch, e.Field, e.Want, e.Got)
}

func (e *MismatchError) Is(target error) bool {
	return target == ErrProtocolMismatch
}
