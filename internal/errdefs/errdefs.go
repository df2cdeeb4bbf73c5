// Package errdefs defines the error kinds shared across the netgrip core.
// Callers classify failures with errors.Is; components wrap these sentinels
// with fmt.Errorf("...: %w", ...) to attach diagnostics.
package errdefs

import "errors"

var (
	// ErrInvalidArgument indicates malformed input: a MAC or IP string, or a
	// captured frame that fails validation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAdapterNotFound indicates no enumerated adapter matches the
	// requested identity.
	ErrAdapterNotFound = errors.New("adapter not found")

	// ErrCaptureOpenFailed indicates the capture library could not open the
	// device. Non-fatal for topology discovery, fatal for transmission.
	ErrCaptureOpenFailed = errors.New("capture open failed")

	// ErrTopologyIncomplete indicates neither the primary nor the fallback
	// resolver produced a valid topology.
	ErrTopologyIncomplete = errors.New("topology incomplete")

	// ErrNotInitialized indicates the operation requires a successful
	// Initialize first.
	ErrNotInitialized = errors.New("not initialized")

	// ErrNotTransmitted indicates a transmission was attempted without an
	// open capture handle.
	ErrNotTransmitted = errors.New("not transmitted")

	// ErrSendFailed indicates the capture library rejected the send.
	ErrSendFailed = errors.New("send failed")
)
