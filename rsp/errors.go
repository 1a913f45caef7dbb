package rsp

import "errors"

// Sentinel errors for the RSP transport.
//
// Failures wrap one of these values via fmt.Errorf("%w: ...") with a detail
// message naming the exact condition, so callers can classify errors with
// errors.Is while logs keep the specific cause.
var (
	// ErrPacketFormat indicates malformed packet data: bad framing
	// characters, a bad escape or run-length sequence, or a bad checksum.
	ErrPacketFormat = errors.New("rsp: malformed packet")

	// ErrProtocol indicates a received byte or sequence that violates
	// protocol expectations in context: a negative acknowledgement, an
	// unrecognized acknowledgement byte, an unexpected start-of-packet
	// byte, or an oversized packet.
	ErrProtocol = errors.New("rsp: protocol violation")

	// ErrRecvTimeout indicates that the configured receive timeout elapsed
	// before a complete logical unit (acknowledgement byte or packet) was
	// received.
	ErrRecvTimeout = errors.New("rsp: receive timeout")
)

var (
	// ErrNotConnected is returned by send and receive operations invoked on
	// a disconnected Conn.
	ErrNotConnected = errors.New("rsp: not connected")

	// ErrAlreadyConnected is returned by Connect when the Conn is already
	// connected.
	ErrAlreadyConnected = errors.New("rsp: already connected")

	// ErrInvalidChecksum indicates a caller-supplied custom checksum that
	// is not exactly two hex digits.
	ErrInvalidChecksum = errors.New("rsp: invalid custom checksum, expected two hex digits")
)
