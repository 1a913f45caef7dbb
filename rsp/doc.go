// Package rsp implements the client side of the GDB Remote Serial Protocol
// transport over TCP: packet framing and validation, payload escape and
// run-length decoding, and a connection type with the per-packet
// acknowledgement handshake.
//
// The Remote Serial Protocol (RSP) is the wire protocol spoken between a
// debugger and a remote debugging stub (gdbserver, OpenOCD, QEMU and many
// embedded probes). This package provides the transport layer only; command
// conveniences on top of it live in the gdb package.
//
// # Wire Format
//
// Every packet has the form
//
//	$<encoded-payload>#<checksum>
//
// where the checksum is the sum of the encoded payload bytes modulo 256,
// written as two lowercase hex digits. The bytes '}', '$' and '#' are
// escaped in transit as '}' followed by the byte XORed with 0x20, and a
// receiver additionally expands run-length sequences <byte>'*'<count>,
// repeating the byte ASCII(count)-28 times.
//
// # Acknowledgement Handshake
//
// Each well-formed packet is answered with '+', a corrupt one with '-'.
// The handshake can be disabled for the remainder of a connection after
// negotiating QStartNoAckMode with the stub; see [Conn.SetNoAckMode]. The
// single byte 0x03, sent outside any packet, interrupts the running
// program.
//
// # Receive Semantics
//
// The protocol is strictly request/reply and the connection is fully
// synchronous: each receive operation is bounded by one timeout covering
// all the socket reads it needs (see [Conn.SetRecvTimeout]), buffered
// leftovers carry over between operations, and there is no internal
// concurrency. A Conn must be used by one caller at a time; Close aborts a
// blocked operation from another goroutine.
package rsp
