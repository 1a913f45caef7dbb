package rsp

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// RSP framing and handshake bytes (GDB Remote Serial Protocol, "Overview").
// A packet on the wire is: '$' <encoded-payload> '#' <checksum-hi> <checksum-lo>.
const (
	// PacketStart marks the beginning of every packet.
	PacketStart byte = '$'

	// PacketEnd separates the packet payload from the two checksum digits.
	PacketEnd byte = '#'

	// Escape prefixes a payload byte transmitted XORed with 0x20.
	Escape byte = '}'

	// RunLength marks the middle byte of a three-byte run-length sequence
	// <byte> '*' <count-byte>.
	RunLength byte = '*'

	// Ack is the positive acknowledgement byte sent after a packet was
	// received with a correct checksum.
	Ack byte = '+'

	// Nack is the negative acknowledgement byte requesting retransmission.
	Nack byte = '-'

	// Interrupt is the out-of-band interrupt byte (Ctrl-C) that asks the
	// stub to stop the running program. It is sent bare, outside any packet.
	Interrupt byte = 0x03
)

// escapeXOR is applied to the byte following an escape marker, in both
// directions.
const escapeXOR = 0x20

// runLengthBias is subtracted from the ASCII code of a run-length count byte
// to obtain the repetition count.
const runLengthBias = 28

// checksumSize is the number of hex digits in the trailing checksum.
const checksumSize = 2

// minPacketSize is the smallest structurally valid packet: "$#xx".
const minPacketSize = 4

// EncodePayload escapes payload bytes for transmission. Every occurrence of
// '}', '$' or '#' becomes '}' followed by the byte XORed with 0x20; all other
// bytes pass through unchanged.
//
// Run-length compression is never produced: the protocol permits a sender to
// transmit uncompressed data, and decoding remains the only place where
// run-length sequences are handled.
func EncodePayload(data []byte) []byte {
	result := make([]byte, 0, len(data))
	for _, b := range data {
		if b == Escape || b == PacketStart || b == PacketEnd {
			result = append(result, Escape, b^escapeXOR)
		} else {
			result = append(result, b)
		}
	}

	return result
}

// DecodePayload reverses the wire encoding of a packet payload: escape
// sequences are un-escaped and run-length sequences are expanded.
//
// The scan decides per position, in order:
//  1. An escape marker '}' consumes the next byte and emits it XORed
//     with 0x20.
//  2. A '*' in the following position starts a run-length sequence
//     <byte> '*' <count-byte>, emitting <byte> repeated ASCII(count)-28
//     times. The count byte must not be '#' or '$' and must be printable
//     ASCII (code 32-126).
//  3. Any other byte is copied as-is.
//
// Truncated or ill-formed sequences return an error wrapping ErrPacketFormat.
func DecodePayload(data []byte) ([]byte, error) {
	result := make([]byte, 0, len(data))

	for pos := 0; pos < len(data); {
		switch {
		case data[pos] == Escape:
			if pos+1 >= len(data) {
				return nil, fmt.Errorf("%w: missing one more character after escape marker '}'", ErrPacketFormat)
			}

			result = append(result, data[pos+1]^escapeXOR)
			pos += 2

		case pos+1 < len(data) && data[pos+1] == RunLength:
			if pos+2 >= len(data) {
				return nil, fmt.Errorf("%w: invalid run-length sequence, missing one more character after '*'", ErrPacketFormat)
			}

			count, err := runLengthCount(data[pos+2])
			if err != nil {
				return nil, err
			}

			for range count {
				result = append(result, data[pos])
			}
			pos += 3

		default:
			result = append(result, data[pos])
			pos++
		}
	}

	return result, nil
}

// runLengthCount validates a run-length count byte and returns the number of
// repetitions it encodes.
func runLengthCount(countByte byte) (int, error) {
	if countByte == PacketEnd || countByte == PacketStart {
		return 0, fmt.Errorf("%w: invalid run-length sequence, bytes '#' or '$' cannot be used as repetition count", ErrPacketFormat)
	}

	if countByte < 32 || countByte > 126 {
		return 0, fmt.Errorf("%w: invalid run-length sequence, ASCII code of the repetition byte must be in range 32-126, got %d",
			ErrPacketFormat, countByte)
	}

	return int(countByte) - runLengthBias, nil
}

// ComputeChecksum returns the packet checksum of data: the sum of all byte
// values modulo 256, formatted as exactly two lowercase hex digits.
func ComputeChecksum(data []byte) []byte {
	var sum byte
	for _, b := range data {
		sum += b
	}

	out := make([]byte, checksumSize)
	hex.Encode(out, []byte{sum})

	return out
}

// CreatePacket assembles the wire form of payload:
//
//	'$' + EncodePayload(payload) + '#' + checksum
//
// customChecksum, when non-nil, is used verbatim in place of the computed
// checksum. This supports protocol-conformance testing against a stub, e.g.
// deliberately sending a wrong checksum to provoke a NACK. It must be exactly
// two hex digits; anything else fails with ErrInvalidChecksum before any data
// is produced.
func CreatePacket(payload []byte, customChecksum []byte) ([]byte, error) {
	if customChecksum != nil && !validChecksumSyntax(customChecksum) {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidChecksum, customChecksum)
	}

	encoded := EncodePayload(payload)

	packet := make([]byte, 0, len(encoded)+minPacketSize)
	packet = append(packet, PacketStart)
	packet = append(packet, encoded...)
	packet = append(packet, PacketEnd)

	if customChecksum != nil {
		packet = append(packet, customChecksum...)
	} else {
		packet = append(packet, ComputeChecksum(encoded)...)
	}

	return packet, nil
}

// SplitPacket decomposes a raw packet into its positional components: the
// leading byte, the encoded payload, the '#' delimiter and the two checksum
// digits.
//
// No validation is performed; SplitPacket is pure structural slicing for
// reuse by ValidatePacket and by callers that already hold a validated
// packet. Components that fall outside a too-short packet are returned empty.
func SplitPacket(packet []byte) (first, payload, hash, checksum []byte) {
	first = clampSlice(packet, 0, 1)
	payload = clampSlice(packet, 1, len(packet)-3)
	hash = clampSlice(packet, len(packet)-3, len(packet)-2)
	checksum = clampSlice(packet, len(packet)-2, len(packet))

	return first, payload, hash, checksum
}

// clampSlice slices b[from:to] with both bounds clamped into [0, len(b)],
// returning nil for an empty range.
func clampSlice(b []byte, from, to int) []byte {
	if from < 0 {
		from = 0
	}
	if to > len(b) {
		to = len(b)
	}
	if from >= to {
		return nil
	}

	return b[from:to]
}

// ValidatePacket checks the structural integrity and the checksum of a raw
// packet.
//
// It fails with an error wrapping ErrPacketFormat when the packet is shorter
// than 4 bytes, does not start with '$', lacks the '#' delimiter before the
// checksum, still carries a literal '$' or '#' inside the payload, has a
// checksum that is not two hex digits, or has a checksum that does not match
// the payload. Each failure message names the violated condition.
func ValidatePacket(packet []byte) error {
	first, payload, hash, checksum := SplitPacket(packet)

	if len(packet) < minPacketSize {
		return fmt.Errorf("%w: too short packet to be valid, expected at least %d bytes", ErrPacketFormat, minPacketSize)
	}

	if first[0] != PacketStart {
		return fmt.Errorf("%w: expected first packet byte to be '$', found %q", ErrPacketFormat, first)
	}

	if hash[0] != PacketEnd {
		return fmt.Errorf("%w: expected '#' character before the checksum, found %q", ErrPacketFormat, hash)
	}

	if bytes.IndexByte(payload, PacketStart) >= 0 {
		return fmt.Errorf("%w: found special character '$' in packet data", ErrPacketFormat)
	}

	if bytes.IndexByte(payload, PacketEnd) >= 0 {
		return fmt.Errorf("%w: found special character '#' in packet data", ErrPacketFormat)
	}

	if !validChecksumSyntax(checksum) {
		return fmt.Errorf("%w: received checksum has incorrect syntax, expected two hex digits, found %q", ErrPacketFormat, checksum)
	}

	if expected := ComputeChecksum(payload); !bytes.Equal(checksum, expected) {
		return fmt.Errorf("%w: invalid checksum, expected %q, found %q", ErrPacketFormat, expected, checksum)
	}

	return nil
}

// validChecksumSyntax reports whether checksum is exactly two hex digits.
// Both upper and lower case digits are accepted; ComputeChecksum always
// emits lower case.
func validChecksumSyntax(checksum []byte) bool {
	if len(checksum) != checksumSize {
		return false
	}

	for _, c := range checksum {
		if !isHexDigit(c) {
			return false
		}
	}

	return true
}

func isHexDigit(c byte) bool {
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		return true
	default:
		return false
	}
}
