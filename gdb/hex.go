package gdb

import (
	"encoding/hex"
	"errors"
	"fmt"
	"unicode"
)

// ASCIIFromHex decodes a run of hex digit pairs into the ASCII text they
// spell. This is the encoding stubs use for program console output carried
// in "O" packets; see [Client.StopReply].
func ASCIIFromHex(hexText string) (string, error) {
	if len(hexText)%2 != 0 {
		return "", errors.New("gdb: expected whole pairs of hex digits")
	}

	decoded, err := hex.DecodeString(hexText)
	if err != nil {
		return "", fmt.Errorf("gdb: invalid hex digits: %w", err)
	}

	if !isASCII(decoded) {
		return "", fmt.Errorf("%w: console text", ErrNonASCIIReply)
	}

	return string(decoded), nil
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b > unicode.MaxASCII {
			return false
		}
	}

	return true
}
