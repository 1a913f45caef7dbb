package gdb

import "errors"

var (
	// ErrNonASCIICommand indicates that a textual command carried bytes
	// outside the ASCII range. Binary commands go through CmdBinary.
	ErrNonASCIICommand = errors.New("gdb: command contains non-ASCII characters")

	// ErrNonASCIIReply indicates that the stub answered a textual command
	// with binary bytes. Binary replies go through CmdBinary.
	ErrNonASCIIReply = errors.New("gdb: expected ASCII-only reply, received binary data")

	// ErrUnexpectedReply indicates that the stub answered a command with a
	// reply the client cannot act on.
	ErrUnexpectedReply = errors.New("gdb: unexpected reply")
)
