package gdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arloliu/go-gdbrsp/logger"
	"github.com/arloliu/go-gdbrsp/rsp"
)

// Transport defines the packet-level connection a Client drives.
// [rsp.Conn] is the standard implementation.
type Transport interface {
	// Connect establishes the connection to the stub.
	Connect(ctx context.Context) error

	// Close tears down the connection. It may be called concurrently with a
	// blocked operation to abort it.
	Close() error

	// IsConnected reports whether the connection is open.
	IsConnected() bool

	// SetRecvTimeout adjusts the per-operation receive timeout.
	SetRecvTimeout(d time.Duration) error

	// SetNoAckMode enables or disables the per-packet acknowledgement
	// handshake.
	SetNoAckMode(enabled bool)

	// SendPacket frames payload as a packet and writes it to the stub.
	SendPacket(payload []byte) error

	// RecvDecodedPayload reads one packet and returns its decoded payload.
	RecvDecodedPayload() ([]byte, error)

	// SendInterrupt writes the out-of-band interrupt byte.
	SendInterrupt() error

	// GetLogger returns the logger associated with the transport.
	GetLogger() logger.Logger
}

var _ Transport = (*rsp.Conn)(nil)

// Client exchanges commands and replies with a GDB remote stub on top of a
// packet Transport.
//
// Like the transport underneath, a Client is strictly request/reply: one
// command at a time, with Close as the only call safe to make concurrently.
type Client struct {
	transport Transport
	logger    logger.Logger
}

// NewClient creates a Client that owns a new transport connection built
// from cfg. The client starts disconnected; call Connect before issuing
// commands.
func NewClient(cfg *rsp.ConnConfig) (*Client, error) {
	conn, err := rsp.NewConn(cfg)
	if err != nil {
		return nil, err
	}

	return NewClientWithTransport(conn)
}

// NewClientWithTransport creates a Client on top of an existing transport.
func NewClientWithTransport(transport Transport) (*Client, error) {
	if transport == nil {
		return nil, errors.New("gdb: transport is nil")
	}

	return &Client{transport: transport, logger: transport.GetLogger()}, nil
}

// Connect establishes the connection to the stub.
func (c *Client) Connect(ctx context.Context) error {
	return c.transport.Connect(ctx)
}

// Close tears down the connection. It is idempotent and aborts any blocked
// command.
func (c *Client) Close() error {
	return c.transport.Close()
}

// IsConnected reports whether the connection to the stub is open.
func (c *Client) IsConnected() bool {
	return c.transport.IsConnected()
}

// SetRecvTimeout adjusts how long each command waits for its reply.
// Commands that let the program run, like a continue answered only on the
// next stop, usually need a longer window than queries.
func (c *Client) SetRecvTimeout(d time.Duration) error {
	return c.transport.SetRecvTimeout(d)
}

// SetNoAckMode toggles the acknowledgement handshake without negotiating
// with the stub, for stubs configured to start in no-ack mode. The usual
// path is StartNoAckMode.
func (c *Client) SetNoAckMode(enabled bool) {
	c.transport.SetNoAckMode(enabled)
}

// Cmd sends a textual command and returns the stub's reply as text.
//
// The command must be plain ASCII; it fails with ErrNonASCIICommand
// otherwise. A reply carrying binary bytes fails with ErrNonASCIIReply;
// commands with binary replies go through CmdBinary.
func (c *Client) Cmd(cmd string) (string, error) {
	if !isASCII([]byte(cmd)) {
		return "", fmt.Errorf("%w: %q", ErrNonASCIICommand, cmd)
	}

	reply, err := c.CmdBinary([]byte(cmd))
	if err != nil {
		return "", err
	}

	if !isASCII(reply) {
		return "", fmt.Errorf("%w: reply to %q", ErrNonASCIIReply, cmd)
	}

	return string(reply), nil
}

// CmdBinary sends a command that may carry binary bytes and returns the
// stub's decoded reply verbatim.
func (c *Client) CmdBinary(cmd []byte) ([]byte, error) {
	c.logger.Debug("gdb: send command", "cmd", string(cmd))

	if err := c.transport.SendPacket(cmd); err != nil {
		return nil, err
	}

	return c.transport.RecvDecodedPayload()
}

// CmdNoReply sends a textual command without waiting for a reply, for
// commands like "vCont;c" that answer only when the program next stops.
// Collect the eventual answer with StopReply.
func (c *Client) CmdNoReply(cmd string) error {
	if !isASCII([]byte(cmd)) {
		return fmt.Errorf("%w: %q", ErrNonASCIICommand, cmd)
	}

	c.logger.Debug("gdb: send command, no reply expected", "cmd", cmd)

	return c.transport.SendPacket([]byte(cmd))
}

// Interrupt asks the stub to stop the running program, the wire equivalent
// of Ctrl-C in a debugger console. The stop itself arrives later as a stop
// reply; collect it with StopReply.
func (c *Client) Interrupt() error {
	c.logger.Debug("gdb: send interrupt")

	return c.transport.SendInterrupt()
}

// StopReply waits for the stop reply that ends a program run, such as
// "T05" for a trap or "W00" for a clean exit.
//
// While the program runs, the stub may forward its console output as "O"
// packets with hex-encoded text. StopReply accumulates that text and
// returns it alongside the stop reply. On error the accumulated console
// text is dropped.
func (c *Client) StopReply() (reply string, console string, err error) {
	var consoleText strings.Builder

	for {
		data, err := c.transport.RecvDecodedPayload()
		if err != nil {
			return "", "", err
		}

		if !isASCII(data) {
			return "", "", fmt.Errorf("%w: stop reply", ErrNonASCIIReply)
		}

		text := string(data)
		if strings.HasPrefix(text, "O") {
			chunk, err := ASCIIFromHex(text[1:])
			if err != nil {
				return "", "", fmt.Errorf("gdb: console output packet: %w", err)
			}

			consoleText.WriteString(chunk)

			continue
		}

		c.logger.Debug("gdb: stop reply received", "reply", text)

		return text, consoleText.String(), nil
	}
}

// StartNoAckMode negotiates QStartNoAckMode with the stub and, on an "OK"
// reply, disables the acknowledgement handshake for the remainder of the
// connection. Most stubs on reliable transports support it; those that do
// not answer with an empty reply, reported here as ErrUnexpectedReply.
func (c *Client) StartNoAckMode() error {
	reply, err := c.Cmd("QStartNoAckMode")
	if err != nil {
		return err
	}

	if reply != "OK" {
		return fmt.Errorf("%w: QStartNoAckMode answered %q, want \"OK\"", ErrUnexpectedReply, reply)
	}

	c.transport.SetNoAckMode(true)

	return nil
}
