package rsp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/arloliu/go-gdbrsp/logger"
)

// recvBlockSize is the maximum number of bytes pulled from the socket in
// one read call.
const recvBlockSize = 1024

// Conn is a client-side connection to a GDB remote stub, exchanging
// checksum-framed packets over TCP with a per-packet acknowledgement
// handshake.
//
// The protocol is strictly request/reply and Conn performs no internal
// serialization: only one operation may be active at a time, and callers
// running from multiple goroutines must coordinate access themselves.
// Close is the exception: it may be called concurrently with a blocked
// operation to abort it; the in-flight call then fails with a socket error.
type Conn struct {
	cfg    *ConnConfig
	logger logger.Logger

	// connMutex guards tcpConn so Close can race an in-flight operation;
	// closing the socket is the only way to abort a blocked read.
	connMutex sync.RWMutex
	tcpConn   net.Conn

	// recvTimeout bounds each logical receive operation. Adjustable at
	// runtime via SetRecvTimeout, e.g. for long-running resume commands.
	recvTimeout time.Duration

	recvBuf   recvBuffer
	noAckMode bool

	metrics ConnMetrics
}

// NewConn creates a new Conn in the disconnected state.
func NewConn(cfg *ConnConfig) (*Conn, error) {
	if cfg == nil {
		return nil, errors.New("rsp: connection config is nil")
	}

	return &Conn{
		cfg:         cfg,
		logger:      cfg.logger,
		recvTimeout: cfg.recvTimeout,
	}, nil
}

// --- Lifecycle ---

// Connect establishes the TCP connection to the stub.
//
// Fails with ErrAlreadyConnected when a connection is open. On success the
// receive buffer is cleared and the acknowledgement handshake is re-enabled,
// regardless of any previous session's no-ack setting.
func (c *Conn) Connect(ctx context.Context) error {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if c.tcpConn != nil {
		return ErrAlreadyConnected
	}

	dialer := net.Dialer{Timeout: c.cfg.dialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Addr())
	if err != nil {
		return fmt.Errorf("rsp: dial %s: %w", c.cfg.Addr(), err)
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		// Single handshake bytes are latency-sensitive; keep Nagle off.
		_ = tcp.SetNoDelay(true)
	}

	c.tcpConn = conn
	c.recvBuf.reset()

	// Each connection starts with acknowledgements enabled.
	c.noAckMode = false

	c.logger.Debug("rsp: connected", "remoteAddr", conn.RemoteAddr().String())

	return nil
}

// Close tears down the connection and clears the receive buffer.
//
// It is idempotent and always returns nil: socket errors during teardown
// are discarded since the connection is going away regardless.
func (c *Conn) Close() error {
	c.connMutex.Lock()
	conn := c.tcpConn
	c.tcpConn = nil
	c.recvBuf.reset()
	c.connMutex.Unlock()

	if conn == nil {
		return nil
	}

	remote := conn.RemoteAddr().String()
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		c.logger.Debug("rsp: error closing TCP connection", "error", err)
	}

	c.logger.Debug("rsp: disconnected", "remoteAddr", remote)

	return nil
}

// IsConnected reports whether the connection is open.
func (c *Conn) IsConnected() bool {
	return c.getConn() != nil
}

func (c *Conn) getConn() net.Conn {
	c.connMutex.RLock()
	defer c.connMutex.RUnlock()

	return c.tcpConn
}

// GetMetrics returns the metrics associated with the connection.
func (c *Conn) GetMetrics() *ConnMetrics {
	return &c.metrics
}

// GetLogger returns the logger associated with the connection.
func (c *Conn) GetLogger() logger.Logger {
	return c.logger
}

// SetRecvTimeout adjusts the per-operation receive timeout. The timeout
// must be positive.
func (c *Conn) SetRecvTimeout(d time.Duration) error {
	if d <= 0 {
		return errors.New("rsp: receive timeout must be positive")
	}
	c.recvTimeout = d

	return nil
}

// RecvTimeout returns the current per-operation receive timeout.
func (c *Conn) RecvTimeout() time.Duration { return c.recvTimeout }

// SetNoAckMode enables or disables no-ack mode. With no-ack mode enabled,
// sends no longer wait for an acknowledgement and receives no longer answer
// with one.
//
// Toggle this only after negotiating QStartNoAckMode with the stub; the
// setting reverts to acknowledgements enabled on every Connect.
func (c *Conn) SetNoAckMode(enabled bool) {
	c.noAckMode = enabled
}

// NoAckMode reports whether no-ack mode is enabled.
func (c *Conn) NoAckMode() bool { return c.noAckMode }

// --- Send operations ---

// SendPacket frames payload as a packet, writes it to the stub and, when
// the acknowledgement handshake is active, waits for the stub's ACK.
func (c *Conn) SendPacket(payload []byte) error {
	return c.SendPacketOpts(payload, nil, true)
}

// SendPacketOpts is SendPacket with full control over framing and handshake.
//
// customChecksum, when non-nil, replaces the computed checksum; see
// CreatePacket. checkAck false skips the acknowledgement wait even when the
// handshake is active, leaving the pending ACK byte to the caller.
func (c *Conn) SendPacketOpts(payload []byte, customChecksum []byte, checkAck bool) error {
	packet, err := CreatePacket(payload, customChecksum)
	if err != nil {
		return err
	}

	if err := c.sendBytes(packet); err != nil {
		return err
	}

	c.metrics.incPacketSendCount()

	if checkAck && !c.noAckMode {
		return c.CheckAck()
	}

	return nil
}

// SendAck writes a positive acknowledgement byte.
func (c *Conn) SendAck() error {
	return c.sendBytes([]byte{Ack})
}

// SendNack writes a negative acknowledgement byte, asking the stub to
// retransmit its last packet.
func (c *Conn) SendNack() error {
	return c.sendBytes([]byte{Nack})
}

// SendInterrupt writes the out-of-band interrupt byte (Ctrl-C) that asks
// the stub to stop the running program. The stub reports the stop with a
// stop-reply packet collected by a subsequent receive.
func (c *Conn) SendInterrupt() error {
	return c.sendBytes([]byte{Interrupt})
}

// sendBytes writes data to the stub in full.
func (c *Conn) sendBytes(data []byte) error {
	conn := c.getConn()
	if conn == nil {
		return fmt.Errorf("%w: can't send data", ErrNotConnected)
	}

	for written := 0; written < len(data); {
		n, err := conn.Write(data[written:])
		written += n

		if err != nil {
			return fmt.Errorf("rsp: write: %w", err)
		}
	}

	return nil
}

// --- Acknowledgement handshake ---

// CheckAck reads the stub's acknowledgement of the last sent packet.
//
// '+' means the packet was accepted. '-' means the stub saw a corrupt
// packet; the call fails with ErrProtocol and retransmission is left to the
// caller. Any other byte is returned to the receive buffer, so a following
// receive can still parse it, and the call fails with ErrProtocol naming
// the byte.
func (c *Conn) CheckAck() error {
	deadline := newRecvDeadline(c.recvTimeout)

	b, err := c.recvByte(deadline)
	if err != nil {
		return err
	}

	switch b {
	case Ack:
		c.metrics.incAckRecvCount()

		return nil

	case Nack:
		c.metrics.incNackRecvCount()

		return fmt.Errorf("%w: received negative acknowledgement (NACK)", ErrProtocol)

	default:
		c.recvBuf.unread([]byte{b})

		return fmt.Errorf("%w: received unexpected character %q, neither ACK nor NACK", ErrProtocol, b)
	}
}

// --- Receive operations ---

// RecvPacket reads one complete packet from the stub and returns its raw
// wire form.
//
// The receive timeout bounds the whole operation, however many socket reads
// it takes. The leading byte must be '$'; the body is then scanned byte by
// byte until the '#' delimiter, enforcing the configured maximum packet
// size, and the two checksum digits complete the packet. With
// validateAndAck, the packet is checked via ValidatePacket and, outside
// no-ack mode, acknowledged with an ACK.
//
// A timeout or oversized-packet failure mid-scan leaves the partially read
// bytes consumed: the framing scan cannot resume from an unknown stream
// position, so clean recovery is Close followed by Connect.
func (c *Conn) RecvPacket(validateAndAck bool) ([]byte, error) {
	deadline := newRecvDeadline(c.recvTimeout)

	b, err := c.recvByte(deadline)
	if err != nil {
		return nil, err
	}

	if b != PacketStart {
		return nil, fmt.Errorf("%w: unexpected character %q at the start of packet, expected '$'", ErrProtocol, b)
	}

	packet := make([]byte, 0, 128)
	packet = append(packet, b)

	for {
		b, err = c.recvByte(deadline)
		if err != nil {
			return nil, err
		}

		packet = append(packet, b)

		if len(packet) > c.cfg.maxPacketSize {
			return nil, fmt.Errorf("%w: excessive packet received, larger than %d bytes", ErrProtocol, c.cfg.maxPacketSize)
		}

		if b == PacketEnd {
			break
		}
	}

	checksum, err := c.recvBytes(checksumSize, deadline)
	if err != nil {
		return nil, err
	}
	packet = append(packet, checksum...)

	if validateAndAck {
		if err := ValidatePacket(packet); err != nil {
			c.metrics.incFormatErrCount()

			return nil, err
		}

		if !c.noAckMode {
			if err := c.SendAck(); err != nil {
				return nil, err
			}
		}
	}

	c.metrics.incPacketRecvCount()

	return packet, nil
}

// RecvDecodedPayload reads one packet and returns its payload with escape
// and run-length sequences expanded. The packet is validated and
// acknowledged as in RecvPacket.
func (c *Conn) RecvDecodedPayload() ([]byte, error) {
	packet, err := c.RecvPacket(true)
	if err != nil {
		return nil, err
	}

	_, payload, _, _ := SplitPacket(packet)

	return DecodePayload(payload)
}

// --- Bounded reads ---

// recvBytes returns the next n bytes of the stream, pulling recvBlockSize
// chunks from the socket until enough bytes are buffered or the deadline is
// exhausted. A read that itself times out fails the operation; it is not
// retried.
func (c *Conn) recvBytes(n int, deadline recvDeadline) ([]byte, error) {
	conn := c.getConn()
	if conn == nil {
		return nil, fmt.Errorf("%w: can't receive data", ErrNotConnected)
	}

	chunk := make([]byte, recvBlockSize)

	for c.recvBuf.size() < n {
		wait := deadline.remaining()
		if wait == 0 {
			c.metrics.incRecvTimeoutCount()

			return nil, fmt.Errorf("%w: did not receive required data within %v", ErrRecvTimeout, c.recvTimeout)
		}

		if err := conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
			return nil, fmt.Errorf("rsp: set read deadline: %w", err)
		}

		nRead, err := conn.Read(chunk)
		if nRead > 0 {
			c.recvBuf.write(chunk[:nRead])
		}

		if err != nil {
			if isTimeoutError(err) {
				c.metrics.incRecvTimeoutCount()

				return nil, fmt.Errorf("%w: did not receive required data within %v", ErrRecvTimeout, c.recvTimeout)
			}

			return nil, fmt.Errorf("rsp: read: %w", err)
		}
	}

	return c.recvBuf.next(n), nil
}

// recvByte returns the next single byte of the stream.
func (c *Conn) recvByte(deadline recvDeadline) (byte, error) {
	data, err := c.recvBytes(1, deadline)
	if err != nil {
		return 0, err
	}

	return data[0], nil
}

func isTimeoutError(err error) bool {
	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
