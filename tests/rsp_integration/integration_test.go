package rspintegration

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-gdbrsp/gdb"
	"github.com/arloliu/go-gdbrsp/rsp"
)

// stubConn is the stub's side of one accepted connection.
type stubConn struct {
	conn   net.Conn
	reader *bufio.Reader
}

func (s *stubConn) expect(expected []byte) error {
	if err := s.conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		return err
	}

	got := make([]byte, len(expected))
	if _, err := io.ReadFull(s.reader, got); err != nil {
		return fmt.Errorf("reading %q: %w", expected, err)
	}

	if !bytes.Equal(got, expected) {
		return fmt.Errorf("expected %q, got %q", expected, got)
	}

	return nil
}

func (s *stubConn) send(data []byte) error {
	_, err := s.conn.Write(data)

	return err
}

// expectSilence fails when the client sends anything within wait. A closed
// connection also counts as silence.
func (s *stubConn) expectSilence(wait time.Duration) error {
	if err := s.conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
		return err
	}

	if b, err := s.reader.ReadByte(); err == nil {
		return fmt.Errorf("expected silence from client, got %q", b)
	}

	return nil
}

// expectClientClose waits for the client to close its end.
func expectClientClose(stub *stubConn) error {
	if err := stub.conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return err
	}

	b, err := stub.reader.ReadByte()
	if err == nil {
		return fmt.Errorf("expected client close, got byte %q", b)
	}
	if errors.Is(err, io.EOF) {
		return nil
	}

	return fmt.Errorf("expected client close, got %w", err)
}

// startStub starts a TCP listener on a free loopback port and serves one
// accepted connection per script, in order. The returned channel carries
// the first script error, or nil once all scripts finish.
func startStub(t *testing.T, scripts ...func(stub *stubConn) error) (int, <-chan error) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	errCh := make(chan error, 1)
	go func() {
		for _, script := range scripts {
			conn, err := ln.Accept()
			if err != nil {
				errCh <- err

				return
			}

			err = script(&stubConn{conn: conn, reader: bufio.NewReader(conn)})
			_ = conn.Close()

			if err != nil {
				errCh <- err

				return
			}
		}
		errCh <- nil
	}()

	addr, ok := ln.Addr().(*net.TCPAddr)
	require.True(t, ok)

	return addr.Port, errCh
}

func waitStub(t *testing.T, done <-chan error) {
	t.Helper()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for stub script to finish")
	}
}

func getFreePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	addr, ok := ln.Addr().(*net.TCPAddr)
	require.True(t, ok)

	return addr.Port
}

func mustPacket(t *testing.T, payload string) []byte {
	t.Helper()

	packet, err := rsp.CreatePacket([]byte(payload), nil)
	require.NoError(t, err)

	return packet
}

func newTestConn(t *testing.T, port int, opts ...rsp.ConnOption) *rsp.Conn {
	t.Helper()

	baseOpts := []rsp.ConnOption{rsp.WithRecvTimeout(2 * time.Second)}
	baseOpts = append(baseOpts, opts...)

	cfg, err := rsp.NewConnConfig("127.0.0.1", port, baseOpts...)
	require.NoError(t, err)

	conn, err := rsp.NewConn(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func newTestClient(t *testing.T, port int, opts ...rsp.ConnOption) *gdb.Client {
	t.Helper()

	baseOpts := []rsp.ConnOption{rsp.WithRecvTimeout(2 * time.Second)}
	baseOpts = append(baseOpts, opts...)

	cfg, err := rsp.NewConnConfig("127.0.0.1", port, baseOpts...)
	require.NoError(t, err)

	client, err := gdb.NewClient(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Connect(context.Background()))

	return client
}

// ===========================================================================
// Lifecycle
// ===========================================================================

func TestRSP_Integration_ConnectClose(t *testing.T) {
	port, done := startStub(t, expectClientClose)

	conn := newTestConn(t, port)
	require.NoError(t, conn.Connect(context.Background()))
	assert.True(t, conn.IsConnected())

	require.NoError(t, conn.Close())
	assert.False(t, conn.IsConnected())

	waitStub(t, done)
}

func TestRSP_Integration_DialFailure(t *testing.T) {
	// Nothing listens on the port once getFreePort's probe listener closes.
	port := getFreePort(t)

	conn := newTestConn(t, port, rsp.WithDialTimeout(time.Second))
	err := conn.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "dial")
	assert.False(t, conn.IsConnected())
}

func TestRSP_Integration_ReconnectResetsNoAckMode(t *testing.T) {
	port, done := startStub(t, expectClientClose, expectClientClose)

	conn := newTestConn(t, port)
	require.NoError(t, conn.Connect(context.Background()))

	conn.SetNoAckMode(true)
	require.True(t, conn.NoAckMode())

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Connect(context.Background()))
	assert.False(t, conn.NoAckMode(), "fresh connection starts with acknowledgements enabled")

	require.NoError(t, conn.Close())
	waitStub(t, done)
}

// ===========================================================================
// Command exchange
// ===========================================================================

func TestRSP_Integration_CommandExchange(t *testing.T) {
	cmdPacket := mustPacket(t, "qSupported")
	replyPacket := mustPacket(t, "PacketSize=1000;qXfer:features:read+")

	port, done := startStub(t, func(stub *stubConn) error {
		if err := stub.expect(cmdPacket); err != nil {
			return err
		}
		if err := stub.send([]byte{rsp.Ack}); err != nil {
			return err
		}
		if err := stub.send(replyPacket); err != nil {
			return err
		}

		return stub.expect([]byte{rsp.Ack})
	})

	client := newTestClient(t, port)

	reply, err := client.Cmd("qSupported")
	require.NoError(t, err)
	assert.Equal(t, "PacketSize=1000;qXfer:features:read+", reply)

	require.NoError(t, client.Close())
	waitStub(t, done)
}

func TestRSP_Integration_NoAckNegotiation(t *testing.T) {
	negotiatePacket := mustPacket(t, "QStartNoAckMode")
	okPacket := mustPacket(t, "OK")
	cmdPacket := mustPacket(t, "qAttached")
	replyPacket := mustPacket(t, "1")

	port, done := startStub(t, func(stub *stubConn) error {
		// Negotiation still runs with the handshake active.
		if err := stub.expect(negotiatePacket); err != nil {
			return err
		}
		if err := stub.send([]byte{rsp.Ack}); err != nil {
			return err
		}
		if err := stub.send(okPacket); err != nil {
			return err
		}
		if err := stub.expect([]byte{rsp.Ack}); err != nil {
			return err
		}

		// From here on neither side acknowledges.
		if err := stub.expect(cmdPacket); err != nil {
			return err
		}
		if err := stub.send(replyPacket); err != nil {
			return err
		}

		return stub.expectSilence(150 * time.Millisecond)
	})

	client := newTestClient(t, port)
	require.NoError(t, client.StartNoAckMode())

	reply, err := client.Cmd("qAttached")
	require.NoError(t, err)
	assert.Equal(t, "1", reply)

	waitStub(t, done)
	require.NoError(t, client.Close())
}

// ===========================================================================
// Program run and stop
// ===========================================================================

func TestRSP_Integration_StopReplyConsoleOutput(t *testing.T) {
	resumePacket := mustPacket(t, "vCont;c")
	consolePacket1 := mustPacket(t, "O61206220630a") // "a b c\n"
	consolePacket2 := mustPacket(t, "O646566")       // "def"
	stopPacket := mustPacket(t, "T05")

	port, done := startStub(t, func(stub *stubConn) error {
		if err := stub.expect(resumePacket); err != nil {
			return err
		}
		if err := stub.send([]byte{rsp.Ack}); err != nil {
			return err
		}

		for _, packet := range [][]byte{consolePacket1, consolePacket2, stopPacket} {
			if err := stub.send(packet); err != nil {
				return err
			}
			if err := stub.expect([]byte{rsp.Ack}); err != nil {
				return err
			}
		}

		return nil
	})

	client := newTestClient(t, port)

	require.NoError(t, client.CmdNoReply("vCont;c"))

	reply, console, err := client.StopReply()
	require.NoError(t, err)
	assert.Equal(t, "T05", reply)
	assert.Equal(t, "a b c\ndef", console)

	waitStub(t, done)
	require.NoError(t, client.Close())
}

func TestRSP_Integration_Interrupt(t *testing.T) {
	resumePacket := mustPacket(t, "vCont;c")
	stopPacket := mustPacket(t, "T02")

	port, done := startStub(t, func(stub *stubConn) error {
		if err := stub.expect(resumePacket); err != nil {
			return err
		}
		if err := stub.send([]byte{rsp.Ack}); err != nil {
			return err
		}

		// The interrupt byte arrives outside any packet.
		if err := stub.expect([]byte{rsp.Interrupt}); err != nil {
			return err
		}

		if err := stub.send(stopPacket); err != nil {
			return err
		}

		return stub.expect([]byte{rsp.Ack})
	})

	client := newTestClient(t, port)

	require.NoError(t, client.CmdNoReply("vCont;c"))
	require.NoError(t, client.Interrupt())

	reply, console, err := client.StopReply()
	require.NoError(t, err)
	assert.Equal(t, "T02", reply)
	assert.Equal(t, "", console)

	waitStub(t, done)
	require.NoError(t, client.Close())
}

// ===========================================================================
// Failure paths
// ===========================================================================

func TestRSP_Integration_NackSurfaced(t *testing.T) {
	cmdPacket := mustPacket(t, "qSupported")

	port, done := startStub(t, func(stub *stubConn) error {
		if err := stub.expect(cmdPacket); err != nil {
			return err
		}

		// Reject the packet; the client reports the NACK instead of retrying.
		if err := stub.send([]byte{rsp.Nack}); err != nil {
			return err
		}

		return stub.expectSilence(150 * time.Millisecond)
	})

	conn := newTestConn(t, port)
	require.NoError(t, conn.Connect(context.Background()))

	err := conn.SendPacket([]byte("qSupported"))
	require.Error(t, err)
	assert.ErrorIs(t, err, rsp.ErrProtocol)
	assert.ErrorContains(t, err, "negative acknowledgement")
	assert.Equal(t, uint64(1), conn.GetMetrics().NackRecvCount.Load())

	waitStub(t, done)
	require.NoError(t, conn.Close())
}

func TestRSP_Integration_RecvTimeout(t *testing.T) {
	cmdPacket := mustPacket(t, "qSupported")

	port, done := startStub(t, func(stub *stubConn) error {
		if err := stub.expect(cmdPacket); err != nil {
			return err
		}
		if err := stub.send([]byte{rsp.Ack}); err != nil {
			return err
		}

		// Never answer; the client must give up on its own.
		return expectClientClose(stub)
	})

	client := newTestClient(t, port, rsp.WithRecvTimeout(300*time.Millisecond))

	start := time.Now()
	_, err := client.Cmd("qSupported")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, rsp.ErrRecvTimeout)
	// Sub-second timeouts wait a full one-second read window.
	assert.GreaterOrEqual(t, elapsed, 500*time.Millisecond)
	assert.Less(t, elapsed, 3*time.Second)

	require.NoError(t, client.Close())
	waitStub(t, done)
}

func TestRSP_Integration_StubCloses(t *testing.T) {
	cmdPacket := mustPacket(t, "qSupported")

	port, done := startStub(t, func(stub *stubConn) error {
		if err := stub.expect(cmdPacket); err != nil {
			return err
		}

		// Close without acknowledging; the script's deferred close sends EOF.
		return nil
	})

	client := newTestClient(t, port)

	_, err := client.Cmd("qSupported")
	require.Error(t, err)
	assert.NotErrorIs(t, err, rsp.ErrRecvTimeout, "peer close should surface as a read error, not a timeout")

	waitStub(t, done)
}
