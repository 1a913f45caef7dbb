package rsp

import (
	"io"
	"net"
	"testing"
	"time"
)

// newTestConfig creates a ConnConfig with a short receive timeout suitable
// for tests.
func newTestConfig(t *testing.T, opts ...ConnOption) *ConnConfig {
	t.Helper()

	defaults := []ConnOption{
		WithRecvTimeout(200 * time.Millisecond),
	}

	cfg, err := NewConnConfig("127.0.0.1", 3333, append(defaults, opts...)...)
	if err != nil {
		t.Fatalf("newTestConfig: %v", err)
	}

	return cfg
}

// newTestConn creates a Conn wired to the local end of net.Pipe(), bypassing
// the TCP dial. Returns the conn and the remote end for test scripting.
func newTestConn(t *testing.T, opts ...ConnOption) (*Conn, net.Conn) {
	t.Helper()

	cfg := newTestConfig(t, opts...)

	c, err := NewConn(cfg)
	if err != nil {
		t.Fatalf("newTestConn: %v", err)
	}

	local, remote := net.Pipe()
	t.Cleanup(func() {
		_ = local.Close()
		_ = remote.Close()
	})

	c.tcpConn = local

	return c, remote
}

// readExactly reads exactly n bytes from r, failing the test on error.
func readExactly(t *testing.T, r io.Reader, n int) []byte {
	t.Helper()

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("readExactly: %v", err)
	}

	return buf
}

// readOneByte reads exactly 1 byte from r, failing the test on error.
func readOneByte(t *testing.T, r io.Reader) byte {
	t.Helper()

	return readExactly(t, r, 1)[0]
}

// mustWrite writes data to w, failing the test on error.
func mustWrite(t *testing.T, w io.Writer, data []byte) {
	t.Helper()

	_, err := w.Write(data)
	if err != nil {
		t.Fatalf("mustWrite: %v", err)
	}
}

// expectSilence asserts that no byte arrives on r within wait.
func expectSilence(t *testing.T, r net.Conn, wait time.Duration) {
	t.Helper()

	_ = r.SetReadDeadline(time.Now().Add(wait))

	buf := make([]byte, 1)
	if n, err := r.Read(buf); err == nil || n > 0 {
		t.Fatalf("expectSilence: unexpected byte %q", buf[:n])
	}

	_ = r.SetReadDeadline(time.Time{})
}
