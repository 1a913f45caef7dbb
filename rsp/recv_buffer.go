package rsp

import "github.com/arloliu/go-gdbrsp/internal/util"

// recvBuffer holds bytes read from the connection ahead of consumption.
//
// TCP delivers a byte stream with no packet boundaries, so a single socket
// read may return a partial packet or span several packets. The buffer
// decouples consumption from socket reads: readers take exactly the bytes
// they need and the remainder stays queued for the next operation.
//
// recvBuffer is not safe for concurrent use; the owning connection
// serializes access to it.
type recvBuffer struct {
	data []byte
}

// size returns the number of buffered bytes.
func (b *recvBuffer) size() int {
	return len(b.data)
}

// write appends data at the tail of the buffer.
func (b *recvBuffer) write(data []byte) {
	b.data = append(b.data, data...)
}

// next removes and returns the first n buffered bytes. When fewer than n
// bytes are buffered it returns all of them. The returned slice is a copy.
func (b *recvBuffer) next(n int) []byte {
	if n > len(b.data) {
		n = len(b.data)
	}
	if n <= 0 {
		return nil
	}

	out := util.CloneSlice(b.data[:n], 0)
	b.data = b.data[n:]

	return out
}

// unread returns data to the front of the buffer so that subsequent reads
// see it first. The acknowledgement check uses this to restore a byte that
// turned out not to be part of the handshake.
func (b *recvBuffer) unread(data []byte) {
	if len(data) == 0 {
		return
	}

	merged := make([]byte, 0, len(data)+len(b.data))
	merged = append(merged, data...)
	merged = append(merged, b.data...)
	b.data = merged
}

// reset discards all buffered bytes.
func (b *recvBuffer) reset() {
	b.data = nil
}
