package rsp

import "time"

// minReadWait is the smallest wait handed to a blocking read. Remaining
// budgets below this are rounded up to avoid sub-second busy-looping against
// a slow peer.
const minReadWait = time.Second

// recvDeadline bounds one logical receive operation (one packet or one
// acknowledgement byte) across however many socket reads it takes.
//
// The deadline is armed once when the operation starts and never re-armed
// mid-operation; each blocking read uses the currently remaining budget as
// its own wait limit.
type recvDeadline struct {
	at time.Time
}

// newRecvDeadline arms a deadline expiring after timeout.
func newRecvDeadline(timeout time.Duration) recvDeadline {
	return recvDeadline{at: time.Now().Add(timeout)}
}

// remaining returns the wait budget for the next blocking read.
//
// A zero result means the deadline is exhausted and the operation must fail
// with a timeout before attempting another read. A positive remainder below
// one second is rounded up to minReadWait, so the final read may overshoot
// the nominal deadline by up to a second.
func (d recvDeadline) remaining() time.Duration {
	left := time.Until(d.at)

	switch {
	case left <= 0:
		return 0
	case left < minReadWait:
		return minReadWait
	default:
		return left
	}
}
