package rsp

import (
	"sync/atomic"
)

// ConnMetrics contains atomic metrics for an RSP connection.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type ConnMetrics struct {
	// PacketSendCount indicates the number of packets written to the stub.
	PacketSendCount atomic.Uint64
	// PacketRecvCount indicates the number of packets received from the stub.
	PacketRecvCount atomic.Uint64

	// AckRecvCount indicates the number of positive acknowledgements received.
	AckRecvCount atomic.Uint64
	// NackRecvCount indicates the number of negative acknowledgements received.
	NackRecvCount atomic.Uint64

	// RecvTimeoutCount indicates the number of receive operations that hit
	// the configured timeout.
	RecvTimeoutCount atomic.Uint64
	// FormatErrCount indicates the number of received packets rejected by
	// validation.
	FormatErrCount atomic.Uint64
}

func (m *ConnMetrics) incPacketSendCount() {
	m.PacketSendCount.Add(1)
}

func (m *ConnMetrics) incPacketRecvCount() {
	m.PacketRecvCount.Add(1)
}

func (m *ConnMetrics) incAckRecvCount() {
	m.AckRecvCount.Add(1)
}

func (m *ConnMetrics) incNackRecvCount() {
	m.NackRecvCount.Add(1)
}

func (m *ConnMetrics) incRecvTimeoutCount() {
	m.RecvTimeoutCount.Add(1)
}

func (m *ConnMetrics) incFormatErrCount() {
	m.FormatErrCount.Add(1)
}
