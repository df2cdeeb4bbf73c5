package arp

import "sync"

// PerformanceStats aggregates transmission and capture counters. The running
// averages use the (avg + sample) / 2 update, which weighs recent samples
// heavily; it is kept as the documented behavior rather than a true EWMA.
type PerformanceStats struct {
	PacketsSent      uint64  `json:"packets_sent"`
	PacketsReceived  uint64  `json:"packets_received"`
	SendErrors       uint64  `json:"send_errors"`
	ReceiveErrors    uint64  `json:"receive_errors"`
	AvgSendTimeMs    float64 `json:"avg_send_time_ms"`
	AvgReceiveTimeMs float64 `json:"avg_receive_time_ms"`
}

// Stats is the shared mutable aggregate behind PerformanceStats. All writers
// funnel through its mutex.
type Stats struct {
	mu sync.Mutex
	s  PerformanceStats
}

// RecordSend accounts one transmission attempt that reached the capture
// library.
func (st *Stats) RecordSend(sampleMs float64, ok bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.PacketsSent++
	if !ok {
		st.s.SendErrors++
	}
	st.s.AvgSendTimeMs = (st.s.AvgSendTimeMs + sampleMs) / 2
}

// RecordSendDropped accounts a send that never reached the capture library
// (no open handle). Only the error counter moves.
func (st *Stats) RecordSendDropped() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.SendErrors++
}

// RecordReceive accounts one captured frame.
func (st *Stats) RecordReceive(sampleMs float64, ok bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.PacketsReceived++
	if !ok {
		st.s.ReceiveErrors++
	}
	st.s.AvgReceiveTimeMs = (st.s.AvgReceiveTimeMs + sampleMs) / 2
}

// Snapshot returns a copy of the current counters.
func (st *Stats) Snapshot() PerformanceStats {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s
}

// Reset zeroes all counters and averages.
func (st *Stats) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s = PerformanceStats{}
}
