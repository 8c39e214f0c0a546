package main

import "sync/atomic"

// Metrics holds the atomic counters reported by INFO.
type Metrics struct {
	TotalConnections atomic.Uint64 // Connections ever accepted
	TotalCommands    atomic.Uint64 // Commands dispatched, including unknown ones
	FailedCommands   atomic.Uint64 // Commands answered with an error reply
}

// NewMetrics creates and returns a new Metrics struct.
func NewMetrics() *Metrics {
	return &Metrics{}
}
