package api

import "sync/atomic"

// Tracker guards a logical query against stale responses. Each new
// invocation of the query takes a sequence number with Next; before applying
// a resolved response the caller checks Current with its captured number and
// silently drops the result on a mismatch, since a newer call has superseded
// it.
//
// This restores correct outcomes when requests complete out of order. It
// complements context cancellation rather than replacing it: cancel the
// superseded call when possible and check the counter regardless, because an
// already-dispatched request cannot be terminated mid-flight, only ignored.
//
// The zero value is ready to use.
type Tracker struct {
	seq atomic.Uint64
}

// Next issues the sequence number for a new invocation of the query.
func (t *Tracker) Next() uint64 {
	return t.seq.Add(1)
}

// Current reports whether seq still identifies the latest invocation.
func (t *Tracker) Current(seq uint64) bool {
	return t.seq.Load() == seq
}
