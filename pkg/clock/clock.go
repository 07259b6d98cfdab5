// Package clock supplies millisecond timestamps to the admission limiter.
//
// System anchors a wall-clock epoch once and advances it with Go's monotonic
// clock, so readings never jump backwards when the wall clock is adjusted.
// Manual is a virtual clock for tests and traffic simulation.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock provides the current time in milliseconds since the Unix epoch.
type Clock interface {
	NowMillis() int64
}

// Func adapts an ordinary function to the Clock interface.
type Func func() int64

// NowMillis calls f.
func (f Func) NowMillis() int64 {
	return f()
}

// System implements Clock using the process clock. The zero value is not
// usable; create one with NewSystem.
type System struct {
	anchor time.Time
}

// NewSystem returns a System clock anchored at the current instant.
func NewSystem() *System {
	return &System{anchor: time.Now()}
}

// NowMillis returns the anchor's wall time plus monotonic elapsed time.
func (s *System) NowMillis() int64 {
	return s.anchor.UnixMilli() + time.Since(s.anchor).Milliseconds()
}

// Manual is a controllable clock. It is safe for concurrent use.
type Manual struct {
	now atomic.Int64
}

// NewManual creates a Manual clock reading start.
func NewManual(start int64) *Manual {
	m := &Manual{}
	m.now.Store(start)
	return m
}

// NowMillis returns the current virtual time.
func (m *Manual) NowMillis() int64 {
	return m.now.Load()
}

// Advance moves the clock forward by d, truncated to whole milliseconds.
func (m *Manual) Advance(d time.Duration) int64 {
	return m.now.Add(d.Milliseconds())
}

// AdvanceMillis moves the clock by ms and returns the new reading.
// Negative values move it backwards, which is how tests model clock regression.
func (m *Manual) AdvanceMillis(ms int64) int64 {
	return m.now.Add(ms)
}

// Set sets the clock to ms.
func (m *Manual) Set(ms int64) {
	m.now.Store(ms)
}
