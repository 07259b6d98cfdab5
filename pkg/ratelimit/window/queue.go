package window

import (
	gferrors "github.com/vnykmshr/tenantgate/pkg/common/errors"
)

// Timestamp is a count of milliseconds since a fixed epoch.
type Timestamp int64

// minQueueCapacity is the first allocation made by an empty queue.
const minQueueCapacity = 8

// TimestampQueue is a FIFO of request timestamps backed by a growable ring
// buffer. It is not safe for concurrent use; the registry guards each queue
// with its tenant's lock.
type TimestampQueue struct {
	buf   []Timestamp
	head  int
	count int
	limit int
}

// NewTimestampQueue creates an empty queue whose storage never grows past
// limit elements. A limit of zero or less leaves growth unbounded.
func NewTimestampQueue(limit int) *TimestampQueue {
	return &TimestampQueue{limit: limit}
}

// Append adds ts at the tail. It returns ErrOutOfMemory, leaving the queue
// unchanged, when the allocation ceiling has been reached.
func (q *TimestampQueue) Append(ts Timestamp) error {
	if q.count == len(q.buf) {
		if err := q.grow(); err != nil {
			return err
		}
	}
	q.buf[(q.head+q.count)%len(q.buf)] = ts
	q.count++
	return nil
}

// RemoveHead removes and returns the oldest timestamp.
func (q *TimestampQueue) RemoveHead() (Timestamp, error) {
	if q.count == 0 {
		return 0, gferrors.ErrEmptyQueue
	}
	ts := q.buf[q.head]
	q.buf[q.head] = 0
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	if q.count == 0 {
		q.head = 0
	}
	return ts, nil
}

// PeekHead returns the oldest timestamp without removing it.
func (q *TimestampQueue) PeekHead() (Timestamp, error) {
	if q.count == 0 {
		return 0, gferrors.ErrEmptyQueue
	}
	return q.buf[q.head], nil
}

// PeekTail returns the newest timestamp without removing it.
func (q *TimestampQueue) PeekTail() (Timestamp, error) {
	if q.count == 0 {
		return 0, gferrors.ErrEmptyQueue
	}
	return q.buf[(q.head+q.count-1)%len(q.buf)], nil
}

// At returns the i-th timestamp counting from the head. It panics if i is
// out of range, like a slice index.
func (q *TimestampQueue) At(i int) Timestamp {
	if i < 0 || i >= q.count {
		panic("window: queue index out of range")
	}
	return q.buf[(q.head+i)%len(q.buf)]
}

// Len returns the number of queued timestamps.
func (q *TimestampQueue) Len() int {
	return q.count
}

// Cap returns the size of the backing storage.
func (q *TimestampQueue) Cap() int {
	return len(q.buf)
}

// Snapshot returns a copy of the queue contents, oldest first.
func (q *TimestampQueue) Snapshot() []Timestamp {
	out := make([]Timestamp, q.count)
	for i := range out {
		out[i] = q.At(i)
	}
	return out
}

// Release drops every element and the backing storage.
func (q *TimestampQueue) Release() {
	q.buf = nil
	q.head = 0
	q.count = 0
}

// grow doubles the backing storage, clamped to the queue limit, and
// unwraps the ring so the head lands at index zero.
func (q *TimestampQueue) grow() error {
	if q.limit > 0 && q.count >= q.limit {
		return gferrors.ErrOutOfMemory
	}

	newCap := 2 * len(q.buf)
	if newCap < minQueueCapacity {
		newCap = minQueueCapacity
	}
	if q.limit > 0 && newCap > q.limit {
		newCap = q.limit
	}

	buf := make([]Timestamp, newCap)
	for i := 0; i < q.count; i++ {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = buf
	q.head = 0
	return nil
}
