package engine

// FrameID identifies a pending frame callback.
type FrameID uint64

// Scheduler asks the host to run a callback before the next display refresh.
type Scheduler interface {
	RequestFrame(fn func()) FrameID
	CancelFrame(id FrameID)
}

type frameRequest struct {
	id FrameID
	fn func()
}

// FrameQueue is a host-driven Scheduler. The host calls RunFrame once per
// refresh; callbacks requested while a frame runs wait for the next one.
type FrameQueue struct {
	last    FrameID
	pending []frameRequest
	// dropped holds ids cancelled after their frame started running.
	dropped map[FrameID]bool
}

// RequestFrame queues fn for the next RunFrame.
func (q *FrameQueue) RequestFrame(fn func()) FrameID {
	q.last++
	q.pending = append(q.pending, frameRequest{id: q.last, fn: fn})
	return q.last
}

// CancelFrame drops a queued callback. Unknown ids are ignored.
func (q *FrameQueue) CancelFrame(id FrameID) {
	for i, req := range q.pending {
		if req.id == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
	if q.dropped != nil {
		q.dropped[id] = true
	}
}

// RunFrame runs the callbacks queued before the call and reports how many
// ran.
func (q *FrameQueue) RunFrame() int {
	batch := q.pending
	q.pending = nil
	q.dropped = map[FrameID]bool{}
	defer func() { q.dropped = nil }()

	ran := 0
	for _, req := range batch {
		if q.dropped[req.id] {
			continue
		}
		req.fn()
		ran++
	}
	return ran
}

// Pending reports the number of queued callbacks.
func (q *FrameQueue) Pending() int { return len(q.pending) }
