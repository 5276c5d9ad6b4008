package simulator

// processQueue is the FIFO shared by the CPU ready queue, the I/O queue and
// the memory queue. A process sits in at most one of them at a time.
type processQueue struct {
	q []*Process
}

func newProcessQueue() *processQueue {
	return &processQueue{q: make([]*Process, 0)}
}

func (q *processQueue) enq(p *Process) {
	q.q = append(q.q, p)
}

func (q *processQueue) deq() (*Process, bool) {
	if len(q.q) == 0 {
		return nil, false
	}
	p := q.q[0]
	q.q[0] = nil
	q.q = q.q[1:]
	return p, true
}

func (q *processQueue) front() (*Process, bool) {
	if len(q.q) == 0 {
		return nil, false
	}
	return q.q[0], true
}

func (q *processQueue) qlen() int {
	return len(q.q)
}

// ids lists the queued process ids front to back
func (q *processQueue) ids() []int64 {
	ids := make([]int64, len(q.q))
	for i, p := range q.q {
		ids[i] = p.ID()
	}
	return ids
}
