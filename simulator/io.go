package simulator

import "math/rand"

// Io models the single I/O device: a FIFO queue and at most one process
// performing a non-preemptible operation.
type Io struct {
	queue     *processQueue
	active    *Process
	avgIoTime int64
	stats     *Statistics
	rng       *rand.Rand
}

// NewIo creates a free I/O device whose operations last avgIoTime on average
func NewIo(avgIoTime int64, stats *Statistics, rng *rand.Rand) *Io {
	return &Io{
		queue:     newProcessQueue(),
		avgIoTime: avgIoTime,
		stats:     stats,
		rng:       rng,
	}
}

// AddIoRequest queues p and starts its operation if the device is free
func (io *Io) AddIoRequest(p *Process, clock int64) (Event, bool) {
	io.queue.enq(p)
	if io.active != nil {
		return Event{}, false
	}
	return io.StartIoOperation(clock)
}

// StartIoOperation serves the front of the I/O queue, returning the END_IO
// event of the operation. Nothing happens when the queue is empty.
func (io *Io) StartIoOperation(clock int64) (Event, bool) {
	if io.active != nil {
		panic(ErrInvariant("io: starting an operation at t=%d while process %d is active", clock, io.active.ID()))
	}
	p, ok := io.queue.deq()
	if !ok {
		return Event{}, false
	}
	io.active = p
	p.LeftIoQueue(clock)
	return NewEvent(EventTypeEndIo, clock+IoDuration(io.avgIoTime, io.rng)), true
}

// IoDuration draws one operation length from [avg, 2*avg), never below 1
func IoDuration(avgIoTime int64, rng *rand.Rand) int64 {
	d := avgIoTime + int64(float64(avgIoTime)*rng.Float64())
	if d < 1 {
		return 1
	}
	return d
}

// RemoveActiveProcess completes the running operation and hands the process
// back, ready for the CPU queue.
func (io *Io) RemoveActiveProcess(clock int64) *Process {
	p := io.active
	if p == nil {
		panic(ErrInvariant("io: END_IO at t=%d with no active process", clock))
	}
	p.LeftIo(clock)
	p.ResetIoInterval(io.rng)
	io.active = nil
	io.stats.NofProcessedIoOperations++
	return p
}

// ActiveProcess returns the process performing I/O, if any
func (io *Io) ActiveProcess() (*Process, bool) {
	return io.active, io.active != nil
}

// TimePassed accounts for delta units of virtual time in the current state
func (io *Io) TimePassed(delta int64) {
	checkDelta("io", delta)
	if io.active != nil {
		io.stats.TotalBusyIoTime += delta
	}
	accumulateQueue(&io.stats.IoQueueLengthTime, &io.stats.IoQueueLargestLength, io.queue.qlen(), delta)
}

// IsIdle reports whether no I/O operation is in progress
func (io *Io) IsIdle() bool {
	return io.active == nil
}

// QueueLength returns the number of processes waiting for the device
func (io *Io) QueueLength() int {
	return io.queue.qlen()
}

// QueuedIDs lists the I/O queue front to back
func (io *Io) QueuedIDs() []int64 {
	return io.queue.ids()
}
