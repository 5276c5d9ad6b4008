package simulator

// Cpu models the single CPU under Round-Robin: a FIFO ready queue, at most
// one running process, and a fixed quantum.
type Cpu struct {
	queue      *processQueue
	active     *Process
	maxCpuTime int64
	stats      *Statistics
}

// NewCpu creates an idle CPU with the given Round-Robin quantum
func NewCpu(maxCpuTime int64, stats *Statistics) *Cpu {
	if maxCpuTime <= 0 {
		panic(ErrInvariant("cpu: quantum must be > 0, got %d", maxCpuTime))
	}
	return &Cpu{
		queue:      newProcessQueue(),
		maxCpuTime: maxCpuTime,
		stats:      stats,
	}
}

// InsertProcess appends p to the ready queue and dispatches it right away
// if the CPU is idle.
func (c *Cpu) InsertProcess(p *Process, clock int64) (Event, bool) {
	c.queue.enq(p)
	if c.IsIdle() {
		return c.SwitchProcess(clock)
	}
	return Event{}, false
}

// SwitchProcess dispatches the front of the ready queue and returns the event
// that will take it off the CPU. With an empty queue the CPU goes idle.
func (c *Cpu) SwitchProcess(clock int64) (Event, bool) {
	if c.active != nil {
		panic(ErrInvariant("cpu: switching in at t=%d while process %d is still active", clock, c.active.ID()))
	}
	p, ok := c.queue.deq()
	if !ok {
		return Event{}, false
	}
	c.active = p
	c.stats.NofProcessSwitches++
	p.LeftReadyQueue(clock)

	kind, runFor := decideDispatch(p.CpuTimeNeeded(), c.maxCpuTime, p.TimeToNextIoOperation())
	return NewEvent(kind, clock+runFor), true
}

// decideDispatch is the Round-Robin rule. Ties go to finishing over I/O and
// to I/O over preemption.
func decideDispatch(cpuTimeNeeded, maxCpuTime, timeToNextIo int64) (EventType, int64) {
	switch {
	case cpuTimeNeeded <= maxCpuTime && cpuTimeNeeded <= timeToNextIo:
		return EventTypeEndProcess, cpuTimeNeeded
	case timeToNextIo <= maxCpuTime:
		return EventTypeIoRequest, timeToNextIo
	default:
		return EventTypeSwitchProcess, maxCpuTime
	}
}

// ActiveProcessLeft is called once the running process has left the CPU
// (finished or went to I/O). Its CPU time is accounted and the next ready
// process is dispatched.
func (c *Cpu) ActiveProcessLeft(clock int64) (Event, bool) {
	if c.active != nil {
		c.active.LeftCpu(clock)
		c.active = nil
	}
	return c.SwitchProcess(clock)
}

// PreemptActiveProcess handles quantum expiry: the running process goes to
// the back of the ready queue and the front one is dispatched. With nothing
// else ready the same process is dispatched again.
func (c *Cpu) PreemptActiveProcess(clock int64) (Event, bool) {
	p := c.active
	if p == nil {
		panic(ErrInvariant("cpu: preemption at t=%d with no active process", clock))
	}
	p.LeftCpu(clock)
	c.active = nil
	c.stats.NofForcedProcessSwitches++
	c.queue.enq(p)
	return c.SwitchProcess(clock)
}

// ActiveProcess returns the running process, if any
func (c *Cpu) ActiveProcess() (*Process, bool) {
	return c.active, c.active != nil
}

// TimePassed accounts for delta units of virtual time in the current state
func (c *Cpu) TimePassed(delta int64) {
	checkDelta("cpu", delta)
	if c.active != nil {
		c.stats.TotalBusyCpuTime += delta
	}
	accumulateQueue(&c.stats.CpuQueueLengthTime, &c.stats.CpuQueueLargestLength, c.queue.qlen(), delta)
}

// IsIdle reports whether no process holds the CPU
func (c *Cpu) IsIdle() bool {
	return c.active == nil
}

// QueueLength returns the number of processes in the ready queue
func (c *Cpu) QueueLength() int {
	return c.queue.qlen()
}

// QueuedIDs lists the ready queue front to back
func (c *Cpu) QueuedIDs() []int64 {
	return c.queue.ids()
}

// MaxCpuTime returns the quantum
func (c *Cpu) MaxCpuTime() int64 {
	return c.maxCpuTime
}
