package simulator

// Memory admits processes into the system in arrival order, as long as the
// process at the front of the memory queue fits in free memory.
type Memory struct {
	queue      *processQueue
	memorySize int64
	freeMemory int64
	stats      *Statistics
}

// NewMemory creates an empty memory of memorySize kB
func NewMemory(memorySize int64, stats *Statistics) *Memory {
	return &Memory{
		queue:      newProcessQueue(),
		memorySize: memorySize,
		freeMemory: memorySize,
		stats:      stats,
	}
}

// InsertProcess puts a newly created process at the back of the memory queue
func (m *Memory) InsertProcess(p *Process) {
	m.queue.enq(p)
}

// CheckMemory admits the front process if it fits. Admission is strictly
// FIFO: a large process at the front blocks the ones behind it.
func (m *Memory) CheckMemory(clock int64) (*Process, bool) {
	p, ok := m.queue.front()
	if !ok || p.MemoryNeeded() > m.freeMemory {
		return nil, false
	}
	m.queue.deq()
	m.freeMemory -= p.MemoryNeeded()
	p.LeftMemoryQueue(clock)
	return p, true
}

// ProcessCompleted releases the memory held by a finished process
func (m *Memory) ProcessCompleted(p *Process) {
	m.freeMemory += p.MemoryNeeded()
	if m.freeMemory > m.memorySize {
		panic(ErrInvariant("memory: released more than allocated (free=%d, size=%d)", m.freeMemory, m.memorySize))
	}
}

// TimePassed accounts for delta units of virtual time
func (m *Memory) TimePassed(delta int64) {
	checkDelta("memory", delta)
	accumulateQueue(&m.stats.MemoryQueueLengthTime, &m.stats.MemoryQueueLargestLength, m.queue.qlen(), delta)
}

// FreeMemory returns the unallocated memory in kB
func (m *Memory) FreeMemory() int64 {
	return m.freeMemory
}

// QueueLength returns the number of processes waiting for memory
func (m *Memory) QueueLength() int {
	return m.queue.qlen()
}
