package simulator

import (
	"fmt"
	"math/rand"
	"sync/atomic"

	"github.com/markphelps/optional"
)

// IDGenerator hands out process ids for one simulation run
type IDGenerator interface {
	Generate() int64
}

// NewIDGenerator returns a sequential generator whose first id is 1
func NewIDGenerator() IDGenerator {
	return &sequentialIDGenerator{}
}

type sequentialIDGenerator struct {
	nextID int64
}

func (g *sequentialIDGenerator) Generate() int64 {
	return atomic.AddInt64(&g.nextID, 1)
}

// ProcessTimes holds the per-state durations and visit counters of a process
type ProcessTimes struct {
	WaitingForMemory int64 `json:"waitingForMemory"`
	InReadyQueue     int64 `json:"inReadyQueue"`
	InCpu            int64 `json:"inCpu"`
	WaitingForIo     int64 `json:"waitingForIo"`
	InIo             int64 `json:"inIo"`

	NofTimesInReadyQueue int64 `json:"nofTimesInReadyQueue"`
	NofTimesInIoQueue    int64 `json:"nofTimesInIoQueue"`
}

// Total returns the sum of all per-state durations
func (t ProcessTimes) Total() int64 {
	return t.WaitingForMemory + t.InReadyQueue + t.InCpu + t.WaitingForIo + t.InIo
}

// Process is a simulated program: what it still needs and where its time went.
// It has no scheduling behaviour; Cpu, Io and Memory call the Left* methods
// when the process leaves one of their queues or slots.
type Process struct {
	id            int64
	memoryNeeded  int64
	cpuTimeNeeded int64
	avgIoInterval int64

	// CPU time left before the process blocks for I/O
	timeToNextIoOperation int64

	times           ProcessTimes
	creationTime    int64
	timeOfLastEvent int64
	completionTime  optional.Int64
}

// NewProcess creates a process arriving at creationTime with randomized needs:
// memory from 100 to 25% of memorySize, 100 to 10000 units of CPU time, and an
// average I/O interval of 1% to 25% of the CPU time.
func NewProcess(id, memorySize, creationTime int64, rng *rand.Rand) *Process {
	memoryNeeded := 100 + int64(rng.Float64()*float64(memorySize/4-100))
	cpuTimeNeeded := 100 + int64(rng.Float64()*9900)
	avgIoInterval := (1 + int64(rng.Float64()*25)) * cpuTimeNeeded / 100

	return newProcessWithNeeds(id, memoryNeeded, cpuTimeNeeded, avgIoInterval,
		NextIoInterval(avgIoInterval, rng), creationTime)
}

func newProcessWithNeeds(id, memoryNeeded, cpuTimeNeeded, avgIoInterval, timeToNextIo, creationTime int64) *Process {
	return &Process{
		id:                    id,
		memoryNeeded:          memoryNeeded,
		cpuTimeNeeded:         cpuTimeNeeded,
		avgIoInterval:         avgIoInterval,
		timeToNextIoOperation: timeToNextIo,
		creationTime:          creationTime,
		timeOfLastEvent:       creationTime,
	}
}

// NextIoInterval draws the CPU time until the next I/O request: uniform in
// [0.8*avg, 1.2*avg], never less than 1.
func NextIoInterval(avgIoInterval int64, rng *rand.Rand) int64 {
	lo := int64(0.8 * float64(avgIoInterval))
	hi := int64(1.2 * float64(avgIoInterval))
	interval := lo
	if hi > lo {
		interval = lo + rng.Int63n(hi-lo+1)
	}
	if interval < 1 {
		return 1
	}
	return interval
}

func (p *Process) ID() int64                    { return p.id }
func (p *Process) MemoryNeeded() int64          { return p.memoryNeeded }
func (p *Process) CpuTimeNeeded() int64         { return p.cpuTimeNeeded }
func (p *Process) AvgIoInterval() int64         { return p.avgIoInterval }
func (p *Process) TimeToNextIoOperation() int64 { return p.timeToNextIoOperation }
func (p *Process) CreationTime() int64          { return p.creationTime }
func (p *Process) TimeOfLastEvent() int64       { return p.timeOfLastEvent }
func (p *Process) Times() ProcessTimes          { return p.times }

// CompletionTime is present once the process has left the system
func (p *Process) CompletionTime() optional.Int64 { return p.completionTime }

func (p *Process) String() string {
	return fmt.Sprintf("Process(id=%d, mem=%d, cpuLeft=%d, toIo=%d)",
		p.id, p.memoryNeeded, p.cpuTimeNeeded, p.timeToNextIoOperation)
}

// elapsed closes the current state segment at clock and returns its length
func (p *Process) elapsed(clock int64) int64 {
	d := clock - p.timeOfLastEvent
	if d < 0 {
		panic(ErrInvariant("process %d: clock %d is before its last event at %d", p.id, clock, p.timeOfLastEvent))
	}
	p.timeOfLastEvent = clock
	return d
}

// LeftMemoryQueue is called when the process is admitted into memory
func (p *Process) LeftMemoryQueue(clock int64) {
	p.times.WaitingForMemory += p.elapsed(clock)
}

// LeftReadyQueue is called when the process is dispatched to the CPU
func (p *Process) LeftReadyQueue(clock int64) {
	p.times.NofTimesInReadyQueue++
	p.times.InReadyQueue += p.elapsed(clock)
}

// LeftCpu is called when the process stops running. The CPU time used is
// taken off both the remaining need and the time to the next I/O request.
func (p *Process) LeftCpu(clock int64) {
	d := p.elapsed(clock)
	p.times.InCpu += d
	p.cpuTimeNeeded = max(p.cpuTimeNeeded-d, 0)
	p.timeToNextIoOperation = max(p.timeToNextIoOperation-d, 0)
}

// LeftIoQueue is called when the I/O device starts serving the process
func (p *Process) LeftIoQueue(clock int64) {
	p.times.NofTimesInIoQueue++
	p.times.WaitingForIo += p.elapsed(clock)
}

// LeftIo is called when the process' I/O operation completes
func (p *Process) LeftIo(clock int64) {
	p.times.InIo += p.elapsed(clock)
}

// ResetIoInterval starts a new CPU phase after an I/O operation
func (p *Process) ResetIoInterval(rng *rand.Rand) {
	p.timeToNextIoOperation = NextIoInterval(p.avgIoInterval, rng)
}

// UpdateStatistics adds this process' accumulators to stats. It is called
// once, when the process leaves the system at clock.
func (p *Process) UpdateStatistics(stats *Statistics, clock int64) {
	if p.completionTime.Present() {
		panic(ErrInvariant("process %d: statistics already flushed", p.id))
	}
	if clock != p.timeOfLastEvent {
		panic(ErrInvariant("process %d: completed at %d with unaccounted time since %d", p.id, clock, p.timeOfLastEvent))
	}
	p.completionTime = optional.NewInt64(clock)

	stats.TotalTimeSpentWaitingForMemory += p.times.WaitingForMemory
	stats.TotalTimeSpentInReadyQueue += p.times.InReadyQueue
	stats.TotalTimeSpentInCpu += p.times.InCpu
	stats.TotalTimeSpentWaitingForIo += p.times.WaitingForIo
	stats.TotalTimeSpentInIo += p.times.InIo

	stats.TotalNofTimesInReadyQueue += p.times.NofTimesInReadyQueue
	stats.TotalNofTimesInIoQueue += p.times.NofTimesInIoQueue

	stats.turnaroundTimes = append(stats.turnaroundTimes, float64(clock-p.creationTime))
}
