package simulator

import (
	"fmt"
	"math/rand"
	"time"
)

// Simulator is a PURE discrete event simulator with NO concurrency primitives.
// It owns the event queue and the virtual clock, and drives the Cpu, Io and
// Memory components by calling their handlers in timestamp order.
// The caller (cmd/server, cmd/sim_runner) manages pacing and threading.
type Simulator struct {
	config      SimConfig
	queue       *EventQueue
	cpu         *Cpu
	io          *Io
	memory      *Memory
	stats       *Statistics
	rng         *rand.Rand
	ids         IDGenerator
	virtualTime int64

	// Event logging callback (optional, for UI/debugging)
	LogEvent func(msg string)

	// Tracer receives every handled event (optional)
	Tracer EventTracer
}

// NewSimulator creates a new simulator
func NewSimulator(config SimConfig) (*Simulator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var rng *rand.Rand
	if config.RandomSeed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	} else {
		rng = rand.New(rand.NewSource(config.RandomSeed))
	}

	stats := NewStatistics()
	sim := &Simulator{
		config:      config,
		queue:       NewEventQueue(),
		cpu:         NewCpu(config.MaxCpuTime, stats),
		io:          NewIo(config.AvgIoTime, stats, rng),
		memory:      NewMemory(config.MemorySize, stats),
		stats:       stats,
		rng:         rng,
		ids:         NewIDGenerator(),
		virtualTime: 0,
	}

	// Note: Simulator starts in "dormant" state with no events scheduled
	// Call Reset() to get a ready-to-run simulator
	return sim, nil
}

// Reset resets the simulation to initial state and schedules the first arrival
func (s *Simulator) Reset() error {
	newSim, err := NewSimulator(s.config)
	if err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	// Preserve the callbacks
	logEvent := s.LogEvent
	tracer := s.Tracer

	*s = *newSim

	s.LogEvent = logEvent
	s.Tracer = tracer

	s.queue.Push(NewEvent(EventTypeNewProcess, 0))
	s.logEvent("[INIT] t=0 memory=%dkB quantum=%d avgIoTime=%d length=%d",
		s.config.MemorySize, s.config.MaxCpuTime, s.config.AvgIoTime, s.config.SimulationLength)
	return nil
}

// UpdateConfig replaces the configuration and restarts the simulation
func (s *Simulator) UpdateConfig(newConfig SimConfig) error {
	if err := newConfig.Validate(); err != nil {
		return err
	}
	s.config = newConfig
	return s.Reset()
}

// Step handles the earliest pending event. It returns false when there is
// nothing left to do.
func (s *Simulator) Step() bool {
	event, ok := s.queue.Pop()
	if !ok {
		return false
	}
	s.advanceTo(event.Timestamp())
	s.processEvent(event)
	return true
}

// StepUntil handles every event due at or before targetTime, then moves the
// clock to targetTime
func (s *Simulator) StepUntil(targetTime int64) int64 {
	for {
		next, ok := s.queue.Peek()
		if !ok || next.Timestamp() > targetTime {
			break
		}
		s.Step()
	}
	if targetTime > s.virtualTime {
		s.advanceTo(targetTime)
	}
	return s.virtualTime
}

// StepByDelta advances the simulation by the specified time delta
func (s *Simulator) StepByDelta(delta int64) int64 {
	return s.StepUntil(s.virtualTime + delta)
}

// Run simulates the configured length and returns the final statistics
func (s *Simulator) Run() *Statistics {
	s.StepUntil(s.config.SimulationLength)
	s.logEvent("[DONE] t=%d created=%d completed=%d",
		s.virtualTime, s.stats.NofCreatedProcesses, s.stats.NofCompletedProcesses)
	return s.Statistics()
}

// advanceTo moves the clock, letting every component account for the interval
func (s *Simulator) advanceTo(t int64) {
	delta := t - s.virtualTime
	if delta < 0 {
		panic(ErrInvariant("virtual time going backwards: %d -> %d", s.virtualTime, t))
	}
	s.cpu.TimePassed(delta)
	s.io.TimePassed(delta)
	s.memory.TimePassed(delta)
	s.virtualTime = t
}

// processEvent processes a single event
func (s *Simulator) processEvent(event Event) {
	var pid int64
	switch event.Type() {
	case EventTypeNewProcess:
		pid = s.processNewProcess()
	case EventTypeSwitchProcess:
		pid = s.processSwitch()
	case EventTypeEndProcess:
		pid = s.processEnd()
	case EventTypeIoRequest:
		pid = s.processIoRequest()
	case EventTypeEndIo:
		pid = s.processEndIo()
	default:
		panic(fmt.Sprintf("unknown event type: %v", event.Type()))
	}

	if s.Tracer != nil {
		s.Tracer.Trace(TraceRecord{
			Time:        s.virtualTime,
			Event:       event.Type(),
			ProcessID:   pid,
			CpuQueueLen: s.cpu.QueueLength(),
			IoQueueLen:  s.io.QueueLength(),
			MemQueueLen: s.memory.QueueLength(),
		})
	}
}

func (s *Simulator) schedule(event Event, ok bool) {
	if ok {
		s.queue.Push(event)
	}
}

func (s *Simulator) processNewProcess() int64 {
	p := NewProcess(s.ids.Generate(), s.config.MemorySize, s.virtualTime, s.rng)
	s.stats.NofCreatedProcesses++
	s.memory.InsertProcess(p)
	s.logEvent("[t=%d] created %s", s.virtualTime, p)

	s.flushMemoryQueue()

	next := s.virtualTime + s.nextArrivalInterval()
	if next < s.config.SimulationLength {
		s.queue.Push(NewEvent(EventTypeNewProcess, next))
	}
	return p.ID()
}

// flushMemoryQueue moves every process that fits in memory into the CPU queue
func (s *Simulator) flushMemoryQueue() {
	for {
		p, ok := s.memory.CheckMemory(s.virtualTime)
		if !ok {
			return
		}
		s.schedule(s.cpu.InsertProcess(p, s.virtualTime))
	}
}

func (s *Simulator) processSwitch() int64 {
	p := s.mustActiveCpuProcess(EventTypeSwitchProcess)
	s.schedule(s.cpu.PreemptActiveProcess(s.virtualTime))
	return p.ID()
}

func (s *Simulator) processEnd() int64 {
	p := s.mustActiveCpuProcess(EventTypeEndProcess)
	s.schedule(s.cpu.ActiveProcessLeft(s.virtualTime))

	s.memory.ProcessCompleted(p)
	p.UpdateStatistics(s.stats, s.virtualTime)
	s.stats.NofCompletedProcesses++
	s.logEvent("[t=%d] completed process %d (turnaround %d)", s.virtualTime, p.ID(), s.virtualTime-p.CreationTime())

	s.flushMemoryQueue()
	return p.ID()
}

func (s *Simulator) processIoRequest() int64 {
	p := s.mustActiveCpuProcess(EventTypeIoRequest)
	s.schedule(s.cpu.ActiveProcessLeft(s.virtualTime))
	s.schedule(s.io.AddIoRequest(p, s.virtualTime))
	return p.ID()
}

func (s *Simulator) processEndIo() int64 {
	p := s.io.RemoveActiveProcess(s.virtualTime)
	s.schedule(s.io.StartIoOperation(s.virtualTime))
	s.schedule(s.cpu.InsertProcess(p, s.virtualTime))
	return p.ID()
}

func (s *Simulator) mustActiveCpuProcess(kind EventType) *Process {
	p, ok := s.cpu.ActiveProcess()
	if !ok {
		panic(ErrInvariant("%s at t=%d with an idle CPU", kind, s.virtualTime))
	}
	return p
}

func (s *Simulator) nextArrivalInterval() int64 {
	return s.config.ArrivalDistribution.Sample(s.rng, s.config.AvgArrivalInterval)
}

// logEvent sends a log message to the callback, if set
func (s *Simulator) logEvent(format string, args ...interface{}) {
	if s.LogEvent != nil {
		s.LogEvent(fmt.Sprintf(format, args...))
	}
}

// Config returns a copy of the current configuration
func (s *Simulator) Config() SimConfig {
	return s.config
}

// VirtualTime returns the current virtual time
func (s *Simulator) VirtualTime() int64 {
	return s.virtualTime
}

// Statistics returns a copy of the statistics collected so far
func (s *Simulator) Statistics() *Statistics {
	return s.stats.Clone()
}

// Report derives the summary figures for the time simulated so far
func (s *Simulator) Report() Report {
	return NewReport(s.stats, s.virtualTime)
}

// IsQueueEmpty returns true if the event queue is empty
func (s *Simulator) IsQueueEmpty() bool {
	return s.queue.IsEmpty()
}

// IsFinished returns true once the configured length has been simulated
func (s *Simulator) IsFinished() bool {
	return s.virtualTime >= s.config.SimulationLength || s.queue.IsEmpty()
}

// State returns a snapshot of the machine for the UI
func (s *Simulator) State() map[string]interface{} {
	state := map[string]interface{}{
		"virtualTime":       s.virtualTime,
		"quantum":           s.cpu.MaxCpuTime(),
		"cpuQueue":          s.cpu.QueuedIDs(),
		"ioQueue":           s.io.QueuedIDs(),
		"memoryQueueLength": s.memory.QueueLength(),
		"freeMemory":        s.memory.FreeMemory(),
		"pendingEvents":     s.queue.Len(),
	}
	if p, ok := s.cpu.ActiveProcess(); ok {
		state["cpuActive"] = p.ID()
	}
	if p, ok := s.io.ActiveProcess(); ok {
		state["ioActive"] = p.ID()
	}
	return state
}
