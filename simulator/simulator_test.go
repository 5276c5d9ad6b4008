package simulator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func seededConfig(seed int64) SimConfig {
	config := DefaultConfig()
	config.RandomSeed = seed
	return config
}

func newReadySimulator(t *testing.T, config SimConfig) *Simulator {
	t.Helper()
	sim, err := NewSimulator(config)
	require.NoError(t, err)
	require.NoError(t, sim.Reset())
	return sim
}

func TestNewSimulatorRejectsInvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.MaxCpuTime = 0
	_, err := NewSimulator(config)
	require.Error(t, err)
}

func TestSimulatorStartsDormant(t *testing.T) {
	sim, err := NewSimulator(seededConfig(1))
	require.NoError(t, err)
	require.True(t, sim.IsQueueEmpty())
	require.False(t, sim.Step())

	require.NoError(t, sim.Reset())
	require.False(t, sim.IsQueueEmpty())
	require.Equal(t, 1, sim.queue.CountByType(EventTypeNewProcess))
}

// Steps through a whole run checking per-event invariants, in particular
// that every finished process has used exactly its CPU need and that its
// state durations cover its whole lifetime.
func TestSimulatorProcessInvariants(t *testing.T) {
	for _, seed := range []int64{1, 2, 3, 42} {
		sim := newReadySimulator(t, seededConfig(seed))
		completed := 0

		for {
			next, ok := sim.queue.Peek()
			if !ok || next.Timestamp() > sim.config.SimulationLength {
				break
			}

			var finishing *Process
			if next.Type() == EventTypeEndProcess {
				finishing, _ = sim.cpu.ActiveProcess()
				require.NotNil(t, finishing)
			}

			require.True(t, sim.Step())

			for _, c := range []interface {
				IsIdle() bool
				ActiveProcess() (*Process, bool)
			}{sim.cpu, sim.io} {
				_, active := c.ActiveProcess()
				require.Equal(t, !active, c.IsIdle())
			}
			if p, ok := sim.cpu.ActiveProcess(); ok {
				require.GreaterOrEqual(t, p.CpuTimeNeeded(), int64(0))
				require.GreaterOrEqual(t, p.TimeToNextIoOperation(), int64(0))
			}

			if finishing != nil {
				completed++
				require.Equal(t, int64(0), finishing.CpuTimeNeeded())
				done, err := finishing.CompletionTime().Get()
				require.NoError(t, err)
				require.Equal(t, sim.VirtualTime(), done)
				require.Equal(t, done-finishing.CreationTime(), finishing.Times().Total(),
					"seed %d: process %d time not fully accounted", seed, finishing.ID())
			}
		}

		require.Positive(t, completed, "seed %d", seed)
		require.Equal(t, int64(completed), sim.stats.NofCompletedProcesses)
	}
}

func TestSimulatorRun(t *testing.T) {
	sim := newReadySimulator(t, seededConfig(7))
	stats := sim.Run()

	length := sim.Config().SimulationLength
	require.Equal(t, length, sim.VirtualTime())
	require.True(t, sim.IsFinished())

	require.Positive(t, stats.NofCreatedProcesses)
	require.Positive(t, stats.NofCompletedProcesses)
	require.LessOrEqual(t, stats.NofCompletedProcesses, stats.NofCreatedProcesses)
	require.Positive(t, stats.NofProcessedIoOperations)
	require.LessOrEqual(t, stats.TotalBusyCpuTime, length)
	require.LessOrEqual(t, stats.TotalBusyIoTime, length)

	// flushed durations add up to the turnaround times
	var turnaround float64
	for _, v := range stats.TurnaroundTimes() {
		turnaround += v
	}
	flushed := stats.TotalTimeSpentWaitingForMemory + stats.TotalTimeSpentInReadyQueue +
		stats.TotalTimeSpentInCpu + stats.TotalTimeSpentWaitingForIo + stats.TotalTimeSpentInIo
	require.Equal(t, int64(turnaround), flushed)

	report := sim.Report()
	require.Greater(t, report.CpuUtilizationPercent, 0.0)
	require.LessOrEqual(t, report.CpuUtilizationPercent, 100.0)
	require.Equal(t, stats.NofCompletedProcesses, report.NofCompletedProcesses)
}

func TestSimulatorIsDeterministicForSeed(t *testing.T) {
	a := newReadySimulator(t, seededConfig(99)).Run()
	b := newReadySimulator(t, seededConfig(99)).Run()
	require.Equal(t, a, b)

	c := newReadySimulator(t, seededConfig(100)).Run()
	require.NotEqual(t, a, c)
}

func TestSimulatorStepUntilAdvancesClock(t *testing.T) {
	sim := newReadySimulator(t, seededConfig(5))

	require.Equal(t, int64(1234), sim.StepUntil(1234))
	require.Equal(t, int64(1234), sim.VirtualTime())
	if next, ok := sim.queue.Peek(); ok {
		require.Greater(t, next.Timestamp(), int64(1234))
	}

	require.Equal(t, int64(2234), sim.StepByDelta(1000))

	// queue-length integrals cover the whole elapsed window
	stats := sim.Statistics()
	require.LessOrEqual(t, stats.TotalBusyCpuTime, int64(2234))
}

func TestSimulatorResetPreservesCallbacks(t *testing.T) {
	sim := newReadySimulator(t, seededConfig(3))
	var logs []string
	sim.LogEvent = func(msg string) { logs = append(logs, msg) }
	rec := &recordingTracer{}
	sim.Tracer = rec

	sim.StepUntil(20000)
	require.NotEmpty(t, rec.records)

	require.NoError(t, sim.Reset())
	require.Equal(t, int64(0), sim.VirtualTime())
	require.Equal(t, int64(0), sim.Statistics().NofCreatedProcesses)
	require.NotNil(t, sim.LogEvent)
	require.Same(t, rec, sim.Tracer)
	require.NotEmpty(t, logs)
}

func TestSimulatorTracesEveryEvent(t *testing.T) {
	sim := newReadySimulator(t, seededConfig(8))
	rec := &recordingTracer{}
	sim.Tracer = rec

	steps := 0
	for steps < 200 && sim.Step() {
		steps++
	}

	require.Len(t, rec.records, steps)
	require.Equal(t, EventTypeNewProcess, rec.records[0].Event)
	require.Equal(t, int64(1), rec.records[0].ProcessID)
	for i := 1; i < len(rec.records); i++ {
		require.GreaterOrEqual(t, rec.records[i].Time, rec.records[i-1].Time)
		require.Positive(t, rec.records[i].ProcessID)
	}
}

func TestSimulatorUpdateConfig(t *testing.T) {
	sim := newReadySimulator(t, seededConfig(4))
	sim.StepUntil(10000)

	config := sim.Config()
	config.MaxCpuTime = 50
	require.NoError(t, sim.UpdateConfig(config))
	require.Equal(t, int64(50), sim.Config().MaxCpuTime)
	require.Equal(t, int64(0), sim.VirtualTime())

	config.MaxCpuTime = -1
	require.Error(t, sim.UpdateConfig(config))
	require.Equal(t, int64(50), sim.Config().MaxCpuTime)
}

func TestSimulatorState(t *testing.T) {
	sim := newReadySimulator(t, seededConfig(6))
	sim.Step() // first arrival lands on the idle CPU

	state := sim.State()
	require.Equal(t, int64(0), state["virtualTime"])
	require.Equal(t, sim.Config().MaxCpuTime, state["quantum"])
	require.Equal(t, int64(1), state["cpuActive"])
	require.NotContains(t, state, "ioActive")
	require.Equal(t, []int64{}, state["cpuQueue"])
}

func TestSmallerQuantumMeansMoreSwitches(t *testing.T) {
	coarse := seededConfig(12)
	coarse.MaxCpuTime = 2000
	fine := seededConfig(12)
	fine.MaxCpuTime = 50

	a := newReadySimulator(t, coarse).Run()
	b := newReadySimulator(t, fine).Run()
	require.Greater(t, b.NofForcedProcessSwitches, a.NofForcedProcessSwitches)
}

type recordingTracer struct {
	records []TraceRecord
}

func (r *recordingTracer) Trace(rec TraceRecord) {
	r.records = append(r.records, rec)
}
