package integration

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/miretskiy/roundrobin/simulator"
)

// SchedulerConfig defines configuration for the Round-Robin machine model
type SchedulerConfig struct {
	MemorySizeKB         int64 `yaml:"memory_size_kb" json:"memory_size_kb"`
	QuantumMs            int64 `yaml:"quantum_ms" json:"quantum_ms"`
	AvgIoTimeMs          int64 `yaml:"avg_io_time_ms" json:"avg_io_time_ms"`
	AvgArrivalIntervalMs int64 `yaml:"avg_arrival_interval_ms" json:"avg_arrival_interval_ms"`
	RandomSeed           int64 `yaml:"random_seed" json:"random_seed"`

	// Average CPU queue length over one request window above which the
	// model reports "warn"
	CpuQueueWarnLength float64 `yaml:"cpu_queue_warn_length" json:"cpu_queue_warn_length"`
}

// RequestContext contains information about the incoming request
type RequestContext struct {
	Component string
	WindowMs  int64 // virtual time to simulate for this request
}

// LogEntry represents a log emitted by the model
type LogEntry struct {
	OffsetMs int64
	Status   string
	Message  string
}

// MetricSample represents a custom metric emitted by the model
type MetricSample struct {
	Name  string
	Type  string
	Value float64
	Tags  map[string]string
}

// ParameterDescriptor describes a mutable configuration field
type ParameterDescriptor struct {
	Name         string      `json:"name"`
	Type         string      `json:"type"`
	CurrentValue interface{} `json:"current_value"`
	Min          *float64    `json:"min,omitempty"`
	Max          *float64    `json:"max,omitempty"`
	Description  string      `json:"description,omitempty"`
}

// Result represents the outcome of one simulated window
type Result struct {
	WindowMs int64
	Status   string
	Logs     []LogEntry
	Metrics  []MetricSample
}

// SchedulerModel wraps a simulator for embedding in a larger system model.
// Unlike the simulator it is safe for concurrent use.
type SchedulerModel struct {
	component string
	cfg       *SchedulerConfig
	mu        sync.Mutex
	sim       *simulator.Simulator

	lastHealth string
}

// NewSchedulerModel creates a new scheduler component model
func NewSchedulerModel(component string, cfg *SchedulerConfig) (*SchedulerModel, error) {
	if cfg == nil {
		return nil, fmt.Errorf("scheduler config is required")
	}
	if cfg.CpuQueueWarnLength <= 0 {
		cfg.CpuQueueWarnLength = 5
	}

	sim, err := simulator.NewSimulator(cfg.simConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create simulator: %w", err)
	}
	if err := sim.Reset(); err != nil {
		return nil, fmt.Errorf("failed to reset simulator: %w", err)
	}

	return &SchedulerModel{
		component:  component,
		cfg:        cfg,
		sim:        sim,
		lastHealth: "ok",
	}, nil
}

// simConfig maps the model configuration onto a simulator configuration.
// The simulated length is unbounded: the model is advanced request by request.
func (c *SchedulerConfig) simConfig() simulator.SimConfig {
	simCfg := simulator.DefaultConfig()
	simCfg.SimulationLength = math.MaxInt64
	if c.MemorySizeKB > 0 {
		simCfg.MemorySize = c.MemorySizeKB
	}
	if c.QuantumMs > 0 {
		simCfg.MaxCpuTime = c.QuantumMs
	}
	if c.AvgIoTimeMs > 0 {
		simCfg.AvgIoTime = c.AvgIoTimeMs
	}
	if c.AvgArrivalIntervalMs > 0 {
		simCfg.AvgArrivalInterval = c.AvgArrivalIntervalMs
	}
	simCfg.RandomSeed = c.RandomSeed
	return simCfg
}

// Name returns the component name
func (m *SchedulerModel) Name() string {
	return m.component
}

// Health returns "ok" or "warn" depending on the CPU queue pressure seen in
// the last simulated window
func (m *SchedulerModel) Health() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastHealth
}

// VirtualTime returns the model's current virtual time
func (m *SchedulerModel) VirtualTime() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sim.VirtualTime()
}

// Snapshot returns the simulator's statistics and machine state
func (m *SchedulerModel) Snapshot() (*simulator.Statistics, map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sim.Statistics(), m.sim.State()
}

// HandleRequest advances the machine by the request window and reports what
// happened in it
func (m *SchedulerModel) HandleRequest(ctx *RequestContext) (*Result, error) {
	if ctx == nil || ctx.WindowMs <= 0 {
		return nil, fmt.Errorf("request window must be > 0")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	before := m.sim.Statistics()
	m.sim.StepByDelta(ctx.WindowMs)
	after := m.sim.Statistics()

	window := float64(ctx.WindowMs)
	avgCpuQueue := float64(after.CpuQueueLengthTime-before.CpuQueueLengthTime) / window

	result := &Result{
		WindowMs: ctx.WindowMs,
		Status:   "ok",
		Metrics:  m.buildMetrics(before, after, window),
	}

	if avgCpuQueue > m.cfg.CpuQueueWarnLength {
		m.lastHealth = "warn"
		result.Logs = append(result.Logs, LogEntry{
			OffsetMs: ctx.WindowMs,
			Status:   "warn",
			Message:  fmt.Sprintf("%s cpu queue saturated: %.1f processes waiting on average", m.component, avgCpuQueue),
		})
	} else {
		m.lastHealth = "ok"
	}

	if done := after.NofCompletedProcesses - before.NofCompletedProcesses; done > 0 {
		result.Logs = append(result.Logs, LogEntry{
			OffsetMs: ctx.WindowMs,
			Status:   "info",
			Message:  fmt.Sprintf("%s completed %d processes", m.component, done),
		})
	}

	return result, nil
}

func (m *SchedulerModel) buildMetrics(before, after *simulator.Statistics, window float64) []MetricSample {
	tags := map[string]string{"component": m.component}
	gauge := func(name string, value float64) MetricSample {
		return MetricSample{Name: name, Type: "gauge", Value: value, Tags: tags}
	}
	counter := func(name string, value int64) MetricSample {
		return MetricSample{Name: name, Type: "count", Value: float64(value), Tags: tags}
	}

	return []MetricSample{
		gauge("rrsim.cpu.utilization", 100*float64(after.TotalBusyCpuTime-before.TotalBusyCpuTime)/window),
		gauge("rrsim.io.utilization", 100*float64(after.TotalBusyIoTime-before.TotalBusyIoTime)/window),
		gauge("rrsim.cpu.queue_length", float64(after.CpuQueueLengthTime-before.CpuQueueLengthTime)/window),
		gauge("rrsim.io.queue_length", float64(after.IoQueueLengthTime-before.IoQueueLengthTime)/window),
		gauge("rrsim.memory.queue_length", float64(after.MemoryQueueLengthTime-before.MemoryQueueLengthTime)/window),
		counter("rrsim.processes.created", after.NofCreatedProcesses-before.NofCreatedProcesses),
		counter("rrsim.processes.completed", after.NofCompletedProcesses-before.NofCompletedProcesses),
		counter("rrsim.cpu.forced_switches", after.NofForcedProcessSwitches-before.NofForcedProcessSwitches),
		counter("rrsim.io.operations", after.NofProcessedIoOperations-before.NofProcessedIoOperations),
	}
}

// Config returns the current model configuration
func (m *SchedulerModel) Config() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	simCfg := m.sim.Config()
	return map[string]interface{}{
		"memory_size_kb":          simCfg.MemorySize,
		"quantum_ms":              simCfg.MaxCpuTime,
		"avg_io_time_ms":          simCfg.AvgIoTime,
		"avg_arrival_interval_ms": simCfg.AvgArrivalInterval,
		"cpu_queue_warn_length":   m.cfg.CpuQueueWarnLength,
	}
}

// MutableParameters returns descriptors for runtime-adjustable parameters
func (m *SchedulerModel) MutableParameters() []ParameterDescriptor {
	m.mu.Lock()
	defer m.mu.Unlock()

	simCfg := m.sim.Config()
	params := make([]ParameterDescriptor, 0)

	minQuantum := 1.0
	maxQuantum := 100000.0
	params = append(params, ParameterDescriptor{
		Name:         "quantum",
		Type:         "int",
		CurrentValue: simCfg.MaxCpuTime,
		Min:          &minQuantum,
		Max:          &maxQuantum,
		Description:  "Round-Robin time quantum in milliseconds. Smaller quanta improve responsiveness for short processes at the cost of more process switches.",
	})

	minIo := 1.0
	maxIo := 100000.0
	params = append(params, ParameterDescriptor{
		Name:         "avg_io_time",
		Type:         "int",
		CurrentValue: simCfg.AvgIoTime,
		Min:          &minIo,
		Max:          &maxIo,
		Description:  "Average duration of one I/O operation in milliseconds. Each operation takes between one and two times this value.",
	})

	minMem := 400.0
	maxMem := 1024.0 * 1024.0
	params = append(params, ParameterDescriptor{
		Name:         "memory_size",
		Type:         "size",
		CurrentValue: simCfg.MemorySize,
		Min:          &minMem,
		Max:          &maxMem,
		Description:  "Main memory size in kilobytes (accepts units such as \"512kb\" or \"2mb\"). Processes wait in the memory queue until they fit.",
	})

	return params
}

// UpdateParameters applies runtime configuration changes. The machine is
// restarted with the new parameters.
func (m *SchedulerModel) UpdateParameters(params map[string]interface{}) error {
	if len(params) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	newConfig := m.sim.Config()

	if raw, ok := params["quantum"]; ok {
		val, err := parseIntParam(raw)
		if err != nil {
			return fmt.Errorf("quantum: %w", err)
		}
		newConfig.MaxCpuTime = val
	}

	if raw, ok := params["avg_io_time"]; ok {
		val, err := parseIntParam(raw)
		if err != nil {
			return fmt.Errorf("avg_io_time: %w", err)
		}
		newConfig.AvgIoTime = val
	}

	if raw, ok := params["memory_size"]; ok {
		val, err := parseSizeParam(raw)
		if err != nil {
			return fmt.Errorf("memory_size: %w", err)
		}
		newConfig.MemorySize = val
	}

	if err := m.sim.UpdateConfig(newConfig); err != nil {
		return fmt.Errorf("failed to update simulator config: %w", err)
	}
	m.cfg.MemorySizeKB = newConfig.MemorySize
	m.cfg.QuantumMs = newConfig.MaxCpuTime
	m.cfg.AvgIoTimeMs = newConfig.AvgIoTime
	m.lastHealth = "ok"
	return nil
}

// Helper functions for parameter parsing
func parseIntParam(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case float32:
		return int64(v), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
}

// parseSizeParam parses a size value that can be a number (assumed kB) or a
// string with units (e.g. "512kb", "2mb")
func parseSizeParam(value interface{}) (int64, error) {
	if str, ok := value.(string); ok {
		return parseSizeString(str)
	}
	return parseIntParam(value)
}

// parseSizeString parses a size string with optional units (b, kb, mb, gb) into kB
func parseSizeString(value string) (int64, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return 0, fmt.Errorf("empty value")
	}

	// Plain number: kB
	if num, err := strconv.ParseFloat(value, 64); err == nil {
		return int64(num), nil
	}

	units := []struct {
		suffix string
		toKB   float64
	}{
		{"kb", 1},
		{"mb", 1024},
		{"gb", 1024 * 1024},
		{"b", 1.0 / 1024},
	}
	for _, u := range units {
		if !strings.HasSuffix(value, u.suffix) {
			continue
		}
		num, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(value, u.suffix)), 64)
		if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
			return 0, fmt.Errorf("unable to parse size value: %s", value)
		}
		return int64(num * u.toKB), nil
	}
	return 0, fmt.Errorf("unable to parse size value: %s", value)
}
