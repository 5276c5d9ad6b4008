package simulator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SimConfig holds the workload and machine parameters of one run.
// All times are in virtual time units (milliseconds in reports), memory in kB.
type SimConfig struct {
	// Machine
	MemorySize int64 `json:"memorySize" yaml:"memorySize"` // Size of main memory (kB)
	MaxCpuTime int64 `json:"maxCpuTime" yaml:"maxCpuTime"` // Round-Robin quantum
	AvgIoTime  int64 `json:"avgIoTime" yaml:"avgIoTime"`   // Mean duration of one I/O operation

	// Workload
	SimulationLength   int64 `json:"simulationLength" yaml:"simulationLength"`     // Virtual time to simulate
	AvgArrivalInterval int64 `json:"avgArrivalInterval" yaml:"avgArrivalInterval"` // Mean time between process arrivals

	ArrivalDistribution ArrivalDistribution `json:"arrivalDistribution" yaml:"arrivalDistribution"` // Shape of the inter-arrival times

	// Simulation Control
	RandomSeed int64 `json:"randomSeed" yaml:"randomSeed"` // Random seed for reproducibility (0 = use time-based seed)
}

// DefaultConfig returns the classic lab workload
func DefaultConfig() SimConfig {
	return SimConfig{
		MemorySize:          2048,   // 2 MB of memory
		MaxCpuTime:          500,    // 500 ms quantum
		AvgIoTime:           225,    // 225 ms per I/O operation on average
		SimulationLength:    250000, // 250 s of virtual time
		AvgArrivalInterval:  5000,   // a new process every 5 s on average
		ArrivalDistribution: ArrivalExponential,
		RandomSeed:          0, // 0 = use time-based seed
	}
}

// Validate checks if configuration values are reasonable
func (c *SimConfig) Validate() error {
	if c.MemorySize < 400 {
		return ErrInvalidConfig("memorySize must be >= 400 (processes need at least 100 kB and at most 25% of memory)")
	}
	if c.MaxCpuTime <= 0 {
		return ErrInvalidConfig("maxCpuTime must be > 0")
	}
	if c.AvgIoTime <= 0 {
		return ErrInvalidConfig("avgIoTime must be > 0")
	}
	if c.SimulationLength <= 0 {
		return ErrInvalidConfig("simulationLength must be > 0")
	}
	if c.AvgArrivalInterval <= 0 {
		return ErrInvalidConfig("avgArrivalInterval must be > 0")
	}
	if c.ArrivalDistribution < ArrivalExponential || c.ArrivalDistribution > ArrivalFixed {
		return ErrInvalidConfig(fmt.Sprintf("unknown arrivalDistribution %s", c.ArrivalDistribution))
	}
	return nil
}

// LoadConfig reads a YAML (or JSON) config file. Fields missing from the
// file keep their DefaultConfig values.
func LoadConfig(path string) (SimConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}
