package simulator

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/stat"
)

// Report holds the figures derived from a Statistics record over a run of
// the given length. Times are virtual time units (ms).
type Report struct {
	SimulatedTime int64 `json:"simulatedTime"`

	NofCreatedProcesses      int64 `json:"nofCreatedProcesses"`
	NofCompletedProcesses    int64 `json:"nofCompletedProcesses"`
	NofProcessSwitches       int64 `json:"nofProcessSwitches"`
	NofForcedProcessSwitches int64 `json:"nofForcedProcessSwitches"`
	NofProcessedIoOperations int64 `json:"nofProcessedIoOperations"`

	CpuUtilizationPercent float64 `json:"cpuUtilizationPercent"`
	IoUtilizationPercent  float64 `json:"ioUtilizationPercent"`
	ThroughputPerSecond   float64 `json:"throughputPerSecond"` // completed processes per 1000 units

	AvgMemoryQueueLength float64 `json:"avgMemoryQueueLength"`
	AvgCpuQueueLength    float64 `json:"avgCpuQueueLength"`
	AvgIoQueueLength     float64 `json:"avgIoQueueLength"`
	MaxMemoryQueueLength int64   `json:"maxMemoryQueueLength"`
	MaxCpuQueueLength    int64   `json:"maxCpuQueueLength"`
	MaxIoQueueLength     int64   `json:"maxIoQueueLength"`

	// Per completed process
	AvgTimesInReadyQueue    float64 `json:"avgTimesInReadyQueue"`
	AvgTimesInIoQueue       float64 `json:"avgTimesInIoQueue"`
	AvgTimeWaitingForMemory float64 `json:"avgTimeWaitingForMemory"`
	AvgTimeInReadyQueue     float64 `json:"avgTimeInReadyQueue"`
	AvgTimeInCpu            float64 `json:"avgTimeInCpu"`
	AvgTimeWaitingForIo     float64 `json:"avgTimeWaitingForIo"`
	AvgTimeInIo             float64 `json:"avgTimeInIo"`
	AvgTurnaroundTime       float64 `json:"avgTurnaroundTime"`
	TurnaroundTimeStdDev    float64 `json:"turnaroundTimeStdDev"`
	MaxTurnaroundTime       float64 `json:"maxTurnaroundTime"`
}

// NewReport derives a report from stats collected over simulatedTime
func NewReport(stats *Statistics, simulatedTime int64) Report {
	r := Report{
		SimulatedTime:            simulatedTime,
		NofCreatedProcesses:      stats.NofCreatedProcesses,
		NofCompletedProcesses:    stats.NofCompletedProcesses,
		NofProcessSwitches:       stats.NofProcessSwitches,
		NofForcedProcessSwitches: stats.NofForcedProcessSwitches,
		NofProcessedIoOperations: stats.NofProcessedIoOperations,
		MaxMemoryQueueLength:     stats.MemoryQueueLargestLength,
		MaxCpuQueueLength:        stats.CpuQueueLargestLength,
		MaxIoQueueLength:         stats.IoQueueLargestLength,
	}

	if simulatedTime > 0 {
		t := float64(simulatedTime)
		r.CpuUtilizationPercent = 100 * float64(stats.TotalBusyCpuTime) / t
		r.IoUtilizationPercent = 100 * float64(stats.TotalBusyIoTime) / t
		r.ThroughputPerSecond = 1000 * float64(stats.NofCompletedProcesses) / t
		r.AvgMemoryQueueLength = float64(stats.MemoryQueueLengthTime) / t
		r.AvgCpuQueueLength = float64(stats.CpuQueueLengthTime) / t
		r.AvgIoQueueLength = float64(stats.IoQueueLengthTime) / t
	}

	if n := float64(stats.NofCompletedProcesses); n > 0 {
		r.AvgTimesInReadyQueue = float64(stats.TotalNofTimesInReadyQueue) / n
		r.AvgTimesInIoQueue = float64(stats.TotalNofTimesInIoQueue) / n
		r.AvgTimeWaitingForMemory = float64(stats.TotalTimeSpentWaitingForMemory) / n
		r.AvgTimeInReadyQueue = float64(stats.TotalTimeSpentInReadyQueue) / n
		r.AvgTimeInCpu = float64(stats.TotalTimeSpentInCpu) / n
		r.AvgTimeWaitingForIo = float64(stats.TotalTimeSpentWaitingForIo) / n
		r.AvgTimeInIo = float64(stats.TotalTimeSpentInIo) / n
	}

	if len(stats.turnaroundTimes) > 0 {
		r.AvgTurnaroundTime, r.TurnaroundTimeStdDev = stat.MeanStdDev(stats.turnaroundTimes, nil)
		if len(stats.turnaroundTimes) == 1 {
			// sample deviation is undefined for one value
			r.TurnaroundTimeStdDev = 0
		}
		for _, v := range stats.turnaroundTimes {
			r.MaxTurnaroundTime = max(r.MaxTurnaroundTime, v)
		}
	}
	return r
}

// Print writes the report in human-readable form
func (r Report) Print(w io.Writer) {
	fmt.Fprintf(w, "Simulation statistics:\n\n")
	fmt.Fprintf(w, "Simulated time:                                      %d ms\n", r.SimulatedTime)
	fmt.Fprintf(w, "Number of completed processes:                       %d\n", r.NofCompletedProcesses)
	fmt.Fprintf(w, "Number of created processes:                         %d\n", r.NofCreatedProcesses)
	fmt.Fprintf(w, "Number of (forced) process switches:                 %d (%d)\n", r.NofProcessSwitches, r.NofForcedProcessSwitches)
	fmt.Fprintf(w, "Number of processed I/O operations:                  %d\n", r.NofProcessedIoOperations)
	fmt.Fprintf(w, "Average throughput (processes per second):           %.3f\n\n", r.ThroughputPerSecond)

	fmt.Fprintf(w, "CPU utilization:                                     %.1f%%\n", r.CpuUtilizationPercent)
	fmt.Fprintf(w, "I/O device utilization:                              %.1f%%\n\n", r.IoUtilizationPercent)

	fmt.Fprintf(w, "Largest occurring memory queue length:               %d\n", r.MaxMemoryQueueLength)
	fmt.Fprintf(w, "Average memory queue length:                         %.3f\n", r.AvgMemoryQueueLength)
	fmt.Fprintf(w, "Largest occurring cpu queue length:                  %d\n", r.MaxCpuQueueLength)
	fmt.Fprintf(w, "Average cpu queue length:                            %.3f\n", r.AvgCpuQueueLength)
	fmt.Fprintf(w, "Largest occurring I/O queue length:                  %d\n", r.MaxIoQueueLength)
	fmt.Fprintf(w, "Average I/O queue length:                            %.3f\n\n", r.AvgIoQueueLength)

	fmt.Fprintf(w, "Average # of times a process has been placed in cpu queue: %.3f\n", r.AvgTimesInReadyQueue)
	fmt.Fprintf(w, "Average # of times a process has been placed in I/O queue: %.3f\n\n", r.AvgTimesInIoQueue)

	fmt.Fprintf(w, "Average time spent by a process waiting for memory:  %.1f ms\n", r.AvgTimeWaitingForMemory)
	fmt.Fprintf(w, "Average time spent by a process in the cpu queue:    %.1f ms\n", r.AvgTimeInReadyQueue)
	fmt.Fprintf(w, "Average time spent by a process processing:          %.1f ms\n", r.AvgTimeInCpu)
	fmt.Fprintf(w, "Average time spent by a process waiting for I/O:    %.1f ms\n", r.AvgTimeWaitingForIo)
	fmt.Fprintf(w, "Average time spent by a process doing I/O:           %.1f ms\n", r.AvgTimeInIo)
	fmt.Fprintf(w, "Average turnaround time (std dev):                   %.1f ms (%.1f)\n", r.AvgTurnaroundTime, r.TurnaroundTimeStdDev)
	fmt.Fprintf(w, "Longest turnaround time:                             %.1f ms\n", r.MaxTurnaroundTime)
}
