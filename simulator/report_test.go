package simulator

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewReport(t *testing.T) {
	stats := NewStatistics()
	stats.NofCreatedProcesses = 5
	stats.NofCompletedProcesses = 4
	stats.TotalBusyCpuTime = 7500
	stats.TotalBusyIoTime = 2500
	stats.CpuQueueLengthTime = 20000
	stats.CpuQueueLargestLength = 6
	stats.TotalTimeSpentInCpu = 4000
	stats.TotalNofTimesInReadyQueue = 10
	stats.turnaroundTimes = []float64{100, 200, 300, 400}

	r := NewReport(stats, 10000)

	require.InDelta(t, 75.0, r.CpuUtilizationPercent, 1e-9)
	require.InDelta(t, 25.0, r.IoUtilizationPercent, 1e-9)
	require.InDelta(t, 0.4, r.ThroughputPerSecond, 1e-9)
	require.InDelta(t, 2.0, r.AvgCpuQueueLength, 1e-9)
	require.Equal(t, int64(6), r.MaxCpuQueueLength)
	require.InDelta(t, 1000.0, r.AvgTimeInCpu, 1e-9)
	require.InDelta(t, 2.5, r.AvgTimesInReadyQueue, 1e-9)
	require.InDelta(t, 250.0, r.AvgTurnaroundTime, 1e-9)
	// sample standard deviation of 100..400
	require.InDelta(t, 129.0994, r.TurnaroundTimeStdDev, 1e-4)
	require.Equal(t, 400.0, r.MaxTurnaroundTime)
}

func TestNewReportEmpty(t *testing.T) {
	r := NewReport(NewStatistics(), 0)
	require.Zero(t, r.CpuUtilizationPercent)
	require.Zero(t, r.AvgTurnaroundTime)
}

func TestNewReportSingleCompletion(t *testing.T) {
	stats := NewStatistics()
	stats.NofCompletedProcesses = 1
	stats.turnaroundTimes = []float64{350}

	r := NewReport(stats, 1000)
	require.Equal(t, 350.0, r.AvgTurnaroundTime)
	require.Zero(t, r.TurnaroundTimeStdDev)

	_, err := json.Marshal(r)
	require.NoError(t, err)
}

func TestReportPrint(t *testing.T) {
	stats := NewStatistics()
	stats.NofCompletedProcesses = 2
	stats.TotalBusyCpuTime = 500

	var buf bytes.Buffer
	NewReport(stats, 1000).Print(&buf)

	out := buf.String()
	require.Contains(t, out, "Number of completed processes:                       2")
	require.Contains(t, out, "CPU utilization:                                     50.0%")
}
