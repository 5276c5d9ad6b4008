package main

import (
	"github.com/miretskiy/roundrobin/simulator"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Prometheus metrics (gauges), one series per session
	promMetrics = struct {
		virtualTime    *prometheus.GaugeVec
		cpuUtil        *prometheus.GaugeVec
		ioUtil         *prometheus.GaugeVec
		cpuQueue       *prometheus.GaugeVec
		ioQueue        *prometheus.GaugeVec
		memoryQueue    *prometheus.GaugeVec
		completed      *prometheus.GaugeVec
		forcedSwitches *prometheus.GaugeVec
		throughput     *prometheus.GaugeVec
	}{
		virtualTime: newSessionGauge("rrsim_virtual_time_ms", "Simulated time in ms"),
		cpuUtil:     newSessionGauge("rrsim_cpu_utilization_percent", "CPU utilization percentage"),
		ioUtil:      newSessionGauge("rrsim_io_utilization_percent", "I/O device utilization percentage"),
		cpuQueue:    newSessionGauge("rrsim_cpu_queue_length", "Processes waiting in the CPU ready queue"),
		ioQueue:     newSessionGauge("rrsim_io_queue_length", "Processes waiting for the I/O device"),
		memoryQueue: newSessionGauge("rrsim_memory_queue_length", "Processes waiting for main memory"),
		completed:   newSessionGauge("rrsim_completed_processes", "Number of completed processes"),
		forcedSwitches: newSessionGauge("rrsim_forced_process_switches",
			"Number of quantum expirations"),
		throughput: newSessionGauge("rrsim_throughput_per_second", "Completed processes per simulated second"),
	}
)

func newSessionGauge(name, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	}, []string{"session"})
}

func allGauges() []*prometheus.GaugeVec {
	return []*prometheus.GaugeVec{
		promMetrics.virtualTime,
		promMetrics.cpuUtil,
		promMetrics.ioUtil,
		promMetrics.cpuQueue,
		promMetrics.ioQueue,
		promMetrics.memoryQueue,
		promMetrics.completed,
		promMetrics.forcedSwitches,
		promMetrics.throughput,
	}
}

func initPrometheusMetrics() {
	for _, g := range allGauges() {
		prometheus.MustRegister(g)
	}
}

func updatePrometheusMetrics(session string, report simulator.Report, state map[string]interface{}) {
	promMetrics.virtualTime.WithLabelValues(session).Set(float64(report.SimulatedTime))
	promMetrics.cpuUtil.WithLabelValues(session).Set(report.CpuUtilizationPercent)
	promMetrics.ioUtil.WithLabelValues(session).Set(report.IoUtilizationPercent)
	promMetrics.completed.WithLabelValues(session).Set(float64(report.NofCompletedProcesses))
	promMetrics.forcedSwitches.WithLabelValues(session).Set(float64(report.NofForcedProcessSwitches))
	promMetrics.throughput.WithLabelValues(session).Set(report.ThroughputPerSecond)

	// Current queue lengths come from the state snapshot
	if q, ok := state["cpuQueue"].([]int64); ok {
		promMetrics.cpuQueue.WithLabelValues(session).Set(float64(len(q)))
	}
	if q, ok := state["ioQueue"].([]int64); ok {
		promMetrics.ioQueue.WithLabelValues(session).Set(float64(len(q)))
	}
	if n, ok := state["memoryQueueLength"].(int); ok {
		promMetrics.memoryQueue.WithLabelValues(session).Set(float64(n))
	}
}

func deletePrometheusSession(session string) {
	for _, g := range allGauges() {
		g.DeleteLabelValues(session)
	}
}
