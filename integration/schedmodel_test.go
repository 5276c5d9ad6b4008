package integration

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) *SchedulerModel {
	t.Helper()
	model, err := NewSchedulerModel("batch-host", &SchedulerConfig{
		MemorySizeKB:         2048,
		QuantumMs:            500,
		AvgIoTimeMs:          225,
		AvgArrivalIntervalMs: 500,
		RandomSeed:           42,
	})
	require.NoError(t, err)
	return model
}

func TestNewSchedulerModelRequiresConfig(t *testing.T) {
	_, err := NewSchedulerModel("x", nil)
	require.Error(t, err)

	_, err = NewSchedulerModel("x", &SchedulerConfig{MemorySizeKB: 100})
	require.Error(t, err)
}

func TestSchedulerModelHandleRequest(t *testing.T) {
	model := newTestModel(t)
	require.Equal(t, "batch-host", model.Name())
	require.Equal(t, "ok", model.Health())

	_, err := model.HandleRequest(&RequestContext{Component: "batch-host"})
	require.Error(t, err)

	var created float64
	for i := 0; i < 20; i++ {
		res, err := model.HandleRequest(&RequestContext{Component: "batch-host", WindowMs: 5000})
		require.NoError(t, err)
		require.Equal(t, int64(5000), res.WindowMs)
		require.NotEmpty(t, res.Metrics)

		for _, m := range res.Metrics {
			require.Equal(t, "batch-host", m.Tags["component"])
			require.GreaterOrEqual(t, m.Value, 0.0, m.Name)
			switch m.Name {
			case "rrsim.cpu.utilization", "rrsim.io.utilization":
				require.LessOrEqual(t, m.Value, 100.0, m.Name)
			case "rrsim.processes.created":
				created += m.Value
			}
		}
	}
	require.Equal(t, int64(100000), model.VirtualTime())

	stats, state := model.Snapshot()
	require.Equal(t, float64(stats.NofCreatedProcesses), created)
	require.Equal(t, int64(100000), state["virtualTime"])
}

func TestSchedulerModelHealthWarnsOnQueuePressure(t *testing.T) {
	model, err := NewSchedulerModel("busy-host", &SchedulerConfig{
		MemorySizeKB:         1024 * 1024,
		AvgArrivalIntervalMs: 10,
		RandomSeed:           7,
		CpuQueueWarnLength:   1,
	})
	require.NoError(t, err)

	res, err := model.HandleRequest(&RequestContext{WindowMs: 100000})
	require.NoError(t, err)
	require.Equal(t, "warn", model.Health())

	var warned bool
	for _, l := range res.Logs {
		if l.Status == "warn" {
			warned = true
			require.Contains(t, l.Message, "cpu queue saturated")
		}
	}
	require.True(t, warned)
}

func TestSchedulerModelUpdateParameters(t *testing.T) {
	model := newTestModel(t)
	_, err := model.HandleRequest(&RequestContext{WindowMs: 1000})
	require.NoError(t, err)

	require.NoError(t, model.UpdateParameters(map[string]interface{}{
		"quantum":     "250",
		"avg_io_time": 100.0,
		"memory_size": "4mb",
	}))

	cfg := model.Config()
	require.Equal(t, int64(250), cfg["quantum_ms"])
	require.Equal(t, int64(100), cfg["avg_io_time_ms"])
	require.Equal(t, int64(4096), cfg["memory_size_kb"])
	require.Equal(t, int64(0), model.VirtualTime(), "update restarts the machine")

	for _, p := range model.MutableParameters() {
		if p.Name == "quantum" {
			require.Equal(t, int64(250), p.CurrentValue)
		}
	}

	require.Error(t, model.UpdateParameters(map[string]interface{}{"quantum": 0}))
	require.Error(t, model.UpdateParameters(map[string]interface{}{"memory_size": "lots"}))
	require.Error(t, model.UpdateParameters(map[string]interface{}{"avg_io_time": []int{1}}))
	require.NoError(t, model.UpdateParameters(nil))
	require.Equal(t, int64(250), model.Config()["quantum_ms"])
}

func TestParseSizeString(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "512", want: 512},
		{in: "512kb", want: 512},
		{in: " 2MB ", want: 2048},
		{in: "1gb", want: 1024 * 1024},
		{in: "2048b", want: 2},
		{in: "", wantErr: true},
		{in: "mb", wantErr: true},
		{in: "12tb", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSizeString(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
