package simulator

import (
	"fmt"
	"os"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// TraceRecord describes one handled event
type TraceRecord struct {
	Time        int64
	Event       EventType
	ProcessID   int64 // 0 when the event concerns no process
	CpuQueueLen int
	IoQueueLen  int
	MemQueueLen int
}

// EventTracer receives every event the simulator handles
type EventTracer interface {
	Trace(rec TraceRecord)
}

// CSVTraceWriter is an event tracer that stores the records into a CSV file.
type CSVTraceWriter struct {
	path string
	file *os.File

	records    []TraceRecord
	bufferSize int
}

// NewCSVTraceWriter creates a new CSVTraceWriter. An empty path picks a
// unique file name in the working directory.
func NewCSVTraceWriter(path string) *CSVTraceWriter {
	return &CSVTraceWriter{
		path:       path,
		bufferSize: 1000,
	}
}

// Init creates the trace file and registers a flush at program exit. An
// existing file is an error.
func (t *CSVTraceWriter) Init() error {
	if t.path == "" {
		t.path = "rrsim_trace_" + xid.New().String() + ".csv"
	}

	if _, err := os.Stat(t.path); err == nil {
		return fmt.Errorf("trace file %s already exists", t.path)
	}

	file, err := os.Create(t.path)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}
	t.file = file

	fmt.Fprintf(file, "time,event,pid,cpuQueue,ioQueue,memoryQueue\n")

	atexit.Register(func() {
		_ = t.Close()
	})
	return nil
}

// Path returns the trace file path (known after Init)
func (t *CSVTraceWriter) Path() string {
	return t.path
}

// Trace buffers a record, flushing when the buffer is full. Records are
// dropped while the file is not open.
func (t *CSVTraceWriter) Trace(rec TraceRecord) {
	if t.file == nil {
		return
	}
	t.records = append(t.records, rec)
	if len(t.records) >= t.bufferSize {
		t.Flush()
	}
}

// Flush writes the buffered records to the file
func (t *CSVTraceWriter) Flush() {
	if t.file == nil {
		t.records = nil
		return
	}
	for _, rec := range t.records {
		fmt.Fprintf(t.file, "%d,%s,%d,%d,%d,%d\n",
			rec.Time,
			rec.Event,
			rec.ProcessID,
			rec.CpuQueueLen,
			rec.IoQueueLen,
			rec.MemQueueLen,
		)
	}
	t.records = nil
}

// Close flushes and closes the file. Closing twice is a no-op.
func (t *CSVTraceWriter) Close() error {
	if t.file == nil {
		return nil
	}
	t.Flush()
	err := t.file.Close()
	t.file = nil
	return err
}
