package simulator

// Statistics is the plain record the components mutate as time passes and
// processes come and go. Derived figures live in Report.
type Statistics struct {
	// Process counters
	NofCreatedProcesses      int64 `json:"nofCreatedProcesses"`
	NofCompletedProcesses    int64 `json:"nofCompletedProcesses"`
	NofProcessSwitches       int64 `json:"nofProcessSwitches"`       // every dispatch onto the CPU
	NofForcedProcessSwitches int64 `json:"nofForcedProcessSwitches"` // quantum expirations
	NofProcessedIoOperations int64 `json:"nofProcessedIoOperations"`

	// Device busy time
	TotalBusyCpuTime int64 `json:"totalBusyCpuTime"`
	TotalBusyIoTime  int64 `json:"totalBusyIoTime"`

	// Queue length integrals (sum of length * duration) and peaks
	MemoryQueueLengthTime    int64 `json:"memoryQueueLengthTime"`
	MemoryQueueLargestLength int64 `json:"memoryQueueLargestLength"`
	CpuQueueLengthTime       int64 `json:"cpuQueueLengthTime"`
	CpuQueueLargestLength    int64 `json:"cpuQueueLargestLength"`
	IoQueueLengthTime        int64 `json:"ioQueueLengthTime"`
	IoQueueLargestLength     int64 `json:"ioQueueLargestLength"`

	// Flushed by completed processes
	TotalTimeSpentWaitingForMemory int64 `json:"totalTimeSpentWaitingForMemory"`
	TotalTimeSpentInReadyQueue     int64 `json:"totalTimeSpentInReadyQueue"`
	TotalTimeSpentInCpu            int64 `json:"totalTimeSpentInCpu"`
	TotalTimeSpentWaitingForIo     int64 `json:"totalTimeSpentWaitingForIo"`
	TotalTimeSpentInIo             int64 `json:"totalTimeSpentInIo"`
	TotalNofTimesInReadyQueue      int64 `json:"totalNofTimesInReadyQueue"`
	TotalNofTimesInIoQueue         int64 `json:"totalNofTimesInIoQueue"`

	turnaroundTimes []float64
}

// NewStatistics creates an empty statistics record
func NewStatistics() *Statistics {
	return &Statistics{
		turnaroundTimes: make([]float64, 0),
	}
}

// Clone returns a deep copy
func (s *Statistics) Clone() *Statistics {
	c := *s
	c.turnaroundTimes = append([]float64(nil), s.turnaroundTimes...)
	return &c
}

// TurnaroundTimes returns the completion minus creation time of every
// completed process, in completion order
func (s *Statistics) TurnaroundTimes() []float64 {
	return append([]float64(nil), s.turnaroundTimes...)
}

// accumulateQueue adds one TimePassed interval to a queue-length integral
// and its peak tracker
func accumulateQueue(lengthTime, largest *int64, length int, delta int64) {
	*lengthTime += int64(length) * delta
	if int64(length) > *largest {
		*largest = int64(length)
	}
}

func checkDelta(component string, delta int64) {
	if delta < 0 {
		panic(ErrInvariant("%s: negative time delta %d", component, delta))
	}
}
