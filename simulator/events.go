package simulator

import (
	"encoding/json"
	"fmt"
)

// EventType represents the type of simulation event
type EventType int

const (
	EventTypeNewProcess EventType = iota
	EventTypeSwitchProcess
	EventTypeEndProcess
	EventTypeIoRequest
	EventTypeEndIo
)

func (et EventType) String() string {
	switch et {
	case EventTypeNewProcess:
		return "new_process"
	case EventTypeSwitchProcess:
		return "switch_process"
	case EventTypeEndProcess:
		return "end_process"
	case EventTypeIoRequest:
		return "io_request"
	case EventTypeEndIo:
		return "end_io"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for EventType
func (et EventType) MarshalJSON() ([]byte, error) {
	return json.Marshal(et.String())
}

// Event says what should happen at which virtual time. It deliberately does
// not reference a process: the Cpu or Io that emitted it keeps the process
// in its active slot until the event fires.
type Event struct {
	kind      EventType
	timestamp int64
}

// NewEvent creates an event of the given type at the given virtual time
func NewEvent(kind EventType, timestamp int64) Event {
	return Event{kind: kind, timestamp: timestamp}
}

func (e Event) Type() EventType  { return e.kind }
func (e Event) Timestamp() int64 { return e.timestamp }
func (e Event) String() string {
	return fmt.Sprintf("%s(t=%d)", e.kind, e.timestamp)
}
