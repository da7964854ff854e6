package core

import (
	"strconv"
	"sync"
)

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// PWMEvent captures a generator event for post-mortem analysis
type PWMEvent struct {
	EventType uint8  // Event type code
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtClockGate  = 1 // Clock gate enabled, value1 = gate register
	EvtPinsRouted = 2 // Pin mux configured, value1 = pin mask
	EvtStart      = 3 // Generator started, value1 = load, value2 = compare
	EvtUpdate     = 4 // Compare rewritten, value1 = compare
	EvtReject     = 5 // Command rejected, value1 = error code
)

const (
	EventRingSize = 16
)

var (
	debugMu sync.Mutex

	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	eventRing     [EventRingSize]PWMEvent
	eventRingHead uint8
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugMu.Lock()
	defer debugMu.Unlock()
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugMu.Lock()
	defer debugMu.Unlock()
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	debugMu.Lock()
	defer debugMu.Unlock()
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	debugMu.Lock()
	enabled, w := debugEnabled, debugPrintln
	debugMu.Unlock()
	if enabled && w != nil {
		w(msg)
	}
}

// RecordEvent captures an event in the ring buffer
func RecordEvent(eventType uint8, value1, value2 uint32) {
	debugMu.Lock()
	defer debugMu.Unlock()
	idx := eventRingHead
	eventRing[idx] = PWMEvent{
		EventType: eventType,
		Value1:    value1,
		Value2:    value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
}

// Events returns the recorded events, oldest first
func Events() []PWMEvent {
	debugMu.Lock()
	defer debugMu.Unlock()
	out := make([]PWMEvent, 0, EventRingSize)
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(eventRingHead+i)%EventRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// DumpEvents writes the event ring through the debug writer
func DumpEvents() {
	debugMu.Lock()
	w := debugPrintln
	debugMu.Unlock()
	if w == nil {
		return
	}

	w("[PWM] === Event Dump ===")
	for _, evt := range Events() {
		w("[PWM] " + eventName(evt.EventType) +
			" v1=" + strconv.FormatUint(uint64(evt.Value1), 10) +
			" v2=" + strconv.FormatUint(uint64(evt.Value2), 10))
	}
	w("[PWM] === End Dump ===")
}

// ClearEvents clears the event ring
func ClearEvents() {
	debugMu.Lock()
	defer debugMu.Unlock()
	for i := range eventRing {
		eventRing[i] = PWMEvent{}
	}
	eventRingHead = 0
}

func eventName(t uint8) string {
	switch t {
	case EvtClockGate:
		return "CLOCK_GATE"
	case EvtPinsRouted:
		return "PINS_ROUTED"
	case EvtStart:
		return "START"
	case EvtUpdate:
		return "UPDATE"
	case EvtReject:
		return "REJECT"
	default:
		return "UNKNOWN"
	}
}
