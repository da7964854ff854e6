package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureDebug(t *testing.T, enabled bool) *[]string {
	t.Helper()
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	SetDebugEnabled(enabled)
	t.Cleanup(func() {
		SetDebugWriter(func(string) {})
		SetDebugEnabled(false)
	})
	return &lines
}

func TestDebugPrintlnGated(t *testing.T) {
	lines := captureDebug(t, false)

	DebugPrintln("hidden")
	assert.Empty(t, *lines)
	assert.False(t, IsDebugEnabled())

	SetDebugEnabled(true)
	DebugPrintln("shown")
	assert.Equal(t, []string{"shown"}, *lines)
}

func TestEventRingOrder(t *testing.T) {
	ClearEvents()
	t.Cleanup(ClearEvents)

	assert.Empty(t, Events())

	RecordEvent(EvtClockGate, 1, 2)
	RecordEvent(EvtStart, 3, 4)
	assert.Equal(t, []PWMEvent{
		{EventType: EvtClockGate, Value1: 1, Value2: 2},
		{EventType: EvtStart, Value1: 3, Value2: 4},
	}, Events())
}

func TestEventRingWraps(t *testing.T) {
	ClearEvents()
	t.Cleanup(ClearEvents)

	for i := uint32(0); i < EventRingSize+4; i++ {
		RecordEvent(EvtUpdate, i, 0)
	}

	events := Events()
	require.Len(t, events, EventRingSize)
	assert.Equal(t, uint32(4), events[0].Value1, "oldest surviving event")
	assert.Equal(t, uint32(EventRingSize+3), events[EventRingSize-1].Value1)
}

func TestInitializeRecordsEvents(t *testing.T) {
	ClearEvents()
	t.Cleanup(ClearEvents)

	pwm, _ := newTestPWM(t)
	require.NoError(t, pwm.Initialize(64, 32))
	require.NoError(t, pwm.UpdatePeriod(40))

	var types []uint8
	for _, evt := range Events() {
		types = append(types, evt.EventType)
	}
	assert.Equal(t, []uint8{EvtClockGate, EvtClockGate, EvtPinsRouted, EvtStart, EvtUpdate}, types)
}

func TestDumpEvents(t *testing.T) {
	ClearEvents()
	t.Cleanup(ClearEvents)
	lines := captureDebug(t, false)

	RecordEvent(EvtReject, ErrCodeDutyRange, 0)
	DumpEvents()

	assert.Equal(t, []string{
		"[PWM] === Event Dump ===",
		"[PWM] REJECT v1=2 v2=0",
		"[PWM] === End Dump ===",
	}, *lines)
}
