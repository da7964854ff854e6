package core

import "sync"

// AccessOp distinguishes reads from writes in the access log
type AccessOp uint8

const (
	OpRead AccessOp = iota
	OpWrite
)

func (op AccessOp) String() string {
	switch op {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	default:
		return "unknown"
	}
}

// Access is one logged register access
type Access struct {
	Op    AccessOp
	Addr  uint32
	Value uint32
}

// RegisterFile is a simulated register bus for hosted builds and tests.
// Unwritten registers read as zero. Every access is logged.
type RegisterFile struct {
	mu   sync.Mutex
	regs map[uint32]uint32
	log  []Access

	// readyMirror maps a clock gating register to its peripheral ready register
	readyMirror map[uint32]uint32
}

// NewRegisterFile creates an empty register file.
// Clock gate writes are mirrored into the matching ready registers so the
// readiness polls complete as on real silicon.
func NewRegisterFile() *RegisterFile {
	return &RegisterFile{
		regs: make(map[uint32]uint32),
		readyMirror: map[uint32]uint32{
			SYSCTL_RCGCPWM:  SYSCTL_PRPWM,
			SYSCTL_RCGCGPIO: SYSCTL_PRGPIO,
		},
	}
}

// SetAutoReady enables or disables mirroring of clock gate bits into the
// ready registers. With it disabled a peripheral never reports ready.
func (f *RegisterFile) SetAutoReady(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if enabled {
		f.readyMirror = map[uint32]uint32{
			SYSCTL_RCGCPWM:  SYSCTL_PRPWM,
			SYSCTL_RCGCGPIO: SYSCTL_PRGPIO,
		}
	} else {
		f.readyMirror = nil
	}
}

// Read implements RegisterBus
func (f *RegisterFile) Read(addr uint32) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.regs[addr]
	f.log = append(f.log, Access{Op: OpRead, Addr: addr, Value: v})
	return v
}

// Write implements RegisterBus
func (f *RegisterFile) Write(addr uint32, value uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs[addr] = value
	f.log = append(f.log, Access{Op: OpWrite, Addr: addr, Value: value})

	if ready, ok := f.readyMirror[addr]; ok {
		f.regs[ready] = value
	}
}

// Preset sets a register without logging the access
func (f *RegisterFile) Preset(addr uint32, value uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs[addr] = value
}

// Peek returns a register value without logging the access
func (f *RegisterFile) Peek(addr uint32) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.regs[addr]
}

// Log returns a copy of the access log
func (f *RegisterFile) Log() []Access {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Access, len(f.log))
	copy(out, f.log)
	return out
}

// Writes returns the values written to addr, in order
func (f *RegisterFile) Writes(addr uint32) []uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []uint32
	for _, a := range f.log {
		if a.Op == OpWrite && a.Addr == addr {
			out = append(out, a.Value)
		}
	}
	return out
}

// ResetLog discards the access log, keeping register contents
func (f *RegisterFile) ResetLog() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = f.log[:0]
}
