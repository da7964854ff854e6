// Dual-phase PWM generator
// Drives PB6/PB7 from PWM0 generator 0 as a complementary pair of 50% square
// waves sharing one down-counter.
package core

import "strconv"

// Period limits imposed by the 16-bit counter
const (
	PWM_MIN_PERIOD = 3
	PWM_MAX_PERIOD = 0xFFFF
)

// ClockDivider selects the PWM tick rate as a fraction of the system clock
type ClockDivider uint8

const (
	Div2 ClockDivider = iota
	Div4
	Div8
	Div16
	Div32
	Div64
)

// Divisor returns the numeric divisor
func (d ClockDivider) Divisor() uint32 {
	return 2 << d
}

func (d ClockDivider) field() uint32 {
	return uint32(d) << SYSCTL_RCC_PWMDIV_POS
}

// GeneratorState is the lifecycle state of the generator
type GeneratorState uint8

const (
	StateUninitialized GeneratorState = iota
	StateInitializing
	StateRunning
)

func (s GeneratorState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// DualPWM owns PWM0 generator 0 and its two output pins.
// It is not safe for concurrent use; one context owns the registers.
type DualPWM struct {
	bus     RegisterBus
	wait    ReadyWaiter
	divider ClockDivider
	debug   DebugWriter
	state   GeneratorState
}

// Option configures a DualPWM
type Option func(*DualPWM)

// WithWaiter replaces the default unbounded readiness poll
func WithWaiter(w ReadyWaiter) Option {
	return func(p *DualPWM) {
		p.wait = w
	}
}

// WithDivider selects the PWM clock divider (default /2)
func WithDivider(d ClockDivider) Option {
	return func(p *DualPWM) {
		p.divider = d
	}
}

// WithLogger sends generator debug messages to w instead of DebugPrintln
func WithLogger(w DebugWriter) Option {
	return func(p *DualPWM) {
		p.debug = w
	}
}

// NewDualPWM creates a generator on the given register bus
func NewDualPWM(bus RegisterBus, opts ...Option) *DualPWM {
	p := &DualPWM{
		bus:     bus,
		wait:    PollForever,
		divider: Div2,
		debug:   DebugPrintln,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current lifecycle state
func (p *DualPWM) State() GeneratorState {
	return p.state
}

// Divider returns the configured clock divider
func (p *DualPWM) Divider() ClockDivider {
	return p.divider
}

// ValidatePeriod checks that period fits the counter
func ValidatePeriod(period uint32) error {
	if period < PWM_MIN_PERIOD || period > PWM_MAX_PERIOD {
		return ErrPeriodRange
	}
	return nil
}

// ValidateDuty checks that duty lies strictly inside the period
func ValidateDuty(period, duty uint32) error {
	if duty == 0 || duty >= period {
		return ErrDutyRange
	}
	return nil
}

// Initialize powers the PWM block and port B, routes PB6/PB7 to the
// generator, programs the action tables and starts the counter.
// period is the number of PWM clocks per cycle; duty is the number of clocks
// Output 1 spends high. Arguments are checked before any register is touched.
func (p *DualPWM) Initialize(period, duty uint32) error {
	if p.state != StateUninitialized {
		return ErrAlreadyInitialized
	}
	if err := ValidatePeriod(period); err != nil {
		return err
	}
	if err := ValidateDuty(period, duty); err != nil {
		return err
	}

	p.state = StateInitializing

	// 1) Clock gating, PWM0 first then port B
	if err := p.enableClock("pwm0", SYSCTL_RCGCPWM, SYSCTL_PRPWM, SYSCTL_RCGCPWM_R0); err != nil {
		p.state = StateUninitialized
		return err
	}
	if err := p.enableClock("gpiob", SYSCTL_RCGCGPIO, SYSCTL_PRGPIO, SYSCTL_RCGCGPIO_R1); err != nil {
		p.state = StateUninitialized
		return err
	}

	// 2) Hand PB6/PB7 to the PWM module
	setBits(p.bus, GPIO_PORTB_AFSEL, PinMask)
	clearBits(p.bus, GPIO_PORTB_ODR, PinMask)
	setBits(p.bus, GPIO_PORTB_DEN, PinMask)
	clearBits(p.bus, GPIO_PORTB_AMSEL, PinMask)
	replaceField(p.bus, GPIO_PORTB_PCTL, GPIO_PCTL_MASK, GPIO_PCTL_VALUE)
	RecordEvent(EvtPinsRouted, PinMask, 0)

	// 3) PWM clock divider
	replaceField(p.bus, SYSCTL_RCC,
		SYSCTL_RCC_PWMDIV_M|SYSCTL_RCC_USEPWMDIV,
		SYSCTL_RCC_USEPWMDIV|p.divider.field())

	// 4) Down-counting, reload, disabled
	p.bus.Write(PWM0_0_CTL, 0)

	// 5) Action tables
	p.bus.Write(PWM0_0_GENA, GenOut1Actions)
	p.bus.Write(PWM0_0_GENB, GenOut2Actions)

	// 6) Counter values are inclusive of zero
	load := (period - 1) & PWM_X_LOAD_M
	compare := (duty - 1) & PWM_X_CMPA_M
	p.bus.Write(PWM0_0_LOAD, load)
	p.bus.Write(PWM0_0_CMPA, compare)

	// 7) Start generator 0 and drive both pins
	setBits(p.bus, PWM0_0_CTL, PWM_X_CTL_ENABLE)
	setBits(p.bus, PWM0_ENABLE, PWM_ENABLE_PWM0EN|PWM_ENABLE_PWM1EN)

	p.state = StateRunning
	RecordEvent(EvtStart, load, compare)
	p.logf("[PWM] running load=" + strconv.FormatUint(uint64(load), 10) +
		" cmpa=" + strconv.FormatUint(uint64(compare), 10) +
		" div=" + strconv.FormatUint(uint64(p.divider.Divisor()), 10))
	return nil
}

// UpdatePeriod rewrites compare A with newPeriod-1 while the counter runs.
// Only the compare register is written; the load register, and so the true
// period, stays as programmed by Initialize. The new threshold takes effect
// within one counter cycle.
func (p *DualPWM) UpdatePeriod(newPeriod uint32) error {
	if p.state != StateRunning {
		return ErrNotRunning
	}
	if err := ValidatePeriod(newPeriod); err != nil {
		return err
	}

	compare := (newPeriod - 1) & PWM_X_CMPA_M
	p.bus.Write(PWM0_0_CMPA, compare)

	RecordEvent(EvtUpdate, compare, 0)
	return nil
}

// Snapshot is a read-back of the generator registers
type Snapshot struct {
	State   GeneratorState
	Load    uint32
	Compare uint32
	Control uint32
	Enable  uint32
}

// Snapshot reads back the generator registers for status reporting
func (p *DualPWM) Snapshot() Snapshot {
	return Snapshot{
		State:   p.state,
		Load:    p.bus.Read(PWM0_0_LOAD),
		Compare: p.bus.Read(PWM0_0_CMPA),
		Control: p.bus.Read(PWM0_0_CTL),
		Enable:  p.bus.Read(PWM0_ENABLE),
	}
}

// enableClock sets a clock gate bit and waits for the peripheral to report ready
func (p *DualPWM) enableClock(name string, gate, ready, bit uint32) error {
	setBits(p.bus, gate, bit)
	RecordEvent(EvtClockGate, gate, bit)
	return p.wait(name, func() bool {
		return p.bus.Read(ready)&bit != 0
	})
}

func (p *DualPWM) logf(msg string) {
	if p.debug != nil {
		p.debug(msg)
	}
}
