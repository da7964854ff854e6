package core

// TM4C123GH6PM register definitions used by the dual PWM generator
// Based on the TM4C123GH6PM datasheet (SPMS376E), chapters 5, 10 and 20

// System Control (base 0x400FE000)
const (
	SYSCTL_RCC      = 0x400FE060 // Run-mode clock configuration
	SYSCTL_RCGCGPIO = 0x400FE608 // GPIO run-mode clock gating control
	SYSCTL_RCGCPWM  = 0x400FE640 // PWM run-mode clock gating control
	SYSCTL_PRGPIO   = 0x400FEA08 // GPIO peripheral ready
	SYSCTL_PRPWM    = 0x400FEA40 // PWM peripheral ready
)

// SYSCTL bit fields
const (
	SYSCTL_RCGCPWM_R0  = 1 << 0 // PWM module 0
	SYSCTL_RCGCGPIO_R1 = 1 << 1 // GPIO port B

	SYSCTL_RCC_USEPWMDIV  = 0x00100000 // Use the PWM clock divisor
	SYSCTL_RCC_PWMDIV_M   = 0x000E0000 // PWM unit clock divisor field
	SYSCTL_RCC_PWMDIV_POS = 17
)

// GPIO Port B, APB aperture (base 0x40005000)
const (
	GPIO_PORTB_BASE  = 0x40005000
	GPIO_PORTB_AFSEL = GPIO_PORTB_BASE + 0x420 // Alternate function select
	GPIO_PORTB_ODR   = GPIO_PORTB_BASE + 0x50C // Open drain select
	GPIO_PORTB_DEN   = GPIO_PORTB_BASE + 0x51C // Digital enable
	GPIO_PORTB_AMSEL = GPIO_PORTB_BASE + 0x528 // Analog mode select
	GPIO_PORTB_PCTL  = GPIO_PORTB_BASE + 0x52C // Port control (mux)
)

// Pin assignments for the two outputs
const (
	PinOut1 = 6 // PB6 = M0PWM0, driven by GENA
	PinOut2 = 7 // PB7 = M0PWM1, driven by GENB

	PinMask = 1<<PinOut1 | 1<<PinOut2

	// PCTL encoding 4 selects the M0PWMn function on PB4-PB7
	GPIO_PCTL_M0PWM = 0x4

	GPIO_PCTL_MASK  = 0xF<<(PinOut1*4) | 0xF<<(PinOut2*4)
	GPIO_PCTL_VALUE = GPIO_PCTL_M0PWM<<(PinOut1*4) | GPIO_PCTL_M0PWM<<(PinOut2*4)
)

// PWM module 0, generator 0 (base 0x40028000)
const (
	PWM0_BASE    = 0x40028000
	PWM0_ENABLE  = PWM0_BASE + 0x008 // Output enable
	PWM0_0_CTL   = PWM0_BASE + 0x040 // Generator 0 control
	PWM0_0_LOAD  = PWM0_BASE + 0x050 // Generator 0 load
	PWM0_0_COUNT = PWM0_BASE + 0x054 // Generator 0 counter
	PWM0_0_CMPA  = PWM0_BASE + 0x058 // Generator 0 compare A
	PWM0_0_CMPB  = PWM0_BASE + 0x05C // Generator 0 compare B
	PWM0_0_GENA  = PWM0_BASE + 0x060 // Generator 0 output A actions
	PWM0_0_GENB  = PWM0_BASE + 0x064 // Generator 0 output B actions
)

// PWM bit fields
const (
	PWM_ENABLE_PWM0EN = 1 << 0 // M0PWM0 output enable
	PWM_ENABLE_PWM1EN = 1 << 1 // M0PWM1 output enable

	PWM_X_CTL_ENABLE = 1 << 0 // Generator enable
	PWM_X_CTL_MODE   = 1 << 1 // 0 = count down, 1 = count up/down

	// Counter is 16 bits wide
	PWM_X_LOAD_M = 0xFFFF
	PWM_X_CMPA_M = 0xFFFF
)

// Action encodings for the PWMnGENx fields
const (
	ActNothing = 0x0
	ActInvert  = 0x1
	ActLow     = 0x2
	ActHigh    = 0x3
)

// Bit positions of the event fields in PWMnGENx
const (
	GEN_ACTZERO_POS  = 0  // Counter reached zero
	GEN_ACTLOAD_POS  = 2  // Counter reloaded
	GEN_ACTCMPAU_POS = 4  // Compare A while counting up
	GEN_ACTCMPAD_POS = 6  // Compare A while counting down
	GEN_ACTCMPBU_POS = 8  // Compare B while counting up
	GEN_ACTCMPBD_POS = 10 // Compare B while counting down

	GEN_ACT_MASK = 0x3
)

// Action tables for the two outputs.
// Output 1 drops on load and rises at compare A; Output 2 is its complement.
const (
	GenOut1Actions = ActLow<<GEN_ACTLOAD_POS | ActHigh<<GEN_ACTCMPAD_POS // 0xC8
	GenOut2Actions = ActHigh<<GEN_ACTLOAD_POS | ActLow<<GEN_ACTCMPAD_POS // 0x8C
)

// genAction extracts the action for the event at pos from a GENx value
func genAction(gen uint32, pos uint) uint32 {
	return (gen >> pos) & GEN_ACT_MASK
}
