package core

import "errors"

var (
	ErrPeriodRange        = errors.New("period out of range")
	ErrDutyRange          = errors.New("duty out of range")
	ErrNotRunning         = errors.New("pwm generator not running")
	ErrAlreadyInitialized = errors.New("pwm generator already initialized")
	ErrPeripheralNotReady = errors.New("peripheral not ready")
)

// Error codes reported to the host in dual_pwm_error
const (
	ErrCodePeriodRange        = 1
	ErrCodeDutyRange          = 2
	ErrCodeNotRunning         = 3
	ErrCodeAlreadyInitialized = 4
	ErrCodePeripheralNotReady = 5
	ErrCodeUnknown            = 255
)

var errorCodes = []struct {
	code uint8
	err  error
}{
	{ErrCodePeriodRange, ErrPeriodRange},
	{ErrCodeDutyRange, ErrDutyRange},
	{ErrCodeNotRunning, ErrNotRunning},
	{ErrCodeAlreadyInitialized, ErrAlreadyInitialized},
	{ErrCodePeripheralNotReady, ErrPeripheralNotReady},
}

// ErrorCode maps a generator error to its wire code
func ErrorCode(err error) uint8 {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return ErrCodeUnknown
}

// ErrorFromCode maps a wire code back to the sentinel error.
// Unknown codes return nil.
func ErrorFromCode(code uint8) error {
	for _, e := range errorCodes {
		if e.code == code {
			return e.err
		}
	}
	return nil
}
