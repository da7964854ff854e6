package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"pwmdual/core"
	"pwmdual/host/config"
	"pwmdual/host/mcu"
)

var (
	errUsage = errors.New("usage")
	errNoSim = errors.New("trace needs the simulated MCU (-sim)")
)

const (
	maxTicks  = 4096
	traceCols = 64
)

// session executes interactive commands against one MCU
type session struct {
	mcu *mcu.MCU
	sim *mcu.Simulator
	cfg *config.Config
	out io.Writer
}

// execute runs one command line and reports whether the user asked to quit
func (s *session) execute(line string) (bool, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return false, fmt.Errorf("cannot parse %q: %w", line, err)
	}
	if len(args) == 0 {
		return false, nil
	}

	switch args[0] {
	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Goodbye!")
		return true, nil

	case "help", "?":
		s.printHelp()

	case "dict":
		fmt.Fprintf(s.out, "%s\n", s.mcu.DictionaryRaw())

	case "init":
		return false, s.cmdInit(args[1:])

	case "period":
		return false, s.cmdPeriod(args[1:])

	case "state":
		return false, s.cmdState()

	case "trace":
		return false, s.cmdTrace(args[1:])

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for available commands)\n", args[0])
	}
	return false, nil
}

func (s *session) printHelp() {
	fmt.Fprintln(s.out, "\nAvailable commands:")
	fmt.Fprintln(s.out, "  help                  - Show this help message")
	fmt.Fprintln(s.out, "  dict                  - Print raw dictionary")
	fmt.Fprintln(s.out, "  init [period] [duty]  - Start the generator (defaults from config)")
	fmt.Fprintln(s.out, "  period <n>            - Rewrite the compare threshold to n-1")
	fmt.Fprintln(s.out, "  state                 - Read back state, load and compare")
	fmt.Fprintln(s.out, "  trace [ticks]         - Show simulated outputs (sim only)")
	fmt.Fprintln(s.out, "  quit/exit/q           - Exit the program")
	fmt.Fprintln(s.out)
}

func (s *session) cmdInit(args []string) error {
	period, duty := s.cfg.Period, s.cfg.Duty
	var err error
	if len(args) > 0 {
		if period, err = parseUint16(args[0]); err != nil {
			return err
		}
		duty = period / 2
	}
	if len(args) > 1 {
		if duty, err = parseUint16(args[1]); err != nil {
			return err
		}
	}
	if len(args) > 2 {
		return fmt.Errorf("%w: init [period] [duty]", errUsage)
	}

	if err := s.mcu.ConfigureDualPWM(period, duty); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Generator running: period=%d duty=%d\n", period, duty)
	return nil
}

func (s *session) cmdPeriod(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: period <n>", errUsage)
	}
	period, err := parseUint16(args[0])
	if err != nil {
		return err
	}
	if err := s.mcu.SetPeriod(period); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Compare set to %d\n", period-1)
	return nil
}

func (s *session) cmdState() error {
	st, err := s.mcu.QueryState()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "state=%s load=%d compare=%d period=%d\n", st.State, st.Load, st.Compare, st.Period())
	return nil
}

func (s *session) cmdTrace(args []string) error {
	if s.sim == nil {
		return errNoSim
	}
	ticks := 2 * traceCols
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 || n > maxTicks {
			return fmt.Errorf("%w: trace [1..%d]", errUsage, maxTicks)
		}
		ticks = n
	}

	samples := s.sim.Trace(ticks)
	out1, out2 := core.DutyCycle(samples)
	fmt.Fprintf(s.out, "PB6 %s\n", plot(samples, func(x core.Sample) bool { return x.Out1 }))
	fmt.Fprintf(s.out, "PB7 %s\n", plot(samples, func(x core.Sample) bool { return x.Out2 }))
	fmt.Fprintf(s.out, "duty PB6=%.1f%% PB7=%.1f%%\n", out1*100, out2*100)
	return nil
}

// plot renders a level trace, one character per tick, wrapped at traceCols
func plot(samples []core.Sample, level func(core.Sample) bool) string {
	var b strings.Builder
	for i, x := range samples {
		if i > 0 && i%traceCols == 0 {
			b.WriteString("\n    ")
		}
		if level(x) {
			b.WriteByte('^')
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func parseUint16(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return uint32(v), nil
}
