package core

// Sample is the generator output at one PWM clock tick
type Sample struct {
	Tick  int
	Count uint32 // Counter value during this tick
	Out1  bool   // PB6 level
	Out2  bool   // PB7 level
}

// Simulate replays the programmed generator registers for ticks PWM clocks.
// The counter starts at LOAD and counts down to zero before reloading. On each
// tick the load or zero action applies first, then the compare A down action.
// Outputs read low while the generator or their output enable bit is off.
func Simulate(bus RegisterBus, ticks int) []Sample {
	load := bus.Read(PWM0_0_LOAD) & PWM_X_LOAD_M
	cmpa := bus.Read(PWM0_0_CMPA) & PWM_X_CMPA_M
	ctl := bus.Read(PWM0_0_CTL)
	enable := bus.Read(PWM0_ENABLE)
	gens := [2]uint32{bus.Read(PWM0_0_GENA), bus.Read(PWM0_0_GENB)}
	enableBits := [2]uint32{PWM_ENABLE_PWM0EN, PWM_ENABLE_PWM1EN}

	running := ctl&PWM_X_CTL_ENABLE != 0
	var level [2]bool

	samples := make([]Sample, 0, ticks)
	count := load
	for tick := 0; tick < ticks; tick++ {
		for i, gen := range gens {
			if count == load {
				level[i] = applyAction(level[i], genAction(gen, GEN_ACTLOAD_POS))
			} else if count == 0 {
				level[i] = applyAction(level[i], genAction(gen, GEN_ACTZERO_POS))
			}
			if count == cmpa {
				level[i] = applyAction(level[i], genAction(gen, GEN_ACTCMPAD_POS))
			}
		}

		s := Sample{Tick: tick, Count: count}
		if running {
			s.Out1 = level[0] && enable&enableBits[0] != 0
			s.Out2 = level[1] && enable&enableBits[1] != 0
		}
		samples = append(samples, s)

		if !running {
			continue
		}
		if count == 0 {
			count = load
		} else {
			count--
		}
	}
	return samples
}

// DutyCycle returns the fraction of samples where each output is high
func DutyCycle(samples []Sample) (out1, out2 float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	var h1, h2 int
	for _, s := range samples {
		if s.Out1 {
			h1++
		}
		if s.Out2 {
			h2++
		}
	}
	n := float64(len(samples))
	return float64(h1) / n, float64(h2) / n
}

func applyAction(level bool, action uint32) bool {
	switch action {
	case ActInvert:
		return !level
	case ActLow:
		return false
	case ActHigh:
		return true
	default:
		return level
	}
}
