package malamute

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func test_synth() (*ssb_synth_t, *audio_cfg_t) {
	var cfg = default_audio_cfg()
	cfg_sanitize(&cfg, WAV_SAMPLE_RATE)
	var s = ssb_synth_new()
	s.configure(&cfg)
	return s, &cfg
}

// Feed a steady tone straight into the synthesizer and check that the
// average commanded deviation converges onto the tone frequency.
func TestSynth_ToneFrequencyConvergence(t *testing.T) {
	var s, cfg = test_synth()

	const tone_hz = 1000.0
	const base_steps = 12100970 /* a 2.4 GHz carrier in PLL steps */

	var n = 0
	var next = func() sample_cmd_t {
		var x = float32(0.5 * math.Sin(2.0*math.Pi*tone_hz*float64(n)/WAV_SAMPLE_RATE))
		n++
		return s.process(x, base_steps, cfg, PWR_MAX_DBM)
	}

	for i := 0; i < 2*HILBERT_TAPS; i++ {
		next()
	}

	const N = 8000
	var sum float64
	for i := 0; i < N; i++ {
		var c = next()
		sum += float64(c.freq_steps-base_steps) * PLL_STEP_HZ
	}

	var mean = sum / N
	assert.InDelta(t, tone_hz, mean, PLL_STEP_HZ,
		"mean deviation should land on the tone within one PLL step")
}

// The noise-shaping accumulator: over N samples of a constant
// fractional step, the number of +1 corrections converges to
// round(frac*N) plus or minus one.
func TestSynth_DeltaSigmaConvergence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var frac = rapid.Float32Range(0.01, 0.99).Draw(t, "frac")
		var n = rapid.IntRange(100, 5000).Draw(t, "n")

		var s, _ = test_synth()

		var extras = 0
		for i := 0; i < n; i++ {
			s.f_acc += frac
			if s.f_acc >= 1.0 {
				extras++
				s.f_acc -= 1.0
			}
		}

		var want = int(math.Round(float64(frac) * float64(n)))
		assert.InDelta(t, want, extras, 1.0+1e-6)
	})
}

// Below GATE_A_REF the transmitter duty cycles: over N samples the
// on-fraction tracks A/GATE_A_REF within 1/N.
func TestSynth_DutyGatingLinearity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var a = rapid.Float32Range(0.0005, 0.009).Draw(t, "a")

		var s, cfg = test_synth()

		// DC into the Hilbert settles to envelope = a (the Q leg
		// rejects DC, the I leg passes it).
		for i := 0; i < 2*HILBERT_TAPS; i++ {
			s.process(a, 0, cfg, PWR_MAX_DBM)
		}

		const N = 4000
		var on = 0
		for i := 0; i < N; i++ {
			var c = s.process(a, 0, cfg, PWR_MAX_DBM)
			require.Equal(t, int8(PWR_MIN_DBM), c.p_dbm, "gated samples ride at minimum power")
			if c.tx_on {
				on++
			}
		}

		var want = float64(a) / GATE_A_REF
		assert.InDelta(t, want, float64(on)/N, 0.01,
			"on-fraction should track the envelope linearly")
	})
}

func TestSynth_DeviationClamp(t *testing.T) {
	var s, cfg = test_synth()

	// A phase-hostile step signal can't command more than the limit.
	var worst float64
	for i := 0; i < 4000; i++ {
		var x = float32(0.9)
		if i%2 == 0 {
			x = -0.9
		}
		var c = s.process(x, 0, cfg, PWR_MAX_DBM)
		var dev = math.Abs(float64(c.freq_steps) * PLL_STEP_HZ)
		if dev > worst {
			worst = dev
		}
	}
	assert.LessOrEqual(t, worst, F_OFF_LIMIT_HZ+PLL_STEP_HZ)
}

func TestSynth_PowerNeverExceedsCeiling(t *testing.T) {
	var s, cfg = test_synth()

	const pwr_max = 5
	for i := 0; i < 4000; i++ {
		var x = float32(0.99 * math.Sin(2.0*math.Pi*800.0*float64(i)/WAV_SAMPLE_RATE))
		var c = s.process(x, 0, cfg, pwr_max)
		assert.LessOrEqual(t, c.p_dbm, int8(pwr_max))
		assert.GreaterOrEqual(t, c.p_dbm, int8(PWR_MIN_DBM))
	}
}

func TestSynth_ResetZeroesEverything(t *testing.T) {
	var s, cfg = test_synth()

	for i := 0; i < 500; i++ {
		var x = float32(0.5 * math.Sin(2.0*math.Pi*700.0*float64(i)/WAV_SAMPLE_RATE))
		s.process(x, 0, cfg, PWR_MAX_DBM)
	}

	s.reset()

	assert.Zero(t, s.theta_prev)
	assert.Zero(t, s.f_acc)
	assert.Zero(t, s.p_acc)
	assert.Zero(t, s.tx_acc)
	for _, v := range s.hilb.buf {
		assert.Zero(t, v)
	}
}
