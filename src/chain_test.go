package malamute

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func test_chain() (*audio_chain_t, *audio_cfg_t) {
	var cfg = default_audio_cfg()
	cfg_sanitize(&cfg, WAV_SAMPLE_RATE)
	var ch = new(audio_chain_t)
	ch.configure(&cfg, WAV_SAMPLE_RATE)
	return ch, &cfg
}

func TestChain_AllStagesDisabledIsIdentity(t *testing.T) {
	var ch, cfg = test_chain()
	cfg.EnableBandpass = false
	cfg.EnableEq = false
	cfg.EnableComp = false

	for i := 0; i < 100; i++ {
		var x = float32(math.Sin(float64(i) * 0.3))
		assert.Equal(t, x, ch.process(x, cfg), "disabled chain must pass samples untouched")
	}
}

func TestChain_LimiterCapsOutput(t *testing.T) {
	var ch, cfg = test_chain()
	cfg.EnableBandpass = false
	cfg.EnableEq = false

	for i := 0; i < 8000; i++ {
		var y = ch.process(0.999, cfg)
		assert.LessOrEqual(t, y, cfg.CompOutLimit)
		assert.GreaterOrEqual(t, y, -cfg.CompOutLimit)
	}
}

func TestChain_BandpassKillsDC(t *testing.T) {
	var ch, cfg = test_chain()
	cfg.EnableEq = false
	cfg.EnableComp = false

	var y float32
	for i := 0; i < 20000; i++ {
		y = ch.process(1.0, cfg)
	}
	assert.InDelta(t, 0.0, y, 1e-3, "anything below bp_lo should be gone")
}

func TestChain_ResetClearsAllState(t *testing.T) {
	var ch, cfg = test_chain()

	for i := 0; i < 1000; i++ {
		ch.process(float32(math.Sin(float64(i)*0.5)), cfg)
	}

	ch.reset()

	assert.Zero(t, ch.comp.env)
	for i := 0; i < AUDIO_BP_MAX_STAGES; i++ {
		assert.Zero(t, ch.bp_hpf[i].z1)
		assert.Zero(t, ch.bp_hpf[i].z2)
		assert.Zero(t, ch.bp_lpf[i].z1)
		assert.Zero(t, ch.bp_lpf[i].z2)
	}
	assert.Zero(t, ch.eq_low.z1)
	assert.Zero(t, ch.eq_high.z1)

	// A reset chain fed zeros produces exact zeros.
	for i := 0; i < 10; i++ {
		assert.Zero(t, ch.process(0.0, cfg))
	}
}

func TestChain_ConfigureIsDeterministic(t *testing.T) {
	var a, cfg = test_chain()
	var b = new(audio_chain_t)
	b.configure(cfg, WAV_SAMPLE_RATE)

	assert.Equal(t, a.bp_hpf, b.bp_hpf)
	assert.Equal(t, a.bp_lpf, b.bp_lpf)
	assert.Equal(t, a.eq_low, b.eq_low)
	assert.Equal(t, a.eq_high, b.eq_high)
}

func TestChain_StageCountChangesRolloff(t *testing.T) {
	// More stages, steeper skirt: a tone outside the passband comes
	// through weaker with 10 stages than with 1.
	var measure = func(stages int) float64 {
		var cfg = default_audio_cfg()
		cfg.EnableEq = false
		cfg.EnableComp = false
		cfg.BpStages = stages
		cfg_sanitize(&cfg, WAV_SAMPLE_RATE)

		var ch = new(audio_chain_t)
		ch.configure(&cfg, WAV_SAMPLE_RATE)

		const tone_hz = 3600.0 /* above bp_hi = 2900 */
		var peak float64
		for i := 0; i < 8000; i++ {
			var x = float32(math.Sin(2.0 * math.Pi * tone_hz * float64(i) / WAV_SAMPLE_RATE))
			var y = float64(ch.process(x, &cfg))
			if i > 4000 && math.Abs(y) > peak {
				peak = math.Abs(y)
			}
		}
		return peak
	}

	var one = measure(1)
	var ten = measure(10)
	assert.Less(t, ten, one*0.1, "ten stages should attenuate far more than one")
}

func TestChain_CompressorMakeupLiftsQuietSignal(t *testing.T) {
	var ch, cfg = test_chain()
	cfg.EnableBandpass = false
	cfg.EnableEq = false

	// Below threshold the static curve is unity, so the output should
	// settle at input times makeup gain.
	var makeup = math.Pow(10, float64(cfg.CompMakeupDb)/20.0)
	var y float64
	for i := 0; i < 16000; i++ {
		y = float64(ch.process(0.01, cfg))
	}
	assert.InDelta(t, 0.01*makeup, y, 0.002)
}
