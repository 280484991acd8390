package malamute

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHilbert_QuadratureOnTone(t *testing.T) {
	var hb = hilbert_new()

	const tone_hz = 1000.0
	const ampl = 0.5

	// Warm up past the group delay, then check that the analytic
	// signal has the tone's envelope: I^2 + Q^2 constant at ampl^2.
	var n = 0
	var next = func() (float32, float32) {
		var x = float32(ampl * math.Sin(2.0*math.Pi*tone_hz*float64(n)/WAV_SAMPLE_RATE))
		n++
		return hb.process(x)
	}

	for i := 0; i < 2*HILBERT_TAPS; i++ {
		next()
	}

	for i := 0; i < 200; i++ {
		var iv, qv = next()
		var env = math.Sqrt(float64(iv*iv + qv*qv))
		assert.InDelta(t, ampl, env, 0.02, "envelope should be flat on a steady tone")
	}
}

func TestHilbert_InPhaseIsDelayedInput(t *testing.T) {
	var hb = hilbert_new()

	// Feed an impulse; the in-phase output must reproduce it exactly
	// HILBERT_GROUP_DELAY samples later.
	var iv, _ = hb.process(1.0)
	assert.Zero(t, iv)

	for i := 1; i < HILBERT_GROUP_DELAY; i++ {
		iv, _ = hb.process(0.0)
		assert.Zero(t, iv, "sample %d", i)
	}

	iv, _ = hb.process(0.0)
	assert.Equal(t, float32(1.0), iv, "impulse should emerge at the group delay")

	iv, _ = hb.process(0.0)
	assert.Zero(t, iv)
}

func TestHilbert_ResetClearsDelayLine(t *testing.T) {
	var hb = hilbert_new()

	for i := 0; i < 100; i++ {
		hb.process(0.7)
	}

	hb.reset()

	var iv, qv = hb.process(0.0)
	assert.Zero(t, iv)
	assert.Zero(t, qv)
	assert.Equal(t, 1, hb.idx, "index restarts from the reset origin")
}

func TestHilbert_RejectsDC(t *testing.T) {
	var hb = hilbert_new()

	var qv float32
	for i := 0; i < 3*HILBERT_TAPS; i++ {
		_, qv = hb.process(1.0)
	}
	assert.InDelta(t, 0.0, qv, 1e-3, "ideal Hilbert response is zero at DC")
}
