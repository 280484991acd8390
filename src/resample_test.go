package malamute

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fill_tone pushes a stereo sine at the given host rate.
func fill_tone(rb *audio_ring_t, host_rate float64, tone_hz float64, n int) {
	for i := 0; i < n; i++ {
		var v = int16(10000.0 * math.Sin(2.0*math.Pi*tone_hz*float64(i)/host_rate))
		rb.push(stereo16_t{l: v, r: v})
	}
}

func TestResampler_ConsumptionRatio(t *testing.T) {
	var rb = new(audio_ring_t)
	var rs = resampler_new(rb)

	fill_tone(rb, 48000.0, 1000.0, 6000)
	var start = rb.fill()

	// 48 kHz in, 8 kHz out: about six input frames per output sample.
	const out_samples = 500
	for i := 0; i < out_samples; i++ {
		rs.get_mono(48000)
	}

	var consumed = start - rb.fill()
	assert.InDelta(t, out_samples*6, int(consumed), out_samples*0.5,
		"consumption should track the 48k/8k ratio")
}

func TestResampler_HoldsLastWhenDry(t *testing.T) {
	var rb = new(audio_ring_t)
	var rs = resampler_new(rb)

	for i := 0; i < 10; i++ {
		rb.push(stereo16_t{l: 1000, r: 1000})
	}

	// Drain far past the buffered frames.  Must never block or panic,
	// and must keep returning the held value.
	var last int16
	for i := 0; i < 1000; i++ {
		last = rs.get_mono(48000)
	}
	assert.Equal(t, int16(1000), last)
}

func TestResampler_ReseedForgetsHistory(t *testing.T) {
	var rb = new(audio_ring_t)
	var rs = resampler_new(rb)

	fill_tone(rb, 48000.0, 1000.0, 100)
	for i := 0; i < 10; i++ {
		rs.get_mono(48000)
	}
	require.True(t, rs.primed)

	rs.reseed()
	assert.False(t, rs.primed)
	assert.Zero(t, rs.phase_q16)
	assert.Zero(t, rs.base_step_q16)
}

func TestHermite_WidensTangentArithmetic(t *testing.T) {
	// A full-scale swing between frames: the Catmull-Rom tangent
	// (s1-sm1)/2 is 20000, computed from a difference of 40000 that
	// does not fit an int16.
	var lo = stereo16_t{l: -20000, r: -20000}
	var hi = stereo16_t{l: 20000, r: 20000}

	// h00*s0 + h10*m0 + h01*s1 + h11*m1 at t=0.25, m0=m1=20000.
	var want = 0.84375*(-20000.0) + 0.140625*20000.0 + 0.15625*20000.0 - 0.046875*20000.0
	assert.InDelta(t, want, float64(hermite_mono(lo, lo, hi, hi, 0.25)), 0.5)
}

func TestHermite_ReproducesLinearRamp(t *testing.T) {
	// Catmull-Rom is exact on linear data, including ramps steep
	// enough that the two-frame tangent span (34000 here) exceeds
	// what an int16 difference can hold.
	var a = stereo16_t{l: -25500, r: -25500}
	var b = stereo16_t{l: -8500, r: -8500}
	var c = stereo16_t{l: 8500, r: 8500}
	var d = stereo16_t{l: 25500, r: 25500}

	for _, frac := range []float32{0.0, 0.25, 0.5, 0.75} {
		assert.InDelta(t, float64(-8500.0+17000.0*frac),
			float64(hermite_mono(a, b, c, d, frac)), 0.5)
	}
}

func TestResampler_RateChangeReprimesHistory(t *testing.T) {
	var rb = new(audio_ring_t)
	var rs = resampler_new(rb)

	fill_tone(rb, 44100.0, 1000.0, 2000)
	for i := 0; i < 10; i++ {
		rs.get_mono(44100)
	}
	require.True(t, rs.primed)

	// A rate change starts over: the four-frame history is re-primed
	// from the ring on top of the regular per-sample consumption.
	var before = rb.fill()
	rs.get_mono(48000)
	var consumed = before - rb.fill()

	assert.Equal(t, uint32((uint64(48000)<<16)/WAV_SAMPLE_RATE), rs.base_step_q16)
	assert.GreaterOrEqual(t, consumed, uint32(8), "history should be re-primed, not carried over")
}

func TestResampler_RateChangeRecomputesStep(t *testing.T) {
	var rb = new(audio_ring_t)
	var rs = resampler_new(rb)

	fill_tone(rb, 44100.0, 1000.0, 1000)
	rs.get_mono(44100)
	var step_44k = rs.base_step_q16

	rs.get_mono(48000)
	var step_48k = rs.base_step_q16

	assert.Equal(t, uint32((uint64(44100)<<16)/WAV_SAMPLE_RATE), step_44k)
	assert.Equal(t, uint32((uint64(48000)<<16)/WAV_SAMPLE_RATE), step_48k)
	assert.Greater(t, step_48k, step_44k)
}

func TestResampler_PreservesToneAmplitude(t *testing.T) {
	var rb = new(audio_ring_t)
	var rs = resampler_new(rb)

	fill_tone(rb, 48000.0, 440.0, 48000)

	// Skip the priming transient, then find the peak over a second.
	for i := 0; i < 100; i++ {
		rs.get_mono(48000)
	}

	var peak int16
	for i := 0; i < 4000; i++ {
		var s = rs.get_mono(48000)
		if s > peak {
			peak = s
		}
	}

	assert.InDelta(t, 10000, int(peak), 500, "interpolation should not dent the envelope")
}
