package malamute

/*------------------------------------------------------------------
 *
 * Purpose:	Biquad filter sections for the voice chain.
 *
 * Description: Second-order IIR sections in transposed direct form II.
 *		Butterworth low/high pass pairs build the bandpass
 *		cascade; the shelving sections come from the usual RBJ
 *		cookbook formulas with a slope parameter.
 *
 *		Coefficient computation is pure: the same inputs always
 *		produce bit-identical coefficients.
 *
 *------------------------------------------------------------------*/

import (
	"math"
)

type biquad_t struct {
	b0, b1, b2 float32
	a1, a2     float32
	z1, z2     float32
}

func (q *biquad_t) reset() {
	q.z1 = 0
	q.z2 = 0
}

func (q *biquad_t) process(x float32) float32 {
	var y = q.b0*x + q.z1
	q.z1 = q.b1*x - q.a1*y + q.z2
	q.z2 = q.b2*x - q.a2*y
	return y
}

/*------------------------------------------------------------------
 *
 * Name:	biquad_init_lowpass_bw2 / biquad_init_highpass_bw2
 *
 * Purpose:	2-pole Butterworth sections via bilinear transform.
 *		12 dB/octave each; the bandpass cascade stacks them.
 *
 *------------------------------------------------------------------*/

func biquad_init_lowpass_bw2(q *biquad_t, fc float32, fs float32) {
	var K = float32(math.Tan(math.Pi * float64(fc) / float64(fs)))
	var K2 = K * K
	const s2 = 1.41421356
	var norm = 1.0 / (1.0 + s2*K + K2)

	q.b0 = K2 * norm
	q.b1 = 2.0 * q.b0
	q.b2 = q.b0

	q.a1 = 2.0 * (K2 - 1.0) * norm
	q.a2 = (1.0 - s2*K + K2) * norm

	q.reset()
}

func biquad_init_highpass_bw2(q *biquad_t, fc float32, fs float32) {
	var K = float32(math.Tan(math.Pi * float64(fc) / float64(fs)))
	var K2 = K * K
	const s2 = 1.41421356
	var norm = 1.0 / (1.0 + s2*K + K2)

	q.b0 = 1.0 * norm
	q.b1 = -2.0 * q.b0
	q.b2 = q.b0

	q.a1 = 2.0 * (K2 - 1.0) * norm
	q.a2 = (1.0 - s2*K + K2) * norm

	q.reset()
}

/*
 * Lower bound cfg_sanitize keeps on the shelf alpha radicand
 * (A+1/A)(1/S-1)+2.  A steep slope with a hot gain drives it negative
 * and sqrt returns NaN; at exactly zero the poles sit on the unit
 * circle.
 */

const RBJ_RADICAND_MIN = 0.01

/*------------------------------------------------------------------
 *
 * Name:	biquad_init_low_shelf / biquad_init_high_shelf
 *
 * Purpose:	Shelving EQ sections.
 *
 * Inputs:	slope - S=1 gives max steepness without overshoot,
 *			smaller is gentler.  Sanitized to 0.3 .. 2.0 and
 *			capped against the shelf gain before we get here.
 *
 *------------------------------------------------------------------*/

func biquad_init_low_shelf(q *biquad_t, fc float32, fs float32, gain_db float32, slope float32) {
	var A = float32(math.Pow(10, float64(gain_db)/40.0))
	var w0 = 2.0 * float32(math.Pi) * fc / fs
	var cw = float32(math.Cos(float64(w0)))
	var sw = float32(math.Sin(float64(w0)))
	var rad = (A+1.0/A)*(1.0/slope-1.0) + 2.0
	if rad < 0 {
		rad = 0 /* sqrt of a negative is NaN */
	}
	var alpha = sw * 0.5 * float32(math.Sqrt(float64(rad)))
	var sqA = float32(math.Sqrt(float64(A)))

	var b0 = A * ((A + 1.0) - (A-1.0)*cw + 2.0*sqA*alpha)
	var b1 = 2.0 * A * ((A - 1.0) - (A+1.0)*cw)
	var b2 = A * ((A + 1.0) - (A-1.0)*cw - 2.0*sqA*alpha)
	var a0 = (A + 1.0) + (A-1.0)*cw + 2.0*sqA*alpha
	var a1 = -2.0 * ((A - 1.0) + (A+1.0)*cw)
	var a2 = (A + 1.0) + (A-1.0)*cw - 2.0*sqA*alpha

	q.b0 = b0 / a0
	q.b1 = b1 / a0
	q.b2 = b2 / a0
	q.a1 = a1 / a0
	q.a2 = a2 / a0
	q.reset()
}

func biquad_init_high_shelf(q *biquad_t, fc float32, fs float32, gain_db float32, slope float32) {
	var A = float32(math.Pow(10, float64(gain_db)/40.0))
	var w0 = 2.0 * float32(math.Pi) * fc / fs
	var cw = float32(math.Cos(float64(w0)))
	var sw = float32(math.Sin(float64(w0)))
	var rad = (A+1.0/A)*(1.0/slope-1.0) + 2.0
	if rad < 0 {
		rad = 0 /* sqrt of a negative is NaN */
	}
	var alpha = sw * 0.5 * float32(math.Sqrt(float64(rad)))
	var sqA = float32(math.Sqrt(float64(A)))

	var b0 = A * ((A + 1.0) + (A-1.0)*cw + 2.0*sqA*alpha)
	var b1 = -2.0 * A * ((A - 1.0) + (A+1.0)*cw)
	var b2 = A * ((A + 1.0) + (A-1.0)*cw - 2.0*sqA*alpha)
	var a0 = (A + 1.0) - (A-1.0)*cw + 2.0*sqA*alpha
	var a1 = 2.0 * ((A - 1.0) - (A+1.0)*cw)
	var a2 = (A + 1.0) - (A-1.0)*cw - 2.0*sqA*alpha

	q.b0 = b0 / a0
	q.b1 = b1 / a0
	q.b2 = b2 / a0
	q.a1 = a1 / a0
	q.a2 = a2 / a0
	q.reset()
}
