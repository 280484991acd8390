package malamute

/*------------------------------------------------------------------
 *
 * Purpose:	Wideband 90 degree phase shifter (Hilbert transformer).
 *
 * Description: FIR approximation of the ideal Hilbert response,
 *		Hamming windowed.  The ideal impulse response is
 *		2/(pi*k) for odd k and zero elsewhere, so with an odd
 *		tap count every other coefficient is zero.
 *
 *		The in-phase output is the input delayed by the filter
 *		group delay, taken from the center of the same circular
 *		buffer, so I and Q come out time aligned.
 *
 *------------------------------------------------------------------*/

import (
	"math"
)

type hilbert_t struct {
	h   [HILBERT_TAPS]float32
	buf [HILBERT_TAPS]float32
	idx int
}

func hilbert_new() *hilbert_t {
	var hb = new(hilbert_t)

	const M = HILBERT_GROUP_DELAY

	for n := 0; n < HILBERT_TAPS; n++ {
		var k = n - M

		var h float32
		if k != 0 && k&1 != 0 {
			h = 2.0 / (float32(math.Pi) * float32(k))
		}

		var w = 0.54 - 0.46*float32(math.Cos(2.0*math.Pi*float64(n)/float64(HILBERT_TAPS-1)))

		hb.h[n] = h * w
	}

	return hb
}

func (hb *hilbert_t) reset() {
	for i := range hb.buf {
		hb.buf[i] = 0
	}
	hb.idx = 0
}

/*------------------------------------------------------------------
 *
 * Name:	process
 *
 * Purpose:	Push one sample, get the delayed in-phase sample and
 *		the quadrature (Hilbert) output.
 *
 *------------------------------------------------------------------*/

func (hb *hilbert_t) process(x float32) (i_delayed float32, q float32) {
	const M = HILBERT_GROUP_DELAY

	hb.buf[hb.idx] = x

	var y float32
	var idx = hb.idx
	for n := 0; n < HILBERT_TAPS; n++ {
		y += hb.h[n] * hb.buf[idx]
		if idx == 0 {
			idx = HILBERT_TAPS - 1
		} else {
			idx--
		}
	}

	var id = (hb.idx + HILBERT_TAPS - M) % HILBERT_TAPS
	i_delayed = hb.buf[id]

	hb.idx++
	if hb.idx >= HILBERT_TAPS {
		hb.idx = 0
	}

	return i_delayed, y
}
