package malamute

/*------------------------------------------------------------------
 *
 * Purpose:	Host audio ring buffer.
 *
 * Description: Fixed-capacity circular buffer of stereo 16-bit frames
 *		between the audio transport callback (producer) and the
 *		resampler (consumer).  Single producer, single consumer,
 *		no locks: each index is written by exactly one side and
 *		read by the other, so atomic loads/stores are all the
 *		ordering we need.
 *
 *		When the buffer is full the newest frame is dropped.
 *		Backpressure by loss, not by blocking - the transport
 *		callback must never stall.
 *
 *------------------------------------------------------------------*/

import (
	"sync/atomic"
)

type stereo16_t struct {
	l, r int16
}

type audio_ring_t struct {
	frames [AUDIO_RB_FRAMES]stereo16_t
	w      atomic.Uint32 /* written only by the producer */
	r      atomic.Uint32 /* written only by the consumer */
}

func audio_rb_next(x uint32) uint32 {
	return (x + 1) & (AUDIO_RB_FRAMES - 1)
}

/*------------------------------------------------------------------
 *
 * Name:	push
 *
 * Purpose:	Add one frame.  Returns false (frame dropped) when the
 *		write index would lap the read index.
 *
 *------------------------------------------------------------------*/

func (rb *audio_ring_t) push(s stereo16_t) bool {
	var w = rb.w.Load()
	var n = audio_rb_next(w)

	if n == rb.r.Load() {
		return false /* full */
	}

	rb.frames[w] = s
	rb.w.Store(n)
	return true
}

/*------------------------------------------------------------------
 *
 * Name:	pop
 *
 * Purpose:	Remove one frame.  Returns false when empty.
 *
 *------------------------------------------------------------------*/

func (rb *audio_ring_t) pop() (stereo16_t, bool) {
	var r = rb.r.Load()

	if r == rb.w.Load() {
		return stereo16_t{}, false /* empty */
	}

	var s = rb.frames[r]
	rb.r.Store(audio_rb_next(r))
	return s, true
}

// fill reports the number of frames currently buffered.
// Either side (or the diagnostics dump) may call this; the answer is
// naturally approximate while the other side is running.
func (rb *audio_ring_t) fill() uint32 {
	var w = rb.w.Load()
	var r = rb.r.Load()

	if w >= r {
		return w - r
	}
	return AUDIO_RB_FRAMES - r + w
}
