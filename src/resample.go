package malamute

/*------------------------------------------------------------------
 *
 * Purpose:	Host-rate stereo to 8 kHz mono resampler.
 *
 * Description: The host sound card and our 8 kHz processing rate are
 *		driven by different clocks, so a fixed ratio would slowly
 *		drain or flood the ring buffer.  The step size is nudged
 *		toward whatever keeps the buffer half full, with heavy
 *		smoothing so the correction never becomes an audible
 *		pitch wobble.
 *
 *		Phase is a Q16 fixed-point accumulator.  Interpolation is
 *		cubic Hermite over four frames, which is noticeably
 *		cleaner than linear for voice.
 *
 *------------------------------------------------------------------*/

type resampler_t struct {
	rb *audio_ring_t

	src_rate        uint32
	base_step_q16   uint32
	smooth_step_q16 uint32
	phase_q16       uint32

	sm1, s0, s1, s2 stereo16_t
	primed          bool
}

func resampler_new(rb *audio_ring_t) *resampler_t {
	Assert(rb != nil)
	return &resampler_t{rb: rb}
}

// reseed forgets all rate, phase and frame-history state so the next
// get_mono call primes from scratch.  get_mono calls it on a host
// rate change; everything starts from scratch anyway on first use.
func (rs *resampler_t) reseed() {
	rs.src_rate = 0
	rs.base_step_q16 = 0
	rs.smooth_step_q16 = 0
	rs.phase_q16 = 0
	rs.sm1 = stereo16_t{}
	rs.s0 = stereo16_t{}
	rs.s1 = stereo16_t{}
	rs.s2 = stereo16_t{}
	rs.primed = false
}

func clamp16(x int32) int16 {
	if x > 32767 {
		return 32767
	}
	if x < -32768 {
		return -32768
	}
	return int16(x)
}

/*------------------------------------------------------------------
 *
 * Name:	get_mono
 *
 * Purpose:	Produce the next 8 kHz mono sample from the ring.
 *
 * Inputs:	host_rate - current host sample rate in Hz as reported
 *			by the audio transport.  A change reseeds the
 *			whole resampler, frame history included.
 *
 * Description: When the ring runs dry the last frame is held, so the
 *		caller always gets a sample on time.  Dry spells long
 *		enough to matter show up as silence and are handled by
 *		the silence policy downstream.
 *
 *------------------------------------------------------------------*/

func (rs *resampler_t) get_mono(host_rate uint32) int16 {
	var sr = host_rate
	if sr == 0 {
		sr = 48000
	}

	if rs.src_rate != 0 && sr != rs.src_rate {
		rs.reseed()
	}

	if rs.base_step_q16 == 0 {
		rs.src_rate = sr
		rs.base_step_q16 = uint32((uint64(sr) << 16) / WAV_SAMPLE_RATE)
		rs.smooth_step_q16 = rs.base_step_q16
	}

	/* Proportional correction toward a half-full ring. */

	var fill = rs.rb.fill()
	const target_fill = AUDIO_RB_FRAMES / 2

	var target_step = rs.base_step_q16
	if fill > target_fill {
		var excess = fill - target_fill
		target_step = rs.base_step_q16 + (rs.base_step_q16*excess)/(AUDIO_RB_FRAMES*10)
	} else if fill < target_fill {
		var deficit = target_fill - fill
		target_step = rs.base_step_q16 - (rs.base_step_q16*deficit)/(AUDIO_RB_FRAMES*10)
	}

	/* Move only 1/256 of the way to the target each sample. */

	if rs.smooth_step_q16 < target_step {
		rs.smooth_step_q16 += ((target_step - rs.smooth_step_q16) >> 8) + 1
		if rs.smooth_step_q16 > target_step {
			rs.smooth_step_q16 = target_step
		}
	} else if rs.smooth_step_q16 > target_step {
		rs.smooth_step_q16 -= ((rs.smooth_step_q16 - target_step) >> 8) + 1
		if rs.smooth_step_q16 < target_step {
			rs.smooth_step_q16 = target_step
		}
	}

	if !rs.primed {
		rs.sm1, _ = rs.rb.pop()
		rs.s0, _ = rs.rb.pop()
		rs.s1, _ = rs.rb.pop()
		rs.s2, _ = rs.rb.pop()
		rs.phase_q16 = 0
		rs.primed = true
	}

	rs.phase_q16 += rs.smooth_step_q16
	for rs.phase_q16 >= 1<<16 {
		rs.phase_q16 -= 1 << 16
		rs.sm1 = rs.s0
		rs.s0 = rs.s1
		rs.s1 = rs.s2
		var next, ok = rs.rb.pop()
		if ok {
			rs.s2 = next
		} else {
			rs.s2 = rs.s1 /* hold last value when dry */
		}
	}

	/* Cubic Hermite between s0 and s1. */

	var t = float32(rs.phase_q16) / 65536.0
	return clamp16(int32(hermite_mono(rs.sm1, rs.s0, rs.s1, rs.s2, t)))
}

// hermite_mono interpolates the mono mix at t in [0,1) between s0 and
// s1 with Catmull-Rom tangents.  Adjacent frames can differ by more
// than an int16 holds, so widen before subtracting.
func hermite_mono(sm1, s0, s1, s2 stereo16_t, t float32) float32 {
	var t2 = t * t
	var t3 = t2 * t

	var h00 = 2*t3 - 3*t2 + 1
	var h10 = t3 - 2*t2 + t
	var h01 = -2*t3 + 3*t2
	var h11 = t3 - t2

	var m0_l = (float32(s1.l) - float32(sm1.l)) * 0.5
	var m1_l = (float32(s2.l) - float32(s0.l)) * 0.5
	var l = h00*float32(s0.l) + h10*m0_l + h01*float32(s1.l) + h11*m1_l

	var m0_r = (float32(s1.r) - float32(sm1.r)) * 0.5
	var m1_r = (float32(s2.r) - float32(s0.r)) * 0.5
	var r = h00*float32(s0.r) + h10*m0_r + h01*float32(s1.r) + h11*m1_r

	return (l + r) * 0.5
}
