package malamute

/*------------------------------------------------------------------
 *
 * Purpose:	Transmit producer: audio in, radio commands out.
 *
 * Description: Fills command blocks ahead of the radio loop.  Each
 *		sample goes: resampler -> voice chain -> SSB synth ->
 *		quantizer.  Config and RF parameter changes are picked
 *		up only on block boundaries so one block is always
 *		internally consistent.
 *
 *		Prolonged silence resets every stateful element of the
 *		path.  Filters can hold tiny denormal tails for a long
 *		time, and the noise-shaping accumulators would otherwise
 *		carry stale error into the next transmission.
 *
 *------------------------------------------------------------------*/

import (
	"math"
	"sync/atomic"
)

/*
 * Test tone generator.  Replaces the resampler output for spectral
 * checks with a signal of known shape.  The two-tone case is the
 * classic SSB linearity test.
 */

const TEST_TONE_HZ = 1000.0
const TEST_TONE2_HZ = 1900.0
const TEST_TONE_AMPL = 0.35

type tone_gen_t struct {
	phase1, phase2 float32
	inc1, inc2     float32
	two_tone       bool
}

func tone_gen_new(two_tone bool) *tone_gen_t {
	return &tone_gen_t{
		inc1:     2.0 * math.Pi * TEST_TONE_HZ / WAV_SAMPLE_RATE,
		inc2:     2.0 * math.Pi * TEST_TONE2_HZ / WAV_SAMPLE_RATE,
		two_tone: two_tone,
	}
}

func (tg *tone_gen_t) next() float32 {
	var x float32
	if tg.two_tone {
		x = TEST_TONE_AMPL * (float32(math.Sin(float64(tg.phase1))) + float32(math.Sin(float64(tg.phase2))))
		tg.phase2 += tg.inc2
		if tg.phase2 > 2.0*math.Pi {
			tg.phase2 -= 2.0 * math.Pi
		}
	} else {
		x = TEST_TONE_AMPL * float32(math.Sin(float64(tg.phase1)))
	}
	tg.phase1 += tg.inc1
	if tg.phase1 > 2.0*math.Pi {
		tg.phase1 -= 2.0 * math.Pi
	}
	return x
}

type xmit_t struct {
	pipe *cmd_pipeline_t
	rs   *resampler_t
	ain  *audio_in_t
	tone *tone_gen_t /* nil unless test tone mode */

	chain audio_chain_t
	synth *ssb_synth_t

	cfg_seen *audio_cfg_t /* last published pointer we applied */
	cfg      audio_cfg_t  /* sanitized working copy */

	silence_ctr uint32

	stop atomic.Bool /* tests only; never set in normal operation */
}

func xmit_new(pipe *cmd_pipeline_t, rs *resampler_t, ain *audio_in_t, tone *tone_gen_t) *xmit_t {
	return &xmit_t{
		pipe:  pipe,
		rs:    rs,
		ain:   ain,
		tone:  tone,
		synth: ssb_synth_new(),
	}
}

// apply_cfg_if_changed compares the published snapshot pointer with
// the last one applied.  On change: copy, sanitize, reconfigure the
// chain and synth.  Block boundary only.
func (xm *xmit_t) apply_cfg_if_changed() {
	var cur = cfg_snapshot()
	if cur == xm.cfg_seen {
		return
	}

	xm.cfg = *cur
	cfg_sanitize(&xm.cfg, WAV_SAMPLE_RATE)

	xm.chain.configure(&xm.cfg, WAV_SAMPLE_RATE)
	xm.synth.configure(&xm.cfg)

	xm.cfg_seen = cur
}

func (xm *xmit_t) next_sample() float32 {
	if xm.tone != nil {
		return xm.tone.next()
	}

	var s = xm.rs.get_mono(xm.ain.rate())
	var x = float32(s) / 32768.0

	/* Silence watch: one-shot full reset after the threshold. */

	const silence_samples = WAV_SAMPLE_RATE * SILENCE_SECONDS

	if x < SILENCE_EPSILON && x > -SILENCE_EPSILON {
		if xm.silence_ctr < silence_samples {
			xm.silence_ctr++
		}
	} else {
		xm.silence_ctr = 0
	}

	if xm.silence_ctr == silence_samples {
		xm.synth.reset()
		xm.chain.reset()
		xm.silence_ctr = silence_samples + 1
	}

	return x
}

/*------------------------------------------------------------------
 *
 * Name:	run
 *
 * Purpose:	The producer goroutine body.  Never returns.
 *
 * Description: Pre-fills half the pipeline before releasing the radio
 *		loop, then settles into fill-commit forever.  The block
 *		claim inside produce_block is where this goroutine
 *		blocks when it gets ahead.
 *
 *------------------------------------------------------------------*/

func (xm *xmit_t) run() {
	xm.apply_cfg_if_changed()

	const prebuf_target = NUM_BLOCKS / 2
	var prebuf_count = 0

	for !xm.stop.Load() {
		var blk = xm.pipe.produce_block()

		xm.apply_cfg_if_changed()

		var base_steps = int32(get_base_steps())
		var pwr_max = rf_tx_power_max()

		for n := 0; n < BLOCK_SAMPLES; n++ {
			var x = xm.next_sample()
			x = xm.chain.process(x, &xm.cfg)
			blk[n] = xm.synth.process(x, base_steps, &xm.cfg, pwr_max)
		}

		xm.pipe.commit_block()

		if !xm.pipe.is_started() {
			prebuf_count++
			if prebuf_count >= prebuf_target {
				xm.pipe.signal_start()
			}
		}
	}
}
