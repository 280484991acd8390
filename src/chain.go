package malamute

/*------------------------------------------------------------------
 *
 * Purpose:	The voice processing chain: EQ, compressor, bandpass.
 *
 * Description: Runs entirely inside the producer, one sample at a
 *		time at 8 kHz.  Order matters: shelving EQ shapes the
 *		spectrum first, the compressor levels what remains, and
 *		the bandpass cascade confines the result to the SSB
 *		channel so the compressor's makeup gain can't splatter.
 *
 *------------------------------------------------------------------*/

type audio_chain_t struct {
	eq_low  biquad_t
	eq_high biquad_t

	comp compressor_t

	bp_hpf [AUDIO_BP_MAX_STAGES]biquad_t
	bp_lpf [AUDIO_BP_MAX_STAGES]biquad_t
}

/*------------------------------------------------------------------
 *
 * Name:	configure
 *
 * Purpose:	Recompute every coefficient set from a sanitized
 *		config.  Resets all filter state; only called on
 *		block boundaries when the config actually changed.
 *
 *------------------------------------------------------------------*/

func (ch *audio_chain_t) configure(cfg *audio_cfg_t, fs float32) {
	for i := 0; i < AUDIO_BP_MAX_STAGES; i++ {
		biquad_init_highpass_bw2(&ch.bp_hpf[i], cfg.BpLoHz, fs)
		biquad_init_lowpass_bw2(&ch.bp_lpf[i], cfg.BpHiHz, fs)
	}

	biquad_init_low_shelf(&ch.eq_low, cfg.EqLowHz, fs, cfg.EqLowDb, cfg.EqSlope)
	biquad_init_high_shelf(&ch.eq_high, cfg.EqHighHz, fs, cfg.EqHighDb, cfg.EqSlope)

	ch.comp.reconfig(fs, cfg)
}

// reset zeroes all filter and envelope state without touching the
// coefficients.  Used by the silence policy.
func (ch *audio_chain_t) reset() {
	for i := 0; i < AUDIO_BP_MAX_STAGES; i++ {
		ch.bp_hpf[i].reset()
		ch.bp_lpf[i].reset()
	}
	ch.eq_low.reset()
	ch.eq_high.reset()
	ch.comp.env = 0
}

func (ch *audio_chain_t) process(x float32, cfg *audio_cfg_t) float32 {
	if cfg.EnableEq {
		x = ch.eq_low.process(x)
		x = ch.eq_high.process(x)
	}

	if cfg.EnableComp {
		x = ch.comp.process(x)
		if x > cfg.CompOutLimit {
			x = cfg.CompOutLimit
		}
		if x < -cfg.CompOutLimit {
			x = -cfg.CompOutLimit
		}
	}

	if cfg.EnableBandpass {
		for i := 0; i < cfg.BpStages; i++ {
			x = ch.bp_hpf[i].process(x)
		}
		for i := 0; i < cfg.BpStages; i++ {
			x = ch.bp_lpf[i].process(x)
		}
	}

	return x
}
