package malamute

/*------------------------------------------------------------------
 *
 * Purpose:	SSB synthesis and quantization to radio commands.
 *
 * Description: The trick that makes SSB possible on a PLL-only chip:
 *		form the analytic signal with a Hilbert pair, then split
 *		it into envelope and instantaneous frequency.  The
 *		frequency rides on the PLL as an offset from the carrier;
 *		the envelope rides on the integer dBm power grid.
 *
 *		Neither output is fine enough by itself, so each gets a
 *		first-order noise-shaping accumulator: the quantization
 *		error carries over sample to sample and forces the
 *		long-run average onto the exact target.  Below a small
 *		envelope threshold even the bottom power level is too
 *		loud, and the same accumulator idea gates the transmitter
 *		on and off to synthesize fractional duty.
 *
 *------------------------------------------------------------------*/

import (
	"math"
)

type sample_cmd_t struct {
	freq_steps int32
	p_dbm      int8
	tx_on      bool
}

type ssb_synth_t struct {
	hilb *hilbert_t

	theta_prev float32

	f_acc  float32 /* frequency step fraction carry */
	p_acc  float32 /* power dBm fraction carry */
	tx_acc float32 /* duty fraction carry */

	/* Fixed I/Q correction, from config. */
	cphi, sphi float32
	iq_gain    float32
}

func ssb_synth_new() *ssb_synth_t {
	var s = &ssb_synth_t{
		hilb:    hilbert_new(),
		cphi:    1.0,
		iq_gain: 1.0,
	}
	return s
}

func (s *ssb_synth_t) configure(cfg *audio_cfg_t) {
	var phi = float64(cfg.IqPhaseCorrDeg) * math.Pi / 180.0
	s.cphi = float32(math.Cos(phi))
	s.sphi = float32(math.Sin(phi))
	s.iq_gain = cfg.IqGainCorr
}

// reset zeroes the delay line, the phase memory and all three
// noise-shaping accumulators.  One step, per the silence policy.
func (s *ssb_synth_t) reset() {
	s.hilb.reset()
	s.theta_prev = 0
	s.f_acc = 0
	s.p_acc = 0
	s.tx_acc = 0
}

func duty_from_a(a float32) float32 {
	if a <= 0 {
		return 0
	}
	var r = a / GATE_A_REF
	if r >= 1.0 {
		return 1.0
	}
	return r
}

/*------------------------------------------------------------------
 *
 * Name:	process
 *
 * Purpose:	Turn one processed audio sample into one radio command.
 *
 * Inputs:	x - audio sample after the voice chain, roughly -1..1.
 *		base_steps - carrier frequency in PLL steps, sampled at
 *			the block boundary.
 *		cfg - sanitized config snapshot for amp_gain / amp_min_a.
 *		pwr_max - runtime power ceiling in dBm.
 *
 * Returns:	The command the timing loop will apply at this sample's
 *		slot: absolute frequency steps, power level, tx on/off.
 *
 *------------------------------------------------------------------*/

func (s *ssb_synth_t) process(x float32, base_steps int32, cfg *audio_cfg_t, pwr_max int32) sample_cmd_t {
	var i_raw, q_raw = s.hilb.process(x)

	var iq = i_raw
	var qq = q_raw * s.iq_gain

	var i2 = iq*s.cphi - qq*s.sphi
	var q2 = iq*s.sphi + qq*s.cphi

	var a = float32(math.Sqrt(float64(i2*i2 + q2*q2)))
	var theta = float32(math.Atan2(float64(q2), float64(i2)))

	var dtheta = theta - s.theta_prev
	if dtheta > math.Pi {
		dtheta -= 2.0 * math.Pi
	}
	if dtheta < -math.Pi {
		dtheta += 2.0 * math.Pi
	}
	s.theta_prev = theta

	var f_off = dtheta * WAV_SAMPLE_RATE / (2.0 * math.Pi)
	if f_off > F_OFF_LIMIT_HZ {
		f_off = F_OFF_LIMIT_HZ
	}
	if f_off < -F_OFF_LIMIT_HZ {
		f_off = -F_OFF_LIMIT_HZ
	}

	/* Frequency: emit the floor now, carry the fraction. */

	var want_steps = f_off / PLL_STEP_HZ
	var nf = int32(math.Floor(float64(want_steps)))
	var ffrac = want_steps - float32(nf)

	s.f_acc += ffrac
	var f_chosen = nf
	if s.f_acc >= 1.0 {
		f_chosen = nf + 1
		s.f_acc -= 1.0
	}

	var cmd = sample_cmd_t{
		freq_steps: base_steps + f_chosen,
	}

	/* Power, or duty gating when the envelope is below GATE_A_REF. */

	var duty = duty_from_a(a)

	if duty < 1.0 {
		cmd.p_dbm = PWR_MIN_DBM
		s.tx_acc += duty
		if s.tx_acc >= 1.0 {
			cmd.tx_on = true
			s.tx_acc -= 1.0
		}
		return cmd
	}

	cmd.tx_on = true

	var aeff = a * cfg.AmpGain
	if aeff < cfg.AmpMinA {
		aeff = cfg.AmpMinA
	}

	var p_des = float32(pwr_max) + 20.0*float32(math.Log10(float64(aeff)))
	if p_des > float32(pwr_max) {
		p_des = float32(pwr_max)
	}
	if p_des < PWR_MIN_DBM {
		p_des = PWR_MIN_DBM
	}

	var p_low = int32(math.Floor(float64(p_des)))
	var p_high = p_low + 1

	if p_low < PWR_MIN_DBM {
		p_low = PWR_MIN_DBM
	}
	if p_high > pwr_max {
		p_high = pwr_max
	}

	var frac = p_des - float32(p_low)
	if frac < 0 {
		frac = 0
	}
	if frac > 1.0 {
		frac = 1.0
	}

	s.p_acc += frac
	var p_chosen = p_low
	if s.p_acc >= 1.0 && p_high != p_low {
		p_chosen = p_high
		s.p_acc -= 1.0
	}

	cmd.p_dbm = int8(p_chosen)
	return cmd
}
