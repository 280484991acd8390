package malamute

/*------------------------------------------------------------------
 *
 * Purpose:	Soft-knee dynamics compressor.
 *
 * Description: Classic feed-forward design: peak envelope follower
 *		with separate attack/release coefficients, static gain
 *		curve in dB with a quadratic knee, fixed makeup gain.
 *		The hard output limiter lives in the chain, not here.
 *
 *------------------------------------------------------------------*/

import (
	"math"
)

type compressor_t struct {
	env          float32
	a_att, a_rel float32
	thr_db       float32
	ratio        float32
	makeup_lin   float32
	knee_db      float32
}

/*------------------------------------------------------------------
 *
 * Name:	gain_db
 *
 * Purpose:	Static curve: gain to apply (dB, <= 0 before makeup)
 *		for a given input level in dB.
 *
 * Description: Below the knee, unity.  Above it, the usual ratio
 *		line.  Inside the knee the gain follows a quadratic
 *		from 0 at the lower edge to the ratio line's value at
 *		the upper edge, so the curve has no corner.
 *
 *------------------------------------------------------------------*/

func (c *compressor_t) gain_db(in_db float32) float32 {
	var thr = c.thr_db
	var r = c.ratio

	if c.knee_db <= 0 {
		if in_db <= thr {
			return 0
		}
		var out_db = thr + (in_db-thr)/r
		return out_db - in_db
	}

	var k = c.knee_db
	var x0 = thr - k*0.5
	var x1 = thr + k*0.5

	if in_db <= x0 {
		return 0
	}
	if in_db >= x1 {
		var out_db = thr + (in_db-thr)/r
		return out_db - in_db
	}

	var t = (in_db - x0) / (x1 - x0)
	var out1 = thr + (x1-thr)/r
	var g1 = out1 - x1
	return g1 * t * t
}

func (c *compressor_t) process(x float32) float32 {
	var ax = x
	if ax < 0 {
		ax = -ax
	}
	if ax > c.env {
		c.env = c.a_att*c.env + (1.0-c.a_att)*ax
	} else {
		c.env = c.a_rel*c.env + (1.0-c.a_rel)*ax
	}

	var env = c.env
	if env < 1e-8 {
		env = 1e-8
	}
	var in_db = 20.0 * float32(math.Log10(float64(env)))

	var g_db = c.gain_db(in_db)
	var g_lin = float32(math.Pow(10, float64(g_db)/20.0)) * c.makeup_lin

	return x * g_lin
}

/*------------------------------------------------------------------
 *
 * Name:	reconfig
 *
 * Purpose:	Recompute time constants and static curve parameters
 *		from a sanitized config.  Resets the envelope.
 *
 *------------------------------------------------------------------*/

func (c *compressor_t) reconfig(fs float32, cfg *audio_cfg_t) {
	c.env = 0

	var att_s = cfg.CompAttackMs * 0.001
	var rel_s = cfg.CompReleaseMs * 0.001
	if att_s < 1e-4 {
		att_s = 1e-4
	}
	if rel_s < 1e-4 {
		rel_s = 1e-4
	}
	c.a_att = float32(math.Exp(-1.0 / float64(att_s*fs)))
	c.a_rel = float32(math.Exp(-1.0 / float64(rel_s*fs)))

	c.thr_db = cfg.CompThrDb
	c.ratio = cfg.CompRatio
	if c.ratio < 1.0 {
		c.ratio = 1.0
	}
	c.makeup_lin = float32(math.Pow(10, float64(cfg.CompMakeupDb)/20.0))
	c.knee_db = cfg.CompKneeDb
	if c.knee_db < 0 {
		c.knee_db = 0
	}
}
