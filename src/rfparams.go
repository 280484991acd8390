package malamute

/*------------------------------------------------------------------
 *
 * Purpose:	Runtime RF parameters shared between the console and
 *		the signal path.
 *
 * Description: Each parameter is an independent atomic: the console
 *		writes, the producer/consumer read.  No parameter needs
 *		to change together with another, so there is no struct
 *		to snapshot.
 *
 *------------------------------------------------------------------*/

import (
	"math"
	"sync/atomic"

	"hz.tools/rf"
)

/*
 * The synthesizer PLL tuning resolution.  Everything the radio is told
 * about frequency is expressed in these steps.
 */

const PLL_STEP_HZ = 52.0e6 / (1 << 18) /* ~198.364 Hz */

var BASE_FREQ rf.Hz = 2400400000 /* 2400.4 MHz */
var BEACON_FREQ rf.Hz = 2400300000

/* ISM band edge limits accepted by the freq command. */

var FREQ_MIN rf.Hz = 2400 * rf.MHz
var FREQ_MAX rf.Hz = 2500 * rf.MHz

const PPM_LIMIT = 100.0

var g_center_freq_hz atomic.Uint64  /* Hz */
var g_ppm_correction atomic.Uint64  /* float64 bits */
var g_jitter_us atomic.Uint32       /* 0 = off */
var g_tx_power_max_dbm atomic.Int32 /* PWR_MIN_DBM .. PWR_MAX_DBM */
var g_cw_test_mode atomic.Bool      /* true = console CW keyed, radio loop parked */

func init() {
	g_center_freq_hz.Store(uint64(BASE_FREQ))
	g_tx_power_max_dbm.Store(PWR_MAX_DBM)
	g_jitter_us.Store(0)
}

func rf_center_freq() rf.Hz         { return rf.Hz(g_center_freq_hz.Load()) }
func rf_set_center_freq(f rf.Hz)    { g_center_freq_hz.Store(uint64(f)) }
func rf_ppm() float64               { return math.Float64frombits(g_ppm_correction.Load()) }
func rf_set_ppm(ppm float64)        { g_ppm_correction.Store(math.Float64bits(ppm)) }
func rf_jitter_us() uint32          { return g_jitter_us.Load() }
func rf_set_jitter_us(us uint32)    { g_jitter_us.Store(us) }
func rf_tx_power_max() int32        { return g_tx_power_max_dbm.Load() }
func rf_set_tx_power_max(dbm int32) { g_tx_power_max_dbm.Store(dbm) }
func rf_cw_test_mode() bool         { return g_cw_test_mode.Load() }
func rf_set_cw_test_mode(on bool)   { g_cw_test_mode.Store(on) }

func hz_to_steps(freq rf.Hz) uint32 {
	return uint32(float64(freq) / PLL_STEP_HZ)
}

// hz_to_steps_with_ppm applies a reference oscillator correction in
// parts per million before quantizing to PLL steps.
func hz_to_steps_with_ppm(freq rf.Hz, ppm float64) uint32 {
	var corrected = float64(freq) * (1.0 + ppm/1000000.0)
	return uint32(corrected / PLL_STEP_HZ)
}

// get_base_steps is what the producer samples once per block: the
// current center frequency, PPM corrected, in PLL steps.
func get_base_steps() uint32 {
	return hz_to_steps_with_ppm(rf_center_freq(), rf_ppm())
}
