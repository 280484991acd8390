package malamute

// Process-wide constants - probably belongs elsewhere

import (
	"fmt"
	"runtime"
)

/*
 * Fixed processing rate for the voice path.
 * Everything downstream of the resampler runs at this rate, and the
 * radio timing loop consumes exactly one command per sample period.
 */

const WAV_SAMPLE_RATE = 8000

const SAMPLE_PERIOD_US = 1000000 / WAV_SAMPLE_RATE /* 125 us at 8 kHz */

/*
 * Command pipeline geometry.
 * One block is a few hundred samples (32 ms); eight blocks proved enough
 * to ride out host audio scheduling hiccups without audible underruns.
 */

const BLOCK_SAMPLES = 256
const NUM_BLOCKS = 8

/*
 * Host audio ring buffer capacity in stereo frames.
 * Must be a power of two; the indices wrap by masking.
 */

const AUDIO_RB_FRAMES = 8192

/*
 * Hilbert transformer.  Odd tap count; the group delay through the
 * filter is (taps-1)/2 samples and the in-phase leg is taken from the
 * center of the same delay line so I and Q stay aligned.
 */

const HILBERT_TAPS = 247
const HILBERT_GROUP_DELAY = (HILBERT_TAPS - 1) / 2

/*
 * SX1280 power grid in dBm.  The chip accepts integer levels only;
 * anything between two levels is approximated by dithering.
 */

const PWR_MAX_DBM = 13
const PWR_MIN_DBM = -18

/* Limit on instantaneous frequency deviation, Hz. */

const F_OFF_LIMIT_HZ = 3500.0

/*
 * Silence handling.  Consecutive samples below SILENCE_EPSILON for
 * SILENCE_SECONDS cause a one-shot reset of all filter and RF state.
 */

const SILENCE_SECONDS = 2
const SILENCE_EPSILON = 1e-5

/*
 * Envelope threshold below which fractional power dithering gives way
 * to transmit on/off duty gating at minimum power.
 */

const GATE_A_REF = 0.01

/* Underrun diagnostic LED pulse length, ms. */

const UNDERRUN_LED_PULSE_MS = 20

/* Upper bound accepted for the timing jitter setting, us. */

const TIMING_JITTER_MAX_US = 30

// Can't be "assert" because of conflicts with stretchr/testify/assert, but otherwise, it's compatible enough
func Assert(t bool) {
	if !t {
		_, file, line, _ := runtime.Caller(1)
		panic(fmt.Sprintf("Assertion failed at %s:%d", file, line))
	}
}
