package malamute

/*------------------------------------------------------------------
 *
 * Purpose:	Real-time radio apply loop.
 *
 * Description: Drains command blocks one sample at a time at the
 *		sample period and applies each command to the chip.
 *		Only the fields that changed since the previous sample
 *		are written: at speech-band rates most consecutive
 *		commands differ in one field at most, and a skipped SPI
 *		transaction is time in the bank for the deadline.
 *
 *		The loop is pinned to its OS thread and spins to its
 *		deadlines.  Sleeping is not an option at 125 us.
 *
 *		Optional deadline jitter spreads the spectral lines the
 *		strictly periodic SPI traffic would otherwise produce.
 *		A 16-bit Galois LFSR is plenty of randomness for that.
 *
 *------------------------------------------------------------------*/

import (
	"runtime"
	"sync/atomic"
	"time"
)

func lfsr_next(state *uint16) uint16 {
	var lsb = *state & 1
	*state >>= 1
	if lsb != 0 {
		*state ^= 0xB400 /* taps: 16,14,13,11 */
	}
	return *state
}

type radio_loop_t struct {
	trx  transceiver_t
	pipe *cmd_pipeline_t

	stop atomic.Bool /* tests only; never set in normal operation */
}

/*------------------------------------------------------------------
 *
 * Name:	run
 *
 * Purpose:	The consumer goroutine body.  Never returns.
 *
 * Description: State tracking for minimal-diff writes starts with
 *		impossible values so the first sample writes all three
 *		fields.  TX_EN is latched on once, at the first valid
 *		block; from then on the chip's TX/standby mode does the
 *		keying and the PA enable stays up.
 *
 *		On underrun: count it, pulse the LED, hold RF state for
 *		one sample period, try again.  Holding beats writing
 *		junk; the producer usually catches up within a block.
 *
 *------------------------------------------------------------------*/

func (rl *radio_loop_t) run() {
	runtime.LockOSThread()

	for !rl.pipe.is_started() {
		time.Sleep(time.Millisecond)
	}

	var last_steps int32 = 0x7FFFFFFF
	var last_p_dbm int32 = 9999
	var last_tx_on = false
	var tx_en_activated = false

	var lfsr_state uint16 = 0xACE1

	var last_und uint32 = 0
	var led_on = false
	var led_off_time = time.Now()

	const sample_period = SAMPLE_PERIOD_US * time.Microsecond

	for !rl.stop.Load() {
		/* Console CW test owns the bus while active. */
		if rf_cw_test_mode() {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		var blk = rl.pipe.consume_block()
		if blk == nil {
			rl.pipe.note_underrun()

			var und = rl.pipe.underrun_count()
			if und != last_und {
				last_und = und
				rl.trx.set_led(true)
				led_on = true
				led_off_time = time.Now().Add(UNDERRUN_LED_PULSE_MS * time.Millisecond)
			}

			var t0 = time.Now()
			for time.Since(t0) < sample_period {
			}
			continue
		}

		if !tx_en_activated {
			rl.trx.set_tx_enable(true)
			tx_en_activated = true
			time.Sleep(time.Millisecond) /* PA settle */
		}

		var next = time.Now()

		for i := 0; i < BLOCK_SAMPLES; i++ {
			var c = blk[i]

			var jit_max = rf_jitter_us()
			if jit_max > 0 {
				var r = lfsr_next(&lfsr_state)
				var jitter = (int32(r&0x1F) - 16) * int32(jit_max) / 16
				next = next.Add(sample_period + time.Duration(jitter)*time.Microsecond)
			} else {
				next = next.Add(sample_period)
			}

			if c.tx_on != last_tx_on {
				if c.tx_on {
					rl.trx.start_tx_continuous_wave()
				} else {
					rl.trx.set_standby()
				}
				last_tx_on = c.tx_on
			}

			if c.freq_steps != last_steps {
				rl.trx.set_rf_frequency_steps(uint32(c.freq_steps))
				last_steps = c.freq_steps
			}

			if int32(c.p_dbm) != last_p_dbm {
				rl.trx.set_tx_params_dbm(int32(c.p_dbm))
				last_p_dbm = int32(c.p_dbm)
			}

			for time.Now().Before(next) {
			}

			if led_on && !led_off_time.After(time.Now()) {
				rl.trx.set_led(false)
				led_on = false
			}
		}

		rl.pipe.release_block()
	}
}
