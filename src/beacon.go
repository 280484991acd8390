package malamute

/*------------------------------------------------------------------
 *
 * Purpose:	No-audio fallback: CW beacon.
 *
 * Description: If nothing ever shows up on the audio input the box is
 *		probably sitting on a mast with a dead cable.  A steady
 *		carrier on a known spot frequency at least tells whoever
 *		is listening that power and RF still work.
 *
 *------------------------------------------------------------------*/

import (
	"time"
)

/*------------------------------------------------------------------
 *
 * Name:	wait_for_audio
 *
 * Purpose:	Block until the audio transport has delivered at least
 *		one frame, or the timeout passes.  Returns true when
 *		audio arrived.
 *
 *------------------------------------------------------------------*/

func wait_for_audio(ain *audio_in_t, timeout time.Duration) bool {
	var deadline = time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if ain.is_connected() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return ain.is_connected()
}

/*------------------------------------------------------------------
 *
 * Name:	beacon_run
 *
 * Purpose:	Key a fixed carrier at the beacon frequency, full
 *		power, forever.  Only a restart gets out of this.
 *
 *------------------------------------------------------------------*/

func beacon_run(trx *sx1280_t) {
	applog.Warn("no audio - starting beacon", "freq", BEACON_FREQ)

	rf_set_center_freq(BEACON_FREQ)
	rf_set_ppm(0)

	trx.set_rf_frequency_steps(get_base_steps())
	trx.set_tx_params_dbm(rf_tx_power_max())
	trx.set_tx_enable(true)
	trx.start_tx_continuous_wave()

	for {
		time.Sleep(100 * time.Millisecond)
	}
}
