package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Main program for "malamute", a live-audio SSB
 *		transmitter for PLL-based 2.4 GHz transceivers.
 *
 *			Host audio capture and adaptive resampling.
 *			Voice processing (EQ / compressor / bandpass).
 *			SSB synthesis via Hilbert analytic signal.
 *			Noise-shaped quantization to the chip's
 *			frequency and power grids.
 *			Microsecond-timed radio apply loop.
 *			Control console on stdin / TCP / serial / pty.
 *			CW beacon fallback when no audio appears.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
)

/*-------------------------------------------------------------------
 *
 * Name:        MalamuteMain
 *
 * Purpose:     Parse the command line, bring up the hardware, start
 *		the producer and radio goroutines, then serve the
 *		console until the process is killed.
 *
 * Description:	Startup order matters and mirrors the board bring-up:
 *		radio first (standby at the base frequency, minimum
 *		power, PA off), then audio; if no audio arrives within
 *		the timeout the box degrades to a CW beacon.
 *
 *--------------------------------------------------------------------*/

func MalamuteMain() {
	var configFile = pflag.StringP("config-file", "c", "", "Configuration file name (YAML).")
	var audioDevice = pflag.StringP("audio-device", "a", "", "Audio input device name substring.  Default input device if empty.")
	var audioTimeout = pflag.Duration("audio-timeout", 10*time.Second, "How long to wait for audio before falling back to the CW beacon.")
	var consolePort = pflag.IntP("console-listen", "l", 0, "TCP port for the control console.  0 to disable.")
	var consoleSerial = pflag.String("console-serial", "", "Serial device for the control console.")
	var enablePseudoTerminal = pflag.BoolP("enable-ptty", "p", false, "Enable pseudo terminal for the control console.")
	var testTone = pflag.Bool("test-tone", false, "Transmit a 1000 Hz test tone instead of live audio.")
	var testTone2 = pflag.Bool("test-tone-2", false, "Transmit a 1000+1900 Hz two-tone test instead of live audio.")
	var timestampFormat = pflag.StringP("timestamp-format", "T", "", "Timestamp format for console event lines (strftime).")
	var debug = pflag.BoolP("debug", "d", false, "Debug logging.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "malamute - live audio SSB transmitter for SX1280\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\nOptions:\n", os.Args[0])
		pflag.PrintDefaults()
	}

	pflag.Parse()

	log_set_debug(*debug)

	if err := log_set_timestamp_format(*timestampFormat); err != nil {
		applog.Fatal("bad timestamp format", "err", err)
	}

	var hw, err = load_config_file(*configFile)
	if err != nil {
		applog.Fatal("config", "err", err)
	}

	var trx *sx1280_t
	trx, err = sx1280_open(&hw)
	if err != nil {
		applog.Fatal("radio bring-up", "err", err)
	}

	var pipe = new(cmd_pipeline_t)
	var rb = new(audio_ring_t)

	var radio = &radio_loop_t{trx: trx, pipe: pipe}
	go radio.run()

	var con = &console_t{trx: trx, pipe: pipe, rb: rb}

	if *consolePort > 0 {
		if err := con.listen_tcp(*consolePort); err != nil {
			applog.Fatal("console", "err", err)
		}
	}
	if *consoleSerial != "" {
		if err := con.serve_serial(*consoleSerial); err != nil {
			applog.Fatal("console", "err", err)
		}
	}
	if *enablePseudoTerminal {
		if err := con.serve_pty(); err != nil {
			applog.Fatal("console", "err", err)
		}
	}

	var tone *tone_gen_t
	var ain *audio_in_t

	if *testTone || *testTone2 {
		tone = tone_gen_new(*testTone2)
		applog.Info("test tone mode", "two_tone", *testTone2)
	} else {
		ain, err = audio_open(*audioDevice, rb)
		if err != nil {
			applog.Error("audio open failed", "err", err)
			beacon_run(trx) /* never returns */
		}
		con.ain = ain

		if !wait_for_audio(ain, *audioTimeout) {
			beacon_run(trx) /* never returns */
		}
		applog.Info("audio flowing, starting transmit path")
	}

	var rs = resampler_new(rb)
	var xm = xmit_new(pipe, rs, ain, tone)
	go xm.run()

	con.serve(os.Stdin, os.Stdout)

	/* stdin closed; keep transmitting until killed. */
	select {}
}
