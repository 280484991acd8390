package malamute

/*------------------------------------------------------------------
 *
 * Purpose:	Runtime voice-chain configuration and hardware config.
 *
 * Description: The voice-chain config is mutated by the console and
 *		read by the producer.  Publication is an atomic pointer
 *		swap of an immutable snapshot; the producer compares the
 *		pointer once per block and reconfigures the chain only
 *		when it changed.  Sanitizing happens on the reader side
 *		so a half-typed console session can never put the chain
 *		into an unstable state.
 *
 *		The hardware config (device paths, pins) is read once at
 *		startup, optionally from a YAML file.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"math"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

const AUDIO_BP_MAX_STAGES = 10

type audio_cfg_t struct {
	EnableBandpass bool `yaml:"enable_bandpass"`
	EnableEq       bool `yaml:"enable_eq"`
	EnableComp     bool `yaml:"enable_comp"`

	BpLoHz   float32 `yaml:"bp_lo_hz"`
	BpHiHz   float32 `yaml:"bp_hi_hz"`
	BpStages int     `yaml:"bp_stages"` /* 1-10, each stage = 12 dB/octave */

	EqLowHz  float32 `yaml:"eq_low_hz"`
	EqLowDb  float32 `yaml:"eq_low_db"`
	EqHighHz float32 `yaml:"eq_high_hz"`
	EqHighDb float32 `yaml:"eq_high_db"`
	EqSlope  float32 `yaml:"eq_slope"` /* 0.5=gentle, 1.0=standard, 2.0=steep */

	CompThrDb     float32 `yaml:"comp_thr_db"`
	CompRatio     float32 `yaml:"comp_ratio"`
	CompAttackMs  float32 `yaml:"comp_attack_ms"`
	CompReleaseMs float32 `yaml:"comp_release_ms"`
	CompMakeupDb  float32 `yaml:"comp_makeup_db"`
	CompKneeDb    float32 `yaml:"comp_knee_db"`
	CompOutLimit  float32 `yaml:"comp_out_limit"`

	AmpGain float32 `yaml:"amp_gain"`
	AmpMinA float32 `yaml:"amp_min_a"`

	IqGainCorr     float32 `yaml:"iq_gain_corr"`
	IqPhaseCorrDeg float32 `yaml:"iq_phase_corr_deg"`
}

func default_audio_cfg() audio_cfg_t {
	return audio_cfg_t{
		EnableBandpass: true,
		EnableEq:       true,
		EnableComp:     true,

		BpLoHz:   50.0,
		BpHiHz:   2900.0,
		BpStages: 10,

		EqLowHz:  180.0,
		EqLowDb:  0.0,
		EqHighHz: 2380.0,
		EqHighDb: 24.0,
		EqSlope:  2.0,

		CompThrDb:     -2.5,
		CompRatio:     14.0,
		CompAttackMs:  161.3,
		CompReleaseMs: 1595.0,
		CompMakeupDb:  1.0,
		CompKneeDb:    1.0,
		CompOutLimit:  0.976,

		AmpGain: 2.28,
		AmpMinA: 0.000002,

		IqGainCorr:     1.0,
		IqPhaseCorrDeg: 0.0,
	}
}

/*------------------------------------------------------------------
 *
 * Name:	cfg_sanitize
 *
 * Purpose:	Clamp a config into the range the chain can run with.
 *		Clamps, never rejects.
 *
 *------------------------------------------------------------------*/

func cfg_sanitize(c *audio_cfg_t, fs float32) {
	if c.BpLoHz < 50.0 {
		c.BpLoHz = 50.0
	}
	var max_hi = fs * 0.45
	if c.BpHiHz > max_hi {
		c.BpHiHz = max_hi
	}
	if c.BpHiHz <= c.BpLoHz+50.0 {
		c.BpHiHz = c.BpLoHz + 50.0
	}

	if c.EqLowHz < 50.0 {
		c.EqLowHz = 50.0
	}
	if c.EqLowHz > fs*0.45 {
		c.EqLowHz = fs * 0.45
	}

	if c.EqHighHz < 50.0 {
		c.EqHighHz = 50.0
	}
	if c.EqHighHz > fs*0.45 {
		c.EqHighHz = fs * 0.45
	}

	if c.EqSlope < 0.3 {
		c.EqSlope = 0.3
	}
	if c.EqSlope > 2.0 {
		c.EqSlope = 2.0
	}

	/*
	 * A steep slope with a hot shelf gain drives the RBJ alpha
	 * radicand (A+1/A)(1/S-1)+2 negative, which NaNs every shelf
	 * coefficient.  Cap the slope for the hotter of the two shelves
	 * so the radicand stays at least RBJ_RADICAND_MIN.
	 */
	var shelf_db = c.EqLowDb
	if shelf_db < 0 {
		shelf_db = -shelf_db
	}
	var hi_db = c.EqHighDb
	if hi_db < 0 {
		hi_db = -hi_db
	}
	if hi_db > shelf_db {
		shelf_db = hi_db
	}
	if shelf_db > 0 {
		var A = math.Pow(10, float64(shelf_db)/40.0)
		var k = A + 1.0/A
		var s_max = float32(k / (k - 2.0 + RBJ_RADICAND_MIN))
		if c.EqSlope > s_max {
			c.EqSlope = s_max
		}
	}

	if c.CompRatio < 1.0 {
		c.CompRatio = 1.0
	}
	if c.CompAttackMs < 0.1 {
		c.CompAttackMs = 0.1
	}
	if c.CompReleaseMs < 1.0 {
		c.CompReleaseMs = 1.0
	}

	if c.CompOutLimit < 0.05 {
		c.CompOutLimit = 0.05
	}
	if c.CompOutLimit > 0.999 {
		c.CompOutLimit = 0.999
	}

	if c.AmpGain < 0.01 {
		c.AmpGain = 0.01
	}
	if c.AmpMinA < 1e-9 {
		c.AmpMinA = 1e-9
	}

	if c.IqGainCorr <= 0 {
		c.IqGainCorr = 1.0
	}

	if c.BpStages < 1 {
		c.BpStages = 1
	}
	if c.BpStages > AUDIO_BP_MAX_STAGES {
		c.BpStages = AUDIO_BP_MAX_STAGES
	}
}

/*
 * Published config.  Writers build a fresh snapshot and swap the
 * pointer; readers compare pointers to notice a change.  Snapshots
 * are never mutated after publication.
 */

var g_cfg atomic.Pointer[audio_cfg_t]

func init() {
	var c = default_audio_cfg()
	g_cfg.Store(&c)
}

func cfg_snapshot() *audio_cfg_t {
	return g_cfg.Load()
}

// cfg_commit publishes a modified copy.  mutate receives a private
// copy of the current snapshot; it is free to scribble on it.
func cfg_commit(mutate func(*audio_cfg_t)) {
	var c = *g_cfg.Load()
	mutate(&c)
	g_cfg.Store(&c)
}

/*------------------------------------------------------------------
 *
 * Purpose:	Hardware description: device paths and GPIO offsets.
 *
 * Description: Defaults match the reference board wiring.  A YAML
 *		file can override any of it; the audio section of the
 *		same file overrides the compiled-in voice defaults.
 *
 *------------------------------------------------------------------*/

type hardware_cfg_t struct {
	SpiDevice  string `yaml:"spi_device"`
	SpiSpeedHz uint32 `yaml:"spi_speed_hz"`
	GpioChip   string `yaml:"gpiochip"`

	PinRxEn   int `yaml:"pin_rx_en"`
	PinTxEn   int `yaml:"pin_tx_en"`
	PinReset  int `yaml:"pin_reset"`
	PinBusy   int `yaml:"pin_busy"`
	PinTcxoEn int `yaml:"pin_tcxo_en"`
	PinLed    int `yaml:"pin_led"`

	UseTcxo bool `yaml:"use_tcxo"`
}

func default_hardware_cfg() hardware_cfg_t {
	return hardware_cfg_t{
		SpiDevice:  "/dev/spidev0.0",
		SpiSpeedHz: 18000000,
		GpioChip:   "gpiochip0",
		PinRxEn:    14,
		PinTxEn:    15,
		PinReset:   20,
		PinBusy:    21,
		PinTcxoEn:  22,
		PinLed:     25,
		UseTcxo:    true,
	}
}

type file_cfg_t struct {
	Hardware hardware_cfg_t `yaml:"hardware"`
	Audio    audio_cfg_t    `yaml:"audio"`
}

/*------------------------------------------------------------------
 *
 * Name:	load_config_file
 *
 * Purpose:	Read the YAML config file, apply the audio section as
 *		the new published defaults, return the hardware section.
 *
 *------------------------------------------------------------------*/

func load_config_file(path string) (hardware_cfg_t, error) {
	var fc = file_cfg_t{
		Hardware: default_hardware_cfg(),
		Audio:    default_audio_cfg(),
	}

	if path == "" {
		return fc.Hardware, nil
	}

	var data, err = os.ReadFile(path)
	if err != nil {
		return fc.Hardware, fmt.Errorf("config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc.Hardware, fmt.Errorf("config file %s: %w", path, err)
	}

	g_cfg.Store(&fc.Audio)

	applog.Info("loaded config file", "path", path)
	return fc.Hardware, nil
}
