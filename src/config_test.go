package malamute

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCfgSanitize_ClampsBandEdges(t *testing.T) {
	var c = default_audio_cfg()

	c.BpLoHz = 10.0
	c.BpHiHz = 0.9 * WAV_SAMPLE_RATE
	cfg_sanitize(&c, WAV_SAMPLE_RATE)

	assert.Equal(t, float32(50.0), c.BpLoHz)
	assert.Equal(t, float32(0.45*WAV_SAMPLE_RATE), c.BpHiHz)
}

func TestCfgSanitize_KeepsBandOpen(t *testing.T) {
	var c = default_audio_cfg()

	c.BpLoHz = 2000.0
	c.BpHiHz = 2000.0
	cfg_sanitize(&c, WAV_SAMPLE_RATE)

	assert.Greater(t, c.BpHiHz, c.BpLoHz, "sanitize must never close the passband")
	assert.Equal(t, c.BpLoHz+50.0, c.BpHiHz)
}

func TestCfgSanitize_ClampsStages(t *testing.T) {
	var c = default_audio_cfg()

	c.BpStages = 0
	cfg_sanitize(&c, WAV_SAMPLE_RATE)
	assert.Equal(t, 1, c.BpStages)

	c.BpStages = 99
	cfg_sanitize(&c, WAV_SAMPLE_RATE)
	assert.Equal(t, AUDIO_BP_MAX_STAGES, c.BpStages)
}

func TestCfgSanitize_CompressorAndAmpFloors(t *testing.T) {
	var c = default_audio_cfg()

	c.CompRatio = 0.2
	c.CompAttackMs = 0
	c.CompReleaseMs = 0
	c.CompOutLimit = 2.0
	c.AmpGain = 0
	c.AmpMinA = 0
	cfg_sanitize(&c, WAV_SAMPLE_RATE)

	assert.Equal(t, float32(1.0), c.CompRatio)
	assert.Equal(t, float32(0.1), c.CompAttackMs)
	assert.Equal(t, float32(1.0), c.CompReleaseMs)
	assert.Equal(t, float32(0.999), c.CompOutLimit)
	assert.Equal(t, float32(0.01), c.AmpGain)
	assert.Equal(t, float32(1e-9), c.AmpMinA)
}

func TestCfgSanitize_ShelfSlopeKeepsRadicandPositive(t *testing.T) {
	// The shipped defaults ask for a 24 dB high shelf at slope 2.0,
	// a pair whose RBJ alpha radicand is negative.  Sanitize must cap
	// the slope so the shelf coefficients stay real.
	var c = default_audio_cfg()
	cfg_sanitize(&c, WAV_SAMPLE_RATE)

	assert.Less(t, c.EqSlope, float32(2.0))

	var A = math.Pow(10, float64(c.EqHighDb)/40.0)
	var rad = (A+1.0/A)*(1.0/float64(c.EqSlope)-1.0) + 2.0
	assert.GreaterOrEqual(t, rad, float64(RBJ_RADICAND_MIN)*0.99)
}

func TestCfgSanitize_Deterministic(t *testing.T) {
	var a = default_audio_cfg()
	var b = default_audio_cfg()
	a.BpHiHz = 99999
	b.BpHiHz = 99999

	cfg_sanitize(&a, WAV_SAMPLE_RATE)
	cfg_sanitize(&b, WAV_SAMPLE_RATE)

	assert.Equal(t, a, b)
}

func TestCfgCommit_SwapsPointer(t *testing.T) {
	var before = cfg_snapshot()

	cfg_commit(func(c *audio_cfg_t) {
		c.BpLoHz = 300.0
	})
	t.Cleanup(func() {
		var d = default_audio_cfg()
		g_cfg.Store(&d)
	})

	var after = cfg_snapshot()
	assert.NotSame(t, before, after, "commit must publish a fresh snapshot")
	assert.Equal(t, float32(300.0), after.BpLoHz)

	// The old snapshot is untouched; readers holding it are safe.
	assert.NotEqual(t, float32(300.0), before.BpLoHz)
}

func TestLoadConfigFile_MissingPathIsDefault(t *testing.T) {
	var hw, err = load_config_file("")
	require.NoError(t, err)
	assert.Equal(t, default_hardware_cfg(), hw)
}

func TestLoadConfigFile_OverridesHardwareAndAudio(t *testing.T) {
	var dir = t.TempDir()
	var path = filepath.Join(dir, "malamute.yaml")

	var yaml = `
hardware:
  spi_device: /dev/spidev1.0
  pin_busy: 7
audio:
  bp_lo_hz: 120
  bp_hi_hz: 2500
  bp_stages: 4
  enable_comp: true
  amp_gain: 2.28
  amp_min_a: 0.000002
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Cleanup(func() {
		var d = default_audio_cfg()
		g_cfg.Store(&d)
	})

	var hw, err = load_config_file(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/spidev1.0", hw.SpiDevice)
	assert.Equal(t, 7, hw.PinBusy)
	// Unlisted hardware keys keep their defaults.
	assert.Equal(t, default_hardware_cfg().PinTxEn, hw.PinTxEn)

	var c = cfg_snapshot()
	assert.Equal(t, float32(120.0), c.BpLoHz)
	assert.Equal(t, 4, c.BpStages)
}

func TestLoadConfigFile_MissingFileErrors(t *testing.T) {
	var _, err = load_config_file("/nonexistent/nope.yaml")
	assert.Error(t, err)
}
