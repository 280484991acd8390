package malamute

/*------------------------------------------------------------------
 *
 * Purpose:	Host audio input via PortAudio.
 *
 * Description: Opens the capture device at its native rate, stereo
 *		int16.  The stream callback does nothing but push
 *		frames into the ring buffer: no allocation, no locks,
 *		no logging.  Frames that don't fit are dropped and the
 *		drop counter is the only trace.
 *
 *		The resampler deals with whatever rate the device runs
 *		at; we just report it.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

type audio_in_t struct {
	stream *portaudio.Stream
	rb     *audio_ring_t

	host_rate atomic.Uint32
	connected atomic.Bool
	drops     atomic.Uint32
}

/*------------------------------------------------------------------
 *
 * Name:	audio_open
 *
 * Purpose:	Initialize PortAudio and start capturing.
 *
 * Inputs:	device - substring of the desired device name, or ""
 *			for the system default input.
 *
 *------------------------------------------------------------------*/

func audio_open(device string, rb *audio_ring_t) (*audio_in_t, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}

	var dev *portaudio.DeviceInfo
	var err error

	if device == "" {
		dev, err = portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("default input device: %w", err)
		}
	} else {
		var devices []*portaudio.DeviceInfo
		devices, err = portaudio.Devices()
		if err != nil {
			return nil, fmt.Errorf("enumerate devices: %w", err)
		}
		for _, d := range devices {
			if d.MaxInputChannels >= 1 && strings.Contains(d.Name, device) {
				dev = d
				break
			}
		}
		if dev == nil {
			return nil, fmt.Errorf("no input device matching %q", device)
		}
	}

	var ain = &audio_in_t{rb: rb}

	var channels = 2
	if dev.MaxInputChannels < 2 {
		channels = 1
	}

	var params = portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = channels
	params.SampleRate = dev.DefaultSampleRate

	ain.host_rate.Store(uint32(params.SampleRate))

	var callback func(in []int16)
	if channels == 2 {
		callback = func(in []int16) {
			for i := 0; i+1 < len(in); i += 2 {
				if !ain.rb.push(stereo16_t{l: in[i], r: in[i+1]}) {
					ain.drops.Add(1)
				}
			}
			ain.connected.Store(true)
		}
	} else {
		callback = func(in []int16) {
			for _, s := range in {
				if !ain.rb.push(stereo16_t{l: s, r: s}) {
					ain.drops.Add(1)
				}
			}
			ain.connected.Store(true)
		}
	}

	ain.stream, err = portaudio.OpenStream(params, callback)
	if err != nil {
		return nil, fmt.Errorf("open stream on %q: %w", dev.Name, err)
	}

	if err := ain.stream.Start(); err != nil {
		return nil, fmt.Errorf("start stream on %q: %w", dev.Name, err)
	}

	applog.Info("audio input",
		"device", dev.Name,
		"rate", params.SampleRate,
		"channels", channels)

	return ain, nil
}

func (ain *audio_in_t) rate() uint32       { return ain.host_rate.Load() }
func (ain *audio_in_t) is_connected() bool { return ain.connected.Load() }
func (ain *audio_in_t) drop_count() uint32 { return ain.drops.Load() }

func (ain *audio_in_t) close() {
	if ain.stream != nil {
		ain.stream.Stop()
		ain.stream.Close()
	}
	portaudio.Terminate()
}
