package device

import (
	"github.com/gordonklaus/portaudio"
	"github.com/xpanvictor/voxa/pkg/Logger"
)

// Catalog enumerates capture devices able to open a mono 16-bit stream.
type Catalog struct {
	logger *Logger.Logger
}

func NewCatalog(logger *Logger.Logger) *Catalog {
	return &Catalog{logger: logger}
}

// ListInputDevices queries the host audio subsystem once and returns every
// device with at least one input channel that passes a mono/s16 capability
// probe. Probe failures exclude the device silently; if the subsystem itself
// is unavailable the result is simply empty.
func (c *Catalog) ListInputDevices() []Device {
	if err := portaudio.Initialize(); err != nil {
		c.logger.Warnf("audio subsystem unavailable: %v", err)
		return []Device{}
	}
	defer portaudio.Terminate()

	infos, err := portaudio.Devices()
	if err != nil {
		c.logger.Warnf("device enumeration failed: %v", err)
		return []Device{}
	}

	devices := make([]Device, 0, len(infos))
	for idx, info := range infos {
		if info.MaxInputChannels <= 0 {
			continue
		}
		params := monoInputParams(info, info.DefaultSampleRate)
		if err := portaudio.IsFormatSupported(params, make([]int16, FramesPerBuffer)); err != nil {
			c.logger.Debugf("device %d (%s) failed capability probe: %v", idx, info.Name, err)
			continue
		}
		devices = append(devices, Device{
			Index:             idx,
			Name:              info.Name,
			DefaultSampleRate: int(info.DefaultSampleRate),
			MaxInputChannels:  info.MaxInputChannels,
		})
	}
	return devices
}

func monoInputParams(info *portaudio.DeviceInfo, rate float64) portaudio.StreamParameters {
	return portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: 1,
			Latency:  info.DefaultLowInputLatency,
		},
		SampleRate:      rate,
		FramesPerBuffer: FramesPerBuffer,
	}
}
