package pcm

import (
	"encoding/binary"
	"fmt"
)

const wavHeaderSize = 44

// EncodeWAV wraps raw s16le samples in a minimal PCM WAV container.
func EncodeWAV(data []byte, sampleRate, channels int) []byte {
	const bitsPerSample = 16
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	out := make([]byte, wavHeaderSize+len(data))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(wavHeaderSize+len(data)-8))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16) // PCM format chunk size
	binary.LittleEndian.PutUint16(out[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(data)))
	copy(out[wavHeaderSize:], data)
	return out
}

// DecodeWAV extracts s16le samples, sample rate and channel count from a PCM
// WAV container. Compressed or non-16-bit files are rejected.
func DecodeWAV(b []byte) (data []byte, sampleRate, channels int, err error) {
	if len(b) < wavHeaderSize || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return nil, 0, 0, fmt.Errorf("not a RIFF/WAVE stream")
	}

	// Walk chunks; fmt must precede data.
	var haveFmt bool
	pos := 12
	for pos+8 <= len(b) {
		id := string(b[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(b[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(b) {
			size = len(b) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, 0, fmt.Errorf("short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(b[body : body+2])
			channels = int(binary.LittleEndian.Uint16(b[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(b[body+4 : body+8]))
			bits := binary.LittleEndian.Uint16(b[body+14 : body+16])
			if format != 1 || bits != 16 {
				return nil, 0, 0, fmt.Errorf("unsupported wav format %d/%d-bit", format, bits)
			}
			if sampleRate <= 0 || channels <= 0 {
				return nil, 0, 0, fmt.Errorf("unsupported wav format: %dHz/%d channels", sampleRate, channels)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, 0, 0, fmt.Errorf("data chunk before fmt")
			}
			data = make([]byte, size)
			copy(data, b[body:body+size])
			return data, sampleRate, channels, nil
		}
		pos = body + size
		if size%2 == 1 {
			pos++ // chunks are word-aligned
		}
	}
	return nil, 0, 0, fmt.Errorf("no data chunk")
}

// DownmixToMono averages interleaved s16le channels down to one.
func DownmixToMono(data []byte, channels int) []byte {
	if channels <= 1 {
		out := make([]byte, len(data))
		copy(out, data)
		return out
	}
	frames := len(data) / (BytesPerSample * channels)
	out := make([]byte, frames*BytesPerSample)
	for f := 0; f < frames; f++ {
		var sum int
		for c := 0; c < channels; c++ {
			sum += int(Sample(data, f*channels+c))
		}
		PutSample(out, f, int16(sum/channels))
	}
	return out
}
