// Package pcm holds the sample-level math shared by the capture and synthesis
// paths. All buffers are little-endian signed 16-bit mono unless a channel
// count says otherwise.
package pcm

import (
	"math"
)

const (
	// BytesPerSample for s16le audio.
	BytesPerSample = 2

	// levelDivisor maps raw RMS onto the 0-100 meter scale.
	levelDivisor = 300
)

// Sample reads the s16le sample at index i.
func Sample(data []byte, i int) int16 {
	return int16(data[2*i]) | int16(data[2*i+1])<<8
}

// PutSample writes the s16le sample at index i.
func PutSample(data []byte, i int, v int16) {
	data[2*i] = byte(v)
	data[2*i+1] = byte(v >> 8)
}

// RMS computes the root-mean-square magnitude of an s16le buffer.
// An empty or odd-length buffer yields 0.
func RMS(data []byte) float64 {
	n := len(data) / BytesPerSample
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := float64(Sample(data, i))
		sum += s * s
	}
	return math.Sqrt(sum / float64(n))
}

// Level reduces an s16le buffer to a 0-100 loudness reading, saturating at 100.
func Level(data []byte) int {
	level := int(RMS(data) / levelDivisor)
	if level > 100 {
		return 100
	}
	return level
}

// GainDB converts a linear volume factor to decibels. The factor is clamped
// to [0.1, 2.0] before conversion, so GainDB(1.0) == 0 and the result grows
// monotonically inside the clamp range.
func GainDB(volumeFactor float64) float64 {
	if volumeFactor < 0.1 {
		volumeFactor = 0.1
	}
	if volumeFactor > 2.0 {
		volumeFactor = 2.0
	}
	return 20 * math.Log10(volumeFactor)
}

// ApplyGain scales every sample by the given decibel gain, saturating at the
// s16 format limits instead of wrapping. The input buffer is not modified.
func ApplyGain(data []byte, db float64) []byte {
	if db == 0 {
		out := make([]byte, len(data))
		copy(out, data)
		return out
	}
	scale := math.Pow(10, db/20)
	n := len(data) / BytesPerSample
	out := make([]byte, n*BytesPerSample)
	for i := 0; i < n; i++ {
		v := float64(Sample(data, i)) * scale
		if v > math.MaxInt16 {
			v = math.MaxInt16
		}
		if v < math.MinInt16 {
			v = math.MinInt16
		}
		PutSample(out, i, int16(v))
	}
	return out
}

// ApplyLinearVolume scales samples by a linear factor clamped to [0, 1].
// Used by the playback sink, which takes a fractional output volume.
func ApplyLinearVolume(data []byte, volume float64) []byte {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	n := len(data) / BytesPerSample
	out := make([]byte, n*BytesPerSample)
	for i := 0; i < n; i++ {
		PutSample(out, i, int16(float64(Sample(data, i))*volume))
	}
	return out
}

// Resample converts s16le mono audio from srcRate to dstRate by linear
// interpolation. Equal rates return a copy.
func Resample(data []byte, srcRate, dstRate int) []byte {
	n := len(data) / BytesPerSample
	if srcRate == dstRate || n == 0 || srcRate <= 0 || dstRate <= 0 {
		out := make([]byte, n*BytesPerSample)
		copy(out, data[:n*BytesPerSample])
		return out
	}
	ratio := float64(srcRate) / float64(dstRate)
	outN := int(math.Round(float64(n) / ratio))
	if outN < 1 {
		outN = 1
	}
	out := make([]byte, outN*BytesPerSample)
	for i := 0; i < outN; i++ {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= n-1 {
			PutSample(out, i, Sample(data, n-1))
			continue
		}
		frac := pos - float64(j)
		a := float64(Sample(data, j))
		b := float64(Sample(data, j+1))
		PutSample(out, i, int16(a+(b-a)*frac))
	}
	return out
}

// SpeedChange alters playback speed (and pitch with it) by relabeling the
// buffer's rate to round(rate*factor) and resampling back to the original
// rate, so the returned buffer still plays at the caller's rate. Non-positive
// factors are treated as 1.0; factor 1.0 is an identity copy.
func SpeedChange(data []byte, rate int, factor float64) []byte {
	if factor <= 0 || factor == 1.0 {
		out := make([]byte, len(data))
		copy(out, data)
		return out
	}
	relabeled := int(math.Round(float64(rate) * factor))
	if relabeled < 1 {
		relabeled = 1
	}
	return Resample(data, relabeled, rate)
}
