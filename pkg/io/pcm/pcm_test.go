package pcm

import (
	"math"
	"testing"
)

func s16Buffer(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		PutSample(out, i, s)
	}
	return out
}

func TestLevelSilence(t *testing.T) {
	frame := make([]byte, 2048)
	if got := Level(frame); got != 0 {
		t.Errorf("Level(silence) = %d, want 0", got)
	}
}

func TestLevelFullScaleSaturates(t *testing.T) {
	// Full-scale square wave: alternating +/- max amplitude.
	samples := make([]int16, 1024)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = math.MaxInt16
		} else {
			samples[i] = math.MinInt16 + 1
		}
	}
	if got := Level(s16Buffer(samples)); got != 100 {
		t.Errorf("Level(full-scale) = %d, want 100", got)
	}
}

func TestGainDBUnityIsZero(t *testing.T) {
	if got := GainDB(1.0); got != 0.0 {
		t.Errorf("GainDB(1.0) = %f, want 0", got)
	}
}

func TestGainDBMonotonic(t *testing.T) {
	prev := GainDB(0.1)
	for v := 0.2; v <= 2.0; v += 0.1 {
		cur := GainDB(v)
		if cur <= prev {
			t.Errorf("GainDB(%f) = %f not greater than previous %f", v, cur, prev)
		}
		prev = cur
	}
}

func TestGainDBClamps(t *testing.T) {
	if GainDB(0.01) != GainDB(0.1) {
		t.Error("GainDB below 0.1 should clamp to GainDB(0.1)")
	}
	if GainDB(5.0) != GainDB(2.0) {
		t.Error("GainDB above 2.0 should clamp to GainDB(2.0)")
	}
}

func TestApplyGainSaturates(t *testing.T) {
	buf := s16Buffer([]int16{30000, -30000, 100})
	out := ApplyGain(buf, 6) // ~2x
	if Sample(out, 0) != math.MaxInt16 {
		t.Errorf("positive clip: got %d, want %d", Sample(out, 0), math.MaxInt16)
	}
	if Sample(out, 1) != math.MinInt16 {
		t.Errorf("negative clip: got %d, want %d", Sample(out, 1), math.MinInt16)
	}
	if v := Sample(out, 2); v < 190 || v > 210 {
		t.Errorf("mid sample scaled to %d, want ~200", v)
	}
}

func TestApplyGainZeroIsCopy(t *testing.T) {
	buf := s16Buffer([]int16{1, -2, 3})
	out := ApplyGain(buf, 0)
	for i := range buf {
		if out[i] != buf[i] {
			t.Fatalf("byte %d changed under 0 dB gain", i)
		}
	}
	out[0] = 0xFF
	if buf[0] == 0xFF {
		t.Error("ApplyGain must not alias the input buffer")
	}
}

func TestResampleLength(t *testing.T) {
	buf := make([]byte, 16000*2) // 1s at 16kHz
	out := Resample(buf, 16000, 8000)
	if got := len(out) / 2; got < 7990 || got > 8010 {
		t.Errorf("downsample length = %d samples, want ~8000", got)
	}
	out = Resample(buf, 16000, 32000)
	if got := len(out) / 2; got < 31990 || got > 32010 {
		t.Errorf("upsample length = %d samples, want ~32000", got)
	}
}

func TestSpeedChangeIdentity(t *testing.T) {
	buf := s16Buffer([]int16{5, 10, 15, 20})
	out := SpeedChange(buf, 22050, 1.0)
	if len(out) != len(buf) {
		t.Fatalf("identity speed change altered length: %d != %d", len(out), len(buf))
	}
	for i := range buf {
		if out[i] != buf[i] {
			t.Fatalf("identity speed change altered byte %d", i)
		}
	}
}

func TestSpeedChangeDuration(t *testing.T) {
	buf := make([]byte, 22050*2) // 1s at 22.05kHz
	fast := SpeedChange(buf, 22050, 2.0)
	if got := len(fast) / 2; got < 11000 || got > 11060 {
		t.Errorf("2x speed: %d samples, want ~11025", got)
	}
	slow := SpeedChange(buf, 22050, 0.5)
	if got := len(slow) / 2; got < 44000 || got > 44200 {
		t.Errorf("0.5x speed: %d samples, want ~44100", got)
	}
}

func TestSpeedChangeRoundTripLength(t *testing.T) {
	// Applying f then 1/f must come back to roughly the original length and
	// the rate label never changes at all (it is the caller's rate).
	buf := make([]byte, 16000*2)
	f := 1.5
	out := SpeedChange(SpeedChange(buf, 16000, f), 16000, 1/f)
	orig := len(buf) / 2
	got := len(out) / 2
	if got < orig-orig/100 || got > orig+orig/100 {
		t.Errorf("round-trip length %d, want within 1%% of %d", got, orig)
	}
}

func TestWAVRoundTrip(t *testing.T) {
	data := s16Buffer([]int16{0, 1000, -1000, 32000})
	wav := EncodeWAV(data, 22050, 1)
	got, rate, channels, err := DecodeWAV(wav)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if rate != 22050 || channels != 1 {
		t.Errorf("decoded rate/channels = %d/%d, want 22050/1", rate, channels)
	}
	if len(got) != len(data) {
		t.Fatalf("decoded %d bytes, want %d", len(got), len(data))
	}
	for i := range data {
		if got[i] != data[i] {
			t.Fatalf("payload mismatch at byte %d", i)
		}
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	if _, _, _, err := DecodeWAV([]byte("definitely not audio data, not even close")); err == nil {
		t.Error("expected error for non-WAV input")
	}
}

func TestDecodeWAVRejectsDegenerateFormat(t *testing.T) {
	data := s16Buffer([]int16{0, 1000, -1000, 32000})
	// a container whose fmt chunk declares no sample rate or no channels is
	// unusable downstream and must not decode
	if _, _, _, err := DecodeWAV(EncodeWAV(data, 0, 1)); err == nil {
		t.Error("expected error for zero sample rate")
	}
	if _, _, _, err := DecodeWAV(EncodeWAV(data, 22050, 0)); err == nil {
		t.Error("expected error for zero channels")
	}
}

func TestDownmixToMono(t *testing.T) {
	stereo := s16Buffer([]int16{100, 200, -100, -200})
	mono := DownmixToMono(stereo, 2)
	if len(mono) != 4 {
		t.Fatalf("mono length = %d bytes, want 4", len(mono))
	}
	if Sample(mono, 0) != 150 || Sample(mono, 1) != -150 {
		t.Errorf("downmix = %d,%d, want 150,-150", Sample(mono, 0), Sample(mono, 1))
	}
}
