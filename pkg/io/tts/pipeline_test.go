package tts

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/xpanvictor/voxa/pkg/Logger"
	"github.com/xpanvictor/voxa/pkg/io/pcm"
)

const baseRate = 22050

// fakeSynth serves a fixed sine tone as WAV, counting calls.
type fakeSynth struct {
	calls   int
	samples int
	fail    error
	raw     []byte // overrides the tone when set
	ct      string
}

func (f *fakeSynth) Synthesize(_ context.Context, text, _ string) ([]byte, string, error) {
	f.calls++
	if f.fail != nil {
		return nil, "", f.fail
	}
	if f.raw != nil {
		return f.raw, f.ct, nil
	}
	data := make([]byte, f.samples*2)
	for i := 0; i < f.samples; i++ {
		v := int16(6000 * math.Sin(2*math.Pi*440*float64(i)/baseRate))
		pcm.PutSample(data, i, v)
	}
	return pcm.EncodeWAV(data, baseRate, 1), "audio/wav", nil
}

func newTestPipeline(svc Synthesizer) *Pipeline {
	return NewPipeline(svc, Logger.New(true))
}

func TestSynthesizeUnityFactorsKeepsBaseAudio(t *testing.T) {
	svc := &fakeSynth{samples: baseRate} // 1s of tone
	p := newTestPipeline(svc)

	res, err := p.Synthesize(context.Background(), Request{Text: "Hello", Speed: 1.0, Volume: 1.0})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got := len(res.PCM); got != baseRate*2 {
		t.Errorf("pcm length = %d bytes, want %d (no speed change)", got, baseRate*2)
	}
	if res.SampleRate != baseRate {
		t.Errorf("sample rate = %d, want %d", res.SampleRate, baseRate)
	}
	if res.Channels != 1 {
		t.Errorf("channels = %d, want 1", res.Channels)
	}
}

func TestSynthesizeEmptyTextFailsBeforeService(t *testing.T) {
	svc := &fakeSynth{samples: baseRate}
	p := newTestPipeline(svc)

	if _, err := p.Synthesize(context.Background(), Request{Text: "   "}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
	if svc.calls != 0 {
		t.Errorf("service was contacted %d times for invalid input", svc.calls)
	}
}

func TestSynthesizeSpeedShortensOutput(t *testing.T) {
	svc := &fakeSynth{samples: baseRate}
	p := newTestPipeline(svc)

	res, err := p.Synthesize(context.Background(), Request{Text: "fast", Speed: 2.0, Volume: 1.0})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	want := baseRate // half the samples, times 2 bytes
	if got := len(res.PCM); got < want-64 || got > want+64 {
		t.Errorf("pcm length at speed 2.0 = %d bytes, want ~%d", got, want)
	}
	// output stays labeled at the base rate
	if res.SampleRate != baseRate {
		t.Errorf("sample rate = %d, want %d", res.SampleRate, baseRate)
	}
}

func TestSynthesizeClampsOutOfRangeFactors(t *testing.T) {
	svc := &fakeSynth{samples: baseRate}
	p := newTestPipeline(svc)

	// speed 10 clamps to SpeedMax
	res, err := p.Synthesize(context.Background(), Request{Text: "x", Speed: 10, Volume: 50})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	want := int(float64(baseRate*2) / SpeedMax)
	if got := len(res.PCM); got < want-64 || got > want+64 {
		t.Errorf("pcm length at clamped speed = %d bytes, want ~%d", got, want)
	}
}

func TestSynthesizeServiceFailurePropagates(t *testing.T) {
	svc := &fakeSynth{fail: ErrServiceUnavailable}
	p := newTestPipeline(svc)

	if _, err := p.Synthesize(context.Background(), Request{Text: "x"}); !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("err = %v, want ErrServiceUnavailable", err)
	}
}

func TestSynthesizeUndecodableAudioIsEncodingFailure(t *testing.T) {
	svc := &fakeSynth{raw: []byte("RIFFgarbage-not-a-wave-file"), ct: "audio/wav"}
	p := newTestPipeline(svc)

	if _, err := p.Synthesize(context.Background(), Request{Text: "x"}); !errors.Is(err, ErrEncodingFailure) {
		t.Errorf("err = %v, want ErrEncodingFailure", err)
	}
}

func TestValidateClampsAndDefaults(t *testing.T) {
	cases := []struct {
		name                 string
		in                   Request
		wantSpeed, wantVol   float64
	}{
		{"defaults", Request{Text: "a"}, 1.0, 1.0},
		{"below range", Request{Text: "a", Speed: 0.1, Volume: 0.01}, SpeedMin, VolumeMin},
		{"above range", Request{Text: "a", Speed: 9, Volume: 9}, SpeedMax, VolumeMax},
		{"in range", Request{Text: "a", Speed: 1.5, Volume: 0.8}, 1.5, 0.8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.in
			if err := req.Validate(); err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if req.Speed != tc.wantSpeed || req.Volume != tc.wantVol {
				t.Errorf("got speed=%v volume=%v, want %v/%v", req.Speed, req.Volume, tc.wantSpeed, tc.wantVol)
			}
		})
	}
}

func TestResultExportWAVRoundTrips(t *testing.T) {
	svc := &fakeSynth{samples: baseRate / 2}
	p := newTestPipeline(svc)

	res, err := p.Synthesize(context.Background(), Request{Text: "export me"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.wav")
	if err := res.Export(path); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Path != path {
		t.Errorf("result path = %q, want %q", res.Path, path)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	data, rate, channels, err := pcm.DecodeWAV(b)
	if err != nil {
		t.Fatalf("exported file does not decode: %v", err)
	}
	if rate != res.SampleRate || channels != 1 || len(data) != len(res.PCM) {
		t.Errorf("export mismatch: rate=%d channels=%d len=%d", rate, channels, len(data))
	}
}
