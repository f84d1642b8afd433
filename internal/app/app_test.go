package app

import (
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xpanvictor/voxa/internal/config"
	"github.com/xpanvictor/voxa/internal/history"
	"github.com/xpanvictor/voxa/pkg/Logger"
	"github.com/xpanvictor/voxa/pkg/io/audioring"
	"github.com/xpanvictor/voxa/pkg/io/device"
	"github.com/xpanvictor/voxa/pkg/io/pcm"
	"github.com/xpanvictor/voxa/pkg/io/stt"
	"github.com/xpanvictor/voxa/pkg/io/tts"
)

const (
	testRate     = 16000
	frameSamples = 1600 // 100ms
)

func pcmFrame(amplitude int16) audioring.Frame {
	data := make([]byte, frameSamples*2)
	for i := 0; i < frameSamples; i++ {
		v := amplitude
		if i%2 == 1 {
			v = -amplitude
		}
		pcm.PutSample(data, i, v)
	}
	return audioring.Frame{Data: data, Captured: time.Now(), SampleRate: testRate, Channels: 1}
}

// scriptSource replays a frame script paced like a device, then repeats
// silence until closed.
type scriptSource struct {
	script []audioring.Frame
	pos    int

	mu     sync.Mutex
	closed bool
}

func (s *scriptSource) ReadFrame() (audioring.Frame, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return audioring.Frame{}, io.EOF
	}
	time.Sleep(time.Millisecond)
	if s.pos < len(s.script) {
		f := s.script[s.pos]
		s.pos++
		return f, nil
	}
	return pcmFrame(0), nil
}

func (s *scriptSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *scriptSource) Caps() device.Capabilities {
	return device.Capabilities{SampleRate: testRate, Channels: 1}
}

type fakeRecognizer struct {
	text string
}

func (r *fakeRecognizer) Recognize(_ context.Context, _ stt.Utterance) (string, error) {
	return r.text, nil
}

// toneSynth serves a short WAV tone for any text.
type toneSynth struct{}

func (toneSynth) Synthesize(_ context.Context, _, _ string) ([]byte, string, error) {
	const rate = 22050
	data := make([]byte, rate) // 0.25s
	for i := 0; i < rate/2; i++ {
		pcm.PutSample(data, i, int16(5000*math.Sin(2*math.Pi*440*float64(i)/rate)))
	}
	return pcm.EncodeWAV(data, rate, 1), "audio/wav", nil
}

func newTestApp(t *testing.T, script []audioring.Frame) (*App, *scriptSource) {
	return newTestAppWithRecognizer(t, script, &fakeRecognizer{text: "hello world"})
}

func newTestAppWithRecognizer(t *testing.T, script []audioring.Frame, rec stt.Recognizer) (*App, *scriptSource) {
	t.Helper()
	cfg, err := config.LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	logger := Logger.New(true)
	a := NewWithServices(cfg, logger, rec, toneSynth{})
	src := &scriptSource{script: script}
	a.openSession = func(int) (*device.Session, error) {
		return device.NewSession(src, logger), nil
	}
	return a, src
}

func TestCaptureRecognizesUtterance(t *testing.T) {
	var script []audioring.Frame
	for i := 0; i < 5; i++ {
		script = append(script, pcmFrame(0))
	}
	for i := 0; i < 10; i++ { // 1s of speech
		script = append(script, pcmFrame(8000))
	}
	for i := 0; i < 15; i++ { // enough silence to seal
		script = append(script, pcmFrame(0))
	}

	a, _ := newTestApp(t, script)
	outcomes, cancel := a.WatchOutcomes()
	defer cancel()

	if err := a.StartCapture(-1, "en-US"); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	defer a.StopCapture()

	select {
	case o := <-outcomes:
		if o.Kind != stt.OutcomeRecognized || o.Text != "hello world" {
			t.Errorf("outcome = %+v, want recognized %q", o, "hello world")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no recognition outcome arrived")
	}

	entries := a.History.Entries()
	if len(entries) == 0 || entries[0].Kind != history.KindSTT {
		t.Errorf("history entries = %+v, want a recognition entry", entries)
	}
}

func TestStartCaptureTwiceFails(t *testing.T) {
	a, _ := newTestApp(t, nil)
	if err := a.StartCapture(-1, "en-US"); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	defer a.StopCapture()

	if err := a.StartCapture(-1, "en-US"); !errors.Is(err, ErrCaptureActive) {
		t.Errorf("second start err = %v, want ErrCaptureActive", err)
	}
	if !a.CaptureActive() {
		t.Error("capture should still be active")
	}
}

func TestStopCaptureWhenIdleFails(t *testing.T) {
	a, _ := newTestApp(t, nil)
	if err := a.StopCapture(); !errors.Is(err, ErrCaptureIdle) {
		t.Errorf("err = %v, want ErrCaptureIdle", err)
	}
}

func TestStopCaptureReleasesDevice(t *testing.T) {
	a, src := newTestApp(t, nil)
	if err := a.StartCapture(-1, "en-US"); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	if err := a.StopCapture(); err != nil {
		t.Fatalf("StopCapture: %v", err)
	}
	src.mu.Lock()
	closed := src.closed
	src.mu.Unlock()
	if !closed {
		t.Error("stream source not released on stop")
	}
	if a.CaptureActive() {
		t.Error("capture still reported active")
	}
	// slot is free again
	if err := a.StartCapture(-1, "en-US"); err != nil {
		t.Errorf("restart after stop: %v", err)
	}
	a.StopCapture()
}

// gatedRecognizer blocks its first recognition until released.
type gatedRecognizer struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *gatedRecognizer) Recognize(ctx context.Context, _ stt.Utterance) (string, error) {
	r.once.Do(func() { close(r.started) })
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-r.release:
		return "delayed transcript", nil
	}
}

func TestStopCaptureReturnsWhileRecognitionInFlight(t *testing.T) {
	var script []audioring.Frame
	for i := 0; i < 5; i++ {
		script = append(script, pcmFrame(0))
	}
	for i := 0; i < 10; i++ {
		script = append(script, pcmFrame(8000))
	}
	for i := 0; i < 15; i++ {
		script = append(script, pcmFrame(0))
	}

	rec := &gatedRecognizer{started: make(chan struct{}), release: make(chan struct{})}
	a, _ := newTestAppWithRecognizer(t, script, rec)
	outcomes, cancel := a.WatchOutcomes()
	defer cancel()

	if err := a.StartCapture(-1, "en-US"); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	select {
	case <-rec.started:
	case <-time.After(5 * time.Second):
		t.Fatal("recognition never started")
	}

	begin := time.Now()
	if err := a.StopCapture(); err != nil {
		t.Fatalf("StopCapture: %v", err)
	}
	if elapsed := time.Since(begin); elapsed > 2*time.Second {
		t.Errorf("StopCapture took %v while a recognition was in flight", elapsed)
	}

	// the in-flight recognition completes after stop and still reaches watchers
	close(rec.release)
	select {
	case o := <-outcomes:
		if o.Kind != stt.OutcomeRecognized || o.Text != "delayed transcript" {
			t.Errorf("outcome = %s %q, want recognized %q", o.Kind, o.Text, "delayed transcript")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("late outcome never delivered")
	}
}

func TestPrefsAccessorsSafeForConcurrentUse(t *testing.T) {
	a, _ := newTestApp(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = a.SetPrefs(func(p *config.Prefs) { p.Volume = (i*20 + j) % 101 })
				_ = a.Prefs().Volume
			}
		}()
	}
	wg.Wait()

	if v := a.Prefs().Volume; v < 0 || v > 100 {
		t.Errorf("volume = %d, out of range after concurrent updates", v)
	}
}

func TestLevelZeroWhenIdle(t *testing.T) {
	a, _ := newTestApp(t, nil)
	if lvl := a.Level(); lvl != 0 {
		t.Errorf("idle level = %v, want 0", lvl)
	}
}

func TestSynthesizeRecordsHistoryAndExports(t *testing.T) {
	a, _ := newTestApp(t, nil)

	res, err := a.Synthesize(context.Background(), tts.Request{Text: "Hello", Language: "en"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(res.PCM) == 0 {
		t.Fatal("empty synthesis result")
	}

	entries := a.History.Entries()
	if len(entries) != 1 || entries[0].Kind != history.KindTTS || entries[0].Text != "Hello" {
		t.Errorf("history = %+v, want one TTS entry", entries)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "out.wav")
	if err := a.ExportAudio(path); err != nil {
		t.Fatalf("ExportAudio: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("exported file missing: %v", err)
	}
	if got := a.Prefs().LastSaveDir; got != dir {
		t.Errorf("last save dir = %q, want %q", got, dir)
	}
}

func TestExportAudioWithoutSynthesisFails(t *testing.T) {
	a, _ := newTestApp(t, nil)
	err := a.ExportAudio(filepath.Join(t.TempDir(), "out.wav"))
	if !errors.Is(err, ErrNothingToPlay) {
		t.Errorf("err = %v, want ErrNothingToPlay", err)
	}
}

func TestExportTextsWritesSections(t *testing.T) {
	a, _ := newTestApp(t, nil)
	a.History.Add(history.KindSTT, "en-US", "recognized line")
	a.History.Add(history.KindTTS, "en", "spoken line")

	path := filepath.Join(t.TempDir(), "result.txt")
	if err := a.ExportTexts(path); err != nil {
		t.Fatalf("ExportTexts: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(b)
	if !strings.Contains(out, "recognized line") || !strings.Contains(out, "spoken line") {
		t.Errorf("export missing content:\n%s", out)
	}
	if !strings.Contains(out, "=== History ===") {
		t.Errorf("export missing history section:\n%s", out)
	}
}
