// Package app wires the voice tool together: device catalog, capture
// sessions, segmentation, recognition dispatch, synthesis and playback,
// plus the rolling history behind the export surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xpanvictor/voxa/internal/config"
	"github.com/xpanvictor/voxa/internal/history"
	"github.com/xpanvictor/voxa/pkg/Logger"
	"github.com/xpanvictor/voxa/pkg/io/device"
	"github.com/xpanvictor/voxa/pkg/io/stt"
	"github.com/xpanvictor/voxa/pkg/io/stt/segmenter"
	"github.com/xpanvictor/voxa/pkg/io/stt/whisper"
	"github.com/xpanvictor/voxa/pkg/io/tts"
	"github.com/xpanvictor/voxa/pkg/io/tts/piper"
)

var (
	ErrCaptureActive = errors.New("capture already active")
	ErrCaptureIdle   = errors.New("no active capture")
	ErrNoSuchDevice  = errors.New("no such input device")
	ErrNothingToPlay = errors.New("no synthesized audio yet")
)

// App owns every long-lived dependency and the single capture slot.
type App struct {
	Config     *config.Settings
	Logger     *Logger.Logger
	Catalog    *device.Catalog
	Recognizer stt.Recognizer
	Synthesis  *tts.Pipeline
	Player     *device.Player
	History    *history.Log

	// openSession is swappable so the capture path runs without hardware.
	openSession func(deviceIndex int) (*device.Session, error)

	mu          sync.Mutex
	capture     *captureState
	last        *tts.Result
	watchers    map[int]chan stt.Outcome
	nextWatcher int
}

// captureState bundles everything one capture run owns.
type captureState struct {
	deviceIndex int
	language    string
	session     *device.Session
	engine      *segmenter.Engine
	dispatcher  *stt.Dispatcher
	meter       *device.LevelMeter
	consumed    chan struct{}
}

// New wires the app against the configured recognition and synthesis services.
func New(cfg *config.Settings, logger *Logger.Logger) *App {
	rec := whisper.New(cfg.Voice.STTBaseURL, logger)
	synth := piper.New(cfg.Voice.TTSBaseURL, logger)
	return NewWithServices(cfg, logger, rec, synth)
}

// NewWithServices wires the app with injected service clients.
func NewWithServices(cfg *config.Settings, logger *Logger.Logger, rec stt.Recognizer, synth tts.Synthesizer) *App {
	a := &App{
		Config:     cfg,
		Logger:     logger,
		Catalog:    device.NewCatalog(logger),
		Recognizer: rec,
		Synthesis:  tts.NewPipeline(synth, logger),
		Player:     device.NewPlayer(logger),
		History:    history.New(history.DefaultMax),
		watchers:   map[int]chan stt.Outcome{},
	}
	a.openSession = a.openHardwareSession
	return a
}

// SetSessionOpener swaps the capture source factory, letting callers feed the
// pipeline from something other than a hardware device.
func (a *App) SetSessionOpener(open func(deviceIndex int) (*device.Session, error)) {
	a.openSession = open
}

func (a *App) openHardwareSession(deviceIndex int) (*device.Session, error) {
	devices := a.Catalog.ListInputDevices()
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: no usable input devices", device.ErrDeviceUnavailable)
	}
	chosen := devices[0]
	if deviceIndex >= 0 {
		found := false
		for _, d := range devices {
			if d.Index == deviceIndex {
				chosen, found = d, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: index %d", ErrNoSuchDevice, deviceIndex)
		}
	}
	return device.Open(chosen, a.Logger)
}

// ListDevices enumerates usable capture devices.
func (a *App) ListDevices() []device.Device {
	return a.Catalog.ListInputDevices()
}

// StartCapture opens the device and runs segmentation plus recognition until
// StopCapture. Only one capture can be active; a second start fails without
// touching the device.
func (a *App) StartCapture(deviceIndex int, language string) error {
	a.mu.Lock()
	if a.capture != nil {
		a.mu.Unlock()
		return ErrCaptureActive
	}
	a.mu.Unlock()

	session, err := a.openSession(deviceIndex)
	if err != nil {
		return err
	}

	dispatcher := stt.NewDispatcher(a.Recognizer, 32, a.Logger)
	engine := segmenter.New(segmenter.DefaultConfig(), dispatcher, a.Logger)
	meter := device.NewLevelMeter(session.Subscribe())
	feed := session.Subscribe()

	if err := engine.Start(context.Background(), feed, language); err != nil {
		_ = session.Close()
		dispatcher.Close()
		return err
	}

	c := &captureState{
		deviceIndex: deviceIndex,
		language:    language,
		session:     session,
		engine:      engine,
		dispatcher:  dispatcher,
		meter:       meter,
		consumed:    make(chan struct{}),
	}
	go a.consumeOutcomes(c)

	a.mu.Lock()
	if a.capture != nil {
		// lost the race to another start
		a.mu.Unlock()
		a.teardown(c)
		return ErrCaptureActive
	}
	a.capture = c
	a.mu.Unlock()

	a.Logger.Infof("capture started on device %d (%s)", deviceIndex, language)
	return nil
}

// consumeOutcomes drains recognition results into history and to watchers
// until the dispatcher closes.
func (a *App) consumeOutcomes(c *captureState) {
	defer close(c.consumed)
	for outcome := range c.dispatcher.Outcomes() {
		if outcome.Kind == stt.OutcomeRecognized {
			a.History.Add(history.KindSTT, outcome.Language, outcome.Text)
		}
		a.mu.Lock()
		for _, ch := range a.watchers {
			select {
			case ch <- outcome:
			default:
			}
		}
		a.mu.Unlock()
	}
}

// StopCapture discards any in-progress utterance and returns once the device
// is released. Recognitions already dispatched are not waited on; their
// outcomes still reach watchers when they complete.
func (a *App) StopCapture() error {
	a.mu.Lock()
	c := a.capture
	a.capture = nil
	a.mu.Unlock()
	if c == nil {
		return ErrCaptureIdle
	}
	a.teardown(c)
	a.Logger.Info("capture stopped")
	return nil
}

func (a *App) teardown(c *captureState) {
	c.engine.Stop()
	_ = c.session.Close()
	// Close waits for in-flight recognitions; detach it so the caller gets
	// the device back immediately while late outcomes drain to watchers.
	go func() {
		c.dispatcher.Close()
		<-c.consumed
	}()
}

// CaptureActive reports whether a capture session is running.
func (a *App) CaptureActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.capture != nil
}

// Level samples the live input level, 0..100. Zero when idle.
func (a *App) Level() float64 {
	a.mu.Lock()
	c := a.capture
	a.mu.Unlock()
	if c == nil {
		return 0
	}
	return float64(c.meter.Sample())
}

// WatchOutcomes registers a recognition-outcome feed. The cancel func must be
// called to release it; a watcher that stops draining loses outcomes, never
// blocks capture.
func (a *App) WatchOutcomes() (<-chan stt.Outcome, func()) {
	ch := make(chan stt.Outcome, 16)
	a.mu.Lock()
	id := a.nextWatcher
	a.nextWatcher++
	a.watchers[id] = ch
	a.mu.Unlock()

	cancel := func() {
		a.mu.Lock()
		delete(a.watchers, id)
		a.mu.Unlock()
	}
	return ch, cancel
}

// Prefs returns a snapshot of the persisted preferences.
func (a *App) Prefs() config.Prefs {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Config.Prefs
}

// SetPrefs applies mutate under the app lock and persists the result. All
// preference writes go through here; handlers run on concurrent goroutines.
func (a *App) SetPrefs(mutate func(*config.Prefs)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	mutate(&a.Config.Prefs)
	return a.Config.SavePrefs()
}

// Synthesize runs the synthesis pipeline and records the result as the
// current playable audio.
func (a *App) Synthesize(ctx context.Context, req tts.Request) (*tts.Result, error) {
	res, err := a.Synthesis.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}
	a.History.Add(history.KindTTS, req.Language, req.Text)
	a.mu.Lock()
	a.last = res
	a.mu.Unlock()
	return res, nil
}

// PlayLast plays the most recent synthesis result at the preference volume.
func (a *App) PlayLast() error {
	a.mu.Lock()
	res := a.last
	volume := float64(a.Config.Prefs.Volume) / 100.0
	a.mu.Unlock()
	if res == nil {
		return ErrNothingToPlay
	}
	return a.Player.Play(res.PCM, res.SampleRate, volume)
}

// StopPlayback cancels any playback in progress.
func (a *App) StopPlayback() {
	a.Player.Stop()
}

// ExportAudio writes the most recent synthesis result to path and remembers
// the directory for next time.
func (a *App) ExportAudio(path string) error {
	a.mu.Lock()
	res := a.last
	a.mu.Unlock()
	if res == nil {
		return ErrNothingToPlay
	}
	if err := res.Export(path); err != nil {
		return err
	}
	a.rememberSaveDir(path)
	return nil
}

// ExportTexts writes the sectioned transcript file to path.
func (a *App) ExportTexts(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	defer f.Close()

	recognized := a.History.Transcript(history.KindSTT)
	spoken := a.History.Transcript(history.KindTTS)
	if err := a.History.ExportTXT(f, recognized, spoken); err != nil {
		return err
	}
	a.rememberSaveDir(path)
	return nil
}

func (a *App) rememberSaveDir(path string) {
	err := a.SetPrefs(func(p *config.Prefs) {
		p.LastSaveDir = filepath.Dir(path)
	})
	if err != nil {
		a.Logger.Warnf("failed to persist preferences: %v", err)
	}
}

// Shutdown stops capture and playback. Safe to call repeatedly.
func (a *App) Shutdown() {
	if err := a.StopCapture(); err != nil && !errors.Is(err, ErrCaptureIdle) {
		a.Logger.Warnf("stopping capture on shutdown: %v", err)
	}
	a.Player.Stop()
}
