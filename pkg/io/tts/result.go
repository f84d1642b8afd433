package tts

import (
	"fmt"
	"os"
	"strings"

	"github.com/xpanvictor/voxa/pkg/io/pcm"
)

// Result owns the post-processed audio buffer. The decoded form feeds the
// playback sink; WAV and MP3 are derived from the same buffer on demand, so
// export and playback are acoustically identical.
type Result struct {
	PCM        []byte // s16le mono
	SampleRate int
	Channels   int
	// Path is set when the result has been exported to storage.
	Path string
}

// WAV returns the result encoded as a PCM WAV container.
func (r *Result) WAV() []byte {
	return pcm.EncodeWAV(r.PCM, r.SampleRate, r.Channels)
}

// MP3 returns the result as MP3, encoded via ffmpeg.
func (r *Result) MP3() ([]byte, error) {
	return wavToMP3(r.WAV())
}

// Export writes the result to path, MP3 for a .mp3 suffix and WAV otherwise.
// Synchronous; encoding problems surface as ErrEncodingFailure and plain I/O
// failures as-is.
func (r *Result) Export(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(strings.ToLower(path), ".mp3") {
		data, err = r.MP3()
		if err != nil {
			return err
		}
	} else {
		data = r.WAV()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	r.Path = path
	return nil
}
