package tts

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/xpanvictor/voxa/pkg/io/pcm"
)

// wavToMP3 shells out to ffmpeg over pipes; no temp files.
func wavToMP3(wavBytes []byte) ([]byte, error) {
	cmd := exec.Command("ffmpeg", "-hide_banner", "-loglevel", "error",
		"-f", "wav",
		"-i", "pipe:0",
		"-f", "mp3",
		"pipe:1",
	)

	var out, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(wavBytes)
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: mp3 encode: %v (%s)", ErrEncodingFailure, err, stderr.String())
	}
	return out.Bytes(), nil
}

// compressedToPCM decodes a non-WAV container to s16le mono via ffmpeg.
func compressedToPCM(audio []byte) ([]byte, int, error) {
	cmd := exec.Command("ffmpeg", "-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-f", "wav",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"pipe:1",
	)

	var out, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(audio)
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, 0, fmt.Errorf("%w: decode: %v (%s)", ErrEncodingFailure, err, stderr.String())
	}
	data, rate, channels, err := pcm.DecodeWAV(out.Bytes())
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrEncodingFailure, err)
	}
	if channels > 1 {
		data = pcm.DownmixToMono(data, channels)
	}
	return data, rate, nil
}

// decodeAudio turns service output into s16le mono samples. WAV is handled
// natively; everything else goes through ffmpeg.
func decodeAudio(audio []byte, contentType string) ([]byte, int, error) {
	ct := strings.ToLower(contentType)
	isWAV := strings.Contains(ct, "wav") ||
		(len(audio) >= 4 && bytes.HasPrefix(audio, []byte("RIFF")))
	if isWAV {
		data, rate, channels, err := pcm.DecodeWAV(audio)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrEncodingFailure, err)
		}
		if channels > 1 {
			data = pcm.DownmixToMono(data, channels)
		}
		return data, rate, nil
	}
	return compressedToPCM(audio)
}
