// Package whisper talks to a whisper-style HTTP recognition service. The
// service is a black box behind the stt.Recognizer contract; any backend
// accepting a WAV upload and returning a transcript is substitutable.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xpanvictor/voxa/pkg/Logger"
	"github.com/xpanvictor/voxa/pkg/io/pcm"
	"github.com/xpanvictor/voxa/pkg/io/stt"
)

// transcriptionResponse is the service's JSON shape.
type transcriptionResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Client uploads utterance audio to the recognition service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *Logger.Logger
}

func New(baseURL string, logger *Logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Recognize implements stt.Recognizer. Service failures map to the sentinel
// errors the dispatcher folds into outcomes: unreachable or erroring backend
// -> stt.ErrServiceUnavailable, empty transcript -> stt.ErrNoSpeech.
func (c *Client) Recognize(ctx context.Context, utt stt.Utterance) (string, error) {
	if len(utt.PCM) == 0 {
		return "", stt.ErrNoSpeech
	}

	wavData := pcm.EncodeWAV(utt.PCM, int(utt.SampleRate), 1)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio_file", "utterance.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return "", fmt.Errorf("failed to write audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	requestURL := fmt.Sprintf("%s/asr?encode=true&task=transcribe&language=%s&output=json",
		c.baseURL, url.QueryEscape(utt.Language))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", stt.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		c.logger.Errorf("recognition service error (status %d): %s", resp.StatusCode, string(responseBody))
		return "", fmt.Errorf("%w: status %d", stt.ErrServiceUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("recognition service returned status %d: %s", resp.StatusCode, string(responseBody))
	}

	var transcription transcriptionResponse
	if err := json.Unmarshal(responseBody, &transcription); err != nil {
		// some deployments answer with bare text
		if text := strings.TrimSpace(string(responseBody)); text != "" {
			return text, nil
		}
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	text := strings.TrimSpace(transcription.Text)
	if text == "" {
		return "", stt.ErrNoSpeech
	}
	c.logger.Debugf("transcribed %v of audio: %q", utt.Duration(), text)
	return text, nil
}
