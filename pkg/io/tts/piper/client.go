// Package piper talks to a piper-style HTTP synthesis service
// (rhasspy/wyoming-piper: GET /api/text-to-speech streams a WAV body).
package piper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xpanvictor/voxa/pkg/Logger"
	"github.com/xpanvictor/voxa/pkg/io/tts"
)

// Client implements tts.Synthesizer against the piper HTTP surface.
type Client struct {
	BaseURL string        // e.g. "http://tts:5000"
	Voice   string        // default voice, optional
	HTTP    *http.Client  // inject; default if nil
	Timeout time.Duration // per-request timeout

	logger *Logger.Logger
}

func New(baseURL string, logger *Logger.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Timeout: 30 * time.Second,
		logger:  logger,
	}
}

// Synthesize fetches base audio for text. The language selects the voice when
// no explicit voice is configured. Failures reaching or inside the service map
// to tts.ErrServiceUnavailable so the pipeline's taxonomy stays intact.
func (c *Client) Synthesize(ctx context.Context, text, language string) ([]byte, string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, "", tts.ErrInvalidInput
	}

	u, err := url.Parse(c.BaseURL + "/api/text-to-speech")
	if err != nil {
		return nil, "", fmt.Errorf("bad synthesis url: %w", err)
	}
	q := u.Query()
	q.Set("text", text)
	if c.Voice != "" {
		q.Set("voice", c.Voice)
	} else if language != "" {
		q.Set("lang", language)
	}
	u.RawQuery = q.Encode()

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "audio/wav")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", tts.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		c.logger.Errorf("synthesis service status %d: %s", resp.StatusCode, string(b))
		return nil, "", fmt.Errorf("%w: status %d", tts.ErrServiceUnavailable, resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading audio: %v", tts.ErrServiceUnavailable, err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "audio/wav"
	}
	c.logger.Debugf("synthesized %d bytes (%s) in %s", len(audio), ct, time.Since(start))
	return audio, ct, nil
}
