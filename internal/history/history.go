// Package history keeps the rolling log of recognition and synthesis
// activity, newest first, and renders the transcript export.
package history

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// DefaultMax matches the rolling window shown to the user.
const DefaultMax = 10

type Kind string

const (
	KindSTT Kind = "STT"
	KindTTS Kind = "TTS"
)

type Entry struct {
	At       time.Time `json:"at"`
	Kind     Kind      `json:"kind"`
	Language string    `json:"language"`
	Text     string    `json:"text"`
}

// String renders the entry the way the export and the UI list show it.
func (e Entry) String() string {
	return fmt.Sprintf("[%s] %s [%s]: %s", e.At.Format("15:04:05"), e.Kind, e.Language, e.Text)
}

// Log is a bounded, newest-first activity log. Safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	max     int
	entries []Entry // index 0 is newest
}

func New(max int) *Log {
	if max <= 0 {
		max = DefaultMax
	}
	return &Log{max: max}
}

// Add prepends an entry, evicting the oldest past the bound.
func (l *Log) Add(kind Kind, language, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append([]Entry{{At: time.Now(), Kind: kind, Language: language, Text: text}}, l.entries...)
	if len(l.entries) > l.max {
		l.entries = l.entries[:l.max]
	}
}

// Entries returns a newest-first copy.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Transcript joins the recognized texts, oldest first, for the export's
// speech-to-text section.
func (l *Log) Transcript(kind Kind) string {
	entries := l.Entries()
	var lines []string
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Kind == kind {
			lines = append(lines, entries[i].Text)
		}
	}
	return strings.Join(lines, "\n")
}

// ExportTXT writes the sectioned text export: current recognition and
// synthesis texts first, then the rolling history.
func (l *Log) ExportTXT(w io.Writer, sttText, ttsText string) error {
	var b strings.Builder
	b.WriteString("=== Speech-to-Text ===\n")
	b.WriteString(strings.TrimSpace(sttText) + "\n\n")
	b.WriteString("=== Text-to-Speech ===\n")
	b.WriteString(strings.TrimSpace(ttsText) + "\n\n")
	b.WriteString("=== History ===\n")
	for _, e := range l.Entries() {
		b.WriteString(e.String() + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
