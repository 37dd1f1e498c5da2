package fetcher

import (
	"bytes"
	"encoding/json"
	"errors"

	caption "github.com/lincaiyong/youtube-transcript"
)

// Entry is a caption entry with times in milliseconds.
type Entry struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Offset   float64 `json:"offset"`
}

// Normalize converts snippets to entries one to one, keeping order.
func Normalize(snippets []caption.Snippet) []Entry {
	entries := make([]Entry, len(snippets))
	for i, s := range snippets {
		entries[i] = Entry{
			Text:     s.Text,
			Duration: s.Duration * 1000,
			Offset:   s.Start * 1000,
		}
	}
	return entries
}

// Envelope is the single JSON object printed per invocation.
type Envelope struct {
	Success    bool
	Transcript []Entry
	Error      string
}

// Succeeded wraps the normalized transcript.
func Succeeded(t *caption.Transcript) Envelope {
	var snippets []caption.Snippet
	if t != nil {
		snippets = t.Snippets
	}
	return Envelope{Success: true, Transcript: Normalize(snippets)}
}

// Failed wraps err as a failure envelope.
func Failed(err error) Envelope {
	if err == nil {
		err = errors.New("unknown error")
	}
	return Envelope{Error: wrap(err).Msg}
}

type successJSON struct {
	Success    bool    `json:"success"`
	Transcript []Entry `json:"transcript"`
}

type failureJSON struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// MarshalJSON emits exactly one of the two envelope shapes. A successful
// envelope always carries a transcript array, possibly empty.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if !e.Success {
		return marshal(failureJSON{Error: e.Error})
	}
	entries := e.Transcript
	if entries == nil {
		entries = []Entry{}
	}
	return marshal(successJSON{Success: true, Transcript: entries})
}

// marshal encodes v without escaping <, > and & in caption text.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
