package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	caption "github.com/lincaiyong/youtube-transcript"
)

var defaultLangs = []string{"en", "en-US", "en-GB"}

type stubProvider struct {
	tracks caption.TrackList
	err    error
	calls  int
}

func (p *stubProvider) ListTracks(context.Context, string) (caption.TrackList, error) {
	p.calls++
	return p.tracks, p.err
}

func (p *stubProvider) FetchTrack(_ context.Context, track caption.Track) (*caption.Transcript, error) {
	return &caption.Transcript{Track: track, Snippets: []caption.Snippet{
		{Text: "Hello", Start: 0.5, Duration: 1.2},
		{Text: "World", Start: 1.7, Duration: 0.8},
	}}, nil
}

func invoke(t *testing.T, p *stubProvider, args ...string) (int, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr, p, defaultLangs)
	return code, stdout.String()
}

func TestRunNoArgs(t *testing.T) {
	p := &stubProvider{}
	code, out := invoke(t, p)
	assert.Equal(t, 1, code)
	assert.JSONEq(t, `{"success":false,"error":"No video ID provided"}`, out)
	assert.Zero(t, p.calls)
}

func TestRunSuccess(t *testing.T) {
	p := &stubProvider{tracks: caption.TrackList{{VideoID: "abc123", LanguageCode: "en"}}}
	code, out := invoke(t, p, "abc123")
	assert.Equal(t, 0, code)
	assert.JSONEq(t,
		`{"success": true, "transcript": [{"text":"Hello","duration":1200,"offset":500},{"text":"World","duration":800,"offset":1700}]}`,
		out)
}

func TestRunProviderFailure(t *testing.T) {
	p := &stubProvider{err: &caption.VideoError{VideoID: "abc123", Err: caption.ErrVideoUnavailable}}
	code, out := invoke(t, p, "abc123")
	assert.Equal(t, 1, code)

	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, false, env["success"])
	assert.Contains(t, env["error"], "no longer available")
	assert.NotContains(t, env, "transcript")
}

func TestRunFormats(t *testing.T) {
	p := &stubProvider{tracks: caption.TrackList{{VideoID: "abc123", LanguageCode: "en"}}}

	code, out := invoke(t, p, "-format", "text", "abc123")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Hello World\n", out)

	code, out = invoke(t, p, "-format", "srt", "abc123")
	assert.Equal(t, 0, code)
	assert.Equal(t, "1\n00:00:00,500 --> 00:00:01,700\nHello\n\n2\n00:00:01,700 --> 00:00:02,500\nWorld\n\n", out)

	code, out = invoke(t, p, "-format", "vtt", "abc123")
	assert.Equal(t, 0, code)
	assert.Equal(t, "WEBVTT\n\n00:00:00.500 --> 00:00:01.700\nHello\n\n00:00:01.700 --> 00:00:02.500\nWorld\n\n", out)
}

func TestRunBadFlags(t *testing.T) {
	p := &stubProvider{}

	code, out := invoke(t, p, "-format", "xml", "abc123")
	assert.Equal(t, 1, code)
	assert.JSONEq(t, `{"success":false,"error":"unknown format: xml"}`, out)

	code, out = invoke(t, p, "-nope", "abc123")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, `"success":false`)

	code, out = invoke(t, p, "-h")
	assert.Equal(t, 0, code)
	assert.Empty(t, out)
	assert.Zero(t, p.calls)
}

func TestRunLanguageFlag(t *testing.T) {
	p := &stubProvider{tracks: caption.TrackList{
		{VideoID: "abc123", LanguageCode: "en"},
		{VideoID: "abc123", LanguageCode: "de"},
	}}
	var stdout bytes.Buffer
	var picked string
	wrapped := &recordingProvider{stubProvider: p, picked: &picked}
	code := run(context.Background(), []string{"-lang", "de", "abc123"}, &stdout, io.Discard, wrapped, defaultLangs)
	assert.Equal(t, 0, code)
	assert.Equal(t, "de", picked)
}

type recordingProvider struct {
	*stubProvider
	picked *string
}

func (p *recordingProvider) FetchTrack(ctx context.Context, track caption.Track) (*caption.Transcript, error) {
	*p.picked = track.LanguageCode
	return p.stubProvider.FetchTrack(ctx, track)
}

func TestRunEndToEnd(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/player", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"playabilityStatus":{"status":"OK"},"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[
			{"baseUrl":"%[1]s/timedtext?lang=fr","languageCode":"fr"},
			{"baseUrl":"%[1]s/timedtext?lang=en","languageCode":"en","kind":"asr"}]}}}`, srv.URL)
	})
	mux.HandleFunc("/timedtext", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lang") != "en" {
			http.Error(w, "wrong track", http.StatusBadRequest)
			return
		}
		io.WriteString(w, `<transcript><text start="0.5" dur="1.2">Hello</text><text start="1.7" dur="0.8">World</text></transcript>`)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	yt := caption.NewClient(caption.WithPlayerURL(srv.URL + "/player"))

	var stdout bytes.Buffer
	code := run(context.Background(), []string{"abc123"}, &stdout, io.Discard, yt, defaultLangs)
	assert.Equal(t, 0, code)
	assert.JSONEq(t,
		`{"success": true, "transcript": [{"text":"Hello","duration":1200,"offset":500},{"text":"World","duration":800,"offset":1700}]}`,
		stdout.String())
}

func TestRunEndToEndTranscriptsDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"playabilityStatus":{"status":"OK"}}`)
	}))
	defer srv.Close()

	yt := caption.NewClient(caption.WithPlayerURL(srv.URL))

	var stdout bytes.Buffer
	code := run(context.Background(), []string{"abc123"}, &stdout, io.Discard, yt, defaultLangs)
	assert.Equal(t, 1, code)

	var env struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "subtitles are disabled")
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &stubProvider{err: context.Canceled}
	var stdout bytes.Buffer
	code := run(ctx, []string{"abc123"}, &stdout, io.Discard, p, defaultLangs)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "context canceled")
}
