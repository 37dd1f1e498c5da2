package caption

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	// DefaultPlayerURL is the Innertube player endpoint used to enumerate caption tracks.
	DefaultPlayerURL = "https://www.youtube.com/youtubei/v1/player?prettyPrint=false"

	androidClientVersion = "20.10.38"
	androidUserAgent     = "com.google.android.youtube/" + androidClientVersion + " (Linux; U; Android 11) gzip"

	maxPlayerBody    = 3 * 1024 * 1024
	maxTimedTextBody = 4 * 1024 * 1024
)

// PlayerRequest represents the YouTube player API request
type PlayerRequest struct {
	Context   Context `json:"context"`
	VideoID   string  `json:"videoId"`
	ContentOK bool    `json:"contentCheckOk"`
	RacyOK    bool    `json:"racyCheckOk"`
}

// Context represents the client context in the request
type Context struct {
	Client Client `json:"client"`
}

// Client represents the client information sent to Innertube
type Client struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	HL                string `json:"hl"`
	GL                string `json:"gl,omitempty"`
	TimeZone          string `json:"timeZone"`
	UTCOffsetMinutes  int    `json:"utcOffsetMinutes"`
}

// PlayerResponse represents the YouTube player API response
type PlayerResponse struct {
	PlayabilityStatus *PlayabilityStatus `json:"playabilityStatus"`
	Captions          *Captions          `json:"captions"`
}

// PlayabilityStatus tells whether the video can be played at all
type PlayabilityStatus struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// Captions contains caption track information
type Captions struct {
	PlayerCaptionsTracklistRenderer PlayerCaptionsTracklistRenderer `json:"playerCaptionsTracklistRenderer"`
}

// PlayerCaptionsTracklistRenderer contains the caption tracks
type PlayerCaptionsTracklistRenderer struct {
	CaptionTracks []CaptionTrack `json:"captionTracks"`
}

// CaptionTrack represents a single caption track
type CaptionTrack struct {
	BaseURL      string    `json:"baseUrl"`
	Name         TrackName `json:"name"`
	LanguageCode string    `json:"languageCode"`
	Kind         string    `json:"kind"` // "asr" = auto-generated
}

// TrackName is the human readable track label; the WEB client sends simpleText, ANDROID sends runs.
type TrackName struct {
	SimpleText string `json:"simpleText"`
	Runs       []struct {
		Text string `json:"text"`
	} `json:"runs"`
}

func (n TrackName) String() string {
	if n.SimpleText != "" {
		return n.SimpleText
	}
	var sb strings.Builder
	for _, r := range n.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// timedText is the srv1 timedtext XML document.
type timedText struct {
	Lines []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

// YouTube is the caption provider client. The zero value is not usable; call NewClient.
type YouTube struct {
	httpClient *http.Client
	playerURL  string
	newBackOff func() backoff.BackOff
	log        zerolog.Logger
}

// Option configures a YouTube client.
type Option func(*YouTube)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(y *YouTube) { y.httpClient = c }
}

// WithPlayerURL overrides the Innertube player endpoint.
func WithPlayerURL(u string) Option {
	return func(y *YouTube) { y.playerURL = u }
}

// WithBackOff sets the retry policy applied to every request. The factory is
// called once per request so stateful policies are never shared.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(y *YouTube) { y.newBackOff = f }
}

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) Option {
	return func(y *YouTube) { y.log = l }
}

// NewClient returns a client that performs every request exactly once unless
// a retry policy is supplied with WithBackOff.
func NewClient(opts ...Option) *YouTube {
	y := &YouTube{
		httpClient: NewHTTPClient(30*time.Second, false),
		playerURL:  DefaultPlayerURL,
		newBackOff: func() backoff.BackOff { return &backoff.StopBackOff{} },
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// NewHTTPClient creates an HTTP client with the given timeout, optionally skipping TLS verification
func NewHTTPClient(timeout time.Duration, insecureSkipVerify bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via config
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// RetryBackOff returns a policy that retries up to n times with exponential backoff.
// n == 0 means a single attempt.
func RetryBackOff(n int) func() backoff.BackOff {
	if n <= 0 {
		return func() backoff.BackOff { return &backoff.StopBackOff{} }
	}
	return func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.MaxElapsedTime = 30 * time.Second
		return backoff.WithMaxRetries(b, uint64(n))
	}
}

// statusError is returned for unexpected HTTP status codes.
type statusError struct {
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, http.StatusText(e.Code))
}

// do sends the request built by newReq, retrying per the client policy.
// The request is rebuilt on each attempt so bodies are never reused.
// 5xx and 429 are retryable; any other non-200 status is permanent.
func (y *YouTube) do(ctx context.Context, newReq func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response

	operation := func() error {
		req, err := newReq()
		if err != nil {
			return backoff.Permanent(err)
		}
		r, err := y.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}

		if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
			r.Body.Close()
			return &statusError{Code: r.StatusCode}
		}
		if r.StatusCode != http.StatusOK {
			r.Body.Close()
			return backoff.Permanent(&statusError{Code: r.StatusCode})
		}

		resp = r
		return nil
	}

	notify := func(err error, wait time.Duration) {
		y.log.Debug().Err(err).Dur("wait", wait).Msg("retrying request")
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(y.newBackOff(), ctx), notify); err != nil {
		return nil, err
	}
	return resp, nil
}

// ListTracks enumerates the caption tracks for videoID. Manually created
// tracks come first, then auto-generated ones, each group in response order.
func (y *YouTube) ListTracks(ctx context.Context, videoID string) (TrackList, error) {
	if strings.HasPrefix(videoID, "http://") || strings.HasPrefix(videoID, "https://") {
		return nil, newVideoError(videoID, ErrInvalidVideoID, "pass the video ID, not the URL")
	}

	playerData, err := json.Marshal(PlayerRequest{
		Context: Context{
			Client: Client{
				ClientName:        "ANDROID",
				ClientVersion:     androidClientVersion,
				AndroidSdkVersion: 30,
				HL:                "en",
				GL:                "US",
				TimeZone:          "UTC",
				UTCOffsetMinutes:  0,
			},
		},
		VideoID:   videoID,
		ContentOK: true,
		RacyOK:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal player request: %w", err)
	}

	log := y.log.With().Str("videoId", videoID).Logger()
	log.Debug().Msg("requesting player response")

	resp, err := y.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, y.playerURL, bytes.NewReader(playerData))
		if err != nil {
			return nil, fmt.Errorf("failed to create player request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", androidUserAgent)
		req.Header.Set("X-Youtube-Client-Name", "3")
		req.Header.Set("X-Youtube-Client-Version", androidClientVersion)
		return req, nil
	})
	if err != nil {
		return nil, classifyRequestError(videoID, "player", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPlayerBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read player response: %w", err)
	}

	var playerResp PlayerResponse
	if err := json.Unmarshal(body, &playerResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player response: %w", err)
	}

	if err := checkPlayability(videoID, playerResp.PlayabilityStatus); err != nil {
		return nil, err
	}

	if playerResp.Captions == nil || len(playerResp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks) == 0 {
		return nil, newVideoError(videoID, ErrTranscriptsDisabled, "")
	}

	raw := playerResp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	tracks := make(TrackList, 0, len(raw))
	for _, generated := range []bool{false, true} {
		for _, ct := range raw {
			if (ct.Kind == "asr") != generated {
				continue
			}
			tracks = append(tracks, Track{
				VideoID:      videoID,
				Language:     ct.Name.String(),
				LanguageCode: ct.LanguageCode,
				IsGenerated:  generated,
				url:          strings.Replace(ct.BaseURL, "&fmt=srv3", "", 1),
			})
		}
	}

	log.Debug().Int("tracks", len(tracks)).Msg("caption tracks listed")
	return tracks, nil
}

// FetchTrack downloads and parses the entries of a track returned by ListTracks.
func (y *YouTube) FetchTrack(ctx context.Context, track Track) (*Transcript, error) {
	if track.url == "" {
		return nil, fmt.Errorf("track %s has no caption URL", track.LanguageCode)
	}
	if strings.Contains(track.url, "&exp=xpe") {
		return nil, newVideoError(track.VideoID, ErrPoTokenRequired, "")
	}

	y.log.Debug().
		Str("videoId", track.VideoID).
		Str("language", track.LanguageCode).
		Bool("generated", track.IsGenerated).
		Msg("fetching timedtext")

	resp, err := y.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create subtitle request: %w", err)
		}
		req.Header.Set("User-Agent", androidUserAgent)
		return req, nil
	})
	if err != nil {
		return nil, classifyRequestError(track.VideoID, "timedtext", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTimedTextBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read subtitle response: %w", err)
	}

	snippets, err := parseTimedText(body)
	if err != nil {
		return nil, err
	}

	return &Transcript{Track: track, Snippets: snippets}, nil
}

// parseTimedText decodes a timedtext document into snippets. Elements without
// any text are skipped; lines that become empty after cleanup are kept.
func parseTimedText(body []byte) ([]Snippet, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty timedtext response")
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("failed to parse timedtext XML: %w", err)
	}

	snippets := make([]Snippet, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		if line.Text == "" {
			continue
		}
		text := cleanText(line.Text)
		start, err := parseSeconds(line.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid start %q: %w", line.Start, err)
		}
		dur, err := parseSeconds(line.Dur)
		if err != nil {
			return nil, fmt.Errorf("invalid dur %q: %w", line.Dur, err)
		}
		snippets = append(snippets, Snippet{Text: text, Start: start, Duration: dur})
	}
	return snippets, nil
}

func parseSeconds(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func checkPlayability(videoID string, ps *PlayabilityStatus) error {
	if ps == nil || ps.Status == "" || ps.Status == "OK" {
		return nil
	}
	switch {
	case ps.Status == "LOGIN_REQUIRED" && strings.HasPrefix(ps.Reason, "Sign in to confirm"):
		return newVideoError(videoID, ErrRequestBlocked, ps.Reason)
	case ps.Status == "LOGIN_REQUIRED" && strings.Contains(ps.Reason, "inappropriate"):
		return newVideoError(videoID, ErrAgeRestricted, ps.Reason)
	case ps.Status == "ERROR" && ps.Reason == "This video is unavailable":
		return newVideoError(videoID, ErrVideoUnavailable, "")
	}
	return newVideoError(videoID, ErrVideoUnplayable, ps.Reason)
}

func classifyRequestError(videoID, what string, err error) error {
	var se *statusError
	if errors.As(err, &se) && se.Code == http.StatusTooManyRequests {
		return newVideoError(videoID, ErrRequestBlocked, "YouTube answered 429 Too Many Requests")
	}
	return fmt.Errorf("failed to get %s response: %w", what, err)
}
