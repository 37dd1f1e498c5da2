package caption

import "strings"

// Track is one caption track of a video as enumerated by ListTracks.
type Track struct {
	VideoID      string `json:"videoId"`
	Language     string `json:"language"`
	LanguageCode string `json:"languageCode"`
	IsGenerated  bool   `json:"isGenerated"`

	url string
}

// NewTrack builds a track pointing at a timedtext URL.
func NewTrack(videoID, languageCode, url string, generated bool) Track {
	return Track{VideoID: videoID, LanguageCode: languageCode, IsGenerated: generated, url: url}
}

// TrackList is the set of tracks available for a video, in enumeration order.
type TrackList []Track

// Find returns the first track matching langs in priority order. For each
// language a manually created track wins over an auto-generated one.
func (tl TrackList) Find(langs ...string) (Track, error) {
	for _, lang := range langs {
		for _, generated := range []bool{false, true} {
			for _, t := range tl {
				if t.LanguageCode == lang && t.IsGenerated == generated {
					return t, nil
				}
			}
		}
	}
	var videoID string
	if len(tl) > 0 {
		videoID = tl[0].VideoID
	}
	return Track{}, &VideoError{VideoID: videoID, Err: ErrNoTranscriptFound, Reason: "requested languages [" + strings.Join(langs, ", ") + "]"}
}

// Manual returns the manually created tracks.
func (tl TrackList) Manual() TrackList {
	return tl.filter(false)
}

// Generated returns the auto-generated tracks.
func (tl TrackList) Generated() TrackList {
	return tl.filter(true)
}

func (tl TrackList) filter(generated bool) TrackList {
	var out TrackList
	for _, t := range tl {
		if t.IsGenerated == generated {
			out = append(out, t)
		}
	}
	return out
}

// Snippet is one timed caption entry. Start and Duration are in seconds.
type Snippet struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Transcript is a fetched track together with its entries.
type Transcript struct {
	Track
	Snippets []Snippet `json:"snippets"`
}
