package caption

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidVideoID      = errors.New("invalid video id")
	ErrVideoUnavailable    = errors.New("the video is no longer available")
	ErrVideoUnplayable     = errors.New("the video is unplayable")
	ErrAgeRestricted       = errors.New("the video is age-restricted")
	ErrRequestBlocked      = errors.New("YouTube is blocking requests from your IP")
	ErrTranscriptsDisabled = errors.New("subtitles are disabled for this video")
	ErrNoTranscriptFound   = errors.New("no transcript found")
	ErrPoTokenRequired     = errors.New("the caption track requires a PO token")
)

const watchURL = "https://www.youtube.com/watch?v="

// VideoError reports why no transcript could be retrieved for a video.
// Err is one of the sentinel errors above.
type VideoError struct {
	VideoID string
	Reason  string
	Err     error
}

func newVideoError(videoID string, err error, reason string) *VideoError {
	return &VideoError{VideoID: videoID, Reason: reason, Err: err}
}

func (e *VideoError) Error() string {
	msg := fmt.Sprintf("could not retrieve a transcript for the video %s%s: %v", watchURL, e.VideoID, e.Err)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func (e *VideoError) Unwrap() error {
	return e.Err
}
