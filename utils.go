package caption

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// cleanText unescapes HTML entities and strips markup such as <font> or <i>
// that YouTube embeds in caption lines. A bare '<' with no closing '>' is text.
func cleanText(s string) string {
	return htmlTagRe.ReplaceAllString(html.UnescapeString(s), "")
}

// PlainText joins the snippet texts with single spaces.
func (t *Transcript) PlainText() string {
	var result strings.Builder

	for _, s := range t.Snippets {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		if result.Len() > 0 {
			result.WriteString(" ")
		}
		result.WriteString(text)
	}

	return result.String()
}

// SRT renders the transcript as SubRip. Entries keep their original order.
func (t *Transcript) SRT() string {
	var result strings.Builder

	for i, s := range t.Snippets {
		result.WriteString(fmt.Sprintf("%d\n", i+1))
		result.WriteString(fmt.Sprintf("%s --> %s\n",
			formatTime(s.Start, ','),
			formatTime(s.Start+s.Duration, ',')))
		result.WriteString(s.Text)
		result.WriteString("\n\n")
	}

	return result.String()
}

// VTT renders the transcript as WebVTT.
func (t *Transcript) VTT() string {
	var result strings.Builder

	result.WriteString("WEBVTT\n\n")

	for _, s := range t.Snippets {
		result.WriteString(fmt.Sprintf("%s --> %s\n",
			formatTime(s.Start, '.'),
			formatTime(s.Start+s.Duration, '.')))
		result.WriteString(s.Text)
		result.WriteString("\n\n")
	}

	return result.String()
}

// formatTime renders seconds as HH:MM:SS<sep>mmm, rounded to the millisecond.
func formatTime(seconds float64, sep byte) string {
	t := time.Duration(seconds * float64(time.Second)).Round(time.Millisecond)
	hours := int(t.Hours())
	minutes := int(t.Minutes()) % 60
	secs := int(t.Seconds()) % 60
	millis := int(t.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, secs, sep, millis)
}

func (t Track) String() string {
	kind := "manual"
	if t.IsGenerated {
		kind = "asr"
	}
	return fmt.Sprintf("%s (%s) - %s", t.Language, t.LanguageCode, kind)
}
