// Package config loads runtime settings from the environment.
package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"

	"github.com/lincaiyong/youtube-transcript/internal/logging"
)

// DefaultLanguages is the track preference order used when none is configured.
var DefaultLanguages = []string{"en", "en-US", "en-GB"}

// Config holds the settings of one fetch-transcript invocation.
type Config struct {
	Languages          []string
	Timeout            time.Duration
	Retries            int
	InsecureSkipVerify bool
	Log                logging.Config
}

// Load reads Config from the environment, applying defaults for unset keys.
func Load() *Config {
	def := logging.DefaultConfig()
	return &Config{
		Languages:          languages(env.List("TRANSCRIPT_LANGUAGES", "")),
		Timeout:            env.Duration("TRANSCRIPT_TIMEOUT", 30*time.Second),
		Retries:            env.Int("TRANSCRIPT_RETRIES", 0),
		InsecureSkipVerify: parseBool(env.Str("TRANSCRIPT_INSECURE_SKIP_VERIFY", "")),
		Log: logging.Config{
			Level:      env.Str("LOG_LEVEL", def.Level),
			Format:     env.Str("LOG_FORMAT", def.Format),
			TimeFormat: def.TimeFormat,
		},
	}
}

// ParseLanguages splits a comma separated language list, dropping blanks.
// An empty result falls back to DefaultLanguages.
func ParseLanguages(s string) []string {
	return languages(strings.Split(s, ","))
}

func languages(in []string) []string {
	out := make([]string, 0, len(in))
	for _, l := range in {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultLanguages...)
	}
	return out
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}
