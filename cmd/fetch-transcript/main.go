// Command fetch-transcript prints the caption transcript of a YouTube video
// as a JSON envelope on stdout.
//
//	fetch-transcript [-lang en,en-US] [-format json|text|srt|vtt] <video_id>
//
// Exit status is 0 on success and 1 on any failure. Failures are always
// reported as {"success": false, "error": "..."} on stdout.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	caption "github.com/lincaiyong/youtube-transcript"
	"github.com/lincaiyong/youtube-transcript/internal/config"
	"github.com/lincaiyong/youtube-transcript/internal/fetcher"
	"github.com/lincaiyong/youtube-transcript/internal/logging"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := caption.NewClient(
		caption.WithHTTPClient(caption.NewHTTPClient(cfg.Timeout, cfg.InsecureSkipVerify)),
		caption.WithBackOff(caption.RetryBackOff(cfg.Retries)),
		caption.WithLogger(logging.WithComponent("caption")),
	)

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, provider, cfg.Languages)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, p fetcher.Provider, langs []string) int {
	log := logging.WithComponent("cli")

	fs := flag.NewFlagSet("fetch-transcript", flag.ContinueOnError)
	fs.SetOutput(stderr)
	lang := fs.String("lang", strings.Join(langs, ","), "Comma-separated language preference list")
	format := fs.String("format", "json", "Output format: json|text|srt|vtt")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: fetch-transcript [flags] <video_id>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return fail(stdout, err)
	}

	render, ok := renderers[strings.ToLower(*format)]
	if !ok {
		return fail(stdout, fmt.Errorf("unknown format: %s", *format))
	}

	videoID := fs.Arg(0)
	f := fetcher.New(p,
		fetcher.WithLanguages(config.ParseLanguages(*lang)...),
		fetcher.WithLogger(logging.WithVideo("fetcher", videoID)),
	)

	tr, err := f.Fetch(ctx, videoID)
	if err != nil {
		log.Error().Err(err).Str("videoId", videoID).Msg("transcript fetch failed")
		return fail(stdout, err)
	}

	if err := render(stdout, tr); err != nil {
		log.Error().Err(err).Msg("writing output failed")
		return 1
	}
	return 0
}

var renderers = map[string]func(io.Writer, *caption.Transcript) error{
	"json": func(w io.Writer, t *caption.Transcript) error {
		return writeEnvelope(w, fetcher.Succeeded(t))
	},
	"text": func(w io.Writer, t *caption.Transcript) error {
		_, err := fmt.Fprintln(w, t.PlainText())
		return err
	},
	"srt": func(w io.Writer, t *caption.Transcript) error {
		_, err := io.WriteString(w, t.SRT())
		return err
	},
	"vtt": func(w io.Writer, t *caption.Transcript) error {
		_, err := io.WriteString(w, t.VTT())
		return err
	},
}

func fail(w io.Writer, err error) int {
	_ = writeEnvelope(w, fetcher.Failed(err))
	return 1
}

func writeEnvelope(w io.Writer, env fetcher.Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(env)
}
