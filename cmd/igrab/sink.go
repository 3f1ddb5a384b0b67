package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/vmunix/igrab/internal/progress"
)

// barSink renders composite progress as a terminal progress bar and status
// text as the bar's description.
type barSink struct {
	bar *progressbar.ProgressBar
}

func newBarSink() *barSink {
	return &barSink{
		bar: progressbar.NewOptions(100,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("starting"),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		),
	}
}

func (s *barSink) Progress(percent float64) {
	_ = s.bar.Set(int(percent))
}

func (s *barSink) Message(text string, severity progress.Severity) {
	if severity == progress.Error {
		// Break the bar line so the error is not overdrawn.
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, text)
		return
	}
	s.bar.Describe(text)
}

// Finish completes the bar line.
func (s *barSink) Finish() {
	_ = s.bar.Finish()
	fmt.Fprintln(os.Stderr)
}
