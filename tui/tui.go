// Package tui shows a single download: a spinner while resolving, a progress bar
// while downloading, a log area mirroring log entries, and an error popup.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vidfetch/vidfetch/log"
	"github.com/vidfetch/vidfetch/pipeline"
)

// Options describe the download to run.
type Options struct {
	URL     string
	Request pipeline.Request
	Service *pipeline.Service
}

// Run downloads options.URL in a worker goroutine while the screen is shown.
// Quitting early cancels the download.
func Run(ctx context.Context, options Options) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bubble := newBubble(options.URL, cancel)
	program := tea.NewProgram(bubble, tea.WithAltScreen())

	reporter := options.Service.Reporter()
	reporter.Register(func(downloaded, total int64, percentage float64, speed, eta, size string) {
		program.Send(progressMsg{
			downloaded: downloaded,
			total:      total,
			percentage: percentage,
			speed:      speed,
			eta:        eta,
			size:       size,
		})
	})
	defer reporter.Register(nil)

	logger := log.Logger()
	detach := attach(logger, newLogHook(program, logger.GetLevel()))
	defer detach()

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		result, err := options.Service.Download(ctx, options.URL, options.Request)
		program.Send(doneMsg{result: result, err: err})
	}()

	model, err := program.Run()
	cancel()
	<-finished

	if err != nil {
		return nil, err
	}

	final := model.(*statefulBubble)
	switch {
	case final.state == doneState || final.state == errorState:
		return final.result, final.err
	default:
		return final.result, errors.Join(context.Canceled, final.err)
	}
}
