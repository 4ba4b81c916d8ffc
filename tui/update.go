package tui

import (
	"fmt"
	"strings"

	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/vidfetch/vidfetch/pipeline"
	"github.com/vidfetch/vidfetch/progress"
)

// progressMsg is one observer call.
type progressMsg struct {
	downloaded, total int64
	percentage        float64
	speed, eta, size  string
}

// doneMsg ends the download.
type doneMsg struct {
	result *pipeline.Result
	err    error
}

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
		return b, nil
	case tea.KeyMsg:
		return b.updateKey(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spinnerC, cmd = b.spinnerC.Update(msg)
		return b, cmd
	case logMsg:
		b.appendLog(logLine(msg))
		if msg.level <= logrus.InfoLevel && b.state == resolvingState {
			b.status = firstLine(msg.text)
		}
		return b, nil
	case progressMsg:
		b.updateProgress(msg)
		return b, nil
	case doneMsg:
		return b.finish(msg)
	}

	return b, nil
}

func (b *statefulBubble) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case bubblesKey.Matches(msg, b.keymap.forceQuit):
		b.cancel()
		return b, tea.Quit
	case bubblesKey.Matches(msg, b.keymap.showHelp):
		b.helpC.ShowAll = !b.helpC.ShowAll
	case b.state == errorState && bubblesKey.Matches(msg, b.keymap.dismiss):
		b.dismissed = !b.dismissed
	case (b.state == doneState || b.state == errorState) && bubblesKey.Matches(msg, b.keymap.quit):
		return b, tea.Quit
	}

	return b, nil
}

func (b *statefulBubble) updateProgress(msg progressMsg) {
	if b.state == resolvingState {
		b.setState(downloadingState)
	}

	b.percentage = msg.percentage
	if msg.size == progress.Complete {
		b.status = "Finishing"
		return
	}

	b.status = "Downloading"
	b.speed, b.eta, b.size = msg.speed, msg.eta, msg.size
}

func (b *statefulBubble) finish(msg doneMsg) (tea.Model, tea.Cmd) {
	b.result = msg.result
	b.err = msg.err

	switch {
	case msg.err != nil:
		b.raiseError(msg.err)
	case msg.result != nil && !msg.result.Success():
		b.raiseError(partialError(msg.result))
	default:
		b.percentage = 100
		b.setState(doneState)
	}

	return b, nil
}

func partialError(result *pipeline.Result) error {
	outcome := result.Outcome
	return fmt.Errorf(
		"download incomplete: %d/%d segments succeeded, %d failed: %s",
		outcome.Succeeded,
		outcome.Attempted,
		len(outcome.FailedSegments),
		strings.Join(outcome.FailedSegments, ", "),
	)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
