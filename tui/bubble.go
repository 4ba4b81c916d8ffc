package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/vidfetch/vidfetch/color"
	"github.com/vidfetch/vidfetch/key"
	"github.com/vidfetch/vidfetch/pipeline"
	"github.com/vidfetch/vidfetch/util"
)

// maxLogLines bounds the log area history.
const maxLogLines = 500

// statefulBubble holds the whole screen state of a download.
type statefulBubble struct {
	state  state
	keymap *statefulKeymap

	spinnerC  spinner.Model
	progressC progress.Model
	helpC     help.Model

	url        string
	status     string
	percentage float64
	speed      string
	eta        string
	size       string

	logs       []logLine
	popupLimit int

	result *pipeline.Result
	// err is what the download returned. lastError is what the popup shows.
	err       error
	lastError error
	hint      string
	// dismissed hides the error popup so the full log area is visible.
	dismissed bool

	width, height int

	cancel context.CancelFunc
}

// setState switches both the screen and its keymap.
func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

// raiseError shows err in the popup and writes it in full to the log area.
func (b *statefulBubble) raiseError(err error) {
	b.lastError = err
	b.hint = pipeline.Hint(err)
	b.appendLog(logLine{level: logrus.ErrorLevel, text: err.Error()})
	if b.hint != "" {
		b.appendLog(logLine{level: logrus.WarnLevel, text: b.hint})
	}
	b.setState(errorState)
}

func (b *statefulBubble) appendLog(line logLine) {
	b.logs = append(b.logs, line)
	if over := len(b.logs) - maxLogLines; over > 0 {
		b.logs = b.logs[over:]
	}
}

func (b *statefulBubble) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()

	b.width = width - x
	b.height = height - y
	b.progressC.Width = max(b.width, 10)
	b.helpC.Width = b.width
}

func newBubble(url string, cancel context.CancelFunc) *statefulBubble {
	bubble := &statefulBubble{
		keymap:     newStatefulKeymap(),
		url:        url,
		status:     "Resolving",
		speed:      "N/A",
		eta:        "N/A",
		popupLimit: viper.GetInt(key.TUIPopupLength),
		cancel:     cancel,
	}

	bubble.helpC = help.New()

	bubble.spinnerC = spinner.New()
	bubble.spinnerC.Spinner = spinner.Dot
	bubble.spinnerC.Style = lipgloss.NewStyle().Foreground(color.HiPurple)

	bubble.progressC = progress.New(progress.WithDefaultGradient())

	bubble.setState(resolvingState)

	if w, h, err := util.TerminalSize(); err == nil {
		bubble.resize(w, h)
	} else {
		bubble.resize(80, 24)
	}

	return bubble
}
