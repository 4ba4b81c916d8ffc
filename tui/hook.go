package tui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

type logLine struct {
	level logrus.Level
	text  string
}

// logMsg carries a log entry into the update loop.
type logMsg logLine

// sender is the part of tea.Program the hook needs.
type sender interface {
	Send(msg tea.Msg)
}

// logHook mirrors log entries into the log area.
type logHook struct {
	program sender
	levels  []logrus.Level
}

func newLogHook(program sender, level logrus.Level) *logHook {
	var levels []logrus.Level
	for _, l := range logrus.AllLevels {
		if l <= level && l > logrus.PanicLevel {
			levels = append(levels, l)
		}
	}
	return &logHook{program: program, levels: levels}
}

func (h *logHook) Levels() []logrus.Level {
	return h.levels
}

func (h *logHook) Fire(entry *logrus.Entry) error {
	h.program.Send(logMsg{level: entry.Level, text: format(entry)})
	return nil
}

// format renders "message key=value ..." with the component field first.
func format(entry *logrus.Entry) string {
	var b strings.Builder
	if component, ok := entry.Data["component"]; ok {
		fmt.Fprintf(&b, "[%v] ", component)
	}
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k != "component" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	return b.String()
}

// attach adds hook to logger and returns a function restoring the previous hooks.
func attach(logger *logrus.Logger, hook logrus.Hook) (detach func()) {
	hooks := make(logrus.LevelHooks)
	for level, existing := range logger.Hooks {
		hooks[level] = append([]logrus.Hook(nil), existing...)
	}
	hooks.Add(hook)

	previous := logger.ReplaceHooks(hooks)
	return func() {
		logger.ReplaceHooks(previous)
	}
}
