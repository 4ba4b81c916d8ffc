package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/sirupsen/logrus"
	"github.com/vidfetch/vidfetch/color"
	"github.com/vidfetch/vidfetch/icon"
	"github.com/vidfetch/vidfetch/style"
)

var paddingStyle = lipgloss.NewStyle().Padding(1, 2)

func (b *statefulBubble) View() string {
	switch b.state {
	case resolvingState:
		return b.viewResolving()
	case downloadingState:
		return b.viewDownloading()
	case doneState:
		return b.viewDone()
	case errorState:
		return b.viewError()
	default:
		return "Unknown state"
	}
}

func (b *statefulBubble) viewResolving() string {
	return b.renderLines([]string{
		style.Title("Resolving"),
		"",
		b.truncate(icon.Get(icon.Link) + " " + b.url),
		"",
		b.truncate(b.spinnerC.View() + " " + b.status),
	})
}

func (b *statefulBubble) viewDownloading() string {
	details := []string{b.size, b.speed, "ETA " + b.eta}
	if b.status != "Downloading" {
		details = []string{b.status}
	}

	return b.renderLines([]string{
		style.Title("Downloading"),
		"",
		b.truncate(icon.Get(icon.Download) + " " + b.url),
		"",
		b.progressC.ViewAs(b.percentage / 100),
		b.truncate(b.spinnerC.View() + " " + style.Faint(strings.Join(details, "  "))),
	})
}

func (b *statefulBubble) viewDone() string {
	lines := []string{
		style.Title("Done"),
		"",
	}

	if b.result != nil {
		lines = append(lines, b.truncate(fmt.Sprintf("%s %s", icon.Get(icon.Success), style.Fg(color.Green)(b.result.Title))))
		if path, ok := b.result.Path.Get(); ok {
			lines = append(lines, b.truncate(style.Faint("saved to "+path)))
		}
	}

	return b.renderLines(lines)
}

func (b *statefulBubble) viewError() string {
	if b.dismissed {
		return b.renderLines([]string{style.ErrorTitle("Error")})
	}

	body := Truncate(b.lastError.Error(), b.popupLimit)
	popup := style.Box(color.Red).Width(max(b.width-4, 20)).Render(
		wordwrap.String(style.Fg(color.HiRed)(icon.Get(icon.Fail)+" "+body), max(b.width-10, 10)),
	)

	return b.renderLines([]string{
		style.ErrorTitle("Error"),
		popup,
	})
}

// renderLines draws lines, then the log area filling the rest of the screen, then help.
func (b *statefulBubble) renderLines(lines []string) string {
	helpView := b.helpC.View(b.keymap)

	used := lipgloss.Height(strings.Join(lines, "\n")) + lipgloss.Height(helpView) + 1
	logs := b.viewLogs(b.height - used)

	content := strings.Join(lines, "\n")
	if logs != "" {
		content += "\n\n" + logs
	}

	if gap := b.height - lipgloss.Height(content) - lipgloss.Height(helpView); gap > 0 {
		content += strings.Repeat("\n", gap)
	}

	return paddingStyle.Render(content + "\n" + helpView)
}

// viewLogs renders the newest log lines that fit in height rows.
func (b *statefulBubble) viewLogs(height int) string {
	if height <= 0 || len(b.logs) == 0 {
		return ""
	}

	var rows []string
	for i := len(b.logs) - 1; i >= 0 && len(rows) < height; i-- {
		wrapped := strings.Split(wordwrap.String(b.logs[i].text, max(b.width-8, 10)), "\n")
		for j := len(wrapped) - 1; j >= 0 && len(rows) < height; j-- {
			prefix := "      "
			if j == 0 {
				prefix = levelLabel(b.logs[i].level)
			}
			rows = append(rows, prefix+" "+b.truncate(wrapped[j]))
		}
	}

	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	return strings.Join(rows, "\n")
}

func levelLabel(level logrus.Level) string {
	switch level {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return style.Fg(color.Red)("ERROR ")
	case logrus.WarnLevel:
		return style.Fg(color.Yellow)("WARN  ")
	case logrus.InfoLevel:
		return style.Fg(color.Cyan)("INFO  ")
	default:
		return style.Fg(color.Gray)("DEBUG ")
	}
}

func (b *statefulBubble) truncate(s string) string {
	if b.width <= 0 {
		return s
	}
	return truncate.StringWithTail(s, uint(b.width), "…")
}
