package tui

import (
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
)

// TruncatedNotice follows a popup message that was cut short.
const TruncatedNotice = "… (truncated, the log area has the full message)"

// Truncate shortens text to limit printable characters for the error popup.
// A limit of zero or less disables truncation.
func Truncate(text string, limit int) string {
	if limit <= 0 || ansi.PrintableRuneWidth(text) <= limit {
		return text
	}
	return truncate.String(text, uint(limit)) + "\n\n" + TruncatedNotice
}
