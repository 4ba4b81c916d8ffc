// Package icon renders status symbols in the variant chosen by the user.
package icon

import (
	"github.com/spf13/viper"
	"github.com/vidfetch/vidfetch/key"
)

const (
	emoji = "emoji"
	nerd  = "nerd"
	plain = "plain"
)

// AvailableVariants returns a slice of all registered icon style identifiers.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain}
}

// Icon identifies a symbol in the registry.
type Icon int

const (
	Success Icon = iota
	Fail
	Warn
	Progress
	Download
	Link
)

type iconDef struct {
	emoji string
	nerd  string
	plain string
}

var icons = map[Icon]*iconDef{
	Success:  {emoji: "✅", nerd: "\uf00c", plain: "✓"},
	Fail:     {emoji: "❌", nerd: "\uf00d", plain: "✖"},
	Warn:     {emoji: "⚠️", nerd: "\uf071", plain: "!"},
	Progress: {emoji: "⏳", nerd: "\uf110", plain: "..."},
	Download: {emoji: "📥", nerd: "\uf019", plain: "↓"},
	Link:     {emoji: "🔗", nerd: "\uf0c1", plain: "->"},
}

func (d *iconDef) Get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	default:
		return ""
	}
}

// Get returns the rendered string for an Icon.
func Get(i Icon) string {
	return icons[i].Get()
}
