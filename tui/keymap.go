package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/vidfetch/vidfetch/color"
	"github.com/vidfetch/vidfetch/style"
)

// statefulKeymap defines the keys available in each state.
type statefulKeymap struct {
	state state

	quit, forceQuit,
	dismiss,
	showHelp key.Binding
}

func (k *statefulKeymap) setState(newState state) {
	k.state = newState
}

func newStatefulKeymap() *statefulKeymap {
	return &statefulKeymap{
		quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "cancel"),
		),
		dismiss: key.NewBinding(
			key.WithKeys("enter", "esc"),
			key.WithHelp(style.Fg(color.Orange)("enter"), style.Fg(color.Orange)("dismiss")),
		),
		showHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

func (k *statefulKeymap) help() ([]key.Binding, []key.Binding) {
	h := func(bindings ...key.Binding) []key.Binding {
		return bindings
	}

	to2 := func(a []key.Binding) ([]key.Binding, []key.Binding) {
		return a, a
	}

	switch k.state {
	case resolvingState, downloadingState:
		return to2(h(k.forceQuit))
	case doneState:
		return to2(h(k.quit))
	case errorState:
		return to2(h(k.dismiss, k.quit))
	default:
		return to2(h())
	}
}

func (k *statefulKeymap) ShortHelp() []key.Binding {
	short, _ := k.help()
	return short
}

func (k *statefulKeymap) FullHelp() [][]key.Binding {
	_, full := k.help()
	return [][]key.Binding{full}
}
