package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/TimelordUK/mtail/internal/config"
)

type keyMap struct {
	Quit       key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Top        key.Binding
	Bottom     key.Binding
	Follow     key.Binding
	Search     key.Binding
	Goto       key.Binding
	Next       key.Binding
	Prev       key.Binding
}

func binding(keys []string, fallback []string, help, desc string) key.Binding {
	if len(keys) == 0 {
		keys = fallback
	}
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

func newKeyMap(kb config.KeybindingConfig) keyMap {
	def := config.DefaultConfig().Keybindings
	return keyMap{
		Quit:       binding(kb.Quit, def.Quit, "q", "quit"),
		ScrollUp:   binding(kb.ScrollUp, def.ScrollUp, "k", "up"),
		ScrollDown: binding(kb.ScrollDown, def.ScrollDown, "j", "down"),
		PageUp:     binding(kb.PageUp, def.PageUp, "b", "page up"),
		PageDown:   binding(kb.PageDown, def.PageDown, "f", "page down"),
		Top:        binding(kb.Top, def.Top, "g", "top"),
		Bottom:     binding(kb.Bottom, def.Bottom, "G", "bottom"),
		Follow:     binding(kb.Follow, def.Follow, "F", "follow"),
		Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Goto:       key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "goto")),
		Next:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		Prev:       key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "prev")),
	}
}

// helpLine lists the first key of the main bindings
func (k keyMap) helpLine() string {
	var out string
	for i, b := range []key.Binding{k.ScrollDown, k.ScrollUp, k.PageDown, k.PageUp, k.Top, k.Bottom, k.Follow, k.Search, k.Next, k.Quit} {
		if i > 0 {
			out += "  "
		}
		h := b.Help()
		out += h.Key + ":" + h.Desc
	}
	return out
}
