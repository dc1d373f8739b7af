package pager

import (
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// InputMode is the state of the key handler. The set of modes is closed:
// FreeMode, SearchPrompt and ExitMode.
type InputMode interface {
	inputMode()
}

// FreeState is carried through the free mode and restored when a prompt
// is cancelled
type FreeState struct {
	// Search is the last committed search term
	Search string
}

// FreeMode scrolls and waits for commands
type FreeMode struct {
	State FreeState
}

// SearchPrompt collects a search term
type SearchPrompt struct {
	Prompt Prompt
}

// ExitMode ends the pager
type ExitMode struct{}

func (FreeMode) inputMode()     {}
func (SearchPrompt) inputMode() {}
func (ExitMode) inputMode()     {}

// handleKey dispatches msg to the handler of mode and returns the next mode
func handleKey(p *Pager, keys keyMap, mode InputMode, msg tea.KeyMsg) InputMode {
	switch m := mode.(type) {
	case FreeMode:
		return handleFree(p, keys, m, msg)
	case SearchPrompt:
		return handleSearch(m, msg)
	case ExitMode:
		return m
	default:
		return FreeMode{}
	}
}

func handleFree(p *Pager, keys keyMap, m FreeMode, msg tea.KeyMsg) InputMode {
	switch {
	case key.Matches(msg, keys.Search):
		return SearchPrompt{Prompt: NewPrompt(m.State, '/')}
	case key.Matches(msg, keys.Quit):
		return ExitMode{}
	case key.Matches(msg, keys.Down):
		p.Scroll(1)
	case key.Matches(msg, keys.Up):
		p.Scroll(-1)
	case key.Matches(msg, keys.PageUp):
		p.Page(true)
	case key.Matches(msg, keys.PageDown):
		p.Page(false)
	case key.Matches(msg, keys.Top):
		p.Top()
	case key.Matches(msg, keys.Bottom):
		p.Bottom()
	case key.Matches(msg, keys.Next):
		p.Find(m.State.Search, false)
	case key.Matches(msg, keys.Prev):
		p.Find(m.State.Search, true)
	}
	return m
}

func handleSearch(m SearchPrompt, msg tea.KeyMsg) InputMode {
	switch msg.Type {
	case tea.KeyEnter:
		return FreeMode{State: FreeState{Search: m.Prompt.Value()}}
	case tea.KeySpace:
		return SearchPrompt{Prompt: m.Prompt.Insert(' ')}
	case tea.KeyRunes:
		if msg.Alt {
			break
		}
		prompt := m.Prompt
		for _, r := range msg.Runes {
			if !unicode.IsPrint(r) {
				return FreeMode{State: m.Prompt.Previous}
			}
			prompt = prompt.Insert(r)
		}
		return SearchPrompt{Prompt: prompt}
	}
	return FreeMode{State: m.Prompt.Previous}
}
