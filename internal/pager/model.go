package pager

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const resetSGR = "\x1b[0m"

// Run shows the pager until the user quits or ctx is cancelled. The
// terminal is put back the way it was on every exit path.
func (p *Pager) Run(ctx context.Context, opts ...tea.ProgramOption) error {
	options := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	prog := tea.NewProgram(newModel(p), options...)

	p.program.Store(prog)
	defer p.program.Store(nil)

	_, err := prog.Run()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tea.ErrInterrupted):
		return nil
	case errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil:
		return nil
	}
	return fmt.Errorf("pager: %w", err)
}

type helpClosedMsg struct {
	err error
}

// model is the bubbletea view over a Pager
type model struct {
	pager  *Pager
	mode   InputMode
	keys   keyMap
	help   help.Model
	styles *Styles
	width  int
	height int
}

func newModel(p *Pager) model {
	return model{
		pager:  p,
		mode:   FreeMode{},
		keys:   newKeyMap(),
		help:   help.New(),
		styles: NewStyles(),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.pager.SetViewport(msg.Height - 1)

	case refreshMsg:
		m.pager.pending.Store(false)

	case helpClosedMsg:
		if msg.err != nil {
			log.Printf("pager: help screen failed: %v", msg.err)
		}

	case tea.KeyMsg:
		if _, free := m.mode.(FreeMode); free && key.Matches(msg, m.keys.Help) {
			return m, m.showHelp()
		}
		m.mode = handleKey(m.pager, m.keys, m.mode, msg)
		if _, exit := m.mode.(ExitMode); exit {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) showHelp() tea.Cmd {
	prog := m.pager.program.Load()
	text := m.keys.helpText()
	return func() tea.Msg {
		return helpClosedMsg{err: showHelpInPager(prog, text)}
	}
}

func (m model) View() string {
	if m.height <= 0 || m.width <= 0 {
		return ""
	}
	rows := m.height - 1
	lines, off, total := m.pager.window(rows)

	var b strings.Builder
	for i := 0; i < rows; i++ {
		if i < len(lines) {
			line := ansi.Truncate(lines[i], m.width, "")
			b.WriteString(line)
			if strings.Contains(line, "\x1b") {
				b.WriteString(resetSGR)
			}
		}
		b.WriteString("\n")
	}
	b.WriteString(m.statusLine(off, total))
	return b.String()
}

func (m model) statusLine(off Offset, total int) string {
	right := m.styles.Position.Render(fmt.Sprintf("%d/%d", off.Y, total))

	var left string
	switch mode := m.mode.(type) {
	case SearchPrompt:
		left = m.styles.Prompt.Render(mode.Prompt.String())
	default:
		left = m.runStatus() + "  " + m.help.ShortHelpView(m.keys.ShortHelp())
	}

	avail := m.width - lipgloss.Width(right)
	if avail < 0 {
		avail = 0
	}
	left = ansi.Truncate(left, avail, "")
	gap := avail - lipgloss.Width(left)
	if gap < 0 {
		gap = 0
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m model) runStatus() string {
	state := m.pager.RunState()
	text := state.String()
	switch {
	case state.Failure != "":
		return m.styles.Failed.Render(text)
	case state.Running:
		return m.styles.Running.Render(text)
	default:
		return m.styles.Exited.Render(text)
	}
}
