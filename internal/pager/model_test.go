package pager

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fwatch/internal/domain"
	"fwatch/internal/eventbus"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sized(t *testing.T, p *Pager, width, height int) model {
	t.Helper()
	next, _ := newModel(p).Update(tea.WindowSizeMsg{Width: width, Height: height})
	return next.(model)
}

func press(m model, msgs ...tea.KeyMsg) (model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(model)
	}
	return m, cmd
}

func TestSearchCancelReturnsToFree(t *testing.T) {
	m := sized(t, New(), 40, 10)

	m, _ = press(m, runes("/"), runes("a"), runes("b"))
	prompt, ok := m.mode.(SearchPrompt)
	require.True(t, ok)
	assert.Equal(t, "/ab", prompt.Prompt.String())

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, FreeMode{}, m.mode)
	assert.NotContains(t, ansi.Strip(m.View()), "/ab")
}

func TestSearchOtherKeyCancels(t *testing.T) {
	m := sized(t, New(), 40, 10)
	m.mode = FreeMode{State: FreeState{Search: "kept"}}

	m, _ = press(m, runes("/"), runes("x"), tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, FreeMode{State: FreeState{Search: "kept"}}, m.mode)
}

func TestSearchEnterCommits(t *testing.T) {
	m := sized(t, New(), 40, 10)

	m, _ = press(m, runes("/"), runes("fo"), tea.KeyMsg{Type: tea.KeySpace}, runes("o"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, FreeMode{State: FreeState{Search: "fo o"}}, m.mode)
}

func TestPromptInsertAtCursor(t *testing.T) {
	p := NewPrompt(FreeState{}, '/')
	p = p.Insert('a').Insert('c')
	p.Cursor = 1
	q := p.Insert('b')

	assert.Equal(t, "abc", q.Value())
	assert.Equal(t, 2, q.Cursor)
	assert.Equal(t, "ac", p.Value(), "insert does not modify the original prompt")
}

func TestFreeModeKeys(t *testing.T) {
	p := New()
	m := sized(t, p, 40, 11)
	for i := 0; i < 50; i++ {
		p.Append("line")
	}
	require.Equal(t, 40, p.Offset().Y)

	m, _ = press(m, runes("g"))
	assert.Equal(t, 0, p.Offset().Y)
	m, _ = press(m, runes("j"), tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, p.Offset().Y)
	m, _ = press(m, runes("k"))
	assert.Equal(t, 1, p.Offset().Y)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, 6, p.Offset().Y)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, 1, p.Offset().Y)
	m, _ = press(m, runes("G"))
	assert.Equal(t, 40, p.Offset().Y)
	m, _ = press(m, runes("z"))
	assert.Equal(t, 40, p.Offset().Y, "unbound keys are ignored")
	assert.Equal(t, FreeMode{}, m.mode)
}

func TestSearchNextAndPrevious(t *testing.T) {
	p := New()
	m := sized(t, p, 40, 4)
	for _, l := range []string{"a", "needle 1", "b", "c", "needle 2", "d", "e", "f"} {
		p.Append(l)
	}
	m, _ = press(m, runes("g"), runes("/"), runes("needle"), tea.KeyMsg{Type: tea.KeyEnter})

	m, _ = press(m, runes("n"))
	assert.Equal(t, 1, p.Offset().Y)
	m, _ = press(m, runes("n"))
	assert.Equal(t, 4, p.Offset().Y)
	_, _ = press(m, runes("N"))
	assert.Equal(t, 1, p.Offset().Y)
}

func TestQuitKeys(t *testing.T) {
	for _, msg := range []tea.KeyMsg{runes("q"), {Type: tea.KeyCtrlC}} {
		m := sized(t, New(), 40, 10)
		m, cmd := press(m, msg)
		assert.Equal(t, ExitMode{}, m.mode)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestViewLayout(t *testing.T) {
	p := New()
	m := sized(t, p, 30, 4)
	p.Append("first")
	p.Append(strings.Repeat("w", 50))
	p.Append("third")
	p.Append("fourth")

	view := ansi.Strip(m.View())
	rows := strings.Split(view, "\n")
	require.Len(t, rows, 4)

	assert.Equal(t, strings.Repeat("w", 30), rows[0], "long lines are cut at the width")
	assert.Equal(t, "third", rows[1])
	assert.Equal(t, "fourth", rows[2])
	assert.True(t, strings.HasSuffix(rows[3], "1/4"), "status row ends with offset/total: %q", rows[3])
	assert.Equal(t, 30, ansi.StringWidth(rows[3]))
}

func TestViewShowsPrompt(t *testing.T) {
	m := sized(t, New(), 30, 5)
	m, _ = press(m, runes("/"), runes("err"))

	rows := strings.Split(ansi.Strip(m.View()), "\n")
	last := rows[len(rows)-1]
	assert.True(t, strings.HasPrefix(last, "/err"), "prompt at the start of the last row: %q", last)
	assert.True(t, strings.HasSuffix(last, "0/0"))
}

func TestFollowTracksCurrentRun(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	p := New()
	unsubscribe := p.Follow(bus)
	defer unsubscribe()

	bus.Publish(domain.ProcessStartedEvent{Run: domain.Run{Pid: 1, Path: "/a.go"}})
	bus.Publish(domain.ProcessStartedEvent{Run: domain.Run{Pid: 2, Path: "/b.go"}})
	bus.Publish(domain.ProcessExitedEvent{Run: domain.Run{Pid: 1, Path: "/a.go"}, ExitCode: -1})

	require.Eventually(t, func() bool {
		return p.RunState().Pid == 2
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, RunState{Path: "/b.go", Pid: 2, Running: true}, p.RunState())

	bus.Publish(domain.ProcessExitedEvent{Run: domain.Run{Pid: 2, Path: "/b.go"}, ExitCode: 3})
	require.Eventually(t, func() bool {
		return !p.RunState().Running
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "exit 3 b.go", p.RunState().String())
}

func TestHelpTextListsBindings(t *testing.T) {
	text := ansi.Strip(newKeyMap().helpText())
	for _, want := range []string{"search", "next match", "half page up", "quit"} {
		assert.Contains(t, text, want)
	}
}
