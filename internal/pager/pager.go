package pager

import (
	"strings"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"fwatch/internal/relay"
)

// defaultViewport is used until the terminal reports its size
const defaultViewport = 23

// Offset is the scroll position. X is reserved for horizontal scrolling.
type Offset struct {
	X int
	Y int
}

// Pager holds command output and the scroll position. Lines and offset
// are guarded separately; when both are needed, lines is locked first.
type Pager struct {
	linesMu sync.RWMutex
	lines   []string
	gen     uint64

	offsetMu sync.RWMutex
	offset   Offset

	viewport atomic.Int64

	runMu sync.RWMutex
	run   RunState

	program atomic.Pointer[tea.Program]
	pending atomic.Bool
}

// New creates an empty pager
func New() *Pager {
	p := &Pager{}
	p.viewport.Store(defaultViewport)
	return p
}

// Append adds a line, following the output when the view was at the bottom
func (p *Pager) Append(line string) {
	p.linesMu.Lock()
	p.appendLocked(line)
	p.linesMu.Unlock()
	p.refresh()
}

// appendLocked requires linesMu held for writing
func (p *Pager) appendLocked(line string) {
	before := len(p.lines)
	p.lines = append(p.lines, line)
	vh := p.Viewport()

	p.offsetMu.Lock()
	if p.offset.Y >= maxOffset(before, vh) {
		p.offset.Y = maxOffset(len(p.lines), vh)
	}
	p.offsetMu.Unlock()
}

// Reset clears the buffer and scrolls to the top. Sinks handed out
// before the reset stop delivering.
func (p *Pager) Reset() {
	p.linesMu.Lock()
	p.lines = nil
	p.gen++
	p.offsetMu.Lock()
	p.offset = Offset{}
	p.offsetMu.Unlock()
	p.linesMu.Unlock()
	p.refresh()
}

// Sink returns a sink bound to the current buffer generation
func (p *Pager) Sink() relay.Sink {
	p.linesMu.RLock()
	gen := p.gen
	p.linesMu.RUnlock()
	return &sink{pager: p, gen: gen}
}

type sink struct {
	pager *Pager
	gen   uint64
}

func (s *sink) Append(line string) {
	p := s.pager
	p.linesMu.Lock()
	if p.gen != s.gen {
		p.linesMu.Unlock()
		return
	}
	p.appendLocked(line)
	p.linesMu.Unlock()
	p.refresh()
}

// Scroll moves the view by delta lines, clamped to the buffer
func (p *Pager) Scroll(delta int) {
	p.linesMu.RLock()
	defer p.linesMu.RUnlock()
	p.offsetMu.Lock()
	defer p.offsetMu.Unlock()
	p.offset.Y = clamp(p.offset.Y+delta, 0, maxOffset(len(p.lines), p.Viewport()))
}

// Page moves the view by half a viewport
func (p *Pager) Page(up bool) {
	step := p.Viewport() / 2
	if step < 1 {
		step = 1
	}
	if up {
		step = -step
	}
	p.Scroll(step)
}

// Top scrolls to the first line
func (p *Pager) Top() {
	p.offsetMu.Lock()
	p.offset.Y = 0
	p.offsetMu.Unlock()
}

// Bottom scrolls so the last line is on screen
func (p *Pager) Bottom() {
	p.linesMu.RLock()
	defer p.linesMu.RUnlock()
	p.offsetMu.Lock()
	p.offset.Y = maxOffset(len(p.lines), p.Viewport())
	p.offsetMu.Unlock()
}

// Find moves the view to the next line containing term, searching from
// the line after the top of the view (or before it when backward) and
// wrapping around. It reports whether a match was found.
func (p *Pager) Find(term string, backward bool) bool {
	if term == "" {
		return false
	}
	p.linesMu.RLock()
	defer p.linesMu.RUnlock()
	p.offsetMu.Lock()
	defer p.offsetMu.Unlock()

	total := len(p.lines)
	if total == 0 {
		return false
	}
	step := 1
	if backward {
		step = -1
	}
	for i := 1; i <= total; i++ {
		idx := ((p.offset.Y+i*step)%total + total) % total
		if strings.Contains(ansi.Strip(p.lines[idx]), term) {
			p.offset.Y = clamp(idx, 0, maxOffset(total, p.Viewport()))
			return true
		}
	}
	return false
}

// SetViewport records how many rows are available for content. A view
// that was at the bottom stays there.
func (p *Pager) SetViewport(height int) {
	if height < 1 {
		height = 1
	}
	p.linesMu.RLock()
	defer p.linesMu.RUnlock()
	old := p.Viewport()
	p.viewport.Store(int64(height))

	p.offsetMu.Lock()
	defer p.offsetMu.Unlock()
	total := len(p.lines)
	if p.offset.Y >= maxOffset(total, old) {
		p.offset.Y = maxOffset(total, height)
	} else {
		p.offset.Y = clamp(p.offset.Y, 0, maxOffset(total, height))
	}
}

// Viewport returns the number of content rows
func (p *Pager) Viewport() int {
	return int(p.viewport.Load())
}

// Offset returns the current scroll position
func (p *Pager) Offset() Offset {
	p.offsetMu.RLock()
	defer p.offsetMu.RUnlock()
	return p.offset
}

// Len returns the number of buffered lines
func (p *Pager) Len() int {
	p.linesMu.RLock()
	defer p.linesMu.RUnlock()
	return len(p.lines)
}

// Lines returns a copy of the buffer
func (p *Pager) Lines() []string {
	p.linesMu.RLock()
	defer p.linesMu.RUnlock()
	return append([]string(nil), p.lines...)
}

// window returns at most rows lines starting at the offset, the offset
// itself and the total line count.
func (p *Pager) window(rows int) ([]string, Offset, int) {
	p.linesMu.RLock()
	defer p.linesMu.RUnlock()
	p.offsetMu.RLock()
	off := p.offset
	p.offsetMu.RUnlock()

	total := len(p.lines)
	start := clamp(off.Y, 0, total)
	end := start + rows
	if end > total {
		end = total
	}
	return append([]string(nil), p.lines[start:end]...), off, total
}

// SetRunState updates what the status row reports about the command
func (p *Pager) SetRunState(state RunState) {
	p.runMu.Lock()
	p.run = state
	p.runMu.Unlock()
	p.refresh()
}

// RunState returns the last reported command state
func (p *Pager) RunState() RunState {
	p.runMu.RLock()
	defer p.runMu.RUnlock()
	return p.run
}

type refreshMsg struct{}

// refresh asks the running program to redraw. Requests made while one is
// already queued are folded into it.
func (p *Pager) refresh() {
	prog := p.program.Load()
	if prog == nil {
		return
	}
	if p.pending.CompareAndSwap(false, true) {
		go prog.Send(refreshMsg{})
	}
}

func maxOffset(total, viewport int) int {
	if total > viewport {
		return total - viewport
	}
	return 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
