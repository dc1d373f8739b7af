package pager

// Prompt is a one-line text entry. Values are immutable; editing returns
// a new Prompt.
type Prompt struct {
	// Previous is restored when the prompt is cancelled
	Previous FreeState
	Prefix   rune
	Text     []rune
	Cursor   int
}

// NewPrompt starts an empty prompt
func NewPrompt(previous FreeState, prefix rune) Prompt {
	return Prompt{Previous: previous, Prefix: prefix}
}

// Insert puts r at the cursor and advances it
func (p Prompt) Insert(r rune) Prompt {
	text := make([]rune, 0, len(p.Text)+1)
	text = append(text, p.Text[:p.Cursor]...)
	text = append(text, r)
	text = append(text, p.Text[p.Cursor:]...)
	p.Text = text
	p.Cursor++
	return p
}

// Value returns the entered text
func (p Prompt) Value() string {
	return string(p.Text)
}

// String renders the prompt as shown on the status row
func (p Prompt) String() string {
	return string(p.Prefix) + string(p.Text)
}
