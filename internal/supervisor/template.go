package supervisor

import (
	"errors"
	"strings"
)

// Placeholder is replaced with the triggering path in every argument
const Placeholder = "{}"

// ErrEmptyTemplate is returned when no program was given
var ErrEmptyTemplate = errors.New("empty command template")

// Template is the command to run for each trigger. The program name is
// used as given; arguments have every Placeholder replaced verbatim.
// No shell is involved and nothing is escaped.
type Template struct {
	program string
	args    []string
}

// NewTemplate builds a template from argv
func NewTemplate(argv []string) (Template, error) {
	if len(argv) == 0 || argv[0] == "" {
		return Template{}, ErrEmptyTemplate
	}
	args := make([]string, len(argv)-1)
	copy(args, argv[1:])
	return Template{program: argv[0], args: args}, nil
}

// Argv returns the full argument vector for path
func (t Template) Argv(path string) []string {
	argv := make([]string, 0, len(t.args)+1)
	argv = append(argv, t.program)
	for _, arg := range t.args {
		argv = append(argv, strings.ReplaceAll(arg, Placeholder, path))
	}
	return argv
}

func (t Template) String() string {
	return strings.Join(append([]string{t.program}, t.args...), " ")
}
