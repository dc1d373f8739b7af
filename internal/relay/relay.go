package relay

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// EndOfOutput is appended once a command's output stream is exhausted
const EndOfOutput = "~~ end of output ~~"

// Sink receives output lines
type Sink interface {
	Append(line string)
}

// SinkFunc adapts a function to a Sink
type SinkFunc func(line string)

func (f SinkFunc) Append(line string) { f(line) }

// Run copies r into sink one line at a time until EOF or a read error.
// Line endings are stripped. A final line without a newline is still
// delivered before the EndOfOutput marker or the error line.
func Run(r io.Reader, sink Sink) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			sink.Append(strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				sink.Append(EndOfOutput)
				return nil
			}
			sink.Append("error: " + err.Error())
			return err
		}
	}
}
