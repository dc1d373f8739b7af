package pager

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/noborus/ov/oviewer"
)

// showHelpInPager hands the terminal to ov to display content, then takes
// it back
func showHelpInPager(program *tea.Program, content string) error {
	if program == nil {
		return fmt.Errorf("program not set")
	}

	if err := program.ReleaseTerminal(); err != nil {
		return err
	}
	defer func() {
		// Give ov time to leave the alternate screen first
		time.Sleep(100 * time.Millisecond)
		_ = program.RestoreTerminal()
	}()

	root, err := oviewer.NewRoot(strings.NewReader(content))
	if err != nil {
		return err
	}

	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}
