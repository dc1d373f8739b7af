package cli

import (
	"fmt"
	"log"
	"os"
)

// setupLogging sends the standard logger to path, or leaves it on stderr
// when path is empty. The returned function closes the file.
func setupLogging(path string) (func(), error) {
	if path == "" {
		log.SetOutput(os.Stderr)
		return func() {}, nil
	}

	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}
	log.SetOutput(logFile)
	return func() {
		log.SetOutput(os.Stderr)
		logFile.Close()
	}, nil
}
