//go:build !linux

package watch

import "errors"

// NewSource opens the platform watch primitive
func NewSource() (Source, error) {
	return nil, errors.New("recursive watching needs inotify, which is only available on linux")
}
