//go:build linux

package watch

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Inotify is a Source backed by a single inotify instance.
// The descriptor is non-blocking and wrapped in an *os.File so that a
// pending Read returns as soon as Close is called from another goroutine.
// mu keeps Add and Remove from using the descriptor after Close released it.
type Inotify struct {
	fd     int
	file   *os.File
	buf    [unix.SizeofInotifyEvent * 4096]byte
	mu     sync.Mutex
	closed chan struct{}
}

// NewInotify opens a new inotify instance
func NewInotify() (*Inotify, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("inotify init: %w", err)
	}
	return &Inotify{
		fd:     fd,
		file:   os.NewFile(uintptr(fd), "inotify"),
		closed: make(chan struct{}),
	}, nil
}

func (in *Inotify) isClosed() bool {
	select {
	case <-in.closed:
		return true
	default:
		return false
	}
}

// Add registers path and returns its handle. Adding a path that is already
// watched returns the existing handle.
func (in *Inotify) Add(path string, mask Op) (Handle, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.isClosed() {
		return -1, ErrClosed
	}
	wd, err := unix.InotifyAddWatch(in.fd, path, uint32(mask))
	if err != nil {
		return -1, fmt.Errorf("add watch %s: %w", path, err)
	}
	return Handle(wd), nil
}

// Remove drops a registration. The kernel follows up with an IGNORED event.
func (in *Inotify) Remove(h Handle) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.isClosed() {
		return ErrClosed
	}
	if _, err := unix.InotifyRmWatch(in.fd, uint32(h)); err != nil {
		return fmt.Errorf("remove watch %d: %w", h, err)
	}
	return nil
}

// Read blocks until at least one event is available and returns the batch
func (in *Inotify) Read() ([]RawEvent, error) {
	n, err := in.file.Read(in.buf[:])
	if err != nil {
		if errors.Is(err, os.ErrClosed) || in.isClosed() {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("read inotify events: %w", err)
	}
	if n < unix.SizeofInotifyEvent {
		return nil, fmt.Errorf("short inotify read: %d bytes", n)
	}
	return parseEvents(in.buf[:n]), nil
}

// Close releases the descriptor and unblocks a pending Read
func (in *Inotify) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.isClosed() {
		return nil
	}
	close(in.closed)
	return in.file.Close()
}

func parseEvents(buf []byte) []RawEvent {
	var events []RawEvent
	for offset := 0; offset+unix.SizeofInotifyEvent <= len(buf); {
		raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
		nameLen := int(raw.Len)
		start := offset + unix.SizeofInotifyEvent
		if start+nameLen > len(buf) {
			break
		}

		var name string
		if nameLen > 0 {
			// The kernel pads names with NULs to keep records aligned
			name = strings.TrimRight(string(buf[start:start+nameLen]), "\x00")
		}
		events = append(events, RawEvent{
			Handle: Handle(raw.Wd),
			Mask:   Op(raw.Mask),
			Cookie: raw.Cookie,
			Name:   name,
		})
		offset = start + nameLen
	}
	return events
}

// NewSource opens the platform watch primitive
func NewSource() (Source, error) {
	return NewInotify()
}
