package watch

import (
	"errors"
	"strings"
)

// ErrClosed is returned by Read once the watch source has been closed
var ErrClosed = errors.New("watch source closed")

// Handle identifies one registered directory. The kernel hands these out.
type Handle int

// Op is an inotify event bit mask. Values follow the Linux inotify ABI.
type Op uint32

const (
	OpCloseWrite Op = 0x00000008
	OpMovedFrom  Op = 0x00000040
	OpMovedTo    Op = 0x00000080
	OpCreate     Op = 0x00000100
	OpOverflow   Op = 0x00004000
	OpIgnored    Op = 0x00008000
	OpOnlyDir    Op = 0x01000000
	OpIsDir      Op = 0x40000000

	OpMove = OpMovedFrom | OpMovedTo
)

// watchMask is what every directory is registered with
const watchMask = OpCloseWrite | OpMove | OpCreate | OpOnlyDir

// Has reports whether any bit of o is set in op
func (op Op) Has(o Op) bool {
	return op&o != 0
}

func (op Op) String() string {
	names := []struct {
		op   Op
		name string
	}{
		{OpCloseWrite, "CLOSE_WRITE"},
		{OpMovedFrom, "MOVED_FROM"},
		{OpMovedTo, "MOVED_TO"},
		{OpCreate, "CREATE"},
		{OpOverflow, "Q_OVERFLOW"},
		{OpIgnored, "IGNORED"},
		{OpIsDir, "ISDIR"},
	}
	var parts []string
	for _, n := range names {
		if op.Has(n.op) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, "|")
}

// RawEvent is one kernel notification. Name is relative to the watched
// directory and empty when the event concerns the directory itself.
type RawEvent struct {
	Handle Handle
	Mask   Op
	Cookie uint32
	Name   string
}

// Source is the kernel primitive a Manager drives
type Source interface {
	Add(path string, mask Op) (Handle, error)
	Remove(h Handle) error
	Read() ([]RawEvent, error)
	Close() error
}
