package scanner

import "github.com/google/uuid"

type EventKind int

const (
	// EventDirEntered is emitted when traversal descends into a directory.
	EventDirEntered EventKind = iota
	// EventFileRead is emitted after a file passes all filters and is
	// admitted into the file map.
	EventFileRead
	// EventEntryError is emitted when a single entry fails to stat or read.
	// The entry is skipped; the scan continues.
	EventEntryError
)

func (k EventKind) String() string {
	switch k {
	case EventDirEntered:
		return "dir_entered"
	case EventFileRead:
		return "file_read"
	case EventEntryError:
		return "entry_error"
	}
	return "unknown"
}

// Event is one element of the scan progress stream. Callers that set
// Options.Events must drain the channel for the duration of the scan;
// the blocking send is the back-pressure mechanism.
type Event struct {
	Kind    EventKind
	Scan    uuid.UUID
	RelPath string
	Err     error
}
