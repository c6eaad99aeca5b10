package ports

import (
	"context"
	"time"
)

// FileChangeType represents the kind of change observed on a watched file
type FileChangeType int

const (
	// Modified means the file content changed
	Modified FileChangeType = iota
	// Removed means the file no longer exists
	Removed
)

func (t FileChangeType) String() string {
	if t == Removed {
		return "removed"
	}
	return "modified"
}

// FileChangeEvent reports one observed change
type FileChangeEvent struct {
	Path      string
	Type      FileChangeType
	Timestamp time.Time
}

// FileWatcher watches a single file for changes
type FileWatcher interface {
	// Watch returns a channel of changes; it is closed by Stop
	Watch(ctx context.Context, path string) (<-chan FileChangeEvent, error)
	Stop() error
}
