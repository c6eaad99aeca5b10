package ports

import "context"

// EditorOpener opens the editor page in the user's desktop browser
type EditorOpener interface {
	// Open starts a browser pointed at url without waiting for it to exit
	Open(ctx context.Context, url string) error
	// Detect names the browser Open would use
	Detect() (string, error)
}
