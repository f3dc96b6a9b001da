package driven

import "context"

// FileScanner enumerates candidate files under a root directory.
type FileScanner interface {
	// Scan walks root and streams absolute paths of supported files in a
	// deterministic order. Both channels are closed when the walk ends.
	// Each call re-walks the tree. A missing or unreadable root is reported
	// on the error channel.
	Scan(ctx context.Context, root string) (<-chan string, <-chan error)
}
