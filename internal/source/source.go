// Package source reads sample log lines from local files and remote log
// services, and stores the saved log configurations that name them.
package source

import "context"

// Source is the interface that all sample backends must implement.
type Source interface {
	// Lines returns up to params.Limit entries from the start of the source.
	Lines(ctx context.Context, params LinesParams) ([]Line, error)

	// Follow streams new entries as they are written. The returned channel
	// is closed when the context is cancelled or an error occurs.
	Follow(ctx context.Context, params LinesParams) (<-chan Line, error)

	// Type returns the source type identifier ("local", "cloudwatch").
	Type() string

	// Metadata describes where the lines came from.
	Metadata() Metadata

	// Close releases any resources held by the source.
	Close() error
}
