// Package storage defines where fetched bulletins are kept. Documents are
// addressed by a flat file name such as 2011-03-04_04:07:56.93.txt.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when no document has the given name.
var ErrNotFound = errors.New("document not found")

// Store persists raw bulletin bytes under flat names.
type Store interface {
	// Ensure creates the backing directory or bucket if it is missing.
	Ensure(ctx context.Context) error
	// Write stores data under name, replacing any previous content.
	Write(ctx context.Context, name string, data []byte) error
	// Read returns the content stored under name.
	Read(ctx context.Context, name string) ([]byte, error)
	// List returns the names ending in ext, in backend order.
	List(ctx context.Context, ext string) ([]string, error)
}
