package core

import "io"

// Backend is the uniform contract over a flat object namespace that every
// blob storage variant (local filesystem, S3, sqlar, embedded key-value)
// implements — §4.1 C1.
//
// Names are opaque to callers of Backend; BlobPipeline.ObjectName computes
// them from an inode's body triple per §4.1/§6.
type Backend interface {
	// Put writes name idempotently; overwriting an existing object is
	// allowed but callers normally avoid it because dedup makes it
	// unnecessary.
	Put(name string, data []byte) error

	// Get fails with a *Error{Kind: KindNoEntry} if name is absent, and
	// *Error{Kind: KindBackendIO} for any other failure.
	Get(name string) ([]byte, error)

	// Delete succeeds if name is already absent.
	Delete(name string) error

	// Exists reports whether name is present.
	Exists(name string) (bool, error)

	// List streams every object name currently stored. Used only by
	// `nuke`; need not be consistent with concurrent writers.
	List() (NameIterator, error)

	// FreeBytes reports a best-effort estimate of remaining backend
	// capacity for statfs. Backends that cannot report this return 0,
	// false.
	FreeBytes() (int64, bool)
}

// NameIterator yields backend object names one at a time. Next returns
// io.EOF when exhausted.
type NameIterator interface {
	Next() (string, error)
	Close() error
}

// SliceNameIterator adapts a pre-collected []string to NameIterator, for
// backends (filesystem, sqlar, kv) whose List is not naturally streaming.
type SliceNameIterator struct {
	names []string
	pos   int
}

func NewSliceNameIterator(names []string) *SliceNameIterator {
	return &SliceNameIterator{names: names}
}

func (it *SliceNameIterator) Next() (string, error) {
	if it.pos >= len(it.names) {
		return "", io.EOF
	}
	n := it.names[it.pos]
	it.pos++
	return n, nil
}

func (it *SliceNameIterator) Close() error { return nil }
