package core

import "fmt"

// Kind classifies a core.Error into one of the user-visible error
// categories from the design. The FUSE adapter and CLI translate a Kind
// into a POSIX errno or a process exit code; core itself never does either.
type Kind int

const (
	// KindNone is the zero value; never set on a real Error.
	KindNone Kind = iota

	// KindNoEntry means a path component or directory entry was not found.
	KindNoEntry
	// KindExists means the target of a create-like operation already exists.
	KindExists
	// KindNotDirectory means an operation required a directory inode.
	KindNotDirectory
	// KindIsDirectory means an operation refused to act on a directory.
	KindIsDirectory
	// KindNotEmpty means rmdir or an overwriting rename found non-self entries.
	KindNotEmpty
	// KindInvalidName means a name was empty, contained '/', or was "." or "..".
	KindInvalidName
	// KindPermissionDenied means a mode/uid/gid check failed.
	KindPermissionDenied
	// KindReadOnly means a mutation was attempted against a read-only mount.
	KindReadOnly
	// KindBackendIO means a blob backend call failed for reasons other than NotFound.
	KindBackendIO
	// KindDecodeFailure means decompression or AEAD authentication failed.
	KindDecodeFailure
	// KindIntegrityFailure means a decoded body's hash did not match the inode's.
	KindIntegrityFailure
	// KindIncompatibleConfig means persisted settings disagree with the live config.
	KindIncompatibleConfig
	// KindUnsupported means the operation is explicitly out of scope (links, xattrs, append).
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindNoEntry:
		return "no_entry"
	case KindExists:
		return "exists"
	case KindNotDirectory:
		return "not_directory"
	case KindIsDirectory:
		return "is_directory"
	case KindNotEmpty:
		return "not_empty"
	case KindInvalidName:
		return "invalid_name"
	case KindPermissionDenied:
		return "permission_denied"
	case KindReadOnly:
		return "read_only"
	case KindBackendIO:
		return "backend_io"
	case KindDecodeFailure:
		return "decode_failure"
	case KindIntegrityFailure:
		return "integrity_failure"
	case KindIncompatibleConfig:
		return "incompatible_config"
	case KindUnsupported:
		return "unsupported"
	default:
		return "none"
	}
}

// MarshalJSON renders a Kind as its String() name, so CLI commands that
// serialize mismatches (verify) or settings read back something more
// useful than a bare integer.
func (k Kind) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", k.String())), nil
}

// Error is the single error type produced by the core packages. Every
// façade operation that fails returns one, wrapping a Kind and, usually,
// an underlying cause from SQLite or a blob backend.
type Error struct {
	Kind Kind
	Op   string // the façade/store operation that failed, e.g. "mkdir", "pipeline.flush"
	Path string // best-effort path or name context, may be empty
	Err  error  // wrapped cause, may be nil
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Path != "":
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Kind)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match by Kind: it reports true when target is an *Error
// with the same Kind, e.g. errors.Is(err, &Error{Kind: KindNoEntry}).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

// NewError builds an *Error for kind, with op naming the failing operation.
func NewError(kind Kind, op string, path string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: cause}
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error, returning
// KindNone otherwise.
func KindOf(err error) Kind {
	var ce *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			ce = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if ce == nil {
		return KindNone
	}
	return ce.Kind
}
