package fuseadapter

import (
	"syscall"

	"innerfs/internal/core"
)

// errno translates a core.Error's Kind to the POSIX errno table from §7.
// A nil error (or one with no Kind) maps to success.
func errno(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	switch core.KindOf(err) {
	case core.KindNone:
		return 0
	case core.KindNoEntry:
		return syscall.ENOENT
	case core.KindExists:
		return syscall.EEXIST
	case core.KindNotDirectory:
		return syscall.ENOTDIR
	case core.KindIsDirectory:
		return syscall.EISDIR
	case core.KindNotEmpty:
		return syscall.ENOTEMPTY
	case core.KindInvalidName:
		return syscall.EINVAL
	case core.KindPermissionDenied:
		return syscall.EACCES
	case core.KindReadOnly:
		return syscall.EROFS
	case core.KindBackendIO, core.KindDecodeFailure, core.KindIntegrityFailure:
		return syscall.EIO
	case core.KindIncompatibleConfig:
		return syscall.EIO
	case core.KindUnsupported:
		return syscall.ENOSYS
	default:
		return syscall.EIO
	}
}
