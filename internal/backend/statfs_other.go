//go:build !unix

package backend

type statfsT struct{}

func (s *statfsT) freeBytes() int64 { return 0 }

func statfs(path string, out *statfsT) error { return errUnsupportedStatfs }

var errUnsupportedStatfs = errNotImplemented{}

type errNotImplemented struct{}

func (errNotImplemented) Error() string { return "statfs not implemented on this platform" }
