//go:build unix

package backend

import "golang.org/x/sys/unix"

type statfsT struct {
	inner unix.Statfs_t
}

func (s *statfsT) freeBytes() int64 {
	return int64(s.inner.Bfree) * int64(s.inner.Bsize)
}

func statfs(path string, out *statfsT) error {
	return unix.Statfs(path, &out.inner)
}
