package fuseadapter

import (
	"context"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"innerfs/internal/core"
)

// fileHandle is the FileHandle go-fuse hands back on every Read/Write/
// Flush/Release call after Open or Create. It is a thin wrapper around the
// façade's own handle id (core.HandleTable); all buffering lives there.
type fileHandle struct {
	facade *core.Facade
	id     int64
}

var (
	_ gofuse.FileHandle   = (*fileHandle)(nil)
	_ gofuse.FileReader   = (*fileHandle)(nil)
	_ gofuse.FileWriter   = (*fileHandle)(nil)
	_ gofuse.FileFlusher  = (*fileHandle)(nil)
	_ gofuse.FileReleaser = (*fileHandle)(nil)
)

func (h *fileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n, err := h.facade.Read(h.id, dest, off)
	if err != nil {
		return nil, errno(err)
	}
	return fuse.ReadResultData(dest[:n]), 0
}

func (h *fileHandle) Write(ctx context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	n, err := h.facade.Write(h.id, data, off)
	if err != nil {
		return 0, errno(err)
	}
	return uint32(n), 0
}

func (h *fileHandle) Flush(ctx context.Context) syscall.Errno {
	return errno(h.facade.Flush(h.id))
}

func (h *fileHandle) Release(ctx context.Context) syscall.Errno {
	return errno(h.facade.Release(h.id))
}
