// Package backend implements the C1 Backend variants: local filesystem,
// S3, in-database sqlar and embedded key-value storage.
package backend

import (
	"os"
	"path/filepath"

	"innerfs/internal/core"
)

// FilesystemBackend stores each object as a plain file under root. Writes
// are atomic: data lands in a temp file in the same directory, then gets
// renamed into place, so a crash mid-write never leaves a partial object
// visible under its final name.
type FilesystemBackend struct {
	root string
}

func NewFilesystemBackend(root string) (*FilesystemBackend, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, core.NewError(core.KindBackendIO, "filesystem.new", root, err)
	}
	return &FilesystemBackend{root: root}, nil
}

func (b *FilesystemBackend) path(name string) string {
	return filepath.Join(b.root, filepath.FromSlash(name))
}

func (b *FilesystemBackend) Put(name string, data []byte) error {
	dest := b.path(name)
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return core.NewError(core.KindBackendIO, "filesystem.put", name, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return core.NewError(core.KindBackendIO, "filesystem.put", name, err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return core.NewError(core.KindBackendIO, "filesystem.put", name, err)
	}
	if err := tmp.Close(); err != nil {
		return core.NewError(core.KindBackendIO, "filesystem.put", name, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return core.NewError(core.KindBackendIO, "filesystem.put", name, err)
	}
	success = true
	return nil
}

func (b *FilesystemBackend) Get(name string) ([]byte, error) {
	data, err := os.ReadFile(b.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.NewError(core.KindNoEntry, "filesystem.get", name, err)
		}
		return nil, core.NewError(core.KindBackendIO, "filesystem.get", name, err)
	}
	return data, nil
}

func (b *FilesystemBackend) Delete(name string) error {
	if err := os.Remove(b.path(name)); err != nil && !os.IsNotExist(err) {
		return core.NewError(core.KindBackendIO, "filesystem.delete", name, err)
	}
	return nil
}

func (b *FilesystemBackend) Exists(name string) (bool, error) {
	_, err := os.Stat(b.path(name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, core.NewError(core.KindBackendIO, "filesystem.exists", name, err)
}

func (b *FilesystemBackend) List() (core.NameIterator, error) {
	var names []string
	err := filepath.WalkDir(b.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, core.NewError(core.KindBackendIO, "filesystem.list", b.root, err)
	}
	return core.NewSliceNameIterator(names), nil
}

func (b *FilesystemBackend) FreeBytes() (int64, bool) {
	var stat statfsT
	if err := statfs(b.root, &stat); err != nil {
		return 0, false
	}
	return stat.freeBytes(), true
}
