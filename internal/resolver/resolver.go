// Package resolver implements path resolution and the directory-mutating
// operations (mkdir, create, unlink, rmdir, rename, readdir) on top of a
// core.MetadataStore.
package resolver

import (
	"strings"

	"innerfs/internal/core"
)

// PathResolver implements core.Resolver.
type PathResolver struct {
	Store core.MetadataStore
	Clock core.Clock
}

func New(store core.MetadataStore, clock core.Clock) *PathResolver {
	return &PathResolver{Store: store, Clock: clock}
}

func (r *PathResolver) now() int64 { return r.Clock.Now().Unix() }

func (r *PathResolver) Lookup(parentID int64, name string) (*core.Inode, error) {
	entry, err := r.Store.LookupEntry(parentID, name)
	if err != nil {
		return nil, err
	}
	return r.Store.GetInode(entry.EntryFileID)
}

// ResolvePath walks path component by component from the root. An empty
// path or "/" resolves to the root directory itself.
func (r *PathResolver) ResolvePath(path string) (*core.Inode, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return r.Store.GetInode(core.RootInodeID)
	}
	current := core.RootInodeID
	components := strings.Split(path, "/")
	var in *core.Inode
	for i, name := range components {
		entry, err := r.Store.LookupEntry(current, name)
		if err != nil {
			return nil, err
		}
		in, err = r.Store.GetInode(entry.EntryFileID)
		if err != nil {
			return nil, err
		}
		if i < len(components)-1 && !in.IsDir() {
			return nil, core.NewError(core.KindNotDirectory, "resolver.resolvePath", path, nil)
		}
		current = in.ID
	}
	return in, nil
}

func (r *PathResolver) Mkdir(parentID int64, name string, uid, gid, perms uint32) (*core.Inode, error) {
	if err := r.checkNewName(parentID, name); err != nil {
		return nil, err
	}
	now := r.now()
	in := &core.Inode{
		Kind: core.KindDirectory, Name: name, UID: uid, GID: gid, Perms: perms,
		Version: 1, CreatedAt: now, UpdatedAt: now, AccessedAt: now,
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	id, err := r.Store.CreateInode(in)
	if err != nil {
		return nil, err
	}
	in.ID = id

	if _, err := r.Store.CreateEntry(&core.DirectoryEntry{
		DirectoryFileID: parentID, EntryFileID: id, Name: name, Kind: core.KindDirectory,
	}); err != nil {
		return nil, err
	}
	// Every directory owns self-entries "." and "..".
	if _, err := r.Store.CreateEntry(&core.DirectoryEntry{
		DirectoryFileID: id, EntryFileID: id, Name: ".", Kind: core.KindDirectory,
	}); err != nil {
		return nil, err
	}
	if _, err := r.Store.CreateEntry(&core.DirectoryEntry{
		DirectoryFileID: id, EntryFileID: parentID, Name: "..", Kind: core.KindDirectory,
	}); err != nil {
		return nil, err
	}
	return in, nil
}

func (r *PathResolver) Create(parentID int64, name string, uid, gid, perms uint32) (*core.Inode, error) {
	if err := r.checkNewName(parentID, name); err != nil {
		return nil, err
	}
	now := r.now()
	in := &core.Inode{
		Kind: core.KindFile, Name: name, UID: uid, GID: gid, Perms: perms,
		Version: 1, CreatedAt: now, UpdatedAt: now, AccessedAt: now,
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	id, err := r.Store.CreateInode(in)
	if err != nil {
		return nil, err
	}
	in.ID = id

	if _, err := r.Store.CreateEntry(&core.DirectoryEntry{
		DirectoryFileID: parentID, EntryFileID: id, Name: name, Kind: core.KindFile,
	}); err != nil {
		return nil, err
	}
	return in, nil
}

func (r *PathResolver) Unlink(parentID int64, name string) error {
	entry, err := r.Store.LookupEntry(parentID, name)
	if err != nil {
		return err
	}
	in, err := r.Store.GetInode(entry.EntryFileID)
	if err != nil {
		return err
	}
	if in.IsDir() {
		return core.NewError(core.KindIsDirectory, "resolver.unlink", name, nil)
	}
	if err := r.Store.DeleteEntry(parentID, name); err != nil {
		return err
	}
	return r.Store.DeleteInode(in.ID)
}

func (r *PathResolver) Rmdir(parentID int64, name string) error {
	entry, err := r.Store.LookupEntry(parentID, name)
	if err != nil {
		return err
	}
	in, err := r.Store.GetInode(entry.EntryFileID)
	if err != nil {
		return err
	}
	if !in.IsDir() {
		return core.NewError(core.KindNotDirectory, "resolver.rmdir", name, nil)
	}
	count, err := r.Store.CountChildren(in.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return core.NewError(core.KindNotEmpty, "resolver.rmdir", name, nil)
	}
	if err := r.Store.DeleteEntry(parentID, name); err != nil {
		return err
	}
	return r.Store.DeleteInode(in.ID)
}

// Rename moves an entry, rejecting a rename onto a non-empty directory
// per the NotEmpty invariant.
func (r *PathResolver) Rename(oldParentID int64, oldName string, newParentID int64, newName string) error {
	oldEntry, err := r.Store.LookupEntry(oldParentID, oldName)
	if err != nil {
		return err
	}

	if existing, err := r.Store.LookupEntry(newParentID, newName); err == nil {
		target, err := r.Store.GetInode(existing.EntryFileID)
		if err != nil {
			return err
		}
		if target.IsDir() {
			count, err := r.Store.CountChildren(target.ID)
			if err != nil {
				return err
			}
			if count > 0 {
				return core.NewError(core.KindNotEmpty, "resolver.rename", newName, nil)
			}
			// An empty directory target still fails Exists; only the
			// file-onto-file overwrite below is authorized.
			return core.NewError(core.KindExists, "resolver.rename", newName, nil)
		}
		if oldEntry.Kind != core.KindFile {
			return core.NewError(core.KindExists, "resolver.rename", newName, nil)
		}
		if err := r.Store.DeleteEntry(newParentID, newName); err != nil {
			return err
		}
		if err := r.Store.DeleteInode(target.ID); err != nil {
			return err
		}
	} else if core.KindOf(err) != core.KindNoEntry {
		return err
	}

	if err := r.Store.RenameEntry(oldParentID, oldName, newParentID, newName); err != nil {
		return err
	}

	// A renamed directory's ".." must follow it to the new parent.
	if oldEntry.Kind == core.KindDirectory {
		if err := r.Store.DeleteEntry(oldEntry.EntryFileID, ".."); err != nil {
			return err
		}
		if _, err := r.Store.CreateEntry(&core.DirectoryEntry{
			DirectoryFileID: oldEntry.EntryFileID, EntryFileID: newParentID, Name: "..", Kind: core.KindDirectory,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (r *PathResolver) Readdir(dirID int64) ([]core.DirectoryEntry, error) {
	return r.Store.ListEntries(dirID)
}

func (r *PathResolver) checkNewName(parentID int64, name string) error {
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return core.NewError(core.KindInvalidName, "resolver.checkNewName", name, nil)
	}
	if _, err := r.Store.LookupEntry(parentID, name); err == nil {
		return core.NewError(core.KindExists, "resolver.checkNewName", name, nil)
	} else if core.KindOf(err) != core.KindNoEntry {
		return err
	}
	return nil
}

var _ core.Resolver = (*PathResolver)(nil)
