package core

import (
	"os"
	"time"
)

// OpenAppend, if set in the flags passed to Facade.Open, is always
// rejected: InnerFS has no append-only write mode (§4.6 edge case).
const OpenAppend = os.O_APPEND

// Facade implements every protocol-agnostic filesystem operation over a
// MetadataStore, a BlobPipeline and a Resolver — §4.7 C7. It is the single
// surface a transport adapter (FUSE or otherwise) needs to wrap. Facade
// itself is not safe for concurrent use from multiple goroutines without
// external serialization; §4.7 specifies a single-threaded cooperative
// model and callers (the FUSE adapter included) are expected to dispatch
// one operation at a time.
type Facade struct {
	Store            MetadataStore
	Pipeline         BlobPipeline
	Resolver         Resolver
	Handles          *HandleTable
	Clock            Clock
	Logger           Logger
	UpdateAccessTime bool
	JournalEnabled   bool
}

func (f *Facade) now() int64 { return f.Clock.Now().Unix() }

// Lookup resolves name inside the directory parentID.
func (f *Facade) Lookup(parentID int64, name string) (*Inode, error) {
	return f.Resolver.Lookup(parentID, name)
}

// GetAttr builds an Attr from the stored inode, computing NLink and Blocks
// per §4.7: files report NLink 1, directories report 2 plus their
// subdirectory count.
func (f *Facade) GetAttr(inodeID int64) (*Attr, error) {
	in, err := f.Store.GetInode(inodeID)
	if err != nil {
		return nil, err
	}
	if f.UpdateAccessTime {
		in.AccessedAt = f.now()
		if err := f.Store.UpdateInode(in); err != nil {
			return nil, err
		}
	}
	return f.attrOf(in)
}

func (f *Facade) attrOf(in *Inode) (*Attr, error) {
	nlink := uint32(1)
	if in.IsDir() {
		entries, err := f.Store.ListEntries(in.ID)
		if err != nil {
			return nil, err
		}
		subdirs := 0
		for _, e := range entries {
			if e.Kind == KindDirectory && e.Name != "." && e.Name != ".." {
				subdirs++
			}
		}
		nlink = uint32(2 + subdirs)
	}
	return &Attr{
		InodeID:    in.ID,
		Kind:       in.Kind,
		UID:        in.UID,
		GID:        in.GID,
		Perms:      in.Perms,
		Size:       in.Size,
		Blocks:     (in.Size + 511) / 512,
		NLink:      nlink,
		AccessedAt: time.Unix(in.AccessedAt, 0),
		CreatedAt:  in.CreatedAt,
		UpdatedAt:  in.UpdatedAt,
	}, nil
}

// SetAttrChanges carries the subset of attributes a setattr call wants to
// change; nil fields are left untouched.
type SetAttrChanges struct {
	Size  *int64
	Perms *uint32
	UID   *uint32
	GID   *uint32
}

// SetAttr applies changes to inodeID. A Size change on an open file
// truncates its handle's buffer and flushes it through the pipeline
// synchronously, so the returned Attr and a stat issued right after
// already reflect the new size and any orphaned body is already released;
// otherwise it goes straight through the pipeline by re-reading, truncating
// and re-writing the body.
func (f *Facade) SetAttr(inodeID int64, changes SetAttrChanges) (*Attr, error) {
	in, err := f.Store.GetInode(inodeID)
	if err != nil {
		return nil, err
	}
	if changes.Perms != nil {
		in.Perms = *changes.Perms
	}
	if changes.UID != nil {
		in.UID = *changes.UID
	}
	if changes.GID != nil {
		in.GID = *changes.GID
	}
	if changes.Size != nil && in.Kind == KindFile {
		if h := f.Handles.ByInode(inodeID); h != nil {
			h.Truncate(*changes.Size)
			// §4.7: shrinking an open file's size re-flushes synchronously,
			// so the new size and any orphaned body are visible to a stat
			// issued immediately after setattr, not deferred to whatever
			// later event happens to flush the handle.
			if err := f.storeBody(in, h.Buffer); err != nil {
				return nil, err
			}
			h.Dirty = false
		} else {
			body, derr := f.readBody(in)
			if derr != nil {
				return nil, derr
			}
			if int64(len(body)) != *changes.Size {
				resized := make([]byte, *changes.Size)
				copy(resized, body)
				body = resized
			}
			if err := f.storeBody(in, body); err != nil {
				return nil, err
			}
		}
	}
	in.UpdatedAt = f.now()
	in.Version++
	if err := f.Store.UpdateInode(in); err != nil {
		return nil, err
	}
	f.appendChange(in, ChangeUpdated)
	return f.attrOf(in)
}

// Mkdir creates a new directory entry named name inside parentID.
func (f *Facade) Mkdir(parentID int64, name string, uid, gid, perms uint32) (*Inode, error) {
	in, err := f.Resolver.Mkdir(parentID, name, uid, gid, perms)
	if err != nil {
		return nil, err
	}
	f.appendChange(in, ChangeCreated)
	return in, nil
}

// Create makes a new, empty regular file and opens it, returning both the
// inode and a handle id ready for Write/Flush/Release.
func (f *Facade) Create(parentID int64, name string, uid, gid, perms uint32) (*Inode, int64, error) {
	in, err := f.Resolver.Create(parentID, name, uid, gid, perms)
	if err != nil {
		return nil, 0, err
	}
	f.appendChange(in, ChangeCreated)
	h := f.Handles.Open(in.ID, nil, os.O_RDWR)
	return in, h, nil
}

// Open returns a handle over inodeID's current body. flags carrying
// OpenAppend are rejected outright.
func (f *Facade) Open(inodeID int64, flags int) (int64, error) {
	if flags&OpenAppend != 0 {
		return 0, NewError(KindUnsupported, "open", "", nil)
	}
	if existing := f.Handles.ByInode(inodeID); existing != nil {
		f.Handles.Retain(existing.ID)
		return existing.ID, nil
	}
	in, err := f.Store.GetInode(inodeID)
	if err != nil {
		return 0, err
	}
	var body []byte
	if in.Kind == KindFile && in.Size > 0 {
		body, err = f.readBody(in)
		if err != nil {
			return 0, err
		}
	}
	return f.Handles.Open(inodeID, body, flags), nil
}

// Read copies up to len(dst) bytes from the handle's buffer at off.
func (f *Facade) Read(handleID int64, dst []byte, off int64) (int, error) {
	h := f.Handles.Get(handleID)
	if h == nil {
		return 0, NewError(KindNoEntry, "read", "", nil)
	}
	n := h.ReadAt(dst, off)
	if f.UpdateAccessTime {
		if in, err := f.Store.GetInode(h.InodeID); err == nil {
			in.AccessedAt = f.now()
			_ = f.Store.UpdateInode(in)
		}
	}
	return n, nil
}

// Write stores data into the handle's buffer at off, marking it dirty.
// Nothing reaches the blob pipeline until Flush.
func (f *Facade) Write(handleID int64, data []byte, off int64) (int, error) {
	h := f.Handles.Get(handleID)
	if h == nil {
		return 0, NewError(KindNoEntry, "write", "", nil)
	}
	return h.WriteAt(data, off), nil
}

// Flush persists a dirty handle's buffer through the blob pipeline and
// updates the owning inode. It is idempotent: flushing a clean handle is a
// no-op.
func (f *Facade) Flush(handleID int64) error {
	h := f.Handles.Get(handleID)
	if h == nil {
		return NewError(KindNoEntry, "flush", "", nil)
	}
	if !h.Dirty {
		return nil
	}
	in, err := f.Store.GetInode(h.InodeID)
	if err != nil {
		return err
	}
	if err := f.storeBody(in, h.Buffer); err != nil {
		return err
	}
	in.UpdatedAt = f.now()
	in.Version++
	if err := f.Store.UpdateInode(in); err != nil {
		return err
	}
	f.appendChange(in, ChangeUpdated)
	h.Dirty = false
	return nil
}

// Release flushes (if dirty) and drops one reference to handleID.
func (f *Facade) Release(handleID int64) error {
	if h := f.Handles.Get(handleID); h != nil && h.Dirty {
		if err := f.Flush(handleID); err != nil {
			return err
		}
	}
	f.Handles.Release(handleID)
	return nil
}

// Unlink removes a file entry and drops its body's refcount. The body is
// released while the inode row still exists, as Pipeline.Release expects.
func (f *Facade) Unlink(parentID int64, name string) error {
	in, err := f.Resolver.Lookup(parentID, name)
	if err != nil {
		return err
	}
	if in.Sha512 != "" {
		if err := f.Pipeline.Release(in.Sha512, in.EncKey, in.Compress); err != nil {
			f.Logger.Warn("orphan release failed", "inode", in.ID, "err", err)
		}
	}
	if err := f.Resolver.Unlink(parentID, name); err != nil {
		return err
	}
	f.appendChange(in, ChangeDeleted)
	return nil
}

// Rmdir removes an empty directory entry.
func (f *Facade) Rmdir(parentID int64, name string) error {
	in, err := f.Resolver.Lookup(parentID, name)
	if err != nil {
		return err
	}
	if err := f.Resolver.Rmdir(parentID, name); err != nil {
		return err
	}
	f.appendChange(in, ChangeDeleted)
	return nil
}

// Rename moves an entry, rejecting a non-empty directory target per the
// NotEmpty invariant.
func (f *Facade) Rename(oldParentID int64, oldName string, newParentID int64, newName string) error {
	return f.Resolver.Rename(oldParentID, oldName, newParentID, newName)
}

// Readdir lists every entry of a directory, "." and ".." included.
func (f *Facade) Readdir(dirID int64) ([]DirectoryEntry, error) {
	return f.Resolver.Readdir(dirID)
}

// Statfs aggregates usage from the metadata store: the inode count and the
// sum of file sizes. FreeBytes is always left at 0; no backend's free-space
// report is consulted.
func (f *Facade) Statfs() (*StatfsResult, error) {
	files, err := f.Store.CountInodes()
	if err != nil {
		return nil, err
	}
	total, err := f.Store.SumFileSizes()
	if err != nil {
		return nil, err
	}
	return &StatfsResult{TotalBytes: total, Files: files}, nil
}

// Access checks perms against the requested uid/gid/mode using a plain
// owner/group/other POSIX check; a FUSE adapter decides which uid/gid to
// pass (the caller's, or the mount's own).
func (f *Facade) Access(inodeID int64, uid, gid uint32, mode uint32) error {
	in, err := f.Store.GetInode(inodeID)
	if err != nil {
		return err
	}
	var bits uint32
	switch {
	case uid == in.UID:
		bits = (in.Perms >> 6) & 0o7
	case gid == in.GID:
		bits = (in.Perms >> 3) & 0o7
	default:
		bits = in.Perms & 0o7
	}
	if bits&mode != mode {
		return NewError(KindPermissionDenied, "access", in.Name, nil)
	}
	return nil
}

func (f *Facade) readBody(in *Inode) ([]byte, error) {
	if in.Sha512 == "" {
		return nil, nil
	}
	return f.Pipeline.Read(in.Sha512, in.EncKey, in.Compress)
}

func (f *Facade) storeBody(in *Inode, body []byte) error {
	oldSha, oldKey, oldCompress := in.Sha512, in.EncKey, in.Compress
	if len(body) == 0 {
		in.Sha512, in.EncKey, in.Compress, in.Size = "", "", "", 0
	} else {
		sha, key, compress, err := f.Pipeline.Write(body, oldSha, oldKey, oldCompress)
		if err != nil {
			return err
		}
		in.Sha512, in.EncKey, in.Compress, in.Size = sha, key, compress, int64(len(body))
	}
	if oldSha != "" && oldSha != in.Sha512 {
		if err := f.Pipeline.Release(oldSha, oldKey, oldCompress); err != nil {
			f.Logger.Warn("orphan release failed", "err", err)
		}
	}
	return nil
}

func (f *Facade) appendChange(in *Inode, kind ChangeKind) {
	if !f.JournalEnabled {
		return
	}
	err := f.Store.AppendChange(&ChangeJournalEntry{
		FileID:      in.ID,
		FileVersion: in.Version,
		Kind:        kind,
		FileSha512:  in.Sha512,
		ChangedAt:   f.now(),
	})
	if err != nil {
		f.Logger.Warn("change journal append failed", "inode", in.ID, "err", err)
	}
}
