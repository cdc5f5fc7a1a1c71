package core

import "time"

// InodeKind discriminates a file inode from a directory inode. The numeric
// values are part of the on-disk schema (the `kind` column) and must not
// change.
type InodeKind int

const (
	KindFile      InodeKind = 0
	KindDirectory InodeKind = 1
)

func (k InodeKind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

// RootInodeID is the stable id of the root directory. It always exists.
const RootInodeID int64 = 1

// Inode is a metadata row for a file or a directory. The body (for files)
// lives in a blob backend, addressed by (Sha512, EncKey, Compress)
// — see BlobPipeline.ObjectName.
type Inode struct {
	ID         int64
	Version    int64
	Kind       InodeKind
	Name       string // basename only, "/" for the root
	UID        uint32
	GID        uint32
	Perms      uint32 // low 9-12 bits of a POSIX mode
	Size       int64  // plaintext body size, 0 for directories
	Sha512     string // hex digest of the plaintext body, "" for directories/empty files
	EncKey     string // opaque token, "" if unencrypted
	Compress   string // "" or "gzip:<level>"
	AccessedAt int64
	CreatedAt  int64
	UpdatedAt  int64
}

// IsDir reports whether the inode is a directory.
func (in *Inode) IsDir() bool { return in.Kind == KindDirectory }

// Encrypted reports whether the inode's body, if any, is encrypted.
func (in *Inode) Encrypted() bool { return in.EncKey != "" }

// Validate checks the invariants from the data model: directories carry no
// body attributes, names never contain '/', and sizes are non-negative.
func (in *Inode) Validate() error {
	if in.Size < 0 {
		return NewError(KindInvalidName, "inode.validate", in.Name, nil)
	}
	if in.Kind == KindDirectory {
		if in.Size != 0 || in.Sha512 != "" || in.EncKey != "" || in.Compress != "" {
			return NewError(KindInvalidName, "inode.validate", in.Name, nil)
		}
	}
	if in.ID != RootInodeID {
		if in.Name == "" || containsSlash(in.Name) || in.Name == "." || in.Name == ".." {
			return NewError(KindInvalidName, "inode.validate", in.Name, nil)
		}
	}
	return nil
}

func containsSlash(name string) bool {
	for i := 0; i < len(name); i++ {
		if name[i] == '/' {
			return true
		}
	}
	return false
}

// DirectoryEntry is a named link from a parent directory to a child inode.
// Every directory owns self-entries "." and ".." in addition to entries for
// its children.
type DirectoryEntry struct {
	ID              int64
	DirectoryFileID int64
	EntryFileID     int64
	Name            string
	Kind            InodeKind
}

// ChangeKind discriminates the three change-journal event types.
type ChangeKind int

const (
	ChangeCreated ChangeKind = 0
	ChangeUpdated ChangeKind = 1
	ChangeDeleted ChangeKind = 2
)

// ChangeJournalEntry is an append-only history row, produced only when the
// change-journal feature toggle is enabled.
type ChangeJournalEntry struct {
	ID          int64
	FileID      int64
	FileVersion int64
	Kind        ChangeKind
	FileSha512  string
	ChangedAt   int64
}

// Attr is the stat-like tuple getattr produces from an Inode, following
// §4.7: blocks = ceil(size/512), nlink = 1 for files, 2+subdirs for dirs.
type Attr struct {
	InodeID    int64
	Kind       InodeKind
	UID        uint32
	GID        uint32
	Perms      uint32
	Size       int64
	Blocks     int64
	NLink      uint32
	AccessedAt time.Time
	CreatedAt  int64
	UpdatedAt  int64
}

// StatfsResult reports aggregate filesystem usage for the statfs operation.
type StatfsResult struct {
	TotalBytes int64 // sum of Size across all file inodes
	FreeBytes  int64 // backend-best-effort; 0 if unknown
	Files      int64 // total inode count
}
