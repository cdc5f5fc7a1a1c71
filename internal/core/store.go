package core

// MetadataStore is the persistence contract for inodes, directory entries,
// the change journal and persistent settings — §3/§4.4 C4. Every mutating
// method is expected to run inside its own transaction internally; callers
// never see partial results.
type MetadataStore interface {
	GetInode(id int64) (*Inode, error)
	CreateInode(in *Inode) (int64, error)
	UpdateInode(in *Inode) error
	DeleteInode(id int64) error

	// LookupEntry finds the child named name inside directory dirID.
	LookupEntry(dirID int64, name string) (*DirectoryEntry, error)
	// ListEntries returns every entry (including "." and "..") of dirID.
	ListEntries(dirID int64) ([]DirectoryEntry, error)
	CreateEntry(e *DirectoryEntry) (int64, error)
	DeleteEntry(dirID int64, name string) error
	RenameEntry(oldDirID int64, oldName string, newDirID int64, newName string) error
	// CountChildren reports how many non-self entries dirID owns, used by
	// rmdir/rename to enforce the NotEmpty invariant.
	CountChildren(dirID int64) (int, error)

	// AppendChange records a change-journal row. No-op when the feature
	// is disabled by the caller (the façade decides whether to call it).
	AppendChange(e *ChangeJournalEntry) error

	// BlobRefCount reports how many inodes currently reference the given
	// (sha512, encKey, compress) body tuple, used for orphan detection.
	BlobRefCount(sha512, encKey, compress string) (int, error)

	// FindBlobBySha512 looks for an unencrypted inode (enc_key = '')
	// already holding a body with the given plaintext sha512, and
	// returns its (encKey, compress) pair — always ("", compress) — so
	// the pipeline can reuse the existing backend object instead of
	// re-encoding. Encrypted bodies are excluded: each inode's key
	// material is its own, so cross-inode dedup is disabled once
	// encryption is on (§4.3 step 2).
	FindBlobBySha512(sha512 string) (encKey, compress string, found bool, err error)

	GetSetting(key string) (string, bool, error)
	SetSetting(key, value string) error
	AllSettings() (Settings, error)

	// Stat aggregates usage for statfs and the `stats` command.
	CountInodes() (int64, error)
	SumFileSizes() (int64, error)

	Close() error
}
