package core

// Resolver implements path-to-inode translation and the directory
// operations that mutate the entry graph — §4.5 C5. The façade calls
// through Resolver rather than touching MetadataStore's entry methods
// directly so that name validation and NotEmpty/Exists/NoEntry mapping
// happen in one place.
type Resolver interface {
	// Lookup resolves a single path component pair (parent inode, name)
	// to the child inode, or *Error{Kind: KindNoEntry}.
	Lookup(parentID int64, name string) (*Inode, error)

	// ResolvePath walks a slash-separated path from the root, returning
	// the final inode.
	ResolvePath(path string) (*Inode, error)

	Mkdir(parentID int64, name string, uid, gid, perms uint32) (*Inode, error)
	Create(parentID int64, name string, uid, gid, perms uint32) (*Inode, error)
	Unlink(parentID int64, name string) error
	Rmdir(parentID int64, name string) error
	Rename(oldParentID int64, oldName string, newParentID int64, newName string) error
	Readdir(dirID int64) ([]DirectoryEntry, error)
}
