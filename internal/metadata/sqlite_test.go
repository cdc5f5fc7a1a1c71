package metadata

import (
	"testing"

	"innerfs/internal/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRootInodeExists(t *testing.T) {
	store := newTestStore(t)
	root, err := store.GetInode(core.RootInodeID)
	if err != nil {
		t.Fatalf("GetInode(root): %v", err)
	}
	if !root.IsDir() {
		t.Fatal("root must be a directory")
	}
	entries, err := store.ListEntries(core.RootInodeID)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected root to have '.' and '..', got %d entries", len(entries))
	}
}

func TestCreateAndLookupInode(t *testing.T) {
	store := newTestStore(t)

	id, err := store.CreateInode(&core.Inode{Kind: core.KindFile, Name: "hello.txt", Version: 1})
	if err != nil {
		t.Fatalf("CreateInode: %v", err)
	}
	if _, err := store.CreateEntry(&core.DirectoryEntry{
		DirectoryFileID: core.RootInodeID, EntryFileID: id, Name: "hello.txt", Kind: core.KindFile,
	}); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	entry, err := store.LookupEntry(core.RootInodeID, "hello.txt")
	if err != nil {
		t.Fatalf("LookupEntry: %v", err)
	}
	if entry.EntryFileID != id {
		t.Fatalf("got entry id %d, want %d", entry.EntryFileID, id)
	}
}

func TestLookupMissingEntryReturnsNoEntry(t *testing.T) {
	store := newTestStore(t)
	_, err := store.LookupEntry(core.RootInodeID, "nope")
	if core.KindOf(err) != core.KindNoEntry {
		t.Fatalf("expected KindNoEntry, got %v", err)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	store := newTestStore(t)

	if _, found, err := store.GetSetting(core.SettingStorageBackend); err != nil || found {
		t.Fatalf("expected no setting yet, got found=%v err=%v", found, err)
	}
	if err := store.SetSetting(core.SettingStorageBackend, "filesystem"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	value, found, err := store.GetSetting(core.SettingStorageBackend)
	if err != nil || !found || value != "filesystem" {
		t.Fatalf("got (%q, %v, %v)", value, found, err)
	}
}

func TestBlobDedupLookup(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.CreateInode(&core.Inode{
		Kind: core.KindFile, Name: "a.txt", Version: 1,
		Sha512: "deadbeef", EncKey: "", Compress: "gzip:6", Size: 10,
	}); err != nil {
		t.Fatalf("CreateInode: %v", err)
	}

	encKey, compress, found, err := store.FindBlobBySha512("deadbeef")
	if err != nil {
		t.Fatalf("FindBlobBySha512: %v", err)
	}
	if !found || compress != "gzip:6" || encKey != "" {
		t.Fatalf("got (%q, %q, %v)", encKey, compress, found)
	}

	count, err := store.BlobRefCount("deadbeef", "", "gzip:6")
	if err != nil {
		t.Fatalf("BlobRefCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected refcount 1, got %d", count)
	}
}

func TestCountChildren(t *testing.T) {
	store := newTestStore(t)
	id, err := store.CreateInode(&core.Inode{Kind: core.KindDirectory, Name: "sub", Version: 1})
	if err != nil {
		t.Fatalf("CreateInode: %v", err)
	}
	if _, err := store.CreateEntry(&core.DirectoryEntry{
		DirectoryFileID: core.RootInodeID, EntryFileID: id, Name: "sub", Kind: core.KindDirectory,
	}); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	count, err := store.CountChildren(core.RootInodeID)
	if err != nil {
		t.Fatalf("CountChildren: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 child, got %d", count)
	}
}
