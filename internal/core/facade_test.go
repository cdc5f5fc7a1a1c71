package core_test

import (
	"bytes"
	"testing"

	"innerfs/internal/backend"
	"innerfs/internal/core"
	"innerfs/internal/pipeline"
	"innerfs/internal/resolver"
	"innerfs/internal/testutil"
)

func newTestFacade(t *testing.T) (*core.Facade, *backend.MemoryBackend) {
	t.Helper()
	store := testutil.NewTestStore(t)
	primary := backend.NewMemoryBackend()
	pl := &pipeline.ReplicatedPipeline{
		Primary: primary,
		Store:   store,
		Logger:  core.NewNopLogger(),
	}
	clock := core.RealClock{}
	return &core.Facade{
		Store:          store,
		Pipeline:       pl,
		Resolver:       resolver.New(store, clock),
		Handles:        core.NewHandleTable(),
		Clock:          clock,
		Logger:         core.NewNopLogger(),
		JournalEnabled: true,
	}, primary
}

func TestFacadeWriteFlushReadRoundTrip(t *testing.T) {
	f, _ := newTestFacade(t)
	in, h, err := f.Create(core.RootInodeID, "hello.txt", 0, 0, 0o644)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	want := []byte("Hello, world!\n")
	if _, err := f.Write(h, want, 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := f.Flush(h); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	attr, err := f.GetAttr(in.ID)
	if err != nil {
		t.Fatalf("GetAttr: %v", err)
	}
	if attr.Size != int64(len(want)) {
		t.Fatalf("expected size %d after flush, got %d", len(want), attr.Size)
	}

	got := make([]byte, len(want))
	n, err := f.Read(h, got, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != len(want) || !bytes.Equal(got[:n], want) {
		t.Fatalf("Read returned %q, want %q", got[:n], want)
	}

	if err := f.Release(h); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestFacadeSetAttrTruncateOpenHandleFlushesImmediately(t *testing.T) {
	f, primary := newTestFacade(t)
	in, h, err := f.Create(core.RootInodeID, "big.txt", 0, 0, 0o644)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	body := bytes.Repeat([]byte("A"), 4096)
	if _, err := f.Write(h, body, 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := f.Flush(h); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	before, err := f.GetAttr(in.ID)
	if err != nil {
		t.Fatalf("GetAttr: %v", err)
	}
	if before.Size != 4096 {
		t.Fatalf("expected size 4096 before truncate, got %d", before.Size)
	}
	oldSha := mustInodeSha(t, f, in.ID)

	zero := int64(0)
	attr, err := f.SetAttr(in.ID, core.SetAttrChanges{Size: &zero})
	if err != nil {
		t.Fatalf("SetAttr: %v", err)
	}
	// The bug under test: SetAttr must report the new size synchronously,
	// not the stale pre-truncation size left over until some later Flush.
	if attr.Size != 0 {
		t.Fatalf("expected SetAttr to report size 0 immediately, got %d", attr.Size)
	}

	// A stat issued right after setattr must also see the new size,
	// without any further Flush/Release call.
	statAttr, err := f.GetAttr(in.ID)
	if err != nil {
		t.Fatalf("GetAttr after SetAttr: %v", err)
	}
	if statAttr.Size != 0 {
		t.Fatalf("expected stat to report size 0 immediately after setattr, got %d", statAttr.Size)
	}

	// The orphaned 4096-byte body must already be gone, not lingering
	// until a later Flush/Release happens to run.
	exists, err := primary.Exists(hex512ObjectName(t, f, oldSha))
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatal("expected the orphaned body to be released synchronously by SetAttr")
	}

	if err := f.Release(h); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func mustInodeSha(t *testing.T, f *core.Facade, id int64) string {
	t.Helper()
	in, err := f.Store.GetInode(id)
	if err != nil {
		t.Fatalf("GetInode: %v", err)
	}
	return in.Sha512
}

func hex512ObjectName(t *testing.T, f *core.Facade, sha string) string {
	t.Helper()
	return f.Pipeline.ObjectName(sha, "", "")
}

func TestFacadeAccessOwnerGroupOther(t *testing.T) {
	f, _ := newTestFacade(t)
	in, _, err := f.Create(core.RootInodeID, "perm.txt", 100, 200, 0o640)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.Access(in.ID, 100, 200, 0o6); err != nil {
		t.Fatalf("owner should have rw access: %v", err)
	}
	if err := f.Access(in.ID, 999, 200, 0o4); err != nil {
		t.Fatalf("group should have r access: %v", err)
	}
	if err := f.Access(in.ID, 999, 999, 0o1); core.KindOf(err) != core.KindPermissionDenied {
		t.Fatalf("other should have no access, got %v", err)
	}
	if err := f.Access(in.ID, 100, 200, 0o2); err != nil {
		t.Fatalf("owner should have w access: %v", err)
	}
	if err := f.Access(in.ID, 999, 200, 0o2); core.KindOf(err) != core.KindPermissionDenied {
		t.Fatalf("group should not have w access under 0640, got %v", err)
	}
}

func TestFacadeRenameOverwritesFile(t *testing.T) {
	f, _ := newTestFacade(t)
	src, h, err := f.Create(core.RootInodeID, "src.txt", 0, 0, 0o644)
	if err != nil {
		t.Fatalf("Create(src): %v", err)
	}
	if _, err := f.Write(h, []byte("new"), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := f.Release(h); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, _, err := f.Create(core.RootInodeID, "dst.txt", 0, 0, 0o644); err != nil {
		t.Fatalf("Create(dst): %v", err)
	}

	if err := f.Rename(core.RootInodeID, "src.txt", core.RootInodeID, "dst.txt"); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	got, err := f.Lookup(core.RootInodeID, "dst.txt")
	if err != nil {
		t.Fatalf("Lookup(dst.txt): %v", err)
	}
	if got.ID != src.ID {
		t.Fatalf("expected dst.txt to be the renamed inode %d, got %d", src.ID, got.ID)
	}
	if _, err := f.Lookup(core.RootInodeID, "src.txt"); core.KindOf(err) != core.KindNoEntry {
		t.Fatalf("expected src.txt gone, got %v", err)
	}
}

func TestFacadeRenameOntoDirectoryFailsExists(t *testing.T) {
	f, _ := newTestFacade(t)
	if _, _, err := f.Create(core.RootInodeID, "src.txt", 0, 0, 0o644); err != nil {
		t.Fatalf("Create(src): %v", err)
	}
	if _, err := f.Mkdir(core.RootInodeID, "dst", 0, 0, 0o755); err != nil {
		t.Fatalf("Mkdir(dst): %v", err)
	}

	if err := f.Rename(core.RootInodeID, "src.txt", core.RootInodeID, "dst"); core.KindOf(err) != core.KindExists {
		t.Fatalf("expected KindExists renaming a file onto an empty directory, got %v", err)
	}
}
