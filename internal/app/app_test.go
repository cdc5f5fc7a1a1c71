package app

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"innerfs/internal/backend"
	"innerfs/internal/config"
	"innerfs/internal/core"
	"innerfs/internal/pipeline"
	"innerfs/internal/resolver"
	"innerfs/internal/testutil"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	store := testutil.NewTestStore(t)
	primary := backend.NewMemoryBackend()
	pl := &pipeline.ReplicatedPipeline{
		Primary: primary,
		Store:   store,
		Logger:  core.NewNopLogger(),
	}
	clock := core.RealClock{}
	facade := &core.Facade{
		Store:          store,
		Pipeline:       pl,
		Resolver:       resolver.New(store, clock),
		Handles:        core.NewHandleTable(),
		Clock:          clock,
		Logger:         core.NewNopLogger(),
		JournalEnabled: true,
	}
	cfg := &config.Config{DatabaseFile: filepath.Join(t.TempDir(), "index.db")}
	return &App{cfg: cfg, store: store, primary: primary, Facade: facade}
}

func writeFile(t *testing.T, a *App, parent int64, name string, data []byte) *core.Inode {
	t.Helper()
	in, handle, err := a.Facade.Create(parent, name, 0, 0, 0o644)
	if err != nil {
		t.Fatalf("Create(%s): %v", name, err)
	}
	if _, err := a.Facade.Write(handle, data, 0); err != nil {
		t.Fatalf("Write(%s): %v", name, err)
	}
	if err := a.Facade.Release(handle); err != nil {
		t.Fatalf("Release(%s): %v", name, err)
	}
	in, err = a.Facade.Store.GetInode(in.ID)
	if err != nil {
		t.Fatalf("GetInode(%s): %v", name, err)
	}
	return in
}

func TestStatsCountsFilesAndBytes(t *testing.T) {
	a := newTestApp(t)
	writeFile(t, a, core.RootInodeID, "a.txt", []byte("hello"))
	writeFile(t, a, core.RootInodeID, "b.txt", []byte("world!!"))

	stats, err := a.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalBytes != int64(len("hello")+len("world!!")) {
		t.Errorf("TotalBytes = %d, want %d", stats.TotalBytes, len("hello")+len("world!!"))
	}
	if len(stats.LargestFiles) != 2 {
		t.Fatalf("len(LargestFiles) = %d, want 2", len(stats.LargestFiles))
	}
	if stats.LargestFiles[0].Path != "/b.txt" {
		t.Errorf("LargestFiles[0].Path = %q, want /b.txt", stats.LargestFiles[0].Path)
	}
}

func TestVerifyPassesOnIntactStore(t *testing.T) {
	a := newTestApp(t)
	writeFile(t, a, core.RootInodeID, "a.txt", []byte("hello"))

	mismatches, err := a.Verify()
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if len(mismatches) != 0 {
		t.Fatalf("expected no mismatches, got %v", mismatches)
	}
}

func TestVerifyDetectsCorruption(t *testing.T) {
	a := newTestApp(t)
	in := writeFile(t, a, core.RootInodeID, "a.txt", []byte("hello"))

	if err := a.primary.Put(in.Sha512, []byte("corrupted bytes here")); err != nil {
		t.Fatalf("corrupting object: %v", err)
	}

	mismatches, err := a.Verify()
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if len(mismatches) != 1 {
		t.Fatalf("expected 1 mismatch, got %d", len(mismatches))
	}
	if mismatches[0].Kind != core.KindIntegrityFailure {
		t.Errorf("Kind = %v, want KindIntegrityFailure", mismatches[0].Kind)
	}
}

func TestExportIndexJSON(t *testing.T) {
	a := newTestApp(t)
	writeFile(t, a, core.RootInodeID, "a.txt", []byte("hello"))

	var buf bytes.Buffer
	if err := a.ExportIndex(&buf, "json"); err != nil {
		t.Fatalf("ExportIndex() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"a.txt"`) {
		t.Errorf("expected exported JSON to mention a.txt, got: %s", buf.String())
	}
}

func TestNukeClearsEverything(t *testing.T) {
	a := newTestApp(t)
	writeFile(t, a, core.RootInodeID, "a.txt", []byte("hello"))

	if err := a.Nuke(); err != nil {
		t.Fatalf("Nuke() error = %v", err)
	}

	files, err := a.store.CountInodes()
	if err != nil {
		t.Fatalf("CountInodes() error = %v", err)
	}
	if files != 1 {
		t.Fatalf("CountInodes() = %d, want 1 (root only)", files)
	}
	entries, err := a.Facade.Readdir(core.RootInodeID)
	if err != nil {
		t.Fatalf("Readdir() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2 (. and ..)", len(entries))
	}
}

func TestConfirmNukeForceBypassesPrompt(t *testing.T) {
	ok, err := ConfirmNuke(strings.NewReader(""), &bytes.Buffer{}, true)
	if err != nil {
		t.Fatalf("ConfirmNuke() error = %v", err)
	}
	if !ok {
		t.Fatal("expected force=true to confirm without reading input")
	}
}

func TestConfirmNukeRequiresYes(t *testing.T) {
	ok, err := ConfirmNuke(strings.NewReader("no\n"), &bytes.Buffer{}, false)
	if err != nil {
		t.Fatalf("ConfirmNuke() error = %v", err)
	}
	if ok {
		t.Fatal("expected 'no' to not confirm")
	}

	ok, err = ConfirmNuke(strings.NewReader("yes\n"), &bytes.Buffer{}, false)
	if err != nil {
		t.Fatalf("ConfirmNuke() error = %v", err)
	}
	if !ok {
		t.Fatal("expected 'yes' to confirm")
	}
}
