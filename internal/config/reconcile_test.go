package config

import (
	"testing"

	"innerfs/internal/core"
	"innerfs/internal/testutil"
)

func TestReconcileWritesSettingsOnFirstMount(t *testing.T) {
	store := testutil.NewTestStore(t)
	cfg := Default()
	cfg.UseHashAsFilename = true

	if err := Reconcile(store, cfg); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	got, ok, err := store.GetSetting(core.SettingUseHashAsFilename)
	if err != nil {
		t.Fatalf("GetSetting() error = %v", err)
	}
	if !ok || got != "true" {
		t.Fatalf("GetSetting(use_hash_as_filename) = %q, %v, want true, true", got, ok)
	}

	got, _, err = store.GetSetting(core.SettingStorageBackend)
	if err != nil {
		t.Fatalf("GetSetting() error = %v", err)
	}
	if got != "filesystem" {
		t.Fatalf("GetSetting(storage_backend) = %q, want filesystem", got)
	}
}

func TestReconcileAcceptsMatchingConfig(t *testing.T) {
	store := testutil.NewTestStore(t)
	cfg := Default()

	if err := Reconcile(store, cfg); err != nil {
		t.Fatalf("first Reconcile() error = %v", err)
	}
	if err := Reconcile(store, cfg); err != nil {
		t.Fatalf("second Reconcile() error = %v", err)
	}
}

func TestReconcileRejectsChangedBackend(t *testing.T) {
	store := testutil.NewTestStore(t)
	cfg := Default()
	if err := Reconcile(store, cfg); err != nil {
		t.Fatalf("first Reconcile() error = %v", err)
	}

	changed := Default()
	changed.Type = "s3"
	if err := Reconcile(store, changed); core.KindOf(err) != core.KindIncompatibleConfig {
		t.Fatalf("expected KindIncompatibleConfig, got %v", err)
	}
}

func TestReconcileRejectsChangedEncryption(t *testing.T) {
	store := testutil.NewTestStore(t)
	cfg := Default()
	cfg.UseHashAsFilename = true
	if err := Reconcile(store, cfg); err != nil {
		t.Fatalf("first Reconcile() error = %v", err)
	}

	changed := Default()
	changed.UseHashAsFilename = true
	changed.EncryptionKey = "newly added passphrase"
	if err := Reconcile(store, changed); core.KindOf(err) != core.KindIncompatibleConfig {
		t.Fatalf("expected KindIncompatibleConfig, got %v", err)
	}
}
