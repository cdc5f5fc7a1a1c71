package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestReadWriteRoundTrip(t *testing.T) {
	original := &Config{
		DatabaseFile: "/data/innerfs/index.db",
		MountPoint:   "/mnt/innerfs",
		BackendConfig: BackendConfig{
			Type:        "filesystem",
			BlobStorage: "/data/innerfs/blob",
		},
		EncryptionKey:          "correct horse battery staple",
		UpdateAccessTime:       true,
		UseHashAsFilename:      true,
		StoreFileChangeHistory: true,
		CompressionLevel:       9,
		Replicas: []BackendConfig{
			{Type: "s3", S3Bucket: "innerfs-replica", S3Region: "us-east-1"},
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.DatabaseFile != original.DatabaseFile {
		t.Errorf("DatabaseFile = %q, want %q", got.DatabaseFile, original.DatabaseFile)
	}
	if got.MountPoint != original.MountPoint {
		t.Errorf("MountPoint = %q, want %q", got.MountPoint, original.MountPoint)
	}
	if got.Type != "filesystem" {
		t.Errorf("Type = %q, want %q", got.Type, "filesystem")
	}
	if got.BlobStorage != original.BlobStorage {
		t.Errorf("BlobStorage = %q, want %q", got.BlobStorage, original.BlobStorage)
	}
	if !got.Encrypted() {
		t.Error("expected Encrypted() true")
	}
	if !got.UseHashAsFilename {
		t.Error("expected UseHashAsFilename true")
	}
	if got.CompressionLevel != 9 {
		t.Errorf("CompressionLevel = %d, want 9", got.CompressionLevel)
	}
	if len(got.Replicas) != 1 {
		t.Fatalf("len(Replicas) = %d, want 1", len(got.Replicas))
	}
	if got.Replicas[0].Type != "s3" {
		t.Errorf("Replicas[0].Type = %q, want %q", got.Replicas[0].Type, "s3")
	}
	if got.Replicas[0].S3Bucket != "innerfs-replica" {
		t.Errorf("Replicas[0].S3Bucket = %q, want %q", got.Replicas[0].S3Bucket, "innerfs-replica")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Type != "filesystem" {
		t.Errorf("Type = %q, want %q", cfg.Type, "filesystem")
	}
	if cfg.Encrypted() {
		t.Error("expected default config unencrypted")
	}
	if !cfg.StoreFileChangeHistory {
		t.Error("expected StoreFileChangeHistory true by default")
	}
}

func TestReadFillsDefaultsForOmittedFields(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("database_file: /x/index.db\n")

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.DatabaseFile != "/x/index.db" {
		t.Errorf("DatabaseFile = %q, want %q", got.DatabaseFile, "/x/index.db")
	}
	if got.CompressionLevel != 6 {
		t.Errorf("CompressionLevel = %d, want default 6", got.CompressionLevel)
	}
	if got.Type != "filesystem" {
		t.Errorf("Type = %q, want default %q", got.Type, "filesystem")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yml")
		cfg := Default()

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yml")
		cfg := Default()

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}
		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yml")
		cfg := Default()
		cfg.DatabaseFile = "/custom/index.db"

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.DatabaseFile != "/custom/index.db" {
			t.Errorf("DatabaseFile = %q, want %q", got.DatabaseFile, "/custom/index.db")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/config.yml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}

func TestValidateS3RequiresCredentials(t *testing.T) {
	b := &BackendConfig{Type: "s3"}
	if err := b.Validate(); err == nil {
		t.Fatal("expected error for s3 backend missing credentials")
	}

	b = &BackendConfig{
		Type: "s3", S3Bucket: "b", S3Region: "us-east-1",
		S3AccessKey: "ak", S3SecretKey: "sk",
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateFilesystemRequiresBlobStorage(t *testing.T) {
	b := &BackendConfig{Type: "filesystem"}
	if err := b.Validate(); err == nil {
		t.Fatal("expected error for filesystem backend missing blob_storage")
	}
}

func TestValidateUnknownBackend(t *testing.T) {
	b := &BackendConfig{Type: "tape"}
	if err := b.Validate(); err == nil {
		t.Fatal("expected error for unknown storage backend")
	}
}
