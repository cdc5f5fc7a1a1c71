// Package app wires a config.Config into a fully constructed
// core.Facade, and implements the operations the CLI commands drive:
// stats, verify, export, nuke.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"innerfs/internal/backend"
	"innerfs/internal/codec"
	"innerfs/internal/config"
	"innerfs/internal/core"
	"innerfs/internal/metadata"
	"innerfs/internal/pipeline"
	"innerfs/internal/resolver"
)

// App is the application layer between the CLI/FUSE adapter and the core
// façade. It constructs every dependency from config and manages their
// lifecycle on Close.
type App struct {
	cfg       *config.Config
	store     *metadata.SQLiteStore
	primary   core.Backend
	replicas  []core.Backend
	Facade    *core.Facade
	logFile   *os.File
}

// New builds a fully wired App from cfg. opID identifies the invocation
// (one CLI command, or one mount) in every log line the process writes.
func New(cfg *config.Config, opID string) (*App, error) {
	store, err := metadata.NewSQLiteStore(cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("opening metadata store: %w", err)
	}

	logger, logFile, err := newLogger(cfg.MountPoint, opID)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	coreLogger := &slogAdapter{l: logger}

	if err := config.Reconcile(store, cfg); err != nil {
		store.Close()
		logFile.Close()
		return nil, fmt.Errorf("reconciling config against persisted settings: %w", err)
	}

	primary, err := newBackend(cfg.BackendConfig, store)
	if err != nil {
		store.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating primary backend: %w", err)
	}

	replicas := make([]core.Backend, 0, len(cfg.Replicas))
	for i, rc := range cfg.Replicas {
		rb, err := newBackend(rc, store)
		if err != nil {
			store.Close()
			logFile.Close()
			return nil, fmt.Errorf("creating replica backend %d: %w", i, err)
		}
		replicas = append(replicas, rb)
	}

	chain, err := newCodecChain(cfg)
	if err != nil {
		store.Close()
		logFile.Close()
		return nil, fmt.Errorf("building codec chain: %w", err)
	}

	pl := &pipeline.ReplicatedPipeline{
		Primary:           primary,
		Replicas:          replicas,
		Store:             store,
		Codec:             chain,
		UseHashAsFilename: cfg.UseHashAsFilename,
		Logger:            coreLogger,
	}

	clock := core.RealClock{}
	facade := &core.Facade{
		Store:            store,
		Pipeline:         pl,
		Resolver:         resolver.New(store, clock),
		Handles:          core.NewHandleTable(),
		Clock:            clock,
		Logger:           coreLogger,
		UpdateAccessTime: cfg.UpdateAccessTime,
		JournalEnabled:   cfg.StoreFileChangeHistory,
	}

	return &App{cfg: cfg, store: store, primary: primary, replicas: replicas, Facade: facade, logFile: logFile}, nil
}

// newBackend constructs the core.Backend a BackendConfig describes.
// sqlar shares the metadata store's own *sql.DB; the others own their
// storage independently.
func newBackend(bc config.BackendConfig, store *metadata.SQLiteStore) (core.Backend, error) {
	switch bc.Type {
	case "filesystem":
		return backend.NewFilesystemBackend(bc.BlobStorage)
	case "kv":
		return backend.NewKVBackend(bc.BlobStorage)
	case "sqlar":
		return backend.NewSqlarBackend(store.DB())
	case "s3":
		return backend.NewS3Backend(context.Background(), backend.S3Config{
			Bucket:   bc.S3Bucket,
			BasePath: bc.S3BasePath,
			Region:   bc.S3Region,
			Endpoint: bc.S3EndpointURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", bc.Type)
	}
}

// newCodecChain builds the CodecChain a config.Config describes.
// Compression is forced off whenever encryption is configured, mirroring
// core.CodecChain.Encode's own enforcement of that rule.
func newCodecChain(cfg *config.Config) (core.CodecChain, error) {
	var chain core.CodecChain
	if cfg.Encrypted() {
		chain.Encryptor = codec.NewAESGCMEncryptor(cfg.EncryptionKey)
		return chain, nil
	}
	if cfg.CompressionLevel > 0 {
		family := codec.GzipFamily{}
		compressor, err := family.New(cfg.CompressionLevel)
		if err != nil {
			return chain, err
		}
		chain.Compressor = compressor
	}
	return chain, nil
}

// MountPoint reports the directory the FUSE adapter should mount at.
func (a *App) MountPoint() string { return a.cfg.MountPoint }

// Close snapshots the metadata database and releases every resource New
// acquired.
func (a *App) Close() error {
	var firstErr error

	snapshotPath := a.cfg.DatabaseFile + ".snapshot-" + time.Now().UTC().Format("20060102T150405Z")
	if err := a.store.SnapshotTo(snapshotPath); err != nil {
		firstErr = fmt.Errorf("snapshotting database: %w", err)
	}

	if err := a.store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
