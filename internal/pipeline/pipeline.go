// Package pipeline implements the replicated, content-addressed blob
// pipeline that mediates every read and write between the façade and the
// configured backend(s).
package pipeline

import (
	"crypto/sha512"
	"encoding/hex"

	"innerfs/internal/codec"
	"innerfs/internal/core"
)

// Store is the subset of core.MetadataStore the pipeline needs for dedup
// and orphan detection; core.MetadataStore satisfies it directly.
type Store interface {
	FindBlobBySha512(sha512 string) (encKey, compress string, found bool, err error)
	BlobRefCount(sha512, encKey, compress string) (int, error)
}

// UniquenessHint mirrors original_source's ObjectStorage::get_uniqueness_test,
// grounded on obj_storage/mod.rs's UniquenessTest enum. It tells Release how
// to decide whether a backend object is still referenced before deleting it.
// SPEC_FULL keeps this internal to the pipeline: no other package needs to
// know how a backend names its objects.
type UniquenessHint int

const (
	// HintContentAddressed means ObjectName is a pure function of
	// (sha512, encKey, compress), so two inodes that produce the same
	// triple always share one backend object and Release's refcount
	// check on that triple is sufficient by itself. Every backend in
	// this pipeline (filesystem, kv, sqlar, s3, memory) is named this
	// way regardless of UseHashAsFilename, since that flag only changes
	// how much of the triple is folded into the name, not whether the
	// name is content-derived; this is the only hint any of them report.
	HintContentAddressed UniquenessHint = iota
	// HintAlwaysUnique means Put never produces a name two inodes could
	// share, so Release must delete the object unconditionally instead
	// of consulting the refcount. The original reserves this for a
	// backend that re-encrypts each object under its own fresh key
	// (encrypted_object_storage.rs) independent of the inode's recorded
	// encryption_key; no backend in this port does that, since §4.2
	// derives ciphertext identity from the inode's own encryption_key
	// before the object is ever named, so this value is never produced
	// today but is kept so a future such backend has a home to report it.
	HintAlwaysUnique
)

// ReplicatedPipeline implements core.BlobPipeline, fanning writes out to a
// primary backend and, in order, a set of replicas. Grounded on
// original_source's ReplicatedObjectStorage: writes go to the primary
// first, then every replica in list order; reads only ever touch the
// primary, since any replica is assumed to hold the same bytes under the
// same name once a write has succeeded there.
type ReplicatedPipeline struct {
	Primary           core.Backend
	Replicas          []core.Backend
	Store             Store
	Codec             core.CodecChain
	UseHashAsFilename bool
	Logger            core.Logger

	// Hint governs Release's orphan check. The zero value,
	// HintContentAddressed, is correct for every backend this pipeline
	// ships with.
	Hint UniquenessHint
}

func sha512Hex(data []byte) string {
	sum := sha512.Sum512(data)
	return hex.EncodeToString(sum[:])
}

// Write implements core.BlobPipeline. It hashes the plaintext first so an
// inode overwriting itself with identical bytes short-circuits straight to
// its existing (sha512, encKey, compress) triple, even under encryption.
// Absent that, an unencrypted twin already held by another inode is reused
// together with the compression descriptor it was stored under, whatever
// the current codec chain is; encrypted bodies never dedup across inodes,
// since each inode's key material is its own (§4.3 step 2).
func (p *ReplicatedPipeline) Write(plaintext []byte, existingSha, existingEncKey, existingCompress string) (string, string, string, error) {
	sha := sha512Hex(plaintext)

	if existingSha != "" && sha == existingSha {
		return sha, existingEncKey, existingCompress, nil
	}

	if encKey, compress, found, err := p.Store.FindBlobBySha512(sha); err != nil {
		return "", "", "", err
	} else if found {
		return sha, encKey, compress, nil
	}

	wire, compress, encKey, err := p.Codec.Encode(plaintext)
	if err != nil {
		return "", "", "", err
	}

	name := p.ObjectName(sha, encKey, compress)
	if err := p.Primary.Put(name, wire); err != nil {
		return "", "", "", err
	}
	for _, replica := range p.Replicas {
		if err := replica.Put(name, wire); err != nil {
			// §4.3/§7: a replica failure fails the whole flush and
			// leaves the metadata row un-updated. The primary write is
			// not rolled back; a retry re-uploads identical content
			// under the same content-addressed name, so it is
			// idempotent on all replicas including the primary.
			return "", "", "", core.NewError(core.KindBackendIO, "pipeline.write", name, err)
		}
	}
	return sha, encKey, compress, nil
}

// Read implements core.BlobPipeline, reading from the primary only and
// reversing the codec chain used at write time. The returned plaintext's
// sha512 is checked against the expected value so silent backend
// corruption surfaces as an error rather than wrong bytes.
func (p *ReplicatedPipeline) Read(sha, encKey, compress string) ([]byte, error) {
	name := p.ObjectName(sha, encKey, compress)
	wire, err := p.Primary.Get(name)
	if err != nil {
		return nil, err
	}
	chain, err := p.chainFor(encKey, compress)
	if err != nil {
		return nil, err
	}
	plaintext, err := chain.Decode(wire, compress, encKey)
	if err != nil {
		return nil, err
	}
	if got := sha512Hex(plaintext); got != sha {
		return nil, core.NewError(core.KindIntegrityFailure, "pipeline.read", name, nil)
	}
	return plaintext, nil
}

// Release drops the caller's reference to the (sha, encKey, compress)
// tuple. It is called while the caller's inode row still holds the tuple,
// and deletes the backend object when no other inode references it.
func (p *ReplicatedPipeline) Release(sha, encKey, compress string) error {
	if p.Hint != HintAlwaysUnique {
		count, err := p.Store.BlobRefCount(sha, encKey, compress)
		if err != nil {
			return err
		}
		if count > 1 {
			return nil
		}
	}
	name := p.ObjectName(sha, encKey, compress)
	if err := p.Primary.Delete(name); err != nil {
		return err
	}
	for _, replica := range p.Replicas {
		if err := replica.Delete(name); err != nil {
			p.Logger.Warn("replica delete failed", "name", name, "err", err)
		}
	}
	return nil
}

// ObjectName implements core.BlobPipeline. This pipeline always names
// objects from content, never from the inode's path: write-time dedup
// (Write's FindBlobBySha512 lookup) only holds if two inodes with the same
// plaintext land on the same backend name, which a path-derived name could
// never guarantee. UseHashAsFilename therefore only toggles how much of
// the (sha, encKey, compress) triple is folded into the name — the bare
// digest when true, the digest plus an encKey/compress suffix when false —
// not a switch between content-addressed and path-based schemes. Config
// reconciliation (C8, internal/config/reconcile.go) refuses to start with
// UseHashAsFilename false and encryption on, since that is the one
// combination spec.md requires path-form naming to be impossible for.
func (p *ReplicatedPipeline) ObjectName(sha, encKey, compress string) string {
	if p.UseHashAsFilename {
		return sha
	}
	name := sha
	if encKey != "" {
		name += "-" + encKey[:min(16, len(encKey))]
	}
	if compress != "" {
		name += "-" + compress
	}
	return name
}

func (p *ReplicatedPipeline) chainFor(encKey, compress string) (core.CodecChain, error) {
	chain := p.Codec
	if compress != "" {
		comp, err := codec.NewCompressorForDescriptor(compress)
		if err != nil {
			return core.CodecChain{}, err
		}
		chain.Compressor = comp
	} else {
		chain.Compressor = nil
	}
	if encKey == "" {
		chain.Encryptor = nil
	}
	return chain, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
