package core

// BlobPipeline mediates every read and write of file bodies between the
// façade and the configured backend(s) — §4.3 C3. It owns content
// addressing, dedup, the codec chain and replica fan-out; callers never
// touch a Backend directly.
type BlobPipeline interface {
	// Write stores plaintext, returning the (sha512, encKey, compress)
	// triple to persist on the owning inode. existingSha/existingEncKey/existingCompress
	// is the triple the inode currently holds (empty strings for a new or
	// empty file); if plaintext hashes to existingSha, the call is an
	// inode overwriting itself with identical bytes and short-circuits to
	// the existing triple without touching the codec chain or a backend,
	// even when encryption is on. Otherwise an unencrypted twin already
	// recorded under another inode is reused with its own compression
	// descriptor, which need not match the current codec chain; encrypted
	// bodies never dedup across inodes since each gets its own key.
	Write(plaintext []byte, existingSha, existingEncKey, existingCompress string) (sha512, encKey, compress string, err error)

	// Read fetches and decodes the body addressed by the triple
	// previously returned from Write.
	Read(sha512, encKey, compress string) ([]byte, error)

	// Release drops the caller's reference to the given body tuple. It is
	// called while the caller's inode row still holds the tuple; when the
	// metadata store reports no reference besides that one, the pipeline
	// deletes the backend object(s) — the orphan GC from §4.3/§8.
	Release(sha512, encKey, compress string) error

	// ObjectName computes the backend object name for a body tuple,
	// honoring SettingUseHashAsFilename.
	ObjectName(sha512, encKey, compress string) string
}
