package core

// Compressor implements one member of the compression family named by a
// descriptor string (e.g. "gzip:6") — §4.2 C2.
type Compressor interface {
	// Descriptor is the exact string persisted in Inode.Compress.
	Descriptor() string
	Compress(plaintext []byte) ([]byte, error)
	Decompress(compressed []byte) ([]byte, error)
}

// CompressorFamily builds a Compressor for a given level, and reports the
// family name persisted in persistent_settings as SettingCompressionFamily.
type CompressorFamily interface {
	Name() string
	New(level int) (Compressor, error)
}

// Encryptor performs per-blob authenticated encryption. Key derivation is
// internal to the implementation; EncKey is an opaque token that a later
// call to Decrypt can use to recover the same derived key.
type Encryptor interface {
	// Encrypt derives a fresh salt and nonce, returns the ciphertext and
	// the token to persist as Inode.EncKey.
	Encrypt(plaintext []byte) (ciphertext []byte, encKey string, err error)

	// Decrypt reverses Encrypt given the token produced by it.
	Decrypt(ciphertext []byte, encKey string) (plaintext []byte, err error)
}

// CodecChain composes compression and encryption in the fixed order
// mandated by §4.2: compress first, then encrypt; compression is forced off
// whenever encryption is active.
type CodecChain struct {
	Compressor Compressor // nil if no compression
	Encryptor  Encryptor  // nil if no encryption
}

// Encode applies compression (if configured) then encryption (if
// configured) and returns the wire bytes plus the descriptors to persist.
func (c CodecChain) Encode(plaintext []byte) (wire []byte, compress, encKey string, err error) {
	data := plaintext
	if c.Encryptor == nil && c.Compressor != nil {
		data, err = c.Compressor.Compress(data)
		if err != nil {
			return nil, "", "", err
		}
		compress = c.Compressor.Descriptor()
	}
	if c.Encryptor != nil {
		data, encKey, err = c.Encryptor.Encrypt(data)
		if err != nil {
			return nil, "", "", err
		}
	}
	return data, compress, encKey, nil
}

// Decode reverses Encode given the descriptors stored on the inode.
func (c CodecChain) Decode(wire []byte, compress, encKey string) ([]byte, error) {
	data := wire
	var err error
	if encKey != "" {
		if c.Encryptor == nil {
			return nil, NewError(KindIncompatibleConfig, "codec.decode", "", nil)
		}
		data, err = c.Encryptor.Decrypt(data, encKey)
		if err != nil {
			return nil, err
		}
	}
	if compress != "" {
		if c.Compressor == nil {
			return nil, NewError(KindIncompatibleConfig, "codec.decode", "", nil)
		}
		data, err = c.Compressor.Decompress(data)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}
