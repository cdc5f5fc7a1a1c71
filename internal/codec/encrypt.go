package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"innerfs/internal/core"
)

const (
	pbkdf2Iterations = 256
	keyLength        = 32 // AES-256
	saltLength       = 16
	nonceLength      = 12
	// aad is a fixed associated-data string rather than per-content AAD;
	// the original implementation bound AAD to the content's own sha512,
	// but spec.md's narrower encryption_key format (salt+nonce only, no
	// key-check tag) implies a content-independent AAD.
	aad = "innerfs-blob"
)

// AESGCMEncryptor implements core.Encryptor with AES-256-GCM, deriving a
// per-blob key from a shared passphrase via PBKDF2-HMAC-SHA256. The
// persisted EncKey token is hex(salt) + hex(nonce); the key itself is never
// stored anywhere, matching spec.md §4.2.
type AESGCMEncryptor struct {
	passphrase []byte
}

func NewAESGCMEncryptor(passphrase string) *AESGCMEncryptor {
	return &AESGCMEncryptor{passphrase: []byte(passphrase)}
}

func (e *AESGCMEncryptor) deriveKey(salt []byte) []byte {
	return pbkdf2.Key(e.passphrase, salt, pbkdf2Iterations, keyLength, sha256.New)
}

func (e *AESGCMEncryptor) Encrypt(plaintext []byte) ([]byte, string, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, "", core.NewError(core.KindBackendIO, "aesgcm.encrypt", "", err)
	}
	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, "", core.NewError(core.KindBackendIO, "aesgcm.encrypt", "", err)
	}
	gcm, err := e.gcmFor(salt)
	if err != nil {
		return nil, "", err
	}
	ciphertext := gcm.Seal(nil, nonce, plaintext, []byte(aad))
	encKey := hex.EncodeToString(salt) + hex.EncodeToString(nonce)
	return ciphertext, encKey, nil
}

func (e *AESGCMEncryptor) Decrypt(ciphertext []byte, encKey string) ([]byte, error) {
	salt, nonce, err := splitEncKey(encKey)
	if err != nil {
		return nil, err
	}
	gcm, err := e.gcmFor(salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, []byte(aad))
	if err != nil {
		return nil, core.NewError(core.KindDecodeFailure, "aesgcm.decrypt", "", err)
	}
	return plaintext, nil
}

func (e *AESGCMEncryptor) gcmFor(salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(e.deriveKey(salt))
	if err != nil {
		return nil, core.NewError(core.KindBackendIO, "aesgcm.newCipher", "", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, core.NewError(core.KindBackendIO, "aesgcm.newGCM", "", err)
	}
	return gcm, nil
}

func splitEncKey(encKey string) (salt, nonce []byte, err error) {
	raw, err := hex.DecodeString(encKey)
	if err != nil {
		return nil, nil, core.NewError(core.KindInvalidName, "aesgcm.splitEncKey", encKey, err)
	}
	if len(raw) != saltLength+nonceLength {
		return nil, nil, core.NewError(core.KindInvalidName, "aesgcm.splitEncKey", encKey, nil)
	}
	return raw[:saltLength], raw[saltLength:], nil
}
