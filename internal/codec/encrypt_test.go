package codec

import (
	"bytes"
	"testing"
)

func TestAESGCMRoundTrip(t *testing.T) {
	enc := NewAESGCMEncryptor("correct horse battery staple")
	plaintext := []byte("the quick brown fox jumps over the lazy dog")

	ciphertext, encKey, err := enc.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if len(encKey) != (saltLength+nonceLength)*2 {
		t.Fatalf("unexpected encKey length %d", len(encKey))
	}
	if bytes.Equal(ciphertext, plaintext) {
		t.Fatal("ciphertext must not equal plaintext")
	}

	got, err := enc.Decrypt(ciphertext, encKey)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q want %q", got, plaintext)
	}
}

func TestAESGCMWrongPassphraseFails(t *testing.T) {
	enc := NewAESGCMEncryptor("passphrase-one")
	ciphertext, encKey, err := enc.Encrypt([]byte("secret body"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	other := NewAESGCMEncryptor("passphrase-two")
	if _, err := other.Decrypt(ciphertext, encKey); err == nil {
		t.Fatal("expected decryption to fail with wrong passphrase")
	}
}

func TestAESGCMDistinctBlobsGetDistinctKeys(t *testing.T) {
	enc := NewAESGCMEncryptor("shared passphrase")
	_, key1, err := enc.Encrypt([]byte("body one"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	_, key2, err := enc.Encrypt([]byte("body two"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if key1 == key2 {
		t.Fatal("expected distinct salt/nonce per blob")
	}
}

func TestSplitEncKeyRejectsMalformed(t *testing.T) {
	if _, _, err := splitEncKey("not-hex"); err == nil {
		t.Fatal("expected error for non-hex encKey")
	}
	if _, _, err := splitEncKey("aabb"); err == nil {
		t.Fatal("expected error for short encKey")
	}
}
