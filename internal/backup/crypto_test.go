package backup

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.db")
	enc := filepath.Join(dir, "plain.db.enc")
	dec := filepath.Join(dir, "restored.db")

	content := []byte("ledger snapshot bytes")
	if err := os.WriteFile(src, content, 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}

	if err := EncryptFile(src, enc, "family passphrase", salt); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	encrypted, err := os.ReadFile(enc)
	if err != nil {
		t.Fatalf("read encrypted: %v", err)
	}
	if bytes.Contains(encrypted, content) {
		t.Fatal("ciphertext contains plaintext")
	}
	if !bytes.Equal(encrypted[:saltSize], salt) {
		t.Error("salt should prefix the encrypted file")
	}

	if err := DecryptFile(enc, dec, "family passphrase"); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	restored, err := os.ReadFile(dec)
	if err != nil {
		t.Fatalf("read restored: %v", err)
	}
	if !bytes.Equal(restored, content) {
		t.Errorf("restored = %q, want %q", restored, content)
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.db")
	enc := filepath.Join(dir, "plain.db.enc")

	if err := os.WriteFile(src, []byte("secret"), 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}
	if err := EncryptFile(src, enc, "right", salt); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if err := DecryptFile(enc, filepath.Join(dir, "out.db"), "wrong"); err == nil {
		t.Error("expected decryption to fail with the wrong passphrase")
	}
}

func TestDecryptTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	enc := filepath.Join(dir, "tiny.enc")
	if err := os.WriteFile(enc, []byte("short"), 0600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if err := DecryptFile(enc, filepath.Join(dir, "out.db"), "any"); err == nil {
		t.Error("expected truncated file to be rejected")
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}

	a := DeriveKey("passphrase", salt)
	b := DeriveKey("passphrase", salt)
	if !bytes.Equal(a, b) {
		t.Error("same passphrase and salt should derive the same key")
	}

	other, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}
	c := DeriveKey("passphrase", other)
	if bytes.Equal(a, c) {
		t.Error("different salts should derive different keys")
	}
}
