package pool

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// passwordEncoding keeps encrypted passwords copy-paste friendly in TOML.
var passwordEncoding = base64.RawStdEncoding

// deriveKey expands the root secret into an AES-256 key bound to one
// username/database pair, so a ciphertext leaked from one pool entry cannot
// be replayed into another.
func deriveKey(secretKey []byte, username, database string) ([]byte, error) {
	info := []byte(username + "@" + database)
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secretKey, nil, info), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// EncryptPassword encrypts a database password for storage in the
// configuration file. The result is base64 over nonce||ciphertext.
func EncryptPassword(secretKey []byte, username, database, password string) (string, error) {
	key, err := deriveKey(secretKey, username, database)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(password), nil)
	return passwordEncoding.EncodeToString(sealed), nil
}

// DecryptPassword reverses EncryptPassword. It fails when the value is not
// a valid ciphertext for this username/database pair, which lets callers
// fall back to treating the configured value as a plaintext password.
func DecryptPassword(secretKey []byte, username, database, encrypted string) (string, error) {
	sealed, err := passwordEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("decode password: %w", err)
	}
	key, err := deriveKey(secretKey, username, database)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(sealed) < gcm.NonceSize() {
		return "", fmt.Errorf("decode password: ciphertext too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt password: %w", err)
	}
	return string(plain), nil
}
