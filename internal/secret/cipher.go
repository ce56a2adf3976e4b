// Package secret implements the at-rest password cipher: an AES-256-GCM key
// derived from an operator master key and a stored salt via PBKDF2.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	kdfIterations = 100_000
	keyLen        = 32
)

// ErrMasterKeyNotSet is returned when a Cipher is constructed without a
// master key or salt.
var ErrMasterKeyNotSet = errors.New("encryption key not configured: set COUPONCLIP_MASTER_KEY and COUPONCLIP_SALT")

// Cipher encrypts and decrypts account passwords for storage. The key is
// derived once at construction; the same master key and salt always derive
// the same key, so ciphertexts survive process restarts.
type Cipher struct {
	key []byte
}

// NewCipher derives an AES-256 key from the master key and base64-encoded
// salt using PBKDF2-SHA256.
func NewCipher(masterKey, saltBase64 string) (*Cipher, error) {
	if masterKey == "" || saltBase64 == "" {
		return nil, ErrMasterKeyNotSet
	}

	salt, err := base64.StdEncoding.DecodeString(saltBase64)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}

	key := pbkdf2.Key([]byte(masterKey), salt, kdfIterations, keyLen, sha256.New)
	return &Cipher{key: key}, nil
}

// GenerateSalt returns a fresh random salt, base64-encoded for the operator
// to store in configuration.
func GenerateSalt() (string, error) {
	salt := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("rand salt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// Encrypt trims the plaintext once and seals it with AES-256-GCM, returning a
// base64 string containing the nonce prepended to the ciphertext. The trim
// guards against copy-pasted whitespace in operator input.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	sealed := gcm.Seal(nonce, nonce, []byte(strings.TrimSpace(plaintext)), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}
