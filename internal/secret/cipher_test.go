package secret

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSalt = "c2FsdHNhbHRzYWx0c2FsdHNhbHRzYWx0c2FsdHNhbHQ=" // 32 bytes

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher("master-secret", testSalt)
	require.NoError(t, err)

	encrypted, err := c.Encrypt("my_password")
	require.NoError(t, err)
	assert.NotEqual(t, "my_password", encrypted)

	plaintext, err := c.Decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "my_password", plaintext)
}

func TestCipher_EncryptTrimsOnce(t *testing.T) {
	c, err := NewCipher("master-secret", testSalt)
	require.NoError(t, err)

	encrypted, err := c.Encrypt("  my_password ")
	require.NoError(t, err)

	plaintext, err := c.Decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "my_password", plaintext)
}

func TestCipher_NonceVariesPerEncryption(t *testing.T) {
	c, err := NewCipher("master-secret", testSalt)
	require.NoError(t, err)

	first, err := c.Encrypt("my_password")
	require.NoError(t, err)
	second, err := c.Encrypt("my_password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCipher_SameSecretsDeriveSameKey(t *testing.T) {
	// Ciphertexts must survive process restarts: a fresh cipher built from
	// the same master key and salt must decrypt older output.
	writer, err := NewCipher("master-secret", testSalt)
	require.NoError(t, err)
	encrypted, err := writer.Encrypt("my_password")
	require.NoError(t, err)

	reader, err := NewCipher("master-secret", testSalt)
	require.NoError(t, err)
	plaintext, err := reader.Decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "my_password", plaintext)
}

func TestCipher_WrongMasterKeyFails(t *testing.T) {
	writer, err := NewCipher("master-secret", testSalt)
	require.NoError(t, err)
	encrypted, err := writer.Encrypt("my_password")
	require.NoError(t, err)

	reader, err := NewCipher("other-secret", testSalt)
	require.NoError(t, err)
	_, err = reader.Decrypt(encrypted)
	require.Error(t, err)
}

func TestCipher_MissingSecrets(t *testing.T) {
	_, err := NewCipher("", testSalt)
	assert.ErrorIs(t, err, ErrMasterKeyNotSet)

	_, err = NewCipher("master-secret", "")
	assert.ErrorIs(t, err, ErrMasterKeyNotSet)
}

func TestCipher_InvalidSalt(t *testing.T) {
	_, err := NewCipher("master-secret", "not-base64!!!")
	require.Error(t, err)
}

func TestCipher_DecryptGarbage(t *testing.T) {
	c, err := NewCipher("master-secret", testSalt)
	require.NoError(t, err)

	_, err = c.Decrypt("@@not-base64@@")
	require.Error(t, err)

	_, err = c.Decrypt(base64.StdEncoding.EncodeToString([]byte("short")))
	require.Error(t, err, "truncated ciphertext must fail")
}

func TestGenerateSalt(t *testing.T) {
	first, err := GenerateSalt()
	require.NoError(t, err)
	second, err := GenerateSalt()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	raw, err := base64.StdEncoding.DecodeString(first)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}
