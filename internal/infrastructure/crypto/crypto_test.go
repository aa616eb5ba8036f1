package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "01234567890123456789012345678901" // 32 bytes

func newTestEncryptor(t *testing.T) *Encryptor {
	t.Helper()
	enc, err := NewEncryptor(testKey)
	require.NoError(t, err)
	return enc
}

func TestNewEncryptor_InvalidKey(t *testing.T) {
	for _, key := range []string{"", "too-short", testKey + "x"} {
		_, err := NewEncryptor(key)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestEncryptDecrypt_Roundtrip(t *testing.T) {
	enc := newTestEncryptor(t)

	tests := []struct {
		name      string
		plaintext string
	}{
		{"access credential", "access-sandbox-8ab976e6-64bc-4b38-98f7-731e7a349970"},
		{"unicode", "café ☕ ¥100"},
		{"long", strings.Repeat("credential ", 1000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, err := enc.Encrypt(tt.plaintext)
			require.NoError(t, err)
			assert.NotEqual(t, tt.plaintext, ciphertext)
			assert.NotContains(t, ciphertext, "access-sandbox")

			decrypted, err := enc.Decrypt(ciphertext)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, decrypted)
		})
	}
}

func TestEmptyStringPassesThrough(t *testing.T) {
	enc := newTestEncryptor(t)

	c, err := enc.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, c)

	p, err := enc.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, p)
}

func TestEncrypt_NonceDiffers(t *testing.T) {
	enc := newTestEncryptor(t)

	c1, err := enc.Encrypt("same text")
	require.NoError(t, err)
	c2, err := enc.Encrypt("same text")
	require.NoError(t, err)

	assert.NotEqual(t, c1, c2)
}

func TestDecrypt_Rejects(t *testing.T) {
	enc := newTestEncryptor(t)
	ciphertext, err := enc.Encrypt("secret data")
	require.NoError(t, err)

	other, err := NewEncryptor("98765432109876543210987654321098")
	require.NoError(t, err)

	tampered := []byte(ciphertext)
	mid := len(tampered) / 2
	if tampered[mid] == 'A' {
		tampered[mid] = 'B'
	} else {
		tampered[mid] = 'A'
	}

	tests := []struct {
		name    string
		enc     *Encryptor
		input   string
		wantErr error
	}{
		{"invalid base64", enc, "not-valid-base64!!!", ErrMalformedCipher},
		{"shorter than nonce", enc, "YQ==", ErrMalformedCipher},
		{"tampered", enc, string(tampered), ErrDecryptionFailure},
		{"wrong key", other, ciphertext, ErrDecryptionFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.enc.Decrypt(tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
