package secrets

import "errors"

var (
	// ErrInvalidKey is returned when a master key is shorter than KeySize.
	ErrInvalidKey = errors.New("secrets: key must be at least 32 bytes")
	// ErrCiphertextTooShort is returned when sealed data cannot hold a nonce and tag.
	ErrCiphertextTooShort = errors.New("secrets: ciphertext too short")
	// ErrDecryptionFailed is returned when authentication fails, usually a wrong key or tampered data.
	ErrDecryptionFailed = errors.New("secrets: decryption failed")
	// ErrInvalidEncoding is returned when a string is not valid base64.
	ErrInvalidEncoding = errors.New("secrets: invalid base64 encoding")
)
