// Package secrets provides authenticated encryption for data at rest.
//
// A master key of at least 32 bytes is stretched with HKDF-SHA256 into a
// purpose-bound key, which then encrypts with XChaCha20-Poly1305. The purpose
// string is also bound as associated data, so a blob sealed for one purpose
// does not open under another.
//
//	key, _ := secrets.GenerateKey()
//	sealed, err := secrets.Seal(key, "credentials", payload)
//	...
//	payload, err = secrets.Open(key, "credentials", sealed)
//
// EncryptString and DecryptString wrap the same operations with URL-safe base64
// for text columns and environment variables.
package secrets
