package credential

import (
	"github.com/dmitrymomot/voyagerkit/pkg/secrets"
)

// sealPurpose binds sealed blobs to credential storage.
const sealPurpose = "voyagerkit/credential-set"

// Codec converts a Set to and from its persisted form.
type Codec interface {
	Encode(s Set) ([]byte, error)
	Decode(data []byte) (Set, error)
}

// JSONCodec persists sets as plain JSON.
type JSONCodec struct{}

// Encode implements Codec.
func (JSONCodec) Encode(s Set) ([]byte, error) {
	return s.MarshalJSON()
}

// Decode implements Codec.
func (JSONCodec) Decode(data []byte) (Set, error) {
	return Parse(data)
}

// SealedCodec encrypts the JSON form of a set with a master key.
type SealedCodec struct {
	key []byte
}

// NewSealedCodec returns a codec sealing with key, which must be at least
// secrets.KeySize bytes long.
func NewSealedCodec(key []byte) (*SealedCodec, error) {
	if len(key) < secrets.KeySize {
		return nil, secrets.ErrInvalidKey
	}
	return &SealedCodec{key: append([]byte(nil), key...)}, nil
}

// Encode implements Codec.
func (c *SealedCodec) Encode(s Set) ([]byte, error) {
	plain, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return secrets.Seal(c.key, sealPurpose, plain)
}

// Decode implements Codec. Empty input decodes to the empty set.
func (c *SealedCodec) Decode(data []byte) (Set, error) {
	if len(data) == 0 {
		return Set{}, nil
	}
	plain, err := secrets.Open(c.key, sealPurpose, data)
	if err != nil {
		return Set{}, err
	}
	return Parse(plain)
}
