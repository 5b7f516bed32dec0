package credential_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/voyagerkit/core/credential"
	"github.com/dmitrymomot/voyagerkit/pkg/secrets"
)

func TestSealedCodec(t *testing.T) {
	t.Parallel()

	key := bytes.Repeat([]byte{9}, secrets.KeySize)
	codec, err := credential.NewSealedCodec(key)
	require.NoError(t, err)

	set := credential.New(map[string]credential.Entry{"li_at": {Value: "secret-token"}})

	data, err := codec.Encode(set)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret-token")

	decoded, err := codec.Decode(data)
	require.NoError(t, err)
	assert.True(t, decoded.Equal(set))

	empty, err := codec.Decode(nil)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	other, err := credential.NewSealedCodec(bytes.Repeat([]byte{1}, secrets.KeySize))
	require.NoError(t, err)
	_, err = other.Decode(data)
	assert.ErrorIs(t, err, secrets.ErrDecryptionFailed)

	_, err = credential.NewSealedCodec([]byte("short"))
	assert.ErrorIs(t, err, secrets.ErrInvalidKey)
}

func TestJSONCodec(t *testing.T) {
	t.Parallel()
	set := credential.New(map[string]credential.Entry{"li_at": {Value: "tok"}})

	data, err := credential.JSONCodec{}.Encode(set)
	require.NoError(t, err)
	assert.JSONEq(t, `{"li_at":{"value":"tok"}}`, string(data))

	decoded, err := credential.JSONCodec{}.Decode(data)
	require.NoError(t, err)
	assert.True(t, decoded.Equal(set))
}
