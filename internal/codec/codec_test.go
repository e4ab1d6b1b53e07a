package codec_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"codeberg.org/mutker/hoststate/internal/codec"
	"codeberg.org/mutker/hoststate/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXORRoundTrip(t *testing.T) {
	x, err := codec.NewXOR([]byte("k3y"))
	require.NoError(t, err)

	inputs := map[string][]byte{
		"empty":        {},
		"shorter":      []byte("a"),
		"exact":        []byte("abc"),
		"longer":       []byte("the quick brown fox jumps over the lazy dog"),
		"binary":       {0x00, 0xff, 0x10, 0x80, 0x7f},
		"all key byte": bytes.Repeat([]byte("k3y"), 10),
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			enc, err := x.Encode(in)
			require.NoError(t, err)
			assert.Len(t, enc, len(in))

			dec, err := x.Decode(enc)
			require.NoError(t, err)
			assert.Equal(t, in, dec)
		})
	}
}

func TestXORSelfInverseAndDeterministic(t *testing.T) {
	x := codec.Default()
	in := []byte(`{"initialized":true}`)

	first, err := x.Encode(in)
	require.NoError(t, err)
	second, err := x.Encode(in)
	require.NoError(t, err)
	assert.Equal(t, first, second, "no nonce, identical plaintexts give identical output")
	assert.NotEqual(t, in, first)

	twice, err := x.Encode(first)
	require.NoError(t, err)
	assert.Equal(t, in, twice)
}

func TestXORDoesNotAliasInput(t *testing.T) {
	key := []byte("key")
	x, err := codec.NewXOR(key)
	require.NoError(t, err)
	key[0] = 'X'

	in := []byte("value")
	enc, err := x.Encode(in)
	require.NoError(t, err)

	expected, err := codec.NewXOR([]byte("key"))
	require.NoError(t, err)
	want, err := expected.Encode(in)
	require.NoError(t, err)
	assert.Equal(t, want, enc)
	assert.Equal(t, []byte("value"), in)
}

func TestXOREmptyKey(t *testing.T) {
	_, err := codec.NewXOR(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, codec.ErrInvalidKey))
}

func TestAEADRoundTrip(t *testing.T) {
	a, err := codec.NewAEAD(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	for _, in := range [][]byte{{}, []byte("x"), bytes.Repeat([]byte("payload"), 100)} {
		enc, err := a.Encode(in)
		require.NoError(t, err)

		dec, err := a.Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, len(in), len(dec))
		if len(in) > 0 {
			assert.Equal(t, in, dec)
		}
	}
}

func TestAEADIsRandomized(t *testing.T) {
	a, err := codec.NewAEADFromPassphrase("hunter2")
	require.NoError(t, err)

	first, err := a.Encode([]byte("same"))
	require.NoError(t, err)
	second, err := a.Encode([]byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestAEADRejectsTamperingAndWrongKey(t *testing.T) {
	a, err := codec.NewAEADFromPassphrase("right")
	require.NoError(t, err)
	other, err := codec.NewAEADFromPassphrase("wrong")
	require.NoError(t, err)

	enc, err := a.Encode([]byte("secret"))
	require.NoError(t, err)

	_, err = other.Decode(enc)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, codec.ErrDecodeFailed))

	enc[len(enc)-1] ^= 0x01
	_, err = a.Decode(enc)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, codec.ErrDecodeFailed))

	_, err = a.Decode([]byte("short"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, codec.ErrDecodeFailed))
}

func TestAEADKeyValidation(t *testing.T) {
	_, err := codec.NewAEAD([]byte("short"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, codec.ErrInvalidKey))

	_, err = codec.NewAEADFromPassphrase("")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, codec.ErrInvalidKey))
}

func TestValueCodecRoundTrip(t *testing.T) {
	type record struct {
		Version     string `json:"version"`
		Initialized bool   `json:"initialized"`
		Count       int    `json:"count"`
	}

	for name, c := range map[string]codec.Codec{
		"xor":  codec.Default(),
		"aead": mustAEAD(t),
	} {
		t.Run(name, func(t *testing.T) {
			vc := codec.NewValueCodec(c)
			in := record{Version: "1.0.0", Initialized: true, Count: 3}

			data, err := vc.Marshal(in)
			require.NoError(t, err)
			assert.NotContains(t, string(data), "initialized")

			var out record
			require.NoError(t, vc.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestValueCodecGenericValues(t *testing.T) {
	vc := codec.NewValueCodec(nil)

	data, err := vc.Marshal(map[string]any{"n": 12, "s": "x", "list": []any{true, nil}})
	require.NoError(t, err)

	var out any
	require.NoError(t, vc.Unmarshal(data, &out))
	assert.Equal(t, map[string]any{
		"n":    json.Number("12"),
		"s":    "x",
		"list": []any{true, nil},
	}, out)
}

func TestValueCodecCorruptData(t *testing.T) {
	vc := codec.NewValueCodec(codec.Default())

	var out any
	err := vc.Unmarshal([]byte{0x01, 0x02, 0x03}, &out)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, codec.ErrDecodeFailed))

	data, err := vc.Marshal("value")
	require.NoError(t, err)

	otherKey, err := codec.NewXOR([]byte("another key entirely"))
	require.NoError(t, err)
	err = codec.NewValueCodec(otherKey).Unmarshal(data, &out)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, codec.ErrDecodeFailed))
}

func TestValueCodecTrailingData(t *testing.T) {
	x := codec.Default()
	vc := codec.NewValueCodec(x)

	for _, plaintext := range []string{"1}", "1]", "1 2", `{"a":1}}`} {
		encoded, err := x.Encode([]byte(plaintext))
		require.NoError(t, err)

		var out any
		err = vc.Unmarshal(encoded, &out)
		require.Error(t, err, plaintext)
		assert.True(t, errors.HasCode(err, codec.ErrDecodeFailed), plaintext)
	}

	encoded, err := x.Encode([]byte("1 \n"))
	require.NoError(t, err)
	var out any
	require.NoError(t, vc.Unmarshal(encoded, &out))
}

func TestValueCodecUnsupportedValue(t *testing.T) {
	_, err := codec.NewValueCodec(nil).Marshal(make(chan int))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, codec.ErrEncodeFailed))
}

func mustAEAD(t *testing.T) codec.Codec {
	t.Helper()
	a, err := codec.NewAEAD(bytes.Repeat([]byte{1}, 32))
	require.NoError(t, err)
	return a
}
