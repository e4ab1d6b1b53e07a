package codec

import "codeberg.org/mutker/hoststate/internal/errors"

// embeddedKey is compiled into the binary. It only discourages casual
// inspection of the store file.
var embeddedKey = []byte("hoststate:local-state:v1")

// XOR combines data with a key cycled to the data length. The transform is
// its own inverse.
type XOR struct {
	key []byte
}

func NewXOR(key []byte) (*XOR, error) {
	if len(key) == 0 {
		return nil, errors.New().New(ErrInvalidKey)
	}

	k := make([]byte, len(key))
	copy(k, key)

	return &XOR{key: k}, nil
}

// Default returns the XOR codec keyed with the embedded key
func Default() *XOR {
	return &XOR{key: embeddedKey}
}

func (x *XOR) Encode(plaintext []byte) ([]byte, error) {
	return x.apply(plaintext), nil
}

func (x *XOR) Decode(ciphertext []byte) ([]byte, error) {
	return x.apply(ciphertext), nil
}

func (x *XOR) apply(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ x.key[i%len(x.key)]
	}
	return out
}
