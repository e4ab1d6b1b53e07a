package codec

import (
	"crypto/cipher"
	"crypto/rand"
	"io"

	"codeberg.org/mutker/hoststate/internal/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
)

// kdfSalt is fixed so the same passphrase opens the same store across
// restarts. The store never holds the derived key.
var kdfSalt = []byte("hoststate/aead/kdf/v1")

// AEAD seals values with ChaCha20-Poly1305. Each Encode draws a fresh nonce
// which is prepended to the ciphertext; Decode fails on any tampering or on
// a different key.
type AEAD struct {
	aead cipher.AEAD
}

func NewAEAD(key []byte) (*AEAD, error) {
	errFactory := errors.New()

	if len(key) != chacha20poly1305.KeySize {
		return nil, errFactory.WithData(ErrInvalidKey, struct {
			Want int
			Got  int
		}{
			Want: chacha20poly1305.KeySize,
			Got:  len(key),
		})
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, errFactory.Wrap(ErrInvalidKey, err)
	}

	return &AEAD{aead: aead}, nil
}

// NewAEADFromPassphrase derives the key with argon2id
func NewAEADFromPassphrase(passphrase string) (*AEAD, error) {
	if passphrase == "" {
		return nil, errors.New().WithMessage(ErrInvalidKey, "Passphrase must not be empty")
	}

	key := argon2.IDKey([]byte(passphrase), kdfSalt, argon2Time, argon2Memory, argon2Threads, chacha20poly1305.KeySize)
	return NewAEAD(key)
}

func (a *AEAD) Encode(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, a.aead.NonceSize(), a.aead.NonceSize()+len(plaintext)+a.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.New().Wrap(ErrEncodeFailed, err)
	}

	return a.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (a *AEAD) Decode(ciphertext []byte) ([]byte, error) {
	errFactory := errors.New()

	if len(ciphertext) < a.aead.NonceSize()+a.aead.Overhead() {
		return nil, errFactory.WithMessage(ErrDecodeFailed, "Ciphertext too short")
	}

	nonce := ciphertext[:a.aead.NonceSize()]
	plaintext, err := a.aead.Open(nil, nonce, ciphertext[a.aead.NonceSize():], nil)
	if err != nil {
		return nil, errFactory.Wrap(ErrDecodeFailed, err)
	}

	return plaintext, nil
}
