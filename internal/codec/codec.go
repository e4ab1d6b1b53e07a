// Package codec protects values at rest.
//
// The default XOR codec is obfuscation only: it is deterministic, carries no
// nonce and no authentication, so equal plaintexts give equal ciphertexts.
// Use the AEAD codec where confidentiality matters; both satisfy Codec and
// the store does not care which one it is given.
package codec

// Codec is a reversible byte transform
type Codec interface {
	Encode(plaintext []byte) ([]byte, error)
	Decode(ciphertext []byte) ([]byte, error)
}
