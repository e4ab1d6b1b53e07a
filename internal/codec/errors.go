package codec

import "codeberg.org/mutker/hoststate/internal/errors"

const (
	ErrInvalidKey   = errors.ErrorCode("codec_invalid_key")
	ErrEncodeFailed = errors.ErrorCode("codec_encode_failed")
	ErrDecodeFailed = errors.ErrorCode("codec_decode_failed")
)

func init() {
	errors.RegisterMessages(map[errors.ErrorCode]string{
		ErrInvalidKey:   "Codec key is invalid",
		ErrEncodeFailed: "Failed to encode value",
		ErrDecodeFailed: "Failed to decode value",
	})
}
