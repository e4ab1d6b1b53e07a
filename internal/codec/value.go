package codec

import (
	"bytes"
	"encoding/json"
	"io"

	"codeberg.org/mutker/hoststate/internal/errors"
)

// ValueCodec turns structured values into protected bytes and back.
// Values are serialized as JSON before the byte transform.
type ValueCodec struct {
	codec Codec
}

func NewValueCodec(c Codec) *ValueCodec {
	if c == nil {
		c = Default()
	}
	return &ValueCodec{codec: c}
}

func (v *ValueCodec) Marshal(value any) ([]byte, error) {
	errFactory := errors.New()

	plaintext, err := json.Marshal(value)
	if err != nil {
		return nil, errFactory.Wrap(ErrEncodeFailed, err)
	}

	encoded, err := v.codec.Encode(plaintext)
	if err != nil {
		return nil, errFactory.Wrap(ErrEncodeFailed, err)
	}

	return encoded, nil
}

// Unmarshal reverses Marshal into out. Any failure, whether in the byte
// transform or in JSON decoding, is reported as ErrDecodeFailed; a wrong key
// and corrupted bytes are indistinguishable here.
func (v *ValueCodec) Unmarshal(data []byte, out any) error {
	errFactory := errors.New()

	plaintext, err := v.codec.Decode(data)
	if err != nil {
		return errFactory.Wrap(ErrDecodeFailed, err)
	}

	dec := json.NewDecoder(bytes.NewReader(plaintext))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return errFactory.Wrap(ErrDecodeFailed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return errFactory.WithMessage(ErrDecodeFailed, "Trailing data after value")
	}

	return nil
}
