package bus

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// structTag makes msgpack reuse the json field names of payload types.
const structTag = "json"

// Encode serializes v with msgpack.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag(structTag)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes msgpack data into v.
func Decode(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag(structTag)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}

// DecodeBody decodes the body of msg into v.
func DecodeBody(msg Message, v any) error {
	if len(msg.Body) == 0 {
		return fmt.Errorf("decode %T: empty body on %s", v, msg.Queue)
	}
	return Decode(msg.Body, v)
}
