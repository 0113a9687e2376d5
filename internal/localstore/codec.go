package localstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang/snappy"
)

// Formato de valor persistido:
//
//	[0] versión  [1] flags  [2:] payload JSON (comprimido con snappy si flagSnappy)
//
// Un valor que empieza con un carácter JSON es del formato previo (versión 0, JSON plano).
// Todo cambio de forma de los datos se resuelve en decode.
const (
	codecVersion byte = 1

	flagSnappy byte = 1 << 0

	compressThreshold = 1024
)

var ErrUnsupportedVersion = errors.New("unsupported stored value version")

func encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	flags := byte(0)
	if len(raw) > compressThreshold {
		raw = snappy.Encode(nil, raw)
		flags |= flagSnappy
	}
	out := make([]byte, 0, len(raw)+2)
	out = append(out, codecVersion, flags)
	return append(out, raw...), nil
}

func decode(b []byte, v any) error {
	payload, err := unwrap(b)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func unwrap(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("decode: empty value")
	}
	if isLegacyJSON(b[0]) {
		return b, nil
	}
	if b[0] != codecVersion || len(b) < 2 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, b[0])
	}
	payload := b[2:]
	if b[1]&flagSnappy != 0 {
		out, err := snappy.Decode(nil, payload)
		if err != nil {
			return nil, fmt.Errorf("decode snappy: %w", err)
		}
		return out, nil
	}
	return payload, nil
}

func isLegacyJSON(c byte) bool {
	switch c {
	case '[', '{', '"', 't', 'f', 'n', '-', ' ', '\n', '\t', '\r':
		return true
	}
	return c >= '0' && c <= '9'
}
