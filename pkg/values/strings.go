package values

import (
	"fmt"
	"strings"
)

// latin1Encode converts a Go string to its ISO-8859-1 byte form. Every rune
// must be representable in a single byte (0..255); this matches the
// encoding used by the original source for sname/file/Host Name.
func latin1Encode(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return nil, fmt.Errorf("%w: rune %q not representable in latin-1", ErrBadValue, r)
		}
		out = append(out, byte(r))
	}
	return out, nil
}

// latin1Decode converts raw bytes back to a Go string, one byte per rune.
func latin1Decode(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteRune(rune(c))
	}
	return sb.String()
}

// NulString is a text field occupying a fixed-size region, whose encoded
// form must leave room for at least one terminating NUL. The canonical
// value is a string; Decode strips at the first NUL byte.
type NulString struct {
	MaxBytes int
}

var _ ValueType = NulString{}

func (t NulString) Canonicalize(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrBadType, v)
	}
	b, err := latin1Encode(s)
	if err != nil {
		return nil, err
	}
	if len(b) >= t.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes does not fit in %d with a terminator", ErrBadValue, len(b), t.MaxBytes)
	}
	return s, nil
}

func (t NulString) Encode(v any) (any, error) {
	s, err := t.Canonicalize(v)
	if err != nil {
		return nil, err
	}
	return latin1Encode(s.(string))
}

func (t NulString) Decode(v any) (any, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrBadType, v)
	}
	if i := indexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return latin1Decode(b), nil
}

func (t NulString) Pack(v any) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrBadType, v)
	}
	if len(b) >= t.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes does not fit in %d", ErrBadValue, len(b), t.MaxBytes)
	}
	out := make([]byte, t.MaxBytes)
	copy(out, b)
	return out, nil
}

func (t NulString) Unpack(b []byte) (any, []byte, error) {
	if len(b) < t.MaxBytes {
		return nil, b, ErrShort
	}
	out := make([]byte, t.MaxBytes)
	copy(out, b[:t.MaxBytes])
	return out, b[t.MaxBytes:], nil
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

// HexString is a fixed-size binary region represented lexically as
// colon-separated hex octets, as used for chaddr. Canonicalize accepts
// either case; Decode always returns lowercase.
type HexString struct {
	MaxBytes int
}

var _ ValueType = HexString{}

func (t HexString) Canonicalize(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrBadType, v)
	}
	b, err := parseColonHex(s)
	if err != nil {
		return nil, err
	}
	if len(b) > t.MaxBytes {
		return nil, fmt.Errorf("%w: %d octets exceeds %d", ErrBadValue, len(b), t.MaxBytes)
	}
	return s, nil
}

func (t HexString) Encode(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrBadType, v)
	}
	b, err := parseColonHex(s)
	if err != nil {
		return nil, err
	}
	if len(b) > t.MaxBytes {
		return nil, fmt.Errorf("%w: %d octets exceeds %d", ErrBadValue, len(b), t.MaxBytes)
	}
	return b, nil
}

func (t HexString) Decode(v any) (any, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrBadType, v)
	}
	if len(b) > t.MaxBytes {
		return nil, fmt.Errorf("%w: %d octets exceeds %d", ErrBadValue, len(b), t.MaxBytes)
	}
	return formatColonHex(b), nil
}

func (t HexString) Pack(v any) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrBadType, v)
	}
	if len(b) > t.MaxBytes {
		return nil, fmt.Errorf("%w: %d octets exceeds %d", ErrBadValue, len(b), t.MaxBytes)
	}
	out := make([]byte, t.MaxBytes)
	copy(out, b)
	return out, nil
}

func (t HexString) Unpack(b []byte) (any, []byte, error) {
	if len(b) < t.MaxBytes {
		return nil, b, ErrShort
	}
	out := make([]byte, t.MaxBytes)
	copy(out, b[:t.MaxBytes])
	return out, b[t.MaxBytes:], nil
}

// Truncate returns s with its colon-hex octet list cut to at most n octets.
func (t HexString) Truncate(s string, n int) (string, error) {
	b, err := parseColonHex(s)
	if err != nil {
		return "", err
	}
	if n < len(b) {
		b = b[:n]
	}
	return formatColonHex(b), nil
}

func parseColonHex(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ":")
	out := make([]byte, len(parts))
	for i, p := range parts {
		if len(p) != 2 {
			return nil, fmt.Errorf("%w: malformed hex octet %q", ErrBadValue, p)
		}
		var b byte
		if _, err := fmt.Sscanf(p, "%02x", &b); err != nil {
			return nil, fmt.Errorf("%w: malformed hex octet %q", ErrBadValue, p)
		}
		out[i] = b
	}
	return out, nil
}

func formatColonHex(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("%02x", c)
	}
	return strings.Join(parts, ":")
}
