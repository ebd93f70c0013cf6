package values

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// IntT is a bounded, fixed-width integer field. Width is in bytes and must
// be 1, 2, or 4. The canonical value is an int64; Canonicalize also accepts
// a base-prefixed or decimal string (e.g. "0x42", "66"), per the public
// boundary carried over from the original source (§9).
type IntT struct {
	Min, Max int64
	Width    int
}

var _ ValueType = IntT{}

// U8 is the canonical unsigned 8-bit field used throughout the RFC 2131
// header and the options trailer.
func U8() IntT { return IntT{Min: 0, Max: 0xFF, Width: 1} }

// U16 is the canonical unsigned 16-bit field (secs, flags).
func U16() IntT { return IntT{Min: 0, Max: 0xFFFF, Width: 2} }

// U32 is the canonical unsigned 32-bit field (xid).
func U32() IntT { return IntT{Min: 0, Max: 0xFFFFFFFF, Width: 4} }

// S32 is the canonical signed 32-bit field (Time Offset).
func S32() IntT { return IntT{Min: -0x80000000, Max: 0x7FFFFFFF, Width: 4} }

func (t IntT) Canonicalize(v any) (any, error) {
	n, err := toInt64(v)
	if err != nil {
		return nil, err
	}
	if n < t.Min || n > t.Max {
		return nil, fmt.Errorf("%w: %d out of [%d,%d]", ErrBadValue, n, t.Min, t.Max)
	}
	return n, nil
}

func (t IntT) Encode(v any) (any, error) { return t.Canonicalize(v) }
func (t IntT) Decode(v any) (any, error) { return t.Canonicalize(v) }

func (t IntT) Pack(v any) ([]byte, error) {
	n, ok := v.(int64)
	if !ok {
		var err error
		if n, err = toInt64(v); err != nil {
			return nil, err
		}
	}
	b := make([]byte, t.Width)
	switch t.Width {
	case 1:
		b[0] = byte(n)
	case 2:
		binary.BigEndian.PutUint16(b, uint16(n))
	case 4:
		binary.BigEndian.PutUint32(b, uint32(n))
	default:
		return nil, fmt.Errorf("%w: unsupported width %d", ErrBadType, t.Width)
	}
	return b, nil
}

func (t IntT) Unpack(b []byte) (any, []byte, error) {
	if len(b) < t.Width {
		return nil, b, ErrShort
	}
	var n int64
	switch t.Width {
	case 1:
		n = int64(b[0])
	case 2:
		n = int64(binary.BigEndian.Uint16(b))
	case 4:
		u := binary.BigEndian.Uint32(b)
		if t.Min < 0 {
			n = int64(int32(u))
		} else {
			n = int64(u)
		}
	default:
		return nil, b, fmt.Errorf("%w: unsupported width %d", ErrBadType, t.Width)
	}
	return n, b[t.Width:], nil
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case string:
		n, err := strconv.ParseInt(x, 0, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrBadValue, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrBadType, v)
	}
}
