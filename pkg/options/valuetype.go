package options

import (
	"fmt"

	"github.com/open-switch/opx-dhcp-agent/pkg/values"
)

// ValueType is the ValueType for the options trailer as a whole. Its
// canonical value is []Record, always terminated by exactly one End.
type ValueType struct{}

var _ values.ValueType = ValueType{}

// Canonicalize drops every End in seq and appends exactly one.
func (ValueType) Canonicalize(v any) (any, error) {
	seq, err := asRecords(v)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(seq)+1)
	for _, r := range seq {
		cr, err := canonicalizeOne(r)
		if err != nil {
			return nil, err
		}
		if cr.Tag == End {
			continue
		}
		out = append(out, cr)
	}
	out = append(out, Record{Tag: End})
	return out, nil
}

func canonicalizeOne(r Record) (Record, error) {
	if r.Tag == Pad || r.Tag == End {
		return Record{Tag: r.Tag}, nil
	}
	if int(r.Length) != len(r.Value) {
		return Record{}, fmt.Errorf("%w: option %d length %d does not match value length %d", values.ErrBadValue, r.Tag, r.Length, len(r.Value))
	}
	return Record{Tag: r.Tag, Length: r.Length, Value: append([]byte(nil), r.Value...)}, nil
}

func asRecords(v any) ([]Record, error) {
	seq, ok := v.([]Record)
	if !ok {
		return nil, fmt.Errorf("%w: %T", values.ErrBadType, v)
	}
	return seq, nil
}

func (ValueType) Encode(v any) (any, error) { return v, nil }
func (ValueType) Decode(v any) (any, error) { return v, nil }

// Pack emits each record exactly as supplied: tag only for Pad/End, tag
// plus length plus value otherwise. No End is added automatically.
func (ValueType) Pack(v any) ([]byte, error) {
	seq, err := asRecords(v)
	if err != nil {
		return nil, err
	}
	var out []byte
	for _, r := range seq {
		if r.Tag == Pad || r.Tag == End {
			out = append(out, r.Tag)
			continue
		}
		if int(r.Length) != len(r.Value) {
			return nil, fmt.Errorf("%w: option %d length %d does not match value length %d", values.ErrBadValue, r.Tag, r.Length, len(r.Value))
		}
		out = append(out, r.Tag, r.Length)
		out = append(out, r.Value...)
	}
	return out, nil
}

// Unpack greedily parses the options trailer. A tag of 0 consumes one
// byte; a tag of 255 consumes one byte and stops, returning whatever
// remains after it. Any other tag requires a following length byte and
// that many value bytes; if they are not available, Unpack fails with
// ErrShort. Running out of input exactly between options (no partial tag
// in flight) is not an error: the missing End is tolerated and the
// (empty) trailing slice is returned.
func (ValueType) Unpack(b []byte) (any, []byte, error) {
	var out []Record
	rest := b
	for len(rest) > 0 {
		tag := rest[0]
		rest = rest[1:]
		switch {
		case tag == Pad:
			out = append(out, Record{Tag: Pad})
		case tag == End:
			out = append(out, Record{Tag: End})
			return out, rest, nil
		case len(rest) > 0:
			length := rest[0]
			rest = rest[1:]
			if int(length) > len(rest) {
				return nil, b, values.ErrShort
			}
			value := append([]byte(nil), rest[:length]...)
			rest = rest[length:]
			out = append(out, Record{Tag: tag, Length: length, Value: value})
		default:
			return nil, b, values.ErrShort
		}
	}
	return out, rest, nil
}
