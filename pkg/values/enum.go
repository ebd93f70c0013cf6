package values

import "fmt"

// EnumT is an integer field with a label vocabulary. The canonical value is
// the label string; Encode/Decode translate to and from the underlying
// integer. Canonicalize accepts either a label or a raw integer already in
// the value space.
type EnumT struct {
	Int          IntT
	ValueToLabel map[int64]string
	LabelToValue map[string]int64
}

var _ ValueType = EnumT{}

// NewEnum builds an EnumT over the range [min,max] with the given width in
// bytes, and the supplied value-to-label vocabulary.
func NewEnum(min, max int64, width int, labels map[int64]string) EnumT {
	e := EnumT{
		Int:          IntT{Min: min, Max: max, Width: width},
		ValueToLabel: labels,
		LabelToValue: make(map[string]int64, len(labels)),
	}
	for v, l := range labels {
		e.LabelToValue[l] = v
	}
	return e
}

func (e EnumT) Canonicalize(v any) (any, error) {
	if s, ok := v.(string); ok {
		if _, ok := e.LabelToValue[s]; ok {
			return s, nil
		}
	}
	n, err := e.Int.Canonicalize(v)
	if err != nil {
		return nil, err
	}
	label, ok := e.ValueToLabel[n.(int64)]
	if !ok {
		return nil, fmt.Errorf("%w: no label for %v", ErrBadValue, n)
	}
	return label, nil
}

func (e EnumT) Encode(v any) (any, error) {
	label, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrBadType, v)
	}
	n, ok := e.LabelToValue[label]
	if !ok {
		return nil, fmt.Errorf("%w: unknown label %q", ErrBadValue, label)
	}
	return n, nil
}

func (e EnumT) Decode(v any) (any, error) {
	n, err := toInt64(v)
	if err != nil {
		return nil, err
	}
	label, ok := e.ValueToLabel[n]
	if !ok {
		return nil, fmt.Errorf("%w: no label for %d", ErrBadValue, n)
	}
	return label, nil
}

func (e EnumT) Pack(v any) ([]byte, error)            { return e.Int.Pack(v) }
func (e EnumT) Unpack(b []byte) (any, []byte, error) { return e.Int.Unpack(b) }
