package options

import (
	"fmt"

	"github.com/open-switch/opx-dhcp-agent/pkg/values"
)

// Codec is a per-tag option implementation registered into a Registry. A
// tag-only codec (Pad, End) ignores its value entirely; a TLV codec
// encodes/decodes a canonical value to/from the option's raw bytes.
type Codec interface {
	Name() string
	Tag() uint8
	TagOnly() bool
	EncodeValue(v any) ([]byte, error)
	DecodeValue(b []byte) (any, error)
}

// Option is the registry's unit of exchange. On Encode input, Name
// (preferred) or Tag selects a codec and Value carries the canonical
// value; on Decode output, Name is empty and Value is a colon-hex string
// whenever the tag had no registered codec (a Pad or End without a codec
// carries no Value).
type Option struct {
	Name  string
	Tag   uint8
	Value any
}

// Registry is a set of built-in option codecs, keyed by unique name and
// unique tag. The zero value is an empty registry, useful in tests that
// want pure TLV pass-through behavior.
type Registry struct {
	byName map[string]Codec
	byTag  map[uint8]Codec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]Codec{}, byTag: map[uint8]Codec{}}
}

// Register adds c to the registry. It is an error to register a duplicate
// name or tag.
func (r *Registry) Register(c Codec) error {
	if _, ok := r.byName[c.Name()]; ok {
		return fmt.Errorf("options: option %q is already registered", c.Name())
	}
	if _, ok := r.byTag[c.Tag()]; ok {
		return fmt.Errorf("options: tag %d is already registered", c.Tag())
	}
	r.byName[c.Name()] = c
	r.byTag[c.Tag()] = c
	return nil
}

var genericHex = values.HexString{MaxBytes: 256}

// Encode translates each item to a wire Record. A named item whose codec
// successfully encodes keeps that encoding. Otherwise, a generic TLV
// encoding (Value interpreted as colon-hex) is attempted. Failing both,
// the item is passed through unchanged if Value is already raw bytes.
func (r *Registry) Encode(items []Option) ([]Record, error) {
	out := make([]Record, 0, len(items))
	for _, item := range items {
		if rec, ok := r.encodeNamed(item); ok {
			out = append(out, rec)
			continue
		}
		rec, err := encodeGeneric(item)
		if err != nil {
			return nil, fmt.Errorf("option tag %d: %w", item.Tag, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *Registry) encodeNamed(item Option) (Record, bool) {
	if item.Name == "" {
		return Record{}, false
	}
	c, ok := r.byName[item.Name]
	if !ok {
		return Record{}, false
	}
	if c.TagOnly() {
		return Record{Tag: c.Tag()}, true
	}
	b, err := c.EncodeValue(item.Value)
	if err != nil {
		return Record{}, false
	}
	return Record{Tag: c.Tag(), Length: uint8(len(b)), Value: b}, true
}

func encodeGeneric(item Option) (Record, error) {
	switch v := item.Value.(type) {
	case string:
		b, err := genericHex.Encode(v)
		if err == nil {
			raw := b.([]byte)
			return Record{Tag: item.Tag, Length: uint8(len(raw)), Value: raw}, nil
		}
	case []byte:
		return Record{Tag: item.Tag, Length: uint8(len(v)), Value: v}, nil
	case Record:
		return v, nil
	}
	return Record{}, fmt.Errorf("%w: cannot encode value of type %T", values.ErrBadValue, item.Value)
}

// Decode translates each wire Record to an Option. A record whose tag has
// a registered codec decodes to a named value; otherwise it passes through
// as a colon-hex TLV with an empty Name.
func (r *Registry) Decode(records []Record) []Option {
	out := make([]Option, 0, len(records))
	for _, rec := range records {
		if opt, ok := r.decodeNamed(rec); ok {
			out = append(out, opt)
			continue
		}
		out = append(out, decodeGeneric(rec))
	}
	return out
}

func (r *Registry) decodeNamed(rec Record) (Option, bool) {
	c, ok := r.byTag[rec.Tag]
	if !ok {
		return Option{}, false
	}
	if c.TagOnly() {
		return Option{Name: c.Name(), Tag: c.Tag()}, true
	}
	v, err := c.DecodeValue(rec.Value)
	if err != nil {
		return Option{}, false
	}
	return Option{Name: c.Name(), Tag: c.Tag(), Value: v}, true
}

func decodeGeneric(rec Record) Option {
	if rec.Tag == Pad || rec.Tag == End {
		return Option{Tag: rec.Tag}
	}
	v, _ := genericHex.Decode(rec.Value)
	return Option{Tag: rec.Tag, Value: v}
}
