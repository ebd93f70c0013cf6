// Package record implements the declarative structured-message framework:
// a record type is defined by an ordered Spec of (name, ValueType) pairs,
// validates every mutation against that Spec, and packs/unpacks in Spec
// order. It is the Go re-expression of the metaclass-synthesized mapping
// records in the original source (see design notes for the rationale).
package record

import (
	"fmt"

	"github.com/open-switch/opx-dhcp-agent/pkg/values"
)

// Field names one (field-name, ValueType) pair in a Spec, in declaration
// order.
type Field struct {
	Name string
	Type values.ValueType
}

// Spec is the ordered field list defining a record's shape.
type Spec []Field

func (s Spec) index(name string) int {
	for i, f := range s {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Record is a mapping over a Spec's field names to canonical values. Every
// mutation validates against the owning field's ValueType before it is
// applied; an update is atomic across all supplied pairs.
type Record struct {
	spec   Spec
	values map[string]any
}

// New returns an empty record over spec.
func New(spec Spec) *Record {
	return &Record{spec: spec, values: make(map[string]any, len(spec))}
}

// Spec returns the record's field spec.
func (r *Record) Spec() Spec { return r.spec }

// Get returns the canonical value for name and whether it is present.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// MustGet returns the canonical value for name, panicking if absent. It is
// intended for accessors on derived types that guarantee the field is
// always set by construction (see dhcpmsg).
func (r *Record) MustGet(name string) any {
	v, ok := r.values[name]
	if !ok {
		panic(fmt.Sprintf("record: field %q has no value", name))
	}
	return v
}

// Update validates every pair in fields against the Spec and, only if all
// validate, applies them all. Unknown keys are rejected with ErrBadKey.
func (r *Record) Update(fields map[string]any) error {
	next := make(map[string]any, len(fields))
	for name, v := range fields {
		i := r.spec.index(name)
		if i < 0 {
			return fmt.Errorf("%w: %q", values.ErrBadKey, name)
		}
		cv, err := r.spec[i].Type.Canonicalize(v)
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		next[name] = cv
	}
	for name, cv := range next {
		r.values[name] = cv
	}
	return nil
}

// Set validates and applies a single field.
func (r *Record) Set(name string, v any) error {
	return r.Update(map[string]any{name: v})
}

// Pack concatenates each field's Encode∘Pack in Spec order. It fails with
// ErrMissing if any declared field lacks a value.
func (r *Record) Pack() ([]byte, error) {
	var out []byte
	for _, f := range r.spec {
		cv, ok := r.values[f.Name]
		if !ok {
			return nil, fmt.Errorf("field %q: %w", f.Name, values.ErrMissing)
		}
		enc, err := f.Type.Encode(cv)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		b, err := f.Type.Pack(enc)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		out = append(out, b...)
	}
	return out, nil
}

// Unpack reads each field of spec in order from b, returning a new Record
// and discarding whatever bytes remain once every field has been read.
func Unpack(spec Spec, b []byte) (*Record, error) {
	r := New(spec)
	rest := b
	for _, f := range spec {
		iv, next, err := f.Type.Unpack(rest)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		cv, err := f.Type.Decode(iv)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		r.values[f.Name] = cv
		rest = next
	}
	return r, nil
}
