package values

// ValueType is the capability every typed field implements: canonicalize a
// lexical value, transform a canonical value to and from its wire
// intermediate (Encode/Decode), and pack/unpack that intermediate to bytes.
//
// Canonical, intermediate, and packed representations are deliberately
// distinct steps so that a field such as an enum can canonicalize to a
// label string, encode to an integer, and pack to two big-endian bytes,
// mirroring how the framework composes for every built-in type.
type ValueType interface {
	// Canonicalize normalizes a lexical value (e.g. a string, an int, or
	// an already-canonical value) to the type's canonical form.
	Canonicalize(v any) (any, error)
	// Encode converts a canonical value to its wire intermediate.
	Encode(v any) (any, error)
	// Decode converts a wire intermediate back to a canonical value.
	Decode(v any) (any, error)
	// Pack serializes an intermediate value to bytes.
	Pack(v any) ([]byte, error)
	// Unpack consumes a prefix of b, returning the intermediate value and
	// the unconsumed remainder.
	Unpack(b []byte) (v any, rest []byte, err error)
}

// identityCodec is embedded by value types whose Encode/Decode are the
// identity transform (the default per the framework contract in §4.1).
type identityCodec struct{}

func (identityCodec) Encode(v any) (any, error) { return v, nil }
func (identityCodec) Decode(v any) (any, error) { return v, nil }
