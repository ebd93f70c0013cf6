// Package values implements the typed-field framework used throughout the
// DHCP codec: bounded integers, enumerations, IPv4 addresses, and the two
// fixed-region string encodings used by RFC 2131 header fields.
package values

import "errors"

// Sentinel errors forming the codec's error taxonomy. Every rejection from a
// ValueType method wraps exactly one of these with errors.Is-compatible
// wrapping, never a bespoke error type.
var (
	// ErrBadKey indicates an unknown field or map key was supplied.
	ErrBadKey = errors.New("values: bad key")
	// ErrBadType indicates a value of the wrong Go type was supplied.
	ErrBadType = errors.New("values: bad type")
	// ErrBadValue indicates a value of the right type but out of range or
	// otherwise malformed.
	ErrBadValue = errors.New("values: bad value")
	// ErrShort indicates insufficient bytes remained during Unpack.
	ErrShort = errors.New("values: short read")
	// ErrMissing indicates a required field had no value during Pack.
	ErrMissing = errors.New("values: missing value")
)
