package values

import (
	"bytes"
	"fmt"
)

// magicCookie is the RFC 2132 section 2 BOOTP magic cookie.
var magicCookie = []byte{0x63, 0x82, 0x53, 0x63}

// CookieT is a sentinel value type for the BOOTP magic cookie. The
// canonical value is a boolean: true if the cookie is present.
type CookieT struct{ identityCodec }

var _ ValueType = CookieT{}

func (CookieT) Canonicalize(v any) (any, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrBadType, v)
	}
	return b, nil
}

func (CookieT) Pack(v any) ([]byte, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrBadType, v)
	}
	if b {
		return append([]byte(nil), magicCookie...), nil
	}
	return nil, nil
}

func (CookieT) Unpack(b []byte) (any, []byte, error) {
	if len(b) >= 4 && bytes.Equal(b[:4], magicCookie) {
		return true, b[4:], nil
	}
	return false, b, nil
}
