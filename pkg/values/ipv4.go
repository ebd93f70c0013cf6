package values

import (
	"fmt"
	"net"
)

// IPv4T is an IPv4 address field. The canonical value is a dotted-quad
// string; Encode/Decode convert to and from 4 octets in network byte order.
type IPv4T struct{}

var _ ValueType = IPv4T{}

func (IPv4T) Canonicalize(v any) (any, error) {
	switch x := v.(type) {
	case string:
		ip := net.ParseIP(x)
		if ip == nil || ip.To4() == nil {
			return nil, fmt.Errorf("%w: %q is not an IPv4 address", ErrBadValue, x)
		}
		return ip.To4().String(), nil
	case net.IP:
		if x.To4() == nil {
			return nil, fmt.Errorf("%w: not an IPv4 address", ErrBadValue)
		}
		return x.To4().String(), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrBadType, v)
	}
}

func (t IPv4T) Encode(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrBadType, v)
	}
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("%w: %q is not an IPv4 address", ErrBadValue, s)
	}
	return []byte(ip.To4()), nil
}

func (t IPv4T) Decode(v any) (any, error) {
	b, ok := v.([]byte)
	if !ok || len(b) != 4 {
		return nil, fmt.Errorf("%w: expected 4 octets", ErrBadValue)
	}
	return net.IP(b).String(), nil
}

func (IPv4T) Pack(v any) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok || len(b) != 4 {
		return nil, fmt.Errorf("%w: expected 4 octets", ErrBadValue)
	}
	out := make([]byte, 4)
	copy(out, b)
	return out, nil
}

func (IPv4T) Unpack(b []byte) (any, []byte, error) {
	if len(b) < 4 {
		return nil, b, ErrShort
	}
	out := make([]byte, 4)
	copy(out, b[:4])
	return out, b[4:], nil
}
