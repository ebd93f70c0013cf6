package options

import (
	"fmt"
	"sort"

	"github.com/open-switch/opx-dhcp-agent/pkg/values"
)

// messageTypeEnum is the label vocabulary for DHCP Message Type (tag 53).
// Labels are the short form required by this codec, not RFC 2132's
// "DHCPDISCOVER" spelling.
var messageTypeEnum = values.NewEnum(1, 8, 1, map[int64]string{
	1: "DISCOVER",
	2: "OFFER",
	3: "REQUEST",
	4: "DECLINE",
	5: "ACK",
	6: "NAK",
	7: "RELEASE",
	8: "INFORM",
})

var ipv4Type = values.IPv4T{}
var s32Type = values.S32()

// tagOnlyCodec implements Codec for Pad and End.
type tagOnlyCodec struct {
	name string
	tag  uint8
}

func (c tagOnlyCodec) Name() string                         { return c.name }
func (c tagOnlyCodec) Tag() uint8                            { return c.tag }
func (c tagOnlyCodec) TagOnly() bool                         { return true }
func (c tagOnlyCodec) EncodeValue(any) ([]byte, error)       { return nil, nil }
func (c tagOnlyCodec) DecodeValue(b []byte) (any, error)     { return nil, nil }

// valueCodec implements Codec for a fixed- or variable-length TLV backed
// by a values.ValueType.
type valueCodec struct {
	name string
	tag  uint8
	vt   values.ValueType
}

func (c valueCodec) Name() string { return c.name }
func (c valueCodec) Tag() uint8   { return c.tag }
func (c valueCodec) TagOnly() bool { return false }

func (c valueCodec) EncodeValue(v any) ([]byte, error) {
	cv, err := c.vt.Canonicalize(v)
	if err != nil {
		return nil, err
	}
	enc, err := c.vt.Encode(cv)
	if err != nil {
		return nil, err
	}
	return c.vt.Pack(enc)
}

func (c valueCodec) DecodeValue(b []byte) (any, error) {
	iv, rest, err := c.vt.Unpack(b)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: trailing bytes in option %d", values.ErrBadValue, c.tag)
	}
	return c.vt.Decode(iv)
}

// hostNameCodec implements Host Name (tag 12): a variable-length latin-1
// string with no fixed length.
type hostNameCodec struct{}

func (hostNameCodec) Name() string   { return "Host Name" }
func (hostNameCodec) Tag() uint8     { return 12 }
func (hostNameCodec) TagOnly() bool  { return false }
func (hostNameCodec) EncodeValue(v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %T", values.ErrBadType, v)
	}
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return nil, fmt.Errorf("%w: rune %q not representable in latin-1", values.ErrBadValue, r)
		}
		out = append(out, byte(r))
	}
	return out, nil
}
func (hostNameCodec) DecodeValue(b []byte) (any, error) {
	rs := make([]rune, len(b))
	for i, c := range b {
		rs[i] = rune(c)
	}
	return string(rs), nil
}

// parameterRequestListCodec implements Parameter Request List (tag 55): a
// non-empty sequence of u8 option tags.
type parameterRequestListCodec struct{}

func (parameterRequestListCodec) Name() string  { return "Parameter Request List" }
func (parameterRequestListCodec) Tag() uint8    { return 55 }
func (parameterRequestListCodec) TagOnly() bool { return false }

func (parameterRequestListCodec) EncodeValue(v any) ([]byte, error) {
	list, ok := v.([]uint8)
	if !ok {
		return nil, fmt.Errorf("%w: %T", values.ErrBadType, v)
	}
	if len(list) < 1 {
		return nil, fmt.Errorf("%w: parameter request list must not be empty", values.ErrBadValue)
	}
	return append([]byte(nil), list...), nil
}

func (parameterRequestListCodec) DecodeValue(b []byte) (any, error) {
	if len(b) < 1 {
		return nil, fmt.Errorf("%w: parameter request list must not be empty", values.ErrBadValue)
	}
	return append([]uint8(nil), b...), nil
}

// RelayAgentInformation sub-option tags, RFC 3046.
const (
	SubOptCircuitID uint8 = 1
	SubOptRemoteID  uint8 = 2
)

// relayAgentInformationCodec implements Relay Agent Information (tag 82).
// The canonical value is map[string]string over "circuit-id"/"remote-id".
type relayAgentInformationCodec struct{}

func (relayAgentInformationCodec) Name() string  { return "Relay Agent Information" }
func (relayAgentInformationCodec) Tag() uint8    { return 82 }
func (relayAgentInformationCodec) TagOnly() bool { return false }

var subOptName = map[uint8]string{SubOptCircuitID: "circuit-id", SubOptRemoteID: "remote-id"}
var subOptTag = map[string]uint8{"circuit-id": SubOptCircuitID, "remote-id": SubOptRemoteID}

func (relayAgentInformationCodec) EncodeValue(v any) ([]byte, error) {
	m, ok := v.(map[string]string)
	if !ok {
		return nil, fmt.Errorf("%w: %T", values.ErrBadType, v)
	}
	tags := make([]uint8, 0, len(m))
	for name := range m {
		tag, ok := subOptTag[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown relay agent sub-option %q", values.ErrBadValue, name)
		}
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	var out []byte
	for _, tag := range tags {
		val := []byte(m[subOptName[tag]])
		if len(val) > 0xFF {
			return nil, fmt.Errorf("%w: relay agent sub-option %d too long", values.ErrBadValue, tag)
		}
		out = append(out, tag, byte(len(val)))
		out = append(out, val...)
	}
	return out, nil
}

func (relayAgentInformationCodec) DecodeValue(b []byte) (any, error) {
	out := map[string]string{}
	for len(b) > 0 {
		if len(b) < 2 {
			return nil, fmt.Errorf("%w: truncated relay agent sub-option", values.ErrShort)
		}
		tag, length := b[0], b[1]
		b = b[2:]
		if int(length) > len(b) {
			return nil, fmt.Errorf("%w: truncated relay agent sub-option %d", values.ErrShort, tag)
		}
		name, ok := subOptName[tag]
		if !ok {
			return nil, fmt.Errorf("%w: unknown relay agent sub-option tag %d", values.ErrBadValue, tag)
		}
		out[name] = string(b[:length])
		b = b[length:]
	}
	return out, nil
}

// BuiltIns returns a new Registry populated with every option codec
// required by §4.3, registered once at startup. Tests that want pure TLV
// pass-through behavior should use NewRegistry instead.
func BuiltIns() *Registry {
	r := NewRegistry()
	codecs := []Codec{
		tagOnlyCodec{name: "Pad", tag: Pad},
		tagOnlyCodec{name: "End", tag: End},
		valueCodec{name: "Subnet Mask", tag: 1, vt: ipv4Type},
		valueCodec{name: "Time Offset", tag: 2, vt: s32Type},
		hostNameCodec{},
		valueCodec{name: "Requested IP Address", tag: 50, vt: ipv4Type},
		valueCodec{name: "DHCP Message Type", tag: 53, vt: messageTypeEnum},
		parameterRequestListCodec{},
		relayAgentInformationCodec{},
	}
	for _, c := range codecs {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
	return r
}
