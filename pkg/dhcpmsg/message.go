// Package dhcpmsg implements the RFC 2131 DHCP message: the fixed header,
// the RFC 2132 magic cookie, and the options trailer, built on pkg/record
// and pkg/options.
package dhcpmsg

import (
	"fmt"

	"github.com/open-switch/opx-dhcp-agent/pkg/options"
	"github.com/open-switch/opx-dhcp-agent/pkg/record"
	"github.com/open-switch/opx-dhcp-agent/pkg/values"
)

// BOOTREQUEST and BOOTREPLY are the two values of the op field.
const (
	BOOTREQUEST int64 = 1
	BOOTREPLY   int64 = 2
)

// Field names, in RFC 2131 header order.
const (
	FieldOp      = "op"
	FieldHtype   = "htype"
	FieldHlen    = "hlen"
	FieldHops    = "hops"
	FieldXid     = "xid"
	FieldSecs    = "secs"
	FieldFlags   = "flags"
	FieldCiaddr  = "ciaddr"
	FieldYiaddr  = "yiaddr"
	FieldSiaddr  = "siaddr"
	FieldGiaddr  = "giaddr"
	FieldChaddr  = "chaddr"
	FieldSname   = "sname"
	FieldFile    = "file"
	FieldCookie  = "cookie"
	FieldOptions = "options"
)

var hexChaddr = values.HexString{MaxBytes: 16}

// Spec is the ordered field list for the RFC 2131 header plus cookie and
// options trailer.
var Spec = record.Spec{
	{Name: FieldOp, Type: values.IntT{Min: 1, Max: 2, Width: 1}},
	{Name: FieldHtype, Type: values.U8()},
	{Name: FieldHlen, Type: values.IntT{Min: 1, Max: 16, Width: 1}},
	{Name: FieldHops, Type: values.U8()},
	{Name: FieldXid, Type: values.U32()},
	{Name: FieldSecs, Type: values.U16()},
	{Name: FieldFlags, Type: values.U16()},
	{Name: FieldCiaddr, Type: values.IPv4T{}},
	{Name: FieldYiaddr, Type: values.IPv4T{}},
	{Name: FieldSiaddr, Type: values.IPv4T{}},
	{Name: FieldGiaddr, Type: values.IPv4T{}},
	{Name: FieldChaddr, Type: hexChaddr},
	{Name: FieldSname, Type: values.NulString{MaxBytes: 64}},
	{Name: FieldFile, Type: values.NulString{MaxBytes: 128}},
	{Name: FieldCookie, Type: values.CookieT{}},
	{Name: FieldOptions, Type: options.ValueType{}},
}

// Message is an RFC 2131 DHCP message.
type Message struct {
	*record.Record
}

// New returns an empty message ready for field-by-field construction.
func New() *Message {
	return &Message{record.New(Spec)}
}

// Unpack parses b as a DHCP message, discarding trailing bytes once every
// field has been read, and truncates chaddr to hlen.
func Unpack(b []byte) (*Message, error) {
	r, err := record.Unpack(Spec, b)
	if err != nil {
		return nil, err
	}
	m := &Message{r}
	m.TruncateChaddr()
	return m, nil
}

// Update validates and applies fields atomically, then truncates chaddr if
// hlen or chaddr was among them.
func (m *Message) Update(fields map[string]any) error {
	if err := m.Record.Update(fields); err != nil {
		return err
	}
	if _, hasHlen := fields[FieldHlen]; hasHlen {
		m.TruncateChaddr()
	}
	if _, hasChaddr := fields[FieldChaddr]; hasChaddr {
		m.TruncateChaddr()
	}
	return nil
}

// Set validates and applies a single field, truncating chaddr afterward
// when hlen or chaddr itself was set.
func (m *Message) Set(name string, v any) error {
	return m.Update(map[string]any{name: v})
}

// TruncateChaddr rewrites chaddr so its colon-hex element count is at most
// hlen. It is benign (a no-op) when either field is absent.
func (m *Message) TruncateChaddr() {
	hlenV, ok := m.Record.Get(FieldHlen)
	if !ok {
		return
	}
	chaddrV, ok := m.Record.Get(FieldChaddr)
	if !ok {
		return
	}
	hlen := int(hlenV.(int64))
	truncated, err := hexChaddr.Truncate(chaddrV.(string), hlen)
	if err != nil {
		return
	}
	_ = m.Record.Set(FieldChaddr, truncated)
}

// Op returns the canonical op value.
func (m *Message) Op() int64 { return m.Record.MustGet(FieldOp).(int64) }

// Xid returns the canonical transaction id.
func (m *Message) Xid() int64 { return m.Record.MustGet(FieldXid).(int64) }

// Chaddr returns the canonical (already hlen-truncated) chaddr string.
func (m *Message) Chaddr() string { return m.Record.MustGet(FieldChaddr).(string) }

// Giaddr returns the canonical giaddr dotted-quad string.
func (m *Message) Giaddr() string { return m.Record.MustGet(FieldGiaddr).(string) }

// Options returns the canonical option record sequence.
func (m *Message) Options() []options.Record {
	return m.Record.MustGet(FieldOptions).([]options.Record)
}

// DecodeOptions returns a copy of every field's canonical value, with
// options decoded through reg. A nil reg decodes with an empty registry,
// yielding pass-through colon-hex TLVs for everything.
func (m *Message) DecodeOptions(reg *options.Registry) map[string]any {
	if reg == nil {
		reg = options.NewRegistry()
	}
	out := make(map[string]any, len(Spec))
	for _, f := range Spec {
		v, ok := m.Record.Get(f.Name)
		if !ok {
			continue
		}
		if f.Name == FieldOptions {
			out[f.Name] = reg.Decode(v.([]options.Record))
			continue
		}
		out[f.Name] = v
	}
	return out
}

// EncodeOptions re-encodes items through reg (an empty registry if nil)
// and either appends them to the existing options sequence or replaces it.
// Canonicalization is applied both before and after concatenation.
func (m *Message) EncodeOptions(items []options.Option, reg *options.Registry, appendTo bool) error {
	if reg == nil {
		reg = options.NewRegistry()
	}
	encoded, err := reg.Encode(items)
	if err != nil {
		return fmt.Errorf("dhcpmsg: encode options: %w", err)
	}
	var next []options.Record
	if appendTo {
		cur, ok := m.Record.Get(FieldOptions)
		if ok {
			existing := cur.([]options.Record)
			canon, err := (options.ValueType{}).Canonicalize(existing)
			if err != nil {
				return err
			}
			for _, r := range canon.([]options.Record) {
				if r.Tag != options.End {
					next = append(next, r)
				}
			}
		}
	}
	next = append(next, encoded...)
	canon, err := (options.ValueType{}).Canonicalize(next)
	if err != nil {
		return err
	}
	return m.Record.Set(FieldOptions, canon)
}
