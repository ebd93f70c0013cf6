package dhcpmsg

import (
	"testing"

	"github.com/open-switch/opx-dhcp-agent/pkg/options"
)

func buildMinimal(t *testing.T, fields map[string]any) *Message {
	t.Helper()
	m := New()
	base := map[string]any{
		FieldHtype:  1,
		FieldHops:   0,
		FieldSecs:   0,
		FieldFlags:  0,
		FieldCiaddr: "0.0.0.0",
		FieldYiaddr: "0.0.0.0",
		FieldSiaddr: "0.0.0.0",
		FieldSname:  "",
		FieldFile:   "",
		FieldCookie: true,
		FieldOptions: []options.Record{
			{Tag: options.End},
		},
	}
	for k, v := range fields {
		base[k] = v
	}
	if err := m.Update(base); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestParseKnownRequest(t *testing.T) {
	m := buildMinimal(t, map[string]any{
		FieldOp:     BOOTREQUEST,
		FieldHlen:   6,
		FieldXid:    0x766A3089,
		FieldGiaddr: "192.168.98.1",
		FieldChaddr: "1e:4b:ad:91:68:3a",
	})

	packed, err := m.Pack()
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := Unpack(packed)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Op() != BOOTREQUEST {
		t.Fatalf("op: got %d", parsed.Op())
	}
	if parsed.Xid() != 0x766A3089 {
		t.Fatalf("xid: got %#x", parsed.Xid())
	}
	if parsed.Giaddr() != "192.168.98.1" {
		t.Fatalf("giaddr: got %q", parsed.Giaddr())
	}
	if parsed.Chaddr() != "1e:4b:ad:91:68:3a" {
		t.Fatalf("chaddr: got %q", parsed.Chaddr())
	}

	repacked, err := parsed.Pack()
	if err != nil {
		t.Fatal(err)
	}
	if len(repacked) != len(packed) {
		t.Fatalf("repack length mismatch: %d vs %d", len(repacked), len(packed))
	}
	for i := range packed {
		if packed[i] != repacked[i] {
			t.Fatalf("repack mismatch at byte %d: %#x vs %#x", i, packed[i], repacked[i])
		}
	}
}

func TestUnpackDiscardsTrailingBytesAfterEnd(t *testing.T) {
	m := buildMinimal(t, map[string]any{
		FieldOp:     BOOTREQUEST,
		FieldHlen:   6,
		FieldXid:    1,
		FieldGiaddr: "0.0.0.0",
		FieldChaddr: "00:11:22:33:44:55",
	})
	packed, err := m.Pack()
	if err != nil {
		t.Fatal(err)
	}
	padded := append(append([]byte(nil), packed...), 0xDE, 0xAD, 0xBE, 0xEF)
	if _, err := Unpack(padded); err != nil {
		t.Fatalf("unpack must tolerate trailing garbage after the options End: %v", err)
	}
}

func TestTruncation(t *testing.T) {
	m := buildMinimal(t, map[string]any{
		FieldOp:     BOOTREQUEST,
		FieldHlen:   6,
		FieldXid:    1,
		FieldGiaddr: "0.0.0.0",
		FieldChaddr: "00:11:22:33:44:55:66:77:88:99:AA:BB:CC:DD:EE:FF",
	})
	if got := m.Chaddr(); got != "00:11:22:33:44:55" {
		t.Fatalf("truncate_chaddr: got %q", got)
	}
}

func TestEncodeOptionsAppendsCircuitID(t *testing.T) {
	m := buildMinimal(t, map[string]any{
		FieldOp:     BOOTREQUEST,
		FieldHlen:   6,
		FieldXid:    1,
		FieldGiaddr: "0.0.0.0",
		FieldChaddr: "00:11:22:33:44:55",
	})
	reg := options.BuiltIns()
	err := m.EncodeOptions([]options.Option{
		{Name: "Relay Agent Information", Value: map[string]string{"circuit-id": "vethS0I99V"}},
	}, reg, true)
	if err != nil {
		t.Fatal(err)
	}
	decoded := m.DecodeOptions(reg)
	recs := decoded[FieldOptions].([]options.Option)
	var found bool
	for _, o := range recs {
		if o.Name == "Relay Agent Information" {
			found = true
			m, ok := o.Value.(map[string]string)
			if !ok || m["circuit-id"] != "vethS0I99V" {
				t.Fatalf("unexpected relay agent information value: %v", o.Value)
			}
		}
	}
	if !found {
		t.Fatal("expected Relay Agent Information option to be present")
	}
}
