package record

import (
	"errors"
	"testing"

	"github.com/open-switch/opx-dhcp-agent/pkg/values"
)

var testSpec = Spec{
	{Name: "a", Type: values.U8()},
	{Name: "b", Type: values.U16()},
}

func TestPackUnpackRoundTrip(t *testing.T) {
	r := New(testSpec)
	if err := r.Update(map[string]any{"a": 0x7, "b": 0x1234}); err != nil {
		t.Fatal(err)
	}
	packed, err := r.Pack()
	if err != nil {
		t.Fatal(err)
	}
	if len(packed) != 3 {
		t.Fatalf("expected 3 bytes, got %d: % x", len(packed), packed)
	}

	r2, err := Unpack(testSpec, packed)
	if err != nil {
		t.Fatal(err)
	}
	if a, _ := r2.Get("a"); a.(int64) != 0x7 {
		t.Fatalf("a: got %v", a)
	}
	if b, _ := r2.Get("b"); b.(int64) != 0x1234 {
		t.Fatalf("b: got %v", b)
	}
}

func TestUnpackDiscardsTrailingBytes(t *testing.T) {
	packed := []byte{0x01, 0x00, 0x02, 0xFF, 0xFF, 0xFF}
	r, err := Unpack(testSpec, packed)
	if err != nil {
		t.Fatal(err)
	}
	if a, _ := r.Get("a"); a.(int64) != 1 {
		t.Fatalf("a: got %v", a)
	}
	if b, _ := r.Get("b"); b.(int64) != 2 {
		t.Fatalf("b: got %v", b)
	}
}

func TestUpdateIsAtomic(t *testing.T) {
	r := New(testSpec)
	if err := r.Update(map[string]any{"a": 0x7, "b": 0x1234}); err != nil {
		t.Fatal(err)
	}
	err := r.Update(map[string]any{"a": 1, "b": 999999})
	if !errors.Is(err, values.ErrBadValue) {
		t.Fatalf("expected ErrBadValue, got %v", err)
	}
	if a, _ := r.Get("a"); a.(int64) != 0x7 {
		t.Fatalf("a field must be unchanged after rejected update, got %v", a)
	}
}

func TestUpdateRejectsUnknownKey(t *testing.T) {
	r := New(testSpec)
	err := r.Update(map[string]any{"c": 1})
	if !errors.Is(err, values.ErrBadKey) {
		t.Fatalf("expected ErrBadKey, got %v", err)
	}
}

func TestPackMissingFieldFails(t *testing.T) {
	r := New(testSpec)
	if err := r.Set("a", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Pack(); !errors.Is(err, values.ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
}
