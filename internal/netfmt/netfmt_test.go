package netfmt

import "testing"

func TestFormatParseMACRoundTrip(t *testing.T) {
	mac, err := ParseMAC("1e:4b:ad:91:68:3a")
	if err != nil {
		t.Fatal(err)
	}
	if got := FormatMAC(mac); got != "1e:4b:ad:91:68:3a" {
		t.Fatalf("got %q", got)
	}
}

func TestParseMACRejectsGarbage(t *testing.T) {
	if _, err := ParseMAC("not-a-mac"); err == nil {
		t.Fatal("expected error for malformed MAC")
	}
}

func TestBroadcastIsAllOnes(t *testing.T) {
	if Broadcast.String() != "ff:ff:ff:ff:ff:ff" {
		t.Fatalf("got %q", Broadcast.String())
	}
}
