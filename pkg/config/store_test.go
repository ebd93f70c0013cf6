package config

import (
	"testing"

	"github.com/open-switch/opx-dhcp-agent/pkg/port"
)

func TestStorePublishesOnMutation(t *testing.T) {
	s := NewStore()
	cfg := port.Config{Name: "br100", Mode: port.ModeUdpRelay, RelayDst: "10.0.0.1"}
	if err := s.Create(cfg); err != nil {
		t.Fatal(err)
	}

	select {
	case snap := <-s.Pending():
		got, ok := snap.Get("br100")
		if !ok || got.RelayDst != "10.0.0.1" {
			t.Fatalf("unexpected published snapshot: %+v", got)
		}
	default:
		t.Fatal("expected a pending snapshot after Create")
	}
}

func TestStorePendingCoalescesToLatest(t *testing.T) {
	s := NewStore()
	a := port.Config{Name: "br100", Mode: port.ModeUdpRelay, RelayDst: "10.0.0.1"}
	if err := s.Create(a); err != nil {
		t.Fatal(err)
	}
	b := port.Config{Name: "br200", Mode: port.ModeMitm, Trusted: "eth0"}
	if err := s.Create(b); err != nil {
		t.Fatal(err)
	}

	snap := <-s.Pending()
	if _, ok := snap.Get("br100"); !ok {
		t.Fatal("expected coalesced snapshot to include br100")
	}
	if _, ok := snap.Get("br200"); !ok {
		t.Fatal("expected coalesced snapshot to include br200")
	}

	select {
	case extra := <-s.Pending():
		t.Fatalf("expected no further pending snapshot, got %+v", extra)
	default:
	}
}

func TestStoreGetReflectsCurrentState(t *testing.T) {
	s := NewStore()
	if _, ok := s.Get("br100"); ok {
		t.Fatal("expected no config before Create")
	}
	cfg := port.Config{Name: "br100", Mode: port.ModeUdpRelay, RelayDst: "10.0.0.1"}
	if err := s.Create(cfg); err != nil {
		t.Fatal(err)
	}
	got, ok := s.Get("br100")
	if !ok || got.RelayDst != "10.0.0.1" {
		t.Fatalf("unexpected config: %+v", got)
	}
}
