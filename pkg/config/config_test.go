package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/open-switch/opx-dhcp-agent/pkg/port"
	"github.com/open-switch/opx-dhcp-agent/pkg/values"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.conf")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFileRelayStanza(t *testing.T) {
	path := writeTempConfig(t, `
[Interface "br100"]
Mode = relay
Relay-Server = 10.0.0.1
`)
	fc, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := fc.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	cfg, ok := snap.Get("br100")
	if !ok {
		t.Fatal("expected br100 in snapshot")
	}
	if cfg.Mode != port.ModeUdpRelay || cfg.RelayDst != "10.0.0.1" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadFileMitmStanza(t *testing.T) {
	path := writeTempConfig(t, `
[Interface "br200"]
Mode = mitm
Trusted-Port = eth0
`)
	fc, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := fc.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	cfg, ok := snap.Get("br200")
	if !ok {
		t.Fatal("expected br200 in snapshot")
	}
	if cfg.Mode != port.ModeMitm || cfg.Trusted != "eth0" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestSnapshotRejectsBothRelayAndTrusted(t *testing.T) {
	path := writeTempConfig(t, `
[Interface "br300"]
Mode = relay
Relay-Server = 10.0.0.1
Trusted-Port = eth0
`)
	fc, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fc.Snapshot(); err == nil {
		t.Fatal("expected error when both Relay-Server and Trusted-Port are set")
	} else if !errors.Is(err, values.ErrBadValue) {
		t.Fatalf("expected ErrBadValue, got %v", err)
	}
}

func TestSnapshotRejectsNeitherRelayNorTrusted(t *testing.T) {
	path := writeTempConfig(t, `
[Interface "br400"]
Mode = relay
`)
	fc, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fc.Snapshot(); err == nil {
		t.Fatal("expected error when neither Relay-Server nor Trusted-Port is set")
	} else if !errors.Is(err, values.ErrBadValue) {
		t.Fatalf("expected ErrBadValue, got %v", err)
	}
}

func TestSnapshotRejectsUnknownMode(t *testing.T) {
	path := writeTempConfig(t, `
[Interface "br500"]
Mode = bogus
Relay-Server = 10.0.0.1
`)
	fc, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fc.Snapshot(); err == nil {
		t.Fatal("expected error for unknown mode")
	} else if !errors.Is(err, values.ErrBadValue) {
		t.Fatalf("expected ErrBadValue, got %v", err)
	}
}

func TestSnapshotCreateDeleteSet(t *testing.T) {
	snap := NewSnapshot()
	cfg := port.Config{Name: "br100", Mode: port.ModeUdpRelay, RelayDst: "10.0.0.1"}
	if err := snap.Create(cfg); err != nil {
		t.Fatal(err)
	}
	if err := snap.Create(cfg); err == nil {
		t.Fatal("expected ErrExists on duplicate create")
	}

	updated := port.Config{Name: "br100", Mode: port.ModeMitm, Trusted: "eth0"}
	if err := snap.Set(updated); err != nil {
		t.Fatal(err)
	}
	got, ok := snap.Get("br100")
	if !ok || got.Mode != port.ModeMitm || got.Trusted != "eth0" {
		t.Fatalf("unexpected config after Set: %+v", got)
	}

	if err := snap.Delete("br100"); err != nil {
		t.Fatal(err)
	}
	if _, ok := snap.Get("br100"); ok {
		t.Fatal("expected br100 to be gone after Delete")
	}
	if err := snap.Delete("br100"); err == nil {
		t.Fatal("expected ErrNotExist on double delete")
	}
}

func TestSnapshotCloneIsIndependent(t *testing.T) {
	snap := NewSnapshot()
	if err := snap.Create(port.Config{Name: "br100", Mode: port.ModeUdpRelay, RelayDst: "10.0.0.1"}); err != nil {
		t.Fatal(err)
	}
	clone := snap.Clone()
	if err := snap.Delete("br100"); err != nil {
		t.Fatal(err)
	}
	if _, ok := clone.Get("br100"); !ok {
		t.Fatal("clone must be unaffected by mutation of the original")
	}
}
