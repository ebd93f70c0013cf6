// Package config loads the agent's interface configuration from a gcfg
// INI file, shaped after the teacher's own cfgReadType/verifyConfig
// pattern, and translates it into the core-facing ConfigSnapshot.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/gravwell/gcfg"

	"github.com/open-switch/opx-dhcp-agent/pkg/port"
	"github.com/open-switch/opx-dhcp-agent/pkg/values"
)

// maxConfigSize bounds the config file read, mirroring the teacher's own
// sanity cap on ingester config files.
const maxConfigSize int64 = 1024 * 1024 * 2

// interfaceStanza is one `[Interface "name"]` section as gcfg populates
// it: at most one of Relay_Server/Trusted_Port is meaningful, validated
// by Snapshot.
type interfaceStanza struct {
	Mode         string
	Relay_Server string
	Trusted_Port string
}

// fileReadType is the raw gcfg-decoded shape of the config file.
type fileReadType struct {
	Interface map[string]*interfaceStanza
}

// FileConfig is a loaded, not-yet-validated configuration file.
type FileConfig struct {
	interfaces map[string]*interfaceStanza
}

// LoadFile reads path with a size-capped reader and parses it as gcfg
// INI, mirroring networkLog/config.GetConfig's read discipline.
func LoadFile(path string) (FileConfig, error) {
	fin, err := os.Open(path)
	if err != nil {
		return FileConfig{}, err
	}
	defer fin.Close()

	fi, err := fin.Stat()
	if err != nil {
		return FileConfig{}, err
	}
	if fi.Size() > maxConfigSize {
		return FileConfig{}, fmt.Errorf("config: %s exceeds %d bytes", path, maxConfigSize)
	}
	content := make([]byte, fi.Size())
	if n, err := fin.Read(content); err != nil || int64(n) != fi.Size() {
		return FileConfig{}, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var fr fileReadType
	if err := gcfg.ReadStringInto(&fr, string(content)); err != nil {
		return FileConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return FileConfig{interfaces: fr.Interface}, nil
}

// Snapshot validates every stanza and translates it into a
// ConfigSnapshot. Mode must be "relay" or "mitm"; relay requires
// Relay-Server; mitm requires Trusted-Port; either missing or both
// present is rejected with values.ErrBadValue.
func (fc FileConfig) Snapshot() (Snapshot, error) {
	snap := Snapshot{interfaces: map[string]port.Config{}}
	for name, st := range fc.interfaces {
		cfg, err := stanzaToConfig(name, st)
		if err != nil {
			return Snapshot{}, err
		}
		snap.interfaces[name] = cfg
	}
	return snap, nil
}

func stanzaToConfig(name string, st *interfaceStanza) (port.Config, error) {
	hasDst := st.Relay_Server != ""
	hasTrusted := st.Trusted_Port != ""
	if hasDst == hasTrusted {
		return port.Config{}, fmt.Errorf("%w: interface %q must set exactly one of Relay-Server/Trusted-Port", values.ErrBadValue, name)
	}
	switch st.Mode {
	case "relay":
		if !hasDst {
			return port.Config{}, fmt.Errorf("%w: interface %q mode relay requires Relay-Server", values.ErrBadValue, name)
		}
		return port.Config{Name: name, Mode: port.ModeUdpRelay, RelayDst: st.Relay_Server}, nil
	case "mitm":
		if !hasTrusted {
			return port.Config{}, fmt.Errorf("%w: interface %q mode mitm requires Trusted-Port", values.ErrBadValue, name)
		}
		return port.Config{Name: name, Mode: port.ModeMitm, Trusted: st.Trusted_Port}, nil
	default:
		return port.Config{}, fmt.Errorf("%w: interface %q has unknown mode %q", values.ErrBadValue, name, st.Mode)
	}
}

// Snapshot is the core-facing ConfigSnapshot: an ordered set of
// InterfaceConfig records, keyed by interface name.
type Snapshot struct {
	interfaces map[string]port.Config
}

// NewSnapshot returns an empty snapshot, used by Store as its initial
// state and by tests constructing a snapshot without a file.
func NewSnapshot() Snapshot {
	return Snapshot{interfaces: map[string]port.Config{}}
}

// Names returns every interface name in the snapshot, sorted, giving the
// reconciler a deterministic open/close order.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s.interfaces))
	for name := range s.interfaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the InterfaceConfig for name, if present.
func (s Snapshot) Get(name string) (port.Config, bool) {
	c, ok := s.interfaces[name]
	return c, ok
}

// ErrExists is returned by Create when name is already present.
var ErrExists = errors.New("config: interface already exists")

// ErrNotExist is returned by Delete/Set when name is absent.
var ErrNotExist = errors.New("config: interface does not exist")

// Create adds a new interface, rejecting a duplicate name (§6).
func (s Snapshot) Create(cfg port.Config) error {
	if _, ok := s.interfaces[cfg.Name]; ok {
		return fmt.Errorf("%w: %q", ErrExists, cfg.Name)
	}
	s.interfaces[cfg.Name] = cfg
	return nil
}

// Delete removes an interface by name (§6).
func (s Snapshot) Delete(name string) error {
	if _, ok := s.interfaces[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotExist, name)
	}
	delete(s.interfaces, name)
	return nil
}

// Set replaces the mode fields of an existing interface: both
// Relay-Server and Trusted-Port are cleared, then the one supplied by
// cfg is applied (§6).
func (s Snapshot) Set(cfg port.Config) error {
	if _, ok := s.interfaces[cfg.Name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotExist, cfg.Name)
	}
	s.interfaces[cfg.Name] = cfg
	return nil
}

// Clone returns a deep-enough copy of s for safe single-writer/
// single-reader handoff between the watcher and the dispatcher.
func (s Snapshot) Clone() Snapshot {
	out := NewSnapshot()
	for name, cfg := range s.interfaces {
		out.interfaces[name] = cfg
	}
	return out
}
