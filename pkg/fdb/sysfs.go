package fdb

import (
	"fmt"
	"os"
	"path/filepath"
)

// brforwardEntrySize is the size in bytes of one __fdb_entry record
// (linux/if_bridge.h): 6 bytes MAC, port_no, is_local, 4-byte ageing
// timer, port_hi, pad, 2 bytes unused.
const brforwardEntrySize = 16

// SysfsFDB reads a Linux bridge's forwarding database directly from
// sysfs, as the original source does. It is refreshed on every lookup.
type SysfsFDB struct {
	bridge string
}

var _ Lookup = (*SysfsFDB)(nil)

// NewSysfsFDB returns a Lookup backed by
// /sys/class/net/<bridge>/{brif,brforward}.
func NewSysfsFDB(bridge string) *SysfsFDB {
	return &SysfsFDB{bridge: bridge}
}

func (f *SysfsFDB) portNames() (map[int]string, error) {
	dir := filepath.Join("/sys/class/net", f.bridge, "brif")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("fdb: list %s: %w", dir, err)
	}
	out := make(map[int]string, len(entries))
	for _, e := range entries {
		portNoPath := filepath.Join(dir, e.Name(), "port_no")
		b, err := os.ReadFile(portNoPath)
		if err != nil {
			continue
		}
		var portNo int
		if _, err := fmt.Sscanf(string(b), "0x%x", &portNo); err != nil {
			if _, err := fmt.Sscanf(string(b), "%d", &portNo); err != nil {
				continue
			}
		}
		out[portNo] = e.Name()
	}
	return out, nil
}

// LookupMAC re-reads the bridge's forwarding database and returns the
// port name for mac, if present.
func (f *SysfsFDB) LookupMAC(mac string) (string, bool) {
	ports, err := f.portNames()
	if err != nil {
		return "", false
	}
	path := filepath.Join("/sys/class/net", f.bridge, "brforward")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	for off := 0; off+brforwardEntrySize <= len(data); off += brforwardEntrySize {
		rec := data[off : off+brforwardEntrySize]
		entryMAC := fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
			rec[0], rec[1], rec[2], rec[3], rec[4], rec[5])
		portNo := int(rec[6])
		// rec[7] is is_local, rec[8:12] the ageing timer; neither is
		// needed for a port-name lookup.
		if entryMAC == mac {
			if name, ok := ports[portNo]; ok {
				return name, true
			}
		}
	}
	return "", false
}

// Close is a no-op: SysfsFDB holds no persistent resources between calls.
func (f *SysfsFDB) Close() error { return nil }
