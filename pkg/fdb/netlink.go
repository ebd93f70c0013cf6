package fdb

import (
	"fmt"
	"sync"
	"syscall"

	"github.com/vishvananda/netlink"
)

// NetlinkFDB looks up bridge forwarding entries via the kernel's rtnetlink
// bridge-family neighbor table, the portable equivalent of reading
// /sys/class/net/<bridge>/brforward directly. It is the default Lookup
// implementation; SysfsFDB remains available for environments without
// netlink socket access.
type NetlinkFDB struct {
	mu     sync.Mutex
	bridge netlink.Link
}

var _ Lookup = (*NetlinkFDB)(nil)

// NewNetlinkFDB resolves bridge by name and returns a Lookup over its FDB.
func NewNetlinkFDB(bridge string) (*NetlinkFDB, error) {
	link, err := netlink.LinkByName(bridge)
	if err != nil {
		return nil, fmt.Errorf("fdb: resolve bridge %q: %w", bridge, err)
	}
	return &NetlinkFDB{bridge: link}, nil
}

// LookupMAC lists the bridge's FDB and returns the port name owning mac.
func (f *NetlinkFDB) LookupMAC(mac string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	neighs, err := netlink.NeighList(f.bridge.Attrs().Index, syscall.AF_BRIDGE)
	if err != nil {
		return "", false
	}
	for _, n := range neighs {
		if n.HardwareAddr.String() != mac {
			continue
		}
		link, err := netlink.LinkByIndex(n.LinkIndex)
		if err != nil {
			continue
		}
		return link.Attrs().Name, true
	}
	return "", false
}

// Close releases no resources: netlink.NeighList opens and closes its own
// socket per call.
func (f *NetlinkFDB) Close() error { return nil }
