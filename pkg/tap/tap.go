// Package tap installs and removes the in-kernel trap rules that copy DHCP
// UDP traffic on a bridge's member ports to the agent's capture path,
// excluding the bridge's trusted (upstream) port.
//
// This is a portable software stand-in for the original's Dell-OPX
// CPS/NAS-ACL hardware ACL program, which has no Linux-generic
// equivalent: it uses tc's clsact/u32 classifier to redirect matching
// traffic instead of an ASIC "trap to CPU" action.
package tap

import (
	"fmt"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

const (
	dhcpServerPort = 67
	dhcpClientPort = 68
	filterPriority = 512
)

// Tap represents the set of trap rules installed for one bridge. Close
// removes every rule it installed, on every exit path.
type Tap struct {
	ports []string
}

// Install adds trap rules on every current member port of bridge except
// trusted (matched by name, not list identity — see design notes). An
// empty trusted excludes nothing (used in configurations with no upstream
// trusted port).
func Install(bridge, trusted string) (*Tap, error) {
	br, err := netlink.LinkByName(bridge)
	if err != nil {
		return nil, fmt.Errorf("tap: resolve bridge %q: %w", bridge, err)
	}
	members, err := memberPorts(br)
	if err != nil {
		return nil, fmt.Errorf("tap: list members of %q: %w", bridge, err)
	}

	t := &Tap{}
	for _, port := range members {
		if trusted != "" && port.Attrs().Name == trusted {
			continue
		}
		if err := installPort(port); err != nil {
			t.removeInstalled()
			return nil, fmt.Errorf("tap: install on %q: %w", port.Attrs().Name, err)
		}
		t.ports = append(t.ports, port.Attrs().Name)
	}
	return t, nil
}

func memberPorts(bridge netlink.Link) ([]netlink.Link, error) {
	all, err := netlink.LinkList()
	if err != nil {
		return nil, err
	}
	idx := bridge.Attrs().Index
	var out []netlink.Link
	for _, l := range all {
		if l.Attrs().MasterIndex == idx {
			out = append(out, l)
		}
	}
	return out, nil
}

func installPort(port netlink.Link) error {
	qdisc := &netlink.GenericQdisc{
		QdiscAttrs: netlink.QdiscAttrs{
			LinkIndex: port.Attrs().Index,
			Parent:    netlink.HANDLE_CLSACT,
			Handle:    netlink.MakeHandle(0xffff, 0),
		},
		QdiscType: "clsact",
	}
	if err := netlink.QdiscAdd(qdisc); err != nil {
		return fmt.Errorf("add clsact qdisc: %w", err)
	}
	for _, udpPort := range []uint16{dhcpServerPort, dhcpClientPort} {
		filter := udpDstPortFilter(port.Attrs().Index, udpPort)
		if err := netlink.FilterAdd(filter); err != nil {
			return fmt.Errorf("add trap filter for udp port %d: %w", udpPort, err)
		}
	}
	return nil
}

func udpDstPortFilter(linkIndex int, udpPort uint16) netlink.Filter {
	return &netlink.U32{
		FilterAttrs: netlink.FilterAttrs{
			LinkIndex: linkIndex,
			Parent:    netlink.HANDLE_MIN_INGRESS,
			Priority:  filterPriority,
			Protocol:  uint16(unix.ETH_P_IP),
		},
		Sel: &netlink.TcU32Sel{
			Keys: []netlink.TcU32Key{
				{
					Mask: 0x00ff0000,
					Val:  0x00110000,
					Off:  8, // IP protocol byte
				},
				{
					Mask: 0x0000ffff,
					Val:  uint32(udpPort),
					Off:  20, // UDP destination port, no IP options
				},
			},
		},
		Actions: []netlink.Action{
			&netlink.MirredAction{
				ActionAttrs: netlink.ActionAttrs{},
				Ifindex:     linkIndex,
				MirredAction: netlink.TCA_EGRESS_REDIR,
			},
		},
	}
}

// removeInstalled is used to unwind a partially completed Install.
func (t *Tap) removeInstalled() {
	for _, name := range t.ports {
		if link, err := netlink.LinkByName(name); err == nil {
			_ = netlink.QdiscDel(&netlink.GenericQdisc{
				QdiscAttrs: netlink.QdiscAttrs{
					LinkIndex: link.Attrs().Index,
					Parent:    netlink.HANDLE_CLSACT,
				},
				QdiscType: "clsact",
			})
		}
	}
	t.ports = nil
}

// Close removes every trap rule this Tap installed. Errors are not
// propagated: resource release failures are logged by the caller, not
// treated as fatal (§7).
func (t *Tap) Close() error {
	t.removeInstalled()
	return nil
}
