// Package netfmt holds small MAC/IP formatting helpers shared by the
// packet port and FDB adapters.
package netfmt

import (
	"fmt"
	"net"
)

// Broadcast is the Ethernet broadcast address used for every frame this
// agent emits (both directions are always broadcast, per §6).
var Broadcast = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// FormatMAC renders a hardware address as lowercase colon-hex.
func FormatMAC(mac net.HardwareAddr) string {
	return mac.String()
}

// ParseMAC parses a colon-hex hardware address.
func ParseMAC(s string) (net.HardwareAddr, error) {
	mac, err := net.ParseMAC(s)
	if err != nil {
		return nil, fmt.Errorf("netfmt: %w", err)
	}
	return mac, nil
}

// InterfaceIPv4 returns the first IPv4 address configured on iface, or
// ("", false) if none is assigned. IPv4 is optional per §4.5; only the MAC
// is required.
func InterfaceIPv4(iface *net.Interface) (string, bool) {
	addrs, err := iface.Addrs()
	if err != nil {
		return "", false
	}
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip4 := ip.To4(); ip4 != nil {
			return ip4.String(), true
		}
	}
	return "", false
}
