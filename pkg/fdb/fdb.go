// Package fdb looks up a client's hardware address in a bridge's forwarding
// database to recover the ingress port name used for RFC 3046 circuit-id
// injection.
package fdb

// Lookup maps a client chaddr (colon-hex string) to the name of the bridge
// port that last saw traffic from it, as consumed by pkg/port's circuit-id
// injection.
type Lookup interface {
	// LookupMAC returns the bridge port name for mac, and false if the
	// bridge has no forwarding entry for it.
	LookupMAC(mac string) (port string, ok bool)
	// Close releases any resources (netlink sockets, open files) held by
	// the lookup.
	Close() error
}
