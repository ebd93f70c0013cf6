package port

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/open-switch/opx-dhcp-agent/internal/checksum"
	"github.com/open-switch/opx-dhcp-agent/internal/netfmt"
)

const (
	etherTypeIPv4 = 0x0800
	ipProtoUDP    = 17
	ipTTL         = 128
	ipTOS         = 0x10
)

// buildFrame assembles a complete Ethernet II / IPv4 / UDP frame carrying
// payload, per §6: dst MAC always broadcast, dst IP always
// 255.255.255.255, checksums computed over the UDP pseudo-header and a
// zeroed IPv4 header, with a computed zero UDP checksum normalized to
// 0xFFFF.
func buildFrame(srcMAC net.HardwareAddr, srcIP string, srcPort, dstPort uint16, payload []byte) ([]byte, error) {
	src4, err := ipv4Bytes(srcIP)
	if err != nil {
		return nil, err
	}
	dst4 := [4]byte{255, 255, 255, 255}

	udpLen := 8 + len(payload)
	udp := make([]byte, 8, 8+len(payload))
	binary.BigEndian.PutUint16(udp[0:2], srcPort)
	binary.BigEndian.PutUint16(udp[2:4], dstPort)
	binary.BigEndian.PutUint16(udp[4:6], uint16(udpLen))
	udp = append(udp, payload...)
	cksum := checksum.UDPChecksum(src4, dst4, udp)
	binary.BigEndian.PutUint16(udp[6:8], cksum)

	ip := make([]byte, 20)
	ip[0] = 0x45 // version 4, IHL 5
	ip[1] = ipTOS
	binary.BigEndian.PutUint16(ip[2:4], uint16(20+udpLen))
	// identification, flags, fragment offset all zero: this agent never
	// fragments (§1 non-goals).
	ip[8] = ipTTL
	ip[9] = ipProtoUDP
	copy(ip[12:16], src4[:])
	copy(ip[16:20], dst4[:])
	binary.BigEndian.PutUint16(ip[10:12], checksum.IPv4HeaderChecksum(ip))

	frame := make([]byte, 0, 14+len(ip)+len(udp))
	frame = append(frame, netfmt.Broadcast...)
	frame = append(frame, srcMAC...)
	frame = append(frame, byte(etherTypeIPv4>>8), byte(etherTypeIPv4))
	frame = append(frame, ip...)
	frame = append(frame, udp...)
	return frame, nil
}

func ipv4Bytes(s string) ([4]byte, error) {
	var out [4]byte
	ip := net.ParseIP(s)
	if ip == nil {
		return out, fmt.Errorf("port: %q is not an IP address", s)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return out, fmt.Errorf("port: %q is not an IPv4 address", s)
	}
	copy(out[:], ip4)
	return out, nil
}

// stripToUDPPayload parses an Ethernet/IPv4/UDP frame that matched the
// capture filter and returns the UDP payload, source IP, and source MAC.
// Parsing is done by direct offset (no gopacket layer decode) since every
// frame here is known to be Ethernet II / IPv4 / UDP by construction of
// the BPF filter.
func stripToUDPPayload(frame []byte) (payload []byte, srcIP, srcMAC string, err error) {
	const ethHeaderLen = 14
	if len(frame) < ethHeaderLen {
		return nil, "", "", fmt.Errorf("port: short frame (%d bytes)", len(frame))
	}
	etherType := binary.BigEndian.Uint16(frame[12:14])
	if etherType != etherTypeIPv4 {
		return nil, "", "", fmt.Errorf("port: unsupported ethertype %#04x", etherType)
	}
	srcMAC = net.HardwareAddr(frame[6:12]).String()

	ipStart := ethHeaderLen
	if len(frame) < ipStart+20 {
		return nil, "", "", fmt.Errorf("port: short IP header")
	}
	ipHdr := frame[ipStart:]
	ihl := int(ipHdr[0]&0x0F) * 4
	if ihl < 20 || len(frame) < ipStart+ihl {
		return nil, "", "", fmt.Errorf("port: invalid IP header length")
	}
	if ipHdr[9] != ipProtoUDP {
		return nil, "", "", fmt.Errorf("port: unsupported IP protocol %d", ipHdr[9])
	}
	srcIP = net.IP(ipHdr[12:16]).String()

	udpStart := ipStart + ihl
	if len(frame) < udpStart+8 {
		return nil, "", "", fmt.Errorf("port: short UDP header")
	}
	udpLen := int(binary.BigEndian.Uint16(frame[udpStart+4 : udpStart+6]))
	payloadStart := udpStart + 8
	payloadEnd := udpStart + udpLen
	if udpLen < 8 || payloadEnd > len(frame) {
		payloadEnd = len(frame)
	}
	if payloadStart > len(frame) {
		return nil, "", "", fmt.Errorf("port: short UDP payload")
	}
	return frame[payloadStart:payloadEnd], srcIP, srcMAC, nil
}
