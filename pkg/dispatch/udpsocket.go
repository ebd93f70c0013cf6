package dispatch

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// openUDPSocket binds an IPv4/UDP socket to 0.0.0.0:67 and returns it as
// a *net.UDPConn, configured non-blocking directly via golang.org/x/sys/
// unix (the teacher's own low-level socket dependency) rather than
// net.ListenUDP, so the dispatcher's readiness loop owns the same kind
// of raw descriptor as PacketPort's trusted socket.
func openUDPSocket() (*net.UDPConn, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, unix.IPPROTO_UDP)
	if err != nil {
		return nil, fmt.Errorf("dispatch: socket: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("dispatch: set nonblocking: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("dispatch: set reuseaddr: %w", err)
	}
	addr := unix.SockaddrInet4{Port: 67}
	if err := unix.Bind(fd, &addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("dispatch: bind :67: %w", err)
	}

	f := os.NewFile(uintptr(fd), "opx-dhcp-agent-udp67")
	defer f.Close()
	conn, err := net.FilePacketConn(f)
	if err != nil {
		return nil, fmt.Errorf("dispatch: wrap socket: %w", err)
	}
	udpConn, ok := conn.(*net.UDPConn)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("dispatch: unexpected conn type %T", conn)
	}
	return udpConn, nil
}
