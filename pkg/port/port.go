// Package port implements PacketPort: the per-bridge owner of a live
// capture handle, an optional raw L2 socket bound to a trusted upstream
// port, interface address caches, and the two outbound send paths with
// correct framing and checksums.
package port

import (
	"fmt"
	"net"
	"time"

	"github.com/google/gopacket/pcap"
	mdpacket "github.com/mdlayher/packet"

	"github.com/open-switch/opx-dhcp-agent/internal/logging"
	"github.com/open-switch/opx-dhcp-agent/internal/netfmt"
	"github.com/open-switch/opx-dhcp-agent/pkg/fdb"
	"github.com/open-switch/opx-dhcp-agent/pkg/tap"
)

const (
	captureFilter = "udp and (dst port 68) or (dst port 67)"
	snapLen       = 1500
	captureTimeout = time.Millisecond
	dhcpServerPort = 67
	dhcpClientPort = 68
)

// Mode selects a port's forwarding behavior.
type Mode int

const (
	// ModeUdpRelay rewrites giaddr and forwards requests over the shared
	// UDP socket to Config.RelayDst.
	ModeUdpRelay Mode = iota
	// ModeMitm intercepts on the bridge and egresses via Config.Trusted.
	ModeMitm
)

// Config describes one bridge interface to open. Exactly one of RelayDst
// (ModeUdpRelay) or Trusted (ModeMitm) is meaningful, matching
// InterfaceConfig's "both or neither is invalid" rule, enforced by the
// caller (pkg/config) before reaching here.
type Config struct {
	Name     string
	Mode     Mode
	RelayDst string // ModeUdpRelay
	Trusted  string // ModeMitm
}

// Port is one open bridge interface: its capture handle, optional trusted
// raw socket, address cache, installed taps, and FDB adapter.
type Port struct {
	cfg   Config
	log   *logging.Logger
	id    string
	handle *pcap.Handle
	trusted *mdpacket.Conn
	mac    net.HardwareAddr
	ip     string
	hasIP  bool
	fdbLk  fdb.Lookup
	taps   *tap.Tap
}

// Open acquires every resource described by cfg: the capture handle (snap
// length 1500, promiscuous, ~1ms timeout, the DHCP BPF filter), the
// interface's MAC (required) and IPv4 (optional), and, for ModeMitm, a
// trusted-port raw socket and bridge trap rules excluding the trusted
// port. A failure at any step releases everything already acquired.
func Open(cfg Config, runID string, newFDB func(bridge string) (fdb.Lookup, error), log *logging.Logger) (p *Port, err error) {
	opened := &Port{cfg: cfg, log: log, id: fmt.Sprintf("%s#%s", cfg.Name, runID)}
	p = opened
	defer func() {
		if err != nil {
			opened.Close()
			p = nil
		}
	}()

	iface, err := net.InterfaceByName(cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("port %s: resolve interface: %w", cfg.Name, err)
	}
	if len(iface.HardwareAddr) == 0 {
		return nil, fmt.Errorf("port %s: interface has no hardware address", cfg.Name)
	}
	p.mac = iface.HardwareAddr
	if ip, ok := netfmt.InterfaceIPv4(iface); ok {
		p.ip, p.hasIP = ip, true
	}

	handle, err := pcap.OpenLive(cfg.Name, snapLen, true, captureTimeout)
	if err != nil {
		return nil, fmt.Errorf("port %s: open capture: %w", cfg.Name, err)
	}
	p.handle = handle
	if err := p.handle.SetBPFFilter(captureFilter); err != nil {
		return nil, fmt.Errorf("port %s: set BPF filter: %w", cfg.Name, err)
	}

	lk, err := newFDB(cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("port %s: open FDB adapter: %w", cfg.Name, err)
	}
	p.fdbLk = lk

	if cfg.Mode == ModeMitm {
		trustedIface, err := net.InterfaceByName(cfg.Trusted)
		if err != nil {
			return nil, fmt.Errorf("port %s: resolve trusted interface %s: %w", cfg.Name, cfg.Trusted, err)
		}
		conn, err := mdpacket.Listen(trustedIface, mdpacket.Raw, 0x0800, nil)
		if err != nil {
			return nil, fmt.Errorf("port %s: open trusted socket on %s: %w", cfg.Name, cfg.Trusted, err)
		}
		p.trusted = conn
		t, err := tap.Install(cfg.Name, cfg.Trusted)
		if err != nil {
			return nil, fmt.Errorf("port %s: install trap rules: %w", cfg.Name, err)
		}
		p.taps = t
	}
	return p, nil
}

// Name returns the bridge interface name.
func (p *Port) Name() string { return p.cfg.Name }

// ID returns the run-scoped identifier used to disambiguate this instance
// in log output across reconfiguration churn.
func (p *Port) ID() string { return p.id }

// Mode returns the configured forwarding mode.
func (p *Port) Mode() Mode { return p.cfg.Mode }

// RelayDst returns the configured UDP relay destination (ModeUdpRelay).
func (p *Port) RelayDst() string { return p.cfg.RelayDst }

// IPv4 returns the interface's IPv4 address, if known.
func (p *Port) IPv4() (string, bool) { return p.ip, p.hasIP }

// Recv reads the next ready frame and returns its UDP payload, source IP,
// and source MAC. A timeout with no packet available returns ok=false
// with a nil error.
func (p *Port) Recv() (payload []byte, srcIP, srcMAC string, ok bool, err error) {
	// ReadPacketData (not the zero-copy variant) because the returned
	// slice is handed across d.portEvents to the dispatcher goroutine;
	// a zero-copy buffer would be overwritten by the next Recv before
	// the dispatcher gets to parse it.
	data, _, err := p.handle.ReadPacketData()
	if err != nil {
		if err == pcap.NextErrorTimeoutExpired {
			return nil, "", "", false, nil
		}
		return nil, "", "", false, fmt.Errorf("port %s: recv: %w", p.cfg.Name, err)
	}
	payload, srcIP, srcMAC, err = stripToUDPPayload(data)
	if err != nil {
		return nil, "", "", false, fmt.Errorf("port %s: %w", p.cfg.Name, err)
	}
	return payload, srcIP, srcMAC, true, nil
}

// SendClient emits payload toward the client: UDP sport 67, dport 68, via
// the capture handle. srcIP/srcMAC override the interface defaults when
// non-empty (the agent passes the sender's addresses when relaying a
// BOOTREPLY seen on a downstream port, and none for an upstream reply).
func (p *Port) SendClient(payload []byte, srcIP, srcMAC string) error {
	mac := p.mac
	if srcMAC != "" {
		if parsed, err := netfmt.ParseMAC(srcMAC); err == nil {
			mac = parsed
		}
	}
	ip := p.ip
	if srcIP != "" {
		ip = srcIP
	}
	if ip == "" {
		return fmt.Errorf("port %s: no source IPv4 available for send_client", p.cfg.Name)
	}
	frame, err := buildFrame(mac, ip, dhcpServerPort, dhcpClientPort, payload)
	if err != nil {
		return fmt.Errorf("port %s: build frame: %w", p.cfg.Name, err)
	}
	if err := p.handle.WritePacketData(frame); err != nil {
		return fmt.Errorf("port %s: send_client: %w", p.cfg.Name, err)
	}
	return nil
}

// SendUpstream emits payload toward the server: UDP sport 68, dport 67,
// via the trusted raw L2 socket. Valid only in ModeMitm.
func (p *Port) SendUpstream(payload []byte, srcIP, srcMAC string) error {
	if p.trusted == nil {
		return fmt.Errorf("port %s: send_upstream requires MITM mode", p.cfg.Name)
	}
	mac := p.mac
	if srcMAC != "" {
		if parsed, err := netfmt.ParseMAC(srcMAC); err == nil {
			mac = parsed
		}
	}
	ip := p.ip
	if srcIP != "" {
		ip = srcIP
	}
	if ip == "" {
		return fmt.Errorf("port %s: no source IPv4 available for send_upstream", p.cfg.Name)
	}
	frame, err := buildFrame(mac, ip, dhcpClientPort, dhcpServerPort, payload)
	if err != nil {
		return fmt.Errorf("port %s: build frame: %w", p.cfg.Name, err)
	}
	addr := &mdpacket.Addr{HardwareAddr: netfmt.Broadcast}
	if _, err := p.trusted.WriteTo(frame, addr); err != nil {
		return fmt.Errorf("port %s: send_upstream: %w", p.cfg.Name, err)
	}
	return nil
}

// FDBLookup proxies to the port's FDB adapter.
func (p *Port) FDBLookup(chaddr string) (string, bool) {
	if p.fdbLk == nil {
		return "", false
	}
	return p.fdbLk.LookupMAC(chaddr)
}

// Close releases every resource this Port holds, on every exit path: taps
// first (they depend on the bridge still existing), then the trusted
// socket, the FDB adapter, and finally the capture handle. Errors are
// logged, not propagated (§7).
func (p *Port) Close() error {
	if p.taps != nil {
		if err := p.taps.Close(); err != nil && p.log != nil {
			p.log.Errorf("port %s: close taps: %v", p.cfg.Name, err)
		}
		p.taps = nil
	}
	if p.trusted != nil {
		if err := p.trusted.Close(); err != nil && p.log != nil {
			p.log.Errorf("port %s: close trusted socket: %v", p.cfg.Name, err)
		}
		p.trusted = nil
	}
	if p.fdbLk != nil {
		if err := p.fdbLk.Close(); err != nil && p.log != nil {
			p.log.Errorf("port %s: close FDB adapter: %v", p.cfg.Name, err)
		}
		p.fdbLk = nil
	}
	if p.handle != nil {
		p.handle.Close()
		p.handle = nil
	}
	return nil
}
