// Package agent implements the transaction-correlation state machine
// described by §4.6: BOOTREQUEST/BOOTREPLY direction detection, the
// xid-keyed transaction table, RFC 3046 circuit-id injection, giaddr
// rewriting, and dispatch to one of the three send actions.
package agent

import (
	"fmt"
	"time"

	"github.com/open-switch/opx-dhcp-agent/internal/logging"
	"github.com/open-switch/opx-dhcp-agent/pkg/dhcpmsg"
	"github.com/open-switch/opx-dhcp-agent/pkg/options"
	"github.com/open-switch/opx-dhcp-agent/pkg/port"
)

// Kind selects how an Action is emitted.
type Kind int

const (
	// None means nothing should be emitted.
	None Kind = iota
	// UdpRelay sends Payload as a UDP datagram to RelayDst:67 from the
	// shared UDP socket.
	UdpRelay
	// Mitm sends Payload via send_upstream on OriginPort.
	Mitm
	// EmitClient sends Payload via send_client on OriginPort.
	EmitClient
)

// Action is the result of processing one packet: what to do, and with
// what payload, destination, and source-address override.
type Action struct {
	Kind       Kind
	Payload    []byte
	RelayDst   string
	OriginPort string
	SrcIP      string
	SrcMAC     string
}

// PortView is the subset of *pkg/port.Port the agent needs to make a
// routing decision: its name, mode, relay destination, address, and FDB
// adapter. Defined as an interface so the decision procedure can be
// tested without opening real capture handles or sockets.
type PortView interface {
	Name() string
	Mode() port.Mode
	RelayDst() string
	IPv4() (string, bool)
	FDBLookup(chaddr string) (string, bool)
}

// Agent owns the transaction table. Every method must be called from a
// single goroutine (§5) — Agent performs no internal locking.
type Agent struct {
	log   *logging.Logger
	reg   *options.Registry
	table table
}

// New returns an Agent with an empty transaction table. reg decodes and
// re-encodes options during circuit-id injection; a nil reg uses
// options.BuiltIns().
func New(reg *options.Registry, log *logging.Logger) *Agent {
	if reg == nil {
		reg = options.BuiltIns()
	}
	return &Agent{log: log, reg: reg, table: newTable()}
}

// Expire deletes every transaction entry older than Timeout as of now,
// called once per outer poll tick per §4.6.
func (a *Agent) Expire(now time.Time) {
	a.table.expire(now)
}

// ProcessUpstream handles a packet received on the shared UDP socket:
// step 2 of the decision procedure. A BOOTREQUEST arriving upstream is
// spurious and dropped; a BOOTREPLY is correlated against the
// transaction table by xid.
func (a *Agent) ProcessUpstream(payload []byte, now time.Time) (Action, error) {
	msg, err := dhcpmsg.Unpack(payload)
	if err != nil {
		return Action{}, nil
	}
	if msg.Op() == dhcpmsg.BOOTREQUEST {
		return Action{}, nil
	}
	xid := msg.Xid()
	e, ok := a.table[xid]
	if !ok {
		return Action{}, nil
	}
	delete(a.table, xid)
	if err := msg.Set(dhcpmsg.FieldGiaddr, "0.0.0.0"); err != nil {
		return Action{}, fmt.Errorf("agent: rewrite giaddr: %w", err)
	}
	out, err := msg.Pack()
	if err != nil {
		return Action{}, fmt.Errorf("agent: pack reply: %w", err)
	}
	return Action{
		Kind:       EmitClient,
		Payload:    out,
		OriginPort: e.originPort,
		SrcIP:      "",
		SrcMAC:     "",
	}, nil
}

// ProcessDownstream handles a packet received on p: step 3 of the
// decision procedure. p, srcIP, and srcMAC describe the port and sender
// that produced payload.
func (a *Agent) ProcessDownstream(payload []byte, p PortView, srcIP, srcMAC string, now time.Time) (Action, error) {
	msg, err := dhcpmsg.Unpack(payload)
	if err != nil {
		return Action{}, nil
	}

	if msg.Op() != dhcpmsg.BOOTREQUEST {
		// A reply arriving from downstream is relayed unmodified (§9).
		out, err := msg.Pack()
		if err != nil {
			return Action{}, fmt.Errorf("agent: pack downstream reply: %w", err)
		}
		return Action{Kind: EmitClient, Payload: out, OriginPort: p.Name(), SrcIP: srcIP, SrcMAC: srcMAC}, nil
	}

	xid := msg.Xid()
	a.table[xid] = entry{originPort: p.Name(), srcIP: srcIP, srcMAC: srcMAC, stamp: now}

	if circuitID, ok := p.FDBLookup(msg.Chaddr()); ok {
		if err := msg.EncodeOptions([]options.Option{
			{Name: "Relay Agent Information", Value: map[string]string{"circuit-id": circuitID}},
		}, a.reg, true); err != nil {
			return Action{}, fmt.Errorf("agent: inject circuit-id: %w", err)
		}
	} else if a.log != nil {
		a.log.Errorf("agent: no FDB entry for chaddr %s on port %s", msg.Chaddr(), p.Name())
	}

	act := Action{OriginPort: p.Name(), SrcIP: srcIP, SrcMAC: srcMAC}
	switch p.Mode() {
	case port.ModeUdpRelay:
		if ifaddr, ok := p.IPv4(); ok {
			if err := msg.Set(dhcpmsg.FieldGiaddr, ifaddr); err != nil {
				return Action{}, fmt.Errorf("agent: rewrite giaddr: %w", err)
			}
			act.Kind = UdpRelay
			act.RelayDst = p.RelayDst()
		}
	case port.ModeMitm:
		act.Kind = Mitm
	}

	out, err := msg.Pack()
	if err != nil {
		return Action{}, fmt.Errorf("agent: pack request: %w", err)
	}
	act.Payload = out
	return act, nil
}
