package agent

import (
	"testing"
	"time"

	"github.com/open-switch/opx-dhcp-agent/pkg/dhcpmsg"
	"github.com/open-switch/opx-dhcp-agent/pkg/options"
	"github.com/open-switch/opx-dhcp-agent/pkg/port"
)

// fakePort is a minimal PortView for exercising the decision procedure
// without opening a real capture handle or socket.
type fakePort struct {
	name     string
	mode     port.Mode
	relayDst string
	ifaddr   string
	hasAddr  bool
	fdb      map[string]string
}

func (p *fakePort) Name() string        { return p.name }
func (p *fakePort) Mode() port.Mode     { return p.mode }
func (p *fakePort) RelayDst() string    { return p.relayDst }
func (p *fakePort) IPv4() (string, bool) { return p.ifaddr, p.hasAddr }
func (p *fakePort) FDBLookup(mac string) (string, bool) {
	name, ok := p.fdb[mac]
	return name, ok
}

func buildRequest(t *testing.T, xid int64, giaddr, chaddr string) []byte {
	t.Helper()
	m := dhcpmsg.New()
	err := m.Update(map[string]any{
		dhcpmsg.FieldOp:      dhcpmsg.BOOTREQUEST,
		dhcpmsg.FieldHtype:   1,
		dhcpmsg.FieldHlen:    6,
		dhcpmsg.FieldHops:    0,
		dhcpmsg.FieldXid:     xid,
		dhcpmsg.FieldSecs:    0,
		dhcpmsg.FieldFlags:   0,
		dhcpmsg.FieldCiaddr:  "0.0.0.0",
		dhcpmsg.FieldYiaddr:  "0.0.0.0",
		dhcpmsg.FieldSiaddr:  "0.0.0.0",
		dhcpmsg.FieldGiaddr:  giaddr,
		dhcpmsg.FieldChaddr:  chaddr,
		dhcpmsg.FieldSname:   "",
		dhcpmsg.FieldFile:    "",
		dhcpmsg.FieldCookie:  true,
		dhcpmsg.FieldOptions: []options.Record{{Tag: options.End}},
	})
	if err != nil {
		t.Fatal(err)
	}
	packed, err := m.Pack()
	if err != nil {
		t.Fatal(err)
	}
	return packed
}

func buildReply(t *testing.T, xid int64, giaddr string) []byte {
	t.Helper()
	m := dhcpmsg.New()
	err := m.Update(map[string]any{
		dhcpmsg.FieldOp:      dhcpmsg.BOOTREPLY,
		dhcpmsg.FieldHtype:   1,
		dhcpmsg.FieldHlen:    6,
		dhcpmsg.FieldHops:    0,
		dhcpmsg.FieldXid:     xid,
		dhcpmsg.FieldSecs:    0,
		dhcpmsg.FieldFlags:   0,
		dhcpmsg.FieldCiaddr:  "0.0.0.0",
		dhcpmsg.FieldYiaddr:  "192.168.1.100",
		dhcpmsg.FieldSiaddr:  "0.0.0.0",
		dhcpmsg.FieldGiaddr:  giaddr,
		dhcpmsg.FieldChaddr:  "1e:4b:ad:91:68:3a",
		dhcpmsg.FieldSname:   "",
		dhcpmsg.FieldFile:    "",
		dhcpmsg.FieldCookie:  true,
		dhcpmsg.FieldOptions: []options.Record{{Tag: options.End}},
	})
	if err != nil {
		t.Fatal(err)
	}
	packed, err := m.Pack()
	if err != nil {
		t.Fatal(err)
	}
	return packed
}

func TestRelayModeSetsGiaddrAndCircuitID(t *testing.T) {
	a := New(nil, nil)
	now := time.Now()
	p := &fakePort{
		name: "br100", mode: port.ModeUdpRelay, relayDst: "10.0.0.1",
		ifaddr: "192.168.1.2", hasAddr: true,
		fdb: map[string]string{"1e:4b:ad:91:68:3a": "vethS0I99V"},
	}
	req := buildRequest(t, 0x42, "0.0.0.0", "1e:4b:ad:91:68:3a")

	act, err := a.ProcessDownstream(req, p, "", "", now)
	if err != nil {
		t.Fatal(err)
	}
	if act.Kind != UdpRelay {
		t.Fatalf("expected UdpRelay, got %v", act.Kind)
	}
	if act.RelayDst != "10.0.0.1" {
		t.Fatalf("relay dst: got %q", act.RelayDst)
	}

	msg, err := dhcpmsg.Unpack(act.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Giaddr() != "192.168.1.2" {
		t.Fatalf("giaddr: got %q", msg.Giaddr())
	}
	reg := options.BuiltIns()
	decoded := msg.DecodeOptions(reg)[dhcpmsg.FieldOptions].([]options.Option)
	var foundCircuit bool
	for _, o := range decoded {
		if o.Name == "Relay Agent Information" {
			if m, ok := o.Value.(map[string]string); ok && m["circuit-id"] == "vethS0I99V" {
				foundCircuit = true
			}
		}
	}
	if !foundCircuit {
		t.Fatal("expected injected circuit-id option")
	}
}

func TestReplyCorrelationRemovesTransactionEntry(t *testing.T) {
	a := New(nil, nil)
	now := time.Now()
	p := &fakePort{name: "br100", mode: port.ModeUdpRelay, relayDst: "10.0.0.1", ifaddr: "192.168.1.2", hasAddr: true}

	req := buildRequest(t, 0x42, "0.0.0.0", "1e:4b:ad:91:68:3a")
	if _, err := a.ProcessDownstream(req, p, "", "", now); err != nil {
		t.Fatal(err)
	}

	reply := buildReply(t, 0x42, "192.168.1.2")
	act, err := a.ProcessUpstream(reply, now)
	if err != nil {
		t.Fatal(err)
	}
	if act.Kind != EmitClient {
		t.Fatalf("expected EmitClient, got %v", act.Kind)
	}
	if act.OriginPort != "br100" {
		t.Fatalf("origin port: got %q", act.OriginPort)
	}
	msg, err := dhcpmsg.Unpack(act.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Giaddr() != "0.0.0.0" {
		t.Fatalf("giaddr must be rewritten to 0.0.0.0, got %q", msg.Giaddr())
	}

	if _, ok := a.table[0x42]; ok {
		t.Fatal("transaction entry must be removed after correlation")
	}

	// A second reply with the same xid is now a miss and drops.
	act2, err := a.ProcessUpstream(reply, now)
	if err != nil {
		t.Fatal(err)
	}
	if act2.Kind != None {
		t.Fatalf("expected None on repeat xid, got %v", act2.Kind)
	}
}

func TestMitmModeLeavesGiaddrUnchanged(t *testing.T) {
	a := New(nil, nil)
	now := time.Now()
	p := &fakePort{
		name: "br100", mode: port.ModeMitm,
		fdb: map[string]string{"1e:4b:ad:91:68:3a": "eth1"},
	}
	req := buildRequest(t, 0x11, "0.0.0.0", "1e:4b:ad:91:68:3a")

	act, err := a.ProcessDownstream(req, p, "", "", now)
	if err != nil {
		t.Fatal(err)
	}
	if act.Kind != Mitm {
		t.Fatalf("expected Mitm, got %v", act.Kind)
	}
	msg, err := dhcpmsg.Unpack(act.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Giaddr() != "0.0.0.0" {
		t.Fatalf("giaddr must be unchanged in MITM mode, got %q", msg.Giaddr())
	}
}

func TestExpiryDropsStaleEntry(t *testing.T) {
	a := New(nil, nil)
	t0 := time.Now()
	p := &fakePort{name: "br100", mode: port.ModeUdpRelay, relayDst: "10.0.0.1", ifaddr: "192.168.1.2", hasAddr: true}

	req := buildRequest(t, 0x99, "0.0.0.0", "1e:4b:ad:91:68:3a")
	if _, err := a.ProcessDownstream(req, p, "", "", t0); err != nil {
		t.Fatal(err)
	}

	a.Expire(t0.Add(301 * time.Second))

	reply := buildReply(t, 0x99, "192.168.1.2")
	act, err := a.ProcessUpstream(reply, t0.Add(301*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if act.Kind != None {
		t.Fatalf("expected dropped reply after expiry, got %v", act.Kind)
	}
}

func TestUpstreamBootrequestIsSpurious(t *testing.T) {
	a := New(nil, nil)
	req := buildRequest(t, 1, "0.0.0.0", "1e:4b:ad:91:68:3a")
	act, err := a.ProcessUpstream(req, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if act.Kind != None {
		t.Fatalf("expected None for spurious upstream BOOTREQUEST, got %v", act.Kind)
	}
}

func TestDownstreamReplyRelayedUnmodified(t *testing.T) {
	a := New(nil, nil)
	p := &fakePort{name: "br100", mode: port.ModeUdpRelay}
	reply := buildReply(t, 5, "10.1.1.1")
	act, err := a.ProcessDownstream(reply, p, "10.0.0.9", "aa:bb:cc:dd:ee:ff", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if act.Kind != EmitClient {
		t.Fatalf("expected EmitClient, got %v", act.Kind)
	}
	msg, err := dhcpmsg.Unpack(act.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Giaddr() != "10.1.1.1" {
		t.Fatalf("downstream reply giaddr must be preserved unmodified, got %q", msg.Giaddr())
	}
}
