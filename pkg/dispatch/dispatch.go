// Package dispatch implements the event loop and config reconciler of
// §4.7: one goroutine per packet port plus one for the shared UDP
// socket feed frames to a single dispatcher goroutine over channels,
// which is the only goroutine that ever touches the agent's
// transaction table or the active port set, preserving the
// single-threaded decision model of §5.
package dispatch

import (
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/open-switch/opx-dhcp-agent/internal/logging"
	"github.com/open-switch/opx-dhcp-agent/pkg/agent"
	"github.com/open-switch/opx-dhcp-agent/pkg/config"
	"github.com/open-switch/opx-dhcp-agent/pkg/fdb"
	"github.com/open-switch/opx-dhcp-agent/pkg/port"
)

// tickInterval is the outer poll tick that drives transaction expiry
// (§4.6). Config reconciliation does not wait for it: a pending snapshot
// is reconciled as soon as the loop receives it.
const tickInterval = time.Second

// portFrame is one frame read from a packet port's capture handle,
// tagged with the port it arrived on.
type portFrame struct {
	portName string
	payload  []byte
	srcIP    string
	srcMAC   string
}

// udpFrame is one datagram read from the shared UDP socket.
type udpFrame struct {
	payload []byte
}

// snapshotSource abstracts config.Watcher and config.Store behind the
// single method the dispatcher needs.
type snapshotSource interface {
	Pending() <-chan config.Snapshot
}

// Dispatcher owns the active port set, the shared UDP socket, and the
// agent's transaction table. Run must be called from the goroutine that
// is meant to own this state; every other method on Dispatcher is
// unsafe for concurrent use.
type Dispatcher struct {
	log     *logging.Logger
	agent   *agent.Agent
	udp     *net.UDPConn
	ports   map[string]*port.Port
	portStops map[string]chan struct{}
	newFDB  func(bridge string) (fdb.Lookup, error)
	pending snapshotSource

	portEvents chan portFrame
	udpEvents  chan udpFrame
}

// New opens the shared UDP socket and returns a Dispatcher with no
// active ports. pending delivers reconciliation snapshots (a
// config.Watcher or config.Store).
func New(a *agent.Agent, pending snapshotSource, log *logging.Logger) (*Dispatcher, error) {
	udp, err := openUDPSocket()
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		log:        log,
		agent:      a,
		udp:        udp,
		ports:      map[string]*port.Port{},
		portStops:  map[string]chan struct{}{},
		newFDB:     func(bridge string) (fdb.Lookup, error) { return fdb.NewNetlinkFDB(bridge) },
		pending:    pending,
		portEvents: make(chan portFrame, 64),
		udpEvents:  make(chan udpFrame, 64),
	}, nil
}

// Run drives the event loop until stop is closed. It never returns an
// error itself: per-frame and per-reconcile failures are logged (§7).
func (d *Dispatcher) Run(stop <-chan struct{}) {
	go d.readUDP(stop)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			d.closeAllPorts()
			d.udp.Close()
			return
		case f := <-d.portEvents:
			d.handlePort(f)
		case f := <-d.udpEvents:
			d.handleUDP(f)
		case snap := <-d.pending.Pending():
			d.reconcile(snap)
		case now := <-ticker.C:
			d.agent.Expire(now)
		}
	}
}

func (d *Dispatcher) readUDP(stop <-chan struct{}) {
	buf := make([]byte, 1500)
	for {
		d.udp.SetReadDeadline(time.Now().Add(tickInterval))
		n, _, err := d.udp.ReadFromUDP(buf)
		select {
		case <-stop:
			return
		default:
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if d.log != nil {
				d.log.Errorf("dispatch: udp read: %v", err)
			}
			return
		}
		payload := append([]byte(nil), buf[:n]...)
		select {
		case d.udpEvents <- udpFrame{payload: payload}:
		case <-stop:
			return
		}
	}
}

func (d *Dispatcher) readPort(p *port.Port, stop <-chan struct{}) {
	for {
		payload, srcIP, srcMAC, ok, err := p.Recv()
		select {
		case <-stop:
			return
		default:
		}
		if err != nil {
			if d.log != nil {
				d.log.Errorf("dispatch: port %s read: %v", p.Name(), err)
			}
			return
		}
		if !ok {
			continue
		}
		select {
		case d.portEvents <- portFrame{portName: p.Name(), payload: payload, srcIP: srcIP, srcMAC: srcMAC}:
		case <-stop:
			return
		}
	}
}

func (d *Dispatcher) handleUDP(f udpFrame) {
	act, err := d.agent.ProcessUpstream(f.payload, time.Now())
	if err != nil {
		if d.log != nil {
			d.log.Errorf("dispatch: process upstream packet: %v", err)
		}
		return
	}
	d.emit(act)
}

func (d *Dispatcher) handlePort(f portFrame) {
	p, ok := d.ports[f.portName]
	if !ok {
		return // port was reconciled away between recv and dispatch
	}
	act, err := d.agent.ProcessDownstream(f.payload, p, f.srcIP, f.srcMAC, time.Now())
	if err != nil {
		if d.log != nil {
			d.log.Errorf("dispatch: process packet on %s: %v", f.portName, err)
		}
		return
	}
	d.emit(act)
}

func (d *Dispatcher) emit(act agent.Action) {
	switch act.Kind {
	case agent.None:
		return
	case agent.UdpRelay:
		dst := &net.UDPAddr{IP: net.ParseIP(act.RelayDst), Port: 67}
		if _, err := d.udp.WriteToUDP(act.Payload, dst); err != nil && d.log != nil {
			d.log.Errorf("dispatch: udp relay to %s: %v", act.RelayDst, err)
		}
	case agent.Mitm:
		p, ok := d.ports[act.OriginPort]
		if !ok {
			return
		}
		if err := p.SendUpstream(act.Payload, act.SrcIP, act.SrcMAC); err != nil && d.log != nil {
			d.log.Errorf("dispatch: send_upstream on %s: %v", act.OriginPort, err)
		}
	case agent.EmitClient:
		p, ok := d.ports[act.OriginPort]
		if !ok {
			return
		}
		if err := p.SendClient(act.Payload, act.SrcIP, act.SrcMAC); err != nil && d.log != nil {
			d.log.Errorf("dispatch: send_client on %s: %v", act.OriginPort, err)
		}
	}
}

// reconcile swaps in snap as the active config: ports present in snap
// but not currently open are opened; ports currently open but absent
// from snap are closed; unchanged entries are left untouched (§4.7).
func (d *Dispatcher) reconcile(snap config.Snapshot) {
	want := map[string]bool{}
	for _, name := range snap.Names() {
		want[name] = true
		cfg, _ := snap.Get(name)
		if existing, ok := d.ports[name]; ok {
			if portConfigEqual(existing, cfg) {
				continue
			}
			d.closePort(name)
		}
		d.openPort(cfg)
	}
	for name := range d.ports {
		if !want[name] {
			d.closePort(name)
		}
	}
}

func portConfigEqual(p *port.Port, cfg port.Config) bool {
	if p.Mode() != cfg.Mode {
		return false
	}
	switch cfg.Mode {
	case port.ModeUdpRelay:
		return p.RelayDst() == cfg.RelayDst
	case port.ModeMitm:
		return true // trusted port identity is fixed at Open time
	}
	return false
}

func (d *Dispatcher) openPort(cfg port.Config) {
	p, err := port.Open(cfg, uuid.NewString(), d.newFDB, d.log)
	if err != nil {
		if d.log != nil {
			d.log.Errorf("dispatch: open port %s: %v", cfg.Name, err)
		}
		return
	}
	d.ports[cfg.Name] = p
	stop := make(chan struct{})
	d.portStops[cfg.Name] = stop
	go d.readPort(p, stop)
	if d.log != nil {
		d.log.Infof("dispatch: opened port %s (%s)", p.Name(), p.ID())
	}
}

func (d *Dispatcher) closePort(name string) {
	p, ok := d.ports[name]
	if !ok {
		return
	}
	if stop, ok := d.portStops[name]; ok {
		close(stop)
		delete(d.portStops, name)
	}
	if err := p.Close(); err != nil && d.log != nil {
		d.log.Errorf("dispatch: close port %s: %v", name, err)
	}
	delete(d.ports, name)
}

func (d *Dispatcher) closeAllPorts() {
	for name := range d.ports {
		d.closePort(name)
	}
}
