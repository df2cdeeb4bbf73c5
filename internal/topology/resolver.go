package topology

import (
	"fmt"
	"log"

	"netgrip/internal/errdefs"
	"netgrip/internal/platform"
)

// Resolver produces a valid Topology for a chosen adapter. Resolution is
// read-only: gateway MAC lookups here consult the neighbor table and never
// transmit. Active gateway probing belongs to the ARP engine after a capture
// handle is bound.
type Resolver struct {
	Port   platform.Port
	Logger *log.Logger
}

// NewResolver returns a resolver over the given port.
func NewResolver(port platform.Port, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{Port: port, Logger: logger}
}

// Resolve runs the primary tier for the named adapter and falls back to the
// first usable adapter when the primary tier cannot produce a valid topology.
// The adapter selected by the caller may be formally correct yet lack the
// gateway enrichment needed for interception; the fallback recovers the
// observable topology without requiring a capture handle.
func (r *Resolver) Resolve(adapterName string) (Topology, error) {
	topo, err := r.Primary(adapterName)
	if err == nil && topo.Valid {
		return topo, nil
	}
	if err != nil {
		r.Logger.Printf("topology: primary resolution for %q failed (%v), trying fallback", adapterName, err)
	} else {
		r.Logger.Printf("topology: primary resolution for %q incomplete, trying fallback", adapterName)
	}
	return r.Fallback()
}

// Primary locates the adapter by OS identity and copies its addressing. The
// gateway MAC is filled from the neighbor table when already cached.
func (r *Resolver) Primary(adapterName string) (Topology, error) {
	adapters, err := r.Port.Adapters()
	if err != nil {
		return Topology{}, fmt.Errorf("failed to enumerate adapters: %w", err)
	}

	var found *platform.NetworkAdapter
	for i := range adapters {
		if adapters[i].Name == adapterName {
			found = &adapters[i]
			break
		}
	}
	if found == nil {
		return Topology{}, fmt.Errorf("%w: %s", errdefs.ErrAdapterNotFound, adapterName)
	}

	topo := Topology{
		LocalIP:       found.IPAddress,
		SubnetMask:    found.SubnetMask,
		CIDR:          PrefixLength(found.SubnetMask),
		GatewayIP:     found.Gateway,
		InterfaceName: found.Name,
		InterfaceMAC:  found.MACAddress,
	}

	if topo.GatewayIP != "" && topo.GatewayIP != "0.0.0.0" {
		topo.GatewayMAC = r.lookupNeighbor(topo.GatewayIP)
	}

	topo.Valid = topo.LocalIP != "" && topo.GatewayIP != ""
	return topo, nil
}

// Fallback re-enumerates and picks the first adapter that is operationally up
// with both a unicast address and a gateway. The gateway MAC lookup is
// best-effort and never blocks on transmission.
func (r *Resolver) Fallback() (Topology, error) {
	adapters, err := r.Port.Adapters()
	if err != nil {
		return Topology{}, fmt.Errorf("failed to enumerate adapters: %w", err)
	}

	for _, adapter := range adapters {
		if !adapter.IsActive || adapter.IPAddress == "" || adapter.Gateway == "" {
			continue
		}
		topo := Topology{
			LocalIP:       adapter.IPAddress,
			SubnetMask:    adapter.SubnetMask,
			CIDR:          PrefixLength(adapter.SubnetMask),
			GatewayIP:     adapter.Gateway,
			GatewayMAC:    r.lookupNeighbor(adapter.Gateway),
			InterfaceName: adapter.Name,
			InterfaceMAC:  adapter.MACAddress,
			Valid:         true,
		}
		r.Logger.Printf("topology: fallback selected %s (%s/%d via %s)",
			adapter.Name, topo.LocalIP, topo.CIDR, topo.GatewayIP)
		return topo, nil
	}

	return Topology{}, fmt.Errorf("%w: no active adapter with address and gateway", errdefs.ErrTopologyIncomplete)
}

func (r *Resolver) lookupNeighbor(ip string) string {
	entries, err := r.Port.NeighborTable()
	if err != nil {
		r.Logger.Printf("topology: neighbor table read failed: %v", err)
		return ""
	}
	for _, e := range entries {
		if e.IPAddress == ip {
			return e.MACAddress
		}
	}
	return ""
}
