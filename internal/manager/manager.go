// Package manager ties the platform port, topology resolver, ARP engine, and
// poisoning controller into the single handle a host application consumes.
// The handle is a plain value from New; there is no package-level singleton.
package manager

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"netgrip/internal/arp"
	"netgrip/internal/arpwire"
	"netgrip/internal/config"
	"netgrip/internal/errdefs"
	"netgrip/internal/platform"
	"netgrip/internal/poison"
	"netgrip/internal/topology"
)

// Manager owns exactly one capture handle, one topology, and one target list.
// All operations are synchronous; thread safety for concurrent callers comes
// from the embedded mutex.
type Manager struct {
	port   platform.Port
	cfg    *config.Config
	logger *log.Logger

	engine     *arp.Engine
	controller *poison.Controller

	mu          sync.Mutex
	handle      platform.CaptureHandle
	initialized bool
	lastErr     string

	// gatewayBackoff is the retry schedule for initialization-time gateway
	// resolution.
	gatewayBackoff []time.Duration
}

// New returns an uninitialized manager over the given port.
func New(port platform.Port, cfg *config.Config, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	engine := arp.NewEngine(port, logger)
	return &Manager{
		port:           port,
		cfg:            cfg,
		logger:         logger,
		engine:         engine,
		controller:     poison.NewController(engine, logger),
		gatewayBackoff: []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second},
	}
}

// EnumerateAdapters lists adapters with addressing, loopbacks excluded.
func (m *Manager) EnumerateAdapters() ([]platform.NetworkAdapter, error) {
	return m.port.Adapters()
}

// EnumerateCaptureDevices lists capture-library device names.
func (m *Manager) EnumerateCaptureDevices() ([]string, error) {
	return m.port.CaptureDevices()
}

// NeighborTable snapshots the OS neighbor cache.
func (m *Manager) NeighborTable() ([]platform.NeighborEntry, error) {
	return m.port.NeighborTable()
}

// Engine exposes the bound ARP engine for the discovery sweep.
func (m *Manager) Engine() *arp.Engine {
	return m.engine
}

// Handle returns the open capture handle, or nil in the degraded state.
func (m *Manager) Handle() platform.CaptureHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle
}

// Initialize binds the manager to the named adapter: maps it to a capture
// device, opens the handle, resolves the topology, and tries to pin down the
// gateway MAC. A capture-open failure is recorded but not fatal; the manager
// then serves read-only operations and every send fails as not transmitted.
func (m *Manager) Initialize(adapterIdentity string) bool {
	if m.Initialized() {
		m.Cleanup()
	}

	devices, err := m.port.CaptureDevices()
	if err != nil {
		m.logger.Printf("manager: capture device enumeration failed: %v", err)
	}
	device := platform.MapAdapterName(adapterIdentity, devices)
	if device == "" {
		// Unmapped identities are handed to the capture library as-is; on
		// hosts where OS names double as device names this still opens.
		device = adapterIdentity
	}

	handle, err := m.port.OpenCapture(device)
	if err != nil {
		// Expected when the identity never mapped to a capture device; the
		// manager degrades to read-only operations.
		m.setError(err)
		handle = nil
	}

	resolver := topology.NewResolver(m.port, m.logger)
	topo, err := resolver.Resolve(adapterIdentity)
	if err != nil || !topo.Valid {
		if err == nil || !errors.Is(err, errdefs.ErrTopologyIncomplete) {
			err = fmt.Errorf("%w: resolution for %q failed: %v", errdefs.ErrTopologyIncomplete, adapterIdentity, err)
		}
		m.setError(err)
		if handle != nil {
			handle.Close()
		}
		return false
	}

	m.mu.Lock()
	m.handle = handle
	m.initialized = true
	m.mu.Unlock()

	m.engine.SetTopology(topo)
	m.engine.SetHandle(handle)

	if arpwire.IsZeroMAC(topo.GatewayMAC) && topo.GatewayIP != "" && topo.GatewayIP != "0.0.0.0" {
		m.resolveGatewayWithBackoff(topo.GatewayIP)
	}

	if m.cfg.Poisoning.RefreshEnabled {
		m.controller.StartRefresher(m.cfg.GetRefreshInterval())
	}

	m.logger.Printf("manager: initialized on %s (topology %s/%d via %s)",
		adapterIdentity, topo.LocalIP, topo.CIDR, topo.GatewayIP)
	return true
}

// resolveGatewayWithBackoff retries gateway-MAC discovery up to three times,
// sleeping 500/1000/2000 ms after each failed attempt. An unresolved gateway
// is not fatal; poisoning starts will retry the refresh.
func (m *Manager) resolveGatewayWithBackoff(gatewayIP string) {
	for _, delay := range m.gatewayBackoff {
		if m.engine.RefreshGatewayMAC() {
			return
		}
		time.Sleep(delay)
	}
	m.logger.Printf("manager: gateway MAC for %s unresolved after %d attempts", gatewayIP, len(m.gatewayBackoff))
}

// Cleanup stops any active poisoning, releases the capture handle exactly
// once, and returns the manager to the uninitialized state.
func (m *Manager) Cleanup() {
	m.controller.StopRefresher()
	m.controller.StopAll()

	m.mu.Lock()
	handle := m.handle
	m.handle = nil
	m.initialized = false
	m.mu.Unlock()

	m.engine.SetHandle(nil)
	if handle != nil {
		handle.Close()
	}
}

// Initialized reports whether the last Initialize succeeded.
func (m *Manager) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// Topology returns the cached topology from the last successful Initialize.
func (m *Manager) Topology() topology.Topology {
	return m.engine.Topology()
}

// SendArpRequest broadcasts a who-has request for targetIP.
func (m *Manager) SendArpRequest(targetIP string) bool {
	if !m.Initialized() {
		m.setError(fmt.Errorf("%w: call Initialize first", errdefs.ErrNotInitialized))
		return false
	}
	if err := m.engine.SendRequest(targetIP); err != nil {
		m.setError(err)
		return false
	}
	return true
}

// StartPoisoning begins the two-sided deception of targetIP.
func (m *Manager) StartPoisoning(targetIP, targetMAC string) bool {
	if !m.Initialized() {
		m.setError(fmt.Errorf("%w: call Initialize first", errdefs.ErrNotInitialized))
		return false
	}
	if err := m.controller.Start(targetIP, targetMAC); err != nil {
		m.setError(err)
		return false
	}
	return true
}

// StopPoisoning deactivates targetIP and restores the legitimate mappings.
func (m *Manager) StopPoisoning(targetIP string) bool {
	if !m.Initialized() {
		m.setError(fmt.Errorf("%w: call Initialize first", errdefs.ErrNotInitialized))
		return false
	}
	return m.controller.Stop(targetIP)
}

// PoisoningTargets snapshots the target list.
func (m *Manager) PoisoningTargets() []poison.Target {
	return m.controller.Targets()
}

// PerformanceStats snapshots the transmission and capture counters.
func (m *Manager) PerformanceStats() arp.PerformanceStats {
	return m.engine.Stats().Snapshot()
}

// ResetPerformanceStats zeroes the counters.
func (m *Manager) ResetPerformanceStats() {
	m.engine.Stats().Reset()
}

// LastError returns the diagnostic recorded by the most recent failure.
func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) setError(err error) {
	m.mu.Lock()
	m.lastErr = err.Error()
	m.mu.Unlock()
	m.logger.Printf("manager: %v", err)
}
