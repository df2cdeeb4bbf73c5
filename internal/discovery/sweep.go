package discovery

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"netgrip/internal/arp"
	"netgrip/internal/arpwire"
	"netgrip/internal/config"
	"netgrip/internal/platform"
	"netgrip/internal/topology"
)

// Sweep probes every host of the topology's subnet with broadcast ARP
// requests through the engine while collecting replies from the capture
// handle. Silent hosts get retry rounds with an escalating packet count.
func Sweep(eng *arp.Engine, handle platform.CaptureHandle, topo topology.Topology, cfg *config.Config, logger *log.Logger) (SweepResults, error) {
	start := time.Now()
	if logger == nil {
		logger = log.Default()
	}

	hosts, err := SubnetHosts(topo)
	if err != nil {
		return SweepResults{}, err
	}

	var (
		mu      sync.Mutex
		results = make(map[string]HostStatus, len(hosts))
	)
	for _, ip := range hosts {
		results[ip] = HostStatus{IPAddress: ip, MACAddress: "unknown"}
	}

	stop := make(chan struct{})
	var readerWG sync.WaitGroup
	readerWG.Add(1)
	go func() {
		defer readerWG.Done()
		collectReplies(eng, handle, stop, func(ip, mac string) {
			mu.Lock()
			results[ip] = HostStatus{IPAddress: ip, MACAddress: mac, IsAlive: true}
			mu.Unlock()
		})
	}()

	send := func(targets []string, packetsPerHost int) {
		batchSize := cfg.GetSweepBatchSize()
		for i := 0; i < len(targets); i += batchSize {
			end := i + batchSize
			if end > len(targets) {
				end = len(targets)
			}
			var wg sync.WaitGroup
			for _, ip := range targets[i:end] {
				wg.Add(1)
				go func(ip string) {
					defer wg.Done()
					for p := 0; p < packetsPerHost; p++ {
						if err := eng.SendRequest(ip); err != nil {
							logger.Printf("discovery: request to %s failed: %v", ip, err)
							return
						}
					}
				}(ip)
			}
			wg.Wait()
			time.Sleep(cfg.GetSweepRateLimit())
		}
	}

	send(hosts, 1)
	time.Sleep(cfg.GetSweepTimeout())

	for round := 1; round <= cfg.GetSweepRetries(); round++ {
		var silent []string
		mu.Lock()
		for _, ip := range hosts {
			if !results[ip].IsAlive {
				silent = append(silent, ip)
			}
		}
		mu.Unlock()
		if len(silent) == 0 {
			break
		}
		logger.Printf("discovery: retry %d for %d silent hosts", round, len(silent))
		send(silent, round+1)
		time.Sleep(cfg.GetSweepTimeout())
	}

	close(stop)
	readerWG.Wait()

	mu.Lock()
	out := make([]HostStatus, 0, len(results))
	for _, ip := range hosts {
		out = append(out, results[ip])
	}
	mu.Unlock()

	return SweepResults{Hosts: out, Duration: time.Since(start)}, nil
}

// collectReplies reads frames until stop closes or the source drains,
// reporting every ARP reply's sender binding.
func collectReplies(eng *arp.Engine, handle platform.CaptureHandle, stop <-chan struct{}, report func(ip, mac string)) {
	src := gopacket.NewPacketSource(handle, handle.LinkType())
	for {
		select {
		case <-stop:
			return
		default:
		}

		readStart := time.Now()
		packet, err := src.NextPacket()
		if err == io.EOF {
			return
		}
		if err != nil {
			continue
		}
		sampleMs := float64(time.Since(readStart).Microseconds()) / 1000.0

		arpLayer := packet.Layer(layers.LayerTypeARP)
		if arpLayer == nil {
			continue
		}
		reply := arpLayer.(*layers.ARP)
		if reply.Operation != layers.ARPReply {
			continue
		}
		eng.Stats().RecordReceive(sampleMs, true)
		report(net.IP(reply.SourceProtAddress).String(), net.HardwareAddr(reply.SourceHwAddress).String())
	}
}

// SubnetHosts expands the topology's subnet into host addresses, excluding
// the network and broadcast addresses. Subnets wider than /16 are refused.
func SubnetHosts(topo topology.Topology) ([]string, error) {
	local, err := arpwire.StringToIP(topo.LocalIP)
	if err != nil {
		return nil, err
	}
	mask, err := arpwire.StringToIP(topo.SubnetMask)
	if err != nil {
		return nil, fmt.Errorf("bad subnet mask %q: %w", topo.SubnetMask, err)
	}

	hostBits := 32 - topo.CIDR
	if hostBits > 16 {
		return nil, fmt.Errorf("subnet /%d too large to sweep", topo.CIDR)
	}

	ipU := binary.BigEndian.Uint32(local)
	maskU := binary.BigEndian.Uint32(mask)
	network := ipU & maskU

	if topo.CIDR >= 31 {
		// Point-to-point subnets have no network/broadcast split.
		var hosts []string
		hosts = append(hosts, uintToIP(network))
		if topo.CIDR == 31 {
			hosts = append(hosts, uintToIP(network+1))
		}
		return hosts, nil
	}

	count := (1 << hostBits) - 2
	hosts := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		hosts = append(hosts, uintToIP(network+uint32(i)))
	}
	return hosts, nil
}

func uintToIP(v uint32) string {
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v)).String()
}
