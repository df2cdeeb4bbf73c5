// Package inventory merges the discovery sources into one host list and
// exports it for external consumption.
package inventory

import (
	"encoding/binary"
	"net"
	"sort"
	"time"

	"netgrip/internal/arpwire"
	"netgrip/internal/discovery"
	"netgrip/internal/platform"
)

// Host is one inventory row. Source names the first discovery modality that
// observed the host: "sweep", "passive", or "neighbor".
type Host struct {
	Address  string    `json:"address"`
	MAC      string    `json:"mac"`
	Hostname string    `json:"hostname"`
	IsAlive  bool      `json:"is_alive"`
	Source   string    `json:"source"`
	Date     time.Time `json:"date"`
}

// Merge consolidates sweep results, passive observations, and the OS
// neighbor table into one list keyed by IP. A live observation beats a
// silent probe, and a known MAC beats "unknown". The list comes back sorted
// by numeric address.
func Merge(sweep []discovery.HostStatus, passive map[string]discovery.HostStatus, neighbors []platform.NeighborEntry, hostnames map[string]string) []Host {
	now := time.Now()
	merged := make(map[string]Host)

	for _, h := range sweep {
		merged[h.IPAddress] = Host{
			Address: h.IPAddress,
			MAC:     h.MACAddress,
			IsAlive: h.IsAlive,
			Source:  "sweep",
			Date:    now,
		}
	}

	for ip, h := range passive {
		existing, found := merged[ip]
		if !found {
			merged[ip] = Host{Address: ip, MAC: h.MACAddress, IsAlive: true, Source: "passive", Date: now}
			continue
		}
		existing.IsAlive = true
		if hasNoMAC(existing.MAC) && !hasNoMAC(h.MACAddress) {
			existing.MAC = h.MACAddress
		}
		merged[ip] = existing
	}

	for _, entry := range neighbors {
		existing, found := merged[entry.IPAddress]
		if !found {
			merged[entry.IPAddress] = Host{
				Address: entry.IPAddress,
				MAC:     entry.MACAddress,
				IsAlive: true,
				Source:  "neighbor",
				Date:    now,
			}
			continue
		}
		if hasNoMAC(existing.MAC) && !hasNoMAC(entry.MACAddress) {
			existing.MAC = entry.MACAddress
			existing.IsAlive = true
			merged[entry.IPAddress] = existing
		}
	}

	hosts := make([]Host, 0, len(merged))
	for ip, h := range merged {
		if name, found := hostnames[ip]; found {
			h.Hostname = name
		} else {
			h.Hostname = "unknown"
		}
		hosts = append(hosts, h)
	}

	sort.Slice(hosts, func(i, j int) bool {
		return addrValue(hosts[i].Address) < addrValue(hosts[j].Address)
	})
	return hosts
}

func hasNoMAC(mac string) bool {
	return mac == "" || mac == "unknown" || arpwire.IsZeroMAC(mac)
}

func addrValue(ip string) uint32 {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return 0
	}
	v4 := parsed.To4()
	if v4 == nil {
		return 0
	}
	return binary.BigEndian.Uint32(v4)
}
