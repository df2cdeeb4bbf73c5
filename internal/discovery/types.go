// Package discovery finds live hosts on the local broadcast domain: an
// active ARP sweep of the topology's subnet, a passive capture listener, and
// a best-effort mDNS hostname pass.
package discovery

import "time"

// HostStatus is one discovered (or probed-but-silent) host.
type HostStatus struct {
	IPAddress  string `json:"ip_address"`
	MACAddress string `json:"mac_address"`
	IsAlive    bool   `json:"is_alive"`
}

// SweepResults holds the outcome of one ARP sweep.
type SweepResults struct {
	Hosts    []HostStatus  `json:"hosts"`
	Duration time.Duration `json:"duration"`
}
