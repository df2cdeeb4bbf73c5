package discovery

import (
	"io"
	"log"
	"net"
	"time"

	"netgrip/internal/arp"
	"netgrip/internal/arpwire"
	"netgrip/internal/platform"
)

// Passive listens on the capture handle for the given duration without
// transmitting anything, learning host bindings from observed ARP traffic.
// Only private-range senders are collected.
func Passive(eng *arp.Engine, handle platform.CaptureHandle, duration time.Duration, logger *log.Logger) map[string]HostStatus {
	if logger == nil {
		logger = log.Default()
	}
	hosts := make(map[string]HostStatus)
	deadline := time.Now().Add(duration)

	for time.Now().Before(deadline) {
		readStart := time.Now()
		data, _, err := handle.ReadPacketData()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Read timeouts surface here once per interval; they are the
			// idle heartbeat, not failures.
			continue
		}
		sampleMs := float64(time.Since(readStart).Microseconds()) / 1000.0

		frame, err := arpwire.Parse(data)
		if err != nil {
			// Not ARP; passive discovery only trusts ARP sender bindings.
			continue
		}
		eng.Stats().RecordReceive(sampleMs, true)

		ip := arpwire.IPToString(frame.SenderIP)
		if ip == "" || ip == "0.0.0.0" {
			continue
		}
		if parsed := net.ParseIP(ip); parsed == nil || !parsed.IsPrivate() {
			continue
		}
		if _, seen := hosts[ip]; !seen {
			logger.Printf("discovery: passive observation of %s at %s", ip, arpwire.MACToString(frame.SenderMAC))
		}
		hosts[ip] = HostStatus{
			IPAddress:  ip,
			MACAddress: arpwire.MACToString(frame.SenderMAC),
			IsAlive:    true,
		}
	}
	return hosts
}
