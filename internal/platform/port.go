// Package platform isolates every OS and capture-library call behind the Port
// capability set. All other core components are deterministic given a Port's
// outputs, which is what lets the test suite run against the scripted Fake
// without touching a real NIC.
package platform

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// NetworkAdapter describes one enumerated adapter. Immutable after
// construction.
type NetworkAdapter struct {
	// Name is the stable OS identity of the adapter.
	Name string `json:"name"`
	// CaptureName is the capture-library device name, empty when unmapped.
	CaptureName  string `json:"capture_name,omitempty"`
	Description  string `json:"description"`
	FriendlyName string `json:"friendly_name"`
	// MACAddress is "00:00:00:00:00:00" when the adapter has no hardware
	// address.
	MACAddress string `json:"mac_address"`
	IPAddress  string `json:"ip_address,omitempty"`
	SubnetMask string `json:"subnet_mask,omitempty"`
	// Gateway is the IPv4 default gateway, empty when the adapter has none.
	Gateway    string `json:"gateway,omitempty"`
	IsActive   bool   `json:"is_active"`
	IsWireless bool   `json:"is_wireless"`
}

// NeighborEntry is one row of the OS IPv4 neighbor table.
type NeighborEntry struct {
	IPAddress  string `json:"ip_address"`
	MACAddress string `json:"mac_address"`
	// State is "dynamic" or "static". Incomplete entries are filtered out by
	// the port itself.
	State string `json:"state"`
}

// CaptureHandle is a live capture session on one device. The handle owner
// must call Close exactly once; implementations make Close idempotent.
type CaptureHandle interface {
	WritePacketData(data []byte) error
	ReadPacketData() (data []byte, ci gopacket.CaptureInfo, err error)
	LinkType() layers.LinkType
	Close()
}

// Port is the platform capability set consumed by the core.
type Port interface {
	// Adapters enumerates adapters with addressing. Software loopbacks are
	// excluded; down interfaces are included.
	Adapters() ([]NetworkAdapter, error)
	// NeighborTable snapshots the OS IPv4-to-MAC neighbor cache.
	NeighborTable() ([]NeighborEntry, error)
	// CaptureDevices lists the capture-library device names.
	CaptureDevices() ([]string, error)
	// OpenCapture opens a live handle on the named device.
	OpenCapture(device string) (CaptureHandle, error)
}
