//go:build linux

package platform

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"os"
	"strings"

	"github.com/vishvananda/netlink"

	"netgrip/internal/arpwire"
)

// OSPort is the production Port for Linux hosts. Adapter addressing comes
// from the net package, routing and neighbor state from rtnetlink, and
// capture devices from the pcap library.
type OSPort struct {
	Logger *log.Logger
}

// NewOSPort returns a production port logging through logger.
func NewOSPort(logger *log.Logger) *OSPort {
	if logger == nil {
		logger = log.Default()
	}
	return &OSPort{Logger: logger}
}

// Adapters enumerates all non-loopback interfaces, up or down, with their
// IPv4 addressing and default gateway.
func (p *OSPort) Adapters() ([]NetworkAdapter, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate interfaces: %w", err)
	}

	devices, err := p.CaptureDevices()
	if err != nil {
		// Capture-device names only enrich the mapping; enumeration still
		// stands without them.
		p.Logger.Printf("platform: capture device enumeration failed: %v", err)
		devices = nil
	}

	var adapters []NetworkAdapter
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		adapter := NetworkAdapter{
			Name:         iface.Name,
			CaptureName:  MapAdapterName(iface.Name, devices),
			Description:  iface.Name,
			FriendlyName: iface.Name,
			MACAddress:   arpwire.MACToString(iface.HardwareAddr),
			IsActive:     iface.Flags&net.FlagUp != 0,
			IsWireless:   isWireless(iface.Name),
		}

		addrs, err := iface.Addrs()
		if err != nil {
			p.Logger.Printf("platform: addresses for %s unavailable: %v", iface.Name, err)
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			v4 := ipNet.IP.To4()
			if v4 == nil {
				continue
			}
			adapter.IPAddress = v4.String()
			mask := ipNet.Mask
			if len(mask) == 4 {
				adapter.SubnetMask = fmt.Sprintf("%d.%d.%d.%d", mask[0], mask[1], mask[2], mask[3])
			}
			break
		}

		adapter.Gateway = p.defaultGateway(iface.Name)
		adapters = append(adapters, adapter)
	}
	return adapters, nil
}

// defaultGateway returns the IPv4 default-route gateway bound to the named
// interface, or "" when the interface carries no default route.
func (p *OSPort) defaultGateway(ifaceName string) string {
	link, err := netlink.LinkByName(ifaceName)
	if err != nil {
		return ""
	}
	routes, err := netlink.RouteList(link, netlink.FAMILY_V4)
	if err != nil {
		return ""
	}
	for _, route := range routes {
		if route.Dst == nil && route.Gw != nil {
			if v4 := route.Gw.To4(); v4 != nil {
				return v4.String()
			}
		}
	}
	return ""
}

// NeighborTable snapshots the kernel IPv4 neighbor cache via rtnetlink,
// falling back to /proc/net/arp when netlink is unavailable. Incomplete and
// failed entries are dropped.
func (p *OSPort) NeighborTable() ([]NeighborEntry, error) {
	neighs, err := netlink.NeighList(0, netlink.FAMILY_V4)
	if err != nil {
		p.Logger.Printf("platform: netlink neighbor list failed, using /proc/net/arp: %v", err)
		return p.procNeighborTable()
	}

	var entries []NeighborEntry
	for _, n := range neighs {
		if n.IP == nil || n.IP.To4() == nil || len(n.HardwareAddr) != 6 {
			continue
		}
		var state string
		switch {
		case n.State&netlink.NUD_PERMANENT != 0:
			state = "static"
		case n.State&(netlink.NUD_INCOMPLETE|netlink.NUD_FAILED) != 0:
			continue
		default:
			state = "dynamic"
		}
		entries = append(entries, NeighborEntry{
			IPAddress:  n.IP.To4().String(),
			MACAddress: arpwire.MACToString(net.HardwareAddr(n.HardwareAddr)),
			State:      state,
		})
	}
	return entries, nil
}

// procNeighborTable parses /proc/net/arp. Flags: 0x0 incomplete, 0x2
// complete, 0x4/0x6 permanent.
func (p *OSPort) procNeighborTable() ([]NeighborEntry, error) {
	f, err := os.Open("/proc/net/arp")
	if err != nil {
		return nil, fmt.Errorf("failed to open /proc/net/arp: %w", err)
	}
	defer f.Close()

	var entries []NeighborEntry
	scanner := bufio.NewScanner(f)
	if !scanner.Scan() { // header line
		return entries, scanner.Err()
	}
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 6 {
			continue
		}
		ip, flags, mac := fields[0], fields[2], fields[3]
		if arpwire.IsZeroMAC(mac) {
			continue
		}
		state := "dynamic"
		switch flags {
		case "0x0":
			continue
		case "0x4", "0x6":
			state = "static"
		}
		entries = append(entries, NeighborEntry{IPAddress: ip, MACAddress: strings.ToLower(mac), State: state})
	}
	return entries, scanner.Err()
}

// CaptureDevices lists capture-library device names.
func (p *OSPort) CaptureDevices() ([]string, error) {
	return captureDevices()
}

// OpenCapture opens a live handle on the named device.
func (p *OSPort) OpenCapture(device string) (CaptureHandle, error) {
	h, err := openLive(device)
	if err != nil {
		return nil, err
	}
	p.Logger.Printf("platform: capture handle open on %s (snaplen %d, promiscuous, %s read timeout)",
		device, captureSnapLen, captureReadTimeout)
	return h, nil
}

func isWireless(ifaceName string) bool {
	_, err := os.Stat("/sys/class/net/" + ifaceName + "/wireless")
	return err == nil
}
