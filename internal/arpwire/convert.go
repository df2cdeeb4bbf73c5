package arpwire

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"netgrip/internal/errdefs"
)

// MACToString formats a 6-byte hardware address as lowercase
// "xx:xx:xx:xx:xx:xx". Addresses of any other length format as the zero MAC.
func MACToString(mac net.HardwareAddr) string {
	if len(mac) != HardwareAddrLen {
		mac = ZeroMAC
	}
	parts := make([]string, HardwareAddrLen)
	for i, b := range mac {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, ":")
}

// StringToMAC parses "xx:xx:xx:xx:xx:xx". The input must be exactly 17
// characters with a hex byte at every position; the separator characters are
// not inspected.
func StringToMAC(s string) (net.HardwareAddr, error) {
	if len(s) != 17 {
		return nil, fmt.Errorf("%w: MAC %q must be 17 characters", errdefs.ErrInvalidArgument, s)
	}
	mac := make(net.HardwareAddr, HardwareAddrLen)
	for i := 0; i < HardwareAddrLen; i++ {
		v, err := strconv.ParseUint(s[i*3:i*3+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: MAC %q has non-hex byte at offset %d", errdefs.ErrInvalidArgument, s, i*3)
		}
		mac[i] = byte(v)
	}
	return mac, nil
}

// IPToString formats a 4-byte address as dotted decimal.
func IPToString(ip net.IP) string {
	if v4 := ip.To4(); v4 != nil {
		return v4.String()
	}
	return ""
}

// StringToIP parses a dotted-decimal IPv4 address.
func StringToIP(s string) (net.IP, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("%w: bad IPv4 address %q", errdefs.ErrInvalidArgument, s)
	}
	v4 := ip.To4()
	if v4 == nil {
		return nil, fmt.Errorf("%w: %q is not IPv4", errdefs.ErrInvalidArgument, s)
	}
	return v4, nil
}

// IsZeroMAC reports whether the string form names an empty or all-zero MAC.
func IsZeroMAC(s string) bool {
	return s == "" || s == "00:00:00:00:00:00"
}
