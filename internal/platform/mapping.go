package platform

import "strings"

// MapAdapterName resolves an OS adapter identity to a capture-library device
// name. The mapping is derived, never stored: each device name is reduced to
// the GUID-like token after its final underscore (Npcap devices look like
// \Device\NPF_{GUID}; device names without an underscore reduce to
// themselves) and matched by substring containment against the identity.
// Returns the empty string when no device matches.
func MapAdapterName(identity string, devices []string) string {
	if identity == "" {
		return ""
	}
	for _, dev := range devices {
		token := dev
		if i := strings.LastIndexByte(dev, '_'); i >= 0 {
			token = dev[i+1:]
		}
		if token == "" {
			continue
		}
		if strings.Contains(token, identity) {
			return dev
		}
	}
	return ""
}
