package discovery

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
)

// hostnameServices are the service types queried for the hostname pass. The
// workstation and device-info types answer on most desktop stacks; the rest
// cover printers, NAS boxes, and media devices.
var hostnameServices = []string{
	"_workstation._tcp",
	"_device-info._tcp",
	"_http._tcp",
	"_smb._tcp",
	"_ipp._tcp",
	"_airplay._tcp",
}

// ResolveHostnames runs one best-effort mDNS pass and returns an IPv4 to
// hostname map. Query failures are logged and otherwise silent; hosts that
// do not speak mDNS simply stay absent.
func ResolveHostnames(timeout time.Duration, logger *log.Logger) map[string]string {
	if logger == nil {
		logger = log.Default()
	}

	var (
		mu        sync.Mutex
		hostnames = make(map[string]string)
		wg        sync.WaitGroup
	)

	for _, service := range hostnameServices {
		wg.Add(1)
		go func(service string) {
			defer wg.Done()

			entries := make(chan *mdns.ServiceEntry, 64)
			done := make(chan struct{})
			go func() {
				defer close(done)
				for entry := range entries {
					if entry == nil || entry.AddrV4 == nil || entry.AddrV4.IsUnspecified() || entry.Host == "" {
						continue
					}
					ip := entry.AddrV4.String()
					name := strings.TrimSuffix(entry.Host, ".")
					mu.Lock()
					if _, exists := hostnames[ip]; !exists {
						hostnames[ip] = name
					}
					mu.Unlock()
				}
			}()

			params := &mdns.QueryParam{
				Service:     service,
				Domain:      "local",
				Timeout:     timeout,
				Entries:     entries,
				DisableIPv6: true,
			}
			if err := mdns.Query(params); err != nil {
				logger.Printf("discovery: mDNS query for %s failed: %v", service, err)
			}
			close(entries)
			<-done
		}(service)
	}

	wg.Wait()
	return hostnames
}
