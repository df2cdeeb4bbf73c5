package manager

import (
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"netgrip/internal/config"
	"netgrip/internal/platform"
)

func fakeLAN() *platform.Fake {
	port := platform.NewFake()
	port.AdapterList = []platform.NetworkAdapter{
		{
			Name:       "enp3s0",
			MACAddress: "aa:bb:cc:dd:ee:ff",
			IPAddress:  "192.168.1.10",
			SubnetMask: "255.255.255.0",
			Gateway:    "192.168.1.1",
			IsActive:   true,
		},
	}
	port.Neighbors = []platform.NeighborEntry{
		{IPAddress: "192.168.1.1", MACAddress: "11:22:33:44:55:66", State: "dynamic"},
	}
	port.Devices = []string{"enp3s0"}
	return port
}

func newTestManager(port *platform.Fake) *Manager {
	m := New(port, config.Default(), log.New(io.Discard, "", 0))
	m.gatewayBackoff = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	return m
}

func TestInitializeAndTopology(t *testing.T) {
	port := fakeLAN()
	m := newTestManager(port)

	require.True(t, m.Initialize("enp3s0"))
	require.True(t, m.Initialized())

	topo := m.Topology()
	require.True(t, topo.Valid)
	require.Equal(t, "192.168.1.10", topo.LocalIP)
	require.Equal(t, 24, topo.CIDR)
	require.Equal(t, "11:22:33:44:55:66", topo.GatewayMAC)
}

func TestInitializeUnknownAdapterFallsBack(t *testing.T) {
	port := fakeLAN()
	m := newTestManager(port)

	require.True(t, m.Initialize("ghost0"))
	require.Equal(t, "enp3s0", m.Topology().InterfaceName)
}

func TestInitializeFailsWithoutUsableAdapter(t *testing.T) {
	port := platform.NewFake()
	port.Devices = []string{"enp3s0"}
	m := newTestManager(port)

	require.False(t, m.Initialize("enp3s0"))
	require.False(t, m.Initialized())
	require.Contains(t, m.LastError(), "topology incomplete")
}

func TestDegradedInitialization(t *testing.T) {
	// The capture library refuses the device but enumeration works:
	// Initialize succeeds, topology is served, sends fail as not
	// transmitted.
	port := fakeLAN()
	port.OpenErr = errors.New("permission denied")
	m := newTestManager(port)

	require.True(t, m.Initialize("enp3s0"))
	require.True(t, m.Topology().Valid)

	require.False(t, m.SendArpRequest("192.168.1.5"))
	require.Contains(t, m.LastError(), "not transmitted")
}

func TestSendArpRequestBeforeInitialize(t *testing.T) {
	m := newTestManager(fakeLAN())

	require.False(t, m.SendArpRequest("192.168.1.5"))
	require.Contains(t, m.LastError(), "not initialized")
}

func TestCleanupReleasesHandleOnce(t *testing.T) {
	port := fakeLAN()
	m := newTestManager(port)
	require.True(t, m.Initialize("enp3s0"))

	m.Cleanup()
	m.Cleanup() // second cleanup must not double-close

	require.Equal(t, 1, port.Handle.CloseCount())
	require.False(t, m.Initialized())
	require.False(t, m.SendArpRequest("192.168.1.5"))
	require.Contains(t, m.LastError(), "not initialized")
}

func TestCleanupStopsActivePoisoning(t *testing.T) {
	port := fakeLAN()
	m := newTestManager(port)
	require.True(t, m.Initialize("enp3s0"))
	require.True(t, m.StartPoisoning("192.168.1.50", "de:ad:be:ef:00:01"))

	before := len(port.Handle.Sent())
	m.Cleanup()

	require.Len(t, port.Handle.Sent(), before+2, "cleanup must emit the restoration pair")
	for _, target := range m.PoisoningTargets() {
		require.False(t, target.Active)
	}
}

func TestPoisoningLifecycle(t *testing.T) {
	port := fakeLAN()
	m := newTestManager(port)
	require.True(t, m.Initialize("enp3s0"))

	require.True(t, m.StartPoisoning("192.168.1.50", "de:ad:be:ef:00:01"))
	require.True(t, m.StartPoisoning("192.168.1.50", "de:ad:be:ef:00:01"), "restart of an active target is a success")
	require.Len(t, m.PoisoningTargets(), 1)

	require.True(t, m.StopPoisoning("192.168.1.50"))
	require.False(t, m.StopPoisoning("192.168.1.50"), "a second stop finds no active record")

	stats := m.PerformanceStats()
	require.Equal(t, uint64(4), stats.PacketsSent, "spoof pair plus restoration pair")
	require.Zero(t, stats.SendErrors)
}

func TestReinitializeCleansUpFirst(t *testing.T) {
	port := fakeLAN()
	m := newTestManager(port)
	require.True(t, m.Initialize("enp3s0"))
	require.True(t, m.Initialize("enp3s0"))

	require.Equal(t, 1, port.Handle.CloseCount())
	require.True(t, m.Initialized())
}

func TestResetPerformanceStats(t *testing.T) {
	port := fakeLAN()
	m := newTestManager(port)
	require.True(t, m.Initialize("enp3s0"))
	require.True(t, m.SendArpRequest("192.168.1.5"))

	m.ResetPerformanceStats()
	require.Zero(t, m.PerformanceStats().PacketsSent)
}
