package poison

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"netgrip/internal/arp"
	"netgrip/internal/arpwire"
	"netgrip/internal/errdefs"
	"netgrip/internal/platform"
	"netgrip/internal/topology"
)

func testTopology() topology.Topology {
	return topology.Topology{
		LocalIP:       "192.168.1.10",
		SubnetMask:    "255.255.255.0",
		CIDR:          24,
		GatewayIP:     "192.168.1.1",
		GatewayMAC:    "11:22:33:44:55:66",
		InterfaceName: "enp3s0",
		InterfaceMAC:  "aa:bb:cc:dd:ee:ff",
		Valid:         true,
	}
}

func newTestController(port *platform.Fake) (*Controller, *arp.Engine) {
	logger := log.New(io.Discard, "", 0)
	e := arp.NewEngine(port, logger)
	e.SetTopology(testTopology())
	e.SetHandle(port.Handle)
	return NewController(e, logger), e
}

func parseAll(t *testing.T, frames [][]byte) []arpwire.Frame {
	t.Helper()
	out := make([]arpwire.Frame, len(frames))
	for i, b := range frames {
		f, err := arpwire.Parse(b)
		require.NoError(t, err)
		out[i] = f
	}
	return out
}

func TestStartEmitsSpoofPair(t *testing.T) {
	port := platform.NewFake()
	c, _ := newTestController(port)

	require.NoError(t, c.Start("192.168.1.50", "de:ad:be:ef:00:01"))
	require.True(t, c.Active())

	frames := parseAll(t, port.Handle.Sent())
	require.Len(t, frames, 2)

	// Frame A: victim is told the gateway lives at our MAC.
	a := frames[0]
	require.Equal(t, "de:ad:be:ef:00:01", arpwire.MACToString(a.EthDst))
	require.Equal(t, "aa:bb:cc:dd:ee:ff", arpwire.MACToString(a.EthSrc))
	require.Equal(t, "aa:bb:cc:dd:ee:ff", arpwire.MACToString(a.SenderMAC))
	require.Equal(t, "192.168.1.1", arpwire.IPToString(a.SenderIP))
	require.Equal(t, "de:ad:be:ef:00:01", arpwire.MACToString(a.TargetMAC))
	require.Equal(t, "192.168.1.50", arpwire.IPToString(a.TargetIP))

	// Frame B: gateway is told the victim lives at our MAC.
	b := frames[1]
	require.Equal(t, "11:22:33:44:55:66", arpwire.MACToString(b.EthDst))
	require.Equal(t, "aa:bb:cc:dd:ee:ff", arpwire.MACToString(b.EthSrc))
	require.Equal(t, "192.168.1.50", arpwire.IPToString(b.SenderIP))
	require.Equal(t, "11:22:33:44:55:66", arpwire.MACToString(b.TargetMAC))
	require.Equal(t, "192.168.1.1", arpwire.IPToString(b.TargetIP))
}

func TestStartIsIdempotent(t *testing.T) {
	port := platform.NewFake()
	c, _ := newTestController(port)

	require.NoError(t, c.Start("192.168.1.50", "de:ad:be:ef:00:01"))
	require.NoError(t, c.Start("192.168.1.50", "de:ad:be:ef:00:01"))

	require.Len(t, port.Handle.Sent(), 2, "a second start must not re-send the pair")
	require.Len(t, c.Targets(), 1, "the target list must not grow")
}

func TestStopSendsRestorationPair(t *testing.T) {
	port := platform.NewFake()
	c, _ := newTestController(port)
	require.NoError(t, c.Start("192.168.1.50", "de:ad:be:ef:00:01"))

	require.True(t, c.Stop("192.168.1.50"))
	require.False(t, c.Active())

	frames := parseAll(t, port.Handle.Sent())
	require.Len(t, frames, 4)

	// Victim is told the real gateway MAC.
	v := frames[2]
	require.Equal(t, "de:ad:be:ef:00:01", arpwire.MACToString(v.EthDst))
	require.Equal(t, "11:22:33:44:55:66", arpwire.MACToString(v.SenderMAC))
	require.Equal(t, "192.168.1.1", arpwire.IPToString(v.SenderIP))

	// Gateway is told the real victim MAC.
	g := frames[3]
	require.Equal(t, "11:22:33:44:55:66", arpwire.MACToString(g.EthDst))
	require.Equal(t, "de:ad:be:ef:00:01", arpwire.MACToString(g.SenderMAC))
	require.Equal(t, "192.168.1.50", arpwire.IPToString(g.SenderIP))
}

func TestStopUnknownTargetReturnsFalse(t *testing.T) {
	port := platform.NewFake()
	c, _ := newTestController(port)

	require.False(t, c.Stop("192.168.1.77"))
	require.Empty(t, port.Handle.Sent())
	require.Empty(t, c.Targets())
}

func TestStopThenRestartReusesRecord(t *testing.T) {
	port := platform.NewFake()
	c, _ := newTestController(port)

	require.NoError(t, c.Start("192.168.1.50", "de:ad:be:ef:00:01"))
	require.True(t, c.Stop("192.168.1.50"))
	require.False(t, c.Stop("192.168.1.50"), "an inactive record cannot stop again")
	require.NoError(t, c.Start("192.168.1.50", "de:ad:be:ef:00:01"))

	require.Len(t, c.Targets(), 1)
	require.True(t, c.Targets()[0].Active)
	require.True(t, c.Active())
}

func TestStartWithoutHandle(t *testing.T) {
	port := platform.NewFake()
	c, e := newTestController(port)
	e.SetHandle(nil)

	err := c.Start("192.168.1.50", "de:ad:be:ef:00:01")
	require.ErrorIs(t, err, errdefs.ErrNotInitialized)
	require.Empty(t, c.Targets())
}

func TestStartInvalidArguments(t *testing.T) {
	port := platform.NewFake()
	c, _ := newTestController(port)

	require.ErrorIs(t, c.Start("bogus", "de:ad:be:ef:00:01"), errdefs.ErrInvalidArgument)
	require.ErrorIs(t, c.Start("192.168.1.50", "bogus"), errdefs.ErrInvalidArgument)
	require.Empty(t, c.Targets())
}

func TestStartWithUnresolvedGatewayMAC(t *testing.T) {
	// The gateway-side spoof goes out with a zero destination; refresh picks
	// the MAC out of the neighbor table before the pair is built when it can.
	port := platform.NewFake()
	logger := log.New(io.Discard, "", 0)
	e := arp.NewEngine(port, logger)
	topo := testTopology()
	topo.GatewayMAC = ""
	e.SetTopology(topo)
	e.SetHandle(port.Handle)
	c := NewController(e, logger)

	require.NoError(t, c.Start("192.168.1.50", "de:ad:be:ef:00:01"))

	frames := parseAll(t, port.Handle.Sent())
	// One discovery probe plus the two spoofs.
	require.Len(t, frames, 3)
	last := frames[len(frames)-1]
	require.Equal(t, "00:00:00:00:00:00", arpwire.MACToString(last.EthDst))
}

func TestRefresherReEmitsPairs(t *testing.T) {
	port := platform.NewFake()
	c, _ := newTestController(port)
	require.NoError(t, c.Start("192.168.1.50", "de:ad:be:ef:00:01"))

	c.StartRefresher(time.Second)
	defer c.StopRefresher()

	require.Eventually(t, func() bool {
		return len(port.Handle.Sent()) >= 4
	}, 3*time.Second, 50*time.Millisecond, "the refresher must re-emit the spoof pair")
}

func TestStopAllRestoresEveryTarget(t *testing.T) {
	port := platform.NewFake()
	c, _ := newTestController(port)
	require.NoError(t, c.Start("192.168.1.50", "de:ad:be:ef:00:01"))
	require.NoError(t, c.Start("192.168.1.60", "de:ad:be:ef:00:02"))

	c.StopAll()
	require.False(t, c.Active())
	for _, target := range c.Targets() {
		require.False(t, target.Active)
	}
}
