package arpwire

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"netgrip/internal/errdefs"
)

func mustMAC(t *testing.T, s string) net.HardwareAddr {
	t.Helper()
	mac, err := StringToMAC(s)
	require.NoError(t, err)
	return mac
}

func mustIP(t *testing.T, s string) net.IP {
	t.Helper()
	ip, err := StringToIP(s)
	require.NoError(t, err)
	return ip
}

func TestEncodeRequestWire(t *testing.T) {
	// Scenario: request for 192.168.1.5 from 192.168.1.10 / aa:bb:cc:dd:ee:ff.
	srcMAC := mustMAC(t, "aa:bb:cc:dd:ee:ff")
	buf := EncodeRequest(srcMAC, mustIP(t, "192.168.1.10"), mustIP(t, "192.168.1.5"))

	require.Len(t, buf, FrameLength)
	require.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff, 0x08, 0x06}, buf[:14])
	require.Equal(t, []byte{0x00, 0x01}, buf[20:22], "opcode must be request")
	require.Equal(t, []byte{0xc0, 0xa8, 0x01, 0x0a}, buf[28:32], "sender IP")
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, buf[32:38], "target MAC must be zeroed")
	require.Equal(t, []byte{0xc0, 0xa8, 0x01, 0x05}, buf[38:42], "target IP")
}

func TestEncodeSpoofFields(t *testing.T) {
	victimMAC := mustMAC(t, "de:ad:be:ef:00:01")
	ourMAC := mustMAC(t, "aa:bb:cc:dd:ee:ff")
	buf := EncodeSpoof(victimMAC, mustIP(t, "192.168.1.50"), mustIP(t, "192.168.1.1"), ourMAC)

	require.Len(t, buf, FrameLength)
	require.Equal(t, []byte{0x00, 0x02}, buf[20:22], "spoof is an unsolicited reply")

	f, err := Parse(buf)
	require.NoError(t, err)
	require.Equal(t, victimMAC, f.EthDst)
	require.Equal(t, ourMAC, f.EthSrc)
	require.Equal(t, ourMAC, f.SenderMAC)
	require.Equal(t, "192.168.1.1", IPToString(f.SenderIP))
	require.Equal(t, victimMAC, f.TargetMAC)
	require.Equal(t, "192.168.1.50", IPToString(f.TargetIP))
}

func TestParseRoundTrips(t *testing.T) {
	srcMAC := mustMAC(t, "02:00:00:00:00:01")
	dstMAC := mustMAC(t, "02:00:00:00:00:02")
	srcIP := mustIP(t, "10.0.0.1")
	dstIP := mustIP(t, "10.0.0.2")

	cases := map[string][]byte{
		"request": EncodeRequest(srcMAC, srcIP, dstIP),
		"reply":   EncodeReply(srcMAC, srcIP, dstMAC, dstIP),
		"spoof":   EncodeSpoof(dstMAC, dstIP, srcIP, srcMAC),
	}
	for name, buf := range cases {
		f, err := Parse(buf)
		require.NoError(t, err, name)
		re := put(f.EthDst, f.EthSrc, f.Op, f.SenderMAC, f.SenderIP, f.TargetMAC, f.TargetIP)
		require.Equal(t, buf, re, "%s must survive a parse/encode round trip", name)
	}
}

func TestParseAcceptsPaddedFrames(t *testing.T) {
	buf := EncodeRequest(mustMAC(t, "02:00:00:00:00:01"), mustIP(t, "10.0.0.1"), mustIP(t, "10.0.0.2"))
	padded := append(append([]byte{}, buf...), make([]byte, 18)...) // 60-byte minimum Ethernet frame

	f, err := Parse(padded)
	require.NoError(t, err)
	require.Equal(t, uint16(OpRequest), f.Op)
}

func TestParseRejectsMalformedFrames(t *testing.T) {
	good := EncodeReply(mustMAC(t, "02:00:00:00:00:01"), mustIP(t, "10.0.0.1"),
		mustMAC(t, "02:00:00:00:00:02"), mustIP(t, "10.0.0.2"))

	mutate := func(off int, b byte) []byte {
		bad := append([]byte{}, good...)
		bad[off] = b
		return bad
	}

	cases := map[string][]byte{
		"short":         good[:FrameLength-1],
		"ethertype":     mutate(13, 0x00),
		"hardware type": mutate(15, 0x02),
		"protocol type": mutate(17, 0x06),
		"hardware len":  mutate(18, 8),
		"protocol len":  mutate(19, 16),
		"opcode":        mutate(21, 9),
	}
	for name, buf := range cases {
		_, err := Parse(buf)
		require.ErrorIs(t, err, errdefs.ErrInvalidArgument, name)
	}
}
