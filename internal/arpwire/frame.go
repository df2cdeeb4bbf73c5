// Package arpwire encodes and decodes the 42-byte Ethernet+ARP frame used by
// the capture-level engine. The layout is built with explicit byte offsets and
// big-endian writes so the wire image never depends on host struct layout.
package arpwire

import (
	"encoding/binary"
	"fmt"
	"net"

	"netgrip/internal/errdefs"
)

// Frame layout constants. The Ethernet header occupies bytes 0..13, the ARP
// payload bytes 14..41.
const (
	FrameLength = 42

	EtherTypeARP     = 0x0806
	HardwareEthernet = 1
	ProtocolIPv4     = 0x0800
	HardwareAddrLen  = 6
	ProtocolAddrLen  = 4

	OpRequest = 1
	OpReply   = 2
)

// Byte offsets within the frame.
const (
	offEthDst       = 0
	offEthSrc       = 6
	offEtherType    = 12
	offHardwareType = 14
	offProtocolType = 16
	offHardwareLen  = 18
	offProtocolLen  = 19
	offOperation    = 20
	offSenderMAC    = 22
	offSenderIP     = 28
	offTargetMAC    = 32
	offTargetIP     = 38
)

// Broadcast is the all-stations Ethernet destination.
var Broadcast = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// ZeroMAC is the unknown-hardware placeholder used in request target fields.
var ZeroMAC = net.HardwareAddr{0, 0, 0, 0, 0, 0}

// Frame is the structured form of one Ethernet+ARP frame.
type Frame struct {
	EthDst    net.HardwareAddr
	EthSrc    net.HardwareAddr
	Op        uint16
	SenderMAC net.HardwareAddr
	SenderIP  net.IP
	TargetMAC net.HardwareAddr
	TargetIP  net.IP
}

// put assembles a complete frame into a fresh 42-byte buffer.
func put(ethDst, ethSrc net.HardwareAddr, op uint16, senderMAC net.HardwareAddr, senderIP net.IP, targetMAC net.HardwareAddr, targetIP net.IP) []byte {
	buf := make([]byte, FrameLength)

	copy(buf[offEthDst:offEthDst+HardwareAddrLen], ethDst)
	copy(buf[offEthSrc:offEthSrc+HardwareAddrLen], ethSrc)
	binary.BigEndian.PutUint16(buf[offEtherType:], EtherTypeARP)

	binary.BigEndian.PutUint16(buf[offHardwareType:], HardwareEthernet)
	binary.BigEndian.PutUint16(buf[offProtocolType:], ProtocolIPv4)
	buf[offHardwareLen] = HardwareAddrLen
	buf[offProtocolLen] = ProtocolAddrLen
	binary.BigEndian.PutUint16(buf[offOperation:], op)
	copy(buf[offSenderMAC:offSenderMAC+HardwareAddrLen], senderMAC)
	copy(buf[offSenderIP:offSenderIP+ProtocolAddrLen], senderIP.To4())
	copy(buf[offTargetMAC:offTargetMAC+HardwareAddrLen], targetMAC)
	copy(buf[offTargetIP:offTargetIP+ProtocolAddrLen], targetIP.To4())

	return buf
}

// EncodeRequest builds a broadcast ARP request asking who holds targetIP.
// The target hardware field is zeroed.
func EncodeRequest(srcMAC net.HardwareAddr, srcIP, targetIP net.IP) []byte {
	return put(Broadcast, srcMAC, OpRequest, srcMAC, srcIP, ZeroMAC, targetIP)
}

// EncodeReply builds a unicast ARP reply announcing senderIP is at senderMAC.
func EncodeReply(senderMAC net.HardwareAddr, senderIP net.IP, targetMAC net.HardwareAddr, targetIP net.IP) []byte {
	return put(targetMAC, senderMAC, OpReply, senderMAC, senderIP, targetMAC, targetIP)
}

// EncodeSpoof builds the unsolicited reply that plants (spoofIP -> ourMAC)
// into the victim's ARP cache.
func EncodeSpoof(victimMAC net.HardwareAddr, victimIP, spoofIP net.IP, ourMAC net.HardwareAddr) []byte {
	return put(victimMAC, ourMAC, OpReply, ourMAC, spoofIP, victimMAC, victimIP)
}

// Parse validates and decodes a captured frame. Frames longer than 42 bytes
// are accepted (link layers pad short frames); the trailer is ignored.
func Parse(b []byte) (Frame, error) {
	if len(b) < FrameLength {
		return Frame{}, fmt.Errorf("%w: frame too short (%d bytes)", errdefs.ErrInvalidArgument, len(b))
	}
	if et := binary.BigEndian.Uint16(b[offEtherType:]); et != EtherTypeARP {
		return Frame{}, fmt.Errorf("%w: ethertype 0x%04x is not ARP", errdefs.ErrInvalidArgument, et)
	}
	if ht := binary.BigEndian.Uint16(b[offHardwareType:]); ht != HardwareEthernet {
		return Frame{}, fmt.Errorf("%w: hardware type %d", errdefs.ErrInvalidArgument, ht)
	}
	if pt := binary.BigEndian.Uint16(b[offProtocolType:]); pt != ProtocolIPv4 {
		return Frame{}, fmt.Errorf("%w: protocol type 0x%04x", errdefs.ErrInvalidArgument, pt)
	}
	if b[offHardwareLen] != HardwareAddrLen || b[offProtocolLen] != ProtocolAddrLen {
		return Frame{}, fmt.Errorf("%w: address lengths %d/%d", errdefs.ErrInvalidArgument, b[offHardwareLen], b[offProtocolLen])
	}
	op := binary.BigEndian.Uint16(b[offOperation:])
	if op != OpRequest && op != OpReply {
		return Frame{}, fmt.Errorf("%w: operation %d", errdefs.ErrInvalidArgument, op)
	}

	f := Frame{Op: op}
	f.EthDst = append(net.HardwareAddr(nil), b[offEthDst:offEthDst+HardwareAddrLen]...)
	f.EthSrc = append(net.HardwareAddr(nil), b[offEthSrc:offEthSrc+HardwareAddrLen]...)
	f.SenderMAC = append(net.HardwareAddr(nil), b[offSenderMAC:offSenderMAC+HardwareAddrLen]...)
	f.SenderIP = net.IPv4(b[offSenderIP], b[offSenderIP+1], b[offSenderIP+2], b[offSenderIP+3]).To4()
	f.TargetMAC = append(net.HardwareAddr(nil), b[offTargetMAC:offTargetMAC+HardwareAddrLen]...)
	f.TargetIP = net.IPv4(b[offTargetIP], b[offTargetIP+1], b[offTargetIP+2], b[offTargetIP+3]).To4()
	return f, nil
}
