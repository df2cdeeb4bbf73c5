package platform

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"netgrip/internal/errdefs"
)

// Capture parameters for every live handle the core opens.
const (
	captureSnapLen     = 65536
	capturePromiscuous = true
	captureReadTimeout = 1000 * time.Millisecond
)

// liveHandle wraps a pcap handle so that Close is idempotent. The core's
// cleanup contract forbids a double close of the underlying OS resource.
type liveHandle struct {
	h    *pcap.Handle
	once sync.Once
}

func (l *liveHandle) WritePacketData(data []byte) error {
	return l.h.WritePacketData(data)
}

func (l *liveHandle) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	return l.h.ReadPacketData()
}

func (l *liveHandle) LinkType() layers.LinkType {
	return l.h.LinkType()
}

func (l *liveHandle) Close() {
	l.once.Do(l.h.Close)
}

// openLive opens a capture handle with the core's fixed parameters: snaplen
// 65536, promiscuous mode, 1000 ms read timeout. The read timeout doubles as
// the non-blocking provision; reads return after at most one timeout interval.
func openLive(device string) (CaptureHandle, error) {
	if device == "" {
		return nil, fmt.Errorf("%w: empty capture device name", errdefs.ErrCaptureOpenFailed)
	}
	h, err := pcap.OpenLive(device, captureSnapLen, capturePromiscuous, captureReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: device %s: %v", errdefs.ErrCaptureOpenFailed, device, err)
	}
	return &liveHandle{h: h}, nil
}

// captureDevices lists the capture-library device names.
func captureDevices() ([]string, error) {
	devs, err := pcap.FindAllDevs()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate capture devices: %w", err)
	}
	names := make([]string, 0, len(devs))
	for _, d := range devs {
		names = append(names, d.Name)
	}
	return names, nil
}
