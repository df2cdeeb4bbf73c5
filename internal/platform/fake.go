package platform

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"netgrip/internal/errdefs"
)

// Fake is a scripted Port for tests. It serves configured adapters, neighbor
// snapshots, and device names, and its handle records every transmitted
// frame.
type Fake struct {
	mu sync.Mutex

	AdapterList []NetworkAdapter
	Neighbors   []NeighborEntry
	// NeighborsFn, when set, overrides Neighbors on every call. Tests use it
	// to make the neighbor table change between probes.
	NeighborsFn func() []NeighborEntry
	Devices     []string

	// OpenErr scripts an OpenCapture failure (degraded-initialization
	// scenarios).
	OpenErr error

	Handle *FakeHandle

	NeighborReads int
}

// NewFake returns a fake port with an empty handle attached.
func NewFake() *Fake {
	return &Fake{Handle: NewFakeHandle()}
}

func (f *Fake) Adapters() ([]NetworkAdapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]NetworkAdapter(nil), f.AdapterList...), nil
}

func (f *Fake) NeighborTable() ([]NeighborEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.NeighborReads++
	if f.NeighborsFn != nil {
		return f.NeighborsFn(), nil
	}
	return append([]NeighborEntry(nil), f.Neighbors...), nil
}

func (f *Fake) CaptureDevices() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Devices...), nil
}

func (f *Fake) OpenCapture(device string) (CaptureHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.OpenErr != nil {
		return nil, fmt.Errorf("%w: device %s: %v", errdefs.ErrCaptureOpenFailed, device, f.OpenErr)
	}
	if device == "" {
		return nil, fmt.Errorf("%w: empty capture device name", errdefs.ErrCaptureOpenFailed)
	}
	return f.Handle, nil
}

// FakeHandle is an in-memory capture handle. Writes are recorded, reads are
// served from a scripted inbound queue and end with io.EOF.
type FakeHandle struct {
	mu sync.Mutex

	sent    [][]byte
	inbound [][]byte

	// WriteErr scripts a transmission failure.
	WriteErr error

	closed int
}

func NewFakeHandle() *FakeHandle {
	return &FakeHandle{}
}

func (h *FakeHandle) WritePacketData(data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.WriteErr != nil {
		return h.WriteErr
	}
	h.sent = append(h.sent, append([]byte(nil), data...))
	return nil
}

func (h *FakeHandle) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.inbound) == 0 {
		return nil, gopacket.CaptureInfo{}, io.EOF
	}
	data := h.inbound[0]
	h.inbound = h.inbound[1:]
	ci := gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: len(data),
		Length:        len(data),
	}
	return data, ci, nil
}

func (h *FakeHandle) LinkType() layers.LinkType {
	return layers.LinkTypeEthernet
}

func (h *FakeHandle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed++
}

// Enqueue scripts an inbound frame for the read side.
func (h *FakeHandle) Enqueue(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inbound = append(h.inbound, append([]byte(nil), data...))
}

// Sent returns a copy of every frame written so far, in call order.
func (h *FakeHandle) Sent() [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([][]byte, len(h.sent))
	for i, f := range h.sent {
		out[i] = append([]byte(nil), f...)
	}
	return out
}

// CloseCount reports how many times Close was invoked.
func (h *FakeHandle) CloseCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
