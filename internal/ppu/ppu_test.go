package ppu

import (
	"testing"

	"gameboii/internal/interrupt"
	"gameboii/internal/memory"
)

// MockBus implements Bus over a flat address space
type MockBus struct {
	data     [0x10000]uint8
	requests map[interrupt.Kind]int
}

// NewMockBus creates a bus with the display on and an identity palette
func NewMockBus() *MockBus {
	b := &MockBus{requests: make(map[interrupt.Kind]int)}
	b.data[memory.LCDC] = 0x91
	b.data[memory.BGP] = 0xE4
	return b
}

func (b *MockBus) Peek(address uint16) uint8 {
	return b.data[address]
}

func (b *MockBus) Poke(address uint16, value uint8) {
	b.data[address] = value
}

func (b *MockBus) RequestInterrupt(kind interrupt.Kind) {
	b.requests[kind]++
}

// SetBytes sets multiple bytes starting at the given address
func (b *MockBus) SetBytes(address uint16, values ...uint8) {
	for i, v := range values {
		b.data[address+uint16(i)] = v
	}
}

// run ticks the PPU for every clock in [from, to)
func run(p *PPU, bus *MockBus, from, to uint64) {
	for clock := from; clock < to; clock++ {
		p.Tick(bus, clock)
	}
}

func pixelAt(p *PPU, x, y int) uint32 {
	fb := p.FrameBuffer()
	return fb[y*Width+x]
}

// TestPPUCreation tests PPU initialization
func TestPPUCreation(t *testing.T) {
	p := New()

	if p.Phase() != Off {
		t.Errorf("Expected initial phase Off, got %s", p.Phase())
	}
	if p.LY() != 0 {
		t.Errorf("Expected initial LY 0, got %d", p.LY())
	}
	if p.FrameCount() != 0 {
		t.Errorf("Expected initial frame count 0, got %d", p.FrameCount())
	}
}

// TestPhaseSequence tests the phase budgets of a visible line
func TestPhaseSequence(t *testing.T) {
	tests := []struct {
		name        string
		scx         uint8
		transferEnd uint64
	}{
		{"NoScroll", 0, 80 + 12 + 160},
		{"FineScroll5", 5, 80 + 12 + 5 + 160},
		{"CoarseScrollOnly", 16, 80 + 12 + 160},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := New()
			bus := NewMockBus()
			bus.data[memory.SCX] = test.scx

			p.Tick(bus, 0)
			if p.Phase() != OAMSearch {
				t.Fatalf("Expected OAMSearch after enabling, got %s", p.Phase())
			}

			run(p, bus, 1, 80)
			if p.Phase() != OAMSearch {
				t.Errorf("Expected OAMSearch at clock 79, got %s", p.Phase())
			}
			p.Tick(bus, 80)
			if p.Phase() != PixelTransfer {
				t.Errorf("Expected PixelTransfer at clock 80, got %s", p.Phase())
			}

			run(p, bus, 81, test.transferEnd-1)
			if p.Phase() != PixelTransfer {
				t.Errorf("Expected PixelTransfer before clock %d, got %s", test.transferEnd-1, p.Phase())
			}
			p.Tick(bus, test.transferEnd-1)
			if p.Phase() != HBlank {
				t.Errorf("Expected HBlank at clock %d, got %s", test.transferEnd-1, p.Phase())
			}
			if p.NextChange() != LineCycles {
				t.Errorf("Expected HBlank to end at %d, got %d", LineCycles, p.NextChange())
			}

			run(p, bus, test.transferEnd, LineCycles)
			if p.LY() != 0 {
				t.Errorf("Expected LY 0 before clock 456, got %d", p.LY())
			}
			p.Tick(bus, LineCycles)
			if p.LY() != 1 || p.Phase() != OAMSearch {
				t.Errorf("Expected LY 1 in OAMSearch at clock 456, got %d in %s", p.LY(), p.Phase())
			}
		})
	}
}

// TestScanlineTiming tests that LY changes exactly every 456 cycles and wraps after 153
func TestScanlineTiming(t *testing.T) {
	p := New()
	bus := NewMockBus()

	last := p.LY()
	changes := 0
	maxLY := uint8(0)
	for clock := uint64(0); clock < 2*FrameCycles; clock++ {
		p.Tick(bus, clock)
		if p.LY() == last {
			continue
		}
		if clock%LineCycles != 0 {
			t.Fatalf("LY changed to %d at clock %d, not on a line boundary", p.LY(), clock)
		}
		if p.LY() != last+1 && !(last == Lines-1 && p.LY() == 0) {
			t.Fatalf("LY jumped from %d to %d", last, p.LY())
		}
		if bus.data[memory.LY] != p.LY() {
			t.Fatalf("Expected LY register %d, got %d", p.LY(), bus.data[memory.LY])
		}
		if p.LY() > maxLY {
			maxLY = p.LY()
		}
		last = p.LY()
		changes++
	}

	if changes != 2*Lines-1 {
		t.Errorf("Expected %d LY changes, got %d", 2*Lines-1, changes)
	}
	if maxLY != Lines-1 {
		t.Errorf("Expected LY to reach %d, got %d", Lines-1, maxLY)
	}
}

// TestVBlankOncePerFrame tests the VBlank request and buffer swap cadence
func TestVBlankOncePerFrame(t *testing.T) {
	p := New()
	bus := NewMockBus()
	swaps := 0
	p.SetFrameCompleteCallback(func() { swaps++ })

	run(p, bus, 0, 144*LineCycles)
	if bus.requests[interrupt.VBlank] != 0 {
		t.Errorf("Expected no VBlank before line 144, got %d", bus.requests[interrupt.VBlank])
	}
	p.Tick(bus, 144*LineCycles)
	if p.Phase() != VBlank {
		t.Errorf("Expected VBlank at line 144, got %s", p.Phase())
	}

	run(p, bus, 144*LineCycles+1, 3*FrameCycles)
	if bus.requests[interrupt.VBlank] != 3 {
		t.Errorf("Expected 3 VBlank requests, got %d", bus.requests[interrupt.VBlank])
	}
	if p.FrameCount() != 3 || swaps != 3 {
		t.Errorf("Expected 3 frames and 3 callbacks, got %d and %d", p.FrameCount(), swaps)
	}
}

// TestLCDOff tests switching the display off and on again
func TestLCDOff(t *testing.T) {
	p := New()
	bus := NewMockBus()
	bus.SetBytes(0x8000, 0xFF, 0xFF)
	run(p, bus, 0, FrameCycles+10*LineCycles)

	if pixelAt(p, 0, 0) != Shades[3] {
		t.Fatalf("Expected a drawn frame before switching off, got 0x%06X", pixelAt(p, 0, 0))
	}

	bus.data[memory.LCDC] &^= 0x80
	clock := uint64(FrameCycles + 10*LineCycles)
	p.Tick(bus, clock)

	if p.Phase() != Off {
		t.Errorf("Expected Off, got %s", p.Phase())
	}
	if bus.data[memory.STAT]&0x03 != 0 {
		t.Errorf("Expected STAT mode 0 while off, got %d", bus.data[memory.STAT]&0x03)
	}
	fb := p.FrameBuffer()
	for i, c := range fb {
		if c != OffColor {
			t.Fatalf("Expected pixel %d blanked, got 0x%06X", i, c)
		}
	}

	run(p, bus, clock+1, clock+1000)
	if p.Phase() != Off {
		t.Errorf("Expected to stay Off, got %s", p.Phase())
	}

	bus.data[memory.LCDC] |= 0x80
	clock += 1000
	p.Tick(bus, clock)
	if p.Phase() != OAMSearch || p.LY() != 0 || p.Column() != 0 {
		t.Errorf("Expected OAMSearch on line 0, got %s on line %d column %d", p.Phase(), p.LY(), p.Column())
	}
	if p.NextChange() != clock+80 {
		t.Errorf("Expected OAMSearch to end at %d, got %d", clock+80, p.NextChange())
	}
}

func TestTilePixel(t *testing.T) {
	want := []uint8{0, 2, 3, 3, 3, 3, 2, 0}
	for x, w := range want {
		if got := TilePixel(0x3C, 0x7E, uint8(x)); got != w {
			t.Errorf("x=%d: Expected %d, got %d", x, w, got)
		}
	}
}

func TestTileAddress(t *testing.T) {
	tests := []struct {
		lcdc uint8
		id   uint8
		want uint16
	}{
		{0x10, 0x00, 0x8000},
		{0x10, 0x01, 0x8010},
		{0x10, 0xFF, 0x8FF0},
		{0x00, 0x00, 0x9000},
		{0x00, 0x7F, 0x97F0},
		{0x00, 0x80, 0x8800},
		{0x00, 0xFF, 0x8FF0},
	}
	for _, test := range tests {
		if got := TileAddress(test.lcdc, test.id); got != test.want {
			t.Errorf("TileAddress(0x%02X, 0x%02X): Expected 0x%04X, got 0x%04X", test.lcdc, test.id, test.want, got)
		}
	}
}

func TestPalette(t *testing.T) {
	for i := uint8(0); i < 4; i++ {
		if got := Palette(0xE4, i); got != i {
			t.Errorf("Identity palette: Expected %d, got %d", i, got)
		}
		if got := Palette(0x1B, i); got != 3-i {
			t.Errorf("Inverted palette: Expected %d, got %d", 3-i, got)
		}
	}
}

// TestBackgroundRendering tests map lookup, scrolling and both addressing modes
func TestBackgroundRendering(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*MockBus)
		x, y  int
		want  uint32
	}{
		{
			name: "UnsignedTile",
			setup: func(b *MockBus) {
				b.SetBytes(0x8010, 0xFF, 0x00)
				b.data[0x9800] = 1
			},
			x: 3, y: 0, want: Shades[1],
		},
		{
			name: "NeighbourTile",
			setup: func(b *MockBus) {
				b.SetBytes(0x8010, 0xFF, 0x00)
				b.data[0x9800] = 1
			},
			x: 8, y: 0, want: Shades[0],
		},
		{
			name: "SignedTile",
			setup: func(b *MockBus) {
				b.data[memory.LCDC] = 0x81
				b.SetBytes(0x8800, 0x00, 0xFF)
				b.data[0x9800] = 0x80
			},
			x: 0, y: 0, want: Shades[2],
		},
		{
			name: "HighMap",
			setup: func(b *MockBus) {
				b.data[memory.LCDC] = 0x99
				b.SetBytes(0x8010, 0xFF, 0xFF)
				b.data[0x9C00] = 1
			},
			x: 0, y: 0, want: Shades[3],
		},
		{
			name: "ScrollX",
			setup: func(b *MockBus) {
				b.SetBytes(0x8010, 0xFF, 0xFF)
				b.data[0x9801] = 1
				b.data[memory.SCX] = 8
			},
			x: 0, y: 0, want: Shades[3],
		},
		{
			name: "ScrollYRow",
			setup: func(b *MockBus) {
				b.SetBytes(0x8010+2*3, 0xFF, 0x00)
				b.data[0x9800] = 1
				b.data[memory.SCY] = 3
			},
			x: 0, y: 0, want: Shades[1],
		},
		{
			name: "Palette",
			setup: func(b *MockBus) {
				b.SetBytes(0x8010, 0xFF, 0x00)
				b.data[0x9800] = 1
				b.data[memory.BGP] = 0x0C
			},
			x: 0, y: 0, want: Shades[3],
		},
		{
			name: "BackgroundDisabled",
			setup: func(b *MockBus) {
				b.data[memory.LCDC] = 0x90
				b.SetBytes(0x8000, 0xFF, 0xFF)
			},
			x: 0, y: 0, want: Shades[0],
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := New()
			bus := NewMockBus()
			test.setup(bus)
			run(p, bus, 0, FrameCycles)

			if got := pixelAt(p, test.x, test.y); got != test.want {
				t.Errorf("Expected pixel (%d,%d)=0x%06X, got 0x%06X", test.x, test.y, test.want, got)
			}
		})
	}
}

// TestWindowRendering tests the window layer and its internal line counter
func TestWindowRendering(t *testing.T) {
	p := New()
	bus := NewMockBus()
	bus.data[memory.LCDC] = 0xF1
	bus.data[memory.WX] = 7 + 16
	bus.data[memory.WY] = 8
	bus.SetBytes(0x8010, 0xFF, 0x00)
	bus.data[0x9C00] = 1

	run(p, bus, 0, FrameCycles)

	tests := []struct {
		x, y int
		want uint32
	}{
		{16, 7, Shades[0]},
		{15, 8, Shades[0]},
		{16, 8, Shades[1]},
		{23, 8, Shades[1]},
		{16, 9, Shades[0]},
	}
	for _, test := range tests {
		if got := pixelAt(p, test.x, test.y); got != test.want {
			t.Errorf("Expected pixel (%d,%d)=0x%06X, got 0x%06X", test.x, test.y, test.want, got)
		}
	}
}

// TestStatModes tests the STAT mode bits across a line
func TestStatModes(t *testing.T) {
	p := New()
	bus := NewMockBus()
	bus.data[memory.STAT] = 0x80

	checks := []struct {
		clock uint64
		mode  uint8
	}{
		{0, 2},
		{80, 3},
		{300, 0},
		{144 * LineCycles, 1},
	}

	clock := uint64(0)
	for _, check := range checks {
		run(p, bus, clock, check.clock+1)
		clock = check.clock + 1
		if got := bus.data[memory.STAT] & 0x03; got != check.mode {
			t.Errorf("Clock %d: Expected mode %d, got %d", check.clock, check.mode, got)
		}
	}
}

// TestLYCInterrupt tests the coincidence bit and the rising-edge STAT request
func TestLYCInterrupt(t *testing.T) {
	p := New()
	bus := NewMockBus()
	bus.data[memory.LYC] = 2
	bus.data[memory.STAT] = 0x40

	run(p, bus, 0, 2*LineCycles)
	if bus.data[memory.STAT]&0x04 != 0 {
		t.Error("Expected coincidence clear before line 2")
	}
	if bus.requests[interrupt.LCDStat] != 0 {
		t.Errorf("Expected no STAT request before line 2, got %d", bus.requests[interrupt.LCDStat])
	}

	run(p, bus, 2*LineCycles, 3*LineCycles-1)
	if bus.data[memory.STAT]&0x04 == 0 {
		t.Error("Expected coincidence set on line 2")
	}
	if bus.requests[interrupt.LCDStat] != 1 {
		t.Errorf("Expected exactly one STAT request, got %d", bus.requests[interrupt.LCDStat])
	}

	run(p, bus, 3*LineCycles-1, FrameCycles+3*LineCycles-1)
	if bus.requests[interrupt.LCDStat] != 2 {
		t.Errorf("Expected one STAT request per frame, got %d", bus.requests[interrupt.LCDStat])
	}
}

// TestHBlankStatInterrupt tests that a held source line does not re-request
func TestHBlankStatInterrupt(t *testing.T) {
	p := New()
	bus := NewMockBus()
	bus.data[memory.STAT] = 0x08

	run(p, bus, 0, 10*LineCycles)
	if bus.requests[interrupt.LCDStat] != 10 {
		t.Errorf("Expected one STAT request per HBlank, got %d", bus.requests[interrupt.LCDStat])
	}
}

// TestPPUState tests snapshot and restore
func TestPPUState(t *testing.T) {
	p := New()
	bus := NewMockBus()
	run(p, bus, 0, FrameCycles+5*LineCycles+100)

	s := p.State()
	q := New()
	q.Restore(s)

	if q.Phase() != p.Phase() || q.LY() != p.LY() || q.NextChange() != p.NextChange() || q.FrameCount() != p.FrameCount() {
		t.Errorf("Expected restored state %+v, got %+v", s, q.State())
	}

	p.Reset()
	if p.Phase() != Off || p.FrameCount() != 0 {
		t.Errorf("Expected Off with no frames after reset, got %s with %d", p.Phase(), p.FrameCount())
	}
}
