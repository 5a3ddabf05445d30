// Package ppu implements the DMG display controller: the scanline state
// machine, background and window decode, STAT/LYC and the frame buffers.
package ppu

import (
	"github.com/golang/glog"

	"gameboii/internal/interrupt"
	"gameboii/internal/memory"
)

// Screen geometry and timing
const (
	Width  = 160
	Height = 144

	LineCycles  = 456
	Lines       = 154
	FrameCycles = LineCycles * Lines

	oamSearchCycles = 80
	fetchWarmup     = 12
)

// LCDC bits
const (
	lcdcBGEnable     uint8 = 0x01
	lcdcBGMap        uint8 = 0x08
	lcdcTileData     uint8 = 0x10
	lcdcWindowEnable uint8 = 0x20
	lcdcWindowMap    uint8 = 0x40
	lcdcEnable       uint8 = 0x80
)

// Phase is the current scanline phase of the controller
type Phase uint8

const (
	OAMSearch Phase = iota
	PixelTransfer
	HBlank
	VBlank
	Off
)

var phaseNames = [...]string{"OAMSearch", "PixelTransfer", "HBlank", "VBlank", "Off"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "Unknown"
}

// Mode returns the STAT mode bits for the phase. Off reports mode 0.
func (p Phase) Mode() uint8 {
	switch p {
	case OAMSearch:
		return 2
	case PixelTransfer:
		return 3
	case VBlank:
		return 1
	default:
		return 0
	}
}

// Bus is the view of the memory bus the controller needs
type Bus interface {
	Peek(address uint16) uint8
	Poke(address uint16, value uint8)
	RequestInterrupt(kind interrupt.Kind)
}

// PPU represents the DMG display controller
type PPU struct {
	phase      Phase
	nextChange uint64
	lineStart  uint64

	ly         uint8
	column     int
	discard    int
	windowLine int
	windowUsed bool

	statLine bool

	// Frame buffers: pixels are drawn into back and presented from front
	back  [Width * Height]uint32
	front [Width * Height]uint32

	frameCount            uint64
	frameCompleteCallback func()
}

// New creates a PPU with the display switched off
func New() *PPU {
	return &PPU{phase: Off}
}

// Reset returns the controller to the switched-off state
func (p *PPU) Reset() {
	callback := p.frameCompleteCallback
	*p = PPU{phase: Off, frameCompleteCallback: callback}
}

// SetFrameCompleteCallback sets the function called on every buffer swap
func (p *PPU) SetFrameCompleteCallback(callback func()) {
	p.frameCompleteCallback = callback
}

// Tick advances the controller to clock. It is called once per cycle, after
// the CPU.
func (p *PPU) Tick(bus Bus, clock uint64) {
	lcdc := bus.Peek(memory.LCDC)

	if lcdc&lcdcEnable == 0 {
		if p.phase != Off {
			p.enter(bus, Off, clock)
		}
		p.updateStat(bus)
		return
	}

	// a write to LY restarts the count from the stored value
	if p.phase != Off {
		p.ly = bus.Peek(memory.LY)
	}

	switch p.phase {
	case Off:
		p.setLY(bus, 0)
		p.column = 0
		p.blank()
		p.windowLine = 0
		p.enter(bus, OAMSearch, clock)

	case OAMSearch:
		if clock >= p.nextChange {
			p.enter(bus, PixelTransfer, clock)
		}

	case PixelTransfer:
		if clock < p.nextChange {
			break
		}
		if p.discard > 0 {
			p.discard--
			break
		}
		p.back[int(p.ly)*Width+p.column] = p.pixel(bus, lcdc, p.column, int(p.ly))
		p.column++
		if p.column == Width {
			p.enter(bus, HBlank, clock)
		}

	case HBlank:
		if clock >= p.nextChange {
			if p.windowUsed {
				p.windowLine++
			}
			p.setLY(bus, p.ly+1)
			if p.ly == Height {
				p.enter(bus, VBlank, clock)
			} else {
				p.enter(bus, OAMSearch, clock)
			}
		}

	case VBlank:
		if clock >= p.nextChange {
			if p.ly == Lines-1 {
				p.setLY(bus, 0)
				p.enter(bus, OAMSearch, clock)
			} else {
				p.setLY(bus, p.ly+1)
				p.nextChange += LineCycles
			}
		}
	}

	p.updateStat(bus)
}

// enter performs the entry actions of a phase
func (p *PPU) enter(bus Bus, next Phase, clock uint64) {
	if glog.V(2) && (next == Off || p.phase == Off) {
		glog.Infof("ppu: %s -> %s at clock %d", p.phase, next, clock)
	}
	p.phase = next

	switch next {
	case OAMSearch:
		p.lineStart = clock
		p.nextChange = clock + oamSearchCycles
		p.column = 0
		p.windowUsed = false

	case PixelTransfer:
		p.discard = int(bus.Peek(memory.SCX) & 7)
		p.nextChange = clock + fetchWarmup

	case HBlank:
		p.nextChange = p.lineStart + LineCycles

	case VBlank:
		p.lineStart = clock
		p.nextChange = clock + LineCycles
		p.windowLine = 0
		bus.RequestInterrupt(interrupt.VBlank)
		p.swap()

	case Off:
		p.blank()
	}
}

func (p *PPU) setLY(bus Bus, ly uint8) {
	p.ly = ly
	bus.Poke(memory.LY, ly)
}

// updateStat refreshes the STAT mode and coincidence bits and raises the
// LCD-STAT interrupt on a rising edge of the combined source line.
func (p *PPU) updateStat(bus Bus) {
	stat := bus.Peek(memory.STAT) & 0x78
	mode := p.phase.Mode()
	coincidence := p.phase != Off && p.ly == bus.Peek(memory.LYC)

	stat |= mode
	if coincidence {
		stat |= 0x04
	}
	bus.Poke(memory.STAT, stat)

	line := false
	if p.phase != Off {
		line = (stat&0x08 != 0 && p.phase == HBlank) ||
			(stat&0x10 != 0 && p.phase == VBlank) ||
			(stat&0x20 != 0 && p.phase == OAMSearch) ||
			(stat&0x40 != 0 && coincidence)
	}
	if line && !p.statLine {
		bus.RequestInterrupt(interrupt.LCDStat)
	}
	p.statLine = line
}

// swap presents the back buffer
func (p *PPU) swap() {
	p.front = p.back
	p.frameCount++
	if p.frameCompleteCallback != nil {
		p.frameCompleteCallback()
	}
}

// blank fills both buffers with the switched-off color
func (p *PPU) blank() {
	for i := range p.back {
		p.back[i] = OffColor
	}
	p.front = p.back
}

// FrameBuffer returns the presented frame as 0xRRGGBB pixels
func (p *PPU) FrameBuffer() [Width * Height]uint32 {
	return p.front
}

// FrameCount returns the number of presented frames
func (p *PPU) FrameCount() uint64 {
	return p.frameCount
}

// Phase returns the current scanline phase
func (p *PPU) Phase() Phase {
	return p.phase
}

// LY returns the current scanline
func (p *PPU) LY() uint8 {
	return p.ly
}

// Column returns the next pixel column of the current line
func (p *PPU) Column() int {
	return p.column
}

// NextChange returns the clock of the next scheduled phase change
func (p *PPU) NextChange() uint64 {
	return p.nextChange
}

// State is the serializable controller state. Frame buffers are not saved.
type State struct {
	Phase      Phase  `json:"phase"`
	NextChange uint64 `json:"next_change"`
	LineStart  uint64 `json:"line_start"`
	LY         uint8  `json:"ly"`
	Column     int    `json:"column"`
	Discard    int    `json:"discard"`
	WindowLine int    `json:"window_line"`
	WindowUsed bool   `json:"window_used"`
	StatLine   bool   `json:"stat_line"`
	FrameCount uint64 `json:"frame_count"`
}

// State returns a snapshot of the controller
func (p *PPU) State() State {
	return State{
		Phase:      p.phase,
		NextChange: p.nextChange,
		LineStart:  p.lineStart,
		LY:         p.ly,
		Column:     p.column,
		Discard:    p.discard,
		WindowLine: p.windowLine,
		WindowUsed: p.windowUsed,
		StatLine:   p.statLine,
		FrameCount: p.frameCount,
	}
}

// Restore loads a snapshot
func (p *PPU) Restore(s State) {
	p.phase = s.Phase
	p.nextChange = s.NextChange
	p.lineStart = s.LineStart
	p.ly = s.LY
	p.column = s.Column
	p.discard = s.Discard
	p.windowLine = s.WindowLine
	p.windowUsed = s.WindowUsed
	p.statLine = s.StatLine
	p.frameCount = s.FrameCount
}
