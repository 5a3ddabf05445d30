// Package bus implements the machine aggregate: it owns the clock and drives
// the CPU and the display controller one cycle at a time.
package bus

import (
	"context"
	"errors"
	"strings"

	"github.com/golang/glog"

	"gameboii/internal/cartridge"
	"gameboii/internal/cpu"
	"gameboii/internal/input"
	"gameboii/internal/interrupt"
	"gameboii/internal/memory"
	"gameboii/internal/ppu"
)

// ClockRate is the number of cycles per second
const ClockRate = 4194304

// ErrCycleLimit is returned by RunUntilSerial when the budget runs out first
var ErrCycleLimit = errors.New("cycle limit reached")

// cancelCheckInterval is how often the run loops look at their context
const cancelCheckInterval = ppu.LineCycles * 16

// Bus connects all components together
type Bus struct {
	// Core components
	CPU        *cpu.CPU
	PPU        *ppu.PPU
	Memory     *memory.Memory
	Interrupts *interrupt.Controller
	Cartridge  *cartridge.Cartridge

	clock uint64

	// Serial output is accumulated and forwarded to the user callback
	serial         strings.Builder
	serialCallback func(uint8)
}

// New creates a machine for cart. A nil bootROM starts in the post-boot state.
func New(cart *cartridge.Cartridge, bootROM []uint8) (*Bus, error) {
	ic := interrupt.New()
	mem, err := memory.New(cart, bootROM, ic)
	if err != nil {
		return nil, err
	}

	b := &Bus{
		PPU:        ppu.New(),
		Memory:     mem,
		Interrupts: ic,
		Cartridge:  cart,
	}
	b.CPU = cpu.New(mem, ic)
	if bootROM == nil {
		b.CPU.SetPostBootState()
	}
	mem.SetSerialCallback(b.handleSerial)

	glog.V(1).Infof("bus: machine created for %q (boot ROM %t)", cart.Header().Title, bootROM != nil)
	return b, nil
}

func (b *Bus) handleSerial(value uint8) {
	b.serial.WriteByte(value)
	if b.serialCallback != nil {
		b.serialCallback(value)
	}
}

// Tick advances the machine by one cycle: the CPU first, then the display
// controller. An error stops the clock.
func (b *Bus) Tick() error {
	if err := b.CPU.Tick(b.clock); err != nil {
		return err
	}
	b.PPU.Tick(b.Memory, b.clock)
	b.clock++
	return nil
}

// RunCycles ticks n cycles or until the exit flag is raised
func (b *Bus) RunCycles(n uint64) error {
	target := b.clock + n
	for b.clock < target && !b.CPU.ShouldExit() {
		if err := b.Tick(); err != nil {
			return err
		}
	}
	return nil
}

// RunFrame runs one frame worth of cycles
func (b *Bus) RunFrame() error {
	return b.RunCycles(ppu.FrameCycles)
}

// Run runs the given number of frames, stopping early when ctx is done
func (b *Bus) Run(ctx context.Context, frames int) error {
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.RunFrame(); err != nil {
			return err
		}
		if b.CPU.ShouldExit() {
			return nil
		}
	}
	return nil
}

// RunUntilSerial runs until the serial output contains one of markers, the
// exit flag is raised, ctx is done or limit cycles have elapsed. It returns
// the serial output produced so far.
func (b *Bus) RunUntilSerial(ctx context.Context, limit uint64, markers ...string) (string, error) {
	target := b.clock + limit
	seen := b.serial.Len()

	for b.clock < target {
		if b.clock%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return b.serial.String(), err
			}
		}
		if err := b.Tick(); err != nil {
			return b.serial.String(), err
		}
		if b.serial.Len() != seen {
			seen = b.serial.Len()
			out := b.serial.String()
			for _, marker := range markers {
				if strings.Contains(out, marker) {
					return out, nil
				}
			}
		}
		if b.CPU.ShouldExit() {
			return b.serial.String(), nil
		}
	}
	return b.serial.String(), ErrCycleLimit
}

// Clock returns the number of elapsed cycles
func (b *Bus) Clock() uint64 {
	return b.clock
}

// FrameCount returns the number of presented frames
func (b *Bus) FrameCount() uint64 {
	return b.PPU.FrameCount()
}

// FrameBuffer returns the presented frame as 0xRRGGBB pixels
func (b *Bus) FrameBuffer() []uint32 {
	fb := b.PPU.FrameBuffer()
	return fb[:]
}

// RAM returns a copy of the address space
func (b *Bus) RAM() []uint8 {
	return b.Memory.RAM()
}

// SerialOutput returns every byte sent over the serial port
func (b *Bus) SerialOutput() string {
	return b.serial.String()
}

// SetSerialCallback sets the function receiving each serial byte
func (b *Bus) SetSerialCallback(callback func(uint8)) {
	b.serialCallback = callback
}

// SetTraceSink installs an instruction trace sink
func (b *Bus) SetTraceSink(sink cpu.TraceSink) {
	b.CPU.SetTraceSink(sink)
}

// SetStrictIO controls whether reads of unmodeled registers fail
func (b *Bus) SetStrictIO(strict bool) {
	b.Memory.SetStrictIO(strict)
}

// SetExitOnStop makes the STOP instruction raise the exit flag
func (b *Bus) SetExitOnStop(exit bool) {
	b.CPU.SetExitOnStop(exit)
}

// ShouldExit reports whether the exit flag is raised
func (b *Bus) ShouldExit() bool {
	return b.CPU.ShouldExit()
}

// RequestExit raises the exit flag
func (b *Bus) RequestExit() {
	b.CPU.RequestExit()
}

// SetButton sets the state of a joypad button
func (b *Bus) SetButton(button input.Button, pressed bool) {
	b.Memory.Joypad().SetButton(button, pressed)
}

// SetButtons sets all joypad buttons in A, B, Select, Start, Right, Left, Up, Down order
func (b *Bus) SetButtons(buttons [8]bool) {
	b.Memory.Joypad().SetButtons(buttons)
}

// EnableInputDebug enables debug logging for the joypad
func (b *Bus) EnableInputDebug(enable bool) {
	b.Memory.Joypad().EnableDebug(enable)
}

// State is a snapshot of the whole machine
type State struct {
	Clock  uint64       `json:"clock"`
	CPU    cpu.State    `json:"cpu"`
	Memory memory.State `json:"memory"`
	PPU    ppu.State    `json:"ppu"`
}

// State returns a snapshot of the machine
func (b *Bus) State() State {
	return State{
		Clock:  b.clock,
		CPU:    b.CPU.State(),
		Memory: b.Memory.State(),
		PPU:    b.PPU.State(),
	}
}

// Restore loads a snapshot taken from a machine running the same cartridge
func (b *Bus) Restore(s State) error {
	if err := b.Memory.Restore(s.Memory); err != nil {
		return err
	}
	b.CPU.Restore(s.CPU)
	b.PPU.Restore(s.PPU)
	b.clock = s.Clock
	return nil
}
