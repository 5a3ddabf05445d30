package app

import (
	"fmt"
	"time"

	"gameboii/internal/bus"
	"gameboii/internal/ppu"
)

// maxInstructionCycles bounds StepInstruction; the longest instruction
// takes 24 cycles and an interrupt dispatch 20 more
const maxInstructionCycles = 64

// Emulator manages the emulation loop and its timing
type Emulator struct {
	bus    *bus.Bus
	config *Config

	targetFrameTime time.Duration
	nextFrame       time.Time

	// Performance monitoring
	emulationTime    time.Duration
	averageFrameTime time.Duration
	frameCount       uint64
	startClock       uint64
	startTime        time.Time

	isRunning bool
}

// NewEmulator creates an emulator driving b at the configured frame rate
func NewEmulator(b *bus.Bus, config *Config) *Emulator {
	e := &Emulator{
		bus:    b,
		config: config,
	}
	e.SetTargetFrameRate(config.Emulation.FrameRate)
	e.Reset()
	return e
}

// Reset clears the timing statistics
func (e *Emulator) Reset() {
	e.emulationTime = 0
	e.averageFrameTime = 0
	e.frameCount = 0
	e.startClock = e.bus.Clock()
	e.startTime = time.Now()
	e.nextFrame = time.Time{}
}

// Start starts the emulator
func (e *Emulator) Start() {
	e.isRunning = true
	e.startTime = time.Now()
	e.startClock = e.bus.Clock()
}

// Stop stops the emulator
func (e *Emulator) Stop() {
	e.isRunning = false
}

// Update runs one frame when the emulator is running
func (e *Emulator) Update() error {
	if !e.isRunning {
		return nil
	}
	return e.StepFrame()
}

// StepFrame runs exactly one frame of cycles
func (e *Emulator) StepFrame() error {
	start := time.Now()
	if err := e.bus.RunFrame(); err != nil {
		return fmt.Errorf("frame execution error: %w", err)
	}
	e.emulationTime = time.Since(start)
	e.frameCount++

	// exponential moving average over roughly one second
	if e.averageFrameTime == 0 {
		e.averageFrameTime = e.emulationTime
	} else {
		e.averageFrameTime += (e.emulationTime - e.averageFrameTime) / 60
	}
	return nil
}

// StepInstruction ticks until the CPU has executed one more instruction
func (e *Emulator) StepInstruction() error {
	executed := e.bus.CPU.Executed()
	for i := 0; i < maxInstructionCycles && e.bus.CPU.Executed() == executed; i++ {
		if err := e.bus.Tick(); err != nil {
			return err
		}
	}
	return nil
}

// Wait sleeps until the next frame is due. Backends without their own
// vsync call it once per frame.
func (e *Emulator) Wait() {
	now := time.Now()
	if e.nextFrame.IsZero() || now.Sub(e.nextFrame) > e.targetFrameTime {
		// first frame, or too far behind to catch up
		e.nextFrame = now
	}
	e.nextFrame = e.nextFrame.Add(e.targetFrameTime)
	if d := e.nextFrame.Sub(now); d > 0 {
		time.Sleep(d)
	}
}

// SetTargetFrameRate sets the target frame rate; 0 or less selects the
// hardware rate
func (e *Emulator) SetTargetFrameRate(fps float64) {
	if fps <= 0 {
		fps = float64(bus.ClockRate) / float64(ppu.FrameCycles)
	}
	e.targetFrameTime = time.Duration(float64(time.Second) / fps)
}

// GetTargetFrameTime returns the target frame time
func (e *Emulator) GetTargetFrameTime() time.Duration {
	return e.targetFrameTime
}

// GetFrameBuffer returns the presented frame
func (e *Emulator) GetFrameBuffer() []uint32 {
	return e.bus.FrameBuffer()
}

// GetFrameCount returns the number of frames run since Reset
func (e *Emulator) GetFrameCount() uint64 {
	return e.frameCount
}

// GetCycleCount returns the machine clock
func (e *Emulator) GetCycleCount() uint64 {
	return e.bus.Clock()
}

// GetEmulationTime returns the wall time spent on the last frame
func (e *Emulator) GetEmulationTime() time.Duration {
	return e.emulationTime
}

// GetAverageFrameTime returns the smoothed wall time per frame
func (e *Emulator) GetAverageFrameTime() time.Duration {
	return e.averageFrameTime
}

// GetEmulationSpeed returns emulated time over wall time since Start
func (e *Emulator) GetEmulationSpeed() float64 {
	elapsed := time.Since(e.startTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	emulated := float64(e.bus.Clock()-e.startClock) / float64(bus.ClockRate)
	return emulated / elapsed
}

// IsRunning returns whether the emulator is running
func (e *Emulator) IsRunning() bool {
	return e.isRunning
}
