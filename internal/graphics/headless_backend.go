package graphics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"
)

// HeadlessBackend implements the Backend interface for headless operation
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// HeadlessWindow implements the Window interface for headless operation.
// Frames listed in Config.DumpFrames are written to Config.OutputDir as BMP.
type HeadlessWindow struct {
	title      string
	width      int
	height     int
	running    bool
	frameCount int
	outputPath string
	dumpFrames map[int]bool
	dumped     []string
}

// NewHeadlessBackend creates a new headless graphics backend
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("headless backend already initialized")
	}

	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates a headless "window" (no actual window)
func (b *HeadlessBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	w := &HeadlessWindow{
		title:      title,
		width:      width,
		height:     height,
		running:    true,
		outputPath: b.config.OutputDir,
		dumpFrames: make(map[int]bool),
	}
	if w.outputPath == "" {
		w.outputPath = "."
	}
	for _, n := range b.config.DumpFrames {
		w.dumpFrames[n] = true
	}
	return w, nil
}

// Cleanup releases all headless resources
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true (this is a headless backend)
func (b *HeadlessBackend) IsHeadless() bool {
	return true
}

// GetName returns the backend name
func (b *HeadlessBackend) GetName() string {
	return "Headless"
}

// SetTitle sets the window title (for logging purposes)
func (w *HeadlessWindow) SetTitle(title string) {
	w.title = title
}

// GetSize returns window dimensions
func (w *HeadlessWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *HeadlessWindow) ShouldClose() bool {
	return !w.running
}

// SwapBuffers does nothing in headless mode
func (w *HeadlessWindow) SwapBuffers() {}

// PollEvents returns no events, there is no input in headless mode
func (w *HeadlessWindow) PollEvents() []InputEvent {
	return nil
}

// RenderFrame counts the frame and dumps it when it was asked for
func (w *HeadlessWindow) RenderFrame(frameBuffer []uint32) error {
	w.frameCount++
	if !w.dumpFrames[w.frameCount] {
		return nil
	}

	if err := os.MkdirAll(w.outputPath, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", w.outputPath, err)
	}
	path := filepath.Join(w.outputPath, fmt.Sprintf("frame_%05d.bmp", w.frameCount))
	if err := SaveBMP(path, frameBuffer); err != nil {
		return err
	}
	w.dumped = append(w.dumped, path)
	glog.V(1).Infof("headless: frame %d written to %s", w.frameCount, path)
	return nil
}

// Cleanup releases window resources
func (w *HeadlessWindow) Cleanup() error {
	w.running = false
	return nil
}

// SetOutputPath sets the output path for frame dumps
func (w *HeadlessWindow) SetOutputPath(path string) {
	w.outputPath = path
}

// GetFrameCount returns the number of rendered frames
func (w *HeadlessWindow) GetFrameCount() int {
	return w.frameCount
}

// DumpedFiles returns the paths of the frames written so far
func (w *HeadlessWindow) DumpedFiles() []string {
	return w.dumped
}
