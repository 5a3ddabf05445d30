//go:build !headless
// +build !headless

package graphics

import (
	"fmt"
	"image"
	"image/color"

	"github.com/golang/glog"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"gameboii/internal/input"
)

// EbitengineBackend implements the Backend interface using Ebitengine
type EbitengineBackend struct {
	initialized bool
	config      Config
	game        *EbitengineGame
}

// EbitengineWindow implements the Window interface for Ebitengine
type EbitengineWindow struct {
	backend            *EbitengineBackend
	title              string
	width              int
	height             int
	game               *EbitengineGame
	running            bool
	events             []InputEvent
	emulatorUpdateFunc func() error
	err                error
}

// EbitengineGame implements ebiten.Game for the emulator
type EbitengineGame struct {
	window       *EbitengineWindow
	frameImage   *ebiten.Image
	windowWidth  int
	windowHeight int
	filter       ebiten.Filter
	keyMap       map[Key]input.Button
	drawCount    int

	// Reusable image buffer
	imageBuffer *image.RGBA
}

var ebitenKeys = map[ebiten.Key]Key{
	ebiten.KeyEscape:     KeyEscape,
	ebiten.KeyEnter:      KeyEnter,
	ebiten.KeySpace:      KeySpace,
	ebiten.KeyBackspace:  KeyBackspace,
	ebiten.KeyArrowUp:    KeyUp,
	ebiten.KeyArrowDown:  KeyDown,
	ebiten.KeyArrowLeft:  KeyLeft,
	ebiten.KeyArrowRight: KeyRight,
	ebiten.KeyA:          KeyA,
	ebiten.KeyS:          KeyS,
	ebiten.KeyX:          KeyX,
	ebiten.KeyZ:          KeyZ,
	ebiten.KeyP:          KeyP,
	ebiten.KeyR:          KeyR,
	ebiten.KeyF1:         KeyF1,
	ebiten.KeyF2:         KeyF2,
	ebiten.KeyF3:         KeyF3,
	ebiten.KeyF4:         KeyF4,
	ebiten.KeyF12:        KeyF12,
}

// NewEbitengineBackend creates a new Ebitengine graphics backend
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

// Initialize initializes the Ebitengine backend
func (b *EbitengineBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("Ebitengine backend already initialized")
	}

	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates an Ebitengine window
func (b *EbitengineBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	if b.config.Headless {
		return nil, fmt.Errorf("cannot create window in headless mode")
	}

	filter := ebiten.FilterNearest
	if b.config.Filter == "linear" {
		filter = ebiten.FilterLinear
	}

	game := &EbitengineGame{
		windowWidth:  width,
		windowHeight: height,
		filter:       filter,
		keyMap:       b.config.KeyMap,
		frameImage:   ebiten.NewImage(ScreenWidth, ScreenHeight),
		imageBuffer:  image.NewRGBA(image.Rect(0, 0, ScreenWidth, ScreenHeight)),
	}

	window := &EbitengineWindow{
		backend: b,
		title:   title,
		width:   width,
		height:  height,
		game:    game,
		running: true,
	}

	game.window = window
	b.game = game

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(b.config.VSync)
	if b.config.Fullscreen {
		ebiten.SetFullscreen(true)
	}

	glog.V(1).Infof("ebitengine: window %dx%d created", width, height)
	return window, nil
}

// Cleanup releases all Ebitengine resources
func (b *EbitengineBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true if running in headless mode
func (b *EbitengineBackend) IsHeadless() bool {
	return b.config.Headless
}

// GetName returns the backend name
func (b *EbitengineBackend) GetName() string {
	return "Ebitengine"
}

// SetTitle sets the window title
func (w *EbitengineWindow) SetTitle(title string) {
	w.title = title
	ebiten.SetWindowTitle(title)
}

// GetSize returns window dimensions
func (w *EbitengineWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *EbitengineWindow) ShouldClose() bool {
	return !w.running
}

// SwapBuffers is handled automatically by Ebitengine
func (w *EbitengineWindow) SwapBuffers() {}

// PollEvents returns the input events gathered since the last call
func (w *EbitengineWindow) PollEvents() []InputEvent {
	events := w.events
	w.events = nil
	return events
}

// RenderFrame uploads a frame to the window's texture
func (w *EbitengineWindow) RenderFrame(frameBuffer []uint32) error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}

	if err := fillImage(w.game.imageBuffer, frameBuffer); err != nil {
		return err
	}
	w.game.frameImage.WritePixels(w.game.imageBuffer.Pix)
	return nil
}

// Cleanup releases window resources
func (w *EbitengineWindow) Cleanup() error {
	w.running = false
	return nil
}

// Run starts the Ebitengine game loop. It returns when the window is
// closed or the emulator update fails.
func (w *EbitengineWindow) Run() error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}

	if err := ebiten.RunGame(w.game); err != nil {
		return err
	}
	return w.err
}

// SetEmulatorUpdateFunc sets the function called once per Ebitengine tick
func (w *EbitengineWindow) SetEmulatorUpdateFunc(updateFunc func() error) {
	w.emulatorUpdateFunc = updateFunc
}

// Update implements ebiten.Game.Update
func (g *EbitengineGame) Update() error {
	if g.window == nil {
		return nil
	}

	g.processInput()

	if g.window.emulatorUpdateFunc != nil {
		if err := g.window.emulatorUpdateFunc(); err != nil {
			glog.Errorf("ebitengine: emulator update failed: %v", err)
			g.window.err = err
			g.window.running = false
		}
	}

	if !g.window.running {
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game.Draw
func (g *EbitengineGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{A: 0xFF})
	if g.frameImage == nil {
		return
	}

	// Fit the window while keeping the aspect ratio
	scale := float64(g.windowWidth) / ScreenWidth
	if scaleY := float64(g.windowHeight) / ScreenHeight; scaleY < scale {
		scale = scaleY
	}
	offsetX := (float64(g.windowWidth) - ScreenWidth*scale) / 2
	offsetY := (float64(g.windowHeight) - ScreenHeight*scale) / 2

	op := &ebiten.DrawImageOptions{Filter: g.filter}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	screen.DrawImage(g.frameImage, op)

	g.drawCount++
	if g.drawCount%3600 == 0 {
		glog.V(2).Infof("ebitengine: frame %d drawn at %.2fx", g.drawCount, scale)
	}
}

// Layout implements ebiten.Game.Layout
func (g *EbitengineGame) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	g.windowWidth = outsideWidth
	g.windowHeight = outsideHeight
	return outsideWidth, outsideHeight
}

// processInput turns key transitions into events for PollEvents
func (g *EbitengineGame) processInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.window.events = append(g.window.events, InputEvent{
			Type:    InputEventTypeQuit,
			Pressed: true,
		})
	}

	modifiers := ModifierNone
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		modifiers |= ModifierShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		modifiers |= ModifierCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		modifiers |= ModifierAlt
	}

	var events []InputEvent
	for ebitenKey, key := range ebitenKeys {
		if inpututil.IsKeyJustPressed(ebitenKey) {
			events = append(events, InputEvent{Type: InputEventTypeKey, Key: key, Pressed: true, Modifiers: modifiers})
		} else if inpututil.IsKeyJustReleased(ebitenKey) {
			events = append(events, InputEvent{Type: InputEventTypeKey, Key: key, Pressed: false, Modifiers: modifiers})
		}
	}

	g.window.events = append(g.window.events, buttonEvents(g.keyMap, events)...)
}
