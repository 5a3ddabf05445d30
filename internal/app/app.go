package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/glog"

	"gameboii/internal/bus"
	"gameboii/internal/cartridge"
	"gameboii/internal/debug"
	"gameboii/internal/fault"
	"gameboii/internal/graphics"
	"gameboii/internal/input"
	"gameboii/internal/statsview"
)

// ErrNoROM is returned by operations that need a loaded cartridge
var ErrNoROM = errors.New("no ROM loaded")

// loopRunner is a window that owns the main loop and calls back once per frame
type loopRunner interface {
	Run() error
	SetEmulatorUpdateFunc(func() error)
}

// Application represents the emulator application
type Application struct {
	// Core emulation components
	bus     *bus.Bus
	bootROM []uint8

	// Graphics backend
	graphicsBackend graphics.Backend
	window          graphics.Window

	// Application state
	config   *Config
	emulator *Emulator
	states   *StateManager

	// Control flags
	running     bool
	paused      bool
	initialized bool
	headless    bool

	// Performance tracking
	frameCount      uint64
	startTime       time.Time
	lastFPSTime     time.Time
	framesAtLastFPS uint64
	currentFPS      float64

	// ROM management
	romPath   string
	cartridge *cartridge.Cartridge

	// Debug outputs
	traceFile *debug.FileTrace
	stopStats func()
}

// ApplicationError represents application-specific errors
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// NewApplication creates an application from a configuration. The video
// backend named in the configuration decides whether a window is opened.
func NewApplication(config *Config) (*Application, error) {
	app := &Application{
		config:      config,
		headless:    config.Video.Backend == string(graphics.BackendHeadless),
		startTime:   time.Now(),
		lastFPSTime: time.Now(),
	}

	if err := app.initializeComponents(); err != nil {
		app.Cleanup()
		return nil, &ApplicationError{
			Component: "initialization",
			Operation: "component setup",
			Err:       err,
		}
	}

	return app, nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	if path := app.config.Emulation.BootROM; path != "" && !app.config.Emulation.SkipBoot {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read boot ROM: %w", err)
		}
		app.bootROM = data
	}

	if app.config.Debug.StatsView {
		if statsview.Available() {
			app.stopStats = statsview.Launch()
		} else {
			glog.Warning("statsview requested but not built in (use -tags statsview)")
		}
	}

	if err := app.initializeGraphicsBackend(); err != nil {
		return fmt.Errorf("failed to initialize graphics backend: %w", err)
	}

	app.states = NewStateManager(app.config.Paths.SaveStates, app.config.Emulation.SaveStateSlots)
	app.initialized = true
	return nil
}

// initializeGraphicsBackend creates the configured backend, falling back to
// headless when a window cannot be opened
func (app *Application) initializeGraphicsBackend() error {
	keyMap, err := buildKeyMap(app.config.Input.Keys)
	if err != nil {
		return err
	}

	backendType := graphics.BackendType(app.config.Video.Backend)
	app.graphicsBackend, err = graphics.CreateBackend(backendType)
	if err != nil {
		return err
	}

	graphicsConfig := graphics.Config{
		WindowTitle:  "gameboii",
		WindowWidth:  app.config.Window.Width,
		WindowHeight: app.config.Window.Height,
		Fullscreen:   app.config.Window.Fullscreen,
		VSync:        app.config.Video.VSync,
		Filter:       app.config.Video.Filter,
		KeyMap:       keyMap,
		OutputDir:    app.config.Paths.Frames,
		DumpFrames:   app.config.Debug.DumpFrames,
		Headless:     app.headless,
	}

	if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
		if backendType != graphics.BackendEbitengine {
			return err
		}
		glog.Warningf("Ebitengine backend failed (%v), falling back to headless mode", err)
		app.graphicsBackend = graphics.NewHeadlessBackend()
		app.headless = true
		graphicsConfig.Headless = true
		if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
			return fmt.Errorf("failed to initialize fallback headless backend: %w", err)
		}
	}

	app.window, err = app.graphicsBackend.CreateWindow(
		graphicsConfig.WindowTitle,
		graphicsConfig.WindowWidth,
		graphicsConfig.WindowHeight,
	)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	return nil
}

// buildKeyMap resolves the configured key names
func buildKeyMap(keys KeyMapping) (map[graphics.Key]input.Button, error) {
	names := []struct {
		name   string
		button input.Button
	}{
		{keys.Up, input.ButtonUp},
		{keys.Down, input.ButtonDown},
		{keys.Left, input.ButtonLeft},
		{keys.Right, input.ButtonRight},
		{keys.A, input.ButtonA},
		{keys.B, input.ButtonB},
		{keys.Start, input.ButtonStart},
		{keys.Select, input.ButtonSelect},
	}

	keyMap := make(map[graphics.Key]input.Button, len(names))
	for _, n := range names {
		key, err := graphics.ParseKey(n.name)
		if err != nil {
			return nil, &ConfigError{Field: "input.keys." + strings.ToLower(n.button.String()), Value: n.name, Err: err}
		}
		keyMap[key] = n.button
	}
	return keyMap, nil
}

// LoadROM loads a cartridge and builds a fresh machine around it
func (app *Application) LoadROM(romPath string) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	cart, err := cartridge.LoadFromFile(romPath)
	if err != nil {
		return &ApplicationError{Component: "cartridge", Operation: "load ROM", Err: err}
	}

	app.cartridge = cart
	app.romPath = romPath
	if err := app.buildMachine(); err != nil {
		return err
	}

	if app.window != nil {
		app.window.SetTitle(fmt.Sprintf("gameboii - %s", cart.Header().Title))
	}

	glog.Infof("loaded %s (%q, type 0x%02X, %d banks)", romPath, cart.Header().Title, cart.Header().Type, cart.BankCount())
	app.emulator.Start()
	return nil
}

// buildMachine creates the bus for the loaded cartridge and attaches the
// configured debug outputs
func (app *Application) buildMachine() error {
	b, err := bus.New(app.cartridge, app.bootROM)
	if err != nil {
		return &ApplicationError{Component: "bus", Operation: "create machine", Err: err}
	}
	app.bus = b
	app.emulator = NewEmulator(b, app.config)
	return app.ApplyDebugSettings()
}

// ApplyDebugSettings applies the emulation and debug settings to the machine
func (app *Application) ApplyDebugSettings() error {
	if app.bus == nil {
		return nil
	}

	app.bus.SetStrictIO(app.config.Emulation.StrictIO)
	app.bus.SetExitOnStop(app.config.Emulation.ExitOnStop)
	app.bus.EnableInputDebug(app.config.Debug.InputDebug)

	if app.config.Emulation.SerialStdout {
		app.bus.SetSerialCallback(func(v uint8) {
			os.Stdout.Write([]byte{v})
		})
	}

	var sinks debug.MultiTrace
	if path := app.config.Debug.TraceFile; path != "" {
		if app.traceFile != nil {
			app.traceFile.Close()
		}
		trace, err := debug.NewFileTrace(path)
		if err != nil {
			return &ApplicationError{Component: "debug", Operation: "open trace file", Err: err}
		}
		app.traceFile = trace
		sinks = append(sinks, trace)
	}
	if app.config.Debug.TraceLog {
		sinks = append(sinks, debug.LogTrace{Level: 2})
	}

	switch len(sinks) {
	case 0:
		app.bus.SetTraceSink(nil)
	case 1:
		app.bus.SetTraceSink(sinks[0])
	default:
		app.bus.SetTraceSink(sinks)
	}
	return nil
}

// Run runs the main loop until the window closes, the machine raises its
// exit flag, the frame limit is reached or ctx is done
func (app *Application) Run(ctx context.Context) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}
	if app.bus == nil {
		return ErrNoROM
	}

	app.running = true
	app.startTime = time.Now()
	app.lastFPSTime = app.startTime
	glog.V(1).Infof("starting emulation with %s backend", app.graphicsBackend.GetName())

	if runner, ok := app.window.(loopRunner); ok {
		runner.SetEmulatorUpdateFunc(func() error {
			if err := ctx.Err(); err != nil {
				app.Stop()
			}
			if !app.running {
				// ends the window's loop
				return app.window.Cleanup()
			}
			return app.frame()
		})
		return runner.Run()
	}

	for app.running {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := app.frame(); err != nil {
			return err
		}
		if !app.headless {
			app.emulator.Wait()
		}
	}

	glog.V(1).Info("emulation loop ended")
	return nil
}

// frame processes input, runs one frame and presents it
func (app *Application) frame() error {
	app.processInput()

	if !app.paused {
		if err := app.emulator.Update(); err != nil {
			app.Stop()
			if errors.Is(err, fault.ErrUnimplemented) {
				glog.Errorf("stopped at unimplemented operation: %v", err)
			}
			return &ApplicationError{Component: "emulator", Operation: "run frame", Err: err}
		}
		app.frameCount++
	}

	if err := app.render(); err != nil {
		glog.Errorf("render failed: %v", err)
	}
	app.updateFPS()

	if app.bus.ShouldExit() {
		glog.Info("machine requested exit")
		app.Stop()
	}
	if limit := app.config.Emulation.FrameLimit; limit > 0 && app.frameCount >= uint64(limit) {
		app.Stop()
	}
	if app.window != nil && app.window.ShouldClose() {
		app.Stop()
	}
	return nil
}

// RunHeadless runs without pacing until one of markers appears in the
// serial output, the machine exits, frames frames have run (when positive)
// or ctx is done. It returns the serial output.
func (app *Application) RunHeadless(ctx context.Context, frames int, markers ...string) (string, error) {
	if app.bus == nil {
		return "", ErrNoROM
	}

	for i := 0; frames <= 0 || i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return app.bus.SerialOutput(), err
		}
		if err := app.emulator.StepFrame(); err != nil {
			return app.bus.SerialOutput(), &ApplicationError{Component: "emulator", Operation: "run frame", Err: err}
		}
		app.frameCount++
		if err := app.render(); err != nil {
			return app.bus.SerialOutput(), &ApplicationError{Component: "graphics", Operation: "render", Err: err}
		}

		out := app.bus.SerialOutput()
		for _, marker := range markers {
			if strings.Contains(out, marker) {
				return out, nil
			}
		}
		if app.bus.ShouldExit() {
			break
		}
	}
	return app.bus.SerialOutput(), nil
}

// processInput applies pending window events
func (app *Application) processInput() {
	if app.window == nil {
		return
	}

	for _, event := range app.window.PollEvents() {
		switch event.Type {
		case graphics.InputEventTypeQuit:
			glog.Info("quit requested")
			app.Stop()
		case graphics.InputEventTypeButton:
			app.bus.SetButton(event.Button, event.Pressed)
		case graphics.InputEventTypeKey:
			if event.Pressed {
				app.handleKey(event)
			}
		}
	}
}

// handleKey runs the hotkeys: F1-F4 save, Shift+F1-F4 load, F12 screenshot,
// P pause, R reset
func (app *Application) handleKey(event graphics.InputEvent) {
	if slot := graphics.SlotKey(event.Key); slot >= 0 {
		if event.Modifiers&graphics.ModifierShift != 0 {
			if err := app.LoadState(slot); err != nil {
				glog.Warningf("failed to load state %d: %v", slot, err)
			}
		} else if err := app.SaveState(slot); err != nil {
			glog.Warningf("failed to save state %d: %v", slot, err)
		}
		return
	}

	switch event.Key {
	case graphics.KeyF12:
		if path, err := app.Screenshot(); err != nil {
			glog.Warningf("screenshot failed: %v", err)
		} else {
			glog.Infof("screenshot saved to %s", path)
		}
	case graphics.KeyP:
		app.TogglePause()
	case graphics.KeyR:
		if err := app.Reset(); err != nil {
			glog.Errorf("reset failed: %v", err)
		}
	}
}

// render presents the current frame
func (app *Application) render() error {
	if app.window == nil || app.bus == nil {
		return nil
	}

	if err := app.window.RenderFrame(app.bus.FrameBuffer()); err != nil {
		return fmt.Errorf("failed to render frame: %w", err)
	}
	app.window.SwapBuffers()
	return nil
}

// updateFPS recomputes the frame rate once per second
func (app *Application) updateFPS() {
	now := time.Now()
	elapsed := now.Sub(app.lastFPSTime)
	if elapsed < time.Second {
		return
	}

	app.currentFPS = float64(app.frameCount-app.framesAtLastFPS) / elapsed.Seconds()
	app.framesAtLastFPS = app.frameCount
	app.lastFPSTime = now

	if app.config.Debug.ShowFPS {
		glog.Infof("%.1f fps, speed %.2fx, %v per frame", app.currentFPS, app.emulator.GetEmulationSpeed(), app.emulator.GetAverageFrameTime())
	}
}

// Screenshot writes the current frame as a BMP file and returns its path
func (app *Application) Screenshot() (string, error) {
	if app.bus == nil {
		return "", ErrNoROM
	}

	dir := app.config.Paths.Screenshots
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	name := strings.TrimSuffix(filepath.Base(app.romPath), filepath.Ext(app.romPath))
	path := filepath.Join(dir, fmt.Sprintf("%s_%s_%06d.bmp", name, time.Now().Format("20060102_150405"), app.bus.FrameCount()))
	if err := graphics.SaveBMP(path, app.bus.FrameBuffer()); err != nil {
		return "", err
	}
	return path, nil
}

// Stop stops the application
func (app *Application) Stop() {
	app.running = false
	if app.emulator != nil {
		app.emulator.Stop()
	}
}

// Pause pauses the emulator
func (app *Application) Pause() {
	app.paused = true
}

// Resume resumes the emulator
func (app *Application) Resume() {
	app.paused = false
}

// TogglePause toggles pause state
func (app *Application) TogglePause() {
	app.paused = !app.paused
	glog.V(1).Infof("paused: %t", app.paused)
}

// SaveState saves the machine to a slot
func (app *Application) SaveState(slot int) error {
	if app.bus == nil {
		return ErrNoROM
	}
	return app.states.SaveState(app.bus, slot, app.romPath)
}

// LoadState restores the machine from a slot
func (app *Application) LoadState(slot int) error {
	if app.bus == nil {
		return ErrNoROM
	}
	return app.states.LoadState(app.bus, slot, app.romPath)
}

// Reset powers the machine off and on again with the same cartridge
func (app *Application) Reset() error {
	if app.cartridge == nil {
		return ErrNoROM
	}
	running := app.emulator.IsRunning()
	if err := app.buildMachine(); err != nil {
		return err
	}
	if running {
		app.emulator.Start()
	}
	return nil
}

// IsRunning returns whether the application is running
func (app *Application) IsRunning() bool {
	return app.running
}

// IsPaused returns whether the emulator is paused
func (app *Application) IsPaused() bool {
	return app.paused
}

// GetFPS returns the current FPS
func (app *Application) GetFPS() float64 {
	return app.currentFPS
}

// GetFrameCount returns the number of frames run
func (app *Application) GetFrameCount() uint64 {
	return app.frameCount
}

// GetUptime returns the application uptime
func (app *Application) GetUptime() time.Duration {
	return time.Since(app.startTime)
}

// GetROMPath returns the currently loaded ROM path
func (app *Application) GetROMPath() string {
	return app.romPath
}

// GetConfig returns the application configuration
func (app *Application) GetConfig() *Config {
	return app.config
}

// GetBus returns the machine, nil before a ROM is loaded
func (app *Application) GetBus() *bus.Bus {
	return app.bus
}

// Cleanup writes the exit dumps and releases all resources
func (app *Application) Cleanup() error {
	var lastErr error
	fail := func(what string, err error) {
		glog.Errorf("cleanup: %s: %v", what, err)
		lastErr = err
	}

	if app.bus != nil {
		if path := app.config.Debug.RAMDump; path != "" {
			if err := debug.SaveRAMDump(path, app.bus.RAM()); err != nil {
				fail("RAM dump", err)
			}
		}
		if path := app.config.Debug.StateGraph; path != "" {
			if err := debug.SaveStateGraph(path, app.bus.State()); err != nil {
				fail("state graph", err)
			}
		}
	}

	if app.traceFile != nil {
		if err := app.traceFile.Close(); err != nil {
			fail("trace file", err)
		}
		app.traceFile = nil
	}

	if app.stopStats != nil {
		app.stopStats()
		app.stopStats = nil
	}

	if app.window != nil {
		if err := app.window.Cleanup(); err != nil {
			fail("window", err)
		}
	}

	if app.graphicsBackend != nil {
		if err := app.graphicsBackend.Cleanup(); err != nil {
			fail("graphics backend", err)
		}
	}

	app.initialized = false
	return lastErr
}
