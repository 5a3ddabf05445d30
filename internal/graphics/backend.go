// Package graphics provides an abstraction layer for different rendering backends
package graphics

import (
	"fmt"
	"strings"

	"gameboii/internal/input"
	"gameboii/internal/ppu"
)

// Native screen size in pixels
const (
	ScreenWidth  = ppu.Width
	ScreenHeight = ppu.Height
)

// Backend represents a graphics rendering backend (Ebitengine, terminal, etc.)
type Backend interface {
	// Initialize initializes the graphics backend
	Initialize(config Config) error

	// CreateWindow creates a window for rendering
	CreateWindow(title string, width, height int) (Window, error)

	// Cleanup releases all resources
	Cleanup() error

	// IsHeadless returns true if running in headless mode
	IsHeadless() bool

	// GetName returns the backend name for identification
	GetName() string
}

// Window represents a rendering window
type Window interface {
	// SetTitle sets the window title
	SetTitle(title string)

	// GetSize returns window dimensions
	GetSize() (width, height int)

	// ShouldClose returns true if window should close
	ShouldClose() bool

	// SwapBuffers presents the rendered frame
	SwapBuffers()

	// PollEvents processes input events
	PollEvents() []InputEvent

	// RenderFrame renders a ScreenWidth x ScreenHeight frame of 0xRRGGBB pixels
	RenderFrame(frameBuffer []uint32) error

	// Cleanup releases window resources
	Cleanup() error
}

// Config contains configuration for graphics backends
type Config struct {
	// Window configuration
	WindowTitle  string
	WindowWidth  int
	WindowHeight int
	Fullscreen   bool
	VSync        bool

	// Rendering configuration
	Filter string // "nearest", "linear"

	// Keys that drive the joypad; other keys are reported as key events
	KeyMap map[Key]input.Button

	// Headless frame dumps
	OutputDir  string
	DumpFrames []int

	// Backend-specific options
	Headless bool
	Debug    bool
}

// InputEvent represents an input event from the window
type InputEvent struct {
	Type      InputEventType
	Key       Key
	Button    input.Button
	Pressed   bool
	Modifiers ModifierKey
}

// InputEventType represents the type of input event
type InputEventType int

const (
	InputEventTypeKey InputEventType = iota
	InputEventTypeButton
	InputEventTypeQuit
)

// Key represents keyboard keys
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyEnter
	KeySpace
	KeyBackspace
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyA
	KeyS
	KeyX
	KeyZ
	KeyP
	KeyR
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF12
)

var keyNames = map[Key]string{
	KeyEscape:    "Escape",
	KeyEnter:     "Enter",
	KeySpace:     "Space",
	KeyBackspace: "Backspace",
	KeyUp:        "ArrowUp",
	KeyDown:      "ArrowDown",
	KeyLeft:      "ArrowLeft",
	KeyRight:     "ArrowRight",
	KeyA:         "A",
	KeyS:         "S",
	KeyX:         "X",
	KeyZ:         "Z",
	KeyP:         "P",
	KeyR:         "R",
	KeyF1:        "F1",
	KeyF2:        "F2",
	KeyF3:        "F3",
	KeyF4:        "F4",
	KeyF12:       "F12",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "Unknown"
}

// ParseKey looks a key up by the name used in configuration files
func ParseKey(name string) (Key, error) {
	for key, n := range keyNames {
		if strings.EqualFold(n, name) {
			return key, nil
		}
	}
	return KeyUnknown, fmt.Errorf("unknown key %q", name)
}

// SlotKey returns the save state slot selected by a function key, or -1
func SlotKey(k Key) int {
	switch k {
	case KeyF1:
		return 0
	case KeyF2:
		return 1
	case KeyF3:
		return 2
	case KeyF4:
		return 3
	}
	return -1
}

// ModifierKey represents modifier keys
type ModifierKey int

const (
	ModifierNone  ModifierKey = 0
	ModifierShift ModifierKey = 1 << iota
	ModifierCtrl
	ModifierAlt
)

// buttonEvents converts key events found in keyMap into joypad button events
func buttonEvents(keyMap map[Key]input.Button, events []InputEvent) []InputEvent {
	out := make([]InputEvent, 0, len(events))
	for _, event := range events {
		if button, ok := keyMap[event.Key]; ok && event.Type == InputEventTypeKey {
			out = append(out, InputEvent{
				Type:    InputEventTypeButton,
				Button:  button,
				Pressed: event.Pressed,
			})
			continue
		}
		out = append(out, event)
	}
	return out
}

// BackendType represents different graphics backend types
type BackendType string

const (
	BackendEbitengine BackendType = "ebitengine"
	BackendHeadless   BackendType = "headless"
	BackendTerminal   BackendType = "terminal"
)

// CreateBackend creates a graphics backend of the specified type
func CreateBackend(backendType BackendType) (Backend, error) {
	switch backendType {
	case BackendEbitengine:
		return NewEbitengineBackend(), nil
	case BackendHeadless:
		return NewHeadlessBackend(), nil
	case BackendTerminal:
		return NewTerminalBackend(), nil
	default:
		return nil, fmt.Errorf("unknown graphics backend %q", backendType)
	}
}
