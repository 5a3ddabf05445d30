// Package input implements the joypad behind the P1 register.
package input

import (
	"github.com/golang/glog"
)

// Button represents a joypad button
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonRight
	ButtonLeft
	ButtonUp
	ButtonDown
)

// P1 select lines. A line is selected when its bit is 0.
const (
	selectDirections uint8 = 1 << 4
	selectActions    uint8 = 1 << 5
	selectMask             = selectDirections | selectActions
)

var buttonNames = map[Button]string{
	ButtonA:      "A",
	ButtonB:      "B",
	ButtonSelect: "Select",
	ButtonStart:  "Start",
	ButtonRight:  "Right",
	ButtonLeft:   "Left",
	ButtonUp:     "Up",
	ButtonDown:   "Down",
}

func (b Button) String() string {
	if name, ok := buttonNames[b]; ok {
		return name
	}
	return "Unknown"
}

// Controller holds the button matrix and the P1 select bits
type Controller struct {
	// Pressed buttons, one bit per Button
	buttons uint8

	// Select bits last written to P1
	selected uint8

	// Called when a button goes from released to pressed
	onPress func()

	debugEnabled bool
}

// New creates a controller with no buttons pressed and neither line selected
func New() *Controller {
	return &Controller{selected: selectMask}
}

// SetInterruptCallback sets the function called on every new button press
func (c *Controller) SetInterruptCallback(callback func()) {
	c.onPress = callback
}

// SetButton sets the state of a button
func (c *Controller) SetButton(button Button, pressed bool) {
	old := c.buttons
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}

	if c.debugEnabled {
		glog.Infof("joypad: %s pressed=%t buttons 0x%02X -> 0x%02X", button, pressed, old, c.buttons)
	}

	if pressed && old&uint8(button) == 0 && c.onPress != nil {
		c.onPress()
	}
}

// SetButtons replaces the whole button state. Order: A, B, Select, Start,
// Right, Left, Up, Down.
func (c *Controller) SetButtons(buttons [8]bool) {
	for i, pressed := range buttons {
		c.SetButton(Button(1<<i), pressed)
	}
}

// IsPressed returns true if the button is currently pressed
func (c *Controller) IsPressed(button Button) bool {
	return c.buttons&uint8(button) != 0
}

// Buttons returns the raw button bits
func (c *Controller) Buttons() uint8 {
	return c.buttons
}

// Write handles writes to P1. Only the select bits are writable.
func (c *Controller) Write(value uint8) {
	c.selected = value & selectMask
}

// Read returns the P1 register: unused bits high, select bits as written and
// the selected lines in the low nibble, active low.
func (c *Controller) Read() uint8 {
	low := uint8(0x0F)
	if c.selected&selectActions == 0 {
		low &^= c.buttons & 0x0F
	}
	if c.selected&selectDirections == 0 {
		low &^= c.buttons >> 4
	}
	return 0xC0 | c.selected | low
}

// Reset releases all buttons and deselects both lines
func (c *Controller) Reset() {
	c.buttons = 0
	c.selected = selectMask
}

// EnableDebug enables debug logging for this controller
func (c *Controller) EnableDebug(enable bool) {
	c.debugEnabled = enable
}
