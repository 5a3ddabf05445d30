package graphics

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang/glog"

	"gameboii/internal/input"
)

// Terminal rendering samples every other column and, with half-block
// characters, every other row.
const (
	terminalStepX = 2
	terminalStepY = 2

	// terminalFrameSkip draws one frame out of this many
	terminalFrameSkip = 3
)

// TerminalBackend implements the Backend interface for terminal-based rendering
type TerminalBackend struct {
	initialized bool
	config      Config
}

// TerminalWindow draws frames with 24-bit ANSI colors and reads keys from
// stdin in cbreak mode
type TerminalWindow struct {
	title   string
	width   int
	height  int
	running bool

	out     io.Writer
	keyMap  map[Key]input.Button
	frames  int
	cleared bool

	keys    chan InputEvent
	held    []InputEvent
	restore func()
}

// NewTerminalBackend creates a new terminal graphics backend
func NewTerminalBackend() Backend {
	return &TerminalBackend{}
}

// Initialize initializes the terminal backend
func (b *TerminalBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("terminal backend already initialized")
	}

	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow takes over the terminal. Key input is only available when
// stdin is a terminal.
func (b *TerminalBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	w := newTerminalWindow(title, width, height, os.Stdout, b.config.KeyMap)

	restore, err := enterCBreak(os.Stdin)
	if err != nil {
		glog.Warningf("terminal: no key input: %v", err)
		return w, nil
	}
	w.restore = restore
	go w.readKeys(os.Stdin)
	return w, nil
}

func newTerminalWindow(title string, width, height int, out io.Writer, keyMap map[Key]input.Button) *TerminalWindow {
	return &TerminalWindow{
		title:   title,
		width:   width,
		height:  height,
		running: true,
		out:     out,
		keyMap:  keyMap,
		keys:    make(chan InputEvent, 64),
	}
}

// Cleanup releases all terminal resources
func (b *TerminalBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns false (terminal has basic output)
func (b *TerminalBackend) IsHeadless() bool {
	return false
}

// GetName returns the backend name
func (b *TerminalBackend) GetName() string {
	return "Terminal"
}

// SetTitle sets the terminal title
func (w *TerminalWindow) SetTitle(title string) {
	w.title = title
	fmt.Fprintf(w.out, "\033]0;%s\007", title)
}

// GetSize returns window dimensions
func (w *TerminalWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *TerminalWindow) ShouldClose() bool {
	return !w.running
}

// SwapBuffers does nothing for terminal
func (w *TerminalWindow) SwapBuffers() {}

// PollEvents returns the keys read since the last call. A terminal reports
// no key releases, so every key is released on the following poll.
func (w *TerminalWindow) PollEvents() []InputEvent {
	var events []InputEvent
	for _, e := range w.held {
		e.Pressed = false
		events = append(events, e)
	}
	w.held = w.held[:0]

	for {
		select {
		case e := <-w.keys:
			if e.Type == InputEventTypeKey {
				w.held = append(w.held, e)
			}
			events = append(events, e)
		default:
			return buttonEvents(w.keyMap, events)
		}
	}
}

// RenderFrame draws the frame using upper half blocks, the top pixel as
// foreground and the bottom pixel as background
func (w *TerminalWindow) RenderFrame(frameBuffer []uint32) error {
	if len(frameBuffer) != ScreenWidth*ScreenHeight {
		return fmt.Errorf("frame has %d pixels, want %d", len(frameBuffer), ScreenWidth*ScreenHeight)
	}

	w.frames++
	if (w.frames-1)%terminalFrameSkip != 0 {
		return nil
	}

	var sb strings.Builder
	if !w.cleared {
		sb.WriteString("\033[2J")
		w.cleared = true
	}
	sb.WriteString("\033[H")
	for y := 0; y < ScreenHeight; y += 2 * terminalStepY {
		for x := 0; x < ScreenWidth; x += terminalStepX {
			top := frameBuffer[y*ScreenWidth+x]
			bottom := top
			if y+terminalStepY < ScreenHeight {
				bottom = frameBuffer[(y+terminalStepY)*ScreenWidth+x]
			}
			fmt.Fprintf(&sb, "\033[38;2;%d;%d;%dm\033[48;2;%d;%d;%dm▀",
				uint8(top>>16), uint8(top>>8), uint8(top),
				uint8(bottom>>16), uint8(bottom>>8), uint8(bottom))
		}
		sb.WriteString("\033[0m\n")
	}

	_, err := io.WriteString(w.out, sb.String())
	return err
}

// Cleanup restores the terminal
func (w *TerminalWindow) Cleanup() error {
	w.running = false
	if w.restore != nil {
		w.restore()
		w.restore = nil
	}
	fmt.Fprint(w.out, "\033[0m\n")
	return nil
}

// readKeys forwards decoded keys until r fails. It runs on its own goroutine.
func (w *TerminalWindow) readKeys(r io.Reader) {
	br := bufio.NewReader(r)
	buf := make([]byte, 32)
	for {
		n, err := br.Read(buf)
		if err != nil {
			glog.V(1).Infof("terminal: key reader stopped: %v", err)
			return
		}
		for _, e := range parseKeys(buf[:n]) {
			select {
			case w.keys <- e:
			default:
			}
		}
	}
}

var escapeKeys = map[string]InputEvent{
	"[A":    {Key: KeyUp},
	"[B":    {Key: KeyDown},
	"[C":    {Key: KeyRight},
	"[D":    {Key: KeyLeft},
	"OP":    {Key: KeyF1},
	"OQ":    {Key: KeyF2},
	"OR":    {Key: KeyF3},
	"OS":    {Key: KeyF4},
	"[11~":  {Key: KeyF1},
	"[12~":  {Key: KeyF2},
	"[13~":  {Key: KeyF3},
	"[14~":  {Key: KeyF4},
	"[1;2P": {Key: KeyF1, Modifiers: ModifierShift},
	"[1;2Q": {Key: KeyF2, Modifiers: ModifierShift},
	"[1;2R": {Key: KeyF3, Modifiers: ModifierShift},
	"[1;2S": {Key: KeyF4, Modifiers: ModifierShift},
	"[24~":  {Key: KeyF12},
}

// parseKeys decodes one read from a cbreak terminal. A lone escape byte is
// the Escape key and quits.
func parseKeys(buf []byte) []InputEvent {
	var events []InputEvent
	for i := 0; i < len(buf); i++ {
		c := buf[i]
		if c == 0x1B {
			if i == len(buf)-1 {
				events = append(events, InputEvent{Type: InputEventTypeQuit, Pressed: true})
				continue
			}
			matched := false
			for seq, e := range escapeKeys {
				if strings.HasPrefix(string(buf[i+1:]), seq) {
					e.Type = InputEventTypeKey
					e.Pressed = true
					events = append(events, e)
					i += len(seq)
					matched = true
					break
				}
			}
			if !matched {
				// skip an unknown sequence
				for i+1 < len(buf) && buf[i+1] != 0x1B {
					i++
				}
			}
			continue
		}

		e := InputEvent{Type: InputEventTypeKey, Pressed: true}
		switch {
		case c == '\r' || c == '\n':
			e.Key = KeyEnter
		case c == 0x7F || c == 0x08:
			e.Key = KeyBackspace
		case c == ' ':
			e.Key = KeySpace
		case c >= 'A' && c <= 'Z':
			e.Modifiers = ModifierShift
			c += 'a' - 'A'
			fallthrough
		default:
			e.Key = letterKeys[c]
		}
		if e.Key != KeyUnknown {
			events = append(events, e)
		}
	}
	return events
}

var letterKeys = map[byte]Key{
	'a': KeyA,
	's': KeyS,
	'x': KeyX,
	'z': KeyZ,
	'p': KeyP,
	'r': KeyR,
}
