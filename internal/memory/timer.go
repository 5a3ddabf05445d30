package memory

import "gameboii/internal/interrupt"

// TAC bits
const (
	tacEnable uint8 = 0x04
	tacClock  uint8 = 0x03
	tacUnused uint8 = 0xF8
)

// Divider bit whose falling edge clocks TIMA, per TAC clock select.
// 00: 1024 cycles, 01: 16, 10: 64, 11: 256.
var tacShift = [4]uint{9, 3, 5, 7}

// Timer implements DIV/TIMA/TMA/TAC on top of a 16-bit divider that advances
// once per cycle. DIV is the divider's high byte.
type Timer struct {
	divider uint16
	tima    uint8
	tma     uint8
	tac     uint8

	// level of the selected divider bit ANDed with the enable bit
	lastBit bool

	interrupts *interrupt.Controller
}

// NewTimer creates a stopped timer.
func NewTimer(interrupts *interrupt.Controller) *Timer {
	return &Timer{interrupts: interrupts}
}

// Step advances the divider by one cycle.
func (t *Timer) Step() {
	t.divider++
	t.update()
}

func (t *Timer) update() {
	bit := t.tac&tacEnable != 0 && (t.divider>>tacShift[t.tac&tacClock])&1 == 1
	if t.lastBit && !bit {
		t.increment()
	}
	t.lastBit = bit
}

func (t *Timer) increment() {
	t.tima++
	if t.tima == 0 {
		t.tima = t.tma
		if t.interrupts != nil {
			t.interrupts.Request(interrupt.Timer)
		}
	}
}

// Read returns the view of a timer register.
func (t *Timer) Read(address uint16) uint8 {
	switch address {
	case DIV:
		return uint8(t.divider >> 8)
	case TIMA:
		return t.tima
	case TMA:
		return t.tma
	case TAC:
		return tacUnused | t.tac
	}
	return 0xFF
}

// Write stores a timer register. Any write to DIV resets the whole divider.
func (t *Timer) Write(address uint16, value uint8) {
	switch address {
	case DIV:
		t.divider = 0
	case TIMA:
		t.tima = value
	case TMA:
		t.tma = value
	case TAC:
		t.tac = value &^ tacUnused
	}
	t.update()
}

// Divider returns the full 16-bit internal divider.
func (t *Timer) Divider() uint16 {
	return t.divider
}

// TimerState is the serializable timer state.
type TimerState struct {
	Divider uint16 `json:"divider"`
	TIMA    uint8  `json:"tima"`
	TMA     uint8  `json:"tma"`
	TAC     uint8  `json:"tac"`
	LastBit bool   `json:"last_bit"`
}

// State returns a snapshot of the timer.
func (t *Timer) State() TimerState {
	return TimerState{
		Divider: t.divider,
		TIMA:    t.tima,
		TMA:     t.tma,
		TAC:     t.tac,
		LastBit: t.lastBit,
	}
}

// Restore loads a snapshot.
func (t *Timer) Restore(s TimerState) {
	t.divider = s.Divider
	t.tima = s.TIMA
	t.tma = s.TMA
	t.tac = s.TAC &^ tacUnused
	t.lastBit = s.LastBit
}
