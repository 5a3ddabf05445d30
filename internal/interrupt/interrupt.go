// Package interrupt implements the interrupt controller: the requested set,
// the master enable flag with its EI/DI activation delay, and priority
// resolution.
package interrupt

// Kind identifies an interrupt source. Lower values have higher priority.
type Kind uint8

const (
	VBlank Kind = iota
	LCDStat
	Timer
	Serial
	Joypad
)

// Count is the number of interrupt sources.
const Count = 5

// Mask covers the five request bits.
const Mask uint8 = 0x1F

// activationDelay is the number of executed instructions after EI/DI before
// the master enable flag changes.
const activationDelay = 2

// DispatchCycles is charged for every serviced interrupt.
const DispatchCycles = 5

var kindNames = [Count]string{"VBlank", "LCD-STAT", "Timer", "Serial", "Joypad"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Vector returns the handler address for the interrupt.
func (k Kind) Vector() uint16 {
	return 0x40 + uint16(k)*8
}

// Bit returns the IF/IE bit for the interrupt.
func (k Kind) Bit() uint8 {
	return 1 << k
}

// Controller tracks requested interrupts and the master enable flag.
type Controller struct {
	requested uint8

	master     bool
	masterNext bool
	counter    uint8
}

// New creates a controller with nothing requested and interrupts disabled.
func New() *Controller {
	return &Controller{}
}

// Request marks an interrupt as pending.
func (c *Controller) Request(kind Kind) {
	c.WriteFlags(c.requested | kind.Bit())
}

// WriteFlags handles a write to IF: only bits that go from 0 to 1 are added to
// the requested set, pending bits are never cleared by a write.
func (c *Controller) WriteFlags(value uint8) {
	changed := ^c.requested & value & Mask
	c.requested |= changed
}

// Flags returns the IF register view. Unused upper bits read as 1.
func (c *Controller) Flags() uint8 {
	return 0xE0 | c.requested
}

// Requested returns the raw requested set.
func (c *Controller) Requested() uint8 {
	return c.requested
}

// Schedule makes the master flag become state after two more Step calls.
func (c *Controller) Schedule(state bool) {
	c.counter = activationDelay
	c.masterNext = state
}

// SetMaster changes the master flag immediately and cancels a scheduled change.
func (c *Controller) SetMaster(state bool) {
	c.master = state
	c.counter = 0
}

// Master reports whether interrupts are enabled.
func (c *Controller) Master() bool {
	return c.master
}

// Step advances the activation counter. It is called once per executed
// instruction.
func (c *Controller) Step() {
	if c.counter == 0 {
		return
	}
	c.counter--
	if c.counter == 0 {
		c.master = c.masterNext
	}
}

// Pending returns the highest-priority interrupt that is requested, enabled in
// ie and allowed by the master flag.
func (c *Controller) Pending(ie uint8) (Kind, bool) {
	if !c.master {
		return 0, false
	}
	return lowest(c.requested & ie & Mask)
}

// Waiting reports whether any enabled interrupt is requested, ignoring the
// master flag. HALT wakes on this condition.
func (c *Controller) Waiting(ie uint8) bool {
	return c.requested&ie&Mask != 0
}

// Acknowledge clears the request bit and the master flag for a serviced
// interrupt.
func (c *Controller) Acknowledge(kind Kind) {
	c.requested &^= kind.Bit()
	c.master = false
}

// State is the serializable controller state.
type State struct {
	Requested  uint8 `json:"requested"`
	Master     bool  `json:"master"`
	MasterNext bool  `json:"master_next"`
	Counter    uint8 `json:"counter"`
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	return State{
		Requested:  c.requested,
		Master:     c.master,
		MasterNext: c.masterNext,
		Counter:    c.counter,
	}
}

// Restore loads a snapshot.
func (c *Controller) Restore(s State) {
	c.requested = s.Requested & Mask
	c.master = s.Master
	c.masterNext = s.MasterNext
	c.counter = s.Counter
}

func lowest(bits uint8) (Kind, bool) {
	for i := Kind(0); i < Count; i++ {
		if bits&i.Bit() != 0 {
			return i, true
		}
	}
	return 0, false
}
