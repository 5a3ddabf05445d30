// Package dma models the OAM DMA transfer started by a write to 0xFF46.
package dma

const (
	// OAMBase is the destination of every transfer.
	OAMBase uint16 = 0xFE00
	// Length is the number of bytes copied per transfer.
	Length = 160
	// totalCycles is the nominal duration of a full transfer.
	totalCycles = 671
	// ByteInterval is the number of cycles between two copied bytes.
	ByteInterval = totalCycles / Length
)

// Copier moves one byte between two addresses without bus side effects.
type Copier interface {
	Peek(address uint16) uint8
	Poke(address uint16, value uint8)
}

// Controller holds the single in-flight transfer, if any.
type Controller struct {
	active  bool
	started bool
	source  uint16
	copied  int
	nextDue uint64
}

// New creates an idle controller.
func New() *Controller {
	return &Controller{}
}

// Start begins a transfer from value << 8. An in-flight transfer is replaced.
func (c *Controller) Start(value uint8) {
	c.active = true
	c.started = false
	c.source = uint16(value) << 8
	c.copied = 0
	c.nextDue = 0
}

// Active reports whether a transfer is in progress.
func (c *Controller) Active() bool {
	return c.active
}

// Copied returns the number of bytes copied by the current transfer.
func (c *Controller) Copied() int {
	return c.copied
}

// Source returns the base address of the current transfer.
func (c *Controller) Source() uint16 {
	return c.source
}

// Step copies the next byte when it is due. The first byte is copied on the
// first step after Start, the rest every ByteInterval cycles.
func (c *Controller) Step(clock uint64, mem Copier) {
	if !c.active {
		return
	}
	if !c.started {
		c.started = true
		c.nextDue = clock
	}
	if clock < c.nextDue {
		return
	}

	offset := uint16(c.copied)
	mem.Poke(OAMBase+offset, mem.Peek(c.source+offset))

	c.copied++
	c.nextDue += ByteInterval
	if c.copied == Length {
		c.active = false
	}
}

// State is the serializable transfer state.
type State struct {
	Active  bool   `json:"active"`
	Started bool   `json:"started"`
	Source  uint16 `json:"source"`
	Copied  int    `json:"copied"`
	NextDue uint64 `json:"next_due"`
}

// State returns a snapshot of the transfer.
func (c *Controller) State() State {
	return State{
		Active:  c.active,
		Started: c.started,
		Source:  c.source,
		Copied:  c.copied,
		NextDue: c.nextDue,
	}
}

// Restore loads a snapshot.
func (c *Controller) Restore(s State) {
	c.active = s.Active
	c.started = s.Started
	c.source = s.Source
	c.copied = s.Copied
	c.nextDue = s.NextDue
}
