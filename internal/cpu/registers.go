package cpu

// Flag bits in F
const (
	flagZ uint8 = 0x80
	flagN uint8 = 0x40
	flagH uint8 = 0x20
	flagC uint8 = 0x10

	// flagMask covers the bits of F that exist; the low nibble is always zero
	flagMask uint8 = 0xF0
)

// RegisterPair is a 16-bit register addressable as two 8-bit halves
type RegisterPair struct {
	hi uint8
	lo uint8
}

// High returns the high byte
func (p RegisterPair) High() uint8 {
	return p.hi
}

// Low returns the low byte
func (p RegisterPair) Low() uint8 {
	return p.lo
}

// Pair returns the 16-bit value
func (p RegisterPair) Pair() uint16 {
	return uint16(p.hi)<<8 | uint16(p.lo)
}

// SetHigh sets the high byte
func (p *RegisterPair) SetHigh(v uint8) {
	p.hi = v
}

// SetLow sets the low byte
func (p *RegisterPair) SetLow(v uint8) {
	p.lo = v
}

// SetPair sets both bytes
func (p *RegisterPair) SetPair(v uint16) {
	p.hi = uint8(v >> 8)
	p.lo = uint8(v)
}

// Registers is the SM83 register file
type Registers struct {
	AF RegisterPair
	BC RegisterPair
	DE RegisterPair
	HL RegisterPair
	SP uint16
	PC uint16
}

// Register names an 8-bit or 16-bit register
type Register uint8

const (
	RegA Register = iota
	RegF
	RegB
	RegC
	RegD
	RegE
	RegH
	RegL
	RegAF
	RegBC
	RegDE
	RegHL
	RegSP
	RegPC
)

var registerNames = [...]string{"A", "F", "B", "C", "D", "E", "H", "L", "AF", "BC", "DE", "HL", "SP", "PC"}

func (r Register) String() string {
	if int(r) < len(registerNames) {
		return registerNames[r]
	}
	return "?"
}

// Wide reports whether the register is 16 bits
func (r Register) Wide() bool {
	return r >= RegAF
}

func (r *Registers) pair(reg Register) *RegisterPair {
	switch reg {
	case RegA, RegF, RegAF:
		return &r.AF
	case RegB, RegC, RegBC:
		return &r.BC
	case RegD, RegE, RegDE:
		return &r.DE
	default:
		return &r.HL
	}
}

// Get8 reads an 8-bit register
func (r *Registers) Get8(reg Register) uint8 {
	p := r.pair(reg)
	switch reg {
	case RegA, RegB, RegD, RegH:
		return p.High()
	default:
		return p.Low()
	}
}

// Set8 writes an 8-bit register. Writes to F drop the low nibble.
func (r *Registers) Set8(reg Register, v uint8) {
	p := r.pair(reg)
	switch reg {
	case RegA, RegB, RegD, RegH:
		p.SetHigh(v)
	case RegF:
		p.SetLow(v & flagMask)
	default:
		p.SetLow(v)
	}
}

// Get16 reads a 16-bit register
func (r *Registers) Get16(reg Register) uint16 {
	switch reg {
	case RegSP:
		return r.SP
	case RegPC:
		return r.PC
	default:
		return r.pair(reg).Pair()
	}
}

// Set16 writes a 16-bit register. Writes to AF drop the low nibble of F.
func (r *Registers) Set16(reg Register, v uint16) {
	switch reg {
	case RegSP:
		r.SP = v
	case RegPC:
		r.PC = v
	case RegAF:
		r.AF.SetPair(v & 0xFFF0)
	default:
		r.pair(reg).SetPair(v)
	}
}

// Flag reports whether a flag bit is set
func (r *Registers) Flag(mask uint8) bool {
	return r.AF.Low()&mask != 0
}

// SetFlag sets or clears a flag bit
func (r *Registers) SetFlag(mask uint8, on bool) {
	f := r.AF.Low()
	if on {
		f |= mask
	} else {
		f &^= mask
	}
	r.AF.SetLow(f & flagMask)
}
