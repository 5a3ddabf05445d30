// Package cpu implements the Sharp SM83 core of the Game Boy: the register
// file, a table-driven fetch/decode/execute loop, interrupt servicing and HALT.
package cpu

import (
	"errors"

	"github.com/golang/glog"

	"gameboii/internal/fault"
	"gameboii/internal/interrupt"
)

const (
	prefixOpcode = 0xCB
	ieRegister   = 0xFFFF
)

// Memory is the CPU's view of the address space
type Memory interface {
	Read(address uint16) (uint8, error)
	Write(address uint16, value uint8) error
	// Peek reads without side effects or errors
	Peek(address uint16) uint8
	// Tick services the devices that advance every cycle
	Tick(clock uint64)
	BootMode() bool
}

// TraceSink receives every instruction before it executes, outside the boot ROM
type TraceSink interface {
	TraceInstruction(pc uint16, opcode uint16, operands [2]uint8)
}

// CPU represents the SM83 processor
type CPU struct {
	Registers

	memory     Memory
	interrupts *interrupt.Controller

	// Clock at which the next instruction may start
	nextDue uint64

	halted     bool
	exit       bool
	exitOnStop bool

	trace    TraceSink
	executed uint64
}

// aluFlags holds the computed flag values of one instruction
type aluFlags struct {
	z, n, h, c bool
}

// operandValue is a decoded operand: its value and, for indirects, the address
type operandValue struct {
	value   uint16
	address uint16
}

// execution carries one instruction through decode, execute and write-back
type execution struct {
	in   *Instruction
	pc   uint16
	next uint16
	args [2]operandValue

	result   uint16
	flags    aluFlags
	jump     bool
	target   uint16
	notTaken bool
}

// New creates a CPU with all registers cleared and PC at 0x0000, where the
// boot ROM starts.
func New(memory Memory, interrupts *interrupt.Controller) *CPU {
	if interrupts == nil {
		interrupts = interrupt.New()
	}
	return &CPU{
		memory:     memory,
		interrupts: interrupts,
	}
}

// SetPostBootState loads the registers the boot ROM leaves behind
func (c *CPU) SetPostBootState() {
	c.AF.SetPair(0x01B0)
	c.BC.SetPair(0x0013)
	c.DE.SetPair(0x00D8)
	c.HL.SetPair(0x014D)
	c.SP = 0xFFFE
	c.PC = 0x0100
}

// SetTraceSink installs a sink for executed instructions; nil disables tracing
func (c *CPU) SetTraceSink(sink TraceSink) {
	c.trace = sink
}

// SetExitOnStop makes STOP raise the exit flag
func (c *CPU) SetExitOnStop(exit bool) {
	c.exitOnStop = exit
}

// RequestExit raises the exit flag
func (c *CPU) RequestExit() {
	c.exit = true
}

// ShouldExit reports whether the driver should stop ticking
func (c *CPU) ShouldExit() bool {
	return c.exit
}

// Halted reports whether the CPU is waiting in HALT
func (c *CPU) Halted() bool {
	return c.halted
}

// NextDue returns the clock at which the next instruction may start
func (c *CPU) NextDue() uint64 {
	return c.nextDue
}

// Executed returns the number of instructions executed
func (c *CPU) Executed() uint64 {
	return c.executed
}

// Interrupts returns the interrupt controller
func (c *CPU) Interrupts() *interrupt.Controller {
	return c.interrupts
}

// Tick advances the CPU to clock. Devices are serviced every cycle; an
// instruction or interrupt dispatch starts only once the previous one is due.
func (c *CPU) Tick(clock uint64) error {
	c.memory.Tick(clock)

	if clock < c.nextDue {
		return nil
	}

	ie := c.memory.Peek(ieRegister)
	if c.halted {
		if !c.interrupts.Waiting(ie) {
			return nil
		}
		c.halted = false
	}

	serviced, err := c.serviceInterrupt(clock, ie)
	if serviced || err != nil {
		return err
	}
	return c.step(clock)
}

// serviceInterrupt dispatches the highest-priority pending interrupt
func (c *CPU) serviceInterrupt(clock uint64, ie uint8) (bool, error) {
	kind, ok := c.interrupts.Pending(ie)
	if !ok {
		return false, nil
	}
	c.interrupts.Acknowledge(kind)

	if glog.V(2) {
		glog.Infof("cpu: servicing %s interrupt at PC=0x%04X", kind, c.PC)
	}

	if err := c.push(c.PC); err != nil {
		return true, c.located(err, c.PC)
	}
	c.PC = kind.Vector()
	c.nextDue = clock + interrupt.DispatchCycles
	return true, nil
}

// step fetches, decodes and executes one instruction
func (c *CPU) step(clock uint64) error {
	pc := c.PC

	first, err := c.memory.Read(pc)
	if err != nil {
		return c.located(err, pc)
	}
	opcode := uint16(first)
	if first == prefixOpcode {
		c.PC++
		second, err := c.memory.Read(c.PC)
		if err != nil {
			return c.located(err, pc)
		}
		opcode = prefixOpcode<<8 | uint16(second)
	}

	in := Lookup(opcode)
	if in == nil {
		return &fault.UnimplementedOperation{Kind: fault.OpcodeOperation, Opcode: opcode, PC: pc}
	}

	if c.trace != nil && !c.memory.BootMode() {
		c.trace.TraceInstruction(pc, opcode, [2]uint8{c.memory.Peek(pc + 1), c.memory.Peek(pc + 2)})
	}

	ex := execution{
		in:   in,
		pc:   pc,
		next: c.PC + uint16(in.Bytes),
	}
	if in.Prefixed() {
		ex.next--
	}

	if err := c.decode(&ex); err != nil {
		return c.located(err, pc)
	}
	if err := c.execute(&ex); err != nil {
		return c.located(err, pc)
	}
	if err := c.writeBack(&ex); err != nil {
		return c.located(err, pc)
	}
	c.applyFlags(in.Flags, ex.flags)
	c.adjustHL(in)

	if ex.jump {
		c.PC = ex.target
	} else {
		c.PC = ex.next
	}

	cycles := in.Cycles
	if ex.notTaken {
		cycles = in.CyclesNotTaken
	}
	c.nextDue = clock + uint64(cycles)

	c.interrupts.Step()
	c.executed++
	return nil
}

// located stamps the PC of the failing instruction onto an unimplemented path
func (c *CPU) located(err error, pc uint16) error {
	var op *fault.UnimplementedOperation
	if errors.As(err, &op) {
		op.PC = pc
	}
	return err
}

func (c *CPU) decode(ex *execution) error {
	for i, op := range ex.in.Operands {
		v, err := c.resolve(ex, op)
		if err != nil {
			return err
		}
		ex.args[i] = v
	}
	return nil
}

func (c *CPU) resolve(ex *execution, op Operand) (operandValue, error) {
	switch op.Kind {
	case OperandReg8:
		return operandValue{value: uint16(c.Get8(op.Reg))}, nil
	case OperandReg16:
		return operandValue{value: c.Get16(op.Reg)}, nil
	case OperandImm8, OperandSImm8, OperandSPOffset:
		b, err := c.memory.Read(ex.pc + 1)
		return operandValue{value: uint16(b)}, err
	case OperandImm16:
		v, err := c.read16(ex.pc + 1)
		return operandValue{value: v}, err
	case OperandIndirect:
		address, err := c.indirectAddress(ex, op)
		if err != nil {
			return operandValue{}, err
		}
		v := operandValue{address: address}
		if op.Access.Reads() {
			b, err := c.memory.Read(address)
			if err != nil {
				return v, err
			}
			v.value = uint16(b)
		}
		return v, nil
	case OperandCondition:
		if c.condition(op.Cond) {
			return operandValue{value: 1}, nil
		}
		return operandValue{}, nil
	case OperandVector, OperandBit:
		return operandValue{value: uint16(op.Value)}, nil
	}
	return operandValue{}, nil
}

// indirectAddress computes the address of a memory operand. 8-bit sources
// address the I/O page at 0xFF00.
func (c *CPU) indirectAddress(ex *execution, op Operand) (uint16, error) {
	switch op.Inner {
	case OperandReg16:
		return c.Get16(op.Reg), nil
	case OperandReg8:
		return 0xFF00 | uint16(c.Get8(op.Reg)), nil
	case OperandImm8:
		b, err := c.memory.Read(ex.pc + 1)
		return 0xFF00 | uint16(b), err
	default:
		return c.read16(ex.pc + 1)
	}
}

func (c *CPU) condition(cond Condition) bool {
	switch cond {
	case CondNZ:
		return !c.Flag(flagZ)
	case CondZ:
		return c.Flag(flagZ)
	case CondNC:
		return !c.Flag(flagC)
	default:
		return c.Flag(flagC)
	}
}

// writeBack stores the result into the first written operand
func (c *CPU) writeBack(ex *execution) error {
	for i, op := range ex.in.Operands {
		if !op.Access.Writes() {
			continue
		}
		switch op.Kind {
		case OperandReg8:
			c.Set8(op.Reg, uint8(ex.result))
		case OperandReg16:
			c.Set16(op.Reg, ex.result)
		case OperandIndirect:
			address := ex.args[i].address
			if op.Wide {
				if err := c.write16(address, ex.result); err != nil {
					return err
				}
			} else if err := c.memory.Write(address, uint8(ex.result)); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

func (c *CPU) applyFlags(spec FlagSpec, computed aluFlags) {
	masks := [4]uint8{flagZ, flagN, flagH, flagC}
	values := [4]bool{computed.z, computed.n, computed.h, computed.c}
	for i, effect := range spec {
		switch effect {
		case flagReset:
			c.SetFlag(masks[i], false)
		case flagSet:
			c.SetFlag(masks[i], true)
		case flagComputed:
			c.SetFlag(masks[i], values[i])
		}
	}
}

// adjustHL applies the (HL+)/(HL-) post-increment after the access
func (c *CPU) adjustHL(in *Instruction) {
	for _, op := range in.Operands {
		if op.Step != 0 {
			c.HL.SetPair(c.HL.Pair() + uint16(int16(op.Step)))
		}
	}
}

func (c *CPU) read16(address uint16) (uint16, error) {
	lo, err := c.memory.Read(address)
	if err != nil {
		return 0, err
	}
	hi, err := c.memory.Read(address + 1)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

func (c *CPU) write16(address uint16, value uint16) error {
	if err := c.memory.Write(address, uint8(value)); err != nil {
		return err
	}
	return c.memory.Write(address+1, uint8(value>>8))
}

func (c *CPU) push(value uint16) error {
	c.SP--
	if err := c.memory.Write(c.SP, uint8(value>>8)); err != nil {
		return err
	}
	c.SP--
	return c.memory.Write(c.SP, uint8(value))
}

func (c *CPU) pop() (uint16, error) {
	lo, err := c.memory.Read(c.SP)
	if err != nil {
		return 0, err
	}
	c.SP++
	hi, err := c.memory.Read(c.SP)
	if err != nil {
		return 0, err
	}
	c.SP++
	return uint16(hi)<<8 | uint16(lo), nil
}

// State is the serializable CPU state
type State struct {
	AF       uint16 `json:"af"`
	BC       uint16 `json:"bc"`
	DE       uint16 `json:"de"`
	HL       uint16 `json:"hl"`
	SP       uint16 `json:"sp"`
	PC       uint16 `json:"pc"`
	NextDue  uint64 `json:"next_due"`
	Halted   bool   `json:"halted"`
	Executed uint64 `json:"executed"`
}

// State returns a snapshot of the CPU
func (c *CPU) State() State {
	return State{
		AF:       c.AF.Pair(),
		BC:       c.BC.Pair(),
		DE:       c.DE.Pair(),
		HL:       c.HL.Pair(),
		SP:       c.SP,
		PC:       c.PC,
		NextDue:  c.nextDue,
		Halted:   c.halted,
		Executed: c.executed,
	}
}

// Restore loads a snapshot
func (c *CPU) Restore(s State) {
	c.Set16(RegAF, s.AF)
	c.BC.SetPair(s.BC)
	c.DE.SetPair(s.DE)
	c.HL.SetPair(s.HL)
	c.SP = s.SP
	c.PC = s.PC
	c.nextDue = s.NextDue
	c.halted = s.Halted
	c.executed = s.Executed
}
