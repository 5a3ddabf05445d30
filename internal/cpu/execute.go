package cpu

import (
	"github.com/golang/glog"
)

// execute runs the semantics of one decoded instruction. Results meant for an
// output operand go to ex.result; flags for computed positions go to ex.flags.
func (c *CPU) execute(ex *execution) error {
	in := ex.in
	args := ex.args

	switch in.Op {
	case NOP, PREFIX:

	case LD, LDH:
		if in.Operands[1].Kind == OperandSPOffset {
			ex.result, ex.flags.c, ex.flags.h = addSigned(c.SP, uint8(args[1].value))
		} else {
			ex.result = args[1].value
		}

	case INC:
		if in.Operands[0].Kind == OperandReg16 {
			ex.result, _, _ = add16(args[0].value, 1)
			break
		}
		r, _, half := add8(uint8(args[0].value), 1)
		ex.result = uint16(r)
		ex.flags.z, ex.flags.h = r == 0, half

	case DEC:
		if in.Operands[0].Kind == OperandReg16 {
			ex.result, _, _ = sub16(args[0].value, 1)
			break
		}
		r, _, half := sub8(uint8(args[0].value), 1)
		ex.result = uint16(r)
		ex.flags.z, ex.flags.h = r == 0, half

	case RLCA, RRCA, RLA, RRA:
		a := c.Get8(RegA)
		var r uint8
		switch in.Op {
		case RLCA:
			r, ex.flags.c = rlc(a)
		case RRCA:
			r, ex.flags.c = rrc(a)
		case RLA:
			r, ex.flags.c = rl(a, c.Flag(flagC))
		default:
			r, ex.flags.c = rr(a, c.Flag(flagC))
		}
		c.Set8(RegA, r)

	case ADD:
		switch {
		case in.Operands[0].Kind == OperandReg16 && in.Operands[0].Reg == RegSP:
			ex.result, ex.flags.c, ex.flags.h = addSigned(args[0].value, uint8(args[1].value))
		case in.Operands[0].Kind == OperandReg16:
			ex.result, ex.flags.c, ex.flags.h = add16(args[0].value, args[1].value)
		default:
			r, carry, half := add8(uint8(args[0].value), uint8(args[1].value))
			c.setArith(ex, r, carry, half)
		}

	case ADC:
		r, carry, half := adc8(uint8(args[0].value), uint8(args[1].value), c.Flag(flagC))
		c.setArith(ex, r, carry, half)

	case SUB:
		r, borrow, half := sub8(c.Get8(RegA), uint8(args[0].value))
		c.setArith(ex, r, borrow, half)
		c.Set8(RegA, r)

	case SBC:
		r, borrow, half := sbc8(uint8(args[0].value), uint8(args[1].value), c.Flag(flagC))
		c.setArith(ex, r, borrow, half)

	case CP:
		r, borrow, half := sub8(c.Get8(RegA), uint8(args[0].value))
		c.setArith(ex, r, borrow, half)

	case AND, XOR, OR:
		a, v := c.Get8(RegA), uint8(args[0].value)
		switch in.Op {
		case AND:
			a &= v
		case XOR:
			a ^= v
		default:
			a |= v
		}
		c.Set8(RegA, a)
		ex.flags.z = a == 0

	case JR:
		if ex.taken() {
			ex.jump = true
			ex.target, _, _ = addSigned(ex.next, uint8(ex.last().value))
		}

	case JP:
		if ex.taken() {
			ex.jump = true
			ex.target = ex.last().value
		}

	case CALL:
		if ex.taken() {
			if err := c.push(ex.next); err != nil {
				return err
			}
			ex.jump = true
			ex.target = ex.last().value
		}

	case RET:
		if ex.taken() {
			target, err := c.pop()
			if err != nil {
				return err
			}
			ex.jump = true
			ex.target = target
		}

	case RETI:
		target, err := c.pop()
		if err != nil {
			return err
		}
		ex.jump = true
		ex.target = target
		c.interrupts.SetMaster(true)

	case RST:
		if err := c.push(ex.next); err != nil {
			return err
		}
		ex.jump = true
		ex.target = args[0].value

	case PUSH:
		return c.push(args[0].value)

	case POP:
		v, err := c.pop()
		if err != nil {
			return err
		}
		ex.result = v

	case DAA:
		r, carry := daa(c.Get8(RegA), c.Flag(flagN), c.Flag(flagH), c.Flag(flagC))
		c.Set8(RegA, r)
		ex.flags.z, ex.flags.c = r == 0, carry

	case CPL:
		c.Set8(RegA, ^c.Get8(RegA))

	case SCF:

	case CCF:
		ex.flags.c = !c.Flag(flagC)

	case HALT:
		c.halted = true
		glog.V(2).Infof("cpu: HALT at PC=0x%04X", ex.pc)

	case STOP:
		if c.exitOnStop {
			c.exit = true
		}
		glog.V(2).Infof("cpu: STOP at PC=0x%04X", ex.pc)

	case DI:
		c.interrupts.Schedule(false)

	case EI:
		c.interrupts.Schedule(true)

	case RLC, RRC, RL, RR, SLA, SRA, SRL:
		v := uint8(args[0].value)
		var r uint8
		switch in.Op {
		case RLC:
			r, ex.flags.c = rlc(v)
		case RRC:
			r, ex.flags.c = rrc(v)
		case RL:
			r, ex.flags.c = rl(v, c.Flag(flagC))
		case RR:
			r, ex.flags.c = rr(v, c.Flag(flagC))
		case SLA:
			r, ex.flags.c = sla(v)
		case SRA:
			r, ex.flags.c = sra(v)
		default:
			r, ex.flags.c = srl(v)
		}
		ex.result = uint16(r)
		ex.flags.z = r == 0

	case SWAP:
		r := swap(uint8(args[0].value))
		ex.result = uint16(r)
		ex.flags.z = r == 0

	case BIT:
		ex.flags.z = args[1].value&(1<<args[0].value) == 0

	case RES:
		ex.result = args[1].value &^ (1 << args[0].value)

	case SET:
		ex.result = args[1].value | 1<<args[0].value
	}
	return nil
}

// setArith records an 8-bit arithmetic result and its Z/H/C flags
func (c *CPU) setArith(ex *execution, r uint8, carry, half bool) {
	ex.result = uint16(r)
	ex.flags.z, ex.flags.h, ex.flags.c = r == 0, half, carry
}

// taken evaluates the optional leading condition operand and records the
// not-taken timing
func (ex *execution) taken() bool {
	if len(ex.in.Operands) == 0 || ex.in.Operands[0].Kind != OperandCondition {
		return true
	}
	if ex.args[0].value != 0 {
		return true
	}
	ex.notTaken = true
	return false
}

// last returns the final decoded operand
func (ex *execution) last() operandValue {
	return ex.args[len(ex.in.Operands)-1]
}
