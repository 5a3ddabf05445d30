package cpu

// Operand constructors used by the tables below.

func r8(reg Register) Operand {
	return Operand{Kind: OperandReg8, Reg: reg}
}

func r16(reg Register) Operand {
	return Operand{Kind: OperandReg16, Reg: reg}
}

func ind(reg Register) Operand {
	return Operand{Kind: OperandIndirect, Inner: OperandReg16, Reg: reg}
}

func cond(c Condition) Operand {
	return Operand{Kind: OperandCondition, Cond: c}
}

func vec(v uint8) Operand {
	return Operand{Kind: OperandVector, Value: v}
}

func bitIndex(n uint8) Operand {
	return Operand{Kind: OperandBit, Value: n}
}

func out(o Operand) Operand {
	o.Access = AccessOut
	return o
}

func inout(o Operand) Operand {
	o.Access = AccessInOut
	return o
}

var (
	d8    = Operand{Kind: OperandImm8}
	d16   = Operand{Kind: OperandImm16}
	e8    = Operand{Kind: OperandSImm8}
	hlInc = Operand{Kind: OperandIndirect, Inner: OperandReg16, Reg: RegHL, Step: 1}
	hlDec = Operand{Kind: OperandIndirect, Inner: OperandReg16, Reg: RegHL, Step: -1}
	indC  = Operand{Kind: OperandIndirect, Inner: OperandReg8, Reg: RegC}
	a8    = Operand{Kind: OperandIndirect, Inner: OperandImm8}
	a16   = Operand{Kind: OperandIndirect, Inner: OperandImm16}
	spE8  = Operand{Kind: OperandSPOffset}
)

func row(o Op, bytes, cycles uint8, flags string, operands ...Operand) *Instruction {
	return &Instruction{
		Op:             o,
		Operands:       operands,
		Bytes:          bytes,
		Cycles:         cycles,
		CyclesNotTaken: cycles,
		Flags:          ParseFlags(flags),
	}
}

func branch(o Op, bytes, taken, notTaken uint8, operands ...Operand) *Instruction {
	in := row(o, bytes, taken, "----", operands...)
	in.CyclesNotTaken = notTaken
	return in
}

// Register order encoded in the low three opcode bits
var regOrder = [8]Operand{r8(RegB), r8(RegC), r8(RegD), r8(RegE), r8(RegH), r8(RegL), ind(RegHL), r8(RegA)}

var (
	mainTable     = buildMainTable()
	prefixedTable = buildPrefixedTable()
)

func buildMainTable() [256]*Instruction {
	t := [256]*Instruction{
		0x00: row(NOP, 1, 4, "----"),
		0x01: row(LD, 3, 12, "----", out(r16(RegBC)), d16),
		0x02: row(LD, 1, 8, "----", out(ind(RegBC)), r8(RegA)),
		0x03: row(INC, 1, 8, "----", inout(r16(RegBC))),
		0x04: row(INC, 1, 4, "Z0H-", inout(r8(RegB))),
		0x05: row(DEC, 1, 4, "Z1H-", inout(r8(RegB))),
		0x06: row(LD, 2, 8, "----", out(r8(RegB)), d8),
		0x07: row(RLCA, 1, 4, "000C"),
		0x08: row(LD, 3, 20, "----", out(Operand{Kind: OperandIndirect, Inner: OperandImm16, Wide: true}), r16(RegSP)),
		0x09: row(ADD, 1, 8, "-0HC", inout(r16(RegHL)), r16(RegBC)),
		0x0A: row(LD, 1, 8, "----", out(r8(RegA)), ind(RegBC)),
		0x0B: row(DEC, 1, 8, "----", inout(r16(RegBC))),
		0x0C: row(INC, 1, 4, "Z0H-", inout(r8(RegC))),
		0x0D: row(DEC, 1, 4, "Z1H-", inout(r8(RegC))),
		0x0E: row(LD, 2, 8, "----", out(r8(RegC)), d8),
		0x0F: row(RRCA, 1, 4, "000C"),

		0x10: row(STOP, 2, 4, "----"),
		0x11: row(LD, 3, 12, "----", out(r16(RegDE)), d16),
		0x12: row(LD, 1, 8, "----", out(ind(RegDE)), r8(RegA)),
		0x13: row(INC, 1, 8, "----", inout(r16(RegDE))),
		0x14: row(INC, 1, 4, "Z0H-", inout(r8(RegD))),
		0x15: row(DEC, 1, 4, "Z1H-", inout(r8(RegD))),
		0x16: row(LD, 2, 8, "----", out(r8(RegD)), d8),
		0x17: row(RLA, 1, 4, "000C"),
		0x18: branch(JR, 2, 12, 12, e8),
		0x19: row(ADD, 1, 8, "-0HC", inout(r16(RegHL)), r16(RegDE)),
		0x1A: row(LD, 1, 8, "----", out(r8(RegA)), ind(RegDE)),
		0x1B: row(DEC, 1, 8, "----", inout(r16(RegDE))),
		0x1C: row(INC, 1, 4, "Z0H-", inout(r8(RegE))),
		0x1D: row(DEC, 1, 4, "Z1H-", inout(r8(RegE))),
		0x1E: row(LD, 2, 8, "----", out(r8(RegE)), d8),
		0x1F: row(RRA, 1, 4, "000C"),

		0x20: branch(JR, 2, 12, 8, cond(CondNZ), e8),
		0x21: row(LD, 3, 12, "----", out(r16(RegHL)), d16),
		0x22: row(LD, 1, 8, "----", out(hlInc), r8(RegA)),
		0x23: row(INC, 1, 8, "----", inout(r16(RegHL))),
		0x24: row(INC, 1, 4, "Z0H-", inout(r8(RegH))),
		0x25: row(DEC, 1, 4, "Z1H-", inout(r8(RegH))),
		0x26: row(LD, 2, 8, "----", out(r8(RegH)), d8),
		0x27: row(DAA, 1, 4, "Z-0C"),
		0x28: branch(JR, 2, 12, 8, cond(CondZ), e8),
		0x29: row(ADD, 1, 8, "-0HC", inout(r16(RegHL)), r16(RegHL)),
		0x2A: row(LD, 1, 8, "----", out(r8(RegA)), hlInc),
		0x2B: row(DEC, 1, 8, "----", inout(r16(RegHL))),
		0x2C: row(INC, 1, 4, "Z0H-", inout(r8(RegL))),
		0x2D: row(DEC, 1, 4, "Z1H-", inout(r8(RegL))),
		0x2E: row(LD, 2, 8, "----", out(r8(RegL)), d8),
		0x2F: row(CPL, 1, 4, "-11-"),

		0x30: branch(JR, 2, 12, 8, cond(CondNC), e8),
		0x31: row(LD, 3, 12, "----", out(r16(RegSP)), d16),
		0x32: row(LD, 1, 8, "----", out(hlDec), r8(RegA)),
		0x33: row(INC, 1, 8, "----", inout(r16(RegSP))),
		0x34: row(INC, 1, 12, "Z0H-", inout(ind(RegHL))),
		0x35: row(DEC, 1, 12, "Z1H-", inout(ind(RegHL))),
		0x36: row(LD, 2, 12, "----", out(ind(RegHL)), d8),
		0x37: row(SCF, 1, 4, "-001"),
		0x38: branch(JR, 2, 12, 8, cond(CondC), e8),
		0x39: row(ADD, 1, 8, "-0HC", inout(r16(RegHL)), r16(RegSP)),
		0x3A: row(LD, 1, 8, "----", out(r8(RegA)), hlDec),
		0x3B: row(DEC, 1, 8, "----", inout(r16(RegSP))),
		0x3C: row(INC, 1, 4, "Z0H-", inout(r8(RegA))),
		0x3D: row(DEC, 1, 4, "Z1H-", inout(r8(RegA))),
		0x3E: row(LD, 2, 8, "----", out(r8(RegA)), d8),
		0x3F: row(CCF, 1, 4, "-00C"),

		0xC0: branch(RET, 1, 20, 8, cond(CondNZ)),
		0xC1: row(POP, 1, 12, "----", out(r16(RegBC))),
		0xC2: branch(JP, 3, 16, 12, cond(CondNZ), d16),
		0xC3: branch(JP, 3, 16, 16, d16),
		0xC4: branch(CALL, 3, 24, 12, cond(CondNZ), d16),
		0xC5: row(PUSH, 1, 16, "----", r16(RegBC)),
		0xC6: row(ADD, 2, 8, "Z0HC", inout(r8(RegA)), d8),
		0xC7: branch(RST, 1, 16, 16, vec(0x00)),
		0xC8: branch(RET, 1, 20, 8, cond(CondZ)),
		0xC9: branch(RET, 1, 16, 16),
		0xCA: branch(JP, 3, 16, 12, cond(CondZ), d16),
		0xCB: row(PREFIX, 1, 4, "----"),
		0xCC: branch(CALL, 3, 24, 12, cond(CondZ), d16),
		0xCD: branch(CALL, 3, 24, 24, d16),
		0xCE: row(ADC, 2, 8, "Z0HC", inout(r8(RegA)), d8),
		0xCF: branch(RST, 1, 16, 16, vec(0x08)),

		0xD0: branch(RET, 1, 20, 8, cond(CondNC)),
		0xD1: row(POP, 1, 12, "----", out(r16(RegDE))),
		0xD2: branch(JP, 3, 16, 12, cond(CondNC), d16),
		0xD4: branch(CALL, 3, 24, 12, cond(CondNC), d16),
		0xD5: row(PUSH, 1, 16, "----", r16(RegDE)),
		0xD6: row(SUB, 2, 8, "Z1HC", d8),
		0xD7: branch(RST, 1, 16, 16, vec(0x10)),
		0xD8: branch(RET, 1, 20, 8, cond(CondC)),
		0xD9: branch(RETI, 1, 16, 16),
		0xDA: branch(JP, 3, 16, 12, cond(CondC), d16),
		0xDC: branch(CALL, 3, 24, 12, cond(CondC), d16),
		0xDE: row(SBC, 2, 8, "Z1HC", inout(r8(RegA)), d8),
		0xDF: branch(RST, 1, 16, 16, vec(0x18)),

		0xE0: row(LDH, 2, 12, "----", out(a8), r8(RegA)),
		0xE1: row(POP, 1, 12, "----", out(r16(RegHL))),
		0xE2: row(LD, 1, 8, "----", out(indC), r8(RegA)),
		0xE5: row(PUSH, 1, 16, "----", r16(RegHL)),
		0xE6: row(AND, 2, 8, "Z010", d8),
		0xE7: branch(RST, 1, 16, 16, vec(0x20)),
		0xE8: row(ADD, 2, 16, "00HC", inout(r16(RegSP)), e8),
		0xE9: branch(JP, 1, 4, 4, r16(RegHL)),
		0xEA: row(LD, 3, 16, "----", out(a16), r8(RegA)),
		0xEE: row(XOR, 2, 8, "Z000", d8),
		0xEF: branch(RST, 1, 16, 16, vec(0x28)),

		0xF0: row(LDH, 2, 12, "----", out(r8(RegA)), a8),
		0xF1: row(POP, 1, 12, "----", out(r16(RegAF))),
		0xF2: row(LD, 1, 8, "----", out(r8(RegA)), indC),
		0xF3: row(DI, 1, 4, "----"),
		0xF5: row(PUSH, 1, 16, "----", r16(RegAF)),
		0xF6: row(OR, 2, 8, "Z000", d8),
		0xF7: branch(RST, 1, 16, 16, vec(0x30)),
		0xF8: row(LD, 2, 12, "00HC", out(r16(RegHL)), spE8),
		0xF9: row(LD, 1, 8, "----", out(r16(RegSP)), r16(RegHL)),
		0xFA: row(LD, 3, 16, "----", out(r8(RegA)), a16),
		0xFB: row(EI, 1, 4, "----"),
		0xFE: row(CP, 2, 8, "Z1HC", d8),
		0xFF: branch(RST, 1, 16, 16, vec(0x38)),
	}

	// 0x40-0x7F: LD r,r' with HALT in place of LD (HL),(HL)
	for opcode := 0x40; opcode < 0x80; opcode++ {
		if opcode == 0x76 {
			t[opcode] = row(HALT, 1, 4, "----")
			continue
		}
		dst, src := regOrder[(opcode>>3)&7], regOrder[opcode&7]
		cycles := uint8(4)
		if dst.Kind == OperandIndirect || src.Kind == OperandIndirect {
			cycles = 8
		}
		t[opcode] = row(LD, 1, cycles, "----", out(dst), src)
	}

	// 0x80-0xBF: 8-bit ALU on A
	alu := [8]struct {
		op    Op
		flags string
		withA bool
	}{
		{ADD, "Z0HC", true},
		{ADC, "Z0HC", true},
		{SUB, "Z1HC", false},
		{SBC, "Z1HC", true},
		{AND, "Z010", false},
		{XOR, "Z000", false},
		{OR, "Z000", false},
		{CP, "Z1HC", false},
	}
	for opcode := 0x80; opcode < 0xC0; opcode++ {
		a, src := alu[(opcode>>3)&7], regOrder[opcode&7]
		cycles := uint8(4)
		if src.Kind == OperandIndirect {
			cycles = 8
		}
		if a.withA {
			t[opcode] = row(a.op, 1, cycles, a.flags, inout(r8(RegA)), src)
		} else {
			t[opcode] = row(a.op, 1, cycles, a.flags, src)
		}
	}

	for opcode, in := range t {
		if in != nil {
			in.Opcode = uint16(opcode)
		}
	}
	return t
}

func buildPrefixedTable() [256]*Instruction {
	var t [256]*Instruction

	shifts := [8]struct {
		op    Op
		flags string
	}{
		{RLC, "Z00C"},
		{RRC, "Z00C"},
		{RL, "Z00C"},
		{RR, "Z00C"},
		{SLA, "Z00C"},
		{SRA, "Z00C"},
		{SWAP, "Z000"},
		{SRL, "Z00C"},
	}

	for opcode := 0; opcode < 0x100; opcode++ {
		target := regOrder[opcode&7]
		memory := target.Kind == OperandIndirect
		group := opcode >> 6
		n := uint8(opcode>>3) & 7

		var in *Instruction
		switch group {
		case 0:
			cycles := uint8(8)
			if memory {
				cycles = 16
			}
			s := shifts[n]
			in = row(s.op, 2, cycles, s.flags, inout(target))
		case 1:
			cycles := uint8(8)
			if memory {
				cycles = 12
			}
			in = row(BIT, 2, cycles, "Z01-", bitIndex(n), target)
		default:
			cycles := uint8(8)
			if memory {
				cycles = 16
			}
			o := RES
			if group == 3 {
				o = SET
			}
			in = row(o, 2, cycles, "----", bitIndex(n), inout(target))
		}
		in.Opcode = 0xCB00 | uint16(opcode)
		t[opcode] = in
	}
	return t
}
