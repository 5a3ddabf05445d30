package cpu

// Op is an instruction mnemonic
type Op uint8

const (
	NOP Op = iota
	LD
	LDH
	INC
	DEC
	RLCA
	RRCA
	RLA
	RRA
	ADD
	ADC
	SUB
	SBC
	AND
	XOR
	OR
	CP
	JR
	JP
	CALL
	RET
	RETI
	RST
	PUSH
	POP
	DAA
	CPL
	SCF
	CCF
	HALT
	STOP
	DI
	EI
	PREFIX
	RLC
	RRC
	RL
	RR
	SLA
	SRA
	SWAP
	SRL
	BIT
	RES
	SET
)

var opNames = [...]string{
	"NOP", "LD", "LDH", "INC", "DEC", "RLCA", "RRCA", "RLA", "RRA",
	"ADD", "ADC", "SUB", "SBC", "AND", "XOR", "OR", "CP",
	"JR", "JP", "CALL", "RET", "RETI", "RST", "PUSH", "POP",
	"DAA", "CPL", "SCF", "CCF", "HALT", "STOP", "DI", "EI", "PREFIX",
	"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL", "BIT", "RES", "SET",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "???"
}

// OperandKind is the closed set of operand shapes
type OperandKind uint8

const (
	OperandNone OperandKind = iota
	// OperandReg8 is an 8-bit register
	OperandReg8
	// OperandReg16 is a 16-bit register
	OperandReg16
	// OperandImm8 is d8, or a8 inside an indirect
	OperandImm8
	// OperandImm16 is d16 or a16
	OperandImm16
	// OperandSImm8 is the signed r8 offset
	OperandSImm8
	// OperandIndirect is a memory access through Inner
	OperandIndirect
	// OperandSPOffset is SP+r8
	OperandSPOffset
	OperandCondition
	OperandVector
	OperandBit
)

// Access says how an operand is used
type Access uint8

const (
	AccessIn Access = iota
	AccessOut
	AccessInOut
)

// Reads reports whether the operand is read
func (a Access) Reads() bool {
	return a == AccessIn || a == AccessInOut
}

// Writes reports whether the operand is written
func (a Access) Writes() bool {
	return a == AccessOut || a == AccessInOut
}

// Condition is a branch condition
type Condition uint8

const (
	CondNZ Condition = iota
	CondZ
	CondNC
	CondC
)

var conditionNames = [...]string{"NZ", "Z", "NC", "C"}

func (c Condition) String() string {
	return conditionNames[c&3]
}

// Operand describes one instruction operand
type Operand struct {
	Kind   OperandKind
	Access Access

	// Register for Reg8/Reg16, and the address register of an indirect
	Reg Register
	// Inner is the address source of an indirect: Reg8 (C), Reg16, Imm8 (a8) or Imm16 (a16)
	Inner OperandKind
	// Step is the HL adjustment applied after a (HL+)/(HL-) access
	Step int8
	// Wide marks the 16-bit store of LD (a16),SP
	Wide bool

	Cond  Condition
	Value uint8
}

// flagEffect is one position of a ZNHC flag spec
type flagEffect uint8

const (
	flagKeep flagEffect = iota
	flagReset
	flagSet
	flagComputed
)

// FlagSpec lists the effect on Z, N, H and C in that order
type FlagSpec [4]flagEffect

// ParseFlags reads a ZNHC spec: '-' keep, '0' reset, '1' set, a letter computed
func ParseFlags(spec string) FlagSpec {
	var fs FlagSpec
	for i := 0; i < len(fs) && i < len(spec); i++ {
		switch spec[i] {
		case '-':
			fs[i] = flagKeep
		case '0':
			fs[i] = flagReset
		case '1':
			fs[i] = flagSet
		default:
			fs[i] = flagComputed
		}
	}
	return fs
}

func (fs FlagSpec) String() string {
	letters := "ZNHC"
	out := make([]byte, 4)
	for i, e := range fs {
		switch e {
		case flagKeep:
			out[i] = '-'
		case flagReset:
			out[i] = '0'
		case flagSet:
			out[i] = '1'
		default:
			out[i] = letters[i]
		}
	}
	return string(out)
}

// Instruction is one row of the instruction table
type Instruction struct {
	Opcode         uint16
	Op             Op
	Operands       []Operand
	Bytes          uint8
	Cycles         uint8
	CyclesNotTaken uint8
	Flags          FlagSpec
}

// Prefixed reports whether the instruction lives behind the 0xCB prefix
func (in *Instruction) Prefixed() bool {
	return in.Opcode>>8 == 0xCB
}

// Lookup returns the table row for an opcode (0xCBxx for prefixed ones), or
// nil for illegal opcodes.
func Lookup(opcode uint16) *Instruction {
	if opcode>>8 == 0xCB {
		return prefixedTable[opcode&0xFF]
	}
	if opcode > 0xFF {
		return nil
	}
	return mainTable[opcode]
}
