package cpu

import (
	"fmt"
	"strings"
)

// Disassemble renders the instruction with the immediate bytes that follow
// the opcode.
func (in *Instruction) Disassemble(operands [2]uint8) string {
	if len(in.Operands) == 0 {
		return in.Op.String()
	}
	parts := make([]string, 0, len(in.Operands))
	for _, op := range in.Operands {
		parts = append(parts, formatOperand(op, operands))
	}
	return in.Op.String() + " " + strings.Join(parts, ",")
}

func formatOperand(op Operand, operands [2]uint8) string {
	imm8 := operands[0]
	imm16 := uint16(operands[1])<<8 | uint16(operands[0])

	switch op.Kind {
	case OperandReg8, OperandReg16:
		return op.Reg.String()
	case OperandImm8:
		return fmt.Sprintf("$%02X", imm8)
	case OperandImm16:
		return fmt.Sprintf("$%04X", imm16)
	case OperandSImm8:
		return fmt.Sprintf("%+d", int8(imm8))
	case OperandSPOffset:
		return fmt.Sprintf("SP%+d", int8(imm8))
	case OperandCondition:
		return op.Cond.String()
	case OperandVector:
		return fmt.Sprintf("$%02X", op.Value)
	case OperandBit:
		return fmt.Sprintf("%d", op.Value)
	case OperandIndirect:
		switch op.Inner {
		case OperandReg8:
			return "(" + op.Reg.String() + ")"
		case OperandImm8:
			return fmt.Sprintf("($FF%02X)", imm8)
		case OperandImm16:
			return fmt.Sprintf("($%04X)", imm16)
		default:
			switch op.Step {
			case 1:
				return "(" + op.Reg.String() + "+)"
			case -1:
				return "(" + op.Reg.String() + "-)"
			}
			return "(" + op.Reg.String() + ")"
		}
	}
	return "?"
}
