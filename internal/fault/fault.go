// Package fault defines the error taxonomy shared by the emulator core.
//
// Two kinds of failure exist. A ConfigurationError is returned while loading a
// cartridge or boot ROM and never reaches the tick loop. An UnimplementedOperation
// is returned from a tick when the machine reaches an opcode or register path that
// is not modeled; the caller is expected to stop the simulation.
package fault

import (
	"errors"
	"fmt"
)

// Sentinel values for errors.Is.
var (
	ErrConfiguration = errors.New("unsupported configuration")
	ErrUnimplemented = errors.New("unimplemented operation")
)

// ConfigurationError reports an unsupported cartridge or boot ROM.
type ConfigurationError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error in %s (%v): %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("configuration error in %s (%v)", e.Field, e.Value)
}

// Is makes every ConfigurationError match ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// OperationKind says which path of the machine was not modeled.
type OperationKind int

const (
	OpcodeOperation OperationKind = iota
	ReadOperation
	WriteOperation
)

func (k OperationKind) String() string {
	switch k {
	case OpcodeOperation:
		return "opcode"
	case ReadOperation:
		return "read"
	case WriteOperation:
		return "write"
	default:
		return "unknown"
	}
}

// UnimplementedOperation identifies the failing instruction or address.
type UnimplementedOperation struct {
	Kind    OperationKind
	Opcode  uint16
	Address uint16
	Value   uint8
	PC      uint16
	Reason  string
}

func (e *UnimplementedOperation) Error() string {
	switch e.Kind {
	case OpcodeOperation:
		return fmt.Sprintf("unimplemented opcode 0x%02X at PC=0x%04X", e.Opcode, e.PC)
	case WriteOperation:
		msg := fmt.Sprintf("unimplemented write of 0x%02X to 0x%04X", e.Value, e.Address)
		if e.Reason != "" {
			msg += ": " + e.Reason
		}
		return msg
	default:
		msg := fmt.Sprintf("unimplemented %s at 0x%04X", e.Kind, e.Address)
		if e.Reason != "" {
			msg += ": " + e.Reason
		}
		return msg
	}
}

// Is makes every UnimplementedOperation match ErrUnimplemented.
func (e *UnimplementedOperation) Is(target error) bool {
	return target == ErrUnimplemented
}

// UnsupportedRead builds the error for a register read that is not modeled.
func UnsupportedRead(address uint16, reason string) *UnimplementedOperation {
	return &UnimplementedOperation{Kind: ReadOperation, Address: address, Reason: reason}
}

// UnsupportedWrite builds the error for a register write that is not modeled.
func UnsupportedWrite(address uint16, value uint8, reason string) *UnimplementedOperation {
	return &UnimplementedOperation{Kind: WriteOperation, Address: address, Value: value, Reason: reason}
}
