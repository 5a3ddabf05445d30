// Package cartridge implements ROM loading, header parsing and bank controllers
// for Game Boy cartridges.
package cartridge

import (
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"

	"gameboii/internal/fault"
)

// BankSize is the size of one switchable ROM bank.
const BankSize = 0x4000

// Cartridge holds the immutable ROM image and its bank controller.
type Cartridge struct {
	rom        []uint8
	header     Header
	controller Controller
}

// Controller intercepts CPU writes into the cartridge address range.
type Controller interface {
	// HandleWrite reports whether the write was consumed by the controller.
	HandleWrite(address uint16, value uint8) (bool, error)
	// ROMBank is the bank mapped at 0x4000-0x7FFF.
	ROMBank() int
	RAMEnabled() bool
	Name() string
	State() ControllerState
	Restore(state ControllerState)
}

// ControllerState is the serializable part of a bank controller.
type ControllerState struct {
	BankLow    uint8 `json:"bank_low"`
	BankHigh   uint8 `json:"bank_high"`
	Mode       uint8 `json:"mode"`
	RAMEnabled bool  `json:"ram_enabled"`
}

// LoadFromFile loads a cartridge image from disk.
func LoadFromFile(filename string) (*Cartridge, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromReader loads a cartridge image from an io.Reader.
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	rom, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read cartridge: %w", err)
	}
	return New(rom)
}

// New validates the header of rom and builds the matching bank controller.
// Unsupported images are rejected with a *fault.ConfigurationError.
func New(rom []uint8) (*Cartridge, error) {
	if len(rom) < 2*BankSize {
		return nil, &fault.ConfigurationError{
			Field: "rom size",
			Value: len(rom),
			Err:   fmt.Errorf("image must hold at least two %d byte banks", BankSize),
		}
	}

	header := ParseHeader(rom)

	if header.CGBFlag == CGBOnly {
		return nil, &fault.ConfigurationError{
			Field: "cgb flag",
			Value: fmt.Sprintf("0x%02X", header.CGBFlag),
			Err:   fmt.Errorf("color-only cartridges are not supported"),
		}
	}

	declared, ok := header.ROMSizeBytes()
	if !ok {
		return nil, &fault.ConfigurationError{
			Field: "rom size code",
			Value: fmt.Sprintf("0x%02X", header.ROMSizeCode),
		}
	}
	if len(rom) < declared {
		return nil, &fault.ConfigurationError{
			Field: "rom size",
			Value: len(rom),
			Err:   fmt.Errorf("header declares %d bytes", declared),
		}
	}

	if header.HeaderChecksum != header.ComputedChecksum() {
		glog.Warningf("cartridge %q: header checksum 0x%02X does not match computed 0x%02X",
			header.Title, header.HeaderChecksum, header.ComputedChecksum())
	}

	cart := &Cartridge{
		rom:    rom,
		header: header,
	}

	// the declared size is a power of two; trailing bytes past it are never mapped
	controller, err := createController(header.Type, declared/BankSize)
	if err != nil {
		return nil, err
	}
	cart.controller = controller

	glog.V(1).Infof("cartridge %q: type 0x%02X (%s), %d banks", header.Title, header.Type, controller.Name(), cart.BankCount())
	return cart, nil
}

// createController picks the bank controller for the header type byte.
func createController(cartType uint8, banks int) (Controller, error) {
	switch cartType {
	case TypeROMOnly:
		return NewROMOnly(), nil
	case TypeMBC1:
		return NewMBC1(banks), nil
	default:
		return nil, &fault.ConfigurationError{
			Field: "cartridge type",
			Value: fmt.Sprintf("0x%02X", cartType),
			Err:   fmt.Errorf("only ROM-only and MBC1 cartridges are supported"),
		}
	}
}

// Header returns the parsed header.
func (c *Cartridge) Header() Header {
	return c.header
}

// ROM returns the raw image. Callers must not modify it.
func (c *Cartridge) ROM() []uint8 {
	return c.rom
}

// BankCount returns the number of 16 KiB banks in the image.
func (c *Cartridge) BankCount() int {
	return len(c.rom) / BankSize
}

// Bank returns the 16 KiB slice for bank n, wrapping out-of-range banks.
func (c *Cartridge) Bank(n int) []uint8 {
	n %= c.BankCount()
	return c.rom[n*BankSize : (n+1)*BankSize]
}

// HandleWrite forwards a CPU write to the bank controller.
func (c *Cartridge) HandleWrite(address uint16, value uint8) (bool, error) {
	return c.controller.HandleWrite(address, value)
}

// ActiveBank returns the bank mapped at 0x4000-0x7FFF.
func (c *Cartridge) ActiveBank() int {
	return c.controller.ROMBank()
}

// Controller returns the bank controller.
func (c *Cartridge) Controller() Controller {
	return c.controller
}
