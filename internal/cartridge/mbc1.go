package cartridge

import "gameboii/internal/fault"

// MBC1 register ranges.
const (
	mbc1RAMEnableEnd  = 0x2000
	mbc1BankSelectEnd = 0x4000
	mbc1UpperBitsEnd  = 0x6000
	mbc1ModeSelectEnd = 0x8000
)

// MBC1 banking modes.
const (
	MBC1ROMMode uint8 = 0
	MBC1RAMMode uint8 = 1
)

// MBC1 implements the ROM bank-select path of the MBC1 controller.
// RAM banking is not modeled: selecting a non-zero RAM bank fails.
type MBC1 struct {
	banks      int
	bankLow    uint8 // 5 bits written at 0x2000-0x3FFF
	bankHigh   uint8 // 2 bits written at 0x4000-0x5FFF
	mode       uint8
	ramEnabled bool
}

// NewMBC1 creates an MBC1 controller for an image of the given bank count
func NewMBC1(banks int) *MBC1 {
	return &MBC1{
		banks:   banks,
		bankLow: 1,
	}
}

// HandleWrite updates the bank registers. Every write below 0x8000 is consumed.
func (m *MBC1) HandleWrite(address uint16, value uint8) (bool, error) {
	switch {
	case address < mbc1RAMEnableEnd:
		m.ramEnabled = value&0x0F == 0x0A
	case address < mbc1BankSelectEnd:
		m.bankLow = value & 0x1F
		if m.bankLow == 0 {
			m.bankLow = 1
		}
	case address < mbc1UpperBitsEnd:
		bits := value & 0x03
		if m.mode == MBC1RAMMode && bits != 0 {
			return true, fault.UnsupportedWrite(address, value, "MBC1 RAM banking")
		}
		m.bankHigh = bits
	case address < mbc1ModeSelectEnd:
		mode := value & 0x01
		if mode == MBC1RAMMode && m.bankHigh != 0 {
			return true, fault.UnsupportedWrite(address, value, "MBC1 RAM banking")
		}
		m.mode = mode
	default:
		return false, nil
	}
	return true, nil
}

// ROMBank returns the effective bank at 0x4000-0x7FFF
func (m *MBC1) ROMBank() int {
	bank := int(m.bankLow)
	if m.mode == MBC1ROMMode {
		bank |= int(m.bankHigh) << 5
	}
	if m.banks > 0 {
		bank &= m.banks - 1
	}
	return bank
}

// Mode returns the banking mode
func (m *MBC1) Mode() uint8 {
	return m.mode
}

// RAMEnabled reports the RAM enable latch
func (m *MBC1) RAMEnabled() bool {
	return m.ramEnabled
}

// Name returns the controller name
func (m *MBC1) Name() string {
	return "MBC1"
}

// State returns the bank registers
func (m *MBC1) State() ControllerState {
	return ControllerState{
		BankLow:    m.bankLow,
		BankHigh:   m.bankHigh,
		Mode:       m.mode,
		RAMEnabled: m.ramEnabled,
	}
}

// Restore loads bank registers from a saved state
func (m *MBC1) Restore(state ControllerState) {
	m.bankLow = state.BankLow & 0x1F
	if m.bankLow == 0 {
		m.bankLow = 1
	}
	m.bankHigh = state.BankHigh & 0x03
	m.mode = state.Mode & 0x01
	m.ramEnabled = state.RAMEnabled
}
