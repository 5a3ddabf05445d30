package cartridge

// ROMOnly is the controller of 32 KiB cartridges without bank switching.
// Writes into the ROM range are swallowed.
type ROMOnly struct{}

// NewROMOnly creates a ROM-only controller
func NewROMOnly() *ROMOnly {
	return &ROMOnly{}
}

// HandleWrite ignores writes to 0x0000-0x7FFF
func (m *ROMOnly) HandleWrite(address uint16, value uint8) (bool, error) {
	return address < 0x8000, nil
}

// ROMBank is always 1
func (m *ROMOnly) ROMBank() int {
	return 1
}

// RAMEnabled is always true, external RAM is not gated
func (m *ROMOnly) RAMEnabled() bool {
	return true
}

// Name returns the controller name
func (m *ROMOnly) Name() string {
	return "ROM only"
}

// State returns the empty controller state
func (m *ROMOnly) State() ControllerState {
	return ControllerState{BankLow: 1, RAMEnabled: true}
}

// Restore is a no-op, there is no state to restore
func (m *ROMOnly) Restore(state ControllerState) {}
