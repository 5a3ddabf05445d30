// Package memory implements the Game Boy address space: the flat 64KB array,
// the bank-switched cartridge window, the boot ROM overlay and the I/O register
// side effects (interrupt flags, DMA, serial, timer and joypad).
package memory

import (
	"fmt"

	"github.com/golang/glog"

	"gameboii/internal/cartridge"
	"gameboii/internal/dma"
	"gameboii/internal/fault"
	"gameboii/internal/input"
	"gameboii/internal/interrupt"
)

// BootROMSize is the only accepted boot ROM size.
const BootROMSize = 0x100

// Memory represents the Game Boy memory map
type Memory struct {
	data [0x10000]uint8

	cartridge  *cartridge.Cartridge
	activeBank int

	// Boot ROM is mapped over 0x0000-0x00FF until 0xFF50 is written
	bootMode bool

	interrupts *interrupt.Controller
	dma        *dma.Controller
	timer      *Timer
	joypad     *input.Controller

	// Unsupported register reads return an error instead of the stored byte
	strictIO bool

	// Receives every byte shifted out of SB
	serialCallback func(uint8)
}

// New creates the address space for cart. A nil bootROM starts the machine in
// the state the boot ROM leaves behind.
func New(cart *cartridge.Cartridge, bootROM []uint8, interrupts *interrupt.Controller) (*Memory, error) {
	if cart == nil {
		return nil, &fault.ConfigurationError{Field: "cartridge", Value: nil, Err: fmt.Errorf("no cartridge")}
	}
	if bootROM != nil && len(bootROM) != BootROMSize {
		return nil, &fault.ConfigurationError{
			Field: "boot rom size",
			Value: len(bootROM),
			Err:   fmt.Errorf("boot ROM must be %d bytes", BootROMSize),
		}
	}
	if interrupts == nil {
		interrupts = interrupt.New()
	}

	m := &Memory{
		cartridge:  cart,
		interrupts: interrupts,
		dma:        dma.New(),
		timer:      NewTimer(interrupts),
		joypad:     input.New(),
		strictIO:   true,
	}
	m.joypad.SetInterruptCallback(func() {
		m.interrupts.Request(interrupt.Joypad)
	})

	copy(m.data[BankZeroStart:BankOneStart], cart.Bank(0))
	m.mapBank(cart.ActiveBank())

	if bootROM != nil {
		copy(m.data[:BootROMSize], bootROM)
		m.bootMode = true
	} else {
		m.initPostBoot()
	}

	glog.V(1).Infof("memory: %s controller, %d banks, boot ROM %t",
		cart.Controller().Name(), cart.BankCount(), m.bootMode)

	return m, nil
}

func (m *Memory) initPostBoot() {
	for address, value := range postBootIO {
		m.data[address] = value
	}
	m.timer.Restore(TimerState{Divider: postBootDivider})
}

// SetStrictIO controls whether reads of unmodeled registers fail
func (m *Memory) SetStrictIO(strict bool) {
	m.strictIO = strict
}

// SetSerialCallback sets the sink for bytes written out through SB/SC
func (m *Memory) SetSerialCallback(callback func(uint8)) {
	m.serialCallback = callback
}

// BootMode reports whether the boot ROM is still mapped
func (m *Memory) BootMode() bool {
	return m.bootMode
}

// Interrupts returns the interrupt controller behind IF
func (m *Memory) Interrupts() *interrupt.Controller {
	return m.interrupts
}

// Joypad returns the controller behind P1
func (m *Memory) Joypad() *input.Controller {
	return m.joypad
}

// Timer returns the timer behind DIV/TIMA/TMA/TAC
func (m *Memory) Timer() *Timer {
	return m.timer
}

// DMAActive reports whether an OAM DMA transfer is in flight
func (m *Memory) DMAActive() bool {
	return m.dma.Active()
}

// RequestInterrupt marks an interrupt as pending
func (m *Memory) RequestInterrupt(kind interrupt.Kind) {
	m.interrupts.Request(kind)
}

// Read reads a byte from the given address
func (m *Memory) Read(address uint16) (uint8, error) {
	if reason, ok := unsupportedReads[address]; ok {
		if m.strictIO {
			return 0, fault.UnsupportedRead(address, reason)
		}
		return 0xFF, nil
	}
	return m.view(address), nil
}

// view returns the byte a read would see, without error checks.
func (m *Memory) view(address uint16) uint8 {
	switch address {
	case P1:
		return m.joypad.Read()
	case DIV, TIMA, TMA, TAC:
		return m.timer.Read(address)
	case IF:
		return m.interrupts.Flags()
	case STAT:
		return statUnused | m.data[address]
	default:
		return m.data[address]
	}
}

// Read16 reads a little-endian word
func (m *Memory) Read16(address uint16) (uint16, error) {
	lo, err := m.Read(address)
	if err != nil {
		return 0, err
	}
	hi, err := m.Read(address + 1)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// Write writes a byte to the given address
func (m *Memory) Write(address uint16, value uint8) error {
	switch {
	case address < ROMEnd:
		if m.bootMode && address < BootROMEnd {
			glog.V(2).Infof("memory: write 0x%02X to boot ROM at 0x%04X", value, address)
		}
		return m.writeCartridge(address, value)

	case address >= EchoStart && address < EchoEnd:
		m.data[address] = value
		m.data[address-echoOffset] = value

	case address >= WRAMStart && address < echoTargetEnd:
		m.data[address] = value
		m.data[address+echoOffset] = value

	case address == BootOff && m.bootMode:
		copy(m.data[:BootROMSize], m.cartridge.ROM()[:BootROMSize])
		m.bootMode = false
		m.data[address] = value
		glog.V(1).Info("memory: boot ROM unmapped")

	case address == IF:
		m.interrupts.WriteFlags(value)

	case address == DMA:
		if m.dma.Active() {
			glog.V(2).Infof("memory: DMA from 0x%04X replaced after %d bytes", m.dma.Source(), m.dma.Copied())
		}
		m.dma.Start(value)
		m.data[address] = value

	case address == LY:
		m.data[address] = 0

	case address == STAT:
		m.data[address] = value&statWritable | m.data[address]&statReadOnly

	case address == P1:
		m.joypad.Write(value)

	case address >= DIV && address <= TAC:
		m.timer.Write(address, value)

	default:
		m.data[address] = value
	}
	return nil
}

// Write16 writes a little-endian word
func (m *Memory) Write16(address uint16, value uint16) error {
	if err := m.Write(address, uint8(value)); err != nil {
		return err
	}
	return m.Write(address+1, uint8(value>>8))
}

func (m *Memory) writeCartridge(address uint16, value uint8) error {
	enabled := m.cartridge.Controller().RAMEnabled()
	if _, err := m.cartridge.HandleWrite(address, value); err != nil {
		return err
	}
	if now := m.cartridge.Controller().RAMEnabled(); now != enabled {
		glog.V(2).Infof("memory: cartridge RAM enabled=%t", now)
	}
	if bank := m.cartridge.ActiveBank(); bank != m.activeBank {
		m.mapBank(bank)
	}
	return nil
}

// mapBank copies the selected bank into 0x4000-0x7FFF
func (m *Memory) mapBank(bank int) {
	copy(m.data[BankOneStart:ROMEnd], m.cartridge.Bank(bank))
	m.activeBank = bank
	glog.V(2).Infof("memory: mapped ROM bank %d", bank)
}

// ActiveBank returns the bank currently copied into 0x4000-0x7FFF
func (m *Memory) ActiveBank() int {
	return m.activeBank
}

// Peek returns the stored byte without side effects or error checks
func (m *Memory) Peek(address uint16) uint8 {
	return m.view(address)
}

// Poke stores a byte without side effects
func (m *Memory) Poke(address uint16, value uint8) {
	m.data[address] = value
}

// Tick services DMA, the serial port and the timer for one cycle
func (m *Memory) Tick(clock uint64) {
	m.dma.Step(clock, m)
	m.serviceSerial()
	m.timer.Step()
}

// serviceSerial completes a transfer as soon as it is started. No peer is
// attached, so the received byte is always 0xFF.
func (m *Memory) serviceSerial() {
	if m.data[SC]&scTransferStart == 0 {
		return
	}
	if m.serialCallback != nil {
		m.serialCallback(m.data[SB])
	}
	m.data[SB] = 0xFF
	m.data[SC] &^= scTransferStart
	m.interrupts.Request(interrupt.Serial)
}

// RAM returns a copy of the address space as the CPU would read it
func (m *Memory) RAM() []uint8 {
	ram := make([]uint8, len(m.data))
	copy(ram, m.data[:])
	for _, address := range []uint16{P1, DIV, TIMA, TMA, TAC, IF, STAT} {
		ram[address] = m.view(address)
	}
	return ram
}

// State is the serializable memory state.
type State struct {
	Data       []uint8                   `json:"data"`
	BootMode   bool                      `json:"boot_mode"`
	ActiveBank int                       `json:"active_bank"`
	Controller cartridge.ControllerState `json:"controller"`
	Timer      TimerState                `json:"timer"`
	DMA        dma.State                 `json:"dma"`
	Interrupts interrupt.State           `json:"interrupts"`
	JoypadP1   uint8                     `json:"joypad_p1"`
}

// State returns a snapshot of the address space and its devices
func (m *Memory) State() State {
	data := make([]uint8, len(m.data))
	copy(data, m.data[:])
	return State{
		Data:       data,
		BootMode:   m.bootMode,
		ActiveBank: m.activeBank,
		Controller: m.cartridge.Controller().State(),
		Timer:      m.timer.State(),
		DMA:        m.dma.State(),
		Interrupts: m.interrupts.State(),
		JoypadP1:   m.joypad.Read(),
	}
}

// Restore loads a snapshot taken from a machine running the same cartridge
func (m *Memory) Restore(s State) error {
	if len(s.Data) != len(m.data) {
		return fmt.Errorf("invalid memory snapshot: %d bytes", len(s.Data))
	}
	copy(m.data[:], s.Data)
	m.bootMode = s.BootMode
	m.cartridge.Controller().Restore(s.Controller)
	m.activeBank = m.cartridge.ActiveBank()
	m.timer.Restore(s.Timer)
	m.dma.Restore(s.DMA)
	m.interrupts.Restore(s.Interrupts)
	m.joypad.Write(s.JoypadP1)
	return nil
}
