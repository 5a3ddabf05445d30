package memory

// Memory map regions
const (
	BootROMEnd    uint16 = 0x0100
	BankZeroStart uint16 = 0x0000
	BankOneStart  uint16 = 0x4000
	ROMEnd        uint16 = 0x8000
	VRAMStart     uint16 = 0x8000
	ExtRAMStart   uint16 = 0xA000
	WRAMStart     uint16 = 0xC000
	EchoStart     uint16 = 0xE000
	EchoEnd       uint16 = 0xFE00
	OAMStart      uint16 = 0xFE00
	OAMEnd        uint16 = 0xFEA0
	IOStart       uint16 = 0xFF00
	HRAMStart     uint16 = 0xFF80

	// echoOffset is the distance between work RAM and its echo
	echoOffset = EchoStart - WRAMStart
	// echoTargetEnd is the end of the work RAM mirrored by the echo
	echoTargetEnd = EchoEnd - echoOffset
)

// I/O registers
const (
	P1   uint16 = 0xFF00
	SB   uint16 = 0xFF01
	SC   uint16 = 0xFF02
	DIV  uint16 = 0xFF04
	TIMA uint16 = 0xFF05
	TMA  uint16 = 0xFF06
	TAC  uint16 = 0xFF07
	IF   uint16 = 0xFF0F

	NR11 uint16 = 0xFF11
	NR14 uint16 = 0xFF14
	NR21 uint16 = 0xFF16
	NR24 uint16 = 0xFF19
	NR30 uint16 = 0xFF1A
	NR32 uint16 = 0xFF1C
	NR34 uint16 = 0xFF1E
	NR44 uint16 = 0xFF23
	NR52 uint16 = 0xFF26

	LCDC uint16 = 0xFF40
	STAT uint16 = 0xFF41
	SCY  uint16 = 0xFF42
	SCX  uint16 = 0xFF43
	LY   uint16 = 0xFF44
	LYC  uint16 = 0xFF45
	DMA  uint16 = 0xFF46
	BGP  uint16 = 0xFF47
	OBP0 uint16 = 0xFF48
	OBP1 uint16 = 0xFF49
	WY   uint16 = 0xFF4A
	WX   uint16 = 0xFF4B

	BootOff uint16 = 0xFF50
	IE      uint16 = 0xFFFF
)

// Registers that cannot be read back on the DMG and are not modeled.
var unsupportedReads = map[uint16]string{
	NR11: "NR11 sound length/duty",
	NR14: "NR14 sound frequency high",
	NR21: "NR21 sound length/duty",
	NR24: "NR24 sound frequency high",
	NR30: "NR30 sound on/off",
	NR32: "NR32 sound output level",
	NR34: "NR34 sound frequency high",
	NR44: "NR44 sound counter",
	NR52: "NR52 sound on/off",
}

// STAT bits
const (
	statWritable uint8 = 0x78
	statReadOnly uint8 = 0x07
	statUnused   uint8 = 0x80
)

// SC bits
const scTransferStart uint8 = 0x80

// Register values left behind by the DMG boot ROM.
var postBootIO = map[uint16]uint8{
	SC:      0x7E,
	LCDC:    0x91,
	STAT:    0x85,
	BGP:     0xFC,
	OBP0:    0xFF,
	OBP1:    0xFF,
	BootOff: 0x01,
}

// postBootDivider is the internal divider value at PC 0x0100
const postBootDivider uint16 = 0xABCC
