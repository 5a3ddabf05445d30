package cartridge

// TestROMBuilder builds minimal cartridge images for tests in this and
// dependent packages.
type TestROMBuilder struct {
	title    string
	cartType uint8
	banks    int
	cgbFlag  uint8
	program  []uint8
	origin   uint16
	data     map[int]uint8
	fill     func(bank int) uint8
	checksum bool
}

// NewTestROMBuilder creates a builder for a 32 KiB ROM-only image with the
// entry point at 0x0100.
func NewTestROMBuilder() *TestROMBuilder {
	return &TestROMBuilder{
		title:    "TEST",
		cartType: TypeROMOnly,
		banks:    2,
		origin:   0x0100,
		data:     make(map[int]uint8),
		checksum: true,
	}
}

// WithTitle sets the header title
func (b *TestROMBuilder) WithTitle(title string) *TestROMBuilder {
	b.title = title
	return b
}

// WithType sets the cartridge type byte
func (b *TestROMBuilder) WithType(cartType uint8) *TestROMBuilder {
	b.cartType = cartType
	return b
}

// WithBanks sets the number of 16 KiB banks (a power of two, at least 2)
func (b *TestROMBuilder) WithBanks(banks int) *TestROMBuilder {
	b.banks = banks
	return b
}

// WithCGBFlag sets the byte at 0x0143
func (b *TestROMBuilder) WithCGBFlag(flag uint8) *TestROMBuilder {
	b.cgbFlag = flag
	return b
}

// WithProgram places code at origin
func (b *TestROMBuilder) WithProgram(origin uint16, program ...uint8) *TestROMBuilder {
	b.origin = origin
	b.program = program
	return b
}

// WithByte sets a single byte at an absolute image offset
func (b *TestROMBuilder) WithByte(offset int, value uint8) *TestROMBuilder {
	b.data[offset] = value
	return b
}

// WithBankFill fills every bank with a per-bank marker byte
func (b *TestROMBuilder) WithBankFill(fill func(bank int) uint8) *TestROMBuilder {
	b.fill = fill
	return b
}

// WithoutChecksum leaves the header checksum at zero
func (b *TestROMBuilder) WithoutChecksum() *TestROMBuilder {
	b.checksum = false
	return b
}

// Build assembles the image
func (b *TestROMBuilder) Build() []uint8 {
	rom := make([]uint8, b.banks*BankSize)

	if b.fill != nil {
		for bank := 0; bank < b.banks; bank++ {
			v := b.fill(bank)
			for i := bank * BankSize; i < (bank+1)*BankSize; i++ {
				rom[i] = v
			}
		}
	}

	// Clear the header area so a fill pattern cannot leak into it.
	for i := 0x100; i < 0x150; i++ {
		rom[i] = 0
	}

	copy(rom[titleStart:titleEnd], b.title)
	rom[cgbFlagOffset] = b.cgbFlag
	rom[typeOffset] = b.cartType
	rom[romSizeOffset] = romSizeCode(b.banks)

	copy(rom[b.origin:], b.program)
	for offset, v := range b.data {
		rom[offset] = v
	}

	if b.checksum {
		h := ParseHeader(rom)
		rom[checksumOffset] = h.ComputedChecksum()
	}
	return rom
}

func romSizeCode(banks int) uint8 {
	code := uint8(0)
	for size := 2; size < banks; size <<= 1 {
		code++
	}
	return code
}
