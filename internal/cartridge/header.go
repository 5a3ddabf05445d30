package cartridge

import "strings"

// Header offsets.
const (
	titleStart     = 0x134
	titleEnd       = 0x144
	cgbFlagOffset  = 0x143
	sgbFlagOffset  = 0x146
	typeOffset     = 0x147
	romSizeOffset  = 0x148
	ramSizeOffset  = 0x149
	checksumOffset = 0x14D
	checksumStart  = 0x134
	checksumEnd    = 0x14C
)

// Cartridge type bytes.
const (
	TypeROMOnly uint8 = 0x00
	TypeMBC1    uint8 = 0x01
)

// CGB flag values.
const (
	CGBCompatible uint8 = 0x80
	CGBOnly       uint8 = 0xC0
)

// Header holds the fields of the cartridge header at 0x0134-0x014F.
type Header struct {
	Title          string
	CGBFlag        uint8
	SGBFlag        uint8
	Type           uint8
	ROMSizeCode    uint8
	RAMSizeCode    uint8
	HeaderChecksum uint8

	checksumBytes [checksumEnd - checksumStart + 1]uint8
}

// ParseHeader reads the header from an image of at least 0x150 bytes.
func ParseHeader(rom []uint8) Header {
	title := string(rom[titleStart:titleEnd])
	if i := strings.IndexByte(title, 0); i >= 0 {
		title = title[:i]
	}

	h := Header{
		Title:          strings.TrimSpace(title),
		CGBFlag:        rom[cgbFlagOffset],
		SGBFlag:        rom[sgbFlagOffset],
		Type:           rom[typeOffset],
		ROMSizeCode:    rom[romSizeOffset],
		RAMSizeCode:    rom[ramSizeOffset],
		HeaderChecksum: rom[checksumOffset],
	}
	copy(h.checksumBytes[:], rom[checksumStart:checksumEnd+1])
	return h
}

// ComputedChecksum is the checksum the boot ROM verifies over 0x0134-0x014C.
func (h Header) ComputedChecksum() uint8 {
	var x uint8
	for _, b := range h.checksumBytes {
		x = x - b - 1
	}
	return x
}

// ROMSizeBytes decodes the ROM size code. ok is false for unknown codes.
func (h Header) ROMSizeBytes() (int, bool) {
	if h.ROMSizeCode > 8 {
		return 0, false
	}
	return 0x8000 << h.ROMSizeCode, true
}

// RAMSizeBytes decodes the external RAM size code.
func (h Header) RAMSizeBytes() int {
	switch h.RAMSizeCode {
	case 0x01:
		return 0x800
	case 0x02:
		return 0x2000
	case 0x03:
		return 0x8000
	case 0x04:
		return 0x20000
	case 0x05:
		return 0x10000
	default:
		return 0
	}
}
