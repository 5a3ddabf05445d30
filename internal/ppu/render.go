package ppu

import "gameboii/internal/memory"

// Shades maps a palette level to a 0xRRGGBB grey
var Shades = [4]uint32{0xF0F0F0, 0x989898, 0x454545, 0x000000}

// OffColor fills the screen while the display is switched off
const OffColor uint32 = 0x000000

const (
	mapLow       uint16 = 0x9800
	mapHigh      uint16 = 0x9C00
	tileUnsigned uint16 = 0x8000
	tileSigned   uint16 = 0x9000
	tileBytes           = 16
	mapWidth            = 32
)

// pixel decodes the color of screen position (x, y)
func (p *PPU) pixel(bus Bus, lcdc uint8, x, y int) uint32 {
	if lcdc&lcdcBGEnable == 0 {
		return Shades[0]
	}

	var index uint8
	wx := int(bus.Peek(memory.WX)) - 7
	wy := int(bus.Peek(memory.WY))
	if lcdc&lcdcWindowEnable != 0 && y >= wy && x >= wx {
		base := mapLow
		if lcdc&lcdcWindowMap != 0 {
			base = mapHigh
		}
		p.windowUsed = true
		index = colorIndex(bus, lcdc, base, uint8(x-wx), uint8(p.windowLine))
	} else {
		base := mapLow
		if lcdc&lcdcBGMap != 0 {
			base = mapHigh
		}
		sx := uint8(x) + bus.Peek(memory.SCX)
		sy := uint8(y) + bus.Peek(memory.SCY)
		index = colorIndex(bus, lcdc, base, sx, sy)
	}

	return Shades[Palette(bus.Peek(memory.BGP), index)]
}

// colorIndex returns the 2-bit color index at (x, y) of the 256x256 map at base
func colorIndex(bus Bus, lcdc uint8, base uint16, x, y uint8) uint8 {
	id := bus.Peek(base + uint16(y/8)*mapWidth + uint16(x/8))
	row := TileAddress(lcdc, id) + uint16(y%8)*2
	return TilePixel(bus.Peek(row), bus.Peek(row+1), x%8)
}

// TileAddress resolves a tile id through the addressing mode selected by LCDC bit 4
func TileAddress(lcdc uint8, id uint8) uint16 {
	if lcdc&lcdcTileData != 0 {
		return tileUnsigned + uint16(id)*tileBytes
	}
	return uint16(int(tileSigned) + int(int8(id))*tileBytes)
}

// TilePixel combines the two bitplanes of a tile row for column x (0 is leftmost)
func TilePixel(lo, hi uint8, x uint8) uint8 {
	bit := 7 - x
	return (hi>>bit&1)<<1 | lo>>bit&1
}

// Palette maps a color index through a palette register
func Palette(register uint8, index uint8) uint8 {
	return register >> (index * 2) & 3
}
