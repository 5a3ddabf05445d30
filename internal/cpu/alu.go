package cpu

// add8 returns a+b with carry out of bit 7 and bit 3
func add8(a, b uint8) (r uint8, carry, half bool) {
	sum := uint16(a) + uint16(b)
	return uint8(sum), sum > 0xFF, (a&0x0F)+(b&0x0F) > 0x0F
}

// adc8 is add8 with a carry-in counted in both carry and half-carry
func adc8(a, b uint8, carryIn bool) (r uint8, carry, half bool) {
	c := uint16(0)
	if carryIn {
		c = 1
	}
	sum := uint16(a) + uint16(b) + c
	return uint8(sum), sum > 0xFF, uint16(a&0x0F)+uint16(b&0x0F)+c > 0x0F
}

// sub8 returns a-b with borrow out of bit 7 and bit 3
func sub8(a, b uint8) (r uint8, borrow, half bool) {
	return a - b, b > a, b&0x0F > a&0x0F
}

// sbc8 is sub8 with a borrow-in counted in both borrow and half-borrow
func sbc8(a, b uint8, carryIn bool) (r uint8, borrow, half bool) {
	c := 0
	if carryIn {
		c = 1
	}
	diff := int(a) - int(b) - c
	return uint8(diff), diff < 0, int(a&0x0F)-int(b&0x0F)-c < 0
}

// add16 returns a+b with carry out of bit 15 and bit 11
func add16(a, b uint16) (r uint16, carry, half bool) {
	sum := uint32(a) + uint32(b)
	return uint16(sum), sum > 0xFFFF, (a&0x0FFF)+(b&0x0FFF) > 0x0FFF
}

// sub16 returns a-b with borrow out of bit 15 and bit 11
func sub16(a, b uint16) (r uint16, borrow, half bool) {
	return a - b, b > a, b&0x0FFF > a&0x0FFF
}

// addSigned adds a sign-extended offset to base. Carry and half-carry come
// from the unsigned addition of the offset to the low byte of base.
func addSigned(base uint16, offset uint8) (r uint16, carry, half bool) {
	_, carry, half = add8(uint8(base), offset)
	return base + uint16(int16(int8(offset))), carry, half
}

// daa adjusts a to packed BCD after an addition (n clear) or subtraction
func daa(a uint8, n, h, c bool) (uint8, bool) {
	if !n {
		if c || a > 0x99 {
			a += 0x60
			c = true
		}
		if h || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if c {
			a -= 0x60
		}
		if h {
			a -= 0x06
		}
	}
	return a, c
}

func rlc(v uint8) (uint8, bool) {
	return v<<1 | v>>7, v&0x80 != 0
}

func rrc(v uint8) (uint8, bool) {
	return v>>1 | v<<7, v&0x01 != 0
}

func rl(v uint8, carryIn bool) (uint8, bool) {
	r := v << 1
	if carryIn {
		r |= 0x01
	}
	return r, v&0x80 != 0
}

func rr(v uint8, carryIn bool) (uint8, bool) {
	r := v >> 1
	if carryIn {
		r |= 0x80
	}
	return r, v&0x01 != 0
}

func sla(v uint8) (uint8, bool) {
	return v << 1, v&0x80 != 0
}

func sra(v uint8) (uint8, bool) {
	return v>>1 | v&0x80, v&0x01 != 0
}

func srl(v uint8) (uint8, bool) {
	return v >> 1, v&0x01 != 0
}

func swap(v uint8) uint8 {
	return v<<4 | v>>4
}
