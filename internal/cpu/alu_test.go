package cpu

import "testing"

func TestAdd8Exhaustive(t *testing.T) {
	for a := 0; a < 0x100; a++ {
		for b := 0; b < 0x100; b++ {
			r, carry, half := add8(uint8(a), uint8(b))
			if r != uint8(a+b) || carry != (a+b > 0xFF) || half != ((a&0xF)+(b&0xF) > 0xF) {
				t.Fatalf("add8(0x%02X, 0x%02X) = 0x%02X c=%t h=%t", a, b, r, carry, half)
			}
		}
	}
}

func TestSub8Exhaustive(t *testing.T) {
	for a := 0; a < 0x100; a++ {
		for b := 0; b < 0x100; b++ {
			r, borrow, half := sub8(uint8(a), uint8(b))
			if r != uint8(a-b) || borrow != (a < b) || half != ((a&0xF) < (b&0xF)) {
				t.Fatalf("sub8(0x%02X, 0x%02X) = 0x%02X c=%t h=%t", a, b, r, borrow, half)
			}
		}
	}
}

func TestCarryIn(t *testing.T) {
	tests := []struct {
		name      string
		fn        func(a, b uint8, c bool) (uint8, bool, bool)
		a, b      uint8
		carryIn   bool
		want      uint8
		wantCarry bool
		wantHalf  bool
	}{
		{"adc half from carry-in", adc8, 0x0F, 0x00, true, 0x10, false, true},
		{"adc full from carry-in", adc8, 0xFF, 0x00, true, 0x00, true, true},
		{"adc no carry-in", adc8, 0x0F, 0x00, false, 0x0F, false, false},
		{"sbc half from carry-in", sbc8, 0x10, 0x00, true, 0x0F, false, true},
		{"sbc borrow from carry-in", sbc8, 0x00, 0x00, true, 0xFF, true, true},
		{"sbc no carry-in", sbc8, 0x3B, 0x2A, false, 0x11, false, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r, carry, half := test.fn(test.a, test.b, test.carryIn)
			if r != test.want || carry != test.wantCarry || half != test.wantHalf {
				t.Errorf("Expected 0x%02X c=%t h=%t, got 0x%02X c=%t h=%t",
					test.want, test.wantCarry, test.wantHalf, r, carry, half)
			}
		})
	}
}

func TestAdd16HalfCarryFromBit11(t *testing.T) {
	tests := []struct {
		a, b      uint16
		want      uint16
		wantCarry bool
		wantHalf  bool
	}{
		{0x0FFF, 0x0001, 0x1000, false, true},
		{0x00FF, 0x0001, 0x0100, false, false},
		{0xFFFF, 0x0001, 0x0000, true, true},
		{0x8A23, 0x0605, 0x9028, false, true},
	}
	for _, test := range tests {
		r, carry, half := add16(test.a, test.b)
		if r != test.want || carry != test.wantCarry || half != test.wantHalf {
			t.Errorf("add16(0x%04X, 0x%04X): Expected 0x%04X c=%t h=%t, got 0x%04X c=%t h=%t",
				test.a, test.b, test.want, test.wantCarry, test.wantHalf, r, carry, half)
		}
	}

	r, borrow, half := sub16(0x1000, 0x0001)
	if r != 0x0FFF || borrow || !half {
		t.Errorf("sub16(0x1000, 1): Expected 0x0FFF c=false h=true, got 0x%04X c=%t h=%t", r, borrow, half)
	}
}

func TestAddSignedUsesLowByte(t *testing.T) {
	tests := []struct {
		base      uint16
		offset    uint8
		want      uint16
		wantCarry bool
		wantHalf  bool
	}{
		{0xFFF8, 0x08, 0x0000, true, true},
		{0x0005, 0xFE, 0x0003, true, true},
		{0x1000, 0x80, 0x0F80, false, false},
		{0x0000, 0xFF, 0xFFFF, false, false},
		{0xC002, 0x05, 0xC007, false, false},
	}
	for _, test := range tests {
		r, carry, half := addSigned(test.base, test.offset)
		if r != test.want || carry != test.wantCarry || half != test.wantHalf {
			t.Errorf("addSigned(0x%04X, %d): Expected 0x%04X c=%t h=%t, got 0x%04X c=%t h=%t",
				test.base, int8(test.offset), test.want, test.wantCarry, test.wantHalf, r, carry, half)
		}
	}
}

func toBCD(n int) uint8 {
	return uint8(n/10<<4 | n%10)
}

func TestDAAAddition(t *testing.T) {
	for a := 0; a < 100; a++ {
		for b := 0; b < 100; b++ {
			r, carry, half := add8(toBCD(a), toBCD(b))
			got, gotCarry := daa(r, false, half, carry)
			if got != toBCD((a+b)%100) || gotCarry != (a+b >= 100) {
				t.Fatalf("%d+%d: Expected 0x%02X c=%t, got 0x%02X c=%t",
					a, b, toBCD((a+b)%100), a+b >= 100, got, gotCarry)
			}
		}
	}
}

func TestDAASubtraction(t *testing.T) {
	for a := 0; a < 100; a++ {
		for b := 0; b < 100; b++ {
			r, borrow, half := sub8(toBCD(a), toBCD(b))
			got, gotCarry := daa(r, true, half, borrow)
			want := toBCD((a - b + 100) % 100)
			if got != want || gotCarry != (a < b) {
				t.Fatalf("%d-%d: Expected 0x%02X c=%t, got 0x%02X c=%t", a, b, want, a < b, got, gotCarry)
			}
		}
	}
}

func TestRotates(t *testing.T) {
	check := func(name string, got uint8, carry bool, want uint8, wantCarry bool) {
		t.Helper()
		if got != want || carry != wantCarry {
			t.Errorf("%s: Expected 0x%02X c=%t, got 0x%02X c=%t", name, want, wantCarry, got, carry)
		}
	}

	r, c := rlc(0x85)
	check("rlc", r, c, 0x0B, true)
	r, c = rrc(0x3B)
	check("rrc", r, c, 0x9D, true)
	r, c = rl(0x95, true)
	check("rl", r, c, 0x2B, true)
	r, c = rr(0x81, false)
	check("rr", r, c, 0x40, true)
	r, c = sla(0x80)
	check("sla", r, c, 0x00, true)
	r, c = sra(0x8A)
	check("sra", r, c, 0xC5, false)
	r, c = srl(0x01)
	check("srl", r, c, 0x00, true)
	check("swap", swap(0xF1), false, 0x1F, false)
}
