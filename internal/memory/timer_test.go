package memory

import (
	"testing"

	"gameboii/internal/interrupt"
)

func TestTimerPeriods(t *testing.T) {
	tests := []struct {
		tac    uint8
		period int
	}{
		{0x04, 1024},
		{0x05, 16},
		{0x06, 64},
		{0x07, 256},
	}

	for _, test := range tests {
		timer := NewTimer(interrupt.New())
		timer.Write(TAC, test.tac)
		timer.Write(DIV, 0)

		for i := 0; i < test.period-1; i++ {
			timer.Step()
		}
		if got := timer.Read(TIMA); got != 0 {
			t.Errorf("TAC 0x%02X: Expected TIMA 0 after %d cycles, got %d", test.tac, test.period-1, got)
		}
		timer.Step()
		if got := timer.Read(TIMA); got != 1 {
			t.Errorf("TAC 0x%02X: Expected TIMA 1 after %d cycles, got %d", test.tac, test.period, got)
		}
	}
}

func TestTimerDisabled(t *testing.T) {
	timer := NewTimer(interrupt.New())
	timer.Write(TAC, 0x01)
	for i := 0; i < 4096; i++ {
		timer.Step()
	}
	if got := timer.Read(TIMA); got != 0 {
		t.Errorf("Expected stopped timer, got TIMA %d", got)
	}
}

func TestTimerOverflowReloadsAndRequests(t *testing.T) {
	ic := interrupt.New()
	timer := NewTimer(ic)
	timer.Write(TMA, 0xF0)
	timer.Write(TIMA, 0xFF)
	timer.Write(TAC, 0x05)
	timer.Write(DIV, 0)

	for i := 0; i < 16; i++ {
		timer.Step()
	}

	if got := timer.Read(TIMA); got != 0xF0 {
		t.Errorf("Expected TIMA reloaded with 0xF0, got 0x%02X", got)
	}
	if ic.Requested()&interrupt.Timer.Bit() == 0 {
		t.Error("Expected Timer interrupt requested on overflow")
	}
}

func TestDividerIsHighByte(t *testing.T) {
	timer := NewTimer(nil)
	for i := 0; i < 0x2FF; i++ {
		timer.Step()
	}
	if got := timer.Read(DIV); got != 0x02 {
		t.Errorf("Expected DIV 0x02, got 0x%02X", got)
	}
	timer.Write(DIV, 0x55)
	if timer.Divider() != 0 {
		t.Errorf("Expected divider reset, got 0x%04X", timer.Divider())
	}
}
