package cpu

import (
	"testing"

	"gameboii/internal/interrupt"
)

func enableInterrupts(h *CPUTestHelper, ie uint8) {
	h.Memory.SetBytes(ieRegister, ie)
	h.Interrupts.SetMaster(true)
}

// TestInterruptPriority tests that the lowest set bit wins and the rest stay pending
func TestInterruptPriority(t *testing.T) {
	helper := NewCPUTestHelper()
	enableInterrupts(helper, 0x09)
	helper.LoadProgram(testOrigin, 0x00)

	helper.Interrupts.Request(interrupt.Serial)
	helper.Interrupts.Request(interrupt.VBlank)

	cycles := helper.MustStep(t)

	if helper.CPU.PC != 0x0040 {
		t.Errorf("Expected PC=0x0040, got 0x%04X", helper.CPU.PC)
	}
	if cycles != interrupt.DispatchCycles {
		t.Errorf("Expected %d cycles, got %d", interrupt.DispatchCycles, cycles)
	}
	if helper.Interrupts.Requested() != interrupt.Serial.Bit() {
		t.Errorf("Expected Serial to remain requested, got 0x%02X", helper.Interrupts.Requested())
	}
	if helper.Interrupts.Master() {
		t.Error("Expected master flag cleared after dispatch")
	}
	if helper.CPU.SP != 0xFFFC {
		t.Errorf("Expected SP=0xFFFC, got 0x%04X", helper.CPU.SP)
	}
	helper.AssertMemory(t, "return address high", 0xFFFD, 0xC0)
	helper.AssertMemory(t, "return address low", 0xFFFC, 0x00)
}

// TestInterruptMasked tests that a request outside IE is left alone
func TestInterruptMasked(t *testing.T) {
	helper := NewCPUTestHelper()
	enableInterrupts(helper, 0x01)
	helper.LoadProgram(testOrigin, 0x00)
	helper.Interrupts.Request(interrupt.Timer)

	helper.MustStep(t)

	if helper.CPU.PC != testOrigin+1 {
		t.Errorf("Expected NOP to execute, PC=0x%04X", helper.CPU.PC)
	}
	if helper.Interrupts.Requested() != interrupt.Timer.Bit() {
		t.Errorf("Expected Timer still requested, got 0x%02X", helper.Interrupts.Requested())
	}
}

// TestEIDelay tests that EI takes effect after the instruction that follows it
func TestEIDelay(t *testing.T) {
	helper := NewCPUTestHelper()
	helper.Memory.SetBytes(ieRegister, 0x04)
	helper.LoadProgram(testOrigin, 0xFB, 0x00, 0x00)
	helper.Interrupts.Request(interrupt.Timer)

	helper.MustStep(t) // EI
	if helper.Interrupts.Master() {
		t.Error("Expected master flag still clear after EI")
	}
	helper.MustStep(t) // NOP
	if helper.CPU.PC != testOrigin+2 {
		t.Errorf("Expected NOP after EI to execute, PC=0x%04X", helper.CPU.PC)
	}
	if !helper.Interrupts.Master() {
		t.Error("Expected master flag set after the following instruction")
	}
	helper.MustStep(t)
	if helper.CPU.PC != interrupt.Timer.Vector() {
		t.Errorf("Expected dispatch to 0x%04X, got 0x%04X", interrupt.Timer.Vector(), helper.CPU.PC)
	}
}

// TestDIDelay tests that DI is delayed like EI
func TestDIDelay(t *testing.T) {
	helper := NewCPUTestHelper()
	enableInterrupts(helper, 0x00)
	helper.LoadProgram(testOrigin, 0xF3, 0x00, 0x00)

	helper.MustStep(t)
	if !helper.Interrupts.Master() {
		t.Error("Expected master flag still set after DI")
	}
	helper.MustStep(t)
	if helper.Interrupts.Master() {
		t.Error("Expected master flag clear after the following instruction")
	}
}

// TestRETIEnablesImmediately tests RETI returning with interrupts on at once
func TestRETIEnablesImmediately(t *testing.T) {
	helper := NewCPUTestHelper()
	helper.Memory.SetBytes(ieRegister, 0x01)
	helper.CPU.SP = 0xFFFC
	helper.Memory.SetBytes(0xFFFC, 0x00, 0xD0)
	helper.LoadProgram(testOrigin, 0xD9)

	cycles := helper.MustStep(t)
	if cycles != 16 {
		t.Errorf("Expected 16 cycles, got %d", cycles)
	}
	if helper.CPU.PC != 0xD000 {
		t.Errorf("Expected PC=0xD000, got 0x%04X", helper.CPU.PC)
	}
	if !helper.Interrupts.Master() {
		t.Error("Expected master flag set by RETI")
	}

	helper.Interrupts.Request(interrupt.VBlank)
	helper.MustStep(t)
	if helper.CPU.PC != 0x0040 {
		t.Errorf("Expected dispatch right after RETI, PC=0x%04X", helper.CPU.PC)
	}
}

// TestHaltWakeWithoutMaster tests HALT resuming execution when IME is off
func TestHaltWakeWithoutMaster(t *testing.T) {
	helper := NewCPUTestHelper()
	helper.Memory.SetBytes(ieRegister, 0x04)
	helper.LoadProgram(testOrigin, 0x76, 0x3C)

	helper.MustStep(t)
	if !helper.CPU.Halted() {
		t.Fatal("Expected CPU halted")
	}

	for i := 0; i < 10; i++ {
		helper.MustStep(t)
	}
	if !helper.CPU.Halted() || helper.CPU.PC != testOrigin+1 {
		t.Fatalf("Expected CPU to stay halted, PC=0x%04X", helper.CPU.PC)
	}

	helper.Interrupts.Request(interrupt.Timer)
	helper.MustStep(t)

	if helper.CPU.Halted() {
		t.Error("Expected CPU awake")
	}
	if helper.CPU.Get8(RegA) != 1 {
		t.Errorf("Expected INC A after HALT to run, A=0x%02X", helper.CPU.Get8(RegA))
	}
	if helper.Interrupts.Requested() != interrupt.Timer.Bit() {
		t.Error("Expected the request to stay pending without IME")
	}
}

// TestHaltWakeWithMaster tests HALT followed by dispatch when IME is on
func TestHaltWakeWithMaster(t *testing.T) {
	helper := NewCPUTestHelper()
	enableInterrupts(helper, 0x04)
	helper.LoadProgram(testOrigin, 0x76, 0x00)

	helper.MustStep(t)
	helper.Interrupts.Request(interrupt.Timer)
	helper.MustStep(t)

	if helper.CPU.PC != 0x0050 {
		t.Errorf("Expected PC=0x0050, got 0x%04X", helper.CPU.PC)
	}
	helper.AssertMemory(t, "return address low", 0xFFFC, 0x01)
}
