package cpu

import "testing"

// flatBus is a 64KB RAM used only to drive the CPU engine in isolation;
// real systems wire the CPU to the bus package instead.
type flatBus struct {
	mem [0x10000]uint8
}

func (b *flatBus) Read(addr uint16) uint8      { return b.mem[addr] }
func (b *flatBus) Write(addr uint16, v uint8) { b.mem[addr] = v }

func newTestCPU(program []uint8, at uint16) (*CPU, *flatBus) {
	bus := &flatBus{}
	copy(bus.mem[at:], program)
	bus.mem[resetVector] = uint8(at)
	bus.mem[resetVector+1] = uint8(at >> 8)
	c := New()
	c.Reset(bus)
	return c, bus
}

// runUntilRetire ticks the CPU until exactly one instruction has retired,
// returning the number of cycles it consumed.
func runUntilRetire(c *CPU, bus MemoryBus) int {
	n := 0
	for {
		n++
		if c.Tick(bus) {
			return n
		}
		if n > 20 {
			panic("instruction did not retire")
		}
	}
}

func TestResetVectorAndPowerUpState(t *testing.T) {
	c, _ := newTestCPU([]uint8{0xEA}, 0x8000)
	if c.PC != 0x8000 {
		t.Fatalf("PC = %#04x, want 0x8000", c.PC)
	}
	if c.S != 0xFD {
		t.Fatalf("S = %#02x, want 0xFD", c.S)
	}
	if !c.I {
		t.Fatal("I flag should be set after reset")
	}
	if c.Cycles != 7 {
		t.Fatalf("reset should consume 7 cycles, got %d", c.Cycles)
	}
}

func TestLDAImmediateFlags(t *testing.T) {
	c, bus := newTestCPU([]uint8{0xA9, 0x00, 0xA9, 0x80, 0xA9, 0x05}, 0x8000)

	n := runUntilRetire(c, bus)
	if n != 2 {
		t.Fatalf("LDA # took %d cycles, want 2", n)
	}
	if c.A != 0 || !c.Z || c.N {
		t.Fatalf("LDA #0: A=%#02x Z=%v N=%v", c.A, c.Z, c.N)
	}

	runUntilRetire(c, bus)
	if c.A != 0x80 || c.Z || !c.N {
		t.Fatalf("LDA #$80: A=%#02x Z=%v N=%v", c.A, c.Z, c.N)
	}

	runUntilRetire(c, bus)
	if c.A != 0x05 || c.Z || c.N {
		t.Fatalf("LDA #$05: A=%#02x Z=%v N=%v", c.A, c.Z, c.N)
	}
}

func TestADCOverflowAndCarry(t *testing.T) {
	c, bus := newTestCPU([]uint8{0xA9, 0x7F, 0x69, 0x01}, 0x8000)
	runUntilRetire(c, bus)
	runUntilRetire(c, bus)
	if c.A != 0x80 {
		t.Fatalf("A = %#02x, want 0x80", c.A)
	}
	if !c.V {
		t.Fatal("signed overflow should set V (0x7F+1 overflows into negative)")
	}
	if c.C {
		t.Fatal("C should be clear, no unsigned carry out of 0x7F+1")
	}
}

func TestAbsoluteXCycleCountOnPageCross(t *testing.T) {
	// LDA $20FF,X with X=1 crosses into $2100: 5 cycles instead of 4.
	prog := []uint8{0xA2, 0x01, 0xBD, 0xFF, 0x20}
	c, bus := newTestCPU(prog, 0x8000)
	runUntilRetire(c, bus) // LDX #1
	bus.mem[0x2100] = 0x42
	n := runUntilRetire(c, bus)
	if n != 5 {
		t.Fatalf("LDA abs,X crossing page took %d cycles, want 5", n)
	}
	if c.A != 0x42 {
		t.Fatalf("A = %#02x, want 0x42", c.A)
	}
}

func TestAbsoluteXCycleCountNoPageCross(t *testing.T) {
	prog := []uint8{0xA2, 0x01, 0xBD, 0x00, 0x20}
	c, bus := newTestCPU(prog, 0x8000)
	runUntilRetire(c, bus)
	bus.mem[0x2001] = 0x7

	n := runUntilRetire(c, bus)
	if n != 4 {
		t.Fatalf("LDA abs,X without crossing took %d cycles, want 4", n)
	}
}

func TestBranchCycleCounts(t *testing.T) {
	// BEQ not taken (Z clear after LDA #1): 2 cycles.
	c, bus := newTestCPU([]uint8{0xA9, 0x01, 0xF0, 0x10}, 0x8000)
	runUntilRetire(c, bus)
	if n := runUntilRetire(c, bus); n != 2 {
		t.Fatalf("BEQ not-taken took %d cycles, want 2", n)
	}

	// BEQ taken, same page: 3 cycles.
	c, bus = newTestCPU([]uint8{0xA9, 0x00, 0xF0, 0x10}, 0x8000)
	runUntilRetire(c, bus)
	if n := runUntilRetire(c, bus); n != 3 {
		t.Fatalf("BEQ taken same-page took %d cycles, want 3", n)
	}
	if c.PC != 0x8014 {
		t.Fatalf("PC after taken branch = %#04x, want 0x8014", c.PC)
	}
}

func TestBranchTakenCrossesPage(t *testing.T) {
	prog := make([]uint8, 0x100)
	prog[0xFB] = 0xA9 // LDA #0 at $80FB
	prog[0xFC] = 0x00
	prog[0xFD] = 0xF0 // BEQ at $80FD, operand at $80FE
	prog[0xFE] = 0x05 // offset +5; PC after operand fetch is $80FF, so this crosses into $8104
	c, bus := newTestCPU(prog, 0x8000)
	c.PC = 0x80FB // start at the LDA, not at the zero (BRK) bytes before it
	runUntilRetire(c, bus)
	if n := runUntilRetire(c, bus); n != 4 {
		t.Fatalf("BEQ taken crossing page took %d cycles, want 4", n)
	}
	if c.PC != 0x8104 {
		t.Fatalf("PC after crossing branch = %#04x, want 0x8104", c.PC)
	}
}

func TestJSRThenRTS(t *testing.T) {
	prog := []uint8{
		0x20, 0x06, 0x80, // JSR $8006
		0xEA,             // (skipped) NOP
		0x00, 0x00,       // padding
		0xA9, 0x42, // $8006: LDA #$42
		0x60, // RTS
	}
	c, bus := newTestCPU(prog, 0x8000)
	if n := runUntilRetire(c, bus); n != 6 {
		t.Fatalf("JSR took %d cycles, want 6", n)
	}
	if c.PC != 0x8006 {
		t.Fatalf("PC after JSR = %#04x, want 0x8006", c.PC)
	}
	runUntilRetire(c, bus) // LDA #$42
	if n := runUntilRetire(c, bus); n != 6 {
		t.Fatalf("RTS took %d cycles, want 6", n)
	}
	if c.PC != 0x8003 {
		t.Fatalf("PC after RTS = %#04x, want 0x8003 (back past the JSR operand)", c.PC)
	}
}

func TestNMITakesPriorityOverIRQ(t *testing.T) {
	c, bus := newTestCPU([]uint8{0xEA, 0xEA, 0xEA}, 0x8000)
	bus.mem[nmiVector] = 0x00
	bus.mem[nmiVector+1] = 0x90
	bus.mem[irqVector] = 0x00
	bus.mem[irqVector+1] = 0xA0
	c.I = false

	c.SetIRQLine(true)
	c.SetNMILine(true)

	runUntilRetire(c, bus) // NOP, polls early and latches both; NMI wins
	n := runUntilRetire(c, bus)
	if n != 7 {
		t.Fatalf("interrupt sequence took %d cycles, want 7", n)
	}
	if c.PC != 0x9000 {
		t.Fatalf("PC = %#04x, want 0x9000 (NMI vector), IRQ should not have won", c.PC)
	}
}

func TestJamHaltsCPU(t *testing.T) {
	c, bus := newTestCPU([]uint8{0x02}, 0x8000)
	c.Tick(bus)
	if !c.Jammed {
		t.Fatal("expected CPU to be jammed after executing opcode 0x02")
	}
	pc := c.PC
	for i := 0; i < 5; i++ {
		c.Tick(bus)
	}
	if c.PC != pc {
		t.Fatal("jammed CPU should not advance PC")
	}
}

func TestStackPushPull(t *testing.T) {
	c, bus := newTestCPU([]uint8{0xA9, 0x55, 0x48, 0xA9, 0x00, 0x68}, 0x8000)
	runUntilRetire(c, bus) // LDA #$55
	runUntilRetire(c, bus) // PHA
	runUntilRetire(c, bus) // LDA #0
	runUntilRetire(c, bus) // PLA
	if c.A != 0x55 {
		t.Fatalf("A after PLA = %#02x, want 0x55", c.A)
	}
}
