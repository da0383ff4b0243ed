package bus

import (
	"bytes"
	"testing"

	"github.com/nesgo/gones/internal/cartridge"
)

// buildNROM assembles a minimal 32KB-PRG/8KB-CHR iNES image (mapper 0, two
// PRG banks so $8000-$FFFF maps 1:1 onto prg with no mirroring), with prg
// placed at CPU address $8000 and the reset vector pointed at it.
func buildNROM(prg []uint8) *cartridge.Cartridge {
	var buf bytes.Buffer
	buf.WriteString("NES\x1a")
	buf.WriteByte(2) // 2 * 16KB PRG
	buf.WriteByte(1) // 1 * 8KB CHR
	buf.WriteByte(0) // flags6: mapper low nibble 0, horizontal mirroring
	buf.WriteByte(0) // flags7
	buf.Write(make([]byte, 8))

	prgROM := make([]byte, 0x8000)
	copy(prgROM, prg)
	prgROM[0x7FFC] = 0x00
	prgROM[0x7FFD] = 0x80
	buf.Write(prgROM)
	buf.Write(make([]byte, 0x2000))

	cart, err := cartridge.LoadFromReader(&buf)
	if err != nil {
		panic(err)
	}
	return cart
}

func TestResetLoadsPCFromVector(t *testing.T) {
	b := New()
	b.LoadCartridge(buildNROM([]uint8{0xEA}))

	if b.CPU.PC != 0x8000 {
		t.Fatalf("PC after reset = %#04x, want 0x8000", b.CPU.PC)
	}
}

func TestTickAdvancesPPUThreeCyclesPerCPUCycle(t *testing.T) {
	b := New()
	b.LoadCartridge(buildNROM([]uint8{0xEA, 0xEA}))

	startCycle := b.PPU.GetCycle()
	if err := b.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	gotDelta := b.PPU.GetCycle() - startCycle
	if gotDelta != 3 {
		t.Fatalf("PPU cycle advanced by %d in one Bus.Tick, want 3", gotDelta)
	}
}

func TestOAMDATARoundTrip(t *testing.T) {
	b := New()
	b.LoadCartridge(buildNROM([]uint8{0xEA}))

	b.PPU.WriteRegister(0x2003, 0x10) // OAMADDR
	b.PPU.WriteRegister(0x2004, 0x99) // OAMDATA
	b.PPU.WriteRegister(0x2003, 0x10)
	if got := b.PPU.ReadRegister(0x2004); got != 0x99 {
		t.Fatalf("OAMDATA round trip = %#02x, want 0x99", got)
	}
}

func TestOpenBusRoundTrip(t *testing.T) {
	b := New()
	b.LoadCartridge(buildNROM([]uint8{0xEA}))

	b.Mem.Read(0x8000) // drives 0xEA onto the open-bus latch
	if got := b.Mem.Read(0x4018); got != 0xEA {
		t.Fatalf("open-bus read at unmapped $4018 = %#02x, want 0xEA", got)
	}
}

func TestOAMDMAStallsBusFor513Or514Cycles(t *testing.T) {
	b := New()
	// STA $4014 (#$00) then an infinite JMP back to itself.
	prg := []uint8{0xA9, 0x00, 0x8D, 0x14, 0x40, 0x4C, 0x05, 0x80}
	b.LoadCartridge(buildNROM(prg))

	// Run the LDA and STA instructions (2 + 4 CPU cycles).
	for i := 0; i < 6; i++ {
		if err := b.Tick(); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	if b.stallCycles != 513 && b.stallCycles != 514 {
		t.Fatalf("stallCycles after OAM DMA trigger = %d, want 513 or 514", b.stallCycles)
	}

	wantStall := b.stallCycles
	pcBefore := b.CPU.PC
	for i := 0; i < wantStall; i++ {
		if err := b.Tick(); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	if b.CPU.PC != pcBefore {
		t.Fatalf("CPU advanced during DMA stall: PC %#04x -> %#04x", pcBefore, b.CPU.PC)
	}
	if b.stallCycles != 0 {
		t.Fatalf("stallCycles after consuming the stall window = %d, want 0", b.stallCycles)
	}
}

func TestRunToVBlankReachesFrame(t *testing.T) {
	b := New()
	b.LoadCartridge(buildNROM([]uint8{0xEA, 0x4C, 0x00, 0x80}))

	ran, frame := b.RunToVBlank(3 * 29781)
	if !frame {
		t.Fatalf("RunToVBlank did not reach vblank within budget (ran %d cycles)", ran)
	}
	if b.PPU.GetScanline() != 241 || b.PPU.GetCycle() != 1 {
		t.Fatalf("RunToVBlank stopped at scanline=%d cycle=%d, want 241,1", b.PPU.GetScanline(), b.PPU.GetCycle())
	}
}

func TestJamOpcodeLatchesFault(t *testing.T) {
	b := New()
	b.LoadCartridge(buildNROM([]uint8{0x02})) // JAM/KIL

	if err := b.Tick(); err == nil {
		t.Fatal("expected a JamError from the JAM opcode")
	}
	if b.Fault == nil {
		t.Fatal("Fault should be latched after a JAM opcode")
	}
	pc := b.CPU.PC
	if err := b.Tick(); err == nil {
		t.Fatal("Tick should keep returning the fault once latched")
	}
	if b.CPU.PC != pc {
		t.Fatal("a jammed CPU should not advance on further Tick calls")
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	b := New()
	b.LoadCartridge(buildNROM([]uint8{0xA9, 0x42, 0x85, 0x10, 0x4C, 0x00, 0x80}))

	for i := 0; i < 6; i++ {
		b.Tick()
	}
	snap := b.Snapshot()

	for i := 0; i < 100; i++ {
		b.Tick()
	}
	advancedPC := b.CPU.PC

	b.Restore(snap)
	if b.CPU.PC == advancedPC {
		t.Fatal("Restore should roll PC back to the snapshot point")
	}
	if b.Mem.Read(0x0010) != 0x42 {
		t.Fatalf("restored RAM at $0010 = %#02x, want 0x42", b.Mem.Read(0x0010))
	}
}
