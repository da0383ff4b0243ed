package ppu

import (
	"testing"

	"github.com/nesgo/gones/internal/cartridge"
	"github.com/nesgo/gones/internal/memory"
)

type stubMapper struct {
	chr [0x10000]uint8
}

func (s *stubMapper) ReadPRG(uint16) uint8           { return 0 }
func (s *stubMapper) WritePRG(uint16, uint8)         {}
func (s *stubMapper) ReadCHR(addr uint16) uint8      { return s.chr[addr] }
func (s *stubMapper) WriteCHR(addr uint16, v uint8)  { s.chr[addr] = v }
func (s *stubMapper) Mirror() cartridge.MirrorMode   { return cartridge.MirrorHorizontal }
func (s *stubMapper) IRQ() bool                      { return false }
func (s *stubMapper) CPUTick()                       {}
func (s *stubMapper) PPUTick(uint16)                 {}
func (s *stubMapper) Clone(*cartridge.Cartridge) cartridge.Mapper { clone := *s; return &clone }

func newTestPPU() (*PPU, *stubMapper) {
	mapper := &stubMapper{}
	p := New()
	p.Reset()
	p.SetMemory(memory.NewPPUMemory(mapper))
	return p, mapper
}

func TestRegisterWritesGatedDuringWarmup(t *testing.T) {
	p, _ := newTestPPU()
	p.SetCPUCycle(100)

	p.WriteRegister(0x2000, 0x80)
	if p.ppuCtrl != 0 {
		t.Fatalf("PPUCTRL write during warmup should be ignored, got %#02x", p.ppuCtrl)
	}

	p.SetCPUCycle(warmupCycles)
	p.WriteRegister(0x2000, 0x80)
	if p.ppuCtrl != 0x80 {
		t.Fatalf("PPUCTRL write after warmup should apply, got %#02x", p.ppuCtrl)
	}
}

func TestOAMAddrNotGatedDuringWarmup(t *testing.T) {
	p, _ := newTestPPU()
	p.SetCPUCycle(0)
	p.WriteRegister(0x2003, 0x10)
	if p.oamAddr != 0x10 {
		t.Fatalf("OAMADDR should never be gated by warmup, got %#02x", p.oamAddr)
	}
}

func TestPPUStatusReadClearsVBLAndLatch(t *testing.T) {
	p, _ := newTestPPU()
	p.SetCPUCycle(warmupCycles)
	p.ppuStatus = 0xE0
	p.w = true

	status := p.ReadRegister(0x2002)
	if status != 0xE0 {
		t.Fatalf("PPUSTATUS read returned %#02x, want 0xE0", status)
	}
	if p.ppuStatus&0x80 != 0 {
		t.Fatal("VBL flag should be cleared after PPUSTATUS read")
	}
	if p.w {
		t.Fatal("write latch should be cleared after PPUSTATUS read")
	}
}

func TestVBlankSetAndNMITriggered(t *testing.T) {
	p, _ := newTestPPU()
	p.SetCPUCycle(warmupCycles)
	p.WriteRegister(0x2000, 0x80) // enable NMI on VBlank

	nmiFired := false
	p.SetNMICallback(func() { nmiFired = true })

	p.scanline = 240
	p.cycle = 340
	p.Step() // rolls over to scanline 241, cycle 0
	p.Step() // scanline 241, cycle 1: VBL set, NMI fires

	if p.ppuStatus&0x80 == 0 {
		t.Fatal("VBL flag should be set at scanline 241 cycle 1")
	}
	if !nmiFired {
		t.Fatal("NMI callback should fire when PPUCTRL NMI-enable is set")
	}
}

func TestOAMDATAReadWrite(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2003, 0x04) // OAMADDR
	p.WriteRegister(0x2004, 0x55) // OAMDATA, auto-increments OAMADDR
	if p.oamAddr != 5 {
		t.Fatalf("OAMADDR after write = %d, want 5", p.oamAddr)
	}
	if p.oam[4] != 0x55 {
		t.Fatalf("oam[4] = %#02x, want 0x55", p.oam[4])
	}
}

func TestPPUDataReadIsBufferedExceptPalette(t *testing.T) {
	p, mapper := newTestPPU()
	mapper.chr[0x0010] = 0x42

	p.v = 0x0010
	first := p.readPPUData()
	if first != 0 {
		t.Fatalf("first PPUDATA read should return the stale buffer (0), got %#02x", first)
	}
	second := p.readPPUData()
	if second != 0x42 {
		t.Fatalf("second PPUDATA read should return the buffered value 0x42, got %#02x", second)
	}
}

func TestLoopyIncrementXWrapsNametable(t *testing.T) {
	p, _ := newTestPPU()
	p.v = 31 // coarse X at max
	p.incrementX()
	if p.getCoarseX() != 0 {
		t.Fatalf("coarse X after wrap = %d, want 0", p.getCoarseX())
	}
	if p.getNametable()&1 == 0 {
		t.Fatal("horizontal nametable bit should toggle on coarse X wrap")
	}
}

func TestLoopyIncrementYWrapsAtRow29(t *testing.T) {
	p, _ := newTestPPU()
	p.v = 0x7000 | (29 << 5) // fine Y = 7, coarse Y = 29
	p.incrementY()
	if p.getCoarseY() != 0 {
		t.Fatalf("coarse Y after row-29 wrap = %d, want 0", p.getCoarseY())
	}
	if p.getNametable()&2 == 0 {
		t.Fatal("vertical nametable bit should toggle when coarse Y wraps past 29")
	}
}

func TestLoopyCopyXCopyY(t *testing.T) {
	p, _ := newTestPPU()
	p.t = 0x7FFF
	p.v = 0
	p.copyX()
	if p.v&0x041F != 0x041F {
		t.Fatal("copyX should transfer coarse X and horizontal nametable bits from t")
	}
	p.copyY()
	if p.v&0x7BE0 != 0x7BE0 {
		t.Fatal("copyY should transfer fine Y, coarse Y, and vertical nametable bits from t")
	}
}

func TestCurrentBackgroundPixelDecodesShiftRegisters(t *testing.T) {
	p, mapper := newTestPPU()
	p.SetCPUCycle(warmupCycles)
	p.ppuMask = 0x08
	p.updateRenderingFlags()

	nt := memory.NewPPUMemory(mapper)
	p.SetMemory(nt)
	nt.Write(0x3F00, 0x00) // backdrop
	nt.Write(0x3F05, 0x10) // palette 0, color index 1

	// Fine X = 0 selects the shift registers' MSB/high bit directly.
	p.x = 0
	p.bgPatternLo = 0x8000 // bit0 of color index
	p.bgPatternHi = 0x0000 // bit1 of color index
	p.bgAttribLo = 0x80    // bit0 of palette index
	p.bgAttribHi = 0x00    // bit1 of palette index

	pixel := p.currentBackgroundPixel()
	if pixel.transparent {
		t.Fatal("pixel with color index 1 should not be transparent")
	}
	if pixel.colorIndex != 1 {
		t.Fatalf("colorIndex = %d, want 1", pixel.colorIndex)
	}
	if pixel.paletteIndex != 1 {
		t.Fatalf("paletteIndex = %d, want 1", pixel.paletteIndex)
	}
}

func TestCurrentBackgroundPixelZeroColorIsTransparent(t *testing.T) {
	p, _ := newTestPPU()
	p.bgPatternLo, p.bgPatternHi = 0, 0
	pixel := p.currentBackgroundPixel()
	if !pixel.transparent {
		t.Fatal("color index 0 should be transparent")
	}
}

func TestFetchBackgroundByteLatchesTileBytes(t *testing.T) {
	p, mapper := newTestPPU()
	nt := memory.NewPPUMemory(mapper)
	p.SetMemory(nt)

	p.v = 0 // nametable (0,0), fine Y 0
	nt.Write(0x2000, 0x01)  // tile id 1 at tile (0,0)
	mapper.chr[16] = 0x80   // pattern low byte, tile 1 row 0
	mapper.chr[16+8] = 0x01 // pattern high byte, tile 1 row 0
	nt.Write(0x23C0, 0x03)  // attribute byte for the top-left quadrant

	p.cycle = 1
	p.fetchBackgroundByte() // phase 0: nametable fetch, no reload (cycle==1)
	if p.ntLatch != 0x01 {
		t.Fatalf("ntLatch = %#02x, want 0x01", p.ntLatch)
	}

	p.cycle = 3
	p.fetchBackgroundByte() // phase 2: attribute fetch
	if p.atLatch != 0x03 {
		t.Fatalf("atLatch = %#02x, want 0x03", p.atLatch)
	}

	p.cycle = 5
	p.fetchBackgroundByte() // phase 4: pattern low
	if p.patternLoLatch != 0x80 {
		t.Fatalf("patternLoLatch = %#02x, want 0x80", p.patternLoLatch)
	}

	p.cycle = 7
	p.fetchBackgroundByte() // phase 6: pattern high
	if p.patternHiLatch != 0x01 {
		t.Fatalf("patternHiLatch = %#02x, want 0x01", p.patternHiLatch)
	}

	beforeX := p.getCoarseX()
	p.cycle = 8
	p.fetchBackgroundByte() // phase 7: increment coarse X
	if p.getCoarseX() != beforeX+1 {
		t.Fatalf("coarse X after phase-7 fetch = %d, want %d", p.getCoarseX(), beforeX+1)
	}
}

func TestReloadBackgroundShiftersCopiesLatchesAtNextGroup(t *testing.T) {
	p, mapper := newTestPPU()
	nt := memory.NewPPUMemory(mapper)
	p.SetMemory(nt)

	p.patternLoLatch = 0xAA
	p.patternHiLatch = 0x55
	p.atLatch = 0x02 // hi bit set, lo bit clear
	p.bgPatternLo = 0xFF00
	p.bgPatternHi = 0xFF00

	p.cycle = 9 // start of the next fetch group: reload happens before the new nametable fetch
	p.fetchBackgroundByte()

	if p.bgPatternLo&0x00FF != 0x00AA {
		t.Fatalf("bgPatternLo low byte = %#04x, want 0x00AA", p.bgPatternLo&0x00FF)
	}
	if p.bgPatternHi&0x00FF != 0x0055 {
		t.Fatalf("bgPatternHi low byte = %#04x, want 0x0055", p.bgPatternHi&0x00FF)
	}
	if p.attribLatchLo {
		t.Fatal("attribLatchLo should be false for atLatch bit0 = 0")
	}
	if !p.attribLatchHi {
		t.Fatal("attribLatchHi should be true for atLatch bit1 = 1")
	}
}

func TestShiftBackgroundRegistersFeedsAttributeLatches(t *testing.T) {
	p, _ := newTestPPU()
	p.bgPatternLo = 0x0001
	p.bgPatternHi = 0x0000
	p.attribLatchLo = true
	p.attribLatchHi = false

	p.shiftBackgroundRegisters()

	if p.bgPatternLo != 0x0002 {
		t.Fatalf("bgPatternLo after shift = %#04x, want 0x0002", p.bgPatternLo)
	}
	if p.bgAttribLo&0x01 == 0 {
		t.Fatal("attribLatchLo should feed bit0 of bgAttribLo on each shift")
	}
	if p.bgAttribHi&0x01 != 0 {
		t.Fatal("attribLatchHi is false, bgAttribHi bit0 should stay clear")
	}
}
