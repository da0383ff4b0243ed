package memory

import (
	"testing"

	"github.com/nesgo/gones/internal/cartridge"
)

type stubMapper struct {
	prg, chr     [0x10000]uint8
	mirror       cartridge.MirrorMode
	lastPRGWrite uint16
}

func (s *stubMapper) ReadPRG(addr uint16) uint8     { return s.prg[addr] }
func (s *stubMapper) WritePRG(addr uint16, v uint8) { s.prg[addr] = v; s.lastPRGWrite = addr }
func (s *stubMapper) ReadCHR(addr uint16) uint8     { return s.chr[addr] }
func (s *stubMapper) WriteCHR(addr uint16, v uint8) { s.chr[addr] = v }
func (s *stubMapper) Mirror() cartridge.MirrorMode  { return s.mirror }
func (s *stubMapper) IRQ() bool                     { return false }
func (s *stubMapper) CPUTick()                      {}
func (s *stubMapper) PPUTick(uint16)                {}
func (s *stubMapper) Clone(*cartridge.Cartridge) cartridge.Mapper { clone := *s; return &clone }

type stubPPU struct {
	reads  map[uint16]uint8
	writes map[uint16]uint8
}

func newStubPPU() *stubPPU {
	return &stubPPU{reads: map[uint16]uint8{}, writes: map[uint16]uint8{}}
}
func (p *stubPPU) ReadRegister(addr uint16) uint8 { return p.reads[addr] }
func (p *stubPPU) WriteRegister(addr uint16, v uint8) { p.writes[addr] = v }

type stubAPU struct{ status uint8 }

func (a *stubAPU) WriteRegister(uint16, uint8) {}
func (a *stubAPU) ReadStatus() uint8           { return a.status }

func TestRAMMirroring(t *testing.T) {
	m := New(newStubPPU(), &stubAPU{}, &stubMapper{})
	m.Write(0x0000, 0x42)
	if v := m.Read(0x0800); v != 0x42 {
		t.Fatalf("RAM mirror at $0800 = %#02x, want 0x42", v)
	}
	if v := m.Read(0x1800); v != 0x42 {
		t.Fatalf("RAM mirror at $1800 = %#02x, want 0x42", v)
	}
}

func TestPPURegisterMirroring(t *testing.T) {
	ppu := newStubPPU()
	m := New(ppu, &stubAPU{}, &stubMapper{})
	m.Write(0x2000, 0x80)
	m.Write(0x2008, 0x01) // mirrors $2000
	if ppu.writes[0x2000] != 0x01 {
		t.Fatalf("PPU register mirror did not reach $2000: got %#02x", ppu.writes[0x2000])
	}
}

func TestOAMDMACallback(t *testing.T) {
	var gotPage uint8 = 0xFF
	m := New(newStubPPU(), &stubAPU{}, &stubMapper{})
	m.SetDMACallback(func(page uint8) { gotPage = page })
	m.Write(0x4014, 0x02)
	if gotPage != 0x02 {
		t.Fatalf("DMA callback page = %#02x, want 0x02", gotPage)
	}
}

func TestCartridgeRangeDelegatesToMapper(t *testing.T) {
	mapper := &stubMapper{}
	m := New(newStubPPU(), &stubAPU{}, mapper)
	m.Write(0x8000, 0x99)
	if mapper.lastPRGWrite != 0x8000 {
		t.Fatal("write to $8000 should reach the mapper")
	}
}
