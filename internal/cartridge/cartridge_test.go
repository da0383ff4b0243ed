package cartridge

import (
	"bytes"
	"testing"
)

func buildINES(mapperID uint8, prgBanks, chrBanks int, mirrorVertical, battery bool) []byte {
	var buf bytes.Buffer
	buf.WriteString("NES\x1a")
	buf.WriteByte(uint8(prgBanks))
	buf.WriteByte(uint8(chrBanks))
	flags6 := (mapperID & 0x0F) << 4
	if mirrorVertical {
		flags6 |= 0x01
	}
	if battery {
		flags6 |= 0x02
	}
	buf.WriteByte(flags6)
	buf.WriteByte((mapperID & 0xF0))
	buf.Write(make([]byte, 8)) // flags 8-15

	buf.Write(make([]byte, prgBanks*16384))
	buf.Write(make([]byte, chrBanks*8192))
	return buf.Bytes()
}

func TestLoadNROM(t *testing.T) {
	data := buildINES(0, 2, 1, false, false)
	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cart.MirrorMode() != MirrorHorizontal {
		t.Fatalf("mirror = %v, want horizontal", cart.MirrorMode())
	}
	if cart.Mapper.ReadPRG(0x8000) != 0 {
		t.Fatal("unexpected PRG content")
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	data := buildINES(0, 1, 1, false, false)
	data[0] = 'X'
	_, err := LoadFromReader(bytes.NewReader(data))
	if err == nil {
		t.Fatal("expected error for bad magic bytes")
	}
}

func TestLoadUnimplementedMapperFails(t *testing.T) {
	data := buildINES(5, 1, 1, false, false)
	_, err := LoadFromReader(bytes.NewReader(data))
	if err == nil {
		t.Fatal("expected ErrUnimplementedMapper for mapper 5")
	}
}

func TestMMC1ConsecutiveWriteRejection(t *testing.T) {
	data := buildINES(1, 4, 0, false, false)
	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	m := cart.Mapper.(*mmc1)

	// Two writes issued on consecutive CPU cycles: the second must be
	// ignored rather than advancing the shift register.
	m.cpuCycle = 100
	cart.Mapper.WritePRG(0x8000, 0x01)
	m.cpuCycle = 101
	cart.Mapper.WritePRG(0x8000, 0x01)
	if m.shiftCount != 1 {
		t.Fatalf("shiftCount = %d, want 1 (second consecutive write ignored)", m.shiftCount)
	}
}

func TestMMC1ResetBitForcesFixedLastBank(t *testing.T) {
	data := buildINES(1, 4, 0, false, false)
	cart, _ := LoadFromReader(bytes.NewReader(data))
	m := cart.Mapper.(*mmc1)
	m.cpuCycle = 1
	cart.Mapper.WritePRG(0x8000, 0x80) // bit 7 set: reset shift register
	if m.control&0x0C != 0x0C {
		t.Fatalf("control = %#02x, want PRG mode forced to fixed-last (bits 2-3 = 11)", m.control)
	}
}

func TestMMC3IRQFiltersShortA12Gaps(t *testing.T) {
	data := buildINES(4, 4, 8, false, false)
	cart, _ := LoadFromReader(bytes.NewReader(data))
	m := cart.Mapper.(*mmc3)
	cart.Mapper.WritePRG(0x8000, 0x00) // select R0
	cart.Mapper.WritePRG(0xA000+1, 0)  // $A001: PRG-RAM protect register, not IRQ-related
	cart.Mapper.WritePRG(0xC000, 4)    // irqLatch = 4
	cart.Mapper.WritePRG(0xC001, 0)    // reload
	cart.Mapper.WritePRG(0xE001, 0)    // enable IRQ

	// A12 toggles rapidly (fewer than 16 low cycles between highs). Only the
	// first rising edge, after the power-on low period, counts: it reloads the
	// counter from the latch. The rest are filtered out.
	for i := 0; i < 20; i++ {
		cart.Mapper.PPUTick(0x0000)
		cart.Mapper.PPUTick(0x1000)
	}
	if m.irqCounter == 0 {
		t.Fatal("rapid A12 toggling should be filtered and not clock the IRQ counter to zero")
	}

	// A genuine long low period followed by a rising edge must count.
	for i := 0; i < 20; i++ {
		cart.Mapper.PPUTick(0x0000)
	}
	cart.Mapper.PPUTick(0x1000)
	if m.irqCounter != 3 {
		t.Fatalf("irqCounter = %d, want 3 after one filtered clock from latch=4", m.irqCounter)
	}
}
