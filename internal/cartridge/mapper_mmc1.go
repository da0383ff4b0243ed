package cartridge

// mmc1 implements mapper 1 (MMC1 / SxROM). Writes to 0x8000-0xFFFF feed a
// 5-bit shift register one bit at a time; the fifth write commits into one of
// four internal registers selected by the destination address. Consecutive
// writes on back-to-back CPU cycles are ignored, as on real hardware.
type mmc1 struct {
	cart *Cartridge

	shift      uint8
	shiftCount uint8

	control uint8 // mirroring (1:0), PRG mode (3:2), CHR mode (4)
	chrBank0 uint8
	chrBank1 uint8
	prgBank  uint8

	prgBanks int
	chrBanks int
	usesCHRRAM bool

	cpuCycle      uint64
	lastWriteCycle uint64
	hadWrite       bool
}

func newMMC1(cart *Cartridge) *mmc1 {
	m := &mmc1{
		cart:       cart,
		control:    0x0C, // power-on: PRG mode 3 (fix last bank)
		prgBanks:   len(cart.prgROM) / 0x4000,
		chrBanks:   len(cart.chrROM) / 0x1000,
		usesCHRRAM: cart.hasCHRRAM,
	}
	if m.prgBanks == 0 {
		m.prgBanks = 1
	}
	return m
}

func (m *mmc1) Mirror() MirrorMode {
	switch m.control & 0x03 {
	case 0:
		return MirrorSingleScreen0
	case 1:
		return MirrorSingleScreen1
	case 2:
		return MirrorVertical
	default:
		return MirrorHorizontal
	}
}

func (m *mmc1) IRQ() bool      { return false }
func (m *mmc1) PPUTick(uint16) {}

func (m *mmc1) CPUTick() { m.cpuCycle++ }

func (m *mmc1) ReadPRG(addr uint16) uint8 {
	if addr < 0x8000 {
		if addr >= 0x6000 {
			return m.cart.readSRAM(addr)
		}
		return 0
	}

	prgMode := (m.control >> 2) & 0x03
	bank := int(m.prgBank & 0x0F)
	var offset int

	switch prgMode {
	case 0, 1:
		// 32KB mode: low bit of bank ignored, switches whole 32KB window.
		base := (bank &^ 1) * 0x4000
		offset = base + int(addr-0x8000)
	case 2:
		// first bank fixed at 0x8000, selected bank switches at 0xC000
		if addr < 0xC000 {
			offset = int(addr - 0x8000)
		} else {
			offset = bank*0x4000 + int(addr-0xC000)
		}
	default: // 3
		// selected bank switches at 0x8000, last bank fixed at 0xC000
		if addr < 0xC000 {
			offset = bank*0x4000 + int(addr-0x8000)
		} else {
			offset = (m.prgBanks-1)*0x4000 + int(addr-0xC000)
		}
	}
	offset %= len(m.cart.prgROM)
	return m.cart.prgROM[offset]
}

func (m *mmc1) WritePRG(addr uint16, val uint8) {
	if addr < 0x8000 {
		if addr >= 0x6000 {
			m.cart.writeSRAM(addr, val)
		}
		return
	}

	// Reject the second of two writes landing on consecutive CPU cycles.
	if m.hadWrite && m.cpuCycle == m.lastWriteCycle+1 {
		m.lastWriteCycle = m.cpuCycle
		return
	}
	m.lastWriteCycle = m.cpuCycle
	m.hadWrite = true

	if val&0x80 != 0 {
		m.shift = 0
		m.shiftCount = 0
		m.control |= 0x0C
		return
	}

	m.shift |= (val & 1) << m.shiftCount
	m.shiftCount++
	if m.shiftCount < 5 {
		return
	}

	result := m.shift
	m.shift = 0
	m.shiftCount = 0

	switch {
	case addr < 0xA000:
		m.control = result
	case addr < 0xC000:
		m.chrBank0 = result
	case addr < 0xE000:
		m.chrBank1 = result
	default:
		m.prgBank = result & 0x0F
	}
}

func (m *mmc1) chrOffset(addr uint16) int {
	chrMode := (m.control >> 4) & 1
	if chrMode == 0 {
		// 8KB mode: chrBank0 selects an 8KB bank, low bit ignored.
		base := int(m.chrBank0&^1) * 0x1000
		return base + int(addr)
	}
	if addr < 0x1000 {
		return int(m.chrBank0)*0x1000 + int(addr)
	}
	return int(m.chrBank1)*0x1000 + int(addr-0x1000)
}

func (m *mmc1) ReadCHR(addr uint16) uint8 {
	off := m.chrOffset(addr)
	if len(m.cart.chrROM) == 0 {
		return 0
	}
	off %= len(m.cart.chrROM)
	return m.cart.chrROM[off]
}

func (m *mmc1) WriteCHR(addr uint16, val uint8) {
	if !m.usesCHRRAM {
		return
	}
	off := m.chrOffset(addr)
	if off >= 0 && off < len(m.cart.chrROM) {
		m.cart.chrROM[off] = val
	}
}

func (m *mmc1) Clone(cart *Cartridge) Mapper {
	clone := *m
	clone.cart = cart
	return &clone
}
