package cartridge

// mmc3 implements mapper 4 (MMC3 / TxROM). Eight bank registers (R0-R7) are
// selected by even/odd writes to 0x8000-0x9FFF; the bank-select byte chosen
// there also controls the CHR A12-inversion bit and the PRG bank-mode bit.
// A scanline-counting IRQ watches the PPU address bus for A12 rising edges,
// filtered so that only edges preceded by at least 16 low cycles count (this
// keeps sprite-fetch noise during rendering from over-counting).
type mmc3 struct {
	cart *Cartridge

	bankSelect uint8
	bank       [8]uint8
	mirror     MirrorMode
	prgRAMEnable bool
	prgRAMWriteProtect bool

	irqLatch   uint8
	irqCounter uint8
	irqEnable  bool
	irqReload  bool
	irqAsserted bool

	prgBanks int
	chrBanks int
	usesCHRRAM bool

	lastA12     uint16
	a12LowCount int
}

func newMMC3(cart *Cartridge) *mmc3 {
	m := &mmc3{
		cart:       cart,
		mirror:     cart.mirror,
		prgBanks:   len(cart.prgROM) / 0x2000,
		chrBanks:   len(cart.chrROM) / 0x0400,
		usesCHRRAM: cart.hasCHRRAM,
		a12LowCount: 16,
	}
	return m
}

func (m *mmc3) Mirror() MirrorMode { return m.mirror }
func (m *mmc3) IRQ() bool {
	asserted := m.irqAsserted
	return asserted
}
func (m *mmc3) CPUTick() {}

// PPUTick watches bit 12 of the PPU address bus for the filtered rising edge
// MMC3's scanline counter clocks on.
func (m *mmc3) PPUTick(addrBus uint16) {
	a12 := addrBus & 0x1000
	if a12 == 0 {
		m.a12LowCount++
		m.lastA12 = a12
		return
	}
	if m.lastA12 == 0 && m.a12LowCount >= 16 {
		m.clockIRQCounter()
	}
	m.a12LowCount = 0
	m.lastA12 = a12
}

func (m *mmc3) clockIRQCounter() {
	if m.irqCounter == 0 || m.irqReload {
		m.irqCounter = m.irqLatch
		m.irqReload = false
	} else {
		m.irqCounter--
	}
	if m.irqCounter == 0 && m.irqEnable {
		m.irqAsserted = true
	}
}

func (m *mmc3) prgBankCount8k() int {
	if m.prgBanks == 0 {
		return 2
	}
	return m.prgBanks
}

func (m *mmc3) ReadPRG(addr uint16) uint8 {
	switch {
	case addr < 0x6000:
		return 0
	case addr < 0x8000:
		if m.prgRAMEnable {
			return m.cart.readSRAM(addr)
		}
		return 0
	}

	total := m.prgBankCount8k()
	last := total - 1
	secondLast := total - 2
	if secondLast < 0 {
		secondLast = 0
	}

	slot := int((addr - 0x8000) / 0x2000)
	prgMode := (m.bankSelect >> 6) & 1

	var bank int
	switch {
	case prgMode == 0 && slot == 0:
		bank = int(m.bank[6])
	case prgMode == 0 && slot == 2:
		bank = secondLast
	case prgMode == 1 && slot == 0:
		bank = secondLast
	case prgMode == 1 && slot == 2:
		bank = int(m.bank[6])
	case slot == 1:
		bank = int(m.bank[7])
	default: // slot == 3, always fixed to last bank
		bank = last
	}
	bank %= total
	off := bank*0x2000 + int(addr)%0x2000
	if off < 0 || off >= len(m.cart.prgROM) {
		return 0
	}
	return m.cart.prgROM[off]
}

func (m *mmc3) WritePRG(addr uint16, val uint8) {
	switch {
	case addr < 0x6000:
		return
	case addr < 0x8000:
		if m.prgRAMEnable && !m.prgRAMWriteProtect {
			m.cart.writeSRAM(addr, val)
		}
		return
	case addr < 0xA000:
		if addr&1 == 0 {
			m.bankSelect = val
		} else {
			m.bank[m.bankSelect&0x07] = val
		}
	case addr < 0xC000:
		if addr&1 == 0 {
			if val&1 != 0 {
				m.mirror = MirrorHorizontal
			} else {
				m.mirror = MirrorVertical
			}
		} else {
			m.prgRAMEnable = val&0x80 != 0
			m.prgRAMWriteProtect = val&0x40 != 0
		}
	case addr < 0xE000:
		if addr&1 == 0 {
			m.irqLatch = val
		} else {
			m.irqReload = true
			m.irqCounter = 0
		}
	default:
		if addr&1 == 0 {
			m.irqEnable = false
			m.irqAsserted = false
		} else {
			m.irqEnable = true
		}
	}
}

// chrOffset resolves a PPU-space CHR address through the eight 1KB regions,
// swapping the two 2KB/four 1KB halves when the CHR-inversion bit is set.
func (m *mmc3) chrOffset(addr uint16) int {
	invert := (m.bankSelect>>7)&1 != 0
	region := addr / 0x0400
	if invert {
		region ^= 4
	}

	var bank uint8
	var within uint16
	switch region {
	case 0:
		bank, within = m.bank[0]&0xFE, addr%0x0800
	case 1:
		bank, within = m.bank[0]|1, addr%0x0800-0x0400
	case 2:
		bank, within = m.bank[1]&0xFE, addr%0x0800
	case 3:
		bank, within = m.bank[1]|1, addr%0x0800-0x0400
	case 4:
		bank, within = m.bank[2], addr%0x0400
	case 5:
		bank, within = m.bank[3], addr%0x0400
	case 6:
		bank, within = m.bank[4], addr%0x0400
	default:
		bank, within = m.bank[5], addr%0x0400
	}
	off := int(bank)*0x0400 + int(within)
	return off
}

func (m *mmc3) ReadCHR(addr uint16) uint8 {
	off := m.chrOffset(addr)
	if len(m.cart.chrROM) == 0 {
		return 0
	}
	off %= len(m.cart.chrROM)
	return m.cart.chrROM[off]
}

func (m *mmc3) WriteCHR(addr uint16, val uint8) {
	if !m.usesCHRRAM {
		return
	}
	off := m.chrOffset(addr)
	if off >= 0 && off < len(m.cart.chrROM) {
		m.cart.chrROM[off] = val
	}
}

func (m *mmc3) Clone(cart *Cartridge) Mapper {
	clone := *m
	clone.cart = cart
	return &clone
}
