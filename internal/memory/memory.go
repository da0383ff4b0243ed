// Package memory implements the NES CPU and PPU address-space decoding.
package memory

import "github.com/nesgo/gones/internal/cartridge"

// Memory represents the CPU-visible address map: internal RAM, the PPU and
// APU register windows, the controller ports, and the cartridge.
type Memory struct {
	ram [0x800]uint8

	ppuRegisters PPUInterface
	apuRegisters APUInterface
	inputSystem  InputInterface
	mapper       cartridge.Mapper

	dmaCallback func(uint8)

	openBusValue uint8
}

// PPUMemory is the PPU's own 14-bit address space: pattern tables (via the
// mapper), nametable RAM, and palette RAM. Mirroring is read from the
// mapper on every access rather than cached, since MMC1/MMC3/AxROM can all
// change it at runtime.
type PPUMemory struct {
	vram       [0x1000]uint8
	paletteRAM [32]uint8
	mapper     cartridge.Mapper
}

// PPUInterface defines the interface for PPU register access
type PPUInterface interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
}

// APUInterface defines the interface for APU register access
type APUInterface interface {
	WriteRegister(address uint16, value uint8)
	ReadStatus() uint8
}

// InputInterface defines the interface for input system access
type InputInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// New creates a new Memory instance
func New(ppu PPUInterface, apu APUInterface, mapper cartridge.Mapper) *Memory {
	mem := &Memory{
		ppuRegisters: ppu,
		apuRegisters: apu,
		mapper:       mapper,
	}
	mem.initializePowerUpRAM()
	return mem
}

// SetInputSystem sets the input system for controller access
func (m *Memory) SetInputSystem(input InputInterface) {
	m.inputSystem = input
}

// SetDMACallback sets the OAM DMA callback, invoked with the source page
// whenever the CPU writes $4014. The bus owns DMA's CPU-cycle-stealing
// behavior; Memory only dispatches the trigger.
func (m *Memory) SetDMACallback(callback func(uint8)) {
	m.dmaCallback = callback
}

// initializePowerUpRAM seeds RAM with the uneven pattern real NES hardware
// exhibits on cold boot (some games, Super Mario Bros. among them, rely on
// specific zero-page bytes being nonzero before their init code runs).
func (m *Memory) initializePowerUpRAM() {
	for i := 0; i < 0x800; i++ {
		switch {
		case i < 0x100:
			if i%2 == 0 {
				m.ram[i] = 0x00
			} else {
				m.ram[i] = 0xFF
			}
		case i < 0x200:
			if i%16 < 2 {
				m.ram[i] = 0xFF
			} else {
				m.ram[i] = 0x00
			}
		case i < 0x300:
			if (i/8)%2 == (i%8)/4 {
				m.ram[i] = 0xAA
			} else {
				m.ram[i] = 0x55
			}
		case i < 0x400:
			if i%8 == 0 {
				m.ram[i] = 0x00
			} else {
				m.ram[i] = 0xFF
			}
		default:
			switch i % 4 {
			case 0:
				m.ram[i] = 0x00
			case 1:
				m.ram[i] = 0xFF
			case 2:
				m.ram[i] = 0xAA
			case 3:
				m.ram[i] = 0x55
			}
		}
	}
}

// Read reads a byte from the given address
func (m *Memory) Read(address uint16) uint8 {
	var value uint8

	switch {
	case address < 0x2000:
		value = m.ram[address&0x07FF]

	case address < 0x4000:
		value = m.ppuRegisters.ReadRegister(0x2000 + (address & 0x0007))

	case address < 0x4020:
		switch {
		case address == 0x4015:
			value = m.apuRegisters.ReadStatus()
		case address == 0x4016 || address == 0x4017:
			if m.inputSystem != nil {
				value = m.inputSystem.Read(address)
			}
		default:
			value = m.openBusValue
		}

	case address >= 0x6000 && address < 0x8000:
		if m.mapper != nil {
			value = m.mapper.ReadPRG(address)
		} else {
			value = m.openBusValue
		}

	case address < 0x8000:
		value = m.openBusValue

	default:
		if m.mapper != nil {
			value = m.mapper.ReadPRG(address)
		} else {
			value = m.openBusValue
		}
	}

	m.openBusValue = value
	return value
}

// Write writes a byte to the given address
func (m *Memory) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		m.ram[address&0x07FF] = value

	case address < 0x4000:
		m.ppuRegisters.WriteRegister(0x2000+(address&0x0007), value)

	case address < 0x4020:
		switch {
		case address == 0x4014:
			if m.dmaCallback != nil {
				m.dmaCallback(value)
			} else {
				m.performOAMDMA(value)
			}
		case address == 0x4016:
			if m.inputSystem != nil {
				m.inputSystem.Write(address, value)
			}
		case address >= 0x4000 && address <= 0x4013, address == 0x4015, address == 0x4017:
			m.apuRegisters.WriteRegister(address, value)
		}
		// $4018-$401F (APU/IO test mode) are ignored.

	case address >= 0x6000 && address < 0x8000:
		if m.mapper != nil {
			m.mapper.WritePRG(address, value)
		}

	case address < 0x8000:
		// Cartridge expansion area, unmapped.

	default:
		if m.mapper != nil {
			m.mapper.WritePRG(address, value)
		}
	}
}

// Clone returns an independent copy of m's RAM and open-bus state, rewired to
// the given (already-restored) PPU/APU/input/mapper, for save-state restore.
func (m *Memory) Clone(ppu PPUInterface, apu APUInterface, input InputInterface, mapper cartridge.Mapper) *Memory {
	clone := *m
	clone.ppuRegisters = ppu
	clone.apuRegisters = apu
	clone.inputSystem = input
	clone.mapper = mapper
	clone.dmaCallback = nil
	return &clone
}

// ReadDMA reads through CPU address space on behalf of the APU's DMC
// channel (spec.md §4.3/§9 cyclic-ownership note: the DMC fetches through
// the CPU bus rather than a private shortcut into the cartridge).
func (m *Memory) ReadDMA(addr uint16) uint8 {
	return m.Read(addr)
}

func (m *Memory) performOAMDMA(page uint8) {
	baseAddress := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		value := m.Read(baseAddress + i)
		m.ppuRegisters.WriteRegister(0x2004, value)
	}
}

// NewPPUMemory creates a new PPU memory instance
func NewPPUMemory(mapper cartridge.Mapper) *PPUMemory {
	mem := &PPUMemory{mapper: mapper}
	for i := 0; i < 32; i += 4 {
		mem.paletteRAM[i] = 0x0F
	}
	return mem
}

// Read reads from PPU memory space ($0000-$3FFF)
func (pm *PPUMemory) Read(address uint16) uint8 {
	address &= 0x3FFF
	pm.mapper.PPUTick(address)

	switch {
	case address < 0x2000:
		return pm.mapper.ReadCHR(address)
	case address < 0x3000:
		return pm.readNametable(address)
	case address < 0x3F00:
		return pm.readNametable(address - 0x1000)
	default:
		return pm.readPalette(address)
	}
}

// Write writes to PPU memory space ($0000-$3FFF)
func (pm *PPUMemory) Write(address uint16, value uint8) {
	address &= 0x3FFF
	pm.mapper.PPUTick(address)

	switch {
	case address < 0x2000:
		pm.mapper.WriteCHR(address, value)
	case address < 0x3000:
		pm.writeNametable(address, value)
	case address < 0x3F00:
		pm.writeNametable(address-0x1000, value)
	default:
		pm.writePalette(address, value)
	}
}

// Clone returns an independent copy of the PPU's VRAM and palette RAM,
// rewired to mapper, for save-state restore.
func (pm *PPUMemory) Clone(mapper cartridge.Mapper) *PPUMemory {
	clone := *pm
	clone.mapper = mapper
	return &clone
}

func (pm *PPUMemory) readNametable(address uint16) uint8 {
	return pm.vram[pm.nametableIndex(address)]
}

func (pm *PPUMemory) writeNametable(address uint16, value uint8) {
	pm.vram[pm.nametableIndex(address)] = value
}

func (pm *PPUMemory) nametableIndex(address uint16) uint16 {
	address &= 0x0FFF
	nametable := (address >> 10) & 3
	offset := address & 0x3FF

	switch pm.mapper.Mirror() {
	case cartridge.MirrorHorizontal:
		if nametable >= 2 {
			return 0x400 + offset
		}
		return offset
	case cartridge.MirrorVertical:
		if nametable == 1 || nametable == 3 {
			return 0x400 + offset
		}
		return offset
	case cartridge.MirrorSingleScreen0:
		return offset
	case cartridge.MirrorSingleScreen1:
		return 0x400 + offset
	case cartridge.MirrorFourScreen:
		return nametable*0x400 + offset
	default:
		return offset
	}
}

func (pm *PPUMemory) readPalette(address uint16) uint8 {
	index := (address - 0x3F00) & 0x1F
	if index == 0x10 || index == 0x14 || index == 0x18 || index == 0x1C {
		index &= 0x0F
	}
	return pm.paletteRAM[index]
}

func (pm *PPUMemory) writePalette(address uint16, value uint8) {
	index := (address - 0x3F00) & 0x1F
	if index == 0x10 || index == 0x14 || index == 0x18 || index == 0x1C {
		index &= 0x0F
	}
	pm.paletteRAM[index] = value
}
