package cpu

// opcodeInfo is the static, per-opcode shape used to build a per-cycle plan:
// which addressing mode supplies the operand and which of the six coarse
// instruction shapes (spec.md §4.1) it belongs to.
type opcodeInfo struct {
	Mnemonic string
	Mode     AddressingMode
	Cat      category
}

var opcodeTable [256]opcodeInfo

type entry struct {
	op   uint8
	name string
	mode AddressingMode
	cat  category
}

func init() {
	for _, e := range opcodeEntries {
		opcodeTable[e.op] = opcodeInfo{Mnemonic: e.name, Mode: e.mode, Cat: e.cat}
	}
}

// opcodeEntries is the full 6502 + documented-unofficial instruction set.
// Grouped by mnemonic, not by opcode byte, since that is how this table is
// actually maintained.
var opcodeEntries = []entry{
	// Loads
	{0xA9, "LDA", Immediate, catRead}, {0xA5, "LDA", ZeroPage, catRead}, {0xB5, "LDA", ZeroPageX, catRead},
	{0xAD, "LDA", Absolute, catRead}, {0xBD, "LDA", AbsoluteX, catRead}, {0xB9, "LDA", AbsoluteY, catRead},
	{0xA1, "LDA", IndexedIndirect, catRead}, {0xB1, "LDA", IndirectIndexed, catRead},

	{0xA2, "LDX", Immediate, catRead}, {0xA6, "LDX", ZeroPage, catRead}, {0xB6, "LDX", ZeroPageY, catRead},
	{0xAE, "LDX", Absolute, catRead}, {0xBE, "LDX", AbsoluteY, catRead},

	{0xA0, "LDY", Immediate, catRead}, {0xA4, "LDY", ZeroPage, catRead}, {0xB4, "LDY", ZeroPageX, catRead},
	{0xAC, "LDY", Absolute, catRead}, {0xBC, "LDY", AbsoluteX, catRead},

	// Stores
	{0x85, "STA", ZeroPage, catWrite}, {0x95, "STA", ZeroPageX, catWrite}, {0x8D, "STA", Absolute, catWrite},
	{0x9D, "STA", AbsoluteX, catWrite}, {0x99, "STA", AbsoluteY, catWrite},
	{0x81, "STA", IndexedIndirect, catWrite}, {0x91, "STA", IndirectIndexed, catWrite},

	{0x86, "STX", ZeroPage, catWrite}, {0x96, "STX", ZeroPageY, catWrite}, {0x8E, "STX", Absolute, catWrite},
	{0x84, "STY", ZeroPage, catWrite}, {0x94, "STY", ZeroPageX, catWrite}, {0x8C, "STY", Absolute, catWrite},

	// Transfers / stack / flags (non-memory)
	{0xAA, "TAX", Implied, catNonMemory}, {0x8A, "TXA", Implied, catNonMemory},
	{0xA8, "TAY", Implied, catNonMemory}, {0x98, "TYA", Implied, catNonMemory},
	{0xBA, "TSX", Implied, catNonMemory}, {0x9A, "TXS", Implied, catNonMemory},
	{0xE8, "INX", Implied, catNonMemory}, {0xC8, "INY", Implied, catNonMemory},
	{0xCA, "DEX", Implied, catNonMemory}, {0x88, "DEY", Implied, catNonMemory},
	{0x18, "CLC", Implied, catNonMemory}, {0x38, "SEC", Implied, catNonMemory},
	{0x58, "CLI", Implied, catNonMemory}, {0x78, "SEI", Implied, catNonMemory},
	{0xB8, "CLV", Implied, catNonMemory}, {0xD8, "CLD", Implied, catNonMemory},
	{0xF8, "SED", Implied, catNonMemory}, {0xEA, "NOP", Implied, catNonMemory},

	// ALU reads
	{0x69, "ADC", Immediate, catRead}, {0x65, "ADC", ZeroPage, catRead}, {0x75, "ADC", ZeroPageX, catRead},
	{0x6D, "ADC", Absolute, catRead}, {0x7D, "ADC", AbsoluteX, catRead}, {0x79, "ADC", AbsoluteY, catRead},
	{0x61, "ADC", IndexedIndirect, catRead}, {0x71, "ADC", IndirectIndexed, catRead},

	{0xE9, "SBC", Immediate, catRead}, {0xE5, "SBC", ZeroPage, catRead}, {0xF5, "SBC", ZeroPageX, catRead},
	{0xED, "SBC", Absolute, catRead}, {0xFD, "SBC", AbsoluteX, catRead}, {0xF9, "SBC", AbsoluteY, catRead},
	{0xE1, "SBC", IndexedIndirect, catRead}, {0xF1, "SBC", IndirectIndexed, catRead},
	{0xEB, "SBC", Immediate, catRead}, // unofficial duplicate

	{0x29, "AND", Immediate, catRead}, {0x25, "AND", ZeroPage, catRead}, {0x35, "AND", ZeroPageX, catRead},
	{0x2D, "AND", Absolute, catRead}, {0x3D, "AND", AbsoluteX, catRead}, {0x39, "AND", AbsoluteY, catRead},
	{0x21, "AND", IndexedIndirect, catRead}, {0x31, "AND", IndirectIndexed, catRead},

	{0x09, "ORA", Immediate, catRead}, {0x05, "ORA", ZeroPage, catRead}, {0x15, "ORA", ZeroPageX, catRead},
	{0x0D, "ORA", Absolute, catRead}, {0x1D, "ORA", AbsoluteX, catRead}, {0x19, "ORA", AbsoluteY, catRead},
	{0x01, "ORA", IndexedIndirect, catRead}, {0x11, "ORA", IndirectIndexed, catRead},

	{0x49, "EOR", Immediate, catRead}, {0x45, "EOR", ZeroPage, catRead}, {0x55, "EOR", ZeroPageX, catRead},
	{0x4D, "EOR", Absolute, catRead}, {0x5D, "EOR", AbsoluteX, catRead}, {0x59, "EOR", AbsoluteY, catRead},
	{0x41, "EOR", IndexedIndirect, catRead}, {0x51, "EOR", IndirectIndexed, catRead},

	{0xC9, "CMP", Immediate, catRead}, {0xC5, "CMP", ZeroPage, catRead}, {0xD5, "CMP", ZeroPageX, catRead},
	{0xCD, "CMP", Absolute, catRead}, {0xDD, "CMP", AbsoluteX, catRead}, {0xD9, "CMP", AbsoluteY, catRead},
	{0xC1, "CMP", IndexedIndirect, catRead}, {0xD1, "CMP", IndirectIndexed, catRead},

	{0xE0, "CPX", Immediate, catRead}, {0xE4, "CPX", ZeroPage, catRead}, {0xEC, "CPX", Absolute, catRead},
	{0xC0, "CPY", Immediate, catRead}, {0xC4, "CPY", ZeroPage, catRead}, {0xCC, "CPY", Absolute, catRead},

	{0x24, "BIT", ZeroPage, catRead}, {0x2C, "BIT", Absolute, catRead},

	// Unofficial reads
	{0xA7, "LAX", ZeroPage, catRead}, {0xB7, "LAX", ZeroPageY, catRead}, {0xAF, "LAX", Absolute, catRead},
	{0xBF, "LAX", AbsoluteY, catRead}, {0xA3, "LAX", IndexedIndirect, catRead}, {0xB3, "LAX", IndirectIndexed, catRead},
	{0xAB, "LXA", Immediate, catRead},
	{0x0B, "ANC", Immediate, catRead}, {0x2B, "ANC", Immediate, catRead},
	{0x4B, "ALR", Immediate, catRead},
	{0x6B, "ARR", Immediate, catRead},
	{0x8B, "XAA", Immediate, catRead},
	{0xCB, "SBX", Immediate, catRead},
	{0xBB, "LAS", AbsoluteY, catRead},

	// Unofficial NOPs (read, various addressing modes, byte discarded)
	{0x80, "NOP", Immediate, catRead}, {0x82, "NOP", Immediate, catRead}, {0x89, "NOP", Immediate, catRead},
	{0xC2, "NOP", Immediate, catRead}, {0xE2, "NOP", Immediate, catRead},
	{0x04, "NOP", ZeroPage, catRead}, {0x44, "NOP", ZeroPage, catRead}, {0x64, "NOP", ZeroPage, catRead},
	{0x14, "NOP", ZeroPageX, catRead}, {0x34, "NOP", ZeroPageX, catRead}, {0x54, "NOP", ZeroPageX, catRead},
	{0x74, "NOP", ZeroPageX, catRead}, {0xD4, "NOP", ZeroPageX, catRead}, {0xF4, "NOP", ZeroPageX, catRead},
	{0x0C, "NOP", Absolute, catRead},
	{0x1C, "NOP", AbsoluteX, catRead}, {0x3C, "NOP", AbsoluteX, catRead}, {0x5C, "NOP", AbsoluteX, catRead},
	{0x7C, "NOP", AbsoluteX, catRead}, {0xDC, "NOP", AbsoluteX, catRead}, {0xFC, "NOP", AbsoluteX, catRead},
	{0x1A, "NOP", Implied, catNonMemory}, {0x3A, "NOP", Implied, catNonMemory}, {0x5A, "NOP", Implied, catNonMemory},
	{0x7A, "NOP", Implied, catNonMemory}, {0xDA, "NOP", Implied, catNonMemory}, {0xFA, "NOP", Implied, catNonMemory},

	// Shifts/inc-dec (RMW + accumulator non-memory)
	{0x0A, "ASL", Accumulator, catNonMemory}, {0x06, "ASL", ZeroPage, catRMW}, {0x16, "ASL", ZeroPageX, catRMW},
	{0x0E, "ASL", Absolute, catRMW}, {0x1E, "ASL", AbsoluteX, catRMW},

	{0x4A, "LSR", Accumulator, catNonMemory}, {0x46, "LSR", ZeroPage, catRMW}, {0x56, "LSR", ZeroPageX, catRMW},
	{0x4E, "LSR", Absolute, catRMW}, {0x5E, "LSR", AbsoluteX, catRMW},

	{0x2A, "ROL", Accumulator, catNonMemory}, {0x26, "ROL", ZeroPage, catRMW}, {0x36, "ROL", ZeroPageX, catRMW},
	{0x2E, "ROL", Absolute, catRMW}, {0x3E, "ROL", AbsoluteX, catRMW},

	{0x6A, "ROR", Accumulator, catNonMemory}, {0x66, "ROR", ZeroPage, catRMW}, {0x76, "ROR", ZeroPageX, catRMW},
	{0x6E, "ROR", Absolute, catRMW}, {0x7E, "ROR", AbsoluteX, catRMW},

	{0xE6, "INC", ZeroPage, catRMW}, {0xF6, "INC", ZeroPageX, catRMW}, {0xEE, "INC", Absolute, catRMW},
	{0xFE, "INC", AbsoluteX, catRMW},
	{0xC6, "DEC", ZeroPage, catRMW}, {0xD6, "DEC", ZeroPageX, catRMW}, {0xCE, "DEC", Absolute, catRMW},
	{0xDE, "DEC", AbsoluteX, catRMW},

	// Unofficial RMW combos
	{0x07, "SLO", ZeroPage, catRMW}, {0x17, "SLO", ZeroPageX, catRMW}, {0x0F, "SLO", Absolute, catRMW},
	{0x1F, "SLO", AbsoluteX, catRMW}, {0x1B, "SLO", AbsoluteY, catRMW}, {0x03, "SLO", IndexedIndirect, catRMW},
	{0x13, "SLO", IndirectIndexed, catRMW},

	{0x27, "RLA", ZeroPage, catRMW}, {0x37, "RLA", ZeroPageX, catRMW}, {0x2F, "RLA", Absolute, catRMW},
	{0x3F, "RLA", AbsoluteX, catRMW}, {0x3B, "RLA", AbsoluteY, catRMW}, {0x23, "RLA", IndexedIndirect, catRMW},
	{0x33, "RLA", IndirectIndexed, catRMW},

	{0x47, "SRE", ZeroPage, catRMW}, {0x57, "SRE", ZeroPageX, catRMW}, {0x4F, "SRE", Absolute, catRMW},
	{0x5F, "SRE", AbsoluteX, catRMW}, {0x5B, "SRE", AbsoluteY, catRMW}, {0x43, "SRE", IndexedIndirect, catRMW},
	{0x53, "SRE", IndirectIndexed, catRMW},

	{0x67, "RRA", ZeroPage, catRMW}, {0x77, "RRA", ZeroPageX, catRMW}, {0x6F, "RRA", Absolute, catRMW},
	{0x7F, "RRA", AbsoluteX, catRMW}, {0x7B, "RRA", AbsoluteY, catRMW}, {0x63, "RRA", IndexedIndirect, catRMW},
	{0x73, "RRA", IndirectIndexed, catRMW},

	{0xC7, "DCP", ZeroPage, catRMW}, {0xD7, "DCP", ZeroPageX, catRMW}, {0xCF, "DCP", Absolute, catRMW},
	{0xDF, "DCP", AbsoluteX, catRMW}, {0xDB, "DCP", AbsoluteY, catRMW}, {0xC3, "DCP", IndexedIndirect, catRMW},
	{0xD3, "DCP", IndirectIndexed, catRMW},

	{0xE7, "ISB", ZeroPage, catRMW}, {0xF7, "ISB", ZeroPageX, catRMW}, {0xEF, "ISB", Absolute, catRMW},
	{0xFF, "ISB", AbsoluteX, catRMW}, {0xFB, "ISB", AbsoluteY, catRMW}, {0xE3, "ISB", IndexedIndirect, catRMW},
	{0xF3, "ISB", IndirectIndexed, catRMW},

	// Unofficial unstable stores
	{0x87, "SAX", ZeroPage, catWrite}, {0x97, "SAX", ZeroPageY, catWrite}, {0x8F, "SAX", Absolute, catWrite},
	{0x83, "SAX", IndexedIndirect, catWrite},
	{0x9F, "SHA", AbsoluteY, catWrite}, {0x93, "SHA", IndirectIndexed, catWrite},
	{0x9E, "SHX", AbsoluteY, catWrite},
	{0x9C, "SHY", AbsoluteX, catWrite},
	{0x9B, "TAS", AbsoluteY, catWrite},

	// Branches
	{0x90, "BCC", Relative, catBranch}, {0xB0, "BCS", Relative, catBranch},
	{0xF0, "BEQ", Relative, catBranch}, {0xD0, "BNE", Relative, catBranch},
	{0x30, "BMI", Relative, catBranch}, {0x10, "BPL", Relative, catBranch},
	{0x50, "BVC", Relative, catBranch}, {0x70, "BVS", Relative, catBranch},

	// Control flow / stack
	{0x00, "BRK", Implied, catControl}, {0x40, "RTI", Implied, catControl}, {0x60, "RTS", Implied, catControl},
	{0x20, "JSR", Absolute, catControl}, {0x4C, "JMP", Absolute, catControl}, {0x6C, "JMP", Indirect, catControl},
	{0x48, "PHA", Implied, catControl}, {0x08, "PHP", Implied, catControl},
	{0x68, "PLA", Implied, catControl}, {0x28, "PLP", Implied, catControl},

	// JAM / KIL
	{0x02, "JAM", Implied, catJam}, {0x12, "JAM", Implied, catJam}, {0x22, "JAM", Implied, catJam},
	{0x32, "JAM", Implied, catJam}, {0x42, "JAM", Implied, catJam}, {0x52, "JAM", Implied, catJam},
	{0x62, "JAM", Implied, catJam}, {0x72, "JAM", Implied, catJam}, {0x92, "JAM", Implied, catJam},
	{0xB2, "JAM", Implied, catJam}, {0xD2, "JAM", Implied, catJam}, {0xF2, "JAM", Implied, catJam},
}

func (c *CPU) setCV(a, operand, result uint8) {
	c.V = (a^result)&(operand^result)&0x80 != 0
}

func (c *CPU) adc(value uint8) {
	carry := uint16(0)
	if c.C {
		carry = 1
	}
	sum := uint16(c.A) + uint16(value) + carry
	c.setCV(c.A, value, uint8(sum))
	c.C = sum > 0xFF
	c.A = uint8(sum)
	c.setZN(c.A)
}

func (c *CPU) sbc(value uint8) {
	c.adc(^value)
}

func (c *CPU) compare(reg, value uint8) {
	c.C = reg >= value
	c.setZN(reg - value)
}

func shiftLeft(c *CPU, v uint8) uint8 {
	c.C = v&0x80 != 0
	r := v << 1
	c.setZN(r)
	return r
}

func shiftRight(c *CPU, v uint8) uint8 {
	c.C = v&0x01 != 0
	r := v >> 1
	c.setZN(r)
	return r
}

func rotateLeft(c *CPU, v uint8) uint8 {
	oldC := uint8(0)
	if c.C {
		oldC = 1
	}
	c.C = v&0x80 != 0
	r := v<<1 | oldC
	c.setZN(r)
	return r
}

func rotateRight(c *CPU, v uint8) uint8 {
	oldC := uint8(0)
	if c.C {
		oldC = 0x80
	}
	c.C = v&0x01 != 0
	r := v>>1 | oldC
	c.setZN(r)
	return r
}

// readOps is applied after a read-category operand has been fetched into
// the provided value.
var readOps map[uint8]func(c *CPU, v uint8)

// writeOps computes the byte to store for a write-category opcode.
var writeOps map[uint8]func(c *CPU) uint8

// rmwOps computes the new value to write back for a read-modify-write opcode.
var rmwOps map[uint8]func(c *CPU, old uint8) uint8

// nonMemoryOps runs opcodes that touch no memory beyond the dummy fetch
// (register transfers, flag changes, accumulator-mode shifts).
var nonMemoryOps map[uint8]func(c *CPU)

var branchConds = map[uint8]func(c *CPU) bool{
	0x90: func(c *CPU) bool { return !c.C },
	0xB0: func(c *CPU) bool { return c.C },
	0xF0: func(c *CPU) bool { return c.Z },
	0xD0: func(c *CPU) bool { return !c.Z },
	0x30: func(c *CPU) bool { return c.N },
	0x10: func(c *CPU) bool { return !c.N },
	0x50: func(c *CPU) bool { return !c.V },
	0x70: func(c *CPU) bool { return c.V },
}

func init() {
	readOps = make(map[uint8]func(c *CPU, v uint8))
	writeOps = make(map[uint8]func(c *CPU) uint8)
	rmwOps = make(map[uint8]func(c *CPU, old uint8) uint8)
	nonMemoryOps = make(map[uint8]func(c *CPU))

	lda := func(c *CPU, v uint8) { c.A = v; c.setZN(c.A) }
	ldx := func(c *CPU, v uint8) { c.X = v; c.setZN(c.X) }
	ldy := func(c *CPU, v uint8) { c.Y = v; c.setZN(c.Y) }
	and := func(c *CPU, v uint8) { c.A &= v; c.setZN(c.A) }
	ora := func(c *CPU, v uint8) { c.A |= v; c.setZN(c.A) }
	eor := func(c *CPU, v uint8) { c.A ^= v; c.setZN(c.A) }
	adc := func(c *CPU, v uint8) { c.adc(v) }
	sbc := func(c *CPU, v uint8) { c.sbc(v) }
	cmp := func(c *CPU, v uint8) { c.compare(c.A, v) }
	cpx := func(c *CPU, v uint8) { c.compare(c.X, v) }
	cpy := func(c *CPU, v uint8) { c.compare(c.Y, v) }
	bit := func(c *CPU, v uint8) {
		c.Z = c.A&v == 0
		c.N = v&0x80 != 0
		c.V = v&0x40 != 0
	}
	lax := func(c *CPU, v uint8) { c.A = v; c.X = v; c.setZN(v) }
	nopRead := func(c *CPU, v uint8) {}
	lxa := func(c *CPU, v uint8) { c.A = v; c.X = v; c.setZN(v) }
	anc := func(c *CPU, v uint8) { c.A &= v; c.setZN(c.A); c.C = c.A&0x80 != 0 }
	alr := func(c *CPU, v uint8) { c.A &= v; c.A = shiftRight(c, c.A) }
	arr := func(c *CPU, v uint8) {
		c.A &= v
		c.A = rotateRight(c, c.A)
		c.C = c.A&0x40 != 0
		c.V = (c.A>>6)&1^(c.A>>5)&1 != 0
	}
	xaa := func(c *CPU, v uint8) { c.A = (c.A | 0xEE) & c.X & v; c.setZN(c.A) }
	sbx := func(c *CPU, v uint8) {
		combined := c.A & c.X
		c.C = combined >= v
		c.X = combined - v
		c.setZN(c.X)
	}
	las := func(c *CPU, v uint8) {
		r := v & c.S
		c.A, c.X, c.S = r, r, r
		c.setZN(r)
	}

	for op, info := range opcodeTable {
		switch info.Mnemonic {
		case "LDA":
			readOps[uint8(op)] = lda
		case "LDX":
			readOps[uint8(op)] = ldx
		case "LDY":
			readOps[uint8(op)] = ldy
		case "AND":
			readOps[uint8(op)] = and
		case "ORA":
			readOps[uint8(op)] = ora
		case "EOR":
			readOps[uint8(op)] = eor
		case "ADC":
			readOps[uint8(op)] = adc
		case "SBC":
			readOps[uint8(op)] = sbc
		case "CMP":
			readOps[uint8(op)] = cmp
		case "CPX":
			readOps[uint8(op)] = cpx
		case "CPY":
			readOps[uint8(op)] = cpy
		case "BIT":
			readOps[uint8(op)] = bit
		case "LAX":
			readOps[uint8(op)] = lax
		case "NOP":
			if info.Cat == catRead {
				readOps[uint8(op)] = nopRead
			}
		case "LXA":
			readOps[uint8(op)] = lxa
		case "ANC":
			readOps[uint8(op)] = anc
		case "ALR":
			readOps[uint8(op)] = alr
		case "ARR":
			readOps[uint8(op)] = arr
		case "XAA":
			readOps[uint8(op)] = xaa
		case "SBX":
			readOps[uint8(op)] = sbx
		case "LAS":
			readOps[uint8(op)] = las
		}
	}

	for _, op := range []uint8{0x85, 0x95, 0x8D, 0x9D, 0x99, 0x81, 0x91} {
		writeOps[op] = func(c *CPU) uint8 { return c.A }
	}
	for _, op := range []uint8{0x86, 0x96, 0x8E} {
		writeOps[op] = func(c *CPU) uint8 { return c.X }
	}
	for _, op := range []uint8{0x84, 0x94, 0x8C} {
		writeOps[op] = func(c *CPU) uint8 { return c.Y }
	}
	for _, op := range []uint8{0x87, 0x97, 0x8F, 0x83} {
		writeOps[op] = func(c *CPU) uint8 { return c.A & c.X }
	}
	writeOps[0x9F] = func(c *CPU) uint8 { return c.A & c.X & uint8(c.effAddr>>8+1) }
	writeOps[0x93] = func(c *CPU) uint8 { return c.A & c.X & uint8(c.effAddr>>8+1) }
	writeOps[0x9E] = func(c *CPU) uint8 { return c.X & uint8(c.effAddr>>8+1) }
	writeOps[0x9C] = func(c *CPU) uint8 { return c.Y & uint8(c.effAddr>>8+1) }
	writeOps[0x9B] = func(c *CPU) uint8 {
		c.S = c.A & c.X
		return c.S & uint8(c.effAddr>>8+1)
	}

	asl := func(c *CPU, v uint8) uint8 { return shiftLeft(c, v) }
	lsr := func(c *CPU, v uint8) uint8 { return shiftRight(c, v) }
	rol := func(c *CPU, v uint8) uint8 { return rotateLeft(c, v) }
	ror := func(c *CPU, v uint8) uint8 { return rotateRight(c, v) }
	inc := func(c *CPU, v uint8) uint8 { r := v + 1; c.setZN(r); return r }
	dec := func(c *CPU, v uint8) uint8 { r := v - 1; c.setZN(r); return r }
	slo := func(c *CPU, v uint8) uint8 { r := shiftLeft(c, v); c.A |= r; c.setZN(c.A); return r }
	rla := func(c *CPU, v uint8) uint8 { r := rotateLeft(c, v); c.A &= r; c.setZN(c.A); return r }
	sre := func(c *CPU, v uint8) uint8 { r := shiftRight(c, v); c.A ^= r; c.setZN(c.A); return r }
	rra := func(c *CPU, v uint8) uint8 { r := rotateRight(c, v); c.adc(r); return r }
	dcp := func(c *CPU, v uint8) uint8 { r := v - 1; c.compare(c.A, r); return r }
	isb := func(c *CPU, v uint8) uint8 { r := v + 1; c.sbc(r); return r }

	for op, info := range opcodeTable {
		switch info.Mnemonic {
		case "ASL":
			if info.Cat == catRMW {
				rmwOps[uint8(op)] = asl
			}
		case "LSR":
			if info.Cat == catRMW {
				rmwOps[uint8(op)] = lsr
			}
		case "ROL":
			if info.Cat == catRMW {
				rmwOps[uint8(op)] = rol
			}
		case "ROR":
			if info.Cat == catRMW {
				rmwOps[uint8(op)] = ror
			}
		case "INC":
			rmwOps[uint8(op)] = inc
		case "DEC":
			rmwOps[uint8(op)] = dec
		case "SLO":
			rmwOps[uint8(op)] = slo
		case "RLA":
			rmwOps[uint8(op)] = rla
		case "SRE":
			rmwOps[uint8(op)] = sre
		case "RRA":
			rmwOps[uint8(op)] = rra
		case "DCP":
			rmwOps[uint8(op)] = dcp
		case "ISB":
			rmwOps[uint8(op)] = isb
		}
	}

	nonMemoryOps[0xAA] = func(c *CPU) { c.X = c.A; c.setZN(c.X) }
	nonMemoryOps[0x8A] = func(c *CPU) { c.A = c.X; c.setZN(c.A) }
	nonMemoryOps[0xA8] = func(c *CPU) { c.Y = c.A; c.setZN(c.Y) }
	nonMemoryOps[0x98] = func(c *CPU) { c.A = c.Y; c.setZN(c.A) }
	nonMemoryOps[0xBA] = func(c *CPU) { c.X = c.S; c.setZN(c.X) }
	nonMemoryOps[0x9A] = func(c *CPU) { c.S = c.X }
	nonMemoryOps[0xE8] = func(c *CPU) { c.X++; c.setZN(c.X) }
	nonMemoryOps[0xC8] = func(c *CPU) { c.Y++; c.setZN(c.Y) }
	nonMemoryOps[0xCA] = func(c *CPU) { c.X--; c.setZN(c.X) }
	nonMemoryOps[0x88] = func(c *CPU) { c.Y--; c.setZN(c.Y) }
	nonMemoryOps[0x18] = func(c *CPU) { c.C = false }
	nonMemoryOps[0x38] = func(c *CPU) { c.C = true }
	nonMemoryOps[0x58] = func(c *CPU) { c.I = false }
	nonMemoryOps[0x78] = func(c *CPU) { c.I = true }
	nonMemoryOps[0xB8] = func(c *CPU) { c.V = false }
	nonMemoryOps[0xD8] = func(c *CPU) { c.D = false }
	nonMemoryOps[0xF8] = func(c *CPU) { c.D = true }
	nonMemoryOps[0xEA] = func(c *CPU) {}
	for _, op := range []uint8{0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA} {
		nonMemoryOps[op] = func(c *CPU) {}
	}
	nonMemoryOps[0x0A] = func(c *CPU) { c.A = shiftLeft(c, c.A) }
	nonMemoryOps[0x4A] = func(c *CPU) { c.A = shiftRight(c, c.A) }
	nonMemoryOps[0x2A] = func(c *CPU) { c.A = rotateLeft(c, c.A) }
	nonMemoryOps[0x6A] = func(c *CPU) { c.A = rotateRight(c, c.A) }
}
