// Package cpu implements a cycle-accurate 6502 derivative for the NES.
//
// Every opcode is decomposed into a queue of one-cycle steps built when the
// opcode is fetched; Tick executes exactly one step (and therefore exactly
// one CPU cycle, with at most one memory access) per call. This mirrors real
// silicon closely enough that interrupt polling, page-cross penalties and the
// indirect-JMP page bug all fall out of the same per-cycle machinery instead
// of being bolted on after the fact.
package cpu

// MemoryBus is the CPU's only path to the rest of the system. Every read or
// write may have side effects elsewhere (PPU registers, APU registers, mapper
// bank switches), so the CPU never touches memory except through this.
type MemoryBus interface {
	Read(addr uint16) uint8
	Write(addr uint16, val uint8)
}

// AddressingMode identifies how an opcode's operand address is resolved.
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

// category is the coarse instruction shape named in the design notes.
type category int

const (
	catControl category = iota
	catBranch
	catNonMemory
	catRead
	catWrite
	catRMW
	catJam
)

const (
	stackBase = 0x0100

	flagN = 0x80
	flagV = 0x40
	flagU = 0x20 // unused, always read as 1
	flagB = 0x10
	flagD = 0x08
	flagI = 0x04
	flagZ = 0x02
	flagC = 0x01

	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE
)

// TraceEntry is emitted once per retired instruction when CPU.Trace is set.
// It is the only hook this package offers toward logging/disassembly; there
// is no bundled debugger (see Non-goals).
type TraceEntry struct {
	PC     uint16
	Opcode uint8
	A, X, Y, S uint8
	P      uint8
	Cycle  uint64
}

// JamError is reported when an unofficial JAM/KIL opcode halts the CPU.
type JamError struct {
	PC     uint16
	Opcode uint8
}

func (e *JamError) Error() string {
	return "cpu: JAM opcode executed"
}

type step func(c *CPU, bus MemoryBus)

// CPU holds all programmer-visible and micro-architectural state for one
// 6502 core.
type CPU struct {
	A, X, Y, S uint8
	PC         uint16

	N, V, D, I, Z, C bool

	// Interrupt lines and edge/level latches (spec.md §3).
	nmiLine        bool
	nmiEdgeLatched bool
	irqLine        bool
	pendingSeq     seqKind

	// Working registers used by the per-cycle addressing-mode resolution.
	data          uint8
	lowerAddress  uint8
	upperAddress  uint8
	lowIndirect   uint8
	highIndirect  uint8
	effAddr       uint16
	pageCrossed   bool
	openBus       uint8

	queue      []step
	polledEarly bool

	Jammed    bool
	JamOpcode uint8

	Cycles uint64
	Trace  func(TraceEntry)
}

type seqKind int

const (
	seqNone seqKind = iota
	seqNMI
	seqIRQ
)

// New creates a CPU with no bus attached; the memory bus is passed to Reset
// and Tick on each call. Call Reset before use.
func New() *CPU {
	return &CPU{}
}

// Reset runs the 6502 power-up/reset sequence: seven bus cycles culminating
// in PC loaded from the reset vector, S=0xFD, I=1.
func (c *CPU) Reset(bus MemoryBus) {
	c.A, c.X, c.Y = 0, 0, 0
	c.S = 0xFD
	c.N, c.V, c.D, c.C, c.Z = false, false, false, false, false
	c.I = true

	c.queue = nil
	c.Jammed = false
	c.pendingSeq = seqNone
	c.nmiEdgeLatched = false

	for i := 0; i < 5; i++ {
		bus.Read(c.PC)
		c.Cycles++
	}
	low := uint16(bus.Read(resetVector))
	high := uint16(bus.Read(resetVector + 1))
	c.PC = high<<8 | low
	c.Cycles += 2
}

// SetNMILine updates the PPU-driven NMI line. A low-to-high transition
// latches an edge that is only consumed at the next interrupt-poll point.
func (c *CPU) SetNMILine(state bool) {
	if !c.nmiLine && state {
		c.nmiEdgeLatched = true
	}
	c.nmiLine = state
}

// SetIRQLine sets the level-triggered IRQ line (the OR of APU frame-IRQ,
// DMC-IRQ, and any mapper IRQ).
func (c *CPU) SetIRQLine(state bool) {
	c.irqLine = state
}

// QueueNMI latches an NMI edge directly. The PPU only invokes its NMI
// callback on an actual low-to-high transition of its own output line, so
// the bus wiring that calls this on that callback already performs the edge
// detection spec.md §3 assigns to nmi_edge_detector_output; the CPU just
// needs to remember it until the next interrupt-poll point.
func (c *CPU) QueueNMI() {
	c.nmiEdgeLatched = true
}

// OpenBus returns the last byte driven onto the data bus.
func (c *CPU) OpenBus() uint8 { return c.openBus }

func (c *CPU) read(bus MemoryBus, addr uint16) uint8 {
	v := bus.Read(addr)
	c.openBus = v
	return v
}

func (c *CPU) write(bus MemoryBus, addr uint16, v uint8) {
	bus.Write(addr, v)
	c.openBus = v
}

// poll samples the latched NMI edge / IRQ line into pendingSeq. Per spec.md
// §4.1, NMI always wins over IRQ, and once latched a sequence request is
// not lost even if the line changes again before the next fetch.
func (c *CPU) poll() {
	if c.nmiEdgeLatched {
		c.pendingSeq = seqNMI
		c.nmiEdgeLatched = false
		return
	}
	if c.irqLine && !c.I {
		c.pendingSeq = seqIRQ
	}
}

// Tick advances the CPU by exactly one cycle. It returns true on the cycle
// an instruction (or interrupt sequence) retires.
func (c *CPU) Tick(bus MemoryBus) bool {
	if c.Jammed {
		return false
	}
	c.Cycles++

	if len(c.queue) > 0 {
		s := c.queue[0]
		c.queue = c.queue[1:]
		s(c, bus)
		if len(c.queue) == 0 {
			if !c.polledEarly {
				c.poll()
			}
			return true
		}
		return false
	}

	if c.pendingSeq != seqNone {
		c.beginInterrupt(bus)
		return false
	}
	c.beginInstruction(bus)
	return false
}

func (c *CPU) beginInstruction(bus MemoryBus) {
	pc := c.PC
	var trace TraceEntry
	if c.Trace != nil {
		trace = TraceEntry{PC: pc, A: c.A, X: c.X, Y: c.Y, S: c.S, P: c.statusByte(false), Cycle: c.Cycles}
	}
	opcode := c.read(bus, pc)
	c.PC++
	if c.Trace != nil {
		trace.Opcode = opcode
		c.Trace(trace)
	}

	info := opcodeTable[opcode]
	if info.Cat == catJam {
		c.Jammed = true
		c.JamOpcode = opcode
		return
	}

	c.polledEarly = false
	c.queue = c.buildPlan(info, opcode)
	if isEarlyPoll(info) {
		c.poll()
		c.polledEarly = true
	}
}

func isEarlyPoll(info opcodeInfo) bool {
	if info.Cat == catNonMemory {
		return true
	}
	if info.Cat == catRead && info.Mode == Immediate {
		return true
	}
	return false
}

// beginInterrupt schedules the seven-cycle NMI/IRQ sequence. BRK shares this
// path conceptually but is driven from the opcode table instead, since BRK
// always executes as an instruction even though its last five cycles are
// identical to a hardware interrupt.
func (c *CPU) beginInterrupt(bus MemoryBus) {
	seq := c.pendingSeq
	c.pendingSeq = seqNone
	c.polledEarly = false
	vector := uint16(irqVector)
	if seq == seqNMI {
		vector = nmiVector
	}
	steps := []step{
		func(c *CPU, bus MemoryBus) { c.read(bus, c.PC) },
		func(c *CPU, bus MemoryBus) { c.read(bus, c.PC) },
		func(c *CPU, bus MemoryBus) { c.push(bus, uint8(c.PC>>8)) },
		func(c *CPU, bus MemoryBus) { c.push(bus, uint8(c.PC)) },
		func(c *CPU, bus MemoryBus) { c.push(bus, c.statusByte(false)) },
		func(c *CPU, bus MemoryBus) {
			c.lowerAddress = c.read(bus, vector)
			c.I = true
		},
		func(c *CPU, bus MemoryBus) {
			c.upperAddress = c.read(bus, vector+1)
			c.PC = uint16(c.upperAddress)<<8 | uint16(c.lowerAddress)
		},
	}
	// The first cycle of the sequence runs immediately, the same way the
	// opcode-fetch cycle runs inside beginInstruction: Tick already charged
	// this call one cycle, so it must do real work rather than just building
	// the queue.
	steps[0](c, bus)
	c.queue = steps[1:]
}

func (c *CPU) push(bus MemoryBus, v uint8) {
	c.write(bus, stackBase+uint16(c.S), v)
	c.S--
}

func (c *CPU) pull(bus MemoryBus) uint8 {
	c.S++
	return c.read(bus, stackBase+uint16(c.S))
}

// statusByte packs the flags into one byte. Bit 5 is always 1; forBRKOrPHP
// sets bit 4 (B), which is 1 when pushed by PHP/BRK and 0 when pushed by a
// hardware interrupt.
func (c *CPU) statusByte(forBRKOrPHP bool) uint8 {
	var s uint8 = flagU
	if c.N {
		s |= flagN
	}
	if c.V {
		s |= flagV
	}
	if c.D {
		s |= flagD
	}
	if c.I {
		s |= flagI
	}
	if c.Z {
		s |= flagZ
	}
	if c.C {
		s |= flagC
	}
	if forBRKOrPHP {
		s |= flagB
	}
	return s
}

func (c *CPU) setStatusByte(v uint8) {
	c.N = v&flagN != 0
	c.V = v&flagV != 0
	c.D = v&flagD != 0
	c.I = v&flagI != 0
	c.Z = v&flagZ != 0
	c.C = v&flagC != 0
}

func (c *CPU) setZN(v uint8) {
	c.Z = v == 0
	c.N = v&0x80 != 0
}
