// Package bus implements the system bus for communication between NES components.
package bus

import (
	"github.com/nesgo/gones/internal/apu"
	"github.com/nesgo/gones/internal/cartridge"
	"github.com/nesgo/gones/internal/cpu"
	"github.com/nesgo/gones/internal/input"
	"github.com/nesgo/gones/internal/memory"
	"github.com/nesgo/gones/internal/ppu"
)

// cyclesPerFrame is the number of CPU cycles Frame runs: NTSC runs 29780.67
// CPU cycles/frame, rounded up to one whole frame's worth.
const cyclesPerFrame = 29781

// Bus is the single top-level container for one NES system: every cross-
// component access (CPU memory dispatch, PPU VRAM access through the mapper,
// DMC fetch through the CPU bus) is a method on *Bus, rather than a back-
// reference stored inside a leaf component (spec.md §9 cyclic-ownership note).
type Bus struct {
	CPU   *cpu.CPU
	PPU   *ppu.PPU
	APU   *apu.APU
	Mem   *memory.Memory
	Input *input.InputState
	Cart  *cartridge.Cartridge

	ppuMem *memory.PPUMemory

	cpuCycles   uint64
	stallCycles int
	frameCount  uint64
	frameReady  bool

	// Fault latches the first JAM encountered; Tick keeps returning it
	// instead of re-advancing a halted CPU.
	Fault *cpu.JamError
}

// New creates a bus with no cartridge loaded. LoadCartridge must be called
// before Tick/RunToVBlank will do anything useful; reads against an absent
// mapper behave as open bus.
func New() *Bus {
	b := &Bus{
		PPU:   ppu.New(),
		APU:   apu.New(),
		Input: input.NewInputState(),
	}
	b.Mem = memory.New(b.PPU, b.APU, nil)
	b.Mem.SetInputSystem(b.Input)
	b.Mem.SetDMACallback(b.triggerOAMDMA)
	b.CPU = cpu.New()

	b.PPU.SetNMICallback(b.onNMI)
	b.PPU.SetFrameCompleteCallback(b.onFrameComplete)

	b.Reset()
	return b
}

// Reset runs the power-up/reset sequence on every component, without
// disturbing the loaded cartridge.
func (b *Bus) Reset() {
	b.CPU.Reset(b.Mem)
	b.PPU.Reset()
	b.APU.Reset()
	b.Input.Reset()

	b.cpuCycles = 0
	b.stallCycles = 0
	b.frameCount = 0
	b.frameReady = false
	b.Fault = nil

	b.PPU.SetFrameCount(0)
	b.PPU.SetCPUCycle(0)
}

// LoadCartridge installs cart and rebuilds the memory maps and CPU that
// depend on its mapper, then runs the reset sequence.
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) {
	b.Cart = cart

	b.Mem = memory.New(b.PPU, b.APU, cart.Mapper)
	b.Mem.SetInputSystem(b.Input)
	b.Mem.SetDMACallback(b.triggerOAMDMA)

	b.ppuMem = memory.NewPPUMemory(cart.Mapper)
	b.PPU.SetMemory(b.ppuMem)

	b.CPU = cpu.New()

	b.Reset()
}

// onNMI is wired to the PPU's NMI callback, which only fires on an actual
// low-to-high transition of the PPU's own NMI output line (vblank entry, or
// PPUCTRL's NMI-enable bit toggling on while already in vblank). That call
// site is the edge detection spec.md §3 assigns to nmi_edge_detector_output,
// so QueueNMI only needs to latch it for the next interrupt-poll point.
func (b *Bus) onNMI() {
	b.CPU.QueueNMI()
}

func (b *Bus) onFrameComplete() {
	b.frameCount = b.PPU.GetFrameCount()
	b.frameReady = true
}

// triggerOAMDMA is wired to Memory's $4014 write handler. It reads 256 bytes
// from sourcePage<<8 through the CPU bus and writes them via PPU register
// $2004, so OAMADDR auto-increment/wrap is reused exactly as hardware
// performs it starting from whatever OAMADDR already holds, then charges the
// bus 513 or 514 stall cycles depending on CPU-cycle parity.
func (b *Bus) triggerOAMDMA(sourcePage uint8) {
	base := uint16(sourcePage) << 8
	for i := uint16(0); i < 256; i++ {
		value := b.Mem.Read(base + i)
		b.PPU.WriteRegister(0x2004, value)
	}

	dmaCycles := 513
	if b.cpuCycles%2 == 1 {
		dmaCycles = 514
	}
	b.stallCycles += dmaCycles
}

// Tick advances the system by exactly one CPU cycle: the mapper sees the
// cycle boundary, then either a stalled cycle is consumed or the CPU steps
// once, then the PPU steps three times (it runs at 3x CPU rate), then the
// APU steps once. This ordering matches spec.md §2/§5's run-to-vblank loop.
// It returns the JAM fault if one is newly encountered; once Fault is set,
// further Tick calls are no-ops that keep returning it.
func (b *Bus) Tick() *cpu.JamError {
	if b.Fault != nil {
		return b.Fault
	}

	if b.Cart != nil {
		b.Cart.Mapper.CPUTick()
	}

	if b.stallCycles > 0 {
		b.stallCycles--
	} else {
		irq := b.APU.GetFrameIRQ() || b.APU.GetDMCIRQ()
		if b.Cart != nil {
			irq = irq || b.Cart.Mapper.IRQ()
		}
		b.CPU.SetIRQLine(irq)
		b.CPU.Tick(b.Mem)
		if b.CPU.Jammed {
			b.Fault = &cpu.JamError{PC: b.CPU.PC, Opcode: b.CPU.JamOpcode}
			return b.Fault
		}
	}
	b.cpuCycles++
	b.PPU.SetCPUCycle(b.cpuCycles)

	for i := 0; i < 3; i++ {
		b.PPU.Step()
	}

	b.APU.Tick(b.Mem, b.cpuCycles)
	b.stallCycles += b.APU.StallCycles()

	return nil
}

// RunToVBlank runs Tick in a loop until the PPU enters vblank (scanline 241,
// cycle 1) or budget cycles have elapsed, whichever comes first, matching the
// "run-to-vblank" granularity a host shell drives its frame loop with.
// frame reports whether vblank was actually reached; ranCycles is always the
// number of CPU cycles executed, including a budget-exhausted partial frame.
func (b *Bus) RunToVBlank(budget int) (ranCycles int, frame bool) {
	b.frameReady = false
	for i := 0; i < budget; i++ {
		if err := b.Tick(); err != nil {
			return i, false
		}
		if b.PPU.GetScanline() == 241 && b.PPU.GetCycle() == 1 {
			return i + 1, true
		}
	}
	return budget, false
}

// Frame runs exactly one NTSC frame worth of CPU cycles (29781), the
// fixed-cadence alternative to RunToVBlank for hosts that drive timing off
// the wall clock instead of the vblank edge.
func (b *Bus) Frame() *cpu.JamError {
	for i := 0; i < cyclesPerFrame; i++ {
		if err := b.Tick(); err != nil {
			return err
		}
	}
	return nil
}

// GetFrameBuffer returns the current PPU frame buffer.
func (b *Bus) GetFrameBuffer() []uint32 {
	fb := b.PPU.GetFrameBuffer()
	return fb[:]
}

// GetAudioSamples drains the APU's sample queue.
func (b *Bus) GetAudioSamples() []float32 {
	return b.APU.GetSamples()
}

// SetAudioSampleRate sets the target audio sample rate for the APU.
func (b *Bus) SetAudioSampleRate(rate int) {
	b.APU.SetSampleRate(rate)
}

// GetCycleCount returns the current CPU cycle count.
func (b *Bus) GetCycleCount() uint64 {
	return b.cpuCycles
}

// GetFrameCount returns the current frame count.
func (b *Bus) GetFrameCount() uint64 {
	return b.frameCount
}

// IsFrameReady reports whether a frame has completed since the last call,
// clearing the flag (edge-triggered, mirroring IsFrameComplete's contract).
func (b *Bus) IsFrameReady() bool {
	ready := b.frameReady
	b.frameReady = false
	return ready
}

// SetControllerButtons sets all button states for a controller (1 or 2).
func (b *Bus) SetControllerButtons(controller int, buttons [8]bool) {
	switch controller {
	case 0, 1:
		b.Input.SetButtons1(buttons)
	case 2:
		b.Input.SetButtons2(buttons)
	}
}

// SetControllerButton sets a single button's state for a controller (1 or 2).
func (b *Bus) SetControllerButton(controller int, button input.Button, pressed bool) {
	switch controller {
	case 0, 1:
		b.Input.Controller1.SetButton(button, pressed)
	case 2:
		b.Input.Controller2.SetButton(button, pressed)
	}
}

// CPUState is a flattened snapshot of programmer-visible CPU state, used by
// the host shell's status display.
type CPUState struct {
	PC      uint16
	A, X, Y uint8
	SP      uint8
	Cycles  uint64
	Flags   CPUFlags
}

// CPUFlags holds the individual 6502 status flags.
type CPUFlags struct {
	N, V, D, I, Z, C bool
}

// GetCPUState returns a snapshot of CPU state for display/testing.
func (b *Bus) GetCPUState() CPUState {
	return CPUState{
		PC:     b.CPU.PC,
		A:      b.CPU.A,
		X:      b.CPU.X,
		Y:      b.CPU.Y,
		SP:     b.CPU.S,
		Cycles: b.cpuCycles,
		Flags: CPUFlags{
			N: b.CPU.N,
			V: b.CPU.V,
			D: b.CPU.D,
			I: b.CPU.I,
			Z: b.CPU.Z,
			C: b.CPU.C,
		},
	}
}

// PPUState is a flattened snapshot of PPU timing/status, used by the host
// shell's status display.
type PPUState struct {
	Scanline    int
	Cycle       int
	FrameCount  uint64
	VBlankFlag  bool
	RenderingOn bool
}

// GetPPUState returns a snapshot of PPU state for display/testing.
func (b *Bus) GetPPUState() PPUState {
	return PPUState{
		Scanline:    b.PPU.GetScanline(),
		Cycle:       b.PPU.GetCycle(),
		FrameCount:  b.PPU.GetFrameCount(),
		VBlankFlag:  b.PPU.IsVBlank(),
		RenderingOn: b.PPU.IsRenderingEnabled(),
	}
}

// Snapshot is a save-state: a fully independent deep copy of every
// component's value state, suitable for Restore at any later point (spec.md
// §3 Lifecycle/§9 Open Question resolution).
type Snapshot struct {
	cpu         cpu.CPU
	ppu         ppu.PPU
	apu         apu.APU
	mem         memory.Memory
	ppuMem      memory.PPUMemory
	cart        *cartridge.Cartridge
	cpuCycles   uint64
	stallCycles int
	frameCount  uint64
}

// Snapshot captures the current system state. The cartridge (including
// mutable CHR-RAM/PRG-RAM and mapper bank-switching state) is deep-copied via
// Cartridge.Clone; CPU/PPU/APU/RAM/VRAM are plain value copies of their flat
// register/array state. Controller button state is live input, not console
// state, and is deliberately not captured.
func (b *Bus) Snapshot() *Snapshot {
	return &Snapshot{
		cpu:         *b.CPU,
		ppu:         *b.PPU.Clone(),
		apu:         *b.APU.Clone(),
		mem:         *b.Mem,
		ppuMem:      *b.ppuMem,
		cart:        b.Cart.Clone(),
		cpuCycles:   b.cpuCycles,
		stallCycles: b.stallCycles,
		frameCount:  b.frameCount,
	}
}

// Restore replaces the bus's state with an independent copy of s, so later
// mutation of either the bus or a re-used Snapshot cannot affect the other.
func (b *Bus) Restore(s *Snapshot) {
	cart := s.cart.Clone()

	cpuCopy := s.cpu
	ppuCopy := s.ppu
	apuCopy := s.apu
	memCopy := s.mem
	ppuMemCopy := s.ppuMem

	b.Cart = cart
	b.CPU = &cpuCopy
	b.PPU = &ppuCopy
	b.APU = &apuCopy

	b.ppuMem = ppuMemCopy.Clone(cart.Mapper)
	b.PPU.SetMemory(b.ppuMem)
	b.PPU.SetNMICallback(b.onNMI)
	b.PPU.SetFrameCompleteCallback(b.onFrameComplete)

	b.Mem = memCopy.Clone(b.PPU, b.APU, b.Input, cart.Mapper)
	b.Mem.SetDMACallback(b.triggerOAMDMA)

	b.cpuCycles = s.cpuCycles
	b.stallCycles = s.stallCycles
	b.frameCount = s.frameCount
	b.frameReady = false
	b.Fault = nil
}
