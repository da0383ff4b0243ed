// Package app provides emulator integration for the main application.
package app

import (
	"fmt"
	"time"

	"github.com/nesgo/gones/internal/bus"
)

// Emulator drives the bus at a fixed 60Hz cadence and exposes the frame
// buffer, audio samples and debug state the host shell needs each tick.
type Emulator struct {
	bus    *bus.Bus
	config *Config

	targetFrameTime time.Duration
	cycleBudget     int

	frameBuffer  []uint32
	audioSamples []float32

	actualFrameTime  time.Duration
	emulationTime    time.Duration
	cycleCount       uint64
	frameCount       uint64
	averageFrameTime time.Duration

	isRunning     bool
	lastResetTime time.Time
}

// NewEmulator creates a new emulator instance with fixed timing for accuracy.
func NewEmulator(b *bus.Bus, config *Config) *Emulator {
	emulator := &Emulator{
		bus:             b,
		config:          config,
		targetFrameTime: time.Duration(16666667) * time.Nanosecond, // 60 FPS
		cycleBudget:     2 * 29781,                                 // two frames' worth, safety net against a stuck PPU
		frameBuffer:     make([]uint32, 256*240),
		audioSamples:    make([]float32, 0, 1024),
		isRunning:       false,
		lastResetTime:   time.Now(),
	}

	emulator.Reset()
	return emulator
}

// Reset resets the emulator's frame/audio/timing state (not the bus itself).
func (e *Emulator) Reset() {
	e.actualFrameTime = 0
	e.emulationTime = 0
	e.cycleCount = 0
	e.frameCount = 0
	e.averageFrameTime = 0
	e.lastResetTime = time.Now()

	for i := range e.frameBuffer {
		e.frameBuffer[i] = 0
	}
	e.audioSamples = e.audioSamples[:0]
}

// Start starts the emulator.
func (e *Emulator) Start() {
	e.isRunning = true
}

// Stop stops the emulator.
func (e *Emulator) Stop() {
	e.isRunning = false
}

// Update runs the bus until the next vblank and refreshes the host-visible
// frame buffer and audio samples. Called once per host frame.
func (e *Emulator) Update() error {
	if !e.isRunning {
		return nil
	}

	frameStartTime := time.Now()

	if err := e.StepFrame(); err != nil {
		return fmt.Errorf("frame execution error: %v", err)
	}

	e.actualFrameTime = time.Since(frameStartTime)
	if e.averageFrameTime == 0 {
		e.averageFrameTime = e.actualFrameTime
	} else {
		e.averageFrameTime = time.Duration(
			float64(e.averageFrameTime)*0.95 + float64(e.actualFrameTime)*0.05,
		)
	}

	return nil
}

// StepFrame runs the bus until it completes one frame (reaches vblank) or
// exhausts the safety-net cycle budget.
func (e *Emulator) StepFrame() error {
	if e.bus == nil {
		return fmt.Errorf("bus not initialized")
	}

	emulationStart := time.Now()

	if _, err := e.runToVBlank(); err != nil {
		return err
	}
	e.frameCount++

	nesFrameBuffer := e.bus.GetFrameBuffer()
	if len(nesFrameBuffer) == len(e.frameBuffer) {
		copy(e.frameBuffer, nesFrameBuffer)
	}

	nesSamples := e.bus.GetAudioSamples()
	if len(nesSamples) > 0 {
		e.updateAudioSamples(nesSamples)
	}

	e.emulationTime = time.Since(emulationStart)
	e.cycleCount = e.bus.GetCycleCount()

	return nil
}

// runToVBlank wraps bus.RunToVBlank, turning a latched JAM fault into a Go
// error instead of silently returning frame=false.
func (e *Emulator) runToVBlank() (int, error) {
	ran, frame := e.bus.RunToVBlank(e.cycleBudget)
	if !frame {
		if e.bus.Fault != nil {
			return ran, fmt.Errorf("cpu jammed: %v", e.bus.Fault)
		}
		return ran, fmt.Errorf("frame did not reach vblank within %d cycles", e.cycleBudget)
	}
	return ran, nil
}

// StepInstruction executes a single CPU cycle (one Bus.Tick).
func (e *Emulator) StepInstruction() error {
	if e.bus == nil {
		return fmt.Errorf("bus not initialized")
	}

	if err := e.bus.Tick(); err != nil {
		return fmt.Errorf("cpu jammed: %v", err)
	}
	e.cycleCount = e.bus.GetCycleCount()

	return nil
}

func (e *Emulator) updateAudioSamples(nesSamples []float32) {
	if cap(e.audioSamples) < len(nesSamples) {
		e.audioSamples = make([]float32, len(nesSamples))
	} else {
		e.audioSamples = e.audioSamples[:len(nesSamples)]
	}
	copy(e.audioSamples, nesSamples)
}

// GetFrameBuffer returns the current frame buffer.
func (e *Emulator) GetFrameBuffer() []uint32 {
	return e.frameBuffer
}

// GetAudioSamples returns the current audio samples.
func (e *Emulator) GetAudioSamples() []float32 {
	return e.audioSamples
}

// GetFrameCount returns the total frame count.
func (e *Emulator) GetFrameCount() uint64 {
	return e.frameCount
}

// GetCycleCount returns the current CPU cycle count.
func (e *Emulator) GetCycleCount() uint64 {
	return e.cycleCount
}

// GetEmulationTime returns the time spent in emulation for the last frame.
func (e *Emulator) GetEmulationTime() time.Duration {
	return e.emulationTime
}

// GetActualFrameTime returns the actual frame time including rendering.
func (e *Emulator) GetActualFrameTime() time.Duration {
	return e.actualFrameTime
}

// GetAverageFrameTime returns the average frame time.
func (e *Emulator) GetAverageFrameTime() time.Duration {
	return e.averageFrameTime
}

// GetTargetFrameTime returns the target frame time (60 FPS).
func (e *Emulator) GetTargetFrameTime() time.Duration {
	return e.targetFrameTime
}

// GetEmulationSpeed returns the emulation speed as a percentage of real-time.
func (e *Emulator) GetEmulationSpeed() float64 {
	if e.actualFrameTime == 0 {
		return 0.0
	}
	return float64(e.targetFrameTime) / float64(e.actualFrameTime) * 100.0
}

// GetCPUUsage returns the CPU usage percentage for emulation.
func (e *Emulator) GetCPUUsage() float64 {
	if e.actualFrameTime == 0 {
		return 0.0
	}
	return float64(e.emulationTime) / float64(e.actualFrameTime) * 100.0
}

// IsRunning returns whether the emulator is running.
func (e *Emulator) IsRunning() bool {
	return e.isRunning
}

// GetUptime returns the emulator uptime since last reset.
func (e *Emulator) GetUptime() time.Duration {
	return time.Since(e.lastResetTime)
}

// SetTargetFrameRate sets the target frame rate.
func (e *Emulator) SetTargetFrameRate(fps int) {
	if fps > 0 {
		e.targetFrameTime = time.Duration(1000000/fps) * time.Microsecond
	}
}

// GetCPUState returns the current CPU state for debugging.
func (e *Emulator) GetCPUState() bus.CPUState {
	if e.bus == nil {
		return bus.CPUState{}
	}
	return e.bus.GetCPUState()
}

// GetPPUState returns the current PPU state for debugging.
func (e *Emulator) GetPPUState() bus.PPUState {
	if e.bus == nil {
		return bus.PPUState{}
	}
	return e.bus.GetPPUState()
}

// Cleanup cleans up emulator resources.
func (e *Emulator) Cleanup() error {
	e.Stop()
	e.frameBuffer = nil
	e.audioSamples = nil
	return nil
}
