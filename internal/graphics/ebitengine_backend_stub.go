//go:build headless
// +build headless

// This build tag swaps the real ebiten-backed implementation out entirely
// (ebitengine_backend.go carries `!headless`), so a `headless` build never
// links ebiten at all — CreateBackend still accepts BackendEbitengine, it
// just always fails with errUnavailable.
package graphics

import "errors"

var errUnavailable = errors.New("ebitengine backend not available in a headless build")

// EbitengineBackend is a non-functional stand-in used only so headless
// builds still satisfy the Backend interface without importing ebiten.
type EbitengineBackend struct{}

// EbitengineWindow is the matching stand-in for Window.
type EbitengineWindow struct{}

// NewEbitengineBackend returns the stub backend.
func NewEbitengineBackend() Backend { return &EbitengineBackend{} }

func (b *EbitengineBackend) Initialize(config Config) error               { return errUnavailable }
func (b *EbitengineBackend) CreateWindow(string, int, int) (Window, error) { return nil, errUnavailable }
func (b *EbitengineBackend) Cleanup() error                                { return nil }
func (b *EbitengineBackend) IsHeadless() bool                              { return true }
func (b *EbitengineBackend) GetName() string                               { return "Ebitengine-Stub" }

func (w *EbitengineWindow) SetTitle(string)                               {}
func (w *EbitengineWindow) GetSize() (int, int)                           { return 0, 0 }
func (w *EbitengineWindow) ShouldClose() bool                             { return true }
func (w *EbitengineWindow) SwapBuffers()                                  {}
func (w *EbitengineWindow) PollEvents() []InputEvent                      { return nil }
func (w *EbitengineWindow) RenderFrame([256 * 240]uint32) error           { return errUnavailable }
func (w *EbitengineWindow) Cleanup() error                                { return nil }
func (w *EbitengineWindow) Run() error                                    { return errUnavailable }
func (w *EbitengineWindow) SetEmulatorUpdateFunc(func() error)            {}