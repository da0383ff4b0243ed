//go:build !headless
// +build !headless

package graphics

import "testing"

func TestCreateBackend_HeadlessReturnsHeadlessBackend(t *testing.T) {
	backend, err := CreateBackend(BackendHeadless)
	if err != nil {
		t.Fatalf("CreateBackend(headless) error: %v", err)
	}
	if !backend.IsHeadless() {
		t.Fatal("backend from BackendHeadless should report IsHeadless() == true")
	}
	if backend.GetName() != "Headless" {
		t.Fatalf("GetName() = %q, want %q", backend.GetName(), "Headless")
	}
}

func TestCreateBackend_UnknownDefaultsToEbitengine(t *testing.T) {
	backend, err := CreateBackend(BackendType("does-not-exist"))
	if err != nil {
		t.Fatalf("CreateBackend(unknown) error: %v", err)
	}
	if backend.GetName() != "Ebitengine" {
		t.Fatalf("GetName() = %q, want %q for an unrecognized backend type", backend.GetName(), "Ebitengine")
	}
}

func TestEbitengineBackend_InitializeTwiceFails(t *testing.T) {
	backend := NewEbitengineBackend()
	if err := backend.Initialize(Config{}); err != nil {
		t.Fatalf("first Initialize failed: %v", err)
	}
	if err := backend.Initialize(Config{}); err == nil {
		t.Fatal("second Initialize should fail; backend is already initialized")
	}
}

func TestEbitengineBackend_CreateWindowRejectsHeadlessConfig(t *testing.T) {
	backend := NewEbitengineBackend()
	if err := backend.Initialize(Config{Headless: true}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if _, err := backend.CreateWindow("test", 256, 240); err == nil {
		t.Fatal("CreateWindow should fail when Config.Headless is set")
	}
}

func TestEbitengineWindow_RenderFrameConvertsPixels(t *testing.T) {
	backend := NewEbitengineBackend()
	if err := backend.Initialize(Config{}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	window, err := backend.CreateWindow("test", 512, 480)
	if err != nil {
		t.Fatalf("CreateWindow failed: %v", err)
	}

	var frame [256 * 240]uint32
	frame[0] = 0x112233 // R=0x11 G=0x22 B=0x33

	if err := window.RenderFrame(frame); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}

	ew := window.(*EbitengineWindow)
	img := ew.game.imageBuffer
	r, g, b, a := img.At(0, 0).RGBA()
	if uint8(r>>8) != 0x11 || uint8(g>>8) != 0x22 || uint8(b>>8) != 0x33 || uint8(a>>8) != 0xFF {
		t.Fatalf("pixel (0,0) = (%#02x,%#02x,%#02x,%#02x), want (0x11,0x22,0x33,0xff)", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestAsEbitengineWindow(t *testing.T) {
	backend := NewEbitengineBackend()
	if err := backend.Initialize(Config{}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	window, err := backend.CreateWindow("test", 256, 240)
	if err != nil {
		t.Fatalf("CreateWindow failed: %v", err)
	}

	if _, ok := AsEbitengineWindow(window); !ok {
		t.Fatal("AsEbitengineWindow should succeed for an *EbitengineWindow")
	}

	headless, _ := NewHeadlessBackend().CreateWindow("test", 256, 240)
	if _, ok := AsEbitengineWindow(headless); ok {
		t.Fatal("AsEbitengineWindow should fail for a *HeadlessWindow")
	}
}

func TestHeadlessWindow_Lifecycle(t *testing.T) {
	backend := NewHeadlessBackend()
	if err := backend.Initialize(Config{Headless: true}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	window, err := backend.CreateWindow("test", 256, 240)
	if err != nil {
		t.Fatalf("CreateWindow failed: %v", err)
	}

	if window.ShouldClose() {
		t.Fatal("a freshly created window should not report ShouldClose")
	}
	if events := window.PollEvents(); events != nil {
		t.Fatalf("PollEvents() = %v, want nil (headless has no input)", events)
	}

	var frame [256 * 240]uint32
	if err := window.RenderFrame(frame); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}

	if err := window.Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if !window.ShouldClose() {
		t.Fatal("ShouldClose should be true after Cleanup")
	}
}
