//go:build !headless
// +build !headless

package graphics

import (
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// EbitengineBackend implements Backend on top of Ebitengine. It is the only
// backend that actually opens a window; headlessBackend and terminalBackend
// exist for running the core without a display.
type EbitengineBackend struct {
	initialized bool
	config      Config
	game        *ebitenGame
}

// EbitengineWindow implements Window over an ebiten.Game instance.
type EbitengineWindow struct {
	backend            *EbitengineBackend
	title              string
	width              int
	height             int
	game               *ebitenGame
	running            bool
	events             []InputEvent
	emulatorUpdateFunc func() error
}

// ebitenGame adapts the emulator's frame buffer and input polling to
// ebiten's Update/Draw/Layout game loop.
type ebitenGame struct {
	window       *EbitengineWindow
	frameImage   *ebiten.Image
	imageBuffer  *image.RGBA // reused across Draw calls to avoid per-frame allocation
	nesWidth     int
	nesHeight    int
	windowWidth  int
	windowHeight int
}

// NewEbitengineBackend creates a new Ebitengine graphics backend.
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

func (b *EbitengineBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("ebitengine backend already initialized")
	}
	b.config = config
	b.initialized = true
	return nil
}

func (b *EbitengineBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}
	if b.config.Headless {
		return nil, fmt.Errorf("cannot create a window in headless mode")
	}

	game := &ebitenGame{
		nesWidth:     256,
		nesHeight:    240,
		windowWidth:  width,
		windowHeight: height,
		frameImage:   ebiten.NewImage(256, 240),
		imageBuffer:  image.NewRGBA(image.Rect(0, 0, 256, 240)),
	}

	window := &EbitengineWindow{
		backend: b,
		title:   title,
		width:   width,
		height:  height,
		game:    game,
		running: true,
	}
	game.window = window
	b.game = game

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(b.config.VSync)
	if b.config.Fullscreen {
		ebiten.SetFullscreen(true)
	}
	ebiten.SetScreenFilterEnabled(b.config.Filter == "linear")

	return window, nil
}

func (b *EbitengineBackend) Cleanup() error {
	b.initialized = false
	return nil
}

func (b *EbitengineBackend) IsHeadless() bool { return b.config.Headless }
func (b *EbitengineBackend) GetName() string  { return "Ebitengine" }

func (w *EbitengineWindow) SetTitle(title string) {
	w.title = title
	ebiten.SetWindowTitle(title)
}

func (w *EbitengineWindow) GetSize() (width, height int) { return w.width, w.height }
func (w *EbitengineWindow) ShouldClose() bool             { return !w.running }

// SwapBuffers is a no-op: Ebitengine swaps buffers itself once Draw returns.
func (w *EbitengineWindow) SwapBuffers() {}

func (w *EbitengineWindow) PollEvents() []InputEvent {
	events := w.events
	w.events = nil
	return events
}

// RenderFrame uploads a completed RGBA frame buffer (spec.md §6's video
// output) into the ebiten image Draw composites each tick.
func (w *EbitengineWindow) RenderFrame(frameBuffer [256 * 240]uint32) error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}

	img := w.game.imageBuffer
	for y := 0; y < 240; y++ {
		for x := 0; x < 256; x++ {
			pixel := frameBuffer[y*256+x]
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(pixel >> 16),
				G: uint8(pixel >> 8),
				B: uint8(pixel),
				A: 255,
			})
		}
	}
	w.game.frameImage.ReplacePixels(img.Pix)
	return nil
}

func (w *EbitengineWindow) Cleanup() error {
	w.running = false
	return nil
}

// Run starts the Ebitengine game loop. It blocks until the window closes.
func (w *EbitengineWindow) Run() error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}
	return ebiten.RunGame(w.game)
}

// SetEmulatorUpdateFunc registers the per-tick callback the host shell uses
// to advance the emulator between frames.
func (w *EbitengineWindow) SetEmulatorUpdateFunc(updateFunc func() error) {
	w.emulatorUpdateFunc = updateFunc
}

func (g *ebitenGame) Update() error {
	if g.window == nil {
		return nil
	}
	g.pollInput()
	if g.window.emulatorUpdateFunc != nil {
		return g.window.emulatorUpdateFunc()
	}
	return nil
}

func (g *ebitenGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{A: 255})
	if g.frameImage == nil {
		return
	}

	scaleX := float64(g.windowWidth) / float64(g.nesWidth)
	scaleY := float64(g.windowHeight) / float64(g.nesHeight)
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}
	offsetX := (float64(g.windowWidth) - float64(g.nesWidth)*scale) / 2
	offsetY := (float64(g.windowHeight) - float64(g.nesHeight)*scale) / 2

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	screen.DrawImage(g.frameImage, op)
}

func (g *ebitenGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.windowWidth = outsideWidth
	g.windowHeight = outsideHeight
	return outsideWidth, outsideHeight
}

// keyMappings and buttonMappings translate host keyboard state into the
// backend-neutral InputEvent stream internal/input.Controller consumes.
var keyMappings = map[ebiten.Key]Key{
	ebiten.KeyEscape:     KeyEscape,
	ebiten.KeyEnter:      KeyEnter,
	ebiten.KeySpace:      KeySpace,
	ebiten.KeyArrowUp:    KeyUp,
	ebiten.KeyArrowDown:  KeyDown,
	ebiten.KeyArrowLeft:  KeyLeft,
	ebiten.KeyArrowRight: KeyRight,
	ebiten.KeyW:          KeyW,
	ebiten.KeyA:          KeyA,
	ebiten.KeyS:          KeyS,
	ebiten.KeyD:          KeyD,
	ebiten.KeyJ:          KeyJ,
	ebiten.KeyK:          KeyK,
	ebiten.KeyX:          KeyX,
	ebiten.KeyZ:          KeyZ,
	ebiten.Key1:          Key1,
	ebiten.Key2:          Key2,
	ebiten.Key3:          Key3,
	ebiten.Key4:          Key4,
	ebiten.Key5:          Key5,
	ebiten.Key6:          Key6,
	ebiten.Key7:          Key7,
	ebiten.Key8:          Key8,
	ebiten.KeyF1:         KeyF1,
	ebiten.KeyF2:         KeyF2,
	ebiten.KeyF3:         KeyF3,
	ebiten.KeyF4:         KeyF4,
	ebiten.KeyF5:         KeyF5,
	ebiten.KeyF6:         KeyF6,
	ebiten.KeyF7:         KeyF7,
	ebiten.KeyF8:         KeyF8,
	ebiten.KeyF9:         KeyF9,
	ebiten.KeyF10:        KeyF10,
	ebiten.KeyF11:        KeyF11,
	ebiten.KeyF12:        KeyF12,
}

var buttonMappings = map[Key]Button{
	KeyUp:    ButtonUp,
	KeyDown:  ButtonDown,
	KeyLeft:  ButtonLeft,
	KeyRight: ButtonRight,
	KeyW:     ButtonUp,
	KeyS:     ButtonDown,
	KeyA:     ButtonLeft,
	KeyD:     ButtonRight,
	KeyJ:     ButtonA,
	KeyK:     ButtonB,
	KeyEnter: ButtonStart,
	KeySpace: ButtonSelect,
	Key1:     Button2Up,
	Key2:     Button2Down,
	Key3:     Button2Left,
	Key4:     Button2Right,
	Key5:     Button2A,
	Key6:     Button2B,
	Key7:     Button2Start,
	Key8:     Button2Select,
}

// pollInput translates this tick's key transitions into InputEvents queued
// for the next PollEvents call.
func (g *ebitenGame) pollInput() {
	if g.window == nil {
		return
	}

	var events []InputEvent
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		events = append(events, InputEvent{Type: InputEventTypeQuit, Pressed: true})
	}

	for ebitenKey, key := range keyMappings {
		var keyEvent InputEvent
		switch {
		case inpututil.IsKeyJustPressed(ebitenKey):
			keyEvent = InputEvent{Type: InputEventTypeKey, Key: key, Pressed: true}
		case inpututil.IsKeyJustReleased(ebitenKey):
			keyEvent = InputEvent{Type: InputEventTypeKey, Key: key, Pressed: false}
		default:
			continue
		}
		if button, ok := buttonMappings[keyEvent.Key]; ok {
			events = append(events, InputEvent{Type: InputEventTypeButton, Button: button, Pressed: keyEvent.Pressed})
		} else {
			events = append(events, keyEvent)
		}
	}

	g.window.events = append(g.window.events, events...)
}
