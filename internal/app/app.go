// Package app implements the thin host shell that drives the NES core: a
// graphics/input backend and a config/save-state layer wrapped around
// internal/bus. Per spec.md, ROM parsing, presentation, and persistence are
// external collaborators to the emulation core, not part of it.
package app

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/nesgo/gones/internal/bus"
	"github.com/nesgo/gones/internal/cartridge"
	"github.com/nesgo/gones/internal/graphics"
	"github.com/nesgo/gones/internal/input"
)

// Application wires a Bus to a graphics backend, polling input and handing
// finished frames to the window every host tick.
type Application struct {
	bus *bus.Bus

	graphicsBackend graphics.Backend
	window          graphics.Window

	config   *Config
	emulator *Emulator
	states   *StateManager

	running     bool
	paused      bool
	showMenu    bool
	initialized bool
	headless    bool

	frameCount          uint64
	startTime           time.Time
	lastFPSTime         time.Time
	frameCountAtLastFPS uint64
	currentFPS          float64
	averageFPS          float64

	romPath   string
	cartridge *cartridge.Cartridge

	lastESCTime time.Time

	lastController1State [8]bool
	lastController2State [8]bool
	inputStateInitialized bool
}

// ApplicationError wraps a failure in a named application component.
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

// NewApplication creates a GUI application using the given config file.
func NewApplication(configPath string) (*Application, error) {
	return NewApplicationWithMode(configPath, false)
}

// NewApplicationWithMode creates an application, optionally headless.
func NewApplicationWithMode(configPath string, headless bool) (*Application, error) {
	app := &Application{
		config:      NewConfig(),
		headless:    headless,
		startTime:   time.Now(),
		lastFPSTime: time.Now(),
	}

	if configPath != "" {
		if err := app.config.LoadFromFile(configPath); err != nil {
			fmt.Printf("[app] could not load config from %s, using defaults: %v\n", configPath, err)
		}
	}

	if err := app.initializeComponents(headless); err != nil {
		return nil, &ApplicationError{Component: "initialization", Operation: "component setup", Err: err}
	}

	return app, nil
}

func (app *Application) initializeComponents(headless bool) error {
	app.bus = bus.New()

	if err := app.initializeGraphicsBackend(headless); err != nil {
		return fmt.Errorf("failed to initialize graphics backend: %v", err)
	}

	app.emulator = NewEmulator(app.bus, app.config)
	app.states = NewStateManager(app.config.Paths.SaveStates)
	app.initialized = true
	return nil
}

// initializeGraphicsBackend picks a backend from config (or forces headless)
// and creates its window, falling back to headless if the chosen backend
// can't initialize (e.g. no DISPLAY for Ebitengine).
func (app *Application) initializeGraphicsBackend(headless bool) error {
	backendType := graphics.BackendEbitengine
	switch {
	case headless:
		backendType = graphics.BackendHeadless
	case app.config.Video.Backend == "headless":
		backendType = graphics.BackendHeadless
	}

	var err error
	app.graphicsBackend, err = graphics.CreateBackend(backendType)
	if err != nil {
		return fmt.Errorf("failed to create graphics backend: %v", err)
	}

	graphicsConfig := graphics.Config{
		WindowTitle:  "gones - Go NES Emulator",
		WindowWidth:  app.config.Window.Width,
		WindowHeight: app.config.Window.Height,
		Fullscreen:   app.config.Window.Fullscreen,
		VSync:        app.config.Video.VSync,
		Filter:       app.config.Video.Filter,
		AspectRatio:  app.config.Video.AspectRatio,
		Headless:     headless,
		Debug:        app.config.Debug.EnableLogging,
	}

	if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
		if backendType != graphics.BackendEbitengine {
			return fmt.Errorf("failed to initialize graphics backend: %v", err)
		}
		fmt.Printf("[app] ebitengine backend failed (%v), falling back to headless\n", err)
		app.graphicsBackend, err = graphics.CreateBackend(graphics.BackendHeadless)
		if err != nil {
			return fmt.Errorf("failed to create fallback headless backend: %v", err)
		}
		graphicsConfig.Headless = true
		if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
			return fmt.Errorf("failed to initialize fallback headless backend: %v", err)
		}
	}

	if !headless && !app.graphicsBackend.IsHeadless() {
		app.window, err = app.graphicsBackend.CreateWindow(graphicsConfig.WindowTitle, graphicsConfig.WindowWidth, graphicsConfig.WindowHeight)
		if err != nil {
			return fmt.Errorf("failed to create window: %v", err)
		}
	}

	return nil
}

// LoadROM loads a cartridge and resets the bus to run it.
func (app *Application) LoadROM(romPath string) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	cart, err := cartridge.Load(romPath)
	if err != nil {
		return &ApplicationError{Component: "cartridge", Operation: "load ROM", Err: err}
	}

	app.cartridge = cart
	app.romPath = romPath
	app.bus.LoadCartridge(cart)
	app.bus.Reset()

	if app.window != nil {
		app.window.SetTitle(fmt.Sprintf("gones - %s", filepath.Base(romPath)))
	}

	app.emulator.Start()
	return nil
}

// Run drives the main application loop until Stop is called or the window
// closes. Ebitengine owns its own loop, so on that backend Run hands it a
// per-tick callback instead of looping itself.
func (app *Application) Run() error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	app.running = true
	app.startTime = time.Now()
	app.lastFPSTime = time.Now()

	if app.graphicsBackend.GetName() == "Ebitengine" && app.window != nil {
		if ebitengineWindow, ok := graphics.AsEbitengineWindow(app.window); ok {
			ebitengineWindow.SetEmulatorUpdateFunc(func() error {
				if err := app.processInput(); err != nil && app.config.Debug.EnableLogging {
					fmt.Printf("[app] input processing error: %v\n", err)
				}
				if err := app.updateEmulator(); err != nil {
					return err
				}
				if err := app.render(); err != nil {
					return err
				}
				app.updateFPS()
				if app.window.ShouldClose() {
					app.Stop()
				}
				return nil
			})
			return ebitengineWindow.Run()
		}
	}

	for app.running {
		if err := app.processInput(); err != nil && app.config.Debug.EnableLogging {
			fmt.Printf("[app] input processing error: %v\n", err)
		}
		if err := app.updateEmulator(); err != nil && app.config.Debug.EnableLogging {
			fmt.Printf("[app] emulator update error: %v\n", err)
		}
		if err := app.render(); err != nil && app.config.Debug.EnableLogging {
			fmt.Printf("[app] render error: %v\n", err)
		}
		app.updateFPS()

		if app.window != nil && app.window.ShouldClose() {
			app.Stop()
		}

		time.Sleep(16 * time.Millisecond) // ~60 FPS pacing for non-Ebitengine backends
	}

	return nil
}

func (app *Application) updateEmulator() error {
	if !app.paused && app.cartridge != nil {
		return app.emulator.Update()
	}
	return nil
}

// processInput drains the backend's input queue, resolves special key
// combinations (quit, save states), and forwards controller button state to
// the bus only when it actually changed.
func (app *Application) processInput() error {
	if app.window == nil {
		return nil
	}

	events := app.window.PollEvents()
	if len(events) == 0 {
		return nil
	}

	var controller1Changed, controller2Changed bool
	controller1Buttons := app.lastController1State
	controller2Buttons := app.lastController2State

	if !app.inputStateInitialized && app.bus != nil && app.cartridge != nil {
		app.primeControllerCache()
		controller1Buttons = app.lastController1State
		controller2Buttons = app.lastController2State
		app.inputStateInitialized = true
	}

	for _, event := range events {
		switch event.Type {
		case graphics.InputEventTypeQuit:
			app.Stop()
			return nil

		case graphics.InputEventTypeButton:
			if app.handleSpecialInput(event) {
				continue
			}
			if app.cartridge == nil {
				continue
			}
			if is2PButton(event.Button) {
				if idx := get2PButtonIndex(event.Button); idx >= 0 {
					controller2Buttons[idx] = event.Pressed
					controller2Changed = true
				}
				continue
			}
			if idx, ok := buttonIndex(graphicsButtonToInputButton(event.Button)); ok {
				controller1Buttons[idx] = event.Pressed
				controller1Changed = true
			}

		case graphics.InputEventTypeKey:
			app.handleSpecialInput(event)
		}
	}

	if controller1Changed && app.bus != nil && app.cartridge != nil && controller1Buttons != app.lastController1State {
		app.bus.SetControllerButtons(0, controller1Buttons)
		app.lastController1State = controller1Buttons
	}
	if controller2Changed && app.bus != nil && app.cartridge != nil && controller2Buttons != app.lastController2State {
		app.bus.SetControllerButtons(2, controller2Buttons)
		app.lastController2State = controller2Buttons
	}

	return nil
}

// primeControllerCache seeds the button-state cache from the bus's current
// input state, so the first processInput call after a ROM load diffs
// against reality rather than a zeroed cache.
func (app *Application) primeControllerCache() {
	inputState := app.bus.Input
	if inputState == nil {
		return
	}
	if inputState.Controller1 != nil {
		app.lastController1State = readControllerState(inputState.Controller1)
	}
	if inputState.Controller2 != nil {
		app.lastController2State = readControllerState(inputState.Controller2)
	}
}

func readControllerState(c *input.Controller) [8]bool {
	return [8]bool{
		c.IsPressed(input.A), c.IsPressed(input.B),
		c.IsPressed(input.Select), c.IsPressed(input.Start),
		c.IsPressed(input.Up), c.IsPressed(input.Down),
		c.IsPressed(input.Left), c.IsPressed(input.Right),
	}
}

func buttonIndex(button input.Button) (int, bool) {
	switch button {
	case input.A:
		return 0, true
	case input.B:
		return 1, true
	case input.Select:
		return 2, true
	case input.Start:
		return 3, true
	case input.Up:
		return 4, true
	case input.Down:
		return 5, true
	case input.Left:
		return 6, true
	case input.Right:
		return 7, true
	default:
		return 0, false
	}
}

// handleSpecialInput intercepts quit (double-tap Escape within 3s) and
// save-state (F1-F10, Shift+F1-F10) key combinations before they reach the
// controller mapping.
func (app *Application) handleSpecialInput(event graphics.InputEvent) bool {
	if !event.Pressed {
		return false
	}

	if event.Type == graphics.InputEventTypeKey && event.Key == graphics.KeyEscape {
		now := time.Now()
		if !app.lastESCTime.IsZero() && now.Sub(app.lastESCTime) < 3*time.Second {
			app.Stop()
		} else {
			app.lastESCTime = now
		}
		return true
	}
	if event.Type == graphics.InputEventTypeKey && event.Key != graphics.KeyEscape {
		app.lastESCTime = time.Time{}
	}

	if event.Type == graphics.InputEventTypeKey {
		switch event.Key {
		case graphics.KeyF1, graphics.KeyF2, graphics.KeyF3, graphics.KeyF4, graphics.KeyF5,
			graphics.KeyF6, graphics.KeyF7, graphics.KeyF8, graphics.KeyF9, graphics.KeyF10:
			slot := int(event.Key - graphics.KeyF1)
			var err error
			if event.Modifiers&graphics.ModifierShift != 0 {
				err = app.LoadState(slot)
			} else {
				err = app.SaveState(slot)
			}
			if err != nil {
				fmt.Printf("[app] save-state slot %d failed: %v\n", slot, err)
			}
			return true
		}
	}

	return false
}

func graphicsButtonToInputButton(gButton graphics.Button) input.Button {
	switch gButton {
	case graphics.ButtonA:
		return input.A
	case graphics.ButtonB:
		return input.B
	case graphics.ButtonSelect:
		return input.Select
	case graphics.ButtonStart:
		return input.Start
	case graphics.ButtonUp:
		return input.Up
	case graphics.ButtonDown:
		return input.Down
	case graphics.ButtonLeft:
		return input.Left
	case graphics.ButtonRight:
		return input.Right
	default:
		return input.A
	}
}

func is2PButton(gButton graphics.Button) bool {
	switch gButton {
	case graphics.Button2A, graphics.Button2B, graphics.Button2Select, graphics.Button2Start,
		graphics.Button2Up, graphics.Button2Down, graphics.Button2Left, graphics.Button2Right:
		return true
	default:
		return false
	}
}

func get2PButtonIndex(gButton graphics.Button) int {
	switch gButton {
	case graphics.Button2A:
		return 0
	case graphics.Button2B:
		return 1
	case graphics.Button2Select:
		return 2
	case graphics.Button2Start:
		return 3
	case graphics.Button2Up:
		return 4
	case graphics.Button2Down:
		return 5
	case graphics.Button2Left:
		return 6
	case graphics.Button2Right:
		return 7
	default:
		return -1
	}
}

// SetControllerButtons sets all button states at once, bypassing event polling.
func (app *Application) SetControllerButtons(controller int, buttons [8]bool) {
	if app.bus != nil {
		app.bus.SetControllerButtons(controller, buttons)
	}
}

// GetBus returns the bus for direct access (testing, scripting).
func (app *Application) GetBus() *bus.Bus { return app.bus }

func (app *Application) render() error {
	if app.window == nil {
		return nil
	}
	if app.cartridge != nil {
		var frameBuffer [256 * 240]uint32
		copy(frameBuffer[:], app.bus.GetFrameBuffer())
		if err := app.window.RenderFrame(frameBuffer); err != nil {
			return fmt.Errorf("failed to render frame: %v", err)
		}
	}
	app.window.SwapBuffers()
	return nil
}

// updateFPS recomputes the rolling frames-per-second estimate once a second.
func (app *Application) updateFPS() {
	app.frameCount++
	now := time.Now()
	elapsed := now.Sub(app.lastFPSTime)
	if elapsed < time.Second {
		return
	}

	framesInPeriod := app.frameCount - app.frameCountAtLastFPS
	app.currentFPS = float64(framesInPeriod) / elapsed.Seconds()

	totalElapsed := now.Sub(app.startTime).Seconds()
	if totalElapsed > 0 {
		app.averageFPS = float64(app.frameCount) / totalElapsed
	}

	app.lastFPSTime = now
	app.frameCountAtLastFPS = app.frameCount

	if app.config.Debug.EnableLogging {
		log.Printf("[app] fps=%.1f avg=%.1f frame=%d", app.currentFPS, app.averageFPS, app.frameCount)
	}
}

func (app *Application) Stop()        { app.running = false }
func (app *Application) Pause()       { app.paused = true }
func (app *Application) Resume()      { app.paused = false }
func (app *Application) TogglePause() { app.paused = !app.paused }

func (app *Application) ShowMenu() { app.showMenu = true; app.paused = true }
func (app *Application) HideMenu() { app.showMenu = false; app.paused = false }
func (app *Application) ToggleMenu() {
	if app.showMenu {
		app.HideMenu()
	} else {
		app.ShowMenu()
	}
}

// SaveState saves the current emulator state to the given slot.
func (app *Application) SaveState(slot int) error {
	if app.cartridge == nil {
		return errors.New("no ROM loaded")
	}
	return app.states.SaveState(app.bus, slot, app.romPath)
}

// LoadState restores the emulator state from the given slot.
func (app *Application) LoadState(slot int) error {
	if app.cartridge == nil {
		return errors.New("no ROM loaded")
	}
	return app.states.LoadState(app.bus, slot, app.romPath)
}

// Reset resets the bus (CPU, PPU, APU, mapper) without unloading the cartridge.
func (app *Application) Reset() {
	if app.bus != nil {
		app.bus.Reset()
	}
}

func (app *Application) IsRunning() bool     { return app.running }
func (app *Application) IsPaused() bool      { return app.paused }
func (app *Application) IsMenuVisible() bool { return app.showMenu }
func (app *Application) GetFPS() float64     { return app.currentFPS }
func (app *Application) GetFrameCount() uint64 { return app.frameCount }
func (app *Application) GetUptime() time.Duration {
	return time.Since(app.startTime)
}
func (app *Application) GetROMPath() string { return app.romPath }
func (app *Application) GetConfig() *Config { return app.config }

// ApplyDebugSettings propagates the config's debug flags to components that
// read them at call time rather than on each tick.
func (app *Application) ApplyDebugSettings() {
	if app.config == nil {
		return
	}
	if app.bus != nil && app.bus.Input != nil {
		app.bus.Input.EnableDebug(app.config.Debug.EnableLogging)
	}
}

// Cleanup releases the window, graphics backend, emulator, and state manager.
func (app *Application) Cleanup() error {
	var lastErr error

	if app.states != nil {
		if err := app.states.Cleanup(); err != nil {
			lastErr = err
			fmt.Printf("[app] state manager cleanup error: %v\n", err)
		}
	}
	if app.emulator != nil {
		if err := app.emulator.Cleanup(); err != nil {
			lastErr = err
			fmt.Printf("[app] emulator cleanup error: %v\n", err)
		}
	}
	if app.window != nil {
		if err := app.window.Cleanup(); err != nil {
			lastErr = err
			fmt.Printf("[app] window cleanup error: %v\n", err)
		}
	}
	if app.graphicsBackend != nil {
		if err := app.graphicsBackend.Cleanup(); err != nil {
			lastErr = err
			fmt.Printf("[app] graphics backend cleanup error: %v\n", err)
		}
	}

	app.initialized = false
	return lastErr
}
