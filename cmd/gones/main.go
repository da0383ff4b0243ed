// Package main implements the gones NES emulator executable.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nesgo/gones/internal/app"
	"github.com/nesgo/gones/internal/version"
)

func main() {
	// Parse command line flags
	var (
		romFile    = flag.String("rom", "", "Path to NES ROM file (optional for GUI mode)")
		configFile = flag.String("config", "", "Path to configuration file")
		debug      = flag.Bool("debug", false, "Enable debug mode")
		nogui      = flag.Bool("nogui", false, "Run without GUI (headless mode)")
		help       = flag.Bool("help", false, "Show help message")
		version    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}

	if *version {
		printVersion()
		os.Exit(0)
	}

	// Set up graceful shutdown
	setupGracefulShutdown()

	fmt.Println("gones - Go NES Emulator starting...")

	// Determine config file path
	configPath := *configFile
	if configPath == "" {
		configPath = app.GetDefaultConfigPath()
	}

	// Create application
	application, err := app.NewApplicationWithMode(configPath, *nogui)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	
	// Force headless backend only when explicitly requested with -nogui
	if *nogui {
		config := application.GetConfig()
		config.Video.Backend = "headless"
		fmt.Println("headless mode requested")
	}
	defer func() {
		if err := application.Cleanup(); err != nil {
			log.Printf("Application cleanup error: %v", err)
		}
	}()

	// Apply debug settings
	if *debug {
		config := application.GetConfig()
		config.UpdateDebug(true, true, true)
		application.ApplyDebugSettings()
		fmt.Println("debug mode enabled")
	}

	// Load ROM if specified
	if *romFile != "" {
		fmt.Printf("loading ROM: %s\n", *romFile)
		if err := application.LoadROM(*romFile); err != nil {
			log.Fatalf("Failed to load ROM: %v", err)
		}
		fmt.Println("ROM loaded successfully")
		
		// Re-apply debug settings after ROM load (PPU might be recreated)
		if *debug {
			application.ApplyDebugSettings()
		}
	}

	if *nogui {
		// Run in headless mode (for testing or automation)
		fmt.Println("Running in headless mode...")
		if *romFile == "" {
			log.Fatal("ROM file required for headless mode")
		}
		runHeadlessMode(application)
	} else {
		// Run full GUI application
		fmt.Println("starting GUI mode...")
		if err := runGUIMode(application); err != nil {
			log.Fatalf("GUI mode failed: %v", err)
		}
	}

	fmt.Println("emulator shutting down...")
}

// runGUIMode runs the full GUI application
func runGUIMode(application *app.Application) error {
	fmt.Println("initializing GUI application...")

	// Display startup information
	config := application.GetConfig()
	windowWidth, windowHeight := config.GetWindowResolution()
	fmt.Printf("   Window: %dx%d (Scale: %dx)\n", windowWidth, windowHeight, config.Window.Scale)
	fmt.Printf("   Audio: %s (%d Hz, %.0f%% volume)\n",
		enabledString(config.Audio.Enabled),
		config.Audio.SampleRate,
		config.Audio.Volume*100)
	fmt.Printf("   Video: %s, %s, VSync: %s\n",
		config.Video.Filter,
		config.Video.AspectRatio,
		enabledString(config.Video.VSync))

	// Start the application
	fmt.Println("starting main application loop...")
	if err := application.Run(); err != nil {
		return fmt.Errorf("application run failed: %v", err)
	}

	// Display shutdown statistics
	fmt.Printf("session statistics:\n")
	fmt.Printf("   Frames rendered: %d\n", application.GetFrameCount())
	fmt.Printf("   Session time: %v\n", application.GetUptime())
	fmt.Printf("   Average FPS: %.1f\n", application.GetFPS())

	return nil
}

// headlessFrames is how long a `-nogui` run drives the emulator before
// exiting: long enough (~2 seconds of NES time) to pass the startup/reset
// sequence most ROMs run before settling into their title screen.
const headlessFrames = 120

// headlessDumpFrames are the frames whose buffer gets written out as a PPM
// and summarized, so a CI run or a bug report has something to look at
// without a display attached.
var headlessDumpFrames = map[int]bool{30: true, 60: true, 119: true}

// runHeadlessMode drives the bus directly for headlessFrames frames with no
// graphics backend attached, dumping a few sample frames to disk.
func runHeadlessMode(application *app.Application) {
	fmt.Println("Running emulator in headless mode...")
	fmt.Printf("Driving %d frames (~2s of NES time), dumping sample frames as PPM\n", headlessFrames)

	bus := application.GetBus()
	if bus == nil {
		fmt.Println("bus not initialized")
		return
	}

	for frame := 0; frame < headlessFrames; frame++ {
		if err := bus.Frame(); err != nil {
			fmt.Printf("CPU jammed on frame %d: %v\n", frame+1, err)
			return
		}

		if headlessDumpFrames[frame] {
			fmt.Printf("capturing frame %d...\n", frame+1)
			saveFrameBufferAsPPM(bus.PPU.GetFrameBuffer(), fmt.Sprintf("frame_%03d.ppm", frame+1))
			summarizeFrameBuffer(bus.PPU.GetFrameBuffer(), frame+1)
		}

		if frame%30 == 29 {
			fmt.Printf("%d/%d frames complete\n", frame+1, headlessFrames)
		}
	}

	fmt.Println("headless run complete; wrote frame_031.ppm, frame_061.ppm, frame_120.ppm")
}

// saveFrameBufferAsPPM writes frameBuffer out as a plain-text PPM (P3) image.
func saveFrameBufferAsPPM(frameBuffer [256 * 240]uint32, filename string) {
	file, err := os.Create(filename)
	if err != nil {
		fmt.Printf("failed to create %s: %v\n", filename, err)
		return
	}
	defer file.Close()

	fmt.Fprintf(file, "P3\n256 240\n255\n")
	for y := 0; y < 240; y++ {
		for x := 0; x < 256; x++ {
			pixel := frameBuffer[y*256+x]
			fmt.Fprintf(file, "%d %d %d ", (pixel>>16)&0xFF, (pixel>>8)&0xFF, pixel&0xFF)
		}
		fmt.Fprintf(file, "\n")
	}
	fmt.Printf("wrote %s\n", filename)
}

// summarizeFrameBuffer prints the color diversity of a frame buffer: how
// many distinct colors it contains, what fraction of pixels aren't
// backdrop-black, and the three most common colors.
func summarizeFrameBuffer(frameBuffer [256 * 240]uint32, frame int) {
	counts := make(map[uint32]int)
	for _, pixel := range frameBuffer {
		counts[pixel]++
	}

	nonBlack := 0
	for color, n := range counts {
		if color != 0 {
			nonBlack += n
		}
	}
	fmt.Printf("  frame %d: %d distinct colors, %d non-black pixels (%.1f%%)\n",
		frame, len(counts), nonBlack, float64(nonBlack)/float64(256*240)*100)

	if len(counts) <= 1 {
		return
	}
	fmt.Print("  top colors: ")
	shown := 0
	for color, n := range counts {
		if shown >= 3 {
			break
		}
		fmt.Printf("%#06x(%.1f%%) ", color, float64(n)/float64(256*240)*100)
		shown++
	}
	fmt.Println()
}

// setupGracefulShutdown sets up signal handling for graceful shutdown
func setupGracefulShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Println("\ninterrupt received, shutting down gracefully...")
		os.Exit(0)
	}()
}

// enabledString returns "enabled" or "disabled" based on boolean value
func enabledString(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func printVersion() {
	version.Print()
}

func printUsage() {
	fmt.Println("gones - Go NES Emulator")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  A cycle-accurate NES (Nintendo Entertainment System) emulator written in Go.")
	fmt.Println("  Ebitengine-backed graphics and input, save states, and a headless mode")
	fmt.Println("  for automated runs.")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  gones [options]                    # Start GUI mode without ROM")
	fmt.Println("  gones -rom <file> [options]        # Start with ROM loaded")
	fmt.Println("  gones -nogui -rom <file> [options] # Run headless mode")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  gones                              # Start GUI, load ROM from menu")
	fmt.Println("  gones -rom game.nes                # Start with ROM loaded")
	fmt.Println("  gones -rom game.nes -debug         # Start with debug info enabled")
	fmt.Println("  gones -config custom.json          # Use custom configuration")
	fmt.Println("  gones -nogui -rom test.nes         # Run headless for testing")
	fmt.Println()
	fmt.Println("CONTROLS (Default):")
	fmt.Println("  Player 1:")
	fmt.Println("    Arrow Keys / WASD - D-Pad")
	fmt.Println("    J                 - A Button")
	fmt.Println("    K                 - B Button")
	fmt.Println("    Enter             - Start")
	fmt.Println("    Space             - Select")
	fmt.Println()
	fmt.Println("  Special Keys:")
	fmt.Println("    Escape (2x)       - Quit (double-tap within 3 seconds)")
	fmt.Println("    F1-F10            - Save States")
	fmt.Println("    Shift+F1-F10      - Load States")
	fmt.Println()
	fmt.Println("CONFIGURATION:")
	fmt.Println("  Config file: ./config/gones.json")
	fmt.Println("  ROMs:        ./roms/")
	fmt.Println("  Save States: ./states/")
	fmt.Println("  Screenshots: ./screenshots/")
	fmt.Println()
	fmt.Println("SUPPORTED FORMATS:")
	fmt.Println("  - iNES 1.0 (.nes)")
	fmt.Println("  - Mappers 0 (NROM), 1 (MMC1), 2 (UxROM), 3 (CNROM), 4 (MMC3), 7 (AxROM)")
	fmt.Println()
	fmt.Println("For more information, visit the project documentation.")
}
