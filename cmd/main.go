package main

import (
	"flag"
	"fmt"
	"log"
	"runtime"

	"github.com/richinsley/gosingularity/app"
	"github.com/richinsley/gosingularity/glfwcontext"
	"github.com/richinsley/gosingularity/options"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	var configPath = flag.String("config", "", "Path to a YAML options file (defaults are embedded)")
	var help = flag.Bool("help", false, "Show help message")

	// Overrides for the most common settings.
	var quality = flag.String("quality", "", "Quality tier: low, medium or high")
	var width = flag.Int("width", 0, "Window width")
	var height = flag.Int("height", 0, "Window height")
	var telemetryDir = flag.String("telemetry", "", "Directory for frame statistics CSV output")

	// Recording flags
	var record = flag.Bool("record", false, "Enable recording mode")
	var duration = flag.Float64("duration", 0, "Duration to record in seconds")
	var fps = flag.Int("fps", 0, "Frames per second for recording")
	var outputFile = flag.String("output", "", "Output file name for recording")

	flag.Parse()

	if *help {
		fmt.Println("Black Hole Visualizer")
		flag.PrintDefaults()
		return
	}

	opts, err := options.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading options: %v", err)
	}
	if *quality != "" {
		opts.Effects.Quality = *quality
	}
	if *width > 0 {
		opts.Screen.Width = *width
	}
	if *height > 0 {
		opts.Screen.Height = *height
	}
	if *telemetryDir != "" {
		opts.Telemetry.Dir = *telemetryDir
	}
	if *record {
		opts.Record.Mode = true
	}
	if *duration > 0 {
		opts.Record.Duration = *duration
	}
	if *fps > 0 {
		opts.Record.FPS = *fps
	}
	if *outputFile != "" {
		opts.Record.Output = *outputFile
	}
	if err := opts.Validate(); err != nil {
		log.Fatalf("Invalid options: %v", err)
	}

	if err := glfwcontext.InitGraphics(); err != nil {
		log.Fatalf("Failed to initialize graphics: %v", err)
	}
	defer glfwcontext.TerminateGraphics()

	a, err := app.New(opts)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	defer a.Shutdown()

	if opts.Record.Mode {
		log.Println("Starting offscreen render loop...")
		if err := a.RunRecord(); err != nil {
			log.Fatalf("Offscreen rendering failed: %v", err)
		}
		log.Printf("Successfully rendered to %s", opts.Record.Output)
	} else {
		log.Println("Starting interactive render loop...")
		if err := a.Run(); err != nil {
			log.Fatalf("Render loop failed: %v", err)
		}
	}
}
