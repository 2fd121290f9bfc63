package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ironsheep/screenshot-prefilter/internal/backend"
	"github.com/ironsheep/screenshot-prefilter/internal/config"
	"github.com/ironsheep/screenshot-prefilter/internal/imaging"
	"github.com/ironsheep/screenshot-prefilter/internal/prefilter"
	"github.com/ironsheep/screenshot-prefilter/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("prefilter-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file from current directory")
	}

	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if cfg.Logging.Debug {
		log.Printf("Prefilter MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		log.Printf("Model dir %s, preferences %s", cfg.Model.Dir, cfg.Preferences.Path)
	}

	decode := imaging.DecodeOptions{MaxPixels: cfg.Images.MaxPixels}
	heuristic := backend.NewHeuristic(decode)
	learned := backend.NewLearned(backend.LearnedConfig{
		ModelDir:          cfg.Model.Dir,
		ManifestFile:      cfg.Model.Manifest,
		SharedLibraryPath: cfg.Model.SharedLibrary,
		Decode:            decode,
	})
	defer learned.Close()

	analyzer := prefilter.New(
		backend.NewService(heuristic, learned),
		prefilter.WithPreferences(prefilter.NewFileStore(cfg.Preferences.Path)),
		prefilter.WithImageSource(prefilter.LocalSource{MaxBytes: cfg.Images.MaxBytes}),
		prefilter.WithBatchRate(cfg.Batch.MaxPerSecond),
		prefilter.WithDebug(cfg.Logging.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(analyzer, heuristic, Version)
	if err := srv.Run(ctx); err != nil && err != context.Canceled {
		log.Printf("Server error: %v", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("prefilter-mcp - on-device screenshot privacy prefilter (MCP server)")
	fmt.Println()
	fmt.Println("Usage: prefilter-mcp [--config path]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config PATH    YAML config file (defaults apply when absent)")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  PREFILTER_MODEL_DIR                Directory holding manifest.yaml and .onnx models")
	fmt.Println("  PREFILTER_PREFERENCES_PATH         File holding the persisted mode")
	fmt.Println("  ONNXRUNTIME_SHARED_LIBRARY_PATH    onnxruntime shared library")
	fmt.Println("  PREFILTER_BATCH_RATE               Max batch screenshots per second (0 = unpaced)")
	fmt.Println("  PREFILTER_LOG_LEVEL=debug          Enable debug logging")
	fmt.Println()
	fmt.Println("Without a model the heuristic card scorer is used.")
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
}
