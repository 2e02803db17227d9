package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ironsheep/chart-a11y-mcp/internal/a11y"
	"github.com/ironsheep/chart-a11y-mcp/internal/capture"
	"github.com/ironsheep/chart-a11y-mcp/internal/chart"
	"github.com/ironsheep/chart-a11y-mcp/internal/config"
	"github.com/ironsheep/chart-a11y-mcp/internal/detection"
	"github.com/ironsheep/chart-a11y-mcp/internal/imaging"
	"github.com/ironsheep/chart-a11y-mcp/internal/logutil"
	"github.com/ironsheep/chart-a11y-mcp/internal/ocr"
	"github.com/ironsheep/chart-a11y-mcp/internal/server"
	"github.com/ironsheep/chart-a11y-mcp/internal/session"
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
			fmt.Printf("chart-a11y-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			fmt.Printf("  OCR engine: %s\n", ocr.Version())
			return
		case "--help", "-h", "help":
			fmt.Println("chart-a11y-mcp - MCP server for accessible chart exploration")
			fmt.Println()
			fmt.Println("Usage: chart-a11y-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Configuration is read from .env next to the executable (or the file")
			fmt.Println("named by CHART_MCP_ENV) and CHART_MCP_* environment variables:")
			fmt.Println("  CHART_MCP_LOG_LEVEL=debug          Enable debug logging")
			fmt.Println("  CHART_MCP_MODEL_BACKEND=http       Inference backend: http, gocv or none")
			fmt.Println("  CHART_MCP_CAPTURE_BACKEND=screen   Frame source: file or screen")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		if cfg == nil {
			log.Fatalf("Config error: %v", err)
		}
		log.Printf("Config warning: %v", err)
	}

	closer, err := logutil.Setup(logutil.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Printf("File logging disabled: %v", err)
	}
	defer closer.Close()

	logutil.Infof("Chart MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	if cfg.EnvPath != "" {
		logutil.Debugf("config: loaded %s", cfg.EnvPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Server error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	detCfg, err := cfg.DetectorConfig()
	if err != nil {
		return err
	}
	opener, err := detection.NewOpener(cfg.RunnerConfig())
	if err != nil {
		return err
	}
	det := detection.New(detCfg, opener)
	defer det.Close()

	files := capture.NewFile(imaging.NewFrameCache())
	var source capture.Capturer
	switch cfg.CaptureBackend {
	case "screen":
		source = capture.NewScreen()
	case "file", "":
		if cfg.CaptureFile != "" {
			files.SetSource(cfg.CaptureFile, image.Point{})
		}
		source = files
	default:
		return fmt.Errorf("unknown capture backend: %s", cfg.CaptureBackend)
	}
	logutil.Infof("capture: %s backend, one frame per %v at most", cfg.CaptureBackend, cfg.CaptureInterval)

	var recognizer ocr.Recognizer
	if cfg.OCREnabled {
		recognizer = ocr.NewTesseract(cfg.OCRLanguage, cfg.TessdataDir)
	}

	combo, err := cfg.ComboConfig()
	if err != nil {
		return err
	}
	bindings, err := session.ParseBindings(cfg.GestureBindings, session.DefaultBindings())
	if err != nil {
		return err
	}
	phrases, err := session.ParseVoicePhrases(cfg.VoicePhrases, session.DefaultVoicePhrases())
	if err != nil {
		return err
	}

	host := a11y.NewRecorder(true)
	loop, err := session.New(session.Options{
		Detector:        det,
		Frames:          capture.NewLimited(source, cfg.CaptureInterval),
		OCR:             recognizer,
		Tapper:          host,
		Announcer:       host,
		Gesture:         cfg.GestureConfig(),
		Combo:           combo,
		Bindings:        bindings,
		Voice:           phrases,
		GesturesEnabled: cfg.GesturesEnabled,
		VolumeEnabled:   cfg.VolumeEnabled,
		VoiceEnabled:    cfg.VoiceEnabled,
		Debounce:        cfg.DetectDebounce,
		MinInterval:     cfg.DetectMinInterval,
		ViewportWidth:   cfg.ViewportWidth,
		ViewportHeight:  cfg.ViewportHeight,
		OnDetect:        annotateHook(cfg.AnnotateDir),
	})
	if err != nil {
		return err
	}
	defer loop.Close()
	go func() {
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logutil.Errorf("session: %v", err)
		}
	}()

	srv := server.New(server.Options{
		Loop:        loop,
		Detector:    det,
		Host:        host,
		Files:       files,
		AnnotateDir: cfg.AnnotateDir,
		Density:     cfg.Density,
		Version:     Version,
	})
	return srv.Run(ctx)
}

// annotateHook saves a debug rendering of every background detection to dir.
func annotateHook(dir string) func(*chart.Result, error) {
	if dir == "" {
		return nil
	}
	return func(res *chart.Result, err error) {
		if err != nil || res == nil || res.Bitmap == nil {
			return
		}
		go func() {
			out := imaging.Annotate(res.Bitmap, imaging.NodeDetections(res), imaging.AnnotateOptions{
				NumClasses: 1,
				ShowLabels: true,
			})
			path := filepath.Join(dir, fmt.Sprintf("detect_%s.png", time.Now().Format("20060102_150405.000")))
			if err := imaging.SaveAnnotated(path, out); err != nil {
				logutil.Warnf("annotate: %v", err)
				return
			}
			logutil.Debugf("annotate: wrote %s", path)
		}()
	}
}
