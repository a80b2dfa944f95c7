package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cbodonnell/hexphase/pkg/assets"
	"github.com/cbodonnell/hexphase/pkg/log"
	"github.com/cbodonnell/hexphase/pkg/spritesheet"
	"github.com/cbodonnell/hexphase/pkg/version"
)

func main() {
	outputDir := flag.String("output-dir", "", "Directory to save spritesheets (defaults to the input directory)")
	flag.StringVar(outputDir, "o", "", "Shorthand for --output-dir")
	frameWidth := flag.Int("frame-width", 0, "Width of each frame in the sheet (defaults to the GIF width)")
	frameHeight := flag.Int("frame-height", 0, "Height of each frame in the sheet (defaults to the GIF height)")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Convert GIF animations to PNG spritesheets\n\nUsage: %s [flags] <input-dir>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}
	log.SetDefaultLogger(log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel))

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	inputDir := flag.Arg(0)
	if info, err := os.Stat(inputDir); err != nil || !info.IsDir() {
		log.Error("Directory not found: %s", inputDir)
		os.Exit(1)
	}
	if *outputDir == "" {
		*outputDir = inputDir
	}

	log.Debug("spritesheet version %s", version.Get())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fsys := os.DirFS(inputDir)
	names, err := spritesheet.ListGIFs(fsys)
	if err != nil {
		log.Error("Failed to list %s: %v", inputDir, err)
		os.Exit(1)
	}

	converter := spritesheet.NewConverter(spritesheet.NewConverterOptions{
		Loader:    assets.NewFileLoader(fsys),
		OutputDir: *outputDir,
		Options: spritesheet.Options{
			FrameWidth:  *frameWidth,
			FrameHeight: *frameHeight,
		},
	})
	result, err := converter.ConvertAll(ctx, names)
	if err != nil {
		log.Error("Conversion stopped: %v", err)
		os.Exit(1)
	}

	log.Info("Processed %d GIF files", len(result.Written))
	if len(result.Failed) > 0 {
		os.Exit(1)
	}
}
