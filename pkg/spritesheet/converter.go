package spritesheet

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cbodonnell/hexphase/pkg/assets"
	"github.com/cbodonnell/hexphase/pkg/log"
)

// Converter writes a sprite sheet for every GIF it is given.
type Converter struct {
	loader    assets.Loader
	outputDir string
	opts      Options
	logger    *log.Logger
}

type NewConverterOptions struct {
	// Loader reads the GIFs.
	Loader assets.Loader
	// OutputDir receives the sheets. It is created when missing.
	OutputDir string
	Options   Options
}

func NewConverter(opts NewConverterOptions) *Converter {
	return &Converter{
		loader:    opts.Loader,
		outputDir: opts.OutputDir,
		opts:      opts.Options,
		logger:    log.Default().With("spritesheet"),
	}
}

// Result reports a ConvertAll run.
type Result struct {
	// Written holds the path of every sheet written.
	Written []string
	// Failed holds the error of every GIF that could not be converted.
	Failed map[string]error
}

// ConvertAll converts every named GIF. Failures are logged and recorded; the
// remaining files are still converted.
func (c *Converter) ConvertAll(ctx context.Context, names []string) (Result, error) {
	result := Result{Failed: make(map[string]error)}

	loaded, err := assets.Preload(ctx, c.loader, names)
	if err != nil {
		return result, err
	}
	for _, name := range loaded.Missing {
		result.Failed[name] = assets.ErrNotFound
	}
	for name, err := range loaded.Failed {
		result.Failed[name] = err
	}

	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return result, fmt.Errorf("failed to create output directory: %v", err)
	}

	for _, name := range names {
		asset, ok := loaded.Loaded[name]
		if !ok {
			continue
		}
		out, err := c.write(name, asset.Data)
		if err != nil {
			c.logger.Error("Error processing %s: %v", name, err)
			result.Failed[name] = err
			continue
		}
		c.logger.Info("Created spritesheet: %s", out)
		result.Written = append(result.Written, out)
	}
	return result, nil
}

func (c *Converter) write(name string, data []byte) (string, error) {
	b, sheet, err := Convert(data, c.opts)
	if err != nil {
		return "", err
	}
	out := filepath.Join(c.outputDir, OutputName(name))
	if err := os.WriteFile(out, b, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %v", out, err)
	}
	c.logger.Debug("%s: %d frame(s) on a %dx%d grid", name, sheet.Frames, sheet.Columns, sheet.Rows)
	return out, nil
}

// ListGIFs returns the names of the .gif files at the top level of fsys, sorted.
func ListGIFs(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %v", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".gif") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
