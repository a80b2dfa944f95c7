package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/cbodonnell/hexphase/pkg/log"
)

// ErrNotFound is returned when no asset exists at the requested path.
var ErrNotFound = errors.New("asset not found")

// Asset is a loaded resource.
type Asset struct {
	Path string
	Data []byte
}

// Loader loads an asset by path, yielding the asset or an error.
// A missing asset is reported with an error wrapping ErrNotFound.
type Loader interface {
	Load(ctx context.Context, p string) (*Asset, error)
}

// FileLoader loads assets from a file system.
type FileLoader struct {
	fsys fs.FS
}

func NewFileLoader(fsys fs.FS) *FileLoader {
	return &FileLoader{fsys: fsys}
}

func (l *FileLoader) Load(ctx context.Context, p string) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := path.Clean(strings.TrimPrefix(p, "/"))
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("invalid asset path %q", p)
	}
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return nil, fmt.Errorf("failed to read asset %s: %v", p, err)
	}
	return &Asset{Path: name, Data: data}, nil
}

// PreloadResult reports the outcome of a Preload.
type PreloadResult struct {
	// Loaded holds the assets that loaded, keyed by requested path.
	Loaded map[string]*Asset
	// Missing lists the requested paths with no asset, in request order.
	Missing []string
	// Failed holds the error of every other path that failed.
	Failed map[string]error
}

// OK reports whether every requested asset loaded.
func (r PreloadResult) OK() bool {
	return len(r.Missing) == 0 && len(r.Failed) == 0
}

// Preload loads every path with loader. A missing or broken asset is recorded and
// logged but never stops the remaining paths from loading; only a cancelled ctx does.
func Preload(ctx context.Context, loader Loader, paths []string) (PreloadResult, error) {
	result := PreloadResult{
		Loaded: make(map[string]*Asset, len(paths)),
		Failed: make(map[string]error),
	}
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		asset, err := loader.Load(ctx, p)
		switch {
		case err == nil:
			result.Loaded[p] = asset
		case errors.Is(err, ErrNotFound):
			log.Warn("Asset %s not found", p)
			result.Missing = append(result.Missing, p)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return result, err
		default:
			log.Error("Failed to load asset %s: %v", p, err)
			result.Failed[p] = err
		}
	}
	return result, nil
}
