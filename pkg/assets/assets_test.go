package assets

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"models/tile.glb":   {Data: []byte("glb")},
		"sprites/hero.gif":  {Data: []byte("gif")},
		"sprites/enemy.gif": {Data: []byte("gif2")},
	}
}

func TestFileLoader_Load(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantData string
		wantErr  error
	}{
		{name: "found", path: "models/tile.glb", wantData: "glb"},
		{name: "leading slash", path: "/sprites/hero.gif", wantData: "gif"},
		{name: "unclean path", path: "sprites/../models/tile.glb", wantData: "glb"},
		{name: "missing", path: "models/missing.glb", wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewFileLoader(testFS())
			asset, err := loader.Load(context.Background(), tt.path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantData, string(asset.Data))
		})
	}
}

func TestFileLoader_Load_invalid(t *testing.T) {
	loader := NewFileLoader(testFS())

	_, err := loader.Load(context.Background(), "../outside")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = loader.Load(ctx, "models/tile.glb")
	assert.ErrorIs(t, err, context.Canceled)
}

// failingLoader fails every path in errs and delegates the rest.
type failingLoader struct {
	Loader
	errs map[string]error
}

func (l failingLoader) Load(ctx context.Context, p string) (*Asset, error) {
	if err, ok := l.errs[p]; ok {
		return nil, err
	}
	return l.Loader.Load(ctx, p)
}

func TestPreload(t *testing.T) {
	loader := failingLoader{
		Loader: NewFileLoader(testFS()),
		errs:   map[string]error{"sprites/enemy.gif": errors.New("corrupt")},
	}

	result, err := Preload(context.Background(), loader, []string{
		"models/tile.glb",
		"models/missing.glb",
		"sprites/enemy.gif",
		"sprites/hero.gif",
	})
	require.NoError(t, err)

	assert.False(t, result.OK())
	assert.Len(t, result.Loaded, 2)
	assert.Contains(t, result.Loaded, "sprites/hero.gif", "loading continues past failures")
	assert.Equal(t, []string{"models/missing.glb"}, result.Missing)
	assert.EqualError(t, result.Failed["sprites/enemy.gif"], "corrupt")
}

func TestPreload_cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Preload(ctx, NewFileLoader(testFS()), []string{"models/tile.glb"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Loaded)
}

func TestPreload_allLoaded(t *testing.T) {
	result, err := Preload(context.Background(), NewFileLoader(testFS()), []string{"models/tile.glb"})
	require.NoError(t, err)
	assert.True(t, result.OK())
}
