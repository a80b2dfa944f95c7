package spritesheet

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"io"
	"math"
	"path"
	"strings"

	"golang.org/x/image/draw"
)

// Suffix is appended to a GIF's base name to name its sprite sheet.
const Suffix = "_spritesheet.png"

// Options tune the sheet layout. Zero values keep the GIF's own frame size.
type Options struct {
	FrameWidth  int
	FrameHeight int
}

// Sheet is a sprite sheet built from an animation.
type Sheet struct {
	Image       *image.NRGBA
	Frames      int
	Columns     int
	Rows        int
	FrameWidth  int
	FrameHeight int
}

// Grid returns the column and row count for n frames: ceil(sqrt(n)) columns and
// as many rows as needed, which keeps the sheet close to square.
func Grid(n int) (cols, rows int) {
	if n <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = (n + cols - 1) / cols
	return cols, rows
}

// OutputName returns the sheet file name for a GIF path.
func OutputName(gifPath string) string {
	base := path.Base(strings.ReplaceAll(gifPath, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base)) + Suffix
}

// FromGIF composites every frame of g in order and lays the results out on a grid,
// left to right then top to bottom. Frame disposal methods are honoured so each
// cell shows the animation as a viewer would.
func FromGIF(g *gif.GIF, opts Options) (*Sheet, error) {
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("gif has no frames")
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
		for _, frame := range g.Image[1:] {
			bounds = bounds.Union(frame.Bounds())
		}
	}

	frameW, frameH := bounds.Dx(), bounds.Dy()
	if opts.FrameWidth > 0 {
		frameW = opts.FrameWidth
	}
	if opts.FrameHeight > 0 {
		frameH = opts.FrameHeight
	}

	cols, rows := Grid(len(g.Image))
	sheet := &Sheet{
		Image:       image.NewNRGBA(image.Rect(0, 0, frameW*cols, frameH*rows)),
		Frames:      len(g.Image),
		Columns:     cols,
		Rows:        rows,
		FrameWidth:  frameW,
		FrameHeight: frameH,
	}

	canvas := image.NewNRGBA(bounds)
	var previous *image.NRGBA
	for i, frame := range g.Image {
		disposal := byte(gif.DisposalNone)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			previous = cloneNRGBA(canvas)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		cell := image.Rect(0, 0, frameW, frameH).Add(image.Pt((i%cols)*frameW, (i/cols)*frameH))
		if frameW == bounds.Dx() && frameH == bounds.Dy() {
			draw.Copy(sheet.Image, cell.Min, canvas, bounds, draw.Src, nil)
		} else {
			// nearest neighbour keeps pixel art crisp
			draw.NearestNeighbor.Scale(sheet.Image, cell, canvas, bounds, draw.Src, nil)
		}

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = previous
		}
	}

	return sheet, nil
}

// Decode reads a GIF animation and builds its sheet.
func Decode(r io.Reader, opts Options) (*Sheet, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode gif: %v", err)
	}
	return FromGIF(g, opts)
}

// Encode writes the sheet as a PNG.
func (s *Sheet) Encode(w io.Writer) error {
	if err := png.Encode(w, s.Image); err != nil {
		return fmt.Errorf("failed to encode png: %v", err)
	}
	return nil
}

// Convert turns GIF bytes into PNG sprite sheet bytes.
func Convert(data []byte, opts Options) ([]byte, *Sheet, error) {
	sheet, err := Decode(bytes.NewReader(data), opts)
	if err != nil {
		return nil, nil, err
	}
	buf := &bytes.Buffer{}
	if err := sheet.Encode(buf); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), sheet, nil
}

func cloneNRGBA(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
