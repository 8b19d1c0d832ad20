package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/penwyp/go-bubble-hist/internal/util"
)

// ErrNotWritable is returned when the output location cannot be written.
var ErrNotWritable = errors.New("output path not writable")

// Options sets the physical size of the rendered image.
type Options struct {
	WidthInch  float64
	HeightInch float64
	DPI        int
}

// Image describes a written file.
type Image struct {
	Path   string
	Width  int
	Height int
	Bytes  int64
}

// CheckWritable verifies that path can be created or replaced.
func CheckWritable(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotWritable, path)
	}

	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotWritable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrNotWritable, dir)
	}
	if err := checkDirWritable(dir); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotWritable, dir, err)
	}
	return nil
}

// Save renders p as a PNG at path. The image is written to a temporary
// file next to path and renamed into place, so a failed save leaves no file.
func Save(p *plot.Plot, path string, opts Options) (*Image, error) {
	if opts.WidthInch <= 0 || opts.HeightInch <= 0 || opts.DPI <= 0 {
		return nil, fmt.Errorf("invalid image size %gx%g in at %d dpi", opts.WidthInch, opts.HeightInch, opts.DPI)
	}

	canvas := vgimg.NewWith(
		vgimg.UseWH(vg.Length(opts.WidthInch)*vg.Inch, vg.Length(opts.HeightInch)*vg.Inch),
		vgimg.UseDPI(opts.DPI),
	)
	p.Draw(draw.New(canvas))

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotWritable, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	n, err := vgimg.PngCanvas{Canvas: canvas}.WriteTo(tmp)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return nil, fmt.Errorf("failed to set permissions on %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotWritable, err)
	}
	committed = true

	bounds := canvas.Image().Bounds()
	img := &Image{
		Path:   path,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Bytes:  n,
	}
	util.LogDebug("Image written", util.F("path", path), util.F("width", img.Width),
		util.F("height", img.Height), util.F("bytes", n))
	return img, nil
}
