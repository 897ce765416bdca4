// Package probe creates image metadata from the header of an image file,
// without decoding any pixels.
//
// TIFF, BMP and WebP are read through golang.org/x/image; PNG, JPEG and GIF
// through the standard library decoders.
package probe

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"imagemeta/pkg/metadata"
)

type options struct {
	downsamples []float64
	levelSizes  []metadata.LevelSize
	tileWidth   int
	tileHeight  int
	diag        metadata.DiagnosticFunc
}

// Option customises the metadata created by File and Reader.
type Option func(*options)

// WithDownsamples describes the image as a pyramid with the given downsamples.
func WithDownsamples(downsamples ...float64) Option {
	return func(o *options) {
		o.downsamples = downsamples
	}
}

// WithLevelSizes describes the image as a pyramid whose levels have the given
// sizes, for formats that store each level as a separate page. Downsamples are
// estimated from the sizes and inconsistencies are sent to the WithDiagnostics
// sink. It takes precedence over WithDownsamples.
func WithLevelSizes(sizes ...metadata.LevelSize) Option {
	return func(o *options) {
		o.levelSizes = sizes
	}
}

// WithTileSize sets the preferred tile size.
func WithTileSize(width, height int) Option {
	return func(o *options) {
		o.tileWidth = width
		o.tileHeight = height
	}
}

// WithDiagnostics sets the sink for warnings raised while building metadata.
func WithDiagnostics(fn metadata.DiagnosticFunc) Option {
	return func(o *options) {
		o.diag = fn
	}
}

// File reads the header of the image at path.
func File(path, origin string, opts ...Option) (*metadata.ImageMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return Reader(f, path, origin, opts...)
}

// Reader reads an image header from r. path identifies the image in the
// returned metadata and its base name becomes the image name.
func Reader(r io.Reader, path, origin string, opts ...Option) (*metadata.ImageMetadata, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}

	isRGB, channels, depth := describeModel(cfg.ColorModel)

	b := metadata.NewBuilderWithSize(origin, path, cfg.Width, cfg.Height).
		WithDiagnostics(o.diag).
		Name(filepath.Base(path)).
		RGB(isRGB).
		BitDepth(depth).
		Channels(channels...).
		PreferredTileSize(o.tileWidth, o.tileHeight).
		Args(format)
	switch {
	case len(o.levelSizes) > 0:
		b.LevelsFromSizes(o.levelSizes...)
	case len(o.downsamples) > 0:
		b.LevelsFromDownsamples(o.downsamples...)
	}

	m, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata for %s: %w", path, err)
	}
	return m, nil
}

// describeModel maps a decoder colour model to the RGB flag, channels and bit
// depth of the image.
func describeModel(model color.Model) (bool, []metadata.Channel, int) {
	depth := bitDepth(model)
	switch {
	case model == color.CMYKModel:
		return false, cmykChannels(), depth
	case rgbModel(model):
		return true, metadata.RGBChannels(), depth
	}
	return false, metadata.DefaultChannels(1), depth
}

func cmykChannels() []metadata.Channel {
	return []metadata.Channel{
		{Name: "Cyan", Color: metadata.ColorCyan},
		{Name: "Magenta", Color: metadata.ColorMagenta},
		{Name: "Yellow", Color: metadata.ColorYellow},
		{Name: "Black", Color: metadata.ColorGray},
	}
}

func rgbModel(model color.Model) bool {
	switch model {
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model, color.YCbCrModel, color.NYCbCrAModel:
		return true
	}
	_, paletted := model.(color.Palette)
	return paletted
}

func bitDepth(model color.Model) int {
	switch model {
	case color.RGBA64Model, color.NRGBA64Model, color.Gray16Model, color.Alpha16Model:
		return 16
	}
	return 8
}
