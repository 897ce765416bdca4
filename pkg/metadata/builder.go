package metadata

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"imagemeta/pkg/calibration"
)

// Builder assembles a single ImageMetadata.
//
// A Builder should only be used for one call to Build. To create further
// metadata, start a new Builder with NewBuilderFrom. Builders are not safe for
// concurrent use.
type Builder struct {
	origin  string
	path    string
	pathSet bool
	name    string

	width  int
	height int
	sizeZ  int
	sizeT  int

	channelType ChannelType
	channels    []Channel
	args        []string

	isRGB    bool
	bitDepth int

	levels []ResolutionLevel

	calibration *calibration.Builder

	magnification    float64
	hasMagnification bool

	tileWidth  int
	tileHeight int

	diag DiagnosticFunc
}

// NewBuilder starts metadata for the image at path, produced by origin.
// Width, height and optionally levels must be set before Build.
// An empty path is treated as unset, and Build will generate a unique one.
func NewBuilder(origin, path string) *Builder {
	return &Builder{
		origin:      origin,
		path:        path,
		pathSet:     path != "",
		sizeZ:       1,
		sizeT:       1,
		bitDepth:    8,
		calibration: calibration.NewBuilder(),
	}
}

// NewBuilderWithSize starts metadata for the image at path with a known
// full-resolution size. As with NewBuilder, an empty path is treated as unset
// and Build generates a unique one.
func NewBuilderWithSize(origin, path string, width, height int) *Builder {
	return NewBuilder(origin, path).Width(width).Height(height)
}

// NewBuilderFrom starts metadata as a deep copy of m, recorded as produced by
// origin. Later changes through the builder never affect m.
func NewBuilderFrom(origin string, m *ImageMetadata) *Builder {
	b := &Builder{
		origin:      origin,
		path:        m.path,
		pathSet:     true,
		name:        m.name,
		width:       m.width,
		height:      m.height,
		sizeZ:       m.sizeZ,
		sizeT:       m.sizeT,
		channelType: m.channelType,
		channels:    slices.Clone(m.channels),
		args:        slices.Clone(m.args),
		isRGB:       m.isRGB,
		bitDepth:    m.bitDepth,
		levels:      slices.Clone(m.levels),
		calibration: calibration.NewBuilderFrom(m.calibration),
		tileWidth:   m.preferredTileWidth,
		tileHeight:  m.preferredTileHeight,
	}
	b.magnification, b.hasMagnification = m.Magnification()
	return b
}

// WithDiagnostics sets the sink for warnings raised while deriving levels.
func (b *Builder) WithDiagnostics(fn DiagnosticFunc) *Builder {
	b.diag = fn
	return b
}

// Args records the string arguments needed to recreate the originating reader.
func (b *Builder) Args(args ...string) *Builder {
	b.args = slices.Clone(args)
	return b
}

// Width sets the full-resolution image width.
func (b *Builder) Width(width int) *Builder {
	b.width = width
	return b
}

// Height sets the full-resolution image height.
func (b *Builder) Height(height int) *Builder {
	b.height = height
	return b
}

// Path sets the image path. Unlike the constructors, an empty or blank path
// here is kept as given and rejected by Build.
func (b *Builder) Path(path string) *Builder {
	b.path = path
	b.pathSet = true
	return b
}

// ChannelType sets the interpretation of channels.
func (b *Builder) ChannelType(t ChannelType) *Builder {
	b.channelType = t
	return b
}

// RGB sets whether pixels are stored in (A)RGB form.
func (b *Builder) RGB(isRGB bool) *Builder {
	b.isRGB = isRGB
	return b
}

// BitDepth sets the number of bits per sample.
func (b *Builder) BitDepth(bitDepth int) *Builder {
	b.bitDepth = bitDepth
	return b
}

// LevelsFromDownsamples sets the resolution levels from downsample factors,
// computing each level size from the width and height set so far.
func (b *Builder) LevelsFromDownsamples(downsamples ...float64) *Builder {
	lb := NewLevelBuilder(b.width, b.height).WithDiagnostics(b.diag)
	for _, d := range downsamples {
		lb.AddLevelByDownsample(d)
	}
	return b.Levels(lb.Build()...)
}

// LevelsFromSizes sets the resolution levels from the raster sizes actually
// stored, estimating each downsample from the width and height set so far.
// Inconsistent x and y downsamples are reported to the WithDiagnostics sink,
// so set the sink first.
func (b *Builder) LevelsFromSizes(sizes ...LevelSize) *Builder {
	lb := NewLevelBuilder(b.width, b.height).WithDiagnostics(b.diag)
	for _, s := range sizes {
		lb.AddLevelBySize(s.Width, s.Height)
	}
	return b.Levels(lb.Build()...)
}

// Levels sets the resolution levels, normally with the largest first.
//
// The first level does not have to match the width and height: these give
// the size the image should be interpreted as, while levels give the rasters
// actually available. Passing no levels restores the default single level.
func (b *Builder) Levels(levels ...ResolutionLevel) *Builder {
	if len(levels) == 0 {
		b.levels = nil
		return b
	}
	b.levels = slices.Clone(levels)
	return b
}

// SizeZ sets the number of z-slices.
func (b *Builder) SizeZ(sizeZ int) *Builder {
	b.sizeZ = sizeZ
	return b
}

// SizeT sets the number of timepoints.
func (b *Builder) SizeT(sizeT int) *Builder {
	b.sizeT = sizeT
	return b
}

// PixelSizeMicrons sets the pixel width and height in microns.
func (b *Builder) PixelSizeMicrons(pixelWidth, pixelHeight float64) *Builder {
	b.calibration.PixelSizeMicrons(pixelWidth, pixelHeight)
	return b
}

// ZSpacingMicrons sets the spacing between z-slices in microns.
func (b *Builder) ZSpacingMicrons(zSpacing float64) *Builder {
	b.calibration.ZSpacingMicrons(zSpacing)
	return b
}

// Timepoints sets the time unit and the timepoints, expressed in that unit.
func (b *Builder) Timepoints(unit time.Duration, timepoints ...float64) *Builder {
	b.calibration.Timepoints(unit, timepoints...)
	return b
}

// Magnification sets the magnification of the full-resolution image.
// NaN marks it as unknown.
func (b *Builder) Magnification(magnification float64) *Builder {
	if math.IsNaN(magnification) {
		b.magnification, b.hasMagnification = 0, false
		return b
	}
	b.magnification, b.hasMagnification = magnification, true
	return b
}

// PreferredTileSize sets the tile size pixel requests should use. Values <= 0
// are replaced by defaults in Build.
func (b *Builder) PreferredTileSize(tileWidth, tileHeight int) *Builder {
	b.tileWidth = tileWidth
	b.tileHeight = tileHeight
	return b
}

// Channels sets the image channels.
func (b *Builder) Channels(channels ...Channel) *Builder {
	b.channels = slices.Clone(channels)
	return b
}

// Name sets the display name of the image.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

// Build validates the accumulated values, fills in defaults and returns the
// metadata. Errors wrap ErrInvalidArgument.
func (b *Builder) Build() (*ImageMetadata, error) {
	cal := b.calibration.Build()

	path := b.path
	if !b.pathSet {
		path = uuid.NewString()
	}

	levels := slices.Clone(b.levels)
	if len(levels) == 0 {
		levels = NewLevelBuilder(b.width, b.height).AddFullResolutionLevel().Build()
	}

	if b.width <= 0 && b.height <= 0 {
		return nil, fmt.Errorf("width %d & height %d must be > 0: %w", b.width, b.height, ErrInvalidArgument)
	}

	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("path must be set and not blank: %w", ErrInvalidArgument)
	}

	tileWidth := b.tileWidth
	if tileWidth <= 0 {
		tileWidth = defaultTileEdge(b.width, len(levels))
	}
	tileHeight := b.tileHeight
	if tileHeight <= 0 {
		tileHeight = defaultTileEdge(b.height, len(levels))
	}

	return &ImageMetadata{
		path:                path,
		name:                b.name,
		originClassName:     b.origin,
		width:               b.width,
		height:              b.height,
		sizeZ:               b.sizeZ,
		sizeT:               b.sizeT,
		channelType:         b.channelType,
		channels:            slices.Clone(b.channels),
		args:                slices.Clone(b.args),
		isRGB:               b.isRGB,
		bitDepth:            b.bitDepth,
		levels:              levels,
		calibration:         cal,
		magnification:       b.magnification,
		hasMagnification:    b.hasMagnification,
		preferredTileWidth:  tileWidth,
		preferredTileHeight: tileHeight,
	}, nil
}

// defaultTileEdge returns the whole image edge for single-level images and
// DefaultTileSize (or less) otherwise.
func defaultTileEdge(fullSize, nLevels int) int {
	if nLevels == 1 {
		return fullSize
	}
	return min(fullSize, DefaultTileSize)
}
