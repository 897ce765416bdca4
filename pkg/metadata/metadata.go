// Package metadata describes large, possibly pyramidal, 2D/3D/time-series
// images: their size, resolution levels, channels and physical calibration.
//
// An ImageMetadata is built once through a Builder and is immutable after
// that; it may be shared between goroutines freely. "Changing" metadata means
// building a new instance from an existing one with NewBuilderFrom.
package metadata

import (
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/stat"

	"imagemeta/pkg/calibration"
)

// DefaultTileSize is the preferred tile edge for multi-level images when none
// has been specified.
const DefaultTileSize = 256

// ImageMetadata holds the primary metadata fields of an image.
type ImageMetadata struct {
	path            string
	name            string
	originClassName string

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

	calibration calibration.PixelCalibration

	magnification    float64
	hasMagnification bool

	preferredTileWidth  int
	preferredTileHeight int

	// downsamples is computed from levels on first use. Concurrent first calls
	// may each compute it; the results are identical.
	downsamples atomic.Pointer[[]float64]
}

// OriginClassName identifies the component that produced this metadata, so
// that it can be recreated later.
func (m *ImageMetadata) OriginClassName() string {
	return m.originClassName
}

// Path returns the image path, which should be unique and may be used as an identifier.
func (m *ImageMetadata) Path() string {
	return m.path
}

// Name returns the display name of the image, which may be empty.
func (m *ImageMetadata) Name() string {
	return m.name
}

// Width returns the full-resolution image width.
func (m *ImageMetadata) Width() int {
	return m.width
}

// Height returns the full-resolution image height.
func (m *ImageMetadata) Height() int {
	return m.height
}

// SizeZ returns the number of z-slices.
func (m *ImageMetadata) SizeZ() int {
	return m.sizeZ
}

// SizeT returns the number of timepoints.
func (m *ImageMetadata) SizeT() int {
	return m.sizeT
}

// SizeC returns the number of channels.
func (m *ImageMetadata) SizeC() int {
	return len(m.channels)
}

// ChannelType returns how the channels should be interpreted.
func (m *ImageMetadata) ChannelType() ChannelType {
	return m.channelType
}

// Channels returns a read-only view of the channels.
func (m *ImageMetadata) Channels() View[Channel] {
	return View[Channel]{items: m.channels}
}

// Channel returns the channel at index n, starting at 0.
func (m *ImageMetadata) Channel(n int) (Channel, error) {
	c, err := m.Channels().At(n)
	if err != nil {
		return Channel{}, fmt.Errorf("channel: %w", err)
	}
	return c, nil
}

// IsRGB returns true if pixels are stored in (A)RGB form.
func (m *ImageMetadata) IsRGB() bool {
	return m.isRGB
}

// BitDepth returns the number of bits per sample.
func (m *ImageMetadata) BitDepth() int {
	return m.bitDepth
}

// Arguments returns the string arguments used to create the originating
// reader. It is empty, never nil, if there were none.
func (m *ImageMetadata) Arguments() []string {
	if m.args == nil {
		return []string{}
	}
	return slices.Clone(m.args)
}

// Levels returns a read-only view of the resolution levels.
func (m *ImageMetadata) Levels() View[ResolutionLevel] {
	return View[ResolutionLevel]{items: m.levels}
}

// NLevels returns the number of resolution levels; 1 for a non-pyramidal image.
func (m *ImageMetadata) NLevels() int {
	return len(m.levels)
}

// Level returns the resolution level at index level.
func (m *ImageMetadata) Level(level int) (ResolutionLevel, error) {
	l, err := m.Levels().At(level)
	if err != nil {
		return ResolutionLevel{}, fmt.Errorf("resolution level: %w", err)
	}
	return l, nil
}

// DownsampleForLevel returns the downsample factor of a resolution level.
func (m *ImageMetadata) DownsampleForLevel(level int) (float64, error) {
	l, err := m.Level(level)
	if err != nil {
		return 0, err
	}
	return l.downsample, nil
}

// PreferredDownsamples returns the downsample of every level, in level order.
// The returned slice is a copy and may be modified.
func (m *ImageMetadata) PreferredDownsamples() []float64 {
	cached := m.downsamples.Load()
	if cached == nil {
		ds := make([]float64, len(m.levels))
		for i, l := range m.levels {
			ds[i] = l.downsample
		}
		m.downsamples.Store(&ds)
		cached = &ds
	}
	return slices.Clone(*cached)
}

// Calibration returns the physical calibration of the image.
func (m *ImageMetadata) Calibration() calibration.PixelCalibration {
	return m.calibration
}

// PixelSizeCalibrated returns true if pixel width and height are known.
func (m *ImageMetadata) PixelSizeCalibrated() bool {
	return m.calibration.HasPixelSizeMicrons()
}

// ZSpacingCalibrated returns true if the z-spacing is known.
func (m *ImageMetadata) ZSpacingCalibrated() bool {
	return m.calibration.HasZSpacingMicrons()
}

// PixelWidthMicrons returns the pixel width, if known.
func (m *ImageMetadata) PixelWidthMicrons() (float64, bool) {
	return m.calibration.PixelWidthMicrons()
}

// PixelHeightMicrons returns the pixel height, if known.
func (m *ImageMetadata) PixelHeightMicrons() (float64, bool) {
	return m.calibration.PixelHeightMicrons()
}

// AveragedPixelSizeMicrons returns the mean of pixel width and height, if both are known.
func (m *ImageMetadata) AveragedPixelSizeMicrons() (float64, bool) {
	w, okW := m.PixelWidthMicrons()
	h, okH := m.PixelHeightMicrons()
	if !okW || !okH {
		return 0, false
	}
	return stat.Mean([]float64{w, h}, nil), true
}

// ZSpacingMicrons returns the z-spacing, if known.
func (m *ImageMetadata) ZSpacingMicrons() (float64, bool) {
	return m.calibration.ZSpacingMicrons()
}

// TimeUnit returns the unit of the timepoints.
func (m *ImageMetadata) TimeUnit() time.Duration {
	return m.calibration.TimeUnit()
}

// Timepoint returns the timepoint at index ind, in TimeUnit units, if known.
func (m *ImageMetadata) Timepoint(ind int) (float64, bool) {
	return m.calibration.Timepoint(ind)
}

// Magnification returns the magnification of the full-resolution image, if known.
func (m *ImageMetadata) Magnification() (float64, bool) {
	return m.magnification, m.hasMagnification
}

// PreferredTileWidth returns the tile width that pixel requests should use.
func (m *ImageMetadata) PreferredTileWidth() int {
	return m.preferredTileWidth
}

// PreferredTileHeight returns the tile height that pixel requests should use.
func (m *ImageMetadata) PreferredTileHeight() int {
	return m.preferredTileHeight
}

// Duplicate returns a deep copy. The copy shares no mutable state with m.
func (m *ImageMetadata) Duplicate() *ImageMetadata {
	return &ImageMetadata{
		path:                m.path,
		name:                m.name,
		originClassName:     m.originClassName,
		width:               m.width,
		height:              m.height,
		sizeZ:               m.sizeZ,
		sizeT:               m.sizeT,
		channelType:         m.channelType,
		channels:            slices.Clone(m.channels),
		args:                slices.Clone(m.args),
		isRGB:               m.isRGB,
		bitDepth:            m.bitDepth,
		levels:              slices.Clone(m.levels),
		calibration:         m.calibration,
		magnification:       m.magnification,
		hasMagnification:    m.hasMagnification,
		preferredTileWidth:  m.preferredTileWidth,
		preferredTileHeight: m.preferredTileHeight,
	}
}

// IsCompatibleMetadata returns true if other has the same path, bit depth and
// number of z-slices, timepoints and channels as m. Pixel sizes, magnification
// and channel contents may differ.
//
// Each incompatibility is reported to diag (which may be nil) before false is
// returned.
func (m *ImageMetadata) IsCompatibleMetadata(other *ImageMetadata, diag DiagnosticFunc) bool {
	if m.path != other.path {
		diag.emit(PathMismatch, -1, "metadata paths are not compatible: %q vs %q", m.path, other.path)
		return false
	}
	if m.bitDepth != other.bitDepth {
		diag.emit(BitDepthMismatch, -1, "metadata bit-depths are not compatible: %d vs %d", m.bitDepth, other.bitDepth)
		return false
	}
	if m.sizeT != other.sizeT || m.SizeC() != other.SizeC() || m.sizeZ != other.sizeZ {
		diag.emit(DimensionMismatch, -1,
			"metadata image dimensions are not the same: sizeZ %d vs %d, sizeT %d vs %d, sizeC %d vs %d",
			m.sizeZ, other.sizeZ, m.sizeT, other.sizeT, m.SizeC(), other.SizeC())
		return false
	}
	return true
}

// Equal reports whether every stored field of m and other is identical,
// including levels, channels and calibration.
func (m *ImageMetadata) Equal(other *ImageMetadata) bool {
	if m == other {
		return true
	}
	if other == nil {
		return false
	}
	return m.path == other.path &&
		m.name == other.name &&
		m.originClassName == other.originClassName &&
		m.width == other.width &&
		m.height == other.height &&
		m.sizeZ == other.sizeZ &&
		m.sizeT == other.sizeT &&
		m.channelType == other.channelType &&
		slices.Equal(m.channels, other.channels) &&
		slices.Equal(m.args, other.args) &&
		m.isRGB == other.isRGB &&
		m.bitDepth == other.bitDepth &&
		slices.EqualFunc(m.levels, other.levels, ResolutionLevel.Equal) &&
		m.calibration.Equal(other.calibration) &&
		m.hasMagnification == other.hasMagnification &&
		sameFloat(m.magnification, other.magnification) &&
		m.preferredTileWidth == other.preferredTileWidth &&
		m.preferredTileHeight == other.preferredTileHeight
}

// Hash returns a hash consistent with Equal.
func (m *ImageMetadata) Hash() uint64 {
	h := newHasher()
	h.string(m.path)
	h.string(m.name)
	h.string(m.originClassName)
	h.int(m.width)
	h.int(m.height)
	h.int(m.sizeZ)
	h.int(m.sizeT)
	h.int(int(m.channelType))
	h.int(len(m.channels))
	for _, c := range m.channels {
		h.string(c.Name)
		h.uint64(uint64(c.Color))
	}
	h.int(len(m.args))
	for _, a := range m.args {
		h.string(a)
	}
	h.bool(m.isRGB)
	h.int(m.bitDepth)
	h.int(len(m.levels))
	for _, l := range m.levels {
		l.hashInto(h)
	}
	m.hashCalibration(h)
	h.bool(m.hasMagnification)
	h.float(m.magnification)
	h.int(m.preferredTileWidth)
	h.int(m.preferredTileHeight)
	return h.sum()
}

func (m *ImageMetadata) hashCalibration(h *hasher) {
	c := m.calibration
	for _, get := range []func() (float64, bool){c.PixelWidthMicrons, c.PixelHeightMicrons, c.ZSpacingMicrons} {
		v, ok := get()
		h.bool(ok)
		h.float(v)
	}
	h.int(int(c.TimeUnit()))
	tps := c.Timepoints()
	h.int(len(tps))
	for _, tp := range tps {
		h.float(tp)
	}
}

// String returns a compact JSON-like summary of the main fields.
func (m *ImageMetadata) String() string {
	var sb strings.Builder
	sb.WriteString("{ ")
	fmt.Fprintf(&sb, "%q: %q, ", "path", m.path)
	fmt.Fprintf(&sb, "%q: %q, ", "name", m.name)
	fmt.Fprintf(&sb, "%q: %d, ", "width", m.width)
	fmt.Fprintf(&sb, "%q: %d, ", "height", m.height)
	fmt.Fprintf(&sb, "%q: %d, ", "resolutions", m.NLevels())
	fmt.Fprintf(&sb, "%q: %d", "sizeC", m.SizeC())
	if m.sizeZ != 1 {
		fmt.Fprintf(&sb, ", %q: %d", "sizeZ", m.sizeZ)
	}
	if m.sizeT != 1 {
		fmt.Fprintf(&sb, ", %q: %d", "sizeT", m.sizeT)
		fmt.Fprintf(&sb, ", %q: %q", "timeUnit", calibration.UnitName(m.TimeUnit()))
	}
	if m.PixelSizeCalibrated() {
		w, _ := m.PixelWidthMicrons()
		h, _ := m.PixelHeightMicrons()
		fmt.Fprintf(&sb, ", %q: %v", "pixelWidthMicrons", w)
		fmt.Fprintf(&sb, ", %q: %v", "pixelHeightMicrons", h)
	}
	sb.WriteString(" }")
	return sb.String()
}
