// Package models defines the YAML descriptor document used by the
// command-line tool to read and write image metadata.
package models

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"imagemeta/pkg/calibration"
	"imagemeta/pkg/metadata"
)

// Descriptor is the serialisable form of an image's metadata.
//
// Resolution levels may be given either as a list of downsamples or as a list
// of level specs, not both. Zero values mean "use the default".
type Descriptor struct {
	Path   string `yaml:"path,omitempty"`
	Name   string `yaml:"name,omitempty"`
	Origin string `yaml:"origin,omitempty"`

	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	SizeZ  int `yaml:"sizeZ,omitempty"`
	SizeT  int `yaml:"sizeT,omitempty"`

	ChannelType metadata.ChannelType `yaml:"channelType,omitempty"`
	Channels    []ChannelSpec        `yaml:"channels,omitempty"`
	RGB         bool                 `yaml:"rgb,omitempty"`
	BitDepth    int                  `yaml:"bitDepth,omitempty"`

	Downsamples []float64   `yaml:"downsamples,omitempty"`
	Levels      []LevelSpec `yaml:"levels,omitempty"`

	PixelSizeMicrons *PixelSizeSpec `yaml:"pixelSizeMicrons,omitempty"`
	ZSpacingMicrons  *float64       `yaml:"zSpacingMicrons,omitempty"`
	TimeUnit         string         `yaml:"timeUnit,omitempty"`
	Timepoints       []float64      `yaml:"timepoints,omitempty"`

	Magnification *float64 `yaml:"magnification,omitempty"`

	TileWidth  int `yaml:"tileWidth,omitempty"`
	TileHeight int `yaml:"tileHeight,omitempty"`

	Args []string `yaml:"args,omitempty"`
}

// ChannelSpec is one channel; Color is written as "#RRGGBB".
type ChannelSpec struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color,omitempty"`
}

// LevelSpec is one resolution level.
//
// With downsample, width and height all set the level is taken as given.
// With only a downsample, the size is computed from the full-resolution size.
// With only width and height, the downsample is estimated.
type LevelSpec struct {
	Downsample float64 `yaml:"downsample,omitempty"`
	Width      int     `yaml:"width,omitempty"`
	Height     int     `yaml:"height,omitempty"`
}

// PixelSizeSpec is the pixel size in microns.
type PixelSizeSpec struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// ParseDescriptor parses a YAML descriptor
func ParseDescriptor(data []byte) (*Descriptor, error) {
	d := &Descriptor{}
	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("error parsing descriptor: %w", err)
	}
	return d, nil
}

// LoadDescriptor reads and parses a YAML descriptor file
func LoadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading descriptor: %w", err)
	}
	return ParseDescriptor(data)
}

// Marshal encodes the descriptor as YAML
func (d *Descriptor) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("error marshaling descriptor: %w", err)
	}
	return data, nil
}

// Build converts the descriptor into image metadata. defaultOrigin is used
// when the descriptor does not name its origin.
func (d *Descriptor) Build(defaultOrigin string, diag metadata.DiagnosticFunc) (*metadata.ImageMetadata, error) {
	origin := d.Origin
	if origin == "" {
		origin = defaultOrigin
	}

	b := metadata.NewBuilderWithSize(origin, d.Path, d.Width, d.Height).
		WithDiagnostics(diag).
		Name(d.Name).
		ChannelType(d.ChannelType).
		RGB(d.RGB).
		PreferredTileSize(d.TileWidth, d.TileHeight).
		Args(d.Args...)

	if d.SizeZ > 0 {
		b.SizeZ(d.SizeZ)
	}
	if d.SizeT > 0 {
		b.SizeT(d.SizeT)
	}
	if d.BitDepth > 0 {
		b.BitDepth(d.BitDepth)
	}

	channels := make([]metadata.Channel, len(d.Channels))
	for i, c := range d.Channels {
		color, err := parseColor(c.Color)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
		channels[i] = metadata.Channel{Name: c.Name, Color: color}
	}
	b.Channels(channels...)

	if sizes, ok := d.levelSizes(); ok {
		b.LevelsFromSizes(sizes...)
	} else {
		levels, err := d.buildLevels(diag)
		if err != nil {
			return nil, err
		}
		b.Levels(levels...)
	}

	if d.PixelSizeMicrons != nil {
		b.PixelSizeMicrons(d.PixelSizeMicrons.Width, d.PixelSizeMicrons.Height)
	}
	if d.ZSpacingMicrons != nil {
		b.ZSpacingMicrons(*d.ZSpacingMicrons)
	}
	if d.TimeUnit != "" || len(d.Timepoints) > 0 {
		unit := calibration.DefaultTimeUnit
		if d.TimeUnit != "" {
			var err error
			if unit, err =calibration.ParseUnit(d.TimeUnit); err != nil {
				return nil, err
			}
		}
		b.Timepoints(unit, d.Timepoints...)
	}
	if d.Magnification != nil {
		b.Magnification(*d.Magnification)
	}

	return b.Build()
}

// levelSizes returns the level sizes when every level is given by size alone,
// so that downsamples can be estimated by the metadata builder.
func (d *Descriptor) levelSizes() ([]metadata.LevelSize, bool) {
	if len(d.Levels) == 0 || len(d.Downsamples) > 0 {
		return nil, false
	}
	sizes := make([]metadata.LevelSize, len(d.Levels))
	for i, l := range d.Levels {
		if l.Downsample > 0 || l.Width <= 0 || l.Height <= 0 {
			return nil, false
		}
		sizes[i] = metadata.LevelSize{Width: l.Width, Height: l.Height}
	}
	return sizes, true
}

func (d *Descriptor) buildLevels(diag metadata.DiagnosticFunc) ([]metadata.ResolutionLevel, error) {
	if len(d.Downsamples) > 0 && len(d.Levels) > 0 {
		return nil, fmt.Errorf("descriptor may give downsamples or levels, not both")
	}

	lb := metadata.NewLevelBuilder(d.Width, d.Height).WithDiagnostics(diag)
	for i, ds := range d.Downsamples {
		if !(ds > 0) || math.IsInf(ds, 1) {
			return nil, fmt.Errorf("downsample %d must be a positive number, got %v", i, ds)
		}
		lb.AddLevelByDownsample(ds)
	}
	for i, l := range d.Levels {
		hasSize := l.Width > 0 && l.Height > 0
		switch {
		case l.Downsample > 0 && hasSize:
			lb.AddLevel(l.Downsample, l.Width, l.Height)
		case l.Downsample > 0:
			lb.AddLevelByDownsample(l.Downsample)
		case hasSize:
			lb.AddLevelBySize(l.Width, l.Height)
		default:
			return nil, fmt.Errorf("level %d needs a downsample or a width and height", i)
		}
	}
	return lb.Build(), nil
}

// FromMetadata creates a descriptor holding every field of m. Levels are
// written out in full so that no estimation is needed when reading it back.
func FromMetadata(m *metadata.ImageMetadata) *Descriptor {
	d := &Descriptor{
		Path:        m.Path(),
		Name:        m.Name(),
		Origin:      m.OriginClassName(),
		Width:       m.Width(),
		Height:      m.Height(),
		SizeZ:       m.SizeZ(),
		SizeT:       m.SizeT(),
		ChannelType: m.ChannelType(),
		RGB:         m.IsRGB(),
		BitDepth:    m.BitDepth(),
		TileWidth:   m.PreferredTileWidth(),
		TileHeight:  m.PreferredTileHeight(),
		Args:        m.Arguments(),
	}

	for _, c := range m.Channels().All() {
		d.Channels = append(d.Channels, ChannelSpec{Name: c.Name, Color: formatColor(c.Color)})
	}
	for _, l := range m.Levels().All() {
		d.Levels = append(d.Levels, LevelSpec{Downsample: l.Downsample(), Width: l.Width(), Height: l.Height()})
	}

	cal := m.Calibration()
	if cal.HasPixelSizeMicrons() {
		w, _ := cal.PixelWidthMicrons()
		h, _ := cal.PixelHeightMicrons()
		d.PixelSizeMicrons = &PixelSizeSpec{Width: w, Height: h}
	}
	if z, ok := cal.ZSpacingMicrons(); ok {
		d.ZSpacingMicrons = &z
	}
	if cal.TimeUnit() != calibration.DefaultTimeUnit || cal.NTimepoints() > 0 {
		d.TimeUnit = calibration.UnitName(cal.TimeUnit())
		d.Timepoints = cal.Timepoints()
	}
	if mag, ok := m.Magnification(); ok {
		d.Magnification = &mag
	}
	return d
}

func parseColor(s string) (uint32, error) {
	if s == "" {
		return metadata.ColorGray, nil
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 16, 32)
	if err != nil || v > 0xFFFFFF {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	return uint32(v), nil
}

func formatColor(c uint32) string {
	return fmt.Sprintf("#%06X", c)
}
