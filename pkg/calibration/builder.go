package calibration

import (
	"slices"
	"time"
)

// Builder accumulates calibration values. It is not safe for concurrent use.
type Builder struct {
	cal PixelCalibration
}

// NewBuilder returns a builder for an uncalibrated image.
func NewBuilder() *Builder {
	return &Builder{}
}

// NewBuilderFrom returns a builder seeded with an existing calibration.
func NewBuilderFrom(c PixelCalibration) *Builder {
	b := &Builder{cal: c}
	b.cal.timepoints = slices.Clone(c.timepoints)
	return b
}

// PixelSizeMicrons sets the pixel width and height. A NaN value clears the
// corresponding axis.
func (b *Builder) PixelSizeMicrons(width, height float64) *Builder {
	b.cal.pixelWidth = some(width)
	b.cal.pixelHeight = some(height)
	return b
}

// ZSpacingMicrons sets the spacing between z-slices. NaN clears it.
func (b *Builder) ZSpacingMicrons(z float64) *Builder {
	b.cal.zSpacing = some(z)
	return b
}

// Timepoints sets the time unit and the individual timepoints, expressed in
// that unit.
func (b *Builder) Timepoints(unit time.Duration, timepoints ...float64) *Builder {
	b.cal.timeUnit = unit
	b.cal.timepoints = slices.Clone(timepoints)
	return b
}

// Build returns the calibration. The builder may keep being used afterwards
// without affecting the returned value.
func (b *Builder) Build() PixelCalibration {
	c := b.cal
	c.timepoints = slices.Clone(b.cal.timepoints)
	return c
}
