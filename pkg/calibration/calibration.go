// Package calibration holds the physical scale of an image: pixel size, the
// spacing between z-slices and the time axis of a time series.
//
// A PixelCalibration is immutable once built. Values that were never supplied
// are reported as absent rather than as NaN, so that "unknown" and "zero" can
// always be told apart.
package calibration

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// DefaultTimeUnit is the time unit used when none has been specified.
const DefaultTimeUnit = time.Second

// optional is a float that may be absent.
type optional struct {
	value float64
	set   bool
}

func some(v float64) optional {
	if math.IsNaN(v) {
		return optional{}
	}
	return optional{value: v, set: true}
}

func (o optional) get() (float64, bool) {
	return o.value, o.set
}

func (o optional) equal(other optional) bool {
	return o.set == other.set && sameFloat(o.value, other.value)
}

// sameFloat compares floats by bit pattern, so NaN equals NaN and -0 equals 0.
func sameFloat(a, b float64) bool {
	if a == 0 && b == 0 {
		return true
	}
	return math.Float64bits(a) == math.Float64bits(b)
}

// PixelCalibration describes pixel sizes in microns and the timing of a time
// series. The zero value is an uncalibrated image with second time units.
type PixelCalibration struct {
	pixelWidth  optional
	pixelHeight optional
	zSpacing    optional

	timeUnit   time.Duration
	timepoints []float64
}

// HasPixelSizeMicrons returns true if both pixel width and height are known.
func (c PixelCalibration) HasPixelSizeMicrons() bool {
	return c.pixelWidth.set && c.pixelHeight.set
}

// HasZSpacingMicrons returns true if the z-spacing is known.
func (c PixelCalibration) HasZSpacingMicrons() bool {
	return c.zSpacing.set
}

// PixelWidthMicrons returns the pixel width, if known.
func (c PixelCalibration) PixelWidthMicrons() (float64, bool) {
	return c.pixelWidth.get()
}

// PixelHeightMicrons returns the pixel height, if known.
func (c PixelCalibration) PixelHeightMicrons() (float64, bool) {
	return c.pixelHeight.get()
}

// ZSpacingMicrons returns the spacing between z-slices, if known.
func (c PixelCalibration) ZSpacingMicrons() (float64, bool) {
	return c.zSpacing.get()
}

// TimeUnit returns the unit in which timepoints are expressed.
func (c PixelCalibration) TimeUnit() time.Duration {
	if c.timeUnit <= 0 {
		return DefaultTimeUnit
	}
	return c.timeUnit
}

// NTimepoints returns the number of explicit timepoints.
func (c PixelCalibration) NTimepoints() int {
	return len(c.timepoints)
}

// Timepoint returns the timepoint at index ind, in TimeUnit units.
// The second value is false if no timepoint is recorded at that index.
func (c PixelCalibration) Timepoint(ind int) (float64, bool) {
	if ind < 0 || ind >= len(c.timepoints) {
		return 0, false
	}
	return c.timepoints[ind], true
}

// Timepoints returns a copy of all explicit timepoints.
func (c PixelCalibration) Timepoints() []float64 {
	return slices.Clone(c.timepoints)
}

// Equal reports whether two calibrations hold exactly the same values. NaN
// timepoints are equal to each other.
func (c PixelCalibration) Equal(other PixelCalibration) bool {
	return c.pixelWidth.equal(other.pixelWidth) &&
		c.pixelHeight.equal(other.pixelHeight) &&
		c.zSpacing.equal(other.zSpacing) &&
		c.TimeUnit() == other.TimeUnit() &&
		slices.EqualFunc(c.timepoints, other.timepoints, sameFloat)
}

func (c PixelCalibration) String() string {
	s := "PixelCalibration{"
	if w, ok := c.PixelWidthMicrons(); ok {
		s += fmt.Sprintf("pixelWidth=%gµm ", w)
	}
	if h, ok := c.PixelHeightMicrons(); ok {
		s += fmt.Sprintf("pixelHeight=%gµm ", h)
	}
	if z, ok := c.ZSpacingMicrons(); ok {
		s += fmt.Sprintf("zSpacing=%gµm ", z)
	}
	s += "timeUnit=" + UnitName(c.TimeUnit())
	if len(c.timepoints) > 0 {
		s += fmt.Sprintf(" timepoints=%v", c.timepoints)
	}
	return s + "}"
}

var unitNames = []struct {
	unit time.Duration
	name string
}{
	{time.Nanosecond, "nanoseconds"},
	{time.Microsecond, "microseconds"},
	{time.Millisecond, "milliseconds"},
	{time.Second, "seconds"},
	{time.Minute, "minutes"},
	{time.Hour, "hours"},
	{24 * time.Hour, "days"},
}

// UnitName returns a readable name for a time unit, e.g. "seconds".
// Durations that are not a standard unit fall back to time.Duration formatting.
func UnitName(unit time.Duration) string {
	for _, u := range unitNames {
		if u.unit == unit {
			return u.name
		}
	}
	return unit.String()
}

// ParseUnit is the inverse of UnitName.
func ParseUnit(name string) (time.Duration, error) {
	for _, u := range unitNames {
		if u.name == name {
			return u.unit, nil
		}
	}
	d, err := time.ParseDuration(name)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("unknown time unit %q", name)
	}
	return d, nil
}
