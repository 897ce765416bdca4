package metadata

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats/scalar"
)

// downsampleTolerance is the relative difference between x and y downsamples
// above which an estimated level is reported as inconsistent.
const downsampleTolerance = 0.001

// ResolutionLevel is the size of one level of a multi-resolution image pyramid,
// together with the downsample factor relative to the full-resolution image.
//
// Values are created through a LevelBuilder and never change afterwards.
// Use Equal rather than == so that NaN downsamples compare equal to themselves.
type ResolutionLevel struct {
	downsample float64
	width      int
	height     int
}

// Downsample returns the downsample factor for this level (1 is full resolution).
func (l ResolutionLevel) Downsample() float64 {
	return l.downsample
}

// Width returns the image width at this level.
func (l ResolutionLevel) Width() int {
	return l.width
}

// Height returns the image height at this level.
func (l ResolutionLevel) Height() int {
	return l.height
}

// Equal reports whether both levels hold exactly the same values. Downsamples
// are compared by bit pattern, with -0 treated as 0.
func (l ResolutionLevel) Equal(other ResolutionLevel) bool {
	return sameFloat(l.downsample, other.downsample) &&
		l.width == other.width &&
		l.height == other.height
}

// sameFloat compares floats by bit pattern, so NaN equals NaN.
func sameFloat(a, b float64) bool {
	if a == 0 && b == 0 {
		return true
	}
	return math.Float64bits(a) == math.Float64bits(b)
}

// Compare orders levels by downsample, then width, then height.
func (l ResolutionLevel) Compare(other ResolutionLevel) int {
	if c := cmp.Compare(l.downsample, other.downsample); c != 0 {
		return c
	}
	if c := cmp.Compare(l.width, other.width); c != 0 {
		return c
	}
	return cmp.Compare(l.height, other.height)
}

func (l ResolutionLevel) String() string {
	return "Level: " + strconv.Itoa(l.width) + "x" + strconv.Itoa(l.height) +
		" (" + formatNumber(l.downsample, 5) + ")"
}

// formatNumber formats v with at most maxDecimals decimal places, dropping
// trailing zeros.
func formatNumber(v float64, maxDecimals int) string {
	s := strconv.FormatFloat(v, 'f', maxDecimals, 64)
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

// LevelSize is the width and height of a pyramid level whose downsample is
// not known.
type LevelSize struct {
	Width  int
	Height int
}

// LevelBuilder collects the resolution levels of one image pyramid.
//
// Levels are kept in the order they are added. No sorting, deduplication or
// consistency checks are applied; getting the order right is up to the caller.
type LevelBuilder struct {
	fullWidth  int
	fullHeight int
	levels     []ResolutionLevel
	diag       DiagnosticFunc
}

// NewLevelBuilder creates a builder for an image with the given full-resolution size.
func NewLevelBuilder(fullWidth, fullHeight int) *LevelBuilder {
	return &LevelBuilder{
		fullWidth:  fullWidth,
		fullHeight: fullHeight,
	}
}

// WithDiagnostics sets the sink for warnings raised while estimating downsamples.
func (b *LevelBuilder) WithDiagnostics(fn DiagnosticFunc) *LevelBuilder {
	b.diag = fn
	return b
}

// AddLevelByDownsample adds a level whose size is the full-resolution size
// divided by downsample, rounded down.
func (b *LevelBuilder) AddLevelByDownsample(downsample float64) *LevelBuilder {
	levelWidth := int(float64(b.fullWidth) / downsample)
	levelHeight := int(float64(b.fullHeight) / downsample)
	return b.AddLevel(downsample, levelWidth, levelHeight)
}

// AddFullResolutionLevel adds the full-resolution image as a level.
//
// A pyramid does not have to contain this level, e.g. when it only provides a
// low-resolution overlay for a larger image.
func (b *LevelBuilder) AddFullResolutionLevel() *LevelBuilder {
	return b.AddLevel(1, b.fullWidth, b.fullHeight)
}

// AddLevel adds a level with an exactly known downsample and size. Nothing is
// estimated or rounded.
func (b *LevelBuilder) AddLevel(downsample float64, levelWidth, levelHeight int) *LevelBuilder {
	b.levels = append(b.levels, ResolutionLevel{
		downsample: downsample,
		width:      levelWidth,
		height:     levelHeight,
	})
	return b
}

// AddLevelBySize adds a level of the given size, estimating its downsample
// with EstimateDownsample.
func (b *LevelBuilder) AddLevelBySize(levelWidth, levelHeight int) *LevelBuilder {
	downsample := EstimateDownsample(b.fullWidth, b.fullHeight, levelWidth, levelHeight, len(b.levels), b.diag)
	return b.AddLevel(downsample, levelWidth, levelHeight)
}

// AddResolutionLevel adds an existing level unchanged.
func (b *LevelBuilder) AddResolutionLevel(level ResolutionLevel) *LevelBuilder {
	return b.AddLevel(level.downsample, level.width, level.height)
}

// Build returns the levels in the order they were added. The returned slice
// belongs to the caller.
func (b *LevelBuilder) Build() []ResolutionLevel {
	return slices.Clone(b.levels)
}

// EstimateDownsample derives a single downsample factor for a pyramid level
// from its size and the full-resolution size.
//
// Powers of two are preferred whenever they reproduce the level size to within
// 2 pixels, then whole numbers reproducing each axis to within 1 pixel.
// Otherwise the x and y downsamples are averaged. If they differ by more than
// a relative tolerance of 0.001 and level >= 0, a DownsampleMismatch
// diagnostic is sent to diag; the averaged value is returned regardless.
func EstimateDownsample(fullWidth, fullHeight, levelWidth, levelHeight, level int, diag DiagnosticFunc) float64 {
	fw, fh := float64(fullWidth), float64(fullHeight)
	lw, lh := float64(levelWidth), float64(levelHeight)

	// Estimate each axis independently
	downsampleX := fw / lw
	downsampleY := fh / lh

	// 2^n is by far the most common downsample, so accept the nearest power of
	// two if it lands within 2 pixels on both axes
	downsampleAverage := (downsampleX + downsampleY) / 2
	closestPow2 := math.Pow(2, math.Round(math.Log2(downsampleAverage)))
	if math.Abs(fh/closestPow2-lh) < 2 && math.Abs(fw/closestPow2-lw) < 2 {
		return closestPow2
	}

	// Snap to a whole-number downsample per axis if it lands within 1 pixel
	if rounded := math.Round(downsampleX); math.Abs(fw/rounded-lw) <= 1 {
		downsampleX = rounded
	}
	if rounded := math.Round(downsampleY); math.Abs(fh/rounded-lh) <= 1 {
		downsampleY = rounded
	}

	if downsampleX == downsampleY {
		return downsampleX
	}

	if downsampleX == closestPow2 || downsampleY == closestPow2 {
		return closestPow2
	}

	downsample := (downsampleX + downsampleY) / 2
	if level >= 0 && !scalar.EqualWithinRel(downsampleX, downsampleY, downsampleTolerance) {
		diag.emit(DownsampleMismatch, level,
			"calculated downsample values differ for x & y for level %d: x=%v and y=%v - will use value %v",
			level, downsampleX, downsampleY, downsample)
	}
	return downsample
}
