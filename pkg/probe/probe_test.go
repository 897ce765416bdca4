package probe

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"imagemeta/pkg/metadata"
)

// createTestImage creates an RGBA test image with a simple gradient
func createTestImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func TestReaderFormats(t *testing.T) {
	testCases := []struct {
		name   string
		format string
		encode func(buf *bytes.Buffer) error
	}{
		{"PNG", "png", func(buf *bytes.Buffer) error { return png.Encode(buf, createTestImage(300, 200)) }},
		{"TIFF", "tiff", func(buf *bytes.Buffer) error { return tiff.Encode(buf, createTestImage(300, 200), nil) }},
		{"BMP", "bmp", func(buf *bytes.Buffer) error { return bmp.Encode(buf, createTestImage(300, 200)) }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tc.encode(&buf); err != nil {
				t.Fatalf("Failed to encode test image: %v", err)
			}

			m, err := Reader(&buf, "/tmp/test."+tc.format, "header-test")
			if err != nil {
				t.Fatalf("Failed to read image: %v", err)
			}

			if m.Width() != 300 || m.Height() != 200 {
				t.Errorf("Expected 300x200, got %dx%d", m.Width(), m.Height())
			}
			if !m.IsRGB() || m.SizeC() != 3 || m.BitDepth() != 8 {
				t.Errorf("Expected 8-bit RGB with 3 channels, got rgb=%v sizeC=%d bitDepth=%d",
					m.IsRGB(), m.SizeC(), m.BitDepth())
			}
			if m.Name() != "test."+tc.format {
				t.Errorf("Expected base name, got %q", m.Name())
			}
			if args := m.Arguments(); len(args) != 1 || args[0] != tc.format {
				t.Errorf("Expected format %q in arguments, got %v", tc.format, args)
			}
			if m.NLevels() != 1 || m.PreferredTileWidth() != 300 || m.PreferredTileHeight() != 200 {
				t.Errorf("Expected single level with whole-image tile, got %d levels, tile %dx%d",
					m.NLevels(), m.PreferredTileWidth(), m.PreferredTileHeight())
			}
		})
	}
}

func TestReaderGray16(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 64, 32))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}

	m, err := Reader(&buf, "gray.png", "header-test")
	if err != nil {
		t.Fatalf("Failed to read image: %v", err)
	}
	if m.IsRGB() || m.SizeC() != 1 || m.BitDepth() != 16 {
		t.Errorf("Expected 16-bit single channel, got rgb=%v sizeC=%d bitDepth=%d", m.IsRGB(), m.SizeC(), m.BitDepth())
	}
}

func TestFileWithOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "large.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 1024, 512))); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	f.Close()

	m, err := File(path, "header-test", WithDownsamples(1, 2, 4), WithTileSize(128, 0))
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}

	if m.Path() != path {
		t.Errorf("Expected path %q, got %q", path, m.Path())
	}
	level, _ := m.Level(2)
	if level.Width() != 256 || level.Height() != 128 {
		t.Errorf("Expected level 2 to be 256x128, got %dx%d", level.Width(), level.Height())
	}
	if m.PreferredTileWidth() != 128 || m.PreferredTileHeight() != 256 {
		t.Errorf("Expected tile 128x256, got %dx%d", m.PreferredTileWidth(), m.PreferredTileHeight())
	}
}

func TestFileWithLevelSizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.tif")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if err := tiff.Encode(f, image.NewGray(image.Rect(0, 0, 1000, 2000)), nil); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	f.Close()

	var events []metadata.Diagnostic
	m, err := File(path, "header-test",
		WithDownsamples(1, 4),
		WithLevelSizes(metadata.LevelSize{Width: 1000, Height: 2000}, metadata.LevelSize{Width: 100, Height: 150}),
		WithDiagnostics(func(d metadata.Diagnostic) { events = append(events, d) }))
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}

	if m.NLevels() != 2 {
		t.Fatalf("Expected 2 levels, got %d", m.NLevels())
	}
	level, _ := m.Level(1)
	if level.Width() != 100 || level.Height() != 150 {
		t.Errorf("Expected level 1 to be 100x150, got %dx%d", level.Width(), level.Height())
	}
	if len(events) != 1 || events[0].Kind != metadata.DownsampleMismatch || events[0].Level != 1 {
		t.Errorf("Expected one downsample warning for level 1, got %v", events)
	}
}

func TestDescribeModel(t *testing.T) {
	testCases := []struct {
		name           string
		model          color.Model
		expectRGB      bool
		expectNames    []string
		expectBitDepth int
	}{
		{"CMYK", color.CMYKModel, false, []string{"Cyan", "Magenta", "Yellow", "Black"}, 8},
		{"Gray", color.GrayModel, false, []string{"Channel 1"}, 8},
		{"Gray16", color.Gray16Model, false, []string{"Channel 1"}, 16},
		{"RGBA", color.RGBAModel, true, []string{"Red", "Green", "Blue"}, 8},
		{"YCbCr", color.YCbCrModel, true, []string{"Red", "Green", "Blue"}, 8},
		{"Paletted", color.Palette{color.Black, color.White}, true, []string{"Red", "Green", "Blue"}, 8},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			isRGB, channels, depth := describeModel(tc.model)
			if isRGB != tc.expectRGB {
				t.Errorf("Expected rgb=%v, got %v", tc.expectRGB, isRGB)
			}
			if depth != tc.expectBitDepth {
				t.Errorf("Expected bit depth %d, got %d", tc.expectBitDepth, depth)
			}
			if len(channels) != len(tc.expectNames) {
				t.Fatalf("Expected %d channels, got %v", len(tc.expectNames), channels)
			}
			for i, name := range tc.expectNames {
				if channels[i].Name != name {
					t.Errorf("Channel %d: expected %q, got %q", i, name, channels[i].Name)
				}
			}
		})
	}
}

func TestReaderErrors(t *testing.T) {
	if _, err := File(filepath.Join(t.TempDir(), "missing.png"), "header-test"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
	if _, err := Reader(bytes.NewReader([]byte("not an image")), "x", "header-test"); err == nil {
		t.Error("Expected error for unknown format")
	}
}
