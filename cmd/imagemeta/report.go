package main

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/stat"

	"imagemeta/internal/models"
	"imagemeta/pkg/config"
	"imagemeta/pkg/metadata"
)

// writeReport prints m in the requested output format
func writeReport(w io.Writer, m *metadata.ImageMetadata, format string) error {
	switch format {
	case config.FormatYAML:
		data, err := models.FromMetadata(m).Marshal()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case config.FormatText:
		return writeText(w, m)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeText(w io.Writer, m *metadata.ImageMetadata) error {
	fmt.Fprintln(w, m.String())
	fmt.Fprintf(w, "Origin: %s\n", m.OriginClassName())
	fmt.Fprintf(w, "Channels (%s):\n", m.ChannelType())
	for i, c := range m.Channels().All() {
		fmt.Fprintf(w, "  %d: %s\n", i, c)
	}
	fmt.Fprintln(w, "Resolution levels:")
	for i, l := range m.Levels().All() {
		fmt.Fprintf(w, "  %d: %s\n", i, l)
	}
	if ratio, ok := meanLevelRatio(m.PreferredDownsamples()); ok {
		fmt.Fprintf(w, "Mean downsample step: %.3f\n", ratio)
	}
	_, err := fmt.Fprintf(w, "Preferred tile size: %dx%d\n", m.PreferredTileWidth(), m.PreferredTileHeight())
	return err
}

// meanLevelRatio returns the mean ratio between successive downsamples
func meanLevelRatio(downsamples []float64) (float64, bool) {
	if len(downsamples) < 2 {
		return 0, false
	}
	ratios := make([]float64, 0, len(downsamples)-1)
	for i := 1; i < len(downsamples); i++ {
		if downsamples[i-1] == 0 {
			return 0, false
		}
		ratios = append(ratios, downsamples[i]/downsamples[i-1])
	}
	return stat.Mean(ratios, nil), true
}
