package metadata

import (
	"fmt"
	"strings"
)

// ChannelType describes how the channels of an image should be interpreted.
type ChannelType int

const (
	// ChannelTypeDefault is used for most 'normal' images.
	ChannelTypeDefault ChannelType = iota
	// ChannelTypeFeature means each channel is a feature for a pixel classifier.
	ChannelTypeFeature
	// ChannelTypeProbability means each channel is a probability, with only one
	// true class per pixel.
	ChannelTypeProbability
	// ChannelTypeMulticlassProbability means each channel is a probability and a
	// pixel may belong to several classes.
	ChannelTypeMulticlassProbability
	// ChannelTypeClassification means each channel is a classification, as in a
	// labelled image.
	ChannelTypeClassification
)

var channelTypeKeys = map[ChannelType]string{
	ChannelTypeDefault:               "default",
	ChannelTypeFeature:               "feature",
	ChannelTypeProbability:           "probability",
	ChannelTypeMulticlassProbability: "multiclass_probability",
	ChannelTypeClassification:        "classification",
}

// String returns the display name of the channel type.
func (t ChannelType) String() string {
	switch t {
	case ChannelTypeDefault:
		return "Channel"
	case ChannelTypeFeature:
		return "Feature"
	case ChannelTypeProbability:
		return "Probability"
	case ChannelTypeMulticlassProbability:
		return "Multiclass probability"
	case ChannelTypeClassification:
		return "Classification"
	default:
		return fmt.Sprintf("ChannelType(%d)", int(t))
	}
}

// ParseChannelType parses the key form of a channel type, e.g. "probability".
// Matching ignores case; the empty string is ChannelTypeDefault.
func ParseChannelType(s string) (ChannelType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ChannelTypeDefault, nil
	}
	for t, key := range channelTypeKeys {
		if key == s {
			return t, nil
		}
	}
	return ChannelTypeDefault, fmt.Errorf("unknown channel type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t ChannelType) MarshalText() ([]byte, error) {
	key, ok := channelTypeKeys[t]
	if !ok {
		return nil, fmt.Errorf("unknown channel type %d", int(t))
	}
	return []byte(key), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ChannelType) UnmarshalText(text []byte) error {
	parsed, err := ParseChannelType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Channel describes one image channel by name and display colour (0xRRGGBB).
type Channel struct {
	Name  string
	Color uint32
}

const (
	ColorRed     uint32 = 0xFF0000
	ColorGreen   uint32 = 0x00FF00
	ColorBlue    uint32 = 0x0000FF
	ColorYellow  uint32 = 0xFFFF00
	ColorCyan    uint32 = 0x00FFFF
	ColorMagenta uint32 = 0xFF00FF
	ColorGray    uint32 = 0xFFFFFF
)

var defaultChannelColors = []uint32{
	ColorRed, ColorGreen, ColorBlue, ColorYellow, ColorCyan, ColorMagenta,
}

func (c Channel) String() string {
	return fmt.Sprintf("%s (#%06X)", c.Name, c.Color)
}

// RGBChannels returns the channels of a standard RGB image.
func RGBChannels() []Channel {
	return []Channel{
		{Name: "Red", Color: ColorRed},
		{Name: "Green", Color: ColorGreen},
		{Name: "Blue", Color: ColorBlue},
	}
}

// DefaultChannels returns n channels named "Channel 1", "Channel 2", ...
// A single channel is shown in gray; otherwise colours cycle through a fixed
// palette.
func DefaultChannels(n int) []Channel {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []Channel{{Name: "Channel 1", Color: ColorGray}}
	}
	channels := make([]Channel, n)
	for i := range channels {
		channels[i] = Channel{
			Name:  fmt.Sprintf("Channel %d", i+1),
			Color: defaultChannelColors[i%len(defaultChannelColors)],
		}
	}
	return channels
}
