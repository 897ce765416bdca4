package metadata

import (
	"fmt"
	"log"
)

// DiagnosticKind identifies the advisory condition being reported.
type DiagnosticKind int

const (
	// DownsampleMismatch is reported when x and y downsamples estimated for a
	// resolution level differ by more than the allowed tolerance.
	DownsampleMismatch DiagnosticKind = iota
	// PathMismatch is reported by IsCompatibleMetadata for differing paths.
	PathMismatch
	// BitDepthMismatch is reported by IsCompatibleMetadata for differing bit depths.
	BitDepthMismatch
	// DimensionMismatch is reported by IsCompatibleMetadata when the number of
	// z-slices, timepoints or channels differ.
	DimensionMismatch
)

func (k DiagnosticKind) String() string {
	switch k {
	case DownsampleMismatch:
		return "downsample mismatch"
	case PathMismatch:
		return "path mismatch"
	case BitDepthMismatch:
		return "bit-depth mismatch"
	case DimensionMismatch:
		return "dimension mismatch"
	default:
		return fmt.Sprintf("DiagnosticKind(%d)", int(k))
	}
}

// Diagnostic is a non-fatal warning. Receiving one never means an operation failed.
type Diagnostic struct {
	Kind DiagnosticKind

	// Level is the resolution level the diagnostic refers to, or -1
	Level int

	Message string
}

func (d Diagnostic) String() string {
	return d.Kind.String() + ": " + d.Message
}

// DiagnosticFunc receives diagnostics. A nil DiagnosticFunc discards them.
type DiagnosticFunc func(Diagnostic)

func (fn DiagnosticFunc) emit(kind DiagnosticKind, level int, format string, args ...interface{}) {
	if fn == nil {
		return
	}
	fn(Diagnostic{Kind: kind, Level: level, Message: fmt.Sprintf(format, args...)})
}

// LogDiagnostics returns a DiagnosticFunc writing each diagnostic to l as a
// warning. A nil logger uses the standard logger.
func LogDiagnostics(l *log.Logger) DiagnosticFunc {
	return func(d Diagnostic) {
		if l == nil {
			log.Printf("Warning: %s", d)
			return
		}
		l.Printf("Warning: %s", d)
	}
}
