package metadata

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// hasher feeds typed values into an xxhash digest. Every value is written with
// a fixed width (or length prefix) so that adjacent fields cannot collide.
type hasher struct {
	d   *xxhash.Digest
	buf [8]byte
}

func newHasher() *hasher {
	return &hasher{d: xxhash.New()}
}

func (h *hasher) uint64(v uint64) {
	binary.LittleEndian.PutUint64(h.buf[:], v)
	h.d.Write(h.buf[:])
}

func (h *hasher) int(v int) {
	h.uint64(uint64(v))
}

func (h *hasher) float(v float64) {
	if v == 0 {
		// -0 == 0
		v = 0
	}
	h.uint64(math.Float64bits(v))
}

func (h *hasher) bool(v bool) {
	if v {
		h.uint64(1)
	} else {
		h.uint64(0)
	}
}

func (h *hasher) string(s string) {
	h.int(len(s))
	h.d.WriteString(s)
}

func (h *hasher) sum() uint64 {
	return h.d.Sum64()
}

// Hash returns a hash of the level consistent with Equal.
func (l ResolutionLevel) Hash() uint64 {
	h := newHasher()
	l.hashInto(h)
	return h.sum()
}

func (l ResolutionLevel) hashInto(h *hasher) {
	h.float(l.downsample)
	h.int(l.width)
	h.int(l.height)
}
