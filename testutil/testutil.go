package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/sarstore/raster"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Int63n returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Int63n(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Int63n(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Bytes returns n pseudo-random bytes.
func (r *RNG) Bytes(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := make([]byte, n)
	r.rand.Read(b)
	return b
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// PatternByte is the byte ImagePattern stores for byte k of band b at
// (row, col). Neighbouring cells always differ.
func PatternByte(row, col, band, k int64) byte {
	return byte(row*7 + col*13 + band*29 + k*3)
}

// ImagePattern returns the whole image in window buffer layout: row-major
// cells for interleaved images, band-major planes for band-sequential.
func ImagePattern(img raster.Image) []byte {
	buf := make([]byte, img.Size())
	fill(buf, img, img.Full())
	return buf
}

// WindowPattern returns the pattern bytes for window w.
func WindowPattern(img raster.Image, w raster.Window) []byte {
	buf := make([]byte, w.Bytes(img))
	fill(buf, img, w)
	return buf
}

func fill(buf []byte, img raster.Image, w raster.Window) {
	i := 0
	if img.Layout == raster.BandSequential {
		for b := int64(0); b < img.Bands; b++ {
			for r := w.Row; r < w.EndRow(); r++ {
				for c := w.Col; c < w.EndCol(); c++ {
					for k := int64(0); k < img.BytesPerPixel; k++ {
						buf[i] = PatternByte(r, c, b, k)
						i++
					}
				}
			}
		}
		return
	}
	for r := w.Row; r < w.EndRow(); r++ {
		for c := w.Col; c < w.EndCol(); c++ {
			for b := int64(0); b < img.Bands; b++ {
				for k := int64(0); k < img.BytesPerPixel; k++ {
					buf[i] = PatternByte(r, c, b, k)
					i++
				}
			}
		}
	}
}

// Crop extracts window w from a full-image buffer in window layout.
func Crop(full []byte, img raster.Image, w raster.Window) []byte {
	es := img.ElementSize()
	rowLen := w.Cols * es
	out := make([]byte, 0, w.Bytes(img))
	for p := int64(0); p < img.Planes(); p++ {
		plane := full[p*img.Rows*img.Cols*es:]
		for r := w.Row; r < w.EndRow(); r++ {
			start := (r*img.Cols + w.Col) * es
			out = append(out, plane[start:start+rowLen]...)
		}
	}
	return out
}
