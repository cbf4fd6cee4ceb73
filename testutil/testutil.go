package testutil

import (
	"math/rand"
	"sync"
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

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// FillUniformRange fills dst with random values in range [minVal, maxVal).
func (r *RNG) FillUniformRange(dst []float64, minVal, maxVal float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	span := maxVal - minVal
	for i := range dst {
		dst[i] = minVal + r.rand.Float64()*span
	}
}

// UniformPoints generates points with coordinates in range [minVal, maxVal).
// Uses a single backing array for efficiency.
func (r *RNG) UniformPoints(num, dim int, minVal, maxVal float64) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dim)
	points := make([][]float64, num)
	span := maxVal - minVal

	for i := range num {
		p := data[i*dim : (i+1)*dim]
		for j := range p {
			p[j] = minVal + r.rand.Float64()*span
		}
		points[i] = p
	}

	return points
}

// GaussianBlob generates num points drawn from an isotropic normal
// distribution around center with standard deviation spread.
func (r *RNG) GaussianBlob(num int, center []float64, spread float64) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blobLocked(num, center, spread)
}

func (r *RNG) blobLocked(num int, center []float64, spread float64) [][]float64 {
	dim := len(center)
	data := make([]float64, num*dim)
	points := make([][]float64, num)

	for i := range num {
		p := data[i*dim : (i+1)*dim]
		for j := range p {
			p[j] = center[j] + r.rand.NormFloat64()*spread
		}
		points[i] = p
	}

	return points
}

// Blobs generates num points spread round-robin over the given centers and
// returns them with the index of the center each point was drawn around.
func (r *RNG) Blobs(num int, centers [][]float64, spread float64) ([][]float64, []int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	points := make([][]float64, num)
	labels := make([]int, num)
	for i := range num {
		c := i % len(centers)
		points[i] = r.blobLocked(1, centers[c], spread)[0]
		labels[i] = c
	}

	return points, labels
}

// ExactBox returns the indices of all points within halfWidth of center
// along every dimension, ascending.
func ExactBox(points [][]float64, center []float64, halfWidth float64) []int {
	var out []int
	for i, p := range points {
		inside := true
		for j, v := range p {
			if v < center[j]-halfWidth || v > center[j]+halfWidth {
				inside = false
				break
			}
		}
		if inside {
			out = append(out, i)
		}
	}
	return out
}
