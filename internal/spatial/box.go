package spatial

// Box is an axis-aligned box with inclusive faces.
type Box struct {
	Min, Max []float64
}

// BoxAround returns the box centered on center with the given half-width
// along every dimension.
func BoxAround(center []float64, halfWidth float64) Box {
	b := Box{
		Min: make([]float64, len(center)),
		Max: make([]float64, len(center)),
	}
	for i, v := range center {
		b.Min[i] = v - halfWidth
		b.Max[i] = v + halfWidth
	}
	return b
}

// Contains reports whether p lies inside b.
func (b Box) Contains(p []float64) bool {
	for i, v := range p {
		if v < b.Min[i] || v > b.Max[i] {
			return false
		}
	}
	return true
}
