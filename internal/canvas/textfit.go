package canvas

// Font size bounds for the auto-fit search, in pixels.
const (
	MinFontSize = 8
	MaxFontSize = 72
)

// Usable fraction of the container the fitted text may occupy.
const (
	fitWidthFraction  = 0.8
	fitHeightFraction = 0.6
)

// Measurer reports the rendered single-line extent of text at an integer
// font size. Implementations wrap whatever text metrics the renderer
// exposes.
type Measurer interface {
	Measure(text string, fontSize int) (width, height float64)
}

// MeasureFunc adapts a function to the Measurer interface.
type MeasureFunc func(text string, fontSize int) (width, height float64)

func (f MeasureFunc) Measure(text string, fontSize int) (width, height float64) {
	return f(text, fontSize)
}

// FitFontSize returns the largest integer font size between MinFontSize
// and MaxFontSize whose rendered single-line width fits 80% of the
// container width and whose height fits 60% of the container height.
// When even the minimum size does not fit, MinFontSize is returned so the
// text is never hidden entirely.
func FitFontSize(m Measurer, text string, containerWidth, containerHeight float64) int {
	maxW := containerWidth * fitWidthFraction
	maxH := containerHeight * fitHeightFraction

	fits := func(size int) bool {
		w, h := m.Measure(text, size)
		return w <= maxW && h <= maxH
	}

	// Binary search for the largest fitting size. Measurers are assumed
	// monotonic in font size, which holds for any sane text renderer.
	lo, hi := MinFontSize, MaxFontSize
	best := MinFontSize
	for lo <= hi {
		mid := (lo + hi) / 2
		if fits(mid) {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}
