package window

import "math"

// TriggerThreshold is the distance, in scroll units, from either edge of the
// content at which the window starts extending.
const TriggerThreshold = 10

// Metrics is one scroll-position sample from the renderer.
type Metrics struct {
	VisibleHeight float64
	ScrollOffset  float64
	ContentHeight float64
}

func (m Metrics) valid() bool {
	for _, v := range []float64{m.VisibleHeight, m.ScrollOffset, m.ContentHeight} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return false
		}
	}
	return true
}

// Position classifies a scroll sample. NearTop and NearBottom can both hold
// when the content is shorter than the viewport plus the threshold.
type Position uint8

const (
	Neutral    Position = 0
	NearTop    Position = 1 << 0
	NearBottom Position = 1 << 1
)

// Has reports whether p includes flag.
func (p Position) Has(flag Position) bool {
	return flag != 0 && p&flag == flag
}

func (p Position) String() string {
	switch p {
	case Neutral:
		return "neutral"
	case NearTop:
		return "near-top"
	case NearBottom:
		return "near-bottom"
	case NearTop | NearBottom:
		return "near-top+near-bottom"
	default:
		return "unknown"
	}
}

// Classify maps a scroll sample onto its edge proximity. Malformed samples
// (negative, NaN or infinite values) classify as Neutral.
func Classify(m Metrics, threshold float64) Position {
	if !m.valid() {
		return Neutral
	}
	var p Position
	if m.ScrollOffset < threshold {
		p |= NearTop
	}
	if m.VisibleHeight+m.ScrollOffset > m.ContentHeight-threshold {
		p |= NearBottom
	}
	return p
}
