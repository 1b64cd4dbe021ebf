package geometry

import "fmt"

// Rect is an axis-aligned rectangle in screen pixels.
// Right and Bottom are exclusive edges, so Width is Right-Left.
type Rect struct {
	Left   float64 `json:"left" yaml:"left"`
	Top    float64 `json:"top" yaml:"top"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
}

// NewRect builds a Rect from an origin and a size
func NewRect(x, y, width, height float64) Rect {
	return Rect{Left: x, Top: y, Right: x + width, Bottom: y + height}
}

func (r Rect) Width() float64 {
	if r.Right < r.Left {
		return 0
	}
	return r.Right - r.Left
}

func (r Rect) Height() float64 {
	if r.Bottom < r.Top {
		return 0
	}
	return r.Bottom - r.Top
}

func (r Rect) Area() float64 {
	return r.Width() * r.Height()
}

// IsEmpty reports whether the rectangle covers no pixels
func (r Rect) IsEmpty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Expand grows the rectangle by pad on every side. A negative pad shrinks it.
func (r Rect) Expand(pad float64) Rect {
	return Rect{
		Left:   r.Left - pad,
		Top:    r.Top - pad,
		Right:  r.Right + pad,
		Bottom: r.Bottom + pad,
	}
}

// ClampTo restricts the rectangle to [0,width]x[0,height].
// The result never has Right < Left or Bottom < Top.
func (r Rect) ClampTo(width, height float64) Rect {
	left := clamp(r.Left, 0, width)
	top := clamp(r.Top, 0, height)
	right := clamp(r.Right, left, width)
	bottom := clamp(r.Bottom, top, height)
	return Rect{Left: left, Top: top, Right: right, Bottom: bottom}
}

// Contains reports whether other lies entirely inside r
func (r Rect) Contains(other Rect) bool {
	return other.Left >= r.Left && other.Top >= r.Top &&
		other.Right <= r.Right && other.Bottom <= r.Bottom
}

func (r Rect) String() string {
	return fmt.Sprintf("[%.0f,%.0f][%.0f,%.0f]", r.Left, r.Top, r.Right, r.Bottom)
}

// Fraction returns area/total clamped to [0,1]. A non-positive total yields 0.
func Fraction(area, total float64) float64 {
	if total <= 0 || area <= 0 {
		return 0
	}
	return clamp(area/total, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
