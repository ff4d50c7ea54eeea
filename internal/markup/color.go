package markup

import (
	"fmt"
	"math"
)

// RGB is an 8-bit color.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

const (
	initialHue = 0.5
	saturation = 0.5
	brightness = 0.95
)

// goldenRatioConjugate spaces consecutive hues as far apart as possible.
var goldenRatioConjugate = 2 / (1 + math.Sqrt(5))

// ColorSequence yields track colors. Construct one per medium so the same
// tracks always receive the same colors.
type ColorSequence struct {
	hue float64
}

// NewColorSequence starts a sequence at its fixed seed.
func NewColorSequence() *ColorSequence {
	return &ColorSequence{hue: initialHue}
}

// Next returns the current color and advances the hue.
func (s *ColorSequence) Next() RGB {
	c := hsbToRGB(s.hue, saturation, brightness)
	s.hue = math.Mod(s.hue+goldenRatioConjugate, 1)
	return c
}

// Reset rewinds the sequence to its seed.
func (s *ColorSequence) Reset() {
	s.hue = initialHue
}

// hsbToRGB converts hue, saturation and brightness in [0,1] to RGB, rounding
// each channel with v*255+0.5. Products are converted explicitly so the
// compiler cannot fuse them into a multiply-add.
func hsbToRGB(hue, sat, bri float64) RGB {
	if sat == 0 {
		v := channel(bri)
		return RGB{R: v, G: v, B: v}
	}
	h := float64(float64(hue-math.Floor(hue)) * 6)
	sector := math.Floor(h)
	f := h - sector
	p := float64(bri * float64(1-sat))
	q := float64(bri * float64(1-float64(sat*f)))
	t := float64(bri * float64(1-float64(sat*float64(1-f))))

	switch int(sector) {
	case 0:
		return RGB{R: channel(bri), G: channel(t), B: channel(p)}
	case 1:
		return RGB{R: channel(q), G: channel(bri), B: channel(p)}
	case 2:
		return RGB{R: channel(p), G: channel(bri), B: channel(t)}
	case 3:
		return RGB{R: channel(p), G: channel(q), B: channel(bri)}
	case 4:
		return RGB{R: channel(t), G: channel(p), B: channel(bri)}
	default:
		return RGB{R: channel(bri), G: channel(p), B: channel(q)}
	}
}

func channel(v float64) uint8 {
	return uint8(int(float64(v*255) + 0.5))
}
