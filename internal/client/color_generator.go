package client

import (
	"sync"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ColorGenerator hands out cursor colors for room participants. Successive
// hues step around the color wheel by the golden ratio, keeping consecutive
// joiners visually far apart.
type ColorGenerator struct {
	mu   sync.Mutex
	next int
}

func NewColorGenerator() *ColorGenerator {
	return &ColorGenerator{}
}

// NextColor returns the next cursor color as a hex string.
func (g *ColorGenerator) NextColor() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	const step = 0.618033988749895
	hue := float64(g.next) * step
	hue -= float64(int(hue))
	g.next++

	return colorful.Hsl(hue*360, 0.85, 0.55).Hex()
}
