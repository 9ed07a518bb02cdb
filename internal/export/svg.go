package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/dpdsim/internal/viz"
)

const svgHeader = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`

// CanvasToSVG draws every lit dot of the canvas as a circle, scale pixels
// apart.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil || scale <= 0 {
		return ""
	}
	dw, dh := canvas.Dots()
	w, h := int(math.Ceil(float64(dw)*scale)), int(math.Ceil(float64(dh)*scale))

	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, w, h, w, h)
	sb.WriteString(`<g fill="#00ffff">` + "\n")
	r := scale * 0.4
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n",
					(float64(x)+0.5)*scale, (float64(y)+0.5)*scale, r)
			}
		}
	}
	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// SeriesToSVG draws ys against xs as a polyline with a dashed reference
// line at ref. A NaN ref draws no reference line.
func SeriesToSVG(xs, ys []float64, ref float64, width, height int, stroke string) string {
	n := min(len(xs), len(ys))
	if n < 2 || width <= 0 || height <= 0 {
		return ""
	}

	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 0; i < n; i++ {
		minX, maxX = math.Min(minX, xs[i]), math.Max(maxX, xs[i])
		minY, maxY = math.Min(minY, ys[i]), math.Max(maxY, ys[i])
	}
	if !math.IsNaN(ref) {
		minY, maxY = math.Min(minY, ref), math.Max(maxY, ref)
	}
	spanX, spanY := maxX-minX, maxY-minY
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}
	minY -= spanY * 0.1
	spanY *= 1.2

	px := func(x float64) float64 { return (x - minX) / spanX * float64(width) }
	py := func(y float64) float64 { return float64(height) - (y-minY)/spanY*float64(height) }

	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, width, height, width, height)
	if !math.IsNaN(ref) {
		fmt.Fprintf(&sb, `<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#666688" stroke-dasharray="4 4"/>`+"\n",
			py(ref), width, py(ref))
	}
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke)
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(" L")
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", px(xs[i]), py(ys[i]))
	}
	sb.WriteString(`"/>` + "\n</svg>\n")
	return sb.String()
}
