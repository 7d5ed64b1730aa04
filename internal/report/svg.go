package report

import (
	"fmt"
	"html"
	"strings"

	"github.com/san-kum/servoloop/internal/storage"
)

var svgPalette = []string{"#00ff88", "#00ccff", "#ffcc00", "#ff66cc", "#ff4444", "#aa88ff"}

// SeriesToSVG draws every channel's angle over time as a solid line and its
// target as a dashed line of the same colour, on a fixed 0..180 degree axis.
func SeriesToSVG(series *storage.Series, width, height int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	n := len(series.Times)
	if n < 2 {
		sb.WriteString("</svg>")
		return sb.String()
	}

	t0, t1 := series.Times[0], series.Times[n-1]
	span := t1 - t0
	if span == 0 {
		span = 1
	}
	x := func(t float64) float64 { return (t - t0) / span * float64(width) }
	y := func(deg float64) float64 { return float64(height) - deg/180*float64(height) }

	for c, name := range series.Channels {
		stroke := svgPalette[c%len(svgPalette)]
		writePath(&sb, series.Times, series.Targets[c], x, y, stroke, ` stroke-dasharray="4 3" stroke-opacity="0.6"`)
		writePath(&sb, series.Times, series.Angles[c], x, y, stroke, "")
		sb.WriteString(fmt.Sprintf(`<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 16+14*c, stroke, html.EscapeString(name)))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func writePath(sb *strings.Builder, times, values []float64, x, y func(float64) float64, stroke, extra string) {
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5"%s d="M`, stroke, extra))
	for i, v := range values {
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x(times[i]), y(v)))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x(times[i]), y(v)))
		}
	}
	sb.WriteString("\"/>\n")
}
