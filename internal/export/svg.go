// Package export renders stored runs to files outside the terminal.
package export

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/robosim/internal/body"
	"github.com/san-kum/robosim/internal/dynamo"
	"github.com/san-kum/robosim/internal/viz"
)

// Path is the trajectory of one robot.
type Path struct {
	Robot  string
	Team   int
	Radius float64
	Points []dynamo.Pose2D
}

// PathFromTrace extracts the poses of a trace.
func PathFromTrace(robot string, team int, samples []dynamo.Sample) Path {
	p := Path{Robot: robot, Team: team, Points: make([]dynamo.Pose2D, len(samples))}
	for i, s := range samples {
		p.Points[i] = s.Snapshot.Pose
	}
	return p
}

type bounds struct{ minX, maxX, minY, maxY float64 }

// frame returns the drawn area: the table when bounded on both axes,
// otherwise the paths' bounding box with 10% padding.
func frame(table body.Table, paths []Path) bounds {
	if table.Width > 0 && table.Height > 0 {
		return bounds{-table.Width / 2, table.Width / 2, -table.Height / 2, table.Height / 2}
	}
	b := bounds{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for _, p := range paths {
		for _, pt := range p.Points {
			b.minX, b.maxX = math.Min(b.minX, pt.X), math.Max(b.maxX, pt.X)
			b.minY, b.maxY = math.Min(b.minY, pt.Y), math.Max(b.maxY, pt.Y)
		}
	}
	if math.IsInf(b.minX, 1) {
		return bounds{-1, 1, -1, 1}
	}
	rangeX, rangeY := b.maxX-b.minX, b.maxY-b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.minX -= rangeX * 0.1
	b.maxX += rangeX * 0.1
	b.minY -= rangeY * 0.1
	b.maxY += rangeY * 0.1
	return b
}

// WriteSVG draws the table and every path, coloured by team, at the given
// pixel width. The height follows the table aspect ratio.
func WriteSVG(w io.Writer, table body.Table, paths []Path, width int) error {
	if width <= 0 {
		return fmt.Errorf("%w: svg width %d", dynamo.ErrParameterBounds, width)
	}
	b := frame(table, paths)
	scale := float64(width) / (b.maxX - b.minX)
	height := int(math.Ceil((b.maxY - b.minY) * scale))
	project := func(x, y float64) (float64, float64) {
		return (x - b.minX) * scale, float64(height) - (y-b.minY)*scale
	}

	sorted := append([]Path(nil), paths...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Robot < sorted[j].Robot })
	theme := viz.Themes[0]

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
	if table.Width > 0 && table.Height > 0 {
		x, y := project(-table.Width/2, table.Height/2)
		fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="none" stroke="#444444" stroke-width="2"/>
`, x, y, table.Width*scale, table.Height*scale)
	}

	for _, p := range sorted {
		if len(p.Points) == 0 {
			continue
		}
		color := string(theme.Teams[0])
		if p.Team >= 0 {
			color = string(theme.Teams[p.Team%len(theme.Teams)])
		}

		fmt.Fprintf(&sb, `<g id="%s">
<path fill="none" stroke="%s" stroke-width="1.5" d="M`, p.Robot, color)
		for i, pt := range p.Points {
			x, y := project(pt.X, pt.Y)
			if i == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")

		last := p.Points[len(p.Points)-1]
		cx, cy := project(last.X, last.Y)
		r := math.Max(p.Radius*scale, 3)
		hx, hy := project(last.X+math.Cos(last.Heading)*p.Radius*1.5, last.Y+math.Sin(last.Heading)*p.Radius*1.5)
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="%s"/>
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>
</g>
`, cx, cy, r, color, cx, cy, hx, hy, color)
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
