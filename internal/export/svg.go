package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/ballpit/internal/constraints"
	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/viewport"
)

const (
	background  = "#0a0a0a"
	wallStroke  = "#888899"
	trailStroke = "#444466"
	fallback    = "#ff0000"
)

// Scene is the static part of a picture: the solver geometry and one
// colour per body handle.
type Scene struct {
	Segments []constraints.Segment
	Colors   []string
}

func (s Scene) color(h dynamo.Handle) string {
	if int(h) < len(s.Colors) && s.Colors[h] != "" {
		return s.Colors[h]
	}
	return fallback
}

func header(sb *strings.Builder, size int) viewport.Viewport {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, size, size, size, size, background))
	return viewport.New(float64(size), float64(size))
}

func (s Scene) writeGeometry(sb *strings.Builder, v viewport.Viewport) {
	sb.WriteString(fmt.Sprintf(`<g stroke="%s" stroke-width="2">
`, wallStroke))
	for _, seg := range s.Segments {
		x0, y0 := v.ToScreen(seg.A)
		x1, y1 := v.ToScreen(seg.B)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
`, x0, y0, x1, y1))
	}
	sb.WriteString("</g>\n")
}

func (s Scene) writeBodies(sb *strings.Builder, v viewport.Viewport, f dynamo.Frame) {
	for _, b := range f.Samples {
		x, y := v.ToScreen(b.Pos)
		r, _ := v.Radius(b.Radius)
		// kinematic bodies are drawn as outlines
		if b.Dynamic {
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, x, y, r, s.color(b.Handle)))
		} else {
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="%s" stroke-width="2"/>
`, x, y, r, s.color(b.Handle)))
		}
	}
}

// FrameSVG draws one frame in a size x size picture.
func FrameSVG(f dynamo.Frame, scene Scene, size int) string {
	var sb strings.Builder
	v := header(&sb, size)
	scene.writeGeometry(&sb, v)
	scene.writeBodies(&sb, v, f)
	sb.WriteString("</svg>")
	return sb.String()
}

// TrajectorySVG draws the path of every body across frames, with the
// bodies at their final positions on top.
func TrajectorySVG(frames []dynamo.Frame, scene Scene, size int) string {
	if len(frames) == 0 {
		return ""
	}

	var sb strings.Builder
	v := header(&sb, size)
	scene.writeGeometry(&sb, v)

	paths := make(map[dynamo.Handle]*strings.Builder)
	var order []dynamo.Handle
	for _, f := range frames {
		for _, b := range f.Samples {
			x, y := v.ToScreen(b.Pos)
			p, ok := paths[b.Handle]
			if !ok {
				p = &strings.Builder{}
				paths[b.Handle] = p
				order = append(order, b.Handle)
				p.WriteString(fmt.Sprintf("M%.1f,%.1f", x, y))
				continue
			}
			p.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	for _, h := range order {
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="%s"/>
`, trailStroke, paths[h].String()))
	}

	scene.writeBodies(&sb, v, frames[len(frames)-1])
	sb.WriteString("</svg>")
	return sb.String()
}
