package export

import (
	"strings"
	"testing"

	"github.com/san-kum/ballpit/internal/constraints"
	"github.com/san-kum/ballpit/internal/dynamo"
)

func testScene() Scene {
	return Scene{
		Segments: constraints.Default().Segments(),
		Colors:   []string{"#00ff00"},
	}
}

func TestFrameSVG(t *testing.T) {
	f := dynamo.Frame{Samples: []dynamo.Sample{
		{Handle: 0, Pos: dynamo.Vec{X: 0.5, Y: 0.5}, Radius: 0.1, Dynamic: true},
		{Handle: 1, Pos: dynamo.Vec{X: 0.2, Y: 0.2}, Radius: 0.05, Dynamic: false},
	}}
	svg := FrameSVG(f, testScene(), 200)

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("not a complete svg document")
	}
	if got := strings.Count(svg, "<line"); got != 4 {
		t.Errorf("got %d lines, want 4 (box and slope)", got)
	}
	if !strings.Contains(svg, `<circle cx="100.0" cy="100.0" r="20.0" fill="#00ff00"/>`) {
		t.Errorf("dynamic body missing or misplaced:\n%s", svg)
	}
	if !strings.Contains(svg, `fill="none" stroke="#ff0000"`) {
		t.Errorf("kinematic body should be an outline in the fallback colour:\n%s", svg)
	}
}

func TestTrajectorySVG(t *testing.T) {
	if TrajectorySVG(nil, testScene(), 100) != "" {
		t.Error("expected empty output for no frames")
	}

	frames := make([]dynamo.Frame, 3)
	for i := range frames {
		frames[i] = dynamo.Frame{Samples: []dynamo.Sample{
			{Handle: 0, Pos: dynamo.Vec{X: 0.5, Y: 0.9 - 0.1*float64(i)}, Radius: 0.1, Dynamic: true},
		}}
	}
	svg := TrajectorySVG(frames, testScene(), 100)

	if got := strings.Count(svg, "<path"); got != 1 {
		t.Errorf("got %d paths, want 1", got)
	}
	if got := strings.Count(svg, " L"); got != 2 {
		t.Errorf("got %d path segments, want 2", got)
	}
	if got := strings.Count(svg, "<circle"); got != 1 {
		t.Errorf("got %d circles, want the final body only", got)
	}
}
