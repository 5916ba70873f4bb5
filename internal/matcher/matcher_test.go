package matcher

import (
	"image"
	"image/color"
	"testing"

	"github.com/framelens/composition-go/internal/detector"
	"github.com/framelens/composition-go/pkg/models"
)

func TestMatch_FallbackWhenNothingDetected(t *testing.T) {
	out := Match(Inputs{Width: 300, Height: 300, Lines: detector.LineOutput{Fallback: true}})

	if !out.Fallback {
		t.Error("Expected fallback outcome for empty detection inputs")
	}
	if len(out.Matches) != 1 {
		t.Fatalf("Expected exactly one synthetic match, got %d", len(out.Matches))
	}
	m := out.Matches[0]
	if m.Rule != models.RuleOfThirds {
		t.Errorf("Expected rule_of_thirds fallback, got %s", m.Rule)
	}
	if m.Confidence != fallbackConfidence {
		t.Errorf("Expected fallback confidence %f, got %f", fallbackConfidence, m.Confidence)
	}
}

func confidenceByRule(out Outcome) map[models.CompositionRule]float64 {
	byRule := make(map[models.CompositionRule]float64, len(out.Matches))
	for _, m := range out.Matches {
		byRule[m.Rule] = m.Confidence
	}
	return byRule
}

func TestMatch_FeaturelessFrameSurfacesFallbackLines(t *testing.T) {
	// Drive the real detector so the synthetic guides carry frame geometry.
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}
	lines := detector.DetectLeadingLines(img)
	if !lines.Fallback {
		t.Fatal("Expected fallback lines from a featureless frame")
	}

	out := Match(Inputs{Width: 200, Height: 200, Lines: lines})

	if _, ok := confidenceByRule(out)[models.RuleLeadingLines]; ok {
		t.Error("Expected fallback guides to not count as a detected rule")
	}

	arrows := 0
	for _, el := range out.Overlay {
		if el.Kind == models.OverlayArrow && el.Rule == models.RuleLeadingLines {
			arrows++
		}
	}
	if arrows != len(lines.Lines) {
		t.Errorf("Expected %d synthetic guide arrows in the overlay, got %d", len(lines.Lines), arrows)
	}

	found := false
	for _, s := range out.Suggestions {
		if s.Rule == models.RuleLeadingLines {
			found = true
		}
	}
	if !found {
		t.Error("Expected a leading-lines suggestion for the synthetic guides")
	}
}

func TestMatch_ThirdsSubjectOnIntersection(t *testing.T) {
	in := Inputs{
		Width:  300,
		Height: 300,
		Lines:  detector.LineOutput{Fallback: true},
		Saliency: detector.SaliencyOutput{
			Regions: []detector.SalientRegion{
				{Box: models.Box{X: 90, Y: 90, W: 20, H: 20}, Score: 0.8},
			},
		},
	}

	out := Match(in)
	conf, ok := confidenceByRule(out)[models.RuleOfThirds]
	if !ok {
		t.Fatal("Expected a rule_of_thirds match for a subject on the intersection")
	}
	if conf < 0.9 {
		t.Errorf("Expected near-perfect thirds confidence, got %f", conf)
	}
}

func TestMatch_SymmetryCenteredFace(t *testing.T) {
	in := Inputs{
		Width:  400,
		Height: 400,
		Lines:  detector.LineOutput{Fallback: true},
		Structural: detector.StructuralOutput{
			Faces: []models.FaceObservation{
				{Box: models.Box{X: 180, Y: 150, W: 40, H: 60}, Confidence: 0.9},
			},
		},
	}

	out := Match(in)
	conf, ok := confidenceByRule(out)[models.RuleSymmetry]
	if !ok {
		t.Fatal("Expected a symmetry match for a centered face")
	}
	if conf <= 0.5 {
		t.Errorf("Expected symmetry confidence above the 0.5 detection threshold, got %f", conf)
	}
}

func TestMatch_SymmetryOffCenterFaceNotDetected(t *testing.T) {
	in := Inputs{
		Width:  400,
		Height: 400,
		Lines:  detector.LineOutput{Fallback: true},
		Structural: detector.StructuralOutput{
			Faces: []models.FaceObservation{
				{Box: models.Box{X: 20, Y: 150, W: 40, H: 60}, Confidence: 0.9},
			},
		},
	}

	out := Match(in)
	if _, ok := confidenceByRule(out)[models.RuleSymmetry]; ok {
		t.Error("Expected no symmetry match for a strongly off-center face")
	}
}

func TestMatch_LeadingLinesConfidenceIsMeanStraightness(t *testing.T) {
	in := Inputs{
		Width:  400,
		Height: 400,
		Lines: detector.LineOutput{
			Lines: []detector.CandidateLine{
				{Start: models.Point{X: 0, Y: 400}, End: models.Point{X: 200, Y: 200}, Length: 283, Straightness: 0.9, AngleDegrees: -45},
				{Start: models.Point{X: 400, Y: 400}, End: models.Point{X: 220, Y: 220}, Length: 254, Straightness: 0.7, AngleDegrees: 135},
			},
		},
	}

	out := Match(in)
	conf, ok := confidenceByRule(out)[models.RuleLeadingLines]
	if !ok {
		t.Fatal("Expected a leading-lines match")
	}
	if conf < 0.79 || conf > 0.81 {
		t.Errorf("Expected confidence 0.8 (mean straightness), got %f", conf)
	}
}

func TestMatch_DiagonalFromDominantAngle(t *testing.T) {
	in := Inputs{
		Width:  400,
		Height: 300,
		Lines:  detector.LineOutput{Fallback: true},
		Angle:  detector.AngleOutput{AngleDegrees: 30, HorizonConfidence: 0.7, EdgeSamples: 500},
	}

	out := Match(in)
	conf, ok := confidenceByRule(out)[models.RuleDiagonal]
	if !ok {
		t.Fatal("Expected a diagonal match for a 30 degree dominant angle")
	}
	if conf != 0.7 {
		t.Errorf("Expected diagonal confidence 0.7, got %f", conf)
	}
}

func TestMatch_NearHorizontalAngleNotDiagonal(t *testing.T) {
	in := Inputs{
		Width:  400,
		Height: 300,
		Lines:  detector.LineOutput{Fallback: true},
		Angle:  detector.AngleOutput{AngleDegrees: 5, HorizonConfidence: 0.9, EdgeSamples: 500},
	}

	out := Match(in)
	if _, ok := confidenceByRule(out)[models.RuleDiagonal]; ok {
		t.Error("Expected no diagonal match for a near-horizontal angle")
	}
}

func TestMatch_GridStaysNearThirds(t *testing.T) {
	in := Inputs{
		Width:  300,
		Height: 300,
		Lines:  detector.LineOutput{Fallback: true},
		Saliency: detector.SaliencyOutput{
			Regions: []detector.SalientRegion{
				{Box: models.Box{X: 140, Y: 140, W: 20, H: 20}, Score: 0.9},
			},
		},
	}

	out := Match(in)
	maxPull := gridPullFraction * 300
	for _, x := range out.Grid.VerticalX {
		if x < 100-maxPull-1 || (x > 100+maxPull+1 && x < 200-maxPull-1) || x > 200+maxPull+1 {
			t.Errorf("Expected vertical grid line near a third, got %f", x)
		}
	}
	if len(out.Grid.Intersections) == 0 || len(out.Grid.Intersections) > maxGridIntersections {
		t.Errorf("Expected 1..%d grid intersections, got %d", maxGridIntersections, len(out.Grid.Intersections))
	}
}

func TestMatch_SuggestionsEmbedScore(t *testing.T) {
	out := Match(Inputs{Width: 300, Height: 300, Lines: detector.LineOutput{Fallback: true}})

	if len(out.Suggestions) == 0 {
		t.Fatal("Expected at least one suggestion")
	}
	first := out.Suggestions[0].Message
	if first == "" {
		t.Fatal("Expected a non-empty headline suggestion")
	}
	if !containsPercent(first) {
		t.Errorf("Expected headline suggestion to embed the score percentage, got %q", first)
	}
}

func TestMatch_MatchesSortedByConfidence(t *testing.T) {
	in := Inputs{
		Width:  400,
		Height: 400,
		Lines: detector.LineOutput{
			Lines: []detector.CandidateLine{
				{Start: models.Point{X: 0, Y: 0}, End: models.Point{X: 400, Y: 400}, Length: 566, Straightness: 0.65, AngleDegrees: 45},
			},
		},
		Structural: detector.StructuralOutput{
			Faces: []models.FaceObservation{
				{Box: models.Box{X: 185, Y: 150, W: 30, H: 40}, Confidence: 0.9},
			},
		},
	}

	out := Match(in)
	if len(out.Matches) < 2 {
		t.Fatalf("Expected multiple matches, got %d", len(out.Matches))
	}
	for i := 1; i < len(out.Matches); i++ {
		if out.Matches[i].Confidence > out.Matches[i-1].Confidence {
			t.Error("Expected matches sorted by descending confidence")
		}
	}
}

func TestDedupHotspots(t *testing.T) {
	points := []models.Point{
		{X: 12, Y: 12},
		{X: 17, Y: 15}, // same 10-unit bucket as the first
		{X: 31, Y: 12},
		{X: 12, Y: 31},
	}

	out := DedupHotspots(points)
	if len(out) != 3 {
		t.Fatalf("Expected 3 deduplicated points, got %d", len(out))
	}
	if out[0].X != 12 || out[0].Y != 12 {
		t.Error("Expected the first occupant of a bucket to be kept")
	}
}

func TestMatch_OverlayContainsHotspots(t *testing.T) {
	in := Inputs{
		Width:  300,
		Height: 300,
		Lines:  detector.LineOutput{Fallback: true},
		Saliency: detector.SaliencyOutput{
			Regions: []detector.SalientRegion{
				{Box: models.Box{X: 90, Y: 90, W: 20, H: 20}, Score: 0.8},
			},
		},
	}

	out := Match(in)
	hotspots := 0
	gridLines := 0
	for _, el := range out.Overlay {
		switch el.Kind {
		case models.OverlayHotspot:
			hotspots++
		case models.OverlayGridLine:
			gridLines++
		}
	}
	if hotspots == 0 {
		t.Error("Expected intermediate hotspot elements in the matcher overlay")
	}
	if gridLines < 4 {
		t.Errorf("Expected the four thirds grid lines, got %d", gridLines)
	}
}

func containsPercent(s string) bool {
	for _, r := range s {
		if r == '%' {
			return true
		}
	}
	return false
}
