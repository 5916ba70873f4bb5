// Package matcher evaluates detector outputs against the classical
// composition rules and produces rule matches, a content-driven thirds grid,
// and the overlay geometry describing each match.
package matcher

import (
	"fmt"
	"math"
	"sort"

	"github.com/framelens/composition-go/internal/detector"
	"github.com/framelens/composition-go/pkg/models"
)

const (
	// thirdsToleranceFraction of the shorter image dimension: a subject
	// within this distance of a grid intersection counts as a thirds hit.
	thirdsToleranceFraction = 0.10
	// symmetryDetectThreshold is the confidence above which the symmetry
	// rule counts as detected.
	symmetryDetectThreshold = 0.5
	// fallbackConfidence is assigned to the synthetic rule-of-thirds match
	// when no rule clears its threshold.
	fallbackConfidence = 0.3
	// gridPullFraction limits how far a grid line is pulled from the exact
	// third toward a nearby subject.
	gridPullFraction = 0.06
	// hotspotBucket is the dedup bucket edge in pixels.
	hotspotBucket = 10
	// maxGridIntersections bounds the dynamic grid's intersection list.
	maxGridIntersections = 8
	// framingMinCoverage is the minimum fraction of the frame area a
	// rectangle must span to count as a framing device.
	framingMinCoverage = 0.30
	// maxSubjects bounds the subject points considered for thirds and
	// hotspots.
	maxSubjects = 12
)

// Inputs carries the joined detector outputs for one frame.
type Inputs struct {
	Width      int
	Height     int
	Histogram  detector.HistogramOutput
	Angle      detector.AngleOutput
	Lines      detector.LineOutput
	Saliency   detector.SaliencyOutput
	Structural detector.StructuralOutput
}

// Outcome is the matcher's verdict before final assembly. Overlay may still
// contain hotspot elements; the assembler strips those.
type Outcome struct {
	Matches     []models.CompositionMatch
	Grid        models.DynamicGrid
	Overlay     []models.OverlayElement
	Suggestions []models.Suggestion
	Score       float64
	Fallback    bool
}

// Match evaluates every composition rule against the detector outputs.
// Matches come back sorted by confidence, strongest first. The outcome is
// never empty: when nothing clears its threshold a rule-of-thirds fallback
// match is synthesized at low confidence.
func Match(in Inputs) Outcome {
	if in.Width <= 0 || in.Height <= 0 {
		return fallbackOutcome(in)
	}

	subjects := subjectPoints(in)
	grid := dynamicGrid(in.Width, in.Height, subjects)

	var matches []models.CompositionMatch
	if m, ok := matchThirds(in, grid, subjects); ok {
		matches = append(matches, m)
	}
	if m, ok := matchLeadingLines(in); ok {
		matches = append(matches, m)
	}
	if m, ok := matchSymmetry(in); ok {
		matches = append(matches, m)
	}
	if m, ok := matchFraming(in); ok {
		matches = append(matches, m)
	}
	if m, ok := matchDiagonal(in); ok {
		matches = append(matches, m)
	}

	out := Outcome{Grid: grid}
	if len(matches) == 0 {
		out.Fallback = true
		matches = append(matches, models.CompositionMatch{
			Rule:           models.RuleOfThirds,
			Confidence:     fallbackConfidence,
			Recommendation: "No strong composition detected.",
			Improvement:    "Place your subject near a thirds intersection to add structure.",
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	out.Matches = matches
	out.Score = overallScore(matches)
	out.Overlay = buildOverlay(matches, grid, subjects, float64(in.Width), float64(in.Height))
	out.Suggestions = buildSuggestions(matches, out.Score)
	appendFallbackLines(&out, in.Lines)
	return out
}

// appendFallbackLines surfaces the detector's synthetic leading-line guides
// when no traced line qualified. They render as arrows and carry a
// low-confidence suggestion, but never count as a detected rule.
func appendFallbackLines(out *Outcome, lines detector.LineOutput) {
	if !lines.Fallback || len(lines.Lines) == 0 {
		return
	}
	for _, l := range lines.Lines {
		out.Overlay = append(out.Overlay, models.OverlayElement{
			Kind:  models.OverlayArrow,
			Rule:  models.RuleLeadingLines,
			Start: l.Start,
			End:   l.End,
		})
	}
	out.Suggestions = append(out.Suggestions, models.Suggestion{
		Rule:    models.RuleLeadingLines,
		Message: "No strong leading lines found; synthetic guides shown.",
		Tip:     "Look for paths, rails, or shadows that can draw the eye toward your subject.",
	})
}

// subjectPoints gathers likely subject centers from faces first, then salient
// regions, bounded and deduplicated.
func subjectPoints(in Inputs) []models.Point {
	points := make([]models.Point, 0, maxSubjects)
	for _, f := range in.Structural.Faces {
		points = append(points, f.Box.Center())
	}
	for _, r := range in.Saliency.Regions {
		points = append(points, r.Box.Center())
	}
	points = DedupHotspots(points)
	if len(points) > maxSubjects {
		points = points[:maxSubjects]
	}
	return points
}

// DedupHotspots collapses points that fall into the same 10-unit coordinate
// bucket, keeping the first occurrence. Order is preserved.
func DedupHotspots(points []models.Point) []models.Point {
	type bucket struct{ x, y int }
	seen := make(map[bucket]bool, len(points))
	out := make([]models.Point, 0, len(points))
	for _, p := range points {
		b := bucket{x: int(p.X) / hotspotBucket, y: int(p.Y) / hotspotBucket}
		if seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, p)
	}
	return out
}

// dynamicGrid places the thirds lines, then pulls each line toward the
// nearest subject, clamped so the grid always stays near exact thirds.
func dynamicGrid(width, height int, subjects []models.Point) models.DynamicGrid {
	w, h := float64(width), float64(height)
	grid := models.DynamicGrid{
		VerticalX:   [2]float64{w / 3, 2 * w / 3},
		HorizontalY: [2]float64{h / 3, 2 * h / 3},
	}

	pullX := gridPullFraction * w
	pullY := gridPullFraction * h
	for i := range grid.VerticalX {
		grid.VerticalX[i] = pullToward(grid.VerticalX[i], subjects, pullX, func(p models.Point) float64 { return p.X })
	}
	for i := range grid.HorizontalY {
		grid.HorizontalY[i] = pullToward(grid.HorizontalY[i], subjects, pullY, func(p models.Point) float64 { return p.Y })
	}

	for _, x := range grid.VerticalX {
		for _, y := range grid.HorizontalY {
			grid.Intersections = append(grid.Intersections, models.Point{X: x, Y: y})
		}
	}
	if len(grid.Intersections) > maxGridIntersections {
		grid.Intersections = grid.Intersections[:maxGridIntersections]
	}
	return grid
}

// pullToward moves a base coordinate toward the closest subject coordinate,
// capped at maxPull in either direction.
func pullToward(base float64, subjects []models.Point, maxPull float64, coord func(models.Point) float64) float64 {
	best := math.MaxFloat64
	target := base
	for _, s := range subjects {
		c := coord(s)
		if d := math.Abs(c - base); d < best {
			best = d
			target = c
		}
	}
	if best == math.MaxFloat64 {
		return base
	}
	delta := target - base
	if delta > maxPull {
		delta = maxPull
	}
	if delta < -maxPull {
		delta = -maxPull
	}
	return base + delta
}

func matchThirds(in Inputs, grid models.DynamicGrid, subjects []models.Point) (models.CompositionMatch, bool) {
	if len(subjects) == 0 {
		return models.CompositionMatch{}, false
	}
	tol := thirdsToleranceFraction * float64(min(in.Width, in.Height))
	if tol <= 0 {
		return models.CompositionMatch{}, false
	}

	var total float64
	hits := 0
	for _, s := range subjects {
		nearest := math.MaxFloat64
		for _, ix := range grid.Intersections {
			d := math.Hypot(s.X-ix.X, s.Y-ix.Y)
			if d < nearest {
				nearest = d
			}
		}
		if nearest <= tol {
			total += 1 - nearest/tol
			hits++
		}
	}
	if hits == 0 {
		return models.CompositionMatch{}, false
	}

	return models.CompositionMatch{
		Rule:           models.RuleOfThirds,
		Confidence:     clamp01(total / float64(hits)),
		Recommendation: "Subject sits near a thirds intersection.",
		Improvement:    "Nudge the subject onto the nearest grid intersection for a tighter placement.",
	}, true
}

func matchLeadingLines(in Inputs) (models.CompositionMatch, bool) {
	if in.Lines.Fallback || len(in.Lines.Lines) == 0 {
		return models.CompositionMatch{}, false
	}

	var total float64
	diagonalCount := 0
	lines := make([]models.DynamicLine, 0, len(in.Lines.Lines))
	for _, l := range in.Lines.Lines {
		total += l.Straightness
		if detector.IsDiagonal(l.AngleDegrees) {
			diagonalCount++
		}
		lines = append(lines, models.DynamicLine{
			Kind:  models.LineKindLeading,
			Start: l.Start,
			End:   l.End,
		})
	}

	improvement := "Angle the line toward your subject so the eye follows it."
	if diagonalCount > 0 {
		improvement = "Diagonal lines add energy; let them run toward a thirds intersection."
	}
	return models.CompositionMatch{
		Rule:           models.RuleLeadingLines,
		Confidence:     clamp01(total / float64(len(in.Lines.Lines))),
		Recommendation: "Strong line structures lead through the frame.",
		Improvement:    improvement,
		Lines:          lines,
	}, true
}

func matchSymmetry(in Inputs) (models.CompositionMatch, bool) {
	if len(in.Structural.Faces) == 0 {
		return models.CompositionMatch{}, false
	}
	// Faces are sorted largest-first by the extractor.
	face := in.Structural.Faces[0]
	centerX := float64(in.Width) / 2
	offset := math.Abs(face.Box.Center().X - centerX)
	conf := clamp01(1 - offset/(0.10*float64(in.Width)))
	if conf <= symmetryDetectThreshold {
		return models.CompositionMatch{}, false
	}
	return models.CompositionMatch{
		Rule:           models.RuleSymmetry,
		Confidence:     conf,
		Recommendation: "Subject is centered; the frame reads as symmetric.",
		Improvement:    "Keep vertical elements balanced on both sides of the subject.",
	}, true
}

func matchFraming(in Inputs) (models.CompositionMatch, bool) {
	frameArea := float64(in.Width * in.Height)
	if frameArea <= 0 {
		return models.CompositionMatch{}, false
	}
	center := models.Point{X: float64(in.Width) / 2, Y: float64(in.Height) / 2}

	for _, r := range in.Structural.Rectangles {
		coverage := (r.Box.W * r.Box.H) / frameArea
		if coverage < framingMinCoverage {
			continue
		}
		if !containsPoint(r.Box, center) {
			continue
		}
		return models.CompositionMatch{
			Rule:           models.RuleFraming,
			Confidence:     clamp01(r.Confidence),
			Recommendation: "A natural frame surrounds the center of the image.",
			Improvement:    "Move closer so the frame edges hug the subject more tightly.",
			Lines:          boxLines(r.Box, models.LineKindFraming),
		}, true
	}
	return models.CompositionMatch{}, false
}

func matchDiagonal(in Inputs) (models.CompositionMatch, bool) {
	if !detector.IsDiagonal(in.Angle.AngleDegrees) || in.Angle.HorizonConfidence <= 0 {
		return models.CompositionMatch{}, false
	}
	w, h := float64(in.Width), float64(in.Height)
	// Render the dominant angle as a line through the frame center.
	rad := in.Angle.AngleDegrees * math.Pi / 180
	half := math.Min(w, h) / 2
	cx, cy := w/2, h/2
	line := models.DynamicLine{
		Kind:  models.LineKindDiagonal,
		Start: models.Point{X: cx - half*math.Cos(rad), Y: cy - half*math.Sin(rad)},
		End:   models.Point{X: cx + half*math.Cos(rad), Y: cy + half*math.Sin(rad)},
	}
	return models.CompositionMatch{
		Rule:           models.RuleDiagonal,
		Confidence:     clamp01(in.Angle.HorizonConfidence),
		Recommendation: "The dominant structure runs diagonally across the frame.",
		Improvement:    "Commit to the diagonal: tilt until the line anchors opposite corners.",
		Lines:          []models.DynamicLine{line},
	}, true
}

// overallScore is the confidence mean weighted toward the primary match.
func overallScore(matches []models.CompositionMatch) float64 {
	if len(matches) == 0 {
		return 0
	}
	var total, weight float64
	for i, m := range matches {
		w := 1.0
		if i == 0 {
			w = 2.0
		}
		total += m.Confidence * w
		weight += w
	}
	return clamp01(total / weight)
}

func buildOverlay(matches []models.CompositionMatch, grid models.DynamicGrid, subjects []models.Point, fullW, fullH float64) []models.OverlayElement {
	overlay := make([]models.OverlayElement, 0)

	gridRule := models.RuleOfThirds
	for _, x := range grid.VerticalX {
		overlay = append(overlay, models.OverlayElement{
			Kind:  models.OverlayGridLine,
			Rule:  gridRule,
			Start: models.Point{X: x, Y: 0},
			End:   models.Point{X: x, Y: fullH},
		})
	}
	for _, y := range grid.HorizontalY {
		overlay = append(overlay, models.OverlayElement{
			Kind:  models.OverlayGridLine,
			Rule:  gridRule,
			Start: models.Point{X: 0, Y: y},
			End:   models.Point{X: fullW, Y: y},
		})
	}

	for _, m := range matches {
		for _, l := range m.Lines {
			kind := models.OverlayArrow
			if l.Kind == models.LineKindFraming {
				kind = models.OverlayGridLine
			}
			overlay = append(overlay, models.OverlayElement{
				Kind:  kind,
				Rule:  m.Rule,
				Start: l.Start,
				End:   l.End,
			})
		}
	}

	for _, p := range subjects {
		box := models.Box{X: p.X - hotspotBucket/2, Y: p.Y - hotspotBucket/2, W: hotspotBucket, H: hotspotBucket}
		overlay = append(overlay, models.OverlayElement{
			Kind: models.OverlayHotspot,
			Box:  &box,
		})
	}
	return overlay
}

func buildSuggestions(matches []models.CompositionMatch, score float64) []models.Suggestion {
	suggestions := make([]models.Suggestion, 0, len(matches)+1)
	suggestions = append(suggestions, models.Suggestion{
		Rule:    matches[0].Rule,
		Message: fmt.Sprintf("Composition score %d%%. Strongest rule: %s.", int(math.Round(score*100)), matches[0].Rule),
	})
	for _, m := range matches {
		if m.Improvement == "" {
			continue
		}
		suggestions = append(suggestions, models.Suggestion{
			Rule:    m.Rule,
			Message: m.Recommendation,
			Tip:     m.Improvement,
		})
	}
	return suggestions
}

func fallbackOutcome(in Inputs) Outcome {
	match := models.CompositionMatch{
		Rule:           models.RuleOfThirds,
		Confidence:     fallbackConfidence,
		Recommendation: "No strong composition detected.",
		Improvement:    "Place your subject near a thirds intersection to add structure.",
	}
	out := Outcome{
		Matches:  []models.CompositionMatch{match},
		Grid:     dynamicGrid(max(in.Width, 1), max(in.Height, 1), nil),
		Fallback: true,
	}
	out.Score = overallScore(out.Matches)
	out.Suggestions = buildSuggestions(out.Matches, out.Score)
	appendFallbackLines(&out, in.Lines)
	return out
}

func boxLines(b models.Box, kind models.LineKind) []models.DynamicLine {
	tl := models.Point{X: b.X, Y: b.Y}
	tr := models.Point{X: b.X + b.W, Y: b.Y}
	br := models.Point{X: b.X + b.W, Y: b.Y + b.H}
	bl := models.Point{X: b.X, Y: b.Y + b.H}
	return []models.DynamicLine{
		{Kind: kind, Start: tl, End: tr},
		{Kind: kind, Start: tr, End: br},
		{Kind: kind, Start: br, End: bl},
		{Kind: kind, Start: bl, End: tl},
	}
}

func containsPoint(b models.Box, p models.Point) bool {
	return p.X >= b.X && p.X <= b.X+b.W && p.Y >= b.Y && p.Y <= b.Y+b.H
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
