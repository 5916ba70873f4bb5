// Package assembler freezes a matcher outcome into the immutable analysis
// result handed to callers.
package assembler

import (
	"github.com/framelens/composition-go/internal/matcher"
	"github.com/framelens/composition-go/pkg/models"
)

const (
	maxOverlayLines    = 20
	maxIntersections   = 8
	maxBoundingBoxes   = 20
	maxContourPaths    = 20
	fallbackConfidence = 0.3
)

// Assemble builds the terminal result from a matcher outcome and the raw
// structural observations. Intermediate hotspot elements are stripped,
// geometry lists are bounded, and the detected-rules list is guaranteed
// non-empty with a confidence entry for every listed rule.
func Assemble(outcome matcher.Outcome, structural models.StructuralObservations, width, height int) models.CompositionAnalysisResult {
	result := models.CompositionAnalysisResult{
		Confidence:   make(map[models.CompositionRule]float64, len(outcome.Matches)),
		Grid:         outcome.Grid,
		Observations: boundObservations(structural),
		Score:        outcome.Score,
		ImageWidth:   width,
		ImageHeight:  height,
	}

	for _, m := range outcome.Matches {
		result.DetectedRules = append(result.DetectedRules, m.Rule)
		result.Confidence[m.Rule] = m.Confidence
	}
	if len(result.DetectedRules) == 0 {
		result.DetectedRules = []models.CompositionRule{models.RuleOfThirds}
		result.Confidence[models.RuleOfThirds] = fallbackConfidence
	}

	result.Suggestions = outcome.Suggestions
	result.Overlay = boundOverlay(outcome.Overlay)
	if len(result.Grid.Intersections) > maxIntersections {
		result.Grid.Intersections = result.Grid.Intersections[:maxIntersections]
	}
	return result
}

// boundOverlay drops hotspots and caps line-like and box-like elements
// independently.
func boundOverlay(overlay []models.OverlayElement) []models.OverlayElement {
	out := make([]models.OverlayElement, 0, len(overlay))
	lines := 0
	boxes := 0
	paths := 0
	for _, el := range overlay {
		switch el.Kind {
		case models.OverlayHotspot:
			continue
		case models.OverlayGridLine, models.OverlayArrow:
			if lines >= maxOverlayLines {
				continue
			}
			lines++
		case models.OverlayBoundingBox:
			if boxes >= maxBoundingBoxes {
				continue
			}
			boxes++
		case models.OverlayContourPath:
			if paths >= maxContourPaths {
				continue
			}
			paths++
		}
		out = append(out, el)
	}
	return out
}

func boundObservations(structural models.StructuralObservations) models.StructuralObservations {
	if len(structural.Rectangles) > maxBoundingBoxes {
		structural.Rectangles = structural.Rectangles[:maxBoundingBoxes]
	}
	if len(structural.Contours) > maxContourPaths {
		structural.Contours = structural.Contours[:maxContourPaths]
	}
	if len(structural.Faces) > maxBoundingBoxes {
		structural.Faces = structural.Faces[:maxBoundingBoxes]
	}
	return structural
}
