package detector

import (
	"image"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/blur"

	"github.com/framelens/composition-go/pkg/models"
)

const (
	// A candidate qualifies as a leading line only when its length exceeds
	// this fraction of the image's shorter dimension.
	minLineLengthFraction = 0.20
	// And its straightness exceeds this ratio.
	minLineStraightness = 0.60
	// fallbackLineConfidence marks the synthetic suggestions emitted for
	// featureless frames.
	fallbackLineConfidence = 0.40
	// maxLeadingLines bounds the candidate list handed to the matcher.
	maxLeadingLines = 20
)

// CandidateLine is a traced line-like structure.
type CandidateLine struct {
	Start        models.Point `json:"start"`
	End          models.Point `json:"end"`
	Length       float64      `json:"length"`
	Straightness float64      `json:"straightness"`
	AngleDegrees float64      `json:"angle_degrees"`
	Confidence   float64      `json:"confidence"`
	Fallback     bool         `json:"fallback,omitempty"`
}

// LineOutput holds the leading-line candidates for one frame. Fallback is
// true when no traced candidate qualified and the lines are synthetic
// low-confidence suggestions anchored to the frame's diagonal regions.
type LineOutput struct {
	Lines    []CandidateLine `json:"lines"`
	Fallback bool            `json:"fallback"`
}

// DetectLeadingLines extracts line-like structures from contour data. Each
// contour is ordered along its principal axis and scored by straightness
// (direct endpoint distance over cumulative path length). Featureless frames
// never starve the matcher: a synthetic fallback pair is emitted instead.
func DetectLeadingLines(img image.Image) LineOutput {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return fallbackLines(width, height)
	}

	// Light Gaussian blur suppresses single-pixel noise before the gradient
	// pass, the same prep the edge detectors in the imaging stack use.
	smoothed := blur.Gaussian(img, 1.0)
	gray := toGray(smoothed)
	edges := edgeMap(gray, width, height)
	contours := findContours(edges, width, height, 10)

	minLength := minLineLengthFraction * float64(min(width, height))
	lines := make([]CandidateLine, 0)

	for _, contour := range contours {
		ordered := orderAlongPrincipalAxis(contour)
		if len(ordered) < 2 {
			continue
		}
		straightness := Straightness(ordered)
		start, end := ordered[0], ordered[len(ordered)-1]
		dx := end.X - start.X
		dy := end.Y - start.Y
		length := math.Sqrt(dx*dx + dy*dy)

		if length <= minLength || straightness <= minLineStraightness {
			continue
		}

		lines = append(lines, CandidateLine{
			Start:        start,
			End:          end,
			Length:       length,
			Straightness: straightness,
			AngleDegrees: AngleBetween(start, end),
			Confidence:   straightness,
		})
	}

	if len(lines) == 0 {
		return fallbackLines(width, height)
	}

	sort.Slice(lines, func(i, j int) bool {
		return lines[i].Length > lines[j].Length
	})
	if len(lines) > maxLeadingLines {
		lines = lines[:maxLeadingLines]
	}
	return LineOutput{Lines: lines}
}

// fallbackLines synthesizes two potential leading lines rising from the
// bottom corners toward the central subject area.
func fallbackLines(width, height int) LineOutput {
	w, h := float64(width), float64(height)
	left := CandidateLine{
		Start:      models.Point{X: 0.10 * w, Y: 0.90 * h},
		End:        models.Point{X: 0.45 * w, Y: 0.55 * h},
		Confidence: fallbackLineConfidence,
		Fallback:   true,
	}
	right := CandidateLine{
		Start:      models.Point{X: 0.90 * w, Y: 0.90 * h},
		End:        models.Point{X: 0.55 * w, Y: 0.55 * h},
		Confidence: fallbackLineConfidence,
		Fallback:   true,
	}
	for i, l := range []CandidateLine{left, right} {
		dx := l.End.X - l.Start.X
		dy := l.End.Y - l.Start.Y
		length := math.Sqrt(dx*dx + dy*dy)
		angle := AngleBetween(l.Start, l.End)
		if i == 0 {
			left.Length, left.AngleDegrees = length, angle
			left.Straightness = 1.0
		} else {
			right.Length, right.AngleDegrees = length, angle
			right.Straightness = 1.0
		}
	}
	return LineOutput{Lines: []CandidateLine{left, right}, Fallback: true}
}

// orderAlongPrincipalAxis sorts a contour's pixels by their projection onto
// the contour's dominant direction, producing a traversable point sequence.
// Noise off the axis inflates the cumulative path length, which is exactly
// what the straightness ratio is meant to punish.
func orderAlongPrincipalAxis(contour []pixel) []models.Point {
	if len(contour) == 0 {
		return nil
	}

	var meanX, meanY float64
	for _, p := range contour {
		meanX += float64(p.X)
		meanY += float64(p.Y)
	}
	meanX /= float64(len(contour))
	meanY /= float64(len(contour))

	// Principal axis from the 2x2 covariance matrix.
	var sxx, syy, sxy float64
	for _, p := range contour {
		dx := float64(p.X) - meanX
		dy := float64(p.Y) - meanY
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	theta := 0.5 * math.Atan2(2*sxy, sxx-syy)
	ux, uy := math.Cos(theta), math.Sin(theta)

	type projected struct {
		point models.Point
		t     float64
	}
	proj := make([]projected, len(contour))
	for i, p := range contour {
		dx := float64(p.X) - meanX
		dy := float64(p.Y) - meanY
		proj[i] = projected{
			point: models.Point{X: float64(p.X), Y: float64(p.Y)},
			t:     dx*ux + dy*uy,
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].t < proj[j].t })

	ordered := make([]models.Point, len(proj))
	for i, p := range proj {
		ordered[i] = p.point
	}
	return ordered
}
