package detector

import (
	"image"
	"math"

	"gonum.org/v1/gonum/stat"
)

// minAngleSamples is the minimum number of edge samples required before the
// regression result is trusted at all.
const minAngleSamples = 10

// AngleOutput is the estimated dominant line angle of a frame and the
// confidence that it corresponds to a horizon.
type AngleOutput struct {
	AngleDegrees      float64 `json:"angle_degrees"`
	HorizonConfidence float64 `json:"horizon_confidence"`
	EdgeSamples       int     `json:"edge_samples"`
}

// DetectDominantAngle estimates the dominant line angle of the frame by
// fitting a least-squares line through strong Sobel edge samples. Frames with
// no clear dominant orientation yield a near-zero angle at low confidence
// rather than an error.
func DetectDominantAngle(img image.Image) AngleOutput {
	gray := toGray(img)
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	var xs, ys []float64
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			gx := sobelX(gray, x+bounds.Min.X, y+bounds.Min.Y)
			gy := sobelY(gray, x+bounds.Min.X, y+bounds.Min.Y)
			if math.Sqrt(float64(gx*gx+gy*gy)) > 50 {
				xs = append(xs, float64(x))
				ys = append(ys, float64(y))
			}
		}
	}

	out := AngleOutput{EdgeSamples: len(xs)}
	if len(xs) < minAngleSamples {
		return out
	}

	meanX := stat.Mean(xs, nil)
	meanY := stat.Mean(ys, nil)

	var sumXY, sumX2, sumY2 float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		sumXY += dx * dy
		sumX2 += dx * dx
		sumY2 += dy * dy
	}
	if sumX2 < 1e-10 {
		return out
	}

	slope := sumXY / sumX2
	angle := math.Atan(slope) * 180 / math.Pi
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return out
	}

	// Normalize to [-45, 45]: a near-vertical dominant structure reads the
	// same as its perpendicular.
	for angle > 45 {
		angle -= 90
	}
	for angle < -45 {
		angle += 90
	}
	out.AngleDegrees = angle

	// Confidence combines fit quality (r squared) with how much of the frame
	// contributed edge evidence.
	r2 := 0.0
	if sumX2 > 0 && sumY2 > 0 {
		r := sumXY / math.Sqrt(sumX2*sumY2)
		r2 = r * r
	}
	density := float64(len(xs)) / float64(width*height)
	densityScore := math.Min(density*50, 1.0)
	out.HorizonConfidence = clamp01(r2 * densityScore)
	return out
}

func sobelX(gray *image.Gray, x, y int) int {
	return -1*int(gray.GrayAt(x-1, y-1).Y) + 1*int(gray.GrayAt(x+1, y-1).Y) +
		-2*int(gray.GrayAt(x-1, y).Y) + 2*int(gray.GrayAt(x+1, y).Y) +
		-1*int(gray.GrayAt(x-1, y+1).Y) + 1*int(gray.GrayAt(x+1, y+1).Y)
}

func sobelY(gray *image.Gray, x, y int) int {
	return -1*int(gray.GrayAt(x-1, y-1).Y) - 2*int(gray.GrayAt(x, y-1).Y) - 1*int(gray.GrayAt(x+1, y-1).Y) +
		1*int(gray.GrayAt(x-1, y+1).Y) + 2*int(gray.GrayAt(x, y+1).Y) + 1*int(gray.GrayAt(x+1, y+1).Y)
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
