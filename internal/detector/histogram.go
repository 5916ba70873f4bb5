package detector

import (
	"image"

	"gonum.org/v1/gonum/stat"
)

// ContrastClass is the overall luminance distribution classification.
type ContrastClass string

const (
	ContrastLowKey   ContrastClass = "low_key"
	ContrastBalanced ContrastClass = "balanced"
	ContrastHighKey  ContrastClass = "high_key"
	ContrastClipped  ContrastClass = "clipped"
)

// clippedFraction is the share of pixels in the extreme bins above which the
// distribution is considered clipped.
const clippedFraction = 0.10

// HistogramOutput summarizes the luminance distribution of a frame.
type HistogramOutput struct {
	Bins          [256]int      `json:"bins"`
	MeanLuminance float64       `json:"mean_luminance"`
	StdDev        float64       `json:"std_dev"`
	ClippedLow    float64       `json:"clipped_low"`
	ClippedHigh   float64       `json:"clipped_high"`
	Class         ContrastClass `json:"class"`
}

// AnalyzeHistogram computes a 256-bin luminance histogram and classifies the
// frame's overall contrast. Degenerate (empty) images yield a zero-value
// output classified as balanced.
func AnalyzeHistogram(img image.Image) HistogramOutput {
	out := HistogramOutput{Class: ContrastBalanced}

	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total <= 0 {
		return out
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// ITU-R BT.601 luminance over 8-bit channels.
			lum := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			bin := int(lum)
			if bin > 255 {
				bin = 255
			}
			out.Bins[bin]++
		}
	}

	values := make([]float64, 256)
	weights := make([]float64, 256)
	for i := 0; i < 256; i++ {
		values[i] = float64(i) / 255.0
		weights[i] = float64(out.Bins[i])
	}
	out.MeanLuminance = stat.Mean(values, weights)
	out.StdDev = stat.StdDev(values, weights)

	// Extreme bins: bottom and top 4 levels.
	var low, high int
	for i := 0; i < 4; i++ {
		low += out.Bins[i]
		high += out.Bins[255-i]
	}
	out.ClippedLow = float64(low) / float64(total)
	out.ClippedHigh = float64(high) / float64(total)

	switch {
	case out.ClippedLow > clippedFraction || out.ClippedHigh > clippedFraction:
		out.Class = ContrastClipped
	case out.MeanLuminance < 0.35:
		out.Class = ContrastLowKey
	case out.MeanLuminance > 0.65:
		out.Class = ContrastHighKey
	default:
		out.Class = ContrastBalanced
	}
	return out
}
