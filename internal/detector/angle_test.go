package detector

import (
	"image/color"
	"math"
	"testing"
)

func TestDetectDominantAngle_UniformImage(t *testing.T) {
	img := createTestImage(100, 100, color.RGBA{128, 128, 128, 255})

	out := DetectDominantAngle(img)
	if out.EdgeSamples >= minAngleSamples {
		t.Errorf("Expected fewer than %d edge samples in a uniform frame, got %d", minAngleSamples, out.EdgeSamples)
	}
	if out.AngleDegrees != 0 {
		t.Errorf("Expected zero angle without edge evidence, got %f", out.AngleDegrees)
	}
	if out.HorizonConfidence != 0 {
		t.Errorf("Expected zero confidence without edge evidence, got %f", out.HorizonConfidence)
	}
}

func TestDetectDominantAngle_DiagonalStructure(t *testing.T) {
	// Thick diagonal band along y = 0.7x, roughly 35 degrees.
	img := createTestImage(200, 200, color.RGBA{0, 0, 0, 255})
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			if math.Abs(float64(y)-0.7*float64(x)) < 4 {
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			}
		}
	}

	out := DetectDominantAngle(img)
	if out.EdgeSamples < minAngleSamples {
		t.Fatalf("Expected at least %d edge samples, got %d", minAngleSamples, out.EdgeSamples)
	}
	if out.AngleDegrees < 25 || out.AngleDegrees > 45 {
		t.Errorf("Expected dominant angle near 35 degrees, got %f", out.AngleDegrees)
	}
	if out.HorizonConfidence <= 0 {
		t.Errorf("Expected positive confidence for a clean diagonal, got %f", out.HorizonConfidence)
	}
}

func TestDetectDominantAngle_NormalizedRange(t *testing.T) {
	img := createGradientImage(200, 200)

	out := DetectDominantAngle(img)
	if out.AngleDegrees < -45 || out.AngleDegrees > 45 {
		t.Errorf("Expected angle normalized to [-45,45], got %f", out.AngleDegrees)
	}
	if out.HorizonConfidence < 0 || out.HorizonConfidence > 1 {
		t.Errorf("Expected confidence in [0,1], got %f", out.HorizonConfidence)
	}
}
