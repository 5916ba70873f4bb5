package detector

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/framelens/composition-go/pkg/models"
)

// createTestImage creates a uniformly filled test image
func createTestImage(width, height int, fillColor color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fillColor)
		}
	}
	return img
}

// createGradientImage creates a gradient test image from black to white
func createGradientImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			intensity := uint8((x + y) * 255 / (width + height))
			img.Set(x, y, color.RGBA{intensity, intensity, intensity, 255})
		}
	}
	return img
}

// createBandImage draws a horizontal white band on black
func createBandImage(width, height, bandTop, bandBottom int) *image.RGBA {
	img := createTestImage(width, height, color.RGBA{0, 0, 0, 255})
	for y := bandTop; y < bandBottom; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	return img
}

func TestAngleBetween(t *testing.T) {
	tests := []struct {
		name     string
		a, b     models.Point
		expected float64
	}{
		{"horizontal right", models.Point{X: 0, Y: 0}, models.Point{X: 10, Y: 0}, 0},
		{"vertical down", models.Point{X: 0, Y: 0}, models.Point{X: 0, Y: 10}, 90},
		{"diagonal down-right", models.Point{X: 0, Y: 0}, models.Point{X: 10, Y: 10}, 45},
		{"diagonal up-right", models.Point{X: 0, Y: 10}, models.Point{X: 10, Y: 0}, -45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AngleBetween(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Expected %f degrees, got %f", tt.expected, got)
			}
		})
	}
}

func TestIsDiagonal(t *testing.T) {
	diagonal := []float64{20, 45, 74, -30, -60, 110}
	for _, a := range diagonal {
		if !IsDiagonal(a) {
			t.Errorf("Expected %f to classify as diagonal", a)
		}
	}

	notDiagonal := []float64{0, 10, 15, 75, 90, -5, -88}
	for _, a := range notDiagonal {
		if IsDiagonal(a) {
			t.Errorf("Expected %f to not classify as diagonal", a)
		}
	}
}

func TestStraightness_CollinearSequence(t *testing.T) {
	// Ordered intermediate points on the segment (0,0)-(100,0).
	points := []models.Point{
		{X: 0, Y: 0},
		{X: 25, Y: 0},
		{X: 50, Y: 0},
		{X: 75, Y: 0},
		{X: 100, Y: 0},
	}

	got := Straightness(points)
	if got != 1.0 {
		t.Errorf("Expected straightness 1.0 for collinear points, got %f", got)
	}
}

func TestStraightness_ZigZag(t *testing.T) {
	points := []models.Point{
		{X: 0, Y: 0},
		{X: 10, Y: 20},
		{X: 20, Y: 0},
		{X: 30, Y: 20},
		{X: 40, Y: 0},
	}

	got := Straightness(points)
	if got >= 0.6 {
		t.Errorf("Expected zig-zag to score below 0.6, got %f", got)
	}
}

func TestStraightness_Degenerate(t *testing.T) {
	if got := Straightness(nil); got != 0 {
		t.Errorf("Expected 0 for empty sequence, got %f", got)
	}
	if got := Straightness([]models.Point{{X: 5, Y: 5}}); got != 0 {
		t.Errorf("Expected 0 for single point, got %f", got)
	}
	same := []models.Point{{X: 5, Y: 5}, {X: 5, Y: 5}}
	if got := Straightness(same); got != 0 {
		t.Errorf("Expected 0 for zero path length, got %f", got)
	}
}

func TestPathLength(t *testing.T) {
	points := []models.Point{
		{X: 0, Y: 0},
		{X: 3, Y: 4},
		{X: 3, Y: 14},
	}
	got := PathLength(points)
	if math.Abs(got-15) > 1e-9 {
		t.Errorf("Expected path length 15, got %f", got)
	}
}
