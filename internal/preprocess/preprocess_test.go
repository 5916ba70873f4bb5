package preprocess

import (
	"image"
	"image/color"
	"testing"

	apperrors "github.com/framelens/composition-go/internal/errors"
)

func createTestImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}
	return img
}

func TestThumbnail_DownscaleLandscape(t *testing.T) {
	img := createTestImage(2048, 1024)

	thumb, err := Thumbnail(img, 1024)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	bounds := thumb.Bounds()
	if bounds.Dx() != 1024 {
		t.Errorf("Expected long edge 1024, got %d", bounds.Dx())
	}
	if bounds.Dy() != 512 {
		t.Errorf("Expected aspect-preserving height 512, got %d", bounds.Dy())
	}
}

func TestThumbnail_DownscalePortrait(t *testing.T) {
	img := createTestImage(1000, 2000)

	thumb, err := Thumbnail(img, 1024)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	bounds := thumb.Bounds()
	if bounds.Dy() != 1024 {
		t.Errorf("Expected long edge 1024, got %d", bounds.Dy())
	}
	if bounds.Dx() != 512 {
		t.Errorf("Expected aspect-preserving width 512, got %d", bounds.Dx())
	}
}

func TestThumbnail_NeverUpscales(t *testing.T) {
	img := createTestImage(800, 600)

	thumb, err := Thumbnail(img, 1024)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if thumb != image.Image(img) {
		t.Error("Expected image within bounds to be returned unchanged")
	}
}

func TestThumbnail_DefaultLongEdge(t *testing.T) {
	img := createTestImage(4096, 2048)

	thumb, err := Thumbnail(img, 0)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if thumb.Bounds().Dx() != DefaultLongEdge {
		t.Errorf("Expected default long edge %d, got %d", DefaultLongEdge, thumb.Bounds().Dx())
	}
}

func TestThumbnail_NilFrame(t *testing.T) {
	_, err := Thumbnail(nil, 1024)
	if err == nil {
		t.Fatal("Expected error for nil frame")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeInvalidImage) {
		t.Errorf("Expected invalid_image error type, got: %v", err)
	}
}

func TestThumbnail_DegenerateFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 0, 0))

	_, err := Thumbnail(img, 1024)
	if err == nil {
		t.Fatal("Expected error for degenerate frame")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeInvalidImage) {
		t.Errorf("Expected invalid_image error type, got: %v", err)
	}
}
