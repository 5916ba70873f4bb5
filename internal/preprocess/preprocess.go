package preprocess

import (
	"image"

	"github.com/disintegration/imaging"

	apperrors "github.com/framelens/composition-go/internal/errors"
)

// DefaultLongEdge bounds the analysis thumbnail so no detector ever runs on a
// raw megapixel capture.
const DefaultLongEdge = 1024

// Thumbnail returns a copy of img resized so its longer side equals longEdge,
// preserving aspect ratio. Images already at or below the target are returned
// unchanged; the preprocessor never upscales.
func Thumbnail(img image.Image, longEdge int) (image.Image, error) {
	if img == nil {
		return nil, apperrors.NewInvalidImageError("source frame is nil", nil)
	}
	if longEdge <= 0 {
		longEdge = DefaultLongEdge
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, apperrors.NewInvalidImageError("source frame has degenerate dimensions", nil)
	}

	if width <= longEdge && height <= longEdge {
		return img, nil
	}

	if width >= height {
		return imaging.Resize(img, longEdge, 0, imaging.Lanczos), nil
	}
	return imaging.Resize(img, 0, longEdge, imaging.Lanczos), nil
}
