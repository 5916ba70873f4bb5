package detector

import (
	"image"
	"math"
	"sort"

	apperrors "github.com/framelens/composition-go/internal/errors"
	"github.com/framelens/composition-go/pkg/models"
)

const (
	// minStructuralDim is the smallest frame the structural primitives can
	// run on; below it the extractor reports a platform limitation and the
	// orchestrator degrades to the synthetic fallback analysis.
	minStructuralDim = 32
	// minContourPoints: only contours with more than this many points are
	// retained as observations.
	minContourPoints = 10
	// minRectangularity is the confidence floor for rectangle observations.
	minRectangularity = 0.80
	// maxContourOutputPoints bounds each emitted contour path.
	maxContourOutputPoints = 64
)

// StructuralOutput groups the structural observations of one frame.
type StructuralOutput struct {
	Faces      []models.FaceObservation      `json:"faces,omitempty"`
	Rectangles []models.RectangleObservation `json:"rectangles,omitempty"`
	Contours   []models.ContourObservation   `json:"contours,omitempty"`
}

// Observations converts the output into the shared model type carried on the
// final analysis result.
func (s StructuralOutput) Observations() models.StructuralObservations {
	return models.StructuralObservations{
		Faces:      s.Faces,
		Rectangles: s.Rectangles,
		Contours:   s.Contours,
	}
}

// ExtractObservations finds face bounding boxes, generic rectangle
// observations, and contour point sequences in a frame.
func ExtractObservations(img image.Image) (StructuralOutput, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < minStructuralDim || height < minStructuralDim {
		return StructuralOutput{}, apperrors.NewPlatformError(
			"frame too small for structural detection primitives", nil)
	}

	out := StructuralOutput{
		Faces: detectFaces(img, width, height),
	}

	gray := toGray(img)
	edges := edgeMap(gray, width, height)
	contours := findContours(edges, width, height, minContourPoints+1)

	out.Rectangles = detectRectangleObservations(contours, width, height)
	out.Contours = contourObservations(contours, bounds.Min.X, bounds.Min.Y)
	return out, nil
}

// detectFaces locates skin-toned regions with face-like proportions. The
// underlying primitive reports boxes in normalized coordinates with a
// bottom-left origin; results are flipped to the image-space top-left origin
// before scaling to pixels.
func detectFaces(img image.Image, width, height int) []models.FaceObservation {
	const block = 8
	gw := width / block
	gh := height / block
	if gw == 0 || gh == 0 {
		return nil
	}

	skin := make([][]bool, gh)
	bounds := img.Bounds()
	for by := 0; by < gh; by++ {
		skin[by] = make([]bool, gw)
		for bx := 0; bx < gw; bx++ {
			skinCount := 0
			total := 0
			for y := by * block; y < (by+1)*block; y += 2 {
				for x := bx * block; x < (bx+1)*block; x += 2 {
					r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
					if isSkinTone(uint8(r>>8), uint8(g>>8), uint8(b>>8)) {
						skinCount++
					}
					total++
				}
			}
			skin[by][bx] = total > 0 && float64(skinCount)/float64(total) > 0.5
		}
	}

	faces := make([]models.FaceObservation, 0)
	visited := make([][]bool, gh)
	for i := range visited {
		visited[i] = make([]bool, gw)
	}
	for by := 0; by < gh; by++ {
		for bx := 0; bx < gw; bx++ {
			if !skin[by][bx] || visited[by][bx] {
				continue
			}
			component := floodFillGrid(skin, visited, bx, by, gw, gh)
			if len(component) < 4 {
				continue
			}
			minX, minY, maxX, maxY := boundingBox(component)
			wBlocks := maxX - minX + 1
			hBlocks := maxY - minY + 1
			aspect := float64(wBlocks) / float64(hBlocks)
			if aspect < 0.4 || aspect > 1.8 {
				continue
			}
			fill := float64(len(component)) / float64(wBlocks*hBlocks)
			if fill < 0.5 {
				continue
			}

			// Normalized box, bottom-left origin as the primitive reports it.
			nx := float64(minX*block) / float64(width)
			nw := float64(wBlocks*block) / float64(width)
			nh := float64(hBlocks*block) / float64(height)
			nyBottom := 1.0 - float64((maxY+1)*block)/float64(height)

			// Flip to top-left origin, then scale to pixels.
			nyTop := 1.0 - nyBottom - nh
			faces = append(faces, models.FaceObservation{
				Box: models.Box{
					X: nx * float64(width),
					Y: nyTop * float64(height),
					W: nw * float64(width),
					H: nh * float64(height),
				},
				Confidence: clamp01(fill),
			})
		}
	}

	sort.Slice(faces, func(i, j int) bool {
		return faces[i].Box.W*faces[i].Box.H > faces[j].Box.W*faces[j].Box.H
	})
	return faces
}

// isSkinTone applies the classic explicit RGB skin classifier.
func isSkinTone(r, g, b uint8) bool {
	rf, gf, bf := int(r), int(g), int(b)
	maxC := max(rf, max(gf, bf))
	minC := min(rf, min(gf, bf))
	return rf > 95 && gf > 40 && bf > 20 &&
		maxC-minC > 15 &&
		int(math.Abs(float64(rf-gf))) > 15 &&
		rf > gf && rf > bf
}

// detectRectangleObservations scores each contour by how closely its pixel
// count matches the perimeter of its bounding box. A perfect rectangle's
// contour length equals 2*(w+h).
func detectRectangleObservations(contours [][]pixel, width, height int) []models.RectangleObservation {
	minArea := (width * height) / 100
	rects := make([]models.RectangleObservation, 0)

	for _, contour := range contours {
		minX, minY, maxX, maxY := boundingBox(contour)
		w := maxX - minX
		h := maxY - minY
		if w*h < minArea || w == 0 || h == 0 {
			continue
		}
		expectedPerimeter := 2 * (w + h)
		rectangularity := 1.0 - math.Abs(float64(len(contour)-expectedPerimeter))/float64(expectedPerimeter)
		if rectangularity < minRectangularity {
			continue
		}
		rects = append(rects, models.RectangleObservation{
			Box: models.Box{
				X: float64(minX),
				Y: float64(minY),
				W: float64(w),
				H: float64(h),
			},
			Confidence: rectangularity,
		})
	}

	sort.Slice(rects, func(i, j int) bool {
		return rects[i].Box.W*rects[i].Box.H > rects[j].Box.W*rects[j].Box.H
	})
	return rects
}

// contourObservations emits the retained contours as ordered point paths.
// A contour whose bounding box lies entirely inside another retained
// contour's box is a child contour and is marked as such.
func contourObservations(contours [][]pixel, offsetX, offsetY int) []models.ContourObservation {
	type extent struct {
		minX, minY, maxX, maxY int
	}
	extents := make([]extent, len(contours))
	for i, c := range contours {
		minX, minY, maxX, maxY := boundingBox(c)
		extents[i] = extent{minX, minY, maxX, maxY}
	}

	obs := make([]models.ContourObservation, 0, len(contours))
	for i, contour := range contours {
		if len(contour) <= minContourPoints {
			continue
		}

		child := false
		for j, e := range extents {
			if i == j {
				continue
			}
			if extents[i].minX > e.minX && extents[i].minY > e.minY &&
				extents[i].maxX < e.maxX && extents[i].maxY < e.maxY {
				child = true
				break
			}
		}

		ordered := orderAlongPrincipalAxis(contour)
		step := 1
		if len(ordered) > maxContourOutputPoints {
			step = len(ordered) / maxContourOutputPoints
		}
		points := make([]models.Point, 0, maxContourOutputPoints)
		for k := 0; k < len(ordered); k += step {
			points = append(points, models.Point{
				X: ordered[k].X + float64(offsetX),
				Y: ordered[k].Y + float64(offsetY),
			})
		}
		obs = append(obs, models.ContourObservation{Points: points, Child: child})
	}
	return obs
}

// floodFillGrid collects a 4-connected component of true cells.
func floodFillGrid(grid [][]bool, visited [][]bool, startX, startY, width, height int) []pixel {
	component := make([]pixel, 0)
	stack := []pixel{{X: startX, Y: startY}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !grid[p.Y][p.X] {
			continue
		}
		visited[p.Y][p.X] = true
		component = append(component, p)
		stack = append(stack,
			pixel{X: p.X + 1, Y: p.Y},
			pixel{X: p.X - 1, Y: p.Y},
			pixel{X: p.X, Y: p.Y + 1},
			pixel{X: p.X, Y: p.Y - 1})
	}
	return component
}
