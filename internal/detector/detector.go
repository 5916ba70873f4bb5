// Package detector holds the analysis stages of the composition pipeline.
// Every detector is a pure function over the analysis thumbnail with no
// dependency on any other detector's output, so the orchestrator is free to
// run all of them in parallel against the same shared, read-only frame.
package detector

import (
	"image"
	"image/draw"
	"math"

	"github.com/framelens/composition-go/pkg/models"
)

// Diagonal classification bounds: a segment is diagonal when the absolute
// angle lies strictly between these, in degrees.
const (
	diagonalMinDegrees = 15.0
	diagonalMaxDegrees = 75.0
)

// gradientThreshold is the minimum per-pixel grayscale step treated as an
// edge when building the binary edge map.
const gradientThreshold = 30.0

// AngleBetween returns the angle of the segment a->b in signed degrees,
// measured from the positive x axis (0 = horizontal right, 90 = down).
func AngleBetween(a, b models.Point) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X) * 180 / math.Pi
}

// IsDiagonal reports whether an angle in degrees reads as diagonal rather
// than near-horizontal or near-vertical.
func IsDiagonal(angleDegrees float64) bool {
	a := math.Abs(angleDegrees)
	for a > 90 {
		a -= 90
	}
	return a > diagonalMinDegrees && a < diagonalMaxDegrees
}

// PathLength returns the cumulative length of the polyline through points.
func PathLength(points []models.Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		dx := points[i].X - points[i-1].X
		dy := points[i].Y - points[i-1].Y
		total += math.Sqrt(dx*dx + dy*dy)
	}
	return total
}

// Straightness returns the ratio of the direct endpoint distance to the
// cumulative path length of a point sequence, in [0,1]. A perfectly straight
// sequence scores 1.0. Sequences with fewer than two points, or with zero
// path length, score 0.
func Straightness(points []models.Point) float64 {
	if len(points) < 2 {
		return 0
	}
	path := PathLength(points)
	if path <= 0 {
		return 0
	}
	first, last := points[0], points[len(points)-1]
	dx := last.X - first.X
	dy := last.Y - first.Y
	direct := math.Sqrt(dx*dx + dy*dy)
	ratio := direct / path
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}

// toGray renders any image into an 8-bit grayscale copy.
func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}

// pixel is an integer coordinate used while tracing the edge map.
type pixel struct {
	X, Y int
}

// edgeMap builds a binary edge image from simple horizontal/vertical
// gradients. Border pixels are never edges.
func edgeMap(gray *image.Gray, width, height int) [][]bool {
	bounds := gray.Bounds()
	edges := make([][]bool, height)
	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			if x == 0 || y == 0 || x == width-1 || y == height-1 {
				continue
			}
			c := float64(gray.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y)
			cx := float64(gray.GrayAt(x+1+bounds.Min.X, y+bounds.Min.Y).Y)
			cy := float64(gray.GrayAt(x+bounds.Min.X, y+1+bounds.Min.Y).Y)
			if math.Abs(c-cx) > gradientThreshold || math.Abs(c-cy) > gradientThreshold {
				edges[y][x] = true
			}
		}
	}
	return edges
}

// findContours groups connected edge pixels into contours using iterative
// flood fill with 8-connectivity. Contours smaller than minPoints pixels are
// discarded as noise.
func findContours(edges [][]bool, width, height, minPoints int) [][]pixel {
	visited := make([][]bool, height)
	for y := 0; y < height; y++ {
		visited[y] = make([]bool, width)
	}

	contours := make([][]pixel, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if edges[y][x] && !visited[y][x] {
				contour := floodFill(edges, visited, x, y, width, height)
				if len(contour) >= minPoints {
					contours = append(contours, contour)
				}
			}
		}
	}
	return contours
}

// floodFill collects the connected component containing (startX, startY).
// Stack-based to avoid recursion depth limits on large contours.
func floodFill(edges, visited [][]bool, startX, startY, width, height int) []pixel {
	contour := make([]pixel, 0)
	stack := []pixel{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !edges[p.Y][p.X] {
			continue
		}

		visited[p.Y][p.X] = true
		contour = append(contour, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, pixel{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
	return contour
}

// boundingBox returns the min/max extents of a pixel set.
func boundingBox(points []pixel) (minX, minY, maxX, maxY int) {
	minX, minY = math.MaxInt32, math.MaxInt32
	maxX, maxY = math.MinInt32, math.MinInt32
	for _, p := range points {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return minX, minY, maxX, maxY
}
