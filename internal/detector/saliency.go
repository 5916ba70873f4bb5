package detector

import (
	"image"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/framelens/composition-go/pkg/models"
)

const (
	// maxSalientRegions caps the region list handed to the matcher.
	maxSalientRegions = 20
	// saliencyGridSize divides each image axis into this many blocks.
	saliencyGridSize = 16
	// saliencyDistanceThreshold is the minimum Lab-space distance from the
	// frame's mean color for a block to count as salient.
	saliencyDistanceThreshold = 0.18
)

// SalientRegion is a rectangular region likely to hold the visual subject.
type SalientRegion struct {
	Box   models.Box `json:"box"`
	Score float64    `json:"score"`
}

// SaliencyOutput is the bounded list of salient regions for one frame.
type SaliencyOutput struct {
	Regions []SalientRegion `json:"regions"`
}

// DetectSalientRegions finds subject-like regions by color contrast: the
// frame is divided into a coarse block grid, each block's mean color is
// compared against the global mean in Lab space, and connected high-contrast
// blocks are merged into rectangles. Perceptual Lab distance keeps the scores
// stable across hue shifts that RGB distance would exaggerate.
func DetectSalientRegions(img image.Image) SaliencyOutput {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < saliencyGridSize || height < saliencyGridSize {
		return SaliencyOutput{}
	}

	blockW := width / saliencyGridSize
	blockH := height / saliencyGridSize

	blockColors := make([][]colorful.Color, saliencyGridSize)
	var sumR, sumG, sumB float64
	for by := 0; by < saliencyGridSize; by++ {
		blockColors[by] = make([]colorful.Color, saliencyGridSize)
		for bx := 0; bx < saliencyGridSize; bx++ {
			c := meanBlockColor(img, bounds.Min.X+bx*blockW, bounds.Min.Y+by*blockH, blockW, blockH)
			blockColors[by][bx] = c
			sumR += c.R
			sumG += c.G
			sumB += c.B
		}
	}
	n := float64(saliencyGridSize * saliencyGridSize)
	globalMean := colorful.Color{R: sumR / n, G: sumG / n, B: sumB / n}

	salient := make([][]float64, saliencyGridSize)
	for by := 0; by < saliencyGridSize; by++ {
		salient[by] = make([]float64, saliencyGridSize)
		for bx := 0; bx < saliencyGridSize; bx++ {
			d := blockColors[by][bx].DistanceLab(globalMean)
			if d > saliencyDistanceThreshold {
				salient[by][bx] = d
			}
		}
	}

	regions := mergeSalientBlocks(salient, blockW, blockH)
	sort.Slice(regions, func(i, j int) bool {
		return regions[i].Score > regions[j].Score
	})
	if len(regions) > maxSalientRegions {
		regions = regions[:maxSalientRegions]
	}
	return SaliencyOutput{Regions: regions}
}

// meanBlockColor averages a block with a sparse sampling stride; block-level
// contrast does not need every pixel.
func meanBlockColor(img image.Image, x0, y0, w, h int) colorful.Color {
	const stride = 4
	var r, g, b float64
	count := 0
	for y := y0; y < y0+h; y += stride {
		for x := x0; x < x0+w; x += stride {
			pr, pg, pb, _ := img.At(x, y).RGBA()
			r += float64(pr) / 65535.0
			g += float64(pg) / 65535.0
			b += float64(pb) / 65535.0
			count++
		}
	}
	if count == 0 {
		return colorful.Color{}
	}
	return colorful.Color{R: r / float64(count), G: g / float64(count), B: b / float64(count)}
}

// mergeSalientBlocks groups 4-connected salient blocks into rectangular
// regions scored by their mean contrast.
func mergeSalientBlocks(salient [][]float64, blockW, blockH int) []SalientRegion {
	size := len(salient)
	visited := make([][]bool, size)
	for i := range visited {
		visited[i] = make([]bool, size)
	}

	regions := make([]SalientRegion, 0)
	for by := 0; by < size; by++ {
		for bx := 0; bx < size; bx++ {
			if salient[by][bx] == 0 || visited[by][bx] {
				continue
			}

			minBX, minBY := bx, by
			maxBX, maxBY := bx, by
			var total float64
			count := 0

			stack := []pixel{{X: bx, Y: by}}
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if p.X < 0 || p.X >= size || p.Y < 0 || p.Y >= size {
					continue
				}
				if visited[p.Y][p.X] || salient[p.Y][p.X] == 0 {
					continue
				}
				visited[p.Y][p.X] = true
				total += salient[p.Y][p.X]
				count++
				if p.X < minBX {
					minBX = p.X
				}
				if p.X > maxBX {
					maxBX = p.X
				}
				if p.Y < minBY {
					minBY = p.Y
				}
				if p.Y > maxBY {
					maxBY = p.Y
				}
				stack = append(stack,
					pixel{X: p.X + 1, Y: p.Y},
					pixel{X: p.X - 1, Y: p.Y},
					pixel{X: p.X, Y: p.Y + 1},
					pixel{X: p.X, Y: p.Y - 1})
			}

			if count == 0 {
				continue
			}
			regions = append(regions, SalientRegion{
				Box: models.Box{
					X: float64(minBX * blockW),
					Y: float64(minBY * blockH),
					W: float64((maxBX - minBX + 1) * blockW),
					H: float64((maxBY - minBY + 1) * blockH),
				},
				Score: clamp01(total / float64(count)),
			})
		}
	}
	return regions
}
