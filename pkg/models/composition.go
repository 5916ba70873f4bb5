package models

// CompositionRule identifies a classical photographic composition guideline.
type CompositionRule string

const (
	RuleOfThirds     CompositionRule = "rule_of_thirds"
	RuleLeadingLines CompositionRule = "leading_lines"
	RuleSymmetry     CompositionRule = "symmetry"
	RuleFraming      CompositionRule = "framing"
	RuleDiagonal     CompositionRule = "diagonal"
)

// Point is a 2D coordinate in image-pixel space, origin at the top-left.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is an axis-aligned bounding box in image-pixel space.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the center point of the box.
func (b Box) Center() Point {
	return Point{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// LineKind tags a dynamic line by the role it plays in a composition match.
type LineKind string

const (
	LineKindGrid     LineKind = "grid"
	LineKindDiagonal LineKind = "diagonal"
	LineKindLeading  LineKind = "leading"
	LineKindFraming  LineKind = "framing"
)

// DynamicLine is a renderable line segment attached to a composition match.
type DynamicLine struct {
	Kind  LineKind `json:"kind"`
	Start Point    `json:"start"`
	End   Point    `json:"end"`
}

// OverlayKind tags an overlay element by its geometry type.
type OverlayKind string

const (
	OverlayGridLine    OverlayKind = "grid_line"
	OverlayBoundingBox OverlayKind = "bounding_box"
	OverlayContourPath OverlayKind = "contour_path"
	OverlayArrow       OverlayKind = "arrow"
	// OverlayHotspot marks a point of interest. Hotspots are an intermediate
	// matcher artifact and are stripped from the final assembled result.
	OverlayHotspot OverlayKind = "hotspot"
)

// OverlayElement is a piece of renderable geometry describing where and why a
// composition rule was detected. Exactly one of the geometry fields is
// populated depending on Kind: Start/End for grid_line and arrow, Box for
// bounding_box and hotspot, Points for contour_path.
type OverlayElement struct {
	Kind   OverlayKind     `json:"kind"`
	Rule   CompositionRule `json:"rule,omitempty"`
	Start  Point           `json:"start,omitempty"`
	End    Point           `json:"end,omitempty"`
	Box    *Box            `json:"box,omitempty"`
	Points []Point         `json:"points,omitempty"`
}

// Suggestion is a human-readable improvement hint tied to a rule.
type Suggestion struct {
	Rule    CompositionRule `json:"rule"`
	Message string          `json:"message"`
	Tip     string          `json:"tip,omitempty"`
}

// CompositionMatch is a single rule match produced by the matcher.
type CompositionMatch struct {
	Rule           CompositionRule `json:"rule"`
	Confidence     float64         `json:"confidence"`
	Recommendation string          `json:"recommendation"`
	Improvement    string          `json:"improvement,omitempty"`
	Lines          []DynamicLine   `json:"lines,omitempty"`
}

// DynamicGrid is a content-driven thirds grid. The line positions are pulled
// toward detected subjects rather than fixed at exact thirds.
type DynamicGrid struct {
	VerticalX     [2]float64 `json:"vertical_x"`
	HorizontalY   [2]float64 `json:"horizontal_y"`
	Intersections []Point    `json:"intersections"`
}

// FaceObservation is a detected face bounding box in image-pixel coordinates,
// top-left origin.
type FaceObservation struct {
	Box        Box     `json:"box"`
	Confidence float64 `json:"confidence"`
}

// RectangleObservation is a detected rectangular shape.
type RectangleObservation struct {
	Box        Box     `json:"box"`
	Confidence float64 `json:"confidence"`
}

// ContourObservation is a traced contour point sequence. Only contours with
// more than 10 points are retained by the structural extractor.
type ContourObservation struct {
	Points []Point `json:"points"`
	Child  bool    `json:"child,omitempty"`
}

// StructuralObservations groups the raw structural features extracted from a
// frame, carried through to the final result unmodified.
type StructuralObservations struct {
	Faces      []FaceObservation      `json:"faces,omitempty"`
	Rectangles []RectangleObservation `json:"rectangles,omitempty"`
	Contours   []ContourObservation   `json:"contours,omitempty"`
}

// CompositionAnalysisResult is the terminal, immutable output of one analysis
// task. DetectedRules is ordered with the primary rule first and is never
// empty: when nothing clears its detection threshold the assembler guarantees
// a rule-of-thirds fallback entry. Every rule listed in DetectedRules has a
// corresponding entry in Confidence.
type CompositionAnalysisResult struct {
	DetectedRules []CompositionRule           `json:"detected_rules"`
	Confidence    map[CompositionRule]float64 `json:"confidence"`
	Suggestions   []Suggestion                `json:"suggestions"`
	Overlay       []OverlayElement            `json:"overlay"`
	Grid          DynamicGrid                 `json:"grid"`
	Observations  StructuralObservations      `json:"observations"`
	Score         float64                     `json:"score"`
	ImageWidth    int                         `json:"image_width"`
	ImageHeight   int                         `json:"image_height"`
}
