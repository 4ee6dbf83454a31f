package models

// Shape kind discriminators as they appear on the wire and in stored
// records.
const (
	KindRect        = "rect"
	KindDiamond     = "diamond"
	KindCircle      = "circle"
	KindLine        = "line"
	KindArrow       = "arrow"
	KindRotatedRect = "rotated-rect"
	KindPolygon     = "polygon"
	KindPencil      = "pencil"
	KindText        = "text"
)

// Point is one freehand stroke sample. LineWidth, when non-zero, overrides
// the stroke width from this sample onward.
type Point struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	LineWidth float64 `json:"lineWidth,omitempty"`
}

// Shape is the tagged union over all drawable variants. Type selects which
// geometric fields are meaningful; unused fields stay zero and are omitted
// from the encoding. Numeric fields default to zero on both ends, so
// omitempty is lossless here.
//
// ID is the record store's persistent identifier; zero means the shape has
// not been confirmed by persistence yet. A shape store never holds two
// entries sharing the same non-zero ID.
type Shape struct {
	ID   int64  `json:"id,omitempty"`
	Type string `json:"type"`

	// rect, diamond: top-left origin plus extent. line/arrow: start point.
	// text: top-left origin of the glyph box.
	StartX float64 `json:"startX,omitempty"`
	StartY float64 `json:"startY,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// circle, rotated-rect, polygon
	CenterX float64 `json:"centerX,omitempty"`
	CenterY float64 `json:"centerY,omitempty"`
	Radius  float64 `json:"radius,omitempty"`

	// line, arrow
	EndX float64 `json:"endX,omitempty"`
	EndY float64 `json:"endY,omitempty"`

	// rotated-rect, polygon. Rotation is radians.
	Rotation   float64 `json:"rotation,omitempty"`
	SideLength float64 `json:"sideLength,omitempty"`
	Sides      int     `json:"sides,omitempty"`

	// pencil
	Points []Point `json:"points,omitempty"`

	// text
	Text     string  `json:"text,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`

	// presentation
	Color  string  `json:"color,omitempty"`
	Border float64 `json:"border,omitempty"`
	Style  string  `json:"style,omitempty"`
}

// KnownKind reports whether t is a member of the closed variant set.
func KnownKind(t string) bool {
	switch t {
	case KindRect, KindDiamond, KindCircle, KindLine, KindArrow,
		KindRotatedRect, KindPolygon, KindPencil, KindText:
		return true
	}
	return false
}
