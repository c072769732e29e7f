// Package selection maps two structural endpoints of a block tree to the
// minimal ordered sequence of points covering everything between them.
package selection

import "fmt"

type PointType string

const (
	PointText  PointType = "text"
	PointBlock PointType = "block"
)

// Point is either a whole block or a text span inside a text block.
type Point struct {
	ID    string    `json:"id"`
	Type  PointType `json:"type"`
	Start int       `json:"start,omitempty"`
	Len   int       `json:"len,omitempty"`
}

func BlockPoint(id string) Point {
	return Point{ID: id, Type: PointBlock}
}

func TextPoint(id string, start, length int) Point {
	return Point{ID: id, Type: PointText, Start: start, Len: length}
}

func (p Point) IsText() bool {
	return p.Type == PointText
}

func (p Point) String() string {
	if p.IsText() {
		return fmt.Sprintf("%s[%d:%d]", p.ID, p.Start, p.Start+p.Len)
	}
	return p.ID
}

// Range is a resolved selection.
type Range struct {
	Nodes    []Point `json:"nodes"`
	Backward bool    `json:"backward"`
	// Collapsed is set for an empty range and for a single zero-length
	// text point.
	Collapsed bool `json:"collapsed"`
}

func NewRange(nodes []Point, backward bool) *Range {
	r := &Range{
		Nodes:     nodes,
		Backward:  backward,
		Collapsed: len(nodes) == 0,
	}
	if len(nodes) == 1 && nodes[0].IsText() && nodes[0].Len == 0 {
		r.Collapsed = true
	}
	return r
}

func (r *Range) Clone() *Range {
	return NewRange(append([]Point(nil), r.Nodes...), r.Backward)
}
