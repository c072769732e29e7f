package selection

import (
	"github.com/stateful/blockstate/pkg/state"
)

// Resolve normalizes start and end into a Range.
func Resolve(tree *state.Tree, start, end Point, backward bool) *Range {
	return NewRange(Normalize(tree, start, end), backward)
}

// Normalize returns the points covering start through end, inclusive.
//
// Within one block a block endpoint wins and the result is [start]; two
// text endpoints become one text point spanning both offsets. Siblings
// yield start, every block strictly between them, and end. Otherwise the
// deeper endpoint is lifted to the depth of the other, then both are
// lifted together until they share a parent, and the children of that
// parent from the lifted start through the lifted end are returned, with
// the original endpoints kept where they appear.
//
// Blocks in between become full-length text points when they carry a
// delta and block points otherwise. An empty result means the endpoints
// could not be mapped, for example an unknown id or no common ancestor.
func Normalize(tree *state.Tree, start, end Point) []Point {
	startNode := resolve(tree, start.ID)
	endNode := resolve(tree, end.ID)
	if startNode == nil || endNode == nil {
		return []Point{}
	}

	if start.ID == end.ID {
		if !start.IsText() || !end.IsText() {
			return []Point{start}
		}
		lo, hi := min(start.Start, end.Start), max(start.Start, end.Start)
		return []Point{TextPoint(start.ID, lo, hi-lo)}
	}

	startDepth, endDepth := startNode.Depth(), endNode.Depth()
	startParent, endParent := startNode.Parent(), endNode.Parent()

	if startDepth == endDepth && startParent != nil && startParent == endParent {
		result := []Point{start}
		children := startParent.Data().Children()
		for i := startNode.Index() + 1; i < endNode.Index() && i < len(children); i++ {
			result = append(result, pointFor(tree, children[i]))
		}
		return append(result, end)
	}

	s, e := startNode, endNode
	switch {
	case startDepth > endDepth:
		s = state.AncestorAtDepth(s, endDepth)
	case endDepth > startDepth:
		e = state.AncestorAtDepth(e, startDepth)
	}

	for s != nil && e != nil {
		sp, ep := s.Parent(), e.Parent()
		if sp == nil || ep == nil {
			break
		}
		if sp.ID() != ep.ID() {
			s, e = sp, ep
			continue
		}

		children := sp.Data().Children()
		lo, hi := s.Index(), e.Index()
		if lo < 0 || hi >= len(children) || lo > hi {
			break
		}
		result := make([]Point, 0, hi-lo+1)
		for _, id := range children[lo : hi+1] {
			switch id {
			case start.ID:
				result = append(result, start)
			case end.ID:
				result = append(result, end)
			default:
				result = append(result, pointFor(tree, id))
			}
		}
		return result
	}

	return []Point{}
}

func resolve(tree *state.Tree, id string) *state.Node {
	n := tree.Block(id)
	if n == nil || n.Deleted() {
		return nil
	}
	return n
}

func pointFor(tree *state.Tree, id string) Point {
	n := tree.Block(id)
	if n == nil || !n.Data().HasDelta() {
		return BlockPoint(id)
	}
	return TextPoint(id, 0, n.Length())
}
