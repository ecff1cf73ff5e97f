// Package bvh is a bounding volume hierarchy over geometry.Intersectable
// primitives.
package bvh

import (
	"sort"

	"lumen/aabox"
	"lumen/geometry"
	"lumen/ray"
)

// Node is either a leaf wrapping one primitive, or an interior node with
// exactly two children.  Bounds always covers the whole subtree.
type Node struct {
	Bounds aabox.AABox

	// Set for leaves only.
	Item geometry.Intersectable

	// Set for interior nodes only.
	Left  *Node
	Right *Node
}

// Build constructs a tree over items.  items is not modified.
//
// Build panics if items is empty.
func Build(items []geometry.Intersectable) *Node {
	if len(items) == 0 {
		panic("bvh.Build called with no primitives")
	}

	elements := make([]element, len(items))
	for i, item := range items {
		elements[i] = element{item: item, bounds: item.GetAABox()}
	}
	return build(elements)
}

// element caches a primitive's box for the duration of the build.
type element struct {
	item   geometry.Intersectable
	bounds aabox.AABox
}

func build(elements []element) *Node {
	if len(elements) == 1 {
		return &Node{
			Bounds: elements[0].bounds,
			Item:   elements[0].item,
		}
	}

	axis := splitAxis(elements)
	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].bounds.CentroidKey(axis) < elements[j].bounds.CentroidKey(axis)
	})

	mid := len(elements) / 2
	left := build(elements[:mid])
	right := build(elements[mid:])

	return &Node{
		Bounds: aabox.MinContainingAABox(left.Bounds, right.Bounds),
		Left:   left,
		Right:  right,
	}
}

// splitAxis picks the axis along which the elements' boxes spread furthest.
// Ties go to the lowest axis.
func splitAxis(elements []element) int {
	total := aabox.AccumZeroAABox()
	for _, e := range elements {
		total = aabox.MinContainingAABox(total, e.bounds)
	}

	bestAxis := 0
	bestSpread := total.X.Hi - total.X.Lo
	for axis := 1; axis < 3; axis++ {
		s := total.Axis(axis)
		if spread := s.Hi - s.Lo; spread > bestSpread {
			bestAxis = axis
			bestSpread = spread
		}
	}
	return bestAxis
}

func (n *Node) IsLeaf() bool {
	return n.Item != nil
}

func (n *Node) GetAABox() aabox.AABox {
	return n.Bounds
}

// Hit returns the closest hit in s among the primitives under n.
func (n *Node) Hit(r ray.Ray, s ray.Span) (geometry.Hit, bool) {
	if !n.Bounds.Hit(r, s) {
		return geometry.Hit{}, false
	}

	if n.IsLeaf() {
		return n.Item.Hit(r, s)
	}

	leftHit, leftOK := n.Left.Hit(r, s)
	if leftOK {
		s.Hi = leftHit.T
	}

	if rightHit, rightOK := n.Right.Hit(r, s); rightOK {
		return rightHit, true
	}
	return leftHit, leftOK
}

// Height is 1 for a leaf and 1 + the taller child otherwise.
func (n *Node) Height() int {
	if n.IsLeaf() {
		return 1
	}
	l, r := n.Left.Height(), n.Right.Height()
	if l > r {
		return 1 + l
	}
	return 1 + r
}

// NodeCount is the total number of nodes, leaves included.
func (n *Node) NodeCount() int {
	if n.IsLeaf() {
		return 1
	}
	return 1 + n.Left.NodeCount() + n.Right.NodeCount()
}

// Leaves returns the wrapped primitives in left-to-right order.
func (n *Node) Leaves() []geometry.Intersectable {
	result := []geometry.Intersectable{}
	workStack := []*Node{n}
	for len(workStack) != 0 {
		cur := workStack[len(workStack)-1]
		workStack = workStack[:len(workStack)-1]

		if cur.IsLeaf() {
			result = append(result, cur.Item)
			continue
		}

		// Right first so that the left subtree is popped first.
		workStack = append(workStack, cur.Right, cur.Left)
	}
	return result
}

type Stats struct {
	Height    int
	NodeCount int
	LeafCount int

	// Sum of node surface areas divided by the root's; a rough indication of
	// how much overlap traversal has to wade through.
	AreaRatio float64
}

func (n *Node) Stats() Stats {
	st := Stats{
		Height:    n.Height(),
		NodeCount: n.NodeCount(),
		LeafCount: len(n.Leaves()),
	}

	rootArea := n.Bounds.SurfaceArea()
	if rootArea > 0 {
		total := 0.0
		n.visit(func(cur *Node) {
			total += cur.Bounds.SurfaceArea()
		})
		st.AreaRatio = total / rootArea
	}
	return st
}

func (n *Node) visit(f func(*Node)) {
	f(n)
	if !n.IsLeaf() {
		n.Left.visit(f)
		n.Right.visit(f)
	}
}
