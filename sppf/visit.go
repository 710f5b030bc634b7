package sppf

// Visitor is called once per distinct node reached during a ReleaseTree
// walk, in post-order (children before parents).
type Visitor func(sn *SymbolNode)

// ReleaseTree walks every node reachable from root exactly once (tracking
// a visited set, since the same node can be shared by several parents in
// an ambiguous forest) and calls visit on each, post-order. It mirrors the
// source engine's free_tree contract: a single pass that accounts for
// every shared node exactly once, never double-visiting a packed node and
// never walking an ERROR node's swallowed range twice (ErrorUsed guards
// that).
func (f *Forest) ReleaseTree(root *SymbolNode, visit Visitor) {
	visited := make(map[*SymbolNode]bool)
	f.walk(root, visited, visit)
}

func (f *Forest) walk(sn *SymbolNode, visited map[*SymbolNode]bool, visit Visitor) {
	if sn == nil || visited[sn] {
		return
	}
	visited[sn] = true
	switch sn.Kind {
	case KindAnode:
		for _, c := range sn.AnodeChildren {
			f.walk(c, visited, visit)
		}
	case KindError:
		if sn.ErrorUsed {
			return
		}
		sn.ErrorUsed = true
	default:
		for _, rn := range f.orEdges[sn] {
			for _, c := range f.andEdges[rn] {
				f.walk(c, visited, visit)
			}
		}
	}
	if visit != nil {
		visit(sn)
	}
}

// SelectOneParse collapses every ambiguity point reachable from root to
// its minimum-cost alternative (§4.10, Open Question 3: ties broken by
// lowest rule serial number), returning the root of the single resulting
// derivation. If root was f.Root(), f.Root() also reflects the collapse
// afterward.
func (f *Forest) SelectOneParse(root *SymbolNode) *SymbolNode {
	memo := make(map[*SymbolNode]*SymbolNode)
	winner := f.selectBest(root, memo)
	if root == f.root {
		f.root = winner
	}
	return winner
}

func (f *Forest) selectBest(sn *SymbolNode, memo map[*SymbolNode]*SymbolNode) *SymbolNode {
	if sn == nil {
		return nil
	}
	if got, ok := memo[sn]; ok {
		return got
	}
	if sn.Kind != KindSymbol && sn.Kind != KindNil {
		memo[sn] = sn
		return sn
	}
	edges := f.orEdges[sn]
	if len(edges) == 0 {
		memo[sn] = sn
		return sn
	}
	bestIdx := 0
	bestCost := alternativeCost(f, edges[0])
	for i := 1; i < len(edges); i++ {
		c := alternativeCost(f, edges[i])
		if c < bestCost || (c == bestCost && edges[i].Rule.Serial < edges[bestIdx].Rule.Serial) {
			bestCost, bestIdx = c, i
		}
	}
	winner := &SymbolNode{Symbol: sn.Symbol, Extent: sn.Extent, Kind: sn.Kind}
	children := f.andEdges[edges[bestIdx]]
	resolved := make([]*SymbolNode, len(children))
	for i, c := range children {
		resolved[i] = f.selectBest(c, memo)
	}
	rn := &rhsNode{Rule: edges[bestIdx].Rule, Start: edges[bestIdx].Start, End: edges[bestIdx].End, Cost: bestCost}
	f.orEdges[winner] = []*rhsNode{rn}
	f.andEdges[rn] = resolved
	memo[sn] = winner
	return winner
}

func alternativeCost(f *Forest, rn *rhsNode) int {
	cost := annoCost(rn.Rule.Anno)
	for _, c := range f.andEdges[rn] {
		cost += c.costContribution()
	}
	return cost
}
