package ir

// Index is the Subformula Index: an ordered collection of pointers into
// the Formula IR, de-duplicated by structural equality, where a node's
// position is its stable integer identity (the "subformula id") used
// throughout the Variable Registry's naming discipline.
//
// An Index is owned by exactly one encoding session and is never shared
// across sessions (spec section 5: "exist only for the duration of one
// check").
type Index struct {
	nodes []*Node
	ids   map[string]int
}

// NewIndex returns an empty Subformula Index.
func NewIndex() *Index {
	return &Index{ids: make(map[string]int)}
}

// Insert walks node and all transitively reachable compound subformulas,
// inserting each into the index exactly once (by structural equality),
// and returns the id of node itself. Insert is idempotent: calling it
// again with a structurally equal tree returns the same id without
// growing the index.
//
// Special case (spec section 4.1): inserting a RewardOp node also
// inserts a Prob node built from the reward's inner temporal formula,
// so that probability auxiliary variables are available to whichever
// component later needs to treat the reward as a probability operator.
func (idx *Index) Insert(node *Node) int {
	if node == nil {
		return -1
	}
	for _, child := range node.Children {
		idx.Insert(child)
	}
	if node.Kind == KindRewardOp {
		shadowProb := NewUnary(KindProb, node.Children[0])
		idx.Insert(shadowProb)
	}
	key := node.Key()
	if id, ok := idx.ids[key]; ok {
		return id
	}
	id := len(idx.nodes)
	idx.nodes = append(idx.nodes, node)
	idx.ids[key] = id
	return id
}

// Len returns the number of distinct subformulas indexed so far.
func (idx *Index) Len() int { return len(idx.nodes) }

// At returns the node with the given subformula id.
func (idx *Index) At(id int) *Node {
	if id < 0 || id >= len(idx.nodes) {
		return nil
	}
	return idx.nodes[id]
}

// IndexOf returns the id of node, or -1 if node (or its structural
// equivalent) has never been inserted.
func (idx *Index) IndexOf(node *Node) int {
	if node == nil {
		return -1
	}
	if id, ok := idx.ids[node.Key()]; ok {
		return id
	}
	return -1
}
