package models

// Chain is a path of entities and predicates connecting two graph nodes.
// Nodes has exactly one more element than Predicates; Depth is the hop
// count (len(Predicates)); Score is in [0,1].
type Chain struct {
	Nodes      []string `json:"nodes"`
	Predicates []string `json:"predicates"`
	Depth      int      `json:"depth"`
	Score      float64  `json:"score"`
}

// Start returns the first node of the chain ("" for an empty chain).
func (c Chain) Start() string {
	if len(c.Nodes) == 0 {
		return ""
	}
	return c.Nodes[0]
}

// End returns the last node of the chain ("" for an empty chain).
func (c Chain) End() string {
	if len(c.Nodes) == 0 {
		return ""
	}
	return c.Nodes[len(c.Nodes)-1]
}

// ContainsNode reports whether the chain already visits the given node.
func (c Chain) ContainsNode(uri string) bool {
	for _, n := range c.Nodes {
		if n == uri {
			return true
		}
	}
	return false
}
