package strategy

// Resolver returns the strategy for a request path.
type Resolver func(path string) Strategy

// Compile resolves the table into a Resolver. Tables made only of
// PathPrefix predicates compile into a prefix trie walked once per path;
// anything else falls back to an ordered scan.
func (t Table) Compile(fallback Strategy) (Resolver, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if !fallback.Valid() {
		fallback = DefaultStrategy
	}

	if root, ok := t.buildTrie(); ok {
		return func(path string) Strategy {
			if s := root.lookup(path); s.Valid() {
				return s
			}
			return fallback
		}, nil
	}

	rules := make(Table, len(t))
	copy(rules, t)
	return func(path string) Strategy {
		for _, rule := range rules {
			if rule.Match.Matches(path) {
				return rule.Strategy
			}
		}
		return fallback
	}, nil
}

type trieNode struct {
	children map[byte]*trieNode
	// rank of the earliest rule ending here; -1 if none
	rank     int
	strategy Strategy
}

func newTrieNode() *trieNode {
	return &trieNode{rank: -1}
}

func (t Table) buildTrie() (*trieNode, bool) {
	root := newTrieNode()
	for rank, rule := range t {
		prefixes, ok := rule.Match.(PathPrefix)
		if !ok {
			return nil, false
		}
		for _, prefix := range prefixes {
			node := root
			for i := 0; i < len(prefix); i++ {
				if node.children == nil {
					node.children = make(map[byte]*trieNode)
				}
				next, ok := node.children[prefix[i]]
				if !ok {
					next = newTrieNode()
					node.children[prefix[i]] = next
				}
				node = next
			}
			if node.rank == -1 || rank < node.rank {
				node.rank = rank
				node.strategy = rule.Strategy
			}
		}
	}
	return root, true
}

// lookup returns the strategy of the lowest-ranked prefix of path, or 0.
func (n *trieNode) lookup(path string) Strategy {
	best := -1
	var result Strategy

	node := n
	consider := func(node *trieNode) {
		if node.rank != -1 && (best == -1 || node.rank < best) {
			best = node.rank
			result = node.strategy
		}
	}

	// The empty prefix matches everything
	consider(node)
	for i := 0; i < len(path); i++ {
		next, ok := node.children[path[i]]
		if !ok {
			break
		}
		node = next
		consider(node)
	}
	return result
}
