package labeling

// Forest is a union-find forest over small positive integer keys (provisional
// labels). The root of every class is the smallest key ever placed in it, so the
// canonical representative does not depend on merge order.
//
// Find uses path halving; Union always hangs the larger root under the smaller
// one. Key 0 is reserved for background and never belongs to a class.
type Forest struct {
	parent []int
}

// NewForest returns an empty forest with room for capacity keys.
func NewForest(capacity int) *Forest {
	f := &Forest{parent: make([]int, 1, capacity+1)}
	return f
}

// MakeNode registers key as a singleton class. Registering an existing key is a no-op.
func (f *Forest) MakeNode(key int) {
	for len(f.parent) <= key {
		f.parent = append(f.parent, len(f.parent))
	}
}

// Len is the largest key registered so far.
func (f *Forest) Len() int { return len(f.parent) - 1 }

// Find returns the canonical root of key's class.
func (f *Forest) Find(key int) int {
	for f.parent[key] != key {
		// Path halving: point key at its grandparent.
		f.parent[key] = f.parent[f.parent[key]]
		key = f.parent[key]
	}
	return key
}

// Union merges the classes of a and b and returns the resulting root.
func (f *Forest) Union(a, b int) int {
	ra, rb := f.Find(a), f.Find(b)
	if ra == rb {
		return ra
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	f.parent[rb] = ra
	return ra
}

// Connected reports whether a and b share a class.
func (f *Forest) Connected(a, b int) bool {
	return f.Find(a) == f.Find(b)
}
