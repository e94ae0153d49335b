package topology

// DefaultFabricDepth is assumed when the topology has no spine or no leaf,
// so that partially defined topologies still produce a usable plan.
const DefaultFabricDepth = 2

// Graph is an undirected adjacency structure over device names. Devices are
// interned into integer indexes so BFS never touches string keys. Parallel
// links between the same pair collapse to a single edge, multiplicity only
// matters in the link list itself.
type Graph struct {
	index map[string]int
	names []string
	adj   [][]int
}

func NewGraph(links []Link) *Graph {
	g := &Graph{
		index: map[string]int{},
	}

	seen := map[[2]int]bool{}
	for _, link := range links {
		a := g.intern(link.A.Device)
		b := g.intern(link.B.Device)

		if a == b {
			continue
		}

		key := [2]int{min(a, b), max(a, b)}
		if seen[key] {
			continue
		}
		seen[key] = true

		g.adj[a] = append(g.adj[a], b)
		g.adj[b] = append(g.adj[b], a)
	}

	return g
}

func (g *Graph) intern(name string) int {
	if idx, ok := g.index[name]; ok {
		return idx
	}

	idx := len(g.names)
	g.index[name] = idx
	g.names = append(g.names, name)
	g.adj = append(g.adj, nil)

	return idx
}

// FabricDepth is the maximum over all spines of the shortest hop count from
// that spine to any leaf. It drives the eBGP multihop value for the overlay
// peerings. Topologies missing a tier (or where no spine can reach a leaf)
// fall back to DefaultFabricDepth.
func (g *Graph) FabricDepth(devices map[string]*Device) int {
	leaves := map[int]bool{}
	spines := []int{}

	for name, dev := range devices {
		idx, ok := g.index[name]
		if !ok {
			continue
		}

		switch dev.Role {
		case RoleSpine:
			spines = append(spines, idx)
		case RoleLeaf:
			leaves[idx] = true
		}
	}

	if len(spines) == 0 || len(leaves) == 0 {
		return DefaultFabricDepth
	}

	depth := 0
	found := false
	for _, spine := range spines {
		if dist, ok := g.nearest(spine, leaves); ok {
			found = true
			depth = max(depth, dist)
		}
	}

	if !found {
		return DefaultFabricDepth
	}

	return depth
}

// nearest runs BFS from start with targets as simultaneous goals and returns
// the shortest distance to any of them.
func (g *Graph) nearest(start int, targets map[int]bool) (int, bool) {
	if targets[start] {
		return 0, true
	}

	visited := make([]bool, len(g.names))
	visited[start] = true

	queue := []int{start}
	dist := 0

	for len(queue) > 0 {
		dist++

		next := []int{}
		for _, node := range queue {
			for _, neighbor := range g.adj[node] {
				if visited[neighbor] {
					continue
				}
				if targets[neighbor] {
					return dist, true
				}

				visited[neighbor] = true
				next = append(next, neighbor)
			}
		}

		queue = next
	}

	return 0, false
}
