package graph

import (
	"encoding/json"
	"sort"
)

// Graph is an immutable directed link graph. Each page appears exactly once
// and every out-link target is itself a page of the graph. Pages never link
// to themselves.
//
// Pages are kept in lexicographic order so that any traversal of the graph
// (and therefore any seeded random walk over it) is reproducible.
type Graph struct {
	pages []string
	index map[string]int
	links [][]int
}

// FromMap builds a graph out of a page -> out-links mapping. Every key of m
// becomes a page. Targets that are not keys of m, self-links and duplicate
// links are discarded.
func FromMap(m map[string][]string) *Graph {
	b := NewBuilder()
	for page := range m {
		b.AddPage(page)
	}
	for page, targets := range m {
		for _, dst := range targets {
			// The source is always known here so AddLink cannot fail.
			_ = b.AddLink(page, dst)
		}
	}
	return b.Build()
}

// Len returns the number of pages in the graph.
func (g *Graph) Len() int { return len(g.pages) }

// Pages returns a copy of the sorted page list.
func (g *Graph) Pages() []string {
	return append([]string(nil), g.pages...)
}

// Page returns the page with index i.
func (g *Graph) Page(i int) string { return g.pages[i] }

// Has returns true if page is part of the graph.
func (g *Graph) Has(page string) bool {
	_, ok := g.index[page]
	return ok
}

// Index returns the position of page in the sorted page list.
func (g *Graph) Index(page string) (int, bool) {
	i, ok := g.index[page]
	return i, ok
}

// Links returns the indices of the pages linked to by the page with index i.
// The returned slice is shared with the graph and must not be modified.
func (g *Graph) Links(i int) []int { return g.links[i] }

// OutDegree returns the number of out-links of the page with index i.
func (g *Graph) OutDegree(i int) int { return len(g.links[i]) }

// OutLinks returns the sorted list of pages linked to by page. It returns nil
// if page is not part of the graph.
func (g *Graph) OutLinks(page string) []string {
	i, ok := g.index[page]
	if !ok {
		return nil
	}

	out := make([]string, len(g.links[i]))
	for j, dst := range g.links[i] {
		out[j] = g.pages[dst]
	}
	return out
}

// IsDangling returns true if page is part of the graph and has no out-links.
func (g *Graph) IsDangling(page string) bool {
	i, ok := g.index[page]
	return ok && len(g.links[i]) == 0
}

// ToMap returns the graph as a page -> out-links mapping.
func (g *Graph) ToMap() map[string][]string {
	m := make(map[string][]string, len(g.pages))
	for _, page := range g.pages {
		m[page] = g.OutLinks(page)
	}
	return m
}

// MarshalJSON encodes the graph as a JSON object mapping each page to the
// list of pages it links to.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.ToMap())
}

// UnmarshalJSON decodes a graph from the format produced by MarshalJSON.
// Links to unknown pages and self-links are dropped.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*g = *FromMap(m)
	return nil
}

func newGraph(links map[string]map[string]struct{}) *Graph {
	pages := make([]string, 0, len(links))
	for page := range links {
		pages = append(pages, page)
	}
	sort.Strings(pages)

	index := make(map[string]int, len(pages))
	for i, page := range pages {
		index[page] = i
	}

	adj := make([][]int, len(pages))
	for i, page := range pages {
		for dst := range links[page] {
			if j, ok := index[dst]; ok && j != i {
				adj[i] = append(adj[i], j)
			}
		}
		sort.Ints(adj[i])
	}

	return &Graph{pages: pages, index: index, links: adj}
}
