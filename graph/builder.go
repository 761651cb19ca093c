package graph

import "golang.org/x/xerrors"

// ErrUnknownLinkSource is returned by AddLink when the source page has not
// been added to the builder.
var ErrUnknownLinkSource = xerrors.New("source page is not part of the graph")

// Builder assembles a Graph one page and link at a time. A Builder is not
// safe for concurrent use.
type Builder struct {
	links map[string]map[string]struct{}
}

// NewBuilder returns an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{links: make(map[string]map[string]struct{})}
}

// AddPage inserts a page into the graph. Adding an existing page is a no-op.
func (b *Builder) AddPage(id string) {
	if _, exists := b.links[id]; !exists {
		b.links[id] = make(map[string]struct{})
	}
}

// AddLink inserts a directed link from src to dst. The destination does not
// need to exist yet; links whose destination is never added are dropped by
// Build. If src and dst refer to the same page then this is a no-op.
func (b *Builder) AddLink(src, dst string) error {
	outLinks, ok := b.links[src]
	if !ok {
		return xerrors.Errorf("create link from %q to %q: %w", src, dst, ErrUnknownLinkSource)
	}

	// Don't allow self-links
	if src == dst {
		return nil
	}
	outLinks[dst] = struct{}{}
	return nil
}

// Len returns the number of pages added so far.
func (b *Builder) Len() int { return len(b.links) }

// Build returns an immutable Graph with the pages and links added so far.
// The builder can still be used afterwards.
func (b *Builder) Build() *Graph {
	return newGraph(b.links)
}
