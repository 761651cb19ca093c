package cdb

import (
	"context"
	"database/sql"

	"github.com/linksrus/pagerank/graph"
	// Register the postgres driver used for talking to cockroachdb.
	_ "github.com/lib/pq"
	"golang.org/x/xerrors"
)

var (
	linksQuery = "SELECT id, url FROM links"
	edgesQuery = "SELECT src, dst FROM edges"
)

// Source loads link graphs from a cockroachdb (or postgres) instance that
// stores links and edges using the following schema:
//
//	links(id UUID PRIMARY KEY, url STRING UNIQUE, ...)
//	edges(id UUID PRIMARY KEY, src UUID, dst UUID, ...)
//
// Pages are identified by their URL. Source never writes to the database.
type Source struct {
	db *sql.DB
}

// NewSource returns a Source instance that connects to the cockroachdb
// instance specified by dsn.
func NewSource(dsn string) (*Source, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	return &Source{db: db}, nil
}

// Close terminates the connection to the backing cockroachdb instance.
func (s *Source) Close() error {
	return s.db.Close()
}

// LoadGraph fetches every link and edge from the database and returns the
// resulting graph. Edges that refer to unknown links are dropped.
func (s *Source) LoadGraph(ctx context.Context) (*graph.Graph, error) {
	b := graph.NewBuilder()
	urls, err := s.loadLinks(ctx, b)
	if err != nil {
		return nil, xerrors.Errorf("load graph: %w", err)
	}
	if err = s.loadEdges(ctx, b, urls); err != nil {
		return nil, xerrors.Errorf("load graph: %w", err)
	}
	return b.Build(), nil
}

func (s *Source) loadLinks(ctx context.Context, b *graph.Builder) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, linksQuery)
	if err != nil {
		return nil, xerrors.Errorf("links: %w", err)
	}
	defer func() { _ = rows.Close() }()

	urls := make(map[string]string)
	for rows.Next() {
		var id, url string
		if err = rows.Scan(&id, &url); err != nil {
			return nil, xerrors.Errorf("links: %w", err)
		}
		urls[id] = url
		b.AddPage(url)
	}
	if err = rows.Err(); err != nil {
		return nil, xerrors.Errorf("links: %w", err)
	}
	return urls, nil
}

func (s *Source) loadEdges(ctx context.Context, b *graph.Builder, urls map[string]string) error {
	rows, err := s.db.QueryContext(ctx, edgesQuery)
	if err != nil {
		return xerrors.Errorf("edges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var srcID, dstID string
		if err = rows.Scan(&srcID, &dstID); err != nil {
			return xerrors.Errorf("edges: %w", err)
		}

		// As new edges may have been created since the links were
		// loaded, skip edges with unknown endpoints.
		src, srcOK := urls[srcID]
		dst, dstOK := urls[dstID]
		if !srcOK || !dstOK {
			continue
		}
		if err = b.AddLink(src, dst); err != nil {
			return xerrors.Errorf("edges: %w", err)
		}
	}
	if err = rows.Err(); err != nil {
		return xerrors.Errorf("edges: %w", err)
	}
	return nil
}
