package corpus

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/linksrus/pagerank/graph"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

// Config encapsulates the settings for loading a corpus of HTML pages.
type Config struct {
	// The directory containing the corpus pages. Only files ending in
	// .html that are stored directly inside Dir are loaded.
	Dir string

	// The number of workers for reading and parsing pages. If not
	// specified, a single worker will be used.
	Workers int

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error
	if cfg.Dir == "" {
		err = multierror.Append(err, xerrors.Errorf("corpus directory has not been specified"))
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: ioutil.Discard})
	}
	return err
}

// Loader builds link graphs out of a directory of HTML pages. Each page is
// named after its file name and links to the corpus pages referenced by its
// anchor tags. Links to files outside the corpus and self-links are ignored.
type Loader struct {
	cfg Config
}

// NewLoader creates a new corpus loader with the specified config.
func NewLoader(cfg Config) (*Loader, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("corpus loader: config validation failed: %w", err)
	}
	return &Loader{cfg: cfg}, nil
}

// LoadGraph reads every page in the corpus directory and returns the
// resulting link graph.
func (l *Loader) LoadGraph(ctx context.Context) (*graph.Graph, error) {
	docs, err := l.listDocuments()
	if err != nil {
		return nil, xerrors.Errorf("corpus loader: %w", err)
	}

	b := graph.NewBuilder()
	for _, doc := range docs {
		b.AddPage(doc.name)
	}

	var numLinks int
	sink := func(_ context.Context, doc *document) error {
		for _, link := range doc.links {
			if err := b.AddLink(doc.name, link); err != nil {
				return err
			}
		}
		numLinks += len(doc.links)
		return nil
	}

	if err = runPipeline(ctx, docs, l.cfg.Workers, parseDocument, sink); err != nil {
		return nil, xerrors.Errorf("corpus loader: %w", err)
	} else if err = ctx.Err(); err != nil {
		return nil, xerrors.Errorf("corpus loader: %w", err)
	}

	g := b.Build()
	l.cfg.Logger.WithFields(logrus.Fields{
		"dir":       l.cfg.Dir,
		"pages":     g.Len(),
		"raw_links": numLinks,
	}).Debug("loaded corpus")
	return g, nil
}

// listDocuments returns a document for each HTML file in the corpus
// directory, sorted by name.
func (l *Loader) listDocuments() ([]*document, error) {
	entries, err := os.ReadDir(l.cfg.Dir)
	if err != nil {
		return nil, err
	}

	var docs []*document
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
			continue
		}
		docs = append(docs, &document{
			name: entry.Name(),
			path: filepath.Join(l.cfg.Dir, entry.Name()),
		})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].name < docs[j].name })
	return docs, nil
}

func parseDocument(_ context.Context, doc *document) error {
	content, err := os.ReadFile(doc.path)
	if err != nil {
		return err
	}
	doc.links = extractLinks(string(content))
	return nil
}
