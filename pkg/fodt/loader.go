package fodt

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/xhad/docpage/pkg/office"
)

type LoaderConfig struct {
	HTTPClient *http.Client
	UserAgent  string
	Exporter   Exporter
	Logger     *slog.Logger
}

// Loader opens flat ODF and HTML documents.
type Loader struct {
	fetcher  *fetcher
	exporter Exporter
	logger   *slog.Logger
}

var _ office.ComponentLoader = (*Loader)(nil)

func NewLoader(config LoaderConfig) *Loader {
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if config.UserAgent == "" {
		config.UserAgent = "docpage/1.0"
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Loader{
		fetcher:  &fetcher{client: config.HTTPClient, userAgent: config.UserAgent},
		exporter: config.Exporter,
		logger:   config.Logger,
	}
}

// LoadComponentFromURL loads source, a path or URL. The FilterName property
// selects the import filter; without it the format follows the extension.
// DocumentBaseURL overrides the URL relative image links resolve against.
// The target frame is ignored.
func (l *Loader) LoadComponentFromURL(ctx context.Context, source, _ string, props ...office.PropertyValue) (office.Component, error) {
	src, err := toURL(source)
	if err != nil {
		return nil, err
	}
	base := src
	if b := office.StringProperty(props, office.PropDocumentBaseURL); b != "" {
		if base, err = toURL(b); err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", b, err)
		}
	}

	filter := office.StringProperty(props, office.PropFilterName)
	if filter == "" {
		if filter, err = detectFilter(src.Path); err != nil {
			return nil, err
		}
	}

	data, err := l.fetcher.fetch(ctx, src.String())
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}

	location := source
	if p, err := localPath(src.String()); err == nil {
		location = p
	}

	switch filter {
	case office.FilterHTML:
		tree, err := importHTML(bytes.NewReader(data), base)
		if err != nil {
			return nil, err
		}
		doc := newDocument(tree, location, base, l)
		doc.nameFrames()
		l.logger.Debug("imported HTML document", "source", source, "frames", len(doc.GraphicObjects()))
		return doc, nil

	case office.FilterFlatODT:
		tree := etree.NewDocument()
		if err := tree.ReadFromBytes(data); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", source, err)
		}
		if root := tree.Root(); root == nil || root.FullTag() != "office:document" {
			return nil, fmt.Errorf("%w: %s is not a flat ODF document", ErrUnsupportedFormat, source)
		}
		doc := newDocument(tree, location, base, l)
		doc.nameFrames()
		if err := doc.internalize(); err != nil {
			return nil, fmt.Errorf("loading %s: %w", source, err)
		}
		return doc, nil

	default:
		return nil, fmt.Errorf("%w: %q", office.ErrUnsupportedFilter, filter)
	}
}

func detectFilter(p string) (string, error) {
	switch strings.ToLower(path.Ext(p)) {
	case ".fodt", ".xml":
		return office.FilterFlatODT, nil
	case ".html", ".htm", ".xhtml":
		return office.FilterHTML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, p)
	}
}
