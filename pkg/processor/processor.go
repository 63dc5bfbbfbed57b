package processor

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xhad/docpage/pkg/office"
)

type ProcessorConfig struct {
	Loader      office.ComponentLoader
	OutputDir   string // empty writes next to the source
	ExportPDF   bool
	FixEmbedded bool
	Logger      *slog.Logger
	OnProgress  func(source string)
}

// Source is one document to process. BaseURL, when set, is the URL relative
// image links in an HTML source resolve against.
type Source struct {
	Path    string
	BaseURL string
}

// Result describes the outputs written for one source.
type Result struct {
	Source Source
	FODT   string
	PDF    string
	Report office.EmbedReport
	Err    error
}

type Processor struct {
	config   ProcessorConfig
	embedder *office.Embedder
}

func NewWithConfig(config ProcessorConfig) (*Processor, error) {
	if config.Loader == nil {
		return nil, fmt.Errorf("processor: loader is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Processor{
		config: config,
		embedder: &office.Embedder{
			Logger:      config.Logger,
			FixEmbedded: config.FixEmbedded,
		},
	}, nil
}

// Process runs every source through ProcessOne. A failing source does not
// stop the batch; its error is recorded in the Result.
func (p *Processor) Process(ctx context.Context, sources []Source) []Result {
	results := make([]Result, 0, len(sources))
	for _, src := range sources {
		if p.config.OnProgress != nil {
			p.config.OnProgress(src.Path)
		}
		res, err := p.ProcessOne(ctx, src)
		if err != nil {
			p.config.Logger.Error("processing document failed", "source", src.Path, "error", err)
			res.Err = err
		}
		results = append(results, res)
	}
	return results
}

// ProcessOne opens src, embeds its images under an action lock and stores
// it as flat ODF, plus PDF when configured.
func (p *Processor) ProcessOne(ctx context.Context, src Source) (Result, error) {
	res := Result{Source: src}

	var props []office.PropertyValue
	if src.BaseURL != "" {
		props = append(props, office.PropertyValue{Name: office.PropDocumentBaseURL, Value: src.BaseURL})
	}

	var comp office.Component
	var err error
	if isHTML(src.Path) {
		comp, err = office.OpenHTML(ctx, p.config.Loader, src.Path, props...)
	} else {
		comp, err = office.Open(ctx, p.config.Loader, src.Path, props...)
	}
	if err != nil {
		return res, err
	}
	defer comp.Close()

	doc, ok := comp.(office.TextDocument)
	if !ok {
		return res, fmt.Errorf("%s: document has no graphic objects", src.Path)
	}
	storable, ok := comp.(office.Storable)
	if !ok {
		return res, fmt.Errorf("%s: document cannot be stored", src.Path)
	}

	edit := func() error {
		var err error
		res.Report, err = p.embedder.EmbedAll(ctx, doc)
		return err
	}
	if lockable, ok := comp.(office.ActionLockable); ok {
		err = office.WithLockedUI(lockable, edit)
	} else {
		err = edit()
	}
	if err != nil {
		return res, err
	}

	// The PDF goes first: storing as FODT rebinds the document.
	if p.config.ExportPDF {
		res.PDF = p.target(src.Path, ".pdf")
		if err := office.SaveAsPdf(ctx, storable, res.PDF); err != nil {
			return res, err
		}
	}

	res.FODT = p.target(src.Path, ".fodt")
	if err := office.SaveAsFodt(ctx, storable, res.FODT); err != nil {
		return res, err
	}

	p.config.Logger.Info("processed document",
		"source", src.Path,
		"fodt", res.FODT,
		"embedded", res.Report.Embedded,
		"reused", res.Report.Reused,
		"size_skipped", res.Report.SizeSkipped,
	)
	return res, nil
}

func (p *Processor) target(source, ext string) string {
	dir := p.config.OutputDir
	if dir == "" {
		dir = filepath.Dir(source)
	}
	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(dir, name+ext)
}

func isHTML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}
