package office

import (
	"context"
	"fmt"
	"log/slog"
)

// PixelTo100thMM converts a 96 DPI pixel count to 1/100 mm.
const PixelTo100thMM = 26.45

// EmbedReport counts what EmbedAll did to each graphic.
type EmbedReport struct {
	Embedded        int
	Reused          int
	AlreadyEmbedded int
	Resized         int
	SizeSkipped     int
	NotGraphic      int
}

// Embedder converts linked graphics into embedded ones.
type Embedder struct {
	Logger *slog.Logger

	// FixEmbedded also recomputes the size of graphics that were already
	// embedded when the document was loaded.
	FixEmbedded bool
}

// EmbedAllImages embeds every linked graphic of doc with default settings.
func EmbedAllImages(ctx context.Context, doc TextDocument) (EmbedReport, error) {
	return (&Embedder{}).EmbedAll(ctx, doc)
}

// EmbedAll registers each linked graphic in the document bitmap table under
// its display name, points the graphic at the embedded copy and resets its
// display size from the bitmap's pixel size.
func (e *Embedder) EmbedAll(ctx context.Context, doc TextDocument) (EmbedReport, error) {
	var report EmbedReport
	logger := e.logger()
	table := doc.BitmapTable()

	for _, content := range doc.GraphicObjects() {
		graphic, ok := content.(GraphicObject)
		if !ok {
			report.NotGraphic++
			continue
		}

		name := graphic.Name()
		graphicURL := graphic.GraphicURL()

		if IsInternalURL(graphicURL) {
			report.AlreadyEmbedded++
			if e.FixEmbedded {
				if err := e.fixSize(graphic, &report); err != nil {
					return report, err
				}
			}
			continue
		}

		_, known := table.Lookup(name)
		embedded, err := table.Insert(ctx, name, graphicURL)
		if err != nil {
			return report, fmt.Errorf("embedding %q from %s: %w", name, graphicURL, err)
		}
		if err := graphic.SetGraphicURL(embedded); err != nil {
			return report, fmt.Errorf("updating graphic %q: %w", name, err)
		}
		if known {
			report.Reused++
		} else {
			report.Embedded++
		}
		logger.Debug("embedded graphic", "name", name, "source", graphicURL, "reused", known)

		if err := e.fixSize(graphic, &report); err != nil {
			return report, err
		}
	}

	return report, nil
}

// FixSize sets the display size of g from its pixel size. It reports false
// and leaves g untouched when the pixel size has a zero dimension.
func FixSize(g GraphicObject, logger *slog.Logger) (bool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	px := g.SizePixel()
	if px.Width == 0 || px.Height == 0 {
		logger.Warn("pixel size unavailable, skipping image", "name", g.Name(), "width", px.Width, "height", px.Height)
		return false, nil
	}

	size := Size{
		Width:  int(float64(px.Width) * PixelTo100thMM),
		Height: int(float64(px.Height) * PixelTo100thMM),
	}
	if err := g.SetSize(size); err != nil {
		return false, fmt.Errorf("resizing graphic %q: %w", g.Name(), err)
	}
	return true, nil
}

func (e *Embedder) fixSize(g GraphicObject, report *EmbedReport) error {
	fixed, err := FixSize(g, e.logger())
	if err != nil {
		return err
	}
	if fixed {
		report.Resized++
	} else {
		report.SizeSkipped++
	}
	return nil
}

func (e *Embedder) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
