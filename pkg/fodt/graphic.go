package fodt

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/beevik/etree"
	"github.com/xhad/docpage/pkg/office"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Frame is a draw:frame that holds something other than an image.
type Frame struct {
	el *etree.Element
}

func (f *Frame) Name() string {
	return f.el.SelectAttrValue("draw:name", "")
}

// Graphic is a draw:frame wrapping a draw:image.
type Graphic struct {
	doc   *Document
	frame *etree.Element
	image *etree.Element
}

var _ office.GraphicObject = (*Graphic)(nil)

func (g *Graphic) Name() string {
	return g.frame.SelectAttrValue("draw:name", "")
}

func (g *Graphic) GraphicURL() string {
	return g.image.SelectAttrValue("xlink:href", "")
}

func (g *Graphic) SetGraphicURL(url string) error {
	if url == "" {
		return fmt.Errorf("empty graphic URL for %q", g.Name())
	}
	g.image.CreateAttr("xlink:href", url)
	return nil
}

// SizePixel decodes the header of the embedded image. Linked images and
// formats without a raster decoder report zero.
func (g *Graphic) SizePixel() office.Size {
	data, ok := g.doc.bitmaps.Data(g.GraphicURL())
	if !ok {
		return office.Size{}
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		g.doc.logger.Debug("cannot decode image header", "name", g.Name(), "error", err)
		return office.Size{}
	}
	return office.Size{Width: cfg.Width, Height: cfg.Height}
}

func (g *Graphic) Size() office.Size {
	w, _ := parseLength(g.frame.SelectAttrValue("svg:width", ""))
	h, _ := parseLength(g.frame.SelectAttrValue("svg:height", ""))
	return office.Size{Width: w, Height: h}
}

func (g *Graphic) SetSize(s office.Size) error {
	if s.Width < 0 || s.Height < 0 {
		return fmt.Errorf("negative size %dx%d for %q", s.Width, s.Height, g.Name())
	}
	g.frame.CreateAttr("svg:width", formatLength(s.Width))
	g.frame.CreateAttr("svg:height", formatLength(s.Height))
	return nil
}

// hundredths of a millimetre per unit
var lengthUnits = map[string]float64{
	"mm": 100,
	"cm": 1000,
	"in": 2540,
	"pt": 2540.0 / 72,
	"pc": 2540.0 / 6,
	"px": office.PixelTo100thMM,
}

// parseLength converts an ODF length such as "2.5cm" to 1/100 mm.
func parseLength(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	for unit, factor := range lengthUnits {
		if num, ok := strings.CutSuffix(s, unit); ok {
			v, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
			if err != nil {
				return 0, fmt.Errorf("invalid length %q: %w", s, err)
			}
			return int(math.Round(v * factor)), nil
		}
	}
	return 0, fmt.Errorf("invalid length %q: unknown unit", s)
}

func formatLength(v int) string {
	return strconv.FormatFloat(float64(v)/100, 'f', 2, 64) + "mm"
}
