package fodt

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/beevik/etree"
	"github.com/xhad/docpage/pkg/office"
	"golang.org/x/net/html"
)

var (
	skippedTags = map[string]bool{
		"head": true, "script": true, "style": true, "noscript": true, "template": true,
	}
	paragraphTags = map[string]bool{
		"p": true, "li": true, "pre": true, "dt": true, "dd": true,
		"td": true, "th": true, "caption": true, "figcaption": true,
	}
	blockTags = map[string]bool{
		"div": true, "section": true, "article": true, "main": true, "header": true,
		"footer": true, "nav": true, "aside": true, "ul": true, "ol": true, "dl": true,
		"table": true, "thead": true, "tbody": true, "tfoot": true, "tr": true,
		"blockquote": true, "figure": true, "hr": true,
	}
)

// htmlImporter maps the block structure of an HTML page onto text:p and
// text:h paragraphs. Images become linked draw:frame graphics.
type htmlImporter struct {
	text *etree.Element
	para *etree.Element
	base *url.URL
}

func importHTML(r io.Reader, base *url.URL) (*etree.Document, error) {
	page, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	tree := newTextTree()
	im := &htmlImporter{
		text: tree.FindElement("//office:body/office:text"),
		base: base,
	}
	im.walk(page.Find("body"))
	return tree, nil
}

func (im *htmlImporter) walk(sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		switch n.Type {
		case html.TextNode:
			im.appendText(n.Data)
		case html.ElementNode:
			im.element(s, n.Data)
		}
	})
}

func (im *htmlImporter) element(s *goquery.Selection, tag string) {
	switch {
	case skippedTags[tag]:
	case headingLevel(tag) > 0:
		im.para = im.text.CreateElement("text:h")
		im.para.CreateAttr("text:outline-level", strconv.Itoa(headingLevel(tag)))
		im.walk(s)
		im.para = nil
	case paragraphTags[tag]:
		im.para = im.text.CreateElement("text:p")
		im.walk(s)
		im.para = nil
	case blockTags[tag]:
		im.para = nil
		im.walk(s)
		im.para = nil
	case tag == "br":
		im.paragraph().CreateElement("text:line-break")
	case tag == "img":
		im.image(s)
	default:
		im.walk(s)
	}
}

func (im *htmlImporter) paragraph() *etree.Element {
	if im.para == nil {
		im.para = im.text.CreateElement("text:p")
	}
	return im.para
}

func (im *htmlImporter) appendText(s string) {
	t := collapseSpace(s)
	if im.para == nil {
		t = strings.TrimLeft(t, " ")
	}
	if t == "" {
		return
	}
	im.paragraph().CreateText(t)
}

func (im *htmlImporter) image(s *goquery.Selection) {
	src, _ := s.Attr("src")
	if strings.TrimSpace(src) == "" {
		return
	}
	frame := im.paragraph().CreateElement("draw:frame")
	if name := imageName(src); name != "" {
		frame.CreateAttr("draw:name", name)
	}
	frame.CreateAttr("text:anchor-type", "as-char")
	if w, h, ok := pixelAttrs(s); ok {
		frame.CreateAttr("svg:width", formatLength(int(float64(w)*office.PixelTo100thMM)))
		frame.CreateAttr("svg:height", formatLength(int(float64(h)*office.PixelTo100thMM)))
	}

	image := frame.CreateElement("draw:image")
	image.CreateAttr("xlink:href", resolve(im.base, src))
	image.CreateAttr("xlink:type", "simple")
	image.CreateAttr("xlink:show", "embed")
	image.CreateAttr("xlink:actuate", "onLoad")
}

// imageName is the link display name: the file name of the image URL. Data
// URLs and URLs without a file name get none and are numbered on load.
func imageName(src string) string {
	if strings.HasPrefix(src, "data:") {
		return ""
	}
	u, err := url.Parse(src)
	if err != nil {
		return ""
	}
	if name := path.Base(u.Path); name != "." && name != "/" {
		return name
	}
	return ""
}

func pixelAttrs(s *goquery.Selection) (int, int, bool) {
	ws, _ := s.Attr("width")
	hs, _ := s.Attr("height")
	w, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(ws), "px"))
	if err != nil || w <= 0 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(hs), "px"))
	if err != nil || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func collapseSpace(s string) string {
	var sb strings.Builder
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				sb.WriteByte(' ')
			}
			inSpace = true
			continue
		}
		inSpace = false
		sb.WriteRune(r)
	}
	return sb.String()
}
