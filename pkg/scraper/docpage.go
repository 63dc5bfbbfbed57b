package scraper

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/xhad/docpage/internal/models"
)

const (
	versionPath = "//result/vid"
	bodyPath    = "//result/body/en/item/value"
)

// ParseDocPageXML reads the node API response. Missing elements yield empty
// strings.
func ParseDocPageXML(text string) (models.DocPage, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(text); err != nil {
		return models.DocPage{}, fmt.Errorf("parsing doc page XML: %w", err)
	}

	version, err := evaluate(doc, versionPath)
	if err != nil {
		return models.DocPage{}, err
	}
	body, err := evaluate(doc, bodyPath)
	if err != nil {
		return models.DocPage{}, err
	}
	return models.DocPage{Version: version, Body: body}, nil
}

func evaluate(doc *etree.Document, p string) (string, error) {
	path, err := etree.CompilePath(p)
	if err != nil {
		return "", fmt.Errorf("compiling path %s: %w", p, err)
	}
	el := doc.FindElementPath(path)
	if el == nil {
		return "", nil
	}
	return stringValue(el), nil
}

// stringValue concatenates every text descendant of el in document order.
func stringValue(el *etree.Element) string {
	var sb strings.Builder
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		for _, tok := range e.Child {
			switch t := tok.(type) {
			case *etree.CharData:
				sb.WriteString(t.Data)
			case *etree.Element:
				walk(t)
			}
		}
	}
	walk(el)
	return sb.String()
}

// RenderHTML wraps the page body in a minimal HTML5 document. The body is
// inserted verbatim.
func RenderHTML(page models.DocPage) string {
	return `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Title</title>
</head>
<body>
` + page.Body + `
</body>
</html>`
}
