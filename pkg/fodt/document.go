// Package fodt is an office document backend for flat ODF text files. It
// loads .fodt documents and HTML pages into an etree model, embeds images in
// memory and writes flat XML back out. PDF export is delegated to an
// [Exporter], normally LibreOffice running headless.
package fodt

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/xhad/docpage/internal/atomicfile"
	"github.com/xhad/docpage/pkg/office"
)

var (
	ErrClosed            = errors.New("fodt: document is closed")
	ErrFileExists        = errors.New("fodt: target exists and overwrite is off")
	ErrUnsupportedFormat = errors.New("fodt: unsupported document format")
	ErrNoExporter        = errors.New("fodt: no PDF exporter configured")
)

var namespaces = [][2]string{
	{"office", "urn:oasis:names:tc:opendocument:xmlns:office:1.0"},
	{"style", "urn:oasis:names:tc:opendocument:xmlns:style:1.0"},
	{"text", "urn:oasis:names:tc:opendocument:xmlns:text:1.0"},
	{"draw", "urn:oasis:names:tc:opendocument:xmlns:drawing:1.0"},
	{"fo", "urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0"},
	{"svg", "urn:oasis:names:tc:opendocument:xmlns:svg-compatible:1.0"},
	{"xlink", "http://www.w3.org/1999/xlink"},
}

// Document is a text document held as a flat ODF tree.
type Document struct {
	tree     *etree.Document
	location string
	base     *url.URL
	bitmaps  *BitmapTable
	exporter Exporter
	logger   *slog.Logger
	locks    int
	closed   bool
}

var (
	_ office.Component      = (*Document)(nil)
	_ office.TextDocument   = (*Document)(nil)
	_ office.ActionLockable = (*Document)(nil)
	_ office.Storable       = (*Document)(nil)
)

func newDocument(tree *etree.Document, location string, base *url.URL, l *Loader) *Document {
	d := &Document{
		tree:     tree,
		location: location,
		base:     base,
		exporter: l.exporter,
		logger:   l.logger,
	}
	d.bitmaps = newBitmapTable(func(ctx context.Context, ref string) ([]byte, error) {
		return l.fetcher.fetch(ctx, resolve(d.base, ref))
	})
	return d
}

// newTextTree returns an empty office:document with a text body.
func newTextTree() *etree.Document {
	tree := etree.NewDocument()
	tree.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := tree.CreateElement("office:document")
	for _, ns := range namespaces {
		root.CreateAttr("xmlns:"+ns[0], ns[1])
	}
	root.CreateAttr("office:version", "1.3")
	root.CreateAttr("office:mimetype", "application/vnd.oasis.opendocument.text")
	root.CreateElement("office:body").CreateElement("office:text")
	return tree
}

// nameFrames gives every frame without a draw:name a unique ImageN name,
// skipping names already in use. Bitmaps are keyed by name, so unnamed frames
// would otherwise share one image.
func (d *Document) nameFrames() {
	frames := d.tree.FindElements("//draw:frame")
	taken := make(map[string]bool, len(frames))
	for _, frame := range frames {
		if name := frame.SelectAttrValue("draw:name", ""); name != "" {
			taken[name] = true
		}
	}

	n := 0
	for _, frame := range frames {
		if frame.SelectAttrValue("draw:name", "") != "" {
			continue
		}
		var name string
		for {
			n++
			name = fmt.Sprintf("Image%d", n)
			if !taken[name] {
				break
			}
		}
		taken[name] = true
		frame.CreateAttr("draw:name", name)
	}
}

// internalize moves office:binary-data payloads into the bitmap table and
// points their images at the internal URL.
func (d *Document) internalize() error {
	for i, image := range d.tree.FindElements("//draw:frame/draw:image") {
		bin := image.SelectElement("office:binary-data")
		if bin == nil {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(bin.Text()), ""))
		if err != nil {
			return fmt.Errorf("decoding embedded image %d: %w", i, err)
		}
		ref := d.bitmaps.add(image.Parent().SelectAttrValue("draw:name", ""), data)
		image.RemoveChild(bin)
		image.CreateAttr("xlink:href", ref)
	}
	return nil
}

// GraphicObjects returns every frame in document order. Image frames are
// *Graphic, all others *Frame.
func (d *Document) GraphicObjects() []office.TextContent {
	var objects []office.TextContent
	for _, frame := range d.tree.FindElements("//draw:frame") {
		if image := frame.SelectElement("draw:image"); image != nil {
			objects = append(objects, &Graphic{doc: d, frame: frame, image: image})
			continue
		}
		objects = append(objects, &Frame{el: frame})
	}
	return objects
}

func (d *Document) BitmapTable() office.BitmapTable {
	return d.bitmaps
}

func (d *Document) AddActionLock() {
	d.locks++
}

func (d *Document) RemoveActionLock() {
	if d.locks > 0 {
		d.locks--
	}
}

func (d *Document) IsActionLocked() bool {
	return d.locks > 0
}

// Location is the path the document was loaded from or last stored as.
func (d *Document) Location() string {
	return d.location
}

func (d *Document) StoreAsURL(ctx context.Context, target string, props ...office.PropertyValue) error {
	if d.closed {
		return ErrClosed
	}
	filter := office.StringProperty(props, office.PropFilterName)
	if filter != "" && filter != office.FilterFlatODT {
		return fmt.Errorf("%w: %q cannot be used to store a document", office.ErrUnsupportedFilter, filter)
	}

	path, err := d.writeFlat(target, office.BoolProperty(props, office.PropOverwrite))
	if err != nil {
		return err
	}
	d.location = path
	return nil
}

func (d *Document) StoreToURL(ctx context.Context, target string, props ...office.PropertyValue) error {
	if d.closed {
		return ErrClosed
	}
	overwrite := office.BoolProperty(props, office.PropOverwrite)

	switch filter := office.StringProperty(props, office.PropFilterName); filter {
	case "", office.FilterFlatODT:
		_, err := d.writeFlat(target, overwrite)
		return err
	case office.FilterWriterPDF:
		return d.exportPDF(ctx, target, overwrite)
	default:
		return fmt.Errorf("%w: %q", office.ErrUnsupportedFilter, filter)
	}
}

func (d *Document) Close() error {
	d.closed = true
	d.bitmaps = newBitmapTable(d.bitmaps.fetch)
	return nil
}

// Bytes serializes the document as flat ODF with embedded images written
// as office:binary-data.
func (d *Document) Bytes() ([]byte, error) {
	out := d.tree.Copy()
	for _, image := range out.FindElements("//draw:frame/draw:image") {
		ref := image.SelectAttrValue("xlink:href", "")
		data, ok := d.bitmaps.Data(ref)
		if !ok {
			continue
		}
		for _, attr := range []string{"xlink:href", "xlink:type", "xlink:show", "xlink:actuate"} {
			image.RemoveAttr(attr)
		}
		for _, old := range image.SelectElements("office:binary-data") {
			image.RemoveChild(old)
		}
		image.CreateElement("office:binary-data").SetText(base64.StdEncoding.EncodeToString(data))
	}
	return out.WriteToBytes()
}

func (d *Document) writeFlat(target string, overwrite bool) (string, error) {
	path, err := checkTarget(target, overwrite)
	if err != nil {
		return "", err
	}
	data, err := d.Bytes()
	if err != nil {
		return "", fmt.Errorf("serializing %s: %w", path, err)
	}
	if err := atomicfile.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (d *Document) exportPDF(ctx context.Context, target string, overwrite bool) error {
	if d.exporter == nil {
		return ErrNoExporter
	}
	path, err := checkTarget(target, overwrite)
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "docpage-export-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	src, err := d.writeFlat(filepath.Join(dir, name+".fodt"), true)
	if err != nil {
		return err
	}
	return d.exporter.Export(ctx, src, path)
}

func checkTarget(target string, overwrite bool) (string, error) {
	path, err := localPath(target)
	if err != nil {
		return "", err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%w: %s", ErrFileExists, path)
		}
	}
	return path, nil
}
