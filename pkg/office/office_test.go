package office

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGraphic struct {
	name     string
	url      string
	pixel    Size
	size     Size
	resized  int
	setURLs  []string
	failSize bool
}

func (g *fakeGraphic) Name() string       { return g.name }
func (g *fakeGraphic) GraphicURL() string { return g.url }
func (g *fakeGraphic) SizePixel() Size    { return g.pixel }
func (g *fakeGraphic) Size() Size         { return g.size }

func (g *fakeGraphic) SetGraphicURL(url string) error {
	g.url = url
	g.setURLs = append(g.setURLs, url)
	return nil
}

func (g *fakeGraphic) SetSize(s Size) error {
	if g.failSize {
		return errors.New("read-only")
	}
	g.size = s
	g.resized++
	return nil
}

type fakeFrame struct{ name string }

func (f *fakeFrame) Name() string { return f.name }

type fakeTable struct {
	entries map[string]string
	inserts int
	fail    error
}

func newFakeTable() *fakeTable {
	return &fakeTable{entries: map[string]string{}}
}

func (t *fakeTable) Insert(_ context.Context, name, url string) (string, error) {
	if t.fail != nil {
		return "", t.fail
	}
	if ref, ok := t.entries[name]; ok {
		return ref, nil
	}
	t.inserts++
	ref := fmt.Sprintf("vnd.sun.star.GraphicObject:%04d", t.inserts)
	t.entries[name] = ref
	return ref, nil
}

func (t *fakeTable) Lookup(name string) (string, bool) {
	ref, ok := t.entries[name]
	return ref, ok
}

func (t *fakeTable) Len() int { return len(t.entries) }

type fakeDoc struct {
	objects []TextContent
	table   *fakeTable
	locks   int
	maxLock int
}

func (d *fakeDoc) GraphicObjects() []TextContent { return d.objects }
func (d *fakeDoc) BitmapTable() BitmapTable      { return d.table }
func (d *fakeDoc) AddActionLock() {
	d.locks++
	if d.locks > d.maxLock {
		d.maxLock = d.locks
	}
}
func (d *fakeDoc) RemoveActionLock()    { d.locks-- }
func (d *fakeDoc) IsActionLocked() bool { return d.locks > 0 }

func TestIsInternalURL(t *testing.T) {
	assert.True(t, IsInternalURL("vnd.sun.star.GraphicObject:10000000000"))
	assert.False(t, IsInternalURL("https://example.com/a.png"))
	assert.False(t, IsInternalURL("file:///tmp/a.png"))
}

func TestProperties(t *testing.T) {
	props := []PropertyValue{
		{Name: PropOverwrite, Value: true},
		{Name: PropFilterName, Value: FilterFlatODT},
		{Name: PropFilterName, Value: FilterHTML},
	}

	assert.True(t, BoolProperty(props, PropOverwrite))
	assert.Equal(t, FilterFlatODT, StringProperty(props, PropFilterName))
	assert.Equal(t, "", StringProperty(props, PropDocumentBaseURL))
	assert.False(t, BoolProperty(props, PropFilterName))
}

func TestFixSize(t *testing.T) {
	tests := []struct {
		name     string
		pixel    Size
		expected Size
		fixed    bool
	}{
		{"landscape", Size{100, 50}, Size{2645, 1322}, true},
		{"single pixel", Size{1, 1}, Size{26, 26}, true},
		{"large", Size{1920, 1080}, Size{50784, 28566}, true},
		{"zero width", Size{0, 50}, Size{7, 7}, false},
		{"zero height", Size{100, 0}, Size{7, 7}, false},
		{"vector", Size{}, Size{7, 7}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &fakeGraphic{name: tt.name, pixel: tt.pixel, size: Size{7, 7}}

			fixed, err := FixSize(g, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.fixed, fixed)
			assert.Equal(t, tt.expected, g.size)
			if !tt.fixed {
				assert.Zero(t, g.resized)
			}
		})
	}
}

func TestFixSizeError(t *testing.T) {
	g := &fakeGraphic{name: "a", pixel: Size{10, 10}, failSize: true}
	_, err := FixSize(g, nil)
	assert.Error(t, err)
}

func TestEmbedAllImages(t *testing.T) {
	linked := &fakeGraphic{name: "logo.png", url: "https://example.com/logo.png", pixel: Size{100, 50}}
	duplicate := &fakeGraphic{name: "logo.png", url: "https://example.com/other/logo.png", pixel: Size{100, 50}}
	embedded := &fakeGraphic{name: "inline", url: "vnd.sun.star.GraphicObject:abc", pixel: Size{10, 10}, size: Size{1, 1}}
	vector := &fakeGraphic{name: "diagram.svg", url: "https://example.com/diagram.svg", size: Size{5, 5}}

	doc := &fakeDoc{
		objects: []TextContent{linked, &fakeFrame{name: "Object1"}, duplicate, embedded, vector},
		table:   newFakeTable(),
	}

	report, err := EmbedAllImages(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, EmbedReport{
		Embedded:        2,
		Reused:          1,
		AlreadyEmbedded: 1,
		Resized:         2,
		SizeSkipped:     1,
		NotGraphic:      1,
	}, report)

	assert.Equal(t, 2, doc.table.Len())
	assert.Equal(t, linked.url, duplicate.url)
	assert.True(t, IsInternalURL(linked.url))
	assert.True(t, IsInternalURL(vector.url))
	assert.Equal(t, Size{2645, 1322}, duplicate.size)

	assert.Empty(t, embedded.setURLs)
	assert.Equal(t, Size{1, 1}, embedded.size)
	assert.Equal(t, Size{5, 5}, vector.size)
}

func TestEmbedFixEmbedded(t *testing.T) {
	embedded := &fakeGraphic{name: "inline", url: "vnd.sun.star.GraphicObject:abc", pixel: Size{10, 20}}
	doc := &fakeDoc{objects: []TextContent{embedded}, table: newFakeTable()}

	e := &Embedder{FixEmbedded: true}
	report, err := e.EmbedAll(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, 1, report.AlreadyEmbedded)
	assert.Equal(t, 1, report.Resized)
	assert.Equal(t, Size{264, 529}, embedded.size)
	assert.Zero(t, doc.table.Len())
}

func TestEmbedInsertError(t *testing.T) {
	table := newFakeTable()
	table.fail = errors.New("connection refused")
	g := &fakeGraphic{name: "a.png", url: "https://example.com/a.png"}
	doc := &fakeDoc{objects: []TextContent{g}, table: table}

	_, err := EmbedAllImages(context.Background(), doc)
	assert.ErrorIs(t, err, table.fail)
	assert.Equal(t, "https://example.com/a.png", g.url)
}

func TestWithLockedUI(t *testing.T) {
	doc := &fakeDoc{table: newFakeTable()}

	err := WithLockedUI(doc, func() error {
		assert.True(t, doc.IsActionLocked())
		return nil
	})
	require.NoError(t, err)
	assert.False(t, doc.IsActionLocked())

	boom := errors.New("boom")
	err = WithLockedUI(doc, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, doc.IsActionLocked())

	assert.Panics(t, func() {
		_ = WithLockedUI(doc, func() error { panic("edit failed") })
	})
	assert.False(t, doc.IsActionLocked())
	assert.Equal(t, 1, doc.maxLock)
}

type storeCall struct {
	method string
	url    string
	props  []PropertyValue
}

type fakeStorable struct {
	location string
	calls    []storeCall
}

func (s *fakeStorable) StoreAsURL(_ context.Context, url string, props ...PropertyValue) error {
	s.calls = append(s.calls, storeCall{"StoreAsURL", url, props})
	s.location = url
	return nil
}

func (s *fakeStorable) StoreToURL(_ context.Context, url string, props ...PropertyValue) error {
	s.calls = append(s.calls, storeCall{"StoreToURL", url, props})
	return nil
}

func (s *fakeStorable) Location() string { return s.location }

func TestSaveOperations(t *testing.T) {
	ctx := context.Background()
	doc := &fakeStorable{location: "file:///tmp/in.html"}

	require.NoError(t, SaveAsPdf(ctx, doc, "file:///tmp/out.pdf"))
	assert.Equal(t, "file:///tmp/in.html", doc.Location())

	require.NoError(t, SaveAsFodt(ctx, doc, "file:///tmp/out.fodt"))
	assert.Equal(t, "file:///tmp/out.fodt", doc.Location())

	require.Len(t, doc.calls, 2)
	assert.Equal(t, "StoreToURL", doc.calls[0].method)
	assert.Equal(t, FilterWriterPDF, StringProperty(doc.calls[0].props, PropFilterName))
	assert.True(t, BoolProperty(doc.calls[0].props, PropOverwrite))
	assert.Equal(t, "StoreAsURL", doc.calls[1].method)
	assert.Equal(t, FilterFlatODT, StringProperty(doc.calls[1].props, PropFilterName))
	assert.True(t, BoolProperty(doc.calls[1].props, PropOverwrite))
}

type fakeLoader struct {
	url    string
	target string
	props  []PropertyValue
}

func (l *fakeLoader) LoadComponentFromURL(_ context.Context, url, target string, props ...PropertyValue) (Component, error) {
	l.url, l.target, l.props = url, target, props
	if url == "missing" {
		return nil, errors.New("not found")
	}
	return nopComponent{}, nil
}

type nopComponent struct{}

func (nopComponent) Close() error { return nil }

func TestOpenHTML(t *testing.T) {
	loader := &fakeLoader{}
	_, err := OpenHTML(context.Background(), loader, "page.html",
		PropertyValue{Name: PropDocumentBaseURL, Value: "https://example.com/docs/page"})
	require.NoError(t, err)

	assert.Equal(t, "_default", loader.target)
	assert.Equal(t, FilterHTML, StringProperty(loader.props, PropFilterName))
	assert.Equal(t, "https://example.com/docs/page", StringProperty(loader.props, PropDocumentBaseURL))

	_, err = Open(context.Background(), loader, "missing")
	assert.Error(t, err)
}
