package fodt

import (
	"context"
	"crypto/sha1"
	"encoding/hex"

	"github.com/xhad/docpage/pkg/office"
)

const graphicObjectScheme = "vnd.sun.star.GraphicObject:"

// BitmapTable holds the images embedded in a document, keyed by display name.
// Identical image data shares one internal URL.
type BitmapTable struct {
	names map[string]string
	data  map[string][]byte
	fetch func(ctx context.Context, url string) ([]byte, error)
}

var _ office.BitmapTable = (*BitmapTable)(nil)

func newBitmapTable(fetch func(ctx context.Context, url string) ([]byte, error)) *BitmapTable {
	return &BitmapTable{
		names: make(map[string]string),
		data:  make(map[string][]byte),
		fetch: fetch,
	}
}

// Insert embeds the image at url under name and returns its internal URL.
// A name already present keeps its first image.
func (t *BitmapTable) Insert(ctx context.Context, name, url string) (string, error) {
	if ref, ok := t.names[name]; ok {
		return ref, nil
	}
	if office.IsInternalURL(url) {
		if _, ok := t.data[url]; ok {
			t.names[name] = url
			return url, nil
		}
	}

	data, err := t.fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return t.add(name, data), nil
}

func (t *BitmapTable) Lookup(name string) (string, bool) {
	ref, ok := t.names[name]
	return ref, ok
}

func (t *BitmapTable) Len() int {
	return len(t.names)
}

// Data returns the bytes behind an internal URL.
func (t *BitmapTable) Data(ref string) ([]byte, bool) {
	data, ok := t.data[ref]
	return data, ok
}

func (t *BitmapTable) add(name string, data []byte) string {
	sum := sha1.Sum(data)
	ref := graphicObjectScheme + hex.EncodeToString(sum[:])
	t.data[ref] = data
	t.names[name] = ref
	return ref
}
