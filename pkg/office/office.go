// Package office describes the capabilities of an office document model and
// implements the editing operations the tool performs on top of them:
// embedding linked images, batching edits under an action lock and storing
// documents through named export filters.
//
// Documents declare capabilities by implementing the small interfaces below.
// Callers type-assert rather than querying a service manager at runtime.
package office

import (
	"context"
	"errors"
	"strings"
)

// Filter names understood by the office suite.
const (
	FilterHTML      = "HTML (StarWriter)"
	FilterFlatODT   = "OpenDocument Text Flat XML"
	FilterWriterPDF = "writer_pdf_Export"
)

// Media descriptor property names.
const (
	PropFilterName      = "FilterName"
	PropOverwrite       = "Overwrite"
	PropDocumentBaseURL = "DocumentBaseURL"
)

// InternalURLPrefix marks graphic URLs that point into the document's own
// storage.
const InternalURLPrefix = "vnd.sun."

// ErrUnsupportedFilter is returned by backends for filter names they cannot
// handle.
var ErrUnsupportedFilter = errors.New("office: unsupported filter")

// PropertyValue is a named argument passed to load and store calls.
type PropertyValue struct {
	Name  string
	Value any
}

// Size is a width/height pair. Display sizes are in 1/100 mm, pixel sizes in
// pixels.
type Size struct {
	Width  int
	Height int
}

// Component is a loaded document.
type Component interface {
	Close() error
}

// ComponentLoader opens documents from URLs or paths.
type ComponentLoader interface {
	LoadComponentFromURL(ctx context.Context, url, target string, props ...PropertyValue) (Component, error)
}

// Storable documents can be written through an export filter. StoreAsURL
// rebinds the document to url; StoreToURL writes a copy.
type Storable interface {
	StoreAsURL(ctx context.Context, url string, props ...PropertyValue) error
	StoreToURL(ctx context.Context, url string, props ...PropertyValue) error
	Location() string
}

// ActionLockable documents defer view and undo updates while locked.
type ActionLockable interface {
	AddActionLock()
	RemoveActionLock()
	IsActionLocked() bool
}

// TextContent is any object anchored in document text.
type TextContent interface {
	Name() string
}

// GraphicObject is a text graphic whose image can be linked or embedded.
type GraphicObject interface {
	TextContent
	GraphicURL() string
	SetGraphicURL(url string) error
	// SizePixel is the pixel size of the underlying bitmap, zero when it
	// cannot be determined.
	SizePixel() Size
	Size() Size
	SetSize(s Size) error
}

// BitmapTable maps display names to embedded graphic URLs. Insert is
// idempotent: inserting a known name returns its existing URL.
type BitmapTable interface {
	Insert(ctx context.Context, name, url string) (string, error)
	Lookup(name string) (string, bool)
	Len() int
}

// GraphicObjectsSupplier exposes the graphic objects of a text document.
type GraphicObjectsSupplier interface {
	GraphicObjects() []TextContent
}

// TextDocument is what the image embedder needs from a document.
type TextDocument interface {
	GraphicObjectsSupplier
	BitmapTable() BitmapTable
}

// IsInternalURL reports whether url references embedded storage.
func IsInternalURL(url string) bool {
	return strings.Contains(url, InternalURLPrefix)
}

// Property returns the value of the first property named name.
func Property(props []PropertyValue, name string) (any, bool) {
	for _, p := range props {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// StringProperty returns a string property or "".
func StringProperty(props []PropertyValue, name string) string {
	v, ok := Property(props, name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// BoolProperty returns a bool property or false.
func BoolProperty(props []PropertyValue, name string) bool {
	v, ok := Property(props, name)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}
