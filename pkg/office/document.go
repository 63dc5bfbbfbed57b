package office

import (
	"context"
	"fmt"
)

// WithLockedUI runs fn while doc holds an action lock. The lock is released
// on every exit path, including panics.
func WithLockedUI(doc ActionLockable, fn func() error) error {
	doc.AddActionLock()
	defer doc.RemoveActionLock()
	return fn()
}

// Open loads source with the loader's default filter detection.
func Open(ctx context.Context, loader ComponentLoader, source string, props ...PropertyValue) (Component, error) {
	doc, err := loader.LoadComponentFromURL(ctx, source, "_default", props...)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", source, err)
	}
	return doc, nil
}

// OpenHTML loads source through the Writer HTML import filter.
func OpenHTML(ctx context.Context, loader ComponentLoader, source string, props ...PropertyValue) (Component, error) {
	props = append([]PropertyValue{{Name: PropFilterName, Value: FilterHTML}}, props...)
	return Open(ctx, loader, source, props...)
}

// SaveAsFodt stores doc as flat ODF text at target, overwriting it. The
// document is rebound to target.
func SaveAsFodt(ctx context.Context, doc Storable, target string) error {
	err := doc.StoreAsURL(ctx, target,
		PropertyValue{Name: PropOverwrite, Value: true},
		PropertyValue{Name: PropFilterName, Value: FilterFlatODT},
	)
	if err != nil {
		return fmt.Errorf("saving %s: %w", target, err)
	}
	return nil
}

// SaveAsPdf exports doc to target as PDF, overwriting it. The document keeps
// its current location.
func SaveAsPdf(ctx context.Context, doc Storable, target string) error {
	err := doc.StoreToURL(ctx, target,
		PropertyValue{Name: PropOverwrite, Value: true},
		PropertyValue{Name: PropFilterName, Value: FilterWriterPDF},
	)
	if err != nil {
		return fmt.Errorf("exporting %s: %w", target, err)
	}
	return nil
}
