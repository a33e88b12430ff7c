package storage

import (
	"strings"

	"github.com/Lllllllleong/invoiceextraction/internal/common"
	"github.com/Lllllllleong/invoiceextraction/internal/models"
)

// DefaultScheme is the storage URI scheme accepted unless configured otherwise.
const DefaultScheme = "s3"

// Locator turns a storage URI into a DocumentRef.
type Locator struct {
	Scheme string
}

// NewLocator returns a Locator for scheme, falling back to DefaultScheme.
func NewLocator(scheme string) Locator {
	if scheme == "" {
		scheme = DefaultScheme
	}
	return Locator{Scheme: scheme}
}

// Locate parses raw as <scheme>://<container>/<key>. The key is taken
// verbatim (no percent-decoding) with leading separators removed.
func (l Locator) Locate(raw string) (models.DocumentRef, error) {
	scheme := l.Scheme
	if scheme == "" {
		scheme = DefaultScheme
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.DocumentRef{}, common.Errorf(common.KindInvalidPath, "the 'path' parameter is missing")
	}

	gotScheme, rest, ok := strings.Cut(raw, "://")
	if !ok || !strings.EqualFold(gotScheme, scheme) {
		return models.DocumentRef{}, common.Errorf(common.KindInvalidPath,
			"path must be a %s URI (e.g. %s://bucket/invoice.pdf), got %q", scheme, scheme, raw)
	}

	container, key, _ := strings.Cut(rest, "/")
	ref := models.DocumentRef{
		Container: container,
		Key:       strings.TrimLeft(key, "/"),
	}
	if ref.Container == "" || ref.Key == "" {
		return models.DocumentRef{}, common.Errorf(common.KindInvalidPath, "could not resolve container and key from %q", raw)
	}
	return ref, nil
}

// URI renders ref back into the locator's scheme.
func (l Locator) URI(ref models.DocumentRef) string {
	return l.Scheme + "://" + ref.Container + "/" + ref.Key
}
