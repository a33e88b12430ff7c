package storage

import (
	"testing"

	"github.com/Lllllllleong/invoiceextraction/internal/common"
	"github.com/Lllllllleong/invoiceextraction/internal/models"
)

func TestLocatorLocate(t *testing.T) {
	loc := NewLocator("")
	tests := []struct {
		raw  string
		want models.DocumentRef
	}{
		{"s3://bucket/key/sub.pdf", models.DocumentRef{Container: "bucket", Key: "key/sub.pdf"}},
		{"s3://facturas/2024/factura-123.PDF", models.DocumentRef{Container: "facturas", Key: "2024/factura-123.PDF"}},
		{"s3://bucket//leading.pdf", models.DocumentRef{Container: "bucket", Key: "leading.pdf"}},
		{"S3://bucket/upper-scheme.jpg", models.DocumentRef{Container: "bucket", Key: "upper-scheme.jpg"}},
		{"s3://bucket/with%20escape.pdf", models.DocumentRef{Container: "bucket", Key: "with%20escape.pdf"}},
	}
	for _, tt := range tests {
		got, err := loc.Locate(tt.raw)
		if err != nil {
			t.Errorf("Locate(%q) error = %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Locate(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestLocatorRejects(t *testing.T) {
	loc := NewLocator("s3")
	for _, raw := range []string{
		"",
		"   ",
		"gs://bucket/key.pdf",
		"https://bucket.s3.amazonaws.com/key.pdf",
		"bucket/key.pdf",
		"s3://bucket",
		"s3://bucket/",
		"s3:///key.pdf",
	} {
		_, err := loc.Locate(raw)
		if common.KindOf(err) != common.KindInvalidPath {
			t.Errorf("Locate(%q) error kind = %q, want %q (err=%v)", raw, common.KindOf(err), common.KindInvalidPath, err)
		}
	}
}

func TestLocatorCustomScheme(t *testing.T) {
	loc := NewLocator("gs")
	ref, err := loc.Locate("gs://invoices/a.pdf")
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if got := loc.URI(ref); got != "gs://invoices/a.pdf" {
		t.Errorf("URI() = %q", got)
	}
	if _, err := loc.Locate("s3://invoices/a.pdf"); common.KindOf(err) != common.KindInvalidPath {
		t.Errorf("expected InvalidPathError for s3 URI on gs locator, got %v", err)
	}
}
