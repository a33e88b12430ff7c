package extract

import (
	"bytes"
	"fmt"

	"github.com/Lllllllleong/invoiceextraction/internal/models"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	api.DisableConfigDir()
}

// PDFPageCount reads the page count of a PDF payload in relaxed validation
// mode. Callers treat a failure as a warning: the model may still be able to
// read a document pdfcpu rejects.
func PDFPageCount(doc models.RawDocument) (int, error) {
	if doc.MIMEType != "application/pdf" {
		return 0, fmt.Errorf("not a pdf: %s", doc.MIMEType)
	}
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(doc.Bytes), cfg)
	if err != nil {
		return 0, fmt.Errorf("failed to read pdf page count: %w", err)
	}
	return n, nil
}
