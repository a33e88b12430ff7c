package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/Lllllllleong/invoiceextraction/internal/common"
	"github.com/Lllllllleong/invoiceextraction/internal/models"
)

// StripFences removes ```json and ``` markers and surrounding whitespace.
func StripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// ParseResponse decodes model text into a candidate invoice. Anything that is
// not a JSON object fails with MalformedResponseError.
func ParseResponse(raw string) (models.ExtractedInvoice, error) {
	cleaned := StripFences(raw)

	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	dec.UseNumber()

	var candidate models.ExtractedInvoice
	if err := dec.Decode(&candidate); err != nil {
		return nil, common.NewAppError(common.KindMalformedResponse, "model response is not a JSON object", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, common.Errorf(common.KindMalformedResponse, "model response has trailing content after the JSON object")
	}
	if candidate == nil {
		return nil, common.Errorf(common.KindMalformedResponse, "model response is null")
	}
	return candidate, nil
}
