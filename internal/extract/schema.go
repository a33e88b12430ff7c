package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Lllllllleong/invoiceextraction/internal/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildInvoiceJSONSchema returns the extraction contract as a JSON-Schema map.
func BuildInvoiceJSONSchema() map[string]any {
	nullableString := map[string]any{"type": []string{"string", "null"}}
	date := map[string]any{
		"anyOf": []any{
			map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
			map[string]any{"type": "null"},
		},
	}

	props := map[string]any{}
	for _, field := range models.InvoiceFields {
		props[field] = nullableString
	}
	props[models.FieldInvoiceDate] = date
	props[models.FieldDueDate] = date
	props[models.FieldTotalAmount] = map[string]any{"type": "number"}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func invoiceSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(BuildInvoiceJSONSchema())
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiledSchema, schemaErr = jsonschema.CompileString("invoice.json", string(b))
	})
	return compiledSchema, schemaErr
}

// SchemaViolations checks candidate against the contract and returns a
// description per violation. Violations are diagnostics only; the normalizer
// repairs or nulls the offending fields.
func SchemaViolations(candidate models.ExtractedInvoice) ([]string, error) {
	schema, err := invoiceSchema()
	if err != nil {
		return nil, err
	}

	err = schema.Validate(map[string]any(candidate))
	if err == nil {
		return nil, nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, err
	}

	var out []string
	collectLeaves(verr, &out)
	sort.Strings(out)
	return out, nil
}

func collectLeaves(verr *jsonschema.ValidationError, out *[]string) {
	if len(verr.Causes) == 0 {
		loc := verr.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, fmt.Sprintf("%s: %s", loc, verr.Message))
		return
	}
	for _, cause := range verr.Causes {
		collectLeaves(cause, out)
	}
}
