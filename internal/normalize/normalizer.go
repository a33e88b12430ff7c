package normalize

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/Lllllllleong/invoiceextraction/internal/models"
)

// Normalize copies the contract fields out of candidate, replacing anything
// absent or unusable with nil (or 0 for the amount). Tax IDs are
// canonicalized; every value dropped on the way is reported in Warnings and
// logged.
func Normalize(logger *slog.Logger, candidate models.ExtractedInvoice) models.NormalizedInvoice {
	if logger == nil {
		logger = slog.Default()
	}
	n := &normalizer{candidate: candidate}

	out := models.NormalizedInvoice{
		InvoiceNumber:          n.text(models.FieldInvoiceNumber),
		DocumentType:           n.text(models.FieldDocumentType),
		InvoiceDate:            n.text(models.FieldInvoiceDate),
		DueDate:                n.text(models.FieldDueDate),
		TotalAmount:            n.amount(models.FieldTotalAmount),
		Currency:               n.text(models.FieldCurrency),
		IssuerName:             n.text(models.FieldIssuerName),
		IssuerRUT:              n.rut(models.FieldIssuerRUT),
		IssuerAddress:          n.text(models.FieldIssuerAddress),
		IssuerBusinessActivity: n.text(models.FieldIssuerBusinessActivity),
		ReceiverName:           n.text(models.FieldReceiverName),
		ReceiverRUT:            n.rut(models.FieldReceiverRUT),
		ReceiverAddress:        n.text(models.FieldReceiverAddress),
		PaymentMethod:          n.text(models.FieldPaymentMethod),
		PaymentTerms:           n.text(models.FieldPaymentTerms),
		PurchaseOrder:          n.text(models.FieldPurchaseOrder),
		Description:            n.text(models.FieldDescription),
		Notes:                  n.text(models.FieldNotes),
		Warnings:               n.warnings,
	}

	for _, w := range out.Warnings {
		logger.Warn("Field dropped during normalization", "field", w.Field, "value", w.Value, "reason", w.Reason)
	}
	return out
}

type normalizer struct {
	candidate models.ExtractedInvoice
	warnings  []models.FieldWarning
}

func (n *normalizer) warn(field string, value any, reason string) {
	n.warnings = append(n.warnings, models.FieldWarning{Field: field, Value: value, Reason: reason})
}

// text renders a scalar as a trimmed string. Blank strings and JSON null are
// absent; nested objects and arrays are dropped with a warning.
func (n *normalizer) text(field string) *string {
	raw, ok := n.candidate[field]
	if !ok || raw == nil {
		return nil
	}

	var s string
	switch v := raw.(type) {
	case string:
		s = strings.TrimSpace(v)
	case json.Number:
		s = numberText(v)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(v)
	default:
		n.warn(field, raw, fmt.Sprintf("unsupported value type %T", raw))
		return nil
	}

	if s == "" {
		return nil
	}
	return &s
}

// numberText renders n without an exponent. Literals without one are kept
// verbatim so long digit runs keep their precision.
func numberText(n json.Number) string {
	lit := n.String()
	if !strings.ContainsAny(lit, "eE") {
		return lit
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) {
		return lit
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// rut returns the canonical tax ID or nil.
func (n *normalizer) rut(field string) *string {
	s := n.text(field)
	if s == nil {
		return nil
	}
	canonical, err := NormalizeRUT(*s)
	if err != nil {
		n.warn(field, *s, err.Error())
		return nil
	}
	return &canonical
}

// amount accepts JSON numbers and numeric strings, defaulting to 0.
func (n *normalizer) amount(field string) float64 {
	raw, ok := n.candidate[field]
	if !ok || raw == nil {
		return 0
	}

	var (
		f   float64
		err error
	)
	switch v := raw.(type) {
	case json.Number:
		f, err = v.Float64()
	case float64:
		f = v
	case string:
		if strings.TrimSpace(v) == "" {
			return 0
		}
		f, err = ParseAmount(v)
	default:
		err = fmt.Errorf("unsupported value type %T", raw)
	}

	if err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
		err = fmt.Errorf("not a finite number")
	}
	if err != nil {
		n.warn(field, raw, err.Error())
		return 0
	}
	return f
}

// ParseAmount parses a monetary string such as "$1.190.000", "1,190.50" or
// "CLP 1.190,50". When both separators appear the rightmost one is the
// decimal mark. A lone separator followed by exactly three digits, or one
// that repeats, groups thousands.
func ParseAmount(raw string) (float64, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" || s == "-" {
		return 0, fmt.Errorf("amount %q has no digits", raw)
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s = resolveSingleSeparator(s, ",")
	case lastDot >= 0:
		s = resolveSingleSeparator(s, ".")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", raw, err)
	}
	return f, nil
}

func resolveSingleSeparator(s, sep string) string {
	if strings.Count(s, sep) > 1 || len(s)-strings.LastIndex(s, sep)-1 == 3 {
		return strings.ReplaceAll(s, sep, "")
	}
	return strings.Replace(s, sep, ".", 1)
}
