package extract

import (
	"fmt"
	"strings"

	"github.com/Lllllllleong/invoiceextraction/internal/models"
)

// SystemPrompt frames the model as an invoice analyst.
const SystemPrompt = "You are an expert assistant for analysing invoices. You read the attached document and return the requested fields as a single JSON object, with no surrounding prose."

var fieldDescriptions = map[string]string{
	models.FieldInvoiceNumber:          "invoice or folio number as printed",
	models.FieldDocumentType:           "document type, e.g. \"factura electrónica\" or \"boleta\"",
	models.FieldInvoiceDate:            "issue date, YYYY-MM-DD",
	models.FieldDueDate:                "due date, YYYY-MM-DD",
	models.FieldTotalAmount:            "total amount as a number without currency symbols or thousands separators",
	models.FieldCurrency:               "ISO 4217 currency code",
	models.FieldIssuerName:             "legal name of the issuer",
	models.FieldIssuerRUT:              "tax ID (RUT) of the issuer, e.g. 12.345.678-5",
	models.FieldIssuerAddress:          "address of the issuer",
	models.FieldIssuerBusinessActivity: "business activity (giro) of the issuer",
	models.FieldReceiverName:           "legal name of the receiver",
	models.FieldReceiverRUT:            "tax ID (RUT) of the receiver, e.g. 76.543.210-K",
	models.FieldReceiverAddress:        "address of the receiver",
	models.FieldPaymentMethod:          "payment method, e.g. transfer, credit, cash",
	models.FieldPaymentTerms:           "payment terms, e.g. 30 days",
	models.FieldPurchaseOrder:          "referenced purchase order number",
	models.FieldDescription:            "short summary of the goods or services billed",
	models.FieldNotes:                  "any other relevant remark printed on the invoice",
}

// InvoicePrompt is the fixed extraction contract sent with every document.
var InvoicePrompt = buildPrompt()

func buildPrompt() string {
	var b strings.Builder
	b.WriteString("Analyse the attached invoice and extract the following information:\n\n")
	for i, field := range models.InvoiceFields {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, field, fieldDescriptions[field])
	}
	b.WriteString(`
Return ONLY a JSON object with exactly these keys.

- Dates must use the format YYYY-MM-DD.
- total_amount must be a number. If it cannot be found, use 0.0.
- Every other field is a string. If it cannot be found, use null.
- Do not add keys that are not listed above.`)
	return b.String()
}
