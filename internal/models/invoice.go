package models

import "time"

// Field names of the extraction contract. The model is asked for exactly
// these keys.
const (
	FieldInvoiceNumber          = "invoice_number"
	FieldDocumentType           = "document_type"
	FieldInvoiceDate            = "invoice_date"
	FieldDueDate                = "due_date"
	FieldTotalAmount            = "total_amount"
	FieldCurrency               = "currency"
	FieldIssuerName             = "issuer_name"
	FieldIssuerRUT              = "issuer_rut"
	FieldIssuerAddress          = "issuer_address"
	FieldIssuerBusinessActivity = "issuer_business_activity"
	FieldReceiverName           = "receiver_name"
	FieldReceiverRUT            = "receiver_rut"
	FieldReceiverAddress        = "receiver_address"
	FieldPaymentMethod          = "payment_method"
	FieldPaymentTerms           = "payment_terms"
	FieldPurchaseOrder          = "purchase_order"
	FieldDescription            = "description"
	FieldNotes                  = "notes"
)

// InvoiceFields lists the contract in prompt order.
var InvoiceFields = []string{
	FieldInvoiceNumber,
	FieldDocumentType,
	FieldInvoiceDate,
	FieldDueDate,
	FieldTotalAmount,
	FieldCurrency,
	FieldIssuerName,
	FieldIssuerRUT,
	FieldIssuerAddress,
	FieldIssuerBusinessActivity,
	FieldReceiverName,
	FieldReceiverRUT,
	FieldReceiverAddress,
	FieldPaymentMethod,
	FieldPaymentTerms,
	FieldPurchaseOrder,
	FieldDescription,
	FieldNotes,
}

// DateLayout is the only date format accepted from the model and emitted in
// the final record.
const DateLayout = "2006-01-02"

// ExtractedInvoice is the untrusted candidate decoded from model output.
// Values keep whatever JSON type the model produced.
type ExtractedInvoice map[string]any

// FieldWarning records a field that was dropped to null during normalization.
type FieldWarning struct {
	Field  string
	Value  any
	Reason string
}

// NormalizedInvoice carries the contract fields after repair. Every optional
// field is nil when absent or invalid; TotalAmount defaults to 0.
type NormalizedInvoice struct {
	InvoiceNumber          *string `json:"invoice_number"`
	DocumentType           *string `json:"document_type"`
	InvoiceDate            *string `json:"invoice_date"`
	DueDate                *string `json:"due_date"`
	TotalAmount            float64 `json:"total_amount"`
	Currency               *string `json:"currency"`
	IssuerName             *string `json:"issuer_name"`
	IssuerRUT              *string `json:"issuer_rut"`
	IssuerAddress          *string `json:"issuer_address"`
	IssuerBusinessActivity *string `json:"issuer_business_activity"`
	ReceiverName           *string `json:"receiver_name"`
	ReceiverRUT            *string `json:"receiver_rut"`
	ReceiverAddress        *string `json:"receiver_address"`
	PaymentMethod          *string `json:"payment_method"`
	PaymentTerms           *string `json:"payment_terms"`
	PurchaseOrder          *string `json:"purchase_order"`
	Description            *string `json:"description"`
	Notes                  *string `json:"notes"`

	Warnings []FieldWarning `json:"-"`
}

// DateSummary is the output of date processing. Cause is set when processing
// failed internally and the zero summary was substituted.
type DateSummary struct {
	InvoiceDate *time.Time
	DueDate     *time.Time
	DaysOverdue int
	CurrentDate time.Time
	Cause       error
}

// FinalRecord is the terminal artifact returned to the caller and forwarded
// to the webhook.
type FinalRecord struct {
	InvoiceNumber          *string `json:"invoice_number"`
	DocumentType           *string `json:"document_type"`
	InvoiceDate            *string `json:"invoice_date"`
	DueDate                *string `json:"due_date"`
	TotalAmount            float64 `json:"total_amount"`
	Currency               *string `json:"currency"`
	IssuerName             *string `json:"issuer_name"`
	IssuerRUT              *string `json:"issuer_rut"`
	IssuerAddress          *string `json:"issuer_address"`
	IssuerBusinessActivity *string `json:"issuer_business_activity"`
	ReceiverName           *string `json:"receiver_name"`
	ReceiverRUT            *string `json:"receiver_rut"`
	ReceiverAddress        *string `json:"receiver_address"`
	PaymentMethod          *string `json:"payment_method"`
	PaymentTerms           *string `json:"payment_terms"`
	PurchaseOrder          *string `json:"purchase_order"`
	Description            *string `json:"description"`
	Notes                  *string `json:"notes"`
	DaysOverdue            int     `json:"days_overdue"`
	CurrentDate            string  `json:"current_date"`
	BatchID                *string `json:"batch_id"`
	DocumentKey            string  `json:"document_key"`
}
