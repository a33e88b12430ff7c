package services

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Lllllllleong/invoiceextraction/internal/models"
)

// SuccessMessage is the message of every 200 envelope.
const SuccessMessage = "Invoice processed successfully"

// Assemble merges the normalized fields, the processed dates and the caller's
// metadata into the final record. The summary's dates replace the normalized
// ones.
func Assemble(n models.NormalizedInvoice, dates models.DateSummary, batchID, documentKey string) models.FinalRecord {
	record := models.FinalRecord{
		InvoiceNumber:          n.InvoiceNumber,
		DocumentType:           n.DocumentType,
		InvoiceDate:            formatDate(dates.InvoiceDate),
		DueDate:                formatDate(dates.DueDate),
		TotalAmount:            n.TotalAmount,
		Currency:               n.Currency,
		IssuerName:             n.IssuerName,
		IssuerRUT:              n.IssuerRUT,
		IssuerAddress:          n.IssuerAddress,
		IssuerBusinessActivity: n.IssuerBusinessActivity,
		ReceiverName:           n.ReceiverName,
		ReceiverRUT:            n.ReceiverRUT,
		ReceiverAddress:        n.ReceiverAddress,
		PaymentMethod:          n.PaymentMethod,
		PaymentTerms:           n.PaymentTerms,
		PurchaseOrder:          n.PurchaseOrder,
		Description:            n.Description,
		Notes:                  n.Notes,
		DaysOverdue:            dates.DaysOverdue,
		DocumentKey:            documentKey,
	}
	if !dates.CurrentDate.IsZero() {
		record.CurrentDate = dates.CurrentDate.Format(models.DateLayout)
	}
	if batchID != "" {
		record.BatchID = &batchID
	}
	return record
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(models.DateLayout)
	return &s
}

func successResponse(start time.Time, record models.FinalRecord, modelErr error) models.Response {
	body := models.ResponseBody{
		Message:        SuccessMessage,
		ExtractedData:  &record,
		ProcessingTime: time.Since(start).Seconds(),
	}
	if modelErr != nil {
		body.ModelError = modelErr.Error()
	}
	return buildResponse(http.StatusOK, body)
}

// FailureResponse builds the 500 envelope carrying err and the time elapsed
// since start.
func FailureResponse(start time.Time, err error) models.Response {
	return buildResponse(http.StatusInternalServerError, models.ResponseBody{
		Error:          err.Error(),
		ProcessingTime: time.Since(start).Seconds(),
	})
}

func buildResponse(status int, body models.ResponseBody) models.Response {
	encoded, err := json.Marshal(body)
	if err != nil {
		slog.Error("Failed to encode response body", "error", err)
		return models.Response{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"error":"failed to encode response","processingTime":0}`,
		}
	}
	return models.Response{StatusCode: status, Body: string(encoded)}
}
