package models

import "strings"

// These structs define the invocation input and the envelope returned to the
// caller by both the HTTP and the CloudEvent entry points.

// Environment selects which webhook endpoint receives the final record.
type Environment string

const (
	EnvironmentProduction  Environment = "production"
	EnvironmentDevelopment Environment = "development"
)

// ParseEnvironment maps a caller-supplied value to an Environment. Empty means
// production. The second return is false when the value was not recognised and
// production was substituted.
func ParseEnvironment(raw string) (Environment, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(EnvironmentProduction):
		return EnvironmentProduction, true
	case string(EnvironmentDevelopment):
		return EnvironmentDevelopment, true
	default:
		return EnvironmentProduction, false
	}
}

// InvoiceRequest is the input for the invoice extraction function.
type InvoiceRequest struct {
	Path        string `json:"path"`
	BatchID     string `json:"batchId,omitempty"`
	Environment string `json:"environment,omitempty"`
}

// Response is the caller-facing envelope. Body holds the JSON encoding of
// ResponseBody.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// ResponseBody is the decoded form of Response.Body.
type ResponseBody struct {
	Message        string       `json:"message,omitempty"`
	ExtractedData  *FinalRecord `json:"extractedData,omitempty"`
	ProcessingTime float64      `json:"processingTime"`
	Error          string       `json:"error,omitempty"`
	ModelError     string       `json:"modelError,omitempty"`
}
