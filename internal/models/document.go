package models

// DocumentRef identifies one object in the document store.
// Both fields are non-empty once produced by the locator.
type DocumentRef struct {
	Container string `json:"container"`
	Key       string `json:"key"`
}

// RawDocument is the fetched payload handed to the model. It lives only for
// the duration of one invocation and is never persisted.
type RawDocument struct {
	Bytes     []byte `json:"-"`
	SizeBytes int64  `json:"sizeBytes"`
	MIMEType  string `json:"mimeType"`
}

// ModelOutcome is the result of one model call. A non-nil Cause means the
// call failed and the pipeline continues with an empty candidate.
type ModelOutcome struct {
	Text  string
	Cause error
}

// Degraded reports whether the model call failed.
func (o ModelOutcome) Degraded() bool {
	return o.Cause != nil
}
