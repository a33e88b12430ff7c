// Package extract turns a fetched document into a candidate invoice record
// using a multimodal model.
package extract

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Lllllllleong/invoiceextraction/internal/common"
	"github.com/Lllllllleong/invoiceextraction/internal/models"
)

// Generator is the model collaborator: it receives the prompt and the
// document and answers with text.
type Generator interface {
	Generate(ctx context.Context, prompt string, doc models.RawDocument) (string, error)
}

// ClientConfig bounds a single model call.
type ClientConfig struct {
	// Timeout caps one call regardless of the remaining budget.
	Timeout time.Duration
	// SafetyMargin is kept back from the caller's deadline for the work that
	// follows the model call.
	SafetyMargin time.Duration
}

// Client invokes the model within the caller's remaining time budget.
type Client struct {
	generator Generator
	config    ClientConfig
	now       func() time.Time
}

// NewClient creates an extraction client over generator.
func NewClient(generator Generator, config ClientConfig) *Client {
	return &Client{generator: generator, config: config, now: time.Now}
}

// Extract submits doc with the invoice prompt. It never returns an error: a
// failed or timed-out call yields an outcome whose Cause is a
// ModelInvocationError or ModelTimeoutError.
func (c *Client) Extract(ctx context.Context, logger *slog.Logger, doc models.RawDocument) models.ModelOutcome {
	if logger == nil {
		logger = slog.Default()
	}

	budget := c.config.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := deadline.Sub(c.now()) - c.config.SafetyMargin
		if remaining <= 0 {
			logger.Error("No time budget left for the model call", "remainingMs", deadline.Sub(c.now()).Milliseconds())
			return models.ModelOutcome{Cause: common.Errorf(common.KindModelTimeout, "remaining time budget exhausted before the model call")}
		}
		if budget <= 0 || remaining < budget {
			budget = remaining
		}
	}

	callCtx := ctx
	if budget > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	logger.Info("Sending document to the model.", "mimeType", doc.MIMEType, "sizeBytes", doc.SizeBytes, "budget", budget.String())
	start := time.Now()
	text, err := c.generator.Generate(callCtx, InvoicePrompt, doc)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			logger.Error("Model call exceeded its time budget", "error", err, "elapsedMs", elapsed.Milliseconds())
			return models.ModelOutcome{Cause: common.NewAppError(common.KindModelTimeout, "model call exceeded its time budget", err)}
		}
		logger.Error("Model call failed", "error", err, "elapsedMs", elapsed.Milliseconds())
		return models.ModelOutcome{Cause: common.NewAppError(common.KindModelInvocation, "model call failed", err)}
	}
	if strings.TrimSpace(text) == "" {
		logger.Error("Model returned an empty response", "elapsedMs", elapsed.Milliseconds())
		return models.ModelOutcome{Cause: common.Errorf(common.KindModelInvocation, "model returned an empty response")}
	}

	logger.Info("Model response received.", "elapsedMs", elapsed.Milliseconds(), "responseBytes", len(text))
	return models.ModelOutcome{Text: text}
}
