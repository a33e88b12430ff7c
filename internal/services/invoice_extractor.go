package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Lllllllleong/invoiceextraction/internal/common"
	"github.com/Lllllllleong/invoiceextraction/internal/config"
	"github.com/Lllllllleong/invoiceextraction/internal/delivery"
	"github.com/Lllllllleong/invoiceextraction/internal/extract"
	"github.com/Lllllllleong/invoiceextraction/internal/gcp"
	"github.com/Lllllllleong/invoiceextraction/internal/models"
	"github.com/Lllllllleong/invoiceextraction/internal/normalize"
	"github.com/Lllllllleong/invoiceextraction/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const connectTimeout = 10 * time.Second

// Notifier delivers the final record to a webhook URL.
type Notifier interface {
	Notify(ctx context.Context, logger *slog.Logger, url string, record models.FinalRecord) delivery.Outcome
}

// Dependencies are the collaborators of the pipeline. Tests substitute fakes.
type Dependencies struct {
	Store     storage.ObjectStore
	Generator extract.Generator
	Notifier  Notifier
	// Now defaults to time.Now and drives the date processor.
	Now func() time.Time
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// InvoiceExtractor holds the process-wide configuration and clients shared
// read-only by every invocation.
type InvoiceExtractor struct {
	config   *config.Config
	locator  storage.Locator
	fetcher  *storage.Fetcher
	model    *extract.Client
	dates    *normalize.DateProcessor
	notifier Notifier
	logger   *slog.Logger
	closers  []func() error
}

// invocationStats are the per-invocation diagnostics reported on the final
// log record.
type invocationStats struct {
	pages            int
	schemaViolations int
	fieldWarnings    int
}

// NewInvoiceExtractor builds the storage, model and webhook clients described
// by cfg.
func NewInvoiceExtractor(ctx context.Context, cfg *config.Config) (*InvoiceExtractor, error) {
	var (
		deps    Dependencies
		closers []func() error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		switch cfg.Storage.Backend {
		case config.StorageGCS:
			store, err := gcp.NewGCSStore(gctx)
			if err != nil {
				return err
			}
			deps.Store = store
			closers = append(closers, store.Close)
		default:
			httpClient := common.NewHTTPClient(connectTimeout, cfg.Timeouts.Fetch)
			store, err := storage.NewS3Store(gctx, cfg.Storage.AWSRegion, httpClient)
			if err != nil {
				return err
			}
			deps.Store = store
		}
		return nil
	})

	var vertexClose func() error
	g.Go(func() error {
		switch cfg.Model.Backend {
		case config.BackendVertex:
			client, err := gcp.NewVertexClient(gctx, cfg.Model.ProjectID, cfg.Model.Region, cfg.Model.Name, cfg.Model.CredentialsFile)
			if err != nil {
				return err
			}
			deps.Generator = client
			vertexClose = client.Close
		default:
			client, err := gcp.NewGeminiClient(cfg.Model.APIKey, cfg.Model.Name, cfg.Model.BaseURL, newModelHTTPClient(cfg))
			if err != nil {
				return err
			}
			deps.Generator = client
		}
		return nil
	})

	g.Go(func() error {
		notifier, err := delivery.NewNotifier(delivery.Config{
			ConnectTimeout: cfg.Timeouts.WebhookConnect,
			ReadTimeout:    cfg.Timeouts.WebhookRead,
		})
		if err != nil {
			return err
		}
		deps.Notifier = notifier
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}
	if vertexClose != nil {
		closers = append(closers, vertexClose)
	}

	ext := New(cfg, deps)
	ext.closers = closers
	return ext, nil
}

// newModelHTTPClient bounds Gemini REST calls by the model timeout plus the
// connect budget.
func newModelHTTPClient(cfg *config.Config) *http.Client {
	return common.NewHTTPClient(connectTimeout, cfg.Timeouts.Model)
}

// New wires an extractor from explicit dependencies.
func New(cfg *config.Config, deps Dependencies) *InvoiceExtractor {
	dates := normalize.NewDateProcessor(cfg.Location())
	if deps.Now != nil {
		dates = dates.WithClock(deps.Now)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &InvoiceExtractor{
		config:  cfg,
		locator: storage.NewLocator(cfg.StorageScheme()),
		fetcher: storage.NewFetcher(deps.Store, storage.FetcherConfig{
			Attempts: cfg.Timeouts.FetchAttempts,
			Timeout:  cfg.Timeouts.Fetch,
		}),
		model: extract.NewClient(deps.Generator, extract.ClientConfig{
			Timeout:      cfg.Timeouts.Model,
			SafetyMargin: cfg.Timeouts.ModelMargin,
		}),
		dates:    dates,
		notifier: deps.Notifier,
		logger:   logger,
	}
}

// Close releases the clients built by NewInvoiceExtractor.
func (e *InvoiceExtractor) Close() error {
	var firstErr error
	for _, c := range e.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ProcessJSON decodes an invocation payload and processes it. A payload that
// is not a JSON object fails like any other request error.
func (e *InvoiceExtractor) ProcessJSON(ctx context.Context, payload []byte) models.Response {
	start := time.Now()
	var req models.InvoiceRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		e.logger.Error("Could not decode invocation payload", "error", err)
		return FailureResponse(start, fmt.Errorf("invalid request payload: %w", err))
	}
	return e.process(ctx, start, req)
}

// Process runs one invocation and always returns an envelope: 200 on success
// or degraded success, 500 otherwise.
func (e *InvoiceExtractor) Process(ctx context.Context, req models.InvoiceRequest) models.Response {
	return e.process(ctx, time.Now(), req)
}

func (e *InvoiceExtractor) process(ctx context.Context, start time.Time, req models.InvoiceRequest) (resp models.Response) {
	logger := e.logger.With("invocationId", uuid.NewString(), "path", req.Path, "batchId", req.BatchID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Unhandled failure while processing invoice", "panic", r)
			resp = FailureResponse(start, fmt.Errorf("internal error: %v", r))
		}
	}()

	env, known := models.ParseEnvironment(req.Environment)
	if !known {
		logger.Warn("Unknown environment; using production", "environment", req.Environment)
	}

	record, stats, modelErr, err := e.run(ctx, logger, req)
	if err != nil {
		logger.Error("Invoice processing failed", "error", err, "kind", common.KindOf(err))
		return FailureResponse(start, err)
	}

	if e.notifier != nil {
		e.notifier.Notify(ctx, logger, e.config.WebhookURL(string(env)), record)
	}

	resp = successResponse(start, record, modelErr)
	logger.Info("Invoice processed.",
		"degraded", modelErr != nil,
		"pages", stats.pages,
		"schemaViolations", stats.schemaViolations,
		"fieldWarnings", stats.fieldWarnings,
		"processingTime", time.Since(start).Seconds(),
	)
	return resp
}

// run executes the pipeline up to the final record. modelErr is set on the
// degraded path; err fails the request.
func (e *InvoiceExtractor) run(ctx context.Context, logger *slog.Logger, req models.InvoiceRequest) (record models.FinalRecord, stats invocationStats, modelErr error, err error) {
	ref, err := e.locator.Locate(req.Path)
	if err != nil {
		return record, stats, nil, err
	}
	logger = logger.With("documentKey", ref.Key)
	logger.Info("Processing invoice.", "uri", e.locator.URI(ref))

	doc, err := e.fetcher.Fetch(ctx, logger, ref)
	if err != nil {
		return record, stats, nil, err
	}
	doc.MIMEType = extract.ResolveMIME(ref.Key)

	if doc.MIMEType == "application/pdf" {
		if pages, perr := extract.PDFPageCount(doc); perr != nil {
			logger.Warn("Could not inspect PDF", "error", perr)
		} else {
			stats.pages = pages
			logger.Info("PDF inspected.", "pages", pages)
		}
	}

	candidate := models.ExtractedInvoice{}
	outcome := e.model.Extract(ctx, logger, doc)
	if outcome.Degraded() {
		modelErr = outcome.Cause
		logger.Warn("Continuing with empty invoice after model failure", "error", modelErr, "kind", common.KindOf(modelErr))
	} else {
		candidate, err = extract.ParseResponse(outcome.Text)
		if err != nil {
			return record, stats, nil, err
		}
		violations, verr := extract.SchemaViolations(candidate)
		if verr != nil {
			logger.Warn("Schema check unavailable", "error", verr)
		}
		stats.schemaViolations = len(violations)
		for _, v := range violations {
			logger.Warn("Model output violates the invoice schema", "violation", v)
		}
	}

	normalized := normalize.Normalize(logger, candidate)
	stats.fieldWarnings = len(normalized.Warnings)
	summary := e.dates.Process(logger, normalized.InvoiceDate, normalized.DueDate)

	return Assemble(normalized, summary, req.BatchID, ref.Key), stats, modelErr, nil
}
