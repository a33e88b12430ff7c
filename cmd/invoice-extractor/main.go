package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/invoiceextraction/internal/config"
	"github.com/Lllllllleong/invoiceextraction/internal/models"
	"github.com/Lllllllleong/invoiceextraction/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/joho/godotenv"
)

var (
	extractorInstance *services.InvoiceExtractor
	appConfig         *config.Config
	once              sync.Once
	initErr           error
)

func init() {
	// --- Set up structured logging ---
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	functions.HTTP("ExtractInvoice", extractInvoice)
	functions.CloudEvent("ExtractInvoiceEvent", extractInvoiceEvent)
}

func main() {
	port := config.GetEnv("PORT", "8080")
	if err := funcframework.Start(port); err != nil {
		slog.Error("Functions framework stopped", "error", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the shared clients once per instance.
func setup() error {
	once.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Could not load .env file", "error", err)
		}

		appConfig, initErr = config.Load()
		if initErr != nil {
			return
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: appConfig.SlogLevel()})))

		extractorInstance, initErr = services.NewInvoiceExtractor(context.Background(), appConfig)
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
	}
	return initErr
}

// withBudget bounds an invocation by the configured function timeout.
func withBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, appConfig.Timeouts.Invocation)
}

// extractInvoice is the HTTP entry point. The envelope's status code becomes
// the HTTP status and its body the HTTP body.
func extractInvoice(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := setup(); err != nil {
		writeEnvelope(w, services.FailureResponse(start, fmt.Errorf("failed to initialize service: %w", err)))
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Error("Could not read request body", "error", err)
		writeEnvelope(w, services.FailureResponse(start, fmt.Errorf("could not read request body: %w", err)))
		return
	}

	ctx, cancel := withBudget(r.Context())
	defer cancel()
	writeEnvelope(w, extractorInstance.ProcessJSON(ctx, payload))
}

func writeEnvelope(w http.ResponseWriter, resp models.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := io.WriteString(w, resp.Body); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

// extractInvoiceEvent is the CloudEvent entry point. The event data is the
// invocation payload; a failed envelope is returned as an error so the
// platform records the failure.
func extractInvoiceEvent(ctx context.Context, e cloudevents.Event) error {
	if err := setup(); err != nil {
		return err
	}

	ctx, cancel := withBudget(ctx)
	defer cancel()
	resp := extractorInstance.ProcessJSON(ctx, e.Data())
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("invoice extraction failed for event %s: %s", e.ID(), resp.Body)
	}
	return nil
}
