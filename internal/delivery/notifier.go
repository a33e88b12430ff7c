// Package delivery forwards final invoice records to the configured webhook
// as CloudEvents. Delivery is best effort: every failure is logged and
// reported in an Outcome, never returned as an error.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/Lllllllleong/invoiceextraction/internal/common"
	"github.com/Lllllllleong/invoiceextraction/internal/models"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	cehttp "github.com/cloudevents/sdk-go/v2/protocol/http"
	"github.com/google/uuid"
)

const (
	EventType     = "com.invoiceextraction.invoice.extracted"
	DefaultSource = "invoice-extractor"
)

// Category distinguishes delivery failures in logs.
type Category string

const (
	CategoryTimeout    Category = "timeout"
	CategoryConnection Category = "connection"
	CategoryHTTPStatus Category = "http_status"
	CategoryEncode     Category = "encode"
)

// Outcome describes one delivery attempt.
type Outcome struct {
	Skipped    bool
	Delivered  bool
	StatusCode int
	Category   Category
	Err        error
}

// Config bounds the webhook call.
type Config struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Source         string
}

// Notifier posts final records to a webhook URL.
type Notifier struct {
	client  cloudevents.Client
	source  string
	timeout time.Duration
}

// NewNotifier builds a CloudEvents HTTP client with bounded connect and read
// timeouts.
func NewNotifier(cfg Config) (*Notifier, error) {
	httpClient := common.NewHTTPClient(cfg.ConnectTimeout, cfg.ReadTimeout)

	protocol, err := cloudevents.NewHTTP(cehttp.WithClient(*httpClient))
	if err != nil {
		return nil, fmt.Errorf("cloudevents.NewHTTP: %w", err)
	}
	client, err := cloudevents.NewClient(protocol, cloudevents.WithTimeNow())
	if err != nil {
		return nil, fmt.Errorf("cloudevents.NewClient: %w", err)
	}

	source := cfg.Source
	if source == "" {
		source = DefaultSource
	}
	return &Notifier{client: client, source: source, timeout: httpClient.Timeout}, nil
}

// Notify sends record to url in binary mode, so the request body is the
// record's JSON. An empty url skips delivery.
func (n *Notifier) Notify(ctx context.Context, logger *slog.Logger, url string, record models.FinalRecord) Outcome {
	if logger == nil {
		logger = slog.Default()
	}
	if url == "" {
		logger.Info("No webhook configured for this environment; skipping delivery.")
		return Outcome{Skipped: true}
	}

	event := cloudevents.NewEvent()
	event.SetID(uuid.NewString())
	event.SetType(EventType)
	event.SetSource(n.source)
	event.SetSubject(record.DocumentKey)
	if err := event.SetData(cloudevents.ApplicationJSON, record); err != nil {
		logger.Error("Webhook delivery failed", "category", CategoryEncode, "error", err)
		return Outcome{Category: CategoryEncode, Err: err}
	}

	// The caller's cancellation does not reach the webhook; its own timeouts do.
	sendCtx := context.WithoutCancel(ctx)
	if n.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(sendCtx, n.timeout)
		defer cancel()
	}
	sendCtx = cloudevents.ContextWithTarget(sendCtx, url)
	sendCtx = cloudevents.WithEncodingBinary(sendCtx)

	start := time.Now()
	result := n.client.Send(sendCtx, event)
	elapsed := time.Since(start)

	var httpResult *cehttp.Result
	statusCode := 0
	if cloudevents.ResultAs(result, &httpResult) {
		statusCode = httpResult.StatusCode
	}

	if cloudevents.IsACK(result) {
		logger.Info("Webhook delivered.", "eventId", event.ID(), "statusCode", statusCode, "elapsedMs", elapsed.Milliseconds())
		return Outcome{Delivered: true, StatusCode: statusCode}
	}

	category := classify(result, statusCode)
	logger.Error("Webhook delivery failed",
		"category", category,
		"statusCode", statusCode,
		"eventId", event.ID(),
		"elapsedMs", elapsed.Milliseconds(),
		"error", result,
	)
	return Outcome{StatusCode: statusCode, Category: category, Err: result}
}

func classify(err error, statusCode int) Category {
	if statusCode != 0 {
		return CategoryHTTPStatus
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout
	}
	return CategoryConnection
}
