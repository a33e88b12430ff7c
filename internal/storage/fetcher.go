package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lllllllleong/invoiceextraction/internal/common"
	"github.com/Lllllllleong/invoiceextraction/internal/models"
	"github.com/googleapis/gax-go/v2"
)

// LargeFileBytes is the size above which a document is logged as oversized.
const LargeFileBytes = 10 * 1024 * 1024

// FetcherConfig bounds the store calls made by a Fetcher.
type FetcherConfig struct {
	Attempts int
	Timeout  time.Duration
	Backoff  gax.Backoff
}

// Fetcher retrieves document bytes with an existence check, per-attempt
// timeouts and a bounded number of retries on transient failures.
type Fetcher struct {
	store  ObjectStore
	config FetcherConfig
}

// NewFetcher creates a Fetcher over store.
func NewFetcher(store ObjectStore, config FetcherConfig) *Fetcher {
	if config.Attempts < 1 {
		config.Attempts = 1
	}
	if config.Backoff.Initial == 0 {
		config.Backoff = gax.Backoff{Initial: 500 * time.Millisecond, Max: 4 * time.Second, Multiplier: 2}
	}
	return &Fetcher{store: store, config: config}
}

// Fetch checks that ref exists, downloads it and classifies its size.
func (f *Fetcher) Fetch(ctx context.Context, logger *slog.Logger, ref models.DocumentRef) (models.RawDocument, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logCtx := logger.With("container", ref.Container, "key", ref.Key)

	var exists bool
	exhausted, err := f.withRetry(ctx, logCtx, "exists", func(callCtx context.Context) error {
		var err error
		exists, err = f.store.Exists(callCtx, ref.Container, ref.Key)
		return err
	})
	if err != nil {
		if exhausted {
			logCtx.Error("Existence check failed after all retries", "error", err)
			return models.RawDocument{}, common.NewAppError(common.KindFetch, "existence check failed", err)
		}
		logCtx.Error("Object is not accessible", "error", err)
		return models.RawDocument{}, common.NewAppError(common.KindNotFound, fmt.Sprintf("object %s/%s is not accessible", ref.Container, ref.Key), err)
	}
	if !exists {
		logCtx.Error("Object does not exist")
		return models.RawDocument{}, common.Errorf(common.KindNotFound, "object %s/%s does not exist", ref.Container, ref.Key)
	}

	var data []byte
	if _, err := f.withRetry(ctx, logCtx, "get", func(callCtx context.Context) error {
		var err error
		data, err = f.store.Get(callCtx, ref.Container, ref.Key)
		return err
	}); err != nil {
		logCtx.Error("Failed to read object", "error", err)
		return models.RawDocument{}, common.NewAppError(common.KindFetch, fmt.Sprintf("failed to read %s/%s", ref.Container, ref.Key), err)
	}

	size := int64(len(data))
	switch {
	case size == 0:
		logCtx.Error("Object is empty")
		return models.RawDocument{}, common.Errorf(common.KindEmptyFile, "object %s/%s is empty", ref.Container, ref.Key)
	case size > LargeFileBytes:
		logCtx.Warn("Object is larger than the recommended size.", "sizeBytes", size, "limitBytes", LargeFileBytes)
	default:
		logCtx.Info("Object fetched.", "sizeBytes", size)
	}

	return models.RawDocument{Bytes: data, SizeBytes: size}, nil
}

// withRetry runs fn up to Attempts times. Only transient errors and
// per-attempt timeouts are retried. The bool result is true when the error
// is the last of an exhausted retry sequence.
func (f *Fetcher) withRetry(ctx context.Context, logger *slog.Logger, op string, fn func(context.Context) error) (bool, error) {
	backoff := f.config.Backoff
	var lastErr error

	for attempt := 1; attempt <= f.config.Attempts; attempt++ {
		err := func() error {
			callCtx := ctx
			if f.config.Timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, f.config.Timeout)
				defer cancel()
			}
			err := fn(callCtx)
			if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
				return Transient(fmt.Errorf("%s timed out after %s: %w", op, f.config.Timeout, err))
			}
			return err
		}()
		if err == nil {
			return false, nil
		}
		if !IsTransient(err) {
			return false, err
		}

		lastErr = err
		if attempt == f.config.Attempts {
			break
		}

		pause := backoff.Pause()
		logger.Warn(
			"Storage call failed, will retry.",
			"op", op,
			"attempt", attempt,
			"maxAttempts", f.config.Attempts,
			"backoff", pause.String(),
			"error", err,
		)

		select {
		case <-time.After(pause):
		case <-ctx.Done():
			logger.Error("Context cancelled during backoff. Aborting retries.", "op", op, "error", ctx.Err())
			return true, fmt.Errorf("%s aborted during retry: %w", op, ctx.Err())
		}
	}
	return true, fmt.Errorf("%s failed after %d attempts: %w", op, f.config.Attempts, lastErr)
}
