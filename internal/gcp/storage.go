package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"cloud.google.com/go/storage"
	invstorage "github.com/Lllllllleong/invoiceextraction/internal/storage"
	"google.golang.org/api/googleapi"
)

// GCSStore reads documents from Cloud Storage. Library retries are disabled so
// the fetcher's bounded retry loop is the only one in play.
type GCSStore struct {
	client *storage.Client
}

// NewGCSStore creates a Cloud Storage client with application default credentials.
func NewGCSStore(ctx context.Context) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{client: client}, nil
}

func (s *GCSStore) object(bucket, name string) *storage.ObjectHandle {
	return s.client.Bucket(bucket).Object(name).Retryer(storage.WithPolicy(storage.RetryNever))
}

// Exists reads the object's attributes.
func (s *GCSStore) Exists(ctx context.Context, bucket, name string) (bool, error) {
	_, err := s.object(bucket, name).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	return false, classifyGCSError(err)
}

// Get streams the object into memory.
func (s *GCSStore) Get(ctx context.Context, bucket, name string) ([]byte, error) {
	reader, err := s.object(bucket, name).NewReader(ctx)
	if err != nil {
		return nil, classifyGCSError(fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, name, err))
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, classifyGCSError(fmt.Errorf("failed to read GCS object gs://%s/%s: %w", bucket, name, err))
	}
	return data, nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func classifyGCSError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500 {
			return invstorage.Transient(err)
		}
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return invstorage.Transient(err)
	}
	return err
}
