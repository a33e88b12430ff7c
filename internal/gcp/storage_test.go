package gcp

import (
	"errors"
	"fmt"
	"io"
	"testing"

	invstorage "github.com/Lllllllleong/invoiceextraction/internal/storage"
	"google.golang.org/api/googleapi"
)

func TestClassifyGCSError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantTransient bool
	}{
		{"rate limited", &googleapi.Error{Code: 429}, true},
		{"server error", fmt.Errorf("wrap: %w", &googleapi.Error{Code: 503}), true},
		{"forbidden", &googleapi.Error{Code: 403}, false},
		{"truncated body", fmt.Errorf("read: %w", io.ErrUnexpectedEOF), true},
		{"other", errors.New("bucket misconfigured"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyGCSError(tt.err)
			if invstorage.IsTransient(got) != tt.wantTransient {
				t.Errorf("IsTransient(classifyGCSError(%v)) = %v, want %v", tt.err, !tt.wantTransient, tt.wantTransient)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("classified error lost its cause")
			}
		})
	}
}
