package gcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Lllllllleong/invoiceextraction/internal/models"
)

func TestGeminiClientGenerate(t *testing.T) {
	doc := models.RawDocument{Bytes: []byte("%PDF-1.7"), SizeBytes: 8, MIMEType: "application/pdf"}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-1.5-flash:generateContent" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "secret" {
			t.Errorf("api key header = %q", got)
		}
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		parts := req.Contents[0].Parts
		if len(parts) != 2 || parts[0].Text != "PROMPT" || parts[1].InlineData == nil {
			t.Fatalf("unexpected parts: %+v", parts)
		}
		if parts[1].InlineData.MIMEType != "application/pdf" {
			t.Errorf("inline mime = %q", parts[1].InlineData.MIMEType)
		}
		if parts[1].InlineData.Data != base64.StdEncoding.EncodeToString(doc.Bytes) {
			t.Errorf("inline data not base64 of the document")
		}
		if req.GenerationConfig.ResponseMIMEType != "application/json" {
			t.Errorf("responseMimeType = %q", req.GenerationConfig.ResponseMIMEType)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"total_amount\":"},{"text":" 10}"}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	client, err := NewGeminiClient("secret", "gemini-1.5-flash", server.URL, server.Client())
	if err != nil {
		t.Fatal(err)
	}
	text, err := client.Generate(context.Background(), "PROMPT", doc)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != `{"total_amount": 10}` {
		t.Errorf("Generate() = %q", text)
	}
}

func TestGeminiClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantSub string
	}{
		{"api error", http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`, "quota"},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, "no candidates"},
		{"bad status", http.StatusBadGateway, `{}`, "status 502"},
		{"garbage", http.StatusOK, `<html>`, "decode response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, _ := NewGeminiClient("k", "m", server.URL, server.Client())
			_, err := client.Generate(context.Background(), "p", models.RawDocument{Bytes: []byte("x"), MIMEType: "image/png"})
			if err == nil || !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("Generate() error = %v, want substring %q", err, tt.wantSub)
			}
		})
	}
}

func TestGeminiClientHonoursContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	client, _ := NewGeminiClient("k", "m", server.URL, server.Client())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := client.Generate(ctx, "p", models.RawDocument{Bytes: []byte("x"), MIMEType: "image/png"}); err == nil {
		t.Fatal("expected error when the context deadline passes")
	}
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	if _, err := NewGeminiClient(" ", "m", "", nil); err == nil {
		t.Fatal("expected error for empty API key")
	}
}
