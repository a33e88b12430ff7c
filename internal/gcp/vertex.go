package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/invoiceextraction/internal/extract"
	"github.com/Lllllllleong/invoiceextraction/internal/models"
	"google.golang.org/api/option"
)

// VertexClient holds the pre-configured invoice model.
type VertexClient struct {
	InvoiceModel *genai.GenerativeModel
	baseClient   *genai.Client
}

// NewVertexClient creates a Vertex AI client for projectID/region. An empty
// credentialsFile falls back to application default credentials.
func NewVertexClient(ctx context.Context, projectID, region, modelName, credentialsFile string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	baseClient, err := genai.NewClient(ctx, projectID, region, opts...)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	invoiceModel := baseClient.GenerativeModel(modelName)
	invoiceModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(extract.SystemPrompt)},
	}
	invoiceModel.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}

	return &VertexClient{
		InvoiceModel: invoiceModel,
		baseClient:   baseClient,
	}, nil
}

// Generate sends the document inline together with the prompt.
func (c *VertexClient) Generate(ctx context.Context, prompt string, doc models.RawDocument) (string, error) {
	resp, err := c.InvoiceModel.GenerateContent(ctx,
		genai.Blob{MIMEType: doc.MIMEType, Data: doc.Bytes},
		genai.Text(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content from gemini: %w", err)
	}
	return responseText(resp), nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}
