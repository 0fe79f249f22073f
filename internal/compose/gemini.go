package compose

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/listingpress/listingpress/internal/domain"
)

const geminiModel = "gemini-2.5-flash"

// GeminiProvider implements the AI composition path on the Gemini API.
type GeminiProvider struct {
	client *genai.Client
}

func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

func (p *GeminiProvider) Name() string {
	return geminiModel
}

func (p *GeminiProvider) Compose(ctx context.Context, listing *domain.Listing, previews []PhotoPreview) (*Result, *domain.AIMetrics, error) {
	parts := []*genai.Part{
		{Text: compositionPrompt + "\n\n" + buildListingContext(listing, len(previews))},
	}
	for _, preview := range previews {
		if len(preview.Data) == 0 {
			continue
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: preview.Data, MIMEType: "image/jpeg"},
		})
	}

	contents := []*genai.Content{{Role: "user", Parts: parts}}
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}

	start := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, geminiModel, contents, cfg)
	latency := time.Since(start)
	if err != nil {
		return nil, nil, fmt.Errorf("gemini API error: %w", err)
	}

	metrics := &domain.AIMetrics{Model: geminiModel, Latency: latency}
	if resp.UsageMetadata != nil {
		metrics.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		metrics.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	content := resp.Text()
	if content == "" {
		return nil, metrics, errors.New("no response from Gemini")
	}

	result, err := parseResult(content)
	if err != nil {
		return nil, metrics, fmt.Errorf("failed to parse composition JSON: %w", err)
	}
	return result, metrics, nil
}
