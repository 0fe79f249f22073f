package compose

import (
	_ "embed"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/listingpress/listingpress/internal/domain"
)

//go:embed prompts/composition.txt
var compositionPrompt string

const openAIModel = openai.ChatModelGPT4_1Mini

// OpenAIProvider implements the AI composition path on the OpenAI chat API.
type OpenAIProvider struct {
	client *openai.Client
}

func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{client: &client}
}

func (p *OpenAIProvider) Name() string {
	return openAIModel
}

// Compose sends the listing context and photo previews to the model and
// parses the JSON response. Malformed payloads are an error; the engine
// handles falling back.
func (p *OpenAIProvider) Compose(ctx context.Context, listing *domain.Listing, previews []PhotoPreview) (*Result, *domain.AIMetrics, error) {
	userParts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(buildListingContext(listing, len(previews))),
	}
	for _, preview := range previews {
		if len(preview.Data) == 0 {
			continue
		}
		imageURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(preview.Data)
		userParts = append(userParts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL:    imageURL,
			Detail: "low",
		}))
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openAIModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(compositionPrompt),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: userParts,
					},
				},
			},
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		MaxTokens: openai.Int(1500),
	})
	latency := time.Since(start)
	if err != nil {
		return nil, nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, nil, errors.New("no response from OpenAI")
	}

	metrics := &domain.AIMetrics{
		Model:        openAIModel,
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
		Latency:      latency,
	}

	result, err := parseResult(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, metrics, fmt.Errorf("failed to parse composition JSON: %w", err)
	}
	return result, metrics, nil
}
