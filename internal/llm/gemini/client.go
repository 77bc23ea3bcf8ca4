package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"review-backend/internal/llm"
)

const defaultModel = "gemini-1.5-flash"

// Client implements llm.Client using the Gemini API.
type Client struct {
	api   *genai.Client
	model string
}

// NewClient constructs a new Gemini client.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{
		api:   client,
		model: model,
	}, nil
}

// Review sends the pull request context to Gemini and returns the model's
// text output verbatim.
func (c *Client) Review(ctx context.Context, input llm.ReviewInput) (string, error) {
	system, _ := llm.PromptTemplate("v1")

	contents := []*genai.Content{
		genai.NewContentFromText(llm.BuildUserPrompt(input), genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	}

	result, err := c.api.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini response empty content")
	}
	return text, nil
}

var _ llm.Client = (*Client)(nil)
