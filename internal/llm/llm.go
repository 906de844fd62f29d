package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ExtractedRequest holds a single maintenance request extracted from
// free-text or markdown content.
type ExtractedRequest struct {
	Property    string `json:"property"`
	Unit        string `json:"unit"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Body        string `json:"body"` // raw source text for this specific request
}

// Client wraps the Anthropic API for maintenance request extraction.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// buildPrompt constructs the system and user prompts for request extraction.
func buildPrompt(content string, properties []string) (system string, user string) {
	system = `You extract structured maintenance requests from tenant messages or property notes. Return ONLY a JSON array of objects with these fields:
- "property": the property name the request belongs to (infer from headings like "## <property name>" or context, empty string if unknown)
- "unit": the unit or apartment number if mentioned (empty string otherwise)
- "title": concise summary of the problem
- "description": what is wrong, in the reporter's words
- "location": where in the unit or building the problem is (e.g. "kitchen", "bathroom", "roof"), empty string if not stated
- "category": one of "plumbing", "electrical", "hvac", "appliance", "structural", "pest", "safety", "maintenance", "other"
- "priority": one of "urgent", "high", "medium", "low"
- "body": the exact original source text from the input that relates to this specific request (preserve formatting)

Rules:
- Each distinct problem is one request, even when several appear in one message
- Priority "urgent" only for safety hazards or active damage (gas smell, flooding, no heat in winter, exposed wiring)
- Default priority to "medium" unless context suggests otherwise
- Match property names to the known properties list when possible
- The "body" field must contain only the relevant portion of the original text for that request, not the entire document
- If a section contains no requests, do NOT generate any entries for it. Never create placeholder requests
- Return valid JSON only, no markdown fencing or explanation`

	var sb strings.Builder
	if len(properties) > 0 {
		sb.WriteString("Known properties: ")
		sb.WriteString(strings.Join(properties, ", "))
		sb.WriteString("\n\n")
	}
	sb.WriteString("Extract maintenance requests from this text:\n\n")
	sb.WriteString(content)
	user = sb.String()
	return
}

// ExtractRequests sends free-text content to the LLM and returns
// structured maintenance requests.
func (c *Client) ExtractRequests(ctx context.Context, content string, properties []string) ([]ExtractedRequest, error) {
	systemPrompt, userPrompt := buildPrompt(content, properties)

	text, err := c.complete(ctx, systemPrompt, userPrompt, 4096)
	if err != nil {
		return nil, err
	}

	var requests []ExtractedRequest
	if err := json.Unmarshal([]byte(text), &requests); err != nil {
		return nil, fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, text)
	}
	return requests, nil
}

// Classification holds the LLM-assigned category and priority for one issue.
type Classification struct {
	Category  string `json:"category"`
	Priority  string `json:"priority"`
	Reasoning string `json:"reasoning"`
}

// buildClassifyPrompt constructs the prompts for issue classification.
func buildClassifyPrompt(title, description, location string) (system string, user string) {
	system = `You classify property maintenance issues for triage. Given an issue's title, description, and location, return a JSON object with exactly three fields:

- "category": one of "plumbing", "electrical", "hvac", "appliance", "structural", "pest", "safety", "maintenance", "other"
- "priority": one of "urgent", "high", "medium", "low"
- "reasoning": one sentence explaining the priority choice

Rules:
- Return valid JSON only, no markdown fencing or explanation
- "urgent" is reserved for safety hazards or active property damage
- "high" for loss of an essential service (hot water, heat, only toilet)
- "low" for cosmetic problems`

	var sb strings.Builder
	sb.WriteString("Issue title: ")
	sb.WriteString(title)
	sb.WriteString("\n")
	if description != "" {
		sb.WriteString("\nDescription:\n")
		sb.WriteString(description)
		sb.WriteString("\n")
	}
	if location != "" {
		sb.WriteString("\nLocation: ")
		sb.WriteString(location)
		sb.WriteString("\n")
	}
	user = sb.String()
	return
}

// Classify asks the LLM for a category and priority for one issue.
func (c *Client) Classify(ctx context.Context, title, description, location string) (*Classification, error) {
	systemPrompt, userPrompt := buildClassifyPrompt(title, description, location)

	text, err := c.complete(ctx, systemPrompt, userPrompt, 1024)
	if err != nil {
		return nil, err
	}

	var result Classification
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, text)
	}
	return &result, nil
}

// complete runs one message round-trip and returns the text content
// with any markdown fencing stripped.
func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int64) (string, error) {
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return "", fmt.Errorf("no text content in API response")
	}

	// Strip markdown fencing if present
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	return text, nil
}
