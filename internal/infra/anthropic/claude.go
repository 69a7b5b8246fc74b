package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"capitals/internal/application"
)

type ClaudeClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewClaudeClient(apiKey, model string) *ClaudeClient {
	return NewClaudeClientWithURL(apiKey, model, "https://api.anthropic.com/v1")
}

func NewClaudeClientWithURL(apiKey, model, baseURL string) *ClaudeClient {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	return &ClaudeClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		model:      model,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type toolChoice struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type request struct {
	Model      string     `json:"model"`
	MaxTokens  int        `json:"max_tokens"`
	System     string     `json:"system"`
	Messages   []message  `json:"messages"`
	Tools      []tool     `json:"tools"`
	ToolChoice toolChoice `json:"tool_choice"`
}

type contentBlock struct {
	Type  string          `json:"type"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

type response struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

func (c *ClaudeClient) Name() string {
	return "anthropic"
}

// Classify forces a single call of the classification tool. There is no
// retry: the caller owns the time budget and falls back on any error.
func (c *ClaudeClient) Classify(ctx context.Context, utterance string) (*application.ModelReply, error) {
	reqBody := request{
		Model:     c.model,
		MaxTokens: 256,
		System:    application.ClassificationInstruction,
		Messages: []message{
			{Role: "user", Content: utterance},
		},
		Tools: []tool{{
			Name:        application.ClassificationToolName,
			Description: "Record the classification of the user's capital query.",
			InputSchema: application.ClassificationSchema(),
		}},
		ToolChoice: toolChoice{Type: "tool", Name: application.ClassificationToolName},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("claude API error %d: %s", resp.StatusCode, string(respBody))
	}

	var result response
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", application.ErrInvalidReply, err)
	}

	for _, block := range result.Content {
		if block.Type != "tool_use" || block.Name != application.ClassificationToolName {
			continue
		}
		return decodeReply(block.Input)
	}

	return nil, fmt.Errorf("%w: no %s call in response (stop_reason %q)",
		application.ErrInvalidReply, application.ClassificationToolName, result.StopReason)
}

func decodeReply(input json.RawMessage) (*application.ModelReply, error) {
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.DisallowUnknownFields()

	var reply application.ModelReply
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("%w: tool input (%s): %v", application.ErrInvalidReply, string(input), err)
	}
	return &reply, nil
}
