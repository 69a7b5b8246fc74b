package gemini

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

type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewClient(apiKey, model string) *Client {
	return NewClientWithURL(apiKey, model, "https://generativelanguage.googleapis.com/v1beta")
}

func NewClientWithURL(apiKey, model, baseURL string) *Client {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		model:      model,
	}
}

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type part struct {
	Text string `json:"text"`
}

type request struct {
	Contents         []content        `json:"contents"`
	SystemInstruct   *content         `json:"systemInstruction,omitempty"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	MaxOutputTokens  int            `json:"maxOutputTokens"`
	Temperature      float64        `json:"temperature"`
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// responseSchema is ModelReply in the OpenAPI subset the Gemini API accepts.
func responseSchema() map[string]any {
	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"query_type": map[string]any{"type": "STRING", "enum": application.QueryTypeValues},
			"entity":     map[string]any{"type": "STRING"},
			"confidence": map[string]any{"type": "NUMBER"},
		},
		"required":         []string{"query_type", "entity", "confidence"},
		"propertyOrdering": []string{"query_type", "entity", "confidence"},
	}
}

func (c *Client) Name() string {
	return "gemini"
}

// Classify makes one schema-constrained generateContent call. No retry.
func (c *Client) Classify(ctx context.Context, utterance string) (*application.ModelReply, error) {
	reqBody := request{
		SystemInstruct: &content{
			Parts: []part{{Text: application.ClassificationInstruction}},
		},
		Contents: []content{
			{
				Role:  "user",
				Parts: []part{{Text: utterance}},
			},
		},
		GenerationConfig: generationConfig{
			MaxOutputTokens:  256,
			Temperature:      0,
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema(),
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini API error %d: %s", resp.StatusCode, string(respBody))
	}

	var result response
	if err = json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", application.ErrInvalidReply, err)
	}

	if result.Error != nil {
		return nil, fmt.Errorf("gemini error %d: %s", result.Error.Code, result.Error.Message)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty response from gemini", application.ErrInvalidReply)
	}

	text := result.Candidates[0].Content.Parts[0].Text
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.DisallowUnknownFields()

	var reply application.ModelReply
	if err = dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("%w: parsing reply JSON (%s): %v", application.ErrInvalidReply, text, err)
	}

	return &reply, nil
}
