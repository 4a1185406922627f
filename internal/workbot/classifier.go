package workbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Classifier maps a free-text query to a structured instruction.
type Classifier interface {
	Classify(ctx context.Context, query string, today string) (Instruction, error)
}

// HTTPClassifierConfig configures the chat-completions backed classifier.
type HTTPClassifierConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// HTTPClassifier calls an OpenAI-compatible chat completions endpoint and
// parses the model's JSON reply into an Instruction.
type HTTPClassifier struct {
	config HTTPClassifierConfig
	client *http.Client
}

// NewHTTPClassifier constructs the classifier. A nil client uses a default
// with the configured timeout.
func NewHTTPClassifier(config HTTPClassifierConfig, client *http.Client) *HTTPClassifier {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	return &HTTPClassifier{config: config, client: client}
}

const classifierSystemPrompt = `You translate office-attendance questions into JSON instructions.
Reply with a single JSON object and nothing else. The object has a "kind" of
"date" or "reasoning". For "date", set "date" to {"tool": ..., "params": ...,
"modifiers": [...]} choosing from the documented date-expansion tools. For
"reasoning", set "reasoning" to {"intent": ..., "user_names": [...], ...}.
Never compute dates yourself; name the tool that computes them.`

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *chatFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Classify sends the query to the model and decodes its instruction.
func (c *HTTPClassifier) Classify(ctx context.Context, query string, today string) (Instruction, error) {
	if strings.TrimSpace(query) == "" {
		return Instruction{}, fmt.Errorf("query is empty")
	}

	payload := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: classifierSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Today is %s.\n\n%s", today, query)},
		},
		ResponseFormat: &chatFormat{Type: "json_object"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Instruction{}, fmt.Errorf("failed to encode classifier request: %w", err)
	}

	url := strings.TrimSuffix(c.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Instruction{}, fmt.Errorf("failed to build classifier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Instruction{}, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Instruction{}, fmt.Errorf("failed to read classifier response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Instruction{}, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Instruction{}, fmt.Errorf("failed to decode classifier response: %w", err)
	}
	if parsed.Error != nil {
		return Instruction{}, fmt.Errorf("classifier error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return Instruction{}, fmt.Errorf("classifier returned no choices")
	}

	content := extractJSONObject(parsed.Choices[0].Message.Content)
	var instruction Instruction
	if err := json.Unmarshal([]byte(content), &instruction); err != nil {
		return Instruction{}, fmt.Errorf("classifier reply is not a valid instruction: %w", err)
	}
	if err := instruction.Validate(); err != nil {
		return Instruction{}, err
	}
	return instruction, nil
}

// extractJSONObject tolerates models that wrap the JSON in code fences or
// prose by slicing from the first '{' to the last '}'.
func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return content
	}
	return content[start : end+1]
}
