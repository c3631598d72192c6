package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"supervisor/internal/logging"
)

// ollamaClient talks to an Ollama-compatible chat endpoint and carries the
// conversation memory for persistent exchanges.
type ollamaClient struct {
	model      string
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger

	mu      sync.Mutex
	history []Message
}

// Config holds backend connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

func NewOllamaClient(model string, cfg Config) Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434/api"
	}
	if !strings.HasSuffix(baseURL, "/api") {
		baseURL = baseURL + "/api"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &ollamaClient{
		model:      model,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger("ollama-client"),
		history:    baseHistory(),
	}
}

type ollamaRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Model   string  `json:"model"`
	Message Message `json:"message"`
	Done    bool    `json:"done"`
	Error   string  `json:"error"`
}

func (c *ollamaClient) Generate(ctx context.Context, messages []Message, maxNewTokens int) (string, error) {
	request := ollamaRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
	}
	if maxNewTokens > 0 {
		request.Options = map[string]any{"num_predict": maxNewTokens}
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshal ollama request: %w", err)
	}

	endpoint := c.baseURL + "/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama request failed: %s", strings.TrimSpace(string(raw)))
	}

	var response ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if response.Error != "" {
		return "", fmt.Errorf("ollama error: %s", response.Error)
	}
	return response.Message.Content, nil
}

func (c *ollamaClient) RunWithPrompt(ctx context.Context, system, user string, maxNewTokens int, persistent bool) (string, error) {
	if !persistent {
		messages := []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		}
		return c.Generate(ctx, messages, maxNewTokens)
	}

	c.mu.Lock()
	c.history = append(c.history,
		Message{Role: "system", Content: system},
		Message{Role: "user", Content: user},
	)
	messages := make([]Message, len(c.history))
	copy(messages, c.history)
	c.mu.Unlock()

	result, err := c.Generate(ctx, messages, maxNewTokens)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.history = append(c.history, Message{Role: "assistant", Content: result})
	c.mu.Unlock()
	return result, nil
}

func (c *ollamaClient) Reset() {
	c.mu.Lock()
	c.history = baseHistory()
	c.mu.Unlock()
}

// Load polls the backend until it answers, so the controller does not start
// routing before the model can serve.
func (c *ollamaClient) Load(ctx context.Context) error {
	endpoint := c.baseURL + "/tags"
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				c.logger.Info("backend ready, model %s", c.model)
				return nil
			}
		} else {
			c.logger.Debug("backend not ready: %v", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
