package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/easyasset/eam-backend/internal/trace"
)

const (
	// DefaultContentPath locates the reply in the gateway's wrapped payload
	DefaultContentPath = "$.data.choices[0].message.content"
	// openAIContentPath locates the reply in a plain OpenAI payload
	openAIContentPath = "$.choices[0].message.content"
)

// Gateway is a client for an OpenAI compatible chat completion endpoint that streams
// its answer as server sent events
type Gateway struct {
	BaseURL     string
	APIKey      string
	ContentPath string
	Client      *http.Client
	log         zerolog.Logger
}

// NewGateway creates a gateway client. An empty contentPath uses DefaultContentPath.
func NewGateway(baseURL, apiKey, contentPath string, timeout time.Duration, log zerolog.Logger) *Gateway {
	if contentPath == "" {
		contentPath = DefaultContentPath
	}
	return &Gateway{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		APIKey:      apiKey,
		ContentPath: contentPath,
		Client:      &http.Client{Timeout: timeout},
		log:         log.With().Str("component", "llm_gateway").Logger(),
	}
}

type chatPayload struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Chat implements ChatModel
func (g *Gateway) Chat(ctx context.Context, req Request) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.gateway.chat")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", req.Model))

	body, err := json.Marshal(chatPayload{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.Client.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read llm response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("llm API error %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		span.RecordError(err)
		return "", err
	}

	content := g.parseSSE(raw)
	if content == "" {
		return "", ErrEmptyResponse
	}

	g.log.Info().
		Str("model", req.Model).
		Int("content_length", len(content)).
		Dur("duration", time.Since(start)).
		Msg("LLM response")

	return content, nil
}

// parseSSE returns the first non-empty content found in the "data: " lines of an event stream.
// Lines that are not JSON or do not contain the content path are skipped.
func (g *Gateway) parseSSE(raw []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			continue
		}

		var obj any
		if err := json.Unmarshal([]byte(payload), &obj); err != nil {
			g.log.Warn().Err(err).Msg("Failed to parse SSE line")
			continue
		}

		for _, path := range []string{g.ContentPath, openAIContentPath} {
			if content := extract(path, obj); content != "" {
				return content
			}
		}
	}
	return ""
}

func extract(path string, obj any) string {
	val, err := jsonpath.Get(path, obj)
	if err != nil {
		return ""
	}
	// jsonpath may wrap a single match in a list
	if list, ok := val.([]any); ok {
		if len(list) == 0 {
			return ""
		}
		val = list[0]
	}
	s, _ := val.(string)
	return s
}
