// Package gemini provides an HTTP client for the Gemini generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	cfotel "github.com/Strob0t/Karuna/internal/adapter/otel"
	"github.com/Strob0t/Karuna/internal/config"
	"github.com/Strob0t/Karuna/internal/domain/chat"
	"github.com/Strob0t/Karuna/internal/port/llm"
)

// maxResponseSize caps the body read from the API.
const maxResponseSize = 4 << 20

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Client calls generateContent for one model. Calls go through a circuit
// breaker that opens after consecutive failures.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	metrics    *cfotel.Metrics
	op         string
}

// NewClient creates a Gemini client from configuration.
func NewClient(cfg config.Gemini, bc config.Breaker) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:    "gemini",
			Timeout: bc.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(bc.MaxFailures) //nolint:gosec // validated >= 1
			},
			IsExcluded: func(err error) bool {
				return errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
		op: "generate",
	}
}

// SetMetrics attaches optional call metrics.
func (c *Client) SetMetrics(m *cfotel.Metrics) {
	c.metrics = m
}

// WithOp returns a copy of the client that labels its metrics with op.
// The copy shares the breaker and HTTP client.
func (c *Client) WithOp(op string) *Client {
	cp := *c
	cp.op = op
	return &cp
}

// Generate sends the history and returns the first candidate's first text part.
func (c *Client) Generate(ctx context.Context, history []chat.Message) (string, error) {
	ctx, span := cfotel.StartLLMSpan(ctx, c.model, len(history))
	defer span.End()

	req := generateRequest{Contents: make([]content, 0, len(history))}
	for _, m := range history {
		req.Contents = append(req.Contents, content{Role: m.Role, Parts: []part{{Text: m.Content}}})
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	data, err := c.breaker.Execute(func() ([]byte, error) {
		return c.post(ctx, body)
	})
	rejected := errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
	c.metrics.RecordLLMCall(ctx, c.op, rejected, err)
	if rejected {
		return "", fmt.Errorf("gemini: %w: %w", llm.ErrUnavailable, err)
	}
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	var resp generateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	endpoint := c.baseURL + "/v1beta/models/" + url.PathEscape(c.model) + ":generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var ae apiError
		if json.Unmarshal(data, &ae) == nil && ae.Error.Message != "" {
			return nil, fmt.Errorf("gemini API error %d (%s): %s", resp.StatusCode, ae.Error.Status, ae.Error.Message)
		}
		return nil, fmt.Errorf("gemini API error %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}
