// Package generator talks to the remote conversation-audio endpoint.
package generator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/convo/internal/domain"
)

const (
	generatePath       = "/generate"
	promptField        = "prompt"
	userAgent          = "Convo/1.0"
	defaultContentType = "audio/mpeg"
)

// Client issues generation requests against a base URL
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a generation client. A zero timeout means requests may
// run as long as the endpoint needs.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// BaseURL returns the endpoint base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Generate posts the prompt as a single multipart field and returns the audio
// body. Errors are *domain.RemoteRejection or *domain.TransportFailure.
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (domain.Payload, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField(promptField, req.Prompt); err != nil {
		return domain.Payload{}, &domain.TransportFailure{Op: "encode form", Err: err}
	}
	if err := writer.Close(); err != nil {
		return domain.Payload{}, &domain.TransportFailure{Op: "encode form", Err: err}
	}

	reqURL := c.baseURL + generatePath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, &body)
	if err != nil {
		return domain.Payload{}, &domain.TransportFailure{Op: "create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("User-Agent", userAgent)

	c.logger.Debug("generate request", "url", reqURL, "promptLen", len(req.Prompt))
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("generate request failed", "error", err)
		return domain.Payload{}, &domain.TransportFailure{Op: "send request", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("failed to read generate response", "error", err, "status", resp.StatusCode)
		return domain.Payload{}, &domain.TransportFailure{Op: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("generate rejected", "status", resp.StatusCode, "body", string(data))
		return domain.Payload{}, &domain.RemoteRejection{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimRight(string(data), "\r\n"),
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}

	c.logger.Info("generate complete",
		"status", resp.StatusCode,
		"bytes", len(data),
		"contentType", contentType,
		"elapsed", time.Since(start))

	return domain.Payload{Data: data, ContentType: contentType}, nil
}

// Ping checks that the endpoint host is serving
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("endpoint unreachable: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

// WaitReady polls Ping until it succeeds or ctx ends
func (c *Client) WaitReady(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		err := c.Ping(ctx)
		if err == nil {
			return nil
		}
		c.logger.Debug("endpoint not ready", "error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("endpoint not ready: %w", err)
		case <-ticker.C:
		}
	}
}
