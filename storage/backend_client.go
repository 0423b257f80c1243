package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"realtor-extractor/models"
	"realtor-extractor/utils"
)

const defaultBackendTimeout = 5 * time.Second

// maxErrorBody bounds how much of a failed response is kept for the error.
const maxErrorBody = 512

// BackendClient talks to the CRM backend over HTTP.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
	logger     utils.Logger
}

// NewBackendClient creates a client for the backend at baseURL.
func NewBackendClient(baseURL string, timeout time.Duration, logger utils.Logger) *BackendClient {
	if timeout <= 0 {
		timeout = defaultBackendTimeout
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &BackendClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Health returns nil when the backend answers GET /health with 2xx.
func (c *BackendClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// CheckDuplicate asks the backend whether sourceURL was already submitted.
func (c *BackendClient) CheckDuplicate(ctx context.Context, sourceURL string) (DuplicateCheck, error) {
	var out DuplicateCheck
	err := c.do(ctx, http.MethodPost, "/api/check-duplicate", map[string]string{"url": sourceURL}, &out)
	if err != nil {
		return DuplicateCheck{}, err
	}
	return out, nil
}

// Submit posts the profile to /api/agents.
func (c *BackendClient) Submit(ctx context.Context, p *models.AgentProfile) (SubmitResult, error) {
	var out SubmitResult
	if err := c.do(ctx, http.MethodPost, "/api/agents", p, &out); err != nil {
		return SubmitResult{}, err
	}
	if !out.Success {
		return out, eris.Errorf("backend: agent %s rejected", p.SourceURL)
	}
	c.logger.Info("[backend] agent submitted",
		zap.String("source_url", p.SourceURL),
		zap.String("id", out.ID),
	)
	return out, nil
}

// Close releases idle connections.
func (c *BackendClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *BackendClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return eris.Wrapf(err, "backend: encode %s", path)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return eris.Wrapf(err, "backend: build %s", path)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrapf(ErrUnavailable, "backend: %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return eris.Wrapf(ErrUnavailable, "backend: %s %s: status %d: %s",
			method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrapf(err, "backend: decode %s", path)
	}
	return nil
}
