package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// HTTPClient implements Client against the coaching backend's HTTP+JSON API.
type HTTPClient struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// NewHTTPClient creates a history client for the given backend base URL.
func NewHTTPClient(baseURL, authToken string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type submitRequest struct {
	Content      string `json:"content"`
	ClientTempID string `json:"client_temp_id"`
}

type submitResponse struct {
	Error   string        `json:"error,omitempty"`
	Code    string        `json:"code,omitempty"`
	SavedID *SubmitResult `json:"saved_ids,omitempty"`
	RunID   string        `json:"run_id,omitempty"`
}

type historyResponse struct {
	Error    string       `json:"error,omitempty"`
	Messages []RawMessage `json:"messages"`
}

// Submit sends one outbound message. Quota rejections (HTTP 402/429 or an
// explicit quota error code in the body) map to ErrQuotaExceeded.
func (c *HTTPClient) Submit(ctx context.Context, chatID, text, clientTempID string) (*SubmitResult, error) {
	endpoint, err := c.safeURL("/v1/chats/" + url.PathEscape(chatID) + "/messages")
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	payload, err := json.Marshal(submitRequest{Content: text, ClientTempID: clientTempID})
	if err != nil {
		return nil, fmt.Errorf("submit: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("submit: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if clientTempID != "" {
		req.Header.Set("X-Idempotency-Key", clientTempID)
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("submit: read response: %w", err)
	}

	if resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("submit: status %d: %w", resp.StatusCode, ErrQuotaExceeded)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("submit: status %d: %s", resp.StatusCode, string(body))
	}

	var decoded submitResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("submit: decode response: %w", err)
	}
	if decoded.Code == "quota_exceeded" {
		return nil, fmt.Errorf("submit: %s: %w", decoded.Error, ErrQuotaExceeded)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("submit: server error: %s", decoded.Error)
	}

	result := &SubmitResult{RunID: decoded.RunID}
	if decoded.SavedID != nil {
		result.SystemTempIDs = decoded.SavedID.SystemTempIDs
		if result.RunID == "" {
			result.RunID = decoded.SavedID.RunID
		}
	}
	return result, nil
}

// FetchHistory returns the authoritative transcript for a chat. Every row
// is validated before it is handed to the caller.
func (c *HTTPClient) FetchHistory(ctx context.Context, chatID string) ([]RawMessage, error) {
	endpoint, err := c.safeURL("/v1/chats/" + url.PathEscape(chatID) + "/messages")
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch history: create request: %w", err)
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch history: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch history: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch history: status %d: %s", resp.StatusCode, string(body))
	}

	var decoded historyResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("fetch history: decode response: %w", err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("fetch history: server error: %s", decoded.Error)
	}

	for i := range decoded.Messages {
		if err := decoded.Messages[i].Validate(); err != nil {
			return nil, fmt.Errorf("fetch history: invalid row %d: %w", i, err)
		}
	}
	return decoded.Messages, nil
}

// Healthy checks whether the backend is reachable.
func (c *HTTPClient) Healthy(ctx context.Context) bool {
	endpoint, err := c.safeURL("/v1/health")
	if err != nil {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// safeHost matches valid hostname:port patterns.
var safeHost = regexp.MustCompile(`^[a-zA-Z0-9._:-]+$`)

// safeURL parses and validates the base URL, then constructs a safe endpoint.
func (c *HTTPClient) safeURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
	}
	if !safeHost.MatchString(u.Host) {
		return "", fmt.Errorf("invalid host: %s", u.Host)
	}
	return u.Scheme + "://" + u.Host + strings.TrimRight(u.Path, "/") + path, nil
}
