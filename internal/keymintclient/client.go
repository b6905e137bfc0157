package keymintclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client manages communication with the Keymint API.
type Client struct {
	// HTTP client used to communicate with the API.
	httpClient *http.Client

	// Base URL for API requests. Must include scheme and host.
	BaseURL *url.URL

	// Root key for authentication, sent as a bearer token.
	RootKey string

	// UserAgent for client
	UserAgent string
}

// NewClient returns a new Keymint API client.
func NewClient(baseURLStr string, rootKey string) (*Client, error) {
	if strings.TrimSpace(baseURLStr) == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}
	if strings.TrimSpace(rootKey) == "" {
		return nil, fmt.Errorf("rootKey cannot be empty")
	}

	parsedBaseURL, err := url.ParseRequestURI(baseURLStr)
	if err != nil {
		return nil, fmt.Errorf("invalid baseURL: %w", err)
	}
	if parsedBaseURL.Scheme == "" || parsedBaseURL.Host == "" {
		return nil, fmt.Errorf("baseURL must include scheme and host")
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		BaseURL:   parsedBaseURL,
		RootKey:   rootKey,
		UserAgent: "keymint-terraform-provider/0.1.0",
	}, nil
}

// APIError represents an error response from the Keymint API.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API Error: status %d, message: %s", e.StatusCode, e.Message)
}

// ErrNotFound is returned when a resource is not found (HTTP 404).
var ErrNotFound = &APIError{StatusCode: http.StatusNotFound, Message: "resource not found"}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	relURL, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse path: %w", err)
	}

	fullURL := c.BaseURL.ResolveReference(relURL)

	var reqBody io.ReadWriter
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.RootKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)

	return req, nil
}

// errorBody is the standard error envelope returned by the Keymint API.
type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) doRequest(req *http.Request, v interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusNotFound {
			return ErrNotFound
		}
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Body:       respBodyBytes,
		}
		var envelope errorBody
		if err := json.Unmarshal(respBodyBytes, &envelope); err == nil && envelope.Error != "" {
			apiErr.Message = envelope.Error
		} else if len(respBodyBytes) > 0 && len(respBodyBytes) < 512 {
			apiErr.Message = string(respBodyBytes)
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if v != nil {
		if err := json.Unmarshal(respBodyBytes, v); err != nil {
			return fmt.Errorf("failed to unmarshal response body: %w, body: %s", err, string(respBodyBytes))
		}
	}

	return nil
}

// --- Key Methods ---

// CreateKey creates a new key. The response carries the plaintext secret;
// the service never returns it again.
// Corresponds to POST /v1/keys
func (c *Client) CreateKey(ctx context.Context, keyData KeyCreateRequest) (*KeyCreateResponse, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/keys", keyData)
	if err != nil {
		return nil, err
	}

	var created KeyCreateResponse
	if err := c.doRequest(req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetKey retrieves the metadata of a key by its ID. The secret is not part
// of the response.
// Corresponds to GET /v1/keys/{key_id}
func (c *Client) GetKey(ctx context.Context, keyID string) (*Key, error) {
	if strings.TrimSpace(keyID) == "" {
		return nil, fmt.Errorf("keyID cannot be empty")
	}
	path := fmt.Sprintf("/v1/keys/%s", keyID)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var key Key
	if err := c.doRequest(req, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// UpdateKey updates the mutable fields of a key by its ID.
// Corresponds to PUT /v1/keys/{key_id}
func (c *Client) UpdateKey(ctx context.Context, keyID string, keyData KeyUpdateRequest) (*Key, error) {
	if strings.TrimSpace(keyID) == "" {
		return nil, fmt.Errorf("keyID cannot be empty")
	}
	path := fmt.Sprintf("/v1/keys/%s", keyID)
	req, err := c.newRequest(ctx, http.MethodPut, path, keyData)
	if err != nil {
		return nil, err
	}

	var key Key
	if err := c.doRequest(req, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// RevokeKey revokes a key by its ID. A revoked key stops verifying
// immediately and cannot be restored.
// Corresponds to DELETE /v1/keys/{key_id}
func (c *Client) RevokeKey(ctx context.Context, keyID string) error {
	if strings.TrimSpace(keyID) == "" {
		return fmt.Errorf("keyID cannot be empty")
	}
	path := fmt.Sprintf("/v1/keys/%s", keyID)
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return c.doRequest(req, nil) // No body expected on 204
}

// ListKeys retrieves the key metadata for an API.
// Corresponds to GET /v1/apis/{api_id}/keys
func (c *Client) ListKeys(ctx context.Context, apiID string) (*KeyListResponse, error) {
	if strings.TrimSpace(apiID) == "" {
		return nil, fmt.Errorf("apiID cannot be empty")
	}
	path := fmt.Sprintf("/v1/apis/%s/keys", apiID)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var list KeyListResponse
	if err := c.doRequest(req, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// --- API Methods ---

// CreateAPI creates a new API, the namespace keys are issued under.
// Corresponds to POST /v1/apis
func (c *Client) CreateAPI(ctx context.Context, apiData APICreateRequest) (*API, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/apis", apiData)
	if err != nil {
		return nil, err
	}

	var created API
	if err := c.doRequest(req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetAPI retrieves a specific API by its ID.
// Corresponds to GET /v1/apis/{api_id}
func (c *Client) GetAPI(ctx context.Context, apiID string) (*API, error) {
	if strings.TrimSpace(apiID) == "" {
		return nil, fmt.Errorf("apiID cannot be empty")
	}
	path := fmt.Sprintf("/v1/apis/%s", apiID)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var api API
	if err := c.doRequest(req, &api); err != nil {
		return nil, err
	}
	return &api, nil
}

// DeleteAPI deletes a specific API by its ID. Keys issued under the API are
// revoked by the service as part of the deletion.
// Corresponds to DELETE /v1/apis/{api_id}
func (c *Client) DeleteAPI(ctx context.Context, apiID string) error {
	if strings.TrimSpace(apiID) == "" {
		return fmt.Errorf("apiID cannot be empty")
	}
	path := fmt.Sprintf("/v1/apis/%s", apiID)
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return c.doRequest(req, nil) // No body expected on 204
}
