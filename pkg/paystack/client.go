package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/jkiprotich/mifugo-market-backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://api.paystack.co"
	responseBodyReadLimit int64 = 4096
)

var errSecretKeyRequired = errors.New("paystack secret key is required")

// Client wraps the Paystack transaction endpoints used for hosted checkout.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured Paystack base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the Paystack client given a secret key.
func NewClient(secretKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(secretKey)
	if trimmedKey == "" {
		return nil, errSecretKeyRequired
	}

	client := &Client{
		secretKey:  trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// InitializeRequest describes the payload sent to the transaction initialize API.
type InitializeRequest struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency,omitempty"`
	Reference   string         `json:"reference,omitempty"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// InitializeResult carries the fields extracted from the initialize response.
type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
	Raw              json.RawMessage
}

// VerifyResult carries the normalized fields of a transaction verify response.
type VerifyResult struct {
	Status    string
	Reference string
	Amount    int64
	Currency  string
	Channel   string
	PaidAt    *time.Time
	Raw       json.RawMessage
}

// Succeeded reports whether the gateway settled the transaction.
func (v VerifyResult) Succeeded() bool {
	return strings.EqualFold(v.Status, "success")
}

// Initialize starts a hosted checkout transaction and extracts the redirect URL.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "paystack client not configured")
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if req.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	body, err := c.post(ctx, "/transaction/initialize", req)
	if err != nil {
		return nil, err
	}

	authURL, ok := ProbeAuthorizationURL(body)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeGatewayUnrecognized, "initialize response carries no checkout url").
			WithDetails(map[string]any{"body_prefix": truncate(body, 256)})
	}

	result := &InitializeResult{
		AuthorizationURL: authURL,
		Raw:              json.RawMessage(body),
	}
	var envelope struct {
		Data struct {
			AccessCode string `json:"access_code"`
			Reference  string `json:"reference"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		result.AccessCode = envelope.Data.AccessCode
		result.Reference = envelope.Data.Reference
	}
	if result.Reference == "" {
		result.Reference = req.Reference
	}

	return result, nil
}

// Verify fetches the settlement state of a transaction by reference.
func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "paystack client not configured")
	}
	trimmed := strings.TrimSpace(reference)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference is required")
	}

	body, err := c.get(ctx, "/transaction/verify/"+url.PathEscape(trimmed))
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Status bool `json:"status"`
		Data   struct {
			Status    string `json:"status"`
			Reference string `json:"reference"`
			Amount    int64  `json:"amount"`
			Currency  string `json:"currency"`
			Channel   string `json:"channel"`
			PaidAt    string `json:"paid_at"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayUnrecognized, err, "decode verify response")
	}
	if envelope.Data.Status == "" {
		return nil, pkgerrors.New(pkgerrors.CodeGatewayUnrecognized, "verify response carries no transaction status")
	}

	result := &VerifyResult{
		Status:    envelope.Data.Status,
		Reference: envelope.Data.Reference,
		Amount:    envelope.Data.Amount,
		Currency:  envelope.Data.Currency,
		Channel:   envelope.Data.Channel,
		Raw:       json.RawMessage(body),
	}
	if envelope.Data.PaidAt != "" {
		if parsed, parseErr := time.Parse(time.RFC3339, envelope.Data.PaidAt); parseErr == nil {
			result.PaidAt = &parsed
		}
	}
	if result.Reference == "" {
		result.Reference = trimmed
	}

	return result, nil
}

// authorizationURLPaths is the probe order for the checkout redirect field.
// Gateway deployments have shipped all of these shapes at one time or another.
var authorizationURLPaths = [][]string{
	{"data", "authorization_url"},
	{"authorization_url"},
	{"data", "authorizationUrl"},
	{"authorizationUrl"},
	{"data", "checkout_url"},
	{"checkout_url"},
}

// ProbeAuthorizationURL walks the known response shapes in order and returns
// the first non-empty redirect URL found.
func ProbeAuthorizationURL(body []byte) (string, bool) {
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", false
	}
	for _, path := range authorizationURLPaths {
		if value, ok := lookupString(decoded, path); ok {
			return value, true
		}
	}
	return "", false
}

func lookupString(decoded map[string]any, path []string) (string, bool) {
	current := any(decoded)
	for _, key := range path {
		node, ok := current.(map[string]any)
		if !ok {
			return "", false
		}
		current, ok = node[key]
		if !ok {
			return "", false
		}
	}
	value, ok := current.(string)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal paystack request")
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(encoded))
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build paystack request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayUnavailable, err, "execute paystack request")
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayUnavailable, err, "read paystack response")
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, pkgerrors.Wrap(
			pkgerrors.CodeGatewayUnavailable,
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(payload, 256)),
			"paystack request failed",
		)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, pkgerrors.Wrap(
			pkgerrors.CodeGatewayUnrecognized,
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(payload, 256)),
			"paystack rejected the request",
		)
	}

	return payload, nil
}

func truncate(body []byte, max int) string {
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) <= max {
		return trimmed
	}
	return trimmed[:max]
}
