package sms

import (
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
	defaultBaseURL              = "https://api.africastalking.com"
	messagingPath               = "/version1/messaging"
	responseReadLimit     int64 = 2048
	defaultRequestTimeout       = 10 * time.Second
)

var (
	errAPIKeyRequired   = errors.New("sms api key is required")
	errUsernameRequired = errors.New("sms username is required")
)

// Client wraps the Africa's Talking bulk messaging API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	username   string
	senderID   string
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

// WithBaseURL overrides the configured messaging base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithSenderID sets the registered alphanumeric sender ID.
func WithSenderID(senderID string) Option {
	return func(c *Client) {
		c.senderID = strings.TrimSpace(senderID)
	}
}

// NewClient builds the SMS client given API credentials.
func NewClient(apiKey, username string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}
	trimmedUser := strings.TrimSpace(username)
	if trimmedUser == "" {
		return nil, errUsernameRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		username:   trimmedUser,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// SendResult reports the per-recipient outcome of a send.
type SendResult struct {
	Recipient  string
	Status     string
	MessageID  string
	StatusCode int
}

// Send delivers a single message to one phone number. Failures are returned,
// never retried; callers treat delivery as best effort.
func (c *Client) Send(ctx context.Context, phoneNumber, message string) (*SendResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sms client not configured")
	}
	trimmedPhone := strings.TrimSpace(phoneNumber)
	if trimmedPhone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient phone number is required")
	}
	if strings.TrimSpace(message) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body is required")
	}

	form := url.Values{}
	form.Set("username", c.username)
	form.Set("to", trimmedPhone)
	form.Set("message", message)
	if c.senderID != "" {
		form.Set("from", c.senderID)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+messagingPath,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build sms request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("apiKey", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute sms request")
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read sms response")
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, pkgerrors.Wrap(
			pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))),
			"sms request failed",
		)
	}

	var apiResp struct {
		SMSMessageData struct {
			Recipients []struct {
				Number     string `json:"number"`
				Status     string `json:"status"`
				StatusCode int    `json:"statusCode"`
				MessageID  string `json:"messageId"`
			} `json:"Recipients"`
		} `json:"SMSMessageData"`
	}
	if err := json.Unmarshal(payload, &apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode sms response")
	}
	if len(apiResp.SMSMessageData.Recipients) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sms response carries no recipients")
	}

	recipient := apiResp.SMSMessageData.Recipients[0]
	result := &SendResult{
		Recipient:  recipient.Number,
		Status:     recipient.Status,
		MessageID:  recipient.MessageID,
		StatusCode: recipient.StatusCode,
	}
	if !strings.EqualFold(recipient.Status, "Success") {
		return result, pkgerrors.New(pkgerrors.CodeDependency, "sms delivery rejected").
			WithDetails(map[string]any{
				"status":      recipient.Status,
				"status_code": recipient.StatusCode,
			})
	}

	return result, nil
}
