package lenco

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/zedmarket-backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://api.lenco.co/access/v2"
	defaultTimeout              = 20 * time.Second
	collectionPath              = "collections/mobile-money"
	responseBodyReadLimit int64 = 64 << 10
)

var (
	errSecretKeyRequired = errors.New("lenco secret key is required")

	// ErrUnknownOutcome is returned when the collection request timed out or was
	// cancelled before a response arrived. The provider may still have accepted
	// it, so callers must neither assume success nor failure.
	ErrUnknownOutcome = errors.New("lenco collection outcome unknown")
)

// Client calls the Lenco collections API.
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

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout bounds every provider round trip.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a Lenco client authenticated with the account secret key.
func NewClient(secretKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(secretKey)
	if trimmedKey == "" {
		return nil, errSecretKeyRequired
	}

	client := &Client{
		secretKey:  trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient.Timeout <= 0 {
		client.httpClient.Timeout = defaultTimeout
	}

	return client, nil
}

// CollectionRequest is the mobile-money collection payload. Amount is sent as a
// two-decimal string.
type CollectionRequest struct {
	Amount    decimal.Decimal
	Currency  string
	Operator  string
	Phone     string
	Reference string
}

// MarshalJSON renders the wire body expected by the provider.
func (r CollectionRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount    string `json:"amount"`
		Currency  string `json:"currency"`
		Operator  string `json:"operator"`
		Phone     string `json:"phone"`
		Reference string `json:"reference"`
	}{
		Amount:    r.Amount.StringFixed(2),
		Currency:  r.Currency,
		Operator:  r.Operator,
		Phone:     r.Phone,
		Reference: r.Reference,
	})
}

// CollectionResponse is the provider acknowledgement for a collection.
type CollectionResponse struct {
	Status  bool           `json:"status"`
	Message string         `json:"message"`
	Data    CollectionData `json:"data"`
}

// CollectionData describes the collection as seen by the provider.
type CollectionData struct {
	ID                 string              `json:"id"`
	InitiatedAt        string              `json:"initiatedAt"`
	Status             string              `json:"status"`
	ReasonForFailure   string              `json:"reasonForFailure,omitempty"`
	MobileMoneyDetails *MobileMoneyDetails `json:"mobileMoneyDetails"`
}

// MobileMoneyDetails echoes the wallet that was charged.
type MobileMoneyDetails struct {
	Phone    string `json:"phone"`
	Operator string `json:"operator"`
}

// RejectedError carries the provider's explanation for a refused collection.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("lenco rejected collection (status %d): %s", e.StatusCode, e.Message)
}

// CollectMobileMoney asks the provider to prompt the wallet owner for payment.
// Explicit refusals return *RejectedError wrapped as a dependency error;
// timeouts return ErrUnknownOutcome.
func (c *Client) CollectMobileMoney(ctx context.Context, req CollectionRequest) (*CollectionResponse, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "lenco client not configured")
	}
	if strings.TrimSpace(req.Reference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collection reference is required")
	}
	if !req.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collection amount must be positive")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal collection request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(collectionPath), bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build collection request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrUnknownOutcome, err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute collection request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrUnknownOutcome, err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read collection response")
	}

	var apiResp CollectionResponse
	decodeErr := json.Unmarshal(body, &apiResp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(apiResp.Message)
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		if msg == "" {
			msg = "failed to initiate mobile money collection"
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, &RejectedError{StatusCode: resp.StatusCode, Message: msg}, msg)
	}
	if decodeErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, decodeErr, "decode collection response")
	}

	return &apiResp, nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
