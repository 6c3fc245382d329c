package lencowebhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Collection statuses reported by the provider.
const (
	TypeMobileMoney  = "mobile-money"
	StatusSuccessful = "successful"
	StatusFailed     = "failed"
)

// ErrInvalidPayload is returned when the body is not a JSON object.
var ErrInvalidPayload = errors.New("invalid JSON")

// Event is the normalized business payload of a webhook delivery.
type Event struct {
	Type      string
	Reference string
	Status    string
	Amount    decimal.Decimal
	Currency  string
	// Payload is the unwrapped object, stored as transaction metadata.
	Payload json.RawMessage
}

type rawEvent struct {
	Type           string          `json:"type"`
	Reference      string          `json:"reference"`
	LencoReference string          `json:"lencoReference"`
	Status         string          `json:"status"`
	Amount         json.RawMessage `json:"amount"`
	Currency       string          `json:"currency"`
}

// Normalize unwraps the payload from an object-valued "data" field when one
// is present, otherwise uses the top-level object.
func Normalize(body []byte) (*Event, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil || top == nil {
		return nil, ErrInvalidPayload
	}

	payload := json.RawMessage(body)
	if data, ok := top["data"]; ok && isObject(data) {
		payload = data
	}

	var raw rawEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		// Fields of unexpected types are treated as absent.
		raw = rawEvent{}
	}

	ref := strings.TrimSpace(raw.Reference)
	if ref == "" {
		ref = strings.TrimSpace(raw.LencoReference)
	}
	return &Event{
		Type:      strings.TrimSpace(raw.Type),
		Reference: ref,
		Status:    strings.ToLower(strings.TrimSpace(raw.Status)),
		Amount:    parseAmount(raw.Amount),
		Currency:  strings.ToUpper(strings.TrimSpace(raw.Currency)),
		Payload:   bytes.TrimSpace(payload),
	}, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// parseAmount accepts both numeric and string amounts.
func parseAmount(raw json.RawMessage) decimal.Decimal {
	value := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if value == "" || value == "null" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return amount
}
