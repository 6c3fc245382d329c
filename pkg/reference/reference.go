// Package reference encodes and decodes the payment references shared with the
// mobile-money provider. The wire form is delimiter separated:
//
//	sub_{vendorId}_{unixMillis}
//	imp_{storeId}_{productId}_{unixMillis}
//
// The first segment is the only dispatch key. Ids must not contain the
// delimiter, which holds for the UUIDs this service issues.
package reference

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const delimiter = "_"

// Kind discriminates the reference variants.
type Kind string

const (
	KindSubscription Kind = "sub"
	KindImport       Kind = "imp"
)

var (
	// ErrUnknownKind is returned for references whose prefix is not routed.
	ErrUnknownKind = errors.New("unknown reference kind")
	// ErrMalformed is returned for references with a known prefix but an
	// invalid shape.
	ErrMalformed = errors.New("malformed reference")
)

// Reference is implemented by every decoded variant.
type Reference interface {
	Kind() Kind
	String() string
	IssuedAt() time.Time
}

// Subscription correlates a subscription payment with the paying vendor.
type Subscription struct {
	VendorID string
	Issued   time.Time
}

func (Subscription) Kind() Kind { return KindSubscription }

func (s Subscription) IssuedAt() time.Time { return s.Issued }

func (s Subscription) String() string {
	return join(KindSubscription, s.Issued, s.VendorID)
}

// Import correlates a market import payment with the purchasing store and the
// supplier product being bought into.
type Import struct {
	StoreID   string
	ProductID string
	Issued    time.Time
}

func (Import) Kind() Kind { return KindImport }

func (i Import) IssuedAt() time.Time { return i.Issued }

func (i Import) String() string {
	return join(KindImport, i.Issued, i.StoreID, i.ProductID)
}

// NewSubscription builds a subscription reference issued at the given instant.
func NewSubscription(vendorID string, at time.Time) Subscription {
	return Subscription{VendorID: vendorID, Issued: truncate(at)}
}

// NewImport builds a market import reference issued at the given instant.
func NewImport(storeID, productID string, at time.Time) Import {
	return Import{StoreID: storeID, ProductID: productID, Issued: truncate(at)}
}

// Parse decodes a wire reference into its variant.
func Parse(raw string) (Reference, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrMalformed)
	}
	parts := strings.Split(raw, delimiter)

	switch Kind(parts[0]) {
	case KindSubscription:
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: %s expects 3 segments, got %d", ErrMalformed, KindSubscription, len(parts))
		}
		issued, err := parseMillis(parts[2])
		if err != nil {
			return nil, err
		}
		if parts[1] == "" {
			return nil, fmt.Errorf("%w: empty vendor id", ErrMalformed)
		}
		return Subscription{VendorID: parts[1], Issued: issued}, nil
	case KindImport:
		if len(parts) != 4 {
			return nil, fmt.Errorf("%w: %s expects 4 segments, got %d", ErrMalformed, KindImport, len(parts))
		}
		issued, err := parseMillis(parts[3])
		if err != nil {
			return nil, err
		}
		if parts[1] == "" || parts[2] == "" {
			return nil, fmt.Errorf("%w: empty store or product id", ErrMalformed)
		}
		return Import{StoreID: parts[1], ProductID: parts[2], Issued: issued}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, parts[0])
}

func join(kind Kind, at time.Time, ids ...string) string {
	parts := make([]string, 0, len(ids)+2)
	parts = append(parts, string(kind))
	parts = append(parts, ids...)
	parts = append(parts, strconv.FormatInt(at.UnixMilli(), 10))
	return strings.Join(parts, delimiter)
}

func parseMillis(value string) (time.Time, error) {
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil || ms < 0 {
		return time.Time{}, fmt.Errorf("%w: invalid timestamp %q", ErrMalformed, value)
	}
	return time.UnixMilli(ms).UTC(), nil
}

func truncate(at time.Time) time.Time {
	return time.UnixMilli(at.UnixMilli()).UTC()
}
