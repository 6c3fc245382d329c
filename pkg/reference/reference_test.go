package reference

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringMatchesWireFormat(t *testing.T) {
	at := time.UnixMilli(1700000000123)

	assert.Equal(t, "sub_v123_1700000000123", NewSubscription("v123", at).String())
	assert.Equal(t, "imp_s1_p9_1700000000123", NewImport("s1", "p9", at).String())
}

func TestParseSubscription(t *testing.T) {
	ref, err := Parse("sub_v123_1700")
	require.NoError(t, err)

	sub, ok := ref.(Subscription)
	require.True(t, ok)
	assert.Equal(t, KindSubscription, sub.Kind())
	assert.Equal(t, "v123", sub.VendorID)
	assert.Equal(t, int64(1700), sub.IssuedAt().UnixMilli())
}

func TestParseImport(t *testing.T) {
	ref, err := Parse("imp_s1_p9_1700")
	require.NoError(t, err)

	imp, ok := ref.(Import)
	require.True(t, ok)
	assert.Equal(t, KindImport, imp.Kind())
	assert.Equal(t, "s1", imp.StoreID)
	assert.Equal(t, "p9", imp.ProductID)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]error{
		"":                  ErrMalformed,
		"ord_1_2_3":         ErrUnknownKind,
		"subscription":      ErrUnknownKind,
		"sub_":              ErrMalformed,
		"sub_v1":            ErrMalformed,
		"sub__1700":         ErrMalformed,
		"sub_v1_extra_1700": ErrMalformed,
		"sub_v1_notatime":   ErrMalformed,
		"sub_v1_-5":         ErrMalformed,
		"imp_s1_1700":       ErrMalformed,
		"imp_s1__1700":      ErrMalformed,
		"imp_s1_p9_x_1700":  ErrMalformed,
		"imp_s1_p9_":        ErrMalformed,
		"SUB_v1_1700":       ErrUnknownKind,
		"imp_s1_p9_1700.5":  ErrMalformed,
	}
	for raw, want := range cases {
		_, err := Parse(raw)
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, want), "%q: expected %v, got %v", raw, want, err)
	}
}

func TestReferenceRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	id := gen.Identifier().SuchThat(func(s string) bool { return s != "" && !strings.Contains(s, delimiter) })
	millis := gen.Int64Range(0, 4102444800000)

	properties.Property("import references decode to the ids they were built from", prop.ForAll(
		func(store, product string, ms int64) bool {
			built := NewImport(store, product, time.UnixMilli(ms))
			parsed, err := Parse(built.String())
			if err != nil {
				return false
			}
			imp, ok := parsed.(Import)
			return ok && imp.StoreID == store && imp.ProductID == product && imp.Issued.UnixMilli() == ms
		},
		id, id, millis,
	))

	properties.Property("subscription references decode to the vendor they were built from", prop.ForAll(
		func(vendor string, ms int64) bool {
			parsed, err := Parse(NewSubscription(vendor, time.UnixMilli(ms)).String())
			if err != nil {
				return false
			}
			sub, ok := parsed.(Subscription)
			return ok && sub.VendorID == vendor && sub.Issued.UnixMilli() == ms
		},
		id, millis,
	))

	properties.TestingRun(t)
}
