package lencowebhook

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTopLevelPayload(t *testing.T) {
	event, err := Normalize([]byte(`{"type":"mobile-money","reference":"imp_s1_p9_1700","status":"Successful","amount":50,"currency":"zmw"}`))
	require.NoError(t, err)
	assert.Equal(t, TypeMobileMoney, event.Type)
	assert.Equal(t, "imp_s1_p9_1700", event.Reference)
	assert.Equal(t, StatusSuccessful, event.Status)
	assert.Equal(t, "50", event.Amount.String())
	assert.Equal(t, "ZMW", event.Currency)
}

func TestNormalizeUnwrapsData(t *testing.T) {
	body := `{"event":"collection.successful","data":{"type":"mobile-money","lencoReference":"sub_v1_1700","status":"successful","amount":"500.00"}}`
	event, err := Normalize([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "sub_v1_1700", event.Reference)
	assert.Equal(t, "500", event.Amount.String())
	assert.JSONEq(t, `{"type":"mobile-money","lencoReference":"sub_v1_1700","status":"successful","amount":"500.00"}`, string(event.Payload))
}

func TestNormalizeIgnoresNonObjectData(t *testing.T) {
	event, err := Normalize([]byte(`{"data":"opaque","type":"mobile-money","reference":"sub_v1_1700"}`))
	require.NoError(t, err)
	assert.Equal(t, "sub_v1_1700", event.Reference)
}

func TestNormalizeReferencePrefersReference(t *testing.T) {
	event, err := Normalize([]byte(`{"reference":"sub_a_1","lencoReference":"sub_b_2"}`))
	require.NoError(t, err)
	assert.Equal(t, "sub_a_1", event.Reference)
}

func TestNormalizeBadAmountIsZero(t *testing.T) {
	event, err := Normalize([]byte(`{"amount":"fifty"}`))
	require.NoError(t, err)
	assert.True(t, event.Amount.IsZero())
}

func TestNormalizeRejectsInvalidJSON(t *testing.T) {
	for _, body := range []string{``, `{`, `[1,2]`, `"text"`, `null`} {
		_, err := Normalize([]byte(body))
		assert.True(t, errors.Is(err, ErrInvalidPayload), "body %q", body)
	}
}
