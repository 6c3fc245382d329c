package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKnownValues(t *testing.T) {
	status, err := ParseSettlementStatus("frozen")
	require.NoError(t, err)
	assert.True(t, status.IsOnHold())

	_, err = ParseSettlementStatus("FROZEN")
	assert.EqualError(t, err, `invalid settlement status "FROZEN"`)

	sub, err := ParseSubscriptionStatus("past_due")
	require.NoError(t, err)
	assert.True(t, sub.GrantsAccess())

	evt, err := ParseOutboxEventType("import.free_credit_claimed")
	require.NoError(t, err)
	assert.Equal(t, EventFreeCreditClaimed, evt)

	_, err = ParseTransactionStatus("refunded")
	assert.Error(t, err)
	assert.False(t, OutboxAggregateType("store").IsValid())
}

func TestMemberRoleParse(t *testing.T) {
	role, err := ParseMemberRole("manager")
	require.NoError(t, err)
	assert.True(t, role.AtLeast(MemberRoleStaff))
	assert.False(t, role.AtLeast(MemberRoleOwner))

	_, err = ParseMemberRole("admin")
	assert.Error(t, err)
}

func TestMobileMoneyProvider(t *testing.T) {
	p, err := ParseMobileMoneyProvider("mtn")
	require.NoError(t, err)
	assert.True(t, p.IsRail())

	p, err = ParseMobileMoneyProvider("free_credit")
	require.NoError(t, err)
	assert.False(t, p.IsRail())

	_, err = ParseMobileMoneyProvider("visa")
	assert.Error(t, err)
}
