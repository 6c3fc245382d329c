package enums

import "fmt"

// SubscriptionStatus is the lifecycle state of a vendor's plan.
type SubscriptionStatus string

const (
	SubscriptionStatusTrial    SubscriptionStatus = "trial"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
)

var subscriptionStatuses = known[SubscriptionStatus]{
	SubscriptionStatusTrial,
	SubscriptionStatusActive,
	SubscriptionStatusPastDue,
	SubscriptionStatusCanceled,
	SubscriptionStatusExpired,
}

func (s SubscriptionStatus) String() string { return string(s) }

func (s SubscriptionStatus) IsValid() bool { return subscriptionStatuses.has(s) }

// GrantsAccess reports whether vendors in this state may use paid features.
// Trials additionally depend on trial_ends_at, which callers must check.
func (s SubscriptionStatus) GrantsAccess() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusPastDue
}

func ParseSubscriptionStatus(value string) (SubscriptionStatus, error) {
	return subscriptionStatuses.parse("subscription status", value)
}

// SubscriptionPlan identifies a priced vendor plan.
type SubscriptionPlan string

const (
	PlanPremiumMonthly  SubscriptionPlan = "premium_monthly"
	PlanPremiumYearly   SubscriptionPlan = "premium_yearly"
	PlanLifetimePremium SubscriptionPlan = "lifetime_premium"
)

// ParseSubscriptionPlan accepts the purchasable plans only.
func ParseSubscriptionPlan(value string) (SubscriptionPlan, error) {
	switch SubscriptionPlan(value) {
	case PlanPremiumMonthly, PlanPremiumYearly:
		return SubscriptionPlan(value), nil
	}
	return "", fmt.Errorf("invalid subscription plan %q", value)
}
