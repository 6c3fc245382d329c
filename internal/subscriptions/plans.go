package subscriptions

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
)

var planPrices = map[enums.SubscriptionPlan]decimal.Decimal{
	enums.PlanPremiumMonthly: decimal.NewFromInt(500),
	enums.PlanPremiumYearly:  decimal.NewFromInt(5000),
}

// PlanPrice returns the ZMW price of a purchasable plan.
func PlanPrice(plan enums.SubscriptionPlan) (decimal.Decimal, bool) {
	price, ok := planPrices[plan]
	return price, ok
}

// PlanForAmount resolves the plan a confirmed payment paid for.
func PlanForAmount(amount decimal.Decimal) (enums.SubscriptionPlan, bool) {
	for plan, price := range planPrices {
		if price.Equal(amount) {
			return plan, true
		}
	}
	return "", false
}

// extendPeriod adds one billing period to the later of now and the current
// period end, so early renewals keep the remaining time.
func extendPeriod(plan enums.SubscriptionPlan, current *time.Time, now time.Time) time.Time {
	base := now
	if current != nil && current.After(now) {
		base = *current
	}
	if plan == enums.PlanPremiumYearly {
		return base.AddDate(1, 0, 0)
	}
	return base.AddDate(0, 1, 0)
}
