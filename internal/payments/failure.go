package payments

const defaultFailureMessage = "We couldn't process your payment. Please check your details and try again or contact support."

var failureMessages = map[string]string{
	"insufficient_funds": "The transaction failed due to insufficient funds. Please top up your account and retry.",
	"card_declined":      "Your card was declined by the issuer. Please try a different card.",
	"expired_card":       "Your card has expired. Please update your payment method.",
	"fraud_suspected":    "Transaction flagged for security review. Please contact your bank.",
}

// FailureMessage maps a provider failure code to text that can be shown to
// the vendor. Unknown codes get a generic message.
func FailureMessage(reasonCode string) string {
	if msg, ok := failureMessages[reasonCode]; ok {
		return msg
	}
	return defaultFailureMessage
}
