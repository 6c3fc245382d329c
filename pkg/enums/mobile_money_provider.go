package enums

import "fmt"

// MobileMoneyProvider names the telecom rail used for a collection. FreeCredit
// is a pseudo-provider that skips the rail for promotional imports.
type MobileMoneyProvider string

const (
	ProviderAirtel     MobileMoneyProvider = "airtel"
	ProviderMTN        MobileMoneyProvider = "mtn"
	ProviderZamtel     MobileMoneyProvider = "zamtel"
	ProviderFreeCredit MobileMoneyProvider = "free_credit"
)

// String implements fmt.Stringer.
func (p MobileMoneyProvider) String() string {
	return string(p)
}

// IsRail reports whether the provider is a real mobile-money operator.
func (p MobileMoneyProvider) IsRail() bool {
	switch p {
	case ProviderAirtel, ProviderMTN, ProviderZamtel:
		return true
	}
	return false
}

// ParseMobileMoneyProvider converts raw input into a MobileMoneyProvider.
func ParseMobileMoneyProvider(value string) (MobileMoneyProvider, error) {
	p := MobileMoneyProvider(value)
	if p.IsRail() || p == ProviderFreeCredit {
		return p, nil
	}
	return "", fmt.Errorf("invalid mobile money provider %q", value)
}
