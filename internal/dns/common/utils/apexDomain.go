package utils

import "golang.org/x/net/publicsuffix"

// GetApexDomain returns the registrable domain (eTLD+1) of name according to
// the ICANN/private list shipped with x/net. Used for reporting only; rule
// expansion uses the fixed suffix table in repos/blocklist/publicsuffix.
func GetApexDomain(name string) string {
	name = CanonicalDNSName(name)
	apexDomain, err := publicsuffix.EffectiveTLDPlusOne(name)
	if err != nil {
		apexDomain = name // fall back to the original name if parsing fails
	}
	return apexDomain
}
