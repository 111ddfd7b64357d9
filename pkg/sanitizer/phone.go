package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Numbers without a country prefix are tried against these regions in order.
var supportedRegions = []string{
	"FR",
	"UZ",
	"GB",
	"US",
}

// SanitizePhone returns the E.164 form of phone, or "" when no supported
// region can parse it as a valid number.
func SanitizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	for _, region := range supportedRegions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err != nil || !phonenumbers.IsValidNumber(parsed) {
			continue
		}
		return phonenumbers.Format(parsed, phonenumbers.E164)
	}
	return ""
}

// SanitizeOptionalPhone keeps the raw value when it cannot be normalized so the
// validator can reject it with a field error instead of silently dropping it.
func SanitizeOptionalPhone(phone string) string {
	if normalized := SanitizePhone(phone); normalized != "" {
		return normalized
	}
	return strings.TrimSpace(phone)
}
