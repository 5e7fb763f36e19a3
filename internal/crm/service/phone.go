package service

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// normalizePhone returns the E.164 form of raw when it parses as a valid
// number for region. Anything else is kept as typed.
func normalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if region == "" {
		region = "CO"
	}
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
