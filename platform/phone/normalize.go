// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when a number carries no country prefix.
const DefaultRegion = "US"

// Normalizer turns free-form phone input into the digits-only canonical
// form stored as a lead's normalized phone.
type Normalizer struct {
	region string
}

// NewNormalizer creates a normalizer for the given default region.
func NewNormalizer(region string) *Normalizer {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = DefaultRegion
	}
	return &Normalizer{region: region}
}

// Digits returns the national significant number when the input parses as a
// valid number for the region, otherwise every digit in the input.
// Blank input yields "".
func (n *Normalizer) Digits(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	number, err := phonenumbers.Parse(trimmed, n.region)
	if err == nil && phonenumbers.IsValidNumber(number) {
		return phonenumbers.GetNationalSignificantNumber(number)
	}

	return DigitsOnly(trimmed)
}

// DigitsOnly strips every non-digit rune.
func DigitsOnly(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
