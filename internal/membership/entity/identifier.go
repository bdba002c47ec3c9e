package entity

import (
	"regexp"
	"strings"
)

const defaultCountryCode = "+1"

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

	phoneNoise = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func cleanPhone(phone string) string {
	return phoneNoise.Replace(strings.TrimSpace(phone))
}

// ValidPhone accepts 10 to 15 digits with an optional leading plus once
// spaces, dashes and parentheses are removed.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(cleanPhone(phone))
}

// NormalizePhone converts phone to E.164. Numbers without a country code
// get +1 after dropping a leading trunk 0, or the leading 1 of an 11 digit
// North American number.
func NormalizePhone(phone string) string {
	p := cleanPhone(phone)
	if p == "" || strings.HasPrefix(p, "+") {
		return p
	}

	switch {
	case strings.HasPrefix(p, "0"):
		p = p[1:]
	case strings.HasPrefix(p, "1") && len(p) == 11:
		p = p[1:]
	}
	return defaultCountryCode + p
}

// IsEmailIdentifier tells login identifiers apart: anything with an @ is
// looked up as an email, everything else as a phone number.
func IsEmailIdentifier(identifier string) bool {
	return strings.Contains(identifier, "@")
}

// NormalizeIdentifier applies the channel specific normalization.
func NormalizeIdentifier(identifier string) (Channel, string) {
	if IsEmailIdentifier(identifier) {
		return ChannelEmail, NormalizeEmail(identifier)
	}
	return ChannelPhone, NormalizePhone(identifier)
}
