package models

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultDialCode is preselected in the country picker.
	DefaultDialCode = "+91"

	// NationalNumberLength caps and bounds the national part. Longer keypad
	// input is truncated, not rejected, so the field stays enterable.
	NationalNumberLength = 10
)

var dialCodeRe = regexp.MustCompile(`^\+\d{1,3}$`)

// PhoneNumber is an editable phone identifier: a country dial code plus the
// national digits. Its canonical form "{dialCode} {national}" is the key used
// to look up and resolve recipients.
type PhoneNumber struct {
	dialCode string
	national string
}

func NewPhoneNumber() PhoneNumber {
	return PhoneNumber{dialCode: DefaultDialCode}
}

// PhoneNumberFromCanonical parses an identifier back into an editable number,
// e.g. when pre-populating the recipient from a money request.
func PhoneNumberFromCanonical(canonical string) (PhoneNumber, error) {
	dial, national, found := strings.Cut(canonical, " ")
	if !found || !dialCodeRe.MatchString(dial) {
		return PhoneNumber{}, fmt.Errorf("malformed phone identifier %q", canonical)
	}

	p := PhoneNumber{dialCode: dial}
	p.SetNationalDigits(national)
	if p.national != national {
		return PhoneNumber{}, fmt.Errorf("malformed phone identifier %q", canonical)
	}
	return p, nil
}

// SetCountry replaces the dial code. Anything that is not "+" followed by
// one to three digits is ignored and the current code kept.
func (p *PhoneNumber) SetCountry(dialCode string) {
	if dialCodeRe.MatchString(dialCode) {
		p.dialCode = dialCode
	}
}

// SetNationalDigits replaces the national part with the digits of raw,
// stripping every other character and truncating at NationalNumberLength.
// Applied to already-clean input of valid length it is a no-op.
func (p *PhoneNumber) SetNationalDigits(raw string) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
		if b.Len() == NationalNumberLength {
			break
		}
	}
	p.national = b.String()
}

func (p PhoneNumber) DialCode() string {
	return p.dialCode
}

func (p PhoneNumber) National() string {
	return p.national
}

// Canonical returns the identifier form sent to the backend, or the empty
// string while no national digits have been entered.
func (p PhoneNumber) Canonical() string {
	if p.national == "" {
		return ""
	}
	return p.dialCode + " " + p.national
}

// IsComplete reports whether the number is long enough to resolve.
func (p PhoneNumber) IsComplete() bool {
	return len(p.national) >= NationalNumberLength
}
