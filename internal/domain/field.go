// Package domain contains the core entities of the countdown timer: the
// three bounded digit fields, the duration editor that owns them, and the
// records describing countdown runs and effect preferences.
// These types are independent of any terminal, storage or notification
// infrastructure.
package domain

import "errors"

// Common domain errors.
var (
	ErrInvalidFieldValue      = errors.New("field value must be at most two decimal digits")
	ErrDurationTooLong        = errors.New("duration exceeds 99h59m59s")
	ErrInvalidDuration        = errors.New("duration must be zero or at least one second")
	ErrUnknownPreference      = errors.New("unknown preference")
	ErrInvalidPreferenceValue = errors.New("invalid preference value")
	ErrRunNotFound            = errors.New("countdown run not found")
	ErrCountdownRunning       = errors.New("countdown already running")
)

// FieldWidth is the number of digits a field can hold.
const FieldWidth = 2

// FieldKind identifies one of the three duration fields.
type FieldKind int

const (
	FieldSeconds FieldKind = iota
	FieldMinutes
	FieldHours
)

// FieldOrder lists the fields from least to most significant. Overflow
// carries and borrow-decrements walk this order.
var FieldOrder = [3]FieldKind{FieldSeconds, FieldMinutes, FieldHours}

// Successor returns the next larger time unit. Hours has none.
func (k FieldKind) Successor() (FieldKind, bool) {
	switch k {
	case FieldSeconds:
		return FieldMinutes, true
	case FieldMinutes:
		return FieldHours, true
	default:
		return k, false
	}
}

// Predecessor returns the next smaller time unit. Seconds has none.
func (k FieldKind) Predecessor() (FieldKind, bool) {
	switch k {
	case FieldHours:
		return FieldMinutes, true
	case FieldMinutes:
		return FieldSeconds, true
	default:
		return k, false
	}
}

// Multiplier returns the number of seconds one unit of the field is worth.
func (k FieldKind) Multiplier() int {
	switch k {
	case FieldMinutes:
		return 60
	case FieldHours:
		return 3600
	default:
		return 1
	}
}

// Unit returns the short unit label rendered next to the field.
func (k FieldKind) Unit() string {
	switch k {
	case FieldMinutes:
		return "m"
	case FieldHours:
		return "h"
	default:
		return "s"
	}
}

// String returns the field name.
func (k FieldKind) String() string {
	switch k {
	case FieldSeconds:
		return "seconds"
	case FieldMinutes:
		return "minutes"
	case FieldHours:
		return "hours"
	default:
		return "unknown"
	}
}

// HasOnlyDigits reports whether s consists solely of ASCII decimal digits.
// The empty string qualifies.
func HasOnlyDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ValidateFieldValue checks the field invariant: 0-2 characters, digits only.
func ValidateFieldValue(value string) error {
	if len(value) > FieldWidth || !HasOnlyDigits(value) {
		return ErrInvalidFieldValue
	}
	return nil
}

// parseDigits converts a digit string to an unsigned integer. The empty
// string reads as zero.
func parseDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
