// Package money converts between major currency units (naira, dollars) and
// minor units (kobo, cents). The HTTP boundary deals in major units; payment
// providers always receive minor-unit integers. The conversion is x100,
// applied exactly once, in the reconciliation service.
package money

import "fmt"

// MinorPerMajor is the number of minor units per major unit for every
// currency this service handles (kobo per naira, cents per dollar).
const MinorPerMajor = 100

// ToMinorUnits converts a major-unit amount to minor units.
func ToMinorUnits(major int64) int64 {
	return major * MinorPerMajor
}

// ToMajorUnits converts a minor-unit amount back to major units. It fails
// when the amount does not divide evenly, which would silently lose value.
func ToMajorUnits(minor int64) (int64, error) {
	if minor%MinorPerMajor != 0 {
		return 0, fmt.Errorf("amount %d is not a whole major unit", minor)
	}
	return minor / MinorPerMajor, nil
}

// MajorUnitsTruncated converts minor units to major units discarding any
// remainder. Response shaping only; never use it for amount comparisons.
func MajorUnitsTruncated(minor int64) int64 {
	return minor / MinorPerMajor
}
