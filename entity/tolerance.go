package entity

import "math"

// Tolerance is the epsilon below which a monetary amount is treated as zero.
// Every near-zero or near-equal decision in the engine goes through the
// helpers below; raw == comparisons against fund values are never correct
// because all amounts are IEEE doubles accumulated by summation.
const Tolerance = 1e-8

// IsZero reports whether value is zero within Tolerance.
func IsZero(value float64) bool {
	return math.Abs(value) < Tolerance
}

// IsNonNegative reports whether value is not meaningfully negative.
func IsNonNegative(value float64) bool {
	return value > -Tolerance
}

// IsNonPositive reports whether value is not meaningfully positive.
func IsNonPositive(value float64) bool {
	return value < Tolerance
}

// FundEqual reports whether two fund values are equal within Tolerance.
func FundEqual(a, b float64) bool {
	return IsZero(a - b)
}
