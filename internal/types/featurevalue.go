package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FeatureValue is the string-encoded value of a feature grant. The encoding
// carries three kinds of semantics in one column: boolean flags ("true",
// "yes", "on"), numeric limits ("100"), and the unbounded sentinels
// ("unlimited", "-1").
type FeatureValue string

const FeatureValueUnlimited FeatureValue = "unlimited"

func (v FeatureValue) String() string {
	return string(v)
}

// IsUnlimited reports whether the value means no limit applies
func (v FeatureValue) IsUnlimited() bool {
	if v == FeatureValueUnlimited {
		return true
	}
	if d, ok := v.Decimal(); ok {
		return d.Equal(decimal.NewFromInt(-1))
	}
	return false
}

// IsTruthy reports whether the value is a boolean-style enablement flag
func (v FeatureValue) IsTruthy() bool {
	switch strings.ToLower(string(v)) {
	case "true", "yes", "1", "on":
		return true
	}
	return false
}

// IsFalsy reports whether the value is a boolean-style disablement flag
func (v FeatureValue) IsFalsy() bool {
	switch strings.ToLower(string(v)) {
	case "false", "no", "0", "off":
		return true
	}
	return false
}

// Decimal parses the value as a numeric limit
func (v FeatureValue) Decimal() (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(string(v))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
