// Package moneypkg provides common money related functionality for apps.
package moneypkg

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// IsPositiveAmount returns true if s is a decimal number greater than zero.
func IsPositiveAmount(s string) bool {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}

	return d.GreaterThan(decimal.Zero)
}

// ValidAmount validates whether the field holds a positive decimal amount.
var ValidAmount validator.Func = func(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return IsPositiveAmount(s)
	}

	return false
}
