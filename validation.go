package main

import (
	"strconv"
	"strings"

	"aeroparts/internal/validation"
)

// Aliases so handlers can use the short names.
type ValidationError = validation.ValidationError
type ValidationErrors = validation.ValidationErrors

func requireField(ve *ValidationErrors, field, value string) {
	validation.RequireField(ve, field, value)
}

func validateEnum(ve *ValidationErrors, field, value string, allowed []string) {
	validation.ValidateEnum(ve, field, value, allowed)
}

func validateEmail(ve *ValidationErrors, field, value string) {
	validation.ValidateEmail(ve, field, value)
}

func validatePositiveInt(ve *ValidationErrors, field string, value int) {
	validation.ValidatePositiveInt(ve, field, value)
}

func validateMaxLength(ve *ValidationErrors, field, value string, max int) {
	validation.ValidateMaxLength(ve, field, value, max)
}

// parseIntDefault parses s as an int, returning def on empty or junk input.
func parseIntDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
