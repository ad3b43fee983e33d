package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	var messages []string
	for _, err := range ve {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// E.164-ish: optional +, 8 to 15 digits, no leading zero.
var phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{7,14}$`)

func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidateSaleWindow checks that a flash-sale window is well-formed: the end
// must come strictly after the begin.
func ValidateSaleWindow(begin, end time.Time) *ValidationError {
	if begin.IsZero() || end.IsZero() {
		return &ValidationError{Field: "sale_window", Message: "begin and end times are required"}
	}
	if !end.After(begin) {
		return &ValidationError{Field: "sale_window", Message: "must end after it begins"}
	}
	return nil
}

func ValidatePositive(value int64, fieldName string) *ValidationError {
	if value <= 0 {
		return &ValidationError{Field: fieldName, Message: "must be positive"}
	}
	return nil
}

func ValidateRequired(value, fieldName string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: fieldName, Message: "is required"}
	}
	return nil
}
