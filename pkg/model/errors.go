package model

import (
	"fmt"
	"strings"
)

// FormErrorMessage is shown when interactive input is rejected.
const FormErrorMessage = "Please complete all fields with valid values."

// ValidationError reports interactive input that cannot become a Record.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return FormErrorMessage
	}
	return fmt.Sprintf("%s (invalid: %s)", FormErrorMessage, strings.Join(e.Fields, ", "))
}

// MalformedBulkInputError reports a bulk document that is not a JSON array.
// Message is meant to be shown to the user verbatim.
type MalformedBulkInputError struct {
	Message string
}

func (e *MalformedBulkInputError) Error() string {
	return e.Message
}
