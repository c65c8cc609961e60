package analyzer

import (
	"errors"
	"fmt"
)

// ErrEmptyCollection is returned before any request is made when there is
// nothing to analyze.
var ErrEmptyCollection = errors.New("add some tasks before analyzing")

// AnalysisRequestError reports a failed analyze call. Status is 0 when no
// response was received.
type AnalysisRequestError struct {
	Status int
	Err    error
}

func (e *AnalysisRequestError) Error() string {
	return requestErrorText("analyze", e.Status, e.Err)
}

func (e *AnalysisRequestError) Unwrap() error { return e.Err }

// SuggestionRequestError reports a failed suggestion fetch.
type SuggestionRequestError struct {
	Status int
	Err    error
}

func (e *SuggestionRequestError) Error() string {
	return requestErrorText("suggest", e.Status, e.Err)
}

func (e *SuggestionRequestError) Unwrap() error { return e.Err }

func requestErrorText(op string, status int, err error) string {
	switch {
	case status > 0 && err != nil:
		return fmt.Sprintf("%s failed (%d): %v", op, status, err)
	case status > 0:
		return fmt.Sprintf("%s failed (%d)", op, status)
	case err != nil:
		return fmt.Sprintf("%s failed: %v", op, err)
	default:
		return op + " failed"
	}
}
