package cli

import (
	"errors"
	"fmt"

	"github.com/harrisonrobin/taskpilot/pkg/analyzer"
	"github.com/harrisonrobin/taskpilot/pkg/model"
)

// UserMessage turns an error into the single line shown to the user.
func UserMessage(err error) string {
	var (
		validationErr *model.ValidationError
		bulkErr       *model.MalformedBulkInputError
		analyzeErr    *analyzer.AnalysisRequestError
		suggestErr    *analyzer.SuggestionRequestError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, analyzer.ErrEmptyCollection):
		return "Add some tasks before analyzing."
	case errors.As(err, &validationErr):
		return validationErr.Error()
	case errors.As(err, &bulkErr):
		return bulkErr.Message
	case errors.As(err, &analyzeErr):
		return requestMessage("Analyze", analyzeErr.Status, analyzeErr.Err)
	case errors.As(err, &suggestErr):
		return requestMessage("Suggest", suggestErr.Status, suggestErr.Err)
	default:
		return err.Error()
	}
}

func requestMessage(op string, status int, err error) string {
	switch {
	case status == 0:
		return op + " failed: the service could not be reached."
	case status >= 200 && status < 300 && err != nil:
		return op + " failed: the service response could not be read."
	}
	return fmt.Sprintf("%s failed (%d).", op, status)
}
