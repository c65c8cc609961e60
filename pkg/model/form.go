package model

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FormFields holds the raw values typed by the user.
type FormFields struct {
	Title        string
	DueDate      string
	Hours        string
	Importance   string
	Dependencies string
}

type formInput struct {
	Title      string  `json:"title"           validate:"required"`
	DueDate    string  `json:"due_date"        validate:"required"`
	Hours      float64 `json:"estimated_hours" validate:"gt=0"`
	Importance float64 `json:"importance"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CreateFromForm builds a Record from interactive input. The record id is
// derived from sequence; advancing the sequence is the caller's job.
func CreateFromForm(fields FormFields, sequence int) (Record, error) {
	var invalid []string

	hours, ok := parseNumber(fields.Hours)
	if !ok {
		invalid = append(invalid, "estimated_hours")
	}
	importance, ok := parseNumber(fields.Importance)
	if !ok {
		invalid = append(invalid, "importance")
	}

	in := formInput{
		Title:      strings.TrimSpace(fields.Title),
		DueDate:    strings.TrimSpace(fields.DueDate),
		Hours:      hours,
		Importance: importance,
	}
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Record{}, err
		}
		for _, fe := range verrs {
			invalid = appendUnique(invalid, fe.Field())
		}
	}
	if len(invalid) > 0 {
		return Record{}, &ValidationError{Fields: invalid}
	}

	return Record{
		ID:             SequenceID(sequence),
		Title:          in.Title,
		DueDate:        in.DueDate,
		EstimatedHours: in.Hours,
		Importance:     in.Importance,
		Dependencies:   SplitDependencies(fields.Dependencies),
	}, nil
}

// SplitDependencies splits a comma-separated list, trimming entries and
// dropping empty ones.
func SplitDependencies(s string) []string {
	deps := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			deps = append(deps, part)
		}
	}
	return deps
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
