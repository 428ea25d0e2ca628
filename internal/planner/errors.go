package planner

import (
	"sort"
	"strings"
)

// Field messages shown next to the form inputs.
var fieldMessages = map[string]string{
	"source":      "Starting point is required",
	"destination": "Destination is required",
}

func fieldMessage(field string) string {
	if msg, ok := fieldMessages[field]; ok {
		return msg
	}
	return field + " is required"
}

// ValidationError lists the form fields that failed validation with their messages.
type ValidationError struct {
	Fields map[string]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	return "planner: invalid form: " + strings.Join(names, ", ")
}
