package model

import (
	"fmt"
	"time"
)

const (
	DefaultTitle      = "Untitled Task"
	DefaultHours      = 1.0
	DefaultImportance = 1.0

	// DateLayout is the ISO calendar date used for due dates.
	DateLayout = "2006-01-02"
)

// Record is a task as it is held in the collection and sent to the services.
type Record struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	DueDate        string   `json:"due_date"`
	EstimatedHours float64  `json:"estimated_hours"`
	Importance     float64  `json:"importance"`
	Dependencies   []string `json:"dependencies"`
}

// SequenceID formats the identifier handed out for sequence number n.
func SequenceID(n int) string {
	return fmt.Sprintf("task-%d", n)
}

// Today returns the current date on the client clock. Tests may replace it.
var Today = func() string {
	return time.Now().UTC().Format(DateLayout)
}
