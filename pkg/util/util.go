package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/harrisonrobin/taskpilot/pkg/analyzer"
	"github.com/harrisonrobin/taskpilot/pkg/classify"
	"github.com/harrisonrobin/taskpilot/pkg/model"
	"google.golang.org/api/calendar/v3"
)

// PrivateIDKey is the extended property linking an event back to its record.
const PrivateIDKey = "taskpilot_id"

// Calendar colour ids per tier.
var tierColors = map[classify.Tier]string{
	classify.High:   "11",
	classify.Medium: "5",
	classify.Low:    "2",
}

const (
	dayStartHour    = 9
	defaultDuration = time.Hour
)

var durationPart = regexp.MustCompile(`(\d+(?:\.\d+)?)([HMS])`)

// ParseDuration parses ISO 8601 duration format (PT1H30M) from Taskwarrior JSON export
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	if len(s) < 2 || s[0] != 'P' {
		return 0, fmt.Errorf("invalid ISO 8601 duration format: %s", s)
	}

	s = s[1:]
	if len(s) == 0 || s[0] != 'T' {
		return 0, fmt.Errorf("invalid ISO 8601 duration (missing T): P%s", s)
	}
	s = s[1:]

	var total time.Duration
	for _, match := range durationPart.FindAllStringSubmatch(s, -1) {
		value, _ := strconv.ParseFloat(match[1], 64)

		switch match[2] {
		case "H":
			total += time.Duration(value * float64(time.Hour))
		case "M":
			total += time.Duration(value * float64(time.Minute))
		case "S":
			total += time.Duration(value * float64(time.Second))
		}
	}

	if total == 0 {
		return 0, fmt.Errorf("invalid ISO 8601 duration: PT%s", s)
	}

	return total, nil
}

// TierColor returns the calendar colour id for a tier.
func TierColor(t classify.Tier) string {
	if id, ok := tierColors[t]; ok {
		return id
	}
	return tierColors[classify.Medium]
}

// ConvertItemToCalendarEvent builds the event for one prioritized item. The
// event starts at 09:00 on the due date in loc and lasts the estimate.
func ConvertItemToCalendarEvent(item analyzer.TieredItem, loc *time.Location) (*calendar.Event, error) {
	if item.ID == "" {
		return nil, fmt.Errorf("could not convert item without id")
	}
	if loc == nil {
		loc = time.Local
	}

	day, err := time.ParseInLocation(model.DateLayout, item.DueDate, loc)
	if err != nil {
		return nil, fmt.Errorf("item %s has no usable due date %q: %w", item.ID, item.DueDate, err)
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), dayStartHour, 0, 0, 0, loc)

	duration := defaultDuration
	if item.EstimatedHours != nil && *item.EstimatedHours > 0 {
		duration = time.Duration(*item.EstimatedHours * float64(time.Hour))
	}
	end := start.Add(duration)

	var desc strings.Builder
	fmt.Fprintf(&desc, "Priority: %s\n", item.Tier)
	if item.Score.Valid {
		fmt.Fprintf(&desc, "Score: %.2f\n", item.Score.Value)
	}
	if item.Importance != nil {
		fmt.Fprintf(&desc, "Importance: %g\n", *item.Importance)
	}
	if item.Explanation != "" {
		fmt.Fprintf(&desc, "\n%s\n", item.Explanation)
	}
	fmt.Fprintf(&desc, "\nID: %s\n", item.ID)

	return &calendar.Event{
		Summary:     item.DisplayTitle(),
		ColorId:     TierColor(item.Tier),
		Description: desc.String(),
		Start: &calendar.EventDateTime{
			DateTime: start.UTC().Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: end.UTC().Format(time.RFC3339),
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{PrivateIDKey: item.ID},
		},
	}, nil
}

// EventNeedsUpdate returns a patch event if the target differs from the
// existing event, or nil when they already agree.
func EventNeedsUpdate(existingEvent *calendar.Event, targetEvent *calendar.Event) (*calendar.Event, error) {
	patch := &calendar.Event{}
	needsUpdate := false

	if existingEvent.Summary != targetEvent.Summary {
		patch.Summary = targetEvent.Summary
		needsUpdate = true
	}
	if existingEvent.Description != targetEvent.Description {
		patch.Description = targetEvent.Description
		needsUpdate = true
	}
	if existingEvent.ColorId != targetEvent.ColorId {
		patch.ColorId = targetEvent.ColorId
		needsUpdate = true
	}

	if existingEvent.Start == nil || existingEvent.End == nil {
		patch.Start = targetEvent.Start
		patch.End = targetEvent.End
		return patch, nil
	}
	existingStartTime, err := time.Parse(time.RFC3339, existingEvent.Start.DateTime)
	if err != nil {
		return nil, err
	}
	targetStartTime, err := time.Parse(time.RFC3339, targetEvent.Start.DateTime)
	if err != nil {
		return nil, err
	}
	existingEndTime, err := time.Parse(time.RFC3339, existingEvent.End.DateTime)
	if err != nil {
		return nil, err
	}
	targetEndTime, err := time.Parse(time.RFC3339, targetEvent.End.DateTime)
	if err != nil {
		return nil, err
	}

	if !existingStartTime.Equal(targetStartTime) || !existingEndTime.Equal(targetEndTime) {
		patch.Start = targetEvent.Start
		patch.End = targetEvent.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch, nil
	}
	return nil, nil
}

// GetRecordIDFromEvent reads the record id from the private property, then
// from the description for events written by hand.
func GetRecordIDFromEvent(event *calendar.Event) (string, bool) {
	if event == nil {
		return "", false
	}
	if event.ExtendedProperties != nil {
		if id := event.ExtendedProperties.Private[PrivateIDKey]; id != "" {
			return id, true
		}
	}
	return GetRecordIDFromEventDescription(event.Description)
}

// GetRecordIDFromEventDescription parses the record ID from the event description.
func GetRecordIDFromEventDescription(description string) (string, bool) {
	re := regexp.MustCompile(`(?m)^ID: (\S+)$`)
	matches := re.FindStringSubmatch(description)
	if len(matches) > 1 {
		return matches[1], true
	}
	return "", false
}
