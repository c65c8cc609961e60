package google

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harrisonrobin/taskpilot/pkg/analyzer"
	"github.com/harrisonrobin/taskpilot/pkg/index"
	"github.com/harrisonrobin/taskpilot/pkg/logger"
	"github.com/harrisonrobin/taskpilot/pkg/util"
	"google.golang.org/api/calendar/v3"
)

// CalendarClient is a Google Calendar API client.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
	index      *index.EventIndex
	// Location is where due dates are placed, time.Local when nil.
	Location *time.Location
}

// NewCalendarClient creates a new Google Calendar client.
func NewCalendarClient(srv *calendar.Service, calendarID string, idx *index.EventIndex) *CalendarClient {
	return &CalendarClient{srv: srv, calendarID: calendarID, index: idx}
}

// ExportSummary counts what an export did.
type ExportSummary struct {
	Created   int
	Updated   int
	Unchanged int
	Removed   int
	Failed    int
}

// Export writes every prioritized item of the view to the calendar and takes
// blocked items off it. Items that fail are logged and counted, and the rest
// are still exported.
func (c *CalendarClient) Export(ctx context.Context, view *analyzer.AnalysisView) (ExportSummary, error) {
	var summary ExportSummary
	if view == nil {
		return summary, nil
	}
	log := logger.FromContext(ctx)

	for _, item := range view.Priority {
		outcome, err := c.SyncItem(ctx, item)
		if err != nil {
			log.Warn("could not export item", "id", item.ID, "error", err)
			summary.Failed++
			continue
		}
		switch outcome {
		case EventCreated:
			summary.Created++
		case EventUpdated:
			summary.Updated++
		default:
			summary.Unchanged++
		}
	}

	for _, item := range view.Blocked {
		removed, err := c.RemoveItem(ctx, item.ID)
		if err != nil {
			log.Warn("could not remove blocked item", "id", item.ID, "error", err)
			continue
		}
		if removed {
			summary.Removed++
		}
	}

	if c.index != nil {
		if err := c.index.Save(); err != nil {
			log.Warn("could not save event index", "error", err)
		}
	}
	if summary.Failed > 0 && summary.Failed == len(view.Priority) {
		return summary, errors.New("no items could be exported")
	}
	return summary, nil
}

// SyncOutcome says what SyncItem did to the calendar.
type SyncOutcome int

const (
	EventUnchanged SyncOutcome = iota
	EventCreated
	EventUpdated
)

// SyncItem creates the event for an item or patches the existing one.
func (c *CalendarClient) SyncItem(ctx context.Context, item analyzer.TieredItem) (SyncOutcome, error) {
	event, err := util.ConvertItemToCalendarEvent(item, c.Location)
	if err != nil {
		return EventUnchanged, err
	}

	var existingEvent *calendar.Event
	if c.index != nil {
		if eventID := c.index.Get(item.ID); eventID != "" {
			existingEvent, err = c.srv.Events.Get(c.calendarID, eventID).Context(ctx).Do()
			if err != nil || existingEvent.Status == "cancelled" {
				existingEvent = nil
			}
		}
	}

	if existingEvent == nil {
		existingEvent, err = c.GetEventByRecordID(ctx, item.ID)
		if err != nil {
			return EventUnchanged, fmt.Errorf("error searching for event: %w", err)
		}
	}

	if existingEvent != nil {
		patch, err := util.EventNeedsUpdate(existingEvent, event)
		if err != nil {
			return EventUnchanged, fmt.Errorf("could not compare item with its calendar event: %w", err)
		}
		if c.index != nil {
			c.index.Set(item.ID, existingEvent.Id)
		}
		if patch == nil {
			return EventUnchanged, nil
		}
		if _, err := c.PatchEvent(ctx, existingEvent.Id, patch); err != nil {
			return EventUnchanged, err
		}
		return EventUpdated, nil
	}

	createdEvent, err := c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return EventUnchanged, err
	}
	if c.index != nil {
		c.index.Set(item.ID, createdEvent.Id)
	}
	return EventCreated, nil
}

// RemoveItem deletes the event exported for a record, if there is one.
func (c *CalendarClient) RemoveItem(ctx context.Context, recordID string) (bool, error) {
	event, err := c.GetEventByRecordID(ctx, recordID)
	if err != nil {
		return false, fmt.Errorf("error searching for event: %w", err)
	}
	if c.index != nil {
		c.index.Remove(recordID)
	}
	if event == nil {
		return false, nil
	}
	if err := c.DeleteEvent(ctx, event.Id); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteEvent deletes an event from the calendar.
func (c *CalendarClient) DeleteEvent(ctx context.Context, eventID string) error {
	return c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
}

// PatchEvent performs a partial update on an event.
func (c *CalendarClient) PatchEvent(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Patch(c.calendarID, eventID, patch).Context(ctx).Do()
}

// GetEventByRecordID searches for a live event carrying the record id in its
// private extended properties.
func (c *CalendarClient) GetEventByRecordID(ctx context.Context, recordID string) (*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", util.PrivateIDKey, recordID)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	for _, event := range events.Items {
		if event.Status != "cancelled" {
			return event, nil
		}
	}
	return nil, nil
}
