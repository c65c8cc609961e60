package google

import (
	"context"
	"fmt"
	"net/http"

	"github.com/harrisonrobin/taskpilot/pkg/auth"
	"github.com/harrisonrobin/taskpilot/pkg/index"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/tasks/v1"
)

func authorizedClient(ctx context.Context) (*http.Client, error) {
	return auth.GetClient(ctx, auth.GoogleScopes)
}

// NewClient creates a calendar client for the calendar named calendarName.
func NewClient(ctx context.Context, calendarName string, idx *index.EventIndex) (*CalendarClient, error) {
	client, err := authorizedClient(ctx)
	if err != nil {
		return nil, err
	}

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Calendar client: %w", err)
	}

	calendarID, err := FindCalendarID(ctx, srv, calendarName)
	if err != nil {
		return nil, err
	}
	return NewCalendarClient(srv, calendarID, idx), nil
}

// FindCalendarID resolves a calendar summary to its id.
func FindCalendarID(ctx context.Context, srv *calendar.Service, calendarName string) (string, error) {
	calendarList, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to retrieve calendar list: %w", err)
	}

	for _, item := range calendarList.Items {
		if item.Summary == calendarName {
			return item.Id, nil
		}
	}
	return "", fmt.Errorf("calendar '%s' not found", calendarName)
}

// NewTasksImporter creates an authorized Google Tasks importer.
func NewTasksImporter(ctx context.Context) (*TasksImporter, error) {
	client, err := authorizedClient(ctx)
	if err != nil {
		return nil, err
	}

	srv, err := tasks.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Tasks client: %w", err)
	}
	return NewTasksImporterWithService(srv), nil
}
