package google

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/workload/pkg/model"
)

// Private extended properties carrying workload metadata on an event.
const (
	PropEventType   = "event_type"
	PropIsCompleted = "is_completed"
	PropCourse      = "course_name"
)

const (
	DefaultLookback  = 5 * 7 * 24 * time.Hour
	DefaultLookahead = 5 * 7 * 24 * time.Hour
)

// CalendarClient is a Google Calendar API client. It is the synced
// assignment source.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string

	Lookback  time.Duration
	Lookahead time.Duration
	now       func() time.Time
}

// NewCalendarClient creates a new Google Calendar client.
func NewCalendarClient(srv *calendar.Service, calendarID string) *CalendarClient {
	return &CalendarClient{
		srv:        srv,
		calendarID: calendarID,
		Lookback:   DefaultLookback,
		Lookahead:  DefaultLookahead,
		now:        time.Now,
	}
}

func (c *CalendarClient) Name() string { return "google" }

// Fetch lists every event between Lookback before and Lookahead after the
// current time, expanded into single instances.
func (c *CalendarClient) Fetch(ctx context.Context) (model.Snapshot, error) {
	now := c.now()
	events, err := c.ListEvents(ctx, now.Add(-c.Lookback), now.Add(c.Lookahead))
	if err != nil {
		return model.Snapshot{}, err
	}
	s := model.Snapshot{Events: make([]model.Event, 0, len(events))}
	for _, ev := range events {
		if ev.Status == "cancelled" {
			continue
		}
		s.Events = append(s.Events, ToRaw(ev))
	}
	return s, nil
}

// Apply stores the completion flag as a private extended property.
func (c *CalendarClient) Apply(ctx context.Context, u model.CompletionUpdate) error {
	if u.Kind != model.SyncedAssignment {
		return fmt.Errorf("google: cannot apply %s update", u.Kind)
	}
	patch := &calendar.Event{
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{PropIsCompleted: strconv.FormatBool(u.Completed())},
		},
	}
	if _, err := c.PatchEvent(ctx, u.ID, patch); err != nil {
		return fmt.Errorf("unable to update event %s: %w", u.ID, err)
	}
	return nil
}

// PatchEvent performs a partial update on an event.
func (c *CalendarClient) PatchEvent(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Patch(c.calendarID, eventID, patch).Context(ctx).Do()
}

// ListEvents fetches events from the calendar within a given time range.
func (c *CalendarClient) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]*calendar.Event, error) {
	var items []*calendar.Event
	call := c.srv.Events.List(c.calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")
	err := call.Pages(ctx, func(page *calendar.Events) error {
		items = append(items, page.Items...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve events from calendar: %w", err)
	}
	return items, nil
}

// ToRaw converts a calendar event into the raw event shape. The event_type
// property decides the type; without it a zero-length timed event is read
// as an assignment deadline.
func ToRaw(ev *calendar.Event) model.Event {
	raw := model.Event{
		ID:          ev.Id,
		Title:       ev.Summary,
		Description: ev.Description,
		StartTime:   dateTime(ev.Start),
		EndTime:     dateTime(ev.End),
		EventType:   "event",
	}
	var private map[string]string
	if ev.ExtendedProperties != nil {
		private = ev.ExtendedProperties.Private
	}

	switch t := strings.TrimSpace(private[PropEventType]); {
	case t != "":
		raw.EventType = strings.ToLower(t)
	case raw.StartTime != "" && raw.StartTime == raw.EndTime && ev.Start.Date == "":
		raw.EventType = model.EventTypeAssignment
	}
	if v, ok := private[PropIsCompleted]; ok {
		if done, err := strconv.ParseBool(v); err == nil {
			raw.IsCompleted = &done
		}
	}
	raw.CourseName = private[PropCourse]
	return raw
}

// dateTime returns the RFC3339 instant of a timed event, or the bare date
// of an all-day one.
func dateTime(t *calendar.EventDateTime) string {
	if t == nil {
		return ""
	}
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}
