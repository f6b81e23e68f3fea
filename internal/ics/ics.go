package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/agenda-distribuida/event-agenda/internal/models"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"

	productName = "event-agenda"

	// propertyEventTime carries the free-form time text, which has no
	// standard iCalendar property.
	propertyEventTime = ical.ComponentProperty("X-EVENT-TIME")
)

// UID returns the iCalendar UID used for the event with the given ID.
func UID(id int64) string {
	return fmt.Sprintf("event-%d@%s", id, productName)
}

// Export writes events as an iCalendar document with one all-day VEVENT per
// event. Events whose date is not YYYY-MM-DD are left out. It returns the
// number of events written.
func Export(w io.Writer, events []*models.Event) (int, error) {
	cal := ical.NewCalendarFor(productName)
	cal.SetMethod(ical.MethodPublish)

	stamp := time.Now().UTC()
	written := 0
	for _, e := range events {
		if e == nil {
			continue
		}
		day, err := time.Parse(dateLayout, e.Date)
		if err != nil {
			continue
		}

		ve := cal.AddEvent(UID(e.ID))
		ve.SetDtStampTime(stamp)
		ve.SetAllDayStartAt(day)
		ve.SetAllDayEndAt(day.AddDate(0, 0, 1))
		ve.SetSummary(e.Name)
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		if isWebURL(e.Image) {
			ve.SetURL(e.Image)
		}
		if e.Time != "" {
			ve.SetProperty(propertyEventTime, e.Time)
		}
		written++
	}

	if err := cal.SerializeTo(w); err != nil {
		return 0, fmt.Errorf("failed to write calendar: %w", err)
	}
	return written, nil
}

// Import reads an iCalendar document and returns one event request per
// VEVENT, in document order.
func Import(r io.Reader) ([]*models.EventRequest, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar: %w", err)
	}

	vevents := cal.Events()
	reqs := make([]*models.EventRequest, 0, len(vevents))
	for _, ve := range vevents {
		reqs = append(reqs, parseVEvent(ve))
	}
	return reqs, nil
}

func parseVEvent(ve *ical.VEvent) *models.EventRequest {
	req := &models.EventRequest{}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		req.Name = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		req.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyUrl); p != nil && isWebURL(p.Value) {
		req.Image = p.Value
	}
	if p := ve.GetProperty(propertyEventTime); p != nil {
		req.Time = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return req
	}

	// VALUE=DATE or no 'T' in the value means all-day
	if !strings.Contains(dtStart.Value, "T") {
		if day, err := ve.GetAllDayStartAt(); err == nil {
			req.Date = day.Format(dateLayout)
		}
		return req
	}

	if start, err := ve.GetStartAt(); err == nil {
		req.Date = start.Format(dateLayout)
		if req.Time == "" {
			req.Time = start.Format(clockLayout)
		}
	}
	return req
}

func isWebURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
