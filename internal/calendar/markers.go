package calendar

import (
	"sort"

	"github.com/agenda-distribuida/event-agenda/internal/models"
)

// DotColor is the marker color shown under a day with events.
const DotColor = "#CD5700"

// Marker annotates a calendar date that has at least one event.
type Marker struct {
	Marked   bool   `json:"marked"`
	DotColor string `json:"dotColor"`
}

// Markers maps a date string (YYYY-MM-DD) to its marker.
type Markers map[string]Marker

// DeriveMarkers marks every non-empty event date. It never returns nil.
func DeriveMarkers(events []*models.Event) Markers {
	marked := make(Markers)
	for _, event := range events {
		if event == nil || event.Date == "" {
			continue
		}
		marked[event.Date] = Marker{Marked: true, DotColor: DotColor}
	}
	return marked
}

// Dates returns the marked dates in ascending order.
func (m Markers) Dates() []string {
	dates := make([]string, 0, len(m))
	for d := range m {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
