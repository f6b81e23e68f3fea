package models

// Event is one advertised happening. ID is assigned by the store and never
// changes afterwards; a replace-all rewrite assigns new IDs to every row.
type Event struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Image       string `json:"image" db:"image"`
	Description string `json:"description" db:"description"`
	Time        string `json:"time" db:"time"`
	Date        string `json:"date" db:"date"`
}

// EventRequest carries the mutable fields of an event.
type EventRequest struct {
	Name        string `json:"name"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Time        string `json:"time"`
	Date        string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// Request returns the mutable fields of e.
func (e *Event) Request() *EventRequest {
	return &EventRequest{
		Name:        e.Name,
		Image:       e.Image,
		Description: e.Description,
		Time:        e.Time,
		Date:        e.Date,
	}
}

// ReplaceEventsRequest is the body of a replace-all call.
type ReplaceEventsRequest struct {
	Events []*EventRequest `json:"events"`
}
