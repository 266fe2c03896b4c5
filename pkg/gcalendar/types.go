package gcalendar

import "time"

// CreateEventRequest is the input for mirroring a task due date as an
// all-day calendar event.
type CreateEventRequest struct {
	CalendarID  string
	Summary     string
	Description string
	// Due is the day of the event. Only the date part is used.
	Due      time.Time
	Timezone string
}

// Event is the created calendar event.
type Event struct {
	ID       string
	Summary  string
	HTMLLink string
	Due      time.Time
}
