package models

// Organization is the Eventbrite organization owning the events.
type Organization struct {
	ID string
}

// Event represents an Eventbrite event.
// This is an internal representation, independent of the API wire format.
type Event struct {
	ID         string // Eventbrite event ID
	Name       string // Display name of the event
	StartLocal string // Naive local start time, e.g. 2024-05-10T18:00:00
	Timezone   string // IANA zone of StartLocal, may be empty
}

// EventMatch is one row of a name search: an event the person registered to.
type EventMatch struct {
	Name       string
	StartLocal string
}
