package models

// Attendee is one registration for an event.
// Empty strings stand for values the API did not return.
type Attendee struct {
	FirstName       string
	LastName        string
	Email           string
	CellPhone       string
	Created         string // Registration timestamp, e.g. 2024-01-02T10:00:00Z
	TicketClassName string
	Birthdate       string // Derived from the custom questions, see roster.DeriveBirthdate
	Answers         []Answer
}

// Answer is a custom question answered at registration time.
type Answer struct {
	Question string
	Answer   string
}

// FullName joins first and last name for display.
func (a Attendee) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}
