package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"rollcall/internal/models"
	"rollcall/internal/roster"
)

var attendeeHeader = []string{"First name", "Last name", "Email", "Phone", "Birthdate", "Ticket", "Registered"}

// Listing prints the next event's title line and its attendee table.
func Listing(w io.Writer, l *roster.Listing) {
	title := color.New(color.Bold).Sprintf("Attendees of %s on %s", l.Event.Name, l.Date)
	fmt.Fprintf(w, "%s (%d)\n", title, len(l.Attendees))
	if len(l.Attendees) == 0 {
		fmt.Fprintln(w, color.YellowString("No attendees registered yet."))
		return
	}
	table(w, attendeeHeader, AttendeeRows(l.Attendees))
}

// AttendeeRows lays attendees out in attendeeHeader column order.
func AttendeeRows(attendees []models.Attendee) [][]string {
	rows := make([][]string, 0, len(attendees))
	for _, a := range attendees {
		rows = append(rows, []string{a.FirstName, a.LastName, a.Email, a.CellPhone, a.Birthdate, a.TicketClassName, a.Created})
	}
	return rows
}

// Matches prints the events found by a name search.
func Matches(w io.Writer, firstName, lastName string, matches []models.EventMatch) {
	if len(matches) == 0 {
		fmt.Fprintln(w, color.YellowString("No events found for %s %s.", firstName, lastName))
		return
	}
	fmt.Fprintln(w, color.New(color.Bold).Sprintf("Events attended by %s %s", firstName, lastName))
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, []string{m.Name, roster.FormatEventDate(m.StartLocal)})
	}
	table(w, []string{"Event", "Date"}, rows)
}

func table(w io.Writer, header []string, rows [][]string) {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.AppendBulk(rows)
	t.SetBorder(false)
	t.Render()
}
