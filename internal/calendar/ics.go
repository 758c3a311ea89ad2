package calendar

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"rollcall/internal/models"
)

const (
	productID        = "-//rollcall//EN"
	startLocalLayout = "2006-01-02T15:04:05"
	floatingLayout   = "20060102T150405"
)

// Encode writes event as an iCalendar document with one ATTENDEE per
// attendee that has an email address.
func Encode(w io.Writer, event models.Event, attendees []models.Attendee, now time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Children = append(cal.Children, toICal(event, attendees, now))

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode event to iCal format: %w", err)
	}
	return nil
}

// toICal converts an event and its attendees to a VEVENT.
func toICal(event models.Event, attendees []models.Attendee, now time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, eventUID(event))
	ve.Props.SetText(ical.PropSummary, event.Name)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	if start := startProp(event); start != nil {
		ve.Props.Set(start)
	}

	for _, a := range attendees {
		if a.Email == "" {
			continue
		}
		p := ical.NewProp(ical.PropAttendee)
		p.Value = "mailto:" + a.Email
		if name := a.FullName(); name != "" {
			p.Params.Set(ical.ParamCommonName, name)
		}
		ve.Props.Add(p)
	}
	return ve
}

func eventUID(event models.Event) string {
	if event.ID == "" {
		return uuid.NewString()
	}
	return event.ID + "@eventbrite.com"
}

// startProp builds DTSTART in the event's zone, or as a floating local time
// when the zone is unknown. It returns nil when the start cannot be parsed.
func startProp(event models.Event) *ical.Prop {
	if event.Timezone != "" {
		if loc, err := time.LoadLocation(event.Timezone); err == nil {
			if t, err := time.ParseInLocation(startLocalLayout, event.StartLocal, loc); err == nil {
				p := ical.NewProp(ical.PropDateTimeStart)
				p.SetDateTime(t)
				return p
			}
			return nil
		}
	}
	t, err := time.Parse(startLocalLayout, event.StartLocal)
	if err != nil {
		return nil
	}
	p := ical.NewProp(ical.PropDateTimeStart)
	p.Value = t.Format(floatingLayout)
	return p
}
