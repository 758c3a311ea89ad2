package roster

import (
	"context"
	"strings"

	"rollcall/internal/eventbrite"
	"rollcall/internal/models"
)

// FindEventsByName scans completed and live events, newest first, and
// returns those where an attendee has the given first and last name.
//
// It is best effort and never fails: a missing token, organization or event
// list yields no result, and an event whose attendees cannot be fully read
// is judged on the attendees that were read.
func (s *Service) FindEventsByName(ctx context.Context, firstName, lastName string) []models.EventMatch {
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	s.logger.Debug("Searching events by attendee name", "firstName", firstName, "lastName", lastName)

	token, err := s.tokens.ValidToken(ctx)
	if err != nil {
		s.logger.Warn("Name search skipped: no access token", "error", err)
		return nil
	}
	api := s.connect(ctx, token)

	org, err := api.Organization(ctx)
	if err != nil {
		s.logger.Warn("Name search skipped: no organization", "error", err)
		return nil
	}

	events, err := api.Events(ctx, org.ID, eventbrite.EventFilter{
		OrderBy:  eventbrite.OrderStartDesc,
		Statuses: []string{eventbrite.StatusCompleted, eventbrite.StatusLive},
	})
	if err != nil {
		s.logger.Warn("Name search skipped: cannot list events", "error", err)
		return nil
	}

	var found []models.EventMatch
	for _, event := range events {
		attendees, err := api.Attendees(ctx, event.ID, nil)
		if err != nil {
			s.logger.Warn("Attendee listing stopped early", "eventID", event.ID, "fetched", len(attendees), "error", err)
		}
		for _, a := range attendees {
			if MatchesName(a, firstName, lastName) {
				found = append(found, models.EventMatch{Name: event.Name, StartLocal: event.StartLocal})
				break
			}
		}
	}
	s.logger.Info("Name search finished", "events", len(events), "matches", len(found))
	return found
}

// MatchesName reports whether the attendee's names equal the query,
// ignoring case and surrounding spaces of the query.
func MatchesName(a models.Attendee, firstName, lastName string) bool {
	if a.FirstName == "" || a.LastName == "" {
		return false
	}
	return strings.EqualFold(a.FirstName, strings.TrimSpace(firstName)) &&
		strings.EqualFold(a.LastName, strings.TrimSpace(lastName))
}
