package roster

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"rollcall/internal/eventbrite"
	"rollcall/internal/models"
)

const (
	// PriorityTicketClass is listed before every other ticket class.
	PriorityTicketClass = "Liste Principale"
	// BirthdateQuestion is the lowercase text of the custom question holding the birthdate.
	BirthdateQuestion = "date de naissance"
	// InvalidDate replaces an event date that cannot be parsed.
	InvalidDate = "<invalid date>"

	startLocalLayout = "2006-01-02T15:04:05"
	displayLayout    = "02/01/2006"
)

// API is the part of the Eventbrite client the pipelines need.
type API interface {
	Organization(ctx context.Context) (models.Organization, error)
	NextEvent(ctx context.Context, orgID string) (models.Event, error)
	Events(ctx context.Context, orgID string, filter eventbrite.EventFilter) ([]models.Event, error)
	Attendees(ctx context.Context, eventID string, prepare func(*models.Attendee)) ([]models.Attendee, error)
}

// TokenSource hands out valid bearer tokens.
type TokenSource interface {
	ValidToken(ctx context.Context) (string, error)
}

// Connector builds an API client authenticated with token.
type Connector func(ctx context.Context, token string) API

// Listing is the roster of the next event.
type Listing struct {
	Event     models.Event
	Date      string // DD/MM/YYYY or InvalidDate
	Attendees []models.Attendee
}

// Service runs the attendee retrieval and name search pipelines.
type Service struct {
	logger  *slog.Logger
	tokens  TokenSource
	connect Connector
}

// NewService creates a Service. tokens is only used by FindEventsByName.
func NewService(logger *slog.Logger, tokens TokenSource, connect Connector) *Service {
	return &Service{logger: logger, tokens: tokens, connect: connect}
}

// NewEventbriteConnector returns a Connector building real Eventbrite clients.
func NewEventbriteConnector(logger *slog.Logger, opts ...eventbrite.Option) Connector {
	return func(ctx context.Context, token string) API {
		return eventbrite.NewClient(ctx, logger, token, opts...)
	}
}

// NextEventAttendees lists the attendees of the organization's next live
// event, priority ticket class first, most recent registrations first.
//
// Organization and event resolution failures abort the call. A failure while
// paging attendees does not: the attendees fetched so far are returned.
func (s *Service) NextEventAttendees(ctx context.Context, token string) (*Listing, error) {
	api := s.connect(ctx, token)

	org, err := api.Organization(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organization ID: %w", err)
	}

	event, err := api.NextEvent(ctx, org.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch next event: %w", err)
	}
	s.logger.Debug("Fetched next event", "name", event.Name, "eventID", event.ID)

	attendees, err := api.Attendees(ctx, event.ID, DeriveBirthdate)
	if err != nil {
		s.logger.Warn("Attendee listing stopped early", "eventID", event.ID, "fetched", len(attendees), "error", err)
	}
	SortAttendees(attendees)

	s.logger.Info("Fetched attendees", "event", event.Name, "count", len(attendees))
	return &Listing{Event: event, Date: FormatEventDate(event.StartLocal), Attendees: attendees}, nil
}

// DeriveBirthdate fills Birthdate from the answer to the birthdate question,
// matched case-insensitively. It is left empty when there is no such question.
func DeriveBirthdate(a *models.Attendee) {
	for _, ans := range a.Answers {
		if strings.ToLower(ans.Question) == BirthdateQuestion {
			a.Birthdate = ans.Answer
			return
		}
	}
}

// SortAttendees orders the priority ticket class first, then by creation
// timestamp, newest first.
func SortAttendees(attendees []models.Attendee) {
	sort.SliceStable(attendees, func(i, j int) bool {
		pi := attendees[i].TicketClassName == PriorityTicketClass
		pj := attendees[j].TicketClassName == PriorityTicketClass
		if pi != pj {
			return pi
		}
		return attendees[i].Created > attendees[j].Created
	})
}

// FormatEventDate turns a naive local timestamp into DD/MM/YYYY.
func FormatEventDate(startLocal string) string {
	t, err := time.Parse(startLocalLayout, startLocal)
	if err != nil {
		return InvalidDate
	}
	return t.Format(displayLayout)
}
