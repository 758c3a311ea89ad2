package eventbrite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	"rollcall/internal/apperror"
	"rollcall/internal/models"
)

const (
	apiBaseURL = "https://www.eventbriteapi.com/v3"
	userAgent  = "rollcall/1.0"
	// Error bodies are logged, but only this much of them.
	maxErrorBody = 4096
)

// Event list orderings and statuses understood by the events endpoint.
const (
	OrderStartAsc   = "start_asc"
	OrderStartDesc  = "start_desc"
	StatusLive      = "live"
	StatusCompleted = "completed"
)

// uaTransport adds the User-Agent header to each request.
type uaTransport struct {
	Transport http.RoundTripper
}

// RoundTrip sets the User-Agent and delegates.
func (t *uaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	return t.Transport.RoundTrip(req)
}

// Client is a bearer-authenticated client for the Eventbrite REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*options)

type options struct {
	baseURL   string
	transport http.RoundTripper
}

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = strings.TrimSuffix(u, "/") }
}

// WithTransport replaces the underlying HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// NewClient creates a client sending token as bearer credential.
func NewClient(ctx context.Context, logger *slog.Logger, token string, opts ...Option) *Client {
	o := options{baseURL: apiBaseURL, transport: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}

	base := &http.Client{Transport: &uaTransport{Transport: o.transport}}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))

	return &Client{httpClient: httpClient, baseURL: o.baseURL, logger: logger}
}

// getJSON performs a GET on path and decodes the JSON answer into out.
func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.Transport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error("Eventbrite request failed", "op", op, "status", resp.StatusCode, "body", string(body))
		return apperror.Transport(op, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperror.Parse(op, err)
	}
	return nil
}

// Organization returns the first organization of the authenticated user.
func (c *Client) Organization(ctx context.Context) (models.Organization, error) {
	c.logger.Debug("Fetching organization ID")
	var data organizationsResponse
	if err := c.getJSON(ctx, "fetch organizations", "/users/me/organizations/", nil, &data); err != nil {
		return models.Organization{}, fmt.Errorf("%w: %w", apperror.ErrOrganizationResolutionFailed, err)
	}
	if len(data.Organizations) == 0 {
		return models.Organization{}, apperror.ErrOrganizationResolutionFailed
	}
	org := models.Organization{ID: data.Organizations[0].ID}
	c.logger.Debug("Organization ID fetched", "organizationID", org.ID)
	return org, nil
}

// EventFilter narrows an event listing. Statuses are sent comma separated.
type EventFilter struct {
	OrderBy  string
	Statuses []string
}

// Events lists the organization's events matching filter. Only the first
// page of results is read.
func (c *Client) Events(ctx context.Context, orgID string, filter EventFilter) ([]models.Event, error) {
	c.logger.Debug("Fetching events", "organizationID", orgID, "orderBy", filter.OrderBy, "statuses", filter.Statuses)
	query := url.Values{}
	if filter.OrderBy != "" {
		query.Set("order_by", filter.OrderBy)
	}
	if len(filter.Statuses) > 0 {
		query.Set("status", strings.Join(filter.Statuses, ","))
	}

	var data eventsResponse
	path := "/organizations/" + url.PathEscape(orgID) + "/events/"
	if err := c.getJSON(ctx, "fetch events", path, query, &data); err != nil {
		return nil, err
	}
	return toInternalEvents(data.Events), nil
}

// NextEvent returns the live event starting soonest.
func (c *Client) NextEvent(ctx context.Context, orgID string) (models.Event, error) {
	events, err := c.Events(ctx, orgID, EventFilter{OrderBy: OrderStartAsc, Statuses: []string{StatusLive}})
	if err != nil {
		return models.Event{}, err
	}
	if len(events) == 0 {
		return models.Event{}, apperror.ErrNoUpcomingEvent
	}
	c.logger.Debug("Next event fetched", "name", events[0].Name, "eventID", events[0].ID)
	return events[0], nil
}

// AttendeePage fetches one page (1-based) of an event's attendees and
// reports whether more pages remain.
func (c *Client) AttendeePage(ctx context.Context, eventID string, page int) ([]models.Attendee, bool, error) {
	query := url.Values{"page": {strconv.Itoa(page)}}
	path := "/events/" + url.PathEscape(eventID) + "/attendees/"

	var data attendeesResponse
	if err := c.getJSON(ctx, "fetch attendees page "+strconv.Itoa(page), path, query, &data); err != nil {
		return nil, false, err
	}
	return toInternalAttendees(data.Attendees), data.Pagination.HasMoreItems, nil
}

// Attendees walks the attendee pages of an event until the server reports
// no more items. prepare, if not nil, is applied to every attendee as soon
// as its page is parsed.
//
// A failing page stops the walk: the attendees gathered so far are returned
// together with the error.
func (c *Client) Attendees(ctx context.Context, eventID string, prepare func(*models.Attendee)) ([]models.Attendee, error) {
	c.logger.Debug("Fetching attendees", "eventID", eventID)
	var all []models.Attendee
	for page := 1; ; page++ {
		attendees, hasMore, err := c.AttendeePage(ctx, eventID, page)
		if err != nil {
			return all, err
		}
		if prepare != nil {
			for i := range attendees {
				prepare(&attendees[i])
			}
		}
		c.logger.Debug("Fetched attendees page", "eventID", eventID, "page", page, "count", len(attendees))
		all = append(all, attendees...)
		if !hasMore {
			break
		}
	}
	c.logger.Debug("Total attendees fetched", "eventID", eventID, "count", len(all))
	return all, nil
}

// toInternalEvents converts API events to the internal Event model.
func toInternalEvents(events []event) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		out = append(out, models.Event{ID: e.ID, Name: e.Name.Text, StartLocal: e.Start.Local, Timezone: e.Start.Timezone})
	}
	return out
}

// toInternalAttendees converts API attendees to the internal Attendee model.
func toInternalAttendees(attendees []attendee) []models.Attendee {
	out := make([]models.Attendee, 0, len(attendees))
	for _, a := range attendees {
		var answers []models.Answer
		for _, ans := range a.Answers {
			answers = append(answers, models.Answer{Question: ans.Question, Answer: ans.Answer})
		}
		out = append(out, models.Attendee{
			FirstName:       a.Profile.FirstName,
			LastName:        a.Profile.LastName,
			Email:           a.Profile.Email,
			CellPhone:       a.Profile.CellPhone,
			Created:         a.Created,
			TicketClassName: a.TicketClassName,
			Answers:         answers,
		})
	}
	return out
}
