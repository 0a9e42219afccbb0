package googlefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/arztportal/patient-portal/internal/apperrors"
	"github.com/arztportal/patient-portal/internal/calendar"
)

// Client pulls events from a Google-Calendar-v3-shaped feed. Only entries
// with definite start and end instants are imported; all-day entries carry
// a date instead of a dateTime and are skipped.
type Client struct {
	baseURL    string
	calendarID string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

func New(baseURL, calendarID, apiKey string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		calendarID: calendarID,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type feedInstant struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

type feedItem struct {
	ID      string      `json:"id"`
	Summary string      `json:"summary"`
	Start   feedInstant `json:"start"`
	End     feedInstant `json:"end"`
}

type feedResponse struct {
	Items []feedItem `json:"items"`
}

func (c *Client) Events(ctx context.Context, from, to time.Time) ([]calendar.Event, error) {
	const op = "fetch external calendar feed"

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("timeMin", from.UTC().Format(time.RFC3339))
	q.Set("timeMax", to.UTC().Format(time.RFC3339))
	q.Set("singleEvents", "true")

	endpoint := fmt.Sprintf("%s/calendars/%s/events?%s", c.baseURL, url.PathEscape(c.calendarID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.Remote(op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Remote(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Remote(op, fmt.Errorf("feed returned status %d", resp.StatusCode))
	}

	var body feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperrors.Remote(op, fmt.Errorf("decode feed response: %w", err))
	}

	events := make([]calendar.Event, 0, len(body.Items))
	for _, item := range body.Items {
		if item.Start.DateTime == "" || item.End.DateTime == "" {
			continue
		}
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			c.log.Warn("skipping feed entry with unparseable start",
				zap.String("event_id", item.ID), zap.Error(err))
			continue
		}
		end, err := time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			c.log.Warn("skipping feed entry with unparseable end",
				zap.String("event_id", item.ID), zap.Error(err))
			continue
		}

		title := item.Summary
		if title == "" {
			title = "Untitled"
		}

		events = append(events, calendar.Event{
			ID:         item.ID,
			Provenance: calendar.ProvenanceExternal,
			Title:      title,
			Start:      start,
			End:        end,
			Category:   calendar.CategoryTime,
		})
	}

	return events, nil
}
