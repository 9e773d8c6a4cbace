package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"homescout/config"
	"homescout/httputil"
	"homescout/logging"
	"homescout/models"
)

// AggregatorSource queries a JSON search endpoint once, then one detail
// call per listing. Field mapping is direct; only the detail facts need
// free-text date handling.
type AggregatorSource struct {
	cfg    *config.SourceConfig
	client *http.Client
	now    func() time.Time
}

func NewAggregatorSource(cfg *config.SourceConfig, client *http.Client) *AggregatorSource {
	return &AggregatorSource{cfg: cfg, client: client, now: time.Now}
}

func (s *AggregatorSource) ID() string {
	return s.cfg.ID
}

func (s *AggregatorSource) Close() error {
	return nil
}

func (s *AggregatorSource) List(ctx context.Context) ([]models.Listing, error) {
	query := s.cfg.Query
	if query == "" {
		built, err := buildSearchQuery(s.cfg.Filters)
		if err != nil {
			return nil, err
		}
		query = built
	}

	u, err := url.Parse(s.cfg.Endpoints["search"])
	if err != nil {
		return nil, fmt.Errorf("bad search endpoint: %w", err)
	}
	q := u.Query()
	q.Set("searchQueryState", query)
	q.Set("includeMap", "false")
	q.Set("includeList", "true")
	u.RawQuery = q.Encode()

	logging.Debugf("aggregator: fetching %s", u.String())
	body, err := s.getJSON(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	return s.parseSearchResponse(body)
}

func (s *AggregatorSource) parseSearchResponse(body []byte) ([]models.Listing, error) {
	var result aggSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	var listings []models.Listing
	for _, entry := range result.SearchResults.ListResults {
		id := entry.ZPID.String()
		listings = append(listings, models.Listing{
			ID:          id,
			Name:        entry.StatusText + " - " + entry.Address,
			Price:       entry.Price,
			Bedrooms:    entry.Beds,
			Bathrooms:   entry.Baths,
			Rooms:       fmt.Sprintf("%sBR / %sBa", trimFloat(entry.Beds), trimFloat(entry.Baths)),
			Area:        entry.Area.String(),
			URL:         s.absoluteURL(entry.DetailURL),
			GAddress:    entry.Address,
			MapAccuracy: 0,
			Provider:    models.ProviderAggregator,
		})
	}

	return listings, nil
}

func (s *AggregatorSource) absoluteURL(detail string) string {
	if strings.HasPrefix(detail, "/") {
		return strings.TrimSuffix(s.cfg.Endpoints["base"], "/") + detail
	}
	return detail
}

func (s *AggregatorSource) Enrich(ctx context.Context, l *models.Listing) error {
	payload := map[string]any{
		"operationName": "ListingDetailQuery",
		"variables": map[string]any{
			"id": json.RawMessage(l.ID),
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	respBody, err := s.getJSON(ctx, "POST", s.cfg.Endpoints["detail"], body)
	if err != nil {
		return fmt.Errorf("detail %s: %w", l.ID, err)
	}

	return s.parseDetailResponse(l, respBody)
}

func (s *AggregatorSource) parseDetailResponse(l *models.Listing, body []byte) error {
	var result aggDetailResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decode detail response: %w", err)
	}

	prop := result.Data.Property

	for _, fact := range prop.HomeFacts.AtAGlanceFacts {
		if fact.FactLabel != "Date available" || fact.FactValue == "" {
			continue
		}
		if fact.FactValue == "Available now" {
			now := s.now()
			l.Availability = &now
		} else if t, err := dateparse.ParseAny(fact.FactValue); err == nil {
			l.Availability = &t
		}
	}

	for _, group := range prop.HomeFacts.CategoryDetails {
		if group.CategoryGroupName != "Rental Facts" || len(group.Categories) == 0 {
			continue
		}
		for _, fact := range group.Categories[0].CategoryFacts {
			if fact.FactLabel == "Posted" {
				if t, ok := s.parseFactTime(fact.FactValue); ok {
					l.Posted = &t
				}
			}
		}
	}

	// The search row never carries posting times; fall back to the
	// relative "time on platform" string.
	if l.Posted == nil && prop.TimeOnSite != "" {
		if t, ok := s.parseFactTime(prop.TimeOnSite); ok {
			l.Posted = &t
		}
	}

	l.Body = prop.Description
	l.Image = prop.ImageLink
	if prop.City != "" {
		l.Where = prop.City
	}

	return nil
}

// parseFactTime accepts both absolute dates and relative strings like
// "5 days" or "3 hours ago".
func (s *AggregatorSource) parseFactTime(raw string) (time.Time, bool) {
	if t, ok := s.parseRelative(raw); ok {
		return t, true
	}
	if t, err := dateparse.ParseAny(raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func (s *AggregatorSource) parseRelative(raw string) (time.Time, bool) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
	if len(fields) < 2 {
		return time.Time{}, false
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return time.Time{}, false
	}

	var unit time.Duration
	switch {
	case strings.HasPrefix(fields[1], "minute"):
		unit = time.Minute
	case strings.HasPrefix(fields[1], "hour"):
		unit = time.Hour
	case strings.HasPrefix(fields[1], "day"):
		unit = 24 * time.Hour
	default:
		return time.Time{}, false
	}

	return s.now().Add(-time.Duration(n) * unit), true
}

func (s *AggregatorSource) getJSON(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", httputil.UserAgent())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	return io.ReadAll(resp.Body)
}

// buildSearchQuery serializes the configured filters into the search
// document the aggregator expects.
func buildSearchQuery(f config.Filters) (string, error) {
	state := map[string]any{}

	if f.SearchTerm != "" {
		state["usersSearchTerm"] = f.SearchTerm
	}
	if f.Bounds != nil {
		state["mapBounds"] = map[string]float64{
			"west":  f.Bounds.West,
			"east":  f.Bounds.East,
			"south": f.Bounds.South,
			"north": f.Bounds.North,
		}
	}

	filters := map[string]any{
		"isForRent":     map[string]any{"value": true},
		"sortSelection": map[string]any{"value": "days"},
	}
	if f.MinPrice > 0 || f.MaxPrice > 0 {
		filters["monthlyPayment"] = map[string]int{"min": f.MinPrice, "max": f.MaxPrice}
	}
	if f.MinBedrooms > 0 || f.MaxBedrooms > 0 {
		filters["beds"] = map[string]int{"min": f.MinBedrooms, "max": f.MaxBedrooms}
	}
	if f.MinBathrooms > 0 {
		filters["baths"] = map[string]int{"min": f.MinBathrooms}
	}
	state["filterState"] = filters

	out, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type aggSearchResponse struct {
	SearchResults struct {
		ListResults []aggListResult `json:"listResults"`
	} `json:"searchResults"`
}

type aggListResult struct {
	ZPID       json.Number `json:"zpid"`
	StatusText string      `json:"statusText"`
	Address    string      `json:"address"`
	Price      string      `json:"price"`
	Beds       float64     `json:"beds"`
	Baths      float64     `json:"baths"`
	Area       json.Number `json:"area"`
	DetailURL  string      `json:"detailUrl"`
}

type aggFact struct {
	FactLabel string `json:"factLabel"`
	FactValue string `json:"factValue"`
}

type aggDetailResponse struct {
	Data struct {
		Property struct {
			HomeFacts struct {
				AtAGlanceFacts  []aggFact `json:"atAGlanceFacts"`
				CategoryDetails []struct {
					CategoryGroupName string `json:"categoryGroupName"`
					Categories        []struct {
						CategoryFacts []aggFact `json:"categoryFacts"`
					} `json:"categories"`
				} `json:"categoryDetails"`
			} `json:"homeFacts"`
			TimeOnSite  string `json:"timeOnSite"`
			Description string `json:"description"`
			ImageLink   string `json:"imageLink"`
			City        string `json:"city"`
		} `json:"property"`
	} `json:"data"`
}
