package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"homescout/config"
	"homescout/logging"
	"homescout/models"
)

const resultsPerPage = 120

// ClassifiedsSource scrapes a paginated HTML search plus one detail page
// per listing.
type ClassifiedsSource struct {
	cfg   *config.SourceConfig
	fetch Fetcher
}

func NewClassifiedsSource(cfg *config.SourceConfig, fetch Fetcher) *ClassifiedsSource {
	return &ClassifiedsSource{cfg: cfg, fetch: fetch}
}

func (s *ClassifiedsSource) ID() string {
	return s.cfg.ID
}

func (s *ClassifiedsSource) Close() error {
	return s.fetch.Close()
}

func (s *ClassifiedsSource) List(ctx context.Context) ([]models.Listing, error) {
	maxPages := s.cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 5
	}

	var all []models.Listing
	for page := 0; page < maxPages; page++ {
		pageURL, err := s.searchURL(page * resultsPerPage)
		if err != nil {
			return nil, err
		}

		logging.Debugf("classifieds: fetching %s", pageURL)
		body, err := s.fetch.Get(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("search page %d: %w", page, err)
		}

		listings, err := s.parseSearchPage(body)
		if err != nil {
			return nil, fmt.Errorf("search page %d: %w", page, err)
		}
		if len(listings) == 0 {
			break
		}

		all = append(all, listings...)
		if len(listings) < resultsPerPage {
			break
		}
	}

	return all, nil
}

func (s *ClassifiedsSource) searchURL(offset int) (string, error) {
	u, err := url.Parse(s.cfg.Endpoints["search"])
	if err != nil {
		return "", fmt.Errorf("bad search endpoint: %w", err)
	}

	f := s.cfg.Filters
	q := u.Query()
	if offset > 0 {
		q.Set("s", strconv.Itoa(offset))
	}
	setIfPositive(q, "min_price", f.MinPrice)
	setIfPositive(q, "max_price", f.MaxPrice)
	setIfPositive(q, "min_bedrooms", f.MinBedrooms)
	setIfPositive(q, "max_bedrooms", f.MaxBedrooms)
	setIfPositive(q, "min_bathrooms", f.MinBathrooms)
	setIfPositive(q, "max_bathrooms", f.MaxBathrooms)
	setIfPositive(q, "search_distance", f.SearchDistance)
	if f.ZipCode != "" {
		q.Set("postal", f.ZipCode)
	}
	if f.HasImage {
		q.Set("hasPic", "1")
	}
	if f.BundleDuplicates {
		q.Set("bundleDuplicates", "1")
	}
	for _, ht := range f.HousingType {
		q.Add("housing_type", ht)
	}
	q.Set("sort", "date")

	u.RawQuery = q.Encode()
	return u.String(), nil
}

func setIfPositive(q url.Values, key string, v int) {
	if v > 0 {
		q.Set(key, strconv.Itoa(v))
	}
}

func (s *ClassifiedsSource) parseSearchPage(body []byte) ([]models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var listings []models.Listing
	var perr error

	doc.Find("li.result-row").EachWithBreak(func(i int, row *goquery.Selection) bool {
		id, ok := row.Attr("data-pid")
		if !ok {
			perr = fmt.Errorf("result row %d has no data-pid", i)
			return false
		}

		link := row.Find("a.result-title").First()
		href, _ := link.Attr("href")
		rawDate, _ := row.Find("time.result-date").First().Attr("datetime")

		where := strings.Trim(strings.TrimSpace(row.Find("span.result-hood").First().Text()), "()")
		if where == "" {
			where = s.cfg.Where
		}

		listings = append(listings, models.Listing{
			ID:       id,
			Name:     strings.TrimSpace(link.Text()),
			URL:      href,
			Price:    strings.TrimSpace(row.Find("span.result-price").First().Text()),
			Where:    where,
			RawDate:  rawDate,
			Provider: models.ProviderClassifieds,
		})
		return true
	})

	if perr != nil {
		return nil, perr
	}
	return listings, nil
}

func (s *ClassifiedsSource) Enrich(ctx context.Context, l *models.Listing) error {
	body, err := s.fetch.Get(ctx, l.URL)
	if err != nil {
		return fmt.Errorf("fetch detail %s: %w", l.URL, err)
	}
	return s.parseDetail(l, body)
}

// The housing summary bubbles carry no keys; fields are matched purely by
// position. A page that omits one slot is indistinguishable from a page
// that reorders them, so format drift here misassigns fields rather than
// failing. Known limitation; keep all positional handling in this block.
const (
	slotRooms = iota
	slotArea
	slotAvailability
)

const (
	postingTop = iota
	postingPosted
	postingUpdated
)

func (s *ClassifiedsSource) parseDetail(l *models.Listing, body []byte) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("parse detail html: %w", err)
	}

	if err := parseHousingSlots(l, doc); err != nil {
		return err
	}
	parsePostingTimes(l, doc)
	parseImage(l, doc)
	if err := parsePostingBody(l, doc); err != nil {
		return err
	}
	parseMapLink(l, doc)
	parseMapAccuracy(l, doc)

	return nil
}

func parseHousingSlots(l *models.Listing, doc *goquery.Document) error {
	var perr error
	doc.Find("span.shared-line-bubble").Each(func(i int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		switch i {
		case slotRooms:
			if err := parseRooms(l, text); err != nil && perr == nil {
				perr = err
			}
		case slotArea:
			l.Area = text
		case slotAvailability:
			if raw, ok := sel.Attr("data-date"); ok {
				if t, err := dateparse.ParseAny(raw); err == nil {
					l.Availability = &t
				}
			}
		}
	})
	return perr
}

// parseRooms reads "4BR / 3Ba" shaped text.
func parseRooms(l *models.Listing, text string) error {
	parts := strings.Split(text, "/")
	if len(parts) != 2 {
		return fmt.Errorf("unexpected rooms text %q", text)
	}

	beds := strings.TrimSpace(parts[0])
	baths := strings.TrimSpace(parts[1])
	if len(beds) <= 2 || len(baths) <= 2 {
		return fmt.Errorf("unexpected rooms text %q", text)
	}

	b, err := strconv.ParseFloat(beds[:len(beds)-2], 64)
	if err != nil {
		return fmt.Errorf("parse bedrooms from %q: %w", text, err)
	}
	ba, err := strconv.ParseFloat(baths[:len(baths)-2], 64)
	if err != nil {
		return fmt.Errorf("parse bathrooms from %q: %w", text, err)
	}

	l.Bedrooms = b
	l.Bathrooms = ba
	l.Rooms = text
	return nil
}

func parsePostingTimes(l *models.Listing, doc *goquery.Document) {
	doc.Find("p.postinginfo.reveal").Each(func(i int, sel *goquery.Selection) {
		raw, ok := sel.Find("time").First().Attr("datetime")
		if !ok {
			return
		}
		t, err := dateparse.ParseAny(raw)
		if err != nil {
			return
		}
		switch i {
		case postingPosted:
			l.Posted = &t
		case postingUpdated:
			l.Updated = &t
		}
	})
}

func parseImage(l *models.Listing, doc *goquery.Document) {
	img := doc.Find("div.swipe-wrap img").First()
	if img.Length() > 0 {
		if src, ok := img.Attr("src"); ok {
			l.Image = src
		}
	}
}

const bodyBoilerplate = "QR Code Link to This Post"

func parsePostingBody(l *models.Listing, doc *goquery.Document) error {
	sel := doc.Find("#postingbody")
	if sel.Length() == 0 {
		return fmt.Errorf("detail page for %s has no posting body", l.ID)
	}

	text := strings.TrimSpace(sel.Text())
	text = strings.TrimSpace(strings.TrimPrefix(text, bodyBoilerplate))
	l.Body = text
	return nil
}

// parseMapLink resolves the location from the detail page's map link: a
// final path segment with a query string carries a free-form address in
// the q parameter, otherwise the segment is "@lat,long".
func parseMapLink(l *models.Listing, doc *goquery.Document) {
	link := doc.Find("p.mapaddress a").First()
	if link.Length() == 0 {
		return
	}
	href, ok := link.Attr("href")
	if !ok {
		return
	}

	last := href[strings.LastIndex(href, "/")+1:]
	if strings.Contains(last, "?") {
		u, err := url.Parse(href)
		if err != nil {
			return
		}
		if q := u.Query().Get("q"); q != "" {
			l.GAddress = q
		}
		return
	}

	parts := strings.Split(last, ",")
	if len(parts) < 2 {
		return
	}
	lat, err1 := strconv.ParseFloat(strings.TrimPrefix(parts[0], "@"), 64)
	long, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 == nil && err2 == nil {
		l.GCoords = &models.Coords{Lat: lat, Long: long}
	}
}

func parseMapAccuracy(l *models.Listing, doc *goquery.Document) {
	m := doc.Find("div#map").First()
	if m.Length() == 0 {
		return
	}
	if raw, ok := m.Attr("data-accuracy"); ok {
		if acc, err := strconv.Atoi(raw); err == nil {
			l.MapAccuracy = acc
		}
	}
}
