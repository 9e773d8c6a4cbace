package notify

import (
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"homescout/config"
	"homescout/models"
	"homescout/services"
)

func testFormatter(t *testing.T) *Formatter {
	t.Helper()
	cfg := &config.Config{
		GoogleMapsKey: "maps-key",
		Bot: config.BotConfig{
			Timezone:           "UTC",
			InsertTimeFallback: 1559197920,
			Tiers:              config.TierConfig{Low: 700, High: 1300},
			MapMarkers: []config.MapMarker{
				{Address: "1 Office Way, Sunnyvale, CA", Label: "W"},
			},
			ReplyTemplate: "Viewing day is {{day}}.{{n}}Ping {{friends_count}} friends: {{listing_url}}",
			ProviderIcons: map[string]string{
				"Classifieds": "https://icons.example.org/cl.png",
			},
		},
	}

	calc := services.NewCalculator(cfg.Bot)
	calc.Now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }

	f, err := NewFormatter(calc, cfg)
	if err != nil {
		t.Fatalf("formatter: %v", err)
	}
	return f
}

func formatTestListing() *models.Listing {
	posted := time.Date(2026, 8, 30, 14, 22, 0, 0, time.UTC)
	avail := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	return &models.Listing{
		ID:           "7001",
		Name:         "Spacious family home",
		URL:          "https://listings.example.org/7001",
		Price:        "$2,800",
		Bedrooms:     4,
		Bathrooms:    2,
		Rooms:        "4BR / 3Ba",
		Area:         "2400ft2",
		Body:         "Bright four bedroom house.",
		Image:        "https://images.example.org/7001_1.jpg",
		GAddress:     "123 main st sunnyvale ca",
		MapAccuracy:  5,
		Posted:       &posted,
		Availability: &avail,
		Where:        "sunnyvale",
		Provider:     models.ProviderClassifieds,
	}
}

func TestAttachments(t *testing.T) {
	f := testFormatter(t)
	l := formatTestListing()

	attachments := f.Attachments(l)
	if len(attachments) != 2 {
		t.Fatalf("expected primary plus map attachment, got %d", len(attachments))
	}

	primary := attachments[0]
	if primary.Title != "[$$] Spacious family home - Classifieds" {
		t.Fatalf("unexpected title %q", primary.Title)
	}
	if primary.Color != "#FFA500" {
		t.Fatalf("unexpected color %q", primary.Color)
	}
	if primary.TitleLink != l.URL {
		t.Fatalf("unexpected title link %q", primary.TitleLink)
	}
	if primary.ImageURL != l.Image {
		t.Fatalf("unexpected image %q", primary.ImageURL)
	}
	if primary.Footer != "Classifieds" || primary.FooterIcon != "https://icons.example.org/cl.png" {
		t.Fatalf("unexpected footer %q %q", primary.Footer, primary.FooterIcon)
	}
	if primary.ThumbURL == "" {
		t.Fatalf("primary attachment missing map thumbnail")
	}
	wantTs := strconv.FormatInt(time.Date(2026, 8, 30, 14, 22, 0, 0, time.UTC).Unix(), 10)
	if primary.Ts.String() != wantTs {
		t.Fatalf("unexpected message timestamp %s", primary.Ts)
	}

	if len(primary.Fields) != 6 {
		t.Fatalf("expected 6 fields, got %d", len(primary.Fields))
	}
	fields := map[string]string{}
	for _, field := range primary.Fields {
		fields[field.Title] = field.Value
	}
	if fields["Bedrooms / Baths"] != "4BR / 3Ba" {
		t.Fatalf("unexpected rooms field %q", fields["Bedrooms / Baths"])
	}
	if fields["Price"] != "$2,800" {
		t.Fatalf("unexpected price field %q", fields["Price"])
	}
	if fields["Location"] != "Sunnyvale" {
		t.Fatalf("location not title-cased: %q", fields["Location"])
	}
	if fields["Sq Foot"] != "2400" {
		t.Fatalf("unexpected area field %q", fields["Sq Foot"])
	}
	if fields["Available"] != "Sep 15" {
		t.Fatalf("unexpected availability field %q", fields["Available"])
	}
	if fields["Posted"] != "Aug 30 02:22 PM UTC" {
		t.Fatalf("unexpected posted field %q", fields["Posted"])
	}

	mapAtt := attachments[1]
	if mapAtt.Title != "Provided address" {
		t.Fatalf("unexpected map title %q", mapAtt.Title)
	}
	if mapAtt.Text != "123 Main St Sunnyvale Ca" {
		t.Fatalf("map text not title-cased: %q", mapAtt.Text)
	}
	if mapAtt.ImageURL != primary.ThumbURL {
		t.Fatalf("map attachment and thumbnail disagree")
	}
	if mapAtt.Footer != "Google Maps" {
		t.Fatalf("unexpected map footer %q", mapAtt.Footer)
	}
}

func TestAttachmentsNoLocation(t *testing.T) {
	f := testFormatter(t)
	l := formatTestListing()
	l.GAddress = ""
	l.GCoords = nil

	attachments := f.Attachments(l)
	if len(attachments) != 1 {
		t.Fatalf("expected no map attachment without a location, got %d", len(attachments))
	}
	if attachments[0].ThumbURL != "" {
		t.Fatalf("unexpected thumbnail %q", attachments[0].ThumbURL)
	}
}

func TestAttachmentsMissingFields(t *testing.T) {
	f := testFormatter(t)
	l := formatTestListing()
	l.Where = ""
	l.Area = ""
	l.Availability = nil
	l.Posted = nil
	l.Updated = nil

	primary := f.Attachments(l)[0]
	fields := map[string]string{}
	for _, field := range primary.Fields {
		fields[field.Title] = field.Value
	}
	for _, title := range []string{"Location", "Sq Foot", "Available", "Posted"} {
		if fields[title] != "N/A" {
			t.Fatalf("%s: expected N/A, got %q", title, fields[title])
		}
	}
	if primary.Ts != "" {
		t.Fatalf("expected no timestamp without posting times, got %s", primary.Ts)
	}
}

func TestMapURL(t *testing.T) {
	f := testFormatter(t)
	l := formatTestListing()

	raw := f.MapURL(l)
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("bad map url: %v", err)
	}
	q := u.Query()

	if q.Get("key") != "maps-key" {
		t.Fatalf("missing api key in %s", raw)
	}
	markers := q["markers"]
	if len(markers) != 2 {
		t.Fatalf("expected reference marker plus listing pin, got %v", markers)
	}
	if markers[0] != "label:W|1 Office Way, Sunnyvale, CA" {
		t.Fatalf("unexpected reference marker %q", markers[0])
	}
	if markers[1] != "color:blue|label:1|123 main st sunnyvale ca" {
		t.Fatalf("unexpected listing pin %q", markers[1])
	}
}

func TestMapURLCoords(t *testing.T) {
	f := testFormatter(t)
	l := formatTestListing()
	l.GAddress = ""
	l.GCoords = &models.Coords{Lat: 37.3893, Long: -122.0819}

	u, err := url.Parse(f.MapURL(l))
	if err != nil {
		t.Fatalf("bad map url: %v", err)
	}
	markers := u.Query()["markers"]
	if markers[len(markers)-1] != "color:blue|label:0|37.3893,-122.0819" {
		t.Fatalf("unexpected coord pin %q", markers[len(markers)-1])
	}
}

func TestReply(t *testing.T) {
	f := testFormatter(t)
	l := formatTestListing()

	reply := f.Reply(l)
	if !strings.HasPrefix(reply, "``` \n") || !strings.HasSuffix(reply, "\n ```") {
		t.Fatalf("reply not wrapped in a code block: %q", reply)
	}
	if !strings.Contains(reply, "Viewing day is Tuesday.") {
		t.Fatalf("day not substituted: %q", reply)
	}
	if !strings.Contains(reply, "Ping 4 friends: https://listings.example.org/7001") {
		t.Fatalf("template fields not substituted: %q", reply)
	}
	if strings.Contains(reply, "{{") {
		t.Fatalf("unexpanded placeholder in %q", reply)
	}
}
