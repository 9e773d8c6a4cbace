package notify

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"homescout/config"
	"homescout/models"
	"homescout/services"
)

const staticMapBase = "https://maps.googleapis.com/maps/api/staticmap"

// Formatter turns a canonical listing plus its derived fields into the two
// channel messages: a primary attachment (with optional map attachment) and
// a templated threaded reply.
type Formatter struct {
	calc    *services.Calculator
	bot     config.BotConfig
	mapsKey string
	tz      *time.Location
	titler  cases.Caser
}

func NewFormatter(calc *services.Calculator, cfg *config.Config) (*Formatter, error) {
	tz, err := time.LoadLocation(cfg.Bot.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Bot.Timezone, err)
	}

	return &Formatter{
		calc:    calc,
		bot:     cfg.Bot,
		mapsKey: cfg.GoogleMapsKey,
		tz:      tz,
		titler:  cases.Title(language.English),
	}, nil
}

// Attachments builds the primary attachment and, when a location resolved,
// a secondary static-map attachment.
func (f *Formatter) Attachments(l *models.Listing) []slack.Attachment {
	tier := f.calc.Tier(l)
	mapURL := f.MapURL(l)

	primary := slack.Attachment{
		Fallback:   fmt.Sprintf("[%s] %s - %s: %s - %s", tier.Label(), l.Name, l.Price, l.URL, l.Provider),
		Color:      tier.Color(),
		Title:      fmt.Sprintf("[%s] %s - %s", tier.Label(), l.Name, l.Provider),
		TitleLink:  l.URL,
		ImageURL:   l.Image,
		Text:       l.Body,
		ThumbURL:   mapURL,
		Footer:     string(l.Provider),
		FooterIcon: f.bot.ProviderIcons[string(l.Provider)],
		Fields: []slack.AttachmentField{
			{Title: "Bedrooms / Baths", Value: l.Rooms, Short: true},
			{Title: "Price", Value: l.Price, Short: true},
			{Title: "Location", Value: f.whereLabel(l), Short: true},
			{Title: "Sq Foot", Value: services.AreaLabel(l), Short: true},
			{Title: "Available", Value: f.calc.AvailabilityLabel(l), Short: true},
			{Title: "Posted", Value: f.postedLabel(l), Short: true},
		},
	}

	if t, ok := f.calc.DisplayTime(l); ok {
		primary.Ts = json.Number(strconv.FormatInt(t.Unix(), 10))
	}

	attachments := []slack.Attachment{primary}

	if mapURL != "" {
		attachments = append(attachments, slack.Attachment{
			ImageURL: mapURL,
			Color:    tier.Color(),
			Title:    f.mapTitle(l),
			Text:     f.mapText(l),
			Footer:   "Google Maps",
		})
	}

	return attachments
}

// Reply renders the threaded follow-up from the config-supplied template.
func (f *Formatter) Reply(l *models.Listing) string {
	day := f.calc.Now().In(f.tz).Format("Monday")

	template := f.bot.ReplyTemplate
	template = strings.ReplaceAll(template, "{{day}}", day)
	template = strings.ReplaceAll(template, "{{listing_url}}", l.URL)
	template = strings.ReplaceAll(template, "{{friends_count}}", formatCount(l.Bedrooms))
	template = strings.ReplaceAll(template, "{{n}}", "\n")

	return fmt.Sprintf("``` \n%s\n ```", template)
}

// MapURL builds a Google Static Maps URL with the configured reference
// markers plus the listing pin, or "" when no location resolved.
func (f *Formatter) MapURL(l *models.Listing) string {
	kind := services.ResolveLocation(l)
	if kind == services.LocationNone {
		return ""
	}

	params := url.Values{}
	params.Set("key", f.mapsKey)
	params.Set("size", "640x400")
	params.Add("style", "feature:road.highway|element:geometry|visibility:simplified|color:0xc280e9")
	params.Add("style", "feature:transit.line|visibility:simplified|color:0xbababa")

	for _, marker := range f.bot.MapMarkers {
		params.Add("markers", fmt.Sprintf("label:%s|%s", marker.Label, marker.Address))
	}

	switch kind {
	case services.LocationAddress:
		params.Add("markers", fmt.Sprintf("color:blue|label:1|%s", l.GAddress))
	case services.LocationCoords:
		params.Add("markers", fmt.Sprintf("color:blue|label:0|%s,%s",
			formatCoord(l.GCoords.Lat), formatCoord(l.GCoords.Long)))
	}

	return staticMapBase + "?" + params.Encode()
}

func (f *Formatter) mapTitle(l *models.Listing) string {
	switch services.ResolveLocation(l) {
	case services.LocationAddress:
		return "Provided address"
	case services.LocationCoords:
		return "Approximate location via map area"
	default:
		return ""
	}
}

func (f *Formatter) mapText(l *models.Listing) string {
	switch services.ResolveLocation(l) {
	case services.LocationAddress:
		return f.titler.String(l.GAddress)
	case services.LocationCoords:
		return fmt.Sprintf("(latitude: %s, longitude: %s)",
			formatCoord(l.GCoords.Lat), formatCoord(l.GCoords.Long))
	default:
		return ""
	}
}

func (f *Formatter) whereLabel(l *models.Listing) string {
	if l.Where == "" {
		return "N/A"
	}
	return f.titler.String(l.Where)
}

func (f *Formatter) postedLabel(l *models.Listing) string {
	if l.Posted == nil {
		return "N/A"
	}
	return l.Posted.In(f.tz).Format("Jan 02 03:04 PM MST")
}

func formatCount(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
