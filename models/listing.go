package models

import "time"

// Provider identifies the external source a listing came from.
type Provider string

const (
	ProviderClassifieds Provider = "Classifieds"
	ProviderAggregator  Provider = "Aggregator"
)

// Coords is a geotag parsed from a source map link.
type Coords struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// Listing is the canonical shape every source adapter maps into.
// A listing is identified by ID within its provider's namespace and is
// immutable once recorded in the dedup store.
type Listing struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	URL       string  `json:"url"`
	Price     string  `json:"price"` // raw source text, e.g. "$2,800/mo"
	Bedrooms  float64 `json:"bedrooms"`
	Bathrooms float64 `json:"bathrooms"`
	Rooms     string  `json:"rooms"` // human-readable beds/baths summary
	Area      string  `json:"area,omitempty"`
	Body      string  `json:"body"`
	Image     string  `json:"image,omitempty"`

	// GAddress and GCoords are mutually exclusive at the adapter level.
	// MapAccuracy comes from the source's own geotagging; lower is more
	// precise. An address is only authoritative when MapAccuracy <= 10.
	GAddress    string  `json:"gaddress,omitempty"`
	GCoords     *Coords `json:"gcoords,omitempty"`
	MapAccuracy int     `json:"map_accuracy"`

	Posted       *time.Time `json:"posted,omitempty"`
	Updated      *time.Time `json:"updated,omitempty"`
	Availability *time.Time `json:"availability,omitempty"`

	// RawDate is the source-reported datetime string from the summary row,
	// carried through untouched for the dedup record's source_date column.
	RawDate string `json:"raw_date,omitempty"`

	Where    string   `json:"where"`
	Provider Provider `json:"provider"`
}

// HasLocation reports whether any location representation survived parsing.
func (l *Listing) HasLocation() bool {
	return l.GAddress != "" || l.GCoords != nil
}
