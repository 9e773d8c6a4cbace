// Package scraper contains the source adapters and the ingestion
// orchestrator that drives fetch -> dedupe -> enrich -> persist -> notify.
package scraper

import (
	"context"
	"fmt"

	"homescout/config"
	"homescout/httputil"
	"homescout/models"
)

// Source is one external listing site. List returns cheap summary listings
// (id, name, url, price, raw room text); Enrich fills the rest from the
// detail page or a secondary API call.
type Source interface {
	ID() string
	List(ctx context.Context) ([]models.Listing, error)
	Enrich(ctx context.Context, l *models.Listing) error
	Close() error
}

// NewSource builds the adapter named by the source config.
func NewSource(cfg *config.SourceConfig, clients *httputil.Clients) (Source, error) {
	switch cfg.Provider {
	case "classifieds":
		var fetcher Fetcher
		switch cfg.Fetch {
		case "browser":
			fetcher = NewBrowserFetcher()
		case "http", "":
			fetcher = NewHTTPFetcher(clients.Scraping)
		default:
			return nil, fmt.Errorf("unknown fetch mode %q for source %s", cfg.Fetch, cfg.ID)
		}
		return NewClassifiedsSource(cfg, fetcher), nil
	case "aggregator":
		return NewAggregatorSource(cfg, clients.Scraping), nil
	default:
		return nil, fmt.Errorf("unknown provider %q for source %s", cfg.Provider, cfg.ID)
	}
}
