package httputil

import (
	"net/http"
	"time"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Clients struct {
	Scraping *http.Client // target listing sites
	API      *http.Client // Slack and other service APIs
}

// NewClients builds the shared HTTP clients. The scraping timeout is
// configurable; the original bots blocked indefinitely, which this design
// deliberately does not reproduce.
func NewClients(scrapeTimeout time.Duration) *Clients {
	if scrapeTimeout <= 0 {
		scrapeTimeout = 30 * time.Second
	}

	return &Clients{
		Scraping: &http.Client{Timeout: scrapeTimeout},
		API:      &http.Client{Timeout: 30 * time.Second},
	}
}

// UserAgent is the browser identity sent on scraping requests.
func UserAgent() string {
	return userAgent
}
