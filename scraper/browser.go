package scraper

import (
	"context"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"

	"homescout/httputil"
)

// BrowserFetcher renders pages through headless Chromium. Started lazily on
// the first Get so dry runs against cached fixtures never launch a browser.
type BrowserFetcher struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

func NewBrowserFetcher() *BrowserFetcher {
	return &BrowserFetcher{}
}

func (f *BrowserFetcher) start() error {
	if f.browser != nil {
		return nil
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		pw.Stop()
		return fmt.Errorf("launch browser: %w", err)
	}

	f.pw = pw
	f.browser = browser
	return nil
}

func (f *BrowserFetcher) Get(ctx context.Context, pageURL string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.start(); err != nil {
		return nil, err
	}

	page, err := f.browser.NewPage(playwright.BrowserNewPageOptions{
		UserAgent: playwright.String(httputil.UserAgent()),
	})
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	defer page.Close()

	if _, err := page.Goto(pageURL, playwright.PageGotoOptions{
		Timeout:   playwright.Float(60000),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return nil, fmt.Errorf("goto %s: %w", pageURL, err)
	}

	content, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}

	return []byte(content), nil
}

func (f *BrowserFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		f.browser.Close()
		f.browser = nil
	}
	if f.pw != nil {
		f.pw.Stop()
		f.pw = nil
	}
	return nil
}
