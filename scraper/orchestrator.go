package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"homescout/config"
	"homescout/logging"
	"homescout/models"
	"homescout/notify"
	"homescout/services"
	"homescout/storage"
)

// Orchestrator drives one full ingestion pass: for each source in config
// order, fetch -> dedupe -> enrich -> persist -> notify. Records are
// persisted before notification, so a crash mid-listing can repeat a
// notification but never a dedup record.
type Orchestrator struct {
	cfg       *config.Config
	store     storage.Store
	sources   []Source
	calc      *services.Calculator
	formatter *notify.Formatter
	notifier  notify.Notifier // nil disables notifications (dry run)
}

func NewOrchestrator(
	cfg *config.Config,
	store storage.Store,
	sources []Source,
	calc *services.Calculator,
	formatter *notify.Formatter,
	notifier notify.Notifier,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		store:     store,
		sources:   sources,
		calc:      calc,
		formatter: formatter,
		notifier:  notifier,
	}
}

// Run processes every source. Any fetch error aborts the whole pass; the
// caller decides the process exit code.
func (o *Orchestrator) Run(ctx context.Context) error {
	for _, src := range o.sources {
		if err := o.runSource(ctx, src); err != nil {
			return fmt.Errorf("source %s: %w", src.ID(), err)
		}
	}
	return nil
}

func (o *Orchestrator) runSource(ctx context.Context, src Source) (err error) {
	log.Printf("Fetching listings from %s", src.ID())

	run := &models.ScrapeRun{
		ID:        uuid.NewString(),
		Source:    src.ID(),
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	if err := o.store.CreateRun(ctx, run); err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	defer func() {
		now := time.Now()
		run.FinishedAt = &now
		run.Status = models.RunStatusCompleted
		if err != nil {
			run.Status = models.RunStatusFailed
		}
		if ferr := o.store.FinishRun(ctx, run); ferr != nil {
			log.Printf("Error finishing run %s: %v", run.ID, ferr)
		}
	}()

	listings, err := src.List(ctx)
	if err != nil {
		return err
	}
	run.ListingsFound = len(listings)
	log.Printf("%s: %d listings", src.ID(), len(listings))

	for i := range listings {
		l := &listings[i]

		seen, err := o.seen(ctx, l)
		if err != nil {
			return fmt.Errorf("dedup check %s: %w", l.ID, err)
		}
		if seen {
			logging.Debugf("already seen: %s", l.ID)
			continue
		}

		log.Printf("Found new listing: %s", l.URL)

		if err := src.Enrich(ctx, l); err != nil {
			if o.cfg.Bot.SkipBadListings {
				log.Printf("Skipping listing %s: %v", l.ID, err)
				run.ErrorsCount++
				continue
			}
			return err
		}

		rec := &models.DedupRecord{
			ExternalID: l.ID,
			Name:       l.Name,
			URL:        l.URL,
			SourceDate: o.calc.InsertTime(l),
			CreatedAt:  time.Now().Unix(),
		}
		if err := o.store.Record(ctx, rec); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				log.Printf("Listing %s recorded concurrently, skipping", l.ID)
				continue
			}
			log.Printf("Persistence error for %s: %v", l.ID, err)
			run.ErrorsCount++
			continue
		}
		run.ListingsNew++
		log.Printf("Recorded listing %s", l.ID)

		if o.notifier != nil {
			if err := o.notifyListing(ctx, l); err != nil {
				return fmt.Errorf("notify %s: %w", l.ID, err)
			}
			log.Printf("Notified channel of listing %s", l.ID)
		}
	}

	log.Printf("%s: completed, %d new", src.ID(), run.ListingsNew)
	return nil
}

func (o *Orchestrator) seen(ctx context.Context, l *models.Listing) (bool, error) {
	seen, err := o.store.Exists(ctx, l.ID)
	if err != nil || seen {
		return seen, err
	}
	if o.cfg.Bot.DedupKey == "id_or_name" {
		return o.store.ExistsByName(ctx, l.Name)
	}
	return false, nil
}

// notifyListing makes exactly two notifier calls: the attachment post, then
// a threaded reply keyed to the first post's message timestamp.
func (o *Orchestrator) notifyListing(ctx context.Context, l *models.Listing) error {
	ts, err := o.notifier.Post(ctx, notify.Message{
		Attachments: o.formatter.Attachments(l),
	})
	if err != nil {
		return err
	}

	_, err = o.notifier.Post(ctx, notify.Message{
		Text:     o.formatter.Reply(l),
		ThreadTS: ts,
	})
	return err
}

// Close releases any fetcher resources held by the sources.
func (o *Orchestrator) Close() {
	for _, src := range o.sources {
		if err := src.Close(); err != nil {
			log.Printf("Error closing source %s: %v", src.ID(), err)
		}
	}
}
