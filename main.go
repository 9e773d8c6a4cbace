package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homescout/config"
	"homescout/httputil"
	"homescout/logging"
	"homescout/notify"
	"homescout/scheduler"
	"homescout/scraper"
	"homescout/services"
	"homescout/storage"
)

var (
	configPath = flag.String("config", "config/bot.yaml", "Path to the bot config file")
	logLevel   = flag.String("log-level", "", "Log level (debug or info), overrides LOG_LEVEL")
	doNotify   = flag.Bool("notify", true, "Send notifications; -notify=false still records dedup state")
	daemon     = flag.Bool("daemon", false, "Run on a schedule instead of one pass")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(*doNotify); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogPath)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	level := cfg.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	logging.SetLevel(level)

	log.Println("Starting homescout...")
	log.Printf("Loaded %d source configs", len(cfg.Sources))
	for _, src := range cfg.Sources {
		log.Printf("  - %s (%s)", src.Name, src.ID)
	}

	tz, err := time.LoadLocation(cfg.Bot.Timezone)
	if err != nil {
		log.Fatalf("Invalid timezone %s: %v", cfg.Bot.Timezone, err)
	}
	if !*daemon && !cfg.RunToday(time.Now().In(tz)) {
		log.Println("No eligible day to scrape, exiting")
		return
	}

	ctx := context.Background()
	clients := httputil.NewClients(cfg.HTTPTimeout)

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open dedup store: %v", err)
	}
	defer store.Close()
	log.Printf("Dedup store: %s", cfg.DBBackend)

	var sources []scraper.Source
	for _, srcCfg := range cfg.Sources {
		src, err := scraper.NewSource(srcCfg, clients)
		if err != nil {
			log.Fatalf("Failed to build source %s: %v", srcCfg.ID, err)
		}
		sources = append(sources, src)
	}

	calc := services.NewCalculator(cfg.Bot)
	formatter, err := notify.NewFormatter(calc, cfg)
	if err != nil {
		log.Fatalf("Failed to build formatter: %v", err)
	}

	var notifier notify.Notifier
	if *doNotify {
		slackNotifier, err := notify.NewSlackNotifier(ctx, cfg.Slack, clients.API)
		if err != nil {
			log.Fatalf("Failed to set up Slack: %v", err)
		}
		notifier = slackNotifier
	} else {
		log.Println("Notifications disabled (dry run), dedup state will still be recorded")
	}

	orchestrator := scraper.NewOrchestrator(cfg, store, sources, calc, formatter, notifier)
	defer orchestrator.Close()

	if *daemon {
		runDaemon(ctx, cfg, orchestrator)
		return
	}

	if err := orchestrator.Run(ctx); err != nil {
		log.Fatalf("Run failed: %v", err)
	}
	log.Println("Run complete")
}

func runDaemon(ctx context.Context, cfg *config.Config, orchestrator *scraper.Orchestrator) {
	sched := scheduler.New(cfg.Scheduler, orchestrator)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
}
