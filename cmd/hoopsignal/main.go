// Command hoopsignal runs the live pace-tracking service: an HTTP trigger
// endpoint that processes one polling batch per call, plus health and
// metrics surfaces. An external scheduler (cron) drives /run-cycle.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hoopsignal/hoopsignal/internal/audit"
	"github.com/hoopsignal/hoopsignal/internal/config"
	"github.com/hoopsignal/hoopsignal/internal/feed"
	"github.com/hoopsignal/hoopsignal/internal/lines"
	"github.com/hoopsignal/hoopsignal/internal/logger"
	"github.com/hoopsignal/hoopsignal/internal/metrics"
	"github.com/hoopsignal/hoopsignal/internal/models"
	"github.com/hoopsignal/hoopsignal/internal/notify"
	"github.com/hoopsignal/hoopsignal/internal/slots"
	"github.com/hoopsignal/hoopsignal/internal/tracker"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	defer logger.Sync()
	logger.Info("starting hoopsignal")

	loc, err := time.LoadLocation(cfg.Tracker.Timezone)
	if err != nil {
		logger.Fatal("failed to load timezone: %v", err)
	}

	feedClient := feed.NewClient(feed.Config{
		BaseURL:           cfg.Feed.BaseURL,
		Token:             cfg.Feed.Token,
		SportID:           cfg.Feed.SportID,
		LeagueID:          cfg.Feed.LeagueID,
		Timeout:           time.Duration(cfg.Feed.TimeoutSeconds) * time.Second,
		MaxRetries:        cfg.Feed.MaxRetries,
		RetryDelay:        time.Duration(cfg.Feed.RetryDelaySeconds) * time.Second,
		RequestsPerSecond: cfg.Feed.RequestsPerSecond,
	})

	var cache *redis.Client
	if cfg.Lines.CacheEnabled {
		cache = redis.NewClient(&redis.Options{
			Addr:     cfg.Lines.RedisAddr,
			Password: cfg.Lines.RedisPassword,
			DB:       cfg.Lines.RedisDB,
		})
		defer cache.Close()
		logger.Info("line cache enabled at %s", cfg.Lines.RedisAddr)
	}
	resolver := lines.NewResolver(feedClient.OddsSources(), cache,
		time.Duration(cfg.Lines.CacheTTLSeconds)*time.Second)

	webhooks := notify.NewWebhookClient(time.Duration(cfg.Notify.WebhookTimeoutSeconds) * time.Second)
	var telegram *notify.TelegramClient
	if cfg.Notify.Telegram.Enabled {
		telegram, err = notify.NewTelegramClient(
			cfg.Notify.Telegram.BotToken,
			cfg.Notify.Telegram.ChatID,
			cfg.Notify.Telegram.MaxRetries,
			time.Duration(cfg.Notify.Telegram.RetryDelaySeconds)*time.Second,
		)
		if err != nil {
			logger.Fatal("failed to create telegram client: %v", err)
		}
		logger.Info("telegram broadcast enabled")
	}
	dispatcher := notify.NewDispatcher(webhooks, telegram)

	var sinks []audit.Sink
	if cfg.Audit.CSVEnabled {
		csvSink, err := audit.NewCSVSink(cfg.Audit.CSVDir)
		if err != nil {
			logger.Fatal("failed to create audit directory: %v", err)
		}
		sinks = append(sinks, csvSink)
	}
	if cfg.Audit.Kafka.Enabled {
		sinks = append(sinks, audit.NewKafkaSink(cfg.Audit.Kafka.Brokers, cfg.Audit.Kafka.Topic))
		logger.Info("kafka audit stream enabled on topic %s", cfg.Audit.Kafka.Topic)
	}
	auditor := audit.NewFanout(sinks...)
	defer auditor.Close()

	slotList := make([]slots.Slot, 0, len(cfg.Slots))
	for _, sc := range cfg.Slots {
		slotList = append(slotList, slots.Slot{
			Name:     sc.Name,
			Enabled:  sc.Enabled,
			Webhooks: sc.Webhooks,
		})
	}
	allocator := slots.New(slotList)

	app := &application{
		feed:      feedClient,
		resolver:  resolver,
		notifier:  dispatcher,
		allocator: allocator,
		tracker:   tracker.New(dispatcher, auditor, allocator, loc),
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.Serve(cfg.Metrics.Port)
		logger.Info("metrics listening on :%s", cfg.Metrics.Port)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/run-cycle", app.handleRunCycle)
	mux.HandleFunc("/health", handleHealth)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("trigger server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed: %v", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics shutdown failed: %v", err)
		}
	}
}

// application wires the polling pipeline together. batchMu serializes
// batches: a trigger arriving while a previous batch is still processing
// waits for it, so no two batches ever interleave state mutation.
type application struct {
	batchMu   sync.Mutex
	feed      *feed.Client
	resolver  *lines.Resolver
	notifier  *notify.Dispatcher
	allocator *slots.Allocator
	tracker   *tracker.Tracker
}

// handleRunCycle runs one polling batch and acknowledges only after the
// batch has fully completed, notifications included.
func (a *application) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	if err := a.runCycle(r.Context()); err != nil {
		metrics.CycleFailures.Inc()
		logger.Error("cycle failed: %v", err)
		http.Error(w, "cycle failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "completed",
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

func (a *application) runCycle(ctx context.Context) error {
	a.batchMu.Lock()
	defer a.batchMu.Unlock()
	metrics.CyclesTotal.Inc()

	batch, err := a.feed.FetchInplay(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch snapshot batch: %w", err)
	}
	logger.Debug("fetched %d in-play snapshots", len(batch))

	work := a.allocator.Assign(batch)
	for _, item := range work {
		if item.NewSelection {
			a.notifier.Send(ctx, item.Slot, notify.FormatReservation(
				item.Snapshot.HomeName, item.Snapshot.AwayName, item.Slot.Letter()))
		}
	}

	// Line lookups are independent and read-only, so they fan out across
	// events; state mutation below stays sequential.
	resolved := make([]*models.MarketLine, len(work))
	var wg sync.WaitGroup
	for i, item := range work {
		wg.Add(1)
		go func(i int, eventID string) {
			defer wg.Done()
			line, err := a.resolver.Resolve(ctx, eventID)
			if err != nil {
				logger.Warn("line resolution failed for event %s: %v", eventID, err)
				return
			}
			resolved[i] = line
		}(i, item.Snapshot.EventID)
	}
	wg.Wait()

	for i, item := range work {
		a.tracker.Process(ctx, item, resolved[i])
	}
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "hoopsignal",
	})
}
