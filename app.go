package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/kwv/wifimesh/field"
)

// retrainBatch is how many newly ingested samples trigger a model retrain.
const retrainBatch = 25

// App holds the live service state: the accumulated survey samples and the
// latest pipeline result built from them.
type App struct {
	Config    *field.Config
	Materials *field.MaterialMap

	mu      sync.RWMutex
	samples []field.Sample
	result  *field.PipelineResult

	pending   int
	retrainCh chan struct{}

	survey    *field.SurveyClient
	publisher *field.Publisher
}

// NewApp prepares the service state from a loaded config.
func NewApp(cfg *field.Config) (*App, error) {
	mm, err := field.NewMaterialMap(cfg.Building, cfg.Materials, cfg.Attenuation)
	if err != nil {
		return nil, err
	}
	return &App{
		Config:    cfg,
		Materials: mm,
		retrainCh: make(chan struct{}, 1),
	}, nil
}

// AddSample appends one live sample and schedules a retrain once a full
// batch has accumulated.
func (a *App) AddSample(s field.Sample) {
	a.mu.Lock()
	a.samples = append(a.samples, s)
	a.pending++
	trigger := a.pending >= retrainBatch
	if trigger {
		a.pending = 0
	}
	a.mu.Unlock()

	if trigger {
		select {
		case a.retrainCh <- struct{}{}:
		default:
			// retrain already queued
		}
	}
}

// SeedSamples loads an initial dataset before the service starts ingesting.
func (a *App) SeedSamples(samples []field.Sample) {
	a.mu.Lock()
	a.samples = append(a.samples, samples...)
	a.mu.Unlock()
}

// Snapshot returns the latest pipeline result, or nil before the first
// successful retrain.
func (a *App) Snapshot() *field.PipelineResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.result
}

// SampleCount returns how many samples have been accumulated so far.
func (a *App) SampleCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.samples)
}

// Retrain runs the full pipeline over the accumulated samples and swaps in
// the new result. Publishes results and coverage stats when MQTT is up.
func (a *App) Retrain() {
	a.mu.RLock()
	samples := make([]field.Sample, len(a.samples))
	copy(samples, a.samples)
	a.mu.RUnlock()

	if len(samples) < a.Config.Training.MinSamples {
		log.Printf("Retrain deferred: %d samples, need %d", len(samples), a.Config.Training.MinSamples)
		return
	}

	result, err := field.RunPipeline(a.Config, samples)
	if err != nil {
		log.Printf("Retrain failed: %v", err)
		return
	}

	a.mu.Lock()
	a.result = result
	a.mu.Unlock()

	log.Printf("Retrained on %d samples, best model: %s", len(samples), result.Best)

	if a.publisher == nil {
		return
	}
	if err := a.publisher.PublishResults(result.Info.ID, result.Results); err != nil {
		log.Printf("Error publishing results: %v", err)
	}
	if result.Field != nil {
		stats := result.Field.Stats(a.Config.Coverage.UsableRSSI)
		if err := a.publisher.PublishCoverage(result.Info.ID, stats); err != nil {
			log.Printf("Error publishing coverage: %v", err)
		}
	}
}

// retrainLoop serializes retrains so a burst of samples never runs two
// pipeline executions concurrently.
func (a *App) retrainLoop() {
	for range a.retrainCh {
		a.Retrain()
	}
}

// runService starts the live ingestion service: MQTT sample subscription,
// periodic retraining, and the HTTP map server.
func runService(cfg *field.Config, httpMode bool, httpPort int) {
	fmt.Println("Starting wifimesh service...")

	app, err := NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize service: %v", err)
	}

	// Seed from an existing dataset so the first retrain has something to
	// work with.
	if *dataFile != "" {
		samples, err := field.LoadSamples(*dataFile)
		if err != nil {
			log.Fatalf("Error loading dataset: %v", err)
		}
		app.SeedSamples(samples)
		log.Printf("Seeded %d samples from %s", len(samples), *dataFile)
	}

	go app.retrainLoop()

	// Train once on the seed data before accepting live traffic.
	if app.SampleCount() >= cfg.Training.MinSamples {
		app.Retrain()
	}

	if *mqttMode {
		handler := func(s field.Sample, err error) {
			if err != nil {
				log.Printf("Error decoding sample: %v", err)
				return
			}
			app.AddSample(s)
		}
		survey, err := field.InitSurveyClient(cfg, handler)
		if err != nil {
			log.Fatalf("Failed to initialize MQTT: %v", err)
		}
		if survey == nil {
			log.Fatal("MQTT broker not configured in config.yaml")
		}
		app.survey = survey
		app.publisher = field.NewPublisher(survey.Client(), cfg.MQTT.PublishPrefix)
		fmt.Println("MQTT survey ingestion initialized")
	}

	if httpMode {
		httpServer := newHTTPServer(app)
		go func() {
			addr := fmt.Sprintf("0.0.0.0:%d", httpPort)
			log.Printf("[HTTP] Starting server on %s", addr)
			if err := http.ListenAndServe(addr, httpServer); err != nil {
				log.Fatalf("[HTTP] Server error: %v", err)
			}
		}()
	}

	fmt.Println("\nService Running")
	fmt.Println("===============")

	if *mqttMode && app.survey != nil {
		fmt.Println("\nMQTT:")
		fmt.Printf("  Subscribed to: %s\n", app.survey.SamplesTopic())
		prefix := cfg.MQTT.PublishPrefix
		if prefix == "" {
			prefix = "wifimesh"
		}
		fmt.Printf("  Publishing results to: %s/results\n", prefix)
		fmt.Printf("  Publishing coverage to: %s/coverage\n", prefix)
	}

	if httpMode {
		fmt.Printf("\nHTTP endpoints (port %d):\n", httpPort)
		fmt.Println("  GET /health       - Health check")
		fmt.Println("  GET /results.json - Latest model comparison")
		fmt.Println("  GET /coverage.png - Coverage heatmap")
		fmt.Println("  GET /coverage.svg - Coverage vector plot")
	}

	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	fmt.Println("\nShutting down service...")
	if app.survey != nil {
		app.survey.Disconnect()
	}
	fmt.Println("Service stopped")
}
